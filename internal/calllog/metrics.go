// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package calllog

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Reasons a record is dropped.
const (
	SkipCapture = "capture"
	SkipSink    = "sink"
)

var recordsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "npspy_log_records_total",
		Help: "Total number of call log records written by action and kind",
	},
	[]string{"action", "kind"},
)

var mutedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "npspy_log_muted_total",
		Help: "Total number of calls not logged because their action is muted",
	},
	[]string{"action"},
)

var skippedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "npspy_log_skipped_total",
		Help: "Total number of call log records dropped by reason",
	},
	[]string{"reason"},
)

// RegisterMetrics registers call log metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(recordsTotal)
	reg.MustRegister(mutedTotal)
	reg.MustRegister(skippedTotal)
}
