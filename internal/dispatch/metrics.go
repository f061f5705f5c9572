// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/holomush/npspy/pkg/errutil"
)

// Status values for dispatch metrics.
const (
	StatusForwarded      = "forwarded"
	StatusNotFound       = "not_found"
	StatusNotInitialized = "not_initialized"
	StatusUnsupported    = "unsupported_version"
	StatusLoadFailed     = "load_failed"
	StatusInvalid        = "invalid_table"
	StatusMissing        = "not_provided"
	StatusError          = "error"
)

// DispatchTotal counts dispatched calls by action and outcome.
var DispatchTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "npspy_dispatch_total",
		Help: "Total number of intercepted calls by action and outcome",
	},
	[]string{"action", "status"},
)

// DispatchDuration observes the time spent in forwarded calls.
var DispatchDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "npspy_dispatch_duration_seconds",
		Help:    "Forwarded call duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"action"},
)

// PluginsLoaded is the number of registered plugin libraries.
var PluginsLoaded = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "npspy_plugins_loaded",
	Help: "Number of plugin libraries currently registered",
})

// InstancesLive is the number of bound plugin instances.
var InstancesLive = prometheus.NewGauge(prometheus.GaugeOpts{
	Name: "npspy_instances_live",
	Help: "Number of plugin instances currently bound",
})

// RegisterMetrics registers dispatch metrics with the given Prometheus registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(DispatchTotal)
	reg.MustRegister(DispatchDuration)
	reg.MustRegister(PluginsLoaded)
	reg.MustRegister(InstancesLive)
}

func recordDispatch(action, status string) {
	DispatchTotal.WithLabelValues(action, status).Inc()
}

func recordDuration(action string, d time.Duration) {
	DispatchDuration.WithLabelValues(action).Observe(d.Seconds())
}

// statusFor maps a dispatch error to its metric status.
func statusFor(err error) string {
	if err == nil {
		return StatusForwarded
	}
	switch errutil.Code(err) {
	case CodeNotFound:
		return StatusNotFound
	case CodeNotInitialized:
		return StatusNotInitialized
	case CodeUnsupportedHostVersion:
		return StatusUnsupported
	case CodeLoadFailed:
		return StatusLoadFailed
	case CodeInvalidFuncTable:
		return StatusInvalid
	case CodeNotProvided:
		return StatusMissing
	default:
		return StatusError
	}
}
