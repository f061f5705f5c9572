// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/npspy/internal/calllog"
	"github.com/holomush/npspy/internal/config"
	"github.com/holomush/npspy/internal/dispatch"
	"github.com/holomush/npspy/internal/harness"
	"github.com/holomush/npspy/internal/observability"
	"github.com/holomush/npspy/pkg/npapi"
)

// runConfig holds the flags of the run command.
type runConfig struct {
	mimeType   string
	instances  int
	iterations int
	url        string
}

// Validate checks that the configuration is valid.
func (cfg *runConfig) Validate() error {
	if cfg.mimeType == "" {
		return oops.Code(harness.CodeInvalidScript).Hint("pass --mime").Errorf("mime is required")
	}
	if cfg.instances < 1 {
		return oops.Code(harness.CodeInvalidScript).With("instances", cfg.instances).Errorf("instances must be at least 1")
	}
	if cfg.iterations < 0 {
		return oops.Code(harness.CodeInvalidScript).With("iterations", cfg.iterations).Errorf("iterations must not be negative")
	}
	return nil
}

// NewRunCmd creates the run subcommand.
func NewRunCmd() *cobra.Command {
	cfg := &runConfig{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a plugin through the spy with a simulated browser",
		Long: heredoc.Doc(`
			Run loads the plugin registered for --mime behind the spy, then plays
			a scripted browser session against it: create the instances, stream
			a payload to each one, deliver URL notifications, query values,
			print, and destroy. Every call is written to the call log.
		`),
		Example: heredoc.Doc(`
			npspy run --mime application/x-npspy-test --instances 2 --iterations 3
			npspy run --mime application/x-npspy-test --mute 'npp_write*' --metrics-addr 127.0.0.1:9100
		`),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			global, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runSession(cmd.Context(), global, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&cfg.mimeType, "mime", "", "MIME type of the embedded content")
	cmd.Flags().IntVar(&cfg.instances, "instances", 1, "number of plugin instances to create")
	cmd.Flags().IntVar(&cfg.iterations, "iterations", 1, "streams delivered to each instance")
	cmd.Flags().StringVar(&cfg.url, "url", "", "stream URL reported to the plugin")

	return cmd
}

// runSession wires the spy from global config and plays one session.
func runSession(ctx context.Context, global *config.Config, cfg *runConfig, out, errOut io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := newStack(global, out, errOut)
	if err != nil {
		return err
	}
	defer st.Close()

	var ready atomic.Bool
	var metrics *observability.Metrics
	if global.MetricsAddr != "" {
		server := observability.NewServer(global.MetricsAddr, ready.Load,
			observability.WithRegistrar(calllog.RegisterMetrics),
			observability.WithRegistrar(dispatch.RegisterMetrics),
			observability.WithLogger(st.diag),
		)
		errCh, err := server.Start()
		if err != nil {
			return oops.With("addr", global.MetricsAddr).Wrapf(err, "start metrics server")
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := server.Stop(shutdownCtx); err != nil {
				st.diag.Warn("error stopping metrics server", "error", err)
			}
		}()
		var cancel context.CancelFunc
		ctx, cancel = context.WithCancel(ctx)
		defer cancel()
		go monitorServerErrors(ctx, cancel, errCh, "metrics", st.diag)
		metrics = server.Metrics()
	}

	host := harness.NewHost(
		harness.WithHostLogger(st.diag),
		harness.WithReloadHandler(func(reloadPages bool) {
			st.log.LogMessage(fmt.Sprintf("browser asked to reload plugins (reload pages: %t)", reloadPages))
		}),
	)
	session, err := harness.NewSession(st.dispatcher, host, harness.WithSessionLogger(st.diag))
	if err != nil {
		return oops.Wrapf(err, "create session")
	}
	if err := session.Start(); err != nil {
		recordRun(metrics, "start_failed", nil)
		return oops.Wrapf(err, "start session")
	}
	ready.Store(true)

	report, runErr := session.Run(ctx, harness.Script{
		MIMEType:   cfg.mimeType,
		Instances:  cfg.instances,
		Iterations: cfg.iterations,
		URL:        cfg.url,
	})
	ready.Store(false)
	closeErr := session.Close()

	status := "ok"
	if runErr != nil {
		status = "failed"
	}
	recordRun(metrics, status, report)

	if report != nil {
		printReport(out, report)
	}
	if runErr != nil {
		return oops.Wrapf(runErr, "run session")
	}
	if closeErr != nil {
		return oops.Wrapf(closeErr, "close session")
	}
	return nil
}

func recordRun(m *observability.Metrics, status string, report *harness.Report) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	if report == nil {
		return
	}
	for _, ir := range report.Instances {
		m.InstancesTotal.WithLabelValues(ir.NewResult.String()).Inc()
	}
	m.StreamedBytes.Add(float64(report.BytesWritten()))
}

func printReport(w io.Writer, report *harness.Report) {
	_, _ = fmt.Fprintf(w, "instances: %d of %d created, %d bytes streamed\n",
		report.Created(), len(report.Instances), report.BytesWritten())
	for _, ir := range report.Instances {
		if ir.NewResult != npapi.NoError {
			_, _ = fmt.Fprintf(w, "  %s refused: %s\n", ir.ID, ir.NewResult)
			continue
		}
		_, _ = fmt.Fprintf(w, "  %s %q: %d streams, %d bytes, %d notifications, saved %d bytes\n",
			ir.ID, ir.PluginName, ir.Streams, ir.BytesWritten, ir.Notified, len(ir.Saved))
	}
}

// monitorServerErrors cancels the run when the metrics server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string, diag *slog.Logger) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			diag.Error("server error, stopping run", "server", serverName, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
