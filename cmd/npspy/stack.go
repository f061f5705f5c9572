// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"io"
	"log/slog"

	"github.com/fatih/color"
	"github.com/samber/oops"

	"github.com/holomush/npspy/internal/calllog"
	"github.com/holomush/npspy/internal/config"
	"github.com/holomush/npspy/internal/dispatch"
	"github.com/holomush/npspy/internal/loader"
	"github.com/holomush/npspy/internal/logging"
)

// stack is the wired spy: diagnostics, call log, loader and dispatcher.
type stack struct {
	diag       *slog.Logger
	log        *calllog.Logger
	plugins    *loader.Directory
	dispatcher *dispatch.Dispatcher
	closers    []io.Closer
}

// newDiagnostics builds the diagnostic logger for cfg, writing to w.
func newDiagnostics(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	//nolint:wrapcheck // logging errors carry their own oops codes
	return logging.Setup(logging.Options{
		Service: "npspy",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   cfg.LogLevel,
		Writer:  w,
	})
}

// newCallLog builds the call logger and its sinks. The returned closers must
// be closed when logging ends.
func newCallLog(cfg *config.Config, out io.Writer, diag *slog.Logger) (*calllog.Logger, []io.Closer, error) {
	opts := []calllog.Option{
		calllog.WithLineEnding(cfg.LineEnding()),
		calllog.WithShortFormat(cfg.Log.Short),
		calllog.WithMuteAll(cfg.Log.MuteAll),
		calllog.WithDiagnostics(diag),
	}
	var closers []io.Closer

	if cfg.Log.Console {
		opts = append(opts, calllog.WithSink(calllog.NewConsoleSink(out, cfg.Log.Color && !color.NoColor)))
	}
	if cfg.Log.File != "" {
		fileSink, err := calllog.OpenFileSink(cfg.Log.File)
		if err != nil {
			return nil, nil, oops.With("path", cfg.Log.File).Wrapf(err, "open call log file")
		}
		opts = append(opts, calllog.WithSink(fileSink))
		closers = append(closers, fileSink)
	}
	if cfg.Log.Structured {
		opts = append(opts, calllog.WithSink(calllog.NewSlogSink(diag)))
	}

	l := calllog.New(opts...)
	for _, pattern := range cfg.Log.Mute {
		n, err := l.MutePattern(pattern)
		if err != nil {
			closeAll(closers, diag)
			return nil, nil, oops.Wrapf(err, "apply mute pattern")
		}
		if n == 0 {
			diag.Warn("mute pattern matches no action", "pattern", pattern)
		}
	}
	return l, closers, nil
}

// newStack wires everything run needs from cfg.
func newStack(cfg *config.Config, out, errOut io.Writer) (*stack, error) {
	diag, err := newDiagnostics(cfg, errOut)
	if err != nil {
		return nil, err
	}

	callLog, closers, err := newCallLog(cfg, out, diag)
	if err != nil {
		return nil, err
	}

	plugins := loader.NewDirectory(cfg.PluginsDir, loader.WithDiagnostics(diag))
	d, err := dispatch.NewDispatcher(plugins,
		dispatch.WithConfig(dispatch.Config{ShutdownAfterLastInstance: cfg.ShutdownAfterLastInstance}),
		dispatch.WithCallLog(callLog),
		dispatch.WithDiagnostics(diag),
	)
	if err != nil {
		closeAll(closers, diag)
		return nil, oops.Wrapf(err, "create dispatcher")
	}

	return &stack{diag: diag, log: callLog, plugins: plugins, dispatcher: d, closers: closers}, nil
}

func (s *stack) Close() {
	closeAll(s.closers, s.diag)
}

func closeAll(closers []io.Closer, diag *slog.Logger) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			diag.Warn("close failed", "error", err)
		}
	}
}
