// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package calllog decides which intercepted calls are logged and writes the
// formatted records to the configured sinks.
package calllog

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/pkg/errutil"
)

// CodeInvalidPattern is returned for malformed mute patterns.
const CodeInvalidPattern = "INVALID_MUTE_PATTERN"

// defaultMuted are high-frequency allocator calls that drown out everything else.
var defaultMuted = []format.Action{
	format.ActionNPNMemAlloc,
	format.ActionNPNMemFree,
	format.ActionNPNMemFlush,
}

// Logger is the single intake point for call records.
//
// Logger is not safe for concurrent configuration changes; logging itself
// only reads its state.
type Logger struct {
	sink       Sink
	muteAll    bool
	muted      map[format.Action]bool
	lineEnding string
	short      bool
	diag       *slog.Logger
}

// Option configures a Logger.
type Option func(*Logger)

// WithSink adds a destination for records. Multiple sinks fan out.
func WithSink(s Sink) Option {
	return func(l *Logger) {
		if s == nil {
			return
		}
		if l.sink == nil {
			l.sink = s
			return
		}
		l.sink = MultiSink{l.sink, s}
	}
}

// WithLineEnding sets the terminator appended to every record.
func WithLineEnding(ending string) Option {
	return func(l *Logger) {
		l.lineEnding = ending
	}
}

// WithShortFormat logs action names only, without arguments.
func WithShortFormat(short bool) Option {
	return func(l *Logger) {
		l.short = short
	}
}

// WithMuteAll starts the logger globally muted.
func WithMuteAll(muteAll bool) Option {
	return func(l *Logger) {
		l.muteAll = muteAll
	}
}

// WithDiagnostics sets the slog logger used for the logger's own failures.
func WithDiagnostics(logger *slog.Logger) Option {
	return func(l *Logger) {
		if logger != nil {
			l.diag = logger
		}
	}
}

// New creates a Logger. Allocator calls are muted by default.
func New(opts ...Option) *Logger {
	l := &Logger{
		muted:      make(map[format.Action]bool),
		lineEnding: format.LF,
		diag:       slog.Default(),
	}
	for _, a := range defaultMuted {
		l.muted[a] = true
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// IsMuted reports whether records for a are suppressed.
func (l *Logger) IsMuted(a format.Action) bool {
	return l.muteAll || l.muted[a]
}

// SetMuteAll toggles the global mute flag.
func (l *Logger) SetMuteAll(muteAll bool) {
	l.muteAll = muteAll
}

// Mute adds a to the mute set.
func (l *Logger) Mute(a format.Action) {
	l.muted[a] = true
}

// Unmute removes a from the mute set.
func (l *Logger) Unmute(a format.Action) {
	delete(l.muted, a)
}

// UnmuteAll clears the mute set, defaults included. The global flag is untouched.
func (l *Logger) UnmuteAll() {
	l.muted = make(map[format.Action]bool)
}

// MutePattern mutes every action whose key matches a glob such as "npn_mem*".
// It returns the number of actions matched.
func (l *Logger) MutePattern(pattern string) (int, error) {
	g, err := glob.Compile(strings.ToLower(strings.TrimSpace(pattern)))
	if err != nil {
		return 0, oops.Code(CodeInvalidPattern).With("pattern", pattern).Wrap(err)
	}
	n := 0
	for _, a := range format.Actions() {
		if g.Match(a.Key()) {
			l.muted[a] = true
			n++
		}
	}
	return n, nil
}

// Muted returns the muted actions in declaration order.
func (l *Logger) Muted() []format.Action {
	out := make([]format.Action, 0, len(l.muted))
	for a := range l.muted {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LineEnding returns the configured record terminator.
func (l *Logger) LineEnding() string {
	return l.lineEnding
}

// LogCall records a call's arguments. A record that cannot be captured is
// skipped; the call itself is never affected.
func (l *Logger) LogCall(a format.Action, args ...format.Arg) {
	if l.IsMuted(a) {
		mutedTotal.WithLabelValues(a.Key()).Inc()
		return
	}
	captured, err := format.Capture(format.CallEvent{Action: a, Args: args, Short: l.short})
	if err != nil {
		skippedTotal.WithLabelValues(SkipCapture).Inc()
		errutil.LogDebug(l.diag, "skipping unrecordable call", err)
		return
	}
	l.write(Record{Action: a, Kind: KindCall, Line: format.Format(captured, l.lineEnding)})
}

// LogReturn records a call's return value as "---Return: <value>".
func (l *Logger) LogReturn(a format.Action, rv any) {
	if l.IsMuted(a) {
		return
	}
	l.write(Record{Action: a, Kind: KindReturn, Line: format.FormatReturn(rv, l.lineEnding)})
}

// LogMessage writes pre-formatted text regardless of mute settings.
func (l *Logger) LogMessage(text string) {
	if !strings.HasSuffix(text, "\n") {
		text += l.lineEnding
	}
	l.write(Record{Kind: KindMessage, Line: text})
}

func (l *Logger) write(rec Record) {
	recordsTotal.WithLabelValues(rec.Action.Key(), string(rec.Kind)).Inc()
	if l.sink == nil {
		return
	}
	if err := l.sink.Write(rec); err != nil {
		skippedTotal.WithLabelValues(SkipSink).Inc()
		errutil.LogError(l.diag, "call log sink write failed", err)
	}
}
