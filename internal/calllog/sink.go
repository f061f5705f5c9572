// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package calllog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/samber/oops"

	"github.com/holomush/npspy/internal/format"
)

// RecordKind classifies a record.
type RecordKind string

// Record kinds.
const (
	KindCall    RecordKind = "call"
	KindReturn  RecordKind = "return"
	KindMessage RecordKind = "message"
)

// Record is one formatted line ready for output. Line includes its terminator.
type Record struct {
	Action format.Action
	Kind   RecordKind
	Line   string
}

// Sink is a destination for records.
type Sink interface {
	Write(rec Record) error
}

// MultiSink writes every record to each sink, joining their errors.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(rec Record) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ConsoleSink writes records to a terminal, optionally colored by direction.
type ConsoleSink struct {
	w     io.Writer
	color bool
	mu    sync.Mutex

	npn, npp, ret, msg *color.Color
}

// NewConsoleSink creates a console sink. If w is nil, writes to os.Stdout.
func NewConsoleSink(w io.Writer, colored bool) *ConsoleSink {
	if w == nil {
		w = os.Stdout
	}
	s := &ConsoleSink{
		w:     w,
		color: colored,
		npn:   color.New(color.FgCyan),
		npp:   color.New(color.FgGreen),
		ret:   color.New(color.Faint),
		msg:   color.New(color.FgYellow),
	}
	if colored {
		for _, c := range []*color.Color{s.npn, s.npp, s.ret, s.msg} {
			c.EnableColor()
		}
	}
	return s
}

// Write implements Sink.
func (s *ConsoleSink) Write(rec Record) error {
	line := rec.Line
	if s.color {
		body := strings.TrimRight(line, "\r\n")
		line = s.colorFor(rec).Sprint(body) + line[len(body):]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := io.WriteString(s.w, line); err != nil {
		return oops.In("calllog").With("sink", "console").Wrap(err)
	}
	return nil
}

func (s *ConsoleSink) colorFor(rec Record) *color.Color {
	switch {
	case rec.Kind == KindReturn:
		return s.ret
	case rec.Kind == KindMessage:
		return s.msg
	case rec.Action.IsNPN():
		return s.npn
	default:
		return s.npp
	}
}

// FileSink appends records to a file.
type FileSink struct {
	path string
	f    *os.File
	mu   sync.Mutex
}

// OpenFileSink opens path for appending, creating it and its directory if needed.
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, oops.In("calllog").With("path", path).Hint("failed to create log directory").Wrap(err)
	}
	f, err := os.OpenFile(filepath.Clean(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, oops.In("calllog").With("path", path).Hint("failed to open log file").Wrap(err)
	}
	return &FileSink{path: path, f: f}, nil
}

// Write implements Sink.
func (s *FileSink) Write(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return oops.In("calllog").With("path", s.path).New("file sink is closed")
	}
	if _, err := s.f.WriteString(rec.Line); err != nil {
		return oops.In("calllog").With("path", s.path).Wrap(err)
	}
	return nil
}

// Close flushes and closes the file. Further writes fail.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	if err != nil {
		return oops.In("calllog").With("path", s.path).Wrap(err)
	}
	return nil
}

// SlogSink forwards records to a structured logger at debug level.
type SlogSink struct {
	logger *slog.Logger
}

// NewSlogSink creates a sink backed by logger, or slog.Default when nil.
func NewSlogSink(logger *slog.Logger) *SlogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogSink{logger: logger}
}

// Write implements Sink.
func (s *SlogSink) Write(rec Record) error {
	attrs := []slog.Attr{slog.String("kind", string(rec.Kind))}
	if rec.Action.Valid() {
		attrs = append(attrs, slog.String("action", rec.Action.Key()))
	}
	s.logger.LogAttrs(context.Background(), slog.LevelDebug, strings.TrimRight(rec.Line, "\r\n"), attrs...)
	return nil
}
