// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package harness

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/npspy/pkg/npapi"
)

// Error codes returned by sessions.
const (
	CodeNilModule     = "NIL_MODULE"
	CodeModuleFailed  = "MODULE_CALL_FAILED"
	CodeSessionState  = "SESSION_STATE"
	CodeInvalidScript = "INVALID_SCRIPT"
)

const (
	defaultChunkSize   = 1024
	defaultPayloadSize = 4096
)

// Module is the browser's view of a plugin library: its three exported
// entry points.
type Module interface {
	GetEntryPoints(funcs *npapi.PluginFuncs) npapi.NPError
	Initialize(host *npapi.NetscapeFuncs) npapi.NPError
	Shutdown() npapi.NPError
}

// Script describes the conversation a Session runs.
type Script struct {
	MIMEType   string
	Instances  int
	Iterations int
	URL        string
	Payload    []byte
}

func (s *Script) normalize() error {
	if s.MIMEType == "" {
		return oops.Code(CodeInvalidScript).Errorf("mime type is required")
	}
	if s.Instances < 1 {
		return oops.Code(CodeInvalidScript).With("instances", s.Instances).Errorf("at least one instance is required")
	}
	if s.Iterations < 0 {
		return oops.Code(CodeInvalidScript).With("iterations", s.Iterations).Errorf("iterations must not be negative")
	}
	if s.URL == "" {
		s.URL = "http://localhost/npspy/data.bin"
	}
	if s.Payload == nil {
		s.Payload = make([]byte, defaultPayloadSize)
		for i := range s.Payload {
			s.Payload[i] = byte('a' + i%26)
		}
	}
	return nil
}

// InstanceReport is what happened to one instance.
type InstanceReport struct {
	ID           ulid.ULID
	NewResult    npapi.NPError
	BytesWritten int64
	Streams      int
	Notified     int
	PluginName   string
	Saved        []byte
}

// Report summarizes a Run.
type Report struct {
	Instances []InstanceReport
}

// Created returns how many instances NPP_New accepted.
func (r *Report) Created() int {
	n := 0
	for _, ir := range r.Instances {
		if ir.NewResult == npapi.NoError {
			n++
		}
	}
	return n
}

// BytesWritten returns the stream bytes accepted across instances.
func (r *Report) BytesWritten() int64 {
	var n int64
	for _, ir := range r.Instances {
		n += ir.BytesWritten
	}
	return n
}

// Session plays the browser side of an NPAPI conversation against a module.
type Session struct {
	module  Module
	host    *Host
	funcs   npapi.PluginFuncs
	started bool
	diag    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSessionLogger sets the logger for session progress.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.diag = logger
		}
	}
}

// NewSession creates a session driving module with host as the browser.
func NewSession(module Module, host *Host, opts ...SessionOption) (*Session, error) {
	if module == nil {
		return nil, oops.Code(CodeNilModule).Errorf("module must not be nil")
	}
	if host == nil {
		host = NewHost()
	}
	s := &Session{module: module, host: host, diag: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Host returns the simulated browser.
func (s *Session) Host() *Host { return s.host }

// Start runs NP_GetEntryPoints then NP_Initialize.
func (s *Session) Start() error {
	if s.started {
		return oops.Code(CodeSessionState).Errorf("session already started")
	}
	if rv := s.module.GetEntryPoints(&s.funcs); rv != npapi.NoError {
		return moduleFailed("NP_GetEntryPoints", rv)
	}
	if rv := s.module.Initialize(s.host.Funcs()); rv != npapi.NoError {
		return moduleFailed("NP_Initialize", rv)
	}
	s.started = true
	return nil
}

// Close runs NP_Shutdown.
func (s *Session) Close() error {
	if !s.started {
		return oops.Code(CodeSessionState).Errorf("session not started")
	}
	s.started = false
	if rv := s.module.Shutdown(); rv != npapi.NoError {
		return moduleFailed("NP_Shutdown", rv)
	}
	return nil
}

// Run creates script.Instances instances, streams the payload to each one
// script.Iterations times, exercises the remaining NPP calls and destroys
// every instance. A refused NPP_New is reported, not returned as an error.
func (s *Session) Run(ctx context.Context, script Script) (*Report, error) {
	if !s.started {
		return nil, oops.Code(CodeSessionState).Errorf("session not started")
	}
	if err := script.normalize(); err != nil {
		return nil, err
	}

	report := &Report{Instances: make([]InstanceReport, 0, script.Instances)}
	live := make([]*npapi.NPP, 0, script.Instances)
	defer func() {
		for _, inst := range live {
			s.destroy(inst, nil)
		}
	}()

	for range script.Instances {
		if err := ctx.Err(); err != nil {
			return report, oops.Wrap(err)
		}
		id := ulid.Make()
		inst := &npapi.NPP{NData: id}
		ir := InstanceReport{ID: id}
		ir.NewResult = s.newInstance(inst, id, script)
		if ir.NewResult != npapi.NoError {
			s.diag.Warn("instance refused",
				"instance", id.String(),
				"result", ir.NewResult.String())
			report.Instances = append(report.Instances, ir)
			continue
		}
		live = append(live, inst)
		report.Instances = append(report.Instances, ir)
	}

	for i := range report.Instances {
		ir := &report.Instances[i]
		if ir.NewResult != npapi.NoError {
			continue
		}
		inst := findInstance(live, ir.ID)
		if err := s.exercise(ctx, inst, ir, script); err != nil {
			return report, err
		}
	}

	for i := range report.Instances {
		ir := &report.Instances[i]
		if ir.NewResult != npapi.NoError {
			continue
		}
		inst := findInstance(live, ir.ID)
		live = removeInstance(live, inst)
		s.destroy(inst, ir)
	}
	return report, nil
}

func (s *Session) newInstance(inst *npapi.NPP, id ulid.ULID, script Script) npapi.NPError {
	if s.funcs.New == nil {
		return npapi.InvalidFuncTableError
	}
	argn := []string{"type", "src", "id"}
	argv := []string{script.MIMEType, script.URL, id.String()}
	return s.funcs.New(script.MIMEType, inst, npapi.ModeEmbed, argn, argv, nil)
}

func (s *Session) exercise(ctx context.Context, inst *npapi.NPP, ir *InstanceReport, script Script) error {
	if s.funcs.SetWindow != nil {
		s.funcs.SetWindow(inst, &npapi.Window{
			Width: 640, Height: 480,
			ClipRect: npapi.Rect{Bottom: 480, Right: 640},
			Type:     npapi.WindowTypeDrawable,
		})
	}

	for range script.Iterations {
		if err := ctx.Err(); err != nil {
			return oops.Wrap(err)
		}
		ir.BytesWritten += s.stream(inst, script)
		ir.Streams++
		ir.Notified += s.deliverNotifications(inst)
	}

	if s.funcs.HandleEvent != nil {
		s.funcs.HandleEvent(inst, &npapi.Event{Event: 0})
	}
	if s.funcs.GetValue != nil {
		var name string
		if s.funcs.GetValue(inst, npapi.NPPVpluginNameString, &name) == npapi.NoError {
			ir.PluginName = name
		}
	}
	if s.funcs.Print != nil {
		s.funcs.Print(inst, &npapi.Print{
			Mode:  npapi.ModeEmbed,
			Embed: &npapi.EmbedPrint{Window: npapi.Window{Width: 640, Height: 480}},
		})
	}
	ir.Notified += s.deliverNotifications(inst)
	return nil
}

// stream pushes the payload through NewStream/WriteReady/Write/DestroyStream
// and returns the bytes the plugin accepted.
func (s *Session) stream(inst *npapi.NPP, script Script) int64 {
	if s.funcs.NewStream == nil {
		return 0
	}
	st := &npapi.Stream{URL: script.URL, End: uint32(len(script.Payload)), NData: inst.NData}
	stype := npapi.StreamNormal
	if rv := s.funcs.NewStream(inst, script.MIMEType, st, false, &stype); rv != npapi.NoError {
		return 0
	}

	var written int64
	reason := npapi.ReasonDone
	offset := 0
	for offset < len(script.Payload) {
		ready := int32(defaultChunkSize)
		if s.funcs.WriteReady != nil {
			ready = s.funcs.WriteReady(inst, st)
		}
		if ready <= 0 {
			reason = npapi.ReasonUserBreak
			break
		}
		end := min(offset+int(ready), len(script.Payload), offset+defaultChunkSize)
		n := int32(end - offset)
		if s.funcs.Write != nil {
			n = s.funcs.Write(inst, st, int32(offset), script.Payload[offset:end])
		}
		if n < 0 {
			reason = npapi.ReasonNetworkErr
			break
		}
		if n == 0 {
			reason = npapi.ReasonUserBreak
			break
		}
		written += int64(n)
		offset += int(n)
	}

	if (stype == npapi.StreamAsFile || stype == npapi.StreamAsFileOnly) && reason == npapi.ReasonDone && s.funcs.StreamAsFile != nil {
		s.funcs.StreamAsFile(inst, st, "/tmp/npspy-stream.bin")
	}
	if s.funcs.DestroyStream != nil {
		s.funcs.DestroyStream(inst, st, reason)
	}
	return written
}

func (s *Session) deliverNotifications(inst *npapi.NPP) int {
	pending := s.host.takePending(inst)
	if s.funcs.URLNotify == nil {
		return 0
	}
	for _, r := range pending {
		s.funcs.URLNotify(inst, r.URL, npapi.ReasonDone, r.NotifyData)
	}
	return len(pending)
}

func (s *Session) destroy(inst *npapi.NPP, ir *InstanceReport) {
	if s.funcs.Destroy == nil {
		return
	}
	var saved *npapi.SavedData
	rv := s.funcs.Destroy(inst, &saved)
	if rv != npapi.NoError {
		s.diag.Warn("instance destroy failed", "result", rv.String())
	}
	if ir != nil && saved != nil {
		ir.Saved = saved.Buf
	}
}

func findInstance(live []*npapi.NPP, id ulid.ULID) *npapi.NPP {
	for _, inst := range live {
		if inst.NData == id {
			return inst
		}
	}
	return nil
}

func removeInstance(live []*npapi.NPP, inst *npapi.NPP) []*npapi.NPP {
	for i, l := range live {
		if l == inst {
			return append(live[:i], live[i+1:]...)
		}
	}
	return live
}

func moduleFailed(call string, rv npapi.NPError) error {
	return oops.Code(CodeModuleFailed).
		With("call", call).
		With("np_error", rv.String()).
		Errorf("%s returned %s", call, rv)
}
