// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package dispatch implements the spy's NPAPI entry points. Every call is
// logged, routed to the real plugin or the real browser, and its result
// logged and returned unchanged.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/npspy/internal/calllog"
	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/internal/registry"
	"github.com/holomush/npspy/pkg/errutil"
	"github.com/holomush/npspy/pkg/npapi"
)

var tracer = otel.Tracer("npspy/dispatch")

// Loader finds and loads real plugin libraries.
type Loader interface {
	// FindPluginForMimeType loads the library that handles mimeType.
	FindPluginForMimeType(mimeType string) (any, error)
	// ResolveSymbol returns an exported entry point of lib, such as
	// npapi.SymbolGetEntryPoints.
	ResolveSymbol(lib any, name string) (any, error)
	// Unload releases lib.
	Unload(lib any) error
}

// Config holds dispatch policy.
type Config struct {
	// ShutdownAfterLastInstance calls the real NP_Shutdown and unloads the
	// library when its last instance is destroyed.
	ShutdownAfterLastInstance bool
}

// Dispatcher owns all spy state: the registry, the call log, the upstream
// host table and the loader. It is not safe for concurrent use.
type Dispatcher struct {
	cfg    Config
	loader Loader
	log    *calllog.Logger
	diag   *slog.Logger

	// Set between NP_Initialize and NP_Shutdown.
	registry *registry.Registry
	host     *npapi.NetscapeFuncs
	spy      *npapi.NetscapeFuncs
}

// Option configures a Dispatcher during construction.
type Option func(*Dispatcher)

// WithConfig sets the dispatch policy.
func WithConfig(cfg Config) Option {
	return func(d *Dispatcher) {
		d.cfg = cfg
	}
}

// WithCallLog sets the call log. If not provided, a logger with no sinks is used.
func WithCallLog(l *calllog.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDiagnostics sets the slog logger for dispatch failures.
func WithDiagnostics(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.diag = logger
		}
	}
}

// NewDispatcher creates a dispatcher that loads plugins through loader.
// Returns ErrNilLoader if loader is nil.
func NewDispatcher(loader Loader, opts ...Option) (*Dispatcher, error) {
	if loader == nil {
		return nil, ErrNilLoader
	}
	d := &Dispatcher{
		loader: loader,
		log:    calllog.New(),
		diag:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// CallLog returns the dispatcher's call log.
func (d *Dispatcher) CallLog() *calllog.Logger { return d.log }

// Registry returns the live registry, or nil before NP_Initialize.
func (d *Dispatcher) Registry() *registry.Registry { return d.registry }

// Initialized reports whether NP_Initialize has succeeded and NP_Shutdown
// has not yet run.
func (d *Dispatcher) Initialized() bool { return d.registry != nil }

// HostFuncs returns the spy NPN table handed to real plugins, or nil before
// NP_Initialize.
func (d *Dispatcher) HostFuncs() *npapi.NetscapeFuncs { return d.spy }

// GetEntryPoints fills funcs with the spy's NPP thunks.
func (d *Dispatcher) GetEntryPoints(funcs *npapi.PluginFuncs) npapi.NPError {
	const a = format.ActionNPGetEntryPoints
	d.log.LogCall(a, format.Pointer(funcs))
	if funcs == nil {
		return d.rejectModuleCall(a, ErrInvalidFuncTable(a, "nil plugin table"), npapi.InvalidFuncTableError)
	}
	*funcs = npapi.PluginFuncs{
		Version:       npapi.Version(npapi.VersionMajor, npapi.VersionMinor),
		New:           d.New,
		Destroy:       d.Destroy,
		SetWindow:     d.SetWindow,
		NewStream:     d.NewStream,
		DestroyStream: d.DestroyStream,
		StreamAsFile:  d.StreamAsFile,
		WriteReady:    d.WriteReady,
		Write:         d.Write,
		Print:         d.Print,
		HandleEvent:   d.HandleEvent,
		URLNotify:     d.URLNotify,
		GetValue:      d.GetValue,
		SetValue:      d.SetValue,
	}
	recordDispatch(a.Key(), StatusForwarded)
	d.log.LogReturn(a, npapi.NoError)
	return npapi.NoError
}

// Initialize captures the browser's NPN table and prepares the registry.
func (d *Dispatcher) Initialize(host *npapi.NetscapeFuncs) npapi.NPError {
	const a = format.ActionNPInitialize
	d.log.LogCall(a, format.Pointer(host))
	if host == nil {
		return d.rejectModuleCall(a, ErrInvalidFuncTable(a, "nil host table"), npapi.InvalidFuncTableError)
	}
	if major, minor := npapi.SplitVersion(host.Version); major > npapi.VersionMajor {
		return d.rejectModuleCall(a, ErrUnsupportedHostVersion(a, minor, npapi.VersionMinor), npapi.IncompatibleVersionError)
	}

	d.host = host
	d.spy = newHostThunks(d).table(host.Version)
	if d.registry == nil {
		d.registry = registry.New()
	}
	d.updateGauges()
	recordDispatch(a.Key(), StatusForwarded)
	d.log.LogMessage("NP_Initialize: success")
	d.log.LogReturn(a, npapi.NoError)
	return npapi.NoError
}

// Shutdown shuts down and unloads every plugin and returns the dispatcher
// to its uninitialized state.
func (d *Dispatcher) Shutdown() npapi.NPError {
	const a = format.ActionNPShutdown
	d.log.LogCall(a)
	if d.registry == nil {
		return d.rejectModuleCall(a, ErrNotInitialized(a), npapi.GenericError)
	}

	n := d.registry.ShutdownAll()
	for _, lib := range d.registry.Drain() {
		d.unload("", lib)
	}
	d.registry = nil
	d.host = nil
	d.spy = nil
	d.updateGauges()

	recordDispatch(a.Key(), StatusForwarded)
	d.log.LogMessage(fmt.Sprintf("NP_Shutdown: %d plugin(s) shut down", n))
	d.log.LogReturn(a, npapi.NoError)
	return npapi.NoError
}

func (d *Dispatcher) rejectModuleCall(a format.Action, err error, rv npapi.NPError) npapi.NPError {
	d.logDispatchError(a, err)
	recordDispatch(a.Key(), statusFor(err))
	d.log.LogReturn(a, rv)
	return rv
}

// load runs the NP_GetEntryPoints and NP_Initialize chain for a MIME type
// seen for the first time and registers the result.
func (d *Dispatcher) load(mime string) (*registry.Entry, error) {
	lib, err := d.loader.FindPluginForMimeType(mime)
	if err != nil {
		return nil, ErrMIMETypeNotFound(mime, err)
	}

	entry, err := d.register(mime, lib)
	if err != nil {
		d.unload(mime, lib)
		return nil, err
	}
	d.log.LogMessage(fmt.Sprintf("Loaded plugin for %s", entry.MIMEType()))
	return entry, nil
}

func (d *Dispatcher) register(mime string, lib any) (*registry.Entry, error) {
	sym, err := d.loader.ResolveSymbol(lib, npapi.SymbolGetEntryPoints)
	if err != nil {
		return nil, ErrLoadFailed(mime, npapi.SymbolGetEntryPoints, err)
	}
	getEntryPoints, ok := asGetEntryPoints(sym)
	if !ok {
		return nil, ErrLoadFailed(mime, npapi.SymbolGetEntryPoints, nil)
	}

	sym, err = d.loader.ResolveSymbol(lib, npapi.SymbolInitialize)
	if err != nil {
		return nil, ErrLoadFailed(mime, npapi.SymbolInitialize, err)
	}
	initialize, ok := asInitialize(sym)
	if !ok {
		return nil, ErrLoadFailed(mime, npapi.SymbolInitialize, nil)
	}

	// NP_Shutdown is optional.
	var shutdown npapi.ShutdownFunc
	if sym, err = d.loader.ResolveSymbol(lib, npapi.SymbolShutdown); err == nil {
		shutdown, _ = asShutdown(sym)
	}

	table := &npapi.PluginFuncs{}
	if rv := getEntryPoints(table); rv != npapi.NoError {
		return nil, ErrLoadFailed(mime, npapi.SymbolGetEntryPoints, npErrorCause(rv))
	}
	if rv := initialize(d.spy); rv != npapi.NoError {
		return nil, ErrLoadFailed(mime, npapi.SymbolInitialize, npErrorCause(rv))
	}

	entry := d.registry.Register(mime, table, shutdown, lib)
	d.updateGauges()
	return entry, nil
}

func (d *Dispatcher) unload(mime string, lib any) {
	if err := d.loader.Unload(lib); err != nil {
		errutil.LogError(d.diag, "plugin unload failed", ErrLoadFailed(mime, "unload", err))
	}
}

// finishLast completes NPP_Destroy for the last instance of an entry.
func (d *Dispatcher) finishLast(inst *npapi.NPP) {
	if !d.cfg.ShutdownAfterLastInstance {
		d.registry.Retire(inst)
		return
	}
	entry, ok := d.registry.Owner(inst)
	if !ok {
		return
	}
	mime := entry.MIMEType()
	d.registry.ShutdownForInstance(inst)
	if lib, ok := d.registry.Unregister(inst); ok {
		d.unload(mime, lib)
	}
	d.log.LogMessage(fmt.Sprintf("Unloaded plugin for %s", mime))
}

func (d *Dispatcher) updateGauges() {
	if d.registry == nil {
		PluginsLoaded.Set(0)
		InstancesLive.Set(0)
		return
	}
	PluginsLoaded.Set(float64(d.registry.Len()))
	InstancesLive.Set(float64(d.registry.LiveInstances()))
}

func (d *Dispatcher) logDispatchError(a format.Action, err error) {
	switch errutil.Code(err) {
	case CodeLoadFailed, CodeInvalidFuncTable:
		errutil.LogError(d.diag, a.String()+" failed", err)
	default:
		errutil.LogDebug(d.diag, a.String()+" not dispatched", err)
	}
}

// scope tracks one NPP call from entry to return.
type scope struct {
	d      *Dispatcher
	action format.Action
	span   trace.Span
	start  time.Time
}

func (d *Dispatcher) begin(a format.Action, attrs ...attribute.KeyValue) *scope {
	attrs = append(attrs, attribute.String("action", a.Key()))
	_, span := tracer.Start(context.Background(), "npp."+strings.TrimPrefix(a.Key(), "npp_"),
		trace.WithAttributes(attrs...),
	)
	return &scope{d: d, action: a, span: span, start: time.Now()}
}

// route resolves the real table for a per-instance call.
func (s *scope) route(inst *npapi.NPP) (*npapi.PluginFuncs, error) {
	reg := s.d.registry
	if reg == nil {
		return nil, ErrNotInitialized(s.action)
	}
	table, ok := reg.TableByInstance(inst)
	if !ok {
		return nil, ErrInstanceNotFound(s.action, inst)
	}
	if entry, ok := reg.Owner(inst); ok {
		s.span.SetAttributes(attribute.String("mime_type", entry.MIMEType()))
	}
	return table, nil
}

func (s *scope) end(err error) {
	if err != nil {
		s.d.logDispatchError(s.action, err)
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
	} else {
		recordDuration(s.action.Key(), time.Since(s.start))
	}
	recordDispatch(s.action.Key(), statusFor(err))
	s.span.End()
}

// forwarded finishes a call that reached the real plugin and returns its result.
func forwarded[T any](s *scope, rv T) T {
	s.end(nil)
	s.d.log.LogReturn(s.action, rv)
	return rv
}

// failed finishes a call that could not be routed and returns its failure value.
func failed[T any](s *scope, err error, rv T) T {
	s.end(err)
	s.d.log.LogReturn(s.action, rv)
	return rv
}

func npErrorCause(rv npapi.NPError) error {
	return oops.With("np_error", rv.String()).Errorf("returned %d", rv)
}

func asGetEntryPoints(sym any) (npapi.GetEntryPointsFunc, bool) {
	switch f := sym.(type) {
	case npapi.GetEntryPointsFunc:
		return f, f != nil
	case func(*npapi.PluginFuncs) npapi.NPError:
		return f, f != nil
	}
	return nil, false
}

func asInitialize(sym any) (npapi.InitializeFunc, bool) {
	switch f := sym.(type) {
	case npapi.InitializeFunc:
		return f, f != nil
	case func(*npapi.NetscapeFuncs) npapi.NPError:
		return f, f != nil
	}
	return nil, false
}

func asShutdown(sym any) (npapi.ShutdownFunc, bool) {
	switch f := sym.(type) {
	case npapi.ShutdownFunc:
		return f, f != nil
	case func() npapi.NPError:
		return f, f != nil
	}
	return nil, false
}
