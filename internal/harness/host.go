// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package harness simulates a browser driving an NPAPI plugin module.
package harness

import (
	"log/slog"
	"sync"

	"github.com/holomush/npspy/pkg/npapi"
)

// DefaultUserAgent is reported by NPN_UserAgent unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) npspy-harness/1.0"

// URLRequest is a GetURL/PostURL request a plugin made.
type URLRequest struct {
	Instance   *npapi.NPP
	URL        string
	Target     string
	Post       []byte
	Notify     bool
	NotifyData any
}

// Host is a simulated browser. Its Funcs table is what a real browser would
// hand to NP_Initialize. Requests with notification are queued and
// delivered by the Session as NPP_URLNotify.
type Host struct {
	mu          sync.Mutex
	minor       uint8
	userAgent   string
	values      map[npapi.NPNVariable]any
	statuses    []string
	requests    []URLRequest
	pending     []URLRequest
	allocated   int64
	identifiers []string
	idIndex     map[string]npapi.Identifier
	popups      []bool
	onReload    func(reloadPages bool)
	diag        *slog.Logger
}

// HostOption configures a Host.
type HostOption func(*Host)

// WithMinorVersion sets the protocol minor version the host claims.
func WithMinorVersion(minor uint8) HostOption {
	return func(h *Host) {
		h.minor = minor
	}
}

// WithUserAgent sets the NPN_UserAgent answer.
func WithUserAgent(ua string) HostOption {
	return func(h *Host) {
		h.userAgent = ua
	}
}

// WithValue sets the answer to NPN_GetValue for variable.
func WithValue(variable npapi.NPNVariable, value any) HostOption {
	return func(h *Host) {
		h.values[variable] = value
	}
}

// WithReloadHandler runs fn on NPN_ReloadPlugins.
func WithReloadHandler(fn func(reloadPages bool)) HostOption {
	return func(h *Host) {
		h.onReload = fn
	}
}

// WithHostLogger sets the logger for browser-side diagnostics.
func WithHostLogger(logger *slog.Logger) HostOption {
	return func(h *Host) {
		if logger != nil {
			h.diag = logger
		}
	}
}

// NewHost creates a simulated browser speaking the current protocol version.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		minor:     npapi.VersionMinor,
		userAgent: DefaultUserAgent,
		values: map[npapi.NPNVariable]any{
			npapi.NPNVjavascriptEnabledBool: true,
			npapi.NPNVisOfflineBool:         false,
			npapi.NPNVSupportsWindowless:    true,
			npapi.NPNVprivateModeBool:       false,
		},
		idIndex: make(map[string]npapi.Identifier),
		diag:    slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Statuses returns the NPN_Status messages in order.
func (h *Host) Statuses() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.statuses...)
}

// Requests returns every URL request made so far.
func (h *Host) Requests() []URLRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]URLRequest(nil), h.requests...)
}

// Allocated returns the bytes handed out by NPN_MemAlloc and not yet freed.
func (h *Host) Allocated() int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.allocated
}

// takePending removes and returns the queued notifications for inst.
func (h *Host) takePending(inst *npapi.NPP) []URLRequest {
	h.mu.Lock()
	defer h.mu.Unlock()
	var mine, rest []URLRequest
	for _, r := range h.pending {
		if r.Instance == inst {
			mine = append(mine, r)
		} else {
			rest = append(rest, r)
		}
	}
	h.pending = rest
	return mine
}

func (h *Host) request(r URLRequest) npapi.NPError {
	if r.URL == "" {
		return npapi.InvalidURL
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.requests = append(h.requests, r)
	if r.Notify {
		h.pending = append(h.pending, r)
	}
	return npapi.NoError
}

func (h *Host) identifier(name string) npapi.Identifier {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id, ok := h.idIndex[name]; ok {
		return id
	}
	h.identifiers = append(h.identifiers, name)
	// String identifiers are odd, int identifiers even.
	id := npapi.Identifier(len(h.identifiers)*2 - 1)
	h.idIndex[name] = id
	return id
}

func (h *Host) identifierName(id npapi.Identifier) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id%2 == 0 {
		return "", false
	}
	i := int(id+1)/2 - 1
	if i < 0 || i >= len(h.identifiers) {
		return "", false
	}
	return h.identifiers[i], true
}

// Funcs returns the browser's NPN table.
func (h *Host) Funcs() *npapi.NetscapeFuncs {
	return &npapi.NetscapeFuncs{
		Version: npapi.Version(npapi.VersionMajor, h.minor),

		GetURL: func(inst *npapi.NPP, url, target string) npapi.NPError {
			return h.request(URLRequest{Instance: inst, URL: url, Target: target})
		},
		PostURL: func(inst *npapi.NPP, url, target string, buf []byte, _ bool) npapi.NPError {
			return h.request(URLRequest{Instance: inst, URL: url, Target: target, Post: buf})
		},
		GetURLNotify: func(inst *npapi.NPP, url, target string, notifyData any) npapi.NPError {
			return h.request(URLRequest{Instance: inst, URL: url, Target: target, Notify: true, NotifyData: notifyData})
		},
		PostURLNotify: func(inst *npapi.NPP, url, target string, buf []byte, _ bool, notifyData any) npapi.NPError {
			return h.request(URLRequest{Instance: inst, URL: url, Target: target, Post: buf, Notify: true, NotifyData: notifyData})
		},
		RequestRead: func(*npapi.Stream, *npapi.ByteRange) npapi.NPError { return npapi.StreamNotSeekable },
		NewStream: func(*npapi.NPP, string, string, **npapi.Stream) npapi.NPError {
			return npapi.GenericError
		},
		Write:         func(_ *npapi.NPP, _ *npapi.Stream, buf []byte) int32 { return int32(len(buf)) },
		DestroyStream: func(*npapi.NPP, *npapi.Stream, npapi.NPReason) npapi.NPError { return npapi.NoError },

		Status: func(_ *npapi.NPP, message string) {
			h.mu.Lock()
			h.statuses = append(h.statuses, message)
			h.mu.Unlock()
		},
		UserAgent: func(*npapi.NPP) string { return h.userAgent },

		MemAlloc: func(size uint32) []byte {
			h.mu.Lock()
			h.allocated += int64(size)
			h.mu.Unlock()
			return make([]byte, size)
		},
		MemFree: func(ptr []byte) {
			h.mu.Lock()
			h.allocated -= int64(cap(ptr))
			h.mu.Unlock()
		},
		MemFlush: func(uint32) uint32 { return 0 },
		ReloadPlugins: func(reloadPages bool) {
			h.diag.Info("plugin reload requested", "reload_pages", reloadPages)
			if h.onReload != nil {
				h.onReload(reloadPages)
			}
		},
		GetJavaEnv:  func() any { return nil },
		GetJavaPeer: func(*npapi.NPP) any { return nil },

		GetValue: func(_ *npapi.NPP, variable npapi.NPNVariable, value any) npapi.NPError {
			h.mu.Lock()
			v, ok := h.values[variable]
			h.mu.Unlock()
			if !ok {
				return npapi.GenericError
			}
			if !assign(value, v) {
				return npapi.InvalidParam
			}
			return npapi.NoError
		},
		SetValue:         func(*npapi.NPP, npapi.NPPVariable, any) npapi.NPError { return npapi.NoError },
		InvalidateRect:   func(*npapi.NPP, *npapi.Rect) {},
		InvalidateRegion: func(*npapi.NPP, npapi.Region) {},
		ForceRedraw:      func(*npapi.NPP) {},

		GetStringIdentifier: h.identifier,
		GetStringIdentifiers: func(names []string, identifiers []npapi.Identifier) {
			for i, name := range names {
				if i < len(identifiers) {
					identifiers[i] = h.identifier(name)
				}
			}
		},
		GetIntIdentifier: func(intid int32) npapi.Identifier { return npapi.Identifier(uint32(intid) << 1) },
		IdentifierIsString: func(id npapi.Identifier) bool {
			_, ok := h.identifierName(id)
			return ok
		},
		UTF8FromIdentifier: func(id npapi.Identifier) string {
			name, _ := h.identifierName(id)
			return name
		},
		IntFromIdentifier: func(id npapi.Identifier) int32 {
			if id%2 != 0 {
				return 0
			}
			return int32(uint32(id) >> 1)
		},
		CreateObject: func(_ *npapi.NPP, class *npapi.Class) *npapi.Object {
			return &npapi.Object{Class: class, ReferenceCount: 1}
		},
		RetainObject: func(obj *npapi.Object) *npapi.Object {
			if obj != nil {
				obj.ReferenceCount++
			}
			return obj
		},
		ReleaseObject: func(obj *npapi.Object) {
			if obj != nil && obj.ReferenceCount > 0 {
				obj.ReferenceCount--
			}
		},
		Invoke: func(*npapi.NPP, *npapi.Object, npapi.Identifier, []npapi.Variant, *npapi.Variant) bool {
			return false
		},
		InvokeDefault: func(*npapi.NPP, *npapi.Object, []npapi.Variant, *npapi.Variant) bool { return false },
		Evaluate:      func(*npapi.NPP, *npapi.Object, string, *npapi.Variant) bool { return false },
		GetProperty: func(_ *npapi.NPP, _ *npapi.Object, _ npapi.Identifier, result *npapi.Variant) bool {
			if result != nil {
				*result = npapi.Variant{Type: npapi.VariantVoid}
			}
			return true
		},
		SetProperty:    func(*npapi.NPP, *npapi.Object, npapi.Identifier, *npapi.Variant) bool { return false },
		RemoveProperty: func(*npapi.NPP, *npapi.Object, npapi.Identifier) bool { return false },
		HasProperty:    func(*npapi.NPP, *npapi.Object, npapi.Identifier) bool { return false },
		HasMethod:      func(*npapi.NPP, *npapi.Object, npapi.Identifier) bool { return false },
		ReleaseVariantValue: func(v *npapi.Variant) {
			if v != nil {
				*v = npapi.Variant{Type: npapi.VariantVoid}
			}
		},
		SetException: func(_ *npapi.Object, message string) {
			h.diag.Warn("script exception", "message", message)
		},
		PushPopupsEnabledState: func(_ *npapi.NPP, enabled bool) {
			h.mu.Lock()
			h.popups = append(h.popups, enabled)
			h.mu.Unlock()
		},
		PopPopupsEnabledState: func(*npapi.NPP) {
			h.mu.Lock()
			if n := len(h.popups); n > 0 {
				h.popups = h.popups[:n-1]
			}
			h.mu.Unlock()
		},
	}
}

// assign stores v through the out-pointer value.
func assign(value, v any) bool {
	switch dst := value.(type) {
	case *any:
		*dst = v
	case *bool:
		b, ok := v.(bool)
		if !ok {
			return false
		}
		*dst = b
	case *string:
		s, ok := v.(string)
		if !ok {
			return false
		}
		*dst = s
	default:
		return false
	}
	return true
}
