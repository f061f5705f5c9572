// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package registry maps plugin MIME types and instance handles to the real
// plugin function tables the dispatcher forwards to.
//
// The registry is not safe for concurrent use. NPAPI calls arrive on one
// thread and forwarded calls may re-enter the dispatcher, so callers must
// not guard it with a lock held across a forward.
package registry

import (
	"strings"

	"github.com/samber/oops"

	"github.com/holomush/npspy/pkg/npapi"
)

// MaxMIMETypeLength bounds MIME type keys. Longer keys are truncated for
// both storage and lookup.
const MaxMIMETypeLength = 80

// Error codes.
const (
	CodeNotRegistered = "MIME_TYPE_NOT_REGISTERED"
	CodeAlreadyBound  = "INSTANCE_ALREADY_BOUND"
	CodeNilInstance   = "NIL_INSTANCE"
)

// EntryState is the lifecycle state of a registered plugin.
type EntryState int

// Entry states.
const (
	EntryActive EntryState = iota
	EntryUnloaded
)

func (s EntryState) String() string {
	if s == EntryUnloaded {
		return "unloaded"
	}
	return "active"
}

// InstanceState is the lifecycle state of a bound instance.
type InstanceState int

// Instance states.
const (
	InstanceActive InstanceState = iota
	// InstanceLast marks the sole instance of an entry after an unbind
	// request. It stays resolvable until the entry is torn down or retired.
	InstanceLast
	InstanceDestroyed
)

func (s InstanceState) String() string {
	switch s {
	case InstanceActive:
		return "active"
	case InstanceLast:
		return "last"
	default:
		return "destroyed"
	}
}

type instance struct {
	handle *npapi.NPP
	entry  *Entry
	state  InstanceState
}

// Entry is one registered plugin library.
type Entry struct {
	mimeType  string
	table     *npapi.PluginFuncs
	shutdown  npapi.ShutdownFunc
	library   any
	instances []*instance // newest first
	state     EntryState
}

// MIMEType returns the normalized MIME type key.
func (e *Entry) MIMEType() string { return e.mimeType }

// Table returns the forwarding table captured at registration.
func (e *Entry) Table() *npapi.PluginFuncs { return e.table }

// Library returns the opaque library handle.
func (e *Entry) Library() any { return e.library }

// State returns the entry's lifecycle state.
func (e *Entry) State() EntryState { return e.state }

// Instances returns the bound instance handles, newest first.
func (e *Entry) Instances() []*npapi.NPP {
	out := make([]*npapi.NPP, len(e.instances))
	for i, inst := range e.instances {
		out[i] = inst.handle
	}
	return out
}

// ShutdownOnce invokes the plugin's shutdown procedure if it has not run yet.
// It reports whether the procedure ran and what it returned.
func (e *Entry) ShutdownOnce() (npapi.NPError, bool) {
	fn := e.shutdown
	if fn == nil {
		return npapi.NoError, false
	}
	e.shutdown = nil
	return fn(), true
}

func (e *Entry) unlink(rec *instance) {
	for i, inst := range e.instances {
		if inst == rec {
			e.instances = append(e.instances[:i], e.instances[i+1:]...)
			return
		}
	}
}

// Registry tracks registered plugins and the instances bound to them.
type Registry struct {
	entries   []*Entry // newest first
	byMIME    map[string]*Entry
	instances map[*npapi.NPP]*instance
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byMIME:    make(map[string]*Entry),
		instances: make(map[*npapi.NPP]*instance),
	}
}

// NormalizeMIMEType folds case and applies the key length bound.
func NormalizeMIMEType(mime string) string {
	key := strings.ToLower(mime)
	if len(key) > MaxMIMETypeLength {
		key = key[:MaxMIMETypeLength]
	}
	return key
}

// Register records a plugin library. The table is copied. A second
// registration for the same MIME type shadows the first until it is
// unregistered.
func (r *Registry) Register(mime string, table *npapi.PluginFuncs, shutdown npapi.ShutdownFunc, lib any) *Entry {
	e := &Entry{
		mimeType: NormalizeMIMEType(mime),
		table:    &npapi.PluginFuncs{},
		shutdown: shutdown,
		library:  lib,
	}
	if table != nil {
		copied := *table
		e.table = &copied
	}
	r.entries = append([]*Entry{e}, r.entries...)
	r.byMIME[e.mimeType] = e
	return e
}

// Unregister removes the entry that owns inst, marks it unloaded and
// destroys its remaining instances. It returns the entry's library handle.
func (r *Registry) Unregister(inst *npapi.NPP) (any, bool) {
	rec, ok := r.instances[inst]
	if !ok {
		return nil, false
	}
	e := rec.entry
	r.remove(e)
	return e.library, true
}

func (r *Registry) remove(e *Entry) {
	for i, cur := range r.entries {
		if cur == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	if r.byMIME[e.mimeType] == e {
		delete(r.byMIME, e.mimeType)
		// Fall back to the newest shadowed entry, if any.
		for _, cur := range r.entries {
			if cur.mimeType == e.mimeType {
				r.byMIME[e.mimeType] = cur
				break
			}
		}
	}
	for _, rec := range e.instances {
		rec.state = InstanceDestroyed
		delete(r.instances, rec.handle)
	}
	e.instances = nil
	e.state = EntryUnloaded
}

// Lookup returns the entry registered for mime.
func (r *Registry) Lookup(mime string) (*Entry, bool) {
	e, ok := r.byMIME[NormalizeMIMEType(mime)]
	return e, ok
}

// Owner returns the entry a live instance is bound to.
func (r *Registry) Owner(inst *npapi.NPP) (*Entry, bool) {
	rec, ok := r.instances[inst]
	if !ok {
		return nil, false
	}
	return rec.entry, true
}

// TableByMimeType returns the forwarding table registered for mime.
// Matching is case-insensitive.
func (r *Registry) TableByMimeType(mime string) (*npapi.PluginFuncs, bool) {
	e, ok := r.Lookup(mime)
	if !ok {
		return nil, false
	}
	return e.table, true
}

// TableByInstance returns the forwarding table of the entry inst is bound to.
func (r *Registry) TableByInstance(inst *npapi.NPP) (*npapi.PluginFuncs, bool) {
	e, ok := r.Owner(inst)
	if !ok {
		return nil, false
	}
	return e.table, true
}

// InstanceState reports the state of inst. Unknown handles are destroyed.
func (r *Registry) InstanceState(inst *npapi.NPP) InstanceState {
	if rec, ok := r.instances[inst]; ok {
		return rec.state
	}
	return InstanceDestroyed
}

// Bind attaches inst to the entry registered for mime.
func (r *Registry) Bind(mime string, inst *npapi.NPP) error {
	if inst == nil {
		return oops.Code(CodeNilInstance).With("mime_type", mime).Errorf("cannot bind nil instance")
	}
	e, ok := r.Lookup(mime)
	if !ok {
		return oops.Code(CodeNotRegistered).With("mime_type", mime).Errorf("no plugin registered for MIME type")
	}
	if owner, bound := r.instances[inst]; bound {
		return oops.Code(CodeAlreadyBound).
			With("mime_type", mime).
			With("owner", owner.entry.mimeType).
			Errorf("instance is already bound")
	}
	rec := &instance{handle: inst, entry: e, state: InstanceActive}
	e.instances = append([]*instance{rec}, e.instances...)
	r.instances[inst] = rec
	return nil
}

// UnbindIfNotLast unlinks inst unless it is the only instance of its entry.
// A sole instance is kept, marked last and reported with wasLast true so the
// caller can still resolve its table. ok is false for unknown instances.
func (r *Registry) UnbindIfNotLast(inst *npapi.NPP) (wasLast, ok bool) {
	rec, found := r.instances[inst]
	if !found {
		return false, false
	}
	if len(rec.entry.instances) == 1 {
		rec.state = InstanceLast
		return true, true
	}
	rec.entry.unlink(rec)
	rec.state = InstanceDestroyed
	delete(r.instances, inst)
	return false, true
}

// Retire finishes a last instance without unregistering its entry.
func (r *Registry) Retire(inst *npapi.NPP) bool {
	rec, ok := r.instances[inst]
	if !ok {
		return false
	}
	rec.entry.unlink(rec)
	rec.state = InstanceDestroyed
	delete(r.instances, inst)
	return true
}

// ShutdownAll runs every entry's shutdown procedure at most once and returns
// how many ran.
func (r *Registry) ShutdownAll() int {
	n := 0
	for _, e := range r.entries {
		if _, ran := e.ShutdownOnce(); ran {
			n++
		}
	}
	return n
}

// ShutdownForInstance runs the shutdown procedure of the entry owning inst.
// Ownership is unique, so at most one procedure runs.
func (r *Registry) ShutdownForInstance(inst *npapi.NPP) int {
	e, ok := r.Owner(inst)
	if !ok {
		return 0
	}
	if _, ran := e.ShutdownOnce(); ran {
		return 1
	}
	return 0
}

// Entries returns a snapshot of the registered entries, newest first.
func (r *Registry) Entries() []*Entry {
	out := make([]*Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Drain unregisters every entry and returns their library handles, newest first.
func (r *Registry) Drain() []any {
	libs := make([]any, 0, len(r.entries))
	for len(r.entries) > 0 {
		e := r.entries[0]
		r.remove(e)
		libs = append(libs, e.library)
	}
	return libs
}

// Len returns the number of registered entries.
func (r *Registry) Len() int { return len(r.entries) }

// LiveInstances returns the number of bound instances across all entries.
func (r *Registry) LiveInstances() int { return len(r.instances) }
