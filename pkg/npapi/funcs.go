// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package npapi

// Module entry point signatures exported by every plugin library.
type (
	GetEntryPointsFunc func(funcs *PluginFuncs) NPError
	InitializeFunc     func(host *NetscapeFuncs) NPError
	ShutdownFunc       func() NPError
)

// Exported symbol names of the module entry points.
const (
	SymbolGetEntryPoints = "NP_GetEntryPoints"
	SymbolInitialize     = "NP_Initialize"
	SymbolShutdown       = "NP_Shutdown"
)

// PluginFuncs is the NPP_* table a plugin exports to the browser.
type PluginFuncs struct {
	Version uint16

	New           func(mimeType string, instance *NPP, mode uint16, argn, argv []string, saved *SavedData) NPError
	Destroy       func(instance *NPP, save **SavedData) NPError
	SetWindow     func(instance *NPP, window *Window) NPError
	NewStream     func(instance *NPP, mimeType string, stream *Stream, seekable bool, stype *uint16) NPError
	DestroyStream func(instance *NPP, stream *Stream, reason NPReason) NPError
	StreamAsFile  func(instance *NPP, stream *Stream, fname string)
	WriteReady    func(instance *NPP, stream *Stream) int32
	Write         func(instance *NPP, stream *Stream, offset int32, buf []byte) int32
	Print         func(instance *NPP, platformPrint *Print)
	HandleEvent   func(instance *NPP, event *Event) int16
	URLNotify     func(instance *NPP, url string, reason NPReason, notifyData any)
	GetValue      func(instance *NPP, variable NPPVariable, value any) NPError
	SetValue      func(instance *NPP, variable NPNVariable, value any) NPError
}

// NetscapeFuncs is the NPN_* table the browser hands to a plugin.
type NetscapeFuncs struct {
	Version uint16

	GetURL           func(instance *NPP, url, target string) NPError
	PostURL          func(instance *NPP, url, target string, buf []byte, file bool) NPError
	RequestRead      func(stream *Stream, rangeList *ByteRange) NPError
	NewStream        func(instance *NPP, mimeType, target string, stream **Stream) NPError
	Write            func(instance *NPP, stream *Stream, buf []byte) int32
	DestroyStream    func(instance *NPP, stream *Stream, reason NPReason) NPError
	Status           func(instance *NPP, message string)
	UserAgent        func(instance *NPP) string
	MemAlloc         func(size uint32) []byte
	MemFree          func(ptr []byte)
	MemFlush         func(size uint32) uint32
	ReloadPlugins    func(reloadPages bool)
	GetJavaEnv       func() any
	GetJavaPeer      func(instance *NPP) any
	GetURLNotify     func(instance *NPP, url, target string, notifyData any) NPError
	PostURLNotify    func(instance *NPP, url, target string, buf []byte, file bool, notifyData any) NPError
	GetValue         func(instance *NPP, variable NPNVariable, value any) NPError
	SetValue         func(instance *NPP, variable NPPVariable, value any) NPError
	InvalidateRect   func(instance *NPP, rect *Rect)
	InvalidateRegion func(instance *NPP, region Region)
	ForceRedraw      func(instance *NPP)

	GetStringIdentifier    func(name string) Identifier
	GetStringIdentifiers   func(names []string, identifiers []Identifier)
	GetIntIdentifier       func(intid int32) Identifier
	IdentifierIsString     func(identifier Identifier) bool
	UTF8FromIdentifier     func(identifier Identifier) string
	IntFromIdentifier      func(identifier Identifier) int32
	CreateObject           func(instance *NPP, class *Class) *Object
	RetainObject           func(obj *Object) *Object
	ReleaseObject          func(obj *Object)
	Invoke                 func(instance *NPP, obj *Object, method Identifier, args []Variant, result *Variant) bool
	InvokeDefault          func(instance *NPP, obj *Object, args []Variant, result *Variant) bool
	Evaluate               func(instance *NPP, obj *Object, script string, result *Variant) bool
	GetProperty            func(instance *NPP, obj *Object, name Identifier, result *Variant) bool
	SetProperty            func(instance *NPP, obj *Object, name Identifier, value *Variant) bool
	RemoveProperty         func(instance *NPP, obj *Object, name Identifier) bool
	HasProperty            func(instance *NPP, obj *Object, name Identifier) bool
	HasMethod              func(instance *NPP, obj *Object, name Identifier) bool
	ReleaseVariantValue    func(variant *Variant)
	SetException           func(obj *Object, message string)
	PushPopupsEnabledState func(instance *NPP, enabled bool)
	PopPopupsEnabledState  func(instance *NPP)
}
