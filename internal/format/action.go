// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package format captures and renders intercepted NPAPI calls as log lines.
package format

import (
	"strings"
)

// Action identifies one intercepted NPAPI call.
type Action int

// Actions, grouped by direction. The zero value is invalid.
const (
	ActionInvalid Action = iota

	ActionNPNVersion
	ActionNPNGetURLNotify
	ActionNPNGetURL
	ActionNPNPostURLNotify
	ActionNPNPostURL
	ActionNPNRequestRead
	ActionNPNNewStream
	ActionNPNWrite
	ActionNPNDestroyStream
	ActionNPNStatus
	ActionNPNUserAgent
	ActionNPNMemAlloc
	ActionNPNMemFree
	ActionNPNMemFlush
	ActionNPNReloadPlugins
	ActionNPNGetJavaEnv
	ActionNPNGetJavaPeer
	ActionNPNGetValue
	ActionNPNSetValue
	ActionNPNInvalidateRect
	ActionNPNInvalidateRegion
	ActionNPNForceRedraw
	ActionNPNGetStringIdentifier
	ActionNPNGetStringIdentifiers
	ActionNPNGetIntIdentifier
	ActionNPNIdentifierIsString
	ActionNPNUTF8FromIdentifier
	ActionNPNIntFromIdentifier
	ActionNPNCreateObject
	ActionNPNRetainObject
	ActionNPNReleaseObject
	ActionNPNInvoke
	ActionNPNInvokeDefault
	ActionNPNEvaluate
	ActionNPNGetProperty
	ActionNPNSetProperty
	ActionNPNRemoveProperty
	ActionNPNHasProperty
	ActionNPNHasMethod
	ActionNPNReleaseVariantValue
	ActionNPNSetException
	ActionNPNPushPopupsEnabledState
	ActionNPNPopPopupsEnabledState

	ActionNPGetEntryPoints
	ActionNPInitialize
	ActionNPShutdown

	ActionNPPNew
	ActionNPPDestroy
	ActionNPPSetWindow
	ActionNPPNewStream
	ActionNPPDestroyStream
	ActionNPPStreamAsFile
	ActionNPPWriteReady
	ActionNPPWrite
	ActionNPPPrint
	ActionNPPHandleEvent
	ActionNPPURLNotify
	ActionNPPGetValue
	ActionNPPSetValue

	actionCount
)

// param is one positional argument slot of an action.
type param struct {
	name string
	kind Kind
}

// signature is the hand-authored shape of one action.
type signature struct {
	name   string
	key    string
	params []param
}

func p(name string, kind Kind) param { return param{name: name, kind: kind} }

var signatures = [actionCount]signature{
	ActionNPNVersion: {"NPN_Version", "npn_version", []param{
		p("plugin_major", KindInt), p("plugin_minor", KindInt), p("netscape_major", KindInt), p("netscape_minor", KindInt),
	}},
	ActionNPNGetURLNotify: {"NPN_GetURLNotify", "npn_get_url_notify", []param{
		p("instance", KindInstance), p("url", KindString), p("target", KindString), p("notify_data", KindPointer),
	}},
	ActionNPNGetURL: {"NPN_GetURL", "npn_get_url", []param{
		p("instance", KindInstance), p("url", KindString), p("target", KindString),
	}},
	ActionNPNPostURLNotify: {"NPN_PostURLNotify", "npn_post_url_notify", []param{
		p("instance", KindInstance), p("url", KindString), p("target", KindString),
		p("len", KindInt), p("buf", KindBytes), p("file", KindBool), p("notify_data", KindPointer),
	}},
	ActionNPNPostURL: {"NPN_PostURL", "npn_post_url", []param{
		p("instance", KindInstance), p("url", KindString), p("target", KindString),
		p("len", KindInt), p("buf", KindBytes), p("file", KindBool),
	}},
	ActionNPNRequestRead: {"NPN_RequestRead", "npn_request_read", []param{
		p("stream", KindStream), p("range_list", KindByteRange),
	}},
	ActionNPNNewStream: {"NPN_NewStream", "npn_new_stream", []param{
		p("instance", KindInstance), p("type", KindString), p("target", KindString), p("stream", KindPointer),
	}},
	ActionNPNWrite: {"NPN_Write", "npn_write", []param{
		p("instance", KindInstance), p("stream", KindStream), p("len", KindInt), p("buffer", KindBytes),
	}},
	ActionNPNDestroyStream: {"NPN_DestroyStream", "npn_destroy_stream", []param{
		p("instance", KindInstance), p("stream", KindStream), p("reason", KindReason),
	}},
	ActionNPNStatus: {"NPN_Status", "npn_status", []param{
		p("instance", KindInstance), p("message", KindString),
	}},
	ActionNPNUserAgent: {"NPN_UserAgent", "npn_user_agent", []param{
		p("instance", KindInstance),
	}},
	ActionNPNMemAlloc: {"NPN_MemAlloc", "npn_mem_alloc", []param{
		p("size", KindUint),
	}},
	ActionNPNMemFree: {"NPN_MemFree", "npn_mem_free", []param{
		p("ptr", KindPointer),
	}},
	ActionNPNMemFlush: {"NPN_MemFlush", "npn_mem_flush", []param{
		p("size", KindUint),
	}},
	ActionNPNReloadPlugins: {"NPN_ReloadPlugins", "npn_reload_plugins", []param{
		p("reload_pages", KindBool),
	}},
	ActionNPNGetJavaEnv: {"NPN_GetJavaEnv", "npn_get_java_env", nil},
	ActionNPNGetJavaPeer: {"NPN_GetJavaPeer", "npn_get_java_peer", []param{
		p("instance", KindInstance),
	}},
	ActionNPNGetValue: {"NPN_GetValue", "npn_get_value", []param{
		p("instance", KindInstance), p("variable", KindNPNVariable), p("value", KindPointer),
	}},
	ActionNPNSetValue: {"NPN_SetValue", "npn_set_value", []param{
		p("instance", KindInstance), p("variable", KindNPPVariable), p("value", KindPointer),
	}},
	ActionNPNInvalidateRect: {"NPN_InvalidateRect", "npn_invalidate_rect", []param{
		p("instance", KindInstance), p("rect", KindRect),
	}},
	ActionNPNInvalidateRegion: {"NPN_InvalidateRegion", "npn_invalidate_region", []param{
		p("instance", KindInstance), p("region", KindUint),
	}},
	ActionNPNForceRedraw: {"NPN_ForceRedraw", "npn_force_redraw", []param{
		p("instance", KindInstance),
	}},
	ActionNPNGetStringIdentifier: {"NPN_GetStringIdentifier", "npn_get_string_identifier", []param{
		p("name", KindString),
	}},
	ActionNPNGetStringIdentifiers: {"NPN_GetStringIdentifiers", "npn_get_string_identifiers", []param{
		p("names", KindStringList), p("name_count", KindInt), p("identifiers", KindPointer),
	}},
	ActionNPNGetIntIdentifier: {"NPN_GetIntIdentifier", "npn_get_int_identifier", []param{
		p("intid", KindInt),
	}},
	ActionNPNIdentifierIsString: {"NPN_IdentifierIsString", "npn_identifier_is_string", []param{
		p("identifier", KindIdentifier),
	}},
	ActionNPNUTF8FromIdentifier: {"NPN_UTF8FromIdentifier", "npn_utf8_from_identifier", []param{
		p("identifier", KindIdentifier),
	}},
	ActionNPNIntFromIdentifier: {"NPN_IntFromIdentifier", "npn_int_from_identifier", []param{
		p("identifier", KindIdentifier),
	}},
	ActionNPNCreateObject: {"NPN_CreateObject", "npn_create_object", []param{
		p("instance", KindInstance), p("class", KindPointer),
	}},
	ActionNPNRetainObject: {"NPN_RetainObject", "npn_retain_object", []param{
		p("obj", KindObject),
	}},
	ActionNPNReleaseObject: {"NPN_ReleaseObject", "npn_release_object", []param{
		p("obj", KindObject),
	}},
	ActionNPNInvoke: {"NPN_Invoke", "npn_invoke", []param{
		p("instance", KindInstance), p("obj", KindObject), p("method", KindIdentifier),
		p("args", KindVariantList), p("arg_count", KindInt), p("result", KindPointer),
	}},
	ActionNPNInvokeDefault: {"NPN_InvokeDefault", "npn_invoke_default", []param{
		p("instance", KindInstance), p("obj", KindObject),
		p("args", KindVariantList), p("arg_count", KindInt), p("result", KindPointer),
	}},
	ActionNPNEvaluate: {"NPN_Evaluate", "npn_evaluate", []param{
		p("instance", KindInstance), p("obj", KindObject), p("script", KindString), p("result", KindPointer),
	}},
	ActionNPNGetProperty: {"NPN_GetProperty", "npn_get_property", []param{
		p("instance", KindInstance), p("obj", KindObject), p("name", KindIdentifier), p("result", KindPointer),
	}},
	ActionNPNSetProperty: {"NPN_SetProperty", "npn_set_property", []param{
		p("instance", KindInstance), p("obj", KindObject), p("name", KindIdentifier), p("value", KindVariant),
	}},
	ActionNPNRemoveProperty: {"NPN_RemoveProperty", "npn_remove_property", []param{
		p("instance", KindInstance), p("obj", KindObject), p("name", KindIdentifier),
	}},
	ActionNPNHasProperty: {"NPN_HasProperty", "npn_has_property", []param{
		p("instance", KindInstance), p("obj", KindObject), p("name", KindIdentifier),
	}},
	ActionNPNHasMethod: {"NPN_HasMethod", "npn_has_method", []param{
		p("instance", KindInstance), p("obj", KindObject), p("name", KindIdentifier),
	}},
	ActionNPNReleaseVariantValue: {"NPN_ReleaseVariantValue", "npn_release_variant_value", []param{
		p("variant", KindVariant),
	}},
	ActionNPNSetException: {"NPN_SetException", "npn_set_exception", []param{
		p("obj", KindObject), p("message", KindString),
	}},
	ActionNPNPushPopupsEnabledState: {"NPN_PushPopupsEnabledState", "npn_push_popups_enabled_state", []param{
		p("instance", KindInstance), p("enabled", KindBool),
	}},
	ActionNPNPopPopupsEnabledState: {"NPN_PopPopupsEnabledState", "npn_pop_popups_enabled_state", []param{
		p("instance", KindInstance),
	}},

	ActionNPGetEntryPoints: {"NP_GetEntryPoints", "np_get_entry_points", []param{
		p("funcs", KindPointer),
	}},
	ActionNPInitialize: {"NP_Initialize", "np_initialize", []param{
		p("host_funcs", KindPointer),
	}},
	ActionNPShutdown: {"NP_Shutdown", "np_shutdown", nil},

	ActionNPPNew: {"NPP_New", "npp_new", []param{
		p("type", KindString), p("instance", KindInstance), p("mode", KindUint), p("argc", KindInt),
		p("argn", KindStringList), p("argv", KindStringList), p("saved", KindSavedData),
	}},
	ActionNPPDestroy: {"NPP_Destroy", "npp_destroy", []param{
		p("instance", KindInstance), p("save", KindPointer),
	}},
	ActionNPPSetWindow: {"NPP_SetWindow", "npp_set_window", []param{
		p("instance", KindInstance), p("window", KindWindow),
	}},
	ActionNPPNewStream: {"NPP_NewStream", "npp_new_stream", []param{
		p("instance", KindInstance), p("type", KindString), p("stream", KindStream),
		p("seekable", KindBool), p("stype", KindPointer),
	}},
	ActionNPPDestroyStream: {"NPP_DestroyStream", "npp_destroy_stream", []param{
		p("instance", KindInstance), p("stream", KindStream), p("reason", KindReason),
	}},
	ActionNPPStreamAsFile: {"NPP_StreamAsFile", "npp_stream_as_file", []param{
		p("instance", KindInstance), p("stream", KindStream), p("fname", KindString),
	}},
	ActionNPPWriteReady: {"NPP_WriteReady", "npp_write_ready", []param{
		p("instance", KindInstance), p("stream", KindStream),
	}},
	ActionNPPWrite: {"NPP_Write", "npp_write", []param{
		p("instance", KindInstance), p("stream", KindStream), p("offset", KindInt),
		p("len", KindInt), p("buffer", KindBytes),
	}},
	ActionNPPPrint: {"NPP_Print", "npp_print", []param{
		p("instance", KindInstance), p("platform_print", KindPrint),
	}},
	ActionNPPHandleEvent: {"NPP_HandleEvent", "npp_handle_event", []param{
		p("instance", KindInstance), p("event", KindEvent),
	}},
	ActionNPPURLNotify: {"NPP_URLNotify", "npp_url_notify", []param{
		p("instance", KindInstance), p("url", KindString), p("reason", KindReason), p("notify_data", KindPointer),
	}},
	ActionNPPGetValue: {"NPP_GetValue", "npp_get_value", []param{
		p("instance", KindInstance), p("variable", KindNPPVariable), p("value", KindPointer),
	}},
	ActionNPPSetValue: {"NPP_SetValue", "npp_set_value", []param{
		p("instance", KindInstance), p("variable", KindNPNVariable), p("value", KindPointer),
	}},
}

var actionsByKey = func() map[string]Action {
	m := make(map[string]Action, actionCount)
	for a := ActionInvalid + 1; a < actionCount; a++ {
		m[signatures[a].key] = a
	}
	return m
}()

func (a Action) signature() (signature, bool) {
	if a <= ActionInvalid || a >= actionCount {
		return signature{}, false
	}
	return signatures[a], true
}

// String returns the NPAPI function name, e.g. "NPN_GetURL".
func (a Action) String() string {
	if sig, ok := a.signature(); ok {
		return sig.name
	}
	return "Unlisted action"
}

// Key returns the snake_case configuration key, e.g. "npn_get_url".
// Invalid actions return an empty key.
func (a Action) Key() string {
	sig, _ := a.signature()
	return sig.key
}

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	_, ok := a.signature()
	return ok
}

// IsNPN reports whether a is a plugin-to-browser call.
func (a Action) IsNPN() bool {
	return strings.HasPrefix(a.Key(), "npn_")
}

// IsNPP reports whether a is a browser-to-plugin call, module entry points included.
func (a Action) IsNPP() bool {
	key := a.Key()
	return strings.HasPrefix(key, "npp_") || strings.HasPrefix(key, "np_")
}

// Signature renders the parameter list, e.g. "NPN_GetURL(instance, url, target)".
func (a Action) Signature() string {
	sig, ok := a.signature()
	if !ok {
		return a.String()
	}
	names := make([]string, len(sig.params))
	for i, prm := range sig.params {
		names[i] = prm.name
	}
	return sig.name + "(" + strings.Join(names, ", ") + ")"
}

// Arity returns the number of positional arguments a takes.
func (a Action) Arity() int {
	sig, _ := a.signature()
	return len(sig.params)
}

// ParseAction resolves a configuration key back to its action.
func ParseAction(key string) (Action, bool) {
	a, ok := actionsByKey[strings.ToLower(strings.TrimSpace(key))]
	return a, ok
}

// Actions returns every valid action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, actionCount-1)
	for a := ActionInvalid + 1; a < actionCount; a++ {
		out = append(out, a)
	}
	return out
}
