// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/npspy/pkg/npapi"
)

// Library is one opened plugin: a Lua state running the plugin's entry file.
//
// NPP calls are delivered to global Lua functions named after the call
// (npp_new, npp_destroy, npp_set_window, ...). A plugin that does not define
// a callback gets the call's neutral result. Lua code reaches the browser
// through the npn table installed by NP_Initialize.
//
// A Library is not safe for concurrent use. Lua callbacks may call back into
// the browser, which may call back into the plugin, on the same goroutine.
type Library struct {
	plugin    *Plugin
	ls        *lua.LState
	diag      *slog.Logger
	host      *npapi.NetscapeFuncs
	instances map[*npapi.NPP]*lua.LUserData
	unloaded  bool
}

func newLibrary(p *Plugin, L *lua.LState, diag *slog.Logger) *Library {
	return &Library{
		plugin:    p,
		ls:        L,
		diag:      diag.With("plugin", p.Manifest.Name),
		instances: make(map[*npapi.NPP]*lua.LUserData),
	}
}

// Name returns the plugin name.
func (l *Library) Name() string { return l.plugin.Manifest.Name }

// Manifest returns the plugin manifest.
func (l *Library) Manifest() *Manifest { return l.plugin.Manifest }

func (l *Library) closed() bool { return l.unloaded }

func (l *Library) close() {
	l.ls.Close()
	l.unloaded = true
	l.host = nil
	clear(l.instances)
}

type callResult int

const (
	callMissing callResult = iota
	callFailed
	callOK
)

// call invokes the global Lua function fn and returns its nret results.
func (l *Library) call(fn string, nret int, args ...lua.LValue) ([]lua.LValue, callResult) {
	if l.closed() {
		return nil, callFailed
	}
	f := l.ls.GetGlobal(fn)
	if f.Type() != lua.LTFunction {
		return nil, callMissing
	}
	if err := l.ls.CallByParam(lua.P{Fn: f, NRet: nret, Protect: true}, args...); err != nil {
		l.diag.Error("plugin callback failed",
			"callback", fn,
			"error", err)
		return nil, callFailed
	}
	rets := make([]lua.LValue, nret)
	for i := range rets {
		rets[i] = l.ls.Get(i - nret)
	}
	l.ls.Pop(nret)
	return rets, callOK
}

// callNPError runs a callback whose first result is an NPError. nil means success.
func (l *Library) callNPError(fn string, neutral npapi.NPError, nret int, args ...lua.LValue) (npapi.NPError, []lua.LValue) {
	rets, res := l.call(fn, nret, args...)
	switch res {
	case callMissing:
		return neutral, nil
	case callFailed:
		return npapi.GenericError, nil
	}
	return toNPError(rets[0]), rets
}

// instance returns the userdata that stands for inst inside Lua. The same
// userdata is handed out for every call on inst until npp_destroy.
func (l *Library) instance(inst *npapi.NPP) lua.LValue {
	if inst == nil {
		return lua.LNil
	}
	if ud, ok := l.instances[inst]; ok {
		return ud
	}
	ud := l.ls.NewUserData()
	ud.Value = inst
	l.instances[inst] = ud
	return ud
}

func (l *Library) getEntryPoints(funcs *npapi.PluginFuncs) npapi.NPError {
	if funcs == nil {
		return npapi.InvalidFuncTableError
	}
	*funcs = npapi.PluginFuncs{
		Version:       npapi.Version(npapi.VersionMajor, npapi.VersionMinor),
		New:           l.nppNew,
		Destroy:       l.nppDestroy,
		SetWindow:     l.nppSetWindow,
		NewStream:     l.nppNewStream,
		DestroyStream: l.nppDestroyStream,
		StreamAsFile:  l.nppStreamAsFile,
		WriteReady:    l.nppWriteReady,
		Write:         l.nppWrite,
		Print:         l.nppPrint,
		HandleEvent:   l.nppHandleEvent,
		URLNotify:     l.nppURLNotify,
		GetValue:      l.nppGetValue,
		SetValue:      l.nppSetValue,
	}
	return npapi.NoError
}

func (l *Library) initialize(host *npapi.NetscapeFuncs) npapi.NPError {
	if host == nil {
		return npapi.InvalidFuncTableError
	}
	if l.closed() {
		return npapi.ModuleLoadFailedError
	}
	l.host = host
	l.registerNPN()
	rv, _ := l.callNPError("np_initialize", npapi.NoError, 1)
	if rv != npapi.NoError {
		l.host = nil
	}
	return rv
}

func (l *Library) shutdown() npapi.NPError {
	rv, _ := l.callNPError("np_shutdown", npapi.NoError, 1)
	l.host = nil
	return rv
}

func (l *Library) nppNew(mimeType string, instance *npapi.NPP, mode uint16, argn, argv []string, saved *npapi.SavedData) npapi.NPError {
	args := l.ls.NewTable()
	for i, name := range argn {
		if i < len(argv) {
			args.RawSetString(name, lua.LString(argv[i]))
		}
	}
	var savedArg lua.LValue = lua.LNil
	if saved != nil {
		savedArg = lua.LString(saved.Buf)
	}
	rv, _ := l.callNPError("npp_new", npapi.NoError, 1,
		l.instance(instance), lua.LString(mimeType), lua.LNumber(mode), args, savedArg)
	if rv != npapi.NoError {
		delete(l.instances, instance)
	}
	return rv
}

func (l *Library) nppDestroy(instance *npapi.NPP, save **npapi.SavedData) npapi.NPError {
	rv, rets := l.callNPError("npp_destroy", npapi.NoError, 2, l.instance(instance))
	if save != nil && len(rets) == 2 {
		if s, ok := rets[1].(lua.LString); ok {
			*save = &npapi.SavedData{Buf: []byte(s)}
		}
	}
	delete(l.instances, instance)
	return rv
}

func (l *Library) nppSetWindow(instance *npapi.NPP, window *npapi.Window) npapi.NPError {
	rv, _ := l.callNPError("npp_set_window", npapi.NoError, 1, l.instance(instance), windowTable(l.ls, window))
	return rv
}

func (l *Library) nppNewStream(instance *npapi.NPP, mimeType string, stream *npapi.Stream, seekable bool, stype *uint16) npapi.NPError {
	rv, rets := l.callNPError("npp_new_stream", npapi.NoError, 2,
		l.instance(instance), lua.LString(mimeType), streamTable(l.ls, stream), lua.LBool(seekable))
	if stype != nil && len(rets) == 2 {
		if n, ok := rets[1].(lua.LNumber); ok {
			*stype = uint16(n)
		}
	}
	return rv
}

func (l *Library) nppDestroyStream(instance *npapi.NPP, stream *npapi.Stream, reason npapi.NPReason) npapi.NPError {
	rv, _ := l.callNPError("npp_destroy_stream", npapi.NoError, 1,
		l.instance(instance), streamTable(l.ls, stream), lua.LNumber(reason))
	return rv
}

func (l *Library) nppStreamAsFile(instance *npapi.NPP, stream *npapi.Stream, fname string) {
	l.call("npp_stream_as_file", 0, l.instance(instance), streamTable(l.ls, stream), lua.LString(fname))
}

func (l *Library) nppWriteReady(instance *npapi.NPP, stream *npapi.Stream) int32 {
	rets, res := l.call("npp_write_ready", 1, l.instance(instance), streamTable(l.ls, stream))
	switch res {
	case callMissing:
		return npapi.MaxReady
	case callFailed:
		return 0
	}
	return toInt32(rets[0], npapi.MaxReady)
}

func (l *Library) nppWrite(instance *npapi.NPP, stream *npapi.Stream, offset int32, buf []byte) int32 {
	rets, res := l.call("npp_write", 1,
		l.instance(instance), streamTable(l.ls, stream), lua.LNumber(offset), lua.LString(buf))
	switch res {
	case callMissing:
		return int32(len(buf))
	case callFailed:
		return -1
	}
	return toInt32(rets[0], int32(len(buf)))
}

func (l *Library) nppPrint(instance *npapi.NPP, platformPrint *npapi.Print) {
	l.call("npp_print", 0, l.instance(instance), printTable(l.ls, platformPrint))
}

func (l *Library) nppHandleEvent(instance *npapi.NPP, event *npapi.Event) int16 {
	rets, res := l.call("npp_handle_event", 1, l.instance(instance), eventTable(l.ls, event))
	if res != callOK {
		return 0
	}
	return int16(toInt32(rets[0], 0))
}

func (l *Library) nppURLNotify(instance *npapi.NPP, url string, reason npapi.NPReason, notifyData any) {
	l.call("npp_url_notify", 0, l.instance(instance), lua.LString(url), lua.LNumber(reason), toLua(l.ls, notifyData))
}

func (l *Library) nppGetValue(instance *npapi.NPP, variable npapi.NPPVariable, value any) npapi.NPError {
	rv, rets := l.callNPError("npp_get_value", npapi.GenericError, 2, l.instance(instance), lua.LString(variable.String()))
	if rv == npapi.NoError && len(rets) == 2 {
		if !storeValue(value, rets[1]) {
			return npapi.InvalidParam
		}
	}
	return rv
}

func (l *Library) nppSetValue(instance *npapi.NPP, variable npapi.NPNVariable, value any) npapi.NPError {
	rv, _ := l.callNPError("npp_set_value", npapi.NoError, 1,
		l.instance(instance), lua.LString(variable.String()), toLua(l.ls, value))
	return rv
}
