// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/npspy/pkg/npapi"
)

// memBlock is the userdata returned by npn.mem_alloc.
type memBlock struct {
	buf []byte
}

// registerNPN installs the npn table through which Lua calls the browser.
// Each function calls the host table given to NP_Initialize.
func (l *Library) registerNPN() {
	L := l.ls
	mod := L.NewTable()

	L.SetField(mod, "status", L.NewFunction(l.npnStatus))
	L.SetField(mod, "user_agent", L.NewFunction(l.npnUserAgent))
	L.SetField(mod, "get_url", L.NewFunction(l.npnGetURL))
	L.SetField(mod, "get_url_notify", L.NewFunction(l.npnGetURLNotify))
	L.SetField(mod, "mem_alloc", L.NewFunction(l.npnMemAlloc))
	L.SetField(mod, "mem_free", L.NewFunction(l.npnMemFree))
	L.SetField(mod, "mem_flush", L.NewFunction(l.npnMemFlush))
	L.SetField(mod, "invalidate_rect", L.NewFunction(l.npnInvalidateRect))
	L.SetField(mod, "force_redraw", L.NewFunction(l.npnForceRedraw))
	L.SetField(mod, "get_value", L.NewFunction(l.npnGetValue))
	L.SetField(mod, "reload_plugins", L.NewFunction(l.npnReloadPlugins))
	L.SetField(mod, "log", L.NewFunction(l.npnLog))

	L.SetGlobal("npn", mod)
}

// hostFunc returns the host table, raising a Lua error when fn is absent.
func (l *Library) hostFunc(L *lua.LState, name string, present func(*npapi.NetscapeFuncs) bool) *npapi.NetscapeFuncs {
	if l.host == nil {
		L.RaiseError("npn.%s called outside NP_Initialize/NP_Shutdown", name)
		return nil
	}
	if !present(l.host) {
		L.RaiseError("npn.%s not provided by the browser", name)
		return nil
	}
	return l.host
}

// checkInstance reads the instance userdata at stack position n.
func checkInstance(L *lua.LState, n int) *npapi.NPP {
	if L.Get(n) == lua.LNil {
		return nil
	}
	ud := L.CheckUserData(n)
	inst, ok := ud.Value.(*npapi.NPP)
	if !ok {
		L.ArgError(n, "instance expected")
		return nil
	}
	return inst
}

func (l *Library) npnStatus(L *lua.LState) int {
	inst, msg := checkInstance(L, 1), L.CheckString(2)
	h := l.hostFunc(L, "status", func(h *npapi.NetscapeFuncs) bool { return h.Status != nil })
	h.Status(inst, msg)
	return 0
}

func (l *Library) npnUserAgent(L *lua.LState) int {
	inst := checkInstance(L, 1)
	h := l.hostFunc(L, "user_agent", func(h *npapi.NetscapeFuncs) bool { return h.UserAgent != nil })
	L.Push(lua.LString(h.UserAgent(inst)))
	return 1
}

func (l *Library) npnGetURL(L *lua.LState) int {
	inst, url, target := checkInstance(L, 1), L.CheckString(2), L.OptString(3, "")
	h := l.hostFunc(L, "get_url", func(h *npapi.NetscapeFuncs) bool { return h.GetURL != nil })
	L.Push(lua.LNumber(h.GetURL(inst, url, target)))
	return 1
}

func (l *Library) npnGetURLNotify(L *lua.LState) int {
	inst, url, target := checkInstance(L, 1), L.CheckString(2), L.OptString(3, "")
	notifyData := fromLua(L.Get(4))
	h := l.hostFunc(L, "get_url_notify", func(h *npapi.NetscapeFuncs) bool { return h.GetURLNotify != nil })
	L.Push(lua.LNumber(h.GetURLNotify(inst, url, target, notifyData)))
	return 1
}

func (l *Library) npnMemAlloc(L *lua.LState) int {
	size := L.CheckInt(1)
	if size < 0 {
		L.ArgError(1, "size must not be negative")
		return 0
	}
	h := l.hostFunc(L, "mem_alloc", func(h *npapi.NetscapeFuncs) bool { return h.MemAlloc != nil })
	buf := h.MemAlloc(uint32(size))
	if buf == nil {
		L.Push(lua.LNil)
		return 1
	}
	ud := L.NewUserData()
	ud.Value = &memBlock{buf: buf}
	L.Push(ud)
	return 1
}

func (l *Library) npnMemFree(L *lua.LState) int {
	ud := L.CheckUserData(1)
	block, ok := ud.Value.(*memBlock)
	if !ok {
		L.ArgError(1, "memory block expected")
		return 0
	}
	h := l.hostFunc(L, "mem_free", func(h *npapi.NetscapeFuncs) bool { return h.MemFree != nil })
	h.MemFree(block.buf)
	block.buf = nil
	return 0
}

func (l *Library) npnMemFlush(L *lua.LState) int {
	size := L.CheckInt(1)
	h := l.hostFunc(L, "mem_flush", func(h *npapi.NetscapeFuncs) bool { return h.MemFlush != nil })
	L.Push(lua.LNumber(h.MemFlush(uint32(max(size, 0)))))
	return 1
}

func (l *Library) npnInvalidateRect(L *lua.LState) int {
	inst, rect := checkInstance(L, 1), L.CheckTable(2)
	h := l.hostFunc(L, "invalidate_rect", func(h *npapi.NetscapeFuncs) bool { return h.InvalidateRect != nil })
	h.InvalidateRect(inst, rectFromTable(rect))
	return 0
}

func (l *Library) npnForceRedraw(L *lua.LState) int {
	inst := checkInstance(L, 1)
	h := l.hostFunc(L, "force_redraw", func(h *npapi.NetscapeFuncs) bool { return h.ForceRedraw != nil })
	h.ForceRedraw(inst)
	return 0
}

// npnGetValue returns the NPError and, on success, the value.
func (l *Library) npnGetValue(L *lua.LState) int {
	inst, name := checkInstance(L, 1), L.CheckString(2)
	variable, ok := npapi.ParseNPNVariable(name)
	if !ok {
		L.ArgError(2, "unknown variable "+name)
		return 0
	}
	h := l.hostFunc(L, "get_value", func(h *npapi.NetscapeFuncs) bool { return h.GetValue != nil })
	var out any
	rv := h.GetValue(inst, variable, &out)
	L.Push(lua.LNumber(rv))
	if rv != npapi.NoError {
		L.Push(lua.LNil)
		return 2
	}
	L.Push(toLua(L, out))
	return 2
}

func (l *Library) npnReloadPlugins(L *lua.LState) int {
	reloadPages := L.OptBool(1, false)
	h := l.hostFunc(L, "reload_plugins", func(h *npapi.NetscapeFuncs) bool { return h.ReloadPlugins != nil })
	h.ReloadPlugins(reloadPages)
	return 0
}

func (l *Library) npnLog(L *lua.LState) int {
	level := L.CheckString(1)
	message := L.CheckString(2)

	switch level {
	case "debug":
		l.diag.Debug(message)
	case "warn":
		l.diag.Warn(message)
	case "error":
		l.diag.Error(message)
	default:
		l.diag.Info(message)
	}
	return 0
}
