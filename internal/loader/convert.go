// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/npspy/pkg/npapi"
)

func toNPError(v lua.LValue) npapi.NPError {
	if n, ok := v.(lua.LNumber); ok {
		return npapi.NPError(n)
	}
	return npapi.NoError
}

func toInt32(v lua.LValue, fallback int32) int32 {
	if n, ok := v.(lua.LNumber); ok {
		return int32(n)
	}
	return fallback
}

func windowTable(L *lua.LState, w *npapi.Window) lua.LValue {
	if w == nil {
		return lua.LNil
	}
	t := L.NewTable()
	t.RawSetString("x", lua.LNumber(w.X))
	t.RawSetString("y", lua.LNumber(w.Y))
	t.RawSetString("width", lua.LNumber(w.Width))
	t.RawSetString("height", lua.LNumber(w.Height))
	t.RawSetString("type", lua.LString(w.Type.String()))
	return t
}

func streamTable(L *lua.LState, s *npapi.Stream) lua.LValue {
	if s == nil {
		return lua.LNil
	}
	t := L.NewTable()
	t.RawSetString("url", lua.LString(s.URL))
	t.RawSetString("end", lua.LNumber(s.End))
	t.RawSetString("last_modified", lua.LNumber(s.LastModified))
	if s.Headers != "" {
		t.RawSetString("headers", lua.LString(s.Headers))
	}
	return t
}

func printTable(L *lua.LState, p *npapi.Print) lua.LValue {
	if p == nil {
		return lua.LNil
	}
	t := L.NewTable()
	switch {
	case p.Mode == npapi.ModeFull:
		t.RawSetString("mode", lua.LString("full"))
		if p.Full != nil {
			t.RawSetString("plugin_printed", lua.LBool(p.Full.PluginPrinted))
			t.RawSetString("print_one", lua.LBool(p.Full.PrintOne))
		}
	case p.Mode == npapi.ModeEmbed:
		t.RawSetString("mode", lua.LString("embed"))
		if p.Embed != nil {
			t.RawSetString("window", windowTable(L, &p.Embed.Window))
		}
	default:
		t.RawSetString("mode", lua.LNumber(p.Mode))
	}
	return t
}

func eventTable(L *lua.LState, e *npapi.Event) lua.LValue {
	if e == nil {
		return lua.LNil
	}
	t := L.NewTable()
	t.RawSetString("event", lua.LNumber(e.Event))
	t.RawSetString("wparam", lua.LNumber(e.WParam))
	t.RawSetString("lparam", lua.LNumber(e.LParam))
	return t
}

func rectFromTable(t *lua.LTable) *npapi.Rect {
	field := func(name string) uint16 {
		if n, ok := t.RawGetString(name).(lua.LNumber); ok {
			return uint16(n)
		}
		return 0
	}
	return &npapi.Rect{
		Top:    field("top"),
		Left:   field("left"),
		Bottom: field("bottom"),
		Right:  field("right"),
	}
}

// toLua converts a scalar Go value, or a pointer to one, into a Lua value.
// Anything else is passed through as userdata.
func toLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case *bool:
		if val == nil {
			return lua.LNil
		}
		return lua.LBool(*val)
	case string:
		return lua.LString(val)
	case *string:
		if val == nil {
			return lua.LNil
		}
		return lua.LString(*val)
	case int:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case *int32:
		if val == nil {
			return lua.LNil
		}
		return lua.LNumber(*val)
	case float64:
		return lua.LNumber(val)
	case *any:
		if val == nil {
			return lua.LNil
		}
		return toLua(L, *val)
	default:
		ud := L.NewUserData()
		ud.Value = v
		return ud
	}
}

// fromLua converts a Lua scalar back into its Go value. Userdata yields the
// value it wraps.
func fromLua(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case *lua.LUserData:
		return val.Value
	default:
		return nil
	}
}

// storeValue writes a Lua result through an out-pointer. It reports false
// when the pointer type cannot hold the value.
func storeValue(out any, v lua.LValue) bool {
	switch dst := out.(type) {
	case nil:
		return true
	case *string:
		s, ok := v.(lua.LString)
		if ok {
			*dst = string(s)
		}
		return ok
	case *bool:
		b, ok := v.(lua.LBool)
		if ok {
			*dst = bool(b)
		}
		return ok
	case *int32:
		n, ok := v.(lua.LNumber)
		if ok {
			*dst = int32(n)
		}
		return ok
	case *any:
		*dst = fromLua(v)
		return true
	default:
		return false
	}
}
