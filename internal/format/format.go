// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package format

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/holomush/npspy/pkg/npapi"
)

// Line endings accepted by Format.
const (
	LF   = "\n"
	CRLF = "\r\n"
)

// ReturnPrefix starts every return-value record.
const ReturnPrefix = "---Return: "

// Format renders a captured call, e.g. `NPN_GetURL(0xc000012345, "http://a", "_blank")`,
// followed by lineEnding.
func Format(c *CapturedEvent, lineEnding string) string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(c.Action.String())
	if c.Short || !c.Action.Valid() {
		b.WriteString(lineEnding)
		return b.String()
	}
	b.WriteByte('(')
	for i, arg := range c.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(renderArg(arg))
	}
	b.WriteByte(')')
	b.WriteString(lineEnding)
	return b.String()
}

// FormatReturn renders a "---Return: <value>" record.
func FormatReturn(rv any, lineEnding string) string {
	return ReturnPrefix + renderValue(rv) + lineEnding
}

func renderArg(a CapturedArg) string {
	if a.Null {
		return "NULL"
	}
	switch a.Kind {
	case KindString:
		return quote(a.Value)
	case KindBytes:
		return fmt.Sprintf("%s (%d bytes)", quote(a.Value), a.Length)
	case KindInstance, KindPointer:
		return fmt.Sprint(a.Value)
	case KindReason, KindNPNVariable, KindNPPVariable:
		return renderEnum(a.Value)
	case KindIdentifier:
		id, _ := a.Value.(npapi.Identifier)
		return fmt.Sprintf("%#x", uintptr(id))
	case KindWindow:
		w, _ := a.Value.(npapi.Window)
		return fmt.Sprintf("{window=%#x, x=%d, y=%d, width=%d, height=%d, clip=%s, type=%s}",
			w.Window, w.X, w.Y, w.Width, w.Height, renderRect(w.ClipRect), w.Type)
	case KindStream:
		s, _ := a.Value.(capturedStream)
		return fmt.Sprintf("%s {url=%q, end=%d, lastmodified=%d, notifyData=%s}",
			s.id, s.url, s.end, s.lastModified, s.notifyData)
	case KindByteRange:
		ranges, _ := a.Value.([]npapi.ByteRange)
		parts := make([]string, len(ranges))
		for i, r := range ranges {
			parts[i] = fmt.Sprintf("{offset=%d, length=%d}", r.Offset, r.Length)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindSavedData:
		return fmt.Sprintf("{len=%d}", a.Length)
	case KindPrint:
		return renderPrint(a.Value)
	case KindEvent:
		e, _ := a.Value.(npapi.Event)
		return fmt.Sprintf("{event=%#04x, wParam=%#x, lParam=%#x}", e.Event, e.WParam, e.LParam)
	case KindRect:
		r, _ := a.Value.(npapi.Rect)
		return renderRect(r)
	case KindObject:
		o, _ := a.Value.(capturedObject)
		return fmt.Sprintf("%s {refcount=%d}", o.id, o.refs)
	case KindVariant:
		v, _ := a.Value.(capturedVariant)
		return renderVariant(v)
	case KindStringList:
		list, _ := a.Value.([]string)
		parts := make([]string, len(list))
		for i, s := range list {
			parts[i] = quote(s)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindVariantList:
		list, _ := a.Value.([]capturedVariant)
		parts := make([]string, len(list))
		for i, v := range list {
			parts[i] = renderVariant(v)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return renderValue(a.Value)
	}
}

func quote(v any) string {
	s, _ := v.(string)
	return `"` + s + `"`
}

func renderEnum(v any) string {
	switch e := v.(type) {
	case npapi.NPReason:
		return e.String()
	case npapi.NPNVariable:
		return e.String()
	case npapi.NPPVariable:
		return e.String()
	default:
		return fmt.Sprint(v)
	}
}

func renderRect(r npapi.Rect) string {
	return fmt.Sprintf("{top=%d, left=%d, bottom=%d, right=%d}", r.Top, r.Left, r.Bottom, r.Right)
}

func renderPrint(v any) string {
	p, _ := v.(capturedPrint)
	switch {
	case p.mode == npapi.ModeFull && p.full != nil:
		return fmt.Sprintf("{mode=NP_FULL, pluginPrinted=%t, printOne=%t, platformPrint=%#x}",
			p.full.PluginPrinted, p.full.PrintOne, p.full.PlatformPrint)
	case p.mode == npapi.ModeEmbed && p.embed != nil:
		w := p.embed.Window
		return fmt.Sprintf("{mode=NP_EMBED, window={x=%d, y=%d, width=%d, height=%d}, platformPrint=%#x}",
			w.X, w.Y, w.Width, w.Height, p.embed.PlatformPrint)
	default:
		return fmt.Sprintf("{mode=%d}", p.mode)
	}
}

func renderVariant(v capturedVariant) string {
	if v.value == "" {
		return "{" + v.typ.String() + "}"
	}
	return "{" + v.typ.String() + ", " + v.value + "}"
}

// renderValue formats return values and untyped slots.
func renderValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case npapi.NPError:
		return strconv.Itoa(int(x)) + " (" + x.String() + ")"
	case npapi.NPReason, npapi.NPNVariable, npapi.NPPVariable:
		return renderEnum(x)
	case npapi.Identifier:
		return fmt.Sprintf("%#x", uintptr(x))
	case bool:
		return strconv.FormatBool(x)
	case string:
		s, err := abbreviate(x)
		if err != nil {
			return quote("")
		}
		return quote(s)
	case []byte:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprintf("%p (%d bytes)", x, len(x))
	case *npapi.Object:
		if x == nil {
			return "NULL"
		}
		return fmt.Sprintf("%p {refcount=%d}", x, x.ReferenceCount)
	case int, int16, int32, int64, uint, uint16, uint32, uint64:
		return fmt.Sprint(x)
	default:
		return pointerText(v)
	}
}
