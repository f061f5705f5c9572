// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package format

import (
	"fmt"
	"reflect"

	"github.com/samber/oops"

	"github.com/holomush/npspy/pkg/npapi"
)

// Error codes for capture failures.
const (
	CodeTooManyArgs    = "TOO_MANY_ARGS"
	CodeArgMismatch    = "ARG_MISMATCH"
	CodeBufferTooSmall = "BUFFER_TOO_SMALL"
)

// MaxArgs is the largest number of positional arguments any action takes.
const MaxArgs = 7

// maxRangeLinks bounds the walk over an NPByteRange list.
const maxRangeLinks = 32

// CallEvent is one intercepted call as observed at entry.
type CallEvent struct {
	Action Action
	Args   []Arg
	// Short requests an argument-free record.
	Short bool
}

// CapturedArg is an argument whose referenced data has been copied.
type CapturedArg struct {
	Kind Kind
	// Value is the copied snapshot. Strings and buffers are already
	// abbreviated; struct pointers are stored by value.
	Value any
	// Length is the byte length of the original string or buffer, or the
	// element count of a list.
	Length int
	// Null is set when the raw pointer was nil.
	Null bool
}

// CapturedEvent is a CallEvent safe to format after the call has returned.
type CapturedEvent struct {
	Action Action
	Args   []CapturedArg
	Short  bool
}

// Capture validates ev against its action's signature and snapshots every
// pointer-valued argument. Unknown actions capture no arguments.
func Capture(ev CallEvent) (*CapturedEvent, error) {
	out := &CapturedEvent{Action: ev.Action, Short: ev.Short}
	if ev.Short {
		return out, nil
	}
	sig, ok := ev.Action.signature()
	if !ok {
		return out, nil
	}
	if len(ev.Args) > MaxArgs {
		return nil, oops.Code(CodeTooManyArgs).
			With("action", sig.name).
			With("count", len(ev.Args)).
			Errorf("%s: %d arguments exceed the maximum of %d", sig.name, len(ev.Args), MaxArgs)
	}
	if len(ev.Args) != len(sig.params) {
		return nil, oops.Code(CodeArgMismatch).
			With("action", sig.name).
			With("count", len(ev.Args)).
			Errorf("%s takes %d arguments, got %d", sig.name, len(sig.params), len(ev.Args))
	}

	out.Args = make([]CapturedArg, len(ev.Args))
	for i, arg := range ev.Args {
		want := sig.params[i]
		if arg.kind != want.kind {
			return nil, oops.Code(CodeArgMismatch).
				With("action", sig.name).
				With("param", want.name).
				Errorf("%s: %s must be %s, got %s", sig.name, want.name, want.kind, arg.kind)
		}
		c, err := captureArg(arg)
		if err != nil {
			return nil, oops.With("action", sig.name).With("param", want.name).Wrap(err)
		}
		out.Args[i] = c
	}
	return out, nil
}

func abbreviate(s string) (string, error) {
	return MakeAbbreviatedString(s, WrapLength, BufferSize)
}

func mismatch(arg Arg) error {
	return oops.Code(CodeArgMismatch).
		With("kind", arg.kind.String()).
		Errorf("unexpected %T for %s argument", arg.value, arg.kind)
}

func captureArg(arg Arg) (CapturedArg, error) {
	c := CapturedArg{Kind: arg.kind}
	switch arg.kind {
	case KindInstance:
		v, ok := arg.value.(*npapi.NPP)
		if !ok {
			return c, mismatch(arg)
		}
		c.Null, c.Value = v == nil, pointerText(v)
	case KindString:
		v, ok := arg.value.(string)
		if !ok {
			return c, mismatch(arg)
		}
		s, err := abbreviate(v)
		if err != nil {
			return c, err
		}
		c.Value, c.Length = s, len(v)
	case KindBytes:
		v, ok := arg.value.([]byte)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		s, err := abbreviate(string(v))
		if err != nil {
			return c, err
		}
		c.Value, c.Length = printable(s), len(v)
	case KindInt, KindUint, KindBool, KindReason, KindNPNVariable, KindNPPVariable, KindIdentifier:
		c.Value = arg.value
	case KindPointer:
		c.Null, c.Value = isNil(arg.value), pointerText(arg.value)
	case KindWindow:
		v, ok := arg.value.(*npapi.Window)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; !c.Null {
			c.Value = *v
		}
	case KindStream:
		v, ok := arg.value.(*npapi.Stream)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		url, err := abbreviate(v.URL)
		if err != nil {
			return c, err
		}
		c.Value = capturedStream{
			id:           pointerText(v),
			url:          url,
			end:          v.End,
			lastModified: v.LastModified,
			notifyData:   pointerText(v.NotifyData),
		}
		c.Length = len(v.URL)
	case KindByteRange:
		v, ok := arg.value.(*npapi.ByteRange)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		var ranges []npapi.ByteRange
		for r := v; r != nil && len(ranges) < maxRangeLinks; r = r.Next {
			ranges = append(ranges, npapi.ByteRange{Offset: r.Offset, Length: r.Length})
		}
		c.Value, c.Length = ranges, len(ranges)
	case KindSavedData:
		v, ok := arg.value.(*npapi.SavedData)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; !c.Null {
			c.Length = len(v.Buf)
		}
	case KindPrint:
		v, ok := arg.value.(*npapi.Print)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		cp := capturedPrint{mode: v.Mode}
		if v.Full != nil {
			full := *v.Full
			cp.full = &full
		}
		if v.Embed != nil {
			embed := *v.Embed
			cp.embed = &embed
		}
		c.Value = cp
	case KindEvent:
		v, ok := arg.value.(*npapi.Event)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; !c.Null {
			c.Value = *v
		}
	case KindRect:
		v, ok := arg.value.(*npapi.Rect)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; !c.Null {
			c.Value = *v
		}
	case KindObject:
		v, ok := arg.value.(*npapi.Object)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; !c.Null {
			c.Value = capturedObject{id: pointerText(v), refs: v.ReferenceCount}
		}
	case KindVariant:
		v, ok := arg.value.(*npapi.Variant)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		cv, err := captureVariant(*v)
		if err != nil {
			return c, err
		}
		c.Value = cv
	case KindStringList:
		v, ok := arg.value.([]string)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		list := make([]string, len(v))
		for i, s := range v {
			a, err := abbreviate(s)
			if err != nil {
				return c, err
			}
			list[i] = a
		}
		c.Value, c.Length = list, len(v)
	case KindVariantList:
		v, ok := arg.value.([]npapi.Variant)
		if !ok {
			return c, mismatch(arg)
		}
		if c.Null = v == nil; c.Null {
			return c, nil
		}
		list := make([]capturedVariant, len(v))
		for i, item := range v {
			cv, err := captureVariant(item)
			if err != nil {
				return c, err
			}
			list[i] = cv
		}
		c.Value, c.Length = list, len(v)
	default:
		return c, mismatch(arg)
	}
	return c, nil
}

type capturedStream struct {
	id           string
	url          string
	end          uint32
	lastModified uint32
	notifyData   string
}

type capturedPrint struct {
	mode  uint16
	full  *npapi.FullPrint
	embed *npapi.EmbedPrint
}

type capturedObject struct {
	id   string
	refs uint32
}

type capturedVariant struct {
	typ   npapi.VariantType
	value string
}

func captureVariant(v npapi.Variant) (capturedVariant, error) {
	cv := capturedVariant{typ: v.Type}
	switch v.Type {
	case npapi.VariantVoid, npapi.VariantNull:
	case npapi.VariantString:
		s, _ := v.Value.(string)
		a, err := abbreviate(s)
		if err != nil {
			return cv, err
		}
		cv.value = `"` + a + `"`
	case npapi.VariantObject:
		cv.value = pointerText(v.Value)
	default:
		cv.value = fmt.Sprint(v.Value)
	}
	return cv, nil
}

// isNil reports whether v is nil or a nil pointer-like value.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan, reflect.Interface, reflect.UnsafePointer:
		return rv.IsNil()
	default:
		return false
	}
}

// pointerText renders the identity of a pointer-like value. Non-pointer
// values, such as integer notify cookies, render verbatim.
func pointerText(v any) string {
	if isNil(v) {
		return "NULL"
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Pointer, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return fmt.Sprintf("%p", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// printable replaces control and non-ASCII bytes so buffers log on one line.
func printable(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c < 0x20 || c > 0x7e {
			b[i] = '.'
		}
	}
	return string(b)
}
