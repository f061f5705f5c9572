// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package format

import (
	"github.com/holomush/npspy/pkg/npapi"
)

// Kind is the shape of one positional argument.
type Kind uint8

// Argument kinds.
const (
	KindInstance Kind = iota + 1
	KindString
	KindBytes
	KindInt
	KindUint
	KindBool
	KindPointer
	KindReason
	KindNPNVariable
	KindNPPVariable
	KindWindow
	KindStream
	KindByteRange
	KindSavedData
	KindPrint
	KindEvent
	KindRect
	KindIdentifier
	KindObject
	KindVariant
	KindStringList
	KindVariantList
)

var kindNames = map[Kind]string{
	KindInstance:    "instance",
	KindString:      "string",
	KindBytes:       "bytes",
	KindInt:         "int",
	KindUint:        "uint",
	KindBool:        "bool",
	KindPointer:     "pointer",
	KindReason:      "reason",
	KindNPNVariable: "npn_variable",
	KindNPPVariable: "npp_variable",
	KindWindow:      "window",
	KindStream:      "stream",
	KindByteRange:   "byte_range",
	KindSavedData:   "saved_data",
	KindPrint:       "print",
	KindEvent:       "event",
	KindRect:        "rect",
	KindIdentifier:  "identifier",
	KindObject:      "object",
	KindVariant:     "variant",
	KindStringList:  "string_list",
	KindVariantList: "variant_list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Arg is one raw positional argument as seen at call-entry time. Pointer-valued
// arguments are not dereferenced until Capture.
type Arg struct {
	kind  Kind
	value any
}

// Kind returns the argument's shape.
func (a Arg) Kind() Kind { return a.kind }

// Instance wraps a plugin instance handle.
func Instance(v *npapi.NPP) Arg { return Arg{KindInstance, v} }

// String wraps a C string argument.
func String(v string) Arg { return Arg{KindString, v} }

// Bytes wraps a data buffer.
func Bytes(v []byte) Arg { return Arg{KindBytes, v} }

// Int wraps a signed numeric argument.
func Int(v int64) Arg { return Arg{KindInt, v} }

// Uint wraps an unsigned numeric argument.
func Uint(v uint64) Arg { return Arg{KindUint, v} }

// Bool wraps an NPBool argument.
func Bool(v bool) Arg { return Arg{KindBool, v} }

// Pointer wraps an opaque pointer whose identity, not content, is logged.
func Pointer(v any) Arg { return Arg{KindPointer, v} }

// Reason wraps an NPReason.
func Reason(v npapi.NPReason) Arg { return Arg{KindReason, v} }

// NPNVariable wraps a browser variable selector.
func NPNVariable(v npapi.NPNVariable) Arg { return Arg{KindNPNVariable, v} }

// NPPVariable wraps a plugin variable selector.
func NPPVariable(v npapi.NPPVariable) Arg { return Arg{KindNPPVariable, v} }

// Window wraps an NPWindow pointer.
func Window(v *npapi.Window) Arg { return Arg{KindWindow, v} }

// Stream wraps an NPStream pointer.
func Stream(v *npapi.Stream) Arg { return Arg{KindStream, v} }

// ByteRange wraps the head of an NPByteRange list.
func ByteRange(v *npapi.ByteRange) Arg { return Arg{KindByteRange, v} }

// SavedData wraps an NPSavedData pointer.
func SavedData(v *npapi.SavedData) Arg { return Arg{KindSavedData, v} }

// Print wraps an NPPrint pointer.
func Print(v *npapi.Print) Arg { return Arg{KindPrint, v} }

// Event wraps a platform event pointer.
func Event(v *npapi.Event) Arg { return Arg{KindEvent, v} }

// Rect wraps an NPRect pointer.
func Rect(v *npapi.Rect) Arg { return Arg{KindRect, v} }

// Identifier wraps an NPIdentifier.
func Identifier(v npapi.Identifier) Arg { return Arg{KindIdentifier, v} }

// Object wraps an NPObject pointer.
func Object(v *npapi.Object) Arg { return Arg{KindObject, v} }

// Variant wraps an NPVariant pointer.
func Variant(v *npapi.Variant) Arg { return Arg{KindVariant, v} }

// StringList wraps an array of C strings such as NPP_New's argn.
func StringList(v []string) Arg { return Arg{KindStringList, v} }

// VariantList wraps an NPVariant array.
func VariantList(v []npapi.Variant) Arg { return Arg{KindVariantList, v} }
