// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package npapi defines the Netscape Plugin API call contract as Go types.
//
// Structures mirror npapi.h and npruntime.h. Function tables are structs of
// func fields; a nil field means the table does not provide that call.
package npapi

// Protocol version numbers. Minor versions gate optional host calls.
const (
	VersionMajor = 0
	VersionMinor = 27

	VersHasStreamOutput       = 8
	VersHasNotification       = 9
	VersHasLiveConnect        = 9
	VersHasWindowless         = 11
	VersHasNPRuntimeScripting = 14
	VersHasPopupsEnabledState = 16
)

// Version packs a major and minor protocol number into the table version word.
func Version(major, minor uint8) uint16 {
	return uint16(major)<<8 | uint16(minor)
}

// SplitVersion returns the major and minor parts of a table version word.
func SplitVersion(v uint16) (major, minor uint8) {
	return uint8(v >> 8), uint8(v & 0xff) //nolint:gosec // masked
}

// Instance modes passed to NPP_New.
const (
	ModeEmbed uint16 = 1
	ModeFull  uint16 = 2
)

// Stream types a plugin may request from NPP_NewStream.
const (
	StreamNormal     uint16 = 1
	StreamSeek       uint16 = 2
	StreamAsFile     uint16 = 3
	StreamAsFileOnly uint16 = 4
)

// MaxReady is the WriteReady value meaning "send everything".
const MaxReady int32 = 0x0FFFFFFF

// NPP is one plugin instance. Its identity is the pointer value.
type NPP struct {
	// PData is owned by the plugin.
	PData any
	// NData is owned by the browser.
	NData any
}

// SavedData is instance state handed back by NPP_Destroy and offered to the next NPP_New.
type SavedData struct {
	Buf []byte
}

// Rect is a clip or invalidation rectangle.
type Rect struct {
	Top    uint16
	Left   uint16
	Bottom uint16
	Right  uint16
}

// Region is a platform region handle.
type Region uintptr

// WindowType distinguishes windowed and windowless drawing.
type WindowType int32

// Window types.
const (
	WindowTypeWindow   WindowType = 1
	WindowTypeDrawable WindowType = 2
)

// String returns the npapi.h enumerator name.
func (t WindowType) String() string {
	switch t {
	case WindowTypeWindow:
		return "NPWindowTypeWindow"
	case WindowTypeDrawable:
		return "NPWindowTypeDrawable"
	default:
		return unlisted
	}
}

// Window describes the drawable area given to an instance.
type Window struct {
	Window   uintptr
	X        int32
	Y        int32
	Width    uint32
	Height   uint32
	ClipRect Rect
	Type     WindowType
}

// Stream is a data stream between browser and plugin.
type Stream struct {
	PData        any
	NData        any
	URL          string
	End          uint32
	LastModified uint32
	NotifyData   any
	Headers      string
}

// ByteRange is one element of an NPN_RequestRead range list.
type ByteRange struct {
	Offset int32
	Length uint32
	Next   *ByteRange
}

// FullPrint is the full-page variant of Print.
type FullPrint struct {
	PluginPrinted bool
	PrintOne      bool
	PlatformPrint uintptr
}

// EmbedPrint is the embedded variant of Print.
type EmbedPrint struct {
	Window        Window
	PlatformPrint uintptr
}

// Print carries either a FullPrint or an EmbedPrint depending on Mode.
type Print struct {
	Mode  uint16
	Full  *FullPrint
	Embed *EmbedPrint
}

// Event is a platform event delivered to windowless instances.
type Event struct {
	Event  uint16
	WParam uintptr
	LParam uintptr
}
