// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package format

import (
	"github.com/samber/oops"
)

// Abbreviation limits applied to captured strings and buffers.
const (
	WrapLength = 64
	BufferSize = 128
)

// ellipsis marks an abbreviated string. Together with the terminator of the
// original fixed buffer it accounts for the 4 reserved bytes.
const ellipsis = "..."

// MakeAbbreviatedString copies s into a buffer of bufSize bytes, terminator
// included. Strings longer than wrap keep min(wrap, bufSize-4) bytes followed
// by "...". Strings that fit within wrap are returned whole unless they would
// overflow the buffer.
//
// A buffer smaller than 4 bytes cannot hold the marker and is reported as an
// error rather than clipped.
func MakeAbbreviatedString(s string, wrap, bufSize int) (string, error) {
	if bufSize < len(ellipsis)+1 {
		return "", oops.Code(CodeBufferTooSmall).
			With("buffer_size", bufSize).
			Errorf("abbreviation buffer of %d bytes cannot hold the ellipsis marker", bufSize)
	}
	if len(s) <= wrap {
		if len(s) >= bufSize {
			return s[:bufSize-1], nil
		}
		return s, nil
	}
	n := min(wrap, bufSize-len(ellipsis)-1)
	if n < 0 {
		n = 0
	}
	return s[:n] + ellipsis, nil
}
