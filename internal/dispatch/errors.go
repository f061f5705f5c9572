// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"github.com/samber/oops"

	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/pkg/npapi"
)

// Error codes for dispatch failures. None of them reach the browser; each is
// converted to the failing call's natural return value.
const (
	CodeNotFound               = "DISPATCH_NOT_FOUND"
	CodeUnsupportedHostVersion = "UNSUPPORTED_HOST_VERSION"
	CodeNotInitialized         = "NOT_INITIALIZED"
	CodeLoadFailed             = "LOAD_FAILED"
	CodeInvalidFuncTable       = "INVALID_FUNCTABLE"
	CodeNotProvided            = "FUNCTION_NOT_PROVIDED"
	CodeNilLoader              = "NIL_LOADER"
)

// ErrNilLoader is returned by NewDispatcher when no loader is given.
var ErrNilLoader = oops.Code(CodeNilLoader).Errorf("loader must not be nil")

// ErrInstanceNotFound creates an error for an instance never bound by NPP_New.
func ErrInstanceNotFound(a format.Action, inst *npapi.NPP) error {
	return oops.Code(CodeNotFound).
		With("action", a.String()).
		With("instance", inst != nil).
		Errorf("no plugin owns this instance")
}

// ErrMIMETypeNotFound creates an error for a MIME type no plugin handles.
func ErrMIMETypeNotFound(mime string, cause error) error {
	b := oops.Code(CodeNotFound).With("mime_type", mime)
	if cause != nil {
		return b.Wrapf(cause, "no plugin for MIME type %s", mime)
	}
	return b.Errorf("no plugin for MIME type %s", mime)
}

// ErrUnsupportedHostVersion creates an error for a host too old for a call.
func ErrUnsupportedHostVersion(a format.Action, have, need uint8) error {
	return oops.Code(CodeUnsupportedHostVersion).
		With("action", a.String()).
		With("host_minor", have).
		With("required_minor", need).
		Errorf("host version %d is below %d", have, need)
}

// ErrNotInitialized creates an error for a call made outside NP_Initialize/NP_Shutdown.
func ErrNotInitialized(a format.Action) error {
	return oops.Code(CodeNotInitialized).
		With("action", a.String()).
		Errorf("dispatcher is not initialized")
}

// ErrLoadFailed creates an error for a plugin library that could not be loaded.
func ErrLoadFailed(mime, step string, cause error) error {
	b := oops.Code(CodeLoadFailed).With("mime_type", mime).With("step", step)
	if cause != nil {
		return b.Wrap(cause)
	}
	return b.Errorf("%s failed", step)
}

// ErrInvalidFuncTable creates an error for a nil or malformed function table.
func ErrInvalidFuncTable(a format.Action, reason string) error {
	return oops.Code(CodeInvalidFuncTable).
		With("action", a.String()).
		Errorf("invalid function table: %s", reason)
}

// ErrNotProvided creates an error for a call the target table leaves nil.
func ErrNotProvided(a format.Action) error {
	return oops.Code(CodeNotProvided).
		With("action", a.String()).
		Errorf("%s is not provided by the target table", a)
}
