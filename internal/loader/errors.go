// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader

// Error codes returned by the loader.
const (
	CodeInvalidManifest = "INVALID_MANIFEST"
	CodeSchema          = "MANIFEST_SCHEMA"
	CodeNoPlugin        = "NO_PLUGIN_FOR_MIME_TYPE"
	CodeLuaError        = "LUA_ERROR"
	CodeUnknownSymbol   = "UNKNOWN_SYMBOL"
	CodeNotLibrary      = "NOT_A_LIBRARY"
	CodeUnloaded        = "LIBRARY_UNLOADED"
)
