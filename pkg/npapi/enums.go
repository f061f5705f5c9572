// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package npapi

// unlisted is rendered for enumeration values outside the known set.
const unlisted = "Unlisted value"

// NPError is the result code of most NPAPI calls.
type NPError int16

// NPError values.
const (
	NoError                  NPError = 0
	GenericError             NPError = 1
	InvalidInstanceError     NPError = 2
	InvalidFuncTableError    NPError = 3
	ModuleLoadFailedError    NPError = 4
	OutOfMemoryError         NPError = 5
	InvalidPluginError       NPError = 6
	InvalidPluginDirError    NPError = 7
	IncompatibleVersionError NPError = 8
	InvalidParam             NPError = 9
	InvalidURL               NPError = 10
	FileNotFound             NPError = 11
	NoData                   NPError = 12
	StreamNotSeekable        NPError = 13
)

var errorNames = map[NPError]string{
	NoError:                  "NPERR_NO_ERROR",
	GenericError:             "NPERR_GENERIC_ERROR",
	InvalidInstanceError:     "NPERR_INVALID_INSTANCE_ERROR",
	InvalidFuncTableError:    "NPERR_INVALID_FUNCTABLE_ERROR",
	ModuleLoadFailedError:    "NPERR_MODULE_LOAD_FAILED_ERROR",
	OutOfMemoryError:         "NPERR_OUT_OF_MEMORY_ERROR",
	InvalidPluginError:       "NPERR_INVALID_PLUGIN_ERROR",
	InvalidPluginDirError:    "NPERR_INVALID_PLUGIN_DIR_ERROR",
	IncompatibleVersionError: "NPERR_INCOMPATIBLE_VERSION_ERROR",
	InvalidParam:             "NPERR_INVALID_PARAM",
	InvalidURL:               "NPERR_INVALID_URL",
	FileNotFound:             "NPERR_FILE_NOT_FOUND",
	NoData:                   "NPERR_NO_DATA",
	StreamNotSeekable:        "NPERR_STREAM_NOT_SEEKABLE",
}

// String returns the npapi.h name, or "Unlisted value".
func (e NPError) String() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	return unlisted
}

// NPReason explains why a stream or URL request finished.
type NPReason int16

// NPReason values.
const (
	ReasonDone       NPReason = 0
	ReasonNetworkErr NPReason = 1
	ReasonUserBreak  NPReason = 2
)

// String returns the npapi.h name, or "Unlisted value".
func (r NPReason) String() string {
	switch r {
	case ReasonDone:
		return "NPRES_DONE"
	case ReasonNetworkErr:
		return "NPRES_NETWORK_ERR"
	case ReasonUserBreak:
		return "NPRES_USER_BREAK"
	default:
		return unlisted
	}
}

// NPNVariable names a value the plugin queries from the browser.
type NPNVariable int32

// NPNVariable values.
const (
	NPNVxDisplay                 NPNVariable = 1
	NPNVxtAppContext             NPNVariable = 2
	NPNVnetscapeWindow           NPNVariable = 3
	NPNVjavascriptEnabledBool    NPNVariable = 4
	NPNVasdEnabledBool           NPNVariable = 5
	NPNVisOfflineBool            NPNVariable = 6
	NPNVserviceManager           NPNVariable = 10
	NPNVDOMElement               NPNVariable = 11
	NPNVDOMWindow                NPNVariable = 12
	NPNVToolkit                  NPNVariable = 13
	NPNVSupportsXEmbedBool       NPNVariable = 14
	NPNVWindowNPObject           NPNVariable = 15
	NPNVPluginElementNPObject    NPNVariable = 16
	NPNVSupportsWindowless       NPNVariable = 17
	NPNVprivateModeBool          NPNVariable = 18
	NPNVsupportsAdvancedKeyHandl NPNVariable = 21
)

var npnVariableNames = map[NPNVariable]string{
	NPNVxDisplay:                 "NPNVxDisplay",
	NPNVxtAppContext:             "NPNVxtAppContext",
	NPNVnetscapeWindow:           "NPNVnetscapeWindow",
	NPNVjavascriptEnabledBool:    "NPNVjavascriptEnabledBool",
	NPNVasdEnabledBool:           "NPNVasdEnabledBool",
	NPNVisOfflineBool:            "NPNVisOfflineBool",
	NPNVserviceManager:           "NPNVserviceManager",
	NPNVDOMElement:               "NPNVDOMElement",
	NPNVDOMWindow:                "NPNVDOMWindow",
	NPNVToolkit:                  "NPNVToolkit",
	NPNVSupportsXEmbedBool:       "NPNVSupportsXEmbedBool",
	NPNVWindowNPObject:           "NPNVWindowNPObject",
	NPNVPluginElementNPObject:    "NPNVPluginElementNPObject",
	NPNVSupportsWindowless:       "NPNVSupportsWindowless",
	NPNVprivateModeBool:          "NPNVprivateModeBool",
	NPNVsupportsAdvancedKeyHandl: "NPNVsupportsAdvancedKeyHandling",
}

// String returns the npapi.h name, or "Unlisted value".
func (v NPNVariable) String() string {
	if name, ok := npnVariableNames[v]; ok {
		return name
	}
	return unlisted
}

// NPPVariable names a value the browser queries from the plugin.
type NPPVariable int32

// NPPVariable values.
const (
	NPPVpluginNameString               NPPVariable = 1
	NPPVpluginDescriptionString        NPPVariable = 2
	NPPVpluginWindowBool               NPPVariable = 3
	NPPVpluginTransparentBool          NPPVariable = 4
	NPPVjavaClass                      NPPVariable = 5
	NPPVpluginWindowSize               NPPVariable = 6
	NPPVpluginTimerInterval            NPPVariable = 7
	NPPVpluginScriptableInstance       NPPVariable = 10
	NPPVpluginScriptableIID            NPPVariable = 11
	NPPVjavascriptPushCallerBool       NPPVariable = 12
	NPPVpluginKeepLibraryInMemory      NPPVariable = 13
	NPPVpluginNeedsXEmbed              NPPVariable = 14
	NPPVpluginScriptableNPObject       NPPVariable = 15
	NPPVformValue                      NPPVariable = 16
	NPPVpluginUrlRequestsDisplayedBool NPPVariable = 17
	NPPVpluginWantsAllNetworkStreams   NPPVariable = 18
)

var nppVariableNames = map[NPPVariable]string{
	NPPVpluginNameString:               "NPPVpluginNameString",
	NPPVpluginDescriptionString:        "NPPVpluginDescriptionString",
	NPPVpluginWindowBool:               "NPPVpluginWindowBool",
	NPPVpluginTransparentBool:          "NPPVpluginTransparentBool",
	NPPVjavaClass:                      "NPPVjavaClass",
	NPPVpluginWindowSize:               "NPPVpluginWindowSize",
	NPPVpluginTimerInterval:            "NPPVpluginTimerInterval",
	NPPVpluginScriptableInstance:       "NPPVpluginScriptableInstance",
	NPPVpluginScriptableIID:            "NPPVpluginScriptableIID",
	NPPVjavascriptPushCallerBool:       "NPPVjavascriptPushCallerBool",
	NPPVpluginKeepLibraryInMemory:      "NPPVpluginKeepLibraryInMemory",
	NPPVpluginNeedsXEmbed:              "NPPVpluginNeedsXEmbed",
	NPPVpluginScriptableNPObject:       "NPPVpluginScriptableNPObject",
	NPPVformValue:                      "NPPVformValue",
	NPPVpluginUrlRequestsDisplayedBool: "NPPVpluginUrlRequestsDisplayedBool",
	NPPVpluginWantsAllNetworkStreams:   "NPPVpluginWantsAllNetworkStreams",
}

// String returns the npapi.h name, or "Unlisted value".
func (v NPPVariable) String() string {
	if name, ok := nppVariableNames[v]; ok {
		return name
	}
	return unlisted
}

// ParseNPNVariable resolves an npapi.h NPNVariable name.
func ParseNPNVariable(name string) (NPNVariable, bool) {
	for v, n := range npnVariableNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}

// ParseNPPVariable resolves an npapi.h NPPVariable name.
func ParseNPPVariable(name string) (NPPVariable, bool) {
	for v, n := range nppVariableNames {
		if n == name {
			return v, true
		}
	}
	return 0, false
}
