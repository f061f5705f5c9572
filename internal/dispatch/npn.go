// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/pkg/errutil"
	"github.com/holomush/npspy/pkg/npapi"
)

// minHostMinor is the host protocol minor version each gated call needs.
// Calls not listed are available at every version.
var minHostMinor = map[format.Action]uint8{
	format.ActionNPNNewStream:     npapi.VersHasStreamOutput,
	format.ActionNPNWrite:         npapi.VersHasStreamOutput,
	format.ActionNPNDestroyStream: npapi.VersHasStreamOutput,

	format.ActionNPNGetURLNotify:  npapi.VersHasNotification,
	format.ActionNPNPostURLNotify: npapi.VersHasNotification,
	format.ActionNPNGetJavaEnv:    npapi.VersHasLiveConnect,
	format.ActionNPNGetJavaPeer:   npapi.VersHasLiveConnect,

	format.ActionNPNGetStringIdentifier:  npapi.VersHasNPRuntimeScripting,
	format.ActionNPNGetStringIdentifiers: npapi.VersHasNPRuntimeScripting,
	format.ActionNPNGetIntIdentifier:     npapi.VersHasNPRuntimeScripting,
	format.ActionNPNIdentifierIsString:   npapi.VersHasNPRuntimeScripting,
	format.ActionNPNUTF8FromIdentifier:   npapi.VersHasNPRuntimeScripting,
	format.ActionNPNIntFromIdentifier:    npapi.VersHasNPRuntimeScripting,
	format.ActionNPNCreateObject:         npapi.VersHasNPRuntimeScripting,
	format.ActionNPNRetainObject:         npapi.VersHasNPRuntimeScripting,
	format.ActionNPNReleaseObject:        npapi.VersHasNPRuntimeScripting,
	format.ActionNPNInvoke:               npapi.VersHasNPRuntimeScripting,
	format.ActionNPNInvokeDefault:        npapi.VersHasNPRuntimeScripting,
	format.ActionNPNEvaluate:             npapi.VersHasNPRuntimeScripting,
	format.ActionNPNGetProperty:          npapi.VersHasNPRuntimeScripting,
	format.ActionNPNSetProperty:          npapi.VersHasNPRuntimeScripting,
	format.ActionNPNRemoveProperty:       npapi.VersHasNPRuntimeScripting,
	format.ActionNPNHasProperty:          npapi.VersHasNPRuntimeScripting,
	format.ActionNPNHasMethod:            npapi.VersHasNPRuntimeScripting,
	format.ActionNPNReleaseVariantValue:  npapi.VersHasNPRuntimeScripting,
	format.ActionNPNSetException:         npapi.VersHasNPRuntimeScripting,

	format.ActionNPNPushPopupsEnabledState: npapi.VersHasPopupsEnabledState,
	format.ActionNPNPopPopupsEnabledState:  npapi.VersHasPopupsEnabledState,
}

// MinHostMinor returns the host minor version a call needs, or 0 if ungated.
func MinHostMinor(a format.Action) uint8 {
	return minHostMinor[a]
}

// Version answers NPN_Version locally: the spy's own protocol version and the
// version of the captured host table.
func (d *Dispatcher) Version() (pluginMajor, pluginMinor, netscapeMajor, netscapeMinor int) {
	pluginMajor, pluginMinor = npapi.VersionMajor, npapi.VersionMinor
	if d.host != nil {
		major, minor := npapi.SplitVersion(d.host.Version)
		netscapeMajor, netscapeMinor = int(major), int(minor)
	}
	d.log.LogCall(format.ActionNPNVersion,
		format.Int(int64(pluginMajor)), format.Int(int64(pluginMinor)),
		format.Int(int64(netscapeMajor)), format.Int(int64(netscapeMinor)),
	)
	recordDispatch(format.ActionNPNVersion.Key(), StatusForwarded)
	return pluginMajor, pluginMinor, netscapeMajor, netscapeMinor
}

// upstream returns the captured host table if a may be forwarded to it.
func (d *Dispatcher) upstream(a format.Action) (*npapi.NetscapeFuncs, error) {
	if d.host == nil {
		return nil, ErrNotInitialized(a)
	}
	if need := minHostMinor[a]; need > 0 {
		if _, minor := npapi.SplitVersion(d.host.Version); minor < need {
			return nil, ErrUnsupportedHostVersion(a, minor, need)
		}
	}
	return d.host, nil
}

// npnDone logs and returns the host's result.
func npnDone[T any](d *Dispatcher, a format.Action, rv T) T {
	recordDispatch(a.Key(), StatusForwarded)
	d.log.LogReturn(a, rv)
	return rv
}

// npnFail logs and returns rv. NPError calls refused for the host version
// return IncompatibleVersionError instead.
func npnFail[T any](d *Dispatcher, a format.Action, err error, rv T) T {
	d.logDispatchError(a, err)
	recordDispatch(a.Key(), statusFor(err))
	if errutil.Code(err) == CodeUnsupportedHostVersion {
		if _, ok := any(rv).(npapi.NPError); ok {
			rv, _ = any(npapi.IncompatibleVersionError).(T)
		}
	}
	d.log.LogReturn(a, rv)
	return rv
}

// npnVoid records the outcome of a call with no result and reports whether
// it should be forwarded.
func npnVoid(d *Dispatcher, a format.Action, err error) bool {
	if err != nil {
		d.logDispatchError(a, err)
		recordDispatch(a.Key(), statusFor(err))
		return false
	}
	recordDispatch(a.Key(), StatusForwarded)
	return true
}

// hostThunks are the spy NPN calls handed to real plugins in place of the
// browser's own table.
type hostThunks struct {
	d *Dispatcher
}

func newHostThunks(d *Dispatcher) *hostThunks {
	return &hostThunks{d: d}
}

func (h *hostThunks) table(version uint16) *npapi.NetscapeFuncs {
	return &npapi.NetscapeFuncs{
		Version:          version,
		GetURL:           h.GetURL,
		PostURL:          h.PostURL,
		RequestRead:      h.RequestRead,
		NewStream:        h.NewStream,
		Write:            h.Write,
		DestroyStream:    h.DestroyStream,
		Status:           h.Status,
		UserAgent:        h.UserAgent,
		MemAlloc:         h.MemAlloc,
		MemFree:          h.MemFree,
		MemFlush:         h.MemFlush,
		ReloadPlugins:    h.ReloadPlugins,
		GetJavaEnv:       h.GetJavaEnv,
		GetJavaPeer:      h.GetJavaPeer,
		GetURLNotify:     h.GetURLNotify,
		PostURLNotify:    h.PostURLNotify,
		GetValue:         h.GetValue,
		SetValue:         h.SetValue,
		InvalidateRect:   h.InvalidateRect,
		InvalidateRegion: h.InvalidateRegion,
		ForceRedraw:      h.ForceRedraw,

		GetStringIdentifier:    h.GetStringIdentifier,
		GetStringIdentifiers:   h.GetStringIdentifiers,
		GetIntIdentifier:       h.GetIntIdentifier,
		IdentifierIsString:     h.IdentifierIsString,
		UTF8FromIdentifier:     h.UTF8FromIdentifier,
		IntFromIdentifier:      h.IntFromIdentifier,
		CreateObject:           h.CreateObject,
		RetainObject:           h.RetainObject,
		ReleaseObject:          h.ReleaseObject,
		Invoke:                 h.Invoke,
		InvokeDefault:          h.InvokeDefault,
		Evaluate:               h.Evaluate,
		GetProperty:            h.GetProperty,
		SetProperty:            h.SetProperty,
		RemoveProperty:         h.RemoveProperty,
		HasProperty:            h.HasProperty,
		HasMethod:              h.HasMethod,
		ReleaseVariantValue:    h.ReleaseVariantValue,
		SetException:           h.SetException,
		PushPopupsEnabledState: h.PushPopupsEnabledState,
		PopPopupsEnabledState:  h.PopPopupsEnabledState,
	}
}

func (h *hostThunks) GetURL(instance *npapi.NPP, url, target string) npapi.NPError {
	const a = format.ActionNPNGetURL
	h.d.log.LogCall(a, format.Instance(instance), format.String(url), format.String(target))
	host, err := h.d.upstream(a)
	if err == nil && host.GetURL == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.GetURL(instance, url, target))
}

func (h *hostThunks) PostURL(instance *npapi.NPP, url, target string, buf []byte, file bool) npapi.NPError {
	const a = format.ActionNPNPostURL
	h.d.log.LogCall(a, format.Instance(instance), format.String(url), format.String(target),
		format.Int(int64(len(buf))), format.Bytes(buf), format.Bool(file))
	host, err := h.d.upstream(a)
	if err == nil && host.PostURL == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.PostURL(instance, url, target, buf, file))
}

func (h *hostThunks) RequestRead(stream *npapi.Stream, rangeList *npapi.ByteRange) npapi.NPError {
	const a = format.ActionNPNRequestRead
	h.d.log.LogCall(a, format.Stream(stream), format.ByteRange(rangeList))
	host, err := h.d.upstream(a)
	if err == nil && host.RequestRead == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.RequestRead(stream, rangeList))
}

func (h *hostThunks) NewStream(instance *npapi.NPP, mimeType, target string, stream **npapi.Stream) npapi.NPError {
	const a = format.ActionNPNNewStream
	h.d.log.LogCall(a, format.Instance(instance), format.String(mimeType), format.String(target), format.Pointer(stream))
	host, err := h.d.upstream(a)
	if err == nil && host.NewStream == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.NewStream(instance, mimeType, target, stream))
}

func (h *hostThunks) Write(instance *npapi.NPP, stream *npapi.Stream, buf []byte) int32 {
	const a = format.ActionNPNWrite
	h.d.log.LogCall(a, format.Instance(instance), format.Stream(stream), format.Int(int64(len(buf))), format.Bytes(buf))
	host, err := h.d.upstream(a)
	if err == nil && host.Write == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, int32(-1))
	}
	return npnDone(h.d, a, host.Write(instance, stream, buf))
}

func (h *hostThunks) DestroyStream(instance *npapi.NPP, stream *npapi.Stream, reason npapi.NPReason) npapi.NPError {
	const a = format.ActionNPNDestroyStream
	h.d.log.LogCall(a, format.Instance(instance), format.Stream(stream), format.Reason(reason))
	host, err := h.d.upstream(a)
	if err == nil && host.DestroyStream == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.DestroyStream(instance, stream, reason))
}

func (h *hostThunks) Status(instance *npapi.NPP, message string) {
	const a = format.ActionNPNStatus
	h.d.log.LogCall(a, format.Instance(instance), format.String(message))
	host, err := h.d.upstream(a)
	if err == nil && host.Status == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.Status(instance, message)
	}
}

func (h *hostThunks) UserAgent(instance *npapi.NPP) string {
	const a = format.ActionNPNUserAgent
	h.d.log.LogCall(a, format.Instance(instance))
	host, err := h.d.upstream(a)
	if err == nil && host.UserAgent == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, "")
	}
	return npnDone(h.d, a, host.UserAgent(instance))
}

func (h *hostThunks) MemAlloc(size uint32) []byte {
	const a = format.ActionNPNMemAlloc
	h.d.log.LogCall(a, format.Uint(uint64(size)))
	host, err := h.d.upstream(a)
	if err == nil && host.MemAlloc == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail[[]byte](h.d, a, err, nil)
	}
	return npnDone(h.d, a, host.MemAlloc(size))
}

func (h *hostThunks) MemFree(ptr []byte) {
	const a = format.ActionNPNMemFree
	h.d.log.LogCall(a, format.Pointer(ptr))
	host, err := h.d.upstream(a)
	if err == nil && host.MemFree == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.MemFree(ptr)
	}
}

func (h *hostThunks) MemFlush(size uint32) uint32 {
	const a = format.ActionNPNMemFlush
	h.d.log.LogCall(a, format.Uint(uint64(size)))
	host, err := h.d.upstream(a)
	if err == nil && host.MemFlush == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, uint32(0))
	}
	return npnDone(h.d, a, host.MemFlush(size))
}

func (h *hostThunks) ReloadPlugins(reloadPages bool) {
	const a = format.ActionNPNReloadPlugins
	h.d.log.LogCall(a, format.Bool(reloadPages))
	host, err := h.d.upstream(a)
	if err == nil && host.ReloadPlugins == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.ReloadPlugins(reloadPages)
	}
}

func (h *hostThunks) GetJavaEnv() any {
	const a = format.ActionNPNGetJavaEnv
	h.d.log.LogCall(a)
	host, err := h.d.upstream(a)
	if err == nil && host.GetJavaEnv == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail[any](h.d, a, err, nil)
	}
	return npnDone(h.d, a, host.GetJavaEnv())
}

func (h *hostThunks) GetJavaPeer(instance *npapi.NPP) any {
	const a = format.ActionNPNGetJavaPeer
	h.d.log.LogCall(a, format.Instance(instance))
	host, err := h.d.upstream(a)
	if err == nil && host.GetJavaPeer == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail[any](h.d, a, err, nil)
	}
	return npnDone(h.d, a, host.GetJavaPeer(instance))
}

func (h *hostThunks) GetURLNotify(instance *npapi.NPP, url, target string, notifyData any) npapi.NPError {
	const a = format.ActionNPNGetURLNotify
	h.d.log.LogCall(a, format.Instance(instance), format.String(url), format.String(target), format.Pointer(notifyData))
	host, err := h.d.upstream(a)
	if err == nil && host.GetURLNotify == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.GetURLNotify(instance, url, target, notifyData))
}

func (h *hostThunks) PostURLNotify(instance *npapi.NPP, url, target string, buf []byte, file bool, notifyData any) npapi.NPError {
	const a = format.ActionNPNPostURLNotify
	h.d.log.LogCall(a, format.Instance(instance), format.String(url), format.String(target),
		format.Int(int64(len(buf))), format.Bytes(buf), format.Bool(file), format.Pointer(notifyData))
	host, err := h.d.upstream(a)
	if err == nil && host.PostURLNotify == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.PostURLNotify(instance, url, target, buf, file, notifyData))
}

func (h *hostThunks) GetValue(instance *npapi.NPP, variable npapi.NPNVariable, value any) npapi.NPError {
	const a = format.ActionNPNGetValue
	h.d.log.LogCall(a, format.Instance(instance), format.NPNVariable(variable), format.Pointer(value))
	host, err := h.d.upstream(a)
	if err == nil && host.GetValue == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.GetValue(instance, variable, value))
}

func (h *hostThunks) SetValue(instance *npapi.NPP, variable npapi.NPPVariable, value any) npapi.NPError {
	const a = format.ActionNPNSetValue
	h.d.log.LogCall(a, format.Instance(instance), format.NPPVariable(variable), format.Pointer(value))
	host, err := h.d.upstream(a)
	if err == nil && host.SetValue == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.GenericError)
	}
	return npnDone(h.d, a, host.SetValue(instance, variable, value))
}

func (h *hostThunks) InvalidateRect(instance *npapi.NPP, rect *npapi.Rect) {
	const a = format.ActionNPNInvalidateRect
	h.d.log.LogCall(a, format.Instance(instance), format.Rect(rect))
	host, err := h.d.upstream(a)
	if err == nil && host.InvalidateRect == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.InvalidateRect(instance, rect)
	}
}

func (h *hostThunks) InvalidateRegion(instance *npapi.NPP, region npapi.Region) {
	const a = format.ActionNPNInvalidateRegion
	h.d.log.LogCall(a, format.Instance(instance), format.Uint(uint64(region)))
	host, err := h.d.upstream(a)
	if err == nil && host.InvalidateRegion == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.InvalidateRegion(instance, region)
	}
}

func (h *hostThunks) ForceRedraw(instance *npapi.NPP) {
	const a = format.ActionNPNForceRedraw
	h.d.log.LogCall(a, format.Instance(instance))
	host, err := h.d.upstream(a)
	if err == nil && host.ForceRedraw == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.ForceRedraw(instance)
	}
}

func (h *hostThunks) GetStringIdentifier(name string) npapi.Identifier {
	const a = format.ActionNPNGetStringIdentifier
	h.d.log.LogCall(a, format.String(name))
	host, err := h.d.upstream(a)
	if err == nil && host.GetStringIdentifier == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.Identifier(0))
	}
	return npnDone(h.d, a, host.GetStringIdentifier(name))
}

func (h *hostThunks) GetStringIdentifiers(names []string, identifiers []npapi.Identifier) {
	const a = format.ActionNPNGetStringIdentifiers
	h.d.log.LogCall(a, format.StringList(names), format.Int(int64(len(names))), format.Pointer(identifiers))
	host, err := h.d.upstream(a)
	if err == nil && host.GetStringIdentifiers == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.GetStringIdentifiers(names, identifiers)
	}
}

func (h *hostThunks) GetIntIdentifier(intid int32) npapi.Identifier {
	const a = format.ActionNPNGetIntIdentifier
	h.d.log.LogCall(a, format.Int(int64(intid)))
	host, err := h.d.upstream(a)
	if err == nil && host.GetIntIdentifier == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, npapi.Identifier(0))
	}
	return npnDone(h.d, a, host.GetIntIdentifier(intid))
}

func (h *hostThunks) IdentifierIsString(identifier npapi.Identifier) bool {
	const a = format.ActionNPNIdentifierIsString
	h.d.log.LogCall(a, format.Identifier(identifier))
	host, err := h.d.upstream(a)
	if err == nil && host.IdentifierIsString == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.IdentifierIsString(identifier))
}

func (h *hostThunks) UTF8FromIdentifier(identifier npapi.Identifier) string {
	const a = format.ActionNPNUTF8FromIdentifier
	h.d.log.LogCall(a, format.Identifier(identifier))
	host, err := h.d.upstream(a)
	if err == nil && host.UTF8FromIdentifier == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, "")
	}
	return npnDone(h.d, a, host.UTF8FromIdentifier(identifier))
}

func (h *hostThunks) IntFromIdentifier(identifier npapi.Identifier) int32 {
	const a = format.ActionNPNIntFromIdentifier
	h.d.log.LogCall(a, format.Identifier(identifier))
	host, err := h.d.upstream(a)
	if err == nil && host.IntFromIdentifier == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, int32(0))
	}
	return npnDone(h.d, a, host.IntFromIdentifier(identifier))
}

func (h *hostThunks) CreateObject(instance *npapi.NPP, class *npapi.Class) *npapi.Object {
	const a = format.ActionNPNCreateObject
	h.d.log.LogCall(a, format.Instance(instance), format.Pointer(class))
	host, err := h.d.upstream(a)
	if err == nil && host.CreateObject == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail[*npapi.Object](h.d, a, err, nil)
	}
	return npnDone(h.d, a, host.CreateObject(instance, class))
}

func (h *hostThunks) RetainObject(obj *npapi.Object) *npapi.Object {
	const a = format.ActionNPNRetainObject
	h.d.log.LogCall(a, format.Object(obj))
	host, err := h.d.upstream(a)
	if err == nil && host.RetainObject == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail[*npapi.Object](h.d, a, err, nil)
	}
	return npnDone(h.d, a, host.RetainObject(obj))
}

func (h *hostThunks) ReleaseObject(obj *npapi.Object) {
	const a = format.ActionNPNReleaseObject
	h.d.log.LogCall(a, format.Object(obj))
	host, err := h.d.upstream(a)
	if err == nil && host.ReleaseObject == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.ReleaseObject(obj)
	}
}

func (h *hostThunks) Invoke(instance *npapi.NPP, obj *npapi.Object, method npapi.Identifier, args []npapi.Variant, result *npapi.Variant) bool {
	const a = format.ActionNPNInvoke
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(method),
		format.VariantList(args), format.Int(int64(len(args))), format.Pointer(result))
	host, err := h.d.upstream(a)
	if err == nil && host.Invoke == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.Invoke(instance, obj, method, args, result))
}

func (h *hostThunks) InvokeDefault(instance *npapi.NPP, obj *npapi.Object, args []npapi.Variant, result *npapi.Variant) bool {
	const a = format.ActionNPNInvokeDefault
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj),
		format.VariantList(args), format.Int(int64(len(args))), format.Pointer(result))
	host, err := h.d.upstream(a)
	if err == nil && host.InvokeDefault == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.InvokeDefault(instance, obj, args, result))
}

func (h *hostThunks) Evaluate(instance *npapi.NPP, obj *npapi.Object, script string, result *npapi.Variant) bool {
	const a = format.ActionNPNEvaluate
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.String(script), format.Pointer(result))
	host, err := h.d.upstream(a)
	if err == nil && host.Evaluate == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.Evaluate(instance, obj, script, result))
}

func (h *hostThunks) GetProperty(instance *npapi.NPP, obj *npapi.Object, name npapi.Identifier, result *npapi.Variant) bool {
	const a = format.ActionNPNGetProperty
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(name), format.Pointer(result))
	host, err := h.d.upstream(a)
	if err == nil && host.GetProperty == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.GetProperty(instance, obj, name, result))
}

func (h *hostThunks) SetProperty(instance *npapi.NPP, obj *npapi.Object, name npapi.Identifier, value *npapi.Variant) bool {
	const a = format.ActionNPNSetProperty
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(name), format.Variant(value))
	host, err := h.d.upstream(a)
	if err == nil && host.SetProperty == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.SetProperty(instance, obj, name, value))
}

func (h *hostThunks) RemoveProperty(instance *npapi.NPP, obj *npapi.Object, name npapi.Identifier) bool {
	const a = format.ActionNPNRemoveProperty
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(name))
	host, err := h.d.upstream(a)
	if err == nil && host.RemoveProperty == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.RemoveProperty(instance, obj, name))
}

func (h *hostThunks) HasProperty(instance *npapi.NPP, obj *npapi.Object, name npapi.Identifier) bool {
	const a = format.ActionNPNHasProperty
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(name))
	host, err := h.d.upstream(a)
	if err == nil && host.HasProperty == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.HasProperty(instance, obj, name))
}

func (h *hostThunks) HasMethod(instance *npapi.NPP, obj *npapi.Object, name npapi.Identifier) bool {
	const a = format.ActionNPNHasMethod
	h.d.log.LogCall(a, format.Instance(instance), format.Object(obj), format.Identifier(name))
	host, err := h.d.upstream(a)
	if err == nil && host.HasMethod == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return npnFail(h.d, a, err, false)
	}
	return npnDone(h.d, a, host.HasMethod(instance, obj, name))
}

func (h *hostThunks) ReleaseVariantValue(variant *npapi.Variant) {
	const a = format.ActionNPNReleaseVariantValue
	h.d.log.LogCall(a, format.Variant(variant))
	host, err := h.d.upstream(a)
	if err == nil && host.ReleaseVariantValue == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.ReleaseVariantValue(variant)
	}
}

func (h *hostThunks) SetException(obj *npapi.Object, message string) {
	const a = format.ActionNPNSetException
	h.d.log.LogCall(a, format.Object(obj), format.String(message))
	host, err := h.d.upstream(a)
	if err == nil && host.SetException == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.SetException(obj, message)
	}
}

func (h *hostThunks) PushPopupsEnabledState(instance *npapi.NPP, enabled bool) {
	const a = format.ActionNPNPushPopupsEnabledState
	h.d.log.LogCall(a, format.Instance(instance), format.Bool(enabled))
	host, err := h.d.upstream(a)
	if err == nil && host.PushPopupsEnabledState == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.PushPopupsEnabledState(instance, enabled)
	}
}

func (h *hostThunks) PopPopupsEnabledState(instance *npapi.NPP) {
	const a = format.ActionNPNPopPopupsEnabledState
	h.d.log.LogCall(a, format.Instance(instance))
	host, err := h.d.upstream(a)
	if err == nil && host.PopPopupsEnabledState == nil {
		err = ErrNotProvided(a)
	}
	if npnVoid(h.d, a, err) {
		host.PopPopupsEnabledState(instance)
	}
}
