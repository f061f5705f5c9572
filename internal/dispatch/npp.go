// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package dispatch

import (
	"go.opentelemetry.io/otel/attribute"

	"github.com/holomush/npspy/internal/format"
	"github.com/holomush/npspy/internal/registry"
	"github.com/holomush/npspy/pkg/npapi"
)

// New creates a plugin instance. The first instance of a MIME type loads,
// initializes and registers the real plugin. A failed real NPP_New leaves
// the plugin registered but unbinds the instance.
func (d *Dispatcher) New(mimeType string, instance *npapi.NPP, mode uint16, argn, argv []string, saved *npapi.SavedData) npapi.NPError {
	const a = format.ActionNPPNew
	d.log.LogCall(a,
		format.String(mimeType), format.Instance(instance), format.Uint(uint64(mode)), format.Int(int64(len(argn))),
		format.StringList(argn), format.StringList(argv), format.SavedData(saved),
	)
	s := d.begin(a, attribute.String("mime_type", registry.NormalizeMIMEType(mimeType)))

	var entry *registry.Entry
	var err error
	if d.registry == nil {
		err = ErrNotInitialized(a)
	} else if existing, ok := d.registry.Lookup(mimeType); ok {
		entry = existing
	} else {
		entry, err = d.load(mimeType)
	}
	if err == nil && entry.Table().New == nil {
		err = ErrNotProvided(a)
	}
	if err == nil {
		err = d.registry.Bind(mimeType, instance)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}

	rv := entry.Table().New(mimeType, instance, mode, argn, argv, saved)
	if rv != npapi.NoError {
		d.registry.Retire(instance)
	}
	d.updateGauges()
	return forwarded(s, rv)
}

// Destroy destroys an instance. The real NPP_Destroy always runs; when the
// instance was its plugin's last one, the plugin is then retired or, with
// ShutdownAfterLastInstance, shut down and unloaded.
func (d *Dispatcher) Destroy(instance *npapi.NPP, save **npapi.SavedData) npapi.NPError {
	const a = format.ActionNPPDestroy
	d.log.LogCall(a, format.Instance(instance), format.Pointer(save))
	s := d.begin(a)
	t, err := s.route(instance)
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}

	wasLast, _ := d.registry.UnbindIfNotLast(instance)
	rv := npapi.NoError
	if t.Destroy != nil {
		rv = t.Destroy(instance, save)
	}
	if wasLast {
		d.finishLast(instance)
	}
	d.updateGauges()
	return forwarded(s, rv)
}

// SetWindow forwards NPP_SetWindow.
func (d *Dispatcher) SetWindow(instance *npapi.NPP, window *npapi.Window) npapi.NPError {
	const a = format.ActionNPPSetWindow
	d.log.LogCall(a, format.Instance(instance), format.Window(window))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.SetWindow == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}
	return forwarded(s, t.SetWindow(instance, window))
}

// NewStream forwards NPP_NewStream.
func (d *Dispatcher) NewStream(instance *npapi.NPP, mimeType string, stream *npapi.Stream, seekable bool, stype *uint16) npapi.NPError {
	const a = format.ActionNPPNewStream
	d.log.LogCall(a, format.Instance(instance), format.String(mimeType), format.Stream(stream), format.Bool(seekable), format.Pointer(stype))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.NewStream == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}
	return forwarded(s, t.NewStream(instance, mimeType, stream, seekable, stype))
}

// DestroyStream forwards NPP_DestroyStream.
func (d *Dispatcher) DestroyStream(instance *npapi.NPP, stream *npapi.Stream, reason npapi.NPReason) npapi.NPError {
	const a = format.ActionNPPDestroyStream
	d.log.LogCall(a, format.Instance(instance), format.Stream(stream), format.Reason(reason))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.DestroyStream == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}
	return forwarded(s, t.DestroyStream(instance, stream, reason))
}

// StreamAsFile forwards NPP_StreamAsFile.
func (d *Dispatcher) StreamAsFile(instance *npapi.NPP, stream *npapi.Stream, fname string) {
	const a = format.ActionNPPStreamAsFile
	d.log.LogCall(a, format.Instance(instance), format.Stream(stream), format.String(fname))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.StreamAsFile == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		s.end(err)
		return
	}
	t.StreamAsFile(instance, stream, fname)
	s.end(nil)
}

// WriteReady forwards NPP_WriteReady. Unrouted calls accept no data.
func (d *Dispatcher) WriteReady(instance *npapi.NPP, stream *npapi.Stream) int32 {
	const a = format.ActionNPPWriteReady
	d.log.LogCall(a, format.Instance(instance), format.Stream(stream))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.WriteReady == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, int32(0))
	}
	return forwarded(s, t.WriteReady(instance, stream))
}

// Write forwards NPP_Write. Unrouted calls return -1, which makes the
// browser destroy the stream.
func (d *Dispatcher) Write(instance *npapi.NPP, stream *npapi.Stream, offset int32, buf []byte) int32 {
	const a = format.ActionNPPWrite
	d.log.LogCall(a, format.Instance(instance), format.Stream(stream), format.Int(int64(offset)), format.Int(int64(len(buf))), format.Bytes(buf))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.Write == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, int32(-1))
	}
	return forwarded(s, t.Write(instance, stream, offset, buf))
}

// Print forwards NPP_Print.
func (d *Dispatcher) Print(instance *npapi.NPP, platformPrint *npapi.Print) {
	const a = format.ActionNPPPrint
	d.log.LogCall(a, format.Instance(instance), format.Print(platformPrint))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.Print == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		s.end(err)
		return
	}
	t.Print(instance, platformPrint)
	s.end(nil)
}

// HandleEvent forwards NPP_HandleEvent. Unrouted events are not handled.
func (d *Dispatcher) HandleEvent(instance *npapi.NPP, event *npapi.Event) int16 {
	const a = format.ActionNPPHandleEvent
	d.log.LogCall(a, format.Instance(instance), format.Event(event))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.HandleEvent == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, int16(0))
	}
	return forwarded(s, t.HandleEvent(instance, event))
}

// URLNotify forwards NPP_URLNotify.
func (d *Dispatcher) URLNotify(instance *npapi.NPP, url string, reason npapi.NPReason, notifyData any) {
	const a = format.ActionNPPURLNotify
	d.log.LogCall(a, format.Instance(instance), format.String(url), format.Reason(reason), format.Pointer(notifyData))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.URLNotify == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		s.end(err)
		return
	}
	t.URLNotify(instance, url, reason, notifyData)
	s.end(nil)
}

// GetValue forwards NPP_GetValue.
func (d *Dispatcher) GetValue(instance *npapi.NPP, variable npapi.NPPVariable, value any) npapi.NPError {
	const a = format.ActionNPPGetValue
	d.log.LogCall(a, format.Instance(instance), format.NPPVariable(variable), format.Pointer(value))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.GetValue == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}
	return forwarded(s, t.GetValue(instance, variable, value))
}

// SetValue forwards NPP_SetValue.
func (d *Dispatcher) SetValue(instance *npapi.NPP, variable npapi.NPNVariable, value any) npapi.NPError {
	const a = format.ActionNPPSetValue
	d.log.LogCall(a, format.Instance(instance), format.NPNVariable(variable), format.Pointer(value))
	s := d.begin(a)
	t, err := s.route(instance)
	if err == nil && t.SetValue == nil {
		err = ErrNotProvided(a)
	}
	if err != nil {
		return failed(s, err, npapi.GenericError)
	}
	return forwarded(s, t.SetValue(instance, variable, value))
}
