// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package harness_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/npspy/internal/dispatch"
	"github.com/holomush/npspy/internal/harness"
	"github.com/holomush/npspy/internal/loader"
	"github.com/holomush/npspy/pkg/errutil"
	"github.com/holomush/npspy/pkg/npapi"
)

const testMIME = "application/x-npspy-test"

// stubModule is a minimal plugin that accepts everything.
type stubModule struct {
	newResult npapi.NPError
	host      *npapi.NetscapeFuncs
	calls     map[string]int
	written   int
}

func newStubModule() *stubModule {
	return &stubModule{calls: make(map[string]int)}
}

func (m *stubModule) GetEntryPoints(funcs *npapi.PluginFuncs) npapi.NPError {
	m.calls["NP_GetEntryPoints"]++
	*funcs = npapi.PluginFuncs{
		New: func(string, *npapi.NPP, uint16, []string, []string, *npapi.SavedData) npapi.NPError {
			m.calls["New"]++
			return m.newResult
		},
		Destroy: func(_ *npapi.NPP, save **npapi.SavedData) npapi.NPError {
			m.calls["Destroy"]++
			*save = &npapi.SavedData{Buf: []byte("bye")}
			return npapi.NoError
		},
		NewStream: func(inst *npapi.NPP, _ string, st *npapi.Stream, _ bool, _ *uint16) npapi.NPError {
			m.calls["NewStream"]++
			return m.host.GetURLNotify(inst, st.URL+"?done", "", nil)
		},
		WriteReady: func(*npapi.NPP, *npapi.Stream) int32 { return 100 },
		Write: func(_ *npapi.NPP, _ *npapi.Stream, _ int32, buf []byte) int32 {
			m.written += len(buf)
			return int32(len(buf))
		},
		DestroyStream: func(*npapi.NPP, *npapi.Stream, npapi.NPReason) npapi.NPError {
			m.calls["DestroyStream"]++
			return npapi.NoError
		},
		URLNotify: func(*npapi.NPP, string, npapi.NPReason, any) { m.calls["URLNotify"]++ },
	}
	return npapi.NoError
}

func (m *stubModule) Initialize(host *npapi.NetscapeFuncs) npapi.NPError {
	m.calls["NP_Initialize"]++
	m.host = host
	return npapi.NoError
}

func (m *stubModule) Shutdown() npapi.NPError {
	m.calls["NP_Shutdown"]++
	return npapi.NoError
}

func TestNewSession_NilModule(t *testing.T) {
	_, err := harness.NewSession(nil, nil)
	errutil.AssertErrorCode(t, err, harness.CodeNilModule)
}

func TestSession_StateErrors(t *testing.T) {
	s, err := harness.NewSession(newStubModule(), nil)
	require.NoError(t, err)

	_, err = s.Run(context.Background(), harness.Script{MIMEType: testMIME, Instances: 1})
	errutil.AssertErrorCode(t, err, harness.CodeSessionState)
	errutil.AssertErrorCode(t, s.Close(), harness.CodeSessionState)

	require.NoError(t, s.Start())
	errutil.AssertErrorCode(t, s.Start(), harness.CodeSessionState)
}

func TestSession_InvalidScript(t *testing.T) {
	s, err := harness.NewSession(newStubModule(), nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	for _, script := range []harness.Script{
		{Instances: 1},
		{MIMEType: testMIME},
		{MIMEType: testMIME, Instances: 1, Iterations: -1},
	} {
		_, err := s.Run(context.Background(), script)
		errutil.AssertErrorCode(t, err, harness.CodeInvalidScript)
	}
}

func TestSession_RunStub(t *testing.T) {
	m := newStubModule()
	s, err := harness.NewSession(m, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	report, err := s.Run(context.Background(), harness.Script{
		MIMEType:   testMIME,
		Instances:  2,
		Iterations: 3,
		Payload:    make([]byte, 250),
	})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Equal(t, 2, report.Created())
	assert.Equal(t, int64(1500), report.BytesWritten())
	assert.Equal(t, 1500, m.written)
	assert.Equal(t, 6, m.calls["NewStream"])
	assert.Equal(t, 6, m.calls["DestroyStream"])
	assert.Equal(t, 6, m.calls["URLNotify"])
	assert.Equal(t, 2, m.calls["Destroy"])
	assert.Equal(t, 1, m.calls["NP_Shutdown"])

	for _, ir := range report.Instances {
		assert.NotEqual(t, ulid.ULID{}, ir.ID)
		assert.Equal(t, 3, ir.Streams)
		assert.Equal(t, 3, ir.Notified)
		assert.Equal(t, []byte("bye"), ir.Saved)
	}
	assert.NotEqual(t, report.Instances[0].ID, report.Instances[1].ID)
}

func TestSession_RefusedInstanceIsReported(t *testing.T) {
	m := newStubModule()
	m.newResult = npapi.OutOfMemoryError
	s, err := harness.NewSession(m, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	report, err := s.Run(context.Background(), harness.Script{MIMEType: testMIME, Instances: 2, Iterations: 1})
	require.NoError(t, err)

	assert.Zero(t, report.Created())
	require.Len(t, report.Instances, 2)
	assert.Equal(t, npapi.OutOfMemoryError, report.Instances[0].NewResult)
	assert.Zero(t, m.calls["NewStream"])
	assert.Zero(t, m.calls["Destroy"])
}

func TestSession_CancelledContext(t *testing.T) {
	m := newStubModule()
	s, err := harness.NewSession(m, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Run(ctx, harness.Script{MIMEType: testMIME, Instances: 1, Iterations: 1})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, m.calls["New"])
}

func TestSession_OldHostMinorAccepted(t *testing.T) {
	d, err := dispatch.NewDispatcher(loader.NewDirectory(t.TempDir()))
	require.NoError(t, err)
	s, err := harness.NewSession(d, harness.NewHost(harness.WithMinorVersion(0)))
	require.NoError(t, err)
	require.NoError(t, s.Start(), "minor versions below the spy's are accepted")
	require.NoError(t, s.Close())
}

// TestSession_DispatcherWithLuaPlugin runs the shipped test plugin behind the
// dispatcher, the same stack cmd/npspy uses.
func TestSession_DispatcherWithLuaPlugin(t *testing.T) {
	dir := loader.NewDirectory(filepath.Join("..", "..", "plugins"))
	d, err := dispatch.NewDispatcher(dir)
	require.NoError(t, err)

	host := harness.NewHost()
	s, err := harness.NewSession(d, host)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	report, err := s.Run(context.Background(), harness.Script{MIMEType: testMIME, Instances: 1, Iterations: 2})
	require.NoError(t, err)
	require.Len(t, report.Instances, 1)

	ir := report.Instances[0]
	assert.Equal(t, npapi.NoError, ir.NewResult)
	assert.Equal(t, int64(8192), ir.BytesWritten)
	assert.Equal(t, 2, ir.Notified)
	assert.Equal(t, "npspy test plugin", ir.PluginName)
	assert.Equal(t, "8192", string(ir.Saved))

	assert.Contains(t, host.Statuses(), "test-plugin loaded for "+testMIME)
	assert.Contains(t, host.Statuses(), "received 8192 bytes from http://localhost/npspy/data.bin")
	assert.Len(t, host.Requests(), 2)

	require.NoError(t, s.Close())
	assert.False(t, d.Initialized())
}

func TestSession_UnknownMIMETypeIsRefused(t *testing.T) {
	d, err := dispatch.NewDispatcher(loader.NewDirectory(filepath.Join("..", "..", "plugins")))
	require.NoError(t, err)
	s, err := harness.NewSession(d, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	report, err := s.Run(context.Background(), harness.Script{MIMEType: "video/x-unknown", Instances: 1})
	require.NoError(t, err)
	assert.Equal(t, npapi.GenericError, report.Instances[0].NewResult)
	require.NoError(t, s.Close())
}
