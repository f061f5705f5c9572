// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/npspy/internal/loader"
	"github.com/holomush/npspy/pkg/errutil"
	"github.com/holomush/npspy/pkg/npapi"
)

// writePlugin creates <root>/<name>/plugin.yaml and main.lua.
func writePlugin(t *testing.T, root, name, mimeTypes, code string) {
	t.Helper()
	dir := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	manifest := fmt.Sprintf("name: %s\nversion: 1.0.0\nmime-types: %s\nentry: main.lua\n", name, mimeTypes)
	require.NoError(t, os.WriteFile(filepath.Join(dir, loader.ManifestFile), []byte(manifest), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(code), 0o600))
}

// fakeHost records what Lua plugins ask of the browser.
type fakeHost struct {
	statuses []string
	urls     []string
	rects    []npapi.Rect
	redraws  int
	freed    int
	reloads  []bool
}

func (h *fakeHost) table() *npapi.NetscapeFuncs {
	return &npapi.NetscapeFuncs{
		Version:   npapi.Version(0, npapi.VersionMinor),
		Status:    func(_ *npapi.NPP, msg string) { h.statuses = append(h.statuses, msg) },
		UserAgent: func(*npapi.NPP) string { return "FakeBrowser/1.0" },
		GetURL: func(_ *npapi.NPP, url, _ string) npapi.NPError {
			h.urls = append(h.urls, url)
			return npapi.NoError
		},
		GetURLNotify: func(_ *npapi.NPP, url, _ string, _ any) npapi.NPError {
			h.urls = append(h.urls, url)
			return npapi.NoError
		},
		MemAlloc: func(size uint32) []byte { return make([]byte, size) },
		MemFree:  func([]byte) { h.freed++ },
		MemFlush: func(uint32) uint32 { return 0 },
		InvalidateRect: func(_ *npapi.NPP, r *npapi.Rect) {
			h.rects = append(h.rects, *r)
		},
		ForceRedraw:   func(*npapi.NPP) { h.redraws++ },
		ReloadPlugins: func(reloadPages bool) { h.reloads = append(h.reloads, reloadPages) },
		GetValue: func(_ *npapi.NPP, v npapi.NPNVariable, value any) npapi.NPError {
			if v != npapi.NPNVjavascriptEnabledBool {
				return npapi.GenericError
			}
			*value.(*any) = true
			return npapi.NoError
		},
	}
}

type module struct {
	funcs    npapi.PluginFuncs
	shutdown npapi.ShutdownFunc
	lib      any
}

// openModule loads the plugin for mime and runs NP_GetEntryPoints and
// NP_Initialize the way the dispatcher does.
func openModule(t *testing.T, d *loader.Directory, mime string, host *npapi.NetscapeFuncs) *module {
	t.Helper()
	lib, err := d.FindPluginForMimeType(mime)
	require.NoError(t, err)

	m := &module{lib: lib}
	sym, err := d.ResolveSymbol(lib, npapi.SymbolGetEntryPoints)
	require.NoError(t, err)
	require.Equal(t, npapi.NoError, sym.(npapi.GetEntryPointsFunc)(&m.funcs))

	sym, err = d.ResolveSymbol(lib, npapi.SymbolInitialize)
	require.NoError(t, err)
	require.Equal(t, npapi.NoError, sym.(npapi.InitializeFunc)(host))

	sym, err = d.ResolveSymbol(lib, npapi.SymbolShutdown)
	require.NoError(t, err)
	m.shutdown = sym.(npapi.ShutdownFunc)
	return m
}

func TestDirectory_Discover(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "zeta", "[application/x-zeta]", "")
	writePlugin(t, root, "alpha", "[application/x-alpha]", "")

	bad := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(bad, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(bad, loader.ManifestFile), []byte("name: Broken\n"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "no-manifest"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o600))

	plugins, err := loader.NewDirectory(root).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "alpha", plugins[0].Manifest.Name)
	assert.Equal(t, "zeta", plugins[1].Manifest.Name)
	assert.Equal(t, filepath.Join(root, "alpha"), plugins[0].Dir)
}

func TestDirectory_DiscoverMissingDir(t *testing.T) {
	plugins, err := loader.NewDirectory(filepath.Join(t.TempDir(), "absent")).Discover(context.Background())
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestDirectory_ShippedPlugins(t *testing.T) {
	d := loader.NewDirectory(filepath.Join("..", "..", "plugins"))
	plugins, err := d.Discover(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, plugins)
	assert.Equal(t, "test-plugin", plugins[0].Manifest.Name)
	assert.True(t, plugins[0].Matches("application/x-npspy-test"))
}

func TestPlugin_MatchesCaseInsensitiveGlobs(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "flash", "[application/x-shockwave-*, video/flv]", "")

	plugins, err := loader.NewDirectory(root).Discover(context.Background())
	require.NoError(t, err)
	require.Len(t, plugins, 1)

	p := plugins[0]
	assert.True(t, p.Matches("application/x-shockwave-flash"))
	assert.True(t, p.Matches("Application/X-Shockwave-Flash"))
	assert.True(t, p.Matches("VIDEO/FLV"))
	assert.False(t, p.Matches("video/mp4"))
}

func TestDirectory_FindPluginForMimeType(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "alpha", "[application/x-*]", "")
	writePlugin(t, root, "beta", "[application/x-beta]", "")
	d := loader.NewDirectory(root)

	lib, err := d.FindPluginForMimeType("application/x-beta")
	require.NoError(t, err)
	require.IsType(t, &loader.Library{}, lib)
	assert.Equal(t, "alpha", lib.(*loader.Library).Name(), "first plugin by name wins")
	require.NoError(t, d.Unload(lib))

	_, err = d.FindPluginForMimeType("text/html")
	errutil.AssertErrorCode(t, err, loader.CodeNoPlugin)
}

func TestDirectory_FindPluginForMimeType_SyntaxError(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "broken", "[application/x-broken]", "function npp_new(")

	_, err := loader.NewDirectory(root).FindPluginForMimeType("application/x-broken")
	errutil.AssertErrorCode(t, err, loader.CodeLuaError)
}

func TestDirectory_ResolveSymbol(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "alpha", "[application/x-alpha]", "")
	d := loader.NewDirectory(root)
	lib, err := d.FindPluginForMimeType("application/x-alpha")
	require.NoError(t, err)

	sym, err := d.ResolveSymbol(lib, npapi.SymbolGetEntryPoints)
	require.NoError(t, err)
	assert.IsType(t, npapi.GetEntryPointsFunc(nil), sym)

	sym, err = d.ResolveSymbol(lib, npapi.SymbolInitialize)
	require.NoError(t, err)
	assert.IsType(t, npapi.InitializeFunc(nil), sym)

	sym, err = d.ResolveSymbol(lib, npapi.SymbolShutdown)
	require.NoError(t, err)
	assert.IsType(t, npapi.ShutdownFunc(nil), sym)

	_, err = d.ResolveSymbol(lib, "NP_GetMIMEDescription")
	errutil.AssertErrorCode(t, err, loader.CodeUnknownSymbol)

	_, err = d.ResolveSymbol("not a library", npapi.SymbolInitialize)
	errutil.AssertErrorCode(t, err, loader.CodeNotLibrary)

	require.NoError(t, d.Unload(lib))
	errutil.AssertErrorCode(t, d.Unload(lib), loader.CodeUnloaded)
	_, err = d.ResolveSymbol(lib, npapi.SymbolInitialize)
	errutil.AssertErrorCode(t, err, loader.CodeUnloaded)
}

func TestLibrary_InitializeRejectsNilHost(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "alpha", "[application/x-alpha]", "")
	d := loader.NewDirectory(root)
	lib, err := d.FindPluginForMimeType("application/x-alpha")
	require.NoError(t, err)

	sym, err := d.ResolveSymbol(lib, npapi.SymbolInitialize)
	require.NoError(t, err)
	assert.Equal(t, npapi.InvalidFuncTableError, sym.(npapi.InitializeFunc)(nil))

	sym, err = d.ResolveSymbol(lib, npapi.SymbolGetEntryPoints)
	require.NoError(t, err)
	assert.Equal(t, npapi.InvalidFuncTableError, sym.(npapi.GetEntryPointsFunc)(nil))
}

func TestLibrary_InitializeFailure(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "alpha", "[application/x-alpha]", `function np_initialize() return 4 end`)
	d := loader.NewDirectory(root)
	lib, err := d.FindPluginForMimeType("application/x-alpha")
	require.NoError(t, err)

	sym, err := d.ResolveSymbol(lib, npapi.SymbolInitialize)
	require.NoError(t, err)
	host := &fakeHost{}
	assert.Equal(t, npapi.ModuleLoadFailedError, sym.(npapi.InitializeFunc)(host.table()))
}

func TestLibrary_ShippedPluginConversation(t *testing.T) {
	host := &fakeHost{}
	d := loader.NewDirectory(filepath.Join("..", "..", "plugins"))
	m := openModule(t, d, "application/x-npspy-test", host.table())
	funcs := m.funcs

	assert.Equal(t, npapi.Version(npapi.VersionMajor, npapi.VersionMinor), funcs.Version)

	inst := &npapi.NPP{}
	require.Equal(t, npapi.NoError, funcs.New("application/x-npspy-test", inst, npapi.ModeEmbed,
		[]string{"src"}, []string{"movie.swf"}, nil))
	assert.Equal(t, []string{"test-plugin loaded for application/x-npspy-test"}, host.statuses)

	require.Equal(t, npapi.NoError, funcs.SetWindow(inst, &npapi.Window{Width: 320, Height: 240}))
	assert.Equal(t, []npapi.Rect{{Bottom: 240, Right: 320}}, host.rects)

	stream := &npapi.Stream{URL: "http://example.com/movie.swf", End: 10}
	var stype uint16
	require.Equal(t, npapi.NoError, funcs.NewStream(inst, "application/x-npspy-test", stream, false, &stype))
	assert.Equal(t, npapi.StreamNormal, stype)

	assert.Equal(t, int32(4096), funcs.WriteReady(inst, stream))
	assert.Equal(t, int32(6), funcs.Write(inst, stream, 0, []byte("abcdef")))
	assert.Equal(t, int32(4), funcs.Write(inst, stream, 6, []byte("ghij")))

	require.Equal(t, npapi.NoError, funcs.DestroyStream(inst, stream, npapi.ReasonDone))
	assert.Equal(t, "received 10 bytes from http://example.com/movie.swf", host.statuses[1])
	assert.Equal(t, []string{"http://example.com/movie.swf#done"}, host.urls)

	funcs.URLNotify(inst, "http://example.com/movie.swf#done", npapi.ReasonDone, "done")
	assert.Equal(t, 1, host.redraws)

	assert.Equal(t, int16(1), funcs.HandleEvent(inst, &npapi.Event{Event: 4}))
	funcs.Print(inst, &npapi.Print{Mode: npapi.ModeFull, Full: &npapi.FullPrint{}})

	var name string
	require.Equal(t, npapi.NoError, funcs.GetValue(inst, npapi.NPPVpluginNameString, &name))
	assert.Equal(t, "npspy test plugin", name)
	var windowed bool
	require.Equal(t, npapi.NoError, funcs.GetValue(inst, npapi.NPPVpluginWindowBool, &windowed))
	assert.True(t, windowed)
	var wrongType int32
	assert.Equal(t, npapi.InvalidParam, funcs.GetValue(inst, npapi.NPPVpluginNameString, &wrongType))
	assert.Equal(t, npapi.GenericError, funcs.GetValue(inst, npapi.NPPVjavaClass, nil))

	muted := true
	assert.Equal(t, npapi.NoError, funcs.SetValue(inst, npapi.NPNVisOfflineBool, &muted))

	var saved *npapi.SavedData
	require.Equal(t, npapi.NoError, funcs.Destroy(inst, &saved))
	require.NotNil(t, saved)
	assert.Equal(t, "10", string(saved.Buf))

	// A second destroy of the same instance is unknown to the plugin.
	assert.Equal(t, npapi.InvalidInstanceError, funcs.Destroy(inst, nil))

	assert.Equal(t, npapi.NoError, m.shutdown())
	require.NoError(t, d.Unload(m.lib))
}

func TestLibrary_SavedDataRestoresState(t *testing.T) {
	host := &fakeHost{}
	d := loader.NewDirectory(filepath.Join("..", "..", "plugins"))
	m := openModule(t, d, "application/x-npspy-test-extra", host.table())

	inst := &npapi.NPP{}
	require.Equal(t, npapi.NoError, m.funcs.New("application/x-npspy-test-extra", inst, npapi.ModeFull,
		nil, nil, &npapi.SavedData{Buf: []byte("7")}))
	m.funcs.Write(inst, &npapi.Stream{}, 0, []byte("abc"))

	var saved *npapi.SavedData
	require.Equal(t, npapi.NoError, m.funcs.Destroy(inst, &saved))
	assert.Equal(t, "10", string(saved.Buf))
}

func TestLibrary_MissingCallbacksReturnNeutralValues(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "empty", "[application/x-empty]", "-- no callbacks")
	m := openModule(t, loader.NewDirectory(root), "application/x-empty", (&fakeHost{}).table())
	funcs := m.funcs

	inst := &npapi.NPP{}
	stream := &npapi.Stream{URL: "u"}
	assert.Equal(t, npapi.NoError, funcs.New("application/x-empty", inst, npapi.ModeEmbed, nil, nil, nil))
	assert.Equal(t, npapi.NoError, funcs.SetWindow(inst, nil))
	assert.Equal(t, npapi.NoError, funcs.NewStream(inst, "text/plain", stream, true, nil))
	assert.Equal(t, npapi.MaxReady, funcs.WriteReady(inst, stream))
	assert.Equal(t, int32(3), funcs.Write(inst, stream, 0, []byte("abc")))
	assert.Equal(t, int16(0), funcs.HandleEvent(inst, nil))
	assert.Equal(t, npapi.GenericError, funcs.GetValue(inst, npapi.NPPVpluginNameString, nil))
	assert.Equal(t, npapi.NoError, funcs.SetValue(inst, npapi.NPNVisOfflineBool, true))
	assert.Equal(t, npapi.NoError, funcs.DestroyStream(inst, stream, npapi.ReasonDone))
	assert.Equal(t, npapi.NoError, funcs.Destroy(inst, nil))
	assert.Equal(t, npapi.NoError, m.shutdown())
}

func TestLibrary_LuaErrorsBecomeFailureValues(t *testing.T) {
	code := `
function npp_new() error("boom") end
function npp_write() error("boom") end
function npp_write_ready() error("boom") end
function npp_handle_event() error("boom") end
`
	root := t.TempDir()
	writePlugin(t, root, "faulty", "[application/x-faulty]", code)
	m := openModule(t, loader.NewDirectory(root), "application/x-faulty", (&fakeHost{}).table())

	inst := &npapi.NPP{}
	assert.Equal(t, npapi.GenericError, m.funcs.New("application/x-faulty", inst, npapi.ModeEmbed, nil, nil, nil))
	assert.Equal(t, int32(-1), m.funcs.Write(inst, nil, 0, []byte("x")))
	assert.Equal(t, int32(0), m.funcs.WriteReady(inst, nil))
	assert.Equal(t, int16(0), m.funcs.HandleEvent(inst, nil))
}

func TestLibrary_NPNTable(t *testing.T) {
	code := `
function npp_new(inst)
    local block = npn.mem_alloc(16)
    npn.mem_free(block)
    local flushed = npn.mem_flush(64)
    local url_err = npn.get_url(inst, "http://example.com/", "_blank")
    local err, js = npn.get_value(inst, "NPNVjavascriptEnabledBool")
    local missing_err = npn.get_value(inst, "NPNVisOfflineBool")
    npn.reload_plugins(true)
    npn.log("info", "hello")
    npn.status(inst, string.format("%d %d %d %s %d", flushed, url_err, err, tostring(js), missing_err))
    return 0
end
`
	root := t.TempDir()
	writePlugin(t, root, "npn", "[application/x-npn]", code)
	host := &fakeHost{}
	m := openModule(t, loader.NewDirectory(root), "application/x-npn", host.table())

	require.Equal(t, npapi.NoError, m.funcs.New("application/x-npn", &npapi.NPP{}, npapi.ModeEmbed, nil, nil, nil))
	assert.Equal(t, 1, host.freed)
	assert.Equal(t, []string{"http://example.com/"}, host.urls)
	assert.Equal(t, []bool{true}, host.reloads)
	assert.Equal(t, []string{"0 0 0 true 1"}, host.statuses)
}

func TestLibrary_NPNUnknownVariableFails(t *testing.T) {
	code := `
function npp_new(inst)
    npn.get_value(inst, "NPNVnope")
    return 0
end
`
	root := t.TempDir()
	writePlugin(t, root, "unknown", "[application/x-unknown]", code)
	m := openModule(t, loader.NewDirectory(root), "application/x-unknown", (&fakeHost{}).table())

	assert.Equal(t, npapi.GenericError, m.funcs.New("application/x-unknown", &npapi.NPP{}, npapi.ModeEmbed, nil, nil, nil))
}

func TestLibrary_NPNOutsideInitializeFails(t *testing.T) {
	code := `
function npp_new(inst)
    npn.status(inst, "too late")
    return 0
end
`
	root := t.TempDir()
	writePlugin(t, root, "late", "[application/x-late]", code)
	host := &fakeHost{}
	m := openModule(t, loader.NewDirectory(root), "application/x-late", host.table())
	require.Equal(t, npapi.NoError, m.shutdown())

	assert.Equal(t, npapi.GenericError, m.funcs.New("application/x-late", &npapi.NPP{}, npapi.ModeEmbed, nil, nil, nil))
	assert.Empty(t, host.statuses)
}

func TestLibrary_NPNMissingHostFunctionFails(t *testing.T) {
	code := `
function npp_new(inst)
    npn.force_redraw(inst)
    return 0
end
`
	root := t.TempDir()
	writePlugin(t, root, "redraw", "[application/x-redraw]", code)
	table := (&fakeHost{}).table()
	table.ForceRedraw = nil
	m := openModule(t, loader.NewDirectory(root), "application/x-redraw", table)

	assert.Equal(t, npapi.GenericError, m.funcs.New("application/x-redraw", &npapi.NPP{}, npapi.ModeEmbed, nil, nil, nil))
}

func TestLibrary_CallsAfterUnloadFail(t *testing.T) {
	root := t.TempDir()
	writePlugin(t, root, "gone", "[application/x-gone]", "function npp_new() return 0 end")
	d := loader.NewDirectory(root)
	m := openModule(t, d, "application/x-gone", (&fakeHost{}).table())
	require.NoError(t, d.Unload(m.lib))

	assert.Equal(t, npapi.GenericError, m.funcs.New("application/x-gone", &npapi.NPP{}, npapi.ModeEmbed, nil, nil, nil))
}
