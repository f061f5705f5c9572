// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"

	"github.com/holomush/npspy/internal/dispatch"
	"github.com/holomush/npspy/pkg/npapi"
)

// Compile-time interface check.
var _ dispatch.Loader = (*Directory)(nil)

// Plugin is a discovered plugin directory with a valid manifest.
type Plugin struct {
	Manifest *Manifest
	Dir      string
	globs    []glob.Glob
}

// Matches reports whether the plugin handles mimeType. Matching is case-insensitive.
func (p *Plugin) Matches(mimeType string) bool {
	mt := strings.ToLower(mimeType)
	for _, g := range p.globs {
		if g.Match(mt) {
			return true
		}
	}
	return false
}

// Directory is a plugin directory. Each subdirectory holding a plugin.yaml
// is one plugin library.
type Directory struct {
	path    string
	factory *StateFactory
	diag    *slog.Logger
	plugins []*Plugin
	scanned bool
}

// Option configures a Directory.
type Option func(*Directory)

// WithDiagnostics sets the logger for skipped plugins and Lua failures.
func WithDiagnostics(logger *slog.Logger) Option {
	return func(d *Directory) {
		if logger != nil {
			d.diag = logger
		}
	}
}

// WithStateFactory overrides the Lua state factory.
func WithStateFactory(f *StateFactory) Option {
	return func(d *Directory) {
		if f != nil {
			d.factory = f
		}
	}
}

// NewDirectory creates a loader over the plugins found under path.
// Discovery is deferred until first use.
func NewDirectory(path string, opts ...Option) *Directory {
	d := &Directory{
		path:    path,
		factory: NewStateFactory(),
		diag:    slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Path returns the scanned directory.
func (d *Directory) Path() string { return d.path }

// Discover rescans the directory. Invalid plugins are logged and skipped.
// A missing directory holds no plugins.
func (d *Directory) Discover(_ context.Context) ([]*Plugin, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		if os.IsNotExist(err) {
			d.plugins, d.scanned = nil, true
			return nil, nil
		}
		return nil, oops.With("dir", d.path).Wrapf(err, "read plugins directory")
	}

	var plugins []*Plugin
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := d.readPlugin(filepath.Join(d.path, entry.Name()))
		if err != nil {
			d.diag.Warn("skipping plugin",
				"dir", entry.Name(),
				"error", err)
			continue
		}
		plugins = append(plugins, p)
	}

	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Manifest.Name < plugins[j].Manifest.Name
	})
	d.plugins, d.scanned = plugins, true
	return plugins, nil
}

// Plugins returns the plugins found by the last scan, scanning first if needed.
func (d *Directory) Plugins(ctx context.Context) ([]*Plugin, error) {
	if !d.scanned {
		return d.Discover(ctx)
	}
	return d.plugins, nil
}

func (d *Directory) readPlugin(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile)) //nolint:gosec // dir comes from ReadDir entries
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).Wrapf(err, "read manifest")
	}
	if err := ValidateSchema(data); err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}
	globs, err := compileMIMEPatterns(m.MIMETypes)
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).Wrap(err)
	}
	return &Plugin{Manifest: m, Dir: dir, globs: globs}, nil
}

// FindPluginForMimeType returns a fresh *Library for the first plugin, by
// name, whose mime-types match mimeType.
func (d *Directory) FindPluginForMimeType(mimeType string) (any, error) {
	ctx := context.Background()
	plugins, err := d.Plugins(ctx)
	if err != nil {
		return nil, err
	}
	for _, p := range plugins {
		if p.Matches(mimeType) {
			return d.open(ctx, p)
		}
	}
	return nil, oops.Code(CodeNoPlugin).
		With("mime_type", mimeType).
		With("dir", d.path).
		Errorf("no plugin handles %s", mimeType)
}

func (d *Directory) open(ctx context.Context, p *Plugin) (*Library, error) {
	entryPath := filepath.Join(p.Dir, p.Manifest.Entry)
	code, err := os.ReadFile(filepath.Clean(entryPath))
	if err != nil {
		return nil, oops.Code(CodeLuaError).
			With("plugin", p.Manifest.Name).
			With("path", entryPath).
			Hint("failed to read entry file").
			Wrap(err)
	}

	L, err := d.factory.NewState(ctx)
	if err != nil {
		return nil, err
	}
	if err := L.DoString(string(code)); err != nil {
		L.Close()
		return nil, oops.Code(CodeLuaError).
			With("plugin", p.Manifest.Name).
			With("entry", p.Manifest.Entry).
			Hint("syntax error").
			Wrap(err)
	}

	d.diag.Debug("opened plugin library",
		"plugin", p.Manifest.Name,
		"version", p.Manifest.Version)
	return newLibrary(p, L, d.diag), nil
}

// ResolveSymbol returns the module entry point name of a *Library.
func (d *Directory) ResolveSymbol(lib any, name string) (any, error) {
	l, err := asLibrary(lib)
	if err != nil {
		return nil, err
	}
	if l.closed() {
		return nil, errUnloaded(l)
	}
	switch name {
	case npapi.SymbolGetEntryPoints:
		return npapi.GetEntryPointsFunc(l.getEntryPoints), nil
	case npapi.SymbolInitialize:
		return npapi.InitializeFunc(l.initialize), nil
	case npapi.SymbolShutdown:
		return npapi.ShutdownFunc(l.shutdown), nil
	default:
		return nil, oops.Code(CodeUnknownSymbol).
			With("plugin", l.Name()).
			With("symbol", name).
			Errorf("symbol %s not exported", name)
	}
}

// Unload closes the Lua state of a *Library.
func (d *Directory) Unload(lib any) error {
	l, err := asLibrary(lib)
	if err != nil {
		return err
	}
	if l.closed() {
		return errUnloaded(l)
	}
	l.close()
	d.diag.Debug("closed plugin library", "plugin", l.Name())
	return nil
}

func asLibrary(lib any) (*Library, error) {
	l, ok := lib.(*Library)
	if !ok || l == nil {
		return nil, oops.Code(CodeNotLibrary).Errorf("%T is not a loader library", lib)
	}
	return l, nil
}

func errUnloaded(l *Library) error {
	return oops.Code(CodeUnloaded).With("plugin", l.Name()).Errorf("library already unloaded")
}
