// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirs(t *testing.T) {
	tests := []struct {
		name string
		env  string
		fn   func() (string, error)
		def  string
	}{
		{"config", "XDG_CONFIG_HOME", ConfigDir, "/home/testuser/.config/npspy"},
		{"data", "XDG_DATA_HOME", DataDir, "/home/testuser/.local/share/npspy"},
		{"state", "XDG_STATE_HOME", StateDir, "/home/testuser/.local/state/npspy"},
	}
	for _, tt := range tests {
		t.Run(tt.name+" env", func(t *testing.T) {
			t.Setenv(tt.env, "/custom")
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, "/custom/npspy", got)
		})
		t.Run(tt.name+" default", func(t *testing.T) {
			t.Setenv(tt.env, "")
			t.Setenv("HOME", "/home/testuser")
			got, err := tt.fn()
			require.NoError(t, err)
			assert.Equal(t, tt.def, got)
		})
	}
}

func TestFiles(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")

	cfg, err := ConfigFile()
	require.NoError(t, err)
	assert.Equal(t, "/cfg/npspy/config.yaml", cfg)

	plugins, err := PluginsDir()
	require.NoError(t, err)
	assert.Equal(t, "/data/npspy/plugins", plugins)

	logFile, err := DefaultLogFile()
	require.NoError(t, err)
	assert.Equal(t, "/state/npspy/npspy.log", logFile)
}

func TestEnsureDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))
	assert.Error(t, EnsureDir(filepath.Join(blocker, "sub")))
}
