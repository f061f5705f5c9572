// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/npspy/internal/loader"
)

func TestStateFactory_LoadsSafeLibraries(t *testing.T) {
	L, err := loader.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, lua.LTNil, L.GetGlobal(lib).Type(), "library %q not loaded", lib)
	}
}

func TestStateFactory_BlocksUnsafeLibraries(t *testing.T) {
	L, err := loader.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	for _, name := range []string{"os", "io", "debug", "package", "dofile", "loadfile", "loadstring", "load"} {
		assert.Equal(t, lua.LTNil, L.GetGlobal(name).Type(), "%q should not be available", name)
	}
}

func TestStateFactory_CancelledContextStopsExecution(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	L, err := loader.NewStateFactory().NewState(ctx)
	require.NoError(t, err)
	defer L.Close()

	cancel()
	assert.Error(t, L.DoString(`while true do end`))
}
