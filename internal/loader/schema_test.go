// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package loader_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/npspy/internal/loader"
	"github.com/holomush/npspy/pkg/errutil"
)

func TestGenerateSchema(t *testing.T) {
	data, err := loader.GenerateSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(data, &schema))

	assert.Equal(t, loader.SchemaID(), schema["$id"])
	assert.Equal(t, "npspy Plugin Manifest", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	for _, key := range []string{"name", "version", "description", "mime-types", "entry"} {
		assert.Contains(t, props, key)
	}
	assert.ElementsMatch(t, []any{"name", "version", "mime-types", "entry"}, schema["required"])
}

func TestValidateSchema(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: "name: spy\nversion: 1.0.0\nmime-types: [application/x-test]\nentry: main.lua\n",
		},
		{
			name:    "missing entry",
			yaml:    "name: spy\nversion: 1.0.0\nmime-types: [application/x-test]\n",
			wantErr: true,
		},
		{
			name:    "mime types not a list",
			yaml:    "name: spy\nversion: 1.0.0\nmime-types: application/x-test\nentry: main.lua\n",
			wantErr: true,
		},
		{
			name:    "unknown field",
			yaml:    "name: spy\nversion: 1.0.0\nmime-types: [a/b]\nentry: main.lua\nextra: true\n",
			wantErr: true,
		},
		{
			name:    "numeric version",
			yaml:    "name: spy\nversion: 1.0\nmime-types: [a/b]\nentry: main.lua\n",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := loader.ValidateSchema([]byte(tt.yaml))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			errutil.AssertErrorCode(t, err, loader.CodeSchema)
		})
	}
}

func TestValidateSchema_Empty(t *testing.T) {
	errutil.AssertErrorCode(t, loader.ValidateSchema(nil), loader.CodeSchema)
}

func TestFormatSchemaError(t *testing.T) {
	assert.Empty(t, loader.FormatSchemaError(nil))
	assert.Equal(t, "missing entry", loader.FormatSchemaError(errors.New("schema validation failed: missing entry")))
}
