// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/npspy/internal/loader"
)

// NewSchemaCmd creates the schema subcommand.
func NewSchemaCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the plugin.yaml JSON Schema",
		Long: heredoc.Docf(`
			Print the JSON Schema that every plugin.yaml is validated against
			before it is loaded. The schema id is %s.

			Editors that understand JSON Schema can use it to check manifests
			while they are written.
		`, loader.SchemaID()),
		Example: heredoc.Doc(`
			npspy schema
			npspy schema --output schemas/npspy-plugin.schema.json
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			schema, err := loader.GenerateSchema()
			if err != nil {
				return oops.Wrapf(err, "generate schema")
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(append(schema, '\n'))
				return oops.Wrap(err)
			}

			if err := os.MkdirAll(filepath.Dir(output), 0o750); err != nil {
				return oops.With("path", output).Wrapf(err, "create directory")
			}
			if err := os.WriteFile(output, schema, 0o600); err != nil {
				return oops.With("path", output).Wrapf(err, "write schema")
			}
			cmd.Printf("Generated %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write the schema to this file instead of stdout")
	return cmd
}
