// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/gosuri/uitable"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/npspy/internal/loader"
)

// NewPluginsCmd creates the plugins subcommand.
func NewPluginsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plugins",
		Short: "List the plugins in the plugin directory",
		Long: `List every plugin with a valid plugin.yaml in the plugin directory,
with the MIME type patterns it handles. Invalid plugins are skipped and
reported on the diagnostic log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			diag, err := newDiagnostics(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			dir := loader.NewDirectory(cfg.PluginsDir, loader.WithDiagnostics(diag))
			plugins, err := dir.Discover(cmd.Context())
			if err != nil {
				return oops.With("dir", cfg.PluginsDir).Wrapf(err, "discover plugins")
			}

			out := cmd.OutOrStdout()
			if len(plugins) == 0 {
				_, _ = fmt.Fprintf(out, "no plugins in %s\n", dir.Path())
				return nil
			}

			table := uitable.New()
			table.MaxColWidth = 60
			table.Wrap = true
			table.AddRow("NAME", "VERSION", "MIME TYPES", "DESCRIPTION")
			for _, p := range plugins {
				m := p.Manifest
				table.AddRow(m.Name, m.Version, strings.Join(m.MIMETypes, ", "), m.Description)
			}
			_, _ = fmt.Fprintln(out, table.String())
			return nil
		},
	}
}
