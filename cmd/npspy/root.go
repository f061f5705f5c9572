// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"

	"github.com/holomush/npspy/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the npspy CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "npspy",
		Short: "npspy - an NPAPI call spy",
		Long: heredoc.Doc(`
			npspy sits between a browser and the real NPAPI plugins. Every call
			crossing the boundary in either direction is logged with its
			arguments and return value, then forwarded unchanged.

			Plugins are Lua scripts discovered from a plugin directory; the
			run command drives them through a simulated browser.
		`),
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default: XDG_CONFIG_HOME/npspy/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewRunCmd())
	cmd.AddCommand(NewPluginsCmd())
	cmd.AddCommand(NewActionsCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig reads the config file and overlays cmd's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	//nolint:wrapcheck // config errors carry their own oops codes
	return config.Load(configFile, cmd.Flags())
}
