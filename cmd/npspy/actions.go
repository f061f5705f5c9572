// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"io"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/holomush/npspy/internal/format"
)

// NewActionsCmd creates the actions subcommand.
func NewActionsCmd() *cobra.Command {
	var mutedOnly bool

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List the intercepted calls and whether each is muted",
		Long: `List every NPN and NPP call the spy intercepts, with its signature,
the key used by mute patterns, and whether the current configuration
mutes it.`,
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

			// Mute state only; no sinks are needed to list actions.
			filtered := *cfg
			filtered.Log.Console, filtered.Log.File, filtered.Log.Structured = false, "", false
			l, _, err := newCallLog(&filtered, io.Discard, diag)
			if err != nil {
				return err
			}

			table := uitable.New()
			table.MaxColWidth = 100
			table.AddRow("KEY", "MUTED", "SIGNATURE")
			for _, a := range format.Actions() {
				muted := l.IsMuted(a)
				if mutedOnly && !muted {
					continue
				}
				table.AddRow(a.Key(), yesNo(muted), a.Signature())
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), table.String())
			return nil
		},
	}

	cmd.Flags().BoolVar(&mutedOnly, "muted", false, "list muted actions only")
	return cmd
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
