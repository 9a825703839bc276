// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/strength"
)

// NewSimilarCmd creates the similar subcommand.
func NewSimilarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similar <new> <old>",
		Short: "Check whether a new password is too close to the old one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			next, prev := args[0], args[1]
			verdict := "not similar"
			if strength.IsSimilar(next, prev) {
				verdict = "similar"
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (distance %d)\n", verdict, strength.Distance(next, prev))
			return err //nolint:wrapcheck // terminal write
		},
	}
}

// NewExposedCmd creates the exposed subcommand.
func NewExposedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exposed <password|->",
		Short: "Check a password against breach data",
		Long: `Check a password against the configured breach checker. In range
mode only the first five hex characters of its SHA-1 are sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			password, err := passwordArg(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			opts := cfg.BreachOptions()
			opts.Logger = newLogger(cmd, cfg)
			checker, err := breach.New(opts)
			if err != nil {
				return err
			}

			verdict := "not exposed"
			if checker.Exposed(cmd.Context(), password) {
				verdict = "exposed"
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), verdict)
			return err //nolint:wrapcheck // terminal write
		},
	}
}
