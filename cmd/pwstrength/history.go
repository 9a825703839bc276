// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"encoding/json"
	"io"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/history"
	"github.com/holomush/pwstrength/internal/history/postgres"
)

// NewHistoryCmd creates the history subcommand group.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Check and record password changes against account history",
	}

	var current string
	check := &cobra.Command{
		Use:   "check <account-id> <new-password|->",
		Short: "Report whether a password change would be allowed",
		Args:  cobra.ExactArgs(2),
		RunE: withPolicy(func(cmd *cobra.Command, p *history.Policy, args []string) error {
			next, cur, err := changeArgs(args[1], current, cmd.InOrStdin())
			if err != nil {
				return err
			}
			report, err := p.CheckChange(cmd.Context(), args[0], cur, next)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return oops.Code("OUTPUT_FAILED").Wrap(err)
			}
			if !report.Allowed {
				return oops.Code("CHANGE_REJECTED").
					With("reasons", report.Reasons).
					Errorf("password change rejected")
			}
			return nil
		}),
	}
	check.Flags().StringVar(&current, "current", "",
		"the account's current password (\"-\" reads it from stdin, after the new password when both are \"-\")")

	record := &cobra.Command{
		Use:   "record <account-id> <password|->",
		Short: "Store a password in the account history",
		Args:  cobra.ExactArgs(2),
		RunE: withPolicy(func(cmd *cobra.Command, p *history.Policy, args []string) error {
			password, err := passwordArg(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if err := p.Record(cmd.Context(), args[0], password); err != nil {
				return err
			}
			cmd.Println("Recorded")
			return nil
		}),
	}

	cmd.AddCommand(check, record)
	return cmd
}

// changeArgs resolves the new and current passwords of a change. When both
// are "-" the new password is the first stdin line and the current the second.
func changeArgs(nextArg, currentArg string, in io.Reader) (next, current string, err error) {
	br := bufio.NewReader(in)
	if next, err = passwordArg(nextArg, br); err != nil {
		return "", "", err
	}
	if current, err = passwordArg(currentArg, br); err != nil {
		return "", "", err
	}
	return next, current, nil
}

func withPolicy(fn func(*cobra.Command, *history.Policy, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		url, err := requireDatabase(cfg)
		if err != nil {
			return err
		}
		logger := newLogger(cmd, cfg)

		opts := cfg.BreachOptions()
		opts.Logger = logger
		checker, err := breach.New(opts)
		if err != nil {
			return err
		}

		pool, err := postgres.Connect(cmd.Context(), url)
		if err != nil {
			return err
		}
		defer pool.Close()

		policy, err := history.NewPolicy(postgres.NewRepository(pool), checker,
			history.WithDepth(cfg.History.Depth),
			history.WithPolicyLogger(logger),
		)
		if err != nil {
			return err
		}
		return fn(cmd, policy, args)
	}
}
