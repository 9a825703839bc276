// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/pwstrength/internal/config"
	"github.com/holomush/pwstrength/internal/logging"
	"github.com/holomush/pwstrength/internal/xdg"
)

const serviceName = "pwstrength"

// configFlag is the persistent --config flag name.
const configFlag = "config"

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pwstrength",
		Short: "Password strength evaluation",
		Long: `pwstrength scores passwords, compares them with previous passwords,
checks them against breach data and serves the same checks over HTTP.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().String(configFlag, "", "config file path (default $XDG_CONFIG_HOME/pwstrength/config.yaml)")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewEvaluateCmd())
	cmd.AddCommand(NewSimilarCmd())
	cmd.AddCommand(NewExposedCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewSchemaCmd())

	return cmd
}

// loadConfig resolves the configuration for cmd from --config, the XDG
// config file and flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString(configFlag)
	if err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if path == "" {
		if path, err = xdg.ConfigFile(); err != nil {
			return nil, err
		}
	}
	return config.Load(path, cmd.Flags())
}

// newLogger builds the command logger. Logs go to stderr so that stdout
// stays machine-readable.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	return logging.Setup(serviceName, version, cfg.Log.Format, cmd.ErrOrStderr())
}

// passwordArg returns arg, or the next line of in when arg is "-". Pass the
// same *bufio.Reader when several arguments may read from stdin.
func passwordArg(arg string, in io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	br, ok := in.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(in)
	}
	line, err := br.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", oops.Code("INPUT_READ_FAILED").Wrap(err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
