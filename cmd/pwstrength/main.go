// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package main is the pwstrength command-line tool.
package main

import (
	"fmt"
	"os"

	"github.com/holomush/pwstrength/internal/logging"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Fallback for components built without an explicit logger.
	logging.SetDefault(serviceName, version, "json")

	cmd := NewRootCmd()
	cmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
