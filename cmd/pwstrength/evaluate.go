// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	zxcvbn "github.com/ccojocar/zxcvbn-go"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/holomush/pwstrength/internal/strength"
)

// Output formats for evaluate.
const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatText = "text"
)

// maxEstimateLength bounds the input to zxcvbn, whose cost grows quickly
// with password length.
const maxEstimateLength = 64

// Estimate is an independent zxcvbn score reported alongside the result.
type Estimate struct {
	Score     int     `json:"score" yaml:"score"`
	Entropy   float64 `json:"entropy" yaml:"entropy"`
	CrackTime string  `json:"crackTime" yaml:"crackTime"`
}

type evaluateOutput struct {
	strength.Result `yaml:",inline"`
	Estimate        *Estimate `json:"estimate,omitempty" yaml:"estimate,omitempty"`
}

// NewEvaluateCmd creates the evaluate subcommand.
func NewEvaluateCmd() *cobra.Command {
	var (
		format   string
		estimate bool
	)

	cmd := &cobra.Command{
		Use:   "evaluate <password|->",
		Short: "Score a password",
		Long: `Score a password and list the changes that would strengthen it.
Pass "-" to read the password from the first line of stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := passwordArg(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			out := evaluateOutput{Result: strength.NewEvaluator().Evaluate(password)}
			if estimate {
				out.Estimate = estimateStrength(password)
			}
			return writeEvaluation(cmd.OutOrStdout(), format, out)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format (json, yaml or text)")
	cmd.Flags().BoolVar(&estimate, "estimate", false, "add a zxcvbn cross-check score")
	return cmd
}

func estimateStrength(password string) *Estimate {
	if password == "" {
		return &Estimate{CrackTime: "instant"}
	}
	runes := []rune(password)
	if len(runes) > maxEstimateLength {
		runes = runes[:maxEstimateLength]
	}
	m := zxcvbn.PasswordStrength(string(runes), nil)
	return &Estimate{Score: m.Score, Entropy: m.Entropy, CrackTime: m.CrackTimeDisplay}
}

func writeEvaluation(w io.Writer, format string, out evaluateOutput) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
		if err := enc.Close(); err != nil {
			return oops.Code("OUTPUT_FAILED").Wrap(err)
		}
	case formatText:
		writeText(w, out)
	default:
		return oops.Code("FORMAT_INVALID").With("format", format).Errorf("unknown format %q", format)
	}
	return nil
}

func writeText(w io.Writer, out evaluateOutput) {
	r := out.Result
	var b strings.Builder

	fmt.Fprintf(&b, "Score:      %d/%d (%s)\n", r.Score, strength.MaxScore, r.Message)
	fmt.Fprintf(&b, "Valid:      %t\n", r.Valid)
	fmt.Fprintf(&b, "Entropy:    %.1f bits\n", r.Entropy)
	fmt.Fprintf(&b, "Crack time: %s\n", r.CrackTime)

	b.WriteString("Requirements:\n")
	for _, c := range []struct {
		name string
		ok   bool
	}{
		{"at least 12 characters", r.Requirements.MinLength},
		{"uppercase letter", r.Requirements.HasUppercase},
		{"lowercase letter", r.Requirements.HasLowercase},
		{"number", r.Requirements.HasNumber},
		{"special character", r.Requirements.HasSpecialChar},
		{"not a common password", r.Requirements.NotCommon},
		{"no sequences or keyboard patterns", r.Requirements.NotSequential},
	} {
		mark := " "
		if c.ok {
			mark = "x"
		}
		fmt.Fprintf(&b, "  [%s] %s\n", mark, c.name)
	}

	if len(r.Suggestions) > 0 {
		b.WriteString("Suggestions:\n")
		for _, s := range r.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}

	if e := out.Estimate; e != nil {
		fmt.Fprintf(&b, "zxcvbn:     %d/4 (crack time %s)\n", e.Score, e.CrackTime)
	}

	//nolint:errcheck // best-effort terminal output
	io.WriteString(w, b.String())
}
