// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package breach reports whether a password is known to have been exposed.
//
// Checkers never return errors. A lookup that cannot complete is logged and
// treated as "not exposed" so that an unreachable breach corpus never
// blocks registration.
package breach

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"

	"github.com/holomush/pwstrength/internal/strength"
)

// Checker reports whether a password appears in breach data.
type Checker interface {
	Exposed(ctx context.Context, password string) bool
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, password string) bool

// Exposed calls f.
func (f CheckerFunc) Exposed(ctx context.Context, password string) bool {
	return f(ctx, password)
}

// LocalChecker matches against the embedded common-password set only.
type LocalChecker struct{}

// NewLocalChecker creates a LocalChecker.
func NewLocalChecker() *LocalChecker {
	return &LocalChecker{}
}

// Exposed reports whether password is a common password, ignoring case.
func (LocalChecker) Exposed(_ context.Context, password string) bool {
	exposed := strength.IsCommon(password)
	recordLookup(sourceLocal, exposed)
	return exposed
}

// Chain consults each checker in order and stops at the first hit.
type Chain []Checker

// Exposed reports whether any checker in the chain finds password.
func (c Chain) Exposed(ctx context.Context, password string) bool {
	for _, checker := range c {
		if checker.Exposed(ctx, password) {
			return true
		}
	}
	return false
}

// Mode selects the checker built by New.
type Mode string

// Supported modes.
const (
	ModeLocal Mode = "local"
	ModeRange Mode = "range"
)

// Options configures New.
type Options struct {
	Mode     Mode
	Endpoint string
	Timeout  time.Duration
	Attempts int
	CacheTTL time.Duration
	Logger   *slog.Logger
}

// New builds the checker for opts.Mode. Range mode always consults the
// local set first so common passwords never cost a network round trip.
func New(opts Options) (Checker, error) {
	switch opts.Mode {
	case ModeLocal, "":
		return NewLocalChecker(), nil
	case ModeRange:
		rc := NewRangeChecker(opts.Endpoint,
			WithTimeout(opts.Timeout),
			WithAttempts(opts.Attempts),
			WithCacheTTL(opts.CacheTTL),
			WithLogger(opts.Logger),
		)
		return Chain{NewLocalChecker(), rc}, nil
	default:
		return nil, oops.Code("BREACH_MODE_INVALID").
			With("mode", string(opts.Mode)).
			Errorf("unknown breach mode %q", opts.Mode)
	}
}
