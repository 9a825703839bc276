// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package history

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/strength"
)

// DefaultDepth is the number of previous passwords checked for reuse.
const DefaultDepth = 5

// Entry is one stored password hash.
type Entry struct {
	ID        ulid.ULID
	AccountID string
	Hash      string
	CreatedAt time.Time
}

// Repository persists password history.
type Repository interface {
	// Append stores entry.
	Append(ctx context.Context, entry *Entry) error

	// Recent returns up to limit entries for accountID, newest first.
	Recent(ctx context.Context, accountID string, limit int) ([]*Entry, error)

	// Prune deletes all but the newest keep entries for accountID and
	// returns how many were removed.
	Prune(ctx context.Context, accountID string, keep int) (int64, error)
}

// Reasons a change can be rejected.
const (
	ReasonWeak    = "password is too weak"
	ReasonSimilar = "password is too similar to the current password"
	ReasonExposed = "password has appeared in a data breach"
	ReasonReused  = "password was used recently"
)

// ChangeReport explains whether a password change is allowed.
type ChangeReport struct {
	Strength strength.Result `json:"strength"`
	Similar  bool            `json:"similar"`
	Exposed  bool            `json:"exposed"`
	Reused   bool            `json:"reused"`
	Allowed  bool            `json:"allowed"`
	Reasons  []string        `json:"reasons,omitempty"`
}

// Sentinel errors for NewPolicy.
var (
	ErrNilRepository = errors.New("repository cannot be nil")
	ErrNilChecker    = errors.New("breach checker cannot be nil")
)

// Policy checks and records password changes.
type Policy struct {
	repo      Repository
	checker   breach.Checker
	hasher    PasswordHasher
	evaluator *strength.Evaluator
	depth     int
	now       func() time.Time
	logger    *slog.Logger
}

// PolicyOption configures a Policy.
type PolicyOption func(*Policy)

// WithDepth sets how many previous passwords are checked for reuse.
func WithDepth(depth int) PolicyOption {
	return func(p *Policy) {
		if depth > 0 {
			p.depth = depth
		}
	}
}

// WithHasher overrides the argon2id hasher.
func WithHasher(h PasswordHasher) PolicyOption {
	return func(p *Policy) {
		if h != nil {
			p.hasher = h
		}
	}
}

// WithClock overrides the time source used for new entries.
func WithClock(now func() time.Time) PolicyOption {
	return func(p *Policy) {
		if now != nil {
			p.now = now
		}
	}
}

// WithPolicyLogger sets the logger.
func WithPolicyLogger(logger *slog.Logger) PolicyOption {
	return func(p *Policy) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPolicy creates a Policy backed by repo and checker.
func NewPolicy(repo Repository, checker breach.Checker, opts ...PolicyOption) (*Policy, error) {
	if repo == nil {
		return nil, oops.Code("POLICY_INVALID").Wrap(ErrNilRepository)
	}
	if checker == nil {
		return nil, oops.Code("POLICY_INVALID").Wrap(ErrNilChecker)
	}
	p := &Policy{
		repo:      repo,
		checker:   checker,
		hasher:    NewArgon2idHasher(DefaultArgon2Params()),
		evaluator: strength.NewEvaluator(),
		depth:     DefaultDepth,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// CheckChange evaluates next as a replacement for current on accountID.
// current may be empty when the account has no password yet.
func (p *Policy) CheckChange(ctx context.Context, accountID, current, next string) (*ChangeReport, error) {
	report := &ChangeReport{
		Strength: p.evaluator.Evaluate(next),
		Similar:  strength.IsSimilar(next, current),
		Exposed:  p.checker.Exposed(ctx, next),
	}

	reused, err := p.reused(ctx, accountID, next)
	if err != nil {
		return nil, err
	}
	report.Reused = reused

	if !report.Strength.Valid {
		report.Reasons = append(report.Reasons, ReasonWeak)
	}
	if report.Similar {
		report.Reasons = append(report.Reasons, ReasonSimilar)
	}
	if report.Exposed {
		report.Reasons = append(report.Reasons, ReasonExposed)
	}
	if report.Reused {
		report.Reasons = append(report.Reasons, ReasonReused)
	}
	report.Allowed = len(report.Reasons) == 0

	p.logger.DebugContext(ctx, "password change checked",
		"account_id", accountID,
		"allowed", report.Allowed,
		"score", report.Strength.Score,
	)
	return report, nil
}

func (p *Policy) reused(ctx context.Context, accountID, password string) (bool, error) {
	if password == "" {
		return false, nil
	}

	entries, err := p.repo.Recent(ctx, accountID, p.depth)
	if err != nil {
		return false, oops.Code("HISTORY_LOOKUP_FAILED").
			With("account_id", accountID).
			Wrap(err)
	}

	for _, entry := range entries {
		match, err := p.hasher.Verify(password, entry.Hash)
		if err != nil {
			// An unreadable hash cannot match.
			p.logger.WarnContext(ctx, "skipping unreadable password history entry",
				"account_id", accountID,
				"entry_id", entry.ID.String(),
				"error", err,
			)
			continue
		}
		if match {
			return true, nil
		}
	}
	return false, nil
}

// Record stores password as the newest history entry for accountID and
// trims older entries beyond the configured depth.
func (p *Policy) Record(ctx context.Context, accountID, password string) error {
	hash, err := p.hasher.Hash(password)
	if err != nil {
		return oops.Code("HISTORY_HASH_FAILED").With("account_id", accountID).Wrap(err)
	}

	entry := &Entry{
		ID:        ulid.Make(),
		AccountID: accountID,
		Hash:      hash,
		CreatedAt: p.now().UTC(),
	}
	if err := p.repo.Append(ctx, entry); err != nil {
		return oops.Code("HISTORY_APPEND_FAILED").With("account_id", accountID).Wrap(err)
	}

	removed, err := p.repo.Prune(ctx, accountID, p.depth)
	if err != nil {
		return oops.Code("HISTORY_PRUNE_FAILED").With("account_id", accountID).Wrap(err)
	}

	p.logger.InfoContext(ctx, "password history recorded",
		"account_id", accountID,
		"entry_id", entry.ID.String(),
		"pruned", removed,
	)
	return nil
}
