// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package postgres stores password history in PostgreSQL.
package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/pwstrength/internal/history"
)

// pool abstracts *pgxpool.Pool so pgxmock can stand in for it.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements history.Repository using PostgreSQL.
type Repository struct {
	pool pool
}

var _ history.Repository = (*Repository)(nil)

// NewRepository creates a Repository over an existing pool.
func NewRepository(p pool) *Repository {
	return &Repository{pool: p}
}

// Connect opens a pgx pool for databaseURL and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping").Wrap(err)
	}
	return p, nil
}

// Append stores entry.
func (r *Repository) Append(ctx context.Context, entry *history.Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO password_history (id, account_id, hash, created_at)
		VALUES ($1, $2, $3, $4)
	`, entry.ID.String(), entry.AccountID, entry.Hash, entry.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("HISTORY_DUPLICATE_ENTRY").
				With("id", entry.ID.String()).
				Wrapf(err, "history entry %s already exists", entry.ID)
		}
		return oops.Code("HISTORY_APPEND_FAILED").
			With("operation", "insert history entry").
			With("account_id", entry.AccountID).
			Wrap(err)
	}
	return nil
}

// Recent returns up to limit entries for accountID, newest first.
func (r *Repository) Recent(ctx context.Context, accountID string, limit int) ([]*history.Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, account_id, hash, created_at
		FROM password_history
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, accountID, limit)
	if err != nil {
		return nil, oops.With("operation", "query recent history").With("account_id", accountID).Wrap(err)
	}
	defer rows.Close()

	var entries []*history.Entry
	for rows.Next() {
		var (
			id    string
			entry history.Entry
		)
		if err := rows.Scan(&id, &entry.AccountID, &entry.Hash, &entry.CreatedAt); err != nil {
			return nil, oops.With("operation", "scan history row").Wrap(err)
		}
		entry.ID, err = ulid.Parse(id)
		if err != nil {
			return nil, oops.With("operation", "parse history id").With("id", id).Wrap(err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.With("operation", "iterate history rows").Wrap(err)
	}
	return entries, nil
}

// Prune deletes all but the newest keep entries for accountID.
func (r *Repository) Prune(ctx context.Context, accountID string, keep int) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM password_history
		WHERE account_id = $1
		  AND id NOT IN (
			SELECT id FROM password_history
			WHERE account_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		  )
	`, accountID, keep)
	if err != nil {
		return 0, oops.With("operation", "prune history").With("account_id", accountID).Wrap(err)
	}
	return tag.RowsAffected(), nil
}
