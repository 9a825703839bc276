// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/pwstrength/internal/breach"
	"github.com/holomush/pwstrength/internal/history"
	"github.com/holomush/pwstrength/internal/history/postgres"
	"github.com/holomush/pwstrength/pkg/errutil"
)

// setupDatabase starts PostgreSQL, applies migrations and returns a pool.
func setupDatabase(ctx context.Context) (*pgxpool.Pool, func(), error) {
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("pwstrength_test"),
		tcpostgres.WithUsername("pwstrength"),
		tcpostgres.WithPassword("pwstrength"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	migrator, err := history.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}
	defer func() { _ = migrator.Close() }()
	if err := migrator.Up(); err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	pool, err := postgres.Connect(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, nil, err
	}

	cleanup := func() {
		pool.Close()
		_ = container.Terminate(ctx)
	}
	return pool, cleanup, nil
}

var _ = Describe("Repository", func() {
	var (
		ctx     context.Context
		pool    *pgxpool.Pool
		repo    *postgres.Repository
		cleanup func()
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		pool, cleanup, err = setupDatabase(ctx)
		Expect(err).NotTo(HaveOccurred())
		repo = postgres.NewRepository(pool)
	})

	AfterEach(func() {
		cleanup()
	})

	entryAt := func(account string, at time.Time) *history.Entry {
		return &history.Entry{ID: ulid.Make(), AccountID: account, Hash: "hash-" + at.String(), CreatedAt: at}
	}

	Describe("Recent", func() {
		It("returns newest entries first, limited", func() {
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := range 4 {
				Expect(repo.Append(ctx, entryAt("acct-1", base.Add(time.Duration(i)*time.Hour)))).To(Succeed())
			}
			Expect(repo.Append(ctx, entryAt("acct-2", base.Add(10*time.Hour)))).To(Succeed())

			entries, err := repo.Recent(ctx, "acct-1", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(3))
			Expect(entries[0].CreatedAt).To(BeTemporally("==", base.Add(3*time.Hour)))
			Expect(entries[2].CreatedAt).To(BeTemporally("==", base.Add(1*time.Hour)))
		})
	})

	Describe("Append", func() {
		It("rejects duplicate ids", func() {
			e := entryAt("acct-1", time.Now().UTC())
			Expect(repo.Append(ctx, e)).To(Succeed())

			err := repo.Append(ctx, e)
			Expect(err).To(HaveOccurred())
			Expect(errutil.Code(err)).To(Equal("HISTORY_DUPLICATE_ENTRY"))
		})
	})

	Describe("Prune", func() {
		It("keeps only the newest entries", func() {
			base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
			for i := range 5 {
				Expect(repo.Append(ctx, entryAt("acct-1", base.Add(time.Duration(i)*time.Minute)))).To(Succeed())
			}

			removed, err := repo.Prune(ctx, "acct-1", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(removed).To(Equal(int64(3)))

			entries, err := repo.Recent(ctx, "acct-1", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(entries).To(HaveLen(2))
		})
	})

	Describe("Policy", func() {
		It("detects reuse through the database", func() {
			never := breach.CheckerFunc(func(context.Context, string) bool { return false })
			params := history.Argon2Params{Time: 1, Memory: 1024, Threads: 1, SaltLen: 16, KeyLen: 32}
			policy, err := history.NewPolicy(repo, never, history.WithHasher(history.NewArgon2idHasher(params)))
			Expect(err).NotTo(HaveOccurred())

			Expect(policy.Record(ctx, "acct-1", "Gx7#pLm2!vQz")).To(Succeed())

			report, err := policy.CheckChange(ctx, "acct-1", "", "Gx7#pLm2!vQz")
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Reused).To(BeTrue())
			Expect(report.Allowed).To(BeFalse())
		})
	})
})
