// Package ledger is the persistence layer for the reward ledger engine:
// balances, the append-only reward ledger, redemptions, project progress
// state, and the activity audit trail. All balance mutations flow through
// Credit (additive) and Redeem (subtractive); nothing else writes balance.
package ledger

import (
	"context"
	"fmt"

	"github.com/vamo-hq/ledgerx/pkg/db/postgres"
	"github.com/vamo-hq/ledgerx/pkg/rewards"
	"go.uber.org/zap"
)

// DB wraps the shared postgres client with ledger operations.
type DB struct {
	Client *postgres.Client
	Logger *zap.Logger

	policy *rewards.Policy
}

// New builds the ledger store on the given client. The reward policy is
// wired to this store's prompt-window counter.
func New(client *postgres.Client, logger *zap.Logger) *DB {
	db := &DB{Client: client, Logger: logger}
	db.policy = rewards.NewPolicy(db)
	return db
}

// Migrations returns the schema statements, in order. Idempotent; safe to
// run at every startup.
func Migrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS balances (
			user_id TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS reward_ledger (
			id              UUID PRIMARY KEY,
			seq             BIGSERIAL,
			user_id         TEXT NOT NULL,
			project_id      TEXT,
			event_type      TEXT NOT NULL,
			reward_amount   BIGINT NOT NULL,
			balance_after   BIGINT NOT NULL,
			idempotency_key TEXT NOT NULL UNIQUE,
			created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_user ON reward_ledger (user_id, seq DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_ledger_prompt_window ON reward_ledger (project_id, event_type, created_at)`,

		`CREATE TABLE IF NOT EXISTS redemptions (
			id           UUID PRIMARY KEY,
			user_id      TEXT NOT NULL,
			amount       BIGINT NOT NULL,
			reward_type  TEXT NOT NULL,
			status       TEXT NOT NULL DEFAULT 'pending',
			created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
			fulfilled_at TIMESTAMPTZ
		)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_user ON redemptions (user_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_redemptions_status ON redemptions (status)`,

		`CREATE TABLE IF NOT EXISTS projects (
			id             TEXT PRIMARY KEY,
			owner_id       TEXT NOT NULL,
			name           TEXT NOT NULL,
			progress_score INT NOT NULL DEFAULT 0 CHECK (progress_score BETWEEN 0 AND 100),
			valuation_low  BIGINT NOT NULL DEFAULT 0 CHECK (valuation_low >= 0),
			valuation_high BIGINT NOT NULL DEFAULT 0 CHECK (valuation_high >= valuation_low),
			created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects (owner_id)`,

		`CREATE TABLE IF NOT EXISTS activity_events (
			id          UUID PRIMARY KEY,
			project_id  TEXT,
			user_id     TEXT NOT NULL,
			event_type  TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			metadata    JSONB NOT NULL DEFAULT '{}',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_project ON activity_events (project_id, created_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_activity_type ON activity_events (project_id, event_type, created_at DESC)`,
	}
}

// InitializeSchema applies all migrations.
func (db *DB) InitializeSchema(ctx context.Context) error {
	for _, stmt := range Migrations() {
		if err := db.Client.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply ledger migration: %w", err)
		}
	}
	db.Logger.Info("Ledger schema initialized")
	return nil
}

// Health checks database reachability.
func (db *DB) Health(ctx context.Context) error {
	return db.Client.Health(ctx)
}

// Close closes the underlying pool.
func (db *DB) Close() {
	db.Client.Close()
}
