package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/db/postgres"
	"go.uber.org/zap"
)

// Credit awards pineapples for a qualifying event, exactly once per
// idempotency key.
//
// The algorithm is optimistic: look up the key, compute the amount, then
// insert the ledger entry relying on the unique constraint to arbitrate
// races. A concurrent duplicate that loses the insert race re-reads the
// winning entry and returns its recorded values; the caller never sees the
// conflict. Zero-value events (unknown types, rate-capped prompts) are not
// recorded, so retrying them stays cheap.
//
// Ledger insert and balance update commit in one transaction, with the
// balance row locked, so balance_after on the newest entry always matches
// the stored balance.
func (db *DB) Credit(ctx context.Context, userID, projectID string, eventType ledgermodels.EventType, idempotencyKey, tag string) (*ledgermodels.CreditResult, error) {
	if existing, err := db.EntryByIdempotencyKey(ctx, idempotencyKey); err == nil {
		return &ledgermodels.CreditResult{Rewarded: true, Amount: existing.RewardAmount, NewBalance: existing.BalanceAfter}, nil
	} else if !postgres.IsNoRows(err) {
		return nil, fmt.Errorf("idempotency lookup: %w", err)
	}

	amount, err := db.policy.Compute(ctx, eventType, projectID, tag)
	if err != nil {
		return nil, fmt.Errorf("compute reward: %w", err)
	}
	if amount <= 0 {
		return &ledgermodels.CreditResult{Rewarded: false, Amount: 0}, nil
	}

	var result ledgermodels.CreditResult
	txErr := db.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := db.Client.WithTx(ctx, tx)

		balance, lockErr := db.lockBalance(txCtx, userID)
		if lockErr != nil {
			return lockErr
		}
		balanceAfter := balance + amount

		entry := &ledgermodels.Entry{
			ID:             uuid.NewString(),
			UserID:         userID,
			ProjectID:      projectID,
			EventType:      eventType,
			RewardAmount:   amount,
			BalanceAfter:   balanceAfter,
			IdempotencyKey: idempotencyKey,
			CreatedAt:      time.Now().UTC(),
		}
		if insErr := db.insertEntry(txCtx, entry); insErr != nil {
			return insErr
		}

		if updErr := db.setBalance(txCtx, userID, balanceAfter); updErr != nil {
			return updErr
		}

		result = ledgermodels.CreditResult{Rewarded: true, Amount: amount, NewBalance: balanceAfter}
		return nil
	})

	if txErr != nil {
		if postgres.IsUniqueViolation(txErr) {
			// A concurrent duplicate won the race. Converge on its outcome.
			winner, readErr := db.EntryByIdempotencyKey(ctx, idempotencyKey)
			if readErr != nil {
				return nil, fmt.Errorf("re-read after idempotency conflict: %w", readErr)
			}
			db.Logger.Debug("Credit deduplicated by idempotency key",
				zap.String("user_id", userID),
				zap.String("idempotency_key", idempotencyKey))
			return &ledgermodels.CreditResult{Rewarded: true, Amount: winner.RewardAmount, NewBalance: winner.BalanceAfter}, nil
		}
		return nil, fmt.Errorf("credit %s for user %s: %w", eventType, userID, txErr)
	}

	return &result, nil
}

// EntryByIdempotencyKey returns the ledger entry recorded for the key, or
// pgx.ErrNoRows.
func (db *DB) EntryByIdempotencyKey(ctx context.Context, idempotencyKey string) (*ledgermodels.Entry, error) {
	row := db.Client.QueryRow(ctx, `
		SELECT id, user_id, COALESCE(project_id, ''), event_type, reward_amount, balance_after, idempotency_key, created_at
		FROM reward_ledger WHERE idempotency_key = $1
	`, idempotencyKey)
	return scanEntry(row)
}

// CountPromptEntries implements rewards.PromptCounter: the number of
// prompt-type ledger entries for a project since the given time.
func (db *DB) CountPromptEntries(ctx context.Context, projectID string, since time.Time) (int, error) {
	var count int
	err := db.Client.QueryRow(ctx, `
		SELECT COUNT(*) FROM reward_ledger
		WHERE project_id = $1 AND event_type = $2 AND created_at >= $3
	`, projectID, ledgermodels.EventPrompt, since).Scan(&count)
	return count, err
}

// lockBalance reads a user's balance under FOR UPDATE, creating the row if
// this is the user's first balance-touching event. Must run inside a
// transaction.
func (db *DB) lockBalance(ctx context.Context, userID string) (int64, error) {
	if err := db.Client.Exec(ctx, `
		INSERT INTO balances (user_id, balance) VALUES ($1, 0)
		ON CONFLICT (user_id) DO NOTHING
	`, userID); err != nil {
		return 0, fmt.Errorf("ensure balance row: %w", err)
	}

	var balance int64
	if err := db.Client.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1 FOR UPDATE
	`, userID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("lock balance: %w", err)
	}
	return balance, nil
}

func (db *DB) insertEntry(ctx context.Context, e *ledgermodels.Entry) error {
	var projectID any
	if e.ProjectID != "" {
		projectID = e.ProjectID
	}
	return db.Client.Exec(ctx, `
		INSERT INTO reward_ledger (id, user_id, project_id, event_type, reward_amount, balance_after, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, e.ID, e.UserID, projectID, e.EventType, e.RewardAmount, e.BalanceAfter, e.IdempotencyKey, e.CreatedAt)
}

func (db *DB) setBalance(ctx context.Context, userID string, balance int64) error {
	return db.Client.Exec(ctx, `
		UPDATE balances SET balance = $2 WHERE user_id = $1
	`, userID, balance)
}

func scanEntry(row pgx.Row) (*ledgermodels.Entry, error) {
	var e ledgermodels.Entry
	if err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.EventType, &e.RewardAmount, &e.BalanceAfter, &e.IdempotencyKey, &e.CreatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
