package ledger

import (
	"context"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/db/postgres"
)

// GetBalance returns a user's current balance. Users with no balance row
// have an implicit balance of zero.
func (db *DB) GetBalance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := db.Client.QueryRow(ctx, `
		SELECT balance FROM balances WHERE user_id = $1
	`, userID).Scan(&balance)
	if postgres.IsNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// ListLedgerEntries returns a user's ledger history, newest first.
func (db *DB) ListLedgerEntries(ctx context.Context, userID string, limit int) ([]*ledgermodels.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Client.Query(ctx, `
		SELECT id, user_id, COALESCE(project_id, ''), event_type, reward_amount, balance_after, idempotency_key, created_at
		FROM reward_ledger
		WHERE user_id = $1
		ORDER BY seq DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*ledgermodels.Entry
	for rows.Next() {
		var e ledgermodels.Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.EventType, &e.RewardAmount, &e.BalanceAfter, &e.IdempotencyKey, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// ListRedemptions returns a user's redemption requests, newest first.
func (db *DB) ListRedemptions(ctx context.Context, userID string) ([]*ledgermodels.Redemption, error) {
	rows, err := db.Client.Query(ctx, `
		SELECT id, user_id, amount, reward_type, status, created_at, fulfilled_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []*ledgermodels.Redemption
	for rows.Next() {
		var r ledgermodels.Redemption
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.RewardType, &r.Status, &r.CreatedAt, &r.FulfilledAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, &r)
	}
	return redemptions, rows.Err()
}

// ListPendingRedemptions returns all pending redemptions across users,
// oldest first, for the admin fulfillment queue.
func (db *DB) ListPendingRedemptions(ctx context.Context) ([]*ledgermodels.Redemption, error) {
	rows, err := db.Client.Query(ctx, `
		SELECT id, user_id, amount, reward_type, status, created_at, fulfilled_at
		FROM redemptions
		WHERE status = 'pending'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var redemptions []*ledgermodels.Redemption
	for rows.Next() {
		var r ledgermodels.Redemption
		if err := rows.Scan(&r.ID, &r.UserID, &r.Amount, &r.RewardType, &r.Status, &r.CreatedAt, &r.FulfilledAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, &r)
	}
	return redemptions, rows.Err()
}
