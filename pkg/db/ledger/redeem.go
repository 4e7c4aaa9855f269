package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"go.uber.org/zap"
)

// Redeem converts balance into a pending redemption request. The balance
// re-read, threshold check, debit, debit ledger entry, and redemption row
// all commit in one transaction; two redemptions racing the same balance
// serialize on the row lock and the loser sees the reduced balance. Either
// the returned id is valid and balance dropped by exactly amount, or
// nothing changed.
func (db *DB) Redeem(ctx context.Context, userID string, amount int64, rewardType string) (string, error) {
	if amount < ledgermodels.MinRedemptionAmount {
		return "", fmt.Errorf("%w: amount must be at least %d", ledgermodels.ErrInvalidAmount, ledgermodels.MinRedemptionAmount)
	}

	redemptionID := uuid.NewString()
	now := time.Now().UTC()

	txErr := db.Client.BeginFunc(ctx, func(tx pgx.Tx) error {
		txCtx := db.Client.WithTx(ctx, tx)

		balance, err := db.lockBalance(txCtx, userID)
		if err != nil {
			return err
		}
		if amount > balance {
			return ledgermodels.ErrInsufficientBalance
		}
		balanceAfter := balance - amount

		if err := db.setBalance(txCtx, userID, balanceAfter); err != nil {
			return fmt.Errorf("debit balance: %w", err)
		}

		entry := &ledgermodels.Entry{
			ID:           uuid.NewString(),
			UserID:       userID,
			EventType:    ledgermodels.EventRewardRedeemed,
			RewardAmount: -amount,
			BalanceAfter: balanceAfter,
			// One debit entry per redemption; the redemption id makes the key unique.
			IdempotencyKey: "redeem-" + redemptionID,
			CreatedAt:      now,
		}
		if err := db.insertEntry(txCtx, entry); err != nil {
			return fmt.Errorf("insert debit entry: %w", err)
		}

		if err := db.Client.Exec(txCtx, `
			INSERT INTO redemptions (id, user_id, amount, reward_type, status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, redemptionID, userID, amount, rewardType, ledgermodels.RedemptionStatusPending, now); err != nil {
			return fmt.Errorf("insert redemption: %w", err)
		}

		return nil
	})

	if txErr != nil {
		return "", txErr
	}

	db.Logger.Info("Redemption created",
		zap.String("user_id", userID),
		zap.String("redemption_id", redemptionID),
		zap.Int64("amount", amount),
		zap.String("reward_type", rewardType))

	return redemptionID, nil
}

// ResolveRedemption transitions a pending redemption to fulfilled or
// failed, exactly once. A redemption that already left pending returns
// ErrAlreadyResolved.
func (db *DB) ResolveRedemption(ctx context.Context, redemptionID, status string) error {
	if status != ledgermodels.RedemptionStatusFulfilled && status != ledgermodels.RedemptionStatusFailed {
		return fmt.Errorf("%w: status must be fulfilled or failed", ledgermodels.ErrInvalidAmount)
	}

	var fulfilledAt any
	if status == ledgermodels.RedemptionStatusFulfilled {
		fulfilledAt = time.Now().UTC()
	}

	tag, err := db.Client.GetExecutor(ctx).Exec(ctx, `
		UPDATE redemptions SET status = $2, fulfilled_at = $3
		WHERE id = $1 AND status = $4
	`, redemptionID, status, fulfilledAt, ledgermodels.RedemptionStatusPending)
	if err != nil {
		return fmt.Errorf("resolve redemption %s: %w", redemptionID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.Client.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM redemptions WHERE id = $1)
		`, redemptionID).Scan(&exists); err != nil {
			return fmt.Errorf("check redemption %s: %w", redemptionID, err)
		}
		if !exists {
			return ledgermodels.ErrNotFound
		}
		return ledgermodels.ErrAlreadyResolved
	}
	return nil
}

// RedemptionByID returns a single redemption.
func (db *DB) RedemptionByID(ctx context.Context, redemptionID string) (*ledgermodels.Redemption, error) {
	var r ledgermodels.Redemption
	err := db.Client.QueryRow(ctx, `
		SELECT id, user_id, amount, reward_type, status, created_at, fulfilled_at
		FROM redemptions WHERE id = $1
	`, redemptionID).Scan(&r.ID, &r.UserID, &r.Amount, &r.RewardType, &r.Status, &r.CreatedAt, &r.FulfilledAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}
