package ledger

import (
	"context"

	"go.uber.org/zap"
)

// ReconcileBalances repairs any balance row that drifted from the ledger.
// The ledger is the source of truth: a user's balance must equal
// balance_after on their newest entry. Drift should never happen, since
// both commit in one transaction, but a periodic sweep keeps a restored
// backup or a manual fix honest. Returns the number of rows repaired.
func (db *DB) ReconcileBalances(ctx context.Context) (int64, error) {
	tag, err := db.Client.GetExecutor(ctx).Exec(ctx, `
		UPDATE balances b
		SET balance = l.balance_after
		FROM (
			SELECT DISTINCT ON (user_id) user_id, balance_after
			FROM reward_ledger
			ORDER BY user_id, seq DESC
		) l
		WHERE b.user_id = l.user_id AND b.balance <> l.balance_after
	`)
	if err != nil {
		return 0, err
	}

	repaired := tag.RowsAffected()
	if repaired > 0 {
		db.Logger.Warn("balance drift repaired from ledger", zap.Int64("rows", repaired))
	}
	return repaired, nil
}
