package ledger

import "time"

const RedemptionsTableName = "redemptions"

// MinRedemptionAmount is the smallest balance a user may redeem in one
// request. Fixed, not tunable per request.
const MinRedemptionAmount = 50

const (
	RedemptionStatusPending   = "pending"
	RedemptionStatusFulfilled = "fulfilled"
	RedemptionStatusFailed    = "failed"
)

// Redemption is a request to convert balance into an external reward. It is
// created in pending status inside the same transaction as its debit ledger
// entry, and transitions exactly once to fulfilled or failed.
type Redemption struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Amount      int64      `json:"amount"`
	RewardType  string     `json:"reward_type"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty"`
}
