package ledger

import "time"

const LedgerTableName = "reward_ledger"

// Entry is a single immutable row in the reward ledger. Entries are created
// exactly once per idempotency key and never updated or deleted. A negative
// RewardAmount is a debit (redemption).
type Entry struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	ProjectID      string    `json:"project_id,omitempty"` // empty when the event is not project-scoped
	EventType      EventType `json:"event_type"`
	RewardAmount   int64     `json:"reward_amount"`
	BalanceAfter   int64     `json:"balance_after"` // balance snapshot immediately after this entry was applied
	IdempotencyKey string    `json:"idempotency_key"`
	CreatedAt      time.Time `json:"created_at"`
}

// CreditResult is the caller-visible outcome of a credit operation. Replays
// with an already-seen idempotency key return the originally recorded values.
type CreditResult struct {
	Rewarded   bool  `json:"rewarded"`
	Amount     int64 `json:"amount"`
	NewBalance int64 `json:"newBalance"`
}
