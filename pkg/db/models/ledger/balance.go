package ledger

const BalancesTableName = "balances"

// Balance is a user's current spendable pineapple total. Mutated only by the
// ledger credit path and the redemption debit path.
type Balance struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}
