package ledger

import "time"

const ProjectsTableName = "projects"

// Project holds the progress and valuation state owned by the updater.
// ProgressScore is 0..100 and only ever raised through the updater's clamped
// deltas. ValuationHigh >= ValuationLow >= 0 holds after every write.
type Project struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	Name          string    `json:"name"`
	ProgressScore int       `json:"progress_score"`
	ValuationLow  int64     `json:"valuation_low"`
	ValuationHigh int64     `json:"valuation_high"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HasValuation reports whether either valuation bound has been set. Scaling
// adjustments only apply once some valuation exists.
func (p *Project) HasValuation() bool {
	return p.ValuationLow > 0 || p.ValuationHigh > 0
}
