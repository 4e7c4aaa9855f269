package ledger

import "time"

const ActivityTableName = "activity_events"

// ActivityEvent is an append-only audit record. Traction events are activity
// rows whose EventType is one of TractionEventTypes.
type ActivityEvent struct {
	ID          string            `json:"id"`
	ProjectID   string            `json:"project_id,omitempty"`
	UserID      string            `json:"user_id"`
	EventType   EventType         `json:"event_type"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	CreatedAt   time.Time         `json:"created_at"`
}
