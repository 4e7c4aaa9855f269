package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// InsertActivityEvent appends an audit/activity row. The id and timestamp
// are filled in when absent.
func (db *DB) InsertActivityEvent(ctx context.Context, e *ledgermodels.ActivityEvent) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	metadata := []byte("{}")
	if len(e.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal activity metadata: %w", err)
		}
	}

	var projectID any
	if e.ProjectID != "" {
		projectID = e.ProjectID
	}

	return db.Client.Exec(ctx, `
		INSERT INTO activity_events (id, project_id, user_id, event_type, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, e.ID, projectID, e.UserID, e.EventType, e.Description, metadata, e.CreatedAt)
}

// ListActivityEvents returns a project's activity, newest first.
func (db *DB) ListActivityEvents(ctx context.Context, projectID string, limit int) ([]*ledgermodels.ActivityEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Client.Query(ctx, `
		SELECT id, COALESCE(project_id, ''), user_id, event_type, description, metadata, created_at
		FROM activity_events
		WHERE project_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, projectID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEvents(rows)
}

// ListTractionEvents returns a project's traction-type activity, newest first.
func (db *DB) ListTractionEvents(ctx context.Context, projectID string) ([]*ledgermodels.ActivityEvent, error) {
	rows, err := db.Client.Query(ctx, `
		SELECT id, COALESCE(project_id, ''), user_id, event_type, description, metadata, created_at
		FROM activity_events
		WHERE project_id = $1 AND event_type = ANY($2)
		ORDER BY created_at DESC
	`, projectID, tractionTypeStrings())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanActivityEvents(rows)
}

func tractionTypeStrings() []string {
	types := make([]string, 0, len(ledgermodels.TractionEventTypes))
	for _, t := range ledgermodels.TractionEventTypes {
		types = append(types, string(t))
	}
	return types
}

func scanActivityEvents(rows pgx.Rows) ([]*ledgermodels.ActivityEvent, error) {
	var events []*ledgermodels.ActivityEvent
	for rows.Next() {
		var e ledgermodels.ActivityEvent
		var metadata []byte
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.UserID, &e.EventType, &e.Description, &metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &e.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal activity metadata: %w", err)
			}
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}
