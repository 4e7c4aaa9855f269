package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// GetProject loads a project's progress state.
func (db *DB) GetProject(ctx context.Context, projectID string) (*ledgermodels.Project, error) {
	row := db.Client.QueryRow(ctx, `
		SELECT id, owner_id, name, progress_score, valuation_low, valuation_high, created_at, updated_at
		FROM projects WHERE id = $1
	`, projectID)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledgermodels.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// GetProjectOwned loads a project only when owned by the given user.
// Anything else, including a project owned by someone else, is ErrNotFound;
// callers must not learn whether a foreign project exists.
func (db *DB) GetProjectOwned(ctx context.Context, projectID, ownerID string) (*ledgermodels.Project, error) {
	row := db.Client.QueryRow(ctx, `
		SELECT id, owner_id, name, progress_score, valuation_low, valuation_high, created_at, updated_at
		FROM projects WHERE id = $1 AND owner_id = $2
	`, projectID, ownerID)
	p, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledgermodels.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

// CreateProject inserts a new project with zeroed progress and valuation.
func (db *DB) CreateProject(ctx context.Context, p *ledgermodels.Project) error {
	now := time.Now().UTC()
	return db.Client.Exec(ctx, `
		INSERT INTO projects (id, owner_id, name, progress_score, valuation_low, valuation_high, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
	`, p.ID, p.OwnerID, p.Name, p.ProgressScore, p.ValuationLow, p.ValuationHigh, now)
}

// SetProgressScore writes the progress score for a project.
func (db *DB) SetProgressScore(ctx context.Context, projectID string, score int) error {
	return db.Client.Exec(ctx, `
		UPDATE projects SET progress_score = $2, updated_at = now() WHERE id = $1
	`, projectID, score)
}

// SetValuation writes both valuation bounds for a project.
func (db *DB) SetValuation(ctx context.Context, projectID string, low, high int64) error {
	if high < low || low < 0 {
		return fmt.Errorf("%w: valuation range %d-%d", ledgermodels.ErrInvalidAmount, low, high)
	}
	return db.Client.Exec(ctx, `
		UPDATE projects SET valuation_low = $2, valuation_high = $3, updated_at = now() WHERE id = $1
	`, projectID, low, high)
}

func scanProject(row pgx.Row) (*ledgermodels.Project, error) {
	var p ledgermodels.Project
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.ProgressScore, &p.ValuationLow, &p.ValuationHigh, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
