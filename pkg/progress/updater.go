// Package progress merges advisory business updates into project state.
// The merge is deterministic and independent of whether the advisory call
// succeeded; a failed call produces the neutral suggestion, which merges to
// a no-op.
package progress

import (
	"context"
	"fmt"
	"math"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/suggest"
	"go.uber.org/zap"
)

// Fixed merge configuration. Not tunable per request.
const (
	// MaxDeltaPerUpdate caps how much a single update may raise the progress
	// score, before the 0-100 clamp.
	MaxDeltaPerUpdate = 5

	// MaxProgressScore is the progress ceiling.
	MaxProgressScore = 100

	// Valuation scaling factors for directional adjustments.
	ValuationUpFactor   = 1.1
	ValuationDownFactor = 0.9
)

// Store is the narrow persistence surface the updater writes through. All
// writes apply only to the owning project.
type Store interface {
	GetProject(ctx context.Context, projectID string) (*ledgermodels.Project, error)
	SetProgressScore(ctx context.Context, projectID string, score int) error
	SetValuation(ctx context.Context, projectID string, low, high int64) error
	InsertActivityEvent(ctx context.Context, event *ledgermodels.ActivityEvent) error
}

// Merge is the computed outcome of applying a suggestion to a project. It is
// produced by the pure MergeSuggestion function and applied by Updater.Apply.
type Merge struct {
	Delta            int // clamped progress delta actually applied
	NewProgressScore int // score after the clamped add
	ProgressChanged  bool

	TractionEvent *ledgermodels.ActivityEvent // nil when no traction signal accompanies the delta

	ValuationChanged bool
	NewValuationLow  int64
	NewValuationHigh int64
}

// MergeSuggestion computes the deterministic merge of an advisory business
// update into the given project state, without performing any writes.
//
// Valuation precedence: an explicit, internally consistent range always wins
// over a directional adjustment in the same update; a directional adjustment
// only applies when the project already has a nonzero bound.
func MergeSuggestion(project *ledgermodels.Project, userID string, s suggest.Suggestion) Merge {
	bu := s.BusinessUpdate

	delta := bu.ProgressDelta
	if delta < 0 {
		delta = 0
	}
	if delta > MaxDeltaPerUpdate {
		delta = MaxDeltaPerUpdate
	}

	m := Merge{
		Delta:            delta,
		NewProgressScore: project.ProgressScore,
		NewValuationLow:  project.ValuationLow,
		NewValuationHigh: project.ValuationHigh,
	}

	if delta > 0 {
		score := project.ProgressScore + delta
		if score > MaxProgressScore {
			score = MaxProgressScore
		}
		m.NewProgressScore = score
		m.ProgressChanged = true

		if bu.TractionSignal != "" {
			m.TractionEvent = &ledgermodels.ActivityEvent{
				ProjectID:   project.ID,
				UserID:      userID,
				EventType:   ledgermodels.TractionEventType(s.Intent),
				Description: bu.TractionSignal,
			}
		}
	}

	hasExplicitRange := bu.ValuationLow != nil && bu.ValuationHigh != nil &&
		*bu.ValuationLow >= 0 && *bu.ValuationHigh >= *bu.ValuationLow

	switch {
	case hasExplicitRange:
		m.NewValuationLow = *bu.ValuationLow
		m.NewValuationHigh = *bu.ValuationHigh
		m.ValuationChanged = true

	case (bu.ValuationAdjustment == suggest.AdjustUp || bu.ValuationAdjustment == suggest.AdjustDown) && project.HasValuation():
		factor := ValuationUpFactor
		if bu.ValuationAdjustment == suggest.AdjustDown {
			factor = ValuationDownFactor
		}
		low := int64(math.Round(float64(project.ValuationLow) * factor))
		if low < 0 {
			low = 0
		}
		high := int64(math.Round(float64(project.ValuationHigh) * factor))
		if high < low {
			high = low
		}
		m.NewValuationLow = low
		m.NewValuationHigh = high
		m.ValuationChanged = true
	}

	return m
}

// Updater applies advisory suggestions to project state.
type Updater struct {
	store  Store
	logger *zap.Logger
}

// NewUpdater returns an Updater writing through the given store.
func NewUpdater(store Store, logger *zap.Logger) *Updater {
	return &Updater{store: store, logger: logger}
}

// Apply merges the suggestion into the project's progress and valuation
// state and returns the updated project. The writes here are independent of
// the reward ledger: a rate-capped chat turn can still advance progress, and
// a rewarded turn can leave progress untouched.
func (u *Updater) Apply(ctx context.Context, projectID, userID string, s suggest.Suggestion) (*ledgermodels.Project, error) {
	project, err := u.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load project %s: %w", projectID, err)
	}

	m := MergeSuggestion(project, userID, s)

	if m.ProgressChanged {
		if err := u.store.SetProgressScore(ctx, projectID, m.NewProgressScore); err != nil {
			return nil, fmt.Errorf("update progress score: %w", err)
		}
		project.ProgressScore = m.NewProgressScore

		if m.TractionEvent != nil {
			if err := u.store.InsertActivityEvent(ctx, m.TractionEvent); err != nil {
				// Traction events are audit data; losing one must not fail
				// the turn or roll back the progress write.
				u.logger.Warn("Failed to record traction event",
					zap.String("project_id", projectID),
					zap.Error(err))
			}
		}
	}

	if m.ValuationChanged {
		if err := u.store.SetValuation(ctx, projectID, m.NewValuationLow, m.NewValuationHigh); err != nil {
			return nil, fmt.Errorf("update valuation: %w", err)
		}
		project.ValuationLow = m.NewValuationLow
		project.ValuationHigh = m.NewValuationHigh
	}

	return project, nil
}
