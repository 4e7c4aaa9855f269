package progress

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/suggest"
	"go.uber.org/zap"
)

func i64(v int64) *int64 { return &v }

func project(score int, low, high int64) *ledgermodels.Project {
	return &ledgermodels.Project{
		ID:            "proj-1",
		OwnerID:       "user-1",
		Name:          "Acme",
		ProgressScore: score,
		ValuationLow:  low,
		ValuationHigh: high,
	}
}

func TestMergeClampsDelta(t *testing.T) {
	tests := []struct {
		name          string
		startScore    int
		delta         int
		expectedDelta int
		expectedScore int
	}{
		{name: "normal add", startScore: 40, delta: 3, expectedDelta: 3, expectedScore: 43},
		{name: "delta above max is clamped to 5", startScore: 97, delta: 9, expectedDelta: 5, expectedScore: 100},
		{name: "score ceiling at 100", startScore: 98, delta: 5, expectedDelta: 5, expectedScore: 100},
		{name: "negative delta treated as zero", startScore: 40, delta: -3, expectedDelta: 0, expectedScore: 40},
		{name: "zero delta leaves score", startScore: 40, delta: 0, expectedDelta: 0, expectedScore: 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := suggest.Suggestion{
				Intent: ledgermodels.IntentGeneral,
				BusinessUpdate: suggest.BusinessUpdate{
					ProgressDelta:       tt.delta,
					ValuationAdjustment: suggest.AdjustNone,
				},
			}
			m := MergeSuggestion(project(tt.startScore, 0, 0), "user-1", s)
			assert.Equal(t, tt.expectedDelta, m.Delta)
			assert.Equal(t, tt.expectedScore, m.NewProgressScore)
			assert.Equal(t, tt.expectedDelta > 0, m.ProgressChanged)
		})
	}
}

func TestMergeTractionEvent(t *testing.T) {
	tests := []struct {
		name         string
		intent       ledgermodels.Intent
		delta        int
		signal       string
		expectEvent  bool
		expectedType ledgermodels.EventType
	}{
		{name: "feature intent", intent: ledgermodels.IntentFeature, delta: 3, signal: "shipped onboarding", expectEvent: true, expectedType: ledgermodels.EventFeatureShipped},
		{name: "customer intent", intent: ledgermodels.IntentCustomer, delta: 2, signal: "10 signups", expectEvent: true, expectedType: ledgermodels.EventCustomerAdded},
		{name: "revenue intent", intent: ledgermodels.IntentRevenue, delta: 4, signal: "first paid plan", expectEvent: true, expectedType: ledgermodels.EventRevenueLogged},
		{name: "general intent maps to update", intent: ledgermodels.IntentGeneral, delta: 1, signal: "progress", expectEvent: true, expectedType: ledgermodels.EventUpdate},
		{name: "no signal means no event", intent: ledgermodels.IntentFeature, delta: 3, signal: "", expectEvent: false},
		{name: "zero delta suppresses event even with signal", intent: ledgermodels.IntentFeature, delta: 0, signal: "shipped", expectEvent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := suggest.Suggestion{
				Intent: tt.intent,
				BusinessUpdate: suggest.BusinessUpdate{
					ProgressDelta:       tt.delta,
					TractionSignal:      tt.signal,
					ValuationAdjustment: suggest.AdjustNone,
				},
			}
			m := MergeSuggestion(project(40, 0, 0), "user-1", s)
			if !tt.expectEvent {
				assert.Nil(t, m.TractionEvent)
				return
			}
			require.NotNil(t, m.TractionEvent)
			assert.Equal(t, tt.expectedType, m.TractionEvent.EventType)
			assert.Equal(t, tt.signal, m.TractionEvent.Description)
			assert.Equal(t, "proj-1", m.TractionEvent.ProjectID)
		})
	}
}

func TestMergeValuationPrecedence(t *testing.T) {
	// An explicit range wins over a directional adjustment in the same update.
	s := suggest.Suggestion{
		Intent: ledgermodels.IntentRevenue,
		BusinessUpdate: suggest.BusinessUpdate{
			ProgressDelta:       2,
			ValuationAdjustment: suggest.AdjustUp,
			ValuationLow:        i64(5000),
			ValuationHigh:       i64(15000),
		},
	}
	m := MergeSuggestion(project(40, 1000, 2000), "user-1", s)
	assert.True(t, m.ValuationChanged)
	assert.Equal(t, int64(5000), m.NewValuationLow)
	assert.Equal(t, int64(15000), m.NewValuationHigh)
}

func TestMergeValuationScaling(t *testing.T) {
	tests := []struct {
		name         string
		adjustment   string
		low, high    int64
		expectChange bool
		expLow       int64
		expHigh      int64
	}{
		{name: "scale up", adjustment: suggest.AdjustUp, low: 1000, high: 2000, expectChange: true, expLow: 1100, expHigh: 2200},
		{name: "scale down", adjustment: suggest.AdjustDown, low: 1000, high: 2000, expectChange: true, expLow: 900, expHigh: 1800},
		{name: "unestimated project ignores adjustment", adjustment: suggest.AdjustUp, low: 0, high: 0, expectChange: false},
		{name: "none leaves valuation", adjustment: suggest.AdjustNone, low: 1000, high: 2000, expectChange: false},
		{name: "rounding keeps high at or above low", adjustment: suggest.AdjustDown, low: 1, high: 1, expectChange: true, expLow: 1, expHigh: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := suggest.Suggestion{
				Intent: ledgermodels.IntentGeneral,
				BusinessUpdate: suggest.BusinessUpdate{
					ValuationAdjustment: tt.adjustment,
				},
			}
			m := MergeSuggestion(project(40, tt.low, tt.high), "user-1", s)
			assert.Equal(t, tt.expectChange, m.ValuationChanged)
			if tt.expectChange {
				assert.Equal(t, tt.expLow, m.NewValuationLow)
				assert.Equal(t, tt.expHigh, m.NewValuationHigh)
				assert.GreaterOrEqual(t, m.NewValuationHigh, m.NewValuationLow)
			} else {
				assert.Equal(t, tt.low, m.NewValuationLow)
				assert.Equal(t, tt.high, m.NewValuationHigh)
			}
		})
	}
}

func TestMergeInconsistentExplicitRangeIgnored(t *testing.T) {
	// high < low is not an explicit range; fall through to the adjustment.
	s := suggest.Suggestion{
		Intent: ledgermodels.IntentGeneral,
		BusinessUpdate: suggest.BusinessUpdate{
			ValuationAdjustment: suggest.AdjustUp,
			ValuationLow:        i64(15000),
			ValuationHigh:       i64(5000),
		},
	}
	m := MergeSuggestion(project(40, 1000, 2000), "user-1", s)
	assert.True(t, m.ValuationChanged)
	assert.Equal(t, int64(1100), m.NewValuationLow)
	assert.Equal(t, int64(2200), m.NewValuationHigh)
}

func TestMergeNeutralSuggestionIsNoOp(t *testing.T) {
	m := MergeSuggestion(project(40, 1000, 2000), "user-1", suggest.Neutral())
	assert.False(t, m.ProgressChanged)
	assert.False(t, m.ValuationChanged)
	assert.Nil(t, m.TractionEvent)
	assert.Equal(t, 40, m.NewProgressScore)
	assert.Equal(t, int64(1000), m.NewValuationLow)
	assert.Equal(t, int64(2000), m.NewValuationHigh)
}

// fakeStore implements Store in memory for Apply tests.
type fakeStore struct {
	project *ledgermodels.Project
	events  []*ledgermodels.ActivityEvent

	eventErr error
}

func (f *fakeStore) GetProject(_ context.Context, projectID string) (*ledgermodels.Project, error) {
	if f.project == nil || f.project.ID != projectID {
		return nil, ledgermodels.ErrNotFound
	}
	cp := *f.project
	return &cp, nil
}

func (f *fakeStore) SetProgressScore(_ context.Context, _ string, score int) error {
	f.project.ProgressScore = score
	return nil
}

func (f *fakeStore) SetValuation(_ context.Context, _ string, low, high int64) error {
	f.project.ValuationLow = low
	f.project.ValuationHigh = high
	return nil
}

func (f *fakeStore) InsertActivityEvent(_ context.Context, e *ledgermodels.ActivityEvent) error {
	if f.eventErr != nil {
		return f.eventErr
	}
	f.events = append(f.events, e)
	return nil
}

func TestApplyProgressAndTraction(t *testing.T) {
	store := &fakeStore{project: project(40, 0, 0)}
	u := NewUpdater(store, zap.NewNop())

	s := suggest.Suggestion{
		Intent: ledgermodels.IntentCustomer,
		BusinessUpdate: suggest.BusinessUpdate{
			ProgressDelta:       3,
			TractionSignal:      "10 signups",
			ValuationAdjustment: suggest.AdjustNone,
		},
	}

	updated, err := u.Apply(context.Background(), "proj-1", "user-1", s)
	require.NoError(t, err)
	assert.Equal(t, 43, updated.ProgressScore)
	assert.Equal(t, int64(0), updated.ValuationLow)
	assert.Equal(t, int64(0), updated.ValuationHigh)
	require.Len(t, store.events, 1)
	assert.Equal(t, ledgermodels.EventCustomerAdded, store.events[0].EventType)
	assert.Equal(t, "10 signups", store.events[0].Description)
}

func TestApplyUnknownProject(t *testing.T) {
	u := NewUpdater(&fakeStore{}, zap.NewNop())

	_, err := u.Apply(context.Background(), "proj-1", "user-1", suggest.Neutral())
	require.Error(t, err)
	assert.ErrorIs(t, err, ledgermodels.ErrNotFound)
}

func TestApplyTractionWriteFailureDoesNotFailTurn(t *testing.T) {
	store := &fakeStore{project: project(40, 0, 0), eventErr: assert.AnError}
	u := NewUpdater(store, zap.NewNop())

	s := suggest.Suggestion{
		Intent: ledgermodels.IntentFeature,
		BusinessUpdate: suggest.BusinessUpdate{
			ProgressDelta:       2,
			TractionSignal:      "shipped",
			ValuationAdjustment: suggest.AdjustNone,
		},
	}

	updated, err := u.Apply(context.Background(), "proj-1", "user-1", s)
	require.NoError(t, err)
	assert.Equal(t, 42, updated.ProgressScore)
}
