package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

type fakeCounter struct {
	count int
	err   error
	since time.Time
}

func (f *fakeCounter) CountPromptEntries(_ context.Context, _ string, since time.Time) (int, error) {
	f.since = since
	return f.count, f.err
}

func TestComputeBaseAmounts(t *testing.T) {
	policy := NewPolicy(&fakeCounter{})
	ctx := context.Background()

	tests := []struct {
		name      string
		eventType ledgermodels.EventType
		expected  int64
	}{
		{name: "linkedin link", eventType: ledgermodels.EventLinkLinkedIn, expected: 5},
		{name: "github link", eventType: ledgermodels.EventLinkGitHub, expected: 5},
		{name: "website link", eventType: ledgermodels.EventLinkWebsite, expected: 3},
		{name: "feature shipped", eventType: ledgermodels.EventFeatureShipped, expected: 3},
		{name: "customer added", eventType: ledgermodels.EventCustomerAdded, expected: 5},
		{name: "revenue logged", eventType: ledgermodels.EventRevenueLogged, expected: 10},
		{name: "unknown event earns nothing", eventType: ledgermodels.EventType("bogus"), expected: 0},
		{name: "activity-only event earns nothing", eventType: ledgermodels.EventRewardEarned, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amount, err := policy.Compute(ctx, tt.eventType, "proj-1", "")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount)
		})
	}
}

func TestComputePromptUnderCap(t *testing.T) {
	policy := NewPolicy(&fakeCounter{count: 10})

	amount, err := policy.Compute(context.Background(), ledgermodels.EventPrompt, "proj-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(1), amount)
}

func TestComputePromptTagBonus(t *testing.T) {
	policy := NewPolicy(&fakeCounter{count: 0})
	ctx := context.Background()

	tests := []struct {
		tag      string
		expected int64
	}{
		{tag: "feature", expected: 2},
		{tag: "customer", expected: 2},
		{tag: "revenue", expected: 2},
		{tag: "ask", expected: 1},
		{tag: "general", expected: 1},
		{tag: "", expected: 1},
	}

	for _, tt := range tests {
		t.Run("tag "+tt.tag, func(t *testing.T) {
			amount, err := policy.Compute(ctx, ledgermodels.EventPrompt, "proj-1", tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, amount)
		})
	}
}

func TestComputePromptAtCap(t *testing.T) {
	policy := NewPolicy(&fakeCounter{count: PromptCapPerHour})

	amount, err := policy.Compute(context.Background(), ledgermodels.EventPrompt, "proj-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)

	// Tag bonus does not bypass the cap.
	amount, err = policy.Compute(context.Background(), ledgermodels.EventPrompt, "proj-1", "feature")
	require.NoError(t, err)
	assert.Equal(t, int64(0), amount)
}

func TestComputePromptWindow(t *testing.T) {
	counter := &fakeCounter{count: 0}
	policy := NewPolicy(counter)

	before := time.Now().Add(-PromptWindow)
	_, err := policy.Compute(context.Background(), ledgermodels.EventPrompt, "proj-1", "")
	require.NoError(t, err)
	after := time.Now().Add(-PromptWindow)

	assert.False(t, counter.since.Before(before))
	assert.False(t, counter.since.After(after))
}

func TestComputePromptCounterError(t *testing.T) {
	policy := NewPolicy(&fakeCounter{err: errors.New("store down")})

	_, err := policy.Compute(context.Background(), ledgermodels.EventPrompt, "proj-1", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store down")
}

func TestComputeNonPromptSkipsCounter(t *testing.T) {
	// Counter errors must not affect non-prompt events; the cap only gates
	// prompt rewards.
	policy := NewPolicy(&fakeCounter{err: errors.New("store down")})

	amount, err := policy.Compute(context.Background(), ledgermodels.EventLinkGitHub, "proj-1", "")
	require.NoError(t, err)
	assert.Equal(t, int64(5), amount)
}
