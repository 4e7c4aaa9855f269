// Package rewards computes the pineapple amount a qualifying event earns.
// The policy is pure: given the same event and the same prompt-window count
// it always produces the same amount, and it performs no writes.
package rewards

import (
	"context"
	"fmt"
	"time"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// Fixed reward configuration. Not tunable per request.
const (
	// PromptCapPerHour is the maximum number of rewarded prompt events per
	// project in any trailing 60-minute window. The prompt itself still
	// happens when the cap is hit; only the reward is suppressed.
	PromptCapPerHour = 60

	// PromptWindow is the trailing window the cap is evaluated over.
	PromptWindow = time.Hour

	// TagBonus is added on top of the base amount when a prompt carries one
	// of the qualifying tags.
	TagBonus = 1
)

// BaseAmounts is the fixed per-event-type reward table.
var BaseAmounts = map[ledgermodels.EventType]int64{
	ledgermodels.EventPrompt:         1,
	ledgermodels.EventLinkLinkedIn:   5,
	ledgermodels.EventLinkGitHub:     5,
	ledgermodels.EventLinkWebsite:    3,
	ledgermodels.EventFeatureShipped: 3,
	ledgermodels.EventCustomerAdded:  5,
	ledgermodels.EventRevenueLogged:  10,
}

// bonusTags are the tags signaling higher-value prompt content.
var bonusTags = map[string]bool{
	"feature":  true,
	"customer": true,
	"revenue":  true,
}

// PromptCounter reports how many prompt-type ledger entries a project has
// accumulated since the given time. The reward ledger store implements it.
type PromptCounter interface {
	CountPromptEntries(ctx context.Context, projectID string, since time.Time) (int, error)
}

// Policy maps (event type, context) to a reward amount.
type Policy struct {
	counter PromptCounter
}

// NewPolicy returns a Policy backed by the given prompt-window counter.
func NewPolicy(counter PromptCounter) *Policy {
	return &Policy{counter: counter}
}

// Compute returns the reward amount for an event. For prompt events the
// per-project hourly cap applies: once the trailing window holds
// PromptCapPerHour prompt entries the amount is forced to zero, tag bonus
// included. Zero means the event earns nothing and no ledger entry is written.
func (p *Policy) Compute(ctx context.Context, eventType ledgermodels.EventType, projectID, tag string) (int64, error) {
	amount := BaseAmounts[eventType]

	if eventType != ledgermodels.EventPrompt {
		return amount, nil
	}

	if tag != "" && bonusTags[tag] {
		amount += TagBonus
	}

	count, err := p.counter.CountPromptEntries(ctx, projectID, time.Now().Add(-PromptWindow))
	if err != nil {
		return 0, fmt.Errorf("count prompt entries for project %s: %w", projectID, err)
	}
	if count >= PromptCapPerHour {
		return 0, nil
	}

	return amount, nil
}
