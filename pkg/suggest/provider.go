// Package suggest defines the advisory suggestion boundary. A provider looks
// at project context plus the latest message and proposes a reply, an intent
// classification, and a business update. Providers never surface failures:
// any error collapses to the neutral suggestion and the chat turn proceeds.
package suggest

import (
	"context"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// Valuation adjustment directions.
const (
	AdjustUp   = "up"
	AdjustDown = "down"
	AdjustNone = "none"
)

// BusinessUpdate is the advisory state-change proposal attached to a
// suggestion. ValuationLow/High are pointers so "omitted" is distinguishable
// from zero; both must be present for an explicit range to apply.
type BusinessUpdate struct {
	ProgressDelta       int    `json:"progress_delta"`
	TractionSignal      string `json:"traction_signal,omitempty"`
	ValuationAdjustment string `json:"valuation_adjustment"`
	ValuationLow        *int64 `json:"valuation_low,omitempty"`
	ValuationHigh       *int64 `json:"valuation_high,omitempty"`
}

// Suggestion is the full advisory output for one chat turn.
type Suggestion struct {
	Reply          string              `json:"reply"`
	Intent         ledgermodels.Intent `json:"intent"`
	BusinessUpdate BusinessUpdate      `json:"business_update"`
}

// Neutral returns the no-op suggestion substituted on any provider failure.
// Applying it changes nothing: zero delta, no traction, no valuation change.
func Neutral() Suggestion {
	return Suggestion{
		Reply:  "I couldn't process that right now. Your update has been saved.",
		Intent: ledgermodels.IntentGeneral,
		BusinessUpdate: BusinessUpdate{
			ProgressDelta:       0,
			ValuationAdjustment: AdjustNone,
		},
	}
}

// TurnContext is the input handed to a provider for one chat turn.
type TurnContext struct {
	Project        *ledgermodels.Project
	RecentMessages []Message
	Message        string
}

// Message is one prior chat message, oldest first.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider produces an advisory suggestion for a chat turn.
//
// Implementations must be failure-absorbing: Suggest returns a usable
// Suggestion in every case, falling back to Neutral() when the underlying
// call errors, times out, or returns malformed data. The error return is for
// logging only; callers proceed with the suggestion regardless.
type Provider interface {
	Suggest(ctx context.Context, turn TurnContext) (Suggestion, error)
}

// NoopProvider always returns the neutral suggestion. Used when no API key
// is configured, and as the test double.
type NoopProvider struct{}

func (NoopProvider) Suggest(_ context.Context, _ TurnContext) (Suggestion, error) {
	return Neutral(), nil
}

// sanitize enforces the advisory contract on parsed provider output so that
// downstream merge logic only ever sees well-formed values.
func sanitize(s Suggestion) Suggestion {
	if s.Reply == "" {
		s.Reply = Neutral().Reply
	}
	switch s.Intent {
	case ledgermodels.IntentFeature, ledgermodels.IntentCustomer, ledgermodels.IntentRevenue, ledgermodels.IntentAsk, ledgermodels.IntentGeneral:
	default:
		s.Intent = ledgermodels.IntentGeneral
	}
	if s.BusinessUpdate.ProgressDelta < 0 {
		s.BusinessUpdate.ProgressDelta = 0
	}
	if s.BusinessUpdate.ProgressDelta > 5 {
		s.BusinessUpdate.ProgressDelta = 5
	}
	switch s.BusinessUpdate.ValuationAdjustment {
	case AdjustUp, AdjustDown, AdjustNone:
	default:
		s.BusinessUpdate.ValuationAdjustment = AdjustNone
	}
	return s
}
