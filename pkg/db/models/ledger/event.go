package ledger

// EventType is the business reason for a balance-changing or activity event.
type EventType string

const (
	// Reward-bearing events (appear in the reward ledger).
	EventPrompt         EventType = "prompt"
	EventLinkLinkedIn   EventType = "link_linkedin"
	EventLinkGitHub     EventType = "link_github"
	EventLinkWebsite    EventType = "link_website"
	EventFeatureShipped EventType = "feature_shipped"
	EventCustomerAdded  EventType = "customer_added"
	EventRevenueLogged  EventType = "revenue_logged"
	EventRewardRedeemed EventType = "reward_redeemed"

	// Activity-only events (audit trail, never credited).
	EventProjectCreated EventType = "project_created"
	EventUpdate         EventType = "update"
	EventRewardEarned   EventType = "reward_earned"
)

// TractionEventTypes are the activity event types that count as traction
// signals for a project.
var TractionEventTypes = []EventType{
	EventFeatureShipped,
	EventCustomerAdded,
	EventRevenueLogged,
}

// IsTraction reports whether t is a traction signal type.
func IsTraction(t EventType) bool {
	for _, tt := range TractionEventTypes {
		if t == tt {
			return true
		}
	}
	return false
}

// Intent is the classified intent of a chat message, produced by the
// advisory suggestion provider.
type Intent string

const (
	IntentFeature  Intent = "feature"
	IntentCustomer Intent = "customer"
	IntentRevenue  Intent = "revenue"
	IntentAsk      Intent = "ask"
	IntentGeneral  Intent = "general"
)

// TractionEventType maps a classified intent to the traction event type
// recorded when a positive progress update carries a traction signal.
func TractionEventType(intent Intent) EventType {
	switch intent {
	case IntentFeature:
		return EventFeatureShipped
	case IntentCustomer:
		return EventCustomerAdded
	case IntentRevenue:
		return EventRevenueLogged
	default:
		return EventUpdate
	}
}
