package controller

import (
	"encoding/json"
	"fmt"
	"net/http"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// HandleCredit awards pineapples for a qualifying event. Safe to retry:
// the idempotency key makes replays return the original outcome.
func (c *Controller) HandleCredit(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	var in struct {
		ProjectID      string `json:"project_id"`
		EventType      string `json:"event_type"`
		IdempotencyKey string `json:"idempotency_key"`
		Tag            string `json:"tag"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.EventType == "" || in.IdempotencyKey == "" {
		respondError(w, http.StatusBadRequest, "event_type and idempotency_key are required")
		return
	}
	// Prompt rewards are capped per project and hour; without a project the
	// cap has nothing to count against.
	if ledgermodels.EventType(in.EventType) == ledgermodels.EventPrompt && in.ProjectID == "" {
		respondError(w, http.StatusBadRequest, "project_id is required for prompt rewards")
		return
	}

	result, err := c.App.DB.Credit(r.Context(), userID, in.ProjectID, ledgermodels.EventType(in.EventType), in.IdempotencyKey, in.Tag)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to credit reward")
		return
	}

	if result.Rewarded && result.Amount > 0 {
		c.App.Emitter.Emit(&ledgermodels.ActivityEvent{
			ProjectID:   in.ProjectID,
			UserID:      userID,
			EventType:   ledgermodels.EventRewardEarned,
			Description: fmt.Sprintf("Earned %d pineapples for %s", result.Amount, in.EventType),
			Metadata:    map[string]string{"source_event": in.EventType},
		})
	}

	respondJSON(w, http.StatusOK, result)
}
