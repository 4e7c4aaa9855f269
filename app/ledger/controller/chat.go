package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/suggest"
)

// HandleChatTurn runs one founder chat turn: rate check, advisory
// suggestion, prompt reward, progress/valuation merge. The suggestion is
// advisory end to end; a dead provider or a failed reward still produces a
// usable turn.
func (c *Controller) HandleChatTurn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := currentUser(r)

	var in struct {
		ProjectID      string            `json:"project_id"`
		MessageID      string            `json:"message_id"`
		Message        string            `json:"message"`
		Tag            string            `json:"tag"`
		RecentMessages []suggest.Message `json:"recent_messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.ProjectID == "" || in.Message == "" {
		respondError(w, http.StatusBadRequest, "project_id and message required")
		return
	}
	if in.MessageID == "" {
		in.MessageID = uuid.NewString()
	}

	rl, err := c.App.Limiter.Check(ctx, userID)
	if err != nil {
		c.App.Logger.Error("Rate limit check failed", zap.String("user_id", userID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "rate limit check failed")
		return
	}
	if !rl.OK {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", rl.RetryAfter))
		respondJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "rate limited",
			"retry_after": rl.RetryAfter,
		})
		return
	}

	project, err := c.App.DB.GetProjectOwned(ctx, in.ProjectID, userID)
	if err != nil {
		if errors.Is(err, ledgermodels.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	suggestion, suggestErr := c.App.Provider.Suggest(ctx, suggest.TurnContext{
		Project:        project,
		RecentMessages: in.RecentMessages,
		Message:        in.Message,
	})
	if suggestErr != nil {
		// advisory only; the neutral suggestion came back with the error
		c.App.Logger.Warn("Suggestion provider failed",
			zap.String("project_id", in.ProjectID),
			zap.Error(suggestErr))
	}

	description := truncateRunes(in.Message, 200)
	c.App.Emitter.Emit(&ledgermodels.ActivityEvent{
		ProjectID:   in.ProjectID,
		UserID:      userID,
		EventType:   ledgermodels.EventPrompt,
		Description: description,
	})

	var pineapplesEarned int64
	creditResult, creditErr := c.App.DB.Credit(ctx, userID, in.ProjectID, ledgermodels.EventPrompt, in.MessageID+"-prompt", in.Tag)
	if creditErr != nil {
		// Reward failure must not fail the turn.
		c.App.Logger.Warn("Prompt reward failed",
			zap.String("project_id", in.ProjectID),
			zap.Error(creditErr))
	} else if creditResult.Rewarded {
		pineapplesEarned = creditResult.Amount
	}

	updated, applyErr := c.App.Updater.Apply(ctx, in.ProjectID, userID, suggestion)
	if applyErr != nil {
		// The reply is still worth delivering with stale project state.
		c.App.Logger.Error("Failed to apply progress update",
			zap.String("project_id", in.ProjectID),
			zap.Error(applyErr))
		updated = project
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message_id":        in.MessageID,
		"reply":             suggestion.Reply,
		"intent":            suggestion.Intent,
		"pineapples_earned": pineapplesEarned,
		"project": map[string]any{
			"id":             updated.ID,
			"progress_score": updated.ProgressScore,
			"valuation_low":  updated.ValuationLow,
			"valuation_high": updated.ValuationHigh,
		},
	})
}

// truncateRunes shortens s to at most max runes without splitting a
// multi-byte character.
func truncateRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
