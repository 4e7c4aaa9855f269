package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"github.com/vamo-hq/ledgerx/pkg/utils"
)

// HandleRedeem converts balance into a pending redemption request.
func (c *Controller) HandleRedeem(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	var in struct {
		Amount     int64  `json:"amount"`
		RewardType string `json:"reward_type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.RewardType == "" {
		in.RewardType = utils.Env("DEFAULT_REWARD_TYPE", "uber_eats")
	}

	redemptionID, err := c.App.DB.Redeem(r.Context(), userID, in.Amount, in.RewardType)
	switch {
	case errors.Is(err, ledgermodels.ErrInvalidAmount):
		respondError(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, ledgermodels.ErrInsufficientBalance):
		respondError(w, http.StatusBadRequest, "insufficient balance")
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to redeem")
		return
	}

	balance, err := c.App.DB.GetBalance(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read balance")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"redemption_id": redemptionID,
		"new_balance":   balance,
	})
}
