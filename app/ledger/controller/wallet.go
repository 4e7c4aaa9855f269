package controller

import (
	"net/http"
	"strconv"
)

// HandleWalletBalance returns the acting user's current balance.
func (c *Controller) HandleWalletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := c.App.DB.GetBalance(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read balance")
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"balance": balance})
}

// HandleWalletLedger returns the acting user's reward history, newest first.
func (c *Controller) HandleWalletLedger(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	entries, err := c.App.DB.ListLedgerEntries(r.Context(), currentUser(r), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read ledger")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// HandleWalletRedemptions returns the acting user's redemption requests.
func (c *Controller) HandleWalletRedemptions(w http.ResponseWriter, r *http.Request) {
	redemptions, err := c.App.DB.ListRedemptions(r.Context(), currentUser(r))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read redemptions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"redemptions": redemptions})
}
