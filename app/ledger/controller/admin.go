package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// HandleLogin authenticates the admin operator and issues a session cookie.
// Regular user sessions are minted upstream with the shared SESSION_SECRET.
func (c *Controller) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.Username != c.AdminUser {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := bcrypt.CompareHashAndPassword(c.AdminHash, []byte(in.Password)); err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	c.IssueSession(w, in.Username, "admin")
	respondJSON(w, http.StatusOK, map[string]string{"ok": "1"})
}

// HandleLogout clears the session cookie.
func (c *Controller) HandleLogout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleListPendingRedemptions returns the fulfillment queue, oldest first.
func (c *Controller) HandleListPendingRedemptions(w http.ResponseWriter, r *http.Request) {
	redemptions, err := c.App.DB.ListPendingRedemptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list redemptions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"redemptions": redemptions})
}

// HandleResolveRedemption transitions a pending redemption to fulfilled or
// failed, exactly once. Replays and double-resolves get a conflict.
func (c *Controller) HandleResolveRedemption(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.Status != ledgermodels.RedemptionStatusFulfilled && in.Status != ledgermodels.RedemptionStatusFailed {
		respondError(w, http.StatusBadRequest, "status must be fulfilled or failed")
		return
	}

	err := c.App.DB.ResolveRedemption(r.Context(), in.ID, in.Status)
	switch {
	case errors.Is(err, ledgermodels.ErrNotFound):
		respondError(w, http.StatusNotFound, "redemption not found")
	case errors.Is(err, ledgermodels.ErrAlreadyResolved):
		respondError(w, http.StatusConflict, "redemption already resolved")
	case err != nil:
		respondError(w, http.StatusInternalServerError, "failed to resolve redemption")
	default:
		respondJSON(w, http.StatusOK, map[string]string{"id": in.ID, "status": in.Status})
	}
}
