package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

// HandleProjectState returns a project's progress and valuation state.
func (c *Controller) HandleProjectState(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	project, err := c.App.DB.GetProjectOwned(r.Context(), projectID, currentUser(r))
	if err != nil {
		if errors.Is(err, ledgermodels.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}
	respondJSON(w, http.StatusOK, project)
}

// HandleProjectTraction lists a project's traction events, newest first.
func (c *Controller) HandleProjectTraction(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["id"]

	if _, err := c.App.DB.GetProjectOwned(r.Context(), projectID, currentUser(r)); err != nil {
		if errors.Is(err, ledgermodels.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	events, err := c.App.DB.ListTractionEvents(r.Context(), projectID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list traction events")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"events": events})
}
