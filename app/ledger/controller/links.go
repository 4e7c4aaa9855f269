package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

var linkEventTypes = map[string]ledgermodels.EventType{
	"linkedin": ledgermodels.EventLinkLinkedIn,
	"github":   ledgermodels.EventLinkGitHub,
	"website":  ledgermodels.EventLinkWebsite,
}

// validateLinkURL enforces per-slot host rules. LinkedIn and GitHub slots
// only accept their own domains; the website slot takes any http(s) URL.
func validateLinkURL(linkType, rawURL string) error {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return errors.New("URL is required")
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return errors.New("enter a valid URL (e.g. https://...)")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("URL must start with https:// or http://")
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	switch linkType {
	case "linkedin":
		if host != "linkedin.com" {
			return errors.New("LinkedIn slot only accepts linkedin.com URLs")
		}
	case "github":
		if host != "github.com" {
			return errors.New("GitHub slot only accepts github.com URLs")
		}
	case "website":
	default:
		return errors.New("invalid link type")
	}
	return nil
}

// linkIdempotencyKey makes link submissions replayable: re-linking the same
// URL to the same project never credits twice.
func linkIdempotencyKey(projectID string, eventType ledgermodels.EventType, normalizedURL string) string {
	truncated := normalizedURL
	if len(truncated) > 50 {
		truncated = truncated[:50]
	}
	return fmt.Sprintf("%s-%s-%s", projectID, eventType, truncated)
}

// HandleSubmitLink records a profile/repo/site link for a project and
// credits the one-time link reward.
func (c *Controller) HandleSubmitLink(w http.ResponseWriter, r *http.Request) {
	userID := currentUser(r)

	var in struct {
		ProjectID string `json:"project_id"`
		LinkType  string `json:"link_type"`
		URL       string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "bad json")
		return
	}
	if in.ProjectID == "" || in.LinkType == "" || in.URL == "" {
		respondError(w, http.StatusBadRequest, "project_id, link_type, url required")
		return
	}

	eventType, ok := linkEventTypes[in.LinkType]
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid link_type")
		return
	}
	if err := validateLinkURL(in.LinkType, in.URL); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	normalizedURL := strings.TrimSpace(in.URL)

	if _, err := c.App.DB.GetProjectOwned(r.Context(), in.ProjectID, userID); err != nil {
		if errors.Is(err, ledgermodels.ErrNotFound) {
			respondError(w, http.StatusNotFound, "project not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to load project")
		return
	}

	c.App.Emitter.Emit(&ledgermodels.ActivityEvent{
		ProjectID:   in.ProjectID,
		UserID:      userID,
		EventType:   eventType,
		Description: fmt.Sprintf("Linked %s: %s", in.LinkType, normalizedURL),
		Metadata:    map[string]string{"url": normalizedURL},
	})

	result, err := c.App.DB.Credit(r.Context(), userID, in.ProjectID, eventType, linkIdempotencyKey(in.ProjectID, eventType, normalizedURL), "")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to credit link reward")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int64{"amount": result.Amount})
}
