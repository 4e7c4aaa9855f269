package controller

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
)

func TestValidateLinkURL(t *testing.T) {
	tests := []struct {
		name     string
		linkType string
		url      string
		wantErr  bool
	}{
		{"linkedin ok", "linkedin", "https://linkedin.com/in/founder", false},
		{"linkedin www stripped", "linkedin", "https://www.linkedin.com/in/founder", false},
		{"linkedin wrong host", "linkedin", "https://twitter.com/founder", true},
		{"linkedin subdomain rejected", "linkedin", "https://evil.linkedin.com.attacker.io/x", true},
		{"github ok", "github", "https://github.com/founder", false},
		{"github uppercase host", "github", "https://GITHUB.com/founder", false},
		{"github wrong host", "github", "https://gitlab.com/founder", true},
		{"website any host", "website", "https://vamo.dev", false},
		{"website plain http", "website", "http://vamo.dev", false},
		{"website ftp rejected", "website", "ftp://vamo.dev", true},
		{"empty url", "website", "", true},
		{"whitespace only", "website", "   ", true},
		{"not a url", "website", "not a url at all", true},
		{"unknown link type", "myspace", "https://myspace.com/founder", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateLinkURL(tt.linkType, tt.url)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLinkIdempotencyKey(t *testing.T) {
	key := linkIdempotencyKey("proj-1", ledgermodels.EventLinkGitHub, "https://github.com/founder")
	assert.Equal(t, "proj-1-link_github-https://github.com/founder", key)

	// Long URLs are truncated to 50 chars so the key stays bounded but the
	// same URL always maps to the same key.
	long := "https://github.com/founder/" + strings.Repeat("a", 100)
	keyA := linkIdempotencyKey("proj-1", ledgermodels.EventLinkGitHub, long)
	keyB := linkIdempotencyKey("proj-1", ledgermodels.EventLinkGitHub, long)
	assert.Equal(t, keyA, keyB)
	assert.Equal(t, "proj-1-link_github-"+long[:50], keyA)
}
