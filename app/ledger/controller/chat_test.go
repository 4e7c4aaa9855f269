package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vamo-hq/ledgerx/app/ledger/types"
	"github.com/vamo-hq/ledgerx/pkg/ratelimit"
)

type rejectingLimiter struct {
	retryAfter int64
}

func (l rejectingLimiter) Check(_ context.Context, _ string) (ratelimit.Result, error) {
	return ratelimit.Result{OK: false, RetryAfter: l.retryAfter}, nil
}

func TestHandleChatTurn_RateLimited(t *testing.T) {
	c := &Controller{
		App: &types.App{
			Logger:  zap.NewNop(),
			Limiter: rejectingLimiter{retryAfter: 17},
		},
		JWTSecret: []byte("test-secret"),
	}

	body := `{"project_id":"proj-1","message":"shipped the onboarding flow"}`
	req := httptest.NewRequest(http.MethodPost, "/api/chat/turn", strings.NewReader(body))
	rec := httptest.NewRecorder()

	c.HandleChatTurn(rec, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "17", rec.Header().Get("Retry-After"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(17), resp["retry_after"])
}

func TestHandleChatTurn_MissingFields(t *testing.T) {
	c := &Controller{App: &types.App{Logger: zap.NewNop()}}

	tests := []struct {
		name string
		body string
	}{
		{"no project", `{"message":"hello"}`},
		{"no message", `{"project_id":"proj-1"}`},
		{"bad json", `{`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/chat/turn", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			c.HandleChatTurn(rec, req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandleResolveRedemption_InvalidStatus(t *testing.T) {
	c := &Controller{App: &types.App{Logger: zap.NewNop()}}

	req := httptest.NewRequest(http.MethodPatch, "/api/admin/redemptions",
		strings.NewReader(`{"id":"r-1","status":"pending"}`))
	rec := httptest.NewRecorder()

	c.HandleResolveRedemption(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "short", truncateRunes("short", 200))
	assert.Equal(t, "abcde", truncateRunes("abcdefgh", 5))

	// Multi-byte characters must never be split mid-rune.
	s := strings.Repeat("é", 150)
	got := truncateRunes(s, 100)
	assert.Equal(t, strings.Repeat("é", 100), got)
	assert.True(t, utf8.ValidString(got))
}
