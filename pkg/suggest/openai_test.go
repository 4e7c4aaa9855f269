package suggest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ledgermodels "github.com/vamo-hq/ledgerx/pkg/db/models/ledger"
	"go.uber.org/zap"
)

func testTurn() TurnContext {
	return TurnContext{
		Project: &ledgermodels.Project{ID: "proj-1", Name: "Acme"},
		Message: "shipped the onboarding flow",
	}
}

func completionWith(t *testing.T, content string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}

func newTestProvider(t *testing.T, handler http.HandlerFunc) Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(zap.NewNop(), OpenAIConfig{
		APIKey:         "test-key",
		CompletionsURL: srv.URL,
		HTTPClient:     srv.Client(),
	})
}

func TestSuggestParsesStructuredReply(t *testing.T) {
	content := `{"reply":"Nice, onboarding shipped.","intent":"feature","business_update":{"progress_delta":3,"traction_signal":"onboarding flow live","valuation_adjustment":"up"}}`
	p := newTestProvider(t, completionWith(t, content))

	s, err := p.Suggest(context.Background(), testTurn())
	require.NoError(t, err)
	assert.Equal(t, "Nice, onboarding shipped.", s.Reply)
	assert.Equal(t, ledgermodels.IntentFeature, s.Intent)
	assert.Equal(t, 3, s.BusinessUpdate.ProgressDelta)
	assert.Equal(t, "onboarding flow live", s.BusinessUpdate.TractionSignal)
	assert.Equal(t, AdjustUp, s.BusinessUpdate.ValuationAdjustment)
	assert.Nil(t, s.BusinessUpdate.ValuationLow)
	assert.Nil(t, s.BusinessUpdate.ValuationHigh)
}

func TestSuggestClampsDeltaAndIntent(t *testing.T) {
	content := `{"reply":"ok","intent":"banana","business_update":{"progress_delta":9,"valuation_adjustment":"sideways"}}`
	p := newTestProvider(t, completionWith(t, content))

	s, err := p.Suggest(context.Background(), testTurn())
	require.NoError(t, err)
	assert.Equal(t, 5, s.BusinessUpdate.ProgressDelta)
	assert.Equal(t, ledgermodels.IntentGeneral, s.Intent)
	assert.Equal(t, AdjustNone, s.BusinessUpdate.ValuationAdjustment)
}

func TestSuggestExplicitRange(t *testing.T) {
	content := `{"reply":"ok","intent":"revenue","business_update":{"progress_delta":2,"valuation_adjustment":"none","valuation_low":5000,"valuation_high":15000}}`
	p := newTestProvider(t, completionWith(t, content))

	s, err := p.Suggest(context.Background(), testTurn())
	require.NoError(t, err)
	require.NotNil(t, s.BusinessUpdate.ValuationLow)
	require.NotNil(t, s.BusinessUpdate.ValuationHigh)
	assert.Equal(t, int64(5000), *s.BusinessUpdate.ValuationLow)
	assert.Equal(t, int64(15000), *s.BusinessUpdate.ValuationHigh)
}

func TestSuggestMalformedJSONFallsBackToNeutral(t *testing.T) {
	p := newTestProvider(t, completionWith(t, "not json at all"))

	s, err := p.Suggest(context.Background(), testTurn())
	require.Error(t, err)
	assert.Equal(t, Neutral(), s)
}

func TestSuggestServerErrorFallsBackToNeutral(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	s, err := p.Suggest(context.Background(), testTurn())
	require.Error(t, err)
	assert.Equal(t, Neutral(), s)
}

func TestNewOpenAIProviderWithoutKeyIsNoop(t *testing.T) {
	p := NewOpenAIProvider(zap.NewNop(), OpenAIConfig{})
	_, ok := p.(NoopProvider)
	assert.True(t, ok)

	s, err := p.Suggest(context.Background(), testTurn())
	require.NoError(t, err)
	assert.Equal(t, Neutral(), s)
}
