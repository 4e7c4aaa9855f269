package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vamo-hq/ledgerx/pkg/utils"
	"go.uber.org/zap"
)

const systemPromptTemplate = `You are Vamo, an AI co-pilot for startup founders. The user is building a project called %q.

Your job:
1. Respond helpfully to their update or question (keep it concise, 2-3 sentences max).
2. Extract the intent of their message. Classify as one of: feature, customer, revenue, ask, general.
3. If the update implies progress (shipped something, talked to users, made revenue), generate an updated business analysis.
4. Return your response as JSON only, no markdown:
{
  "reply": "Your response text",
  "intent": "feature|customer|revenue|ask|general",
  "business_update": {
    "progress_delta": 0,
    "traction_signal": "string or null",
    "valuation_adjustment": "up|down|none",
    "valuation_low": number or omit,
    "valuation_high": number or omit
  }
}

Constraints (enforced):
- Progress delta must be between 0 and 5 (max 5 per prompt). If you cannot infer clear progress from the message, use 0.
- If insufficient data to assess progress or valuation, say so explicitly in your reply and use progress_delta 0; omit valuation_low/valuation_high.
- Valuation must be based only on logged traction signals (shipped features, customers, revenue) mentioned in this conversation. Do not invent or inflate. Omit the range if none is appropriate.`

// OpenAIConfig configures the chat-completions endpoint and HTTP behavior.
type OpenAIConfig struct {
	APIKey         string
	Model          string
	CompletionsURL string
	HTTPClient     *http.Client
}

// OpenAIProvider calls the OpenAI chat-completions API over plain HTTP and
// parses the structured JSON reply. Every failure mode degrades to the
// neutral suggestion.
type OpenAIProvider struct {
	cfg    OpenAIConfig
	logger *zap.Logger
}

// NewOpenAIProvider builds an OpenAI-backed provider. Returns a NoopProvider
// when no API key is configured so callers never need to branch.
func NewOpenAIProvider(logger *zap.Logger, cfg OpenAIConfig) Provider {
	if strings.TrimSpace(cfg.APIKey) == "" {
		logger.Info("No OpenAI API key configured, advisory suggestions disabled")
		return NoopProvider{}
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if strings.TrimSpace(cfg.CompletionsURL) == "" {
		cfg.CompletionsURL = "https://api.openai.com/v1/chat/completions"
	}
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "gpt-4o-mini"
	}
	return &OpenAIProvider{cfg: cfg, logger: logger}
}

// NewOpenAIProviderFromEnv reads OPENAI_API_KEY / OPENAI_MODEL.
func NewOpenAIProviderFromEnv(logger *zap.Logger) Provider {
	return NewOpenAIProvider(logger, OpenAIConfig{
		APIKey: utils.Env("OPENAI_API_KEY", ""),
		Model:  utils.Env("OPENAI_MODEL", "gpt-4o-mini"),
	})
}

type chatCompletionRequest struct {
	Model          string            `json:"model"`
	Messages       []completionMsg   `json:"messages"`
	ResponseFormat map[string]string `json:"response_format"`
}

type completionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Suggest calls OpenAI and parses the structured suggestion. The returned
// error is advisory (for logging); the Suggestion is always usable.
func (p *OpenAIProvider) Suggest(ctx context.Context, turn TurnContext) (Suggestion, error) {
	var history strings.Builder
	for _, m := range turn.RecentMessages {
		history.WriteString(m.Role)
		history.WriteString(": ")
		history.WriteString(m.Content)
		history.WriteString("\n")
	}
	history.WriteString("user: ")
	history.WriteString(turn.Message)

	reqBody := chatCompletionRequest{
		Model: p.cfg.Model,
		Messages: []completionMsg{
			{Role: "system", Content: fmt.Sprintf(systemPromptTemplate, turn.Project.Name)},
			{Role: "user", Content: history.String()},
		},
		ResponseFormat: map[string]string{"type": "json_object"},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return Neutral(), fmt.Errorf("marshal completion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.CompletionsURL, bytes.NewReader(payload))
	if err != nil {
		return Neutral(), fmt.Errorf("build completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)

	resp, err := p.cfg.HTTPClient.Do(req)
	if err != nil {
		p.logger.Warn("Advisory suggestion call failed", zap.Error(err))
		return Neutral(), fmt.Errorf("completion request: %w", err)
	}
	defer func() { _, _ = io.Copy(io.Discard, resp.Body); _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warn("Advisory suggestion call returned non-200", zap.Int("status", resp.StatusCode))
		return Neutral(), fmt.Errorf("completion request: status %d", resp.StatusCode)
	}

	var completion chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return Neutral(), fmt.Errorf("decode completion response: %w", err)
	}
	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return Neutral(), fmt.Errorf("completion response had no content")
	}

	var parsed Suggestion
	if err := json.Unmarshal([]byte(completion.Choices[0].Message.Content), &parsed); err != nil {
		p.logger.Warn("Advisory suggestion was not valid JSON", zap.Error(err))
		return Neutral(), fmt.Errorf("parse suggestion: %w", err)
	}

	return sanitize(parsed), nil
}
