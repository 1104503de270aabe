// Package nlu provides the optional external intent oracle, backed by the
// Gemini generateContent API. The oracle is strictly best-effort: every
// failure mode (transport error, timeout, bad status, unparseable or
// out-of-set reply) degrades to intent.ErrNoDecision so the classifier can
// fall back to its keyword rules.
package nlu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/railvoice/railvoice/internal/intent"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com"
	defaultModel   = "gemini-pro"
	defaultTimeout = 3 * time.Second
)

// detectPrompt instructs the model to answer with a bare intent name.
const detectPrompt = `You are an intent detection system for an Indian Railways IVR.
Your task is to identify the user's intent from their speech.
The user said: %q

Return one of the following intents:
- book_ticket
- check_pnr
- cancel_ticket
- fare_enquiry
- tatkal_info
- talk_agent
- special_assistance
- train_live_status
- platform_locator
- unknown

Return only the intent name.`

// Client implements intent.Oracle against the Gemini REST API.
type Client struct {
	apiKey  string
	baseURL string
	model   string
	http    *http.Client
	logger  *slog.Logger
}

// NewClient creates a Gemini oracle. baseURL may be empty to use the public
// endpoint; timeout bounds each detection call and defaults to 3s.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   defaultModel,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.With("subsystem", "nlu"),
	}
}

type generateRequest struct {
	Contents []content `json:"contents"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generateResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// DetectIntent asks the model for the caller's intent. It returns a member
// of the fixed intent set, or intent.ErrNoDecision when the model answers
// "unknown" or anything outside the set.
func (c *Client) DetectIntent(ctx context.Context, text string) (intent.Intent, error) {
	reqBody, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: fmt.Sprintf(detectPrompt, text)}}}},
	})
	if err != nil {
		return intent.Unknown, fmt.Errorf("encoding nlu request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return intent.Unknown, fmt.Errorf("building nlu request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return intent.Unknown, fmt.Errorf("calling nlu api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return intent.Unknown, fmt.Errorf("reading nlu response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return intent.Unknown, fmt.Errorf("nlu api status %d", resp.StatusCode)
	}

	var gr generateResponse
	if err := json.Unmarshal(body, &gr); err != nil {
		return intent.Unknown, fmt.Errorf("decoding nlu response: %w", err)
	}
	if len(gr.Candidates) == 0 || len(gr.Candidates[0].Content.Parts) == 0 {
		return intent.Unknown, intent.ErrNoDecision
	}

	answer := strings.ToLower(strings.TrimSpace(gr.Candidates[0].Content.Parts[0].Text))
	i, ok := intent.Parse(answer)
	if !ok {
		c.logger.Debug("nlu returned out-of-set value", "value", answer)
		return intent.Unknown, intent.ErrNoDecision
	}
	if i == intent.Unknown {
		return intent.Unknown, intent.ErrNoDecision
	}

	return i, nil
}

var _ intent.Oracle = (*Client)(nil)
