// Package telephony wraps the provider's REST API for outbound call
// placement. It never touches conversation state; failures here surface to
// the API client that requested the call, not to any active conversation.
package telephony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotConfigured is returned when provider credentials, the outbound
// caller number, or the public webhook URL are missing.
var ErrNotConfigured = errors.New("telephony provider not configured")

// ProviderError is a structured rejection from the provider's REST API.
type ProviderError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider rejected call (status %d, code %d): %s", e.StatusCode, e.Code, e.Message)
}

// CallResult identifies an accepted outbound call.
type CallResult struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

const (
	defaultAPIURL  = "https://api.twilio.com"
	defaultTimeout = 10 * time.Second
)

// ClientConfig holds the provider account settings.
type ClientConfig struct {
	AccountSID     string
	AuthToken      string
	FromNumber     string
	BaseWebhookURL string
	APIURL         string        // override for tests; defaults to the provider endpoint
	Timeout        time.Duration // HTTP timeout; defaults to 10s
}

// Client places outbound calls through the Twilio REST API.
type Client struct {
	cfg    ClientConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates an outbound call client. A client with incomplete
// configuration is still valid; PlaceCall reports ErrNotConfigured.
func NewClient(cfg ClientConfig, logger *slog.Logger) *Client {
	if cfg.APIURL == "" {
		cfg.APIURL = defaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	cfg.BaseWebhookURL = strings.TrimRight(cfg.BaseWebhookURL, "/")
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger.With("subsystem", "telephony"),
	}
}

// Configured reports whether all settings required for outbound calling are
// present.
func (c *Client) Configured() bool {
	return c.cfg.AccountSID != "" && c.cfg.AuthToken != "" &&
		c.cfg.FromNumber != "" && c.cfg.BaseWebhookURL != ""
}

// PlaceCall asks the provider to dial `to` and point the answered call at
// the /voice webhook. Returns ErrNotConfigured if the client is incomplete
// and *ProviderError if the provider rejects the request.
func (c *Client) PlaceCall(ctx context.Context, to string) (*CallResult, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	form := url.Values{
		"To":   {to},
		"From": {c.cfg.FromNumber},
		"Url":  {c.cfg.BaseWebhookURL + "/voice"},
	}

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Calls.json", c.cfg.APIURL, c.cfg.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building call request: %w", err)
	}
	req.SetBasicAuth(c.cfg.AccountSID, c.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling provider api: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		perr := &ProviderError{StatusCode: resp.StatusCode}
		var apiErr struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		}
		if json.Unmarshal(body, &apiErr) == nil {
			perr.Code = apiErr.Code
			perr.Message = apiErr.Message
		}
		if perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
		return nil, perr
	}

	var result CallResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding provider response: %w", err)
	}

	c.logger.Info("outbound call placed", "sid", result.SID, "to", to, "status", result.Status)
	return &result, nil
}
