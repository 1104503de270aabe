package telephony

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestPlaceCallNotConfigured(t *testing.T) {
	c := NewClient(ClientConfig{}, testLogger())

	_, err := c.PlaceCall(context.Background(), "+919876543210")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestPlaceCallPartialConfig(t *testing.T) {
	// Credentials without a public webhook URL are not enough.
	c := NewClient(ClientConfig{
		AccountSID: "AC123",
		AuthToken:  "secret",
		FromNumber: "+911111111111",
	}, testLogger())

	_, err := c.PlaceCall(context.Background(), "+919876543210")
	if !errors.Is(err, ErrNotConfigured) {
		t.Errorf("error = %v, want ErrNotConfigured", err)
	}
}

func TestPlaceCallSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/2010-04-01/Accounts/AC123/Calls.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "secret" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.PostFormValue("To"); got != "+919876543210" {
			t.Errorf("To = %q", got)
		}
		if got := r.PostFormValue("From"); got != "+911111111111" {
			t.Errorf("From = %q", got)
		}
		if got := r.PostFormValue("Url"); got != "https://ivr.example.com/voice" {
			t.Errorf("Url = %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"CA0001","status":"queued"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		AccountSID:     "AC123",
		AuthToken:      "secret",
		FromNumber:     "+911111111111",
		BaseWebhookURL: "https://ivr.example.com",
		APIURL:         srv.URL,
	}, testLogger())

	result, err := c.PlaceCall(context.Background(), "+919876543210")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SID != "CA0001" {
		t.Errorf("sid = %q, want CA0001", result.SID)
	}
	if result.Status != "queued" {
		t.Errorf("status = %q, want queued", result.Status)
	}
}

func TestPlaceCallProviderRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":21211,"message":"Invalid 'To' phone number"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		AccountSID:     "AC123",
		AuthToken:      "secret",
		FromNumber:     "+911111111111",
		BaseWebhookURL: "https://ivr.example.com",
		APIURL:         srv.URL,
	}, testLogger())

	_, err := c.PlaceCall(context.Background(), "not-a-number")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if perr.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", perr.StatusCode)
	}
	if perr.Code != 21211 {
		t.Errorf("code = %d, want 21211", perr.Code)
	}
	if perr.Message != "Invalid 'To' phone number" {
		t.Errorf("message = %q", perr.Message)
	}
}

func TestPlaceCallOpaqueRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream exploded")) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{
		AccountSID:     "AC123",
		AuthToken:      "secret",
		FromNumber:     "+911111111111",
		BaseWebhookURL: "https://ivr.example.com",
		APIURL:         srv.URL,
	}, testLogger())

	_, err := c.PlaceCall(context.Background(), "+919876543210")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("error = %v, want *ProviderError", err)
	}
	if perr.Message == "" {
		t.Error("expected a fallback message for non-json error bodies")
	}
}
