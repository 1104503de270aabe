package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/railvoice/railvoice/internal/calllog"
	"github.com/railvoice/railvoice/internal/dialogue"
	"github.com/railvoice/railvoice/internal/intent"
	"github.com/railvoice/railvoice/internal/session"
	"github.com/railvoice/railvoice/internal/telephony"
	"github.com/railvoice/railvoice/internal/twiml"
)

// stubDialer returns a canned result or error.
type stubDialer struct {
	result *telephony.CallResult
	err    error
}

func (d *stubDialer) PlaceCall(_ context.Context, _ string) (*telephony.CallResult, error) {
	return d.result, d.err
}

// memTurnLog is an in-memory calllog.TurnRepository for handler tests.
type memTurnLog struct {
	mu    sync.Mutex
	turns []calllog.Turn
}

func (m *memTurnLog) Record(_ context.Context, t *calllog.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns = append(m.turns, *t)
	return nil
}

func (m *memTurnLog) ListByCall(_ context.Context, callID string) ([]calllog.Turn, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []calllog.Turn
	for _, t := range m.turns {
		if t.CallID == callID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memTurnLog) CountByAction(_ context.Context) (map[string]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := make(map[string]int64)
	for _, t := range m.turns {
		counts[t.Action]++
	}
	return counts, nil
}

func newTestServer(dialer OutboundDialer) (*Server, *session.MemoryStore, *memTurnLog) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	store := session.NewMemoryStore()
	classifier := intent.NewClassifier(nil, logger)
	engine := dialogue.NewEngine(store, classifier, "+911234567890", logger)
	renderer := twiml.NewRenderer("")
	turns := &memTurnLog{}
	return NewServer(engine, renderer, dialer, turns, logger), store, turns
}

func postForm(t *testing.T, srv *Server, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestVoiceStart(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	rec := postForm(t, srv, "/voice", url.Values{})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/xml" {
		t.Errorf("content type = %q, want application/xml", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Welcome to Indian Railways helpline.") {
		t.Errorf("body missing greeting: %s", body)
	}
	if !strings.Contains(body, "<Redirect>/voice</Redirect>") {
		t.Errorf("body missing silence redirect: %s", body)
	}
}

func TestConversationFlow(t *testing.T) {
	srv, store, turns := newTestServer(&stubDialer{})

	rec := postForm(t, srv, "/conversation", url.Values{
		"CallSid":      {"CA100"},
		"SpeechResult": {"book ticket"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You want to book a ticket") {
		t.Errorf("body missing booking prompt: %s", rec.Body.String())
	}

	sess, _ := store.Get(context.Background(), "CA100")
	if sess.State != session.StateBooking {
		t.Errorf("state = %q, want booking", sess.State)
	}

	recorded, _ := turns.ListByCall(context.Background(), "CA100")
	if len(recorded) != 1 {
		t.Fatalf("recorded %d turns, want 1", len(recorded))
	}
	if recorded[0].Intent != "book_ticket" {
		t.Errorf("recorded intent = %q, want book_ticket", recorded[0].Intent)
	}
	if recorded[0].Action != "listen" {
		t.Errorf("recorded action = %q, want listen", recorded[0].Action)
	}
}

func TestConversationDigitsFallback(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	// No SpeechResult; the keypad digits are the utterance.
	rec := postForm(t, srv, "/conversation", url.Values{
		"CallSid": {"CA101"},
		"Digits":  {"6"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Connecting you to a support agent.") {
		t.Errorf("body missing agent prompt: %s", body)
	}
	if !strings.Contains(body, "<Dial>+911234567890</Dial>") {
		t.Errorf("body missing dial verb: %s", body)
	}
}

func TestConversationMissingCallSid(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	rec := postForm(t, srv, "/conversation", url.Values{"SpeechResult": {"hello"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestCallEnd(t *testing.T) {
	srv, store, _ := newTestServer(&stubDialer{})
	ctx := context.Background()

	postForm(t, srv, "/conversation", url.Values{
		"CallSid":      {"CA102"},
		"SpeechResult": {"book ticket"},
	})
	if sess, _ := store.Get(ctx, "CA102"); sess.Fresh() {
		t.Fatal("expected context before call end")
	}

	rec := postForm(t, srv, "/call/end", url.Values{"CallSid": {"CA102"}})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if sess, _ := store.Get(ctx, "CA102"); !sess.Fresh() {
		t.Error("expected context removed after call end")
	}
}

func TestCallStartSuccess(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{
		result: &telephony.CallResult{SID: "CA0001", Status: "queued"},
	})

	req := httptest.NewRequest(http.MethodPost, "/call/start", strings.NewReader(`{"to":"+919876543210"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data startCallResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Data.SID != "CA0001" {
		t.Errorf("sid = %q, want CA0001", resp.Data.SID)
	}
	if resp.Data.To != "+919876543210" {
		t.Errorf("to = %q", resp.Data.To)
	}
}

func TestCallStartNotConfigured(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{err: telephony.ErrNotConfigured})

	req := httptest.NewRequest(http.MethodPost, "/call/start", strings.NewReader(`{"to":"+919876543210"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestCallStartProviderError(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{
		err: &telephony.ProviderError{StatusCode: 400, Code: 21211, Message: "Invalid 'To' phone number"},
	})

	req := httptest.NewRequest(http.MethodPost, "/call/start", strings.NewReader(`{"to":"junk"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Invalid 'To' phone number") {
		t.Errorf("body missing provider message: %s", rec.Body.String())
	}
}

func TestCallStartBadRequest(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	for _, body := range []string{"{not json", `{"to":""}`} {
		req := httptest.NewRequest(http.MethodPost, "/call/start", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestListTurns(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	postForm(t, srv, "/conversation", url.Values{
		"CallSid":      {"CA103"},
		"SpeechResult": {"check pnr"},
	})
	postForm(t, srv, "/conversation", url.Values{
		"CallSid":      {"CA103"},
		"SpeechResult": {"1234567890"},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/calls/CA103/turns", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Data []calllog.Turn `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("got %d turns, want 2", len(resp.Data))
	}
	if resp.Data[0].Utterance != "check pnr" {
		t.Errorf("first utterance = %q", resp.Data[0].Utterance)
	}
}

func TestHealth(t *testing.T) {
	srv, _, _ := newTestServer(&stubDialer{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
