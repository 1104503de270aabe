package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the standard JSON response wrapper for non-TwiML endpoints:
// { "data": ..., "error": ... }
type envelope struct {
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with the given status code and data payload.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Data: data}); err != nil {
		slog.Error("failed to encode json response", "error", err)
	}
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Error: msg}); err != nil {
		slog.Error("failed to encode json error response", "error", err)
	}
}

// writeTwiML writes a rendered TwiML document. The provider expects XML on
// every voice webhook, so render failures still answer with a bare document
// rather than a JSON error.
func writeTwiML(w http.ResponseWriter, doc []byte, err error) {
	w.Header().Set("Content-Type", "application/xml")
	if err != nil {
		slog.Error("failed to render twiml", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Response/>`)) //nolint:errcheck
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(doc) //nolint:errcheck
}
