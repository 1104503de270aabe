package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/railvoice/railvoice/internal/telephony"
)

// startCallRequest is the JSON body for POST /call/start.
type startCallRequest struct {
	To string `json:"to"`
}

// startCallResponse reports the provider's acceptance of an outbound call.
type startCallResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
	To     string `json:"to"`
}

// handleCallStart places an outbound call via the telephony provider. This
// is the one operation that surfaces structured errors to its API client:
// 503 when the provider is not configured, 502 when it rejects the request.
func (s *Server) handleCallStart(w http.ResponseWriter, r *http.Request) {
	var req startCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed json body")
		return
	}
	if req.To == "" {
		writeError(w, http.StatusBadRequest, "missing 'to' number")
		return
	}

	result, err := s.dialer.PlaceCall(r.Context(), req.To)
	if err != nil {
		var perr *telephony.ProviderError
		switch {
		case errors.Is(err, telephony.ErrNotConfigured):
			writeError(w, http.StatusServiceUnavailable, "telephony provider not configured")
		case errors.As(err, &perr):
			s.logger.Error("provider rejected outbound call", "to", req.To, "error", err)
			writeError(w, http.StatusBadGateway, perr.Message)
		default:
			s.logger.Error("outbound call failed", "to", req.To, "error", err)
			writeError(w, http.StatusBadGateway, "outbound call failed")
		}
		return
	}

	writeJSON(w, http.StatusOK, startCallResponse{
		SID:    result.SID,
		Status: result.Status,
		To:     req.To,
	})
}
