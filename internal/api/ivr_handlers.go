package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/railvoice/railvoice/internal/calllog"
	"github.com/railvoice/railvoice/internal/dialogue"
)

// handleVoiceStart is the entry webhook for an answered call. It replies
// with the fixed greeting and starts gathering input; on silence the
// provider redirects back here.
func (s *Server) handleVoiceStart(w http.ResponseWriter, r *http.Request) {
	d := s.engine.StartCall()
	doc, err := s.renderer.Render(d)
	writeTwiML(w, doc, err)
}

// handleConversation receives speech or keypad input for an active call and
// advances the dialogue by one turn. The provider posts SpeechResult for
// speech and Digits for DTMF; either one is the utterance.
func (s *Server) handleConversation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	callID := r.PostFormValue("CallSid")
	if callID == "" {
		writeError(w, http.StatusBadRequest, "missing CallSid")
		return
	}

	utterance := r.PostFormValue("SpeechResult")
	if utterance == "" {
		utterance = r.PostFormValue("Digits")
	}

	s.logger.Info("received input", "call_id", callID, "utterance", utterance)

	d := s.engine.HandleTurn(r.Context(), callID, utterance)
	s.recordTurn(r, callID, utterance, d)

	doc, err := s.renderer.Render(d)
	writeTwiML(w, doc, err)
}

// handleCallEnd is the provider's status callback when a call finishes. It
// clears the conversation context for the call.
func (s *Server) handleCallEnd(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "malformed form body")
		return
	}

	callID := r.PostFormValue("CallSid")
	if callID == "" {
		writeError(w, http.StatusBadRequest, "missing CallSid")
		return
	}

	s.engine.EndCall(r.Context(), callID)
	w.WriteHeader(http.StatusNoContent)
}

// recordTurn writes the turn to the call log. Logging failures never affect
// the conversation.
func (s *Server) recordTurn(r *http.Request, callID, utterance string, d dialogue.Decision) {
	if s.turns == nil {
		return
	}
	t := &calllog.Turn{
		CallID:    callID,
		Utterance: utterance,
		Intent:    string(d.Intent),
		Action:    d.Action.String(),
		Prompt:    d.Prompt,
	}
	if err := s.turns.Record(r.Context(), t); err != nil {
		s.logger.Error("failed to record turn", "call_id", callID, "error", err)
	}
}

// handleListTurns returns the recorded turns for one call.
func (s *Server) handleListTurns(w http.ResponseWriter, r *http.Request) {
	if s.turns == nil {
		writeError(w, http.StatusNotFound, "call log disabled")
		return
	}

	callID := chi.URLParam(r, "callID")
	turns, err := s.turns.ListByCall(r.Context(), callID)
	if err != nil {
		s.logger.Error("failed to list turns", "call_id", callID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list turns")
		return
	}
	if turns == nil {
		turns = []calllog.Turn{}
	}

	writeJSON(w, http.StatusOK, turns)
}
