// Package api is the HTTP boundary between the telephony provider and the
// dialogue engine: voice webhooks in, TwiML out, plus a small JSON API for
// outbound calls and call-log inspection.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/railvoice/railvoice/internal/api/middleware"
	"github.com/railvoice/railvoice/internal/calllog"
	"github.com/railvoice/railvoice/internal/dialogue"
	"github.com/railvoice/railvoice/internal/telephony"
	"github.com/railvoice/railvoice/internal/twiml"
)

// OutboundDialer places calls via the telephony provider.
type OutboundDialer interface {
	PlaceCall(ctx context.Context, to string) (*telephony.CallResult, error)
}

// Server holds HTTP handler dependencies and the chi router.
type Server struct {
	router   *chi.Mux
	engine   *dialogue.Engine
	renderer *twiml.Renderer
	dialer   OutboundDialer
	turns    calllog.TurnRepository // nil disables turn recording
	logger   *slog.Logger
}

// NewServer creates the HTTP handler with all routes mounted. turns may be
// nil, in which case no call log is written.
func NewServer(
	engine *dialogue.Engine,
	renderer *twiml.Renderer,
	dialer OutboundDialer,
	turns calllog.TurnRepository,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		engine:   engine,
		renderer: renderer,
		dialer:   dialer,
		turns:    turns,
		logger:   logger.With("subsystem", "api"),
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes configures all middleware and mounts all route groups.
func (s *Server) routes() {
	r := s.router

	// Global middleware stack.
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.StructuredLogger)
	r.Use(middleware.Recoverer)

	// Provider voice webhooks (form-encoded in, TwiML out).
	r.Post("/voice", s.handleVoiceStart)
	r.Post("/conversation", s.handleConversation)
	r.Post("/call/end", s.handleCallEnd)

	// Outbound call placement, rate limited per client IP.
	limiter := middleware.NewIPRateLimiter(middleware.OutboundCallRateLimitConfig())
	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		r.Post("/call/start", s.handleCallStart)
	})

	// Operational endpoints.
	r.Get("/api/v1/health", s.handleHealth)
	r.Get("/api/v1/calls/{callID}/turns", s.handleListTurns)
	r.Handle("/metrics", promhttp.Handler())
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
