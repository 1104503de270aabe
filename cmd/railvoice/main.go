package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/railvoice/railvoice/internal/api"
	"github.com/railvoice/railvoice/internal/calllog"
	"github.com/railvoice/railvoice/internal/config"
	"github.com/railvoice/railvoice/internal/dialogue"
	"github.com/railvoice/railvoice/internal/intent"
	"github.com/railvoice/railvoice/internal/metrics"
	"github.com/railvoice/railvoice/internal/nlu"
	"github.com/railvoice/railvoice/internal/session"
	"github.com/railvoice/railvoice/internal/telephony"
	"github.com/railvoice/railvoice/internal/twiml"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Configure structured logging.
	logger := slog.New(cfg.SlogHandler(os.Stdout))
	slog.SetDefault(logger)

	slog.Info("starting railvoice",
		"http_port", cfg.HTTPPort,
		"data_dir", cfg.DataDir,
		"nlu_enabled", cfg.GeminiAPIKey != "",
		"session_store", storeKind(cfg),
	)

	// Open the call log and run migrations.
	db, err := calllog.Open(cfg.DataDir)
	if err != nil {
		slog.Error("failed to open call log", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	turns := calllog.NewTurnRepository(db)

	// Session store: in-process by default, Redis when configured.
	var store session.Store
	var sessionsProvider metrics.ActiveSessionsProvider
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			slog.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()
		store = session.NewRedisStore(rdb, cfg.SessionTTLDuration())
	} else {
		mem := session.NewMemoryStore()
		store = mem
		sessionsProvider = mem
	}

	// Optional NLU oracle.
	var oracle intent.Oracle
	if cfg.GeminiAPIKey != "" {
		oracle = nlu.NewClient(cfg.GeminiAPIKey, cfg.NLUBaseURL, cfg.NLUTimeoutDuration(), logger)
	}

	classifier := intent.NewClassifier(oracle, logger)
	engine := dialogue.NewEngine(store, classifier, cfg.AgentNumber, logger)
	renderer := twiml.NewRenderer(cfg.BaseWebhookURL)

	dialer := telephony.NewClient(telephony.ClientConfig{
		AccountSID:     cfg.TwilioAccountSID,
		AuthToken:      cfg.TwilioAuthToken,
		FromNumber:     cfg.TwilioPhoneNumber,
		BaseWebhookURL: cfg.BaseWebhookURL,
	}, logger)
	if !dialer.Configured() {
		slog.Warn("telephony provider not configured, outbound calls are disabled")
	}

	prometheus.MustRegister(metrics.NewCollector(sessionsProvider, turns, logger))

	handler := api.NewServer(engine, renderer, dialer, turns, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine.
	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for interrupt or server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		slog.Error("http server failed", "error", err)
		os.Exit(1)
	case sig := <-quit:
		slog.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown failed", "error", err)
	}

	slog.Info("railvoice stopped")
}

func storeKind(cfg *config.Config) string {
	if cfg.RedisAddr != "" {
		return "redis"
	}
	return "memory"
}
