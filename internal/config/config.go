package config

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration for the RailVoice server.
// Precedence: CLI flags > env vars > defaults.
type Config struct {
	HTTPPort int
	DataDir  string

	LogLevel  string
	LogFormat string // "text" or "json"

	// BaseWebhookURL is the public URL the telephony provider posts to
	// (no trailing slash). Empty is allowed for local tests; TwiML then
	// carries relative action paths.
	BaseWebhookURL string

	// AgentNumber is the transfer destination for talk_agent.
	AgentNumber string

	// Provider credentials for outbound call placement.
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioPhoneNumber string

	// Optional NLU oracle. Classification falls back to keyword rules
	// whenever the key is unset or the oracle misbehaves.
	GeminiAPIKey string
	NLUBaseURL   string
	NLUTimeout   int // seconds

	// RedisAddr switches the session store from in-process to Redis.
	RedisAddr string
	// SessionTTL expires abandoned contexts in the Redis store, in
	// seconds. 0 disables expiry.
	SessionTTL int
}

// defaults
const (
	defaultHTTPPort    = 8080
	defaultDataDir     = "./data"
	defaultLogLevel    = "info"
	defaultLogFormat   = "text"
	defaultAgentNumber = "+911234567890"
	defaultNLUTimeout  = 3
)

// envPrefix is the prefix for all RailVoice environment variables.
const envPrefix = "RAILVOICE_"

// Load parses configuration from CLI flags and environment variables.
// Precedence: CLI flags > env vars > defaults.
func Load() (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("railvoice", flag.ContinueOnError)

	fs.IntVar(&cfg.HTTPPort, "http-port", defaultHTTPPort, "HTTP server listen port")
	fs.StringVar(&cfg.DataDir, "data-dir", defaultDataDir, "data directory for the call log database")
	fs.StringVar(&cfg.LogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error)")
	fs.StringVar(&cfg.LogFormat, "log-format", defaultLogFormat, "log output format (text, json)")
	fs.StringVar(&cfg.BaseWebhookURL, "base-webhook-url", "", "public base URL for provider webhooks (no trailing slash)")
	fs.StringVar(&cfg.AgentNumber, "agent-number", defaultAgentNumber, "destination number for agent transfers")
	fs.StringVar(&cfg.TwilioAccountSID, "twilio-account-sid", "", "Twilio account SID for outbound calls")
	fs.StringVar(&cfg.TwilioAuthToken, "twilio-auth-token", "", "Twilio auth token for outbound calls")
	fs.StringVar(&cfg.TwilioPhoneNumber, "twilio-phone-number", "", "Twilio caller number for outbound calls")
	fs.StringVar(&cfg.GeminiAPIKey, "gemini-api-key", "", "API key for the NLU intent oracle (disabled if empty)")
	fs.StringVar(&cfg.NLUBaseURL, "nlu-url", "", "override base URL for the NLU oracle API")
	fs.IntVar(&cfg.NLUTimeout, "nlu-timeout", defaultNLUTimeout, "NLU oracle request timeout in seconds")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", "", "Redis address for the distributed session store (in-process store if empty)")
	fs.IntVar(&cfg.SessionTTL, "session-ttl", 0, "Redis session expiry in seconds (0 = no expiry)")

	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parsing flags: %w", err)
	}

	applyEnvOverrides(fs, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides checks environment variables for any flag that was not
// explicitly provided on the command line. This preserves the precedence:
// CLI flags > env vars > defaults.
func applyEnvOverrides(fs *flag.FlagSet, cfg *Config) {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})

	envMap := map[string]string{
		"http-port":           envPrefix + "HTTP_PORT",
		"data-dir":            envPrefix + "DATA_DIR",
		"log-level":           envPrefix + "LOG_LEVEL",
		"log-format":          envPrefix + "LOG_FORMAT",
		"base-webhook-url":    envPrefix + "BASE_WEBHOOK_URL",
		"agent-number":        envPrefix + "AGENT_NUMBER",
		"twilio-account-sid":  envPrefix + "TWILIO_ACCOUNT_SID",
		"twilio-auth-token":   envPrefix + "TWILIO_AUTH_TOKEN",
		"twilio-phone-number": envPrefix + "TWILIO_PHONE_NUMBER",
		"gemini-api-key":      envPrefix + "GEMINI_API_KEY",
		"nlu-url":             envPrefix + "NLU_URL",
		"nlu-timeout":         envPrefix + "NLU_TIMEOUT",
		"redis-addr":          envPrefix + "REDIS_ADDR",
		"session-ttl":         envPrefix + "SESSION_TTL",
	}

	for flagName, envVar := range envMap {
		if set[flagName] {
			continue
		}
		val, ok := os.LookupEnv(envVar)
		if !ok || val == "" {
			continue
		}
		switch flagName {
		case "http-port":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.HTTPPort = v
			}
		case "data-dir":
			cfg.DataDir = val
		case "log-level":
			cfg.LogLevel = val
		case "log-format":
			cfg.LogFormat = val
		case "base-webhook-url":
			cfg.BaseWebhookURL = val
		case "agent-number":
			cfg.AgentNumber = val
		case "twilio-account-sid":
			cfg.TwilioAccountSID = val
		case "twilio-auth-token":
			cfg.TwilioAuthToken = val
		case "twilio-phone-number":
			cfg.TwilioPhoneNumber = val
		case "gemini-api-key":
			cfg.GeminiAPIKey = val
		case "nlu-url":
			cfg.NLUBaseURL = val
		case "nlu-timeout":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.NLUTimeout = v
			}
		case "redis-addr":
			cfg.RedisAddr = val
		case "session-ttl":
			if v, err := strconv.Atoi(val); err == nil {
				cfg.SessionTTL = v
			}
		}
	}
}

// validate checks that the config values are sane.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("http-port must be between 1 and 65535, got %d", c.HTTPPort)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("log-level must be one of debug, info, warn, error; got %q", c.LogLevel)
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[strings.ToLower(c.LogFormat)] {
		return fmt.Errorf("log-format must be one of text, json; got %q", c.LogFormat)
	}
	c.LogFormat = strings.ToLower(c.LogFormat)

	if c.NLUTimeout < 1 {
		return fmt.Errorf("nlu-timeout must be at least 1 second, got %d", c.NLUTimeout)
	}
	if c.SessionTTL < 0 {
		return fmt.Errorf("session-ttl must not be negative, got %d", c.SessionTTL)
	}
	if c.AgentNumber == "" {
		return fmt.Errorf("agent-number must not be empty")
	}

	c.BaseWebhookURL = strings.TrimRight(c.BaseWebhookURL, "/")

	return nil
}

// NLUTimeoutDuration returns the oracle timeout as a time.Duration.
func (c *Config) NLUTimeoutDuration() time.Duration {
	return time.Duration(c.NLUTimeout) * time.Second
}

// SessionTTLDuration returns the Redis session expiry as a time.Duration.
func (c *Config) SessionTTLDuration() time.Duration {
	return time.Duration(c.SessionTTL) * time.Second
}

// SlogHandler returns a slog.Handler configured with the appropriate format
// (text or json) and log level.
func (c *Config) SlogHandler(w *os.File) slog.Handler {
	opts := &slog.HandlerOptions{Level: c.SlogLevel()}
	if c.LogFormat == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SlogLevel returns the slog.Level corresponding to the configured log level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
