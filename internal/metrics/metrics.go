// Package metrics exposes IVR operational metrics to Prometheus. Values are
// gathered at scrape time from the session store and the call log rather
// than being counted inline, so the conversation path stays free of metric
// bookkeeping.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ActiveSessionsProvider exposes the number of live conversation contexts.
type ActiveSessionsProvider interface {
	ActiveSessions() int
}

// TurnCounter returns recorded turn counts grouped by continuation action.
type TurnCounter interface {
	CountByAction(ctx context.Context) (map[string]int64, error)
}

// Collector is a prometheus.Collector that gathers IVR metrics at scrape time.
type Collector struct {
	sessions  ActiveSessionsProvider
	turns     TurnCounter
	logger    *slog.Logger
	startTime time.Time

	activeSessionsDesc *prometheus.Desc
	turnsDesc          *prometheus.Desc
	uptimeDesc         *prometheus.Desc
}

// NewCollector creates a collector. sessions may be nil when the session
// store cannot cheaply report its size (the Redis-backed store); the gauge
// is then omitted from scrapes.
func NewCollector(sessions ActiveSessionsProvider, turns TurnCounter, logger *slog.Logger) *Collector {
	return &Collector{
		sessions:  sessions,
		turns:     turns,
		logger:    logger.With("subsystem", "metrics"),
		startTime: time.Now(),
		activeSessionsDesc: prometheus.NewDesc(
			"railvoice_active_sessions",
			"Number of calls with a live conversation context.",
			nil, nil,
		),
		turnsDesc: prometheus.NewDesc(
			"railvoice_turns_total",
			"Total recorded conversation turns by continuation action.",
			[]string{"action"}, nil,
		),
		uptimeDesc: prometheus.NewDesc(
			"railvoice_uptime_seconds",
			"Seconds since the service started.",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.activeSessionsDesc
	ch <- c.turnsDesc
	ch <- c.uptimeDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ch <- prometheus.MustNewConstMetric(c.uptimeDesc, prometheus.GaugeValue,
		time.Since(c.startTime).Seconds())

	if c.sessions != nil {
		ch <- prometheus.MustNewConstMetric(c.activeSessionsDesc, prometheus.GaugeValue,
			float64(c.sessions.ActiveSessions()))
	}

	if c.turns != nil {
		counts, err := c.turns.CountByAction(ctx)
		if err != nil {
			c.logger.Error("failed to count turns for scrape", "error", err)
			return
		}
		for action, n := range counts {
			ch <- prometheus.MustNewConstMetric(c.turnsDesc, prometheus.CounterValue,
				float64(n), action)
		}
	}
}

var _ prometheus.Collector = (*Collector)(nil)
