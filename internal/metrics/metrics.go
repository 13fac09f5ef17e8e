package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Tailing metrics
	LinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killfeed_lines_total",
			Help: "Total number of log lines read from the game log",
		},
	)

	TailErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killfeed_tail_errors_total",
			Help: "Total number of failed log polls",
		},
	)

	// Kill pipeline metrics
	KillsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killfeed_kills_total",
			Help: "Total number of kill events by outcome",
		},
		[]string{"outcome"}, // sent, failed, skipped
	)

	DispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "killfeed_dispatch_duration_seconds",
			Help:    "Duration of kill record dispatch in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Health metrics
	HealthChecks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "killfeed_health_checks_total",
			Help: "Total number of endpoint health checks by result",
		},
		[]string{"result"}, // ok, failed
	)

	// Session metrics
	SessionsStarted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "killfeed_sessions_started_total",
			Help: "Total number of tracking sessions that reached monitoring",
		},
	)

	SessionActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "killfeed_session_active",
			Help: "1 while a tracking session is monitoring, 0 otherwise",
		},
	)
)

// Outcome labels for KillsTotal.
const (
	OutcomeSent    = "sent"
	OutcomeFailed  = "failed"
	OutcomeSkipped = "skipped"
)
