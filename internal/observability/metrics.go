// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the agent.
type Metrics struct {
	// Scan loop metrics
	TicksTotal      prometheus.Counter
	TickErrors      prometheus.Counter
	TickDuration    prometheus.Histogram
	CandidatesSeen  prometheus.Counter
	Opportunities   prometheus.Counter
	FeedErrors      prometheus.Counter
	LastTickSuccess prometheus.Gauge

	// Position metrics
	EntriesTotal    prometheus.Counter
	ExitsTotal      *prometheus.CounterVec
	OpenPositions   prometheus.Gauge
	RealizedPnLUSDC prometheus.Gauge

	// Execution metrics
	ExecutionErrors prometheus.Counter
	SwapDuration    prometheus.Histogram
}

// NewMetrics creates a Metrics instance registered on the given registerer.
// Pass prometheus.DefaultRegisterer in production; tests use a fresh
// registry so parallel tests never collide.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "trading_agent"
	}
	factory := promauto.With(reg)

	return &Metrics{
		TicksTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "ticks_total",
			Help:      "Total number of scan ticks started",
		}),
		TickErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tick_errors_total",
			Help:      "Total number of scan ticks that failed",
		}),
		TickDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "tick_duration_seconds",
			Help:      "Scan tick duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		CandidatesSeen: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "candidates_total",
			Help:      "Total number of normalized candidates evaluated",
		}),
		Opportunities: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "opportunities_total",
			Help:      "Total number of candidates that passed the entry filter",
		}),
		FeedErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "feed_errors_total",
			Help:      "Total number of feed fetch failures",
		}),
		LastTickSuccess: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "scan",
			Name:      "last_successful_tick_timestamp",
			Help:      "Unix timestamp of the last successful scan tick",
		}),

		EntriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "entries_total",
			Help:      "Total number of positions opened",
		}),
		ExitsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "exits_total",
			Help:      "Total number of positions closed by exit reason",
		}, []string{"reason"}),
		OpenPositions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open",
			Help:      "Number of currently open positions",
		}),
		RealizedPnLUSDC: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "realized_pnl_usdc",
			Help:      "Cumulative realized profit and loss in USDC",
		}),

		ExecutionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "errors_total",
			Help:      "Total number of failed swap executions",
		}),
		SwapDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "swap_duration_seconds",
			Help:      "End-to-end swap duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
}

// Nop returns a bundle backed by a private registry. Callers that do not
// export metrics use it instead of guarding every recording site.
func Nop() *Metrics {
	return NewMetrics("", prometheus.NewRegistry())
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
