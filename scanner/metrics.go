package scanner

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Scanner's Prometheus collectors.
type Metrics struct {
	scanDuration    prometheus.Histogram
	exploreDuration prometheus.Histogram
	iterations      prometheus.Histogram
	partialSearches *prometheus.CounterVec
	overflowPrunes  prometheus.Counter
	cyclesFound     prometheus.Counter
	graphTokens     prometheus.Gauge
	graphEdges      prometheus.Gauge
}

// NewMetrics registers the Scanner collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		scanDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "scan_duration_seconds",
			Help:      "Time to search every source token over one snapshot.",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 10),
		}),
		exploreDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "explore_duration_seconds",
			Help:      "Time of a single cycle search from one source token.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		iterations: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "explore_iterations",
			Help:      "Paths popped by a single cycle search.",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
		}),
		partialSearches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "partial_searches_total",
			Help:      "Searches stopped by their budget, by the limit that tripped.",
		}, []string{"reason"}),
		overflowPrunes: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "overflow_prunes_total",
			Help:      "Path extensions dropped because the total overflowed.",
		}),
		cyclesFound: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "scanner",
			Name:      "cycles_found_total",
			Help:      "Completed cycles recorded across all searches.",
		}),
		graphTokens: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cycles",
			Subsystem: "graph",
			Name:      "tokens",
			Help:      "Tokens in the scanned snapshot.",
		}),
		graphEdges: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "cycles",
			Subsystem: "graph",
			Name:      "edges",
			Help:      "Directed quotes in the scanned snapshot.",
		}),
	}
}
