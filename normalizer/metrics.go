package normalizer

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Feeder's Prometheus collectors.
type Metrics struct {
	quotesUpserted *prometheus.CounterVec
	quoteFailures  *prometheus.CounterVec
	poolsRemoved   *prometheus.CounterVec
	applyDuration  prometheus.Histogram
}

// NewMetrics registers the Feeder collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		quotesUpserted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "normalizer",
			Name:      "quotes_upserted_total",
			Help:      "Directed quotes written to the liquidity graph.",
		}, []string{"kind"}),
		quoteFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "normalizer",
			Name:      "quote_failures_total",
			Help:      "Pool directions that could not be quoted.",
		}, []string{"kind"}),
		poolsRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cycles",
			Subsystem: "normalizer",
			Name:      "pools_removed_total",
			Help:      "Pools dropped from the graph, unquotable or gone from the pool set.",
		}, []string{"kind"}),
		applyDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cycles",
			Subsystem: "normalizer",
			Name:      "apply_duration_seconds",
			Help:      "Time to normalize and write one pool update.",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}),
	}
}
