package normalizer

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// FeederConfig holds the Feeder's dependencies.
type FeederConfig struct {
	Graph      Graph
	Normalizer *Normalizer
	Registry   prometheus.Registerer
	Logger     Logger
}

func (c *FeederConfig) validate() error {
	if c.Graph == nil {
		return errors.New("config: Graph cannot be nil")
	}
	if c.Normalizer == nil {
		return errors.New("config: Normalizer cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Feeder keeps the liquidity graph in step with pool state: every update
// re-quotes the pool and replaces its edges.
type Feeder struct {
	graph      Graph
	normalizer *Normalizer
	metrics    *Metrics
	logger     Logger
}

// NewFeeder constructs a Feeder, returning an error if the config is invalid.
func NewFeeder(cfg *FeederConfig) (*Feeder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Feeder{
		graph:      cfg.Graph,
		normalizer: cfg.Normalizer,
		metrics:    NewMetrics(cfg.Registry),
		logger:     cfg.Logger,
	}, nil
}

// Apply normalizes pool and writes its quotes, returning how many directed
// quotes were written. A pool with no quotable direction is removed from the
// graph. The returned error reports the directions that failed; the graph is
// updated either way.
func (f *Feeder) Apply(pool Pool) (int, error) {
	if pool == nil {
		return 0, ErrNilPool
	}
	timer := prometheus.NewTimer(f.metrics.applyDuration)
	defer timer.ObserveDuration()

	kind := pool.Kind().String()
	edges, err := f.normalizer.Normalize(pool)
	if err != nil {
		f.metrics.quoteFailures.WithLabelValues(kind).Add(float64(2 - len(edges)))
		f.logger.Debug("Pool direction not quoted", "pool", pool.ID(), "kind", kind, "err", err)
	}

	if len(edges) == 0 {
		f.graph.RemovePool(pool.ID())
		f.metrics.poolsRemoved.WithLabelValues(kind).Inc()
		return 0, err
	}

	f.graph.ReplacePool(pool.ID(), edges)
	f.metrics.quotesUpserted.WithLabelValues(kind).Add(float64(len(edges)))
	return len(edges), err
}

// ApplyAll applies every pool and returns how many produced at least one quote.
func (f *Feeder) ApplyAll(pools []Pool) int {
	applied := 0
	for _, pool := range pools {
		if n, _ := f.Apply(pool); n > 0 {
			applied++
		}
	}
	return applied
}

// ApplyDiff removes the pools that disappeared and re-quotes the changed ones.
// It returns how many changed pools produced at least one quote.
func (f *Feeder) ApplyDiff(diff PoolSetDiff) int {
	for _, pool := range diff.Removed {
		f.graph.RemovePool(pool.ID())
		f.metrics.poolsRemoved.WithLabelValues(pool.Kind().String()).Inc()
	}
	return f.ApplyAll(diff.Changed)
}

// Run applies pool updates from updates until ctx is cancelled or the
// channel is closed.
func (f *Feeder) Run(ctx context.Context, updates <-chan Pool) error {
	f.logger.Info("Feeder started")
	defer f.logger.Info("Feeder stopped")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case pool, ok := <-updates:
			if !ok {
				return nil
			}
			if pool == nil {
				continue
			}
			_, _ = f.Apply(pool)
		}
	}
}
