package scanner

import (
	"context"
	"errors"
	"time"

	"github.com/defistate/defistate-cycles-go/graph"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Snapshotter hands out immutable views of the liquidity graph.
type Snapshotter interface {
	Snapshot() *graph.Snapshot
}

// Config holds the Scanner's settings and dependencies.
type Config struct {
	Graph   Snapshotter
	Sources []graph.TokenKey
	// Budget bounds every search. Timeout, when set, adds a per-scan deadline.
	Budget  graph.SearchBudget
	Timeout time.Duration
	// Workers caps concurrent searches; zero means one per source.
	Workers  int
	OnReport func(*Report)
	Registry prometheus.Registerer
	Logger   Logger
}

func (c *Config) validate() error {
	if c.Graph == nil {
		return errors.New("config: Graph cannot be nil")
	}
	if len(c.Sources) == 0 {
		return errors.New("config: Sources cannot be empty")
	}
	if c.Workers < 0 {
		return errors.New("config: Workers cannot be negative")
	}
	if c.Timeout < 0 {
		return errors.New("config: Timeout cannot be negative")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Report is the outcome of one scan: one search result per source, all
// computed against the same snapshot.
type Report struct {
	Version  uint64
	Results  []*graph.Result
	Duration time.Duration
}

// Partial reports whether any search stopped on its budget.
func (r *Report) Partial() bool {
	for _, res := range r.Results {
		if res.Partial {
			return true
		}
	}
	return false
}

// Best returns the highest-total cycle over all sources.
func (r *Report) Best() (graph.Path, bool) {
	var (
		best  graph.Path
		found bool
	)
	for _, res := range r.Results {
		if p, ok := res.Best(); ok && (!found || p.Compare(best) > 0) {
			best, found = p, true
		}
	}
	return best, found
}

// Scanner runs cycle searches from a fixed set of source tokens, in
// parallel, over a snapshot of the liquidity graph.
type Scanner struct {
	graph    Snapshotter
	sources  []graph.TokenKey
	budget   graph.SearchBudget
	timeout  time.Duration
	workers  int
	onReport func(*Report)
	metrics  *Metrics
	logger   Logger
}

// NewScanner constructs a Scanner, returning an error if the config is invalid.
// Duplicate sources are searched once.
func NewScanner(cfg *Config) (*Scanner, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	seen := mapset.NewThreadUnsafeSetWithSize[graph.TokenKey](len(cfg.Sources))
	sources := make([]graph.TokenKey, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		if seen.Add(s) {
			sources = append(sources, s)
		}
	}

	workers := cfg.Workers
	if workers == 0 {
		workers = len(sources)
	}

	return &Scanner{
		graph:    cfg.Graph,
		sources:  sources,
		budget:   cfg.Budget,
		timeout:  cfg.Timeout,
		workers:  workers,
		onReport: cfg.OnReport,
		metrics:  NewMetrics(cfg.Registry),
		logger:   cfg.Logger,
	}, nil
}

// Sources returns the deduplicated source tokens in configuration order.
func (s *Scanner) Sources() []graph.TokenKey {
	out := make([]graph.TokenKey, len(s.sources))
	copy(out, s.sources)
	return out
}

// Scan searches every source over one snapshot. The search budget gains a
// deadline from the scan timeout and from ctx. Searches not yet started when
// ctx is cancelled are skipped and Scan returns the context error.
func (s *Scanner) Scan(ctx context.Context) (*Report, error) {
	start := time.Now()
	snapshot := s.graph.Snapshot()
	s.metrics.graphTokens.Set(float64(snapshot.TokenCount()))
	s.metrics.graphEdges.Set(float64(snapshot.EdgeCount()))

	budget := s.budget
	if s.timeout > 0 {
		budget = budget.WithDeadline(start.Add(s.timeout))
	}
	if d, ok := ctx.Deadline(); ok {
		budget = budget.WithDeadline(d)
	}

	results := make([]*graph.Result, len(s.sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, source := range s.sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = s.explore(snapshot, source, budget)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{
		Version:  snapshot.Version(),
		Results:  results,
		Duration: time.Since(start),
	}
	s.metrics.scanDuration.Observe(report.Duration.Seconds())
	return report, nil
}

func (s *Scanner) explore(snapshot *graph.Snapshot, source graph.TokenKey, budget graph.SearchBudget) *graph.Result {
	timer := prometheus.NewTimer(s.metrics.exploreDuration)
	res := snapshot.Explore(source, budget)
	timer.ObserveDuration()

	s.metrics.iterations.Observe(float64(res.Stats.Iterations))
	s.metrics.overflowPrunes.Add(float64(res.Stats.Overflows))
	s.metrics.cyclesFound.Add(float64(len(res.Paths)))
	if res.Partial {
		s.metrics.partialSearches.WithLabelValues(res.Reason.String()).Inc()
		s.logger.Warn("Search stopped by budget",
			"source", source, "reason", res.Reason, "iterations", res.Stats.Iterations, "queue", res.Stats.MaxQueue)
	}
	return res
}

// Run scans every interval until ctx is cancelled, handing each report to
// the configured OnReport callback.
func (s *Scanner) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("scanner: interval must be positive")
	}
	s.logger.Info("Scanner started", "sources", len(s.sources), "workers", s.workers, "interval", interval)
	defer s.logger.Info("Scanner stopped")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		s.runOnce(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scanner) runOnce(ctx context.Context) {
	report, err := s.Scan(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Error("Scan failed", "err", err)
		}
		return
	}

	if best, ok := report.Best(); ok {
		s.logger.Info("Scan complete",
			"version", report.Version,
			"duration", report.Duration,
			"partial", report.Partial(),
			"bestTotal", best.Total().Dec(),
			"bestHops", best.Len(),
			"closesAt", best.Last())
	} else {
		s.logger.Debug("Scan complete, no cycles", "version", report.Version, "duration", report.Duration)
	}

	if s.onReport != nil {
		s.onReport(report)
	}
}
