package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/defistate/defistate-cycles-go/config"
	"github.com/defistate/defistate-cycles-go/graph"
	"github.com/defistate/defistate-cycles-go/normalizer"
	"github.com/defistate/defistate-cycles-go/scanner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultPoolUpdateBufferSize = 1024
	shutdownTimeout             = 5 * time.Second
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, _ := cfg.Level()
	rootLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	// Create a context that cancels when the OS sends an interrupt (Ctrl+C) or termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, rootLogger); err != nil && !errors.Is(err, context.Canceled) {
		rootLogger.Error("Service stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, rootLogger *slog.Logger) error {
	prometheusRegistry := prometheus.NewRegistry()
	prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	referenceAmount, err := cfg.Reference()
	if err != nil {
		return err
	}
	sources, err := cfg.Scan.SourceTokens()
	if err != nil {
		return err
	}

	liquidity := graph.NewLiquidityGraph(cfg.CompactionThreshold)

	norm, err := normalizer.NewNormalizer(referenceAmount)
	if err != nil {
		return err
	}
	feeder, err := normalizer.NewFeeder(&normalizer.FeederConfig{
		Graph:      liquidity,
		Normalizer: norm,
		Registry:   prometheusRegistry,
		Logger:     rootLogger.With("component", "feeder"),
	})
	if err != nil {
		return err
	}

	pools, err := loadPools(cfg.PoolsFile)
	if err != nil {
		return err
	}
	applied := feeder.ApplyAll(pools)
	rootLogger.Info("Pool set loaded",
		"file", cfg.PoolsFile, "pools", len(pools), "quoted", applied,
		"tokens", liquidity.TokenCount(), "edges", liquidity.EdgeCount())

	scanLogger := rootLogger.With("component", "scanner")
	scan, err := scanner.NewScanner(&scanner.Config{
		Graph:    liquidity,
		Sources:  sources,
		Budget:   cfg.Scan.SearchBudget,
		Timeout:  cfg.Scan.Timeout,
		Workers:  cfg.Scan.Workers,
		OnReport: logCycles(scanLogger),
		Registry: prometheusRegistry,
		Logger:   scanLogger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	server := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metricsMux(prometheusRegistry),
		ReadHeaderTimeout: 5 * time.Second,
	}
	g.Go(func() error {
		rootLogger.Info("Serving metrics", "addr", cfg.MetricsAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.ReloadInterval > 0 {
		updates := make(chan normalizer.Pool, DefaultPoolUpdateBufferSize)
		g.Go(func() error {
			return feeder.Run(gctx, updates)
		})
		g.Go(func() error {
			defer close(updates)
			return reloadPools(gctx, cfg.PoolsFile, cfg.ReloadInterval, pools, feeder, updates, rootLogger.With("component", "reloader"))
		})
	}

	g.Go(func() error {
		return scan.Run(gctx, cfg.Scan.Interval)
	})

	return g.Wait()
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}

func loadPools(path string) ([]normalizer.Pool, error) {
	set, err := normalizer.LoadPoolSet(path)
	if err != nil {
		return nil, err
	}
	return set.Pools()
}

// reloadPools re-reads the pool file every interval, removes pools that
// disappeared and streams the changed ones to the feeder. A file that fails
// to load is skipped until the next tick.
func reloadPools(
	ctx context.Context,
	path string,
	interval time.Duration,
	prev []normalizer.Pool,
	feeder *normalizer.Feeder,
	updates chan<- normalizer.Pool,
	logger *slog.Logger,
) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		pools, err := loadPools(path)
		if err != nil {
			logger.Warn("Failed to reload pool set", "file", path, "error", err)
			continue
		}
		diff := normalizer.Differ(prev, pools)
		prev = pools
		if diff.IsEmpty() {
			continue
		}

		feeder.ApplyDiff(normalizer.PoolSetDiff{Removed: diff.Removed})
		for _, p := range diff.Changed {
			select {
			case updates <- p:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		logger.Debug("Pool set reloaded", "changed", len(diff.Changed), "removed", len(diff.Removed))
	}
}

// logCycles logs every cycle of a report at debug level.
func logCycles(logger *slog.Logger) func(*scanner.Report) {
	return func(r *scanner.Report) {
		for _, res := range r.Results {
			for _, p := range res.Cycles() {
				logger.Debug("Cycle",
					"source", res.Source,
					"closesAt", p.Last(),
					"total", p.Total().Dec(),
					"hops", p.Len())
			}
		}
	}
}

func loadConfig() (*config.Config, error) {
	configPath := flag.String("config", "config.yaml", "Path to the configuration file.")
	flag.Parse()
	log.Printf("Loading configuration from: %s", *configPath)
	return config.LoadConfig(*configPath)
}
