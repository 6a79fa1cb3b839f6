package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/maturity-cli/internal/assessment"
	"github.com/sells-group/maturity-cli/internal/benchmark"
	"github.com/sells-group/maturity-cli/internal/cache"
	"github.com/sells-group/maturity-cli/internal/registry"
	"github.com/sells-group/maturity-cli/internal/report"
	"github.com/sells-group/maturity-cli/internal/resilience"
	"github.com/sells-group/maturity-cli/internal/store"
)

// appEnv holds the store, cache and service used by the stateful commands.
type appEnv struct {
	Store   store.Store
	Cache   *cache.Cache
	Service *assessment.Service
}

// Close releases resources held by the environment.
func (e *appEnv) Close() {
	if e.Cache != nil {
		_ = e.Cache.Close()
	}
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp validates the config for mode, opens and migrates the store,
// connects the cache when reachable and builds the service. Callers should defer env.Close().
func initApp(ctx context.Context, mode string) (*appEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	builder, err := initBuilder(ctx, st)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	c := initCache(ctx)
	svc := assessment.NewService(st, builder, c, assessment.Options{
		DefaultLanguage:  cfg.Assessment.DefaultLanguage,
		MinSampleSize:    cfg.Cohort.MinSampleSize,
		LeaderboardLimit: cfg.Cohort.LeaderboardLimit,
	})
	return &appEnv{Store: st, Cache: c, Service: svc}, nil
}

// initCache connects Redis when configured. An unreachable Redis is logged
// and the commands run without a cache.
func initCache(ctx context.Context) *cache.Cache {
	if !cfg.Cache.Enabled() {
		zap.L().Debug("MATURITY_CACHE_REDIS_ADDR not set, cohort views are not cached")
		return nil
	}
	c, err := resilience.Retry(ctx, connectBackoff(), "connect redis", func(ctx context.Context) (*cache.Cache, error) {
		return cache.New(ctx, cfg.Cache)
	})
	if err != nil {
		zap.L().Warn("redis unavailable, cohort views are not cached",
			zap.String("addr", cfg.Cache.RedisAddr),
			zap.Error(err),
		)
		return nil
	}
	return c
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "maturity.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return resilience.Retry(ctx, connectBackoff(), "connect postgres", func(ctx context.Context) (store.Store, error) {
			return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
				MaxConns: cfg.Store.MaxConns,
				MinConns: cfg.Store.MinConns,
			})
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func connectBackoff() resilience.Backoff {
	b := resilience.DefaultBackoff()
	if cfg.Store.ConnectAttempts > 0 {
		b.Attempts = cfg.Store.ConnectAttempts
	}
	return b
}

// initBuilder loads the question bank and the cohort table. st may be nil.
func initBuilder(ctx context.Context, st store.Store) (*report.Builder, error) {
	spec, err := registry.LoadSpecFile(cfg.Assessment.SpecFile)
	if err != nil {
		return nil, err
	}
	table, err := loadBenchmarkTable(ctx, st)
	if err != nil {
		return nil, err
	}
	zap.L().Info("question bank loaded",
		zap.String("version", spec.Version),
		zap.Int("dimensions", len(spec.Dimensions)),
		zap.Int("questions", len(spec.Questions)),
		zap.Int("cohorts", table.Len()),
	)
	return report.NewBuilder(spec, table), nil
}

// loadBenchmarkTable prefers the configured file, then cohorts loaded into
// the store, then the built-in table.
func loadBenchmarkTable(ctx context.Context, st store.Store) (*benchmark.Table, error) {
	if cfg.Assessment.BenchmarkFile != "" || st == nil {
		return registry.LoadBenchmarksFile(cfg.Assessment.BenchmarkFile)
	}

	entries, err := st.ListBenchmarks(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "list stored benchmarks")
	}
	if len(entries) == 0 {
		return registry.DefaultBenchmarks()
	}
	table, err := benchmark.NewTable(entries)
	if err != nil {
		return nil, eris.Wrap(err, "build stored benchmark table")
	}
	return table, nil
}
