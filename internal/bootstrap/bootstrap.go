// Package bootstrap wires the engine from configuration. The HTTP server, the
// CLI and the seed script share it so they always run the same engine.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/marketmind/internal/config"
	"github.com/Harshitk-cp/marketmind/internal/domain"
	"github.com/Harshitk-cp/marketmind/internal/llm"
	"github.com/Harshitk-cp/marketmind/internal/metrics"
	"github.com/Harshitk-cp/marketmind/internal/service"
	"github.com/Harshitk-cp/marketmind/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Runtime is a fully wired engine plus everything that must be closed with it.
type Runtime struct {
	Store   domain.SnapshotStore
	Engine  *service.Engine
	Review  *service.ReviewService
	Metrics *metrics.Recorder

	closers []func()
}

// Close releases stores and connections in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// NewLogger builds a production logger, or a development one at debug level.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	if lvl == zapcore.DebugLevel {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

// New opens the configured store and builds the engine around it.
func New(ctx context.Context, logger *zap.Logger) (*Runtime, error) {
	rt := &Runtime{Metrics: metrics.NewRecorder()}

	st, err := openStore(ctx, rt, logger)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.Store = st

	engine := service.NewEngine(st, service.EngineConfig{
		StalenessCycles: config.StalenessCycles(),
		Thresholds: service.Thresholds{
			MomentumFloor:    config.NarrativeMomentumFloor(),
			LowAttention:     config.NarrativeLowAttention(),
			CrowdedAttention: config.NarrativeCrowdedAttention(),
		},
		NoisePct: config.CrossCheckNoisePct(),
	}, logger)
	engine.SetMetrics(rt.Metrics)

	if url := config.RedisURL(); url != "" {
		opts, err := redis.ParseURL(url)
		if err != nil {
			rt.Close()
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		if err := client.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		engine.SetCycleLock(store.NewRedisCycleLock(client, config.CycleLockTTL()))
		logger.Info("cross-process cycle lock enabled")
	}

	provider := config.ReasoningProvider()
	client, err := llm.NewClient(provider, config.ReasoningAPIKey(), config.ReasoningModel())
	if err != nil {
		logger.Warn("reasoning client initialization failed; using supplied verdicts only",
			zap.String("provider", provider), zap.Error(err))
	} else if client != nil {
		breaker := llm.NewBreakerClient(client, llm.DefaultBreakerSettings(), logger)
		collector := service.NewVerdictCollector(breaker, config.ReasoningTimeout(), logger)
		collector.SetMetrics(rt.Metrics)
		engine.SetVerdictCollector(collector)
		logger.Info("reasoning client initialized", zap.String("provider", provider))
	}

	review := service.NewReviewService(st, config.StalenessCycles(), logger)
	review.SetInterval(config.ReviewInterval())

	rt.Engine = engine
	rt.Review = review
	return rt, nil
}

func openStore(ctx context.Context, rt *Runtime, logger *zap.Logger) (domain.SnapshotStore, error) {
	switch backend := config.StoreBackend(); backend {
	case "badger":
		st, err := store.OpenBadger(store.BadgerConfig{
			Path:       config.BadgerPath(),
			SyncWrites: true,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		rt.closers = append(rt.closers, func() { _ = st.Close() })
		logger.Info("opened badger snapshot store", zap.String("path", config.BadgerPath()))
		return st, nil

	case "postgres":
		dbURL := config.DatabaseURL()
		if dbURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
		pool, err := pgxpool.New(ctx, dbURL)
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		rt.closers = append(rt.closers, pool.Close)
		if err := pool.Ping(ctx); err != nil {
			return nil, fmt.Errorf("ping database: %w", err)
		}
		st := store.NewPostgresSnapshotStore(pool)
		if err := st.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		logger.Info("connected to database")
		return st, nil

	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND: %s (valid options: badger, postgres)", backend)
	}
}
