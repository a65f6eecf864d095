// Package app connects the optional storage backends and builds the
// components that depend on them.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"timedquiz/internal/cache"
	"timedquiz/internal/catalog"
	"timedquiz/internal/config"
	"timedquiz/internal/repository"
	"timedquiz/internal/service"
)

const (
	pingTimeout     = 5 * time.Second
	maxPGConns      = 10
	maxPGConnLife   = time.Hour
	catalogLoadWait = 10 * time.Second
)

// App holds the backends enabled by configuration. Nil fields are disabled.
type App struct {
	Mongo    *mongo.Client
	DB       *mongo.Database
	Redis    *redis.Client
	Postgres *pgxpool.Pool

	cfg    *config.Config
	logger *zap.Logger
}

// Connect opens every backend configured in cfg
func Connect(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if cfg.MongoURI != "" {
		if err := a.connectMongo(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	if cfg.RedisURI != "" {
		if err := a.connectRedis(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	if cfg.PostgresDSN != "" {
		if err := a.connectPostgres(ctx); err != nil {
			a.Close(ctx)
			return nil, err
		}
	}
	return a, nil
}

func (a *App) connectMongo(ctx context.Context) error {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(a.cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	a.Mongo = client

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	a.DB = client.Database(a.cfg.MongoDatabase)
	a.logger.Info("connected to MongoDB", zap.String("database", a.cfg.MongoDatabase))
	return nil
}

func (a *App) connectRedis(ctx context.Context) error {
	opts, err := redis.ParseURL(a.cfg.RedisURI)
	if err != nil {
		return fmt.Errorf("invalid REDIS_URI: %w", err)
	}
	a.Redis = redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := a.Redis.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	a.logger.Info("connected to Redis", zap.String("addr", opts.Addr))
	return nil
}

func (a *App) connectPostgres(ctx context.Context) error {
	poolConfig, err := pgxpool.ParseConfig(a.cfg.PostgresDSN)
	if err != nil {
		return fmt.Errorf("parse postgres config: %w", err)
	}
	poolConfig.MaxConns = maxPGConns
	poolConfig.MaxConnLifetime = maxPGConnLife

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return fmt.Errorf("new postgres pool: %w", err)
	}
	a.Postgres = pool

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("failed to ping Postgres: %w", err)
	}

	a.logger.Info("connected to Postgres")
	return nil
}

// Close releases every open backend
func (a *App) Close(ctx context.Context) {
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.logger.Warn("failed to close Redis", zap.Error(err))
		}
	}
	if a.Mongo != nil {
		if err := a.Mongo.Disconnect(ctx); err != nil {
			a.logger.Warn("failed to disconnect MongoDB", zap.Error(err))
		}
	}
}

// Catalog loads the test catalog from the configured source
func (a *App) Catalog(ctx context.Context) (catalog.Catalog, error) {
	switch a.cfg.CatalogSource {
	case config.CatalogFromMongo:
		if a.DB == nil {
			return nil, fmt.Errorf("catalog source mongo: %w", config.ErrInvalidConfig)
		}
		loadCtx, cancel := context.WithTimeout(ctx, catalogLoadWait)
		defer cancel()

		tests, err := repository.NewTestRepo(a.DB).List(loadCtx)
		if err != nil {
			return nil, fmt.Errorf("failed to load tests from MongoDB: %w", err)
		}
		return catalog.New(tests)
	default:
		return catalog.LoadFile(a.cfg.CatalogPath)
	}
}

// WireTestService attaches result sinks, the evicted-session lookup and the per-test history
func (a *App) WireTestService(ctx context.Context, s *service.TestService) error {
	if a.Redis != nil {
		resultCache := cache.NewResultCache(a.Redis, a.cfg.ResultCacheTTL)
		s.AddResultSink(resultCache)
		s.SetResultLookup(resultCache)
	}

	switch a.cfg.ResultSink {
	case config.SinkMongo:
		repo := repository.NewResultRepo(a.DB)
		s.AddResultSink(repo)
		s.SetResultHistory(repo)
		if a.Redis == nil {
			s.SetResultLookup(repo)
		}
	case config.SinkPostgres:
		repo := repository.NewPostgresResultRepo(a.Postgres)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		s.AddResultSink(repo)
		s.SetResultHistory(repo)
		if a.Redis == nil {
			s.SetResultLookup(repo)
		}
	}
	return nil
}

// WireTimeTracker attaches the topic total store
func (a *App) WireTimeTracker(t *service.TimeTracker) {
	if a.Redis != nil {
		t.SetTopicStore(cache.NewTopicTimeCache(a.Redis))
	}
}
