package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"quiz-launcher/internal/config"
	"quiz-launcher/internal/opentdb"
	"quiz-launcher/internal/quiz"
	"quiz-launcher/internal/rating"
	"quiz-launcher/internal/session"
	"quiz-launcher/internal/session/postgres"
	"quiz-launcher/internal/session/sqlite"
)

// Store receives handed-off quizzes and serves them back.
type Store interface {
	session.Starter
	session.Repository
	Close() error
}

type postgresStore struct {
	*postgres.Store
	pool *pgxpool.Pool
}

func (s postgresStore) Close() error {
	s.pool.Close()
	return nil
}

// OpenStore opens the session store selected by storage.driver.
func OpenStore(ctx context.Context, cfg config.Storage, logger *zap.Logger) (Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxConns:        int32(cfg.MaxConnections),
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}

		store := postgres.NewStore(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("session store ready", zap.String("driver", cfg.Driver))
		return postgresStore{Store: store, pool: pool}, nil
	case config.DriverSQLite:
		store, err := sqlite.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		logger.Info("session store ready", zap.String("driver", cfg.Driver), zap.String("path", cfg.SQLitePath))
		return store, nil
	default:
		return nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

// NewController wires the trivia client, the rating resolver and the
// connectivity probe into a session controller that hands off to starter.
func NewController(cfg *config.Config, starter session.Starter, initial quiz.Config, logger *zap.Logger, onChange func(session.Snapshot)) (*session.Controller, error) {
	if err := initial.Validate(); err != nil {
		return nil, err
	}

	profile, err := rating.LoadProfile(cfg.Rating.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("load student profile: %w", err)
	}

	fetcher := opentdb.NewClient(&http.Client{Timeout: cfg.OpenTDB.Timeout}, cfg.OpenTDB.BaseURL)
	scorer := rating.NewLLMScorer(cfg.Rating.URL, cfg.Rating.Model, cfg.Rating.Timeout)
	resolver := rating.NewResolver(scorer, logger.Named("rating"))

	return session.NewController(fetcher, resolver, starter, session.Options{
		Config:         initial,
		Profile:        profile,
		MinLoadingTime: cfg.Session.MinLoadingTime,
		Connectivity: session.DialProbe{
			Addr:    cfg.Connectivity.ProbeAddr,
			Timeout: cfg.Connectivity.Timeout,
		},
		Logger:   logger.Named("session"),
		OnChange: onChange,
	}), nil
}

// NewManager builds a session manager whose controllers come from
// NewController, so quiz-service can prepare one quiz after another.
func NewManager(cfg *config.Config, starter session.Starter, initial quiz.Config, logger *zap.Logger, onChange func(session.Snapshot)) (*session.Manager, error) {
	return session.NewManager(func(next quiz.Config) (*session.Controller, error) {
		return NewController(cfg, starter, next, logger, onChange)
	}, initial, logger.Named("manager"))
}
