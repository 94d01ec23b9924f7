package persistence

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/repository"
)

// Storage bundles the selected storage driver with its change feed.
type Storage struct {
	Repo   repository.StorageRepository
	Feed   repository.ChangeFeed
	Driver string

	closers []func()
}

// Close releases every connection the storage opened.
func (s *Storage) Close() {
	if s == nil {
		return
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// OpenStorage builds the storage backend selected by cfg.Storage.Driver.
func OpenStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Storage, error) {
	origin := cfg.Storage.Origin

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		mem := repository.NewMemoryStorage(origin)
		logger.Info("using in-memory token storage", zap.String("origin", origin))
		return &Storage{Repo: mem, Feed: mem, Driver: config.StorageMemory}, nil

	case config.StorageRedis:
		rdb, err := NewRedis(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, err
		}
		store := repository.NewRedisStorage(rdb.Client, origin)
		return &Storage{Repo: store, Feed: store, Driver: config.StorageRedis, closers: []func(){rdb.Close}}, nil

	case config.StoragePostgres:
		pg, err := NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.RunMigrations {
			if err := RunMigrations(ctx, pg.Pool, logger); err != nil {
				pg.Close()
				return nil, err
			}
		}
		store := repository.NewPostgresStorage(pg.Pool, origin)
		return &Storage{Repo: store, Feed: store, Driver: config.StoragePostgres, closers: []func(){pg.Close}}, nil
	}

	return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
}
