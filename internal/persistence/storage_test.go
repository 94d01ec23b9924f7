package persistence

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/config"
)

func TestOpenStorageMemory(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StorageMemory, Origin: "clickfood"}}

	s, err := OpenStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, config.StorageMemory, s.Driver)
	assert.Same(t, s.Repo, s.Feed)
}

func TestOpenStorageRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageRedis, Origin: "clickfood"},
		Redis:   config.RedisConfig{Addr: mr.Addr()},
	}

	s, err := OpenStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Repo.Set(context.Background(), "k", "v"))
	assert.True(t, mr.Exists("clickfood:storage:k"))
}

func TestOpenStorageRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := &config.Config{
		Storage: config.StorageConfig{Driver: config.StorageRedis, Origin: "clickfood"},
		Redis:   config.RedisConfig{Addr: addr},
	}
	_, err := OpenStorage(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestOpenStoragePostgresRequiresDSN(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: config.StoragePostgres, Origin: "clickfood"}}
	_, err := OpenStorage(context.Background(), cfg, zap.NewNop())
	assert.ErrorIs(t, err, ErrPostgresNotConfigured)
}

func TestOpenStorageUnknownDriver(t *testing.T) {
	cfg := &config.Config{Storage: config.StorageConfig{Driver: "sqlite", Origin: "clickfood"}}
	_, err := OpenStorage(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}
