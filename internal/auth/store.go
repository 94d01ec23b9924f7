package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/events"
	"github.com/clickfood/webapp/internal/repository"
)

// StoreConfig describes where and under which identity the token is stored.
type StoreConfig struct {
	// Key is the single storage key of the token.
	Key string
	// TabID identifies this process as the writer on the change feed.
	TabID string
	// Feed is optional; without it changes stay inside the process.
	Feed repository.ChangeFeed
}

// TokenStore persists the bearer token and announces every mutation.
// Storage failures are logged and never returned.
type TokenStore struct {
	repo   repository.StorageRepository
	feed   repository.ChangeFeed
	bus    events.Dispatcher
	key    string
	tabID  string
	logger *zap.Logger
}

// NewTokenStore builds a store over repo. bus may be nil.
func NewTokenStore(repo repository.StorageRepository, bus events.Dispatcher, cfg StoreConfig, logger *zap.Logger) *TokenStore {
	if cfg.Key == "" {
		cfg.Key = config.DefaultTokenKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenStore{
		repo:   repo,
		feed:   cfg.Feed,
		bus:    bus,
		key:    cfg.Key,
		tabID:  cfg.TabID,
		logger: logger.Named("token_store"),
	}
}

// Key returns the storage key.
func (s *TokenStore) Key() string { return s.key }

// TabID returns the writer identity used on the change feed.
func (s *TokenStore) TabID() string { return s.tabID }

// Set persists token. An empty token clears the store.
func (s *TokenStore) Set(ctx context.Context, token string) {
	if token == "" {
		s.Clear(ctx)
		return
	}
	if err := s.repo.Set(ctx, s.key, token); err != nil {
		s.logger.Error("failed to save auth token", zap.Error(err), zap.String("fingerprint", Fingerprint(token)))
		return
	}
	s.logger.Debug("auth token saved", zap.String("fingerprint", Fingerprint(token)))
	s.notify(ctx, true)
}

// Get returns the stored token, or false when absent or unreadable.
func (s *TokenStore) Get(ctx context.Context) (string, bool) {
	token, ok, err := s.repo.Get(ctx, s.key)
	if err != nil {
		s.logger.Error("failed to get auth token", zap.Error(err))
		return "", false
	}
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// Has reports whether any token is stored, valid or not.
func (s *TokenStore) Has(ctx context.Context) bool {
	_, ok := s.Get(ctx)
	return ok
}

// Clear removes the token.
func (s *TokenStore) Clear(ctx context.Context) {
	if err := s.repo.Delete(ctx, s.key); err != nil {
		s.logger.Error("failed to clear auth token", zap.Error(err))
		return
	}
	s.logger.Debug("auth token cleared")
	s.notify(ctx, false)
}

// notify reaches same-process observers synchronously, then other processes.
func (s *TokenStore) notify(ctx context.Context, present bool) {
	if s.bus != nil {
		err := s.bus.Publish(ctx, events.Event{
			Type: events.EventTokenChanged,
			Payload: events.TokenChangedPayload{
				Key:     s.key,
				Origin:  s.tabID,
				Present: present,
			},
		})
		if err != nil {
			s.logger.Warn("token change listener failed", zap.Error(err))
		}
	}

	if s.feed != nil {
		err := s.feed.Publish(ctx, repository.StorageChange{
			Key:     s.key,
			Writer:  s.tabID,
			Present: present,
			At:      time.Now().UTC(),
		})
		if err != nil {
			s.logger.Warn("failed to broadcast token change", zap.Error(err))
		}
	}
}
