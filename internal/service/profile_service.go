package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/api/dto"
	"github.com/clickfood/webapp/internal/auth"
)

// DefaultProfileStaleTime is how long a fetched profile is served from cache.
const DefaultProfileStaleTime = 5 * time.Minute

// ErrNoSession is returned when the profile is requested without a token.
var ErrNoSession = errors.New("no authenticated session")

// UserFetcher loads the backend profile of the token holder.
type UserFetcher interface {
	CurrentUser(ctx context.Context) (*dto.User, error)
}

// ProfileService caches the current user's backend profile per token.
type ProfileService struct {
	fetcher   UserFetcher
	staleTime time.Duration
	now       func() time.Time
	logger    *zap.Logger

	mu        sync.Mutex
	user      *dto.User
	tokenFP   string
	fetchedAt time.Time
}

// NewProfileService builds the service. staleTime <= 0 uses DefaultProfileStaleTime.
func NewProfileService(fetcher UserFetcher, staleTime time.Duration, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if staleTime <= 0 {
		staleTime = DefaultProfileStaleTime
	}
	return &ProfileService{
		fetcher:   fetcher,
		staleTime: staleTime,
		now:       time.Now,
		logger:    logger.Named("profile"),
	}
}

// Current returns the profile for token, fetching it when the cached copy
// belongs to another token or went stale.
func (s *ProfileService) Current(ctx context.Context, token string) (*dto.User, error) {
	if token == "" {
		return nil, ErrNoSession
	}
	fp := auth.Fingerprint(token)

	s.mu.Lock()
	if s.user != nil && s.tokenFP == fp && s.now().Sub(s.fetchedAt) < s.staleTime {
		user := *s.user
		s.mu.Unlock()
		return &user, nil
	}
	s.mu.Unlock()

	user, err := s.fetcher.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user, s.tokenFP, s.fetchedAt = user, fp, s.now()
	s.mu.Unlock()

	s.logger.Debug("profile fetched", zap.String("fingerprint", fp), zap.String("user_id", user.ID))
	out := *user
	return &out, nil
}

// Invalidate drops the cached profile.
func (s *ProfileService) Invalidate(context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.tokenFP = ""
}
