package auth

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/domain"
	"github.com/clickfood/webapp/internal/events"
)

// RootPath is where a logout lands.
const RootPath = "/"

// Navigator performs a hard navigation: in-memory state is discarded and
// the next request starts from target.
type Navigator interface {
	HardNavigate(ctx context.Context, target string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, target string)

// HardNavigate implements Navigator.
func (f NavigatorFunc) HardNavigate(ctx context.Context, target string) { f(ctx, target) }

// State is a snapshot of the session derived from one token value.
type State struct {
	Identity        *domain.Identity  `json:"user"`
	IsAuthenticated bool              `json:"is_auth"`
	Status          domain.AuthStatus `json:"auth_status"`
	IsInitializing  bool              `json:"is_initializing"`
	Token           string            `json:"-"`
}

// SessionOption customizes a Session.
type SessionOption func(*Session)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNavigator sets the navigator used by Logout.
func WithNavigator(nav Navigator) SessionOption {
	return func(s *Session) { s.nav = nav }
}

// Session is the authentication state of one shell process. It keeps only
// the raw token; identity and status are recomputed on every read.
type Session struct {
	store  *TokenStore
	nav    Navigator
	now    func() time.Time
	logger *zap.Logger

	mu           sync.RWMutex
	token        string
	initializing bool

	unsubscribe func()
}

// NewSession reads the stored token once and starts following token changes
// published on bus. The session starts initialized when that token is usable.
func NewSession(ctx context.Context, store *TokenStore, bus events.Dispatcher, logger *zap.Logger, opts ...SessionOption) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Session{
		store:  store,
		now:    time.Now,
		logger: logger.Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}

	token, _ := store.Get(ctx)
	s.token = token
	s.initializing = !computeState(token, s.now()).IsAuthenticated

	if bus != nil {
		s.unsubscribe = bus.Subscribe(events.EventTokenChanged, func(ctx context.Context, _ events.Event) error {
			s.Refetch(ctx)
			return nil
		})
	}
	return s
}

// Close stops following token changes.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.RLock()
	token, initializing := s.token, s.initializing
	s.mu.RUnlock()

	st := computeState(token, s.now())
	st.IsInitializing = initializing
	return st
}

// CurrentIdentity returns the identity carried by a usable token.
func (s *Session) CurrentIdentity() *domain.Identity {
	return s.State().Identity
}

func (s *Session) IsAuthenticated() bool {
	return s.State().IsAuthenticated
}

func (s *Session) Status() domain.AuthStatus {
	return s.State().Status
}

// Token returns the raw token the session was last synchronized with.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// HasRole is false for an unauthenticated session and otherwise reports
// whether the identity's role is one of roles.
func (s *Session) HasRole(roles ...domain.Role) bool {
	return s.CurrentIdentity().HasAnyRole(roles...)
}

// IsInitializing reports whether no authentication decision was made yet.
func (s *Session) IsInitializing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.initializing
}

// MarkInitialized ends the initializing phase.
func (s *Session) MarkInitialized() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.initializing = false
}

// Refetch re-reads the token store.
func (s *Session) Refetch(ctx context.Context) {
	token, _ := s.store.Get(ctx)

	s.mu.Lock()
	changed := token != s.token
	s.token = token
	s.mu.Unlock()

	if changed {
		s.logger.Debug("session token synchronized", zap.String("fingerprint", Fingerprint(token)))
	}
}

// Logout clears the token, drops the session to unauthenticated and hard
// navigates to the application root.
func (s *Session) Logout(ctx context.Context) {
	s.store.Clear(ctx)

	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	s.logger.Info("session logged out")
	if s.nav != nil {
		s.nav.HardNavigate(ctx, RootPath)
	}
}

func computeState(token string, now time.Time) State {
	st := State{Status: domain.StatusUnauthenticated, Token: token}
	if token == "" {
		return st
	}
	claims, ok := Decode(token)
	if !ok || claims.ExpiredAt(now) {
		return st
	}
	identity, ok := claims.Identity()
	if !ok {
		return st
	}
	st.Identity = identity
	st.IsAuthenticated = true
	st.Status = domain.StatusAuthenticated
	return st
}
