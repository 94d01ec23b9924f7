package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/domain"
	"github.com/clickfood/webapp/internal/events"
	"github.com/clickfood/webapp/internal/launch"
	"github.com/clickfood/webapp/internal/repository"
)

type stubExchanger struct {
	token   string
	err     error
	calls   atomic.Int32
	mu      sync.Mutex
	sources []string
}

func (s *stubExchanger) ExchangeInitData(_ context.Context, _ string, source string) (string, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.sources = append(s.sources, source)
	s.mu.Unlock()
	return s.token, s.err
}

type resultCounter struct {
	mu      sync.Mutex
	results []string
}

func (r *resultCounter) RecordExchange(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

type fixture struct {
	store     *auth.TokenStore
	session   *auth.Session
	exchanger *stubExchanger
	metrics   *resultCounter
	logs      *observer.ObservedLogs
	svc       *BootstrapService
}

func newFixture(t *testing.T, provider launch.Provider, exchanger *stubExchanger, preset string, launchCfg config.LaunchConfig) *fixture {
	t.Helper()
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	mem := repository.NewMemoryStorage("clickfood")
	bus := events.NewInMemoryDispatcher()
	store := auth.NewTokenStore(mem, bus, auth.StoreConfig{TabID: "tab"}, logger)
	if preset != "" {
		store.Set(ctx, preset)
	}
	session := auth.NewSession(ctx, store, bus, logger)
	t.Cleanup(session.Close)

	metrics := &resultCounter{}
	svc := NewBootstrapService(launchCfg, BootstrapDependencies{
		Store:     store,
		Session:   session,
		Launch:    provider,
		Exchanger: exchanger,
		Metrics:   metrics,
	}, logger)

	return &fixture{store: store, session: session, exchanger: exchanger, metrics: metrics, logs: logs, svc: svc}
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestBootstrapWithoutHostCredential(t *testing.T) {
	ex := &stubExchanger{}
	f := newFixture(t, launch.StaticProvider{Err: launch.ErrNotInHost}, ex, "", config.LaunchConfig{})
	require.True(t, f.session.IsInitializing())

	f.svc.Run(context.Background())

	assert.False(t, f.session.IsInitializing())
	assert.Equal(t, domain.StatusUnauthenticated, f.session.Status())
	assert.Equal(t, int32(0), ex.calls.Load())
	assert.Equal(t, []string{ExchangeNoCredential}, f.metrics.results)

	warnings := f.logs.FilterLevelExact(zapcore.WarnLevel).FilterMessageSnippet("launch parameters unavailable")
	assert.Equal(t, 1, warnings.Len())
	assert.Equal(t, 0, f.logs.FilterLevelExact(zapcore.ErrorLevel).Len())

	d := auth.Decide(f.session.State(), auth.GuardOptions{Roles: []domain.Role{domain.RolePartner}}, "/webapp/partner")
	assert.Equal(t, auth.DecisionRedirect, d.Kind)
	assert.Equal(t, "/", d.Target)
	assert.Empty(t, d.State.Reason)
}

func TestBootstrapExchangesCredential(t *testing.T) {
	token := signed(t, jwt.MapClaims{
		"user_id":   "42",
		"user_role": "partner",
		"exp":       time.Now().Add(time.Hour).Unix(),
	})
	ex := &stubExchanger{token: token}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "query_id=1", StartParam: "promo"}}, ex, "", config.LaunchConfig{})

	f.svc.Run(context.Background())

	assert.False(t, f.session.IsInitializing())
	assert.True(t, f.session.IsAuthenticated())
	identity := f.session.CurrentIdentity()
	require.NotNil(t, identity)
	assert.Equal(t, "42", identity.ID)
	assert.Equal(t, domain.RolePartner, identity.Role)
	assert.True(t, f.session.HasRole(domain.RolePartner))
	assert.False(t, f.session.HasRole(domain.RoleSuperadmin))
	assert.Equal(t, []string{"promo"}, ex.sources)
	assert.Equal(t, []string{ExchangeOK}, f.metrics.results)
}

func TestBootstrapFastPathSkipsExchange(t *testing.T) {
	existing := signed(t, jwt.MapClaims{"user_id": "7", "user_role": "user", "exp": time.Now().Add(time.Hour).Unix()})
	ex := &stubExchanger{token: "unused"}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "x"}}, ex, existing, config.LaunchConfig{})
	require.False(t, f.session.IsInitializing())

	f.svc.Run(context.Background())

	assert.Equal(t, int32(0), ex.calls.Load())
	assert.True(t, f.session.IsAuthenticated())
	assert.Equal(t, []string{ExchangeSkipped}, f.metrics.results)
}

func TestBootstrapExpiredStoredTokenIsReplaced(t *testing.T) {
	expired := signed(t, jwt.MapClaims{"user_id": "7", "exp": time.Now().Add(-time.Second).Unix()})
	fresh := signed(t, jwt.MapClaims{"user_id": "8", "user_role": "user", "exp": time.Now().Add(time.Hour).Unix()})
	ex := &stubExchanger{token: fresh}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "x"}}, ex, expired, config.LaunchConfig{})
	require.False(t, f.session.IsAuthenticated())

	f.svc.Run(context.Background())

	assert.Equal(t, int32(1), ex.calls.Load())
	assert.Equal(t, "8", f.session.CurrentIdentity().ID)
}

func TestBootstrapExchangeFailureProceedsUnauthenticated(t *testing.T) {
	ex := &stubExchanger{err: errors.New("connection refused")}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "x"}}, ex, "", config.LaunchConfig{})

	f.svc.Run(context.Background())

	assert.False(t, f.session.IsInitializing())
	assert.False(t, f.session.IsAuthenticated())
	assert.False(t, f.store.Has(context.Background()))
	assert.Equal(t, 1, f.logs.FilterMessage("failed to exchange init data").Len())
	assert.Equal(t, []string{ExchangeFailed}, f.metrics.results)
}

func TestBootstrapDevModeUsesEmptyCredentialAndDevSource(t *testing.T) {
	ex := &stubExchanger{err: errors.New("rejected")}
	f := newFixture(t, launch.StaticProvider{}, ex, "", config.LaunchConfig{DevMode: true, DevSource: "dev"})

	f.svc.Run(context.Background())

	assert.Equal(t, int32(1), ex.calls.Load())
	assert.Equal(t, []string{"dev"}, ex.sources)
}

func TestBootstrapRunsOnce(t *testing.T) {
	token := signed(t, jwt.MapClaims{"user_id": "1", "exp": time.Now().Add(time.Hour).Unix()})
	ex := &stubExchanger{token: token}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "x"}}, ex, "", config.LaunchConfig{})

	f.store.Clear(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.svc.Run(context.Background())
		}()
	}
	wg.Wait()

	// A second run after the token vanished must still not exchange again.
	f.store.Clear(context.Background())
	f.svc.Run(context.Background())

	assert.Equal(t, int32(1), ex.calls.Load())
	select {
	case <-f.svc.Done():
	default:
		t.Fatal("done channel not closed")
	}
}

func TestReauthenticate(t *testing.T) {
	token := signed(t, jwt.MapClaims{"user_id": "5", "user_role": "superadmin", "exp": time.Now().Add(time.Hour).Unix()})
	ex := &stubExchanger{token: token}
	f := newFixture(t, launch.StaticProvider{Params: launch.Params{InitDataRaw: "x", StartParam: "start"}}, ex, "", config.LaunchConfig{})
	f.svc.Run(context.Background())

	require.NoError(t, f.svc.Reauthenticate(context.Background(), "manual"))
	assert.Equal(t, []string{"start", "manual"}, ex.sources)
	assert.True(t, f.session.HasRole(domain.RoleSuperadmin))
}

func TestReauthenticateErrors(t *testing.T) {
	f := newFixture(t, launch.StaticProvider{Err: launch.ErrNotInHost}, &stubExchanger{}, "", config.LaunchConfig{})
	assert.ErrorIs(t, f.svc.Reauthenticate(context.Background(), ""), launch.ErrNotInHost)

	boom := errors.New("boom")
	f = newFixture(t, launch.StaticProvider{}, &stubExchanger{err: boom}, "", config.LaunchConfig{})
	assert.ErrorIs(t, f.svc.Reauthenticate(context.Background(), ""), boom)

	f = newFixture(t, launch.StaticProvider{}, &stubExchanger{token: "not-a-jwt"}, "", config.LaunchConfig{})
	assert.ErrorIs(t, f.svc.Reauthenticate(context.Background(), ""), ErrUnusableToken)
}
