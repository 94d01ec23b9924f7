package worker

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

	"github.com/clickfood/webapp/internal/auth"
	"github.com/clickfood/webapp/internal/config"
	"github.com/clickfood/webapp/internal/events"
	"github.com/clickfood/webapp/internal/repository"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

type tab struct {
	store   *auth.TokenStore
	session *auth.Session
}

func openTab(t *testing.T, ctx context.Context, mem *repository.MemoryStorage, id string) tab {
	t.Helper()
	bus := events.NewInMemoryDispatcher()
	store := auth.NewTokenStore(mem, bus, auth.StoreConfig{TabID: id, Feed: mem}, zap.NewNop())
	session := auth.NewSession(ctx, store, bus, zap.NewNop(), auth.WithNavigator(auth.NavigatorFunc(func(context.Context, string) {})))
	t.Cleanup(session.Close)

	w := NewStorageSyncWorker(mem, bus, config.DefaultTokenKey, id, zap.NewNop())
	go w.Run(ctx)
	return tab{store: store, session: session}
}

func TestTwoTabsConvergeOnLogout(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := repository.NewMemoryStorage("clickfood")
	a := openTab(t, ctx, mem, "tab-a")
	b := openTab(t, ctx, mem, "tab-b")
	require.Eventually(t, func() bool { return mem.Watchers() == 2 }, waitFor, tick)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":   "42",
		"user_role": "user",
		"exp":       time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	a.store.Set(ctx, token)
	assert.Eventually(t, b.session.IsAuthenticated, waitFor, tick)

	a.session.Logout(ctx)
	assert.False(t, a.session.IsAuthenticated())
	assert.Eventually(t, func() bool { return !b.session.IsAuthenticated() }, waitFor, tick)
}

func TestWorkerIgnoresOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mem := repository.NewMemoryStorage("clickfood")
	bus := events.NewInMemoryDispatcher()
	var remote atomic.Int32
	bus.Subscribe(events.EventTokenChanged, func(_ context.Context, e events.Event) error {
		if e.Payload.(events.TokenChangedPayload).Remote {
			remote.Add(1)
		}
		return nil
	})

	w := NewStorageSyncWorker(mem, bus, config.DefaultTokenKey, "self", zap.NewNop())
	go w.Run(ctx)
	require.Eventually(t, func() bool { return mem.Watchers() == 1 }, waitFor, tick)

	require.NoError(t, mem.Publish(ctx, repository.StorageChange{Key: config.DefaultTokenKey, Writer: "self"}))
	assert.Equal(t, int32(0), remote.Load())

	require.NoError(t, mem.Publish(ctx, repository.StorageChange{Key: config.DefaultTokenKey, Writer: "other", Present: true}))
	assert.Equal(t, int32(1), remote.Load())
}

type flakyFeed struct {
	mu    sync.Mutex
	calls int
}

func (f *flakyFeed) Publish(context.Context, repository.StorageChange) error { return nil }

func (f *flakyFeed) Watch(ctx context.Context, _ string, _ func(repository.StorageChange)) error {
	f.mu.Lock()
	f.calls++
	n := f.calls
	f.mu.Unlock()
	if n < 3 {
		return errors.New("connection reset")
	}
	<-ctx.Done()
	return nil
}

func (f *flakyFeed) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestWorkerResubscribesAfterFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	feed := &flakyFeed{}
	w := NewStorageSyncWorker(feed, events.NewInMemoryDispatcher(), config.DefaultTokenKey, "tab", zap.NewNop())
	w.retryDelay = time.Millisecond

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	assert.Eventually(t, func() bool { return feed.Calls() == 3 }, waitFor, tick)
	cancel()
	select {
	case <-done:
	case <-time.After(waitFor):
		t.Fatal("worker did not stop")
	}
}
