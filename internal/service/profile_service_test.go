package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/api/dto"
)

type stubFetcher struct {
	calls atomic.Int32
	err   error
}

func (f *stubFetcher) CurrentUser(context.Context) (*dto.User, error) {
	n := f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &dto.User{ID: "42", Name: "call-" + string(rune('0'+n))}, nil
}

func TestProfileServiceCachesPerToken(t *testing.T) {
	fetcher := &stubFetcher{}
	svc := NewProfileService(fetcher, time.Minute, zap.NewNop())
	now := time.Unix(1_700_000_000, 0)
	svc.now = func() time.Time { return now }
	ctx := context.Background()

	first, err := svc.Current(ctx, "a.b.c")
	require.NoError(t, err)
	second, err := svc.Current(ctx, "a.b.c")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), fetcher.calls.Load())

	_, err = svc.Current(ctx, "d.e.f")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = svc.Current(ctx, "d.e.f")
	require.NoError(t, err)
	assert.Equal(t, int32(3), fetcher.calls.Load())

	svc.Invalidate(ctx)
	_, err = svc.Current(ctx, "d.e.f")
	require.NoError(t, err)
	assert.Equal(t, int32(4), fetcher.calls.Load())
}

func TestProfileServiceErrors(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &stubFetcher{err: boom}
	svc := NewProfileService(fetcher, 0, nil)

	_, err := svc.Current(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, int32(0), fetcher.calls.Load())

	_, err = svc.Current(context.Background(), "a.b.c")
	assert.ErrorIs(t, err, boom)

	fetcher.err = nil
	_, err = svc.Current(context.Background(), "a.b.c")
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetcher.calls.Load())
}
