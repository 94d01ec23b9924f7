package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherDeliversOnlyMatchingType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var tokenEvents, resetEvents int

	d.Subscribe(EventTokenChanged, func(context.Context, Event) error {
		tokenEvents++
		return nil
	})
	d.Subscribe(EventHardReset, func(context.Context, Event) error {
		resetEvents++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTokenChanged}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTokenChanged}))

	assert.Equal(t, 2, tokenEvents)
	assert.Equal(t, 0, resetEvents)
}

func TestDispatcherFillsIDAndTimestamp(t *testing.T) {
	d := NewInMemoryDispatcher()
	var got Event
	d.Subscribe(EventHardReset, func(_ context.Context, e Event) error {
		got = e
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventHardReset}))
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.Timestamp.IsZero())
}

func TestDispatcherRunsAllHandlersAndReturnsFirstError(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	calls := 0

	d.Subscribe(EventTokenChanged, func(context.Context, Event) error {
		calls++
		return boom
	})
	d.Subscribe(EventTokenChanged, func(context.Context, Event) error {
		calls++
		return errors.New("second")
	})

	err := d.Publish(context.Background(), Event{Type: EventTokenChanged})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestDispatcherUnsubscribe(t *testing.T) {
	d := NewInMemoryDispatcher()
	calls := 0
	unsubscribe := d.Subscribe(EventTokenChanged, func(context.Context, Event) error {
		calls++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTokenChanged}))
	unsubscribe()
	unsubscribe()
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTokenChanged}))

	assert.Equal(t, 1, calls)
}
