package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/clickfood/webapp/internal/events"
	"github.com/clickfood/webapp/internal/repository"
)

// StorageSyncWorker relays token changes made by other shell processes onto
// this process's event bus.
type StorageSyncWorker struct {
	feed       repository.ChangeFeed
	bus        events.Dispatcher
	key        string
	tabID      string
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewStorageSyncWorker builds a worker watching key on feed.
func NewStorageSyncWorker(feed repository.ChangeFeed, bus events.Dispatcher, key, tabID string, logger *zap.Logger) *StorageSyncWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StorageSyncWorker{
		feed:       feed,
		bus:        bus,
		key:        key,
		tabID:      tabID,
		retryDelay: time.Second,
		logger:     logger.Named("storage_sync"),
	}
}

// Run watches the feed until ctx is done, re-subscribing after failures.
func (w *StorageSyncWorker) Run(ctx context.Context) {
	w.logger.Info("storage sync worker started", zap.String("key", w.key), zap.String("tab_id", w.tabID))
	defer w.logger.Info("storage sync worker stopped")

	for {
		err := w.feed.Watch(ctx, w.key, func(change repository.StorageChange) {
			w.handle(ctx, change)
		})
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			w.logger.Warn("storage change feed interrupted", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryDelay):
		}
	}
}

func (w *StorageSyncWorker) handle(ctx context.Context, change repository.StorageChange) {
	// Own writes already reached the bus synchronously.
	if change.Writer == w.tabID {
		return
	}

	err := w.bus.Publish(ctx, events.Event{
		Type: events.EventTokenChanged,
		Payload: events.TokenChangedPayload{
			Key:     change.Key,
			Origin:  change.Writer,
			Present: change.Present,
			Remote:  true,
		},
	})
	if err != nil {
		w.logger.Warn("failed to relay storage change", zap.Error(err), zap.String("writer", change.Writer))
	}
}
