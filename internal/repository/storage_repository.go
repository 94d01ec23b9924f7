package repository

import (
	"context"
	"errors"
	"time"
)

// ErrStorageUnavailable signals that persistent storage cannot be used at all.
var ErrStorageUnavailable = errors.New("storage unavailable")

// StorageRepository is origin-scoped key/value storage, the server-side
// counterpart of the browser's per-origin storage.
type StorageRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// StorageChange announces that a key was written or removed.
type StorageChange struct {
	Namespace string    `json:"namespace"`
	Key       string    `json:"key"`
	Writer    string    `json:"writer"`
	Present   bool      `json:"present"`
	At        time.Time `json:"at"`
}

// ChangeFeed carries storage changes between shell processes sharing a namespace.
// Delivery is best effort.
type ChangeFeed interface {
	Publish(ctx context.Context, change StorageChange) error
	// Watch blocks, invoking fn for every change of key, until ctx is done.
	Watch(ctx context.Context, key string, fn func(StorageChange)) error
}
