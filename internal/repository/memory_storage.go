package repository

import (
	"context"
	"sync"
	"sync/atomic"
)

type memoryWatcher struct {
	key string
	fn  func(StorageChange)
}

// MemoryStorage keeps values in process memory. Every shell sharing one
// MemoryStorage behaves like tabs of a single origin.
type MemoryStorage struct {
	namespace   string
	unavailable atomic.Bool

	mu       sync.RWMutex
	values   map[string]string
	nextID   uint64
	watchers map[uint64]memoryWatcher
}

// NewMemoryStorage returns an empty in-memory storage for namespace.
func NewMemoryStorage(namespace string) *MemoryStorage {
	return &MemoryStorage{
		namespace: namespace,
		values:    make(map[string]string),
		watchers:  make(map[uint64]memoryWatcher),
	}
}

// SetUnavailable simulates disabled storage: every operation fails.
func (s *MemoryStorage) SetUnavailable(v bool) {
	s.unavailable.Store(v)
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	if s.unavailable.Load() {
		return "", false, ErrStorageUnavailable
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *MemoryStorage) Set(_ context.Context, key, value string) error {
	if s.unavailable.Load() {
		return ErrStorageUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	if s.unavailable.Load() {
		return ErrStorageUnavailable
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

func (s *MemoryStorage) Ping(context.Context) error {
	if s.unavailable.Load() {
		return ErrStorageUnavailable
	}
	return nil
}

// Publish hands the change to every watcher of its key on the caller's goroutine.
func (s *MemoryStorage) Publish(_ context.Context, change StorageChange) error {
	if change.Namespace == "" {
		change.Namespace = s.namespace
	}
	s.mu.RLock()
	targets := make([]func(StorageChange), 0, len(s.watchers))
	for _, w := range s.watchers {
		if w.key == change.Key {
			targets = append(targets, w.fn)
		}
	}
	s.mu.RUnlock()

	for _, fn := range targets {
		fn(change)
	}
	return nil
}

func (s *MemoryStorage) Watch(ctx context.Context, key string, fn func(StorageChange)) error {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.watchers[id] = memoryWatcher{key: key, fn: fn}
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	delete(s.watchers, id)
	s.mu.Unlock()
	return nil
}

// Watchers reports how many watchers are registered.
func (s *MemoryStorage) Watchers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers)
}
