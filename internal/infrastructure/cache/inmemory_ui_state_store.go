package cache

import (
	"context"
	"sync"
	"time"
)

type stateEntry struct {
	value     string
	expiresAt time.Time
}

// InMemoryUIStateStore implements UIStateStore with a process-local map.
// Suitable for single-instance deployments and testing.
type InMemoryUIStateStore struct {
	mu        sync.RWMutex
	entries   map[string]stateEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryUIStateStore creates a new in-memory UI state store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryUIStateStore() *InMemoryUIStateStore {
	store := &InMemoryUIStateStore{
		entries:  make(map[string]stateEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Get returns the stored value for a key, or empty string when absent or expired
func (s *InMemoryUIStateStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[key]
	if !exists {
		return "", nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		return "", nil
	}

	return e.value, nil
}

// Set stores a value under a key. A zero TTL means no expiration.
func (s *InMemoryUIStateStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := stateEntry{value: value}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	s.entries[key] = e

	return nil
}

// Delete removes a key
func (s *InMemoryUIStateStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
	return nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (s *InMemoryUIStateStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryUIStateStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryUIStateStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

func (s *InMemoryUIStateStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if !e.expiresAt.IsZero() && now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

var _ UIStateStore = (*InMemoryUIStateStore)(nil)
