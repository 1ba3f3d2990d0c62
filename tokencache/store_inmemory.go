package tokencache

import (
	"context"
	"errors"
	"sync"
)

// InMemoryStore is a thread-safe in-memory implementation of Store
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewInMemoryStore creates a new in-memory token cache store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string][]byte),
	}
}

// Put stores or overwrites the blob for a user key
func (s *InMemoryStore) Put(_ context.Context, userKey string, blob []byte) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}

	// Copy so a caller mutating its slice cannot tear a stored blob
	stored := make([]byte, len(blob))
	copy(stored, blob)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[userKey] = stored
	return nil
}

// Get retrieves the blob for a user key
func (s *InMemoryStore) Get(_ context.Context, userKey string) ([]byte, error) {
	if userKey == "" {
		return nil, errors.New("userKey is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.entries[userKey]
	if !ok {
		return nil, ErrNotFound
	}

	out := make([]byte, len(blob))
	copy(out, blob)
	return out, nil
}

// Delete removes the blob for a user key
func (s *InMemoryStore) Delete(_ context.Context, userKey string) error {
	if userKey == "" {
		return errors.New("userKey is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userKey)
	return nil
}
