package sessions

import (
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no record exists for a session ID.
var ErrNotFound = errors.New("session not found")

// InMemoryRepo is a thread-safe in-memory implementation of Repo. Sessions
// are ephemeral by design, so process-local storage is the default backend.
type InMemoryRepo struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewInMemoryRepo creates a new in-memory session repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		records: make(map[string]Record),
	}
}

// Upsert creates or updates a session record
func (r *InMemoryRepo) Upsert(sessionID string, record Record) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[sessionID] = record
	return nil
}

// Get retrieves a session record. Expired records are dropped and reported
// as missing.
func (r *InMemoryRepo) Get(sessionID string) (Record, error) {
	if sessionID == "" {
		return Record{}, errors.New("sessionID is required")
	}

	r.mu.RLock()
	record, ok := r.records[sessionID]
	r.mu.RUnlock()

	if !ok {
		return Record{}, ErrNotFound
	}

	if time.Now().After(record.ExpiresAt) {
		r.mu.Lock()
		delete(r.records, sessionID)
		r.mu.Unlock()
		return Record{}, ErrNotFound
	}

	return record, nil
}

// Delete removes a session record
func (r *InMemoryRepo) Delete(sessionID string) error {
	if sessionID == "" {
		return errors.New("sessionID is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, sessionID)
	return nil
}
