// Package store provides storage backends for the check-in event log.
//
// The backend service owns all schedule data; this store only keeps the
// engine's local audit trail of accepted trigger cycles. It supports
// in-memory, SQLite, and PostgreSQL backends.
package store

import (
	"sort"
	"sync"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// Store is the check-in event log boundary.
type Store interface {
	// AddCheckinEvent appends one event record.
	AddCheckinEvent(ev models.CheckinEvent) error

	// ListCheckinEvents returns the most recent events, newest first.
	// A non-positive limit returns all events.
	ListCheckinEvents(limit int) ([]models.CheckinEvent, error)

	// Close releases underlying resources.
	Close() error
}

// Opts holds store configuration.
type Opts struct {
	DSN string
}

// Option configures a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN (file path for SQLite, URL for Postgres).
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore keeps events in process memory. Used in tests and when no
// DSN is configured.
type InMemoryStore struct {
	mu     sync.Mutex
	events []models.CheckinEvent
}

// Compile-time check that InMemoryStore implements Store.
var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory event log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

// AddCheckinEvent appends the event.
func (s *InMemoryStore) AddCheckinEvent(ev models.CheckinEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	s.events = append(s.events, ev)
	return nil
}

// ListCheckinEvents returns events newest first.
func (s *InMemoryStore) ListCheckinEvents(limit int) ([]models.CheckinEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.CheckinEvent, len(s.events))
	copy(out, s.events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}
