// Package testutil provides shared test helpers for the routine engine.
package testutil

import (
	"sync"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// FakeClock is a models.Clock whose "now" is controlled by the test.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock creates a clock frozen at now.
func NewFakeClock(now time.Time) *FakeClock {
	return &FakeClock{now: now}
}

// Now returns the controlled instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the clock to now.
func (c *FakeClock) Set(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// ImmediateTimer is a models.Timer that fires scheduled functions
// synchronously, so tests never sleep on settle delays.
var ImmediateTimer models.Timer = models.TimerFunc(func(delay time.Duration, fn func()) {
	fn()
})

// SnapshotRecorder collects published state snapshots for assertions.
type SnapshotRecorder struct {
	mu        sync.Mutex
	snapshots []models.StateSnapshot
}

// Listener is the function to pass to Bus.Subscribe.
func (r *SnapshotRecorder) Listener(s models.StateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, s)
}

// Snapshots returns a copy of everything recorded so far.
func (r *SnapshotRecorder) Snapshots() []models.StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.StateSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}

// Phases returns just the phase sequence recorded so far.
func (r *SnapshotRecorder) Phases() []models.Phase {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Phase, len(r.snapshots))
	for i, s := range r.snapshots {
		out[i] = s.Phase
	}
	return out
}
