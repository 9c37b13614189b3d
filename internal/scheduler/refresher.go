package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
	"github.com/medeasy-app/routinecore/internal/routineapi"
	"github.com/medeasy-app/routinecore/internal/slot"
)

// RoutineRefresher keeps a cached answer to "what's due next" by re-running
// the slot selector against a fresh fetch of today's routines. The home and
// routine screens used to duplicate this; here it is computed once and
// served from the cache.
type RoutineRefresher struct {
	client routineapi.Client
	clock  models.Clock

	mu        sync.RWMutex
	latest    slot.NextUpResult
	refreshed time.Time
	hasResult bool
}

// NewRoutineRefresher creates a refresher with an empty cache.
func NewRoutineRefresher(client routineapi.Client, clock models.Clock) *RoutineRefresher {
	return &RoutineRefresher{client: client, clock: clock}
}

// Refresh fetches today's routines and recomputes the next-up cache.
func (r *RoutineRefresher) Refresh(ctx context.Context) error {
	now := r.clock.Now()
	groups, err := r.client.FetchRoutines(ctx, now, now)
	if err != nil {
		slog.Warn("scheduler.RoutineRefresher: refresh fetch failed", "error", err)
		return err
	}
	result := slot.NextUp(groups, r.clock.Now())

	r.mu.Lock()
	r.latest = result
	r.refreshed = now
	r.hasResult = true
	r.mu.Unlock()

	slog.Debug("scheduler.RoutineRefresher: cache refreshed", "reason", result.Reason)
	return nil
}

// Latest returns the cached next-up result, when it was computed, and
// whether any refresh has succeeded yet.
func (r *RoutineRefresher) Latest() (slot.NextUpResult, time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest, r.refreshed, r.hasResult
}
