// Package notify provides the observer registry that broadcasts orchestrator
// state snapshots to presentation layers.
package notify

import (
	"log/slog"
	"sync"

	"github.com/medeasy-app/routinecore/internal/models"
)

// Listener receives state snapshots. Snapshots are copies; listeners may
// retain them freely.
type Listener func(models.StateSnapshot)

type subscriber struct {
	id       int64
	listener Listener
}

// Bus fans out state snapshots to subscribers in subscription order.
// Delivery is synchronous with respect to the publish call: a subscriber
// sees every intermediate transition, with no coalescing.
type Bus struct {
	mu          sync.Mutex
	nextID      int64
	subscribers []subscriber
	current     models.StateSnapshot
}

// NewBus creates a bus whose initial snapshot is the idle state.
func NewBus() *Bus {
	return &Bus{current: models.StateSnapshot{Phase: models.PhaseIdle}}
}

// Subscribe registers a listener and returns its unsubscribe function.
// The listener immediately receives the current snapshot, then every
// subsequent publish. Unsubscribing is idempotent.
func (b *Bus) Subscribe(listener Listener) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subscribers = append(b.subscribers, subscriber{id: id, listener: listener})
	replay := b.current
	count := len(b.subscribers)
	b.mu.Unlock()

	slog.Debug("notify.Bus: subscriber added", "id", id, "subscribers", count)
	listener(snapshotCopy(replay))

	var once sync.Once
	return func() {
		once.Do(func() {
			b.unsubscribe(id)
		})
	}
}

func (b *Bus) unsubscribe(id int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subscribers {
		if s.id == id {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			slog.Debug("notify.Bus: subscriber removed", "id", id, "subscribers", len(b.subscribers))
			return
		}
	}
}

// Publish records snapshot as current and delivers it to all subscribers in
// subscription order.
func (b *Bus) Publish(snapshot models.StateSnapshot) {
	b.mu.Lock()
	b.current = snapshot
	listeners := make([]Listener, len(b.subscribers))
	for i, s := range b.subscribers {
		listeners[i] = s.listener
	}
	b.mu.Unlock()

	slog.Debug("notify.Bus: publishing", "phase", snapshot.Phase, "subscribers", len(listeners))
	for _, l := range listeners {
		l(snapshotCopy(snapshot))
	}
}

// Current returns the latest published snapshot.
func (b *Bus) Current() models.StateSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return snapshotCopy(b.current)
}

// snapshotCopy deep-copies the snapshot so subscribers never alias live
// orchestrator data.
func snapshotCopy(s models.StateSnapshot) models.StateSnapshot {
	if s.ActiveSelection == nil {
		return s
	}
	sel := s.ActiveSelection.Clone()
	return models.StateSnapshot{Phase: s.Phase, ActiveSelection: &sel}
}
