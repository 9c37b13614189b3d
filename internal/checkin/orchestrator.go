package checkin

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/medeasy-app/routinecore/internal/models"
	"github.com/medeasy-app/routinecore/internal/notify"
	"github.com/medeasy-app/routinecore/internal/routineapi"
	"github.com/medeasy-app/routinecore/internal/slot"
	"github.com/medeasy-app/routinecore/internal/store"
)

// Default guard timings. Both are injectable for tests.
const (
	// DefaultDedupWindow is how long two triggers with the same signature
	// count as one activation.
	DefaultDedupWindow = 10 * time.Second
	// DefaultSettleDelay gives the UI layer time to finish its modal
	// dismissal animation before a superseding cycle starts.
	DefaultSettleDelay = 300 * time.Millisecond
)

// TriggerOutcome says what happened to a trigger at the orchestrator gate.
type TriggerOutcome string

const (
	// TriggerAccepted means a full fetch-and-checkin cycle ran.
	TriggerAccepted TriggerOutcome = "accepted"
	// TriggerDuplicate means the signature repeated within the dedup window.
	TriggerDuplicate TriggerOutcome = "duplicate"
	// TriggerInFlight means another cycle was already running.
	TriggerInFlight TriggerOutcome = "in_flight"
)

// Opts holds orchestrator configuration.
type Opts struct {
	Clock       models.Clock
	Timer       models.Timer
	Events      store.Store
	DedupWindow time.Duration
	SettleDelay time.Duration
}

// Option configures the orchestrator.
type Option func(*Opts)

// WithClock injects the time source.
func WithClock(c models.Clock) Option {
	return func(o *Opts) { o.Clock = c }
}

// WithTimer injects the settle-delay timer.
func WithTimer(t models.Timer) Option {
	return func(o *Opts) { o.Timer = t }
}

// WithEventStore enables the local check-in event log.
func WithEventStore(s store.Store) Option {
	return func(o *Opts) { o.Events = s }
}

// WithDedupWindow overrides the duplicate-trigger window.
func WithDedupWindow(d time.Duration) Option {
	return func(o *Opts) { o.DedupWindow = d }
}

// WithSettleDelay overrides the modal settle delay.
func WithSettleDelay(d time.Duration) Option {
	return func(o *Opts) { o.SettleDelay = d }
}

// Orchestrator owns the check-in state machine. It is the sole writer of its
// state; everyone else sees immutable snapshots through the notification bus.
//
// Phases cycle IDLE → FETCHING → CONFIRMING → MODAL_VISIBLE → IDLE. Only one
// cycle runs at a time: overlapping triggers are dropped, not queued.
type Orchestrator struct {
	client   routineapi.Client
	executor *BatchExecutor
	bus      *notify.Bus
	clock    models.Clock
	timer    models.Timer
	events   store.Store

	dedupWindow time.Duration
	settleDelay time.Duration

	mu              sync.Mutex
	phase           models.Phase
	activeSelection *models.ScheduleBlock
	lastSignature   string
	lastTriggerAt   time.Time
	inFlight        bool
	generation      uint64
}

// NewOrchestrator creates the process-lifetime check-in orchestrator,
// starting in IDLE. There is exactly one per process, owned by the
// application root.
func NewOrchestrator(client routineapi.Client, bus *notify.Bus, opts ...Option) *Orchestrator {
	cfg := Opts{
		Clock:       models.SystemClock{},
		Timer:       models.SystemTimer{},
		DedupWindow: DefaultDedupWindow,
		SettleDelay: DefaultSettleDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("checkin.NewOrchestrator: created",
		"dedup_window", cfg.DedupWindow, "settle_delay", cfg.SettleDelay, "events_enabled", cfg.Events != nil)
	return &Orchestrator{
		client:      client,
		executor:    NewBatchExecutor(client),
		bus:         bus,
		clock:       cfg.Clock,
		timer:       cfg.Timer,
		events:      cfg.Events,
		dedupWindow: cfg.DedupWindow,
		settleDelay: cfg.SettleDelay,
		phase:       models.PhaseIdle,
	}
}

// Trigger runs one fetch-and-checkin cycle for the given trigger signature
// (the raw deep-link URI, or a synthetic signature for UI-initiated checks).
// The call is synchronous; trigger sources that must not block run it on
// their own goroutine. All I/O failures are converted to notifications and
// never escape to the caller.
//
// Two guards serialize effective transitions: the in-flight flag drops any
// trigger while a cycle is running, regardless of signature, and the dedup
// rule drops a repeat of the last signature inside the dedup window.
func (o *Orchestrator) Trigger(ctx context.Context, signature string) TriggerOutcome {
	o.mu.Lock()
	now := o.clock.Now()
	if o.inFlight {
		o.mu.Unlock()
		slog.Debug("checkin.Orchestrator: trigger dropped, cycle in flight", "signature", signature)
		return TriggerInFlight
	}
	if signature == o.lastSignature && !o.lastTriggerAt.IsZero() && now.Sub(o.lastTriggerAt) < o.dedupWindow {
		o.mu.Unlock()
		slog.Debug("checkin.Orchestrator: trigger dropped, duplicate signature", "signature", signature)
		return TriggerDuplicate
	}

	supersede := o.phase == models.PhaseModalVisible
	newSignature := signature != o.lastSignature
	o.inFlight = true
	o.generation++
	gen := o.generation
	o.lastSignature = signature
	o.lastTriggerAt = now
	if supersede {
		o.phase = models.PhaseIdle
		o.activeSelection = nil
	}
	o.mu.Unlock()

	if supersede {
		slog.Info("checkin.Orchestrator: superseding visible modal", "signature", signature)
		o.bus.Publish(models.StateSnapshot{Phase: models.PhaseIdle})
		if newSignature {
			o.waitSettle()
		}
	}

	o.runCycle(ctx, gen, signature)
	return TriggerAccepted
}

// Close dismisses the confirmation modal and returns to IDLE. Calling it
// when no modal is visible is a no-op, so repeated closes are safe.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	if o.phase != models.PhaseModalVisible {
		o.mu.Unlock()
		slog.Debug("checkin.Orchestrator: close ignored, no modal visible")
		return
	}
	o.phase = models.PhaseIdle
	o.activeSelection = nil
	o.mu.Unlock()

	slog.Debug("checkin.Orchestrator: modal closed")
	o.bus.Publish(models.StateSnapshot{Phase: models.PhaseIdle})
}

// Snapshot returns the current state as an immutable copy.
func (o *Orchestrator) Snapshot() models.StateSnapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	snap := models.StateSnapshot{Phase: o.phase}
	if o.activeSelection != nil {
		sel := o.activeSelection.Clone()
		snap.ActiveSelection = &sel
	}
	return snap
}

func (o *Orchestrator) runCycle(ctx context.Context, gen uint64, signature string) {
	defer func() {
		o.mu.Lock()
		o.inFlight = false
		o.mu.Unlock()
	}()

	if !o.transition(gen, models.PhaseFetching, nil) {
		return
	}

	today := o.clock.Now()
	groups, err := o.client.FetchRoutines(ctx, today, today)
	if err != nil {
		slog.Error("checkin.Orchestrator: routine fetch failed", "error", err, "signature", signature)
		o.recordEvent(signature, models.OutcomeFetchFailed, 0, 0, 0)
		o.transition(gen, models.PhaseIdle, nil)
		return
	}

	selection, err := slot.SelectClosest(groups, o.clock.Now())
	if err != nil {
		// Expected "nothing due" outcomes, not errors.
		slog.Info("checkin.Orchestrator: nothing to check in", "reason", err, "signature", signature)
		o.recordEvent(signature, models.OutcomeNothingDue, 0, 0, 0)
		o.transition(gen, models.PhaseIdle, nil)
		return
	}

	if !o.transition(gen, models.PhaseConfirming, nil) {
		return
	}

	result := o.executor.CheckinAll(ctx, selection.UntakenDoseIDs)
	ok, failed := result.Counts()
	if !result.AllSucceeded() {
		// Doses that did succeed stay taken on the backend; a successful
		// mark-as-taken is never undone by a sibling's failure. The user
		// just never sees a partial confirmation modal.
		slog.Error("checkin.Orchestrator: batch partially failed",
			"ok", ok, "failed", failed, "scheduleID", selection.Block.ScheduleID, "signature", signature)
		o.recordEvent(signature, models.OutcomePartialFailure, selection.Block.ScheduleID, ok, failed)
		o.transition(gen, models.PhaseIdle, nil)
		return
	}

	confirmed := selection.Block.MarkAllTaken()
	o.recordEvent(signature, models.OutcomeConfirmed, confirmed.ScheduleID, ok, 0)
	o.transition(gen, models.PhaseModalVisible, &confirmed)
}

// transition advances the state machine and publishes the new snapshot,
// unless a newer accepted trigger has advanced the generation, in which case
// the stale cycle's result is discarded.
func (o *Orchestrator) transition(gen uint64, phase models.Phase, selection *models.ScheduleBlock) bool {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		slog.Debug("checkin.Orchestrator: discarding stale transition", "phase", phase, "generation", gen)
		return false
	}
	o.phase = phase
	o.activeSelection = selection
	snap := models.StateSnapshot{Phase: phase}
	if selection != nil {
		sel := selection.Clone()
		snap.ActiveSelection = &sel
	}
	o.mu.Unlock()

	o.bus.Publish(snap)
	return true
}

// waitSettle blocks until the settle delay elapses on the injected timer.
func (o *Orchestrator) waitSettle() {
	if o.settleDelay <= 0 {
		return
	}
	done := make(chan struct{})
	o.timer.ScheduleAfter(o.settleDelay, func() { close(done) })
	<-done
}

func (o *Orchestrator) recordEvent(signature string, outcome models.CheckinOutcome, scheduleID int64, ok, failed int) {
	if o.events == nil {
		return
	}
	ev := models.CheckinEvent{
		EventID:    uuid.NewString(),
		Signature:  signature,
		Outcome:    outcome,
		ScheduleID: scheduleID,
		DosesOK:    ok,
		DosesFail:  failed,
		CreatedAt:  o.clock.Now(),
	}
	if err := o.events.AddCheckinEvent(ev); err != nil {
		// The event log is observability, not correctness. Never fail a
		// cycle over it.
		slog.Warn("checkin.Orchestrator: failed to record event", "error", err, "eventID", ev.EventID)
	}
}
