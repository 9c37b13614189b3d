package checkin

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
	"github.com/medeasy-app/routinecore/internal/notify"
	"github.com/medeasy-app/routinecore/internal/routineapi"
	"github.com/medeasy-app/routinecore/internal/store"
	"github.com/medeasy-app/routinecore/internal/testutil"
)

const testTrigger = "medeasy://openroutine"

var testNow = time.Date(2026, 8, 30, 13, 10, 0, 0, time.UTC)

// todayGroups returns one group for the fake clock's date with a 13:00 block
// holding two untaken doses.
func todayGroups() []models.DayRoutineGroup {
	return []models.DayRoutineGroup{{
		Date: time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		Blocks: []models.ScheduleBlock{{
			ScheduleID: 1,
			Label:      "점심 식사 후",
			Slot:       models.SlotLunch,
			Time:       models.TimeValue{Hour: 13, Minute: 0},
			Doses: []models.DoseEntry{
				{DoseID: 10, Nickname: "타이레놀"},
				{DoseID: 11, Nickname: "오메가3"},
			},
		}},
	}}
}

type fixture struct {
	client *routineapi.MockClient
	bus    *notify.Bus
	clock  *testutil.FakeClock
	events *store.InMemoryStore
	orch   *Orchestrator
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		client: &routineapi.MockClient{Groups: todayGroups()},
		bus:    notify.NewBus(),
		clock:  testutil.NewFakeClock(testNow),
		events: store.NewInMemoryStore(),
	}
	all := append([]Option{
		WithClock(f.clock),
		WithTimer(testutil.ImmediateTimer),
		WithEventStore(f.events),
	}, opts...)
	f.orch = NewOrchestrator(f.client, f.bus, all...)
	return f
}

func (f *fixture) lastOutcome(t *testing.T) models.CheckinOutcome {
	t.Helper()
	events, err := f.events.ListCheckinEvents(1)
	if err != nil {
		t.Fatalf("ListCheckinEvents error: %v", err)
	}
	if len(events) == 0 {
		t.Fatal("no check-in events recorded")
	}
	return events[0].Outcome
}

func TestTriggerFullSuccessCycle(t *testing.T) {
	f := newFixture(t)
	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("trigger outcome = %s, want accepted", got)
	}

	want := []models.Phase{models.PhaseIdle, models.PhaseFetching, models.PhaseConfirming, models.PhaseModalVisible}
	phases := rec.Phases()
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phases[%d] = %s, want %s", i, phases[i], want[i])
		}
	}

	snap := f.orch.Snapshot()
	if snap.Phase != models.PhaseModalVisible {
		t.Fatalf("final phase = %s", snap.Phase)
	}
	if snap.ActiveSelection == nil {
		t.Fatal("no active selection on success")
	}
	if snap.ActiveSelection.HasUntaken() {
		t.Error("active selection should be re-read as fully taken")
	}
	if calls := f.client.CheckCalls(); len(calls) != 2 {
		t.Errorf("backend saw %d dose checks, want 2", len(calls))
	}
	if got := f.lastOutcome(t); got != models.OutcomeConfirmed {
		t.Errorf("event outcome = %s, want confirmed", got)
	}
}

func TestTriggerDedupWithinWindow(t *testing.T) {
	f := newFixture(t)

	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("first trigger = %s", got)
	}
	f.clock.Advance(2 * time.Second)
	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerDuplicate {
		t.Fatalf("second trigger = %s, want duplicate", got)
	}
	if calls := f.client.FetchCalls(); calls != 1 {
		t.Errorf("fetch calls = %d, want exactly one cycle", calls)
	}
	events, err := f.events.ListCheckinEvents(0)
	if err != nil {
		t.Fatalf("ListCheckinEvents error: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("recorded %d events, want 1", len(events))
	}
}

func TestTriggerSameSignatureAfterWindow(t *testing.T) {
	f := newFixture(t)

	f.orch.Trigger(context.Background(), testTrigger)
	f.clock.Advance(11 * time.Second)
	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("trigger after window = %s, want accepted", got)
	}
	if calls := f.client.FetchCalls(); calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}
}

func TestTriggerPartialFailureEndsIdle(t *testing.T) {
	f := newFixture(t)
	f.client.FailDoses = map[int64]error{11: errors.New("backend rejected")}
	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("trigger outcome = %s", got)
	}

	snap := f.orch.Snapshot()
	if snap.Phase != models.PhaseIdle {
		t.Errorf("final phase = %s, want IDLE (no partial modal)", snap.Phase)
	}
	if snap.ActiveSelection != nil {
		t.Error("active selection must stay nil on partial failure")
	}
	for _, phase := range rec.Phases() {
		if phase == models.PhaseModalVisible {
			t.Error("modal shown despite partial failure")
		}
	}
	// The dose that succeeded was still committed on the backend.
	if calls := f.client.CheckCalls(); len(calls) != 2 {
		t.Errorf("backend saw %d dose checks, want 2", len(calls))
	}
	if got := f.lastOutcome(t); got != models.OutcomePartialFailure {
		t.Errorf("event outcome = %s, want partial_failure", got)
	}
}

func TestTriggerNothingDue(t *testing.T) {
	f := newFixture(t)
	f.client.Groups = nil // backend has no routines at all
	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("trigger outcome = %s", got)
	}

	want := []models.Phase{models.PhaseIdle, models.PhaseFetching, models.PhaseIdle}
	phases := rec.Phases()
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	if got := f.lastOutcome(t); got != models.OutcomeNothingDue {
		t.Errorf("event outcome = %s, want nothing_due", got)
	}
}

func TestTriggerFetchFailure(t *testing.T) {
	f := newFixture(t)
	f.client.FetchErr = errors.New("network down")

	if got := f.orch.Trigger(context.Background(), testTrigger); got != TriggerAccepted {
		t.Fatalf("trigger outcome = %s", got)
	}
	if snap := f.orch.Snapshot(); snap.Phase != models.PhaseIdle {
		t.Errorf("final phase = %s, want IDLE", snap.Phase)
	}
	if got := f.lastOutcome(t); got != models.OutcomeFetchFailed {
		t.Errorf("event outcome = %s, want fetch_failed", got)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t)
	f.orch.Trigger(context.Background(), testTrigger)
	if snap := f.orch.Snapshot(); snap.Phase != models.PhaseModalVisible {
		t.Fatalf("setup: phase = %s", snap.Phase)
	}

	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	f.orch.Close()
	f.orch.Close() // second close is a no-op

	if snap := f.orch.Snapshot(); snap.Phase != models.PhaseIdle {
		t.Errorf("phase after close = %s", snap.Phase)
	}
	// Replay of MODAL_VISIBLE on subscribe, then exactly one IDLE publish.
	phases := rec.Phases()
	if len(phases) != 2 || phases[1] != models.PhaseIdle {
		t.Errorf("phases = %v, want [MODAL_VISIBLE IDLE]", phases)
	}
}

func TestNewTriggerSupersedesVisibleModal(t *testing.T) {
	f := newFixture(t)
	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	f.orch.Trigger(context.Background(), testTrigger)
	f.clock.Advance(time.Second)
	if got := f.orch.Trigger(context.Background(), testTrigger+"?source=push"); got != TriggerAccepted {
		t.Fatalf("superseding trigger = %s, want accepted", got)
	}

	want := []models.Phase{
		models.PhaseIdle, // replay on subscribe
		models.PhaseFetching, models.PhaseConfirming, models.PhaseModalVisible,
		models.PhaseIdle, // force-close of the stale modal
		models.PhaseFetching, models.PhaseConfirming, models.PhaseModalVisible,
	}
	phases := rec.Phases()
	if len(phases) != len(want) {
		t.Fatalf("phases = %v, want %v", phases, want)
	}
	for i := range want {
		if phases[i] != want[i] {
			t.Errorf("phases[%d] = %s, want %s", i, phases[i], want[i])
		}
	}
}

// blockingClient parks FetchRoutines until released, to hold a cycle in
// flight while the test fires more triggers.
type blockingClient struct {
	routineapi.MockClient
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingClient) FetchRoutines(ctx context.Context, start, end time.Time) ([]models.DayRoutineGroup, error) {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.MockClient.FetchRoutines(ctx, start, end)
}

func TestTriggerIgnoredWhileCycleInFlight(t *testing.T) {
	client := &blockingClient{
		MockClient: routineapi.MockClient{Groups: todayGroups()},
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
	bus := notify.NewBus()
	clock := testutil.NewFakeClock(testNow)
	orch := NewOrchestrator(client, bus, WithClock(clock), WithTimer(testutil.ImmediateTimer))

	done := make(chan TriggerOutcome, 1)
	go func() {
		done <- orch.Trigger(context.Background(), testTrigger)
	}()
	<-client.entered

	// A different signature is still dropped while the first cycle runs.
	if got := orch.Trigger(context.Background(), "medeasy://openroutine?source=ui"); got != TriggerInFlight {
		t.Errorf("overlapping trigger = %s, want in_flight", got)
	}

	close(client.release)
	if got := <-done; got != TriggerAccepted {
		t.Errorf("first trigger = %s, want accepted", got)
	}
	if snap := orch.Snapshot(); snap.Phase != models.PhaseModalVisible {
		t.Errorf("final phase = %s, want MODAL_VISIBLE", snap.Phase)
	}
}

func TestLateSubscriberSeesOnlyCurrentSnapshot(t *testing.T) {
	f := newFixture(t)
	f.orch.Trigger(context.Background(), testTrigger)

	var rec testutil.SnapshotRecorder
	defer f.bus.Subscribe(rec.Listener)()

	snaps := rec.Snapshots()
	if len(snaps) != 1 {
		t.Fatalf("late subscriber received %d snapshots, want 1", len(snaps))
	}
	if snaps[0].Phase != models.PhaseModalVisible || snaps[0].ActiveSelection == nil {
		t.Errorf("late subscriber snapshot = %+v", snaps[0])
	}
}
