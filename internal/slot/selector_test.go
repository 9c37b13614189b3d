package slot

import (
	"errors"
	"testing"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		t.Fatalf("bad date %q: %v", date, err)
	}
	return d
}

func at(t *testing.T, date, clock string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02 15:04", date+" "+clock)
	if err != nil {
		t.Fatalf("bad time %q %q: %v", date, clock, err)
	}
	return d
}

func block(id int64, hour, minute int, doses ...models.DoseEntry) models.ScheduleBlock {
	return models.ScheduleBlock{
		ScheduleID: id,
		Time:       models.TimeValue{Hour: hour, Minute: minute},
		Doses:      doses,
	}
}

func untaken(id int64) models.DoseEntry { return models.DoseEntry{DoseID: id} }
func taken(id int64) models.DoseEntry   { return models.DoseEntry{DoseID: id, Taken: true} }

func TestSelectClosestPicksMinimumDistance(t *testing.T) {
	groups := []models.DayRoutineGroup{{
		Date: day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{
			block(1, 8, 0, untaken(10)),
			block(2, 13, 0, untaken(20)),
			block(3, 19, 0, untaken(30)),
		},
	}}
	sel, err := SelectClosest(groups, at(t, "2026-08-30", "13:10"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Block.ScheduleID != 2 {
		t.Errorf("selected schedule %d, want 2", sel.Block.ScheduleID)
	}
	if len(sel.UntakenDoseIDs) != 1 || sel.UntakenDoseIDs[0] != 20 {
		t.Errorf("untaken dose ids = %v, want [20]", sel.UntakenDoseIDs)
	}
}

func TestSelectClosestWindowExclusion(t *testing.T) {
	groups := []models.DayRoutineGroup{{
		Date:   day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{block(1, 8, 0, untaken(10))},
	}}
	// 13:05 is 305 minutes from 08:00, outside the 240-minute window.
	_, err := SelectClosest(groups, at(t, "2026-08-30", "13:05"))
	if !errors.Is(err, ErrNoEligibleRoutine) {
		t.Fatalf("expected ErrNoEligibleRoutine, got %v", err)
	}
}

func TestSelectClosestSkipsExhaustedBlocks(t *testing.T) {
	groups := []models.DayRoutineGroup{{
		Date: day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{
			block(1, 13, 0, taken(10)),      // time-closest but fully taken
			block(2, 15, 0, untaken(20)),
		},
	}}
	sel, err := SelectClosest(groups, at(t, "2026-08-30", "13:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Block.ScheduleID != 2 {
		t.Errorf("selected schedule %d, want 2", sel.Block.ScheduleID)
	}
}

func TestSelectClosestNoRoutineToday(t *testing.T) {
	groups := []models.DayRoutineGroup{{
		Date:   day(t, "2026-08-29"),
		Blocks: []models.ScheduleBlock{block(1, 8, 0, untaken(10))},
	}}
	_, err := SelectClosest(groups, at(t, "2026-08-30", "08:00"))
	if !errors.Is(err, ErrNoRoutineToday) {
		t.Fatalf("expected ErrNoRoutineToday, got %v", err)
	}
	if _, err := SelectClosest(nil, at(t, "2026-08-30", "08:00")); !errors.Is(err, ErrNoRoutineToday) {
		t.Fatalf("expected ErrNoRoutineToday for empty input, got %v", err)
	}
}

func TestSelectClosestTieBreaksOnInputOrder(t *testing.T) {
	// Two blocks equidistant from 12:00; the first in input order wins.
	groups := []models.DayRoutineGroup{{
		Date: day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{
			block(5, 11, 0, untaken(50)),
			block(6, 13, 0, untaken(60)),
		},
	}}
	sel, err := SelectClosest(groups, at(t, "2026-08-30", "12:00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sel.Block.ScheduleID != 5 {
		t.Errorf("selected schedule %d, want 5 (first in input order)", sel.Block.ScheduleID)
	}
}

func TestSelectClosestOnlyReturnsUntakenIDs(t *testing.T) {
	groups := []models.DayRoutineGroup{{
		Date:   day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{block(1, 8, 0, taken(10), untaken(11), untaken(12))},
	}}
	sel, err := SelectClosest(groups, at(t, "2026-08-30", "08:30"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sel.UntakenDoseIDs) != 2 {
		t.Fatalf("untaken dose ids = %v, want two entries", sel.UntakenDoseIDs)
	}
	if sel.UntakenDoseIDs[0] != 11 || sel.UntakenDoseIDs[1] != 12 {
		t.Errorf("untaken dose ids = %v, want [11 12]", sel.UntakenDoseIDs)
	}
}

func TestNextUpReasons(t *testing.T) {
	now := at(t, "2026-08-30", "08:10")
	dueGroups := []models.DayRoutineGroup{{
		Date:   day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{block(1, 8, 0, untaken(10))},
	}}
	if res := NextUp(dueGroups, now); res.Reason != ReasonDue || res.Due == nil {
		t.Errorf("NextUp due case = %+v", res)
	}
	if res := NextUp(nil, now); res.Reason != ReasonNoRoutineToday {
		t.Errorf("NextUp empty case reason = %s", res.Reason)
	}
	exhausted := []models.DayRoutineGroup{{
		Date:   day(t, "2026-08-30"),
		Blocks: []models.ScheduleBlock{block(1, 8, 0, taken(10))},
	}}
	if res := NextUp(exhausted, now); res.Reason != ReasonNothingDue {
		t.Errorf("NextUp exhausted case reason = %s", res.Reason)
	}
}
