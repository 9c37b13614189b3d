package slot

import (
	"errors"
	"log/slog"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// EligibilityWindowMinutes bounds how far from a block's scheduled time a
// check-in trigger may still apply to it, in either direction.
const EligibilityWindowMinutes = 240

var (
	// ErrNoRoutineToday means no fetched group matches the current date.
	ErrNoRoutineToday = errors.New("no routine scheduled for today")
	// ErrNoEligibleRoutine means today's blocks are all taken or all outside
	// the eligibility window.
	ErrNoEligibleRoutine = errors.New("no routine eligible for check-in right now")
)

// Selection is the outcome of picking the currently due schedule block.
type Selection struct {
	Block          models.ScheduleBlock
	UntakenDoseIDs []int64
}

// SelectClosest picks the single block that is operationally due at now:
// today's blocks with untaken doses, within the eligibility window, minimum
// clock distance. Ties keep the first block in input order, which is the
// backend's schedule-id ordering.
//
// Both the deep-link check-in path and the "what's next" display use this;
// the screens previously each carried their own copy of the logic.
func SelectClosest(groups []models.DayRoutineGroup, now time.Time) (Selection, error) {
	var today *models.DayRoutineGroup
	for i := range groups {
		if models.SameDay(groups[i].Date, now) {
			today = &groups[i]
			break
		}
	}
	if today == nil {
		slog.Debug("slot.SelectClosest: no group for today", "groups", len(groups))
		return Selection{}, ErrNoRoutineToday
	}

	nowValue := models.TimeValue{Hour: now.Hour(), Minute: now.Minute()}
	best := -1
	bestDistance := 0
	for i, block := range today.Blocks {
		if !block.HasUntaken() {
			continue
		}
		distance := block.Time.DistanceMinutes(nowValue)
		if distance > EligibilityWindowMinutes {
			continue
		}
		if best < 0 || distance < bestDistance {
			best = i
			bestDistance = distance
		}
	}
	if best < 0 {
		slog.Debug("slot.SelectClosest: no eligible block", "blocks", len(today.Blocks), "now", nowValue)
		return Selection{}, ErrNoEligibleRoutine
	}

	chosen := today.Blocks[best].Clone()
	slog.Debug("slot.SelectClosest: selected block",
		"scheduleID", chosen.ScheduleID, "time", chosen.Time, "distance", bestDistance)
	return Selection{Block: chosen, UntakenDoseIDs: chosen.UntakenDoseIDs()}, nil
}
