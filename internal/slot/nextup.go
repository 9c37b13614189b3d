package slot

import (
	"errors"
	"time"

	"github.com/medeasy-app/routinecore/internal/models"
)

// NextUp reason labels surfaced to display layers.
const (
	ReasonDue            = "due"
	ReasonNoRoutineToday = "no_routine_today"
	ReasonNothingDue     = "nothing_due"
)

// NextUpResult is the display-oriented view of the closest-slot selection.
type NextUpResult struct {
	Reason         string                `json:"reason"`
	Due            *models.ScheduleBlock `json:"due,omitempty"`
	UntakenDoseIDs []int64               `json:"untaken_dose_ids,omitempty"`
}

// NextUp answers "what is due right now" for display surfaces, turning the
// selector's sentinel errors into labeled nothing-due results.
func NextUp(groups []models.DayRoutineGroup, now time.Time) NextUpResult {
	sel, err := SelectClosest(groups, now)
	switch {
	case errors.Is(err, ErrNoRoutineToday):
		return NextUpResult{Reason: ReasonNoRoutineToday}
	case errors.Is(err, ErrNoEligibleRoutine):
		return NextUpResult{Reason: ReasonNothingDue}
	}
	block := sel.Block
	return NextUpResult{Reason: ReasonDue, Due: &block, UntakenDoseIDs: sel.UntakenDoseIDs}
}
