// Package models defines the core data structures for the routine check-in engine.
//
// The backend owns all schedule data; these types are in-memory snapshots of
// what it returns, plus the engine's own state and event types.
package models

import "time"

// SlotType is the canonical time-of-day classification of a schedule block.
type SlotType string

const (
	SlotMorning      SlotType = "MORNING"
	SlotLunch        SlotType = "LUNCH"
	SlotDinner       SlotType = "DINNER"
	SlotBedtime      SlotType = "BEDTIME"
	SlotUnclassified SlotType = "UNCLASSIFIED"
)

// DoseEntry is one scheduled medicine intake within a schedule block.
// Taken only ever flips false→true through the orchestrator; this subsystem
// never un-takes a dose.
type DoseEntry struct {
	DoseID     int64  `json:"routine_id"`
	MedicineID string `json:"medicine_id"`
	Nickname   string `json:"nickname"`
	Quantity   int    `json:"dose"`
	Taken      bool   `json:"is_taken"`
}

// ScheduleBlock is one named time-of-day slot for one calendar day.
type ScheduleBlock struct {
	ScheduleID int64       `json:"user_schedule_id"`
	Label      string      `json:"name"`
	Slot       SlotType    `json:"slot_type"`
	Time       TimeValue   `json:"take_time"`
	Doses      []DoseEntry `json:"routine_dtos"`
}

// HasUntaken reports whether any dose in the block is still untaken.
func (b ScheduleBlock) HasUntaken() bool {
	for _, d := range b.Doses {
		if !d.Taken {
			return true
		}
	}
	return false
}

// UntakenDoseIDs returns the ids of doses not yet taken, in block order.
func (b ScheduleBlock) UntakenDoseIDs() []int64 {
	var ids []int64
	for _, d := range b.Doses {
		if !d.Taken {
			ids = append(ids, d.DoseID)
		}
	}
	return ids
}

// Clone returns a deep copy of the block. Snapshots handed to notification
// subscribers must not alias the orchestrator's live data.
func (b ScheduleBlock) Clone() ScheduleBlock {
	out := b
	out.Doses = make([]DoseEntry, len(b.Doses))
	copy(out.Doses, b.Doses)
	return out
}

// MarkAllTaken returns a copy of the block with every dose marked taken.
// Used to re-read the selection after a fully successful check-in batch.
func (b ScheduleBlock) MarkAllTaken() ScheduleBlock {
	out := b.Clone()
	for i := range out.Doses {
		out.Doses[i].Taken = true
	}
	return out
}

// DayRoutineGroup is the immutable snapshot of one calendar day's schedule,
// produced fresh on every fetch and never mutated in place.
type DayRoutineGroup struct {
	Date   time.Time       `json:"take_date"`
	Blocks []ScheduleBlock `json:"user_schedule_dtos"`
}

// SameDay reports whether two instants fall on the same calendar date in a's
// location.
func SameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.In(a.Location()).Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// Phase is the orchestrator's lifecycle phase. MODAL_VISIBLE is the only
// phase the user layer renders as "needs acknowledgment".
type Phase string

const (
	PhaseIdle         Phase = "IDLE"
	PhaseFetching     Phase = "FETCHING"
	PhaseConfirming   Phase = "CONFIRMING"
	PhaseModalVisible Phase = "MODAL_VISIBLE"
)

// StateSnapshot is the immutable view of orchestrator state published to
// notification subscribers.
type StateSnapshot struct {
	Phase           Phase          `json:"phase"`
	ActiveSelection *ScheduleBlock `json:"active_selection,omitempty"`
}

// CheckinOutcome labels how an accepted trigger cycle ended.
type CheckinOutcome string

const (
	OutcomeConfirmed      CheckinOutcome = "confirmed"
	OutcomeNothingDue     CheckinOutcome = "nothing_due"
	OutcomeFetchFailed    CheckinOutcome = "fetch_failed"
	OutcomePartialFailure CheckinOutcome = "partial_failure"
)

// CheckinEvent is the local audit record of one accepted trigger cycle.
type CheckinEvent struct {
	EventID    string         `json:"event_id"`
	Signature  string         `json:"signature"`
	Outcome    CheckinOutcome `json:"outcome"`
	ScheduleID int64          `json:"schedule_id,omitempty"`
	DosesOK    int            `json:"doses_ok"`
	DosesFail  int            `json:"doses_fail"`
	CreatedAt  time.Time      `json:"created_at"`
}

// API response status constants
const (
	APIStatusOK    = "ok"
	APIStatusError = "error"
)

// APIResponse is the JSON envelope for all HTTP endpoints.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Success builds a successful API response wrapping result.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage builds a successful API response with a message.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error builds an error API response.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
