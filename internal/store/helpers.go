package store

import (
	"database/sql"
	"fmt"

	"github.com/medeasy-app/routinecore/internal/models"
)

// scanCheckinEvents drains rows into event records.
func scanCheckinEvents(rows *sql.Rows) ([]models.CheckinEvent, error) {
	var events []models.CheckinEvent
	for rows.Next() {
		var ev models.CheckinEvent
		var outcome string
		err := rows.Scan(&ev.EventID, &ev.Signature, &outcome, &ev.ScheduleID, &ev.DosesOK, &ev.DosesFail, &ev.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("scan check-in event failed: %w", err)
		}
		ev.Outcome = models.CheckinOutcome(outcome)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check-in events failed: %w", err)
	}
	return events, nil
}
