// Package slot classifies schedule labels into canonical time-of-day slots
// and selects the slot that is due at the current time.
package slot

import (
	"strings"

	"github.com/medeasy-app/routinecore/internal/models"
)

// slotMarkers maps lexical markers in user-facing schedule labels to slot
// types. Checked in order; the first match wins, so a label containing both
// a morning and a dinner marker classifies as morning. That precedence is
// inherited product behavior and must not be reordered without product input.
var slotMarkers = []struct {
	marker string
	slot   models.SlotType
}{
	{"아침", models.SlotMorning},
	{"점심", models.SlotLunch},
	{"저녁", models.SlotDinner},
	{"자기 전", models.SlotBedtime},
}

// Classify maps a free-text schedule label to a canonical slot type by
// case-insensitive substring match. Labels matching no marker are
// UNCLASSIFIED; there is no failure mode.
func Classify(label string) models.SlotType {
	lowered := strings.ToLower(label)
	for _, m := range slotMarkers {
		if strings.Contains(lowered, m.marker) {
			return m.slot
		}
	}
	return models.SlotUnclassified
}
