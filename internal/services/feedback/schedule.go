package feedback

import (
	"sort"
	"time"

	"github.com/j-veylop/omnicoach/internal/clock"
)

const (
	// StartHour is the first check-in hour of the day.
	StartHour = 9
	// EndHour closes the check-in window.
	EndHour = 21

	windowMinutes = (EndHour - StartHour) * 60
)

// Slot is one planned check-in.
type Slot struct {
	At        time.Time `json:"time"`
	Triggered bool      `json:"triggered"`
}

// BuildSchedule spaces frequency slots evenly from StartHour across the
// window, at minute precision. Slots already past are moved to the same time
// tomorrow. A frequency of zero or less yields no slots.
func BuildSchedule(now time.Time, frequency int) []Slot {
	if frequency <= 0 {
		return nil
	}

	day := clock.StartOfDay(now)
	slots := make([]Slot, 0, frequency)
	for i := range frequency {
		offset := i * windowMinutes / frequency
		at := time.Date(day.Year(), day.Month(), day.Day(),
			StartHour+offset/60, offset%60, 0, 0, now.Location())
		if at.Before(now) {
			at = at.AddDate(0, 0, 1)
		}
		slots = append(slots, Slot{At: at})
	}

	sort.Slice(slots, func(i, j int) bool {
		return slots[i].At.Before(slots[j].At)
	})
	return slots
}
