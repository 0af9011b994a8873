package scheduling

import (
	"fmt"
	"time"
)

// GridStep is the fixed spacing between candidate interview start times.
const GridStep = 30 * time.Minute

// Business hours bound the start of an interview. The end of an interview may
// run past BusinessEndHour; only the start instant is constrained.
const (
	BusinessStartHour = 9
	BusinessEndHour   = 18
)

// BusyInterval is a half-open window during which an interviewer is unavailable,
// sourced from an external calendar. Start precedes End.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is well formed.
func (b BusyInterval) Valid() bool {
	return b.Start.Before(b.End)
}

// RangeError reports an inverted slot generation window.
type RangeError struct {
	Start time.Time
	End   time.Time
}

// Error implements the error interface.
func (e *RangeError) Error() string {
	return fmt.Sprintf("scheduling: end %s precedes start %s", e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

// GenerateSlots produces candidate interview start instants on the 30-minute
// grid between start (inclusive) and end (exclusive), restricted to business
// hours in start's location. Whether a slot of a given duration fits before
// other commitments is the filter's concern, not the generator's.
func GenerateSlots(start, end time.Time) ([]time.Time, error) {
	if end.Before(start) {
		return nil, &RangeError{Start: start, End: end}
	}

	var slots []time.Time
	for cursor := alignToGrid(start); cursor.Before(end); cursor = cursor.Add(GridStep) {
		if !withinBusinessHours(cursor) {
			continue
		}
		slots = append(slots, cursor)
	}
	return slots, nil
}

// alignToGrid rounds t up to the next wall-clock grid boundary in t's
// location. Truncate would anchor the grid to the absolute epoch, which skews
// it in locations whose UTC offset is not a multiple of the grid step.
func alignToGrid(t time.Time) time.Time {
	year, month, day := t.Date()
	hour, minute, _ := t.Clock()
	step := int(GridStep / time.Minute)
	floor := time.Date(year, month, day, hour, minute-minute%step, 0, 0, t.Location())
	if floor.Before(t) {
		floor = floor.Add(GridStep)
	}
	return floor
}

func withinBusinessHours(t time.Time) bool {
	hour := t.Hour()
	return hour >= BusinessStartHour && hour < BusinessEndHour
}
