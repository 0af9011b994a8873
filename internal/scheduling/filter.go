package scheduling

import "time"

// FilterAvailable removes slots whose [start, start+duration) window overlaps
// any busy interval. Order is preserved. Intervals that fail the Start < End
// invariant are ignored rather than blocking every slot they touch.
func FilterAvailable(slots []time.Time, busy []BusyInterval, duration time.Duration) []time.Time {
	if len(slots) == 0 {
		return nil
	}

	available := make([]time.Time, 0, len(slots))
	for _, slot := range slots {
		if isFree(slot, slot.Add(duration), busy) {
			available = append(available, slot)
		}
	}
	if len(available) == 0 {
		return nil
	}
	return available
}

func isFree(start, end time.Time, busy []BusyInterval) bool {
	for _, interval := range busy {
		if !interval.Valid() {
			continue
		}
		if overlaps(start, end, interval) {
			return false
		}
	}
	return true
}

// overlaps covers partial and full containment in both directions.
func overlaps(start, end time.Time, interval BusyInterval) bool {
	return start.Before(interval.End) && end.After(interval.Start)
}
