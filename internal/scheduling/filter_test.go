package scheduling

import (
	"testing"
	"time"
)

func TestFilterAvailable_RemovesOverlappingSlots(t *testing.T) {
	t.Parallel()

	duration := 60 * time.Minute
	busy := []BusyInterval{{Start: mustDay(t, 10, 0), End: mustDay(t, 11, 0)}}

	cases := map[string]struct {
		slot time.Time
		free bool
	}{
		"ends at busy start":         {slot: mustDay(t, 9, 0), free: true},
		"overlaps busy start":        {slot: mustDay(t, 9, 30), free: false},
		"fully inside busy":          {slot: mustDay(t, 10, 0), free: false},
		"overlaps busy end":          {slot: mustDay(t, 10, 30), free: false},
		"starts at busy end":         {slot: mustDay(t, 11, 0), free: true},
		"well after busy":            {slot: mustDay(t, 14, 0), free: true},
		"slot contains busy": {
			slot: mustDay(t, 10, 15),
			free: false,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := FilterAvailable([]time.Time{tc.slot}, busy, duration)
			if tc.free && len(got) != 1 {
				t.Fatalf("expected slot %s to survive, got %v", tc.slot, got)
			}
			if !tc.free && len(got) != 0 {
				t.Fatalf("expected slot %s to be rejected, got %v", tc.slot, got)
			}
		})
	}
}

func TestFilterAvailable_MorningScenario(t *testing.T) {
	t.Parallel()

	// Interviewer busy 10:00-11:00, one-hour interview, window 09:00-12:00.
	slots, err := GenerateSlots(mustDay(t, 9, 0), mustDay(t, 12, 0))
	if err != nil {
		t.Fatalf("GenerateSlots returned error: %v", err)
	}

	busy := []BusyInterval{{Start: mustDay(t, 10, 0), End: mustDay(t, 11, 0)}}
	available := FilterAvailable(slots, busy, 60*time.Minute)

	// 09:30 would run into the meeting at 10:00, so only three starts survive.
	want := []time.Time{mustDay(t, 9, 0), mustDay(t, 11, 0), mustDay(t, 11, 30)}
	if len(available) != len(want) {
		t.Fatalf("expected %v, got %v", want, available)
	}
	for i, slot := range available {
		if !slot.Equal(want[i]) {
			t.Errorf("slot %d: expected %s, got %s", i, want[i], slot)
		}
	}
}

func TestFilterAvailable_ChecksEveryInterval(t *testing.T) {
	t.Parallel()

	busy := []BusyInterval{
		{Start: mustDay(t, 9, 0), End: mustDay(t, 10, 0)},
		{Start: mustDay(t, 11, 0), End: mustDay(t, 12, 0)},
	}
	slots := []time.Time{mustDay(t, 9, 0), mustDay(t, 10, 0), mustDay(t, 11, 30)}

	available := FilterAvailable(slots, busy, 30*time.Minute)

	if len(available) != 1 || !available[0].Equal(mustDay(t, 10, 0)) {
		t.Fatalf("expected only the 10:00 slot, got %v", available)
	}
}

func TestFilterAvailable_IgnoresMalformedIntervals(t *testing.T) {
	t.Parallel()

	busy := []BusyInterval{{Start: mustDay(t, 12, 0), End: mustDay(t, 9, 0)}}
	slots := []time.Time{mustDay(t, 10, 0)}

	available := FilterAvailable(slots, busy, 60*time.Minute)
	if len(available) != 1 {
		t.Fatalf("malformed interval should not reject slots, got %v", available)
	}
}

func TestFilterAvailable_NoBusyIntervalsKeepsOrder(t *testing.T) {
	t.Parallel()

	slots := []time.Time{mustDay(t, 9, 0), mustDay(t, 13, 30), mustDay(t, 11, 0)}
	available := FilterAvailable(slots, nil, 45*time.Minute)

	if len(available) != len(slots) {
		t.Fatalf("expected all slots back, got %v", available)
	}
	for i := range slots {
		if !available[i].Equal(slots[i]) {
			t.Errorf("order not preserved at index %d", i)
		}
	}
}
