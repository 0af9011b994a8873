package sqlite

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/example/talent-scheduler/internal/persistence"
)

func openTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	pool, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	if err := pool.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return pool
}

func referenceTime() time.Time {
	return time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
}

func seedSchedule(t *testing.T, repo *ScheduleRepository, id string, optionTimes ...time.Time) (persistence.Schedule, []persistence.ScheduleOption) {
	t.Helper()

	now := referenceTime()
	schedule := persistence.Schedule{
		ID:                id,
		CandidateID:       "cand-1",
		StageID:           "stage-1",
		InterviewerIDs:    []string{"int-1", "int-2"},
		DurationMinutes:   60,
		Status:            "pending",
		ScheduledAt:       optionTimes[0],
		CandidateResponse: "pending",
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	options := make([]persistence.ScheduleOption, len(optionTimes))
	for i, at := range optionTimes {
		options[i] = persistence.ScheduleOption{
			ID:          id + "-opt-" + string(rune('a'+i)),
			ScheduleID:  id,
			ScheduledAt: at,
			Status:      "pending",
			CreatedAt:   now,
			UpdatedAt:   now,
		}
	}

	if err := repo.CreateScheduleWithOptions(context.Background(), schedule, options); err != nil {
		t.Fatalf("seeding schedule: %v", err)
	}
	return schedule, options
}

func TestScheduleRepository_CreateAndGetRoundTrip(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	seeded, _ := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour))

	got, err := repo.GetSchedule(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("GetSchedule returned error: %v", err)
	}

	if got.CandidateID != seeded.CandidateID || got.StageID != seeded.StageID {
		t.Errorf("unexpected schedule %+v", got)
	}
	if len(got.InterviewerIDs) != 2 {
		t.Errorf("expected 2 interviewer links, got %v", got.InterviewerIDs)
	}
	if got.Status != "pending" || got.CandidateResponse != "pending" {
		t.Errorf("unexpected initial state %+v", got)
	}
	if !got.ScheduledAt.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("unexpected scheduled_at %s", got.ScheduledAt)
	}

	options, err := repo.ListOptions(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	if len(options) != 2 {
		t.Fatalf("expected 2 options, got %v", options)
	}
	if !options[0].ScheduledAt.Before(options[1].ScheduledAt) {
		t.Error("options should be ordered by proposed time")
	}
}

func TestScheduleRepository_GetOptionIsScopedToItsSchedule(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	_, options := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour))
	seedSchedule(t, repo, "sched-2", now.Add(4*time.Hour))

	got, err := repo.GetOption(context.Background(), "sched-1", options[1].ID)
	if err != nil {
		t.Fatalf("GetOption returned error: %v", err)
	}
	if got.ID != options[1].ID || got.Status != "pending" {
		t.Errorf("unexpected option %+v", got)
	}
	if !got.ScheduledAt.Equal(now.Add(3 * time.Hour)) {
		t.Errorf("unexpected scheduled_at %s", got.ScheduledAt)
	}

	if _, err := repo.GetOption(context.Background(), "sched-2", options[1].ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for another schedule's option, got %v", err)
	}
	if _, err := repo.GetOption(context.Background(), "sched-1", "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown option, got %v", err)
	}
}

func TestScheduleRepository_GetScheduleMissing(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	if _, err := repo.GetSchedule(context.Background(), "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleRepository_DuplicateIDIsRejected(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	schedule, _ := seedSchedule(t, repo, "sched-1", now)

	err := repo.CreateScheduleWithOptions(context.Background(), schedule, nil)
	if !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestScheduleRepository_ConfirmOption(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	_, options := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour), now.Add(4*time.Hour))

	beverage := "green tea"
	schedule, selected, err := repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
		ScheduleID:         "sched-1",
		OptionID:           options[1].ID,
		BeveragePreference: &beverage,
		Now:                now.Add(time.Minute),
	})
	if err != nil {
		t.Fatalf("ConfirmOption returned error: %v", err)
	}

	if schedule.Status != "confirmed" || schedule.CandidateResponse != "accepted" {
		t.Errorf("unexpected schedule state %+v", schedule)
	}
	if !schedule.ScheduledAt.Equal(options[1].ScheduledAt) {
		t.Errorf("scheduled_at should equal the selected option time, got %s", schedule.ScheduledAt)
	}
	if schedule.BeveragePreference == nil || *schedule.BeveragePreference != "green tea" {
		t.Errorf("beverage preference not recorded: %+v", schedule.BeveragePreference)
	}
	if selected.Status != "selected" {
		t.Errorf("selected option has status %s", selected.Status)
	}

	all, err := repo.ListOptions(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	var selectedCount, rejectedCount int
	for _, option := range all {
		switch option.Status {
		case "selected":
			selectedCount++
		case "rejected":
			rejectedCount++
		}
	}
	if selectedCount != 1 || rejectedCount != 2 {
		t.Fatalf("expected 1 selected and 2 rejected options, got %+v", all)
	}
}

func TestScheduleRepository_SecondConfirmationConflicts(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	_, options := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour))

	if _, _, err := repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
		ScheduleID: "sched-1", OptionID: options[0].ID, Now: now,
	}); err != nil {
		t.Fatalf("first confirmation failed: %v", err)
	}

	_, _, err := repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
		ScheduleID: "sched-1", OptionID: options[1].ID, Now: now,
	})
	if !errors.Is(err, persistence.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// The losing call must not have changed anything.
	all, err := repo.ListOptions(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	var selectedCount int
	for _, option := range all {
		if option.Status == "selected" {
			selectedCount++
		}
	}
	if selectedCount != 1 {
		t.Fatalf("expected exactly one selected option, got %+v", all)
	}
}

func TestScheduleRepository_ConcurrentConfirmationsExactlyOneWins(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	_, options := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour))

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range 2 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, errs[i] = repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
				ScheduleID: "sched-1", OptionID: options[i].ID, Now: now,
			})
		}()
	}
	wg.Wait()

	var winners, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, persistence.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if winners != 1 || conflicts != 1 {
		t.Fatalf("expected exactly one winner and one conflict, got %d/%d", winners, conflicts)
	}
}

func TestScheduleRepository_ConfirmUnknownOption(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour))

	_, _, err := repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
		ScheduleID: "sched-1", OptionID: "missing", Now: now,
	})
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduleRepository_ConfirmOptionOfForeignSchedule(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour))
	_, otherOptions := seedSchedule(t, repo, "sched-2", now.Add(3*time.Hour))

	_, _, err := repo.ConfirmOption(context.Background(), persistence.OptionConfirmation{
		ScheduleID: "sched-1", OptionID: otherOptions[0].ID, Now: now,
	})
	if !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("option of another schedule should be invisible, got %v", err)
	}
}

func TestScheduleRepository_UpdateScheduleLeavesOptionsAlone(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	schedule, _ := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour), now.Add(3*time.Hour))

	schedule.Status = "completed"
	schedule.ScheduledAt = now.Add(5 * time.Hour)
	schedule.UpdatedAt = now.Add(time.Hour)

	updated, err := repo.UpdateSchedule(context.Background(), schedule)
	if err != nil {
		t.Fatalf("UpdateSchedule returned error: %v", err)
	}
	if updated.Status != "completed" || !updated.ScheduledAt.Equal(now.Add(5*time.Hour)) {
		t.Errorf("unexpected updated schedule %+v", updated)
	}

	options, err := repo.ListOptions(context.Background(), "sched-1")
	if err != nil {
		t.Fatalf("ListOptions returned error: %v", err)
	}
	for _, option := range options {
		if option.Status != "pending" {
			t.Fatalf("manual update must not touch options, got %+v", option)
		}
	}
}

func TestScheduleRepository_UpdateRejectsUnknownStatus(t *testing.T) {
	t.Parallel()

	repo := NewScheduleRepository(openTestPool(t))
	now := referenceTime()
	schedule, _ := seedSchedule(t, repo, "sched-1", now.Add(2*time.Hour))

	schedule.Status = "teleported"
	_, err := repo.UpdateSchedule(context.Background(), schedule)
	if !errors.Is(err, persistence.ErrConstraintViolation) {
		t.Fatalf("expected ErrConstraintViolation, got %v", err)
	}
}
