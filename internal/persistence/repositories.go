package persistence

import (
	"context"
	"time"
)

// InterviewerRepository stores interviewer records and calendar credentials.
type InterviewerRepository interface {
	CreateInterviewer(ctx context.Context, interviewer Interviewer) error
	UpdateInterviewer(ctx context.Context, interviewer Interviewer) error
	GetInterviewer(ctx context.Context, id string) (Interviewer, error)
	GetInterviewers(ctx context.Context, ids []string) ([]Interviewer, error)
	DeleteInterviewer(ctx context.Context, id string) error
}

// OptionConfirmation carries the parameters of the atomic confirmation
// transition: exactly one option becomes selected, every pending sibling
// becomes rejected, and the schedule itself is confirmed.
type OptionConfirmation struct {
	ScheduleID         string
	OptionID           string
	BeveragePreference *string
	Now                time.Time
}

// ScheduleRepository stores schedules and their proposed options.
type ScheduleRepository interface {
	// CreateScheduleWithOptions persists a schedule and its options as one
	// transaction; partial creation is never observable.
	CreateScheduleWithOptions(ctx context.Context, schedule Schedule, options []ScheduleOption) error
	GetSchedule(ctx context.Context, id string) (Schedule, error)
	GetOption(ctx context.Context, scheduleID, optionID string) (ScheduleOption, error)
	ListOptions(ctx context.Context, scheduleID string) ([]ScheduleOption, error)
	// ConfirmOption executes the confirmation transition atomically. It
	// returns ErrConflict when the option or schedule already left the
	// pending state, and ErrNotFound when either record is missing.
	ConfirmOption(ctx context.Context, confirmation OptionConfirmation) (Schedule, ScheduleOption, error)
	// UpdateSchedule overwrites mutable schedule fields without touching
	// options. This is the manual-override path; it deliberately offers none
	// of ConfirmOption's aggregate guarantees.
	UpdateSchedule(ctx context.Context, schedule Schedule) (Schedule, error)
}

// TimelineRepository is the append-only audit sink. Append must be called
// only after the transition it records has been durably committed.
type TimelineRepository interface {
	Append(ctx context.Context, event TimelineEvent) (TimelineEvent, error)
	ListForCandidate(ctx context.Context, candidateID string) ([]TimelineEvent, error)
}
