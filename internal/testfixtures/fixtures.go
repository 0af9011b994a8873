package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/talent-scheduler/internal/persistence"
)

var (
	interviewerCounter uint64
	scheduleCounter    uint64
)

var referenceTime = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
// It falls on a Monday at the start of business hours.
func ReferenceTime() time.Time {
	return referenceTime
}

// ------------------------- Interviewer fixtures --------------------------

// InterviewerFixture represents a deterministic interviewer record that can
// be materialised for the persistence or calendar layers.
type InterviewerFixture struct {
	ID           string
	Name         string
	Email        string
	CalendarID   string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// InterviewerOption mutates an InterviewerFixture during construction.
type InterviewerOption func(*InterviewerFixture)

// NewInterviewerFixture builds an interviewer with connected calendar
// credentials and a unique identifier.
func NewInterviewerFixture(opts ...InterviewerOption) InterviewerFixture {
	n := atomic.AddUint64(&interviewerCounter, 1)
	f := InterviewerFixture{
		ID:           fmt.Sprintf("interviewer-%d", n),
		Name:         fmt.Sprintf("Interviewer %d", n),
		Email:        fmt.Sprintf("interviewer%d@example.com", n),
		CalendarID:   fmt.Sprintf("calendar-%d", n),
		AccessToken:  fmt.Sprintf("access-%d", n),
		RefreshToken: fmt.Sprintf("refresh-%d", n),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithInterviewerID overrides the generated identifier.
func WithInterviewerID(id string) InterviewerOption {
	return func(f *InterviewerFixture) { f.ID = id }
}

// WithInterviewerCalendarID overrides the calendar identifier.
func WithInterviewerCalendarID(id string) InterviewerOption {
	return func(f *InterviewerFixture) { f.CalendarID = id }
}

// WithoutInterviewerCredentials clears both tokens, modelling an interviewer
// who never connected a calendar.
func WithoutInterviewerCredentials() InterviewerOption {
	return func(f *InterviewerFixture) {
		f.AccessToken = ""
		f.RefreshToken = ""
	}
}

// WithExpiredAccessToken clears only the access token so the provider has to
// refresh before fetching.
func WithExpiredAccessToken() InterviewerOption {
	return func(f *InterviewerFixture) { f.AccessToken = "" }
}

// Persistence materialises the fixture as a persistence record.
func (f InterviewerFixture) Persistence() persistence.Interviewer {
	return persistence.Interviewer{
		ID:           f.ID,
		Name:         f.Name,
		Email:        f.Email,
		CalendarID:   f.CalendarID,
		AccessToken:  f.AccessToken,
		RefreshToken: f.RefreshToken,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// --------------------------- Schedule fixtures ---------------------------

// ScheduleFixture represents a deterministic schedule with proposed options.
type ScheduleFixture struct {
	ID                 string
	CandidateID        string
	StageID            string
	InterviewerIDs     []string
	DurationMinutes    int
	Status             string
	ScheduledAt        time.Time
	CandidateResponse  string
	BeveragePreference *string
	OptionTimes        []time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduleFixtureOption mutates a ScheduleFixture during construction.
type ScheduleFixtureOption func(*ScheduleFixture)

// NewScheduleFixture builds a pending schedule with two proposed options.
func NewScheduleFixture(opts ...ScheduleFixtureOption) ScheduleFixture {
	n := atomic.AddUint64(&scheduleCounter, 1)
	f := ScheduleFixture{
		ID:                fmt.Sprintf("schedule-%d", n),
		CandidateID:       fmt.Sprintf("candidate-%d", n),
		StageID:           fmt.Sprintf("stage-%d", n),
		InterviewerIDs:    []string{fmt.Sprintf("interviewer-%d", n)},
		DurationMinutes:   60,
		Status:            "pending",
		ScheduledAt:       referenceTime.Add(2 * time.Hour),
		CandidateResponse: "pending",
		OptionTimes:       []time.Time{referenceTime.Add(2 * time.Hour), referenceTime.Add(3 * time.Hour)},
		CreatedAt:         referenceTime,
		UpdatedAt:         referenceTime,
	}
	for _, opt := range opts {
		opt(&f)
	}
	return f
}

// WithScheduleID overrides the generated identifier.
func WithScheduleID(id string) ScheduleFixtureOption {
	return func(f *ScheduleFixture) { f.ID = id }
}

// WithScheduleCandidate overrides the candidate identifier.
func WithScheduleCandidate(id string) ScheduleFixtureOption {
	return func(f *ScheduleFixture) { f.CandidateID = id }
}

// WithScheduleInterviewers overrides the interviewer set.
func WithScheduleInterviewers(ids ...string) ScheduleFixtureOption {
	return func(f *ScheduleFixture) { f.InterviewerIDs = ids }
}

// WithScheduleStatus overrides the schedule status.
func WithScheduleStatus(status string) ScheduleFixtureOption {
	return func(f *ScheduleFixture) { f.Status = status }
}

// WithScheduleOptionTimes overrides the proposed option times.
func WithScheduleOptionTimes(times ...time.Time) ScheduleFixtureOption {
	return func(f *ScheduleFixture) {
		f.OptionTimes = times
		if len(times) > 0 {
			f.ScheduledAt = times[0]
		}
	}
}

// Persistence materialises the fixture as a persistence schedule.
func (f ScheduleFixture) Persistence() persistence.Schedule {
	return persistence.Schedule{
		ID:                 f.ID,
		CandidateID:        f.CandidateID,
		StageID:            f.StageID,
		InterviewerIDs:     append([]string(nil), f.InterviewerIDs...),
		DurationMinutes:    f.DurationMinutes,
		Status:             f.Status,
		ScheduledAt:        f.ScheduledAt,
		CandidateResponse:  f.CandidateResponse,
		BeveragePreference: f.BeveragePreference,
		CreatedAt:          f.CreatedAt,
		UpdatedAt:          f.UpdatedAt,
	}
}

// Options materialises the proposed option rows for the schedule.
func (f ScheduleFixture) Options() []persistence.ScheduleOption {
	options := make([]persistence.ScheduleOption, len(f.OptionTimes))
	for i, at := range f.OptionTimes {
		options[i] = persistence.ScheduleOption{
			ID:          fmt.Sprintf("%s-option-%d", f.ID, i+1),
			ScheduleID:  f.ID,
			ScheduledAt: at,
			Status:      "pending",
			CreatedAt:   f.CreatedAt,
			UpdatedAt:   f.UpdatedAt,
		}
	}
	return options
}
