package persistence

import "time"

// Interviewer represents a staff member who conducts interviews, together
// with the coordinates of their connected calendar. Access and refresh tokens
// are stored sealed and exposed in the clear only by the repository.
type Interviewer struct {
	ID           string
	Name         string
	Email        string
	CalendarID   string
	AccessToken  string
	RefreshToken string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Schedule is the aggregate root of one interview scheduling request.
type Schedule struct {
	ID                 string
	CandidateID        string
	StageID            string
	InterviewerIDs     []string
	DurationMinutes    int
	Status             string
	ScheduledAt        time.Time
	CandidateResponse  string
	BeveragePreference *string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduleOption is one proposed interview time attached to a schedule.
type ScheduleOption struct {
	ID          string
	ScheduleID  string
	ScheduledAt time.Time
	Reason      *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TimelineEvent is an immutable audit record on a candidate's timeline.
type TimelineEvent struct {
	ID          string
	CandidateID string
	EventType   string
	Payload     string
	AuthorID    *string
	CreatedAt   time.Time
}
