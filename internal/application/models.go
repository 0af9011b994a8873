package application

import "time"

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// Schedule status values as exposed by the application services.
const (
	ScheduleStatusPending   = "pending"
	ScheduleStatusConfirmed = "confirmed"
	ScheduleStatusRejected  = "rejected"
	ScheduleStatusCompleted = "completed"
)

// Candidate response values recorded on a schedule.
const (
	CandidateResponsePending  = "pending"
	CandidateResponseAccepted = "accepted"
	CandidateResponseRejected = "rejected"
)

// Option status values for proposed interview times.
const (
	OptionStatusPending  = "pending"
	OptionStatusSelected = "selected"
	OptionStatusRejected = "rejected"
)

// Schedule represents an interview scheduling request together with its
// current coordination state.
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
	Options            []ScheduleOption
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ScheduleOption is one proposed interview time offered to the candidate.
type ScheduleOption struct {
	ID          string
	ScheduleID  string
	ScheduledAt time.Time
	Reason      *string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Interviewer represents an interviewer as seen by the coordination services.
// Credential material stays inside the persistence and calendar layers.
type Interviewer struct {
	ID         string
	Name       string
	Email      string
	CalendarID string
}

// TimelineEvent is an audit record on a candidate's activity timeline.
type TimelineEvent struct {
	ID          string
	CandidateID string
	EventType   string
	Payload     string
	AuthorID    *string
	CreatedAt   time.Time
}

// ScheduleRequestInput captures caller provided scheduling fields.
type ScheduleRequestInput struct {
	CandidateID     string
	CandidateName   string
	StageID         string
	StageName       string
	InterviewerIDs  []string
	WindowStart     time.Time
	WindowEnd       time.Time
	DurationMinutes int
}

// CreateScheduleParams wraps the data required to create a scheduling request.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleRequestInput
}

// CreateScheduleResult carries the persisted schedule together with the
// candidate-facing proposal message. A blank message means composition
// failed; the schedule itself is still valid.
type CreateScheduleResult struct {
	Schedule        Schedule
	ProposalMessage string
}

// ConfirmOptionParams wraps the data required to confirm a proposed option on
// the candidate's behalf.
type ConfirmOptionParams struct {
	Principal          Principal
	ScheduleID         string
	OptionID           string
	BeveragePreference *string
}

// ScheduleUpdateInput captures the fields an administrator may overwrite on an
// existing schedule.
type ScheduleUpdateInput struct {
	Status            string
	ScheduledAt       time.Time
	CandidateResponse string
}

// UpdateScheduleParams wraps the data required to manually override a schedule.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Input      ScheduleUpdateInput
}
