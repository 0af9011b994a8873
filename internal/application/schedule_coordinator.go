package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/talent-scheduler/internal/calendar"
	"github.com/example/talent-scheduler/internal/persistence"
	"github.com/example/talent-scheduler/internal/ranking"
	"github.com/example/talent-scheduler/internal/scheduling"
)

// Timeline event types recorded on the candidate activity feed.
const (
	EventScheduleCreated   = "schedule_created"
	EventScheduleConfirmed = "schedule_confirmed"
	EventScheduleUpdated   = "schedule_updated"
)

// ScheduleRepository captures the persistence interactions needed by the coordinator.
type ScheduleRepository interface {
	CreateScheduleWithOptions(ctx context.Context, schedule persistence.Schedule, options []persistence.ScheduleOption) error
	GetSchedule(ctx context.Context, id string) (persistence.Schedule, error)
	ListOptions(ctx context.Context, scheduleID string) ([]persistence.ScheduleOption, error)
	ConfirmOption(ctx context.Context, confirmation persistence.OptionConfirmation) (persistence.Schedule, persistence.ScheduleOption, error)
	UpdateSchedule(ctx context.Context, schedule persistence.Schedule) (persistence.Schedule, error)
}

// InterviewerDirectory exposes interviewer lookup operations.
type InterviewerDirectory interface {
	GetInterviewers(ctx context.Context, ids []string) ([]persistence.Interviewer, error)
}

// AvailabilityProvider reports calendar busy intervals for a set of interviewers.
type AvailabilityProvider interface {
	BusyIntervals(ctx context.Context, calendars []calendar.InterviewerCalendar, start, end time.Time) []scheduling.BusyInterval
}

// OptionRanker orders candidate-friendly interview slots.
type OptionRanker interface {
	Rank(ctx context.Context, slots []time.Time, rc ranking.Context) []ranking.RankedSlot
}

// ProposalComposer renders the candidate-facing proposal message.
type ProposalComposer interface {
	ComposeProposal(candidateName, stageName string, durationMinutes int, options []ranking.RankedSlot) (string, error)
}

// TimelineRepository appends audit events to a candidate's timeline.
type TimelineRepository interface {
	Append(ctx context.Context, event persistence.TimelineEvent) (persistence.TimelineEvent, error)
}

// ScheduleCoordinator orchestrates availability lookup, option ranking and
// persistence for interview scheduling operations.
type ScheduleCoordinator struct {
	schedules    ScheduleRepository
	interviewers InterviewerDirectory
	availability AvailabilityProvider
	ranker       OptionRanker
	composer     ProposalComposer
	timeline     TimelineRepository
	logger       *slog.Logger
	idGenerator  func() string
	now          func() time.Time
}

// NewScheduleCoordinator wires dependencies for scheduling operations.
func NewScheduleCoordinator(
	schedules ScheduleRepository,
	interviewers InterviewerDirectory,
	availability AvailabilityProvider,
	ranker OptionRanker,
	composer ProposalComposer,
	timeline TimelineRepository,
	logger *slog.Logger,
	idGenerator func() string,
	now func() time.Time,
) *ScheduleCoordinator {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleCoordinator{
		schedules:    schedules,
		interviewers: interviewers,
		availability: availability,
		ranker:       ranker,
		composer:     composer,
		timeline:     timeline,
		logger:       defaultLogger(logger),
		idGenerator:  idGenerator,
		now:          now,
	}
}

// CreateSchedule finds mutually free interview slots, persists the scheduling
// request with its proposed options and composes the candidate proposal
// message. Message composition failure is not fatal; the schedule is already
// durable and the result simply carries an empty message.
func (s *ScheduleCoordinator) CreateSchedule(ctx context.Context, params CreateScheduleParams) (CreateScheduleResult, error) {
	if s == nil {
		return CreateScheduleResult{}, fmt.Errorf("ScheduleCoordinator is nil")
	}
	logger := serviceLogger(ctx, s.logger, "schedule_coordinator", "create")

	input := params.Input
	if vErr := validateScheduleRequest(input); vErr.HasErrors() {
		return CreateScheduleResult{}, vErr
	}

	interviewers, err := s.lookupInterviewers(ctx, input.InterviewerIDs)
	if err != nil {
		return CreateScheduleResult{}, err
	}

	slots, err := scheduling.GenerateSlots(input.WindowStart, input.WindowEnd)
	if err != nil {
		var rangeErr *scheduling.RangeError
		if errors.As(err, &rangeErr) {
			vErr := &ValidationError{}
			vErr.add("window", rangeErr.Error())
			return CreateScheduleResult{}, vErr
		}
		return CreateScheduleResult{}, err
	}

	busy := s.availability.BusyIntervals(ctx, toCalendars(interviewers), input.WindowStart, input.WindowEnd)
	free := scheduling.FilterAvailable(slots, busy, time.Duration(input.DurationMinutes)*time.Minute)
	if len(free) == 0 {
		return CreateScheduleResult{}, ErrNoAvailability
	}

	ranked := s.ranker.Rank(ctx, free, ranking.Context{
		CandidateName:    input.CandidateName,
		StageName:        input.StageName,
		InterviewerCount: len(interviewers),
		DurationMinutes:  input.DurationMinutes,
		WindowStart:      input.WindowStart,
		WindowEnd:        input.WindowEnd,
	})
	if len(ranked) == 0 {
		return CreateScheduleResult{}, ErrNoAvailability
	}

	now := s.now()
	schedule := persistence.Schedule{
		ID:                s.idGenerator(),
		CandidateID:       input.CandidateID,
		StageID:           input.StageID,
		InterviewerIDs:    input.InterviewerIDs,
		DurationMinutes:   input.DurationMinutes,
		Status:            ScheduleStatusPending,
		ScheduledAt:       ranked[0].Start,
		CandidateResponse: CandidateResponsePending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	options := make([]persistence.ScheduleOption, len(ranked))
	for i, slot := range ranked {
		options[i] = persistence.ScheduleOption{
			ID:          s.idGenerator(),
			ScheduleID:  schedule.ID,
			ScheduledAt: slot.Start,
			Status:      OptionStatusPending,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if slot.Reason != "" {
			reason := slot.Reason
			options[i].Reason = &reason
		}
	}

	if err := s.schedules.CreateScheduleWithOptions(ctx, schedule, options); err != nil {
		return CreateScheduleResult{}, mapRepoError(err)
	}

	s.appendTimeline(ctx, logger, persistence.TimelineEvent{
		ID:          s.idGenerator(),
		CandidateID: schedule.CandidateID,
		EventType:   EventScheduleCreated,
		Payload:     timelinePayload(schedule.ID, "option_count", len(options)),
		AuthorID:    authorID(params.Principal),
		CreatedAt:   now,
	})

	result := CreateScheduleResult{Schedule: toApplicationSchedule(schedule, options)}

	text, err := s.composer.ComposeProposal(input.CandidateName, input.StageName, input.DurationMinutes, ranked)
	if err != nil {
		logger.Warn("proposal message composition failed", "schedule_id", schedule.ID, "error", err)
		return result, nil
	}
	result.ProposalMessage = text
	return result, nil
}

// ConfirmOption records the candidate's choice. Exactly one confirmation can
// win; a second attempt, concurrent or late, yields ErrConflict.
func (s *ScheduleCoordinator) ConfirmOption(ctx context.Context, params ConfirmOptionParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleCoordinator is nil")
	}
	logger := serviceLogger(ctx, s.logger, "schedule_coordinator", "confirm", "schedule_id", params.ScheduleID)

	vErr := &ValidationError{}
	if strings.TrimSpace(params.ScheduleID) == "" {
		vErr.add("schedule_id", "schedule id is required")
	}
	if strings.TrimSpace(params.OptionID) == "" {
		vErr.add("option_id", "option id is required")
	}
	if vErr.HasErrors() {
		return Schedule{}, vErr
	}

	now := s.now()
	schedule, _, err := s.schedules.ConfirmOption(ctx, persistence.OptionConfirmation{
		ScheduleID:         params.ScheduleID,
		OptionID:           params.OptionID,
		BeveragePreference: params.BeveragePreference,
		Now:                now,
	})
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}

	s.appendTimeline(ctx, logger, persistence.TimelineEvent{
		ID:          s.idGenerator(),
		CandidateID: schedule.CandidateID,
		EventType:   EventScheduleConfirmed,
		Payload:     timelinePayload(schedule.ID, "scheduled_at", schedule.ScheduledAt.UTC().Format(time.RFC3339)),
		AuthorID:    authorID(params.Principal),
		CreatedAt:   now,
	})

	options, err := s.schedules.ListOptions(ctx, schedule.ID)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}
	return toApplicationSchedule(schedule, options), nil
}

// UpdateSchedule lets an administrator overwrite the coordination state
// directly. Unlike confirmation it performs no option bookkeeping, but status
// changes still have to follow the schedule lifecycle.
func (s *ScheduleCoordinator) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleCoordinator is nil")
	}
	if !params.Principal.IsAdmin {
		return Schedule{}, ErrUnauthorized
	}
	logger := serviceLogger(ctx, s.logger, "schedule_coordinator", "update", "schedule_id", params.ScheduleID)

	existing, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}

	// Omitted fields keep their stored values; this is a partial override.
	input := params.Input
	status := input.Status
	if status == "" {
		status = existing.Status
	}
	response := input.CandidateResponse
	if response == "" {
		response = existing.CandidateResponse
	}

	vErr := &ValidationError{}
	if !validScheduleStatus(status) {
		vErr.add("status", "unknown status")
	} else if !legalTransition(existing.Status, status) {
		vErr.add("status", fmt.Sprintf("cannot move from %s to %s", existing.Status, status))
	}
	if !validCandidateResponse(response) {
		vErr.add("candidate_response", "unknown candidate response")
	}
	if vErr.HasErrors() {
		return Schedule{}, vErr
	}

	now := s.now()
	updated := existing
	updated.Status = status
	updated.CandidateResponse = response
	if !input.ScheduledAt.IsZero() {
		updated.ScheduledAt = input.ScheduledAt
	}
	updated.UpdatedAt = now

	persisted, err := s.schedules.UpdateSchedule(ctx, updated)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}

	s.appendTimeline(ctx, logger, persistence.TimelineEvent{
		ID:          s.idGenerator(),
		CandidateID: persisted.CandidateID,
		EventType:   EventScheduleUpdated,
		Payload:     timelinePayload(persisted.ID, "status", persisted.Status),
		AuthorID:    authorID(params.Principal),
		CreatedAt:   now,
	})

	options, err := s.schedules.ListOptions(ctx, persisted.ID)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}
	return toApplicationSchedule(persisted, options), nil
}

// GetSchedule retrieves a schedule together with its proposed options.
func (s *ScheduleCoordinator) GetSchedule(ctx context.Context, id string) (Schedule, error) {
	if s == nil {
		return Schedule{}, fmt.Errorf("ScheduleCoordinator is nil")
	}

	schedule, err := s.schedules.GetSchedule(ctx, id)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}
	options, err := s.schedules.ListOptions(ctx, id)
	if err != nil {
		return Schedule{}, mapRepoError(err)
	}
	return toApplicationSchedule(schedule, options), nil
}

func (s *ScheduleCoordinator) lookupInterviewers(ctx context.Context, ids []string) ([]persistence.Interviewer, error) {
	interviewers, err := s.interviewers.GetInterviewers(ctx, ids)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if len(interviewers) == len(ids) {
		return interviewers, nil
	}

	found := make(map[string]struct{}, len(interviewers))
	for _, interviewer := range interviewers {
		found[interviewer.ID] = struct{}{}
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	vErr := &ValidationError{}
	vErr.add("interviewer_ids", fmt.Sprintf("unknown interviewer ids: %s", strings.Join(missing, ", ")))
	return nil, vErr
}

// appendTimeline records an audit event once the triggering write is durable.
// A failed append is logged but never unwinds the operation.
func (s *ScheduleCoordinator) appendTimeline(ctx context.Context, logger *slog.Logger, event persistence.TimelineEvent) {
	if s.timeline == nil {
		return
	}
	if _, err := s.timeline.Append(ctx, event); err != nil {
		logger.Error("timeline append failed", "event_type", event.EventType, "candidate_id", event.CandidateID, "error", err)
	}
}

func validateScheduleRequest(input ScheduleRequestInput) *ValidationError {
	vErr := &ValidationError{}

	if strings.TrimSpace(input.CandidateID) == "" {
		vErr.add("candidate_id", "candidate id is required")
	}
	if strings.TrimSpace(input.StageID) == "" {
		vErr.add("stage_id", "stage id is required")
	}
	if len(input.InterviewerIDs) == 0 {
		vErr.add("interviewer_ids", "at least one interviewer is required")
	} else if len(uniqueStrings(input.InterviewerIDs)) != len(input.InterviewerIDs) {
		vErr.add("interviewer_ids", "interviewer ids must be distinct")
	}
	if input.WindowStart.IsZero() {
		vErr.add("window_start", "window start is required")
	}
	if input.WindowEnd.IsZero() {
		vErr.add("window_end", "window end is required")
	}
	if !input.WindowStart.IsZero() && !input.WindowEnd.IsZero() && !input.WindowStart.Before(input.WindowEnd) {
		vErr.add("window", "window start must be before window end")
	}
	if input.DurationMinutes <= 0 {
		vErr.add("duration_minutes", "duration must be positive")
	}

	return vErr
}

func validScheduleStatus(status string) bool {
	switch status {
	case ScheduleStatusPending, ScheduleStatusConfirmed, ScheduleStatusRejected, ScheduleStatusCompleted:
		return true
	}
	return false
}

func validCandidateResponse(response string) bool {
	switch response {
	case CandidateResponsePending, CandidateResponseAccepted, CandidateResponseRejected:
		return true
	}
	return false
}

// legalTransition encodes the schedule lifecycle: pending resolves to
// confirmed or rejected, and only confirmed schedules complete.
func legalTransition(from, to string) bool {
	if from == to {
		return true
	}
	switch from {
	case ScheduleStatusPending:
		return to == ScheduleStatusConfirmed || to == ScheduleStatusRejected
	case ScheduleStatusConfirmed:
		return to == ScheduleStatusCompleted
	}
	return false
}

func toCalendars(interviewers []persistence.Interviewer) []calendar.InterviewerCalendar {
	calendars := make([]calendar.InterviewerCalendar, len(interviewers))
	for i, interviewer := range interviewers {
		calendars[i] = calendar.InterviewerCalendar{
			InterviewerID: interviewer.ID,
			CalendarID:    interviewer.CalendarID,
			AccessToken:   interviewer.AccessToken,
			RefreshToken:  interviewer.RefreshToken,
		}
	}
	return calendars
}

func toApplicationSchedule(schedule persistence.Schedule, options []persistence.ScheduleOption) Schedule {
	converted := Schedule{
		ID:                 schedule.ID,
		CandidateID:        schedule.CandidateID,
		StageID:            schedule.StageID,
		InterviewerIDs:     schedule.InterviewerIDs,
		DurationMinutes:    schedule.DurationMinutes,
		Status:             schedule.Status,
		ScheduledAt:        schedule.ScheduledAt,
		CandidateResponse:  schedule.CandidateResponse,
		BeveragePreference: schedule.BeveragePreference,
		CreatedAt:          schedule.CreatedAt,
		UpdatedAt:          schedule.UpdatedAt,
	}
	for _, option := range options {
		converted.Options = append(converted.Options, ScheduleOption{
			ID:          option.ID,
			ScheduleID:  option.ScheduleID,
			ScheduledAt: option.ScheduledAt,
			Reason:      option.Reason,
			Status:      option.Status,
			CreatedAt:   option.CreatedAt,
			UpdatedAt:   option.UpdatedAt,
		})
	}
	return converted
}

func timelinePayload(scheduleID, key string, value any) string {
	payload, err := json.Marshal(map[string]any{"schedule_id": scheduleID, key: value})
	if err != nil {
		return "{}"
	}
	return string(payload)
}

func authorID(principal Principal) *string {
	if principal.UserID == "" {
		return nil
	}
	id := principal.UserID
	return &id
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, value := range values {
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		result = append(result, value)
	}
	return result
}

func mapRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrConflict):
		return ErrConflict
	case errors.Is(err, persistence.ErrDuplicate):
		return fmt.Errorf("%w: duplicate record", ErrConflict)
	case errors.Is(err, persistence.ErrConstraintViolation), errors.Is(err, persistence.ErrForeignKeyViolation):
		vErr := &ValidationError{}
		vErr.add("schedule", "related records are missing or invalid")
		return vErr
	}
	return err
}
