package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/talent-scheduler/internal/application"
)

type scheduleService interface {
	CreateSchedule(ctx context.Context, params application.CreateScheduleParams) (application.CreateScheduleResult, error)
	ConfirmOption(ctx context.Context, params application.ConfirmOptionParams) (application.Schedule, error)
	UpdateSchedule(ctx context.Context, params application.UpdateScheduleParams) (application.Schedule, error)
	GetSchedule(ctx context.Context, id string) (application.Schedule, error)
}

type ScheduleHandler struct {
	service   scheduleService
	responder responder
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	return &ScheduleHandler{service: service, responder: newResponder(logger)}
}

func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	result, err := h.service.CreateSchedule(r.Context(), application.CreateScheduleParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, createScheduleResponse{
		Schedule: toScheduleDTO(result.Schedule),
		Message:  result.ProposalMessage,
	})
}

func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	schedule, err := h.service.GetSchedule(r.Context(), scheduleID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: toScheduleDTO(schedule)})
}

func (h *ScheduleHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req confirmOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.ConfirmOption(r.Context(), application.ConfirmOptionParams{
		Principal:          principal,
		ScheduleID:         scheduleID,
		OptionID:           strings.TrimSpace(req.OptionID),
		BeveragePreference: req.BeveragePreference,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: toScheduleDTO(schedule)})
}

func (h *ScheduleHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	scheduleID, ok := ScheduleIDFromContext(r.Context())
	if !ok || strings.TrimSpace(scheduleID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidScheduleID)
		return
	}

	var req updateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	schedule, err := h.service.UpdateSchedule(r.Context(), application.UpdateScheduleParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		Input: application.ScheduleUpdateInput{
			Status:            strings.TrimSpace(req.Status),
			ScheduledAt:       parseTime(req.ScheduledAt),
			CandidateResponse: strings.TrimSpace(req.CandidateResponse),
		},
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, scheduleResponse{Schedule: toScheduleDTO(schedule)})
}

type createScheduleRequest struct {
	CandidateID     string   `json:"candidate_id"`
	CandidateName   string   `json:"candidate_name"`
	StageID         string   `json:"stage_id"`
	StageName       string   `json:"stage_name"`
	InterviewerIDs  []string `json:"interviewer_ids"`
	WindowStart     string   `json:"window_start"`
	WindowEnd       string   `json:"window_end"`
	DurationMinutes int      `json:"duration_minutes"`
}

func (r createScheduleRequest) toInput() application.ScheduleRequestInput {
	return application.ScheduleRequestInput{
		CandidateID:     strings.TrimSpace(r.CandidateID),
		CandidateName:   strings.TrimSpace(r.CandidateName),
		StageID:         strings.TrimSpace(r.StageID),
		StageName:       strings.TrimSpace(r.StageName),
		InterviewerIDs:  append([]string(nil), r.InterviewerIDs...),
		WindowStart:     parseTime(r.WindowStart),
		WindowEnd:       parseTime(r.WindowEnd),
		DurationMinutes: r.DurationMinutes,
	}
}

type confirmOptionRequest struct {
	OptionID           string  `json:"option_id"`
	BeveragePreference *string `json:"beverage_preference"`
}

type updateScheduleRequest struct {
	Status            string `json:"status"`
	ScheduledAt       string `json:"scheduled_at"`
	CandidateResponse string `json:"candidate_response"`
}

func parseTime(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts
	}
	return time.Time{}
}

type createScheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
	Message  string      `json:"message,omitempty"`
}

type scheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
}

type scheduleDTO struct {
	ID                 string      `json:"id"`
	CandidateID        string      `json:"candidate_id"`
	StageID            string      `json:"stage_id"`
	InterviewerIDs     []string    `json:"interviewer_ids"`
	DurationMinutes    int         `json:"duration_minutes"`
	Status             string      `json:"status"`
	ScheduledAt        string      `json:"scheduled_at"`
	CandidateResponse  string      `json:"candidate_response"`
	BeveragePreference *string     `json:"beverage_preference,omitempty"`
	Options            []optionDTO `json:"options"`
	CreatedAt          string      `json:"created_at"`
	UpdatedAt          string      `json:"updated_at"`
}

type optionDTO struct {
	ID          string  `json:"id"`
	ScheduledAt string  `json:"scheduled_at"`
	Reason      *string `json:"reason,omitempty"`
	Status      string  `json:"status"`
}

func toScheduleDTO(schedule application.Schedule) scheduleDTO {
	dto := scheduleDTO{
		ID:                 schedule.ID,
		CandidateID:        schedule.CandidateID,
		StageID:            schedule.StageID,
		InterviewerIDs:     append([]string(nil), schedule.InterviewerIDs...),
		DurationMinutes:    schedule.DurationMinutes,
		Status:             schedule.Status,
		ScheduledAt:        schedule.ScheduledAt.UTC().Format(time.RFC3339),
		CandidateResponse:  schedule.CandidateResponse,
		BeveragePreference: schedule.BeveragePreference,
		CreatedAt:          schedule.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          schedule.UpdatedAt.UTC().Format(time.RFC3339),
	}
	for _, option := range schedule.Options {
		dto.Options = append(dto.Options, optionDTO{
			ID:          option.ID,
			ScheduledAt: option.ScheduledAt.UTC().Format(time.RFC3339),
			Reason:      option.Reason,
			Status:      option.Status,
		})
	}
	return dto
}
