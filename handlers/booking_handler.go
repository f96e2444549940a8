package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/orchestrator"
	"telehealth-scheduling-core/scheduling"
	"telehealth-scheduling-core/utils"
)

// BookingHandler exposes the Booking Orchestrator's synchronous and
// asynchronous booking operations, following the teacher's
// AppointmentHandler request/response shape.
type BookingHandler struct {
	orch                *orchestrator.Orchestrator
	defaultAllowHistory bool
}

// NewBookingHandler constructs a BookingHandler. defaultAllowHistory is used
// for requests that omit allow_history_prioritization, per the
// enable-history-prioritization config default.
func NewBookingHandler(orch *orchestrator.Orchestrator, defaultAllowHistory bool) *BookingHandler {
	return &BookingHandler{orch: orch, defaultAllowHistory: defaultAllowHistory}
}

// BookingRequest is the inbound body for both /book and /smart-book-async.
type BookingRequest struct {
	PatientID                  uint   `json:"patient_id" binding:"required"`
	ClinicianID                uint   `json:"clinician_id"`
	SpecialtyName              string `json:"specialty_name"`
	AppointmentType            string `json:"appointment_type" binding:"required"`
	WindowStart                string `json:"window_start" binding:"required"`
	WindowEnd                  string `json:"window_end" binding:"required"`
	PreferredStart             string `json:"preferred_start"`
	PatientNotes               string `json:"patient_notes"`
	BufferMinutes              int    `json:"buffer_minutes"`
	IdempotencyKey             string `json:"idempotency_key"`
	AllowHistoryPrioritization *bool  `json:"allow_history_prioritization"`
}

// BookingResponse mirrors the teacher's BookingResponse shape, generalized
// to the new domain's alternatives.
type BookingResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message"`
	Appointment  *models.Appointment `json:"appointment,omitempty"`
	Reasons      []string            `json:"reasons,omitempty"`
	Alternatives []models.Slot       `json:"alternatives,omitempty"`
}

func (h *BookingHandler) parseRequest(c *gin.Context) (orchestrator.BookingRequest, bool) {
	var req BookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "invalid booking request", nil)
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return orchestrator.BookingRequest{}, false
	}

	apptType, err := models.NormalizeAppointmentType(req.AppointmentType)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_appointment_type", Message: err.Error()})
		return orchestrator.BookingRequest{}, false
	}

	windowStart, err := time.Parse(time.RFC3339, req.WindowStart)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_time_format", Message: "window_start must be RFC3339"})
		return orchestrator.BookingRequest{}, false
	}
	windowEnd, err := time.Parse(time.RFC3339, req.WindowEnd)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_time_format", Message: "window_end must be RFC3339"})
		return orchestrator.BookingRequest{}, false
	}

	var preferredStart time.Time
	if req.PreferredStart != "" {
		preferredStart, err = time.Parse(time.RFC3339, req.PreferredStart)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_time_format", Message: "preferred_start must be RFC3339"})
			return orchestrator.BookingRequest{}, false
		}
	}

	if req.BufferMinutes == 0 {
		req.BufferMinutes = 5
	}

	allowHistory := h.defaultAllowHistory
	if req.AllowHistoryPrioritization != nil {
		allowHistory = *req.AllowHistoryPrioritization
	}

	return orchestrator.BookingRequest{
		PatientID:                  req.PatientID,
		ClinicianID:                req.ClinicianID,
		SpecialtyName:              req.SpecialtyName,
		AppointmentType:            apptType,
		WindowStart:                windowStart,
		WindowEnd:                  windowEnd,
		PreferredStart:             preferredStart,
		PatientNotes:               req.PatientNotes,
		BufferMin:                  req.BufferMinutes,
		IdempotencyKey:             req.IdempotencyKey,
		AllowHistoryPrioritization: allowHistory,
	}, true
}

// Book handles POST /api/v1/appointments/book — synchronous booking.
func (h *BookingHandler) Book(c *gin.Context) {
	req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	result, err := h.orch.Book(c.Request.Context(), req)
	if err != nil {
		writeSchedulingError(c, err)
		return
	}

	c.JSON(http.StatusCreated, BookingResponse{
		Success:     true,
		Message:     "appointment booked",
		Appointment: &result.Appointment,
		Reasons:     result.Reasons,
	})
}

// SmartBookAsync handles POST /api/v1/appointments/smart-book-async.
func (h *BookingHandler) SmartBookAsync(c *gin.Context) {
	req, ok := h.parseRequest(c)
	if !ok {
		return
	}

	job := h.orch.SmartBookAsync(req)
	c.JSON(http.StatusAccepted, SuccessResponse{Success: true, Message: "booking job queued", Data: job})
}

func writeSchedulingError(c *gin.Context, err error) {
	var se *scheduling.Error
	if errors.As(err, &se) {
		c.JSON(statusForKind(se.Kind), BookingResponse{
			Success:      false,
			Message:      se.Message,
			Alternatives: se.Alternatives,
		})
		return
	}
	utils.LogError(err, "unexpected scheduling error", nil)
	c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "an unexpected error occurred"})
}

func statusForKind(kind scheduling.Kind) int {
	switch kind {
	case scheduling.KindNotFound:
		return http.StatusNotFound
	case scheduling.KindInvalidInput:
		return http.StatusBadRequest
	case scheduling.KindConflict, scheduling.KindNoAvailability, scheduling.KindTooLate:
		return http.StatusConflict
	case scheduling.KindLockTimeout, scheduling.KindTimeout, scheduling.KindStoreUnavailable, scheduling.KindTransientRemote:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
