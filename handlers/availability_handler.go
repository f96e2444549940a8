package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/slotengine"
	"telehealth-scheduling-core/utils"
)

// AvailabilityHandler exposes the Slot Engine over HTTP, following the
// teacher's query-param AvailabilityRequest shape.
type AvailabilityHandler struct {
	engine *slotengine.Engine
}

func NewAvailabilityHandler(engine *slotengine.Engine) *AvailabilityHandler {
	return &AvailabilityHandler{engine: engine}
}

// AvailabilityResponse mirrors the teacher's AvailabilityResponse wrapper.
type AvailabilityResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message"`
	Slots   []models.Slot `json:"slots,omitempty"`
}

// Get handles GET /api/v1/availability
func (h *AvailabilityHandler) Get(c *gin.Context) {
	clinicianIDStr := c.Query("clinician_id")
	clinicianID64, err := strconv.ParseUint(clinicianIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_clinician_id", Message: "clinician_id is required"})
		return
	}

	apptType, err := models.NormalizeAppointmentType(c.Query("appointment_type"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_appointment_type", Message: err.Error()})
		return
	}

	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_time_format", Message: "start must be RFC3339"})
		return
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_time_format", Message: "end must be RFC3339"})
		return
	}

	slots, err := h.engine.Slots(c.Request.Context(), uint(clinicianID64), apptType, start, end)
	if err != nil {
		writeSchedulingError(c, err)
		return
	}

	utils.LogInfo("availability computed", nil)
	c.JSON(http.StatusOK, AvailabilityResponse{Success: true, Message: "availability computed", Slots: slots})
}
