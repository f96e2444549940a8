package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/repository"
	"telehealth-scheduling-core/utils"
)

// ClinicianHandler exposes clinician directory management, grounded on the
// teacher's DoctorHandler (create/get/list plus its validator+sanitizer
// pipeline), generalized to the Clinician model's extra fields.
type ClinicianHandler struct {
	clinicians repository.ClinicianStore
	validator  *validator.Validate
}

// NewClinicianHandler constructs a ClinicianHandler.
func NewClinicianHandler(clinicians repository.ClinicianStore) *ClinicianHandler {
	return &ClinicianHandler{clinicians: clinicians, validator: validator.New()}
}

// CreateClinicianRequest is the inbound body for POST /clinicians.
type CreateClinicianRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=255" binding:"required"`
	SpecialtyID  uint   `json:"specialty_id" validate:"required,min=1" binding:"required"`
	HomeTimezone string `json:"home_timezone" validate:"required"`
}

// Create handles POST /api/v1/clinicians
func (h *ClinicianHandler) Create(c *gin.Context) {
	var req CreateClinicianRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "invalid clinician creation request", logrus.Fields{
			"component": "clinician_handler",
			"operation": "create",
		})
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.validator.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, SuccessResponse{
			Success: false,
			Message: "validation failed",
			Data:    parseValidationErrors(err),
		})
		return
	}

	sanitizedName := utils.SanitizeName(req.Name)
	if err := utils.ValidateInput(req.HomeTimezone, "home_timezone"); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_timezone", Message: err.Error()})
		return
	}

	if req.HomeTimezone == "" {
		req.HomeTimezone = "UTC"
	}

	clinician := &models.Clinician{
		Name:         sanitizedName,
		SpecialtyID:  req.SpecialtyID,
		HomeTimezone: req.HomeTimezone,
		IsAvailable:  true,
	}

	if err := h.clinicians.Create(c.Request.Context(), clinician); err != nil {
		utils.LogError(err, "failed to create clinician", logrus.Fields{
			"component":    "clinician_handler",
			"operation":    "create",
			"specialty_id": req.SpecialtyID,
		})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "creation_failed", Message: "failed to create clinician"})
		return
	}

	utils.LogInfo("clinician created", logrus.Fields{
		"component":    "clinician_handler",
		"clinician_id": clinician.ID,
	})
	c.JSON(http.StatusCreated, SuccessResponse{Success: true, Message: "clinician created", Data: clinician})
}

// Get handles GET /api/v1/clinicians/:id
func (h *ClinicianHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_id", Message: "clinician id must be numeric"})
		return
	}

	clinician, err := h.clinicians.FindByID(c.Request.Context(), uint(id))
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "clinician not found"})
			return
		}
		utils.LogError(err, "failed to get clinician", logrus.Fields{"component": "clinician_handler", "operation": "get"})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup_failed", Message: "failed to fetch clinician"})
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: clinician})
}

// List handles GET /api/v1/clinicians?specialty_id=
func (h *ClinicianHandler) List(c *gin.Context) {
	specialtyIDStr := c.Query("specialty_id")
	if specialtyIDStr == "" {
		clinicians, err := h.clinicians.ListAll(c.Request.Context())
		if err != nil {
			utils.LogError(err, "failed to list clinicians", logrus.Fields{"component": "clinician_handler", "operation": "list"})
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup_failed", Message: "failed to list clinicians"})
			return
		}
		c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: clinicians})
		return
	}

	specialtyID, err := strconv.ParseUint(specialtyIDStr, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid_specialty_id", Message: "specialty_id must be numeric"})
		return
	}

	clinicians, err := h.clinicians.ListBySpecialty(c.Request.Context(), uint(specialtyID))
	if err != nil {
		utils.LogError(err, "failed to list clinicians by specialty", logrus.Fields{"component": "clinician_handler", "operation": "list"})
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "lookup_failed", Message: "failed to list clinicians"})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: clinicians})
}

// parseValidationErrors turns validator field errors into a human-readable
// map, mirroring the teacher's doctor_handler.go helper of the same name.
func parseValidationErrors(err error) map[string]interface{} {
	errorsMap := make(map[string]interface{})
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		errorsMap["error"] = err.Error()
		return errorsMap
	}

	for _, fieldError := range validationErrors {
		field := strings.ToLower(fieldError.Field())
		switch fieldError.Tag() {
		case "required":
			errorsMap[field] = field + " is required"
		case "min":
			errorsMap[field] = field + " must be at least " + fieldError.Param() + " characters/value"
		case "max":
			errorsMap[field] = field + " must be at most " + fieldError.Param() + " characters/value"
		default:
			errorsMap[field] = field + " is invalid"
		}
	}
	return errorsMap
}
