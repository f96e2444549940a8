package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"telehealth-scheduling-core/models"
	"telehealth-scheduling-core/orchestrator"
)

// JobHandler exposes job-status, job-cancel and job-list operations over
// the orchestrator's in-memory job table.
type JobHandler struct {
	orch *orchestrator.Orchestrator
}

func NewJobHandler(orch *orchestrator.Orchestrator) *JobHandler {
	return &JobHandler{orch: orch}
}

// Status handles GET /api/v1/jobs/:id
func (h *JobHandler) Status(c *gin.Context) {
	jobID := c.Param("id")
	job, err := h.orch.JobStatus(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "job_not_found", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: job})
}

// Cancel handles POST /api/v1/jobs/:id/cancel. Rejects with 409 Conflict
// once the job has already reached a terminal state.
func (h *JobHandler) Cancel(c *gin.Context) {
	jobID := c.Param("id")
	if err := h.orch.JobCancel(c.Request.Context(), jobID); err != nil {
		writeSchedulingError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Message: "cancellation requested"})
}

// List handles GET /api/v1/jobs?status=
func (h *JobHandler) List(c *gin.Context) {
	status := models.JobStatus(c.Query("status"))
	jobs := h.orch.JobList(status)
	c.JSON(http.StatusOK, SuccessResponse{Success: true, Data: jobs})
}

// Stream handles GET /api/v1/jobs/:id/stream — a newline-delimited-JSON
// status stream for clients that can't poll, backed by Subscribe.
func (h *JobHandler) Stream(c *gin.Context) {
	jobID := c.Param("id")
	updates, err := h.orch.Subscribe(jobID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "job_not_found", Message: err.Error()})
		return
	}

	c.Status(http.StatusOK)
	c.Header("Content-Type", "application/x-ndjson")
	flusher, canFlush := c.Writer.(interface{ Flush() })

	for {
		select {
		case job, ok := <-updates:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "%s\n", mustJSON(job))
			if canFlush {
				flusher.Flush()
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
