package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/dto"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/services"
)

// WorkLogHandler accepts work-log writes from the tracking agent and from admins.
type WorkLogHandler struct {
	workLogService *services.WorkLogService
}

// NewWorkLogHandler creates a new WorkLogHandler.
func NewWorkLogHandler(workLogService *services.WorkLogService) *WorkLogHandler {
	return &WorkLogHandler{
		workLogService: workLogService,
	}
}

// ReportActivity stores the agent's running total for a day, replacing any earlier value.
// Authenticated by the device token in the body.
func (h *WorkLogHandler) ReportActivity(c *gin.Context) {
	type ActivityRequest struct {
		Token         string `json:"token" binding:"required"`
		Date          string `json:"date" binding:"required"`
		SecondsWorked *int64 `json:"seconds_worked" binding:"required"`
	}

	var req ActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.workLogService.AutomatedReport(c.Request.Context(), services.ReportInput{
		Token:   req.Token,
		Date:    req.Date,
		Seconds: *req.SecondsWorked,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ActivityReportResponse{
		Status:        "ok",
		ManualSuspect: result.ManualSuspect,
	})
}

// Track records a day once; a second submission for the same day is rejected.
// Authenticated by the device token in the body.
func (h *WorkLogHandler) Track(c *gin.Context) {
	type TrackRequest struct {
		Token         string `json:"token" binding:"required"`
		Date          string `json:"date" binding:"required"`
		HoursWorked   *int64 `json:"hours_worked"`
		SecondsWorked *int64 `json:"seconds_worked"`
	}

	var req TrackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	value := req.HoursWorked
	if value == nil {
		value = req.SecondsWorked
	}
	if value == nil {
		apierrors.BadRequest(c, "hours_worked or seconds_worked is required")
		return
	}

	entry, err := h.workLogService.DirectSubmission(c.Request.Context(), services.ReportInput{
		Token:   req.Token,
		Date:    req.Date,
		Seconds: *value,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToWorkLogDTO(*entry))
}

// ManualEntry adds time to a user's day on behalf of an admin.
func (h *WorkLogHandler) ManualEntry(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ManualEntryRequest struct {
		UserID        uint64 `json:"user_id" binding:"required"`
		Date          string `json:"date" binding:"required"`
		SecondsWorked *int64 `json:"seconds_worked" binding:"required"`
	}

	var req ManualEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	entry, err := h.workLogService.ManualEntry(c.Request.Context(), actor, services.ManualEntryInput{
		UserID:  req.UserID,
		Date:    req.Date,
		Seconds: *req.SecondsWorked,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToWorkLogDTO(*entry))
}
