package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/worktime-api/internal/dto"
	apierrors "github.com/yukikurage/worktime-api/internal/errors"
	"github.com/yukikurage/worktime-api/internal/middleware"
	"github.com/yukikurage/worktime-api/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves the monthly admin reports.
type ReportHandler struct {
	reportService *services.ReportService
}

// NewReportHandler creates a new ReportHandler.
func NewReportHandler(reportService *services.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// TimeReport returns a month of work logs grouped by department and user.
func (h *ReportHandler) TimeReport(c *gin.Context) {
	actor, input, ok := timeReportInput(c)
	if !ok {
		return
	}

	report, err := h.reportService.TimeReport(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeReportResponse(report))
}

// ExportTimeReport streams the time report as an XLSX attachment.
func (h *ReportHandler) ExportTimeReport(c *gin.Context) {
	actor, input, ok := timeReportInput(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportService.ExportTimeReport(c.Request.Context(), actor, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// CompletedTasks lists what a department member completed in a month, for review.
func (h *ReportHandler) CompletedTasks(c *gin.Context) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	year, month, ok := queryPeriod(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid year or month")
		return
	}

	report, err := h.reportService.CompletedTasks(c.Request.Context(), actor, services.CompletedTasksInput{
		Department: c.Query("department"),
		Username:   c.Query("username"),
		Year:       year,
		Month:      month,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToCompletedTasksResponse(report))
}

func timeReportInput(c *gin.Context) (services.Actor, services.TimeReportInput, bool) {
	actor, exists := middleware.GetActor(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return services.Actor{}, services.TimeReportInput{}, false
	}

	year, month, ok := queryPeriod(c)
	if !ok {
		apierrors.BadRequest(c, "Invalid year or month")
		return services.Actor{}, services.TimeReportInput{}, false
	}

	return actor, services.TimeReportInput{
		Year:       year,
		Month:      month,
		Department: c.Query("department"),
		Username:   c.Query("username"),
	}, true
}
