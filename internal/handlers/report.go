package handlers

import (
	"time"

	"github.com/dietmate/backend/internal/middleware"
	"github.com/dietmate/backend/internal/services"
	"github.com/dietmate/backend/pkg/response"
	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService     *services.ReportService
	comparisonService *services.ComparisonService
}

// NewReportHandler takes the shared report service so HTTP requests and
// queued precompute tasks go through the same cache.
func NewReportHandler(reportService *services.ReportService, comparisonService *services.ComparisonService) *ReportHandler {
	return &ReportHandler{
		reportService:     reportService,
		comparisonService: comparisonService,
	}
}

func parseDateQuery(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	parsed, err := time.ParseInLocation("2006-01-02", v, time.Local)
	if err != nil {
		response.BadRequest(c, "invalid "+name)
		return time.Time{}, false
	}
	return parsed, true
}

// Daily returns the daily report for a date, defaulting to today
// GET /api/reports/daily?date=2025-01-15
func (h *ReportHandler) Daily(c *gin.Context) {
	date, ok := parseDateQuery(c, "date", time.Now())
	if !ok {
		return
	}

	result, err := h.reportService.Daily(c.Request.Context(), middleware.GetUserID(c), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Weekly returns the 7-day report ending at end_date
// GET /api/reports/weekly?end_date=2025-01-15
func (h *ReportHandler) Weekly(c *gin.Context) {
	end, ok := parseDateQuery(c, "end_date", time.Now())
	if !ok {
		return
	}

	result, err := h.reportService.Weekly(c.Request.Context(), middleware.GetUserID(c), end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Monthly returns the 30-day report ending at end_date
// GET /api/reports/monthly?end_date=2025-01-15
func (h *ReportHandler) Monthly(c *gin.Context) {
	end, ok := parseDateQuery(c, "end_date", time.Now())
	if !ok {
		return
	}

	result, err := h.reportService.Monthly(c.Request.Context(), middleware.GetUserID(c), end)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// Comparison returns the peer-gap report against a group's top rankers
// GET /api/groups/:id/comparison?period=weekly
func (h *ReportHandler) Comparison(c *gin.Context) {
	groupID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	period := c.DefaultQuery("period", "weekly")
	report, err := h.comparisonService.AnalyzeGap(middleware.GetUserID(c), groupID, period)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, report)
}
