package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// DashboardHandler serves the control-room overview and safety analytics
type DashboardHandler struct {
	dashboardService *services.DashboardService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
	}
}

// Stats returns headline counts and alert aggregates
// GET /api/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	summary, err := h.dashboardService.GetSummary()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// DriverSafety returns a driver's latest score, detections and evidence footage
// GET /api/dashboard/drivers/:id/safety
func (h *DashboardHandler) DriverSafety(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	detail, err := h.dashboardService.GetDriverSafety(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// RecalculateDriverSafety recomputes today's safety score for a driver
// POST /api/dashboard/drivers/:id/safety/recalculate
func (h *DashboardHandler) RecalculateDriverSafety(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	score, err := h.dashboardService.RecalculateDriverSafety(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, score)
}

// MonthlyReportRequest selects the month to aggregate; defaults to the
// previous calendar month
type MonthlyReportRequest struct {
	Month string `json:"month,omitempty"` // YYYY-MM
}

// GenerateMonthlyReport aggregates a month of fleet activity into a report
// POST /api/dashboard/reports
func (h *DashboardHandler) GenerateMonthlyReport(c *gin.Context) {
	var req MonthlyReportRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		bindError(c, err)
		return
	}

	reportDate := time.Now().AddDate(0, -1, 0)
	if req.Month != "" {
		parsed, err := time.Parse("2006-01", req.Month)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_failed",
				"message": "month must be formatted as YYYY-MM",
			})
			return
		}
		reportDate = parsed
	}

	report, err := h.dashboardService.GenerateMonthlyReport(reportDate)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListMonthlyReports returns stored reports, newest month first
// GET /api/dashboard/reports
func (h *DashboardHandler) ListMonthlyReports(c *gin.Context) {
	reports, err := h.dashboardService.ListMonthlyReports()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}
