package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// IncidentHandler handles incident HTTP requests
type IncidentHandler struct {
	incidentService *services.IncidentService
}

// NewIncidentHandler creates a new IncidentHandler
func NewIncidentHandler(incidentService *services.IncidentService) *IncidentHandler {
	return &IncidentHandler{
		incidentService: incidentService,
	}
}

// ReportIncidentRequest represents the incident report body
type ReportIncidentRequest struct {
	DriverID     int64      `json:"driverId" binding:"required"`
	AlertID      *int64     `json:"alertId,omitempty"`
	RouteID      *int64     `json:"routeId,omitempty"`
	IncidentType string     `json:"incidentType" binding:"required"`
	Severity     string     `json:"severity" binding:"required"`
	Latitude     *float64   `json:"latitude" binding:"required"`
	Longitude    *float64   `json:"longitude" binding:"required"`
	Location     *string    `json:"location,omitempty"`
	Description  string     `json:"description" binding:"required"`
	OccurredAt   *time.Time `json:"occurredAt,omitempty"`
}

// Report records a new incident
// POST /api/incidents
func (h *IncidentHandler) Report(c *gin.Context) {
	var req ReportIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.ReportIncidentInput{
		DriverID:     req.DriverID,
		IncidentType: req.IncidentType,
		Severity:     req.Severity,
		Latitude:     *req.Latitude,
		Longitude:    *req.Longitude,
		Description:  req.Description,
	}
	if req.AlertID != nil {
		input.AlertID = models.NewNullInt64(*req.AlertID)
	}
	if req.RouteID != nil {
		input.RouteID = models.NewNullInt64(*req.RouteID)
	}
	if req.Location != nil {
		input.Location = models.NewNullString(*req.Location)
	}
	if req.OccurredAt != nil {
		input.OccurredAt = *req.OccurredAt
	}

	incident, err := h.incidentService.ReportIncident(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"incidentId": incident.ID,
		"status":     incident.Status,
		"incident":   incident,
	})
}

// Get returns one incident with its recorded responses
// GET /api/incidents/:id
func (h *IncidentHandler) Get(c *gin.Context) {
	incidentID, err := parseID(c, "id")
	if err != nil {
		return
	}

	incident, responses, err := h.incidentService.GetByID(incidentID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incident":  incident,
		"responses": responses,
	})
}

// List returns incidents filtered by review status
// GET /api/incidents?status=
func (h *IncidentHandler) List(c *gin.Context) {
	status := models.IncidentStatus(c.DefaultQuery("status", string(models.IncidentStatusReported)))

	incidents, err := h.incidentService.ListByStatus(status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// ListByDriver returns a driver's incident history
// GET /api/incidents/driver/:driverId
func (h *IncidentHandler) ListByDriver(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	incidents, err := h.incidentService.ListByDriver(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidents": incidents,
		"count":     len(incidents),
	})
}

// VerifyRequest represents the verify request body
type VerifyRequest struct {
	VerifiedBy string `json:"verifiedBy" binding:"required"`
}

// ReviewRequest represents the mark-under-review request body
type ReviewRequest struct {
	ReviewedBy string `json:"reviewedBy" binding:"required"`
}

// Review places a reported incident under review
// PUT /api/incidents/:id/review
func (h *IncidentHandler) Review(c *gin.Context) {
	incidentID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	incident, err := h.incidentService.MarkUnderReview(incidentID, req.ReviewedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidentId": incident.ID,
		"status":     incident.Status,
		"incident":   incident,
	})
}

// Verify confirms an incident after review
// PUT /api/incidents/:id/verify
func (h *IncidentHandler) Verify(c *gin.Context) {
	incidentID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	incident, err := h.incidentService.Verify(c.Request.Context(), incidentID, req.VerifiedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidentId": incident.ID,
		"status":     incident.Status,
		"incident":   incident,
	})
}

// ResolveIncidentRequest represents the resolve request body
type ResolveIncidentRequest struct {
	ResolvedBy      string  `json:"resolvedBy" binding:"required"`
	ResolutionNotes *string `json:"resolutionNotes,omitempty"`
}

// Resolve closes a verified incident
// PUT /api/incidents/:id/resolve
func (h *IncidentHandler) Resolve(c *gin.Context) {
	incidentID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req ResolveIncidentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var notes models.NullString
	if req.ResolutionNotes != nil {
		notes = models.NewNullString(*req.ResolutionNotes)
	}

	incident, err := h.incidentService.Resolve(incidentID, req.ResolvedBy, notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"incidentId": incident.ID,
		"status":     incident.Status,
		"incident":   incident,
	})
}
