package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/middleware"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// PanicAlertHandler handles panic alert HTTP requests
type PanicAlertHandler struct {
	alertService *services.AlertService
}

// NewPanicAlertHandler creates a new PanicAlertHandler
func NewPanicAlertHandler(alertService *services.AlertService) *PanicAlertHandler {
	return &PanicAlertHandler{
		alertService: alertService,
	}
}

// TriggerAlertRequest represents the SOS request body
type TriggerAlertRequest struct {
	DriverID    int64    `json:"driverId" binding:"required"`
	RouteID     *int64   `json:"routeId,omitempty"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	Location    *string  `json:"location,omitempty"`
	AlertType   string   `json:"alertType" binding:"required"`
	Description *string  `json:"description,omitempty"`
}

// Trigger creates a new panic alert and fans it out to emergency contacts
// POST /api/panicalerts
func (h *PanicAlertHandler) Trigger(c *gin.Context) {
	var req TriggerAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.TriggerAlertInput{
		DriverID:  req.DriverID,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		AlertType: req.AlertType,
	}
	if req.RouteID != nil {
		input.RouteID = models.NewNullInt64(*req.RouteID)
	}
	if req.Location != nil {
		input.Location = models.NewNullString(*req.Location)
	}
	if req.Description != nil {
		input.Description = models.NewNullString(*req.Description)
	}

	output, err := h.alertService.TriggerAlert(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"alertId":            output.Alert.ID,
		"status":             output.Alert.Status,
		"alert":              output.Alert,
		"notificationStatus": output.NotificationStatus,
		"deliveryReceipts":   output.Receipts,
	})
}

// AcknowledgeRequest represents the acknowledge request body
type AcknowledgeRequest struct {
	AcknowledgedBy string  `json:"acknowledgedBy" binding:"required"`
	Notes          *string `json:"notes,omitempty"`
}

// Acknowledge marks an active alert as acknowledged by a responder
// PUT /api/panicalerts/:id/acknowledge
func (h *PanicAlertHandler) Acknowledge(c *gin.Context) {
	alertID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req AcknowledgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	alert, err := h.alertService.Acknowledge(c.Request.Context(), alertID, req.AcknowledgedBy)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alertId": alert.ID,
		"status":  alert.Status,
		"alert":   alert,
	})
}

// ResolveRequest represents the resolve request body
type ResolveRequest struct {
	ResolvedBy      string  `json:"resolvedBy" binding:"required"`
	ResolutionNotes *string `json:"resolutionNotes,omitempty"`
}

// Resolve closes an alert with resolution notes
// PUT /api/panicalerts/:id/resolve
func (h *PanicAlertHandler) Resolve(c *gin.Context) {
	alertID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var notes models.NullString
	if req.ResolutionNotes != nil {
		notes = models.NewNullString(*req.ResolutionNotes)
	}

	alert, err := h.alertService.Resolve(c.Request.Context(), alertID, req.ResolvedBy, notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alertId":             alert.ID,
		"status":              alert.Status,
		"responseTimeMinutes": alert.ResponseTimeMinutes,
		"alert":               alert,
	})
}

// Cancel lets the owning driver withdraw a false alarm inside the cancel window
// DELETE /api/panicalerts/:id
func (h *PanicAlertHandler) Cancel(c *gin.Context) {
	alertID, err := parseID(c, "id")
	if err != nil {
		return
	}

	userCtx := middleware.MustGetUserContext(c)
	if userCtx.DriverID == nil {
		c.JSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "Only the owning driver can cancel an alert",
		})
		return
	}

	alert, err := h.alertService.Cancel(c.Request.Context(), alertID, *userCtx.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alertId": alert.ID,
		"status":  alert.Status,
		"alert":   alert,
	})
}

// Get returns one alert with its response log
// GET /api/panicalerts/:id
func (h *PanicAlertHandler) Get(c *gin.Context) {
	alertID, err := parseID(c, "id")
	if err != nil {
		return
	}

	alert, log, err := h.alertService.GetByID(alertID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alert":        alert,
		"response_log": log,
	})
}

// List returns all alerts, optionally filtered by status
// GET /api/panicalerts?status=
func (h *PanicAlertHandler) List(c *gin.Context) {
	alerts, err := h.alertService.List(c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// RespondRequest represents a dispatcher action logged against an alert
type RespondRequest struct {
	PerformedBy string  `json:"performedBy" binding:"required"`
	Action      string  `json:"action" binding:"required"`
	Notes       *string `json:"notes,omitempty"`
}

// Respond records a dispatcher action against an open alert
// PUT /api/panicalerts/:id/respond
func (h *PanicAlertHandler) Respond(c *gin.Context) {
	alertID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var notes models.NullString
	if req.Notes != nil {
		notes = models.NewNullString(*req.Notes)
	}

	entry, err := h.alertService.Respond(alertID, req.PerformedBy, req.Action, notes)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"alertId": alertID,
		"entry":   entry,
	})
}

// ListActive returns alerts awaiting response
// GET /api/panicalerts/active
func (h *PanicAlertHandler) ListActive(c *gin.Context) {
	alerts, err := h.alertService.ListActive()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// ListByDriver returns a driver's alert history
// GET /api/panicalerts/driver/:driverId
func (h *PanicAlertHandler) ListByDriver(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	alerts, err := h.alertService.ListByDriver(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alerts": alerts,
		"count":  len(alerts),
	})
}

// GetStats returns aggregate alert figures
// GET /api/panicalerts/stats
func (h *PanicAlertHandler) GetStats(c *gin.Context) {
	stats, err := h.alertService.GetStats()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// parseID reads a positive integer path parameter, responding 400 on failure
func parseID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid " + name + " parameter",
		})
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
