package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// RouteHandler handles route HTTP requests
type RouteHandler struct {
	routeService *services.RouteService
}

// NewRouteHandler creates a new RouteHandler
func NewRouteHandler(routeService *services.RouteService) *RouteHandler {
	return &RouteHandler{
		routeService: routeService,
	}
}

// PlanRouteRequest represents the route creation body
type PlanRouteRequest struct {
	DriverID       int64      `json:"driver_id" binding:"required"`
	StartLocation  string     `json:"start_location" binding:"required"`
	EndLocation    string     `json:"end_location" binding:"required"`
	StartLatitude  *float64   `json:"start_latitude" binding:"required"`
	StartLongitude *float64   `json:"start_longitude" binding:"required"`
	EndLatitude    *float64   `json:"end_latitude" binding:"required"`
	EndLongitude   *float64   `json:"end_longitude" binding:"required"`
	StartTime      *time.Time `json:"start_time,omitempty"`
	EstimatedKm    *float64   `json:"estimated_km,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

// Plan creates a new route
// POST /api/routes
func (h *RouteHandler) Plan(c *gin.Context) {
	var req PlanRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	input := services.PlanRouteInput{
		DriverID:       req.DriverID,
		StartLocation:  req.StartLocation,
		EndLocation:    req.EndLocation,
		StartLatitude:  *req.StartLatitude,
		StartLongitude: *req.StartLongitude,
		EndLatitude:    *req.EndLatitude,
		EndLongitude:   *req.EndLongitude,
	}
	if req.StartTime != nil {
		input.StartTime = *req.StartTime
	}
	if req.EstimatedKm != nil {
		input.EstimatedKm = models.NewNullFloat64(*req.EstimatedKm)
	}
	if req.Notes != nil {
		input.Notes = models.NewNullString(*req.Notes)
	}

	route, err := h.routeService.Plan(input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, route)
}

// Get returns one route
// GET /api/routes/:id
func (h *RouteHandler) Get(c *gin.Context) {
	routeID, err := parseID(c, "id")
	if err != nil {
		return
	}

	route, err := h.routeService.GetByID(routeID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, route)
}

// List returns routes in a given status
// GET /api/routes?status=
func (h *RouteHandler) List(c *gin.Context) {
	status := models.RouteStatus(c.DefaultQuery("status", string(models.RouteStatusInProgress)))

	routes, err := h.routeService.ListByStatus(status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routes": routes,
		"count":  len(routes),
	})
}

// ListByDriver returns a driver's routes
// GET /api/routes/driver/:driverId
func (h *RouteHandler) ListByDriver(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	routes, err := h.routeService.ListByDriver(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"routes": routes,
		"count":  len(routes),
	})
}

// UpdateStatusRequest represents the lifecycle transition body
type UpdateStatusRequest struct {
	Status   models.RouteStatus `json:"status" binding:"required"`
	ActualKm *float64           `json:"actual_km,omitempty"`
	Notes    *string            `json:"notes,omitempty"`
}

// UpdateStatus drives the route lifecycle: Planned to InProgress to
// Completed or Cancelled
// PUT /api/routes/:id/status
func (h *RouteHandler) UpdateStatus(c *gin.Context) {
	routeID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	var route *models.Route
	switch req.Status {
	case models.RouteStatusInProgress:
		route, err = h.routeService.Start(routeID)
	case models.RouteStatusCompleted:
		var actualKm models.NullFloat64
		if req.ActualKm != nil {
			actualKm = models.NewNullFloat64(*req.ActualKm)
		}
		route, err = h.routeService.Complete(routeID, actualKm)
	case models.RouteStatusCancelled:
		var notes models.NullString
		if req.Notes != nil {
			notes = models.NewNullString(*req.Notes)
		}
		route, err = h.routeService.Cancel(routeID, notes)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "status must be InProgress, Completed or Cancelled",
		})
		return
	}

	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, route)
}

// Delete removes a route that never ran (Planned or Cancelled only)
// DELETE /api/routes/:id
func (h *RouteHandler) Delete(c *gin.Context) {
	routeID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.routeService.Delete(routeID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "route deleted",
	})
}
