package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// RiskZoneHandler handles risk zone HTTP requests
type RiskZoneHandler struct {
	zoneService      *services.RiskZoneService
	proximityService *services.ProximityService
}

// NewRiskZoneHandler creates a new RiskZoneHandler
func NewRiskZoneHandler(zoneService *services.RiskZoneService, proximityService *services.ProximityService) *RiskZoneHandler {
	return &RiskZoneHandler{
		zoneService:      zoneService,
		proximityService: proximityService,
	}
}

// RiskZoneRequest represents the create/update request body
type RiskZoneRequest struct {
	Name        string   `json:"name" binding:"required"`
	Location    *string  `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude" binding:"required"`
	Longitude   *float64 `json:"longitude" binding:"required"`
	RadiusKm    float64  `json:"radiusKm" binding:"required"`
	RiskLevel   string   `json:"riskLevel" binding:"required"`
	RiskType    string   `json:"riskType" binding:"required"`
	Description *string  `json:"description,omitempty"`
}

func (req *RiskZoneRequest) toModel() *models.RiskZone {
	zone := &models.RiskZone{
		Name:      req.Name,
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		RadiusKm:  req.RadiusKm,
		RiskLevel: req.RiskLevel,
		RiskType:  req.RiskType,
	}
	if req.Location != nil {
		zone.Location = models.NewNullString(*req.Location)
	}
	if req.Description != nil {
		zone.Description = models.NewNullString(*req.Description)
	}
	return zone
}

// Create registers a new risk zone
// POST /api/riskzones
func (h *RiskZoneHandler) Create(c *gin.Context) {
	var req RiskZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	zone, err := h.zoneService.Create(req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, zone)
}

// Get returns one risk zone
// GET /api/riskzones/:id
func (h *RiskZoneHandler) Get(c *gin.Context) {
	zoneID, err := parseID(c, "id")
	if err != nil {
		return
	}

	zone, err := h.zoneService.GetByID(zoneID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, zone)
}

// List returns risk zones; include_inactive=true adds deactivated zones
// GET /api/riskzones
func (h *RiskZoneHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	zones, err := h.zoneService.List(includeInactive)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"risk_zones": zones,
		"count":      len(zones),
	})
}

// Update modifies zone attributes
// PUT /api/riskzones/:id
func (h *RiskZoneHandler) Update(c *gin.Context) {
	zoneID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req RiskZoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	zone := req.toModel()
	zone.ID = zoneID

	updated, err := h.zoneService.Update(zone)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Deactivate retires a zone from proximity queries
// DELETE /api/riskzones/:id
func (h *RiskZoneHandler) Deactivate(c *gin.Context) {
	zoneID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.zoneService.Deactivate(zoneID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "risk zone deactivated",
	})
}

// Nearby returns active zones overlapping a radiusKm circle around a point,
// closest first
// GET /api/riskzones/nearby?latitude&longitude&radiusKm
func (h *RiskZoneHandler) Nearby(c *gin.Context) {
	lat, err := parseFloatQuery(c, "latitude")
	if err != nil {
		return
	}
	lon, err := parseFloatQuery(c, "longitude")
	if err != nil {
		return
	}

	radiusKm := 0.0
	if raw := c.Query("radiusKm"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation_error",
				"message": "invalid radiusKm parameter",
			})
			return
		}
	}

	nearby, err := h.proximityService.GetNearbyZones(lat, lon, radiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"riskZones": nearby,
		"count":     len(nearby),
	})
}

// CheckLocationRequest represents the location check body
type CheckLocationRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// Check reports whether a point sits inside any active risk zone
// POST /api/riskzones/check
func (h *RiskZoneHandler) Check(c *gin.Context) {
	var req CheckLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	check, err := h.proximityService.CheckLocation(*req.Latitude, *req.Longitude)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"isInRiskZone":    check.InRiskZone,
		"highestRisk":     check.HighestRisk,
		"nearbyRiskZones": check.MatchedZones,
	})
}

// parseFloatQuery reads a required float query parameter
func parseFloatQuery(c *gin.Context, name string) (float64, error) {
	raw := c.Query(name)
	value, err := strconv.ParseFloat(raw, 64)
	if raw == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid " + name + " parameter",
		})
		return 0, strconv.ErrSyntax
	}
	return value, nil
}
