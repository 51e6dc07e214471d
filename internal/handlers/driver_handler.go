package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// DriverHandler handles driver profile HTTP requests
type DriverHandler struct {
	driverService *services.DriverService
}

// NewDriverHandler creates a new DriverHandler
func NewDriverHandler(driverService *services.DriverService) *DriverHandler {
	return &DriverHandler{
		driverService: driverService,
	}
}

// DriverRequest represents the create/update request body
type DriverRequest struct {
	UserID              string  `json:"user_id" binding:"required"`
	DispatcherID        *int64  `json:"dispatcher_id,omitempty"`
	Name                string  `json:"name" binding:"required"`
	Surname             string  `json:"surname" binding:"required"`
	LicenseNumber       string  `json:"license_number" binding:"required"`
	VehicleRegistration string  `json:"vehicle_registration" binding:"required"`
	VehicleModel        string  `json:"vehicle_model" binding:"required"`
	Phone               *string `json:"phone,omitempty"`
}

func (req *DriverRequest) toModel() *models.Driver {
	driver := &models.Driver{
		UserID:              req.UserID,
		Name:                req.Name,
		Surname:             req.Surname,
		LicenseNumber:       req.LicenseNumber,
		VehicleRegistration: req.VehicleRegistration,
		VehicleModel:        req.VehicleModel,
	}
	if req.DispatcherID != nil {
		driver.DispatcherID = models.NewNullInt64(*req.DispatcherID)
	}
	if req.Phone != nil {
		driver.Phone = models.NewNullString(*req.Phone)
	}
	return driver
}

// Create registers a new driver profile
// POST /api/drivers
func (h *DriverHandler) Create(c *gin.Context) {
	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	driver, err := h.driverService.Create(req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, driver)
}

// Get returns one driver profile
// GET /api/drivers/:id
func (h *DriverHandler) Get(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	driver, err := h.driverService.GetByID(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, driver)
}

// List returns all drivers
// GET /api/drivers
func (h *DriverHandler) List(c *gin.Context) {
	drivers, err := h.driverService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"drivers": drivers,
		"count":   len(drivers),
	})
}

// Update saves profile changes
// PUT /api/drivers/:id
func (h *DriverHandler) Update(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req DriverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	driver := req.toModel()
	driver.ID = driverID

	updated, err := h.driverService.Update(driver)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a driver without history on record
// DELETE /api/drivers/:id
func (h *DriverHandler) Delete(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.driverService.Delete(driverID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "driver deleted",
	})
}

// GetStats returns aggregate safety figures for a driver
// GET /api/drivers/:id/stats
func (h *DriverHandler) GetStats(c *gin.Context) {
	driverID, err := parseID(c, "id")
	if err != nil {
		return
	}

	stats, err := h.driverService.GetStats(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
