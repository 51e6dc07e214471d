package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// EmergencyContactHandler handles emergency contact HTTP requests
type EmergencyContactHandler struct {
	contactService *services.ContactService
}

// NewEmergencyContactHandler creates a new EmergencyContactHandler
func NewEmergencyContactHandler(contactService *services.ContactService) *EmergencyContactHandler {
	return &EmergencyContactHandler{
		contactService: contactService,
	}
}

// ContactRequest represents the create/update request body
type ContactRequest struct {
	DriverID           int64   `json:"driver_id" binding:"required"`
	Name               string  `json:"name" binding:"required"`
	Surname            string  `json:"surname" binding:"required"`
	Relationship       string  `json:"relationship" binding:"required"`
	Phone              string  `json:"phone" binding:"required"`
	Email              *string `json:"email,omitempty"`
	NotifyOnPanic      *bool   `json:"notify_on_panic,omitempty"`
	NotifyOnRouteStart bool    `json:"notify_on_route_start"`
	NotifyOnRouteEnd   bool    `json:"notify_on_route_end"`
	NotifyOnIncident   bool    `json:"notify_on_incident"`
	IsPrimary          bool    `json:"is_primary"`
}

func (req *ContactRequest) toModel() *models.EmergencyContact {
	contact := &models.EmergencyContact{
		DriverID:           req.DriverID,
		Name:               req.Name,
		Surname:            req.Surname,
		Relationship:       req.Relationship,
		Phone:              req.Phone,
		NotifyOnPanic:      true,
		NotifyOnRouteStart: req.NotifyOnRouteStart,
		NotifyOnRouteEnd:   req.NotifyOnRouteEnd,
		NotifyOnIncident:   req.NotifyOnIncident,
		IsPrimary:          req.IsPrimary,
	}
	if req.NotifyOnPanic != nil {
		contact.NotifyOnPanic = *req.NotifyOnPanic
	}
	if req.Email != nil {
		contact.Email = models.NewNullString(*req.Email)
	}
	return contact
}

// Create adds an emergency contact for a driver
// POST /api/emergencycontacts
func (h *EmergencyContactHandler) Create(c *gin.Context) {
	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	contact, err := h.contactService.Create(req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, contact)
}

// ListByDriver returns a driver's contacts, primary first
// GET /api/emergencycontacts/driver/:driverId
func (h *EmergencyContactHandler) ListByDriver(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	contacts, err := h.contactService.ListByDriver(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contacts": contacts,
		"count":    len(contacts),
	})
}

// Update saves contact changes
// PUT /api/emergencycontacts/:id
func (h *EmergencyContactHandler) Update(c *gin.Context) {
	contactID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	contact := req.toModel()
	contact.ID = contactID

	updated, err := h.contactService.Update(contact)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, updated)
}

// Delete removes a contact
// DELETE /api/emergencycontacts/:id?driver_id=
func (h *EmergencyContactHandler) Delete(c *gin.Context) {
	contactID, err := parseID(c, "id")
	if err != nil {
		return
	}

	driverID, err := parseIDQuery(c, "driver_id")
	if err != nil {
		return
	}

	if err := h.contactService.Delete(contactID, driverID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "contact deleted",
	})
}

// parseIDQuery reads a positive integer query parameter, responding 400 on failure
func parseIDQuery(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_error",
			"message": "invalid " + name + " parameter",
		})
		return 0, strconv.ErrSyntax
	}
	return id, nil
}
