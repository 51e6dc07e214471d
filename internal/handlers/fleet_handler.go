package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// FleetHandler handles company and dispatcher HTTP requests
type FleetHandler struct {
	fleetService *services.FleetService
}

// NewFleetHandler creates a new FleetHandler
func NewFleetHandler(fleetService *services.FleetService) *FleetHandler {
	return &FleetHandler{
		fleetService: fleetService,
	}
}

// CompanyRequest represents the company create request body
type CompanyRequest struct {
	Name             string  `json:"name" binding:"required"`
	RegistrationNo   *string `json:"registration_no,omitempty"`
	ContactEmail     *string `json:"contact_email,omitempty"`
	ContactPhone     *string `json:"contact_phone,omitempty"`
	SubscriptionPlan string  `json:"subscription_plan,omitempty"`
}

func (req *CompanyRequest) toModel() *models.Company {
	company := &models.Company{
		Name:             req.Name,
		SubscriptionPlan: req.SubscriptionPlan,
	}
	if req.RegistrationNo != nil {
		company.RegistrationNo = models.NewNullString(*req.RegistrationNo)
	}
	if req.ContactEmail != nil {
		company.ContactEmail = models.NewNullString(*req.ContactEmail)
	}
	if req.ContactPhone != nil {
		company.ContactPhone = models.NewNullString(*req.ContactPhone)
	}
	return company
}

// CreateCompany registers a new fleet operator
// POST /api/companies
func (h *FleetHandler) CreateCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	company, err := h.fleetService.CreateCompany(req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, company)
}

// GetCompany returns one fleet operator
// GET /api/companies/:id
func (h *FleetHandler) GetCompany(c *gin.Context) {
	companyID, err := parseID(c, "id")
	if err != nil {
		return
	}

	company, err := h.fleetService.GetCompany(companyID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, company)
}

// ListCompanies returns all fleet operators
// GET /api/companies
func (h *FleetHandler) ListCompanies(c *gin.Context) {
	companies, err := h.fleetService.ListCompanies()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, companies)
}

// DispatcherRequest represents the dispatcher create request body
type DispatcherRequest struct {
	UserID         string     `json:"user_id" binding:"required"`
	ShiftStartTime *time.Time `json:"shift_start_time,omitempty"`
	ShiftEndTime   *time.Time `json:"shift_end_time,omitempty"`
	ShiftPattern   string     `json:"shift_pattern,omitempty"`
	Phone          string     `json:"phone,omitempty"`
}

func (req *DispatcherRequest) toModel() *models.Dispatcher {
	d := &models.Dispatcher{
		UserID:       req.UserID,
		ShiftPattern: req.ShiftPattern,
		Phone:        req.Phone,
	}
	if d.ShiftPattern == "" {
		d.ShiftPattern = "day"
	}
	if req.ShiftStartTime != nil {
		d.ShiftStartTime = models.NewNullTime(*req.ShiftStartTime)
	}
	if req.ShiftEndTime != nil {
		d.ShiftEndTime = models.NewNullTime(*req.ShiftEndTime)
	}
	return d
}

// CreateDispatcher registers a dispatcher profile
// POST /api/dispatchers
func (h *FleetHandler) CreateDispatcher(c *gin.Context) {
	var req DispatcherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.fleetService.CreateDispatcher(req.toModel())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, d)
}

// GetDispatcher returns one dispatcher profile
// GET /api/dispatchers/:id
func (h *FleetHandler) GetDispatcher(c *gin.Context) {
	dispatcherID, err := parseID(c, "id")
	if err != nil {
		return
	}

	d, err := h.fleetService.GetDispatcher(dispatcherID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// ListOnDutyDispatchers returns dispatchers currently on shift
// GET /api/dispatchers/onduty
func (h *FleetHandler) ListOnDutyDispatchers(c *gin.Context) {
	dispatchers, err := h.fleetService.ListOnDutyDispatchers()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispatchers)
}

// DutyRequest toggles a dispatcher's on-duty flag
type DutyRequest struct {
	OnDuty *bool `json:"on_duty" binding:"required"`
}

// SetDispatcherDuty updates a dispatcher's duty flag
// PUT /api/dispatchers/:id/duty
func (h *FleetHandler) SetDispatcherDuty(c *gin.Context) {
	dispatcherID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req DutyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	d, err := h.fleetService.SetDispatcherDuty(dispatcherID, *req.OnDuty)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}
