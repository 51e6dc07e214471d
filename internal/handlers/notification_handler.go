package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/saferoute/fleet-safety-backend/internal/services"
)

// NotificationHandler handles in-app notification HTTP requests
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// SendNotificationRequest represents the send request body
type SendNotificationRequest struct {
	DriverID int64  `json:"driver_id" binding:"required"`
	Type     string `json:"type" binding:"required"`
	Title    string `json:"title" binding:"required"`
	Message  string `json:"message" binding:"required"`
	Priority string `json:"priority,omitempty"`
}

// Send delivers an in-app notification to a driver
// POST /api/notifications
func (h *NotificationHandler) Send(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	n, err := h.notificationService.Send(req.DriverID, req.Type, req.Title, req.Message, req.Priority)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, n)
}

// ListByDriver returns a driver's notifications; unread_only=true filters
// GET /api/notifications/driver/:driverId
func (h *NotificationHandler) ListByDriver(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	unreadOnly := c.Query("unread_only") == "true"

	notifications, err := h.notificationService.ListByDriver(driverID, unreadOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"count":         len(notifications),
	})
}

// CountUnread returns the unread badge count for a driver
// GET /api/notifications/driver/:driverId/unread
func (h *NotificationHandler) CountUnread(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	count, err := h.notificationService.CountUnread(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread": count,
	})
}

// MarkReadRequest identifies the owning driver for a read receipt
type MarkReadRequest struct {
	DriverID int64 `json:"driver_id" binding:"required"`
}

// MarkRead marks a single notification as read
// PUT /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, err := parseID(c, "id")
	if err != nil {
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	if err := h.notificationService.MarkRead(notificationID, req.DriverID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "notification marked read",
	})
}

// Delete removes a notification
// DELETE /api/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	notificationID, err := parseID(c, "id")
	if err != nil {
		return
	}

	if err := h.notificationService.Delete(notificationID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "notification deleted",
	})
}

// MarkAllRead marks every unread notification for a driver
// PUT /api/notifications/driver/:driverId/mark-all-read
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	driverID, err := parseID(c, "driverId")
	if err != nil {
		return
	}

	marked, err := h.notificationService.MarkAllRead(driverID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"marked": marked,
	})
}
