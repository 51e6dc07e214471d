package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

type notificationRepository interface {
	Create(n *models.Notification) error
	ListByDriver(driverID int64, unreadOnly bool) ([]models.Notification, error)
	MarkRead(id int64, driverID int64) error
	MarkAllRead(driverID int64) (int64, error)
	CountUnread(driverID int64) (int64, error)
	Delete(id int64) error
}

// NotificationService manages in-app notifications for drivers
type NotificationService struct {
	notifications notificationRepository
	logger        *logrus.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(notifications notificationRepository, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		logger:        logger,
	}
}

// Send creates an in-app notification for a driver
func (s *NotificationService) Send(driverID int64, notificationType, title, message, priority string) (*models.Notification, error) {
	if title == "" || message == "" {
		return nil, NewValidationError("message", "title and message are required")
	}
	if priority == "" {
		priority = models.NotificationPriorityMedium
	}

	n := &models.Notification{
		DriverID: driverID,
		Type:     notificationType,
		Title:    title,
		Message:  message,
		Priority: priority,
	}

	if err := s.notifications.Create(n); err != nil {
		if errors.Is(err, database.ErrRestricted) {
			return nil, fmt.Errorf("driver %d: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to send notification: %w", err)
	}

	return n, nil
}

// ListByDriver returns a driver's notifications
func (s *NotificationService) ListByDriver(driverID int64, unreadOnly bool) ([]models.Notification, error) {
	return s.notifications.ListByDriver(driverID, unreadOnly)
}

// MarkRead marks a single notification as read for the owning driver
func (s *NotificationService) MarkRead(notificationID, driverID int64) error {
	if err := s.notifications.MarkRead(notificationID, driverID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
		return err
	}
	return nil
}

// MarkAllRead marks every unread notification for a driver
func (s *NotificationService) MarkAllRead(driverID int64) (int64, error) {
	return s.notifications.MarkAllRead(driverID)
}

// Delete removes a notification
func (s *NotificationService) Delete(notificationID int64) error {
	if err := s.notifications.Delete(notificationID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("notification %d: %w", notificationID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	return nil
}

// CountUnread returns the driver's unread badge count
func (s *NotificationService) CountUnread(driverID int64) (int64, error) {
	return s.notifications.CountUnread(driverID)
}
