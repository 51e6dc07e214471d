package notify

import (
	"context"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// Delivery outcomes for a single recipient
const (
	DeliveryStatusSent    = "sent"
	DeliveryStatusFailed  = "failed"
	DeliveryStatusTimeout = "timeout"
)

// Fan-out outcomes across all recipients
const (
	FanOutStatusSent    = "sent"
	FanOutStatusPartial = "partial"
	FanOutStatusFailed  = "failed"
	FanOutStatusSkipped = "skipped"
)

// DeliveryReceipt records the outcome of one SMS delivery attempt
type DeliveryReceipt struct {
	ContactID   int64     `json:"contact_id"`
	ContactName string    `json:"contact_name"`
	Phone       string    `json:"phone"`
	Status      string    `json:"status"`
	Error       string    `json:"error,omitempty"`
	BatchID     int64     `json:"batch_id,omitempty"`
	AttemptedAt time.Time `json:"attempted_at"`
}

// FanOutResult summarizes a panic alert fan-out
type FanOutResult struct {
	Status   string            `json:"status"`
	Receipts []DeliveryReceipt `json:"receipts"`
}

// Reached returns the names of contacts that were successfully notified
func (r *FanOutResult) Reached() []string {
	reached := []string{}
	for _, receipt := range r.Receipts {
		if receipt.Status == DeliveryStatusSent {
			reached = append(reached, receipt.ContactName)
		}
	}
	return reached
}

// AlertNotifier fans a panic alert out to a driver's emergency contacts
type AlertNotifier interface {
	NotifyPanic(ctx context.Context, driver *models.Driver, alert *models.PanicAlert, contacts []models.EmergencyContact) *FanOutResult
}
