package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/config"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/sms"
)

// SMSDispatcher delivers panic alert SMS messages to emergency contacts.
// Recipients are messaged in parallel; each send gets its own timeout and the
// whole fan-out runs under a total budget so a stalled gateway cannot hold an
// alert open.
type SMSDispatcher struct {
	gateway sms.Gateway
	logger  *logrus.Logger

	recipientTimeout time.Duration
	fanOutBudget     time.Duration
}

// NewSMSDispatcher creates a new SMS dispatcher
func NewSMSDispatcher(gateway sms.Gateway, logger *logrus.Logger, cfg config.AlertConfig) *SMSDispatcher {
	return &SMSDispatcher{
		gateway:          gateway,
		logger:           logger,
		recipientTimeout: cfg.RecipientTimeout,
		fanOutBudget:     cfg.FanOutBudget,
	}
}

// NotifyPanic sends the alert message to every contact and collects a receipt
// per recipient. The alert itself is already persisted; delivery failures
// degrade the fan-out status, never the alert.
func (d *SMSDispatcher) NotifyPanic(ctx context.Context, driver *models.Driver, alert *models.PanicAlert, contacts []models.EmergencyContact) *FanOutResult {
	if len(contacts) == 0 {
		d.logger.WithField("alert_id", alert.ID).Warn("No panic recipients configured for driver")
		return &FanOutResult{Status: FanOutStatusSkipped, Receipts: []DeliveryReceipt{}}
	}

	ctx, cancel := context.WithTimeout(ctx, d.fanOutBudget)
	defer cancel()

	message := buildPanicMessage(driver, alert)

	receipts := make([]DeliveryReceipt, len(contacts))
	var wg sync.WaitGroup
	for i, contact := range contacts {
		wg.Add(1)
		go func(i int, contact models.EmergencyContact) {
			defer wg.Done()
			receipts[i] = d.sendOne(ctx, contact, message)
		}(i, contact)
	}
	wg.Wait()

	result := &FanOutResult{Receipts: receipts}
	sent := 0
	for _, receipt := range receipts {
		if receipt.Status == DeliveryStatusSent {
			sent++
		}
	}

	switch {
	case sent == len(receipts):
		result.Status = FanOutStatusSent
	case sent > 0:
		result.Status = FanOutStatusPartial
	default:
		result.Status = FanOutStatusFailed
	}

	d.logger.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"driver_id":  driver.ID,
		"recipients": len(receipts),
		"sent":       sent,
		"status":     result.Status,
	}).Info("Panic alert fan-out completed")

	return result
}

func (d *SMSDispatcher) sendOne(ctx context.Context, contact models.EmergencyContact, message string) DeliveryReceipt {
	receipt := DeliveryReceipt{
		ContactID:   contact.ID,
		ContactName: contact.Name + " " + contact.Surname,
		Phone:       contact.Phone,
		AttemptedAt: time.Now(),
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.recipientTimeout)
	defer cancel()

	batchID, err := d.gateway.SendMessage(sendCtx, contact.Phone, message)
	if err != nil {
		if sendCtx.Err() != nil {
			receipt.Status = DeliveryStatusTimeout
		} else {
			receipt.Status = DeliveryStatusFailed
		}
		receipt.Error = err.Error()
		d.logger.WithError(err).WithFields(logrus.Fields{
			"contact_id": contact.ID,
			"phone":      contact.Phone,
		}).Error("Failed to deliver panic SMS")
		return receipt
	}

	receipt.Status = DeliveryStatusSent
	receipt.BatchID = batchID
	return receipt
}

func buildPanicMessage(driver *models.Driver, alert *models.PanicAlert) string {
	location := alert.Location.String
	if location == "" {
		location = fmt.Sprintf("%.4f, %.4f", alert.Latitude, alert.Longitude)
	}

	return fmt.Sprintf(
		"EMERGENCY: %s %s has triggered a %s alert at %s (%s). Map: https://maps.google.com/?q=%.6f,%.6f",
		driver.Name,
		driver.Surname,
		alert.AlertType,
		location,
		alert.TriggeredAt.Format("15:04"),
		alert.Latitude,
		alert.Longitude,
	)
}
