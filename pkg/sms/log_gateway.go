package sms

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// LogGateway is a development-mode gateway that logs messages instead of
// sending them. Used when SMS_MODE=dev so local runs never hit the provider.
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a gateway that only logs
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// GetName returns the gateway implementation name
func (g *LogGateway) GetName() string {
	return "log"
}

// SendMessage logs the message and reports success
func (g *LogGateway) SendMessage(_ context.Context, phone, message string) (int64, error) {
	g.logger.WithFields(logrus.Fields{
		"gateway": "log",
		"phone":   phone,
	}).Infof("SMS (dev mode): %s", message)
	return time.Now().UnixMicro(), nil
}
