package sms

import "context"

// Gateway defines the interface for sending SMS messages
type Gateway interface {
	// SendMessage sends a text message to a single phone number.
	// Returns a gateway transaction ID and an error if the send failed.
	SendMessage(ctx context.Context, phone, message string) (int64, error)

	// GetName returns the name of the SMS gateway implementation
	GetName() string
}
