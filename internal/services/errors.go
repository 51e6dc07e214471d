package services

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidStateTransition is returned when a lifecycle operation is
	// attempted against a record whose current status does not permit it
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrForbidden is returned when the caller is not allowed to act on the record
	ErrForbidden = errors.New("forbidden")

	// ErrActiveAlertExists is returned when a driver with an active alert
	// attempts to trigger another
	ErrActiveAlertExists = errors.New("driver already has an active alert")

	// ErrCancelWindowExpired is returned when an alert cancellation arrives
	// after the cancel window has closed
	ErrCancelWindowExpired = errors.New("cancel window has expired")

	// ErrInvalidCredentials is returned on a failed login attempt
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError carries a field-level message for a 400 response
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NewValidationError creates a validation error for a single field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
