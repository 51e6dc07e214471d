package validator

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyPhone indicates phone number is empty
	ErrEmptyPhone = errors.New("phone number cannot be empty")

	// ErrInvalidLength indicates phone number length is not 10 digits
	ErrInvalidLength = errors.New("phone number must be exactly 10 digits")

	// ErrInvalidFormat indicates phone number contains invalid characters
	ErrInvalidFormat = errors.New("phone number can only contain digits")

	// ErrInvalidPrefix indicates phone number doesn't start with a valid South African mobile prefix
	ErrInvalidPrefix = errors.New("phone number must start with 06, 07 or 08")
)

// validPrefixes contains the South African mobile number ranges
var validPrefixes = []string{
	"06", // Telkom / MTN
	"07", // Vodacom / Cell C / MTN
	"08", // Vodacom / MTN
}

// phoneRegex matches digits only
var phoneRegex = regexp.MustCompile(`^\d+$`)

// PhoneValidator handles phone number validation
type PhoneValidator struct{}

// NewPhoneValidator creates a new phone validator instance
func NewPhoneValidator() *PhoneValidator {
	return &PhoneValidator{}
}

// Validate validates a South African mobile number.
// Accepts formats: 0821234567, 082 123 4567, 082-123-4567, +27821234567
func (v *PhoneValidator) Validate(phone string) error {
	if phone == "" {
		return ErrEmptyPhone
	}

	normalized := v.Normalize(phone)

	if !phoneRegex.MatchString(normalized) {
		return ErrInvalidFormat
	}

	if len(normalized) != 10 {
		return ErrInvalidLength
	}

	for _, prefix := range validPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return nil
		}
	}

	return ErrInvalidPrefix
}

// Normalize strips spaces, dashes and the +27 country code, returning the
// local 0-prefixed form.
func (v *PhoneValidator) Normalize(phone string) string {
	normalized := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)

	if strings.HasPrefix(normalized, "+27") {
		normalized = "0" + normalized[3:]
	} else if strings.HasPrefix(normalized, "27") && len(normalized) == 11 {
		normalized = "0" + normalized[2:]
	}

	return normalized
}

// MustValidate validates and returns the normalized number or an error
func (v *PhoneValidator) MustValidate(phone string) (string, error) {
	if err := v.Validate(phone); err != nil {
		return "", fmt.Errorf("invalid phone number %q: %w", phone, err)
	}
	return v.Normalize(phone), nil
}
