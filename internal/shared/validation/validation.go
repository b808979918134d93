package validation

import (
	"errors"
	"fmt"
	"regexp"
	"time"
)

var (
	uuidRegex  = regexp.MustCompile(`^[a-fA-F0-9]{8}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{4}-[a-fA-F0-9]{12}$`)
	emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	refRegex   = regexp.MustCompile(`^BK-[A-Z0-9]{6}$`)
	tokenRegex = regexp.MustCompile(`^[a-f0-9]{64}$`)
)

// ValidateUUID validates that a string is a valid UUID
func ValidateUUID(id string) error {
	if !uuidRegex.MatchString(id) {
		return errors.New("invalid UUID format")
	}
	return nil
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidateBookingReference validates the human-readable BK-XXXXXX code.
func ValidateBookingReference(ref string) error {
	if !refRegex.MatchString(ref) {
		return errors.New("invalid booking reference format")
	}
	return nil
}

// ValidateAutoLoginToken rejects obviously malformed tokens before they
// reach storage.
func ValidateAutoLoginToken(token string) error {
	if !tokenRegex.MatchString(token) {
		return errors.New("invalid token format")
	}
	return nil
}

// ValidateDateRange checks that the range is well ordered and that pickup
// is strictly in the future.
func ValidateDateRange(start, end, now time.Time) error {
	if start.IsZero() || end.IsZero() {
		return errors.New("start and end dates are required")
	}
	if !end.After(start) {
		return errors.New("end date must be after start date")
	}
	if !start.After(now) {
		return errors.New("start date must be in the future")
	}
	return nil
}

// ValidatePositiveAmount validates that a money amount is positive
func ValidatePositiveAmount(value float64, fieldName string) error {
	if value <= 0 {
		return fmt.Errorf("%s must be positive", fieldName)
	}
	return nil
}

// ValidateNonNegativeAmount validates that a money amount is non-negative
func ValidateNonNegativeAmount(value float64, fieldName string) error {
	if value < 0 {
		return fmt.Errorf("%s must be non-negative", fieldName)
	}
	return nil
}

// ValidateStringNotEmpty validates that a string is not empty
func ValidateStringNotEmpty(value, fieldName string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}
