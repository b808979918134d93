package domain

import "errors"

var (
	ErrValidation           = errors.New("validation failed")
	ErrNotFound             = errors.New("not found")
	ErrUnavailable          = errors.New("not available for booking")
	ErrConflict             = errors.New("booking state changed concurrently")
	ErrAccountCreation      = errors.New("account setup failed")
	ErrPaymentAuthorization = errors.New("payment authorization failed")
	ErrPaymentCapture       = errors.New("payment capture failed")
	ErrInvalidStatus        = errors.New("invalid booking status")
	ErrForbidden            = errors.New("forbidden action")
	ErrDuplicateReference   = errors.New("booking reference already exists")
)
