package domain

import (
	"errors"
	"time"
)

// AutoLoginToken grants a freshly bootstrapped guest immediate dashboard
// access without a password step. Single-use, bound to one booking.
type AutoLoginToken struct {
	Token     string
	BookingID string
	AccountID string
	CreatedAt time.Time
	ExpiresAt time.Time
}

var (
	ErrTokenInvalid = errors.New("invalid or already used token")
	ErrTokenExpired = errors.New("token expired")
)
