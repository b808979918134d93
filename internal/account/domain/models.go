package domain

import (
	"errors"
	"time"
)

type VerificationStatus string

const (
	VerificationPending    VerificationStatus = "PENDING"
	VerificationAIVerified VerificationStatus = "AI_VERIFIED"
)

// Account is the durable guest identity, keyed by unique email.
type Account struct {
	ID                 string
	Email              string
	Phone              string
	Name               string
	VerificationStatus VerificationStatus
	Source             string
	CreatedAt          time.Time
}

type AIResult int

const (
	AINotAttempted AIResult = iota
	AIRejected
	AIVerified
)

// AIVerification is the outcome reported by the upstream document
// validator, carried as a tagged value instead of a loose JSON blob.
type AIVerification struct {
	Result     AIResult
	Confidence float64
}

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrEmailTaken      = errors.New("email already registered")
)
