package domain

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("review entry not found")
	ErrAlreadyJudged = errors.New("booking already adjudicated")
	ErrNotReviewable = errors.New("booking is not reviewable")
)

// ReviewEntry is the queue projection a reviewer works from: the booking
// joined with its car, host and account verification state.
type ReviewEntry struct {
	BookingID       string     `json:"booking_id"`
	ReferenceID     string     `json:"reference_id"`
	GuestName       string     `json:"guest_name"`
	GuestEmail      string     `json:"guest_email"`
	GuestPhone      string     `json:"guest_phone"`
	AccountID       *string    `json:"account_id"`
	Verification    *string    `json:"verification_status"`
	CarID           string     `json:"car_id"`
	CarSummary      string     `json:"car_summary"`
	HostID          string     `json:"host_id"`
	HostName        string     `json:"host_name"`
	HostPhone       string     `json:"host_phone"`
	StartDate       time.Time  `json:"start_date"`
	EndDate         time.Time  `json:"end_date"`
	TotalAmount     float64    `json:"total_amount"`
	SecurityDeposit float64    `json:"security_deposit"`
	FleetStatus     string     `json:"fleet_status"`
	PaymentStatus   string     `json:"payment_status"`
	FleetNotes      *string    `json:"fleet_notes"`
	CreatedAt       time.Time  `json:"created_at"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
}

type Stats struct {
	PendingCount         int     `json:"pending_count"`
	NeedsInfoCount       int     `json:"needs_info_count"`
	ApprovedToday        int     `json:"approved_today"`
	RejectedToday        int     `json:"rejected_today"`
	ApprovalRate         float64 `json:"approval_rate"`
	AverageReviewMinutes float64 `json:"average_review_minutes"`
}

type ReviewRepository interface {
	ListPending(ctx context.Context, page, pageSize int) ([]ReviewEntry, int, error)
	GetEntry(ctx context.Context, bookingID string) (*ReviewEntry, error)
	MarkApproved(ctx context.Context, bookingID, reviewerID, notes string) (bool, error)
	MarkRejected(ctx context.Context, bookingID, reviewerID, reason string) (bool, error)
	MarkNeedsInfo(ctx context.Context, bookingID, reviewerID, notes string) (bool, error)
	Stats(ctx context.Context) (*Stats, error)
	CreateEvent(ctx context.Context, bookingID, eventType string, payload interface{}) error
}
