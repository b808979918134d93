package domain

import "time"

type BookingStatus string

const (
	StatusPendingReview BookingStatus = "PENDING_REVIEW"
	StatusConfirmed     BookingStatus = "CONFIRMED"
	StatusPaymentFailed BookingStatus = "PAYMENT_FAILED"
	StatusCancelled     BookingStatus = "CANCELLED"
	StatusCompleted     BookingStatus = "COMPLETED"
)

type FleetStatus string

const (
	FleetPending   FleetStatus = "PENDING"
	FleetApproved  FleetStatus = "APPROVED"
	FleetRejected  FleetStatus = "REJECTED"
	FleetNeedsInfo FleetStatus = "NEEDS_INFO"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentAuthorized PaymentStatus = "AUTHORIZED"
	PaymentPaid       PaymentStatus = "PAID"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

type GuestContact struct {
	Name  string
	Email string
	Phone string
}

type Booking struct {
	ID                 string
	ReferenceID        string
	CarID              string
	HostID             string
	AccountID          *string
	GuestContact       GuestContact
	StartDate          time.Time
	EndDate            time.Time
	DailyRate          float64
	TripAmount         float64
	ServiceFee         float64
	TaxAmount          float64
	SecurityDeposit    float64
	TotalAmount        float64
	Status             BookingStatus
	FleetStatus        FleetStatus
	PaymentStatus      PaymentStatus
	PaymentIntentRef   *string
	PaymentFailReason  *string
	FleetReviewedBy    *string
	FleetReviewedAt    *time.Time
	FleetNotes         *string
	CancellationReason *string
	CancelledBy        *string
	CreatedAt          time.Time
}

type Car struct {
	ID        string
	HostID    string
	Make      string
	Model     string
	Year      int
	DailyRate float64
	Status    string
}

type Host struct {
	ID     string
	Name   string
	Phone  string
	Status string
}

type DocumentType string

const (
	DocLicenseFront DocumentType = "LICENSE_FRONT"
	DocLicenseBack  DocumentType = "LICENSE_BACK"
	DocSelfie       DocumentType = "SELFIE"
)

// Document is an evidence attachment referenced by URL only; upload mechanics
// live outside this core.
type Document struct {
	Type DocumentType
	URL  string
}
