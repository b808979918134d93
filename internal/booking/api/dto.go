package api

import (
	"time"

	"car-rental/internal/booking/domain"
)

type CreateBookingRequest struct {
	CarID           string  `json:"car_id"`
	StartDate       string  `json:"start_date"`
	EndDate         string  `json:"end_date"`
	DailyRate       float64 `json:"daily_rate"`
	TripAmount      float64 `json:"trip_amount"`
	ServiceFee      float64 `json:"service_fee"`
	TaxAmount       float64 `json:"tax_amount"`
	SecurityDeposit float64 `json:"security_deposit"`
	TotalAmount     float64 `json:"total_amount"`

	GuestName  string `json:"guest_name"`
	GuestEmail string `json:"guest_email"`
	GuestPhone string `json:"guest_phone"`

	PaymentCustomerRef string `json:"payment_customer_ref,omitempty"`
	PaymentMethodRef   string `json:"payment_method_ref,omitempty"`

	LicenseFrontURL string `json:"license_front_url,omitempty"`
	LicenseBackURL  string `json:"license_back_url,omitempty"`
	SelfieURL       string `json:"selfie_url,omitempty"`

	AIVerification *AIVerificationDTO `json:"ai_verification,omitempty"`
}

type AIVerificationDTO struct {
	IsValid    bool    `json:"is_valid"`
	Confidence float64 `json:"confidence"`
}

type CreateBookingResponse struct {
	BookingID   string `json:"booking_id"`
	ReferenceID string `json:"reference_id"`
	AccountID   string `json:"account_id,omitempty"`
	PaymentRef  string `json:"payment_ref,omitempty"`
	AuthToken   string `json:"auth_token,omitempty"`
	LoginURL    string `json:"login_url,omitempty"`
	Warning     string `json:"warning,omitempty"`
}

type BookingResponse struct {
	BookingID       string    `json:"booking_id"`
	ReferenceID     string    `json:"reference_id"`
	CarID           string    `json:"car_id"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalAmount     float64   `json:"total_amount"`
	SecurityDeposit float64   `json:"security_deposit"`
	Status          string    `json:"status"`
	FleetStatus     string    `json:"fleet_status"`
	PaymentStatus   string    `json:"payment_status"`
	CreatedAt       time.Time `json:"created_at"`
}

func toBookingResponse(b *domain.Booking) BookingResponse {
	return BookingResponse{
		BookingID:       b.ID,
		ReferenceID:     b.ReferenceID,
		CarID:           b.CarID,
		StartDate:       b.StartDate,
		EndDate:         b.EndDate,
		TotalAmount:     b.TotalAmount,
		SecurityDeposit: b.SecurityDeposit,
		Status:          string(b.Status),
		FleetStatus:     string(b.FleetStatus),
		PaymentStatus:   string(b.PaymentStatus),
		CreatedAt:       b.CreatedAt,
	}
}
