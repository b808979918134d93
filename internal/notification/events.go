package notification

import "time"

type BookingReceivedEvent struct {
	BookingID   string `json:"booking_id"`
	BookingCode string `json:"booking_code"`
	GuestName   string `json:"guest_name"`
	GuestPhone  string `json:"guest_phone"`
	CarSummary  string `json:"car_summary"`
	LoginURL    string `json:"login_url,omitempty"`
}

type BookingConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	BookingCode string    `json:"booking_code"`
	GuestID     string    `json:"guest_id"`
	GuestName   string    `json:"guest_name"`
	GuestPhone  string    `json:"guest_phone"`
	HostID      string    `json:"host_id"`
	HostName    string    `json:"host_name"`
	HostPhone   string    `json:"host_phone"`
	CarSummary  string    `json:"car_summary"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
}

type BookingRejectedEvent struct {
	BookingID   string `json:"booking_id"`
	BookingCode string `json:"booking_code"`
	GuestPhone  string `json:"guest_phone"`
	Reason      string `json:"reason"`
}

type DocumentsRequestedEvent struct {
	BookingID       string   `json:"booking_id"`
	BookingCode     string   `json:"booking_code"`
	GuestPhone      string   `json:"guest_phone"`
	DocumentsNeeded []string `json:"documents_needed"`
	Message         string   `json:"message,omitempty"`
}

// BellPairEvent carries one in-app notification each for guest and host.
type BellPairEvent struct {
	BookingID    string `json:"booking_id"`
	GuestID      string `json:"guest_id"`
	HostID       string `json:"host_id"`
	Type         string `json:"type"`
	GuestTitle   string `json:"guest_title"`
	GuestMessage string `json:"guest_message"`
	HostTitle    string `json:"host_title"`
	HostMessage  string `json:"host_message"`
	ActionURL    string `json:"action_url,omitempty"`
	Priority     string `json:"priority"`
}
