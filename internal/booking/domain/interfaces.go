package domain

import "context"

type BookingRepository interface {
	Create(ctx context.Context, b *Booking) error
	GetByID(ctx context.Context, id string) (*Booking, error)
	GetByReference(ctx context.Context, ref string) (*Booking, error)
	GetCar(ctx context.Context, carID string) (*Car, error)
	GetHost(ctx context.Context, hostID string) (*Host, error)
	LinkAccount(ctx context.Context, bookingID, accountID string) error
	MarkCancelled(ctx context.Context, bookingID, reason, cancelledBy string) (bool, error)
	MarkCompleted(ctx context.Context, bookingID string) (bool, error)
	CreateEvent(ctx context.Context, bookingID, eventType string, payload interface{}) error
}
