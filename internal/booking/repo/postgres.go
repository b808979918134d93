package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"car-rental/internal/booking/domain"
)

type BookingRepo struct {
	db *pgxpool.Pool
}

func NewBookingRepo(db *pgxpool.Pool) *BookingRepo {
	return &BookingRepo{db: db}
}

const bookingColumns = `
	id, reference_id, car_id, host_id, account_id,
	guest_name, guest_email, guest_phone,
	start_date, end_date,
	daily_rate, trip_amount, service_fee, tax_amount, security_deposit, total_amount,
	status, fleet_status, payment_status, payment_intent_ref, payment_fail_reason,
	fleet_reviewed_by, fleet_reviewed_at, fleet_notes,
	cancellation_reason, cancelled_by, created_at`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	b := &domain.Booking{}
	err := row.Scan(
		&b.ID, &b.ReferenceID, &b.CarID, &b.HostID, &b.AccountID,
		&b.GuestContact.Name, &b.GuestContact.Email, &b.GuestContact.Phone,
		&b.StartDate, &b.EndDate,
		&b.DailyRate, &b.TripAmount, &b.ServiceFee, &b.TaxAmount, &b.SecurityDeposit, &b.TotalAmount,
		&b.Status, &b.FleetStatus, &b.PaymentStatus, &b.PaymentIntentRef, &b.PaymentFailReason,
		&b.FleetReviewedBy, &b.FleetReviewedAt, &b.FleetNotes,
		&b.CancellationReason, &b.CancelledBy, &b.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (r *BookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO bookings (
			id, reference_id, car_id, host_id, account_id,
			guest_name, guest_email, guest_phone,
			start_date, end_date,
			daily_rate, trip_amount, service_fee, tax_amount, security_deposit, total_amount,
			status, fleet_status, payment_status, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`,
		b.ID, b.ReferenceID, b.CarID, b.HostID, b.AccountID,
		b.GuestContact.Name, b.GuestContact.Email, b.GuestContact.Phone,
		b.StartDate, b.EndDate,
		b.DailyRate, b.TripAmount, b.ServiceFee, b.TaxAmount, b.SecurityDeposit, b.TotalAmount,
		b.Status, b.FleetStatus, b.PaymentStatus, b.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert booking failed: %w", err)
	}
	return nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
	return scanBooking(row)
}

func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference_id = $1`, ref)
	return scanBooking(row)
}

func (r *BookingRepo) GetCar(ctx context.Context, carID string) (*domain.Car, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, host_id, make, model, year, daily_rate, status
		FROM cars
		WHERE id = $1
	`, carID)

	car := &domain.Car{}
	err := row.Scan(&car.ID, &car.HostID, &car.Make, &car.Model, &car.Year, &car.DailyRate, &car.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return car, nil
}

func (r *BookingRepo) GetHost(ctx context.Context, hostID string) (*domain.Host, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, name, phone, status
		FROM hosts
		WHERE id = $1
	`, hostID)

	host := &domain.Host{}
	err := row.Scan(&host.ID, &host.Name, &host.Phone, &host.Status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return host, nil
}

func (r *BookingRepo) LinkAccount(ctx context.Context, bookingID, accountID string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings SET account_id = $2 WHERE id = $1
	`, bookingID, accountID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// MarkCancelled flips the booking into CANCELLED only while it is still in a
// cancellable state; returns false when another transition won.
func (r *BookingRepo) MarkCancelled(ctx context.Context, bookingID, reason, cancelledBy string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET status = 'CANCELLED',
		    cancellation_reason = $2,
		    cancelled_by = $3
		WHERE id = $1
		  AND status IN ('PENDING_REVIEW', 'CONFIRMED')
		  AND payment_status <> 'PAID'
	`, bookingID, reason, cancelledBy)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *BookingRepo) MarkCompleted(ctx context.Context, bookingID string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET status = 'COMPLETED'
		WHERE id = $1 AND status = 'CONFIRMED'
	`, bookingID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *BookingRepo) CreateEvent(ctx context.Context, bookingID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO booking_events (booking_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3::jsonb, NOW())
	`, bookingID, eventType, data)
	return err
}

// SaveDocuments appends verification documents; at most one per type and
// booking, so a resubmission of the same type is ignored.
func (r *BookingRepo) SaveDocuments(ctx context.Context, bookingID, accountID string, docs []domain.Document) error {
	for _, doc := range docs {
		_, err := r.db.Exec(ctx, `
			INSERT INTO booking_documents (booking_id, account_id, doc_type, url, created_at)
			VALUES ($1, $2, $3, $4, NOW())
			ON CONFLICT (booking_id, doc_type) DO NOTHING
		`, bookingID, accountID, doc.Type, doc.URL)
		if err != nil {
			return fmt.Errorf("insert document %s failed: %w", doc.Type, err)
		}
	}
	return nil
}

// --- payment state transitions (payment.BookingStore) ---

func (r *BookingRepo) PaymentState(ctx context.Context, bookingID string) (string, domain.PaymentStatus, error) {
	var authRef *string
	var status domain.PaymentStatus
	err := r.db.QueryRow(ctx, `
		SELECT payment_intent_ref, payment_status FROM bookings WHERE id = $1
	`, bookingID).Scan(&authRef, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", domain.ErrNotFound
		}
		return "", "", err
	}
	if authRef == nil {
		return "", status, nil
	}
	return *authRef, status, nil
}

func (r *BookingRepo) SetAuthorized(ctx context.Context, bookingID, authRef string) error {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = 'AUTHORIZED', payment_intent_ref = $2, payment_fail_reason = NULL
		WHERE id = $1
	`, bookingID, authRef)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BookingRepo) MarkAuthorizationFailed(ctx context.Context, bookingID, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET status = 'PAYMENT_FAILED', payment_status = 'FAILED', payment_fail_reason = $2
		WHERE id = $1
	`, bookingID, reason)
	return err
}

func (r *BookingRepo) SetCaptureFailed(ctx context.Context, bookingID, reason string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = 'FAILED', payment_fail_reason = $2
		WHERE id = $1
	`, bookingID, reason)
	return err
}

func (r *BookingRepo) SetPaid(ctx context.Context, bookingID, chargeRef string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = 'PAID', payment_intent_ref = $2
		WHERE id = $1
	`, bookingID, chargeRef)
	return err
}

func (r *BookingRepo) SetAuthorizationCancelled(ctx context.Context, bookingID string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET payment_status = 'CANCELLED'
		WHERE id = $1
	`, bookingID)
	return err
}

var _ domain.BookingRepository = (*BookingRepo)(nil)
