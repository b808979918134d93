package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"car-rental/internal/fleet/domain"
)

type ReviewRepo struct {
	db *pgxpool.Pool
}

func NewReviewRepo(db *pgxpool.Pool) *ReviewRepo {
	return &ReviewRepo{db: db}
}

const entryColumns = `
	b.id, b.reference_id,
	b.guest_name, b.guest_email, b.guest_phone,
	b.account_id, a.verification_status,
	b.car_id, c.make || ' ' || c.model || ' ' || c.year AS car_summary,
	b.host_id, h.name, h.phone,
	b.start_date, b.end_date,
	b.total_amount, b.security_deposit,
	b.fleet_status, b.payment_status, b.fleet_notes,
	b.created_at, b.fleet_reviewed_at`

const entryJoins = `
	FROM bookings b
	JOIN cars c ON c.id = b.car_id
	JOIN hosts h ON h.id = b.host_id
	LEFT JOIN accounts a ON a.id = b.account_id`

func scanEntry(row pgx.Row) (*domain.ReviewEntry, error) {
	e := &domain.ReviewEntry{}
	err := row.Scan(
		&e.BookingID, &e.ReferenceID,
		&e.GuestName, &e.GuestEmail, &e.GuestPhone,
		&e.AccountID, &e.Verification,
		&e.CarID, &e.CarSummary,
		&e.HostID, &e.HostName, &e.HostPhone,
		&e.StartDate, &e.EndDate,
		&e.TotalAmount, &e.SecurityDeposit,
		&e.FleetStatus, &e.PaymentStatus, &e.FleetNotes,
		&e.CreatedAt, &e.ReviewedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

// ListPending returns the review queue oldest-first. Only PENDING bookings
// with an authorized hold are listed; failed payments never reach a reviewer
// and parked NEEDS_INFO entries stay out until adjudicated.
func (r *ReviewRepo) ListPending(ctx context.Context, page, pageSize int) ([]domain.ReviewEntry, int, error) {
	offset := (page - 1) * pageSize

	var totalCount int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM bookings
		WHERE fleet_status = 'PENDING'
		AND payment_status = 'AUTHORIZED'
	`).Scan(&totalCount)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+entryColumns+entryJoins+`
		WHERE b.fleet_status = 'PENDING'
		AND b.payment_status = 'AUTHORIZED'
		ORDER BY b.created_at ASC
		LIMIT $1 OFFSET $2
	`, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	entries := []domain.ReviewEntry{}
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *entry)
	}
	return entries, totalCount, rows.Err()
}

func (r *ReviewRepo) GetEntry(ctx context.Context, bookingID string) (*domain.ReviewEntry, error) {
	row := r.db.QueryRow(ctx, `SELECT `+entryColumns+entryJoins+` WHERE b.id = $1`, bookingID)
	return scanEntry(row)
}

// MarkApproved confirms the booking only while it still awaits review with a
// live hold; returns false when another reviewer or a cancellation won.
func (r *ReviewRepo) MarkApproved(ctx context.Context, bookingID, reviewerID, notes string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET fleet_status = 'APPROVED',
		    status = 'CONFIRMED',
		    fleet_reviewed_by = $2,
		    fleet_reviewed_at = NOW(),
		    fleet_notes = NULLIF($3, '')
		WHERE id = $1
		  AND fleet_status = 'PENDING'
		  AND payment_status = 'AUTHORIZED'
		  AND status = 'PENDING_REVIEW'
	`, bookingID, reviewerID, notes)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ReviewRepo) MarkRejected(ctx context.Context, bookingID, reviewerID, reason string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET fleet_status = 'REJECTED',
		    status = 'CANCELLED',
		    fleet_reviewed_by = $2,
		    fleet_reviewed_at = NOW(),
		    cancellation_reason = $3,
		    cancelled_by = 'SYSTEM'
		WHERE id = $1
		  AND fleet_status IN ('PENDING', 'NEEDS_INFO')
		  AND payment_status = 'AUTHORIZED'
		  AND status = 'PENDING_REVIEW'
	`, bookingID, reviewerID, reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

// MarkNeedsInfo parks the entry; it can only be rejected from there, never
// approved until documents arrive through a fresh review cycle.
func (r *ReviewRepo) MarkNeedsInfo(ctx context.Context, bookingID, reviewerID, notes string) (bool, error) {
	cmd, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET fleet_status = 'NEEDS_INFO',
		    fleet_reviewed_by = $2,
		    fleet_reviewed_at = NOW(),
		    fleet_notes = NULLIF($3, '')
		WHERE id = $1
		  AND fleet_status = 'PENDING'
		  AND status = 'PENDING_REVIEW'
	`, bookingID, reviewerID, notes)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *ReviewRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	stats := &domain.Stats{}

	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE fleet_status = 'PENDING' AND payment_status = 'AUTHORIZED'),
			COUNT(*) FILTER (WHERE fleet_status = 'NEEDS_INFO')
		FROM bookings
	`).Scan(&stats.PendingCount, &stats.NeedsInfoCount)
	if err != nil {
		return nil, err
	}

	var approvedToday, rejectedToday int
	err = r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE fleet_status = 'APPROVED'),
			COUNT(*) FILTER (WHERE fleet_status = 'REJECTED')
		FROM bookings
		WHERE DATE(fleet_reviewed_at) = CURRENT_DATE
	`).Scan(&approvedToday, &rejectedToday)
	if err != nil {
		return nil, err
	}
	stats.ApprovedToday = approvedToday
	stats.RejectedToday = rejectedToday
	if approvedToday+rejectedToday > 0 {
		stats.ApprovalRate = float64(approvedToday) / float64(approvedToday+rejectedToday)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (fleet_reviewed_at - created_at))/60), 0)
		FROM bookings
		WHERE fleet_reviewed_at IS NOT NULL
		AND DATE(fleet_reviewed_at) = CURRENT_DATE
	`).Scan(&stats.AverageReviewMinutes)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ReviewRepo) CreateEvent(ctx context.Context, bookingID, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO booking_events (booking_id, event_type, event_data, created_at)
		VALUES ($1, $2, $3::jsonb, NOW())
	`, bookingID, eventType, data)
	if err != nil {
		return fmt.Errorf("insert booking event failed: %w", err)
	}
	return nil
}

var _ domain.ReviewRepository = (*ReviewRepo)(nil)
