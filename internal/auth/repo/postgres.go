package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"car-rental/internal/auth/domain"
)

type TokenRepo struct {
	db *pgxpool.Pool
}

func NewTokenRepo(db *pgxpool.Pool) *TokenRepo {
	return &TokenRepo{db: db}
}

func (r *TokenRepo) Save(ctx context.Context, t *domain.AutoLoginToken) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO auto_login_tokens (token, booking_id, account_id, created_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`, t.Token, t.BookingID, t.AccountID, t.CreatedAt, t.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert token failed: %w", err)
	}
	return nil
}

func (r *TokenRepo) Find(ctx context.Context, token string) (*domain.AutoLoginToken, error) {
	row := r.db.QueryRow(ctx, `
		SELECT token, booking_id, account_id, created_at, expires_at
		FROM auto_login_tokens
		WHERE token = $1
	`, token)

	t := &domain.AutoLoginToken{}
	err := row.Scan(&t.Token, &t.BookingID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return t, nil
}

// Consume is the atomic check-and-clear: the DELETE only matches a live
// token, and RETURNING hands back what was cleared.
func (r *TokenRepo) Consume(ctx context.Context, token string, now time.Time) (*domain.AutoLoginToken, error) {
	row := r.db.QueryRow(ctx, `
		DELETE FROM auto_login_tokens
		WHERE token = $1 AND expires_at > $2
		RETURNING token, booking_id, account_id, created_at, expires_at
	`, token, now)

	t := &domain.AutoLoginToken{}
	err := row.Scan(&t.Token, &t.BookingID, &t.AccountID, &t.CreatedAt, &t.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return t, nil
}

func (r *TokenRepo) Delete(ctx context.Context, token string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM auto_login_tokens WHERE token = $1`, token)
	return err
}
