package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"car-rental/internal/account/domain"
)

type AccountRepo struct {
	db *pgxpool.Pool
}

func NewAccountRepo(db *pgxpool.Pool) *AccountRepo {
	return &AccountRepo{db: db}
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, phone, name, verification_status, source, created_at
		FROM accounts
		WHERE email = $1
	`, email)

	acc := &domain.Account{}
	err := row.Scan(&acc.ID, &acc.Email, &acc.Phone, &acc.Name, &acc.VerificationStatus, &acc.Source, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, email, phone, name, verification_status, source, created_at
		FROM accounts
		WHERE id = $1
	`, id)

	acc := &domain.Account{}
	err := row.Scan(&acc.ID, &acc.Email, &acc.Phone, &acc.Name, &acc.VerificationStatus, &acc.Source, &acc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return acc, nil
}

func (r *AccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO accounts (id, email, phone, name, verification_status, source, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, acc.ID, acc.Email, acc.Phone, acc.Name, acc.VerificationStatus, acc.Source, acc.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("insert account failed: %w", err)
	}
	return nil
}
