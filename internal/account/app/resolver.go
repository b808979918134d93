package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"car-rental/internal/account/domain"
	bdomain "car-rental/internal/booking/domain"
	"car-rental/internal/shared/util"
)

type AccountRepo interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	Create(ctx context.Context, acc *domain.Account) error
}

// DocumentStore persists verification documents against the booking being
// created. Implemented by the booking repo.
type DocumentStore interface {
	SaveDocuments(ctx context.Context, bookingID, accountID string, docs []bdomain.Document) error
}

type Resolver struct {
	repo   AccountRepo
	docs   DocumentStore
	logger *util.Logger
}

func NewResolver(repo AccountRepo, docs DocumentStore, logger *util.Logger) *Resolver {
	return &Resolver{repo: repo, docs: docs, logger: logger}
}

type ResolveInput struct {
	Contact      bdomain.GuestContact
	BookingID    string
	Documents    []bdomain.Document
	Verification domain.AIVerification
}

type ResolveResult struct {
	AccountID string
	IsNew     bool
}

// ResolveOrCreate maps the submitted contact info to a durable account.
// Resolving an existing email never mutates identity fields. Creation is
// race-safe: a unique-constraint loss means someone else won, so the
// winner's account is fetched and returned instead of an error.
func (r *Resolver) ResolveOrCreate(ctx context.Context, in ResolveInput) (*ResolveResult, error) {
	instance := "AccountResolver.ResolveOrCreate"
	email := strings.ToLower(strings.TrimSpace(in.Contact.Email))

	existing, err := r.repo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}
	if existing != nil {
		r.logger.Info(instance, fmt.Sprintf("existing account resolved [account_id=%s]", existing.ID))
		return &ResolveResult{AccountID: existing.ID, IsNew: false}, nil
	}

	status := domain.VerificationPending
	if in.Verification.Result == domain.AIVerified {
		status = domain.VerificationAIVerified
	}

	acc := &domain.Account{
		ID:                 uuid.NewString(),
		Email:              email,
		Phone:              in.Contact.Phone,
		Name:               in.Contact.Name,
		VerificationStatus: status,
		Source:             "booking-flow",
		CreatedAt:          time.Now().UTC(),
	}

	if err := r.repo.Create(ctx, acc); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			// concurrent winner, re-fetch
			winner, fetchErr := r.repo.GetByEmail(ctx, email)
			if fetchErr != nil {
				return nil, fmt.Errorf("failed to re-fetch account after race: %w", fetchErr)
			}
			r.logger.Warn(instance, fmt.Sprintf("lost creation race for %s, reusing account %s", email, winner.ID))
			return &ResolveResult{AccountID: winner.ID, IsNew: false}, nil
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if len(in.Documents) > 0 && in.BookingID != "" {
		if err := r.docs.SaveDocuments(ctx, in.BookingID, acc.ID, in.Documents); err != nil {
			// documents can be re-submitted later, the account itself is good
			r.logger.Warn(instance, fmt.Sprintf("failed to store documents for booking %s: %v", in.BookingID, err))
		}
	}

	r.logger.OK(instance, fmt.Sprintf("account created [account_id=%s, verification=%s]", acc.ID, status))
	return &ResolveResult{AccountID: acc.ID, IsNew: true}, nil
}

// GetByEmail exposes account lookup for the auto-login flow.
func (r *Resolver) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
}
