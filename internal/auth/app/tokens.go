package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"time"

	"car-rental/internal/auth/domain"
	"car-rental/internal/shared/util"
	"car-rental/internal/shared/validation"
)

// TokenTTL is how long an auto-login token stays redeemable.
const TokenTTL = 72 * time.Hour

type TokenRepo interface {
	Save(ctx context.Context, t *domain.AutoLoginToken) error
	Find(ctx context.Context, token string) (*domain.AutoLoginToken, error)
	// Consume removes the token and returns it in one atomic operation;
	// returns ErrTokenInvalid when no live token matched.
	Consume(ctx context.Context, token string, now time.Time) (*domain.AutoLoginToken, error)
	Delete(ctx context.Context, token string) error
}

type TokenService struct {
	repo   TokenRepo
	logger *util.Logger
}

func NewTokenService(repo TokenRepo, logger *util.Logger) *TokenService {
	return &TokenService{repo: repo, logger: logger}
}

// Issue mints a single-use token for the booking's account.
func (s *TokenService) Issue(ctx context.Context, bookingID, accountID string) (string, time.Time, error) {
	instance := "TokenService.Issue"

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate token: %w", err)
	}
	token := hex.EncodeToString(buf)
	expiresAt := time.Now().UTC().Add(TokenTTL)

	t := &domain.AutoLoginToken{
		Token:     token,
		BookingID: bookingID,
		AccountID: accountID,
		CreatedAt: time.Now().UTC(),
		ExpiresAt: expiresAt,
	}
	if err := s.repo.Save(ctx, t); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to save token: %w", err)
	}

	s.logger.OK(instance, fmt.Sprintf("auto-login token issued [booking_id=%s, expires_at=%s]", bookingID, expiresAt.Format(time.RFC3339)))
	return token, expiresAt, nil
}

// Validate checks a token without consuming it. Expired tokens are cleared
// on the spot rather than waiting for a background sweep.
func (s *TokenService) Validate(ctx context.Context, token string) (*domain.AutoLoginToken, error) {
	if err := validation.ValidateAutoLoginToken(token); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	t, err := s.repo.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		if delErr := s.repo.Delete(ctx, token); delErr != nil {
			s.logger.Warn("TokenService.Validate", fmt.Sprintf("failed to clear expired token: %v", delErr))
		}
		return nil, domain.ErrTokenExpired
	}
	return t, nil
}

// Consume validates and invalidates in one atomic storage operation, so of
// two concurrent redemptions exactly one succeeds.
func (s *TokenService) Consume(ctx context.Context, token string) (*domain.AutoLoginToken, error) {
	instance := "TokenService.Consume"

	if err := validation.ValidateAutoLoginToken(token); err != nil {
		return nil, domain.ErrTokenInvalid
	}

	t, err := s.repo.Consume(ctx, token, time.Now().UTC())
	if err != nil {
		// transient storage failures must not trigger the cleanup below,
		// or a live token would be deleted and misreported as expired
		if !errors.Is(err, domain.ErrTokenInvalid) {
			return nil, err
		}
		// still present means only the expiry guard blocked the delete
		if _, findErr := s.repo.Find(ctx, token); findErr == nil {
			if delErr := s.repo.Delete(ctx, token); delErr != nil {
				s.logger.Warn(instance, fmt.Sprintf("failed to clear expired token: %v", delErr))
			}
			return nil, domain.ErrTokenExpired
		}
		return nil, err
	}

	s.logger.OK(instance, fmt.Sprintf("token consumed [booking_id=%s, account_id=%s]", t.BookingID, t.AccountID))
	return t, nil
}

// LoginURL builds the delivery URL embedded in SMS/email.
func LoginURL(baseURL, token, bookingID string) string {
	return fmt.Sprintf("%s/auth/auto-login?token=%s&booking=%s", baseURL, url.QueryEscape(token), url.QueryEscape(bookingID))
}
