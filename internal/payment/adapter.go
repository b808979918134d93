package payment

import (
	"context"
	"fmt"

	"car-rental/internal/booking/domain"
	"car-rental/internal/shared/util"
)

// BookingStore is the slice of booking persistence the adapter needs to
// record payment state transitions. Implemented by the booking repo.
type BookingStore interface {
	PaymentState(ctx context.Context, bookingID string) (authRef string, status domain.PaymentStatus, err error)
	SetAuthorized(ctx context.Context, bookingID, authRef string) error
	MarkAuthorizationFailed(ctx context.Context, bookingID, reason string) error
	SetCaptureFailed(ctx context.Context, bookingID, reason string) error
	SetPaid(ctx context.Context, bookingID, chargeRef string) error
	SetAuthorizationCancelled(ctx context.Context, bookingID string) error
}

// Adapter is the orchestration-facing face of the gateway: it keys every
// operation by booking id and keeps the booking's payment fields in step
// with what the gateway confirmed.
type Adapter struct {
	gw       Gateway
	store    BookingStore
	logger   *util.Logger
	currency string
}

func NewAdapter(gw Gateway, store BookingStore, logger *util.Logger, currency string) *Adapter {
	return &Adapter{gw: gw, store: store, logger: logger, currency: currency}
}

// Authorize places a manual-capture hold for trip amount plus deposit.
// AUTHORIZED is persisted only after the gateway confirms; a failed persist
// releases the hold again so no authorization is left dangling.
func (a *Adapter) Authorize(ctx context.Context, bookingID string, tripMinor, depositMinor int64, customerRef, methodRef string) (*Authorization, error) {
	instance := "PaymentAdapter.Authorize"

	auth, err := a.gw.Authorize(ctx, AuthorizeRequest{
		AmountMinor:   tripMinor + depositMinor,
		Currency:      a.currency,
		CustomerRef:   customerRef,
		MethodRef:     methodRef,
		ManualCapture: true,
		ExtendedHold:  true,
	})
	if err != nil {
		a.logger.Error(instance, fmt.Errorf("authorization failed for booking %s: %w", bookingID, err))
		if storeErr := a.store.MarkAuthorizationFailed(ctx, bookingID, err.Error()); storeErr != nil {
			a.logger.Error(instance, fmt.Errorf("failed to record authorization failure: %w", storeErr))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentAuthorization, err)
	}

	if auth.HoldDays < 30 {
		a.logger.Warn(instance, fmt.Sprintf("extended hold not granted for booking %s, window is %d days", bookingID, auth.HoldDays))
	}

	if err := a.store.SetAuthorized(ctx, bookingID, auth.Ref); err != nil {
		a.logger.Error(instance, fmt.Errorf("failed to persist authorization %s: %w", auth.Ref, err))
		if cancelErr := a.gw.Cancel(ctx, auth.Ref); cancelErr != nil {
			a.logger.Error(instance, fmt.Errorf("failed to release orphaned hold %s: %w", auth.Ref, cancelErr))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentAuthorization, err)
	}

	a.logger.OK(instance, fmt.Sprintf("hold placed for booking %s [auth=%s, amount=%d, hold_days=%d]",
		bookingID, auth.Ref, tripMinor+depositMinor, auth.HoldDays))
	return auth, nil
}

// Capture converts all or part of the hold into a charge. The caller is
// responsible for only invoking this after fleet approval.
func (a *Adapter) Capture(ctx context.Context, bookingID string, amountMinor int64) (*CaptureResult, error) {
	instance := "PaymentAdapter.Capture"

	authRef, status, err := a.store.PaymentState(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if status != domain.PaymentAuthorized {
		return nil, fmt.Errorf("%w: payment status is %s, expected AUTHORIZED", domain.ErrInvalidStatus, status)
	}

	res, err := a.gw.Capture(ctx, authRef, amountMinor)
	if err != nil {
		a.logger.Error(instance, fmt.Errorf("capture failed for booking %s: %w", bookingID, err))
		if storeErr := a.store.SetCaptureFailed(ctx, bookingID, err.Error()); storeErr != nil {
			a.logger.Error(instance, fmt.Errorf("failed to record capture failure: %w", storeErr))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentCapture, err)
	}

	if err := a.store.SetPaid(ctx, bookingID, res.ChargeRef); err != nil {
		return nil, err
	}

	a.logger.OK(instance, fmt.Sprintf("captured %d for booking %s [charge=%s]", res.CapturedMinor, bookingID, res.ChargeRef))
	return res, nil
}

// CancelAuthorization releases the hold. Safe to call when the gateway has
// already cancelled or expired it.
func (a *Adapter) CancelAuthorization(ctx context.Context, bookingID, reason string) error {
	instance := "PaymentAdapter.CancelAuthorization"

	authRef, status, err := a.store.PaymentState(ctx, bookingID)
	if err != nil {
		return err
	}
	if status == domain.PaymentCancelled || authRef == "" {
		// nothing held, nothing to release
		return nil
	}

	if err := a.gw.Cancel(ctx, authRef); err != nil {
		return fmt.Errorf("cancel authorization %s: %w", authRef, err)
	}

	if err := a.store.SetAuthorizationCancelled(ctx, bookingID); err != nil {
		return err
	}

	a.logger.OK(instance, fmt.Sprintf("hold released for booking %s [auth=%s, reason=%s]", bookingID, authRef, reason))
	return nil
}

// RefundPartial refunds part of a captured charge, used to release the
// security deposit post-trip. The idempotency key is derived from the
// booking id so a timeout-and-retry cannot double-refund.
func (a *Adapter) RefundPartial(ctx context.Context, bookingID string, amountMinor int64) (*RefundResult, error) {
	instance := "PaymentAdapter.RefundPartial"

	authRef, _, err := a.store.PaymentState(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if authRef == "" {
		return nil, fmt.Errorf("%w: booking %s has no payment reference", domain.ErrInvalidStatus, bookingID)
	}

	idempotencyKey := fmt.Sprintf("deposit-refund-%s", bookingID)
	res, err := a.gw.Refund(ctx, authRef, amountMinor, idempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("refund for booking %s: %w", bookingID, err)
	}

	a.logger.OK(instance, fmt.Sprintf("refunded %d for booking %s [refund=%s]", amountMinor, bookingID, res.RefundRef))
	return res, nil
}
