package app

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	accountapp "car-rental/internal/account/app"
	accountdomain "car-rental/internal/account/domain"
	"car-rental/internal/booking/domain"
	"car-rental/internal/notification"
	"car-rental/internal/payment"
	"car-rental/internal/shared/util"
	"car-rental/internal/shared/validation"
)

type AccountResolver interface {
	ResolveOrCreate(ctx context.Context, in accountapp.ResolveInput) (*accountapp.ResolveResult, error)
}

type TokenIssuer interface {
	Issue(ctx context.Context, bookingID, accountID string) (string, time.Time, error)
}

type PaymentService interface {
	Authorize(ctx context.Context, bookingID string, tripMinor, depositMinor int64, customerRef, methodRef string) (*payment.Authorization, error)
	Capture(ctx context.Context, bookingID string, amountMinor int64) (*payment.CaptureResult, error)
	CancelAuthorization(ctx context.Context, bookingID, reason string) error
	RefundPartial(ctx context.Context, bookingID string, amountMinor int64) (*payment.RefundResult, error)
}

type Notifier interface {
	BookingReceived(ev notification.BookingReceivedEvent)
	BellPair(ev notification.BellPairEvent)
}

// BookingService is the top-level saga that takes a purchase intent through
// validation, account bootstrapping and payment authorization.
type BookingService struct {
	repo     domain.BookingRepository
	accounts AccountResolver
	tokens   TokenIssuer
	payments PaymentService
	notify   Notifier
	baseURL  string
	logger   *util.Logger
}

func NewBookingService(
	repo domain.BookingRepository,
	accounts AccountResolver,
	tokens TokenIssuer,
	payments PaymentService,
	notify Notifier,
	baseURL string,
	logger *util.Logger,
) *BookingService {
	return &BookingService{
		repo:     repo,
		accounts: accounts,
		tokens:   tokens,
		payments: payments,
		notify:   notify,
		baseURL:  baseURL,
		logger:   logger,
	}
}

type CreateBookingInput struct {
	CarID           string
	StartDate       time.Time
	EndDate         time.Time
	DailyRate       float64
	TripAmount      float64
	ServiceFee      float64
	TaxAmount       float64
	SecurityDeposit float64
	TotalAmount     float64

	// AccountID is set when the caller already has a session; empty means
	// visitor flow and account bootstrapping.
	AccountID string
	Contact   domain.GuestContact

	PaymentCustomerRef string
	PaymentMethodRef   string

	Documents    []domain.Document
	Verification accountdomain.AIVerification
}

type CreateBookingResult struct {
	BookingID   string
	ReferenceID string
	AccountID   string
	PaymentRef  string
	// AuthToken and LoginURL are only set for freshly created accounts.
	AuthToken string
	LoginURL  string
	// Warning surfaces a recoverable partial failure (account setup).
	Warning string
}

// CreateBooking runs the booking saga. The booking record is created before
// account resolution so a reference id exists even when later steps fail;
// once created, every failure is recorded on the record itself, never
// silently discarded.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (*CreateBookingResult, error) {
	instance := "BookingService.CreateBooking"
	start := time.Now()

	// step 1: validation, no side effects
	if err := validation.ValidateStringNotEmpty(in.CarID, "car_id"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateDateRange(in.StartDate, in.EndDate, time.Now()); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidatePositiveAmount(in.TotalAmount, "total_amount"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if err := validation.ValidateNonNegativeAmount(in.SecurityDeposit, "security_deposit"); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if in.AccountID == "" {
		if err := validation.ValidateEmail(in.Contact.Email); err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
	}

	// step 2: car and host eligibility, still no side effects
	car, err := s.repo.GetCar(ctx, in.CarID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: car %s", domain.ErrNotFound, in.CarID)
		}
		return nil, fmt.Errorf("failed to fetch car: %w", err)
	}
	if car.Status != "ACTIVE" {
		return nil, fmt.Errorf("%w: car is %s", domain.ErrUnavailable, car.Status)
	}
	host, err := s.repo.GetHost(ctx, car.HostID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: host %s", domain.ErrNotFound, car.HostID)
		}
		return nil, fmt.Errorf("failed to fetch host: %w", err)
	}
	if host.Status != "APPROVED" {
		return nil, fmt.Errorf("%w: host is %s", domain.ErrUnavailable, host.Status)
	}

	// step 4: durable booking record first, so a reference exists to hang
	// tokens and documents off
	booking := &domain.Booking{
		ID:              uuid.NewString(),
		CarID:           car.ID,
		HostID:          host.ID,
		GuestContact:    in.Contact,
		StartDate:       in.StartDate,
		EndDate:         in.EndDate,
		DailyRate:       in.DailyRate,
		TripAmount:      in.TripAmount,
		ServiceFee:      in.ServiceFee,
		TaxAmount:       in.TaxAmount,
		SecurityDeposit: in.SecurityDeposit,
		TotalAmount:     in.TotalAmount,
		Status:          domain.StatusPendingReview,
		FleetStatus:     domain.FleetPending,
		PaymentStatus:   domain.PaymentPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.createWithReference(ctx, booking); err != nil {
		s.logger.Error(instance, err)
		return nil, err
	}
	if err := s.repo.CreateEvent(ctx, booking.ID, "BOOKING_CREATED", map[string]interface{}{
		"reference_id": booking.ReferenceID,
		"car_id":       booking.CarID,
		"total_amount": booking.TotalAmount,
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record creation event: %v", err))
	}

	result := &CreateBookingResult{
		BookingID:   booking.ID,
		ReferenceID: booking.ReferenceID,
	}

	// steps 3+5: identity. An existing account skips bootstrapping; a
	// visitor gets an account resolved or created, plus a one-time login
	// token when the account is fresh.
	isNewAccount := false
	if in.AccountID != "" {
		result.AccountID = in.AccountID
		if err := s.repo.LinkAccount(ctx, booking.ID, in.AccountID); err != nil {
			s.logger.Error(instance, fmt.Errorf("failed to link account %s: %w", in.AccountID, err))
			result.Warning = "account setup failed, contact support"
			return result, nil
		}
	} else {
		resolved, err := s.accounts.ResolveOrCreate(ctx, accountapp.ResolveInput{
			Contact:      in.Contact,
			BookingID:    booking.ID,
			Documents:    in.Documents,
			Verification: in.Verification,
		})
		if err != nil {
			// recoverable: the booking stands, support follows up; the
			// money-critical path has not run yet
			s.logger.Error(instance, fmt.Errorf("%w: %v", domain.ErrAccountCreation, err))
			if evErr := s.repo.CreateEvent(ctx, booking.ID, "ACCOUNT_SETUP_FAILED", map[string]interface{}{"error": err.Error()}); evErr != nil {
				s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", evErr))
			}
			result.Warning = "account setup failed, contact support"
			return result, nil
		}
		result.AccountID = resolved.AccountID
		isNewAccount = resolved.IsNew
		if err := s.repo.LinkAccount(ctx, booking.ID, resolved.AccountID); err != nil {
			s.logger.Warn(instance, fmt.Sprintf("failed to link account: %v", err))
		}

		if resolved.IsNew {
			token, _, err := s.tokens.Issue(ctx, booking.ID, resolved.AccountID)
			if err != nil {
				// existing accounts log in normally anyway; a missing
				// auto-login link is an inconvenience, not a failure
				s.logger.Warn(instance, fmt.Sprintf("failed to issue auto-login token: %v", err))
			} else {
				result.AuthToken = token
				result.LoginURL = fmt.Sprintf("%s/auth/auto-login?token=%s&booking=%s", s.baseURL, token, booking.ID)
			}
		}
	}

	// step 6: authorize trip amount + deposit as one manual-capture hold
	auth, err := s.payments.Authorize(ctx, booking.ID,
		domain.ToMinorUnits(in.TotalAmount),
		domain.ToMinorUnits(in.SecurityDeposit),
		in.PaymentCustomerRef, in.PaymentMethodRef)
	if err != nil {
		if evErr := s.repo.CreateEvent(ctx, booking.ID, "PAYMENT_FAILED", map[string]interface{}{"error": err.Error()}); evErr != nil {
			s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", evErr))
		}
		// the booking is retained; the caller still gets its reference
		return result, err
	}
	result.PaymentRef = auth.Ref

	if err := s.repo.CreateEvent(ctx, booking.ID, "PAYMENT_AUTHORIZED", map[string]interface{}{"auth_ref": auth.Ref}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	carSummary := fmt.Sprintf("%s %s %d", car.Make, car.Model, car.Year)
	go s.notify.BookingReceived(notification.BookingReceivedEvent{
		BookingID:   booking.ID,
		BookingCode: booking.ReferenceID,
		GuestName:   in.Contact.Name,
		GuestPhone:  in.Contact.Phone,
		CarSummary:  carSummary,
		LoginURL:    result.LoginURL,
	})

	s.logger.OK(instance, fmt.Sprintf("booking created [id=%s, ref=%s, new_account=%t, duration_ms=%d]",
		booking.ID, booking.ReferenceID, isNewAccount, time.Since(start).Milliseconds()))
	return result, nil
}

// createWithReference persists the booking, regenerating the human-readable
// reference on the rare unique collision.
func (s *BookingService) createWithReference(ctx context.Context, booking *domain.Booking) error {
	const maxRetries = 5
	for attempt := 0; attempt < maxRetries; attempt++ {
		ref, err := generateReference()
		if err != nil {
			return fmt.Errorf("failed to generate reference: %w", err)
		}
		booking.ReferenceID = ref

		err = s.repo.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if errors.Is(err, domain.ErrDuplicateReference) {
			s.logger.Warn("BookingService.createWithReference",
				fmt.Sprintf("reference collision on %s (attempt %d), retrying", ref, attempt+1))
			continue
		}
		return err
	}
	return fmt.Errorf("failed to create booking after %d reference collisions", maxRetries)
}

const refAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateReference() (string, error) {
	// 252 is the largest multiple of the alphabet size below 256; bytes at
	// or above it are redrawn so every character is equally likely
	const limit = 252
	out := make([]byte, 6)
	b := make([]byte, 1)
	for i := 0; i < len(out); {
		if _, err := rand.Read(b); err != nil {
			return "", err
		}
		if b[0] >= limit {
			continue
		}
		out[i] = refAlphabet[int(b[0])%len(refAlphabet)]
		i++
	}
	return "BK-" + string(out), nil
}

// GetBooking looks a booking up by id or by its BK- reference.
func (s *BookingService) GetBooking(ctx context.Context, idOrRef string) (*domain.Booking, error) {
	if validation.ValidateBookingReference(idOrRef) == nil {
		return s.repo.GetByReference(ctx, idOrRef)
	}
	return s.repo.GetByID(ctx, idOrRef)
}

// CancelBooking is the guest-initiated cancellation before capture. The
// hold release is attempted first; if the gateway balks the cancellation
// still proceeds and the hold lapses on its own.
func (s *BookingService) CancelBooking(ctx context.Context, bookingID, accountID, reason string) error {
	instance := "BookingService.CancelBooking"

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.AccountID == nil || *booking.AccountID != accountID {
		return fmt.Errorf("%w: booking belongs to another account", domain.ErrForbidden)
	}
	if booking.Status != domain.StatusPendingReview && booking.Status != domain.StatusConfirmed {
		return fmt.Errorf("%w: booking is %s", domain.ErrInvalidStatus, booking.Status)
	}
	if booking.PaymentStatus == domain.PaymentPaid {
		return fmt.Errorf("%w: payment already captured", domain.ErrInvalidStatus)
	}

	if err := s.payments.CancelAuthorization(ctx, bookingID, reason); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to release hold for %s, it will lapse at the gateway: %v", bookingID, err))
	}

	ok, err := s.repo.MarkCancelled(ctx, bookingID, reason, "GUEST")
	if err != nil {
		return fmt.Errorf("failed to cancel booking: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: booking already transitioned", domain.ErrConflict)
	}

	if err := s.repo.CreateEvent(ctx, bookingID, "BOOKING_CANCELLED", map[string]interface{}{
		"reason": reason, "cancelled_by": "GUEST",
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	go s.notify.BellPair(notification.BellPairEvent{
		BookingID:    bookingID,
		GuestID:      accountID,
		HostID:       booking.HostID,
		Type:         "BOOKING_CANCELLED",
		GuestTitle:   "Booking cancelled",
		GuestMessage: fmt.Sprintf("Your booking %s has been cancelled.", booking.ReferenceID),
		HostTitle:    "Booking cancelled",
		HostMessage:  fmt.Sprintf("Booking %s was cancelled by the guest.", booking.ReferenceID),
		Priority:     "normal",
	})

	s.logger.OK(instance, fmt.Sprintf("booking %s cancelled by guest", bookingID))
	return nil
}

// CompleteBooking settles a finished trip: capture the full hold, then
// release the deposit as a partial refund keyed idempotently by booking.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID string) error {
	instance := "BookingService.CompleteBooking"

	booking, err := s.repo.GetByID(ctx, bookingID)
	if err != nil {
		return err
	}
	if booking.Status != domain.StatusConfirmed || booking.FleetStatus != domain.FleetApproved {
		return fmt.Errorf("%w: booking is %s/%s", domain.ErrInvalidStatus, booking.Status, booking.FleetStatus)
	}

	if _, err := s.payments.Capture(ctx, bookingID, 0); err != nil {
		return err
	}

	if booking.SecurityDeposit > 0 {
		if _, err := s.payments.RefundPartial(ctx, bookingID, domain.ToMinorUnits(booking.SecurityDeposit)); err != nil {
			// the charge stands; deposit release is retryable thanks to the
			// stable idempotency key
			s.logger.Error(instance, fmt.Errorf("deposit refund failed for %s: %w", bookingID, err))
			if evErr := s.repo.CreateEvent(ctx, bookingID, "DEPOSIT_REFUND_FAILED", map[string]interface{}{"error": err.Error()}); evErr != nil {
				s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", evErr))
			}
			return fmt.Errorf("%w: deposit refund failed", domain.ErrPaymentCapture)
		}
	}

	ok, err := s.repo.MarkCompleted(ctx, bookingID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: booking already transitioned", domain.ErrConflict)
	}

	if err := s.repo.CreateEvent(ctx, bookingID, "BOOKING_COMPLETED", map[string]interface{}{
		"deposit_refunded": booking.SecurityDeposit,
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	s.logger.OK(instance, fmt.Sprintf("booking %s completed and settled", bookingID))
	return nil
}
