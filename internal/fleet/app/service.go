package app

import (
	"context"
	"fmt"
	"time"

	"car-rental/internal/fleet/domain"
	"car-rental/internal/notification"
	"car-rental/internal/shared/util"
)

type PaymentCanceller interface {
	CancelAuthorization(ctx context.Context, bookingID, reason string) error
}

type Notifier interface {
	BookingConfirmed(ev notification.BookingConfirmedEvent)
	BookingRejected(ev notification.BookingRejectedEvent)
	DocumentsRequested(ev notification.DocumentsRequestedEvent)
	BellPair(ev notification.BellPairEvent)
}

// ReviewService adjudicates the manual review queue. All transitions are
// conditional updates, so two reviewers racing on the same booking resolve
// to exactly one winner.
type ReviewService struct {
	repo     domain.ReviewRepository
	payments PaymentCanceller
	notify   Notifier
	logger   *util.Logger
}

func NewReviewService(repo domain.ReviewRepository, payments PaymentCanceller, notify Notifier, logger *util.Logger) *ReviewService {
	return &ReviewService{repo: repo, payments: payments, notify: notify, logger: logger}
}

type QueueResponse struct {
	Entries    []domain.ReviewEntry `json:"entries"`
	TotalCount int                  `json:"total_count"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"page_size"`
}

func (s *ReviewService) Queue(ctx context.Context, page, pageSize int) (*QueueResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	entries, totalCount, err := s.repo.ListPending(ctx, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &QueueResponse{
		Entries:    entries,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	}, nil
}

func (s *ReviewService) Stats(ctx context.Context) (*domain.Stats, error) {
	return s.repo.Stats(ctx)
}

// Approve confirms the booking. The write itself is the arbiter: when the
// conditional update touches no row, somebody else got there first and the
// fresh state is reported back.
func (s *ReviewService) Approve(ctx context.Context, bookingID, reviewerID, notes string) error {
	instance := "ReviewService.Approve"

	entry, err := s.repo.GetEntry(ctx, bookingID)
	if err != nil {
		return err
	}
	if entry.FleetStatus != "PENDING" {
		return fmt.Errorf("%w: already %s", domain.ErrAlreadyJudged, entry.FleetStatus)
	}
	if entry.PaymentStatus != "AUTHORIZED" {
		return fmt.Errorf("%w: payment is %s", domain.ErrNotReviewable, entry.PaymentStatus)
	}

	ok, err := s.repo.MarkApproved(ctx, bookingID, reviewerID, notes)
	if err != nil {
		return fmt.Errorf("failed to approve booking: %w", err)
	}
	if !ok {
		return s.concurrentOutcome(ctx, bookingID)
	}

	if err := s.repo.CreateEvent(ctx, bookingID, "FLEET_APPROVED", map[string]interface{}{
		"reviewer_id": reviewerID, "notes": notes,
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	guestID := ""
	if entry.AccountID != nil {
		guestID = *entry.AccountID
	}
	go s.notify.BookingConfirmed(notification.BookingConfirmedEvent{
		BookingID:   entry.BookingID,
		BookingCode: entry.ReferenceID,
		GuestID:     guestID,
		GuestName:   entry.GuestName,
		GuestPhone:  entry.GuestPhone,
		HostID:      entry.HostID,
		HostName:    entry.HostName,
		HostPhone:   entry.HostPhone,
		CarSummary:  entry.CarSummary,
		StartDate:   entry.StartDate,
		EndDate:     entry.EndDate,
	})
	go s.notify.BellPair(notification.BellPairEvent{
		BookingID:    entry.BookingID,
		GuestID:      guestID,
		HostID:       entry.HostID,
		Type:         "BOOKING_CONFIRMED",
		GuestTitle:   "Booking confirmed",
		GuestMessage: fmt.Sprintf("Your booking %s is confirmed. Pickup on %s.", entry.ReferenceID, entry.StartDate.Format("Jan 2")),
		HostTitle:    "New confirmed booking",
		HostMessage:  fmt.Sprintf("Booking %s for your %s is confirmed.", entry.ReferenceID, entry.CarSummary),
		Priority:     "high",
	})

	s.logger.OK(instance, fmt.Sprintf("booking %s approved by %s", bookingID, reviewerID))
	return nil
}

// Reject releases the payment hold and cancels the booking. The hold release
// goes first; if the gateway refuses, the rejection still lands and the hold
// lapses on its own schedule.
func (s *ReviewService) Reject(ctx context.Context, bookingID, reviewerID, reason string) error {
	instance := "ReviewService.Reject"

	entry, err := s.repo.GetEntry(ctx, bookingID)
	if err != nil {
		return err
	}
	if entry.FleetStatus != "PENDING" && entry.FleetStatus != "NEEDS_INFO" {
		return fmt.Errorf("%w: already %s", domain.ErrAlreadyJudged, entry.FleetStatus)
	}
	if entry.PaymentStatus != "AUTHORIZED" {
		return fmt.Errorf("%w: payment is %s", domain.ErrNotReviewable, entry.PaymentStatus)
	}

	if err := s.payments.CancelAuthorization(ctx, bookingID, reason); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to release hold for %s, it will lapse at the gateway: %v", bookingID, err))
	}

	ok, err := s.repo.MarkRejected(ctx, bookingID, reviewerID, reason)
	if err != nil {
		return fmt.Errorf("failed to reject booking: %w", err)
	}
	if !ok {
		return s.concurrentOutcome(ctx, bookingID)
	}

	if err := s.repo.CreateEvent(ctx, bookingID, "FLEET_REJECTED", map[string]interface{}{
		"reviewer_id": reviewerID, "reason": reason,
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	go s.notify.BookingRejected(notification.BookingRejectedEvent{
		BookingID:   entry.BookingID,
		BookingCode: entry.ReferenceID,
		GuestPhone:  entry.GuestPhone,
		Reason:      reason,
	})

	s.logger.OK(instance, fmt.Sprintf("booking %s rejected by %s", bookingID, reviewerID))
	return nil
}

// RequestDocuments parks a pending entry until the guest supplies the listed
// documents. A parked booking can only be rejected, not approved.
func (s *ReviewService) RequestDocuments(ctx context.Context, bookingID, reviewerID string, documents []string, message string) error {
	instance := "ReviewService.RequestDocuments"

	if len(documents) == 0 {
		return fmt.Errorf("%w: no documents listed", domain.ErrNotReviewable)
	}

	entry, err := s.repo.GetEntry(ctx, bookingID)
	if err != nil {
		return err
	}
	if entry.FleetStatus != "PENDING" {
		return fmt.Errorf("%w: already %s", domain.ErrAlreadyJudged, entry.FleetStatus)
	}

	ok, err := s.repo.MarkNeedsInfo(ctx, bookingID, reviewerID, message)
	if err != nil {
		return fmt.Errorf("failed to request documents: %w", err)
	}
	if !ok {
		return s.concurrentOutcome(ctx, bookingID)
	}

	if err := s.repo.CreateEvent(ctx, bookingID, "DOCUMENTS_REQUESTED", map[string]interface{}{
		"reviewer_id": reviewerID, "documents": documents,
	}); err != nil {
		s.logger.Warn(instance, fmt.Sprintf("failed to record event: %v", err))
	}

	go s.notify.DocumentsRequested(notification.DocumentsRequestedEvent{
		BookingID:       entry.BookingID,
		BookingCode:     entry.ReferenceID,
		GuestPhone:      entry.GuestPhone,
		DocumentsNeeded: documents,
		Message:         message,
	})

	s.logger.OK(instance, fmt.Sprintf("booking %s parked for documents by %s", bookingID, reviewerID))
	return nil
}

// concurrentOutcome re-reads the entry after a lost conditional update so the
// caller learns which transition actually won.
func (s *ReviewService) concurrentOutcome(ctx context.Context, bookingID string) error {
	readCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	entry, err := s.repo.GetEntry(readCtx, bookingID)
	if err != nil {
		return fmt.Errorf("%w: concurrent update", domain.ErrAlreadyJudged)
	}
	return fmt.Errorf("%w: already %s", domain.ErrAlreadyJudged, entry.FleetStatus)
}
