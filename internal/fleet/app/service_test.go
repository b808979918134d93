package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"car-rental/internal/fleet/domain"
	"car-rental/internal/notification"
	"car-rental/internal/shared/util"
)

type fakeReviewRepo struct {
	mu      sync.Mutex
	entries map[string]*domain.ReviewEntry
	order   []string
	events  []string
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{entries: make(map[string]*domain.ReviewEntry)}
}

func (r *fakeReviewRepo) add(id, fleetStatus, paymentStatus string, createdAt time.Time) {
	r.entries[id] = &domain.ReviewEntry{
		BookingID:     id,
		ReferenceID:   "BK-" + id,
		GuestName:     "Alex",
		GuestPhone:    "+15550001111",
		HostID:        "host-1",
		HostName:      "Dana",
		HostPhone:     "+15550002222",
		CarSummary:    "Toyota RAV4 2022",
		FleetStatus:   fleetStatus,
		PaymentStatus: paymentStatus,
		CreatedAt:     createdAt,
	}
	r.order = append(r.order, id)
}

func (r *fakeReviewRepo) ListPending(ctx context.Context, page, pageSize int) ([]domain.ReviewEntry, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ReviewEntry
	for _, id := range r.order {
		e := r.entries[id]
		if e.FleetStatus == "PENDING" && e.PaymentStatus == "AUTHORIZED" {
			out = append(out, *e)
		}
	}
	return out, len(out), nil
}

func (r *fakeReviewRepo) GetEntry(ctx context.Context, bookingID string) (*domain.ReviewEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[bookingID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeReviewRepo) MarkApproved(ctx context.Context, bookingID, reviewerID, notes string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[bookingID]
	if !ok || e.FleetStatus != "PENDING" || e.PaymentStatus != "AUTHORIZED" {
		return false, nil
	}
	e.FleetStatus = "APPROVED"
	return true, nil
}

func (r *fakeReviewRepo) MarkRejected(ctx context.Context, bookingID, reviewerID, reason string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[bookingID]
	if !ok || (e.FleetStatus != "PENDING" && e.FleetStatus != "NEEDS_INFO") || e.PaymentStatus != "AUTHORIZED" {
		return false, nil
	}
	e.FleetStatus = "REJECTED"
	return true, nil
}

func (r *fakeReviewRepo) MarkNeedsInfo(ctx context.Context, bookingID, reviewerID, notes string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[bookingID]
	if !ok || e.FleetStatus != "PENDING" {
		return false, nil
	}
	e.FleetStatus = "NEEDS_INFO"
	return true, nil
}

func (r *fakeReviewRepo) Stats(ctx context.Context) (*domain.Stats, error) {
	return &domain.Stats{}, nil
}

func (r *fakeReviewRepo) CreateEvent(ctx context.Context, bookingID, eventType string, payload interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, eventType)
	return nil
}

type fakeCanceller struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeCanceller) CancelAuthorization(ctx context.Context, bookingID, reason string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(ev notification.BookingConfirmedEvent)     {}
func (noopNotifier) BookingRejected(ev notification.BookingRejectedEvent)       {}
func (noopNotifier) DocumentsRequested(ev notification.DocumentsRequestedEvent) {}
func (noopNotifier) BellPair(ev notification.BellPairEvent)                     {}

func newTestService(repo *fakeReviewRepo, canceller *fakeCanceller) *ReviewService {
	return NewReviewService(repo, canceller, noopNotifier{}, util.New())
}

func TestApprovePendingBooking(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	svc := newTestService(repo, &fakeCanceller{})

	if err := svc.Approve(context.Background(), "b1", "rev-1", "looks good"); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if repo.entries["b1"].FleetStatus != "APPROVED" {
		t.Errorf("fleet status = %s, want APPROVED", repo.entries["b1"].FleetStatus)
	}
}

func TestApproveRequiresLiveHold(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "FAILED", time.Now())
	svc := newTestService(repo, &fakeCanceller{})

	if err := svc.Approve(context.Background(), "b1", "rev-1", ""); !errors.Is(err, domain.ErrNotReviewable) {
		t.Errorf("approve without a hold = %v, want ErrNotReviewable", err)
	}
}

func TestConcurrentApprovesHaveOneWinner(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	svc := newTestService(repo, &fakeCanceller{})

	const reviewers = 8
	var wg sync.WaitGroup
	results := make(chan error, reviewers)

	for i := 0; i < reviewers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- svc.Approve(context.Background(), "b1", "rev", "")
		}()
	}
	wg.Wait()
	close(results)

	winners, conflicts := 0, 0
	for err := range results {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, domain.ErrAlreadyJudged):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Errorf("%d approvals succeeded, want exactly 1", winners)
	}
	if conflicts != reviewers-1 {
		t.Errorf("%d conflicts, want %d", conflicts, reviewers-1)
	}
}

func TestRejectReleasesHoldFirst(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	canceller := &fakeCanceller{}
	svc := newTestService(repo, canceller)

	if err := svc.Reject(context.Background(), "b1", "rev-1", "documents illegible"); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if canceller.calls != 1 {
		t.Errorf("hold release called %d times, want 1", canceller.calls)
	}
	if repo.entries["b1"].FleetStatus != "REJECTED" {
		t.Errorf("fleet status = %s, want REJECTED", repo.entries["b1"].FleetStatus)
	}
}

func TestRejectRequiresLiveHold(t *testing.T) {
	// a booking whose authorization never ran cannot be adjudicated
	for _, status := range []string{"PENDING", "FAILED", "CANCELLED"} {
		t.Run(status, func(t *testing.T) {
			repo := newFakeReviewRepo()
			repo.add("b1", "PENDING", status, time.Now())
			canceller := &fakeCanceller{}
			svc := newTestService(repo, canceller)

			err := svc.Reject(context.Background(), "b1", "rev-1", "bad documents")
			if !errors.Is(err, domain.ErrNotReviewable) {
				t.Fatalf("reject without a hold = %v, want ErrNotReviewable", err)
			}
			if canceller.calls != 0 {
				t.Errorf("hold release called %d times, want 0", canceller.calls)
			}
			if repo.entries["b1"].FleetStatus != "PENDING" {
				t.Errorf("fleet status = %s, want PENDING untouched", repo.entries["b1"].FleetStatus)
			}
		})
	}
}

func TestRejectProceedsWhenHoldReleaseFails(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	canceller := &fakeCanceller{err: errors.New("gateway unreachable")}
	svc := newTestService(repo, canceller)

	if err := svc.Reject(context.Background(), "b1", "rev-1", "fraud signals"); err != nil {
		t.Fatalf("rejection must land even when the hold release fails, got %v", err)
	}
	if repo.entries["b1"].FleetStatus != "REJECTED" {
		t.Errorf("fleet status = %s, want REJECTED", repo.entries["b1"].FleetStatus)
	}
}

func TestNeedsInfoParksTheEntry(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	svc := newTestService(repo, &fakeCanceller{})

	err := svc.RequestDocuments(context.Background(), "b1", "rev-1", []string{"LICENSE_BACK"}, "back of license is blurry")
	if err != nil {
		t.Fatalf("RequestDocuments failed: %v", err)
	}
	if repo.entries["b1"].FleetStatus != "NEEDS_INFO" {
		t.Fatalf("fleet status = %s, want NEEDS_INFO", repo.entries["b1"].FleetStatus)
	}

	// a parked entry cannot be approved
	if err := svc.Approve(context.Background(), "b1", "rev-2", ""); !errors.Is(err, domain.ErrAlreadyJudged) {
		t.Errorf("approve of parked entry = %v, want ErrAlreadyJudged", err)
	}

	// but it can still be rejected
	if err := svc.Reject(context.Background(), "b1", "rev-2", "no documents received"); err != nil {
		t.Errorf("reject of parked entry failed: %v", err)
	}
}

func TestRequestDocumentsNeedsAList(t *testing.T) {
	repo := newFakeReviewRepo()
	repo.add("b1", "PENDING", "AUTHORIZED", time.Now())
	svc := newTestService(repo, &fakeCanceller{})

	if err := svc.RequestDocuments(context.Background(), "b1", "rev-1", nil, ""); !errors.Is(err, domain.ErrNotReviewable) {
		t.Errorf("empty document list = %v, want ErrNotReviewable", err)
	}
}

func TestQueueIsOldestFirst(t *testing.T) {
	repo := newFakeReviewRepo()
	now := time.Now()
	repo.add("oldest", "PENDING", "AUTHORIZED", now.Add(-4*time.Hour))
	repo.add("parked", "NEEDS_INFO", "AUTHORIZED", now.Add(-3*time.Hour))
	repo.add("middle", "PENDING", "AUTHORIZED", now.Add(-2*time.Hour))
	repo.add("unpaid", "PENDING", "FAILED", now.Add(-90*time.Minute))
	repo.add("newest", "PENDING", "AUTHORIZED", now.Add(-time.Hour))
	svc := newTestService(repo, &fakeCanceller{})

	queue, err := svc.Queue(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Queue failed: %v", err)
	}
	if queue.TotalCount != 3 {
		t.Fatalf("total = %d, want 3 (parked and unauthorized bookings never queue)", queue.TotalCount)
	}
	want := []string{"oldest", "middle", "newest"}
	for i, id := range want {
		if queue.Entries[i].BookingID != id {
			t.Errorf("position %d = %s, want %s", i, queue.Entries[i].BookingID, id)
		}
	}
}
