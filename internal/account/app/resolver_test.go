package app

import (
	"context"
	"errors"
	"sync"
	"testing"

	"car-rental/internal/account/domain"
	bdomain "car-rental/internal/booking/domain"
	"car-rental/internal/shared/util"
)

type fakeAccountRepo struct {
	mu       sync.Mutex
	byEmail  map[string]*domain.Account
	creates  int
	raceOnce bool
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{byEmail: make(map[string]*domain.Account)}
}

func (r *fakeAccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if acc, ok := r.byEmail[email]; ok {
		return acc, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *fakeAccountRepo) Create(ctx context.Context, acc *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.raceOnce {
		// simulate losing the unique-constraint race: the winner's row
		// appears under the same email
		r.raceOnce = false
		r.byEmail[acc.Email] = &domain.Account{ID: "winner-id", Email: acc.Email}
		return domain.ErrEmailTaken
	}
	if _, ok := r.byEmail[acc.Email]; ok {
		return domain.ErrEmailTaken
	}
	r.byEmail[acc.Email] = acc
	return nil
}

type fakeDocStore struct {
	saved int
	err   error
}

func (s *fakeDocStore) SaveDocuments(ctx context.Context, bookingID, accountID string, docs []bdomain.Document) error {
	if s.err != nil {
		return s.err
	}
	s.saved += len(docs)
	return nil
}

func TestResolveOrCreateIsIdempotentPerEmail(t *testing.T) {
	repo := newFakeAccountRepo()
	resolver := NewResolver(repo, &fakeDocStore{}, util.New())

	in := ResolveInput{
		Contact:   bdomain.GuestContact{Name: "Alex", Email: "Alex@Example.com", Phone: "+15550001111"},
		BookingID: "bk-1",
	}

	first, err := resolver.ResolveOrCreate(context.Background(), in)
	if err != nil {
		t.Fatalf("first resolve failed: %v", err)
	}
	if !first.IsNew {
		t.Error("first resolve should create a new account")
	}

	// same email, different casing
	in.Contact.Email = "alex@example.com"
	in.Contact.Name = "Someone Else"
	second, err := resolver.ResolveOrCreate(context.Background(), in)
	if err != nil {
		t.Fatalf("second resolve failed: %v", err)
	}
	if second.IsNew {
		t.Error("second resolve must reuse the existing account")
	}
	if second.AccountID != first.AccountID {
		t.Errorf("account ids differ: %s vs %s", first.AccountID, second.AccountID)
	}
	if repo.creates != 1 {
		t.Errorf("create called %d times, want 1", repo.creates)
	}

	// existing identity fields stay untouched
	acc, _ := repo.GetByEmail(context.Background(), "alex@example.com")
	if acc.Name != "Alex" {
		t.Errorf("existing account name mutated to %q", acc.Name)
	}
}

func TestResolveOrCreateLosesRaceGracefully(t *testing.T) {
	repo := newFakeAccountRepo()
	repo.raceOnce = true
	resolver := NewResolver(repo, &fakeDocStore{}, util.New())

	result, err := resolver.ResolveOrCreate(context.Background(), ResolveInput{
		Contact: bdomain.GuestContact{Name: "Alex", Email: "alex@example.com"},
	})
	if err != nil {
		t.Fatalf("losing the creation race must not error, got %v", err)
	}
	if result.IsNew {
		t.Error("race loser must report the account as pre-existing")
	}
	if result.AccountID != "winner-id" {
		t.Errorf("account id = %q, want the winner's id", result.AccountID)
	}
}

func TestResolveOrCreateVerificationStatus(t *testing.T) {
	cases := []struct {
		name   string
		result domain.AIResult
		want   domain.VerificationStatus
	}{
		{"verified", domain.AIVerified, domain.VerificationAIVerified},
		{"rejected", domain.AIRejected, domain.VerificationPending},
		{"not attempted", domain.AINotAttempted, domain.VerificationPending},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newFakeAccountRepo()
			resolver := NewResolver(repo, &fakeDocStore{}, util.New())

			_, err := resolver.ResolveOrCreate(context.Background(), ResolveInput{
				Contact:      bdomain.GuestContact{Email: "v@example.com"},
				Verification: domain.AIVerification{Result: tc.result, Confidence: 0.9},
			})
			if err != nil {
				t.Fatalf("resolve failed: %v", err)
			}
			acc, _ := repo.GetByEmail(context.Background(), "v@example.com")
			if acc.VerificationStatus != tc.want {
				t.Errorf("verification status = %s, want %s", acc.VerificationStatus, tc.want)
			}
		})
	}
}

func TestResolveOrCreateDocumentFailureIsNonFatal(t *testing.T) {
	repo := newFakeAccountRepo()
	docs := &fakeDocStore{err: errors.New("storage down")}
	resolver := NewResolver(repo, docs, util.New())

	result, err := resolver.ResolveOrCreate(context.Background(), ResolveInput{
		Contact:   bdomain.GuestContact{Email: "docs@example.com"},
		BookingID: "bk-1",
		Documents: []bdomain.Document{{Type: bdomain.DocLicenseFront, URL: "https://cdn/x.jpg"}},
	})
	if err != nil {
		t.Fatalf("document failure must not fail account creation, got %v", err)
	}
	if !result.IsNew {
		t.Error("account should still have been created")
	}
}
