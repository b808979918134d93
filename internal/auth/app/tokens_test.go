package app

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"car-rental/internal/auth/domain"
	"car-rental/internal/shared/util"
)

// memTokenRepo mirrors the storage contract: Consume removes and returns the
// token atomically under a single lock.
type memTokenRepo struct {
	mu         sync.Mutex
	tokens     map[string]*domain.AutoLoginToken
	consumeErr error
}

func newMemTokenRepo() *memTokenRepo {
	return &memTokenRepo{tokens: make(map[string]*domain.AutoLoginToken)}
}

func (r *memTokenRepo) Save(ctx context.Context, t *domain.AutoLoginToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.tokens[t.Token] = &cp
	return nil
}

func (r *memTokenRepo) Find(ctx context.Context, token string) (*domain.AutoLoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTokenInvalid
}

func (r *memTokenRepo) Consume(ctx context.Context, token string, now time.Time) (*domain.AutoLoginToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.consumeErr != nil {
		return nil, r.consumeErr
	}
	t, ok := r.tokens[token]
	if !ok || !t.ExpiresAt.After(now) {
		return nil, domain.ErrTokenInvalid
	}
	delete(r.tokens, token)
	cp := *t
	return &cp, nil
}

func (r *memTokenRepo) Delete(ctx context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, token)
	return nil
}

var tokenPattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

func TestIssueProducesOpaqueToken(t *testing.T) {
	svc := NewTokenService(newMemTokenRepo(), util.New())

	token, expiresAt, err := svc.Issue(context.Background(), "bk-1", "acc-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if !tokenPattern.MatchString(token) {
		t.Errorf("token %q is not 64 hex chars", token)
	}

	ttl := time.Until(expiresAt)
	if ttl < 71*time.Hour || ttl > 73*time.Hour {
		t.Errorf("expiry %v away, want ~72h", ttl)
	}
}

func TestConsumeIsSingleUse(t *testing.T) {
	repo := newMemTokenRepo()
	svc := NewTokenService(repo, util.New())

	token, _, err := svc.Issue(context.Background(), "bk-1", "acc-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	first, err := svc.Consume(context.Background(), token)
	if err != nil {
		t.Fatalf("first consume failed: %v", err)
	}
	if first.BookingID != "bk-1" || first.AccountID != "acc-1" {
		t.Errorf("consumed token carries %s/%s, want bk-1/acc-1", first.BookingID, first.AccountID)
	}

	if _, err := svc.Consume(context.Background(), token); !errors.Is(err, domain.ErrTokenInvalid) {
		t.Errorf("second consume = %v, want ErrTokenInvalid", err)
	}
}

func TestConsumeConcurrentlyHasOneWinner(t *testing.T) {
	repo := newMemTokenRepo()
	svc := NewTokenService(repo, util.New())

	token, _, err := svc.Issue(context.Background(), "bk-1", "acc-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	const attempts = 16
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Consume(context.Background(), token)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		}
	}
	if winners != 1 {
		t.Errorf("%d concurrent consumes succeeded, want exactly 1", winners)
	}
}

func TestConsumeExpiredToken(t *testing.T) {
	repo := newMemTokenRepo()
	svc := NewTokenService(repo, util.New())

	token, _, err := svc.Issue(context.Background(), "bk-1", "acc-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	// push the expiry into the past
	repo.mu.Lock()
	repo.tokens[token].ExpiresAt = time.Now().UTC().Add(-time.Second)
	repo.mu.Unlock()

	if _, err := svc.Consume(context.Background(), token); !errors.Is(err, domain.ErrTokenExpired) {
		t.Errorf("consuming expired token = %v, want ErrTokenExpired", err)
	}

	// expired token is cleared on the failed attempt
	if _, err := repo.Find(context.Background(), token); err == nil {
		t.Error("expired token should have been deleted")
	}
}

func TestConsumeTransientFailureKeepsToken(t *testing.T) {
	repo := newMemTokenRepo()
	svc := NewTokenService(repo, util.New())

	token, _, err := svc.Issue(context.Background(), "bk-1", "acc-1")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	storageDown := errors.New("connection refused")
	repo.mu.Lock()
	repo.consumeErr = storageDown
	repo.mu.Unlock()

	_, err = svc.Consume(context.Background(), token)
	if !errors.Is(err, storageDown) {
		t.Fatalf("transient failure = %v, want the storage error propagated", err)
	}
	if errors.Is(err, domain.ErrTokenExpired) {
		t.Error("transient failure must not be reported as expiry")
	}

	// the token survives and is redeemable once storage recovers
	repo.mu.Lock()
	repo.consumeErr = nil
	repo.mu.Unlock()

	if _, err := svc.Consume(context.Background(), token); err != nil {
		t.Errorf("token should still be redeemable after the outage, got %v", err)
	}
}

func TestConsumeRejectsMalformedToken(t *testing.T) {
	svc := NewTokenService(newMemTokenRepo(), util.New())

	for _, bad := range []string{"", "short", "ZZZZ", "../../etc/passwd"} {
		if _, err := svc.Consume(context.Background(), bad); !errors.Is(err, domain.ErrTokenInvalid) {
			t.Errorf("Consume(%q) = %v, want ErrTokenInvalid", bad, err)
		}
	}
}
