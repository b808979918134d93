package payment

import "context"

type AuthorizeRequest struct {
	AmountMinor   int64
	Currency      string
	CustomerRef   string
	MethodRef     string
	ManualCapture bool
	ExtendedHold  bool
}

type Authorization struct {
	Ref          string
	ClientSecret string
	HoldDays     int
}

type CaptureResult struct {
	ChargeRef     string
	CapturedMinor int64
}

type RefundResult struct {
	RefundRef string
}

// Gateway wraps the third-party processor's hold lifecycle primitives.
// Cancel must treat an already-cancelled or lapsed authorization as success.
type Gateway interface {
	Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error)
	Capture(ctx context.Context, authRef string, amountMinor int64) (*CaptureResult, error)
	Cancel(ctx context.Context, authRef string) error
	Refund(ctx context.Context, authRef string, amountMinor int64, idempotencyKey string) (*RefundResult, error)
}
