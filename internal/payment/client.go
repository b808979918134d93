package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPGateway talks to the payment processor's REST API. Every call is
// bounded by the client timeout so a stalled gateway surfaces as an error
// instead of an indefinite hang.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type gatewayError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *gatewayError) Error() string {
	return fmt.Sprintf("gateway error %s: %s", e.Code, e.Message)
}

func (g *HTTPGateway) Authorize(ctx context.Context, req AuthorizeRequest) (*Authorization, error) {
	captureMethod := "automatic"
	if req.ManualCapture {
		captureMethod = "manual"
	}
	payload := map[string]interface{}{
		"amount_minor":   req.AmountMinor,
		"currency":       req.Currency,
		"capture_method": captureMethod,
	}
	if req.CustomerRef != "" {
		payload["customer"] = req.CustomerRef
	}
	if req.MethodRef != "" {
		payload["payment_method"] = req.MethodRef
	}
	if req.ExtendedHold {
		// the gateway ignores this when the card network does not support
		// extended holds and applies its default window instead
		payload["hold_preference"] = "extended"
	}

	var resp struct {
		ID           string `json:"id"`
		ClientSecret string `json:"client_secret"`
		HoldDays     int    `json:"hold_days"`
	}
	if err := g.post(ctx, "/v1/authorizations", payload, "", &resp); err != nil {
		return nil, err
	}

	holdDays := resp.HoldDays
	if holdDays == 0 {
		holdDays = 7
	}

	return &Authorization{Ref: resp.ID, ClientSecret: resp.ClientSecret, HoldDays: holdDays}, nil
}

func (g *HTTPGateway) Capture(ctx context.Context, authRef string, amountMinor int64) (*CaptureResult, error) {
	payload := map[string]interface{}{}
	if amountMinor > 0 {
		payload["amount_minor"] = amountMinor
	}

	var resp struct {
		ChargeID      string `json:"charge_id"`
		CapturedMinor int64  `json:"captured_minor"`
	}
	path := fmt.Sprintf("/v1/authorizations/%s/capture", authRef)
	if err := g.post(ctx, path, payload, "", &resp); err != nil {
		return nil, err
	}

	return &CaptureResult{ChargeRef: resp.ChargeID, CapturedMinor: resp.CapturedMinor}, nil
}

func (g *HTTPGateway) Cancel(ctx context.Context, authRef string) error {
	path := fmt.Sprintf("/v1/authorizations/%s/cancel", authRef)
	err := g.post(ctx, path, map[string]interface{}{}, "", nil)
	if err == nil {
		return nil
	}

	// a hold the gateway already released is not a failure
	var gwErr *gatewayError
	if errors.As(err, &gwErr) {
		switch gwErr.Code {
		case "already_cancelled", "authorization_expired", "not_found":
			return nil
		}
	}
	return err
}

func (g *HTTPGateway) Refund(ctx context.Context, authRef string, amountMinor int64, idempotencyKey string) (*RefundResult, error) {
	payload := map[string]interface{}{
		"authorization": authRef,
		"amount_minor":  amountMinor,
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/v1/refunds", payload, idempotencyKey, &resp); err != nil {
		return nil, err
	}

	return &RefundResult{RefundRef: resp.ID}, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload interface{}, idempotencyKey string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gwErr := &gatewayError{}
		if jsonErr := json.Unmarshal(respBody, gwErr); jsonErr == nil && gwErr.Code != "" {
			return gwErr
		}
		return fmt.Errorf("gateway HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode gateway response: %w", err)
		}
	}
	return nil
}
