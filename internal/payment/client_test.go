package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestAuthorizeSendsManualCaptureAndExtendedHold(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/authorizations" {
			t.Errorf("path = %s, want /v1/authorizations", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk_test" {
			t.Errorf("Authorization = %q, want Bearer sk_test", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id": "auth_1", "client_secret": "cs_1", "hold_days": 45,
		})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
	auth, err := gw.Authorize(context.Background(), AuthorizeRequest{
		AmountMinor:   65000,
		Currency:      "USD",
		CustomerRef:   "cus_1",
		MethodRef:     "pm_1",
		ManualCapture: true,
		ExtendedHold:  true,
	})
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}

	if got["capture_method"] != "manual" {
		t.Errorf("capture_method = %v, want manual", got["capture_method"])
	}
	if got["hold_preference"] != "extended" {
		t.Errorf("hold_preference = %v, want extended", got["hold_preference"])
	}
	if got["amount_minor"].(float64) != 65000 {
		t.Errorf("amount_minor = %v, want 65000", got["amount_minor"])
	}
	if auth.Ref != "auth_1" || auth.HoldDays != 45 {
		t.Errorf("authorization = %+v", auth)
	}
}

func TestAuthorizeDefaultsHoldWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// gateway omitted hold_days: standard window applies
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"id": "auth_1"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
	auth, err := gw.Authorize(context.Background(), AuthorizeRequest{AmountMinor: 100, Currency: "USD"})
	if err != nil {
		t.Fatalf("Authorize failed: %v", err)
	}
	if auth.HoldDays != 7 {
		t.Errorf("hold days = %d, want 7", auth.HoldDays)
	}
}

func TestCancelTreatsLapsedHoldAsSuccess(t *testing.T) {
	codes := []string{"already_cancelled", "authorization_expired", "not_found"}
	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "message": "no live hold"})
			}))
			defer srv.Close()

			gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
			if err := gw.Cancel(context.Background(), "auth_1"); err != nil {
				t.Errorf("Cancel with %s = %v, want nil", code, err)
			}
		})
	}
}

func TestCancelPropagatesRealFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(map[string]string{"code": "processor_error", "message": "upstream down"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
	if err := gw.Cancel(context.Background(), "auth_1"); err == nil {
		t.Error("processor errors must propagate")
	}
}

func TestRefundCarriesIdempotencyKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "re_1"})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
	res, err := gw.Refund(context.Background(), "auth_1", 20000, "deposit-refund-bk-1")
	if err != nil {
		t.Fatalf("Refund failed: %v", err)
	}
	if gotKey != "deposit-refund-bk-1" {
		t.Errorf("Idempotency-Key = %q, want deposit-refund-bk-1", gotKey)
	}
	if res.RefundRef != "re_1" {
		t.Errorf("refund ref = %q, want re_1", res.RefundRef)
	}
}

func TestCaptureOmitsAmountForFullCapture(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"charge_id": "ch_1", "captured_minor": 65000})
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 5*time.Second)
	res, err := gw.Capture(context.Background(), "auth_1", 0)
	if err != nil {
		t.Fatalf("Capture failed: %v", err)
	}
	if _, present := got["amount_minor"]; present {
		t.Error("full capture must not send amount_minor")
	}
	if res.CapturedMinor != 65000 {
		t.Errorf("captured = %d, want 65000", res.CapturedMinor)
	}
}

func TestGatewayTimeoutSurfacesAsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	gw := NewHTTPGateway(srv.URL, "sk_test", 50*time.Millisecond)
	start := time.Now()
	_, err := gw.Authorize(context.Background(), AuthorizeRequest{AmountMinor: 100, Currency: "USD"})
	if err == nil {
		t.Fatal("a stalled gateway must surface as an error")
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("call took %v, should be bounded by the client timeout", elapsed)
	}
}
