package validation

import (
	"testing"
	"time"
)

func TestValidateBookingReference(t *testing.T) {
	valid := []string{"BK-A1B2C3", "BK-ZZZZZZ", "BK-000000"}
	for _, ref := range valid {
		if err := ValidateBookingReference(ref); err != nil {
			t.Errorf("ValidateBookingReference(%q) = %v, want nil", ref, err)
		}
	}

	invalid := []string{"", "BK-abc123", "BK-A1B2C", "BK-A1B2C3D", "XX-A1B2C3", "A1B2C3"}
	for _, ref := range invalid {
		if err := ValidateBookingReference(ref); err == nil {
			t.Errorf("ValidateBookingReference(%q) = nil, want error", ref)
		}
	}
}

func TestValidateAutoLoginToken(t *testing.T) {
	ok := "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
	if err := ValidateAutoLoginToken(ok); err != nil {
		t.Errorf("valid token rejected: %v", err)
	}

	bad := []string{"", "short", ok[:63], ok + "0", "0123456789ABCDEF0123456789abcdef0123456789abcdef0123456789abcdef"}
	for _, token := range bad {
		if err := ValidateAutoLoginToken(token); err == nil {
			t.Errorf("ValidateAutoLoginToken(%q) = nil, want error", token)
		}
	}
}

func TestValidateDateRange(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	start := now.Add(48 * time.Hour)
	end := start.Add(72 * time.Hour)

	if err := ValidateDateRange(start, end, now); err != nil {
		t.Errorf("valid range rejected: %v", err)
	}
	if err := ValidateDateRange(end, start, now); err == nil {
		t.Error("end before start must be rejected")
	}
	if err := ValidateDateRange(start, start, now); err == nil {
		t.Error("zero-length range must be rejected")
	}
	if err := ValidateDateRange(now.Add(-time.Hour), end, now); err == nil {
		t.Error("past start must be rejected")
	}
}

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("alex@example.com"); err != nil {
		t.Errorf("valid email rejected: %v", err)
	}
	for _, bad := range []string{"", "no-at-sign", "@example.com", "a@b"} {
		if err := ValidateEmail(bad); err == nil {
			t.Errorf("ValidateEmail(%q) = nil, want error", bad)
		}
	}
}
