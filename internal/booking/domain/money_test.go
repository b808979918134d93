package domain

import "testing"

func TestToMinorUnits(t *testing.T) {
	cases := []struct {
		amount float64
		want   int64
	}{
		{450.00, 45000},
		{200.00, 20000},
		{0.01, 1},
		{0, 0},
		{89.99, 8999},
		// float noise rounds to the nearest cent
		{19.999999999, 2000},
		{0.1 + 0.2, 30},
	}
	for _, tc := range cases {
		if got := ToMinorUnits(tc.amount); got != tc.want {
			t.Errorf("ToMinorUnits(%v) = %d, want %d", tc.amount, got, tc.want)
		}
	}
}

func TestFromMinorUnits(t *testing.T) {
	if got := FromMinorUnits(65000); got != 650.00 {
		t.Errorf("FromMinorUnits(65000) = %v, want 650", got)
	}
	if got := FromMinorUnits(1); got != 0.01 {
		t.Errorf("FromMinorUnits(1) = %v, want 0.01", got)
	}
}
