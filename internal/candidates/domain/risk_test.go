package domain

import (
	"testing"
	"time"
)

func TestBandForBoundaries(t *testing.T) {
	cases := []struct {
		days int
		want RiskBand
	}{
		{0, RiskBandCritical},
		{7, RiskBandCritical},
		{8, RiskBandHigh},
		{15, RiskBandHigh},
		{16, RiskBandElevated},
		{30, RiskBandElevated},
		{31, RiskBandNormal},
		{90, RiskBandNormal},
	}

	for _, tc := range cases {
		if got := BandFor(tc.days); got != tc.want {
			t.Errorf("BandFor(%d) = %q, want %q", tc.days, got, tc.want)
		}
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		ends time.Time
		want int
	}{
		{"ends in ten days", time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC), 10},
		{"ends today", time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), 0},
		{"already lapsed", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), 0},
		{"ends tomorrow regardless of clock time", time.Date(2025, 3, 11, 23, 0, 0, 0, time.UTC), 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DaysRemaining(tc.ends, now); got != tc.want {
				t.Fatalf("DaysRemaining = %d, want %d", got, tc.want)
			}
		})
	}
}
