package models

import "testing"

func TestStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusVerifiedAgg, true},
		{StatusPending, StatusRejected, true},
		{StatusPending, StatusSpam, true},
		{StatusPending, StatusAPIVerified, false},
		{StatusAPIVerified, StatusVerifiedAgg, false},
		{StatusAPIVerified, StatusRejected, false},
		{StatusVerifiedAgg, StatusPending, false},
		{StatusRejected, StatusVerifiedAgg, false},
		{StatusSpam, StatusPending, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestStatus_AggregationEligible(t *testing.T) {
	eligible := []Status{StatusAPIVerified, StatusVerifiedAgg}
	for _, s := range eligible {
		if !s.AggregationEligible() {
			t.Errorf("expected %s to be aggregation eligible", s)
		}
	}

	ineligible := []Status{StatusPending, StatusRejected, StatusSpam}
	for _, s := range ineligible {
		if s.AggregationEligible() {
			t.Errorf("expected %s to not be aggregation eligible", s)
		}
	}
}

func TestValidCoordinates(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{0, 0, true},
		{-90, -180, true},
		{90, 180, true},
		{90.01, 0, false},
		{-90.01, 0, false},
		{0, 180.01, false},
		{0, -180.01, false},
	}

	for _, tt := range tests {
		if got := ValidCoordinates(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidCoordinates(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}
