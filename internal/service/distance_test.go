package service_test

import (
	"math"
	"testing"

	"ridehail/internal/service"
)

func TestParseDistanceKm(t *testing.T) {
	testCases := []struct {
		in       string
		expected float64
		ok       bool
	}{
		{"2.8 km", 2.8, true},
		{"2.8km", 2.8, true},
		{"12", 12, true},
		{"1,200 m", 1.2, true},
		{"900m", 0.9, true},
		{"1 mi", 1.609344, true},
		{" 3.5 KM ", 3.5, true},
		{"", 0, false},
		{"far away", 0, false},
		{"-3 km", 0, false},
		{"3 parsecs", 0, false},
		{"NaN km", 0, false},
		{"Inf km", 0, false},
		{"infinity", 0, false},
		{"1e999 km", 0, false},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := service.ParseDistanceKm(tc.in)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v", tc.ok, ok)
			}
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
