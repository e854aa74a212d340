package analytics

import (
	"math"
	"strings"
	"testing"
)

func TestPearson(t *testing.T) {
	t.Parallel()

	if got, ok := pearson([]float64{1, 2, 3}, []float64{2, 4, 6}); !ok || math.Abs(got-1) > 1e-9 {
		t.Fatalf("perfect positive: got %v ok=%v", got, ok)
	}
	if got, ok := pearson([]float64{1, 2, 3}, []float64{6, 4, 2}); !ok || math.Abs(got+1) > 1e-9 {
		t.Fatalf("perfect negative: got %v ok=%v", got, ok)
	}
	if _, ok := pearson([]float64{1}, []float64{2}); ok {
		t.Fatalf("single pair must not correlate")
	}
	if _, ok := pearson([]float64{5, 5, 5}, []float64{1, 2, 3}); ok {
		t.Fatalf("constant series must not correlate")
	}
	if _, ok := pearson([]float64{1, 2}, []float64{1, 2, 3}); ok {
		t.Fatalf("length mismatch must not correlate")
	}
}

func TestInterpretCorrelation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		corr float64
		want string
	}{
		{0.85, "strong positive"},
		{0.5, "moderate positive"},
		{0.0, "weak or no correlation"},
		{-0.5, "moderate negative"},
		{-0.9, "strong negative"},
	}
	for _, tc := range cases {
		if got := interpretCorrelation(tc.corr); !strings.HasPrefix(got, tc.want) {
			t.Fatalf("interpretCorrelation(%v) = %q, want prefix %q", tc.corr, got, tc.want)
		}
	}
}

func TestInterpretPrediction(t *testing.T) {
	t.Parallel()

	if got := interpretPrediction("bullish", 0.9); !strings.HasPrefix(got, "strong bullish") {
		t.Fatalf("got %q", got)
	}
	if got := interpretPrediction("bullish", 0.55); !strings.HasPrefix(got, "moderate bullish") {
		t.Fatalf("got %q", got)
	}
	if got := interpretPrediction("bearish", 0.8); !strings.HasPrefix(got, "strong bearish") {
		t.Fatalf("got %q", got)
	}
	if got := interpretPrediction("neutral", 0.4); !strings.HasPrefix(got, "neutral signal") {
		t.Fatalf("got %q", got)
	}
	if got := interpretPrediction("unknown", 0); got != "insufficient data for prediction" {
		t.Fatalf("got %q", got)
	}
}

func TestDisagreementLevel(t *testing.T) {
	t.Parallel()

	cases := []struct {
		stdev float64
		want  string
	}{
		{0.35, "high"},
		{0.3, "high"},
		{0.2, "moderate"},
		{0.1, "low"},
	}
	for _, tc := range cases {
		if got := disagreementLevel(tc.stdev); got != tc.want {
			t.Fatalf("disagreementLevel(%v) = %q, want %q", tc.stdev, got, tc.want)
		}
	}
}
