package delay

import (
	"math"
	"testing"
)

func TestSmoothingResidual(t *testing.T) {
	if got := SmoothingResidual(0); got != 1 {
		t.Fatalf("residual at 0: got=%v want=1", got)
	}
	prev := float32(1)
	for _, n := range []int{100, 1000, 10000, 50000, 100000} {
		got := SmoothingResidual(n)
		want := math.Pow(1-SmoothingAlpha, float64(n))
		if math.Abs(float64(got)-want) > 0.1*want+1e-6 {
			t.Fatalf("n=%d: got=%v want=%v", n, got, want)
		}
		if got > prev {
			t.Fatalf("residual increased at n=%d", n)
		}
		prev = got
	}
}

func TestSettleSamples(t *testing.T) {
	n := SettleSamples(0.01)
	// ln(0.01)/ln(1-1e-4) ~ 46049
	if n < 46000 || n > 46100 {
		t.Fatalf("settle samples for 1%%: got=%d", n)
	}
	if SettleSamples(1) != 0 {
		t.Fatalf("settle samples for residual 1 should be 0")
	}
	if SettleSamples(0) != math.MaxInt32 {
		t.Fatalf("settle samples for residual 0 should saturate")
	}
}
