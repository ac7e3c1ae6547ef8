package dsp

import (
	"math"
	"testing"
)

func TestLinInterpolateEndpoints(t *testing.T) {
	pairs := [][2]float32{{0, 1}, {1, 0}, {-0.5, 0.25}, {3, 3}, {-2, -7}}
	for _, p := range pairs {
		if got := LinInterpolate(p[0], p[1], 0); got != p[0] {
			t.Fatalf("phase 0: got=%v want=%v", got, p[0])
		}
		if got := LinInterpolate(p[0], p[1], 1); got != p[1] {
			t.Fatalf("phase 1: got=%v want=%v", got, p[1])
		}
	}
}

func TestLinInterpolateMonotonicInPhase(t *testing.T) {
	pairs := [][2]float32{{0, 1}, {1, 0}, {-0.5, 0.25}, {0.8, -0.9}}
	for _, p := range pairs {
		rising := p[1] >= p[0]
		prev := LinInterpolate(p[0], p[1], 0)
		for i := 1; i <= 100; i++ {
			cur := LinInterpolate(p[0], p[1], float32(i)/100)
			if rising && cur < prev-1e-6 {
				t.Fatalf("pair %v: not non-decreasing at step %d: prev=%v cur=%v", p, i, prev, cur)
			}
			if !rising && cur > prev+1e-6 {
				t.Fatalf("pair %v: not non-increasing at step %d: prev=%v cur=%v", p, i, prev, cur)
			}
			prev = cur
		}
	}
}

func TestSmoothTowardsConverges(t *testing.T) {
	const alpha = 0.0001
	v := 0.0
	prevErr := 1.0
	for i := 0; i < 50000; i++ {
		v = SmoothTowards(v, 1, alpha)
		e := 1 - v
		if e > prevErr {
			t.Fatalf("error grew at sample %d: prev=%v cur=%v", i, prevErr, e)
		}
		prevErr = e
	}
	if prevErr > 0.01 {
		t.Fatalf("residual after 50000 samples too large: %v", prevErr)
	}
}

func TestChannelBufferClearAndWrap(t *testing.T) {
	b := NewChannelBuffer(4)
	if b.Len() != 4 {
		t.Fatalf("len mismatch: got=%d want=4", b.Len())
	}
	for i := 0; i < b.Len(); i++ {
		b.Set(i, float32(i+1))
	}
	if b.At(3) != 4 {
		t.Fatalf("At(3): got=%v want=4", b.At(3))
	}
	b.Clear()
	for i := 0; i < b.Len(); i++ {
		if b.At(i) != 0 {
			t.Fatalf("index %d not cleared: %v", i, b.At(i))
		}
	}

	idx := 0
	for i := 0; i < 9; i++ {
		idx = Wrap(idx, b.Len())
		if idx < 0 || idx >= b.Len() {
			t.Fatalf("wrapped index out of range: %d", idx)
		}
	}
	if idx != 1 {
		t.Fatalf("index after 9 steps: got=%d want=1", idx)
	}
}

func TestFlushDenormals(t *testing.T) {
	if FlushDenormals(1e-35) != 0 || FlushDenormals(-1e-35) != 0 {
		t.Fatalf("tiny values should flush to zero")
	}
	if got := FlushDenormals(0.25); got != 0.25 {
		t.Fatalf("normal value changed: %v", got)
	}
	if got := FlushDenormals(float32(math.SmallestNonzeroFloat32)); got != 0 {
		t.Fatalf("subnormal not flushed: %v", got)
	}
}
