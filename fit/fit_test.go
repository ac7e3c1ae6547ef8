package fit

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-delay/delay"
)

const testRate = 8000

func testClip() []float64 {
	dry := make([]float64, testRate)
	for i := 0; i < 40; i++ {
		dry[i] = (1 - float64(i)/40) * math.Sin(float64(i)*0.7)
	}
	return dry
}

func TestRenderMatchesEngine(t *testing.T) {
	r, err := NewRenderer(testRate)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	v := delay.Values{DryWet: 1, Feedback: 0, DelayTime: 0.1}
	in := make([]float64, 1000)
	in[0] = 1
	out := r.Render(v, in)
	if math.Abs(out[800]-1) > 1e-4 {
		t.Fatalf("echo at 800 = %v, want 1", out[800])
	}
	// A second render must not see state left over from the first.
	again := r.Render(v, make([]float64, 1000))
	for i, s := range again {
		if s != 0 {
			t.Fatalf("stale output at %d: %v", i, s)
		}
	}
}

func TestScore(t *testing.T) {
	want := []float64{1, 0, -1}
	if s := Score(want, want); s != 0 {
		t.Fatalf("identical score=%v", s)
	}
	if s := Score([]float64{0, 0, 0}, want); math.Abs(s-1) > 1e-12 {
		t.Fatalf("silence score=%v want 1", s)
	}
}

func TestEstimateSeedRecoversParameters(t *testing.T) {
	dry := testClip()
	target := delay.Values{DryWet: 0.4, Feedback: 0.5, DelayTime: 0.1}
	r, err := NewRenderer(testRate)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	processed := append([]float64(nil), r.Render(target, dry)...)

	seed, err := EstimateSeed(dry, processed, testRate)
	if err != nil {
		t.Fatalf("EstimateSeed: %v", err)
	}
	if math.Abs(float64(seed.DelayTime-target.DelayTime)) > 1.0/testRate {
		t.Fatalf("time=%v want %v", seed.DelayTime, target.DelayTime)
	}
	if math.Abs(float64(seed.DryWet-target.DryWet)) > 0.01 {
		t.Fatalf("dryWet=%v want %v", seed.DryWet, target.DryWet)
	}
	if math.Abs(float64(seed.Feedback-target.Feedback)) > 0.02 {
		t.Fatalf("feedback=%v want %v", seed.Feedback, target.Feedback)
	}
}

func TestFitNeverWorseThanSeed(t *testing.T) {
	dry := testClip()
	target := delay.Values{DryWet: 0.6, Feedback: 0.3, DelayTime: 0.05}
	r, err := NewRenderer(testRate)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	processed := append([]float64(nil), r.Render(target, dry)...)

	opts := DefaultOptions()
	opts.Population = 4
	opts.MaxEvals = 40
	opts.RoundEvals = 20
	res, err := Fit(dry, processed, testRate, opts)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if res.Score > res.SeedScore {
		t.Fatalf("score %v worse than seed %v", res.Score, res.SeedScore)
	}
	if res.Score > 1e-3 {
		t.Fatalf("score=%v values=%+v", res.Score, res.Values)
	}
	if res.Evals > opts.MaxEvals {
		t.Fatalf("evals=%d exceeds budget %d", res.Evals, opts.MaxEvals)
	}
}

func TestFitRejectsBadInput(t *testing.T) {
	if _, err := Fit(nil, nil, testRate, DefaultOptions()); err == nil {
		t.Fatalf("expected error for empty input")
	}
	if _, err := Fit(make([]float64, 10), make([]float64, 10), testRate, DefaultOptions()); err == nil {
		t.Fatalf("expected error for silent dry")
	}
	opts := DefaultOptions()
	opts.Variant = "nope"
	if _, err := Fit(testClip(), testClip(), testRate, opts); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}
