package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/window"
)

// Echo is one detected repetition of the dry signal in the wet output.
type Echo struct {
	Index int     `json:"index"`
	Level float64 `json:"level"`
}

// Report summarises how a delay transformed a dry signal.
type Report struct {
	SampleRate int `json:"sample_rate"`

	LagSamples int     `json:"lag_samples"`
	LagSeconds float64 `json:"lag_seconds"`

	Echoes    []Echo  `json:"echoes"`
	MeanDecay float64 `json:"mean_decay"`

	ColorationDB float64 `json:"coloration_db"`
}

// Analyze estimates the delay lag of wet relative to dry, the level of up to
// repeats echoes of the strongest dry sample, and the spectral coloration of
// the first echo.
func Analyze(dry []float64, wet []float64, sampleRate int, maxLag int, repeats int) (Report, error) {
	r := Report{SampleRate: sampleRate}
	if sampleRate <= 0 {
		return r, fmt.Errorf("sample rate must be > 0: %d", sampleRate)
	}
	lag, err := EstimateLag(dry, wet, maxLag)
	if err != nil {
		return r, err
	}
	r.LagSamples = lag
	r.LagSeconds = float64(lag) / float64(sampleRate)
	if lag <= 0 {
		return r, nil
	}

	peak := argMaxAbs(dry)
	r.Echoes = EchoLevels(wet, peak+lag, lag, repeats, 4)
	r.MeanDecay = MeanDecay(r.Echoes)

	n := len(dry)
	if len(wet)-lag < n {
		n = len(wet) - lag
	}
	if n > 0 {
		r.ColorationDB = Coloration(dry[:n], wet[lag:lag+n])
	}
	return r, nil
}

// EstimateLag returns the non-negative shift in [0, maxLag] at which cand
// best matches ref, using an FFT cross-correlation.
func EstimateLag(ref []float64, cand []float64, maxLag int) (int, error) {
	if len(ref) == 0 || len(cand) == 0 {
		return 0, nil
	}
	a := toFloat32(cand)
	b := make([]float32, len(ref))
	for i, v := range ref {
		b[len(ref)-1-i] = float32(v)
	}
	corr := make([]float32, len(a)+len(b)-1)
	if err := algofft.ConvolveReal(corr, a, b); err != nil {
		return 0, fmt.Errorf("cross-correlation: %w", err)
	}

	zero := len(ref) - 1
	if maxLag < 0 || zero+maxLag >= len(corr) {
		maxLag = len(corr) - 1 - zero
	}
	best := 0
	bestVal := float32(math.Inf(-1))
	for lag := 0; lag <= maxLag; lag++ {
		if v := corr[zero+lag]; v > bestVal {
			bestVal = v
			best = lag
		}
	}
	return best, nil
}

// EchoLevels measures the peak magnitude of x near first + k*interval for
// k = 0..count-1. The search window widens by one sample per repeat because
// feedback re-enters one sample after it is read.
func EchoLevels(x []float64, first int, interval int, count int, search int) []Echo {
	if interval <= 0 || count <= 0 {
		return nil
	}
	out := make([]Echo, 0, count)
	for k := 0; k < count; k++ {
		center := first + k*interval
		lo := center - search
		hi := center + search + k
		if lo < 0 {
			lo = 0
		}
		if hi >= len(x) {
			hi = len(x) - 1
		}
		if lo > hi {
			break
		}
		best := lo
		for i := lo + 1; i <= hi; i++ {
			if math.Abs(x[i]) > math.Abs(x[best]) {
				best = i
			}
		}
		out = append(out, Echo{Index: best, Level: math.Abs(x[best])})
	}
	return out
}

// MeanDecay returns the geometric mean ratio between successive echo levels.
func MeanDecay(echoes []Echo) float64 {
	if len(echoes) < 2 {
		return math.NaN()
	}
	var sum float64
	n := 0
	for i := 1; i < len(echoes); i++ {
		if echoes[i-1].Level <= 1e-12 || echoes[i].Level <= 1e-12 {
			break
		}
		sum += math.Log(echoes[i].Level / echoes[i-1].Level)
		n++
	}
	if n == 0 {
		return 0
	}
	return math.Exp(sum / float64(n))
}

// Coloration returns the RMS difference in dB between the averaged magnitude
// spectra of a and b, after normalising both to the same RMS. A pure delay
// has no coloration.
func Coloration(a []float64, b []float64) float64 {
	const fftSize = 4096
	const hop = fftSize / 2

	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if n < fftSize {
		return 0
	}
	plan, err := algofft.NewPlanReal64(fftSize)
	if err != nil {
		return math.NaN()
	}

	ga := 1 / math.Max(rms1(a[:n]), 1e-12)
	gb := 1 / math.Max(rms1(b[:n]), 1e-12)

	hann := make([]float64, fftSize)
	for i := range hann {
		hann[i] = 1
	}
	window.Hann(hann)
	bins := fftSize / 2
	specA := make([]complex128, bins+1)
	specB := make([]complex128, bins+1)
	bufA := make([]float64, fftSize)
	bufB := make([]float64, fftSize)
	avgA := make([]float64, bins)
	avgB := make([]float64, bins)

	for pos := 0; pos+fftSize <= n; pos += hop {
		for i := 0; i < fftSize; i++ {
			bufA[i] = a[pos+i] * ga * hann[i]
			bufB[i] = b[pos+i] * gb * hann[i]
		}
		plan.Forward(specA, bufA)
		plan.Forward(specB, bufB)
		for k := 1; k < bins; k++ {
			avgA[k] += cmplx.Abs(specA[k])
			avgB[k] += cmplx.Abs(specB[k])
		}
	}

	var sum float64
	for k := 1; k < bins; k++ {
		d := linToDB(avgA[k]) - linToDB(avgB[k])
		sum += d * d
	}
	return math.Sqrt(sum / float64(bins-1))
}

func argMaxAbs(x []float64) int {
	best := 0
	for i := range x {
		if math.Abs(x[i]) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}

func toFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}

func rms1(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return math.Sqrt(f64.DotProductUnsafe(x, x) / float64(len(x)))
}

func linToDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20.0 * math.Log10(x)
}
