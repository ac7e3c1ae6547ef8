package delay

import (
	"math"

	"github.com/cwbudde/algo-approx"
)

// SmoothingAlpha is the per-sample coefficient of the one-pole smoother
// applied to the delay-time parameter.
const SmoothingAlpha = 0.0001

// SmoothingResidual returns the fraction of a delay-time step that is still
// pending after n samples, (1-SmoothingAlpha)^n.
func SmoothingResidual(n int) float32 {
	if n <= 0 {
		return 1
	}
	lnDecay := math.Log1p(-SmoothingAlpha)
	return approx.FastExp(float32(float64(n) * lnDecay))
}

// SettleSamples returns the number of samples after which the residual of a
// delay-time step drops below residual.
func SettleSamples(residual float32) int {
	if residual >= 1 {
		return 0
	}
	if residual <= 0 {
		return math.MaxInt32
	}
	n := math.Log(float64(residual)) / math.Log1p(-SmoothingAlpha)
	return int(math.Ceil(n))
}
