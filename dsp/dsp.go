package dsp

// ChannelBuffer is a fixed-length circular sample history for one channel
// (no heap allocations after construction)
type ChannelBuffer struct {
	samples []float32
}

// NewChannelBuffer creates a zero-filled buffer with the given length
func NewChannelBuffer(length int) *ChannelBuffer {
	if length < 0 {
		length = 0
	}
	return &ChannelBuffer{
		samples: make([]float32, length),
	}
}

// Len returns the buffer length in samples
func (b *ChannelBuffer) Len() int {
	return len(b.samples)
}

// At returns the sample stored at index i. i must be in [0, Len).
func (b *ChannelBuffer) At(i int) float32 {
	return b.samples[i]
}

// Set stores a sample at index i. i must be in [0, Len).
func (b *ChannelBuffer) Set(i int, v float32) {
	b.samples[i] = v
}

// Clear zero-fills the buffer
func (b *ChannelBuffer) Clear() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}

// Wrap advances index i by one and wraps it at length
func Wrap(i int, length int) int {
	i++
	if i >= length {
		return 0
	}
	return i
}

// LinInterpolate blends x and y by phase in [0,1]:
// phase 0 returns x, phase 1 returns y
func LinInterpolate(x, y, phase float32) float32 {
	return (1-phase)*x + phase*y
}

// SmoothTowards performs one step of a one-pole exponential smoother.
// It works in float64 so small steps near the target are not lost.
func SmoothTowards(current, target, alpha float64) float64 {
	return current - alpha*(current-target)
}

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}
