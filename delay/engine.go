package delay

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-delay/dsp"
)

var (
	// ErrInvalidConfig is returned by Reconfigure for unusable arguments.
	ErrInvalidConfig = errors.New("delay: invalid configuration")
	// ErrNotConfigured is returned by block processing before Reconfigure.
	ErrNotConfigured = errors.New("delay: engine not configured")
	// ErrChannelMismatch is returned when channel slices differ in length.
	ErrChannelMismatch = errors.New("delay: channel length mismatch")
)

// Engine is a stereo feedback delay with a smoothed, fractional delay time.
//
// Process* and ProcessSample run on the audio goroutine and never allocate,
// block or lock. Parameters may be written concurrently from any goroutine.
// Reconfigure and Reset must not run concurrently with processing.
type Engine struct {
	params *Params

	sampleRate float64
	left       *dsp.ChannelBuffer
	right      *dsp.ChannelBuffer
	length     int

	writeCursor  int
	smoothedTime float64
	delaySamples float64

	feedbackLeft  float32
	feedbackRight float32
}

// NewEngine creates an unconfigured engine reading from params.
// A nil params uses NewDefaultParams.
func NewEngine(params *Params) *Engine {
	if params == nil {
		params = NewDefaultParams()
	}
	return &Engine{params: params}
}

// Reconfigure (re)allocates both channel buffers for sampleRate and
// maxDelaySeconds of history and resets the processing state.
func (e *Engine) Reconfigure(sampleRate float64, maxDelaySeconds float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%w: sample rate must be > 0: %f", ErrInvalidConfig, sampleRate)
	}
	if maxDelaySeconds <= 0 || math.IsNaN(maxDelaySeconds) || math.IsInf(maxDelaySeconds, 0) {
		return fmt.Errorf("%w: max delay must be > 0: %f", ErrInvalidConfig, maxDelaySeconds)
	}
	size := math.Floor(sampleRate * maxDelaySeconds)
	if size < 2 || size > math.MaxInt32 {
		return fmt.Errorf("%w: buffer length out of range: %.0f samples", ErrInvalidConfig, size)
	}
	length := int(size)

	// Drop the old buffers before building new ones.
	e.left, e.right = nil, nil
	e.left = dsp.NewChannelBuffer(length)
	e.right = dsp.NewChannelBuffer(length)
	e.length = length
	e.sampleRate = sampleRate

	e.writeCursor = 0
	e.smoothedTime = float64(e.params.DelayTime.Get())
	e.delaySamples = e.sampleRate * e.smoothedTime
	e.feedbackLeft = 0
	e.feedbackRight = 0
	return nil
}

// Reset clears the delay history and feedback without reallocating.
func (e *Engine) Reset() {
	if e.left == nil {
		return
	}
	e.left.Clear()
	e.right.Clear()
	e.writeCursor = 0
	e.smoothedTime = float64(e.params.DelayTime.Get())
	e.delaySamples = e.sampleRate * e.smoothedTime
	e.feedbackLeft = 0
	e.feedbackRight = 0
}

// ProcessSample processes one stereo sample pair. Before Reconfigure the
// input is returned unchanged.
func (e *Engine) ProcessSample(left, right float32) (float32, float32) {
	if e.left == nil {
		return left, right
	}

	dryWet := e.params.DryWet.Get()
	feedback := e.params.Feedback.Get()
	target := float64(e.params.DelayTime.Get())

	// Feedback from the previous sample re-enters here.
	e.left.Set(e.writeCursor, left+e.feedbackLeft)
	e.right.Set(e.writeCursor, right+e.feedbackRight)

	e.smoothedTime = dsp.SmoothTowards(e.smoothedTime, target, SmoothingAlpha)
	e.delaySamples = e.sampleRate * e.smoothedTime

	heads := NewReadHeads(delayReadPosition(e.writeCursor, e.delaySamples, e.length), e.length)
	frac := float32(heads.Fraction)
	wetLeft := dsp.LinInterpolate(e.left.At(heads.Current), e.left.At(heads.Next), frac)
	wetRight := dsp.LinInterpolate(e.right.At(heads.Current), e.right.At(heads.Next), frac)

	e.feedbackLeft = dsp.FlushDenormals(wetLeft * feedback)
	e.feedbackRight = dsp.FlushDenormals(wetRight * feedback)

	e.writeCursor = dsp.Wrap(e.writeCursor, e.length)

	return left*(1-dryWet) + wetLeft*dryWet,
		right*(1-dryWet) + wetRight*dryWet
}

// Process runs the delay in place over one block of left/right samples.
func (e *Engine) Process(left, right []float32) error {
	if e.left == nil {
		return ErrNotConfigured
	}
	if len(left) != len(right) {
		return fmt.Errorf("%w: left=%d right=%d", ErrChannelMismatch, len(left), len(right))
	}
	for i := range left {
		left[i], right[i] = e.ProcessSample(left[i], right[i])
	}
	return nil
}

// ProcessInterleaved runs the delay over stereo interleaved frames from src
// into dst. dst may alias src.
func (e *Engine) ProcessInterleaved(dst, src []float32) error {
	if e.left == nil {
		return ErrNotConfigured
	}
	if len(src)%2 != 0 {
		return fmt.Errorf("%w: odd interleaved length %d", ErrChannelMismatch, len(src))
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: dst=%d src=%d", ErrChannelMismatch, len(dst), len(src))
	}
	for i := 0; i < len(src); i += 2 {
		dst[i], dst[i+1] = e.ProcessSample(src[i], src[i+1])
	}
	return nil
}

// Params returns the parameters the engine reads.
func (e *Engine) Params() *Params { return e.params }

// Configured reports whether Reconfigure has succeeded at least once.
func (e *Engine) Configured() bool { return e.left != nil }

// SampleRate returns the configured sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// BufferLength returns the per-channel history length in samples.
func (e *Engine) BufferLength() int { return e.length }

// SmoothedDelayTime returns the smoothed delay time in seconds.
func (e *Engine) SmoothedDelayTime() float64 { return e.smoothedTime }

// DelaySamples returns the current smoothed delay in samples.
func (e *Engine) DelaySamples() float64 { return e.delaySamples }
