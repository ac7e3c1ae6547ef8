package delay

import (
	"math"
	"sync/atomic"

	"github.com/cwbudde/algo-dsp/dsp/core"
)

// MaxDelayTime is the longest supported delay in seconds. Channel buffers are
// sized for exactly this much history.
const MaxDelayTime = 2.0

// Parameter IDs, as exposed to hosts and persisted state.
const (
	ParamDryWet    = "dryWet"
	ParamFeedback  = "feedback"
	ParamDelayTime = "delayTime"
)

// Parameter is a named, range-bounded float value shared between a control
// goroutine (writer) and the audio goroutine (reader). Reads and writes are
// single atomic operations; no locks are taken.
type Parameter struct {
	id       string
	name     string
	min, max float32
	def      float32

	bits      atomic.Uint32
	inGesture atomic.Bool
}

// NewParameter creates a parameter initialised to def (clamped to range).
func NewParameter(id, name string, min, max, def float32) *Parameter {
	if min > max {
		min, max = max, min
	}
	p := &Parameter{id: id, name: name, min: min, max: max, def: def}
	p.Set(def)
	return p
}

func (p *Parameter) ID() string       { return p.id }
func (p *Parameter) Name() string     { return p.name }
func (p *Parameter) Min() float32     { return p.min }
func (p *Parameter) Max() float32     { return p.max }
func (p *Parameter) Default() float32 { return p.def }

// Get returns the current value. Safe to call from the audio goroutine.
func (p *Parameter) Get() float32 {
	return math.Float32frombits(p.bits.Load())
}

// Set clamps v to the parameter range and publishes it. NaN is ignored.
func (p *Parameter) Set(v float32) {
	if v != v {
		return
	}
	c := float32(core.Clamp(float64(v), float64(p.min), float64(p.max)))
	p.bits.Store(math.Float32bits(c))
}

// Reset restores the default value.
func (p *Parameter) Reset() {
	p.Set(p.def)
}

// BeginGesture marks the start of a user edit, for automation recording.
func (p *Parameter) BeginGesture() { p.inGesture.Store(true) }

// EndGesture marks the end of a user edit.
func (p *Parameter) EndGesture() { p.inGesture.Store(false) }

// InGesture reports whether a user edit is in progress.
func (p *Parameter) InGesture() bool { return p.inGesture.Load() }

// Params holds the three control parameters of the delay.
type Params struct {
	DryWet    *Parameter
	Feedback  *Parameter
	DelayTime *Parameter
}

// Values is a plain copy of the parameter values.
type Values struct {
	DryWet    float32
	Feedback  float32
	DelayTime float32
}

// NewDefaultParams creates default parameters.
func NewDefaultParams() *Params {
	return &Params{
		DryWet:    NewParameter(ParamDryWet, "Dry Wet", 0.0, 1.0, 0.5),
		Feedback:  NewParameter(ParamFeedback, "Feedback", 0.0, 0.98, 0.5),
		DelayTime: NewParameter(ParamDelayTime, "Delay Time", 0.0, MaxDelayTime, 1.0),
	}
}

// Snapshot returns the current values.
func (p *Params) Snapshot() Values {
	return Values{
		DryWet:    p.DryWet.Get(),
		Feedback:  p.Feedback.Get(),
		DelayTime: p.DelayTime.Get(),
	}
}

// Apply writes all three values (each clamped by its parameter).
func (p *Params) Apply(v Values) {
	p.DryWet.Set(v.DryWet)
	p.Feedback.Set(v.Feedback)
	p.DelayTime.Set(v.DelayTime)
}

// All returns the parameters in host order.
func (p *Params) All() []*Parameter {
	return []*Parameter{p.DryWet, p.Feedback, p.DelayTime}
}

// ByID looks a parameter up by its ID.
func (p *Params) ByID(id string) (*Parameter, bool) {
	for _, param := range p.All() {
		if param.ID() == id {
			return param, true
		}
	}
	return nil, false
}
