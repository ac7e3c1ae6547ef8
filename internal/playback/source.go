// Package playback feeds a looped stereo clip through a delay engine and
// exposes the result as a float32 little-endian byte stream.
package playback

import (
	"errors"
	"sync/atomic"

	"github.com/cwbudde/algo-delay/delay"
)

// SampleSource fills interleaved stereo frames.
type SampleSource interface {
	Process(dst []float32)
}

// LoopSource plays an interleaved stereo clip in a loop through an engine.
// Process must only be called from the audio goroutine; Stop and Loops are
// safe from any goroutine.
type LoopSource struct {
	engine *delay.Engine
	clip   []float32
	pos    int
	loops  atomic.Int64
	muted  atomic.Bool
}

// NewLoopSource returns a source reading clip (interleaved stereo). The engine
// must already be configured for the playback sample rate.
func NewLoopSource(engine *delay.Engine, clip []float32) (*LoopSource, error) {
	if engine == nil {
		return nil, errors.New("nil engine")
	}
	if len(clip) < 2 || len(clip)%2 != 0 {
		return nil, errors.New("clip must hold at least one interleaved stereo frame")
	}
	return &LoopSource{engine: engine, clip: clip}, nil
}

// Process copies the next frames of the clip into dst and runs the engine
// over them in place. After Stop the input is silent so only echoes remain.
func (s *LoopSource) Process(dst []float32) {
	muted := s.muted.Load()
	for i := 0; i+1 < len(dst); i += 2 {
		if muted {
			dst[i], dst[i+1] = 0, 0
			continue
		}
		dst[i] = s.clip[s.pos]
		dst[i+1] = s.clip[s.pos+1]
		s.pos += 2
		if s.pos >= len(s.clip) {
			s.pos = 0
			s.loops.Add(1)
		}
	}
	n := len(dst) &^ 1
	_ = s.engine.ProcessInterleaved(dst[:n], dst[:n])
}

// Stop silences the input. The delay tail keeps sounding.
func (s *LoopSource) Stop() { s.muted.Store(true) }

// Loops reports how many times the clip has wrapped.
func (s *LoopSource) Loops() int64 { return s.loops.Load() }
