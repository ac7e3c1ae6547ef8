package playback

import (
	"encoding/binary"
	"math"
	"sync"
)

// StreamReader adapts a SampleSource to io.Reader, producing 8 bytes per
// stereo frame.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }
