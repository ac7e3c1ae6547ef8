package playback

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/cwbudde/algo-delay/delay"
)

func newEngine(t *testing.T, dryWet float32) *delay.Engine {
	t.Helper()
	p := delay.NewDefaultParams()
	p.DryWet.Set(dryWet)
	p.Feedback.Set(0)
	p.DelayTime.Set(0.001)
	e := delay.NewEngine(p)
	if err := e.Reconfigure(8000, delay.MaxDelayTime); err != nil {
		t.Fatalf("Reconfigure: %v", err)
	}
	return e
}

func TestLoopSourceWrapsClip(t *testing.T) {
	clip := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src, err := NewLoopSource(newEngine(t, 0), clip)
	if err != nil {
		t.Fatalf("NewLoopSource: %v", err)
	}
	dst := make([]float32, 14)
	src.Process(dst)
	want := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0.1, -0.1, 0.2, -0.2, 0.3, -0.3, 0.1, -0.1}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("sample %d: got=%v want=%v", i, dst[i], want[i])
		}
	}
	if src.Loops() != 2 {
		t.Fatalf("loops=%d want 2", src.Loops())
	}
}

func TestLoopSourceStopKeepsTail(t *testing.T) {
	clip := make([]float32, 16)
	clip[0], clip[1] = 1, 1
	src, err := NewLoopSource(newEngine(t, 1), clip)
	if err != nil {
		t.Fatalf("NewLoopSource: %v", err)
	}
	// 8 samples of delay at 8 kHz; stop right after the impulse enters.
	first := make([]float32, 2)
	src.Process(first)
	src.Stop()
	tail := make([]float32, 20)
	src.Process(tail)

	var peak float32
	for _, v := range tail {
		if v > peak {
			peak = v
		}
	}
	if peak < 0.9 {
		t.Fatalf("expected echo after Stop, peak=%v", peak)
	}
}

func TestNewLoopSourceRejectsBadClip(t *testing.T) {
	e := newEngine(t, 0.5)
	if _, err := NewLoopSource(e, []float32{1}); err == nil {
		t.Fatalf("expected error for odd clip")
	}
	if _, err := NewLoopSource(nil, []float32{1, 1}); err == nil {
		t.Fatalf("expected error for nil engine")
	}
}

type rampSource struct{ next float32 }

func (r *rampSource) Process(dst []float32) {
	for i := range dst {
		dst[i] = r.next
		r.next += 0.25
	}
}

func TestStreamReaderEncodesFloat32LE(t *testing.T) {
	r := NewStreamReader(&rampSource{})
	p := make([]byte, 19)
	n, err := r.Read(p)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n != 16 {
		t.Fatalf("n=%d want 16", n)
	}
	for i := 0; i < 4; i++ {
		got := math.Float32frombits(binary.LittleEndian.Uint32(p[i*4:]))
		if want := float32(i) * 0.25; got != want {
			t.Fatalf("sample %d: got=%v want=%v", i, got, want)
		}
	}
	if n, _ := r.Read(make([]byte, 7)); n != 0 {
		t.Fatalf("short buffer should read 0 bytes, got %d", n)
	}
}
