package control

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-delay/delay"
)

func TestApplyCCScalesToRange(t *testing.T) {
	p := delay.NewDefaultParams()
	m := DefaultCCMap()

	if !ApplyCC(p, m, 0xb3, 22, 127) {
		t.Fatalf("expected time change on channel 4")
	}
	if got := p.DelayTime.Get(); got != delay.MaxDelayTime {
		t.Fatalf("time=%v want %v", got, delay.MaxDelayTime)
	}
	ApplyCC(p, m, 0xb0, 21, 127)
	if got := p.Feedback.Get(); math.Abs(float64(got)-0.98) > 1e-6 {
		t.Fatalf("feedback=%v want 0.98", got)
	}
	ApplyCC(p, m, 0xb0, 20, 0)
	if got := p.DryWet.Get(); got != 0 {
		t.Fatalf("dryWet=%v want 0", got)
	}
}

func TestApplyCCIgnoresOtherMessages(t *testing.T) {
	p := delay.NewDefaultParams()
	before := p.Snapshot()
	m := DefaultCCMap()
	if ApplyCC(p, m, 0x90, 20, 100) {
		t.Fatalf("note-on must not change parameters")
	}
	if ApplyCC(p, m, 0xb0, 64, 100) {
		t.Fatalf("unbound controller must not change parameters")
	}
	if p.Snapshot() != before {
		t.Fatalf("params changed: %+v", p.Snapshot())
	}
}

func TestParseCCMap(t *testing.T) {
	m, err := ParseCCMap("1=mix, 7=delayTime,")
	if err != nil {
		t.Fatalf("ParseCCMap: %v", err)
	}
	if m[1] != delay.ParamDryWet || m[7] != delay.ParamDelayTime || len(m) != 2 {
		t.Fatalf("unexpected map %v", m)
	}
	for _, bad := range []string{"1", "x=mix", "200=mix", "1=pan"} {
		if _, err := ParseCCMap(bad); err == nil {
			t.Fatalf("%q: expected error", bad)
		}
	}
}
