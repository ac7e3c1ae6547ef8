package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/algo-delay/delay"
)

func TestLoadJSONAppliesValues(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	content := `{
  "dry_wet": 0.35,
  "feedback": 0.6,
  "delay_time": 0.375
}`
	if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}

	p, err := LoadJSON(presetPath)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	v := p.Snapshot()
	if v.DryWet != 0.35 || v.Feedback != 0.6 || v.DelayTime != 0.375 {
		t.Fatalf("values mismatch: %+v", v)
	}
}

func TestLoadJSONKeepsDefaultsForMissingKeys(t *testing.T) {
	dir := t.TempDir()
	presetPath := filepath.Join(dir, "preset.json")
	if err := os.WriteFile(presetPath, []byte(`{"feedback": 0.2}`), 0o644); err != nil {
		t.Fatalf("write preset: %v", err)
	}
	p, err := LoadJSON(presetPath)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	v := p.Snapshot()
	if v.Feedback != 0.2 || v.DryWet != 0.5 || v.DelayTime != 1.0 {
		t.Fatalf("values mismatch: %+v", v)
	}
}

func TestLoadJSONRejectsInvalidRanges(t *testing.T) {
	cases := []string{
		`{"feedback": 0.99}`,
		`{"dry_wet": -0.1}`,
		`{"delay_time": 2.5}`,
	}
	for _, content := range cases {
		dir := t.TempDir()
		presetPath := filepath.Join(dir, "preset.json")
		if err := os.WriteFile(presetPath, []byte(content), 0o644); err != nil {
			t.Fatalf("write preset: %v", err)
		}
		if _, err := LoadJSON(presetPath); err == nil {
			t.Fatalf("expected error for %s", content)
		}
	}
}

func TestApplyFileIsAllOrNothing(t *testing.T) {
	p := delay.NewDefaultParams()
	dryWet := 0.1
	feedback := 5.0
	if err := ApplyFile(p, &File{DryWet: &dryWet, Feedback: &feedback}); err == nil {
		t.Fatalf("expected range error")
	}
	if p.DryWet.Get() != 0.5 {
		t.Fatalf("partial apply on error: dry/wet=%v", p.DryWet.Get())
	}
}

func TestSaveJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets", "slapback.json")
	src := delay.NewDefaultParams()
	src.Apply(delay.Values{DryWet: 0.25, Feedback: 0.125, DelayTime: 0.0625})
	if err := SaveJSON(path, src); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	p, err := LoadJSON(path)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	if p.Snapshot() != src.Snapshot() {
		t.Fatalf("values mismatch: got=%+v want=%+v", p.Snapshot(), src.Snapshot())
	}
}
