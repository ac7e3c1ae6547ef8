package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/algo-delay/delay"
)

// File is the JSON schema for delay presets.
type File struct {
	DryWet    *float64 `json:"dry_wet,omitempty"`
	Feedback  *float64 `json:"feedback,omitempty"`
	DelayTime *float64 `json:"delay_time,omitempty"`
}

// LoadJSON loads a preset JSON file and applies it on top of default params.
func LoadJSON(path string) (*delay.Params, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := json.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}

	p := delay.NewDefaultParams()
	if err := ApplyFile(p, &f); err != nil {
		return nil, fmt.Errorf("preset %s: %w", path, err)
	}
	return p, nil
}

// ApplyFile applies a parsed preset file onto an existing params object.
// Unlike state blobs, out-of-range preset values are reported as errors and
// nothing is applied.
func ApplyFile(dst *delay.Params, f *File) error {
	if dst == nil {
		return fmt.Errorf("nil destination params")
	}
	if f == nil {
		return nil
	}

	checks := []struct {
		name  string
		v     *float64
		param *delay.Parameter
	}{
		{"dry_wet", f.DryWet, dst.DryWet},
		{"feedback", f.Feedback, dst.Feedback},
		{"delay_time", f.DelayTime, dst.DelayTime},
	}
	for _, c := range checks {
		if c.v == nil {
			continue
		}
		if *c.v < float64(c.param.Min()) || *c.v > float64(c.param.Max()) || *c.v != *c.v {
			return fmt.Errorf("%s must be in [%g,%g]: %g", c.name, c.param.Min(), c.param.Max(), *c.v)
		}
	}
	for _, c := range checks {
		if c.v != nil {
			c.param.Set(float32(*c.v))
		}
	}
	return nil
}

// FileFromParams captures the current parameter values as a preset file.
func FileFromParams(p *delay.Params) *File {
	v := p.Snapshot()
	dryWet := float64(v.DryWet)
	feedback := float64(v.Feedback)
	delayTime := float64(v.DelayTime)
	return &File{DryWet: &dryWet, Feedback: &feedback, DelayTime: &delayTime}
}

// SaveJSON writes the current parameter values as a preset file.
func SaveJSON(path string, p *delay.Params) error {
	if p == nil {
		return fmt.Errorf("nil params")
	}
	b, err := json.MarshalIndent(FileFromParams(p), "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
