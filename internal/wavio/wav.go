package wavio

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	dspresample "github.com/cwbudde/algo-dsp/dsp/resample"
	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
)

// ReadWAVStereo decodes a WAV file into left/right channels. Mono files are
// duplicated to both channels; channels beyond the second are ignored.
func ReadWAVStereo(path string) ([]float64, []float64, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, err
	}
	defer f.Close()
	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, nil, 0, fmt.Errorf("invalid wav file: %s", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, nil, 0, err
	}
	if buf == nil || buf.Format == nil || buf.Format.NumChannels < 1 {
		return nil, nil, 0, fmt.Errorf("invalid wav buffer: %s", path)
	}
	ch := buf.Format.NumChannels
	frames := len(buf.Data) / ch
	left := make([]float64, frames)
	right := make([]float64, frames)
	for i := 0; i < frames; i++ {
		left[i] = float64(buf.Data[i*ch])
		if ch > 1 {
			right[i] = float64(buf.Data[i*ch+1])
		} else {
			right[i] = left[i]
		}
	}
	return left, right, buf.Format.SampleRate, nil
}

func ResampleIfNeeded(in []float64, fromRate int, toRate int) ([]float64, error) {
	if fromRate == toRate {
		return in, nil
	}
	r, err := dspresample.NewForRates(
		float64(fromRate),
		float64(toRate),
		dspresample.WithQuality(dspresample.QualityBest),
	)
	if err != nil {
		return nil, err
	}
	return r.Process(in), nil
}

// Interleave packs left/right into stereo interleaved float32 frames.
func Interleave(left []float64, right []float64) ([]float32, error) {
	if len(left) != len(right) {
		return nil, fmt.Errorf("left/right length mismatch")
	}
	data := make([]float32, len(left)*2)
	for i := 0; i < len(left); i++ {
		data[i*2] = float32(left[i])
		data[i*2+1] = float32(right[i])
	}
	return data, nil
}

// Deinterleave splits stereo interleaved frames into float64 channels.
func Deinterleave(interleaved []float32) ([]float64, []float64) {
	n := len(interleaved) / 2
	left := make([]float64, n)
	right := make([]float64, n)
	for i := 0; i < n; i++ {
		left[i] = float64(interleaved[i*2])
		right[i] = float64(interleaved[i*2+1])
	}
	return left, right
}

func WriteStereoInterleavedWAV(path string, samples []float32, sampleRate int) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)
	defer enc.Close()

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  sampleRate,
			NumChannels: 2,
		},
		Data:           samples,
		SourceBitDepth: 16,
	}
	return enc.Write(buf)
}

func StereoRMS(interleaved []float32) float64 {
	if len(interleaved) == 0 {
		return 0
	}

	var sum float64
	for _, s := range interleaved {
		v := float64(s)
		sum += v * v
	}

	return math.Sqrt(sum / float64(len(interleaved)))
}

// PeakAbs returns the largest absolute sample value.
func PeakAbs(interleaved []float32) float64 {
	var peak float64
	for _, s := range interleaved {
		if v := math.Abs(float64(s)); v > peak {
			peak = v
		}
	}
	return peak
}
