package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/cwbudde/algo-delay/analysis"
	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/internal/wavio"
	"github.com/cwbudde/algo-delay/state"
	"github.com/cwbudde/algo-dsp/dsp/core"
	"github.com/cwbudde/algo-dsp/dsp/signal"
)

func main() {
	// Command-line flags
	input := flag.String("input", "", "Input WAV path; if empty, a test signal is generated")
	signalKind := flag.String("signal", "click", "Generated test signal: impulse, click, sine or noise")
	duration := flag.Float64("duration", 1.0, "Generated signal duration in seconds")
	tail := flag.Float64("tail", 3.0, "Silence appended after the input so echoes can ring out, in seconds")
	sampleRate := flag.Int("sample-rate", 0, "Render sample rate in Hz (0 = input rate, 48000 for generated signals)")
	presetPath := flag.String("preset", "", "Preset JSON file path (optional)")
	statePath := flag.String("state", "", "Saved state blob to load (optional)")
	dryWet := flag.Float64("dry-wet", -1, "Dry/wet mix override in [0,1]")
	feedback := flag.Float64("feedback", -1, "Feedback override in [0,0.98]")
	delayTime := flag.Float64("time", -1, "Delay time override in seconds")
	timeTo := flag.Float64("time-to", -1, "Automate the delay time linearly towards this value over the render")
	blockSize := flag.Int("block-size", 128, "Processing block size in frames")
	output := flag.String("output", "output.wav", "Output WAV file path")
	saveState := flag.String("save-state", "", "Write the final parameter state blob to this path (optional)")
	jsonOut := flag.Bool("json", false, "Print the echo analysis as JSON")
	flag.Parse()

	params := delay.NewDefaultParams()
	if *presetPath != "" {
		p, err := state.LoadJSON(*presetPath)
		if err != nil {
			die("Error loading preset %q: %v", *presetPath, err)
		}
		params = p
	}
	if *statePath != "" {
		ok, err := state.ReadFile(*statePath, params)
		if err != nil {
			die("Error reading state %q: %v", *statePath, err)
		}
		if !ok {
			fmt.Fprintf(os.Stderr, "Warning: %s holds no delay state, keeping current parameters\n", *statePath)
		}
	}
	if *dryWet >= 0 {
		params.DryWet.Set(float32(*dryWet))
	}
	if *feedback >= 0 {
		params.Feedback.Set(float32(*feedback))
	}
	if *delayTime >= 0 {
		params.DelayTime.Set(float32(*delayTime))
	}
	if *blockSize < 1 {
		*blockSize = 1
	}

	left, right, rate, err := loadInput(*input, *signalKind, *duration, *sampleRate)
	if err != nil {
		die("Error loading input: %v", err)
	}
	tailFrames := int(*tail * float64(rate))
	if tailFrames > 0 {
		left = append(left, make([]float64, tailFrames)...)
		right = append(right, make([]float64, tailFrames)...)
	}
	totalFrames := len(left)

	v := params.Snapshot()
	fmt.Printf("Rendering %d frames at %d Hz (dry/wet %.2f, feedback %.2f, time %.3fs)...\n",
		totalFrames, rate, v.DryWet, v.Feedback, v.DelayTime)

	engine := delay.NewEngine(params)
	if err := engine.Reconfigure(float64(rate), delay.MaxDelayTime); err != nil {
		die("Error configuring delay: %v", err)
	}

	startTime := float64(v.DelayTime)
	automate := *timeTo >= 0
	blockL := make([]float32, *blockSize)
	blockR := make([]float32, *blockSize)
	samples := make([]float32, 0, totalFrames*2)

	framesRendered := 0
	for framesRendered < totalFrames {
		framesToRender := *blockSize
		if framesRendered+framesToRender > totalFrames {
			framesToRender = totalFrames - framesRendered
		}

		if automate {
			pos := float64(framesRendered) / float64(totalFrames)
			params.DelayTime.Set(float32(startTime + (*timeTo-startTime)*pos))
		}

		l := blockL[:framesToRender]
		r := blockR[:framesToRender]
		for i := 0; i < framesToRender; i++ {
			l[i] = float32(left[framesRendered+i])
			r[i] = float32(right[framesRendered+i])
		}
		if err := engine.Process(l, r); err != nil {
			die("Error processing block: %v", err)
		}
		for i := 0; i < framesToRender; i++ {
			samples = append(samples, l[i], r[i])
		}
		framesRendered += framesToRender
	}

	if err := wavio.WriteStereoInterleavedWAV(*output, samples, rate); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing WAV file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Successfully wrote %s (%d frames, peak %.3f, rms %.4f)\n",
		*output, totalFrames, wavio.PeakAbs(samples), wavio.StereoRMS(samples))

	settle := delay.SettleSamples(0.01)
	fmt.Printf("Delay-time smoothing reaches 1%% of a step after %d samples (%.2fs)\n",
		settle, float64(settle)/float64(rate))
	if automate {
		fmt.Printf("Final smoothed delay time %.4fs (target %.4fs)\n",
			engine.SmoothedDelayTime(), params.DelayTime.Get())
	} else {
		report(left, samples, rate, params.Snapshot(), *jsonOut)
	}

	if *saveState != "" {
		if err := state.WriteFile(*saveState, params); err != nil {
			die("Error saving state: %v", err)
		}
		fmt.Printf("Saved state to %s\n", *saveState)
	}
}

func loadInput(path string, kind string, duration float64, rate int) ([]float64, []float64, int, error) {
	if path != "" {
		left, right, fileRate, err := wavio.ReadWAVStereo(path)
		if err != nil {
			return nil, nil, 0, err
		}
		if rate <= 0 {
			return left, right, fileRate, nil
		}
		if left, err = wavio.ResampleIfNeeded(left, fileRate, rate); err != nil {
			return nil, nil, 0, err
		}
		if right, err = wavio.ResampleIfNeeded(right, fileRate, rate); err != nil {
			return nil, nil, 0, err
		}
		return left, right, rate, nil
	}

	if rate <= 0 {
		rate = 48000
	}
	frames := int(duration * float64(rate))
	if frames < 1 {
		frames = 1
	}
	mono, err := generate(kind, frames, rate)
	if err != nil {
		return nil, nil, 0, err
	}
	right := append([]float64(nil), mono...)
	return mono, right, rate, nil
}

func generate(kind string, frames int, rate int) ([]float64, error) {
	gen := signal.NewGenerator(core.WithSampleRate(float64(rate)))
	switch kind {
	case "impulse":
		out := make([]float64, frames)
		out[0] = 1
		return out, nil
	case "click":
		burst := rate / 200
		if burst < 1 {
			burst = 1
		}
		if burst > frames {
			burst = frames
		}
		noise, err := gen.WhiteNoise(0.8, burst)
		if err != nil {
			return nil, err
		}
		out := make([]float64, frames)
		for i := range noise {
			// Short linear fade keeps the burst click-like.
			out[i] = noise[i] * (1 - float64(i)/float64(burst))
		}
		return out, nil
	case "sine":
		return gen.Sine(440, 0.5, frames)
	case "noise":
		return gen.WhiteNoise(0.3, frames)
	default:
		return nil, fmt.Errorf("unknown signal %q (want impulse, click, sine or noise)", kind)
	}
}

// report estimates the echo timing and decay from the wet component of the
// left channel. The dry share is removed using the static dry/wet value.
func report(dry []float64, interleaved []float32, rate int, v delay.Values, jsonOut bool) {
	if v.DryWet <= 0 {
		fmt.Println("Dry/wet is 0, output is the dry signal; skipping echo analysis")
		return
	}
	n := len(interleaved) / 2
	maxFrames := rate * 12
	if n > maxFrames {
		n = maxFrames
	}
	wet := make([]float64, n)
	dw := float64(v.DryWet)
	for i := 0; i < n; i++ {
		wet[i] = (float64(interleaved[i*2]) - dry[i]*(1-dw)) / dw
	}

	maxLag := int(delay.MaxDelayTime*float64(rate)) + 1
	repeats := 4
	if v.Feedback == 0 {
		repeats = 1
	}
	r, err := analysis.Analyze(dry[:n], wet, rate, maxLag, repeats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Echo analysis failed: %v\n", err)
		return
	}

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(r)
		return
	}
	fmt.Printf("Measured echo lag: %d samples (%.4fs)\n", r.LagSamples, r.LagSeconds)
	for i, e := range r.Echoes {
		fmt.Printf("  repeat %d at %.4fs: %.1f dBFS\n", i+1, float64(e.Index)/float64(rate), levelDB(e.Level))
	}
	if !math.IsNaN(r.MeanDecay) {
		fmt.Printf("Mean decay per repeat: %.3f (feedback %.3f)\n", r.MeanDecay, v.Feedback)
	}
	fmt.Printf("Wet coloration vs dry: %.2f dB\n", r.ColorationDB)
}

func levelDB(x float64) float64 {
	if x < 1e-12 {
		x = 1e-12
	}
	return 20 * math.Log10(x)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
