// Package fit recovers delay parameters from a dry/processed recording pair.
//
// An analytic seed is taken from the echo analysis; a mayfly search over the
// normalized parameter cube then refines it against the rendered output.
package fit

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/cwbudde/algo-delay/analysis"
	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/mayfly"
	"github.com/tphakala/simd/f64"
)

// Options controls the search.
type Options struct {
	Variant    string // ma, desma, olce, eobbma, gsasma, mpma, aoblmoa
	Population int
	MaxEvals   int
	RoundEvals int
	Seed       int64
	TimeBudget time.Duration // 0 means no limit
	Progress   func(evals int, best float64)
}

// DefaultOptions returns a small budget suited to short clips.
func DefaultOptions() Options {
	return Options{
		Variant:    "ma",
		Population: 12,
		MaxEvals:   600,
		RoundEvals: 200,
		Seed:       1,
	}
}

// Result is the outcome of Fit.
type Result struct {
	Values    delay.Values `json:"values"`
	Score     float64      `json:"score"`
	Seed      delay.Values `json:"seed"`
	SeedScore float64      `json:"seed_score"`
	Evals     int          `json:"evals"`
}

// Renderer runs a mono signal through a delay engine with fixed parameters.
// It reuses one engine and output buffer across calls.
type Renderer struct {
	engine *delay.Engine
	block  []float32
	out    []float64
}

func NewRenderer(sampleRate int) (*Renderer, error) {
	e := delay.NewEngine(nil)
	if err := e.Reconfigure(float64(sampleRate), delay.MaxDelayTime); err != nil {
		return nil, err
	}
	return &Renderer{engine: e, block: make([]float32, 256)}, nil
}

// Render returns the left output for in. The slice is reused by the next call.
func (r *Renderer) Render(v delay.Values, in []float64) []float64 {
	r.engine.Params().Apply(v)
	r.engine.Reset()
	if cap(r.out) < len(in) {
		r.out = make([]float64, len(in))
	}
	r.out = r.out[:len(in)]
	for start := 0; start < len(in); start += len(r.block) {
		n := min(len(r.block), len(in)-start)
		for i := 0; i < n; i++ {
			r.block[i] = float32(in[start+i])
		}
		blk := r.block[:n]
		// Both channels share the buffer; only the left result is kept.
		_ = r.engine.Process(blk, blk)
		for i := 0; i < n; i++ {
			r.out[start+i] = float64(blk[i])
		}
	}
	return r.out
}

// Score is the residual energy of got relative to want.
func Score(got []float64, want []float64) float64 {
	n := min(len(got), len(want))
	var num, den float64
	for i := 0; i < n; i++ {
		d := got[i] - want[i]
		num += d * d
		den += want[i] * want[i]
	}
	if den == 0 {
		return num
	}
	return num / den
}

// EstimateSeed derives parameter values analytically. The dry share is the
// least-squares gain of dry within processed; the remainder is analysed for
// lag and decay.
func EstimateSeed(dry []float64, processed []float64, sampleRate int) (delay.Values, error) {
	if len(dry) == 0 || len(dry) != len(processed) {
		return delay.Values{}, errors.New("dry and processed must be non-empty and equal length")
	}
	dot := f64.DotProductUnsafe(dry, processed)
	energy := f64.DotProductUnsafe(dry, dry)
	if energy == 0 {
		return delay.Values{}, errors.New("dry signal is silent")
	}
	gain := dot / energy
	residual := make([]float64, len(dry))
	for i := range dry {
		residual[i] = processed[i] - gain*dry[i]
	}

	maxLag := int(delay.MaxDelayTime*float64(sampleRate)) + 1
	rep, err := analysis.Analyze(dry, residual, sampleRate, maxLag, 4)
	if err != nil {
		return delay.Values{}, err
	}
	feedback := rep.MeanDecay
	if math.IsNaN(feedback) || feedback < 0 {
		feedback = 0
	}
	return delay.Values{
		DryWet:    float32(clamp(1-gain, 0, 1)),
		Feedback:  float32(clamp(feedback, 0, 0.98)),
		DelayTime: float32(clamp(rep.LagSeconds, 0, delay.MaxDelayTime)),
	}, nil
}

// Fit searches for parameter values whose rendering of dry best matches
// processed.
func Fit(dry []float64, processed []float64, sampleRate int, opts Options) (Result, error) {
	var res Result
	seed, err := EstimateSeed(dry, processed, sampleRate)
	if err != nil {
		return res, err
	}
	rnd, err := NewRenderer(sampleRate)
	if err != nil {
		return res, err
	}

	res.Seed = seed
	res.SeedScore = Score(rnd.Render(seed, dry), processed)
	res.Values = seed
	res.Score = res.SeedScore
	res.Evals = 1

	if opts.Population < 2 {
		opts.Population = 2
	}
	if opts.RoundEvals < 2*opts.Population {
		opts.RoundEvals = 2 * opts.Population
	}
	var deadline time.Time
	if opts.TimeBudget > 0 {
		deadline = time.Now().Add(opts.TimeBudget)
	}
	expired := func() bool { return !deadline.IsZero() && time.Now().After(deadline) }

	for round := 0; res.Evals < opts.MaxEvals && !expired(); round++ {
		budget := min(opts.RoundEvals, opts.MaxEvals-res.Evals)
		iters := max(1, budget/(2*opts.Population))
		cfg, err := newMayflyConfig(opts.Variant, opts.Population, 3, iters)
		if err != nil {
			return res, err
		}
		cfg.Rand = rand.New(rand.NewSource(opts.Seed + int64(round)*7919))
		cfg.ObjectiveFunc = func(pos []float64) float64 {
			if res.Evals >= opts.MaxEvals || expired() {
				return res.Score
			}
			res.Evals++
			v := fromNormalized(pos)
			s := Score(rnd.Render(v, dry), processed)
			if s < res.Score {
				res.Score = s
				res.Values = v
			}
			if opts.Progress != nil {
				opts.Progress(res.Evals, res.Score)
			}
			return s
		}
		before := res.Evals
		if _, err := runMayfly(cfg); err != nil {
			return res, err
		}
		if res.Evals == before {
			break
		}
	}
	return res, nil
}

func fromNormalized(pos []float64) delay.Values {
	return delay.Values{
		DryWet:    float32(clamp(pos[0], 0, 1)),
		Feedback:  float32(clamp(pos[1], 0, 1) * 0.98),
		DelayTime: float32(clamp(pos[2], 0, 1) * delay.MaxDelayTime),
	}
}

func newMayflyConfig(variant string, pop int, dims int, iters int) (*mayfly.Config, error) {
	var cfg *mayfly.Config
	switch variant {
	case "", "ma":
		cfg = mayfly.NewDefaultConfig()
	case "desma":
		cfg = mayfly.NewDESMAConfig()
	case "olce":
		cfg = mayfly.NewOLCEConfig()
	case "eobbma":
		cfg = mayfly.NewEOBBMAConfig()
	case "gsasma":
		cfg = mayfly.NewGSASMAConfig()
	case "mpma":
		cfg = mayfly.NewMPMAConfig()
	case "aoblmoa":
		cfg = mayfly.NewAOBLMOAConfig()
	default:
		return nil, fmt.Errorf("unsupported variant %q", variant)
	}
	cfg.ProblemSize = dims
	cfg.LowerBound = 0.0
	cfg.UpperBound = 1.0
	cfg.MaxIterations = iters
	cfg.NPop = pop
	cfg.NPopF = pop
	cfg.NC = 2 * pop
	cfg.NM = max(1, int(math.Round(0.05*float64(pop))))
	return cfg, nil
}

func runMayfly(cfg *mayfly.Config) (_ *mayfly.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("mayfly panic: %v", r)
		}
	}()
	return mayfly.Optimize(cfg)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
