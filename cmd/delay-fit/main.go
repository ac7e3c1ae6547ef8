package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/fit"
	"github.com/cwbudde/algo-delay/internal/wavio"
	"github.com/cwbudde/algo-delay/state"
)

func main() {
	dryPath := flag.String("dry", "", "Dry input WAV path")
	processedPath := flag.String("processed", "", "Processed (delayed) WAV path")
	variant := flag.String("variant", "ma", "Mayfly variant: ma, desma, olce, eobbma, gsasma, mpma, aoblmoa")
	pop := flag.Int("pop", 12, "Mayfly population size")
	maxEvals := flag.Int("max-evals", 600, "Maximum number of render evaluations")
	roundEvals := flag.Int("round-evals", 200, "Evaluations per mayfly round")
	seed := flag.Int64("seed", 1, "Random seed")
	timeBudget := flag.Float64("time-budget", 0, "Wall-clock limit in seconds (0 = none)")
	maxSeconds := flag.Float64("max-seconds", 6, "Only compare the first N seconds")
	reportEvery := flag.Int("report-every", 50, "Print progress every N evaluations (0 = off)")
	outputPreset := flag.String("output-preset", "", "Write the fitted values as a JSON preset (optional)")
	outputState := flag.String("output-state", "", "Write the fitted values as a state blob (optional)")
	jsonOut := flag.Bool("json", false, "Print the result as JSON")
	flag.Parse()

	if *dryPath == "" || *processedPath == "" {
		die("both -dry and -processed are required")
	}

	dry, dryRate, err := readLeft(*dryPath)
	if err != nil {
		die("Error reading dry input: %v", err)
	}
	processed, procRate, err := readLeft(*processedPath)
	if err != nil {
		die("Error reading processed input: %v", err)
	}
	if processed, err = wavio.ResampleIfNeeded(processed, procRate, dryRate); err != nil {
		die("Error resampling processed input: %v", err)
	}

	n := min(len(dry), len(processed))
	if limit := int(*maxSeconds * float64(dryRate)); *maxSeconds > 0 && limit < n {
		n = limit
	}
	dry, processed = dry[:n], processed[:n]
	fmt.Printf("Fitting %d frames at %d Hz (variant %s, max %d evals)\n", n, dryRate, *variant, *maxEvals)

	opts := fit.Options{
		Variant:    *variant,
		Population: *pop,
		MaxEvals:   *maxEvals,
		RoundEvals: *roundEvals,
		Seed:       *seed,
		TimeBudget: time.Duration(*timeBudget * float64(time.Second)),
	}
	if *reportEvery > 0 && !*jsonOut {
		start := time.Now()
		opts.Progress = func(evals int, best float64) {
			if evals%*reportEvery == 0 {
				fmt.Printf("Progress eval=%d/%d elapsed=%.1fs best=%.6f\n", evals, *maxEvals, time.Since(start).Seconds(), best)
			}
		}
	}

	res, err := fit.Fit(dry, processed, dryRate, opts)
	if err != nil {
		die("Fit failed: %v", err)
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
	} else {
		fmt.Printf("Seed:   %s (score %.6f)\n", describe(res.Seed), res.SeedScore)
		fmt.Printf("Fitted: %s (score %.6f, %d evals)\n", describe(res.Values), res.Score, res.Evals)
	}

	params := delay.NewDefaultParams()
	params.Apply(res.Values)
	if *outputPreset != "" {
		if err := state.SaveJSON(*outputPreset, params); err != nil {
			die("Error writing preset: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote preset %s\n", *outputPreset)
	}
	if *outputState != "" {
		if err := state.WriteFile(*outputState, params); err != nil {
			die("Error writing state: %v", err)
		}
		fmt.Fprintf(os.Stderr, "Wrote state %s\n", *outputState)
	}
}

func readLeft(path string) ([]float64, int, error) {
	left, _, rate, err := wavio.ReadWAVStereo(path)
	return left, rate, err
}

func describe(v delay.Values) string {
	return fmt.Sprintf("dry/wet %.3f feedback %.3f time %.4fs", v.DryWet, v.Feedback, v.DelayTime)
}

func die(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
