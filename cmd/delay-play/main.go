package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/internal/control"
	"github.com/cwbudde/algo-delay/internal/playback"
	"github.com/cwbudde/algo-delay/internal/wavio"
	"github.com/cwbudde/algo-delay/state"
	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

func main() {
	var (
		input      = flag.String("input", "", "WAV file to loop through the delay")
		presetPath = flag.String("preset", "", "preset JSON file (optional)")
		statePath  = flag.String("state", "", "saved state blob to load (optional)")
		bufferMs   = flag.Int("buffer-ms", 50, "player buffer size in milliseconds")
		tail       = flag.Float64("tail", 4.0, "seconds to let echoes ring out after quit")
		midiDevice = flag.Int("midi", -2, "portmidi input device for CC control (-1 = default, -2 = off)")
		ccMap      = flag.String("cc", "20=dryWet,21=feedback,22=delayTime", "MIDI controller bindings")
		midiEcho   = flag.Bool("midi-echo", false, "print parameter values on every MIDI change")
	)
	flag.Parse()

	if *input == "" {
		log.Fatal("-input is required")
	}
	params := delay.NewDefaultParams()
	if *presetPath != "" {
		p, err := state.LoadJSON(*presetPath)
		if err != nil {
			log.Fatal(err)
		}
		params = p
	}
	if *statePath != "" {
		if _, err := state.ReadFile(*statePath, params); err != nil {
			log.Fatal(err)
		}
	}

	left, right, rate, err := wavio.ReadWAVStereo(*input)
	if err != nil {
		log.Fatal(err)
	}
	clip, err := wavio.Interleave(left, right)
	if err != nil {
		log.Fatal(err)
	}

	engine := delay.NewEngine(params)
	if err := engine.Reconfigure(float64(rate), delay.MaxDelayTime); err != nil {
		log.Fatal(err)
	}
	src, err := playback.NewLoopSource(engine, clip)
	if err != nil {
		log.Fatal(err)
	}

	ctx := ebitaudio.NewContext(rate)
	pl, err := ctx.NewPlayerF32(playback.NewStreamReader(src))
	if err != nil {
		log.Fatal(err)
	}
	pl.SetBufferSize(time.Duration(*bufferMs) * time.Millisecond)
	pl.Play()
	defer pl.Close()

	if *midiDevice >= -1 {
		m, err := control.ParseCCMap(*ccMap)
		if err != nil {
			log.Fatal(err)
		}
		mi, err := openMIDI(*midiDevice, params, m, *midiEcho)
		if err != nil {
			log.Fatal(err)
		}
		defer mi.Close()
	}

	fmt.Printf("playing %s at %d Hz (%d frames)\n", *input, rate, len(left))
	fmt.Println(control.Describe(params))
	fmt.Println(control.Help)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		msg, err := control.Apply(params, scanner.Text())
		if errors.Is(err, control.ErrQuit) {
			break
		}
		if err != nil {
			fmt.Println("error:", err)
			continue
		}
		if msg != "" {
			fmt.Println(msg)
		}
	}

	src.Stop()
	fmt.Printf("stopped after %d loops; ringing out\n", src.Loops())
	time.Sleep(time.Duration(*tail * float64(time.Second)))
	pl.Pause()
}
