package main

import (
	"fmt"
	"time"

	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/internal/control"
	"github.com/rakyll/portmidi"
)

// midiInput forwards control changes from a portmidi input to params.
type midiInput struct {
	stream   *portmidi.Stream
	done     chan struct{}
	finished chan struct{}
}

func openMIDI(device int, params *delay.Params, m control.CCMap, verbose bool) (*midiInput, error) {
	if err := portmidi.Initialize(); err != nil {
		return nil, err
	}
	id := portmidi.DeviceID(device)
	if device < 0 {
		id = portmidi.DefaultInputDeviceID()
	}
	if info := portmidi.Info(id); info != nil {
		fmt.Printf("midi input: %s (%s)\n", info.Name, info.Interface)
	}
	in, err := portmidi.NewInputStream(id, 1024)
	if err != nil {
		portmidi.Terminate()
		return nil, err
	}
	mi := &midiInput{stream: in, done: make(chan struct{}), finished: make(chan struct{})}
	go mi.run(params, m, verbose)
	return mi, nil
}

func (mi *midiInput) run(params *delay.Params, m control.CCMap, verbose bool) {
	defer close(mi.finished)
	ticker := time.NewTicker(2 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-mi.done:
			return
		case <-ticker.C:
		}
		events, err := mi.stream.Read(1024)
		if err != nil {
			fmt.Println("midi read:", err)
			return
		}
		for _, ev := range events {
			if control.ApplyCC(params, m, ev.Status, ev.Data1, ev.Data2) && verbose {
				fmt.Println(control.Describe(params))
			}
		}
	}
}

func (mi *midiInput) Close() {
	close(mi.done)
	<-mi.finished
	mi.stream.Close()
	portmidi.Terminate()
}
