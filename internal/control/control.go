// Package control implements the text command surface used to edit delay
// parameters from a control goroutine while audio is running.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwbudde/algo-delay/delay"
	"github.com/cwbudde/algo-delay/state"
)

// ErrQuit is returned by Apply for the quit command.
var ErrQuit = errors.New("quit")

var aliases = map[string]string{
	"drywet":   delay.ParamDryWet,
	"dry-wet":  delay.ParamDryWet,
	"mix":      delay.ParamDryWet,
	"feedback": delay.ParamFeedback,
	"fb":       delay.ParamFeedback,
	"time":     delay.ParamDelayTime,
	"delay":    delay.ParamDelayTime,
}

// Help lists the accepted commands.
const Help = `commands:
  drywet <0..1>       set dry/wet mix
  feedback <0..0.98>  set feedback
  time <0..2>         set delay time in seconds
  show                print current values
  save <path>         write a state blob
  load <path>         read a state blob
  preset <path>       write a JSON preset
  quit                stop playback`

// Apply executes one command line against params and returns a message for
// the user. Parameter edits are bracketed by gesture markers.
func Apply(params *delay.Params, line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "quit", "exit", "q":
		return "", ErrQuit
	case "help", "?":
		return Help, nil
	case "show":
		return Describe(params), nil
	case "save", "load", "preset":
		if len(args) != 1 {
			return "", fmt.Errorf("%s needs a path", cmd)
		}
		return fileCommand(params, cmd, args[0])
	}

	id, ok := aliases[cmd]
	if !ok {
		return "", fmt.Errorf("unknown command %q", cmd)
	}
	if len(args) != 1 {
		return "", fmt.Errorf("%s needs one value", cmd)
	}
	v, err := strconv.ParseFloat(args[0], 32)
	if err != nil {
		return "", fmt.Errorf("invalid value %q: %w", args[0], err)
	}
	p, _ := params.ByID(id)
	p.BeginGesture()
	p.Set(float32(v))
	p.EndGesture()
	return fmt.Sprintf("%s = %.3f", p.Name(), p.Get()), nil
}

// Describe formats the current parameter values.
func Describe(params *delay.Params) string {
	v := params.Snapshot()
	return fmt.Sprintf("dry/wet %.3f  feedback %.3f  time %.3fs", v.DryWet, v.Feedback, v.DelayTime)
}

func fileCommand(params *delay.Params, cmd string, path string) (string, error) {
	switch cmd {
	case "save":
		if err := state.WriteFile(path, params); err != nil {
			return "", err
		}
		return "saved " + path, nil
	case "load":
		ok, err := state.ReadFile(path, params)
		if err != nil {
			return "", err
		}
		if !ok {
			return path + " holds no delay state; unchanged", nil
		}
		return "loaded " + path + ": " + Describe(params), nil
	default:
		if err := state.SaveJSON(path, params); err != nil {
			return "", err
		}
		return "wrote preset " + path, nil
	}
}
