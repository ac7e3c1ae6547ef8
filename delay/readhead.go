package delay

import "math"

// ReadHeads is the pair of buffer indices straddling a fractional read
// position, plus the interpolation phase between them.
type ReadHeads struct {
	Current  int
	Next     int
	Fraction float64
}

// NewReadHeads splits readPos (expected in [0, length)) into an index pair.
func NewReadHeads(readPos float64, length int) ReadHeads {
	current := int(readPos)
	if current < 0 || current >= length {
		current = 0
		readPos = 0
	}
	next := current + 1
	if next >= length {
		next = 0
	}
	return ReadHeads{
		Current:  current,
		Next:     next,
		Fraction: readPos - float64(current),
	}
}

// delayReadPosition returns writeCursor - delaySamples wrapped into
// [0, length). Wrapping uses explicit branches; math.Mod is only applied to
// non-negative operands.
func delayReadPosition(writeCursor int, delaySamples float64, length int) float64 {
	n := float64(length)
	switch {
	case math.IsNaN(delaySamples) || math.IsInf(delaySamples, 0):
		delaySamples = 0
	case delaySamples > n:
		delaySamples = math.Mod(delaySamples, n)
	case delaySamples < 0:
		delaySamples = -math.Mod(-delaySamples, n)
	}

	readPos := float64(writeCursor) - delaySamples
	if readPos < 0 {
		readPos += n
	}
	if readPos >= n {
		readPos -= n
	}
	if readPos < 0 || readPos >= n {
		// Only reachable through rounding at the boundaries.
		readPos = 0
	}
	return readPos
}
