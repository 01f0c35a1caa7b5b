package synth

import "math"

const twoPi = math.Pi * 2

type Waveform int

const (
	Sine Waveform = iota
	Sawtooth
	Triangle
	Square
)

func (w Waveform) String() string {
	switch w {
	case Sawtooth:
		return "sawtooth"
	case Triangle:
		return "triangle"
	case Square:
		return "square"
	}
	return "sine"
}

// ParseWaveform accepts the names produced by String.
func ParseWaveform(s string) (Waveform, bool) {
	for _, w := range []Waveform{Sine, Sawtooth, Triangle, Square} {
		if w.String() == s {
			return w, true
		}
	}
	return Sine, false
}

// waveformSample evaluates w at phase in [0, 2π). Triangle starts at zero and
// rises, matching an oscillator node started at phase zero.
func waveformSample(phase float64, w Waveform) float64 {
	switch w {
	case Sawtooth:
		return 2.0*phase/twoPi - 1.0
	case Triangle:
		x := phase / twoPi
		switch {
		case x < 0.25:
			return 4 * x
		case x < 0.75:
			return 2 - 4*x
		default:
			return 4*x - 4
		}
	case Square:
		if phase < math.Pi {
			return 1.0
		}
		return -1.0
	default:
		return math.Sin(phase)
	}
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
