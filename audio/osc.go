package audio

import (
	"fmt"
	"math"
	"strings"
)

const twoPi = 2 * math.Pi

// Waveform selects the oscillator shape of a voice.
type Waveform int

const (
	Sine Waveform = iota
	Square
	Saw
	Triangle
	Pulse
)

var waveformNames = [...]string{"sine", "square", "saw", "triangle", "pulse"}

func (w Waveform) String() string {
	if w < 0 || int(w) >= len(waveformNames) {
		return waveformNames[Sine]
	}
	return waveformNames[w]
}

// ParseWaveform returns the waveform with the given name. Names are case insensitive.
func ParseWaveform(s string) (Waveform, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for n, name := range waveformNames {
		if s == name {
			return Waveform(n), nil
		}
	}
	return Sine, fmt.Errorf("not a valid waveform type: %v", s)
}

// value returns the raw waveform at phase, which must be in [0, 2π).
func (w Waveform) value(phase float64) float64 {
	switch w {
	case Square:
		if phase < math.Pi {
			return 1.0
		}
		return -1.0
	case Saw:
		return phase/math.Pi - 1.0
	case Triangle:
		if phase < math.Pi {
			return 2.0*phase/math.Pi - 1.0
		}
		return 3.0 - 2.0*phase/math.Pi
	case Pulse:
		// 25% duty cycle
		if phase < math.Pi*0.5 {
			return 1.0
		}
		return -1.0
	default:
		return math.Sin(phase)
	}
}

func midiToFreq(note int) float64 {
	f := math.Pow(2, float64((note-69))/12.0) * 440
	return f
}
