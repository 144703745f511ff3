package audio

import (
	"fmt"
	"strconv"
	"strings"
)

// ParamID identifies one of the global synth parameters.
type ParamID int

const (
	ParamAttack ParamID = iota
	ParamDecay
	ParamSustain
	ParamRelease
	ParamVolume
	ParamWaveform
	numParams
)

type ParamFlags int

const (
	ParamAutomatable ParamFlags = 1 << iota
	ParamStepped
)

// ParamInfo describes a parameter to a host.
type ParamInfo struct {
	ID      ParamID
	Name    string
	Module  string
	Min     float64
	Max     float64
	Default float64
	Flags   ParamFlags
}

// ParamInfos lists all parameters, indexed by ParamID.
var ParamInfos = [numParams]ParamInfo{
	{ParamAttack, "Attack", "Envelope", 0.001, 5, 0.01, ParamAutomatable},
	{ParamDecay, "Decay", "Envelope", 0.001, 5, 0.1, ParamAutomatable},
	{ParamSustain, "Sustain", "Envelope", 0, 1, 0.7, ParamAutomatable},
	{ParamRelease, "Release", "Envelope", 0.001, 5, 0.3, ParamAutomatable},
	{ParamVolume, "Volume", "Main", 0, 1, 0.8, ParamAutomatable},
	{ParamWaveform, "Waveform", "Oscillator", 0, 4, 0, ParamAutomatable | ParamStepped},
}

// paramNames maps the short names used on the command line and in patch files.
var paramNames = map[string]ParamID{
	"attack":   ParamAttack,
	"decay":    ParamDecay,
	"sustain":  ParamSustain,
	"release":  ParamRelease,
	"volume":   ParamVolume,
	"wave":     ParamWaveform,
	"waveform": ParamWaveform,
}

func (id ParamID) Valid() bool { return id >= 0 && id < numParams }

func (id ParamID) String() string {
	if !id.Valid() {
		return fmt.Sprintf("ParamID(%d)", int(id))
	}
	return strings.ToLower(ParamInfos[id].Name)
}

// ParamByName returns the parameter with the given short name.
func ParamByName(name string) (ParamID, error) {
	id, ok := paramNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown parameter %s", name)
	}
	return id, nil
}

// Clamp limits v to the range of the parameter. Waveform values are truncated.
func (id ParamID) Clamp(v float64) float64 {
	info := ParamInfos[id]
	if v < info.Min {
		v = info.Min
	}
	if v > info.Max {
		v = info.Max
	}
	if info.Flags&ParamStepped != 0 {
		v = float64(int(v))
	}
	return v
}

var waveformLabels = [...]string{"Sine", "Square", "Saw", "Triangle", "Pulse"}

// ValueToText formats v for display.
func ValueToText(id ParamID, v float64) (string, error) {
	switch id {
	case ParamAttack, ParamDecay, ParamRelease:
		return fmt.Sprintf("%.3f s", v), nil
	case ParamSustain, ParamVolume:
		return fmt.Sprintf("%.1f%%", v*100.0), nil
	case ParamWaveform:
		n := int(v)
		if n < 0 || n >= len(waveformLabels) {
			n = 0
		}
		return waveformLabels[n], nil
	default:
		return "", fmt.Errorf("unknown parameter %v", id)
	}
}

// TextToValue parses display text back into a parameter value. A trailing unit
// is ignored, except that percentages are scaled to [0, 1].
func TextToValue(id ParamID, text string) (float64, error) {
	if !id.Valid() {
		return 0, fmt.Errorf("unknown parameter %v", id)
	}
	text = strings.TrimSpace(text)
	if id == ParamWaveform {
		if w, err := ParseWaveform(text); err == nil {
			return float64(w), nil
		}
	}
	end := 0
	for end < len(text) && strings.IndexByte("+-.0123456789eE", text[end]) >= 0 {
		end++
	}
	v, err := strconv.ParseFloat(text[:end], 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s value %q: %w", id, text, err)
	}
	if strings.HasSuffix(text, "%") {
		v /= 100.0
	}
	return v, nil
}
