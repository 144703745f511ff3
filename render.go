package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrdg/polyvox/audio"
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func pitchName(pitch int) string {
	if pitch < 0 {
		return fmt.Sprintf("?%d", pitch)
	}
	return fmt.Sprintf("%s%d", noteNames[pitch%12], (pitch/12)-1)
}

// renderVoices writes one row per voice with a bar showing its envelope level.
func renderVoices(voices []audio.VoiceStatus, w io.Writer) {
	const barWidth = 20
	var active int
	for _, v := range voices {
		id := colorize(fmt.Sprintf("%2d", v.Index), colorGreen)
		if !v.Active {
			fmt.Fprintf(w, "%s %s\n", id, colorize("idle", colorBlack))
			continue
		}
		active++
		filled := int(v.Level*barWidth + 0.5)
		bar := strings.Repeat("█", filled) + strings.Repeat("·", barWidth-filled)
		fmt.Fprintf(w, "%s %s %-8s %s vel %.2f %s %.3f\n",
			id,
			colorize(fmt.Sprintf("%-4s", pitchName(v.Note)), colorBlue),
			v.Waveform,
			colorize(fmt.Sprintf("%-7s", v.State), stateColor(v.State)),
			v.Velocity,
			bar,
			v.Level,
		)
	}
	fmt.Fprintf(w, "%s\n", colorize(fmt.Sprintf("%d/%d voices active", active, len(voices)), colorMagenta))
}

// renderParams writes the current value of every synth parameter.
func renderParams(inst *audio.Instrument, w io.Writer) {
	for n := 0; n < inst.ParamCount(); n++ {
		info, _ := inst.ParamInfo(n)
		value, _ := inst.ParamValue(info.ID)
		text, err := inst.ParamValueToText(info.ID, value)
		if err != nil {
			text = err.Error()
		}
		name := colorize(fmt.Sprintf("%-9s", info.ID), colorGreen)
		fmt.Fprintf(w, "%s %-10s %s\n", name, text, colorize(info.Module, colorBlack))
	}
}

func stateColor(s audio.EnvelopeState) int {
	switch s {
	case audio.StateAttack:
		return colorYellow
	case audio.StateRelease:
		return colorRed
	default:
		return colorGreen
	}
}

const (
	colorBlack = iota + 30
	colorRed
	colorGreen
	colorYellow
	colorBlue
	colorMagenta
)

func colorize(text string, color int) string {
	return fmt.Sprintf("\033[%dm%s\033[0m", color, text)
}
