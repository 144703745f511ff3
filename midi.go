package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mrdg/polyvox/audio"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// midiInput forwards messages from a MIDI input port to an instrument.
type midiInput struct {
	drv  *rtmididrv.Driver
	in   drivers.In
	stop func()
}

func listMIDIInputs(w io.Writer) error {
	drv, err := rtmididrv.New()
	if err != nil {
		return fmt.Errorf("midi driver: %w", err)
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return fmt.Errorf("list midi inputs: %w", err)
	}
	for _, in := range ins {
		fmt.Fprintln(w, in.String())
	}
	return nil
}

// openMIDI opens the first input port whose name contains name, ignoring case.
func openMIDI(name string, inst *audio.Instrument) (*midiInput, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("midi driver: %w", err)
	}
	ins, err := drv.Ins()
	if err != nil {
		drv.Close()
		return nil, fmt.Errorf("list midi inputs: %w", err)
	}
	var found drivers.In
	for _, in := range ins {
		if strings.Contains(strings.ToLower(in.String()), strings.ToLower(name)) {
			found = in
			break
		}
	}
	if found == nil {
		drv.Close()
		return nil, fmt.Errorf("MIDI input %q not found", name)
	}
	if err := found.Open(); err != nil {
		drv.Close()
		return nil, fmt.Errorf("open MIDI input %s: %w", found, err)
	}
	port := found.String()
	stop, err := midi.ListenTo(found, func(msg midi.Message, timestampms int32) {
		inst.HandleMIDI(0, msg)
	}, midi.HandleError(func(err error) {
		logger.Warn("MIDI listener error, releasing all notes", "device", port, "err", err)
		for pitch := 0; pitch < 128; pitch++ {
			inst.NoteOff(0, pitch)
		}
	}))
	if err != nil {
		found.Close()
		drv.Close()
		return nil, fmt.Errorf("listen to MIDI input %s: %w", port, err)
	}
	logger.Info("MIDI input connected", "device", port)
	return &midiInput{drv: drv, in: found, stop: stop}, nil
}

func (m *midiInput) Close() error {
	m.stop()
	if err := m.in.Close(); err != nil {
		m.drv.Close()
		return err
	}
	return m.drv.Close()
}
