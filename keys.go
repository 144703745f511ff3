package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mrdg/polyvox/audio"
	"golang.org/x/term"
)

// keyboardRow maps keys to semitones above C, laid out like a piano: the home
// row holds the white keys and the row above it the black keys.
const keyboardRow = "awsedftgyhujk"

// playKeys turns the terminal into a note keyboard until q or ctrl-c is pressed.
// Each key toggles its note, since a terminal reports presses but not releases.
func playKeys(inst *audio.Instrument, in *os.File, out io.Writer) error {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("keyboard mode needs a terminal")
	}
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("set raw mode: %w", err)
	}
	defer term.Restore(fd, oldState)

	octave := 4
	held := make(map[int]bool)
	releaseAll := func() {
		for pitch := range held {
			inst.NoteOff(0, pitch)
			delete(held, pitch)
		}
	}
	// raw mode disables output post-processing, so lines need \r\n
	fmt.Fprintf(out, "keys %s play, z/x octave, space reset, q quit\r\n", keyboardRow)

	buf := make([]byte, 1)
	for {
		if _, err := in.Read(buf); err != nil {
			releaseAll()
			if err == io.EOF {
				return nil
			}
			return err
		}
		switch key := buf[0]; key {
		case 'q', 3: // ctrl-c
			releaseAll()
			return nil
		case ' ':
			inst.Reset()
			for pitch := range held {
				delete(held, pitch)
			}
		case 'z', 'x':
			releaseAll()
			if key == 'z' && octave > 0 {
				octave--
			} else if key == 'x' && octave < 8 {
				octave++
			}
			fmt.Fprintf(out, "octave %d\r\n", octave)
		default:
			semitone := strings.IndexByte(keyboardRow, key)
			if semitone < 0 {
				continue
			}
			pitch := (octave+1)*12 + semitone
			if pitch > 127 {
				continue
			}
			if held[pitch] {
				inst.NoteOff(0, pitch)
				delete(held, pitch)
			} else {
				inst.NoteOn(0, pitch, defaultVelocity)
				held[pitch] = true
			}
			fmt.Fprintf(out, "%s %v\r\n", pitchName(pitch), held[pitch])
		}
	}
}
