package audio

import (
	"fmt"
	"math"
	"sync/atomic"
)

// Pulses per quarter note
const PPQN = 960.

type Clip struct {
	Length     int
	instrument Playable
	notes      []note
}

func NewClip(length float64, p Playable) *Clip {
	return &Clip{
		Length:     int(length * PPQN),
		instrument: p,
	}
}

// AddNote adds a note at position, measured in beats from the start of the clip.
func (c *Clip) AddNote(position float64, pitch int, length, velocity float64) {
	if pitch < 0 || pitch > 127 || length <= 0 {
		return
	}
	c.notes = append(c.notes, note{
		pos:      int(position * PPQN),
		pitch:    pitch,
		velocity: velocity,
		length:   length,
	})
}

// Pitches returns the distinct pitches used by the clip.
func (c *Clip) Pitches() []int {
	var pitches []int
	seen := make(map[int]bool)
	for _, n := range c.notes {
		if !seen[n.pitch] {
			seen[n.pitch] = true
			pitches = append(pitches, n.pitch)
		}
	}
	return pitches
}

type note struct {
	pos      int // position of the note measured in PPQN from the start of a clip
	pitch    int // pitch as a midi note number
	velocity float64
	length   float64 // note length in beats
}

type scheduled struct {
	offset int
	on     bool
	pitch  int
	vel    float64
	target Playable
}

type Sequencer struct {
	*Props
	bpm        *atomic.Value
	clips      *atomic.Value
	sampleRate float64
	pulses     float64 // pulses elapsed since the sequencer started
	pending    []scheduled
}

func NewSequencer(props *Props, sampleRate float64) *Sequencer {
	clips := make(map[string]*Clip)
	seq := &Sequencer{
		Props:      props,
		sampleRate: sampleRate,
		clips:      props.MustRegister("clips", setClips, clips),
		bpm:        props.MustRegister("bpm", setFloat64(1, 500), 120.0),
		pending:    make([]scheduled, 0, 256),
	}
	return seq
}

// Tick schedules the note-ons and note-offs that fall within the next
// numSamples frames. Note-offs are delivered before note-ons at the same offset.
func (s *Sequencer) Tick(numSamples int) {
	bpm := s.bpm.Load().(float64)
	clips := s.clips.Load().(map[string]*Clip)

	// A buffer rarely spans a whole number of pulses, so the clock keeps the
	// fraction and the next window starts exactly where this one ends.
	numPulses := float64(numSamples) * bpm * PPQN / (60 * s.sampleRate)
	samplesPerPulse := 60 * s.sampleRate / (bpm * PPQN)
	start := s.pulses
	end := start + numPulses

	s.pending = s.pending[:0]
	for _, clip := range clips {
		if clip.Length <= 0 {
			continue
		}
		length := float64(clip.Length)
		// toOffset finds the next time pulse p of the clip comes around and
		// reports whether that falls within this buffer.
		toOffset := func(p int) (int, bool) {
			at := float64(p) + math.Ceil((start-float64(p))/length)*length
			if at < start {
				at += length
			}
			if at >= end {
				return 0, false
			}
			offset := int(math.Round((at - start) * samplesPerPulse))
			if offset >= numSamples {
				offset = numSamples - 1
			}
			return offset, true
		}
		for _, note := range clip.notes {
			if offset, ok := toOffset(note.pos % clip.Length); ok {
				s.schedule(scheduled{offset: offset, on: true, pitch: note.pitch, vel: note.velocity, target: clip.instrument})
			}
			off := (note.pos + int(note.length*PPQN)) % clip.Length
			if offset, ok := toOffset(off); ok {
				s.schedule(scheduled{offset: offset, pitch: note.pitch, target: clip.instrument})
			}
		}
	}
	for _, ev := range s.pending {
		if ev.on {
			ev.target.ScheduleNoteOn(ev.offset, ev.pitch, ev.vel)
		} else {
			ev.target.ScheduleNoteOff(ev.offset, ev.pitch)
		}
	}
	s.pulses = end
}

// schedule inserts ev keeping pending ordered by offset, with note-offs first.
func (s *Sequencer) schedule(ev scheduled) {
	s.pending = append(s.pending, ev)
	for n := len(s.pending) - 1; n > 0; n-- {
		prev := s.pending[n-1]
		if prev.offset < ev.offset || (prev.offset == ev.offset && (!prev.on || ev.on)) {
			break
		}
		s.pending[n], s.pending[n-1] = prev, ev
	}
}

func setClips(v interface{}, dest *atomic.Value) error {
	if c, ok := v.(map[string]*Clip); ok {
		dest.Store(c)
		return nil
	}
	return fmt.Errorf("value is not a map of clips: %v", v)
}
