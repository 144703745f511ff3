package audio

import (
	"reflect"
	"testing"
)

type noteEvent struct {
	offset int
	pitch  int
	on     bool
}

type testInstrument struct {
	events []noteEvent
}

func (i *testInstrument) ScheduleNoteOn(offset, pitch int, velocity float64) {
	i.events = append(i.events, noteEvent{offset: offset, pitch: pitch, on: true})
}

func (i *testInstrument) ScheduleNoteOff(offset, pitch int) {
	i.events = append(i.events, noteEvent{offset: offset, pitch: pitch})
}

func (i *testInstrument) flush() {
	i.events = nil
}

func TestSequencer(t *testing.T) {
	const sampleRate = 44100
	const bpm = 120.0
	const bufferSize = sampleRate // use a large buffer size to make testing easier
	instrument := &testInstrument{}

	seq := NewSequencer(NewProps(), sampleRate)
	if err := seq.Set("bpm", bpm); err != nil {
		t.Fatal(err)
	}

	clip := NewClip(4, instrument)
	clip.AddNote(0, 69, 1, 0.8)    // first beat
	clip.AddNote(1.25, 73, 1, 0.8) // 2nd 16th note on second beat

	if err := seq.Set("clips", map[string]*Clip{
		"beat": clip,
	}); err != nil {
		t.Fatal(err)
	}

	firstHalf := []noteEvent{
		{offset: 0, pitch: 69, on: true},
		{offset: 22050, pitch: 69},
		{offset: 27563, pitch: 73, on: true},
	}

	seq.Tick(bufferSize)
	if want, got := firstHalf, instrument.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}

	instrument.flush()
	seq.Tick(bufferSize)

	if want, got := []noteEvent{{offset: 5513, pitch: 73}}, instrument.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}

	instrument.flush()
	seq.Tick(bufferSize)

	if want, got := firstHalf, instrument.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestSequencerNoteOffBeforeNoteOn(t *testing.T) {
	const sampleRate = 44100
	instrument := &testInstrument{}
	seq := NewSequencer(NewProps(), sampleRate)

	// two back to back notes on the same pitch filling a two beat clip
	clip := NewClip(2, instrument)
	clip.AddNote(0, 60, 1, 1)
	clip.AddNote(1, 60, 1, 1)
	if err := seq.Set("clips", map[string]*Clip{"repeat": clip}); err != nil {
		t.Fatal(err)
	}

	seq.Tick(sampleRate)
	if want, got := []noteEvent{
		{offset: 0, pitch: 60},
		{offset: 0, pitch: 60, on: true},
		{offset: 22050, pitch: 60},
		{offset: 22050, pitch: 60, on: true},
	}, instrument.events; !reflect.DeepEqual(want, got) {
		t.Errorf("wrong events:\nwant: %+v\ngot:  %+v", want, got)
	}
}

func TestClipAddNote(t *testing.T) {
	clip := NewClip(1, &testInstrument{})
	clip.AddNote(0, 60, 0.5, 1)
	clip.AddNote(0.5, 64, 0.5, 1)
	clip.AddNote(0.5, 60, 0.25, 1)
	clip.AddNote(0, 128, 1, 1) // out of range
	clip.AddNote(0, 62, 0, 1)  // empty

	if want, got := 3, len(clip.notes); want != got {
		t.Errorf("want %v notes, got %v", want, got)
	}
	if want, got := []int{60, 64}, clip.Pitches(); !reflect.DeepEqual(want, got) {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestSequencerBPMRange(t *testing.T) {
	seq := NewSequencer(NewProps(), 44100)
	if err := seq.Set("bpm", 0.0); err == nil {
		t.Error("expected error for bpm 0")
	}
	if err := seq.Set("clips", 12); err == nil {
		t.Error("expected error for invalid clips value")
	}
}

type noteCounter struct {
	ons int
}

func (c *noteCounter) ScheduleNoteOn(offset, pitch int, velocity float64) { c.ons++ }
func (c *noteCounter) ScheduleNoteOff(offset, pitch int) {}

func TestSequencerTempoWithSmallBuffers(t *testing.T) {
	const sampleRate = 44100
	const bufferSize = 256
	const ticks = 60 * sampleRate / bufferSize // just under a minute

	for _, bpm := range []float64{5, 10, 60, 137, 500} {
		counter := &noteCounter{}
		clip := NewClip(1, counter)
		clip.AddNote(0, 60, 0.5, 1)

		seq := NewSequencer(NewProps(), sampleRate)
		if err := seq.Set("bpm", bpm); err != nil {
			t.Fatal(err)
		}
		if err := seq.Set("clips", map[string]*Clip{"a": clip}); err != nil {
			t.Fatal(err)
		}
		for n := 0; n < ticks; n++ {
			seq.Tick(bufferSize)
		}
		if want, got := int(bpm), counter.ons; want != got {
			t.Errorf("bpm %v: want %d note-ons, got %d", bpm, want, got)
		}
	}
}

func TestSequencerSmallBufferOffsets(t *testing.T) {
	const sampleRate = 44100
	const bufferSize = 256
	instrument := &testInstrument{}
	clip := NewClip(1, instrument)
	clip.AddNote(0, 60, 0.5, 1)

	seq := NewSequencer(NewProps(), sampleRate)
	if err := seq.Set("clips", map[string]*Clip{"a": clip}); err != nil {
		t.Fatal(err)
	}
	// at 120 bpm a beat is 22050 frames, so the second note-on lands 34
	// frames into the 87th buffer
	var frames []int
	for n := 0; n < 100; n++ {
		instrument.flush()
		seq.Tick(bufferSize)
		for _, ev := range instrument.events {
			if ev.on {
				frames = append(frames, n*bufferSize+ev.offset)
			}
		}
	}
	if want, got := []int{0, 22050}, frames; !reflect.DeepEqual(want, got) {
		t.Errorf("want note-ons at %v, got %v", want, got)
	}
}
