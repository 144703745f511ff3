package audio

import (
	"bytes"
	"io"
	"testing"
	"time"

	"github.com/youpy/go-wav"
)

func TestRenderer(t *testing.T) {
	inst := NewInstrument(testRate)
	if err := inst.Activate(testRate, 1, 256); err != nil {
		t.Fatal(err)
	}
	if err := inst.StartProcessing(); err != nil {
		t.Fatal(err)
	}
	r := NewRenderer(testRate, 256)
	r.AddSources(inst)

	inst.NoteOn(0, 69, 1)
	r.Advance(0.1)
	inst.NoteOff(0, 69)
	r.Advance(0.5)

	if want, got := 26460, r.Frames(); want != got {
		t.Fatalf("want %d frames, got %d", want, got)
	}
	left, right := r.Samples()
	var peak float32
	for n := range left {
		if left[n] != right[n] {
			t.Fatalf("frame %d: channels differ: %v %v", n, left[n], right[n])
		}
		if left[n] > peak {
			peak = left[n]
		}
	}
	if peak == 0 {
		t.Error("rendered silence")
	}
	if tail := left[len(left)-100:]; tail[0] != 0 || tail[99] != 0 {
		t.Error("voice still sounding after its release")
	}

	var buf bytes.Buffer
	if err := r.WriteWAV(&buf); err != nil {
		t.Fatal(err)
	}
	reader := wav.NewReader(bytes.NewReader(buf.Bytes()))
	format, err := reader.Format()
	if err != nil {
		t.Fatal(err)
	}
	if format.NumChannels != 2 || format.SampleRate != testRate || format.BitsPerSample != 16 {
		t.Errorf("unexpected format %+v", format)
	}

	var frames int
	for {
		samples, err := reader.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		for _, s := range samples {
			want := int(32767 * clip(left[frames]))
			if s.Values[0] != want || s.Values[1] != want {
				t.Fatalf("frame %d: want %d, got %v", frames, want, s.Values)
			}
			frames++
		}
	}
	if want, got := r.Frames(), frames; want != got {
		t.Errorf("want %d frames in file, got %d", want, got)
	}
}

func TestRendererSequencerAfterStopProcessing(t *testing.T) {
	inst := NewInstrument(testRate)
	if err := inst.Activate(testRate, 1, 256); err != nil {
		t.Fatal(err)
	}
	if err := inst.StartProcessing(); err != nil {
		t.Fatal(err)
	}
	clip := NewClip(1, inst)
	for n := 0; n < 32; n++ {
		clip.AddNote(float64(n)/32, 60+n, 1.0/32, 1)
	}
	seq := NewSequencer(NewProps(), testRate)
	if err := seq.Set("clips", map[string]*Clip{"busy": clip}); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(testRate, 256)
	r.AddTicker(seq)
	r.AddSources(inst)
	r.Advance(1)
	inst.StopProcessing()

	done := make(chan struct{})
	go func() {
		r.Advance(20)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatalf("render stuck with %d events queued", inst.scheduled.len())
	}
	if want, got := 0, inst.scheduled.len(); want != got {
		t.Errorf("want %d scheduled events, got %d", want, got)
	}
	if want, got := uint64(0), inst.DroppedEvents(); want != got {
		t.Errorf("want %d dropped, got %d", want, got)
	}
}

func TestRendererSequencerFloodsQueue(t *testing.T) {
	inst := NewInstrument(testRate)
	if err := inst.Activate(testRate, 1, 4096); err != nil {
		t.Fatal(err)
	}
	if err := inst.StartProcessing(); err != nil {
		t.Fatal(err)
	}
	// more events in a single buffer than the queue holds
	clip := NewClip(1, inst)
	for n := 0; n < eventBufferSize; n++ {
		clip.AddNote(float64(n)/eventBufferSize, 60, 0.5/eventBufferSize, 1)
	}
	seq := NewSequencer(NewProps(), testRate)
	if err := seq.Set("clips", map[string]*Clip{"flood": clip}); err != nil {
		t.Fatal(err)
	}

	r := NewRenderer(testRate, 44100)
	r.AddTicker(seq)
	r.AddSources(inst)

	done := make(chan struct{})
	go func() {
		r.Advance(1)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("render stuck on a full queue")
	}
	if inst.DroppedEvents() == 0 {
		t.Error("expected sequenced notes to be dropped")
	}
}

func TestClip(t *testing.T) {
	for in, want := range map[float32]float64{
		1.5:  1,
		-3:   -1,
		0.25: 0.25,
	} {
		if got := clip(in); want != got {
			t.Errorf("clip(%v): want %v, got %v", in, want, got)
		}
	}
}
