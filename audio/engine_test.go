package audio

import (
	"testing"
)

func TestEngineAllocatesFirstFreeVoice(t *testing.T) {
	e := NewEngine(testRate)
	e.NoteOn(60, 1)
	e.NoteOn(64, 1)
	e.NoteOn(67, 1)

	for n, note := range []int{60, 64, 67} {
		v := e.Voice(n)
		if !v.Active() || v.Note() != note {
			t.Errorf("voice %d: want active note %d, got active=%v note=%d", n, note, v.Active(), v.Note())
		}
	}
	if want, got := 3, e.ActiveVoices(); want != got {
		t.Errorf("want %d active voices, got %d", want, got)
	}

	// a killed voice is reused before any later index
	e.Voice(1).Kill()
	e.NoteOn(72, 1)
	if want, got := 72, e.Voice(1).Note(); want != got {
		t.Errorf("want note %d on voice 1, got %d", want, got)
	}
}

func TestEngineStealsRoundRobin(t *testing.T) {
	e := NewEngine(testRate)
	for n := 0; n < NumVoices; n++ {
		e.NoteOn(60+n, 1)
	}
	// a releasing voice is still busy, so the cursor decides
	e.NoteOff(65)

	e.NoteOn(100, 1)
	if want, got := 100, e.Voice(0).Note(); want != got {
		t.Errorf("first steal: want note %d on voice 0, got %d", want, got)
	}
	if want, got := StateAttack, e.Voice(0).State(); want != got {
		t.Errorf("stolen voice: want %v, got %v", want, got)
	}
	e.NoteOn(101, 1)
	if want, got := 101, e.Voice(1).Note(); want != got {
		t.Errorf("second steal: want note %d on voice 1, got %d", want, got)
	}
	if want, got := StateRelease, e.Voice(5).State(); want != got {
		t.Errorf("releasing voice: want %v, got %v", want, got)
	}
	if want, got := NumVoices, e.ActiveVoices(); want != got {
		t.Errorf("want %d active voices, got %d", want, got)
	}
}

func TestEngineNoteOffReleasesDuplicates(t *testing.T) {
	e := NewEngine(testRate)
	e.NoteOn(60, 1)
	e.NoteOn(60, 0.5)
	e.NoteOn(62, 1)
	e.NoteOff(60)

	for n, want := range []EnvelopeState{StateRelease, StateRelease, StateAttack} {
		if got := e.Voice(n).State(); want != got {
			t.Errorf("voice %d: want %v, got %v", n, want, got)
		}
	}

	// unknown notes are ignored
	e.NoteOff(30)
	if want, got := 3, e.ActiveVoices(); want != got {
		t.Errorf("want %d active voices, got %d", want, got)
	}

	left := make([]float32, int(e.Params().Release*testRate)+1000)
	right := make([]float32, len(left))
	e.RenderBlock(left, right)
	if want, got := 1, e.ActiveVoices(); want != got {
		t.Errorf("after release: want %d active voices, got %d", want, got)
	}
}

func TestEngineSilence(t *testing.T) {
	e := NewEngine(testRate)
	left, right := make([]float32, 512), make([]float32, 512)
	for n := range left {
		left[n], right[n] = 1, 1
	}
	e.RenderBlock(left, right)
	for n := range left {
		if left[n] != 0 || right[n] != 0 {
			t.Fatalf("frame %d: want silence, got %v %v", n, left[n], right[n])
		}
	}

	// rendering nothing is valid and leaves the voices alone
	e.NoteOn(60, 1)
	e.RenderBlock(nil, nil)
	if v := e.Voice(0); v.Level() != 0 || v.State() != StateAttack {
		t.Errorf("empty render advanced the voice: level=%v state=%v", v.Level(), v.State())
	}
}

func TestEngineMixesToBothChannels(t *testing.T) {
	e := NewEngine(testRate)
	e.NoteOn(69, 0.9)

	var ref Voice
	p := e.Params()
	ref.Trigger(69, 0.9, testRate, p.ADSR, p.Waveform)

	left, right := make([]float32, 2048), make([]float32, 2048)
	e.RenderBlock(left, right)
	for n := range left {
		want := float32(ref.RenderSample() * p.Volume)
		if left[n] != want || right[n] != want {
			t.Fatalf("frame %d: want %v, got %v %v", n, want, left[n], right[n])
		}
	}
}

func TestEngineShortRightChannel(t *testing.T) {
	e := NewEngine(testRate)
	e.NoteOn(69, 1)
	left, right := make([]float32, 64), make([]float32, 40)
	e.RenderBlock(left, right)
	for n := range right {
		if left[n] != right[n] {
			t.Fatalf("frame %d: channels differ: %v %v", n, left[n], right[n])
		}
	}
	for n := len(right); n < len(left); n++ {
		if left[n] != 0 {
			t.Fatalf("frame %d: rendered past the right channel: %v", n, left[n])
		}
	}

	// the voice advanced by exactly 40 frames
	var ref Voice
	p := e.Params()
	ref.Trigger(69, 1, testRate, p.ADSR, p.Waveform)
	for n := 0; n < 40; n++ {
		ref.RenderSample()
	}
	next := make([]float32, 1)
	e.RenderBlock(next, next)
	if want, got := float32(ref.RenderSample()*p.Volume), next[0]; want != got {
		t.Errorf("frame 40: want %v, got %v", want, got)
	}
}

func TestEngineVolumeIsPostMix(t *testing.T) {
	full, half := NewEngine(testRate), NewEngine(testRate)
	full.SetParam(ParamVolume, 1)
	half.SetParam(ParamVolume, 0.5)
	for _, e := range []*Engine{full, half} {
		e.NoteOn(60, 1)
		e.NoteOn(67, 0.7)
	}

	// volume changes do not touch the voices
	if want, got := full.Voice(0).Level(), half.Voice(0).Level(); want != got {
		t.Errorf("want level %v, got %v", want, got)
	}

	l1, r1 := make([]float32, 1024), make([]float32, 1024)
	l2, r2 := make([]float32, 1024), make([]float32, 1024)
	full.RenderBlock(l1, r1)
	half.RenderBlock(l2, r2)
	for n := range l1 {
		if want, got := l1[n]*0.5, l2[n]; want != got {
			t.Fatalf("frame %d: want %v, got %v", n, want, got)
		}
	}

	full.SetParam(ParamVolume, 0)
	full.RenderBlock(l1, r1)
	for n := range l1 {
		if l1[n] != 0 {
			t.Fatalf("frame %d: want silence at zero volume, got %v", n, l1[n])
		}
	}
}

func TestEngineSetParamUpdatesActiveVoices(t *testing.T) {
	e := NewEngine(testRate)
	e.SetParam(ParamAttack, 1)
	e.NoteOn(60, 1)
	left, right := make([]float32, 10), make([]float32, 10)
	e.RenderBlock(left, right)

	attack := 0.01
	e.SetParam(ParamAttack, attack)
	if want, got := 1/(attack*testRate), e.Voice(0).increment(); want != got {
		t.Errorf("attack increment: want %v, got %v", want, got)
	}
	if want, got := 0.01, e.Params().Attack; want != got {
		t.Errorf("attack param: want %v, got %v", want, got)
	}

	e.SetParam(ParamWaveform, float64(Saw))
	if want, got := Saw, e.Voice(0).Waveform(); want != got {
		t.Errorf("live waveform: want %v, got %v", want, got)
	}

	// idle voices pick up parameters on their next note-on
	e.SetParam(ParamSustain, 0.25)
	if got := e.Voice(1).increment(); got != 0 {
		t.Errorf("idle voice increment changed to %v", got)
	}
	e.NoteOn(62, 1)
	if want, got := Saw, e.Voice(1).Waveform(); want != got {
		t.Errorf("new voice waveform: want %v, got %v", want, got)
	}
}

func TestEngineReset(t *testing.T) {
	e := NewEngine(testRate)
	for n := 0; n < NumVoices+3; n++ {
		e.NoteOn(40+n, 1)
	}
	left, right := make([]float32, 256), make([]float32, 256)
	e.RenderBlock(left, right)

	e.Reset()
	if want, got := 0, e.ActiveVoices(); want != got {
		t.Errorf("want %d active voices, got %d", want, got)
	}
	for _, s := range e.Voices(nil) {
		if s.Active || s.State != StateIdle || s.Level != 0 {
			t.Errorf("voice %d not reset: %+v", s.Index, s)
		}
	}
	e.RenderBlock(left, right)
	for n := range left {
		if left[n] != 0 {
			t.Fatalf("frame %d: want silence after reset, got %v", n, left[n])
		}
	}

	// the steal cursor starts over
	for n := 0; n < NumVoices+1; n++ {
		e.NoteOn(40+n, 1)
	}
	if want, got := 40+NumVoices, e.Voice(0).Note(); want != got {
		t.Errorf("want note %d stolen onto voice 0, got %d", want, got)
	}
}

func TestEngineVoices(t *testing.T) {
	e := NewEngine(testRate)
	e.NoteOn(64, 0.5)
	voices := e.Voices(nil)
	if want, got := NumVoices, len(voices); want != got {
		t.Fatalf("want %d voices, got %d", want, got)
	}
	want := VoiceStatus{Index: 0, Active: true, Note: 64, Velocity: 0.5, State: StateAttack, Waveform: Sine}
	if got := voices[0]; want != got {
		t.Errorf("want %+v, got %+v", want, got)
	}
	if voices[1].Active || voices[1].Index != 1 {
		t.Errorf("unexpected status %+v", voices[1])
	}
}
