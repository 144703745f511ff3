package audio

// NumVoices is the size of the voice pool.
const NumVoices = 16

// Params is the global parameter snapshot applied to newly triggered voices.
type Params struct {
	ADSR
	Volume   float64
	Waveform Waveform
}

// DefaultParams returns the parameter defaults listed in ParamInfos.
func DefaultParams() Params {
	return Params{
		ADSR: ADSR{
			Attack:  ParamInfos[ParamAttack].Default,
			Decay:   ParamInfos[ParamDecay].Default,
			Sustain: ParamInfos[ParamSustain].Default,
			Release: ParamInfos[ParamRelease].Default,
		},
		Volume:   ParamInfos[ParamVolume].Default,
		Waveform: Waveform(ParamInfos[ParamWaveform].Default),
	}
}

// Engine is a fixed pool of voices mixed to a mono signal that is written to
// both output channels. It is not safe for concurrent use: all methods must be
// called from the audio thread.
type Engine struct {
	voices     [NumVoices]Voice
	next       int // round-robin steal cursor
	params     Params
	sampleRate float64
}

func NewEngine(sampleRate float64) *Engine {
	return &Engine{
		params:     DefaultParams(),
		sampleRate: sampleRate,
	}
}

// SetSampleRate changes the rate used for subsequent note-ons.
func (e *Engine) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
}

func (e *Engine) SampleRate() float64 { return e.sampleRate }

func (e *Engine) Params() Params { return e.params }

// NoteOn triggers note on a free voice, stealing one if the pool is full.
func (e *Engine) NoteOn(note int, velocity float64) {
	v := e.allocate()
	v.Trigger(note, velocity, e.sampleRate, e.params.ADSR, e.params.Waveform)
}

// allocate returns the first idle voice in index order. When every voice is
// busy it steals the voice under the cursor, regardless of its state.
func (e *Engine) allocate() *Voice {
	for n := range e.voices {
		if !e.voices[n].active {
			return &e.voices[n]
		}
	}
	v := &e.voices[e.next]
	e.next = (e.next + 1) % NumVoices
	return v
}

// NoteOff releases every active voice playing note.
func (e *Engine) NoteOff(note int) {
	for n := range e.voices {
		v := &e.voices[n]
		if v.active && v.note == note {
			v.Release()
		}
	}
}

// SetParam updates a global parameter. Envelope and waveform changes are also
// applied to voices that are currently sounding.
func (e *Engine) SetParam(id ParamID, value float64) {
	switch id {
	case ParamAttack:
		e.params.Attack = value
	case ParamDecay:
		e.params.Decay = value
	case ParamSustain:
		e.params.Sustain = value
	case ParamRelease:
		e.params.Release = value
	case ParamVolume:
		e.params.Volume = value
		return
	case ParamWaveform:
		e.params.Waveform = Waveform(int(value))
		for n := range e.voices {
			if e.voices[n].active {
				e.voices[n].SetWaveform(e.params.Waveform)
			}
		}
		return
	default:
		return
	}
	for n := range e.voices {
		if e.voices[n].active {
			e.voices[n].UpdateADSR(e.params.ADSR)
		}
	}
}

// Reset silences every voice immediately, bypassing release.
func (e *Engine) Reset() {
	for n := range e.voices {
		e.voices[n].Kill()
	}
	e.next = 0
}

// RenderBlock renders one frame for each index of the shorter of left and
// right. The mix is scaled by the global volume and written to both.
func (e *Engine) RenderBlock(left, right []float32) {
	frames := min(len(left), len(right))
	left, right = left[:frames], right[:frames]
	for i := range left {
		var sum float64
		for n := range e.voices {
			if e.voices[n].active {
				sum += e.voices[n].RenderSample()
			}
		}
		sample := float32(sum * e.params.Volume)
		left[i] = sample
		right[i] = sample
	}
}

// ActiveVoices returns the number of voices currently sounding.
func (e *Engine) ActiveVoices() int {
	var n int
	for i := range e.voices {
		if e.voices[i].active {
			n++
		}
	}
	return n
}

// VoiceStatus is a read-only copy of a voice's state.
type VoiceStatus struct {
	Index    int
	Active   bool
	Note     int
	Velocity float64
	State    EnvelopeState
	Level    float64
	Waveform Waveform
}

// Voices appends the status of every voice to dst.
func (e *Engine) Voices(dst []VoiceStatus) []VoiceStatus {
	for n := range e.voices {
		v := &e.voices[n]
		dst = append(dst, VoiceStatus{
			Index:    n,
			Active:   v.active,
			Note:     v.note,
			Velocity: v.velocity,
			State:    v.env.state,
			Level:    v.env.level,
			Waveform: v.waveform,
		})
	}
	return dst
}

// Voice returns the voice at index n for inspection.
func (e *Engine) Voice(n int) *Voice { return &e.voices[n] }
