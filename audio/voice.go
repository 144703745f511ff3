package audio

// maxVoiceSeconds bounds how long a voice may run since its last note-on or
// release before it is forced idle.
const maxVoiceSeconds = 30

// Voice is a single oscillator with an ADSR envelope, sounding one note at a
// time. The zero value is an idle voice.
type Voice struct {
	active     bool
	note       int
	velocity   float64
	frequency  float64
	sampleRate float64

	phase      float64
	phaseDelta float64
	waveform   Waveform

	env envelope
	age int
}

// Trigger starts note at the given velocity. Inputs are expected to be in range.
func (v *Voice) Trigger(note int, velocity, sampleRate float64, adsr ADSR, wave Waveform) {
	v.note = note
	v.velocity = velocity
	v.sampleRate = sampleRate
	v.waveform = wave
	v.frequency = midiToFreq(note)
	v.phase = 0
	v.phaseDelta = twoPi * v.frequency / sampleRate
	v.age = 0
	v.active = true

	v.env.ADSR = adsr
	v.env.sampleRate = sampleRate
	v.env.startAttack()
}

// Release moves an active voice into its release segment. It does nothing if
// the voice is idle or already releasing.
func (v *Voice) Release() {
	if !v.active || v.env.state == StateRelease {
		return
	}
	v.age = 0
	v.env.startRelease()
}

// UpdateADSR replaces the envelope settings. An active voice recomputes the
// increment of its current segment right away.
func (v *Voice) UpdateADSR(adsr ADSR) {
	v.env.ADSR = adsr
	if v.active {
		v.env.updateIncrement()
	}
}

// SetWaveform changes the oscillator shape without touching the phase.
func (v *Voice) SetWaveform(w Waveform) {
	v.waveform = w
}

// Kill returns the voice to idle immediately, skipping the release segment.
func (v *Voice) Kill() {
	v.active = false
	v.age = 0
	v.env.reset()
}

// RenderSample returns the next output sample and advances the voice by one
// sample period. The envelope level applied to the sample is the one from
// before this step's envelope update.
func (v *Voice) RenderSample() float64 {
	if !v.active {
		return 0.0
	}

	v.age++
	if v.age > int(v.sampleRate*maxVoiceSeconds) {
		v.Kill()
		return 0.0
	}

	sample := v.waveform.value(v.phase) * v.velocity
	v.phase += v.phaseDelta
	if v.phase >= twoPi {
		v.phase -= twoPi
	}
	sample *= v.env.level

	if !v.env.step() {
		v.active = false
	}
	return sample
}

func (v *Voice) Active() bool { return v.active }
func (v *Voice) Note() int { return v.note }
func (v *Voice) Velocity() float64 { return v.velocity }
func (v *Voice) Frequency() float64 { return v.frequency }
func (v *Voice) State() EnvelopeState { return v.env.state }
func (v *Voice) Level() float64 { return v.env.level }
func (v *Voice) Waveform() Waveform { return v.waveform }
func (v *Voice) increment() float64 { return v.env.increment }
