package audio

// EnvelopeState is the current phase of an ADSR envelope.
type EnvelopeState int

const (
	StateIdle EnvelopeState = iota
	StateAttack
	StateDecay
	StateSustain
	StateRelease
)

func (s EnvelopeState) String() string {
	switch s {
	case StateAttack:
		return "attack"
	case StateDecay:
		return "decay"
	case StateSustain:
		return "sustain"
	case StateRelease:
		return "release"
	default:
		return "idle"
	}
}

// ADSR holds envelope settings. Sustain is a level in [0, 1], the others are
// durations in seconds where 0 means an instantaneous transition.
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// releaseFloor is the level at which a releasing envelope is considered silent.
const releaseFloor = 0.001

// envelope is a linear-segment ADSR. The increment of each segment is computed
// once when the segment is entered, from the level at that moment.
type envelope struct {
	ADSR
	sampleRate float64

	level     float64
	increment float64
	state     EnvelopeState
}

func (e *envelope) startAttack() {
	e.state = StateAttack
	e.level = 0
	e.updateIncrement()
}

func (e *envelope) startRelease() {
	e.state = StateRelease
	e.updateIncrement()
}

func (e *envelope) reset() {
	e.state = StateIdle
	e.level = 0
	e.increment = 0
}

// updateIncrement recomputes the per-sample delta for the current state.
func (e *envelope) updateIncrement() {
	switch e.state {
	case StateAttack:
		if e.Attack > 0 {
			e.increment = 1.0 / (e.Attack * e.sampleRate)
		} else {
			e.increment = 1.0
		}
	case StateDecay:
		if e.Decay > 0 {
			e.increment = -(1.0 - e.Sustain) / (e.Decay * e.sampleRate)
		} else {
			e.increment = -(1.0 - e.Sustain)
		}
	case StateRelease:
		if e.Release > 0 {
			e.increment = -e.level / (e.Release * e.sampleRate)
		} else {
			e.increment = -e.level
		}
	default:
		e.increment = 0
	}
}

// step advances the envelope by one sample. It returns false once the
// envelope has finished and the owning voice should go idle.
func (e *envelope) step() bool {
	switch e.state {
	case StateAttack:
		e.level += e.increment
		if e.level >= 1.0 {
			e.level = 1.0
			e.state = StateDecay
			e.updateIncrement()
		}
	case StateDecay:
		e.level += e.increment
		if e.level <= e.Sustain {
			e.level = e.Sustain
			e.state = StateSustain
			e.increment = 0
		}
	case StateSustain:
		e.level = e.Sustain
	case StateRelease:
		e.level += e.increment
		if e.level <= releaseFloor {
			e.reset()
			return false
		}
	case StateIdle:
		return false
	}
	return true
}
