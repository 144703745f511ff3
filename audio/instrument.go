package audio

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
)

// blockSize is the granularity at which queued events are applied to the
// engine. At 44.1kHz this is about 0.35ms.
const blockSize = 16

const eventBufferSize = 1024

// ProcessStatus is returned by Instrument.Process.
type ProcessStatus int

const (
	StatusContinue ProcessStatus = iota
	StatusSleep
)

// Playable receives notes from the sequencer with a frame offset into the
// next buffer. It is called on the audio thread and must not block.
type Playable interface {
	ScheduleNoteOn(offset, pitch int, velocity float64)
	ScheduleNoteOff(offset, pitch int)
}

// Instrument adapts an Engine to a host. Events may be queued from any
// goroutine; Process must only be called from the audio thread, which is the
// only place the engine is touched while processing.
type Instrument struct {
	*Props
	engine    *Engine
	params    [numParams]*atomic.Value
	events    *eventBuffer
	mu        sync.Mutex   // serializes producers
	scheduled *eventBuffer // written by the sequencer on the audio thread
	dropped   atomic.Uint64
	apply     func(event)
	applyIdle func(event)

	active     atomic.Bool
	processing atomic.Bool
	maxFrames  int

	left, right [blockSize]float32

	statusMu sync.Mutex
	status   []VoiceStatus
}

func NewInstrument(sampleRate float64) *Instrument {
	props := NewProps()
	i := &Instrument{
		Props:     props,
		engine:    NewEngine(sampleRate),
		events:    newEventBuffer(eventBufferSize),
		scheduled: newEventBuffer(eventBufferSize),
		status:    make([]VoiceStatus, 0, NumVoices),
	}
	for id := ParamID(0); id < numParams; id++ {
		i.params[id] = props.MustRegister(id.String(), setParam(id), ParamInfos[id].Default)
	}
	i.apply = i.applyEvent
	i.applyIdle = func(ev event) {
		if ev.kind != eventNoteOn {
			i.applyEvent(ev)
		}
	}
	i.status = i.engine.Voices(i.status)
	return i
}

// Activate prepares the instrument for processing at sampleRate. It must not
// be called while processing.
func (i *Instrument) Activate(sampleRate float64, minFrames, maxFrames int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %v", sampleRate)
	}
	if i.processing.Load() {
		return errors.New("activate: instrument is processing")
	}
	i.engine.SetSampleRate(sampleRate)
	i.maxFrames = maxFrames
	i.active.Store(true)
	return nil
}

func (i *Instrument) Deactivate() {
	i.processing.Store(false)
	i.active.Store(false)
}

func (i *Instrument) StartProcessing() error {
	if !i.active.Load() {
		return errors.New("start processing: instrument is not active")
	}
	i.processing.Store(true)
	return nil
}

func (i *Instrument) StopProcessing() {
	i.processing.Store(false)
}

func (i *Instrument) SampleRate() float64 { return i.engine.SampleRate() }

// Process adds the instrument output to samples, which holds one slice per
// channel. A single channel receives the mono mix. Only as many frames as the
// shortest of the first two channels are rendered.
//
// While the instrument is not processing, queued note-ons and sequenced notes
// are dropped and the remaining events are applied, so producers never wait
// on a sleeping instrument.
func (i *Instrument) Process(samples [][]float32) ProcessStatus {
	if len(samples) == 0 || !i.processing.Load() {
		i.scheduled.iter(-1, discard)
		i.events.iter(-1, i.applyIdle)
		return StatusSleep
	}
	left := samples[0]
	right := left
	if len(samples) > 1 {
		right = samples[1]
	}
	frames := min(len(left), len(right))
	for n := 0; n < frames; n += blockSize {
		end := n + blockSize
		until := end
		if end >= frames {
			end = frames
			until = -1
		}
		i.events.iter(until, i.apply)
		i.scheduled.iter(until, i.apply)

		l, r := i.left[:end-n], i.right[:end-n]
		i.engine.RenderBlock(l, r)
		for k := range l {
			left[n+k] += l[k]
			if len(samples) > 1 {
				right[n+k] += r[k]
			}
		}
	}
	if frames == 0 {
		i.events.iter(-1, i.apply)
		i.scheduled.iter(-1, i.apply)
	}
	if i.statusMu.TryLock() {
		i.status = i.engine.Voices(i.status[:0])
		i.statusMu.Unlock()
	}
	return StatusContinue
}

// Flush applies queued events without rendering. Use it only when nothing
// else calls Process, or from the audio thread.
func (i *Instrument) Flush() {
	i.events.iter(-1, i.apply)
	i.scheduled.iter(-1, i.apply)
	i.statusMu.Lock()
	i.status = i.engine.Voices(i.status[:0])
	i.statusMu.Unlock()
}

func (i *Instrument) applyEvent(ev event) {
	switch ev.kind {
	case eventNoteOn:
		i.engine.NoteOn(ev.pitch, ev.velocity)
	case eventNoteOff:
		i.engine.NoteOff(ev.pitch)
	case eventParam:
		i.engine.SetParam(ev.param, ev.value)
	case eventReset:
		i.engine.Reset()
	}
}

func discard(event) {}

func (i *Instrument) push(ev event) {
	i.mu.Lock()
	i.events.push(ev)
	i.mu.Unlock()
}

// NoteOn queues a note-on. Pitch and velocity are clamped to 0-127 and 0-1.
func (i *Instrument) NoteOn(offset, pitch int, velocity float64) {
	i.push(event{kind: eventNoteOn, offset: offset, pitch: clampPitch(pitch), velocity: clampVelocity(velocity)})
}

func (i *Instrument) NoteOff(offset, pitch int) {
	i.push(event{kind: eventNoteOff, offset: offset, pitch: clampPitch(pitch)})
}

// ScheduleNoteOn queues a note-on from the audio thread. The note is dropped
// if the queue is full.
func (i *Instrument) ScheduleNoteOn(offset, pitch int, velocity float64) {
	i.schedule(event{kind: eventNoteOn, offset: offset, pitch: clampPitch(pitch), velocity: clampVelocity(velocity)})
}

func (i *Instrument) ScheduleNoteOff(offset, pitch int) {
	i.schedule(event{kind: eventNoteOff, offset: offset, pitch: clampPitch(pitch)})
}

func (i *Instrument) schedule(ev event) {
	if !i.scheduled.tryPush(ev) {
		i.dropped.Add(1)
	}
}

// DroppedEvents returns the number of sequenced notes lost to a full queue.
func (i *Instrument) DroppedEvents() uint64 {
	return i.dropped.Load()
}

// Reset queues an immediate silence of all voices.
func (i *Instrument) Reset() {
	i.push(event{kind: eventReset})
}

// SetParam clamps value to the parameter range and queues the change.
func (i *Instrument) SetParam(id ParamID, value float64) {
	if !id.Valid() {
		return
	}
	value = id.Clamp(value)
	i.params[id].Store(value)
	i.push(event{kind: eventParam, param: id, value: value})
}

// Set updates a property by name. Synth parameters are validated and queued
// for the engine.
func (i *Instrument) Set(key string, value interface{}) error {
	id, err := ParamByName(key)
	if err != nil {
		return i.Props.Set(key, value)
	}
	if err := i.Props.Set(id.String(), value); err != nil {
		return err
	}
	i.push(event{kind: eventParam, param: id, value: i.params[id].Load().(float64)})
	return nil
}

func (i *Instrument) Get(key string) (interface{}, error) {
	if id, err := ParamByName(key); err == nil {
		key = id.String()
	}
	return i.Props.Get(key)
}

func clampVelocity(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampPitch(p int) int {
	if p < 0 {
		return 0
	}
	if p > 127 {
		return 127
	}
	return p
}

// Voices returns the voice states published by the last processed buffer.
func (i *Instrument) Voices() []VoiceStatus {
	i.statusMu.Lock()
	defer i.statusMu.Unlock()
	return append([]VoiceStatus(nil), i.status...)
}

func (i *Instrument) ParamCount() int { return int(numParams) }

// ParamInfo returns the description of the parameter at index.
func (i *Instrument) ParamInfo(index int) (ParamInfo, bool) {
	if index < 0 || index >= int(numParams) {
		return ParamInfo{}, false
	}
	return ParamInfos[index], true
}

// ParamValue returns the last value set for id.
func (i *Instrument) ParamValue(id ParamID) (float64, bool) {
	if !id.Valid() {
		return 0, false
	}
	return i.params[id].Load().(float64), true
}

func (i *Instrument) ParamValueToText(id ParamID, value float64) (string, error) {
	return ValueToText(id, value)
}

func (i *Instrument) ParamTextToValue(id ParamID, text string) (float64, error) {
	return TextToValue(id, text)
}

// NotePortInfo describes a note port.
type NotePortInfo struct {
	ID      int
	Name    string
	Dialect string
}

// AudioPortInfo describes an audio port.
type AudioPortInfo struct {
	ID       int
	Name     string
	Channels int
	Main     bool
}

// The instrument has a single MIDI note input and a single stereo output.
var (
	noteInput   = NotePortInfo{ID: 0, Name: "Note Input", Dialect: "midi"}
	audioOutput = AudioPortInfo{ID: 0, Name: "Audio Output", Channels: 2, Main: true}
)

func (i *Instrument) NotePortCount(input bool) int {
	if input {
		return 1
	}
	return 0
}

func (i *Instrument) NotePort(index int, input bool) (NotePortInfo, bool) {
	if !input || index != 0 {
		return NotePortInfo{}, false
	}
	return noteInput, true
}

func (i *Instrument) AudioPortCount(input bool) int {
	if input {
		return 0
	}
	return 1
}

func (i *Instrument) AudioPort(index int, input bool) (AudioPortInfo, bool) {
	if input || index != 0 {
		return AudioPortInfo{}, false
	}
	return audioOutput, true
}
