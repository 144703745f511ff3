package audio

import (
	"runtime"
	"sync/atomic"
)

type eventKind uint8

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventParam
	eventReset
)

type event struct {
	kind     eventKind
	offset   int // frame offset into the next buffer
	pitch    int
	velocity float64
	param    ParamID
	value    float64
}

// eventBuffer is a lock-free spsc queue.
type eventBuffer struct {
	events      []event
	read, write *uint32
}

func newEventBuffer(size int) *eventBuffer {
	if size <= 0 || size&(size-1) != 0 {
		panic("event buffer size must be a power of 2")
	}
	return &eventBuffer{
		events: make([]event, size),
		read:   new(uint32),
		write:  new(uint32),
	}
}

// push blocks while the buffer is full. It must not be called from the
// goroutine that drains the buffer.
func (b *eventBuffer) push(ev event) {
	for !b.tryPush(ev) {
		runtime.Gosched()
	}
}

// tryPush queues ev unless the buffer is full.
func (b *eventBuffer) tryPush(ev event) bool {
	write := atomic.LoadUint32(b.write)
	if write-atomic.LoadUint32(b.read) == uint32(len(b.events)) {
		return false
	}
	b.events[write%uint32(len(b.events))] = ev
	atomic.StoreUint32(b.write, write+1)
	return true
}

// iter calls f for queued events with an offset before untilOffset, in push
// order. An untilOffset of -1 drains every queued event.
func (b *eventBuffer) iter(untilOffset int, f func(event)) {
	read := atomic.LoadUint32(b.read)
	write := atomic.LoadUint32(b.write)
	if read == write {
		return
	}
	for read != write {
		event := b.events[read%uint32(len(b.events))]
		if event.offset >= untilOffset && untilOffset != -1 {
			break
		}
		f(event)
		read++
	}
	atomic.StoreUint32(b.read, read)
}

// len returns the number of queued events.
func (b *eventBuffer) len() int {
	return int(atomic.LoadUint32(b.write) - atomic.LoadUint32(b.read))
}
