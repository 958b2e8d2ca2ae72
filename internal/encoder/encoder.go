// Package encoder turns the rotary encoder into discrete, debounced events
// that the control loop polls once per cycle.
package encoder

import "fmt"

// Event is one debounced encoder action.
type Event int

const (
	None Event = iota
	Pressed
	RotatedLeft
	RotatedRight
)

func (e Event) String() string {
	switch e {
	case None:
		return "none"
	case Pressed:
		return "pressed"
	case RotatedLeft:
		return "left"
	case RotatedRight:
		return "right"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// Source is polled by the control loop. Next never blocks; it returns None
// when nothing is pending.
type Source interface {
	Next() Event
}

// DefaultQueueSize holds a few detents of fast spinning.
const DefaultQueueSize = 8

// Queue is a bounded event queue. Producers never block: when the queue is
// full the newest event is dropped.
type Queue struct {
	ch chan Event
}

func NewQueue(size int) *Queue {
	if size < 1 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

// Push enqueues e and reports whether it was accepted.
func (q *Queue) Push(e Event) bool {
	if e == None {
		return false
	}
	select {
	case q.ch <- e:
		return true
	default:
		return false
	}
}

// Next pops one event, or None.
func (q *Queue) Next() Event {
	select {
	case e := <-q.ch:
		return e
	default:
		return None
	}
}

// Len returns the number of pending events.
func (q *Queue) Len() int { return len(q.ch) }
