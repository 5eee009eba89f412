package engine

import (
	"sync"

	"github.com/roach88/telomere/internal/atom"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeBang is a trigger.
	EventTypeBang EventType = iota + 1
	// EventTypeFloat sets the tempo.
	EventTypeFloat
	// EventTypeMessage is a named message.
	EventTypeMessage
	// EventTypeCallback runs a function on the loop: scheduler ticks and
	// Runner.Do requests.
	EventTypeCallback
)

func (t EventType) String() string {
	switch t {
	case EventTypeBang:
		return "bang"
	case EventTypeFloat:
		return "float"
	case EventTypeMessage:
		return "message"
	case EventTypeCallback:
		return "callback"
	default:
		return "unknown"
	}
}

// Event wraps every input for the runner's queue.
type Event struct {
	Type     EventType
	Float    float32
	Message  atom.Message
	Callback func()
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so timer goroutines posting playback ticks never
// block behind slow message handling.
//
// Producers are the caller (bangs, messages) and the scheduler's timer
// goroutines (ticks). The Runner's loop is the only consumer.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// buffer of 1 coalesces signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue removes the front event without blocking.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]
	// release the callback closure and args for GC
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// The channel is closed when the queue closes.
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close stops accepting events and wakes the consumer.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
