package sched

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// EventType enumerates the emitted events described in spec §6: admission,
// state transition, allocation/free, preemption, termination.
type EventType string

const (
	EventAdmitted    EventType = "admitted"
	EventTransition  EventType = "transition"
	EventAllocated   EventType = "allocated"
	EventFreed       EventType = "freed"
	EventPreempted   EventType = "preempted"
	EventTerminated  EventType = "terminated"
)

// Event is a single emitted occurrence, stamped with a correlation ID so
// a host can line up related log lines (e.g. free+terminate for the same
// pid) without re-deriving causality from timestamps.
type Event struct {
	ID   string
	Type EventType
	Time int32
	Pid  uint32

	// Populated depending on Type.
	FromState State
	ToState   State
	Hole      Hole
	OldPid    uint32
	NewPid    uint32
}

// EventSink receives scheduler events. Implementations must not block the
// caller for long — the scheduler emits synchronously from within Submit
// and Tick.
type EventSink interface {
	Emit(Event)
}

// EventDispatcher relays events to a callback sequentially and
// asynchronously, so a slow consumer (a UI repaint, a log shipper)
// cannot stall the scheduler's own tick loop. Modeled on the teacher's
// orchestrator.EventDispatcher: a buffered channel drained by one
// goroutine, non-blocking sends that drop and warn on backpressure
// rather than block, and a Close that waits for the queue to drain.
type EventDispatcher struct {
	callback func(Event)
	eventCh  chan Event
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
}

// NewEventDispatcher starts the dispatch loop. A nil callback yields a
// dispatcher whose Emit is a no-op.
func NewEventDispatcher(callback func(Event)) *EventDispatcher {
	if callback == nil {
		return &EventDispatcher{}
	}
	d := &EventDispatcher{
		callback: callback,
		eventCh:  make(chan Event, 256),
	}
	d.wg.Add(1)
	go d.loop()
	return d
}

func (d *EventDispatcher) loop() {
	defer d.wg.Done()
	for e := range d.eventCh {
		func() {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("sched: event callback panicked", "panic", r, "event_id", e.ID)
				}
			}()
			d.callback(e)
		}()
	}
}

// Emit stamps the event with a fresh correlation ID and enqueues it.
func (d *EventDispatcher) Emit(e Event) {
	if d.callback == nil {
		return
	}
	e.ID = uuid.NewString()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	select {
	case d.eventCh <- e:
	default:
		slog.Warn("sched: event dispatcher backlog full, dropping event",
			"event_type", e.Type, "pid", e.Pid)
	}
}

// Close stops accepting events and waits for the queue to drain.
func (d *EventDispatcher) Close() {
	d.mu.Lock()
	if d.callback == nil || d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	d.mu.Unlock()

	close(d.eventCh)
	d.wg.Wait()
}
