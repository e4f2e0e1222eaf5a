package input

import "sync"

// Queue is the bounded FIFO every controller reader pushes into. It plays the
// role of the application's own event queue: consumers Poll it, the blocker
// Discards from it.
type Queue struct {
	mu      sync.Mutex
	events  []Event
	max     int
	dropped uint64
}

// NewQueue creates a queue holding at most size events
func NewQueue(size int) *Queue {
	if size < 1 {
		size = 1
	}
	return &Queue{
		events: make([]Event, 0, size),
		max:    size,
	}
}

// Push appends an event, dropping the oldest one when the queue is full
func (q *Queue) Push(e Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) >= q.max {
		copy(q.events, q.events[1:])
		q.events = q.events[:len(q.events)-1]
		q.dropped++
	}
	q.events = append(q.events, e)
}

// Poll removes and returns every queued event
func (q *Queue) Poll() []Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return nil
	}
	out := make([]Event, len(q.events))
	copy(out, q.events)
	q.events = q.events[:0]
	return out
}

// Discard removes every event matching pred, keeping the rest in order, and
// returns how many were removed
func (q *Queue) Discard(pred func(Event) bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	kept := q.events[:0]
	removed := 0
	for _, e := range q.events {
		if pred(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	q.events = kept
	return removed
}

// Len returns the number of queued events
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Dropped returns how many events were evicted because the queue was full
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
