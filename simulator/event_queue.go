package simulator

import "container/heap"

// EventQueue is a priority queue for simulation events, ordered by timestamp.
// Events with equal timestamps pop in insertion order.
type EventQueue struct {
	events  eventHeap
	nextSeq uint64
}

// NewEventQueue creates a new event queue
func NewEventQueue() *EventQueue {
	eq := &EventQueue{
		events: make(eventHeap, 0),
	}
	heap.Init(&eq.events)
	return eq
}

// Push adds an event to the queue
func (eq *EventQueue) Push(event Event) {
	heap.Push(&eq.events, queuedEvent{event: event, seq: eq.nextSeq})
	eq.nextSeq++
}

// Pop removes and returns the next event
func (eq *EventQueue) Pop() (Event, bool) {
	if eq.IsEmpty() {
		return Event{}, false
	}
	return heap.Pop(&eq.events).(queuedEvent).event, true
}

// Peek returns the next event without removing it
func (eq *EventQueue) Peek() (Event, bool) {
	if eq.IsEmpty() {
		return Event{}, false
	}
	return eq.events[0].event, true
}

// IsEmpty returns true if the queue is empty
func (eq *EventQueue) IsEmpty() bool {
	return eq.events.Len() == 0
}

// Len returns the number of events in the queue
func (eq *EventQueue) Len() int {
	return eq.events.Len()
}

// Clear removes all events from the queue
func (eq *EventQueue) Clear() {
	eq.events = make(eventHeap, 0)
	eq.nextSeq = 0
	heap.Init(&eq.events)
}

// CountByType counts the pending events of the given type
func (eq *EventQueue) CountByType(kind EventType) int {
	count := 0
	for _, qe := range eq.events {
		if qe.event.Type() == kind {
			count++
		}
	}
	return count
}

// Events returns all events in the queue (for inspection/debugging)
// Note: the slice is a copy in heap order, not pop order
func (eq *EventQueue) Events() []Event {
	events := make([]Event, len(eq.events))
	for i, qe := range eq.events {
		events[i] = qe.event
	}
	return events
}

type queuedEvent struct {
	event Event
	seq   uint64
}

// eventHeap implements heap.Interface for queuedEvent
type eventHeap []queuedEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].event.Timestamp() == h[j].event.Timestamp() {
		return h[i].seq < h[j].seq
	}
	return h[i].event.Timestamp() < h[j].event.Timestamp()
}
func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x interface{}) {
	*h = append(*h, x.(queuedEvent))
}

func (h *eventHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}
