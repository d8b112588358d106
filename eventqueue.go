package junctionbox

import "container/heap"

// eventQueue is a min-heap of events keyed on delay. Events with equal delays
// come out in insertion order.
type eventQueue struct {
	items []queuedEvent
}

type queuedEvent struct {
	Event
	seq int
}

func (q *eventQueue) Len() int { return len(q.items) }

func (q *eventQueue) Less(i, k int) bool {
	a, b := q.items[i], q.items[k]
	if a.Delay != b.Delay {
		return a.Delay < b.Delay
	}
	return a.seq < b.seq
}

func (q *eventQueue) Swap(i, k int) { q.items[i], q.items[k] = q.items[k], q.items[i] }

func (q *eventQueue) Push(x any) { q.items = append(q.items, x.(queuedEvent)) }

func (q *eventQueue) Pop() any {
	n := len(q.items)
	it := q.items[n-1]
	q.items = q.items[:n-1]
	return it
}

// newEventQueue builds a replay queue over a copy of events.
func newEventQueue(events []Event) *eventQueue {
	q := &eventQueue{items: make([]queuedEvent, len(events))}
	for i, e := range events {
		q.items[i] = queuedEvent{Event: e, seq: i}
	}
	heap.Init(q)
	return q
}

// next removes and returns the event with the smallest delay.
func (q *eventQueue) next() (Event, bool) {
	if q.Len() == 0 {
		return Event{}, false
	}
	return heap.Pop(q).(queuedEvent).Event, true
}
