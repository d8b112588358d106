// Package touch turns polled pointer state into junctionbox contact calls.
//
// Platform input APIs report which pointers are down each frame rather than
// sending add, move and release events. A [Tracker] diffs consecutive frames
// into AddContact, UpdateContact and RemoveContact calls. [EbitenPoller]
// builds those frames from Ebitengine mouse and touch input.
package touch

import (
	"maps"
	"slices"
)

// Point is one active pointer in a frame.
type Point struct {
	ID   int
	X, Y float64
}

// Target receives contact changes. *junctionbox.Dispatcher implements it.
type Target interface {
	AddContact(id int, x, y float64)
	UpdateContact(id int, x, y float64)
	RemoveContact(id int)
}

// Tracker diffs pointer frames against the previous frame.
type Tracker struct {
	target Target
	active map[int]Point
	seen   map[int]bool
}

// NewTracker creates a Tracker that forwards changes to target.
func NewTracker(target Target) *Tracker {
	return &Tracker{
		target: target,
		active: make(map[int]Point),
		seen:   make(map[int]bool),
	}
}

// Frame applies one frame of active pointers. New ids are added, ids whose
// position changed are updated and ids missing from the frame are removed.
// Removals are sent first, then adds and updates in frame order. A repeated
// id within a frame keeps its last position.
func (t *Tracker) Frame(points []Point) {
	clear(t.seen)
	for _, p := range points {
		t.seen[p.ID] = true
	}
	for _, id := range slices.Sorted(maps.Keys(t.active)) {
		if !t.seen[id] {
			delete(t.active, id)
			t.target.RemoveContact(id)
		}
	}
	for _, p := range points {
		prev, ok := t.active[p.ID]
		switch {
		case !ok:
			t.target.AddContact(p.ID, p.X, p.Y)
		case prev.X != p.X || prev.Y != p.Y:
			t.target.UpdateContact(p.ID, p.X, p.Y)
		default:
			continue
		}
		t.active[p.ID] = p
	}
}

// Release removes every active pointer, as if an empty frame arrived.
func (t *Tracker) Release() {
	t.Frame(nil)
}

// Active returns the ids currently down, in ascending order.
func (t *Tracker) Active() []int {
	return slices.Sorted(maps.Keys(t.active))
}
