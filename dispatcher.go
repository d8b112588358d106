package junctionbox

import (
	"context"
	"sync"
)

// Dispatcher is the entry point for contact input. It routes contacts through
// an ordered list of top-level Junctions and drives a Timeline that records
// and replays the routed input.
type Dispatcher struct {
	boxWidth, boxHeight float64

	mu     sync.Mutex
	target Relay
	mouse  mouseState

	junctions junctionList
	timeline  *Timeline
}

// mouseState tracks the press state of the mouse routed as contact 0.
type mouseState struct {
	down bool
}

// MouseContactID is the contact id RouteMouse uses.
const MouseContactID = 0

// NewDispatcher creates a Dispatcher for a boxWidth x boxHeight input plane.
// Junctions it creates are limited to that box.
func NewDispatcher(boxWidth, boxHeight float64) *Dispatcher {
	return &Dispatcher{
		boxWidth:  boxWidth,
		boxHeight: boxHeight,
		timeline:  NewTimeline(),
	}
}

// BoxSize returns the bounding box Junctions are created in.
func (d *Dispatcher) BoxSize() (w, h float64) {
	return d.boxWidth, d.boxHeight
}

// Timeline returns the Dispatcher's record/playback timeline.
func (d *Dispatcher) Timeline() *Timeline {
	return d.timeline
}

// Target returns the relay assigned with SetTarget.
func (d *Dispatcher) Target() Relay {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.target
}

// SetTarget assigns r to every top-level Junction and their descendants, and
// to Junctions added later.
func (d *Dispatcher) SetTarget(r Relay) {
	d.mu.Lock()
	d.target = r
	d.mu.Unlock()
	for _, j := range d.junctions.load() {
		walk(j, func(n *Junction) { n.SetTarget(r) })
	}
}

// --- Junction list ---

// CreateJunction creates a Junction in the Dispatcher's box, adds it to the
// top of the routing order and returns it.
func (d *Dispatcher) CreateJunction(x, y, w, h float64) *Junction {
	j := NewJunction(d.boxWidth, d.boxHeight, x, y, w, h)
	d.AddJunction(j)
	return j
}

// AddJunction appends j to the routing order. Later Junctions win when
// Junctions overlap. Adding a Junction twice has no effect.
func (d *Dispatcher) AddJunction(j *Junction) {
	if j == nil {
		panic("junctionbox: cannot add nil junction")
	}
	if !d.junctions.add(j) {
		return
	}
	if r := d.Target(); r != nil && j.Target() == nil {
		walk(j, func(n *Junction) { n.SetTarget(r) })
	}
	if debugEnabled() {
		pkgLog().Debug("junction added", "junction", j.Label(), "count", d.junctions.len())
	}
}

// RemoveJunction removes j from the routing order.
func (d *Dispatcher) RemoveJunction(j *Junction) {
	d.junctions.remove(j)
}

// OrderJunction moves j to position order in the routing order. Unknown
// Junctions and out of range positions are ignored.
func (d *Dispatcher) OrderJunction(order int, j *Junction) {
	d.junctions.move(j, order)
}

// Junctions returns the top-level Junctions in routing order, last wins. The
// returned slice MUST NOT be mutated.
func (d *Dispatcher) Junctions() []*Junction {
	return d.junctions.load()
}

// JunctionByLabel returns the first top-level Junction with the label.
func (d *Dispatcher) JunctionByLabel(label string) *Junction {
	for _, j := range d.junctions.load() {
		if j.Label() == label {
			return j
		}
	}
	return nil
}

// ClearJunctions removes every top-level Junction.
func (d *Dispatcher) ClearJunctions() {
	d.junctions.clear()
}

// --- Contact routing ---

// replayID maps a live contact id into the negative range used by recorded
// events, so replayed contacts never collide with live ones.
func replayID(id int) int {
	return -(id + 1)
}

// AddContact routes a new contact to the last live top-level Junction that
// contains (x, y). Points outside every Junction are dropped.
func (d *Dispatcher) AddContact(id int, x, y float64) {
	js := d.junctions.load()
	for i := len(js) - 1; i >= 0; i-- {
		j := js[i]
		if !j.IsLive() || !j.Contains(x, y) {
			continue
		}
		if j.IsRecordable() {
			d.timeline.Record(EventAdd, replayID(id), x, y)
		}
		j.AddContact(id, x, y)
		return
	}
}

// UpdateContact routes a contact move to the top-level Junction holding it.
func (d *Dispatcher) UpdateContact(id int, x, y float64) {
	js := d.junctions.load()
	for i := len(js) - 1; i >= 0; i-- {
		j := js[i]
		if !j.ContainsContact(id) {
			continue
		}
		if j.IsRecordable() {
			d.timeline.Record(EventUpdate, replayID(id), x, y)
		}
		j.UpdateContact(id, x, y)
		return
	}
}

// RemoveContact releases a contact from every top-level Junction holding it.
func (d *Dispatcher) RemoveContact(id int) {
	js := d.junctions.load()
	for _, j := range js {
		if j.IsRecordable() && j.ContainsContact(id) {
			d.timeline.Record(EventRemove, replayID(id), 0, 0)
			break
		}
	}
	for i := len(js) - 1; i >= 0; i-- {
		if j := js[i]; j.ContainsContact(id) {
			j.RemoveContact(id)
		}
	}
}

// ClearContacts releases every contact in every Junction.
func (d *Dispatcher) ClearContacts() {
	js := d.junctions.load()
	for i := len(js) - 1; i >= 0; i-- {
		js[i].ClearContacts()
	}
}

// RouteMouse feeds a mouse as contact MouseContactID: a press adds the
// contact, motion while pressed updates it and a release removes it.
func (d *Dispatcher) RouteMouse(pressed bool, x, y float64) {
	d.mu.Lock()
	was := d.mouse.down
	d.mouse.down = pressed
	d.mu.Unlock()

	switch {
	case pressed && !was:
		d.AddContact(MouseContactID, x, y)
	case pressed:
		d.UpdateContact(MouseContactID, x, y)
	case was:
		d.RemoveContact(MouseContactID)
	}
}

// --- Timeline control ---

// StartRecording opens a recording session.
func (d *Dispatcher) StartRecording() error {
	if err := d.timeline.StartRecording(); err != nil {
		return err
	}
	pkgLog().Debug("recording started", "session", d.timeline.Session())
	return nil
}

// StopRecording closes the recording session.
func (d *Dispatcher) StopRecording() error {
	if err := d.timeline.StopRecording(); err != nil {
		return err
	}
	pkgLog().Debug("recording stopped",
		"events", d.timeline.EventCount(), "recordTime", d.timeline.RecordTime())
	return nil
}

// StartPlaying replays the recorded events on a background goroutine.
func (d *Dispatcher) StartPlaying() error {
	return d.timeline.play(d)
}

// LoopPlaying arms looping and starts playback.
func (d *Dispatcher) LoopPlaying() error {
	if d.timeline.State() != StateStopped {
		return ErrNotStopped
	}
	d.timeline.StartLooping()
	if err := d.timeline.play(d); err != nil {
		d.timeline.StopLooping()
		return err
	}
	return nil
}

// StopPlaying cancels playback. Use Wait to block until the contacts are
// cleared and the timeline is stopped.
func (d *Dispatcher) StopPlaying() {
	d.timeline.stop()
}

// Wait blocks until playback has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	return d.timeline.Wait(ctx)
}

// AppendEvents adds synthesized events to the timeline as a new session.
func (d *Dispatcher) AppendEvents(events ...Event) (int, error) {
	return d.timeline.Append(events...)
}
