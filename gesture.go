package junctionbox

import "math"

// --- Contact routing ---

// AddContact routes a new contact into this Junction. The first live child
// containing (x, y) claims it; otherwise the contact is held here, the
// toggle flips and the Junction signals activation on its first contact.
func (j *Junction) AddContact(id int, x, y float64) {
	for _, c := range j.children.load() {
		if c.IsLive() && c.Contains(x, y) {
			c.AddContact(id, x, y)
			return
		}
	}

	if j.contacts.len() == 0 {
		j.emit(ActionActivate, 1)
	}
	j.contacts.put(NewContact(id, x, y))

	j.mu.Lock()
	j.toggleOn = !j.toggleOn
	on := j.toggleOn
	j.mu.Unlock()
	if on {
		j.emit(ActionToggle, 1)
	} else {
		j.emit(ActionToggle, 0)
	}

	j.signalContactCount()
}

// UpdateContact moves a held contact and applies the resulting gesture. A
// child holding the id handles the update instead. Unknown ids and zero
// movement are ignored.
//
// The gesture depends on the number of contacts held: one contact drags and
// rotates around the center, two contacts drag by half the motion, rotate
// with the angle between them and scale with the change in their distance,
// and more contacts only drag by their share of the motion. The same deltas
// are then passed to every child.
func (j *Junction) UpdateContact(id int, x, y float64) {
	for _, c := range j.children.load() {
		if c.ContainsContact(id) {
			c.UpdateContact(id, x, y)
			return
		}
	}

	prev, ok := j.contacts.move(id, x, y)
	if !ok {
		return
	}
	if dist(prev.X, prev.Y, x, y) == 0 {
		return
	}

	if b := j.Bounds(); b.Contains(x, y) {
		j.signalContactPosition(b, id, x, y)
	}

	dx, dy := x-prev.X, y-prev.Y
	count := j.contacts.len()
	cfg := j.Config()
	var da, ds float64

	switch count {
	case 1:
		if cfg.translates(count) {
			j.ChangeCenter(dx, dy)
		}
		if cfg.Rotatable1 {
			cx, cy := j.Center()
			da = seamDelta(bearing(prev.X, prev.Y, cx, cy), bearing(x, y, cx, cy))
			j.changeAngle(da, count)
		}
	case 2:
		if cfg.translates(count) {
			j.ChangeCenter(dx/2, dy/2)
		}
		pair := j.contacts.sorted()
		if len(pair) != 2 {
			break
		}
		a, b := pair[0], pair[1]
		if cfg.Rotatable2 {
			theta := math.Atan2(a.Y-b.Y, a.X-b.X)
			if last, ok := j.swapPairTheta(theta); ok {
				da = seamDelta(last, theta)
				j.changeAngle(da, count)
			}
		}
		if cfg.Scalable {
			d := dist(a.X, a.Y, b.X, b.Y)
			if last, ok := j.swapPairDist(d); ok {
				ds = d - last
			}
			j.ChangeScale(ds, ds)
		}
	default:
		if cfg.translates(count) {
			n := float64(count)
			j.ChangeCenter(dx/n, dy/n)
		}
	}

	for _, c := range j.children.load() {
		c.follow(dx, dy, da, ds, ds, count)
	}
}

// follow applies a gesture of the parent. Each child gates the deltas with
// its own configuration and passes them on to its children.
func (j *Junction) follow(dx, dy, da, dw, dh float64, count int) {
	cfg := j.Config()
	if cfg.translates(count) {
		if count > 1 {
			n := float64(count)
			j.ChangeCenter(dx/n, dy/n)
		} else {
			j.ChangeCenter(dx, dy)
		}
	}
	if cfg.Rotatable() {
		j.changeAngle(da, count)
	}
	if cfg.Scalable {
		j.ChangeScale(dw, dh)
	}
	for _, c := range j.children.load() {
		c.follow(dx, dy, da, dw, dh, count)
	}
}

// RemoveContact releases a contact. A child holding the id handles it instead.
// Activation-off is signaled when the last contact leaves.
func (j *Junction) RemoveContact(id int) {
	for _, c := range j.children.load() {
		if c.ContainsContact(id) {
			c.RemoveContact(id)
			return
		}
	}

	removed, left := j.contacts.remove(id)
	if !removed {
		return
	}
	if left < 2 {
		j.resetPairMemory()
	}
	j.signalContactCount()
	if left == 0 {
		j.emit(ActionActivate, 0)
	}
}

// ClearContacts releases every contact held by this Junction and its
// descendants.
func (j *Junction) ClearContacts() {
	n := j.contacts.clear()
	j.resetPairMemory()
	j.signalContactCount()
	if n > 0 {
		j.emit(ActionActivate, 0)
	}
	for _, c := range j.children.load() {
		c.ClearContacts()
	}
}

// ContainsContact reports whether this Junction or a descendant holds id.
func (j *Junction) ContainsContact(id int) bool {
	if j.contacts.has(id) {
		return true
	}
	for _, c := range j.children.load() {
		if c.ContainsContact(id) {
			return true
		}
	}
	return false
}

// Contact returns the contact held here with the given id.
func (j *Junction) Contact(id int) (Contact, bool) {
	return j.contacts.get(id)
}

// Contacts returns copies of the contacts held here, ordered by id.
func (j *Junction) Contacts() []Contact {
	return j.contacts.sorted()
}

// ContactCount returns the number of contacts held here, not counting
// children.
func (j *Junction) ContactCount() int {
	return j.contacts.len()
}

// IsActive reports whether the Junction holds at least one contact.
func (j *Junction) IsActive() bool {
	return j.contacts.len() > 0
}

// --- Signals ---

// signalContactCount sends the contact count when it differs from the last
// count sent.
func (j *Junction) signalContactCount() {
	if !j.actions.armed(ActionCountContacts) {
		return
	}
	n := j.contacts.len()
	j.mu.Lock()
	changed := n != j.lastContactCount
	j.lastContactCount = n
	j.mu.Unlock()
	if changed {
		j.emit(ActionCountContacts, n)
	}
}

// signalContactPosition sends the position of a moved contact relative to
// the bounds: edge-normalized x and y for rectangles, normalized radius and
// bearing for ellipses.
func (j *Junction) signalContactPosition(b Bounds, id int, x, y float64) {
	switch b.Shape {
	case ShapeEllipse:
		if !j.actions.armed(ActionContact) && !j.actions.armed(ActionContactR) &&
			!j.actions.armed(ActionContactTheta) {
			return
		}
		r, theta := b.Polar(x, y)
		t := normal(theta, 0, TwoPi)
		j.emit(ActionContact, id, r, t)
		j.emit(ActionContactR, id, r)
		j.emit(ActionContactTheta, id, t)
	default:
		if !j.actions.armed(ActionContact) && !j.actions.armed(ActionContactX) &&
			!j.actions.armed(ActionContactY) {
			return
		}
		nx, ny := b.Position(x, y)
		j.emit(ActionContact, id, nx, ny)
		j.emit(ActionContactX, id, nx)
		j.emit(ActionContactY, id, ny)
	}
}

func (j *Junction) swapPairTheta(theta float64) (float64, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	last, ok := j.pairTheta, j.hasPairTheta
	j.pairTheta, j.hasPairTheta = theta, true
	return last, ok
}

func (j *Junction) swapPairDist(d float64) (float64, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	last, ok := j.pairDist, j.hasPairDist
	j.pairDist, j.hasPairDist = d, true
	return last, ok
}

func (j *Junction) resetPairMemory() {
	j.mu.Lock()
	j.pairDist, j.pairTheta = 0, 0
	j.hasPairDist, j.hasPairTheta = false, false
	j.mu.Unlock()
}
