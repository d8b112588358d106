package junctionbox

import (
	"slices"
	"sync"
	"sync/atomic"
)

// Contact is a tracked touch point. FirstX and FirstY hold the position the
// contact was created at and never change.
type Contact struct {
	ID     int
	X, Y   float64
	FirstX float64
	FirstY float64
}

// NewContact creates a contact whose first and current positions are (x, y).
func NewContact(id int, x, y float64) Contact {
	return Contact{ID: id, X: x, Y: y, FirstX: x, FirstY: y}
}

// moved returns a copy of c at a new position.
func (c Contact) moved(x, y float64) Contact {
	c.X, c.Y = x, y
	return c
}

// --- Copy-on-write contact map ---

// contactSet is a copy-on-write map of contacts keyed by id. Readers load the
// current map without locking and may iterate it while writers publish a new
// one. Writers serialize on mu.
type contactSet struct {
	mu sync.Mutex
	m  atomic.Pointer[map[int]Contact]
}

func (s *contactSet) load() map[int]Contact {
	if p := s.m.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *contactSet) get(id int) (Contact, bool) {
	c, ok := s.load()[id]
	return c, ok
}

func (s *contactSet) has(id int) bool {
	_, ok := s.load()[id]
	return ok
}

func (s *contactSet) len() int {
	return len(s.load())
}

// put inserts or replaces c and returns the number of contacts before the
// write.
func (s *contactSet) put(c Contact) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.load()
	next := make(map[int]Contact, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[c.ID] = c
	s.m.Store(&next)
	return len(old)
}

// move updates the position of an existing contact. It returns the previous
// state and false if the id is unknown.
func (s *contactSet) move(id int, x, y float64) (Contact, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.load()
	prev, ok := old[id]
	if !ok {
		return Contact{}, false
	}
	next := make(map[int]Contact, len(old))
	for k, v := range old {
		next[k] = v
	}
	next[id] = prev.moved(x, y)
	s.m.Store(&next)
	return prev, true
}

// remove deletes id and reports whether it was present along with the number
// of contacts left.
func (s *contactSet) remove(id int) (bool, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.load()
	if _, ok := old[id]; !ok {
		return false, len(old)
	}
	next := make(map[int]Contact, len(old))
	for k, v := range old {
		if k != id {
			next[k] = v
		}
	}
	s.m.Store(&next)
	return true, len(next)
}

// clear drops every contact and returns how many there were.
func (s *contactSet) clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.load())
	s.m.Store(nil)
	return n
}

// sorted returns the contacts ordered by id.
func (s *contactSet) sorted() []Contact {
	m := s.load()
	out := make([]Contact, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b Contact) int { return a.ID - b.ID })
	return out
}
