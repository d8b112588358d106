package junctionbox

import (
	"slices"
	"sync"
	"sync/atomic"
)

// junctionList is an ordered copy-on-write list of Junctions. Routing iterates
// a loaded snapshot without locking while structural changes publish a fresh
// slice, so a list may be walked while another goroutine adds or removes
// entries.
type junctionList struct {
	mu sync.Mutex
	p  atomic.Pointer[[]*Junction]
}

// load returns the current snapshot. The returned slice MUST NOT be mutated.
func (l *junctionList) load() []*Junction {
	if p := l.p.Load(); p != nil {
		return *p
	}
	return nil
}

func (l *junctionList) store(s []*Junction) {
	l.p.Store(&s)
}

func (l *junctionList) len() int {
	return len(l.load())
}

// add appends j unless it is already present.
func (l *junctionList) add(j *Junction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.load()
	if slices.Contains(cur, j) {
		return false
	}
	next := make([]*Junction, len(cur), len(cur)+1)
	copy(next, cur)
	l.store(append(next, j))
	return true
}

// remove deletes j and reports whether it was present.
func (l *junctionList) remove(j *Junction) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.load()
	i := slices.Index(cur, j)
	if i < 0 {
		return false
	}
	next := make([]*Junction, 0, len(cur)-1)
	next = append(next, cur[:i]...)
	next = append(next, cur[i+1:]...)
	l.store(next)
	return true
}

// move places j at index, shifting the others. Unknown Junctions and out of
// range indices are ignored.
func (l *junctionList) move(j *Junction, index int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.load()
	old := slices.Index(cur, j)
	if old < 0 || index < 0 || index >= len(cur) {
		return false
	}
	if old == index {
		return true
	}
	next := slices.Clone(cur)
	next = slices.Delete(next, old, old+1)
	next = slices.Insert(next, index, j)
	l.store(next)
	return true
}

// clear empties the list and returns the previous snapshot.
func (l *junctionList) clear() []*Junction {
	l.mu.Lock()
	defer l.mu.Unlock()
	cur := l.load()
	l.p.Store(nil)
	return cur
}

// --- Traversal ---

// walk calls fn for j and every descendant, depth first.
func walk(j *Junction, fn func(*Junction)) {
	fn(j)
	for _, c := range j.children.load() {
		walk(c, fn)
	}
}

// isAncestor reports whether candidate is j or one of its ancestors.
func isAncestor(candidate, j *Junction) bool {
	for p := j; p != nil; p = p.Parent() {
		if p == candidate {
			return true
		}
	}
	return false
}
