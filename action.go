package junctionbox

import (
	"slices"
	"strconv"
	"sync"
)

// Action names an output channel a Junction can signal on.
type Action uint8

const (
	ActionActivate       Action = iota // int 1 on first contact, 0 when the last leaves
	ActionToggle                       // int 1/0, flips on every added contact
	ActionRotate                       // float angle
	ActionRotate1                      // float angle, only while one contact is held
	ActionRotate2                      // float angle, only while two contacts are held
	ActionScale                        // float width, float height
	ActionScaleWidth                   // float width
	ActionScaleHeight                  // float height
	ActionTranslateX                   // float centerX
	ActionTranslateY                   // float centerY
	ActionTranslate                    // float centerX, float centerY
	ActionContactX                     // int id, float x
	ActionContactY                     // int id, float y
	ActionContact                      // int id, float x, float y (rect) or r, theta (ellipse)
	ActionContactR                     // int id, float r
	ActionContactTheta                 // int id, float theta
	ActionCountContacts                // int contact count
	ActionCountRotations               // int rotation count

	actionCount
)

var actionNames = [actionCount]string{
	"activate", "toggle", "rotate", "rotate1", "rotate2",
	"scale", "scaleWidth", "scaleHeight",
	"translateX", "translateY", "translate",
	"contactX", "contactY", "contact", "contactR", "contactTheta",
	"countContacts", "countRotations",
}

// String returns the action name.
func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "Action(" + strconv.Itoa(int(a)) + ")"
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, bool) {
	for i, n := range actionNames {
		if n == name {
			return Action(i), true
		}
	}
	return 0, false
}

// --- Bindings ---

// binding is the armed flag and message targets of one action.
type binding struct {
	armed   bool
	targets []string
}

// actionBindings maps each action to the message addresses it signals.
type actionBindings struct {
	mu sync.RWMutex
	m  map[Action]*binding
}

// bind adds address to the targets of a and arms it. Returns false if the
// address was already bound.
func (b *actionBindings) bind(a Action, address string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.m == nil {
		b.m = make(map[Action]*binding)
	}
	bd := b.m[a]
	if bd == nil {
		bd = &binding{}
		b.m[a] = bd
	}
	bd.armed = true
	if slices.Contains(bd.targets, address) {
		return false
	}
	bd.targets = append(bd.targets, address)
	return true
}

// unbind removes address from a. The action is disarmed once it has no
// targets left.
func (b *actionBindings) unbind(a Action, address string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	bd := b.m[a]
	if bd == nil {
		return
	}
	if i := slices.Index(bd.targets, address); i >= 0 {
		bd.targets = slices.Delete(bd.targets, i, i+1)
	}
	if len(bd.targets) == 0 {
		delete(b.m, a)
	}
}

// setArmed arms or disarms a without touching its targets.
func (b *actionBindings) setArmed(a Action, armed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if bd := b.m[a]; bd != nil {
		bd.armed = armed
	}
}

// armed reports whether a is armed and has at least one target.
func (b *actionBindings) armed(a Action) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bd := b.m[a]
	return bd != nil && bd.armed && len(bd.targets) > 0
}

// targets returns a copy of the addresses bound to a, or nil when a is
// disarmed.
func (b *actionBindings) targets(a Action) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	bd := b.m[a]
	if bd == nil || !bd.armed {
		return nil
	}
	return slices.Clone(bd.targets)
}

func (b *actionBindings) clear() {
	b.mu.Lock()
	b.m = nil
	b.mu.Unlock()
}
