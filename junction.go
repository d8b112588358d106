package junctionbox

import (
	"sync"
	"sync/atomic"
)

// Config holds the capability flags and limits of a Junction. A child copies
// its parent's Config once when it is attached; later changes to the parent
// only reach existing children through the Allow* and Limit* methods that
// propagate explicitly.
type Config struct {
	Rotatable1 bool // rotate with one contact around the center
	Rotatable2 bool // rotate with the angle between two contacts

	Scalable       bool // pinch scaling with two contacts
	ScalableWidth  bool
	ScalableHeight bool

	Translatable           bool
	TranslatableX          bool
	TranslatableY          bool
	MinTranslationContacts int
	MaxTranslationContacts int

	LimitAngle         bool
	MinAngle, MaxAngle float64

	MinWidth, MaxWidth           float64
	MinHeight, MaxHeight         float64
	MinTranslateX, MaxTranslateX float64
	MinTranslateY, MaxTranslateY float64
}

// DefaultConfig returns the configuration of a new Junction inside a
// boxWidth x boxHeight bounding box: the center may travel anywhere in the
// box, sizes range from 1 to the box extents, and no gestures are enabled.
func DefaultConfig(boxWidth, boxHeight float64) Config {
	return Config{
		ScalableWidth:  true,
		ScalableHeight: true,
		TranslatableX:  true,
		TranslatableY:  true,
		MinWidth:       1,
		MaxWidth:       boxWidth,
		MinHeight:      1,
		MaxHeight:      boxHeight,
		MaxTranslateX:  boxWidth,
		MaxTranslateY:  boxHeight,
	}
}

// Rotatable reports whether either rotation gesture is enabled.
func (c Config) Rotatable() bool {
	return c.Rotatable1 || c.Rotatable2
}

// translates reports whether a gesture with count contacts moves the center.
func (c Config) translates(count int) bool {
	return c.Translatable && count >= c.MinTranslationContacts && count <= c.MaxTranslationContacts
}

// Junction is a touch zone. It owns the contacts that land inside it and
// decomposes their motion into translate, rotate and scale changes, which it
// reports to its Relay as normalized parameter messages. Junctions nest:
// children are hit-tested before their parent and follow its gestures.
type Junction struct {
	mu sync.Mutex

	label  string
	shape  Shape
	cfg    Config
	target Relay

	centerX, centerY float64
	width, height    float64
	angle            float64
	toggleOn         bool
	rotationCount    int

	lastContactCount int

	// Inter-contact memory for two-contact gestures.
	pairDist     float64
	pairTheta    float64
	hasPairDist  bool
	hasPairTheta bool

	live       atomic.Bool
	recordable atomic.Bool
	savable    atomic.Bool

	parent   atomic.Pointer[Junction]
	contacts contactSet
	children junctionList
	actions  actionBindings
}

// NewJunction creates a rectangular Junction centered on (x, y) with the
// given size, limited to a boxWidth x boxHeight bounding box. The Junction
// starts live, recordable and savable.
func NewJunction(boxWidth, boxHeight, x, y, w, h float64) *Junction {
	return NewJunctionWithConfig(DefaultConfig(boxWidth, boxHeight), x, y, w, h)
}

// NewJunctionWithConfig creates a rectangular Junction with an explicit
// configuration. The initial geometry is clamped to the configured limits.
func NewJunctionWithConfig(cfg Config, x, y, w, h float64) *Junction {
	j := &Junction{
		shape:   ShapeRect,
		cfg:     cfg,
		centerX: x,
		centerY: y,
		width:   w,
		height:  h,
	}
	j.clampLocked()
	j.live.Store(true)
	j.recordable.Store(true)
	j.savable.Store(true)
	return j
}

// clampLocked pulls the geometry back inside the configured limits without
// signaling. Callers hold j.mu or own j exclusively.
func (j *Junction) clampLocked() {
	c := &j.cfg
	j.centerX = clamp(j.centerX, c.MinTranslateX, c.MaxTranslateX)
	j.centerY = clamp(j.centerY, c.MinTranslateY, c.MaxTranslateY)
	j.width = clamp(j.width, c.MinWidth, c.MaxWidth)
	j.height = clamp(j.height, c.MinHeight, c.MaxHeight)
	if c.LimitAngle {
		j.angle = clamp(j.angle, c.MinAngle, c.MaxAngle)
	}
}

// --- Accessors ---

// Label returns the name used to match this Junction when a saved layout is
// restored.
func (j *Junction) Label() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.label
}

// SetLabel sets the Junction label.
func (j *Junction) SetLabel(label string) {
	j.mu.Lock()
	j.label = label
	j.mu.Unlock()
}

// Shape returns the hit-test shape.
func (j *Junction) Shape() Shape {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.shape
}

// SetShape sets the hit-test shape.
func (j *Junction) SetShape(s Shape) {
	j.mu.Lock()
	j.shape = s
	j.mu.Unlock()
}

// Target returns the relay parameter messages are sent to, or nil.
func (j *Junction) Target() Relay {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.target
}

// SetTarget sets the relay parameter messages are sent to. A nil relay
// silences the Junction without removing its bindings.
func (j *Junction) SetTarget(r Relay) {
	j.mu.Lock()
	j.target = r
	j.mu.Unlock()
}

// Config returns a copy of the current configuration.
func (j *Junction) Config() Config {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.cfg
}

// SetConfig replaces the configuration and clamps the current geometry into
// the new limits. Children are not affected.
func (j *Junction) SetConfig(cfg Config) {
	j.mu.Lock()
	j.cfg = cfg
	j.clampLocked()
	j.mu.Unlock()
}

// Bounds returns the current hit-test geometry.
func (j *Junction) Bounds() Bounds {
	j.mu.Lock()
	defer j.mu.Unlock()
	return Bounds{
		Shape:   j.shape,
		CenterX: j.centerX,
		CenterY: j.centerY,
		Width:   j.width,
		Height:  j.height,
		Angle:   j.angle,
	}
}

// Center returns the center point.
func (j *Junction) Center() (x, y float64) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.centerX, j.centerY
}

// CenterX returns the horizontal center.
func (j *Junction) CenterX() float64 {
	x, _ := j.Center()
	return x
}

// CenterY returns the vertical center.
func (j *Junction) CenterY() float64 {
	_, y := j.Center()
	return y
}

// Width returns the current width.
func (j *Junction) Width() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.width
}

// Height returns the current height.
func (j *Junction) Height() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.height
}

// Angle returns the rotation in radians, in (-2π, 2π].
func (j *Junction) Angle() float64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.angle
}

// RotationCount returns the number of full turns, negative for clockwise.
func (j *Junction) RotationCount() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.rotationCount
}

// Toggle returns the toggle state. It flips every time a contact is added.
func (j *Junction) Toggle() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.toggleOn
}

// SetToggle sets the toggle state without signaling.
func (j *Junction) SetToggle(on bool) {
	j.mu.Lock()
	j.toggleOn = on
	j.mu.Unlock()
}

// --- Flags ---

// IsLive reports whether the Junction accepts new contacts.
func (j *Junction) IsLive() bool { return j.live.Load() }

// SetLive enables or disables new contacts on this Junction and all of its
// descendants. Contacts already held are unaffected.
func (j *Junction) SetLive(live bool) {
	walk(j, func(n *Junction) { n.live.Store(live) })
}

// IsRecordable reports whether input routed here is recorded.
func (j *Junction) IsRecordable() bool { return j.recordable.Load() }

// AllowRecording sets whether input routed to this Junction is recorded.
func (j *Junction) AllowRecording(r bool) { j.recordable.Store(r) }

// IsSavable reports whether the Junction is written to saved layouts.
func (j *Junction) IsSavable() bool { return j.savable.Load() }

// AllowSaving sets whether the Junction is written to and restored from
// saved layouts.
func (j *Junction) AllowSaving(s bool) { j.savable.Store(s) }

// --- Capabilities ---

// update applies fn to the configuration of j and, when deep is set, of every
// descendant. Geometry is re-clamped after each change.
func (j *Junction) update(deep bool, fn func(*Config)) {
	apply := func(n *Junction) {
		n.mu.Lock()
		fn(&n.cfg)
		n.clampLocked()
		n.mu.Unlock()
	}
	if !deep {
		apply(j)
		return
	}
	walk(j, apply)
}

// AllowRotation enables or disables both rotation gestures here and in all
// descendants.
func (j *Junction) AllowRotation(r bool) {
	j.update(true, func(c *Config) { c.Rotatable1, c.Rotatable2 = r, r })
}

// AllowRotationWith sets the one-contact and two-contact rotation gestures
// independently. Descendants are not changed.
func (j *Junction) AllowRotationWith(oneContact, twoContacts bool) {
	j.update(false, func(c *Config) { c.Rotatable1, c.Rotatable2 = oneContact, twoContacts })
}

// AllowScaling enables two-contact pinch scaling here and in all descendants.
func (j *Junction) AllowScaling(s bool) {
	j.update(true, func(c *Config) { c.Scalable = s })
}

// AllowScalingWidth sets whether the width may change.
func (j *Junction) AllowScalingWidth(s bool) {
	j.update(true, func(c *Config) { c.ScalableWidth = s })
}

// AllowScalingHeight sets whether the height may change.
func (j *Junction) AllowScalingHeight(s bool) {
	j.update(true, func(c *Config) { c.ScalableHeight = s })
}

// AllowTranslation enables dragging with one or two contacts.
func (j *Junction) AllowTranslation(t bool) {
	j.AllowTranslationRange(t, 1, 2)
}

// AllowTranslationCount enables dragging with exactly n contacts. A count
// below 1 only sets the flag.
func (j *Junction) AllowTranslationCount(t bool, n int) {
	j.AllowTranslationRange(t, n, n)
}

// AllowTranslationRange enables dragging with min to max contacts. Counts
// below 1 only set the flag.
func (j *Junction) AllowTranslationRange(t bool, min, max int) {
	j.update(true, func(c *Config) {
		c.Translatable = t
		if min > 0 && max > 0 {
			c.MinTranslationContacts, c.MaxTranslationContacts = min, max
		}
	})
}

// AllowTranslationX sets whether the horizontal center may change.
func (j *Junction) AllowTranslationX(t bool) {
	j.update(true, func(c *Config) { c.TranslatableX = t })
}

// AllowTranslationY sets whether the vertical center may change.
func (j *Junction) AllowTranslationY(t bool) {
	j.update(true, func(c *Config) { c.TranslatableY = t })
}

// LimitRotation bounds the angle to [min, max] here and in all descendants.
// Rotation messages are then normalized against the limits.
func (j *Junction) LimitRotation(min, max float64) {
	j.update(true, func(c *Config) {
		c.LimitAngle = true
		c.MinAngle, c.MaxAngle = min, max
	})
}

// LimitScalingWidth bounds the width.
func (j *Junction) LimitScalingWidth(min, max float64) {
	j.update(false, func(c *Config) { c.MinWidth, c.MaxWidth = min, max })
}

// LimitScalingHeight bounds the height.
func (j *Junction) LimitScalingHeight(min, max float64) {
	j.update(false, func(c *Config) { c.MinHeight, c.MaxHeight = min, max })
}

// LimitTranslationX bounds the horizontal center here and in all descendants.
func (j *Junction) LimitTranslationX(min, max float64) {
	j.update(true, func(c *Config) { c.MinTranslateX, c.MaxTranslateX = min, max })
}

// LimitTranslationY bounds the vertical center here and in all descendants.
func (j *Junction) LimitTranslationY(min, max float64) {
	j.update(true, func(c *Config) { c.MinTranslateY, c.MaxTranslateY = min, max })
}

// --- Message bindings ---

// MapMessage binds address to action and arms the action. The address is also
// registered with the target relay when it keeps a message table.
func (j *Junction) MapMessage(a Action, address string) {
	j.actions.bind(a, address)
	if reg, ok := j.Target().(MessageRegistry); ok {
		reg.AddMessage(address)
	}
}

// UnmapMessage removes address from action. An action with no addresses left
// is disarmed.
func (j *Junction) UnmapMessage(a Action, address string) {
	j.actions.unbind(a, address)
}

// ClearMessages removes every address from every action.
func (j *Junction) ClearMessages() {
	j.actions.clear()
}

// ArmAction enables or disables signaling on an action while keeping its
// bound addresses.
func (j *Junction) ArmAction(a Action, armed bool) {
	j.actions.setArmed(a, armed)
}

// IsArmed reports whether the action is armed and bound to an address.
func (j *Junction) IsArmed(a Action) bool {
	return j.actions.armed(a)
}

// Messages returns the addresses bound to an armed action.
func (j *Junction) Messages(a Action) []string {
	return j.actions.targets(a)
}

// emit sends one message per address bound to a, carrying args. Integer
// arguments are sent as int32 and floats as float32.
func (j *Junction) emit(a Action, args ...any) {
	targets := j.actions.targets(a)
	if len(targets) == 0 {
		return
	}
	r := j.Target()
	if r == nil {
		return
	}
	for _, addr := range targets {
		r.ResetMessage(addr)
		for _, arg := range args {
			switch v := arg.(type) {
			case int:
				r.AddInt(addr, int32(v))
			case float64:
				r.AddFloat(addr, float32(v))
			}
		}
		r.Send(addr)
	}
}

// --- Hierarchy ---

// Parent returns the Junction this one is attached to, or nil.
func (j *Junction) Parent() *Junction {
	return j.parent.Load()
}

// AddJunction attaches child. The child copies this Junction's configuration
// and, when it has none of its own, its relay. A child already attached
// elsewhere is detached first. Panics if child is nil or an ancestor of j.
func (j *Junction) AddJunction(child *Junction) {
	if child == nil {
		panic("junctionbox: cannot add nil junction")
	}
	if isAncestor(child, j) {
		panic("junctionbox: adding junction would create a cycle")
	}
	if p := child.Parent(); p != nil && p != j {
		p.RemoveJunction(child)
	}
	cfg, target := j.Config(), j.Target()
	child.mu.Lock()
	child.cfg = cfg
	child.clampLocked()
	if child.target == nil {
		child.target = target
	}
	child.mu.Unlock()
	if j.children.add(child) {
		child.parent.Store(j)
	}
	if debugEnabled() {
		debugCheckTreeDepth(child)
		debugCheckChildCount(j)
	}
}

// RemoveJunction detaches child. Unknown Junctions are ignored.
func (j *Junction) RemoveJunction(child *Junction) {
	if j.children.remove(child) {
		child.parent.CompareAndSwap(j, nil)
	}
}

// Junctions returns the children in routing order. The returned slice MUST
// NOT be mutated.
func (j *Junction) Junctions() []*Junction {
	return j.children.load()
}

// JunctionCount returns the number of children.
func (j *Junction) JunctionCount() int {
	return j.children.len()
}

// Contains reports whether (x, y) is inside this Junction or any descendant.
func (j *Junction) Contains(x, y float64) bool {
	for _, c := range j.children.load() {
		if c.Contains(x, y) {
			return true
		}
	}
	return j.Bounds().Contains(x, y)
}
