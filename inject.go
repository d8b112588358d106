package junctionbox

import (
	"context"
	"math"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// --- Synthesized gestures ---

// SynthesizeTap returns the events of a contact pressed at (x, y) and
// released after hold.
func SynthesizeTap(id int, x, y float64, hold time.Duration) []Event {
	return []Event{
		{Type: EventAdd, ID: id, X: x, Y: y},
		{Type: EventRemove, ID: id, Delay: hold},
	}
}

// SynthesizeDrag returns the events of a contact pressed at (fromX, fromY),
// moved in steps updates along the easing curve fn and released at
// (toX, toY). Updates are spaced evenly over duration. A nil fn moves
// linearly.
func SynthesizeDrag(id int, fromX, fromY, toX, toY float64, duration time.Duration, steps int, fn ease.TweenFunc) []Event {
	if steps < 1 || duration <= 0 {
		steps = 1
	}
	if fn == nil {
		fn = ease.Linear
	}
	secs := float32(duration.Seconds())
	tx := gween.New(float32(fromX), float32(toX), secs, fn)
	ty := gween.New(float32(fromY), float32(toY), secs, fn)
	dt := secs / float32(steps)

	events := make([]Event, 0, steps+2)
	events = append(events, Event{Type: EventAdd, ID: id, X: fromX, Y: fromY})
	for i := 1; i <= steps; i++ {
		x, _ := tx.Update(dt)
		y, _ := ty.Update(dt)
		e := Event{
			Type:  EventUpdate,
			ID:    id,
			X:     float64(x),
			Y:     float64(y),
			Delay: duration * time.Duration(i) / time.Duration(steps),
		}
		if i == steps {
			e.X, e.Y = toX, toY
		}
		events = append(events, e)
	}
	return append(events, Event{Type: EventRemove, ID: id, Delay: duration})
}

// SynthesizePinch returns the events of two contacts, ids a and b, held on
// opposite sides of (cx, cy). Their separation eases from fromDist to toDist
// and the axis between them turns from fromAngle to toAngle radians.
func SynthesizePinch(a, b int, cx, cy, fromDist, toDist, fromAngle, toAngle float64, duration time.Duration, steps int, fn ease.TweenFunc) []Event {
	if steps < 1 || duration <= 0 {
		steps = 1
	}
	if fn == nil {
		fn = ease.Linear
	}
	secs := float32(duration.Seconds())
	td := gween.New(float32(fromDist), float32(toDist), secs, fn)
	ta := gween.New(float32(fromAngle), float32(toAngle), secs, fn)
	dt := secs / float32(steps)

	ends := func(d, angle float64) (ax, ay, bx, by float64) {
		sin, cos := math.Sincos(angle)
		h := d / 2
		return cx + cos*h, cy + sin*h, cx - cos*h, cy - sin*h
	}

	ax, ay, bx, by := ends(fromDist, fromAngle)
	events := make([]Event, 0, 2*steps+4)
	events = append(events,
		Event{Type: EventAdd, ID: a, X: ax, Y: ay},
		Event{Type: EventAdd, ID: b, X: bx, Y: by},
	)
	for i := 1; i <= steps; i++ {
		d, _ := td.Update(dt)
		angle, _ := ta.Update(dt)
		sep, rot := float64(d), float64(angle)
		if i == steps {
			sep, rot = toDist, toAngle
		}
		delay := duration * time.Duration(i) / time.Duration(steps)
		ax, ay, bx, by = ends(sep, rot)
		events = append(events,
			Event{Type: EventUpdate, ID: a, X: ax, Y: ay, Delay: delay},
			Event{Type: EventUpdate, ID: b, X: bx, Y: by, Delay: delay},
		)
	}
	return append(events,
		Event{Type: EventRemove, ID: a, Delay: duration},
		Event{Type: EventRemove, ID: b, Delay: duration},
	)
}

// --- Live injection ---

// InjectTap presses and immediately releases a contact at (x, y).
func (d *Dispatcher) InjectTap(id int, x, y float64) {
	d.AddContact(id, x, y)
	d.RemoveContact(id)
}

// InjectDrag performs a synthesized drag in real time through the normal
// routing path, so it is recorded like live input. If ctx is canceled the
// contact is released and ctx.Err() is returned.
func (d *Dispatcher) InjectDrag(ctx context.Context, id int, fromX, fromY, toX, toY float64, duration time.Duration, steps int, fn ease.TweenFunc) error {
	return d.inject(ctx, SynthesizeDrag(id, fromX, fromY, toX, toY, duration, steps, fn), id)
}

// InjectPinch performs a synthesized two-contact pinch in real time.
func (d *Dispatcher) InjectPinch(ctx context.Context, a, b int, cx, cy, fromDist, toDist, fromAngle, toAngle float64, duration time.Duration, steps int, fn ease.TweenFunc) error {
	return d.inject(ctx, SynthesizePinch(a, b, cx, cy, fromDist, toDist, fromAngle, toAngle, duration, steps, fn), a, b)
}

func (d *Dispatcher) inject(ctx context.Context, events []Event, ids ...int) error {
	if replay(ctx, events, d) {
		return nil
	}
	for _, id := range ids {
		d.RemoveContact(id)
	}
	return ctx.Err()
}

// --- Easing ---

var easings = map[string]ease.TweenFunc{
	"linear":     ease.Linear,
	"inQuad":     ease.InQuad,
	"outQuad":    ease.OutQuad,
	"inOutQuad":  ease.InOutQuad,
	"inCubic":    ease.InCubic,
	"outCubic":   ease.OutCubic,
	"inOutCubic": ease.InOutCubic,
	"inSine":     ease.InSine,
	"outSine":    ease.OutSine,
	"inOutSine":  ease.InOutSine,
	"inExpo":     ease.InExpo,
	"outExpo":    ease.OutExpo,
	"outBounce":  ease.OutBounce,
	"outElastic": ease.OutElastic,
}

// EaseByName returns the easing function with the given name, such as
// "linear" or "inOutQuad".
func EaseByName(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[name]
	return fn, ok
}
