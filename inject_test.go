package junctionbox

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/tanema/gween/ease"
)

func TestSynthesizeTap(t *testing.T) {
	events := SynthesizeTap(4, 10, 20, 50*time.Millisecond)
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Type != EventAdd || events[0].X != 10 || events[0].Y != 20 {
		t.Errorf("press = %+v", events[0])
	}
	if events[1].Type != EventRemove || events[1].Delay != 50*time.Millisecond {
		t.Errorf("release = %+v", events[1])
	}
}

func TestSynthesizeDrag(t *testing.T) {
	tests := []struct {
		name      string
		steps     int
		duration  time.Duration
		fn        ease.TweenFunc
		wantSteps int
	}{
		{"linear", 4, 100 * time.Millisecond, nil, 4},
		{"eased", 5, 100 * time.Millisecond, ease.InOutQuad, 5},
		{"no steps", 0, 100 * time.Millisecond, nil, 1},
		{"no duration", 8, 0, nil, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := SynthesizeDrag(1, 0, 0, 100, 50, tt.duration, tt.steps, tt.fn)
			if len(events) != tt.wantSteps+2 {
				t.Fatalf("got %d events, want %d", len(events), tt.wantSteps+2)
			}
			last := events[len(events)-2]
			if last.Type != EventUpdate || last.X != 100 || last.Y != 50 {
				t.Errorf("final update = %+v, want exact target", last)
			}
			if end := events[len(events)-1]; end.Type != EventRemove || end.Delay != tt.duration {
				t.Errorf("release = %+v", end)
			}
			for i := 1; i < len(events); i++ {
				if events[i].Delay < events[i-1].Delay {
					t.Fatalf("delays not monotonic at %d", i)
				}
			}
		})
	}
}

func TestSynthesizeDragLinearMidpoint(t *testing.T) {
	events := SynthesizeDrag(1, 0, 0, 100, 0, 100*time.Millisecond, 2, ease.Linear)
	mid := events[1]
	if math.Abs(mid.X-50) > 1e-3 {
		t.Errorf("midpoint x = %v, want 50", mid.X)
	}
	if mid.Delay != 50*time.Millisecond {
		t.Errorf("midpoint delay = %v, want 50ms", mid.Delay)
	}
}

func TestSynthesizePinch(t *testing.T) {
	events := SynthesizePinch(1, 2, 100, 100, 40, 80, 0, math.Pi/2, 100*time.Millisecond, 4, nil)
	if len(events) != 2*4+4 {
		t.Fatalf("got %d events, want 12", len(events))
	}
	a, b := events[0], events[1]
	assertNear(t, "start separation", dist(a.X, a.Y, b.X, b.Y), 40)
	assertNear(t, "start center x", (a.X+b.X)/2, 100)

	a, b = events[len(events)-4], events[len(events)-3]
	assertNear(t, "end separation", dist(a.X, a.Y, b.X, b.Y), 80)
	assertNear(t, "end angle", math.Atan2(a.Y-b.Y, a.X-b.X), math.Pi/2)
}

func TestInjectDragMovesJunction(t *testing.T) {
	d := NewDispatcher(200, 200)
	j := d.CreateJunction(50, 50, 60, 60)
	j.AllowTranslation(true)

	err := d.InjectDrag(context.Background(), 1, 50, 50, 120, 50, 10*time.Millisecond, 5, ease.OutQuad)
	if err != nil {
		t.Fatal(err)
	}
	assertNear(t, "centerX", j.CenterX(), 120)
	if j.ContactCount() != 0 {
		t.Error("drag should release its contact")
	}
}

func TestInjectPinchScales(t *testing.T) {
	d := NewDispatcher(400, 400)
	j := d.CreateJunction(200, 200, 200, 200)
	j.AllowScaling(true)

	err := d.InjectPinch(context.Background(), 1, 2, 200, 200, 40, 100, 0, 0, 10*time.Millisecond, 6, nil)
	if err != nil {
		t.Fatal(err)
	}
	// The first pair sample only seeds the distance memory.
	if j.Width() <= 200 {
		t.Errorf("width = %v, want growth", j.Width())
	}
}

func TestInjectDragCanceled(t *testing.T) {
	d := NewDispatcher(200, 200)
	j := d.CreateJunction(50, 50, 60, 60)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := d.InjectDrag(ctx, 1, 50, 50, 120, 50, time.Hour, 2, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
	if j.ContactCount() != 0 {
		t.Error("canceled drag should release its contact")
	}
}

func TestInjectTap(t *testing.T) {
	r := newTestRelay()
	d := NewDispatcher(100, 100)
	d.SetTarget(r)
	j := d.CreateJunction(50, 50, 100, 100)
	j.MapMessage(ActionToggle, "/t")

	d.InjectTap(1, 50, 50)
	d.InjectTap(1, 50, 50)

	if r.count("/t") != 2 || j.Toggle() {
		t.Errorf("/t = %v, toggle = %v", r.messages("/t"), j.Toggle())
	}
}

func TestEaseByName(t *testing.T) {
	for _, name := range []string{"linear", "inOutQuad", "outBounce"} {
		if _, ok := EaseByName(name); !ok {
			t.Errorf("EaseByName(%q) not found", name)
		}
	}
	if _, ok := EaseByName("wobble"); ok {
		t.Error("unknown ease should not resolve")
	}
}
