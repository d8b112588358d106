package ecs

import (
	"slices"
	"testing"

	"github.com/phanxgames/junctionbox"

	"github.com/yohamta/donburi"
)

func TestNewDonburiRelay(t *testing.T) {
	world := donburi.NewWorld()
	relay := NewDonburiRelay(world)
	if relay == nil {
		t.Fatal("NewDonburiRelay returned nil")
	}
}

func TestDonburiRelay_Send(t *testing.T) {
	world := donburi.NewWorld()
	relay := NewDonburiRelay(world)

	var received []ParameterEvent
	ParameterEventType.Subscribe(world, func(w donburi.World, e ParameterEvent) {
		received = append(received, e)
	})

	relay.ResetMessage("/fader/xy")
	relay.AddFloat("/fader/xy", 0.25)
	relay.AddFloat("/fader/xy", 0.75)
	relay.Send("/fader/xy")

	relay.ResetMessage("/pad/on")
	relay.AddInt("/pad/on", 1)
	relay.Send("/pad/on")

	// Events are queued until processed.
	ParameterEventType.ProcessEvents(world)

	if len(received) != 2 {
		t.Fatalf("expected 2 events, got %d", len(received))
	}
	e0 := received[0]
	if e0.Address != "/fader/xy" || !slices.Equal(e0.Args, []any{float32(0.25), float32(0.75)}) {
		t.Errorf("event 0: %+v", e0)
	}
	e1 := received[1]
	if e1.Address != "/pad/on" || !slices.Equal(e1.Args, []any{int32(1)}) {
		t.Errorf("event 1: %+v", e1)
	}
}

func TestDonburiRelay_ResetClearsArgs(t *testing.T) {
	world := donburi.NewWorld()
	relay := NewDonburiRelay(world)

	var received []ParameterEvent
	ParameterEventType.Subscribe(world, func(w donburi.World, e ParameterEvent) {
		received = append(received, e)
	})

	relay.AddInt("/n", 3)
	relay.Send("/n")
	relay.ResetMessage("/n")
	relay.AddInt("/n", 4)
	relay.Send("/n")
	ParameterEventType.ProcessEvents(world)

	if len(received) != 2 || !slices.Equal(received[1].Args, []any{int32(4)}) {
		t.Errorf("events: %+v", received)
	}
}

func TestDonburiRelay_JunctionMessages(t *testing.T) {
	world := donburi.NewWorld()
	d := junctionbox.NewDispatcher(100, 100)
	d.SetTarget(NewDonburiRelay(world))
	j := d.CreateJunction(50, 50, 100, 100)
	j.MapMessage(junctionbox.ActionActivate, "/on")
	j.MapMessage(junctionbox.ActionToggle, "/toggle")

	var count int
	ParameterEventType.Subscribe(world, func(w donburi.World, e ParameterEvent) {
		count++
	})

	d.InjectTap(1, 50, 50)
	ParameterEventType.ProcessEvents(world)

	// activate on, toggle, activate off
	if count != 3 {
		t.Errorf("expected 3 events, got %d", count)
	}
}

func TestDonburiRelay_MultipleSubscribers(t *testing.T) {
	world := donburi.NewWorld()
	relay := NewDonburiRelay(world)

	var count1, count2 int
	ParameterEventType.Subscribe(world, func(w donburi.World, e ParameterEvent) {
		count1++
	})
	ParameterEventType.Subscribe(world, func(w donburi.World, e ParameterEvent) {
		count2++
	})

	relay.Send("/x")
	ParameterEventType.ProcessEvents(world)

	if count1 != 1 || count2 != 1 {
		t.Errorf("count1=%d count2=%d, want 1 each", count1, count2)
	}
}
