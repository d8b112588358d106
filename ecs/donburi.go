package ecs

import (
	"slices"
	"sync"

	"github.com/phanxgames/junctionbox"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
)

// ParameterEvent is one sent parameter message. Args holds int32 and float32
// values in the order the Junction appended them.
type ParameterEvent struct {
	Address string
	Args    []any
}

// ParameterEventType is the Donburi event type for junction parameter
// messages. Events are queued until ProcessEvents runs on the world.
var ParameterEventType = events.NewEventType[ParameterEvent]()

type donburiRelay struct {
	world donburi.World

	mu      sync.Mutex
	pending map[string][]any
}

// NewDonburiRelay creates a Relay backed by a Donburi world. Every sent
// message is published to ParameterEventType and can be consumed with
// events.Subscribe and ProcessEvents.
func NewDonburiRelay(world donburi.World) junctionbox.Relay {
	return &donburiRelay{world: world, pending: make(map[string][]any)}
}

func (r *donburiRelay) ResetMessage(address string) {
	r.mu.Lock()
	r.pending[address] = nil
	r.mu.Unlock()
}

func (r *donburiRelay) AddInt(address string, v int32) {
	r.mu.Lock()
	r.pending[address] = append(r.pending[address], v)
	r.mu.Unlock()
}

func (r *donburiRelay) AddFloat(address string, v float32) {
	r.mu.Lock()
	r.pending[address] = append(r.pending[address], v)
	r.mu.Unlock()
}

func (r *donburiRelay) Send(address string) {
	r.mu.Lock()
	args := slices.Clone(r.pending[address])
	r.mu.Unlock()
	ParameterEventType.Publish(r.world, ParameterEvent{Address: address, Args: args})
}
