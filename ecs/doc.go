// Package ecs provides ECS adapters for junctionbox.
//
// The primary adapter is [NewDonburiRelay], which bridges the parameter
// messages a Junction emits (activation, toggle, translate, rotate, scale,
// contact positions) into a [Donburi] world as typed events. Subscribe to
// [ParameterEventType] in your ECS systems to receive them.
//
// Usage:
//
//	relay := ecs.NewDonburiRelay(world)
//	dispatcher.SetTarget(relay)
//
//	ecs.ParameterEventType.Subscribe(world, func(w donburi.World, e ecs.ParameterEvent) {
//		// e.Address, e.Args
//	})
//
// [Donburi]: https://github.com/yohamta/donburi
package ecs
