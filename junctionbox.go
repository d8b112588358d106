package junctionbox

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// TwoPi is a full turn in radians. Junction angles live in (-TwoPi, TwoPi].
const TwoPi = 2 * math.Pi

// Shape selects the hit-test geometry of a Junction.
type Shape uint8

const (
	ShapeRect    Shape = iota // rectangle, strict bounds
	ShapeEllipse              // ellipse or circle, inclusive bounds
)

// String returns "rect" or "ellipse".
func (s Shape) String() string {
	switch s {
	case ShapeRect:
		return "rect"
	case ShapeEllipse:
		return "ellipse"
	}
	return "Shape(" + strconv.Itoa(int(s)) + ")"
}

// EventType identifies the contact operation an Event replays.
type EventType uint8

const (
	EventAdd EventType = iota
	EventUpdate
	EventRemove
)

var eventTypeNames = [...]string{"add", "update", "remove"}

// String returns the lowercase event name.
func (t EventType) String() string {
	if int(t) < len(eventTypeNames) {
		return eventTypeNames[t]
	}
	return "EventType(" + strconv.Itoa(int(t)) + ")"
}

// MarshalText encodes the event type by name.
func (t EventType) MarshalText() ([]byte, error) {
	if int(t) >= len(eventTypeNames) {
		return nil, fmt.Errorf("junctionbox: invalid event type %d", t)
	}
	return []byte(eventTypeNames[t]), nil
}

// UnmarshalText accepts either the event name or its numeric value, so
// documents written with integer type codes still load.
func (t *EventType) UnmarshalText(b []byte) error {
	s := string(b)
	for i, name := range eventTypeNames {
		if s == name {
			*t = EventType(i)
			return nil
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n >= len(eventTypeNames) {
		return fmt.Errorf("junctionbox: unknown event type %q", s)
	}
	*t = EventType(n)
	return nil
}

// State is the record/playback state of a Timeline.
type State uint32

const (
	StateStopped State = iota
	StateRecording
	StatePlaying
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Relay receives the parameter messages a Junction emits. For every signaled
// channel the Junction resets the named message, appends its arguments and
// then sends it. Implementations own the transport and must not block the
// caller on send completion.
type Relay interface {
	ResetMessage(address string)
	AddInt(address string, v int32)
	AddFloat(address string, v float32)
	Send(address string)
}

// MessageRegistry is implemented by relays that keep a table of known message
// addresses. MapMessage registers new addresses with it.
type MessageRegistry interface {
	AddMessage(address string)
}

// Errors returned by the Timeline state machine. The timeline is never
// modified when one of these is returned.
var (
	ErrNotStopped   = errors.New("junctionbox: timeline is not stopped")
	ErrNotRecording = errors.New("junctionbox: timeline is not recording")
	ErrNoEvents     = errors.New("junctionbox: timeline has no events")
	ErrInvalidScale = errors.New("junctionbox: scale factor must be finite and non-negative")
)

// normal maps n into the unit range defined by lo and hi. A zero lower bound
// divides by hi alone, so symmetric angle ranges produce values in [-1, 1].
func normal(n, lo, hi float64) float64 {
	if lo == 0 {
		if hi == 0 {
			return 0
		}
		return n / hi
	}
	if hi == lo {
		return 0
	}
	return (n - lo) / (hi - lo)
}

// clamp limits v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}
