package junctionbox

import (
	"context"
	"math"
	"math/big"
	"slices"
	"sync"
	"sync/atomic"
	"time"
)

// Event is one recorded contact operation. Delay is measured from the first
// event of the recording session it belongs to.
type Event struct {
	Session int
	Type    EventType
	ID      int
	X, Y    float64
	Delay   time.Duration
}

// Timeline records contact events and replays them with their original
// relative timing. Only one of recording and playing can be active; clearing,
// scaling and removing sessions require the Stopped state.
type Timeline struct {
	mu sync.Mutex

	state   State
	events  []Event
	session int

	firstEvent bool
	anchor     time.Time

	recordTime time.Duration
	playTime   time.Duration

	looping atomic.Bool
	cancel  context.CancelFunc
	done    chan struct{}

	now func() time.Time
}

// NewTimeline returns an empty, stopped timeline.
func NewTimeline() *Timeline {
	return &Timeline{session: -1, now: time.Now}
}

// State returns the current state.
func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// IsRecording reports whether a recording session is active.
func (t *Timeline) IsRecording() bool { return t.State() == StateRecording }

// IsPlaying reports whether playback is running.
func (t *Timeline) IsPlaying() bool { return t.State() == StatePlaying }

// --- Recording ---

// StartRecording opens a new recording session. Events from earlier sessions
// are kept and play back together with the new one.
func (t *Timeline) StartRecording() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return ErrNotStopped
	}
	t.state = StateRecording
	t.firstEvent = true
	t.session++
	return nil
}

// StopRecording closes the current session and updates the record time.
func (t *Timeline) StopRecording() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRecording {
		return ErrNotRecording
	}
	t.state = StateStopped
	t.recordTime = t.maxDelayLocked()
	return nil
}

// Record appends an event to the current session. The first event anchors
// the session clock at delay zero. Has no effect unless recording.
func (t *Timeline) Record(typ EventType, id int, x, y float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateRecording {
		return
	}
	now := t.now()
	var delay time.Duration
	if t.firstEvent {
		t.anchor = now
		t.firstEvent = false
	} else {
		delay = now.Sub(t.anchor)
	}
	t.events = append(t.events, Event{
		Session: t.session,
		Type:    typ,
		ID:      id,
		X:       x,
		Y:       y,
		Delay:   delay,
	})
}

// Append adds events as a new session and returns its id. Session tags on the
// given events are replaced.
func (t *Timeline) Append(events ...Event) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return 0, ErrNotStopped
	}
	t.session++
	for _, e := range events {
		e.Session = t.session
		t.events = append(t.events, e)
	}
	t.recordTime = t.maxDelayLocked()
	return t.session, nil
}

// Session returns the id of the latest session, or -1 if none was started
// since the last clear.
func (t *Timeline) Session() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.session
}

// RecordTime returns the largest event delay.
func (t *Timeline) RecordTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.recordTime
}

// PlayTime returns how long the last playback ran.
func (t *Timeline) PlayTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.playTime
}

// EventCount returns the number of stored events.
func (t *Timeline) EventCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.events)
}

// Events returns a copy of the stored events ordered by delay.
func (t *Timeline) Events() ([]Event, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return nil, ErrNotStopped
	}
	out := slices.Clone(t.events)
	slices.SortStableFunc(out, func(a, b Event) int {
		switch {
		case a.Delay < b.Delay:
			return -1
		case a.Delay > b.Delay:
			return 1
		}
		return 0
	})
	return out, nil
}

// ClearEvents drops every event and resets the session counter and timers.
func (t *Timeline) ClearEvents() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return ErrNotStopped
	}
	t.events = nil
	t.recordTime = 0
	t.playTime = 0
	t.session = -1
	return nil
}

// RemoveRecording drops every event of the given session.
func (t *Timeline) RemoveRecording(session int) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return ErrNotStopped
	}
	t.events = slices.DeleteFunc(t.events, func(e Event) bool { return e.Session == session })
	t.recordTime = t.maxDelayLocked()
	return nil
}

// ScaleEventTimes multiplies every delay by factor, rounding half up to the
// nearest nanosecond, and recomputes the record time. ErrInvalidScale is
// returned, and nothing changes, when a scaled delay overflows a Duration.
func (t *Timeline) ScaleEventTimes(factor float64) error {
	if factor < 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return ErrInvalidScale
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return ErrNotStopped
	}
	scaled := make([]time.Duration, len(t.events))
	for i, e := range t.events {
		d, ok := scaleDelay(e.Delay, factor)
		if !ok {
			return ErrInvalidScale
		}
		scaled[i] = d
	}
	for i := range t.events {
		t.events[i].Delay = scaled[i]
	}
	t.recordTime = t.maxDelayLocked()
	return nil
}

// scaleDelay computes d*factor exactly and rounds half up. It reports false
// when the result does not fit in a Duration.
func scaleDelay(d time.Duration, factor float64) (time.Duration, bool) {
	r := new(big.Rat).SetFloat64(factor)
	r.Mul(r, new(big.Rat).SetInt64(int64(d)))
	r.Add(r, big.NewRat(1, 2))
	q := new(big.Int).Quo(r.Num(), r.Denom())
	if !q.IsInt64() {
		return 0, false
	}
	return time.Duration(q.Int64()), true
}

func (t *Timeline) maxDelayLocked() time.Duration {
	var m time.Duration
	for _, e := range t.events {
		m = max(m, e.Delay)
	}
	return m
}

// --- Looping ---

// StartLooping arms looping. A running playback repeats after its current
// pass; a stopped one loops once started.
func (t *Timeline) StartLooping() { t.looping.Store(true) }

// StopLooping disarms looping. A running playback ends after its current pass.
func (t *Timeline) StopLooping() { t.looping.Store(false) }

// IsLooping reports whether looping is armed.
func (t *Timeline) IsLooping() bool { return t.looping.Load() }
