package junctionbox

import (
	"context"
	"slices"
	"time"
)

// replayer is what a playback pass drives: the same contact entry points a
// live input source uses.
type replayer interface {
	AddContact(id int, x, y float64)
	UpdateContact(id int, x, y float64)
	RemoveContact(id int)
	ClearContacts()
}

// play starts playback on its own goroutine. Each pass replays a delay-ordered
// copy of the events against a fresh clock anchor and clears every contact
// when it ends. Passes repeat while looping is armed.
func (t *Timeline) play(target replayer) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != StateStopped {
		return ErrNotStopped
	}
	if len(t.events) == 0 {
		return ErrNoEvents
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.state = StatePlaying
	t.cancel = cancel
	t.done = done
	go t.run(ctx, target, done)
	return nil
}

func (t *Timeline) run(ctx context.Context, target replayer, done chan struct{}) {
	defer close(done)
	start := t.now()
	pkgLog().Info("playback started", "events", t.EventCount(), "looping", t.IsLooping())

	for {
		t.mu.Lock()
		events := slices.Clone(t.events)
		t.mu.Unlock()

		completed := replay(ctx, events, target)
		target.ClearContacts()
		if !completed || !t.looping.Load() {
			break
		}
	}

	t.mu.Lock()
	t.looping.Store(false)
	t.state = StateStopped
	t.playTime = t.now().Sub(start)
	t.cancel()
	t.cancel = nil
	elapsed := t.playTime
	t.mu.Unlock()
	pkgLog().Info("playback finished", "elapsed", elapsed)
}

// replay applies events to target in delay order, each once its delay has
// elapsed since the call. It returns false if ctx was canceled first.
func replay(ctx context.Context, events []Event, target replayer) bool {
	q := newEventQueue(events)
	anchor := time.Now()
	for {
		e, ok := q.next()
		if !ok {
			return true
		}
		if wait := e.Delay - time.Since(anchor); wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return false
			case <-timer.C:
			}
		} else if ctx.Err() != nil {
			return false
		}
		switch e.Type {
		case EventAdd:
			target.AddContact(e.ID, e.X, e.Y)
		case EventUpdate:
			target.UpdateContact(e.ID, e.X, e.Y)
		case EventRemove:
			target.RemoveContact(e.ID)
		}
	}
}

// stop requests cancellation of a running playback. The playback goroutine
// clears every contact before the state returns to Stopped.
func (t *Timeline) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cancel != nil {
		t.cancel()
	}
}

// closedChan is returned by Done when no playback was ever started.
var closedChan = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Done returns a channel that is closed when the latest playback finishes.
// Before the first playback it returns a closed channel.
func (t *Timeline) Done() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done == nil {
		return closedChan
	}
	return t.done
}

// Wait blocks until the current playback has finished or ctx is done.
func (t *Timeline) Wait(ctx context.Context) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
