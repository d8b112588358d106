package junctionbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// scriptStep is a single action in a gesture script.
type scriptStep struct {
	Action    string  `json:"action"`
	ID        int     `json:"id,omitempty"`
	ID2       int     `json:"id2,omitempty"`
	X         float64 `json:"x,omitempty"`
	Y         float64 `json:"y,omitempty"`
	FromX     float64 `json:"fromX,omitempty"`
	FromY     float64 `json:"fromY,omitempty"`
	ToX       float64 `json:"toX,omitempty"`
	ToY       float64 `json:"toY,omitempty"`
	FromDist  float64 `json:"fromDist,omitempty"`
	ToDist    float64 `json:"toDist,omitempty"`
	FromAngle float64 `json:"fromAngle,omitempty"`
	ToAngle   float64 `json:"toAngle,omitempty"`
	Ms        int     `json:"ms,omitempty"`
	Steps     int     `json:"steps,omitempty"`
	Ease      string  `json:"ease,omitempty"`
	Factor    float64 `json:"factor,omitempty"`
}

// script is the top-level JSON structure of a gesture script.
type script struct {
	Steps []scriptStep `json:"steps"`
}

var scriptActions = map[string]bool{
	"add": true, "update": true, "remove": true, "clear": true,
	"tap": true, "drag": true, "pinch": true, "wait": true,
	"record": true, "stop": true, "play": true, "loop": true,
	"await": true, "cancel": true, "scale": true, "clearEvents": true,
}

// ScriptRunner drives a Dispatcher from a JSON gesture script, for demos and
// automated checks of a Junction layout.
//
//	{"steps": [
//	  {"action": "record"},
//	  {"action": "drag", "id": 1, "fromX": 10, "fromY": 10, "toX": 90, "toY": 10, "ms": 200, "ease": "inOutQuad"},
//	  {"action": "stop"},
//	  {"action": "play"},
//	  {"action": "await"}
//	]}
type ScriptRunner struct {
	steps []scriptStep
}

// LoadScript parses a JSON gesture script.
func LoadScript(jsonData []byte) (*ScriptRunner, error) {
	var s script
	if err := json.Unmarshal(jsonData, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(s.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range s.Steps {
		if !scriptActions[st.Action] {
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
		if st.Ease != "" {
			if _, ok := EaseByName(st.Ease); !ok {
				return nil, fmt.Errorf("parse script: step %d: unknown ease %q", i, st.Ease)
			}
		}
	}
	return &ScriptRunner{steps: s.Steps}, nil
}

// Len returns the number of steps.
func (r *ScriptRunner) Len() int {
	return len(r.steps)
}

// Run executes every step in order against d. Drags, pinches and waits take
// real time and stop early when ctx is canceled.
func (r *ScriptRunner) Run(ctx context.Context, d *Dispatcher) error {
	for i, st := range r.steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.step(ctx, d, st); err != nil {
			return fmt.Errorf("script step %d (%s): %w", i, st.Action, err)
		}
	}
	return nil
}

func (r *ScriptRunner) step(ctx context.Context, d *Dispatcher, st scriptStep) error {
	dur := time.Duration(st.Ms) * time.Millisecond
	fn, _ := EaseByName(st.Ease)

	switch st.Action {
	case "add":
		d.AddContact(st.ID, st.X, st.Y)
	case "update":
		d.UpdateContact(st.ID, st.X, st.Y)
	case "remove":
		d.RemoveContact(st.ID)
	case "clear":
		d.ClearContacts()
	case "tap":
		d.InjectTap(st.ID, st.X, st.Y)
	case "drag":
		return d.InjectDrag(ctx, st.ID, st.FromX, st.FromY, st.ToX, st.ToY, dur, st.Steps, fn)
	case "pinch":
		return d.InjectPinch(ctx, st.ID, st.ID2, st.X, st.Y,
			st.FromDist, st.ToDist, st.FromAngle, st.ToAngle, dur, st.Steps, fn)
	case "wait":
		t := time.NewTimer(dur)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	case "record":
		return d.StartRecording()
	case "stop":
		return d.StopRecording()
	case "play":
		return d.StartPlaying()
	case "loop":
		return d.LoopPlaying()
	case "await":
		return d.Wait(ctx)
	case "cancel":
		d.StopPlaying()
		return d.Wait(ctx)
	case "scale":
		return d.Timeline().ScaleEventTimes(st.Factor)
	case "clearEvents":
		return d.Timeline().ClearEvents()
	}
	return nil
}
