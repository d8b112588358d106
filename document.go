package junctionbox

import (
	"slices"
	"time"
)

// Document is the saved form of a Dispatcher: the layout of its savable
// top-level Junctions and the recorded events.
type Document struct {
	Junctions []JunctionRecord
	Events    []EventRecord
}

// JunctionRecord is the saved state of one Junction. Label is the key used to
// find the Junction again on restore; Order is its routing position.
type JunctionRecord struct {
	Order   int
	Label   string
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
	Angle   float64
	Toggle  bool
}

// EventRecord is the saved form of a recorded Event.
type EventRecord struct {
	Type  EventType
	ID    int
	X, Y  float64
	Delay time.Duration
}

// Snapshot returns the savable top-level Junctions and, when the timeline is
// stopped, its events in delay order.
func (d *Dispatcher) Snapshot() Document {
	var doc Document
	for i, j := range d.junctions.load() {
		if !j.IsSavable() {
			continue
		}
		b := j.Bounds()
		doc.Junctions = append(doc.Junctions, JunctionRecord{
			Order:   i,
			Label:   j.Label(),
			CenterX: b.CenterX,
			CenterY: b.CenterY,
			Width:   b.Width,
			Height:  b.Height,
			Angle:   b.Angle,
			Toggle:  j.Toggle(),
		})
	}
	if events, err := d.timeline.Events(); err == nil {
		for _, e := range events {
			doc.Events = append(doc.Events, EventRecord{
				Type: e.Type, ID: e.ID, X: e.X, Y: e.Y, Delay: e.Delay,
			})
		}
	}
	return doc
}

// Restore applies a saved Document. Each record updates the first savable
// top-level Junction with the same label and moves it to the saved routing
// position; records without a match are ignored. Events are appended to the
// timeline as a new session. Nothing is applied if the document carries
// events and the timeline is not stopped.
func (d *Dispatcher) Restore(doc Document) error {
	if len(doc.Events) > 0 && d.timeline.State() != StateStopped {
		return ErrNotStopped
	}

	records := slices.Clone(doc.Junctions)
	slices.SortStableFunc(records, func(a, b JunctionRecord) int { return a.Order - b.Order })
	for _, rec := range records {
		j := d.savableByLabel(rec.Label)
		if j == nil {
			continue
		}
		j.SetCenter(rec.CenterX, rec.CenterY)
		j.SetWidth(rec.Width)
		j.SetHeight(rec.Height)
		j.SetAngle(rec.Angle)
		j.SetToggle(rec.Toggle)
		d.OrderJunction(rec.Order, j)
	}

	if len(doc.Events) == 0 {
		return nil
	}
	events := make([]Event, len(doc.Events))
	for i, r := range doc.Events {
		events[i] = Event{Type: r.Type, ID: r.ID, X: r.X, Y: r.Y, Delay: r.Delay}
	}
	_, err := d.timeline.Append(events...)
	return err
}

func (d *Dispatcher) savableByLabel(label string) *Junction {
	for _, j := range d.junctions.load() {
		if j.IsSavable() && j.Label() == label {
			return j
		}
	}
	return nil
}
