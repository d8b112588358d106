// Package junctionbox is a multi-touch interaction engine.
//
// A [Junction] is a rectangular or elliptical touch zone. It owns the contacts
// that land inside it and decomposes their motion into translate, rotate and
// scale changes, which it reports as normalized parameter messages through a
// [Relay] (usually an OSC client, see the relay subpackage). Junctions nest:
// children are hit-tested before their parent and follow their parent's
// gestures.
//
// A [Dispatcher] is the input entry point. It routes contacts to an ordered
// list of top-level Junctions and drives a [Timeline] that records the routed
// input and plays it back with the original timing, once or looping.
//
// # Quick start
//
//	d := junctionbox.NewDispatcher(1024, 768)
//	d.SetTarget(myRelay)
//
//	fader := d.CreateJunction(512, 384, 200, 80)
//	fader.AllowTranslation(true)
//	fader.AllowTranslationY(false)
//	fader.MapMessage(junctionbox.ActionTranslateX, "/fader/x")
//
//	// Feed contacts from any input source.
//	d.AddContact(1, 500, 380)
//	d.UpdateContact(1, 560, 380)
//	d.RemoveContact(1)
//
// # Gestures
//
// With one contact a Junction drags by the contact's motion and, when
// one-contact rotation is enabled, turns by the change of the contact's
// bearing around the center. With two contacts it drags by half the motion,
// turns with the angle between the contacts and scales with the change in
// their distance. With more contacts it only drags by each contact's share.
// Every gesture is gated by the Junction's [Config] and clamped to its limits.
//
// # Record and playback
//
//	d.StartRecording()
//	// ... live input ...
//	d.StopRecording()
//	d.Timeline().ScaleEventTimes(0.5) // play twice as fast
//	d.LoopPlaying()
//	// ...
//	d.StopPlaying()
//	d.Wait(ctx)
//
// Recorded contacts replay under ids that never collide with live ones, so a
// loop can run while a performer keeps playing.
//
// # Concurrency
//
// Contacts may be fed from any goroutine while playback runs. Contact and
// child lists are copy-on-write snapshots, so routing never blocks on
// structural changes. Relays receive messages synchronously and must not
// block on the network.
//
// # Debugging
//
// [SetDebugMode] enables hierarchy shape warnings, and [SetLogger] routes the
// package's structured logs to a caller supplied [log/slog.Logger].
package junctionbox
