// Package engine implements the telomere record/playback state machine.
//
// The engine turns taps into a pattern of cycle positions and plays the
// pattern back on a logical clock, applying transforms from its registry.
//
// ARCHITECTURE:
//
// State machine:
// Bang is the only trigger. While recording, a bang taps the elapsed
// fraction of the cycle (optionally quantized to the grid) into the
// pattern. Otherwise a bang starts playback: the engine schedules one
// callback per event, each one emitting the event and scheduling the next
// from the gap between positions. A cycle ends when the cursor passes the
// last event; the next bang starts a new one.
//
// Time:
// Logical time comes from a k8s.io/utils clock.PassiveClock, and delays go
// through a sched.Scheduler. The engine never sleeps. Restarting playback
// cancels the pending callback before scheduling a new one.
//
// Single-writer loop:
// Engine methods are not safe for concurrent use. Runner hosts an Engine
// on one goroutine and funnels bangs, messages and timer callbacks through
// a FIFO queue, so a transform never interleaves with a playback tick.
//
// Cycle length:
//
//	cycle_ms = 60000 / tempo * beats
//
// Tempo and beats changes take effect on the next scheduled delay; an
// in-flight callback is never rescheduled.
package engine
