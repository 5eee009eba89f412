// Package harness runs scripted telomere sessions on a logical clock.
//
// A scenario drives one engine through messages and clock advances, checks
// its state along the way, and evaluates assertions against the trace of
// everything the engine emitted.
//
// # Scenario Format
//
//	name: euclid_playback
//	description: "Three hits over eight steps play at the right times"
//	config:
//	  tempo: 120
//	  seed: 1
//	steps:
//	  - send: euclid 3 8
//	  - send: bang
//	  - drain: 10
//	  - expect:
//	      count: 3
//	      pattern: [0, 0.25, 0.625]
//	      state: idle
//	  - send: palindrome 1
//	    error: ARITY_MISMATCH
//	assertions:
//	  - type: trace_count
//	    kind: bang
//	    count: 3
//	  - type: trace_order
//	    kinds: [position, bang, count]
//
// Each step does exactly one thing: send a message line, advance the clock
// by advance_ms, drain up to N pending callbacks, or check state with
// expect. A send may name the error code it is expected to fail with.
//
// # Assertion Types
//
//   - trace_contains: an event of kind (and value, if given) was emitted
//   - trace_order: kinds appear in this order, not necessarily adjacent
//   - trace_count: kind was emitted exactly count times
//   - journal_count: the journal holds exactly count events of kind
//   - final_state: expect clause checked after the last step
//
// # Deterministic Testing
//
// Every run gets a fresh sched.Manual clock starting at a fixed epoch, a
// seeded random source (config.seed, default 1) and an in-memory journal.
// Traces are stamped with logical milliseconds since the start, so the
// same scenario always renders the same trace for golden comparison.
package harness
