package engine

import (
	"context"
	"log/slog"

	"k8s.io/utils/clock"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/sched"
)

// Runner hosts an Engine on a single-writer event loop.
//
// Bangs, tempo changes, messages and scheduler ticks all become events in
// one FIFO queue. Run drains it on one goroutine, so a transform and a
// playback tick never interleave.
//
// Thread-safety model:
//   - Bang, Float, Send, Do: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - Engine: only touch it from inside Do, or after Run returns
type Runner struct {
	engine *Engine
	queue  *eventQueue
	logger *slog.Logger
}

// NewRunner creates a runner whose engine schedules playback on clk's
// timers. Options are passed through to the engine.
func NewRunner(clk clock.Clock, opts ...Option) *Runner {
	q := newEventQueue()
	post := func(fn func()) bool {
		return q.Enqueue(Event{Type: EventTypeCallback, Callback: fn})
	}

	e := New(clk, sched.NewTimerScheduler(clk, post), opts...)
	return &Runner{
		engine: e,
		queue:  q,
		logger: e.logger,
	}
}

// Engine returns the hosted engine.
func (r *Runner) Engine() *Engine {
	return r.engine
}

// Bang enqueues a trigger.
func (r *Runner) Bang() error {
	return r.enqueue(Event{Type: EventTypeBang})
}

// Float enqueues a tempo change.
func (r *Runner) Float(f float32) error {
	return r.enqueue(Event{Type: EventTypeFloat, Float: f})
}

// Send enqueues a named message. Rejections are logged by the engine.
func (r *Runner) Send(msg atom.Message) error {
	return r.enqueue(Event{Type: EventTypeMessage, Message: msg})
}

// Do runs fn on the loop with exclusive access to the engine.
func (r *Runner) Do(fn func(e *Engine)) error {
	return r.enqueue(Event{Type: EventTypeCallback, Callback: func() { fn(r.engine) }})
}

func (r *Runner) enqueue(ev Event) error {
	if !r.queue.Enqueue(ev) {
		return NewStoppedError(ev.Type)
	}
	return nil
}

// Run starts the single-writer event loop.
// Blocks until the context is cancelled or Stop is called. Events already
// queued when Stop is called are processed before Run returns.
//
// Rejected messages are logged and the loop continues: no input can stop
// the engine.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.Info("runner starting")
	defer r.engine.Close()

	for {
		if ev, ok := r.queue.TryDequeue(); ok {
			r.process(ev)
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.Info("runner stopping: context cancelled")
			r.queue.Close()
			return ctx.Err()

		case <-r.queue.Wait():
			// closed channel fires immediately; stop once drained
			if r.queue.Len() == 0 && r.closed() {
				r.logger.Info("runner stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue, which makes Run return once it is drained.
func (r *Runner) Stop() {
	r.queue.Close()
}

func (r *Runner) closed() bool {
	r.queue.mu.Lock()
	defer r.queue.mu.Unlock()
	return r.queue.closed
}

// process routes an event to the engine.
// Called only from Run: single-writer guarantee.
func (r *Runner) process(ev Event) {
	switch ev.Type {
	case EventTypeBang:
		r.engine.Bang()
	case EventTypeFloat:
		r.engine.Float(ev.Float)
	case EventTypeMessage:
		if err := r.engine.Send(ev.Message); err != nil {
			r.logger.Debug("message rejected", "message", ev.Message.String(), "error", err)
		}
	case EventTypeCallback:
		if ev.Callback != nil {
			ev.Callback()
		}
	default:
		r.logger.Warn("unknown event type", "type", int(ev.Type))
	}
}
