package journal

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"k8s.io/utils/clock"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/sched"
)

// Writer is an engine.Outlet that journals every emission of one session.
// Failed writes are logged and counted; the engine never sees them.
type Writer struct {
	store   *Store
	ctx     context.Context
	session Session
	clock   clock.PassiveClock
	start   time.Time
	logger  *slog.Logger

	seq    atomic.Int64
	failed atomic.Int64
}

// NewWriter returns a Writer for session. Event times are measured from
// clk.Now() at the time of the call.
func NewWriter(ctx context.Context, store *Store, session Session, clk clock.PassiveClock, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{
		store:   store,
		ctx:     ctx,
		session: session,
		clock:   clk,
		start:   clk.Now(),
		logger:  logger,
	}
}

func (w *Writer) Position(pos float32) { w.write(engine.KindPosition, float64(pos)) }
func (w *Writer) Bang()                { w.write(engine.KindBang, 0) }
func (w *Writer) Count(n int)          { w.write(engine.KindCount, float64(n)) }

func (w *Writer) Status(recording bool) {
	v := 0.0
	if recording {
		v = 1
	}
	w.write(engine.KindStatus, v)
}

// Session returns the session being written.
func (w *Writer) Session() Session { return w.session }

// Written returns the number of events attempted.
func (w *Writer) Written() int64 { return w.seq.Load() }

// Failed returns the number of events that could not be stored.
func (w *Writer) Failed() int64 { return w.failed.Load() }

func (w *Writer) write(kind engine.OutletKind, value float64) {
	ev := Event{
		SessionID: w.session.ID,
		Seq:       w.seq.Add(1),
		AtMs:      sched.ToMillis(w.clock.Since(w.start)),
		Kind:      kind,
		Value:     value,
	}
	if err := w.store.WriteEvent(w.ctx, ev); err != nil {
		w.failed.Add(1)
		w.logger.Warn("journal write failed",
			"session", w.session.ID,
			"seq", ev.Seq,
			"kind", kind,
			"error", err,
		)
	}
}
