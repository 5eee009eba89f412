package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/journal"
	"github.com/roach88/telomere/internal/sched"
	"github.com/roach88/telomere/internal/transform"
)

// Epoch is the logical start time of every run.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// DefaultSeed seeds runs whose config sets none.
const DefaultSeed uint64 = 1

// ErrCodeParse is reported for a send line that does not parse.
const ErrCodeParse = "PARSE"

// Harness holds one run's engine, clock and journal.
type Harness struct {
	sched    *sched.Manual
	engine   *engine.Engine
	recorder *engine.Recorder
	journal  *journal.Store
	session  journal.Session
	logger   *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each run uses a fresh logical clock and in-memory journal, so results
// depend only on the scenario. A returned error means the run could not
// start; scenario failures are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	ctx := context.Background()

	js, err := journal.Open(journal.MemoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory journal: %w", err)
	}
	defer js.Close()

	h := &Harness{
		sched:   sched.NewManual(Epoch),
		journal: js,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	h.recorder = engine.NewRecorder(h.sched.Clock())

	opts := []engine.Option{
		engine.WithSeed(DefaultSeed),
		engine.WithLogger(h.logger),
	}
	opts = append(opts, scenario.Config.Options()...)

	// The journal writer is attached after the session row exists, so the
	// engine is built first with the recorder alone and the tee is swapped
	// in before any step runs.
	tee := engine.Tee{h.recorder}
	opts = append(opts, engine.WithOutlet(&tee))
	h.engine = engine.New(h.sched.Clock(), h.sched, opts...)

	h.session, err = js.StartSession(ctx, journal.Session{
		StartedAt: Epoch,
		Label:     scenario.Name,
		Tempo:     h.engine.Tempo(),
		Beats:     h.engine.Beats(),
		Grid:      h.engine.Grid(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start journal session: %w", err)
	}
	tee = append(tee, journal.NewWriter(ctx, js, h.session, h.sched.Clock(), h.logger))

	result := NewResult()
	result.SessionID = h.session.ID

	for i, step := range scenario.Steps {
		h.executeStep(i, step, result)
	}

	result.Trace = h.trace()
	result.Final = h.engine.Dump()

	actx := &AssertionContext{Ctx: ctx, Journal: js, SessionID: h.session.ID, Harness: h}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.engine.Close()
	return result, nil
}

func (h *Harness) executeStep(i int, step Step, result *Result) {
	switch {
	case step.Send != "":
		h.executeSend(i, step, result)
	case step.AdvanceMs != nil:
		n := h.sched.Advance(time.Duration(math.Round(*step.AdvanceMs * float64(time.Millisecond))))
		h.logger.Debug("advanced", "step", i, "ms", *step.AdvanceMs, "ran", n)
	case step.Drain != nil:
		n := h.sched.Drain(*step.Drain)
		h.logger.Debug("drained", "step", i, "ran", n)
	case step.Expect != nil:
		for _, msg := range h.checkExpect(step.Expect) {
			result.AddError(fmt.Sprintf("steps[%d].expect: %s", i, msg))
		}
	}
}

func (h *Harness) executeSend(i int, step Step, result *Result) {
	var err error
	msg, perr := atom.ParseMessage(step.Send)
	if perr != nil {
		err = perr
	} else {
		err = h.engine.Send(msg)
	}

	switch {
	case err == nil && step.Error == "":
	case err == nil:
		result.AddError(fmt.Sprintf("steps[%d]: send %q: expected error %s, got none", i, step.Send, step.Error))
	case step.Error == "":
		result.AddError(fmt.Sprintf("steps[%d]: send %q: %v", i, step.Send, err))
	case ErrorCode(err) != step.Error:
		result.AddError(fmt.Sprintf("steps[%d]: send %q: expected error %s, got %s", i, step.Send, step.Error, ErrorCode(err)))
	}
}

// ErrorCode returns the code of a dispatch or engine error, ErrCodeParse
// for anything else.
func ErrorCode(err error) string {
	var de *transform.DispatchError
	if errors.As(err, &de) {
		return string(de.Code)
	}
	var ee *engine.EngineError
	if errors.As(err, &ee) {
		return string(ee.Code)
	}
	return ErrCodeParse
}

func (h *Harness) checkExpect(exp *ExpectClause) []string {
	var errs []string
	e := h.engine

	if exp.Count != nil {
		n, ok := h.recorder.LastCount()
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("count: expected %d, nothing emitted", *exp.Count))
		case n != *exp.Count:
			errs = append(errs, fmt.Sprintf("count: expected %d, got %d", *exp.Count, n))
		}
	}

	if exp.Pattern != nil {
		if got := e.Pattern(); !patternEqual(*exp.Pattern, got) {
			errs = append(errs, fmt.Sprintf("pattern: expected %v, got %v", *exp.Pattern, got))
		}
	}

	if exp.State != "" && e.State().String() != exp.State {
		errs = append(errs, fmt.Sprintf("state: expected %s, got %s", exp.State, e.State()))
	}
	if exp.Recording != nil && e.Recording() != *exp.Recording {
		errs = append(errs, fmt.Sprintf("recording: expected %t, got %t", *exp.Recording, e.Recording()))
	}
	if exp.Tempo != nil && math.Abs(float64(e.Tempo())-*exp.Tempo) > 1e-4 {
		errs = append(errs, fmt.Sprintf("tempo: expected %g, got %g", *exp.Tempo, e.Tempo()))
	}
	if exp.Grid != nil && e.Grid() != *exp.Grid {
		errs = append(errs, fmt.Sprintf("grid: expected %d, got %d", *exp.Grid, e.Grid()))
	}
	if exp.Pending != nil && h.sched.Pending() != *exp.Pending {
		errs = append(errs, fmt.Sprintf("pending: expected %d, got %d", *exp.Pending, h.sched.Pending()))
	}
	return errs
}

func patternEqual(want []float64, got []float32) bool {
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if math.Abs(want[i]-float64(got[i])) > 1e-6 {
			return false
		}
	}
	return true
}

func (h *Harness) trace() []TraceEvent {
	events := h.recorder.Events()
	out := make([]TraceEvent, len(events))
	for i, ev := range events {
		out[i] = TraceEvent{
			Seq:   ev.Seq,
			AtMs:  sched.ToMillis(ev.At.Sub(Epoch)),
			Kind:  ev.Kind,
			Value: ev.Value,
		}
	}
	return out
}
