package harness

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/journal"
)

// AssertionContext gives assertions access to the run's journal and state.
type AssertionContext struct {
	Ctx       context.Context
	Journal   *journal.Store
	SessionID string
	Harness   *Harness
}

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, ev := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", ev.Seq, ev.Line())
		}
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a, actx); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(result *Result, a Assertion, actx *AssertionContext) error {
	switch a.Type {
	case AssertTraceContains:
		return assertTraceContains(result.Trace, a)
	case AssertTraceOrder:
		return assertTraceOrder(result.Trace, a)
	case AssertTraceCount:
		return assertTraceCount(result.Trace, a)
	case AssertJournalCount:
		return assertJournalCount(actx, a)
	case AssertFinalState:
		return assertFinalState(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertTraceContains checks for an event of the kind, with the value when
// one is given.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Kind != a.Kind {
			continue
		}
		if a.Value == nil || math.Abs(ev.Value-*a.Value) <= 1e-6 {
			return nil
		}
	}

	expected := string(a.Kind)
	if a.Value != nil {
		expected = fmt.Sprintf("%s %g", a.Kind, *a.Value)
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the kinds appear in order. Other events may
// sit between them.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Kinds) && ev.Kind == a.Kinds[next] {
			next++
		}
	}
	if next == len(a.Kinds) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: fmt.Sprintf("kinds in order: %v", a.Kinds),
		Actual:   fmt.Sprintf("matched %d of %d, missing %s", next, len(a.Kinds), a.Kinds[next]),
		Trace:    trace,
	}
}

// assertTraceCount checks that the kind appears exactly Count times.
func assertTraceCount(trace []TraceEvent, a Assertion) error {
	count := countKind(trace, a.Kind)
	if count != a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d %s events", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d events", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertJournalCount reads the journal back and counts events of the kind.
func assertJournalCount(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Journal == nil {
		return fmt.Errorf("journal_count assertion requires a journal")
	}
	events, err := actx.Journal.ReadEvents(actx.Ctx, actx.SessionID, a.Kind)
	if err != nil {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("read %s events", a.Kind),
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(events) != a.Count {
		return &AssertionError{
			Type:     AssertJournalCount,
			Expected: fmt.Sprintf("%d %s events in journal", a.Count, a.Kind),
			Actual:   fmt.Sprintf("%d events", len(events)),
		}
	}
	return nil
}

// assertFinalState applies an expect clause after the last step.
func assertFinalState(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Harness == nil {
		return fmt.Errorf("final_state assertion requires a running harness")
	}
	if errs := actx.Harness.checkExpect(a.Expect); len(errs) > 0 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: "final state matches",
			Actual:   strings.Join(errs, "; "),
		}
	}
	return nil
}

func countKind(trace []TraceEvent, kind engine.OutletKind) int {
	n := 0
	for _, ev := range trace {
		if ev.Kind == kind {
			n++
		}
	}
	return n
}
