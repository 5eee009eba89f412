package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/telomere/internal/engine"
)

func sampleTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, AtMs: 0.1, Kind: engine.KindPosition, Value: 0},
		{Seq: 2, AtMs: 0.1, Kind: engine.KindBang},
		{Seq: 3, AtMs: 500.1, Kind: engine.KindPosition, Value: 0.5},
		{Seq: 4, AtMs: 500.1, Kind: engine.KindBang},
		{Seq: 5, AtMs: 500.1, Kind: engine.KindCount, Value: 2},
	}
}

func ptr[T any](v T) *T { return &v }

func TestAssertTraceContains(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceContains(trace, Assertion{Kind: engine.KindBang}))
	assert.NoError(t, assertTraceContains(trace, Assertion{Kind: engine.KindPosition, Value: ptr(0.5)}))

	err := assertTraceContains(trace, Assertion{Kind: engine.KindPosition, Value: ptr(0.25)})
	require.Error(t, err)
	var ae *AssertionError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "position 0.25", ae.Expected)
	assert.Contains(t, err.Error(), "Full trace:")
	assert.Contains(t, err.Error(), "[5] 500.100\tcount\t2")

	assert.Error(t, assertTraceContains(trace, Assertion{Kind: engine.KindStatus}))
}

func TestAssertTraceOrder(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceOrder(trace, Assertion{Kinds: []engine.OutletKind{engine.KindPosition, engine.KindCount}}))
	assert.NoError(t, assertTraceOrder(trace, Assertion{Kinds: []engine.OutletKind{engine.KindBang, engine.KindBang}}))

	err := assertTraceOrder(trace, Assertion{Kinds: []engine.OutletKind{engine.KindCount, engine.KindBang}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "matched 1 of 2, missing bang")
}

func TestAssertTraceCount(t *testing.T) {
	trace := sampleTrace()

	assert.NoError(t, assertTraceCount(trace, Assertion{Kind: engine.KindBang, Count: 2}))
	assert.NoError(t, assertTraceCount(trace, Assertion{Kind: engine.KindStatus, Count: 0}))

	err := assertTraceCount(trace, Assertion{Kind: engine.KindPosition, Count: 3})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 position events")
}

func TestEvaluateAssertions_RequireContext(t *testing.T) {
	result := NewResult()
	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertJournalCount, Kind: engine.KindBang},
		{Type: AssertFinalState, Expect: &ExpectClause{}},
	}, nil)

	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "requires a journal")
	assert.Contains(t, errs[1], "requires a running harness")
}

func TestResult_AddError(t *testing.T) {
	r := NewResult()
	assert.True(t, r.Pass)
	r.AddError("boom")
	assert.False(t, r.Pass)
	assert.Equal(t, []string{"boom"}, r.Errors)
}
