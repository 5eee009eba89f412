package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/telomere/internal/engine"
)

// TraceEvent is one outlet emission.
type TraceEvent struct {
	Seq   int64             `json:"seq"`
	AtMs  float64           `json:"at_ms"`
	Kind  engine.OutletKind `json:"kind"`
	Value float64           `json:"value"`
}

// Line renders the event as one tab-separated trace line.
func (e TraceEvent) Line() string {
	v := engine.OutletEvent{Kind: e.Kind, Value: e.Value}.FormatValue()
	if v == "" {
		return fmt.Sprintf("%.3f\t%s\n", e.AtMs, e.Kind)
	}
	return fmt.Sprintf("%.3f\t%s\t%s\n", e.AtMs, e.Kind, v)
}

// FormatTrace renders a trace one event per line.
func FormatTrace(trace []TraceEvent) string {
	var buf strings.Builder
	for _, e := range trace {
		buf.WriteString(e.Line())
	}
	return buf.String()
}

// Result is the outcome of a scenario.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds every outlet emission in order.
	Trace []TraceEvent `json:"trace"`

	// Errors holds failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Final is the engine state after the last step.
	Final engine.Snapshot `json:"final"`

	// SessionID is the journal session of the run.
	SessionID string `json:"session_id"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure and marks the result failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
