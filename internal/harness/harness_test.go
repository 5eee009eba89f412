package harness

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/transform"
)

func mustParse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src))
	require.NoError(t, err)
	return s
}

func TestRun_Minimal(t *testing.T) {
	s := mustParse(t, `
name: minimal
description: "one transform"
steps:
  - send: euclid 4 4
  - expect:
      pattern: [0, 0.25, 0.5, 0.75]
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Trace)
	assert.Equal(t, []float32{0, 0.25, 0.5, 0.75}, result.Final.Events)
	assert.NotEmpty(t, result.SessionID)
}

func TestRun_ExpectFailuresAreReported(t *testing.T) {
	s := mustParse(t, `
name: failing
description: "every check is wrong"
steps:
  - send: euclid 1 2
  - expect:
      pattern: [0.5]
      count: 1
      state: playing
      recording: true
      tempo: 90
      grid: 8
      pending: 3
`)
	result, err := Run(s)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 7)
	for _, msg := range result.Errors {
		assert.True(t, strings.HasPrefix(msg, "steps[1].expect: "), msg)
	}
	assert.Contains(t, result.Errors[0], "nothing emitted")
}

func TestRun_SendErrors(t *testing.T) {
	tests := []struct {
		name    string
		step    string
		wantErr string
	}{
		{"expected code matches", "  - send: nope\n    error: UNKNOWN_TRANSFORM\n", ""},
		{"unexpected error", "  - send: nope\n", `send "nope"`},
		{"missing error", "  - send: reverse\n    error: ARITY_MISMATCH\n", "got none"},
		{"wrong code", "  - send: euclid 3\n    error: UNKNOWN_TRANSFORM\n", "got ARITY_MISMATCH"},
		{"parse failure", "  - send: \";\"\n    error: PARSE\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mustParse(t, "name: sends\ndescription: d\nsteps:\n"+tt.step)
			result, err := Run(s)
			require.NoError(t, err)

			if tt.wantErr == "" {
				assert.True(t, result.Pass, "errors: %v", result.Errors)
				return
			}
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.wantErr)
		})
	}
}

func TestRun_ConfigSeedMakesChanceRepeatable(t *testing.T) {
	src := `
name: seeded
description: "degrade is repeatable under a seed"
config:
  seed: 42
steps:
  - send: euclid 16 16
  - send: degrade 0.5
`
	first, err := Run(mustParse(t, src))
	require.NoError(t, err)
	second, err := Run(mustParse(t, src))
	require.NoError(t, err)

	assert.Equal(t, first.Final.Events, second.Final.Events)
	assert.NotEmpty(t, first.Final.Events)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, string(transform.ErrCodeUnknownTransform),
		ErrorCode(fmt.Errorf("wrapped: %w", transform.NewUnknownTransformError("x"))))
	assert.Equal(t, string(engine.ErrCodeEmptyMessage), ErrorCode(engine.NewEmptyMessageError()))
	assert.Equal(t, ErrCodeParse, ErrorCode(errors.New("boom")))
}

func TestTraceEvent_Line(t *testing.T) {
	assert.Equal(t, "0.100\tposition\t0.250000\n", TraceEvent{AtMs: 0.1, Kind: engine.KindPosition, Value: 0.25}.Line())
	assert.Equal(t, "12.500\tbang\n", TraceEvent{AtMs: 12.5, Kind: engine.KindBang}.Line())
	assert.Equal(t, "1.000\tcount\t4\n", TraceEvent{AtMs: 1, Kind: engine.KindCount, Value: 4}.Line())
}
