package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"
)

func TestRecorder_StampsEvents(t *testing.T) {
	clk := clocktesting.NewFakeClock(epoch)
	rec := NewRecorder(clk)

	rec.Status(true)
	clk.Step(250 * time.Millisecond)
	rec.Position(0.5)
	rec.Bang()
	rec.Count(3)

	events := rec.Events()
	require.Len(t, events, 4)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, int64(4), events[3].Seq)
	assert.Equal(t, epoch, events[0].At)
	assert.Equal(t, epoch.Add(250*time.Millisecond), events[1].At)

	n, ok := rec.LastCount()
	assert.True(t, ok)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{0.5}, rec.Positions())

	rec.Reset()
	assert.Equal(t, 0, rec.Len())
	rec.Bang()
	assert.Equal(t, int64(5), rec.Events()[0].Seq, "sequence survives reset")
}

func TestRecorder_NilClock(t *testing.T) {
	rec := NewRecorder(nil)
	rec.Bang()
	assert.True(t, rec.Events()[0].At.IsZero())

	_, ok := rec.LastCount()
	assert.False(t, ok)
}

func TestOutletEvent_FormatValue(t *testing.T) {
	assert.Equal(t, "0.250000", OutletEvent{Kind: KindPosition, Value: 0.25}.FormatValue())
	assert.Equal(t, "3", OutletEvent{Kind: KindCount, Value: 3}.FormatValue())
	assert.Equal(t, "1", OutletEvent{Kind: KindStatus, Value: 1}.FormatValue())
	assert.Equal(t, "", OutletEvent{Kind: KindBang}.FormatValue())
}

func TestTee(t *testing.T) {
	a, b := NewRecorder(nil), NewRecorder(nil)
	tee := Tee{a, b, NopOutlet{}}

	tee.Position(0.1)
	tee.Bang()
	tee.Count(1)
	tee.Status(false)

	assert.Equal(t, 4, a.Len())
	assert.Equal(t, 4, b.Len())
}
