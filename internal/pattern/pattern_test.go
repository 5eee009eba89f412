package pattern

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_New(t *testing.T) {
	s := New()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 32, s.Cap(), "initial capacity")
}

func TestStore_At_OutOfRange(t *testing.T) {
	s := New()
	s.Append(0.5)

	assert.Equal(t, float32(0.5), s.At(0))
	assert.Equal(t, float32(0), s.At(-1))
	assert.Equal(t, float32(0), s.At(1))
}

func TestStore_Set(t *testing.T) {
	s := New()
	s.Append(0.1)
	s.Append(0.2)

	s.Set(1, 0.75)
	assert.Equal(t, float32(0.75), s.At(1))

	// out of range is ignored, length unchanged
	s.Set(5, 0.3)
	assert.Equal(t, 2, s.Len())

	s.Set(0, -0.4)
	assert.Equal(t, float32(0), s.At(0), "negative clamps to 0")

	s.Set(0, 1.0)
	assert.Equal(t, float32(0), s.At(0), "exactly 1.0 wraps to 0")
}

func TestStore_Append_GrowsByDoubling(t *testing.T) {
	s := New()
	for i := 0; i < 33; i++ {
		require.True(t, s.Append(0.5))
	}
	assert.Equal(t, 33, s.Len())
	assert.Equal(t, 64, s.Cap())

	for i := 0; i < 100; i++ {
		s.Append(0.5)
	}
	assert.Equal(t, 256, s.Cap())
}

func TestStore_ZeroValue_GrowsFromInitialCapacity(t *testing.T) {
	var s Store
	assert.Equal(t, 0, s.Cap())

	var caps []int
	for i := 0; i < MaxEvents; i++ {
		require.True(t, s.Append(0.5))
		if len(caps) == 0 || caps[len(caps)-1] != s.Cap() {
			caps = append(caps, s.Cap())
		}
	}
	assert.Equal(t, []int{32, 64, 128, 256}, caps)
}

func TestStore_Append_TruncatesAtMax(t *testing.T) {
	s := New()
	for i := 0; i < MaxEvents; i++ {
		require.True(t, s.Append(float32(i)/MaxEvents))
	}

	assert.False(t, s.Append(0.5), "append past MaxEvents is dropped")
	assert.Equal(t, MaxEvents, s.Len())
	assert.Equal(t, MaxEvents, s.Cap())
}

func TestStore_Resize(t *testing.T) {
	s := New()
	s.Append(0.5)
	s.Append(0.6)

	s.Resize(4)
	assert.Equal(t, []float32{0.5, 0.6, 0, 0}, s.Snapshot())

	s.Resize(1)
	assert.Equal(t, []float32{0.5}, s.Snapshot())

	// grow again - stale slot must be zero-filled
	s.Resize(2)
	assert.Equal(t, []float32{0.5, 0}, s.Snapshot())

	s.Resize(-3)
	assert.Equal(t, 0, s.Len())

	s.Resize(1000)
	assert.Equal(t, MaxEvents, s.Len())
}

func TestStore_Clear_RetainsCapacity(t *testing.T) {
	s := New()
	for i := 0; i < 40; i++ {
		s.Append(0.25)
	}
	c := s.Cap()

	s.Clear()
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, c, s.Cap())
}

func TestStore_Sort(t *testing.T) {
	s := New()
	for _, v := range []float32{0.75, 0.25, 0.5, 0.25, 0} {
		s.Append(v)
	}

	s.Sort()
	assert.Equal(t, []float32{0, 0.25, 0.25, 0.5, 0.75}, s.Snapshot())
}

func TestStore_Replace(t *testing.T) {
	s := New()
	s.Append(0.9)

	s.Replace([]float32{0.1, 1.5, -2})
	assert.Equal(t, []float32{0.1, 0.5, 0}, s.Snapshot())

	big := make([]float32, 300)
	s.Replace(big)
	assert.Equal(t, MaxEvents, s.Len(), "replace truncates to MaxEvents")

	s.Replace(nil)
	assert.Equal(t, 0, s.Len())
}

func TestStore_Snapshot_IsCopy(t *testing.T) {
	s := New()
	s.Append(0.5)

	snap := s.Snapshot()
	snap[0] = 0.9

	assert.Equal(t, float32(0.5), s.At(0))
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		want float32
	}{
		{"zero", 0, 0},
		{"inside", 0.3, 0.3},
		{"one", 1, 0},
		{"above_one", 1.25, 0.25},
		{"negative", -0.2, 0},
		{"nan", float32(math.NaN()), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Wrap(tt.in))
		})
	}
}

func TestWrapSigned(t *testing.T) {
	assert.Equal(t, float32(0.75), WrapSigned(-0.25))
	assert.Equal(t, float32(0.25), WrapSigned(1.25))
	assert.Equal(t, float32(0), WrapSigned(1))
	assert.Equal(t, float32(0), WrapSigned(float32(math.Inf(1))))

	// tiny negative offsets must never round up to exactly 1.0
	got := WrapSigned(-1e-9)
	assert.GreaterOrEqual(t, got, float32(0))
	assert.Less(t, got, float32(1))
}
