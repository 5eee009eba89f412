package config

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/midiout"
	"github.com/roach88/telomere/internal/sched"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLoad(t *testing.T) {
	cfg, err := Load("testdata/session.yaml")
	require.NoError(t, err)

	require.NotNil(t, cfg.Tempo)
	assert.Equal(t, 96.0, *cfg.Tempo)
	assert.Equal(t, 3, *cfg.Beats)
	assert.Equal(t, 12, *cfg.Grid)
	assert.Equal(t, 0.5, *cfg.Quantize)
	assert.Equal(t, 0.02, *cfg.Jitter)
	assert.Nil(t, cfg.Skip)
	assert.Equal(t, uint64(7), *cfg.Seed)
	assert.Equal(t, "telomere.db", cfg.Journal)
	assert.Equal(t, 42, *cfg.MIDI.Note)
	assert.Equal(t, 30.0, *cfg.MIDI.GateMs)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("testdata/nope.yaml")
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeRead, ce.Code)
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse("empty.yaml", []byte("\n  \n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.Options())
	assert.Empty(t, cfg.MIDIOptions())
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"tempo out of range", "tempo: 2000\n", "tempo"},
		{"zero tempo", "tempo: 0\n", "tempo"},
		{"fractional beats", "beats: 2.5\n", "beats"},
		{"grid too fine", "grid: 129\n", "grid"},
		{"quantize above one", "quantize: 1.5\n", "quantize"},
		{"negative skip", "skip: -0.1\n", "skip"},
		{"unknown field", "tempoo: 120\n", "tempoo"},
		{"midi channel", "midi:\n  channel: 16\n", "channel"},
		{"zero velocity", "midi:\n  velocity: 0\n", "velocity"},
		{"accent too loud", "midi:\n  accent: 128\n", "accent"},
		{"tempo as string", "tempo: fast\n", "tempo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("session.yaml", []byte(tt.input))
			require.Error(t, err)
			assert.True(t, IsSchemaError(err), "got %v", err)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_DecodedConfig(t *testing.T) {
	require.NoError(t, Validate("config", &Config{}))

	cfg, err := Load("testdata/session.yaml")
	require.NoError(t, err)
	require.NoError(t, Validate("config", cfg), "a loaded session re-validates")

	tempo := -5.0
	err = Validate("config", &Config{Tempo: &tempo})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "tempo")

	channel := 16
	err = Validate("config", &Config{MIDI: MIDI{Channel: &channel}})
	require.Error(t, err)
	assert.True(t, IsSchemaError(err))
	assert.Contains(t, err.Error(), "channel")
}

func TestParse_Malformed(t *testing.T) {
	_, err := Parse("bad.yaml", []byte("tempo: [120\n"))
	require.Error(t, err)

	var ce *Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, ErrCodeParse, ce.Code)
	assert.False(t, IsSchemaError(err))
}

func TestError_Format(t *testing.T) {
	err := &Error{Code: ErrCodeParse, Message: "boom"}
	assert.Equal(t, "CONFIG_PARSE: boom", err.Error())
}

func TestConfig_Options(t *testing.T) {
	cfg, err := Parse("session.yaml", []byte("tempo: 60\nbeats: 2\ngrid: 4\nquantize: 1\nskip: 0.25\nseed: 9\n"))
	require.NoError(t, err)

	m := sched.NewManual(epoch)
	e := engine.New(m.Clock(), m,
		append(cfg.Options(), engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))...)

	assert.Equal(t, float32(60), e.Tempo())
	assert.Equal(t, 2, e.Beats())
	assert.InDelta(t, 2000.0, e.CycleMs(), 1e-9)
	assert.Equal(t, 4, e.Grid())
	assert.Equal(t, float32(1), e.Quantize())
	assert.Equal(t, float32(0.25), e.Skip())
	assert.Equal(t, float32(0), e.Jitter())
}

func TestConfig_MIDIOptions(t *testing.T) {
	cfg, err := Parse("session.yaml", []byte("midi:\n  channel: 3\n  note: 64\n  velocity: 70\n  gate_ms: 20\n"))
	require.NoError(t, err)

	m := sched.NewManual(epoch)
	var got []midi.Message
	o := midiout.New(func(msg midi.Message) error {
		got = append(got, msg)
		return nil
	}, m, cfg.MIDIOptions()...)

	o.Position(0.5)
	o.Bang()
	assert.Equal(t, 1, m.Advance(20*time.Millisecond))

	require.Len(t, got, 2)
	assert.Equal(t, midi.NoteOn(3, 64, 70), got[0])
	assert.Equal(t, midi.NoteOff(3, 64), got[1])
}

func TestConfig_MIDIAccent(t *testing.T) {
	cfg, err := Parse("session.yaml", []byte("midi:\n  velocity: 70\n  accent: 120\n"))
	require.NoError(t, err)

	m := sched.NewManual(epoch)
	var got []midi.Message
	o := midiout.New(func(msg midi.Message) error {
		got = append(got, msg)
		return nil
	}, m, cfg.MIDIOptions()...)

	o.Position(0)
	o.Bang()
	o.Position(0.5)
	o.Bang()

	require.Len(t, got, 2)
	assert.Equal(t, midi.NoteOn(midiout.DefaultChannel, midiout.DefaultNote, 120), got[0], "accented downbeat")
	assert.Equal(t, midi.NoteOn(midiout.DefaultChannel, midiout.DefaultNote, 70), got[1])
}
