package midiout

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"

	"github.com/roach88/telomere/internal/sched"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type capture struct {
	msgs []midi.Message
	err  error
}

func (c *capture) send(msg midi.Message) error {
	c.msgs = append(c.msgs, msg)
	return c.err
}

func TestOutlet_BangSendsNoteOnThenOff(t *testing.T) {
	m := sched.NewManual(epoch)
	c := &capture{}
	o := New(c.send, m)

	o.Position(0.25)
	o.Bang()
	require.Len(t, c.msgs, 1)
	assert.Equal(t, midi.NoteOn(DefaultChannel, DefaultNote, DefaultVelocity), c.msgs[0])
	assert.Equal(t, 1, o.Sounding())

	m.Advance(DefaultGate - time.Millisecond)
	assert.Len(t, c.msgs, 1, "note still sounding")

	m.Advance(time.Millisecond)
	require.Len(t, c.msgs, 2)
	assert.Equal(t, midi.NoteOff(DefaultChannel, DefaultNote), c.msgs[1])
	assert.Equal(t, 0, o.Sounding())
}

func TestOutlet_Options(t *testing.T) {
	m := sched.NewManual(epoch)
	c := &capture{}
	o := New(c.send, m,
		WithChannel(2),
		WithNote(60),
		WithVelocity(80),
		WithAccent(127),
		WithGate(10*time.Millisecond),
	)

	o.Position(0)
	o.Bang()
	o.Position(0.5)
	o.Bang()
	m.Advance(10 * time.Millisecond)

	require.Len(t, c.msgs, 4)
	assert.Equal(t, midi.NoteOn(2, 60, 127), c.msgs[0], "downbeat accented")
	assert.Equal(t, midi.NoteOn(2, 60, 80), c.msgs[1])
	assert.Equal(t, midi.NoteOff(2, 60), c.msgs[2])
	assert.Equal(t, midi.NoteOff(2, 60), c.msgs[3])
}

func TestOutlet_IgnoresInvalidOptions(t *testing.T) {
	o := New(func(midi.Message) error { return nil }, sched.NewManual(epoch),
		WithVelocity(0),
		WithGate(-time.Second),
		WithLogger(nil),
	)
	assert.Equal(t, DefaultVelocity, o.velocity)
	assert.Equal(t, DefaultGate, o.gate)
	assert.NotNil(t, o.logger)
}

func TestOutlet_CountsSendErrors(t *testing.T) {
	m := sched.NewManual(epoch)
	c := &capture{err: errors.New("port closed")}
	o := New(c.send, m, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	o.Bang()
	m.Advance(time.Second)

	assert.Equal(t, 2, o.Errors())
	assert.Len(t, c.msgs, 2)
}

func TestOutlet_CountAndStatusSendNothing(t *testing.T) {
	c := &capture{}
	o := New(c.send, sched.NewManual(epoch))
	o.Count(3)
	o.Status(true)
	assert.Empty(t, c.msgs)
}

func TestWriterSender(t *testing.T) {
	var buf bytes.Buffer
	send := WriterSender(&buf)

	require.NoError(t, send(midi.NoteOn(0, 60, 100)))
	require.NoError(t, send(midi.NoteOff(0, 60)))

	want := append(midi.NoteOn(0, 60, 100).Bytes(), midi.NoteOff(0, 60).Bytes()...)
	assert.Equal(t, want, buf.Bytes())
}

func TestTextSender(t *testing.T) {
	var buf bytes.Buffer
	send := TextSender(&buf)

	require.NoError(t, send(midi.NoteOn(0, 60, 100)))
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	assert.Equal(t, midi.NoteOn(0, 60, 100).String(), string(lines[0]))
}
