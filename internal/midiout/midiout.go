// Package midiout turns engine playback into MIDI notes.
//
// Every playback bang becomes a NoteOn followed, after the gate time, by
// the matching NoteOff. The downbeat (position 0) is played at the accent
// velocity when one is set.
package midiout

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"

	"github.com/roach88/telomere/internal/sched"
)

// Defaults for a General MIDI rim shot on channel 10.
const (
	DefaultChannel  uint8 = 9
	DefaultNote     uint8 = 37
	DefaultVelocity uint8 = 100
	DefaultGate           = 50 * time.Millisecond
)

// Sender delivers one MIDI message. midi.SendTo returns one.
type Sender func(msg midi.Message) error

// Outlet implements engine.Outlet on top of a Sender.
type Outlet struct {
	send   Sender
	sched  sched.Scheduler
	logger *slog.Logger

	channel  uint8
	note     uint8
	velocity uint8
	accent   uint8
	gate     time.Duration

	mu       sync.Mutex
	position float32
	sounding int
	errs     int
}

// Option configures an Outlet.
type Option func(*Outlet)

// WithChannel sets the zero-based MIDI channel (0-15).
func WithChannel(ch uint8) Option {
	return func(o *Outlet) { o.channel = ch & 0x0f }
}

// WithNote sets the note number.
func WithNote(n uint8) Option {
	return func(o *Outlet) { o.note = n & 0x7f }
}

// WithVelocity sets the NoteOn velocity. Zero is ignored since a zero
// velocity NoteOn means NoteOff.
func WithVelocity(v uint8) Option {
	return func(o *Outlet) {
		if v&0x7f != 0 {
			o.velocity = v & 0x7f
		}
	}
}

// WithAccent sets the velocity used for an event at position 0.
func WithAccent(v uint8) Option {
	return func(o *Outlet) { o.accent = v & 0x7f }
}

// WithGate sets how long a note sounds before its NoteOff.
func WithGate(d time.Duration) Option {
	return func(o *Outlet) {
		if d > 0 {
			o.gate = d
		}
	}
}

// WithLogger sets the logger for send failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Outlet) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an Outlet. NoteOffs are scheduled on s.
func New(send Sender, s sched.Scheduler, opts ...Option) *Outlet {
	o := &Outlet{
		send:     send,
		sched:    s,
		logger:   slog.Default(),
		channel:  DefaultChannel,
		note:     DefaultNote,
		velocity: DefaultVelocity,
		gate:     DefaultGate,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Position remembers where the next bang falls in the cycle.
func (o *Outlet) Position(pos float32) {
	o.mu.Lock()
	o.position = pos
	o.mu.Unlock()
}

// Bang sends a NoteOn and schedules its NoteOff.
func (o *Outlet) Bang() {
	o.mu.Lock()
	vel := o.velocity
	if o.position == 0 && o.accent != 0 {
		vel = o.accent
	}
	o.sounding++
	o.mu.Unlock()

	o.deliver(midi.NoteOn(o.channel, o.note, vel))
	o.sched.Schedule(o.gate, func() {
		o.mu.Lock()
		o.sounding--
		o.mu.Unlock()
		o.deliver(midi.NoteOff(o.channel, o.note))
	})
}

// Count is a no-op; cycle ends carry no note.
func (o *Outlet) Count(int) {}

// Status is a no-op.
func (o *Outlet) Status(bool) {}

// Sounding returns the number of notes still waiting for their NoteOff.
func (o *Outlet) Sounding() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sounding
}

// Errors returns how many sends failed.
func (o *Outlet) Errors() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.errs
}

func (o *Outlet) deliver(msg midi.Message) {
	if err := o.send(msg); err != nil {
		o.mu.Lock()
		o.errs++
		o.mu.Unlock()
		o.logger.Warn("midi send failed", "msg", msg.String(), "error", err)
	}
}

// WriterSender writes raw message bytes to w.
func WriterSender(w io.Writer) Sender {
	var mu sync.Mutex
	return func(msg midi.Message) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := w.Write(msg.Bytes())
		return err
	}
}

// TextSender writes one human-readable line per message to w.
func TextSender(w io.Writer) Sender {
	var mu sync.Mutex
	return func(msg midi.Message) error {
		mu.Lock()
		defer mu.Unlock()
		_, err := fmt.Fprintln(w, msg.String())
		return err
	}
}

// PortSender opens the named output port of the registered MIDI driver.
func PortSender(name string) (Sender, error) {
	for _, port := range midi.GetOutPorts() {
		if port.String() == name {
			send, err := midi.SendTo(port)
			if err != nil {
				return nil, fmt.Errorf("open midi port %q: %w", name, err)
			}
			return send, nil
		}
	}
	return nil, fmt.Errorf("midi port %q not found", name)
}
