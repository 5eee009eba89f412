package engine

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"k8s.io/utils/clock"

	"github.com/roach88/telomere/internal/pattern"
	"github.com/roach88/telomere/internal/sched"
	"github.com/roach88/telomere/internal/transform"
)

// Defaults applied by New.
const (
	DefaultTempo = 120
	DefaultBeats = 4
	DefaultGrid  = 16

	MaxGrid = 128
)

// State is the engine's position in the record/playback state machine.
type State int

const (
	StateIdle State = iota
	StateRecording
	StatePlaying
)

func (s State) String() string {
	switch s {
	case StateRecording:
		return "recording"
	case StatePlaying:
		return "playing"
	default:
		return "idle"
	}
}

// Engine is the record/playback state machine for one pattern.
//
// A trigger (Bang) either records a tap or starts playback, depending on
// the recording flag. Playback walks the pattern in index order, asking
// the scheduler for one callback per event. Each callback emits the event
// and schedules the next one from the gap to the following position.
//
// Engine is not safe for concurrent use. Every method, and every
// scheduler callback, must run on one goroutine; Runner provides that loop.
//
// INVARIANTS:
//   - cycleMs == 60000 / tempo * beats
//   - at most one scheduled playback callback is pending
//   - the pattern is only rewritten through pattern.Store methods
type Engine struct {
	clock    clock.PassiveClock
	sched    sched.Scheduler
	registry *transform.Registry
	outlet   Outlet
	rand     *rand.Rand
	logger   *slog.Logger

	pattern *pattern.Store

	tempo    float32
	beats    int
	cycleMs  float64
	quantize float32
	grid     int
	jitter   float32
	skip     float32

	recording  bool
	playing    bool
	cursor     int
	cycleStart time.Time
	pending    sched.Task
}

// Option configures an Engine.
type Option func(*Engine)

// WithOutlet sets where emissions go. Default: NopOutlet.
func WithOutlet(o Outlet) Option {
	return func(e *Engine) {
		e.outlet = o
	}
}

// WithRand sets the random source used by skip, jitter and the
// probabilistic transforms.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		e.rand = r
	}
}

// WithSeed seeds a PCG source. Same seed, same variation.
func WithSeed(seed uint64) Option {
	return WithRand(rand.New(rand.NewPCG(seed, seed)))
}

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithRegistry injects a transform registry. Default: a fresh registry
// holding the built-ins.
func WithRegistry(r *transform.Registry) Option {
	return func(e *Engine) {
		e.registry = r
	}
}

// WithTempo sets the initial tempo. Non-positive values keep the default.
func WithTempo(bpm float32) Option {
	return func(e *Engine) {
		e.setTempo(bpm)
	}
}

// WithBeats sets the initial beats per cycle.
func WithBeats(n int) Option {
	return func(e *Engine) {
		e.setBeats(n)
	}
}

// WithGrid sets the initial grid resolution.
func WithGrid(n int) Option {
	return func(e *Engine) {
		e.setGrid(n)
	}
}

// WithQuantize sets the initial quantize strength.
func WithQuantize(q float32) Option {
	return func(e *Engine) {
		e.quantize = clampUnit(q)
	}
}

// WithJitter sets the initial playback jitter amount.
func WithJitter(a float32) Option {
	return func(e *Engine) {
		e.jitter = clampUnit(a)
	}
}

// WithSkip sets the initial playback skip probability.
func WithSkip(p float32) Option {
	return func(e *Engine) {
		e.skip = clampUnit(p)
	}
}

// New creates an engine reading time from clk and scheduling playback on s.
func New(clk clock.PassiveClock, s sched.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		clock:   clk,
		sched:   s,
		outlet:  NopOutlet{},
		logger:  slog.Default(),
		pattern: pattern.New(),
		tempo:   DefaultTempo,
		beats:   DefaultBeats,
		grid:    DefaultGrid,
	}
	e.cycleMs = cycleLength(e.tempo, e.beats)

	for _, opt := range opts {
		opt(e)
	}

	if e.rand == nil {
		e.rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if e.registry == nil {
		e.registry = transform.NewRegistry(e.logger)
		transform.RegisterBuiltins(e.registry)
	}
	e.cycleStart = e.clock.Now()

	return e
}

// cycleLength is 60000 / tempo * beats, in milliseconds.
func cycleLength(tempo float32, beats int) float64 {
	return 60000.0 / float64(tempo) * float64(beats)
}

// Bang is the trigger. While recording it taps the current cycle position
// into the pattern; otherwise it starts playback from the first event.
func (e *Engine) Bang() {
	if e.recording {
		e.tap()
		return
	}
	e.startPlayback()
}

// Float sets the tempo. Non-positive values are ignored.
func (e *Engine) Float(f float32) {
	e.setTempo(f)
}

// tap records the elapsed fraction of the current cycle, pulled toward
// the nearest grid point by the quantize strength.
func (e *Engine) tap() {
	elapsed := sched.ToMillis(e.clock.Since(e.cycleStart))
	frac := elapsed / e.cycleMs
	frac -= math.Floor(frac)
	pos := float32(frac)
	if pos >= 1 || pos < 0 {
		pos = 0
	}

	if e.quantize > 0 && e.grid > 0 {
		step := 1 / float32(e.grid)
		nearest := float32(math.Round(float64(pos/step))) * step
		pos += (nearest - pos) * e.quantize
		if pos >= 1 {
			pos -= 1
		}
	}

	if !e.pattern.Append(pos) {
		e.logger.Debug("tap dropped: pattern full", "max_events", pattern.MaxEvents)
	}
	e.logger.Debug("tap recorded", "position", pos, "count", e.pattern.Len())
	e.outlet.Count(e.pattern.Len())
}

func (e *Engine) startPlayback() {
	if e.pattern.Len() == 0 {
		return
	}

	e.cancelPending()
	e.cursor = 0
	e.cycleStart = e.clock.Now()
	e.playing = true

	e.logger.Debug("playback started", "events", e.pattern.Len(), "cycle_ms", e.cycleMs)
	e.scheduleTick(float64(e.pattern.At(0)) * e.cycleMs)
}

// tick handles the event at the cursor. It runs as a scheduler callback.
func (e *Engine) tick() {
	e.pending = nil

	n := e.pattern.Len()
	if e.cursor >= n {
		e.endCycle()
		return
	}

	pos := e.pattern.At(e.cursor)
	if e.skip > 0 && e.rand.Float32() < e.skip {
		e.logger.Debug("event skipped", "index", e.cursor, "position", pos)
	} else {
		out := pos
		if e.jitter > 0 {
			r := e.rand.Float32()*2 - 1
			out = pattern.WrapSigned(pos + r*e.jitter)
		}
		e.outlet.Position(out)
		e.outlet.Bang()
	}

	e.cursor++
	if e.cursor >= n {
		e.endCycle()
		return
	}

	next := e.pattern.At(e.cursor)
	e.scheduleTick(float64(next-pos) * e.cycleMs)
}

// endCycle stops playback and reports the event count. There is no
// automatic rewind; the next Bang starts a new cycle.
func (e *Engine) endCycle() {
	e.playing = false
	e.outlet.Count(e.pattern.Len())
}

func (e *Engine) scheduleTick(ms float64) {
	e.pending = e.sched.Schedule(sched.Millis(ms), e.tick)
}

func (e *Engine) cancelPending() {
	if e.pending != nil {
		e.pending.Cancel()
		e.pending = nil
	}
}

// Close cancels any pending playback callback. The engine stays usable.
func (e *Engine) Close() {
	e.cancelPending()
	e.playing = false
}

// State reports the state machine position. Recording wins over Playing
// when a playback callback is still pending after recording was enabled.
func (e *Engine) State() State {
	switch {
	case e.recording:
		return StateRecording
	case e.playing:
		return StatePlaying
	default:
		return StateIdle
	}
}

// Pattern returns a copy of the stored positions.
func (e *Engine) Pattern() []float32 { return e.pattern.Snapshot() }

// Len returns the number of stored events.
func (e *Engine) Len() int { return e.pattern.Len() }

// Tempo returns beats per minute.
func (e *Engine) Tempo() float32 { return e.tempo }

// Beats returns beats per cycle.
func (e *Engine) Beats() int { return e.beats }

// CycleMs returns the cycle length in milliseconds.
func (e *Engine) CycleMs() float64 { return e.cycleMs }

// Grid returns the grid resolution.
func (e *Engine) Grid() int { return e.grid }

// Quantize returns the quantize strength.
func (e *Engine) Quantize() float32 { return e.quantize }

// Jitter returns the playback jitter amount.
func (e *Engine) Jitter() float32 { return e.jitter }

// Skip returns the playback skip probability.
func (e *Engine) Skip() float32 { return e.skip }

// Recording reports the recording flag.
func (e *Engine) Recording() bool { return e.recording }

// Registry returns the engine's transform registry, for registering
// additional transforms.
func (e *Engine) Registry() *transform.Registry { return e.registry }

func (e *Engine) env() transform.Env {
	return transform.Env{Grid: e.grid, Rand: e.rand, Logger: e.logger}
}

func (e *Engine) setTempo(bpm float32) {
	if !(bpm > 0) || math.IsInf(float64(bpm), 1) {
		return
	}
	e.tempo = bpm
	e.cycleMs = cycleLength(e.tempo, e.beats)
	e.logger.Debug("tempo set", "bpm", bpm, "cycle_ms", e.cycleMs)
}

func (e *Engine) setBeats(n int) {
	e.beats = max(n, 1)
	e.cycleMs = cycleLength(e.tempo, e.beats)
	e.logger.Debug("beats set", "beats", e.beats, "cycle_ms", e.cycleMs)
}

func (e *Engine) setGrid(n int) {
	e.grid = min(max(n, 1), MaxGrid)
}

// clampUnit bounds v to [0,1]. NaN becomes 0.
func clampUnit(v float32) float32 {
	if v != v {
		return 0
	}
	return min(max(v, 0), 1)
}
