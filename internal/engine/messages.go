package engine

import (
	"fmt"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/transform"
)

// builtinMessage describes a message the engine handles itself rather
// than routing through the transform registry.
type builtinMessage struct {
	name    string
	usage   string
	summary string
}

// builtins shadow registry transforms of the same name: "jitter" and
// "skip" set playback parameters here, and the destructive transforms are
// reached with "apply jitter <amount>".
var builtins = []builtinMessage{
	{"record", "<0|1>", "start/stop recording"},
	{"clear", "", "clear pattern"},
	{"quantize", "<0-1>", "set quantize strength"},
	{"grid", "<n>", "set grid subdivisions"},
	{"jitter", "<0-1>", "set playback jitter"},
	{"skip", "<0-1>", "set skip probability"},
	{"beats", "<n>", "set beats per cycle"},
	{"dump", "", "print pattern to console"},
	{"help", "", "list transforms and messages"},
	{ApplySelector, "<name> [args]", "apply a transform by name, bypassing built-ins"},
}

// ApplySelector routes "apply <name> args..." straight to the registry.
const ApplySelector = "apply"

// Message handles one named message. Built-in messages never fail. Any
// other selector is dispatched to the transform registry; an unknown name
// or a bad argument count is logged and returned, and the pattern is left
// unchanged.
func (e *Engine) Message(selector string, args atom.List) error {
	switch selector {
	case "":
		return NewEmptyMessageError()
	case atom.SelectorBang:
		e.Bang()
	case atom.SelectorFloat:
		e.Float(args.FloatArg(0))
	case ApplySelector:
		if len(args) == 0 || args[0].Kind() != atom.KindSymbol {
			err := transform.NewArityError(ApplySelector, 1, transform.Unbounded, len(args))
			e.logger.Error("telomere: apply needs a transform name", "error", err)
			return err
		}
		return e.Transform(args[0].Symbol(), args[1:])
	case "record":
		e.record(args.FloatArg(0) != 0)
	case "clear":
		e.clear()
	case "quantize":
		e.quantize = clampUnit(args.FloatArg(0))
	case "grid":
		e.setGrid(args.IntArg(0))
	case "jitter":
		e.jitter = clampUnit(args.FloatArg(0))
	case "skip":
		e.skip = clampUnit(args.FloatArg(0))
	case "beats":
		e.setBeats(args.IntArg(0))
	case "dump":
		e.Dump()
	case "help":
		e.Help()
	default:
		return e.Transform(selector, args)
	}
	return nil
}

// Send handles a parsed message.
func (e *Engine) Send(msg atom.Message) error {
	return e.Message(msg.Selector, msg.Args)
}

// Transform dispatches a named transform against the pattern.
func (e *Engine) Transform(name string, args atom.List) error {
	if err := e.registry.Dispatch(e.pattern, name, args, e.env()); err != nil {
		e.logger.Error("telomere: message rejected",
			"name", name,
			"args", args.String(),
			"error", err,
		)
		return fmt.Errorf("message %q: %w", name, err)
	}

	e.logger.Debug("transform applied", "name", name, "args", args.String(), "count", e.pattern.Len())
	return nil
}

func (e *Engine) record(on bool) {
	e.recording = on
	if on {
		e.cycleStart = e.clock.Now()
	}
	e.logger.Debug("recording", "enabled", on)
	e.outlet.Status(on)
}

func (e *Engine) clear() {
	e.pattern.Clear()
	e.outlet.Count(0)
}

// Snapshot is the engine state reported by Dump.
type Snapshot struct {
	Events    []float32 `json:"events"`
	Tempo     float32   `json:"tempo"`
	Beats     int       `json:"beats"`
	CycleMs   float64   `json:"cycle_ms"`
	Grid      int       `json:"grid"`
	Quantize  float32   `json:"quantize"`
	Jitter    float32   `json:"jitter"`
	Skip      float32   `json:"skip"`
	Recording bool      `json:"recording"`
	Playing   bool      `json:"playing"`
}

// Dump logs the pattern and returns it with the current parameters.
func (e *Engine) Dump() Snapshot {
	s := Snapshot{
		Events:    e.pattern.Snapshot(),
		Tempo:     e.tempo,
		Beats:     e.beats,
		CycleMs:   e.cycleMs,
		Grid:      e.grid,
		Quantize:  e.quantize,
		Jitter:    e.jitter,
		Skip:      e.skip,
		Recording: e.recording,
		Playing:   e.playing,
	}

	e.logger.Info("telomere: dump",
		"events", len(s.Events),
		"tempo", fmt.Sprintf("%.1f", s.Tempo),
		"grid", s.Grid,
		"q", fmt.Sprintf("%.2f", s.Quantize),
	)
	for i, v := range s.Events {
		e.logger.Info("telomere: event", "index", i, "position", fmt.Sprintf("%.6f", v))
	}
	return s
}

// HelpEntry describes one message the engine accepts.
type HelpEntry struct {
	Name        string `json:"name"`
	Args        string `json:"args"`
	Description string `json:"description"`
	Builtin     bool   `json:"builtin"`
}

// Help lists registered transforms (most recently registered first)
// followed by the built-in messages, and logs the list.
func (e *Engine) Help() []HelpEntry {
	entries := e.registry.Entries()
	out := make([]HelpEntry, 0, len(entries)+len(builtins))
	for _, t := range entries {
		out = append(out, HelpEntry{
			Name:        t.Name,
			Args:        transform.FormatArity(t.MinArgs, t.MaxArgs),
			Description: t.Description,
		})
	}
	for _, b := range builtins {
		out = append(out, HelpEntry{
			Name:        b.name,
			Args:        b.usage,
			Description: b.summary,
			Builtin:     true,
		})
	}

	for _, h := range out {
		e.logger.Info("telomere: help", "name", h.Name, "args", h.Args, "description", h.Description)
	}
	return out
}
