// Package config loads telomere session files.
//
// A session file is YAML. It is validated against the embedded CUE schema
// (schema.cue) before it is decoded, so an out-of-range value is reported
// with its file position instead of being clamped later by the engine.
//
//	tempo: 96
//	beats: 3
//	grid: 12
//	quantize: 0.5
//	seed: 7
//	midi:
//	  channel: 9
//	  note: 42
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/roach88/telomere/internal/engine"
	"github.com/roach88/telomere/internal/midiout"
)

//go:embed schema.cue
var schemaSource string

// Error codes.
const (
	ErrCodeRead   = "CONFIG_READ"
	ErrCodeParse  = "CONFIG_PARSE"
	ErrCodeSchema = "CONFIG_SCHEMA"
)

// Error is a session file failure. Pos is set for schema violations.
type Error struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsSchemaError reports whether err is a schema violation.
func IsSchemaError(err error) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == ErrCodeSchema
}

// Config is a decoded session file. Nil fields were not set.
type Config struct {
	Tempo    *float64 `yaml:"tempo,omitempty"`
	Beats    *int     `yaml:"beats,omitempty"`
	Grid     *int     `yaml:"grid,omitempty"`
	Quantize *float64 `yaml:"quantize,omitempty"`
	Jitter   *float64 `yaml:"jitter,omitempty"`
	Skip     *float64 `yaml:"skip,omitempty"`
	Seed     *uint64  `yaml:"seed,omitempty"`

	// Journal is the sqlite path for the event journal.
	Journal string `yaml:"journal,omitempty"`

	MIDI MIDI `yaml:"midi,omitempty"`
}

// MIDI holds the midiout settings.
type MIDI struct {
	Channel  *int     `yaml:"channel,omitempty"`
	Note     *int     `yaml:"note,omitempty"`
	Velocity *int     `yaml:"velocity,omitempty"`
	Accent   *int     `yaml:"accent,omitempty"` // velocity at cycle position 0
	GateMs   *float64 `yaml:"gate_ms,omitempty"`
}

// Load reads and validates the session file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Code: ErrCodeRead, Message: err.Error()}
	}
	return Parse(path, data)
}

// Parse validates data against the schema and decodes it. filename is
// used for error positions only.
func Parse(filename string, data []byte) (*Config, error) {
	var cfg Config
	if len(bytes.TrimSpace(data)) == 0 {
		return &cfg, nil
	}

	if err := validate(filename, data); err != nil {
		return nil, err
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Code: ErrCodeParse, Message: err.Error()}
	}
	return &cfg, nil
}

// Validate checks an already decoded config against the schema, for
// configs embedded in other documents. name prefixes error positions.
func Validate(name string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return &Error{Code: ErrCodeParse, Message: err.Error()}
	}
	return validate(name, data)
}

func validate(filename string, data []byte) error {
	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return &Error{Code: ErrCodeParse, Message: err.Error()}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return &Error{Code: ErrCodeParse, Message: err.Error()}
	}

	merged := schema.LookupPath(cue.ParsePath("#Config")).Unify(doc)
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return schemaError(filename, err)
	}
	return nil
}

// schemaError reports the first CUE error, positioned in the session file
// when CUE knows where.
func schemaError(filename string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &Error{Code: ErrCodeSchema, Message: err.Error()}
	}
	first := errs[0]
	ce := &Error{Code: ErrCodeSchema, Message: first.Error()}
	for _, pos := range cueerrors.Positions(first) {
		if pos.Filename() == filename {
			ce.Pos = pos
			break
		}
	}
	return ce
}

// Options converts the set fields to engine options.
func (c *Config) Options() []engine.Option {
	var opts []engine.Option
	if c.Tempo != nil {
		opts = append(opts, engine.WithTempo(float32(*c.Tempo)))
	}
	if c.Beats != nil {
		opts = append(opts, engine.WithBeats(*c.Beats))
	}
	if c.Grid != nil {
		opts = append(opts, engine.WithGrid(*c.Grid))
	}
	if c.Quantize != nil {
		opts = append(opts, engine.WithQuantize(float32(*c.Quantize)))
	}
	if c.Jitter != nil {
		opts = append(opts, engine.WithJitter(float32(*c.Jitter)))
	}
	if c.Skip != nil {
		opts = append(opts, engine.WithSkip(float32(*c.Skip)))
	}
	if c.Seed != nil {
		opts = append(opts, engine.WithSeed(*c.Seed))
	}
	return opts
}

// MIDIOptions converts the midi block to midiout options.
func (c *Config) MIDIOptions() []midiout.Option {
	var opts []midiout.Option
	m := c.MIDI
	if m.Channel != nil {
		opts = append(opts, midiout.WithChannel(uint8(*m.Channel)))
	}
	if m.Note != nil {
		opts = append(opts, midiout.WithNote(uint8(*m.Note)))
	}
	if m.Velocity != nil {
		opts = append(opts, midiout.WithVelocity(uint8(*m.Velocity)))
	}
	if m.Accent != nil {
		opts = append(opts, midiout.WithAccent(uint8(*m.Accent)))
	}
	if m.GateMs != nil {
		opts = append(opts, midiout.WithGate(time.Duration(*m.GateMs*float64(time.Millisecond))))
	}
	return opts
}
