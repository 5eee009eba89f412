// Package transform holds the named pattern rewrites and the registry the
// engine dispatches them through.
//
// A transform is a Handler plus an arity contract. Handlers never fail:
// numeric arguments are clamped into each transform's domain and empty
// patterns are left alone. The only failures belong to dispatch itself
// (unknown name, wrong argument count) and they leave the pattern
// untouched.
package transform

import (
	"log/slog"
	"math/rand/v2"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/telomere/internal/atom"
	"github.com/roach88/telomere/internal/pattern"
)

// Unbounded is the MaxArgs sentinel for transforms with no upper arity.
const Unbounded = -1

// Env carries the engine state a handler may read.
type Env struct {
	// Grid is the engine's grid resolution, used by rotate.
	Grid int
	// Rand is the engine's random source for the probabilistic transforms.
	Rand *rand.Rand
	// Logger receives handler diagnostics. May be nil.
	Logger *slog.Logger
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Handler rewrites a pattern in place.
type Handler interface {
	Apply(p *pattern.Store, args atom.List, env Env)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(p *pattern.Store, args atom.List, env Env)

// Apply calls f.
func (f HandlerFunc) Apply(p *pattern.Store, args atom.List, env Env) {
	f(p, args, env)
}

// Entry is a registered transform.
type Entry struct {
	Name        string
	Handler     Handler
	Description string
	MinArgs     int
	MaxArgs     int // Unbounded for no limit
}

// Accepts reports whether n arguments satisfy the arity contract.
func (e Entry) Accepts(n int) bool {
	if n < e.MinArgs {
		return false
	}
	return e.MaxArgs == Unbounded || n <= e.MaxArgs
}

// Registry maps transform names to entries.
//
// Lookup is by name. Enumeration is most-recently-registered first, and
// re-registering a name replaces the entry in place without moving it.
//
// A Registry is owned by one engine and shares its single-writer
// discipline; it is not safe for concurrent mutation.
type Registry struct {
	logger  *slog.Logger
	entries map[string]*Entry
	order   []string // most recent first
}

// NewRegistry creates an empty registry. A nil logger uses slog.Default().
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		logger:  logger,
		entries: make(map[string]*Entry),
	}
}

// Canonical returns the lookup key for a transform name (Unicode NFC).
// Two spellings that render identically always resolve to one entry.
func Canonical(name string) string {
	return norm.NFC.String(name)
}

// Register adds or replaces a transform. Returns true if an existing entry
// was replaced.
func (r *Registry) Register(name string, h Handler, minArgs, maxArgs int, description string) bool {
	key := Canonical(name)

	if e, ok := r.entries[key]; ok {
		r.logger.Info("replacing transform",
			"name", key,
			"min_args", minArgs,
			"max_args", maxArgs,
		)
		e.Handler = h
		e.Description = description
		e.MinArgs = minArgs
		e.MaxArgs = maxArgs
		return true
	}

	r.entries[key] = &Entry{
		Name:        key,
		Handler:     h,
		Description: description,
		MinArgs:     minArgs,
		MaxArgs:     maxArgs,
	}
	r.order = append([]string{key}, r.order...)
	return false
}

// Lookup returns the entry registered under name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.entries[Canonical(name)]
	if !ok {
		return Entry{}, false
	}
	return *e, true
}

// Len returns the number of registered transforms.
func (r *Registry) Len() int {
	return len(r.order)
}

// Entries returns a copy of every entry, most recently registered first.
func (r *Registry) Entries() []Entry {
	out := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.entries[name])
	}
	return out
}

// Dispatch looks up name, checks the arity contract and applies the handler
// to p. On failure the pattern is untouched and a *DispatchError is
// returned.
func (r *Registry) Dispatch(p *pattern.Store, name string, args atom.List, env Env) error {
	e, ok := r.entries[Canonical(name)]
	if !ok {
		return NewUnknownTransformError(name)
	}
	if !e.Accepts(len(args)) {
		return NewArityError(e.Name, e.MinArgs, e.MaxArgs, len(args))
	}

	e.Handler.Apply(p, args, env)
	return nil
}
