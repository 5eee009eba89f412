// Package atom models the host message surface: a message is a selector
// followed by a list of atoms, and every atom is either a float or a symbol.
//
// Numeric accessors follow host default-argument semantics. A missing or
// non-numeric argument reads as 0, never as an error; receivers clamp.
package atom

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind distinguishes float atoms from symbol atoms.
type Kind int

const (
	// KindFloat is a numeric atom.
	KindFloat Kind = iota + 1
	// KindSymbol is a name atom.
	KindSymbol
)

// Reserved selectors with dedicated engine entry points.
const (
	SelectorBang  = "bang"
	SelectorFloat = "float"
)

// Atom is a single message argument.
type Atom struct {
	kind Kind
	num  float32
	sym  string
}

// Float creates a float atom.
func Float(f float32) Atom {
	return Atom{kind: KindFloat, num: f}
}

// Symbol creates a symbol atom.
func Symbol(s string) Atom {
	return Atom{kind: KindSymbol, sym: s}
}

// Kind reports the atom kind. The zero Atom has kind 0.
func (a Atom) Kind() Kind {
	return a.kind
}

// Float returns the numeric value, or 0 for symbols.
func (a Atom) Float() float32 {
	if a.kind != KindFloat {
		return 0
	}
	return a.num
}

// Symbol returns the symbol name, or "" for floats.
func (a Atom) Symbol() string {
	if a.kind != KindSymbol {
		return ""
	}
	return a.sym
}

// String renders the atom the way it would be typed.
func (a Atom) String() string {
	switch a.kind {
	case KindFloat:
		return strconv.FormatFloat(float64(a.num), 'g', -1, 32)
	case KindSymbol:
		return a.sym
	default:
		return ""
	}
}

// List is an ordered argument list.
type List []Atom

// Floats builds a list of float atoms.
func Floats(fs ...float32) List {
	l := make(List, len(fs))
	for i, f := range fs {
		l[i] = Float(f)
	}
	return l
}

// FloatArg returns argument i as a float; 0 when missing or a symbol.
func (l List) FloatArg(i int) float32 {
	if i < 0 || i >= len(l) {
		return 0
	}
	return l[i].Float()
}

// IntArg returns argument i truncated toward zero. Values outside the
// int32 range saturate so huge or NaN floats never reach an int conversion.
func (l List) IntArg(i int) int {
	f := l.FloatArg(i)
	switch {
	case f != f:
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

// SymbolArg returns argument i as a symbol; "" when missing or a float.
func (l List) SymbolArg(i int) string {
	if i < 0 || i >= len(l) {
		return ""
	}
	return l[i].Symbol()
}

// String renders the list space-separated.
func (l List) String() string {
	parts := make([]string, len(l))
	for i, a := range l {
		parts[i] = a.String()
	}
	return strings.Join(parts, " ")
}

// Message is a selector plus its arguments.
type Message struct {
	Selector string
	Args     List
}

// String renders the message as a text line.
func (m Message) String() string {
	if len(m.Args) == 0 {
		return m.Selector
	}
	return m.Selector + " " + m.Args.String()
}

// Parse converts a single token to an atom: numbers become floats and
// everything else becomes a symbol.
func Parse(token string) Atom {
	if f, err := strconv.ParseFloat(token, 32); err == nil {
		return Float(float32(f))
	}
	return Symbol(token)
}

// ParseMessage splits a text line into a message.
//
// A line whose first token is numeric is a float message ("140" sets
// tempo). Trailing ';' and blank lines are tolerated:
//
//	"euclid 3 8" -> {Selector: "euclid", Args: [3 8]}
//	"140"        -> {Selector: "float",  Args: [140]}
//	"bang;"      -> {Selector: "bang"}
func ParseMessage(line string) (Message, error) {
	line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ";"))
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Message{}, fmt.Errorf("empty message")
	}

	head := Parse(fields[0])
	args := make(List, 0, len(fields)-1)
	for _, f := range fields[1:] {
		args = append(args, Parse(f))
	}

	if head.Kind() == KindFloat {
		return Message{Selector: SelectorFloat, Args: append(List{head}, args...)}, nil
	}
	return Message{Selector: head.Symbol(), Args: args}, nil
}
