package mk

import (
	"fmt"

	"github.com/vk/sscpack/internal/notedata"
)

// The make DSL admits a restricted value grammar: integers, positions
// (reduced fractions), strings, flat lists of those, and variable references.
// A value position in the AST is a tagged union of a literal and a reference;
// the tag is fixed at parse time by the `$name` marker, never guessed from a
// failed literal parse.

// VarRef names a variable bound by an enclosing for (or let). It resolves at
// run time against the innermost binding frame that defines the name.
type VarRef struct {
	Name string
}

func (v VarRef) String() string { return "$" + v.Name }

// IntOrVar holds an integer literal or a reference that must resolve to one.
type IntOrVar struct {
	Int int64
	Ref *VarRef
}

// LitInt wraps an integer literal.
func LitInt(n int64) IntOrVar { return IntOrVar{Int: n} }

// IntVar wraps a variable reference in an integer position.
func IntVar(name string) IntOrVar { return IntOrVar{Ref: &VarRef{Name: name}} }

// PosOrVar holds a position literal or a reference that must resolve to one.
// Integer-valued references are promoted to whole-beat positions.
type PosOrVar struct {
	Pos notedata.Position
	Ref *VarRef
}

// LitPos wraps a position literal.
func LitPos(p notedata.Position) PosOrVar { return PosOrVar{Pos: p} }

// PosVar wraps a variable reference in a position position.
func PosVar(name string) PosOrVar { return PosOrVar{Ref: &VarRef{Name: name}} }

// ChartPoint addresses one point on one chart's timeline. Base, when set,
// must resolve to a position that is added to Offset; it lets a block anchor
// a family of commands at a single movable origin.
type ChartPoint struct {
	Chart  IntOrVar
	Base   *VarRef
	Offset PosOrVar
}

// ChartRegion is a half-open span [Start, Start+Length) on one chart.
type ChartRegion struct {
	Start  ChartPoint
	Length PosOrVar
}

// concretePoint is a ChartPoint after all references are resolved.
type concretePoint struct {
	chart    int
	position notedata.Position
}

// concreteRegion is a ChartRegion after all references are resolved.
type concreteRegion struct {
	start  concretePoint
	length notedata.Position
}

func (r concreteRegion) end() notedata.Position {
	return r.start.position.Add(r.length)
}

// Iterable is what a for command loops over: either an explicit list of
// scalar values or an arithmetic range.
type Iterable struct {
	List  []any
	Range *Range
}

// Range yields From, From+Step, ... while the value is before To (half-open,
// in the direction of Step).
type Range struct {
	From, To, Step int64
}

// values expands the iterable to the concrete ordered sequence the loop
// binds. An empty sequence is valid and loops zero times.
func (it Iterable) values() []any {
	if it.Range == nil {
		return it.List
	}
	r := *it.Range
	var out []any
	if r.Step > 0 {
		for v := r.From; v < r.To; v += r.Step {
			out = append(out, v)
		}
	} else {
		for v := r.From; v > r.To; v += r.Step {
			out = append(out, v)
		}
	}
	return out
}

// scalarString renders a bound value for logs and error messages.
func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return fmt.Sprintf("%q", s)
	default:
		return fmt.Sprintf("%v", v)
	}
}
