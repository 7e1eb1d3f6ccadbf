// Package typeexpr models the type expressions that identify record types,
// and derives stable unsigned seeds from them.
//
// The decomposition is total: every type annotation reachable from a record
// field maps to exactly one of the variants below, with Opaque as the
// fallback for anything we do not decompose further (such as compile-time
// literals embedded in a type).
package typeexpr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/deriveq/deriveq/util"
)

// TypeExpr is a recursive description of a type.
//
// Seeds may be persisted alongside hashed instances, so two structurally
// identical expressions must produce the same seed across process restarts
// and across independent builds.
type TypeExpr interface {
	fmt.Stringer

	// Seed folds this expression into the running accumulator h.
	// Deterministic and pure; see seed.go for the per-shape mixing rules.
	Seed(h uint64) uint64
}

var (
	_ TypeExpr = Named{}
	_ TypeExpr = (*Var)(nil)
	_ TypeExpr = Union{}
	_ TypeExpr = Forall{}
	_ TypeExpr = Bottom{}
	_ TypeExpr = Vararg{}
	_ TypeExpr = Opaque{}
)

// Named is a (possibly qualified, possibly parameterized) type name.
//
// A nil Args slice is the unspecialized/open form; a non-nil Args slice is an
// explicit instantiation. The two never produce the same seed when Args is
// non-empty.
type Named struct {
	// Qualifier holds the enclosing namespace levels, outermost first.
	// Empty, or starting with a universal root namespace, means unqualified.
	Qualifier []string
	Name      string
	Args      []TypeExpr
}

func (t Named) String() string {
	displayName := t.Name
	if len(t.Qualifier) > 0 {
		displayName = strings.Join(t.Qualifier, ".") + "." + t.Name
	}
	if len(t.Args) == 0 {
		return displayName
	}
	return fmt.Sprintf("%s[%s]", displayName, util.JoinString(t.Args, ","))
}

// Var is a bounded type variable. Nil bounds default to Bottom below and Any
// above.
type Var struct {
	Name  string
	Lower TypeExpr
	Upper TypeExpr
}

func (t *Var) lower() TypeExpr {
	if t.Lower == nil {
		return Bottom{}
	}
	return t.Lower
}

func (t *Var) upper() TypeExpr {
	if t.Upper == nil {
		return AnyType
	}
	return t.Upper
}

func (t *Var) String() string {
	if t.Lower == nil && t.Upper == nil {
		return t.Name
	}
	return fmt.Sprintf("%s(%s..%s)", t.Name, t.lower(), t.upper())
}

// Union is a set of alternative types. Members are kept in a canonical
// order (sorted by member seed, duplicates removed) so that enumeration
// order is reproducible for the same union across runs.
//
// Construct with NewUnion, which never produces an empty union: zero
// alternatives collapse to Bottom and one alternative to itself.
type Union struct {
	members []TypeExpr
}

// Members returns the canonical member order.
func (t Union) Members() []TypeExpr { return t.members }

func (t Union) String() string {
	return "(" + util.JoinString(t.members, "|") + ")"
}

// Forall is a universally quantified type: a generic type left (partially)
// unbound, as in "for all T, Box[T]".
type Forall struct {
	Bound *Var
	Body  TypeExpr
}

func (t Forall) String() string {
	return fmt.Sprintf("forall %s. %s", t.Bound, t.Body)
}

// Bottom is the empty type.
type Bottom struct{}

func (Bottom) String() string { return "bottom" }

// Vararg is a variadic/repeated type: zero or more occurrences of Elem,
// optionally constrained to Count repetitions. Both may be nil.
type Vararg struct {
	Elem  TypeExpr
	Count TypeExpr
}

func (t Vararg) String() string {
	switch {
	case t.Elem == nil:
		return "..."
	case t.Count == nil:
		return "..." + t.Elem.String()
	default:
		return fmt.Sprintf("...%s*%s", t.Elem, t.Count)
	}
}

// Opaque embeds a concrete non-type value in a type expression, such as the
// length of a sized array. It is the fallback for anything unrecognized.
type Opaque struct {
	Value any
}

func (t Opaque) String() string {
	switch v := t.Value.(type) {
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprint(v)
	}
}
