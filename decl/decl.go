// Package decl is the structured declaration model the generator consumes:
// a plain data description of a record type as supplied by a front end,
// independent of how the declaration was written down.
package decl

import (
	"fmt"
	"go/token"

	"github.com/deriveq/deriveq/typeexpr"
)

// Positioner allows finding the location in the original source file.
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

// Range represents a range of positions in the source code.
type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

// Pos returns the starting position of the range.
func (r Range) Pos() token.Pos { return r.PosStart }

// End returns the ending position of the range.
func (r Range) End() token.Pos { return r.PosEnd }

// String returns a string representation of the range.
func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

// RangeOf creates a Range from a Positioner.
func RangeOf(expr Positioner) Range {
	if expr == nil {
		return Range{}
	}
	if asRange, ok := expr.(Range); ok {
		return asRange
	}
	return Range{expr.Pos(), expr.End()}
}

// Field is a declared record field with an optional type annotation.
type Field struct {
	Range
	Name string
	// Type is nil when the field carries no annotation; such fields fall
	// back to the generic value hash at runtime.
	Type typeexpr.TypeExpr
}

// TypeParam is a generic parameter of a record, with an optional upper bound.
type TypeParam struct {
	Range
	Name  string
	Bound typeexpr.TypeExpr
}

// Record is a record declaration as produced by a front end, once per
// declaration processed. Instances of the record live under ordinary value
// lifetime rules and never refer back to this structure.
type Record struct {
	Range
	Name       string
	Fields     []Field
	TypeParams []TypeParam
	// Mutable marks a reference/mutable-identity kind. It forbids hash
	// caching and enables the identity fast path in total equality.
	Mutable bool
	// ConstructorName is non-empty when the declaration already supplies
	// its own constructor, which conflicts with caching.
	ConstructorName string
}

func (r Record) HasConstructor() bool { return r.ConstructorName != "" }

// FieldNames returns the declared field names in declaration order.
func (r Record) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// Field returns the declared field with the given name.
func (r Record) Field(name string) (Field, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// TypeExpr is the open form of the record's type: the bare name for a
// monomorphic record, or the universally quantified form for a generic one.
func (r Record) TypeExpr() typeexpr.TypeExpr {
	if len(r.TypeParams) == 0 {
		return typeexpr.Named{Name: r.Name}
	}
	vars := make([]*typeexpr.Var, len(r.TypeParams))
	args := make([]typeexpr.TypeExpr, len(r.TypeParams))
	for i, p := range r.TypeParams {
		vars[i] = &typeexpr.Var{Name: p.Name, Upper: p.Bound}
		args[i] = vars[i]
	}
	var t typeexpr.TypeExpr = typeexpr.Named{Name: r.Name, Args: args}
	for i := len(vars) - 1; i >= 0; i-- {
		t = typeexpr.Forall{Bound: vars[i], Body: t}
	}
	return t
}

// Instantiated is the record's type explicitly applied to the given type
// arguments, as used when type-argument significance is enabled.
func (r Record) Instantiated(args ...typeexpr.TypeExpr) typeexpr.TypeExpr {
	return typeexpr.Named{Name: r.Name, Args: args}
}
