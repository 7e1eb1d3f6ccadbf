package loader

import (
	goast "go/ast"
	"go/parser"
	"go/token"
	gotypes "go/types"

	"github.com/deriveq/deriveq/typeexpr"
	"github.com/pkg/errors"
)

// typeFromGoExpr maps a Go type annotation to a type expression. The
// decomposition is total: anything without a structural mapping comes back
// as an Opaque of its printed form rather than failing.
func typeFromGoExpr(e goast.Expr) typeexpr.TypeExpr {
	switch e := e.(type) {
	case *goast.Ident:
		return namedFor(e.Name)
	case *goast.SelectorExpr:
		qualifier := qualifierChain(e.X)
		if qualifier == nil {
			return typeexpr.Opaque{Value: gotypes.ExprString(e)}
		}
		return typeexpr.Named{Qualifier: qualifier, Name: e.Sel.Name}
	case *goast.StarExpr:
		// pointers share the pointee's identity
		return typeFromGoExpr(e.X)
	case *goast.ArrayType:
		elem := typeFromGoExpr(e.Elt)
		if e.Len == nil {
			return typeexpr.Vararg{Elem: elem}
		}
		return typeexpr.Vararg{Elem: elem, Count: countFromExpr(e.Len)}
	case *goast.Ellipsis:
		return typeexpr.Vararg{Elem: typeFromGoExpr(e.Elt)}
	case *goast.MapType:
		return typeexpr.Named{Name: "Map", Args: []typeexpr.TypeExpr{
			typeFromGoExpr(e.Key),
			typeFromGoExpr(e.Value),
		}}
	case *goast.IndexExpr:
		return instantiated(e.X, []goast.Expr{e.Index})
	case *goast.IndexListExpr:
		return instantiated(e.X, e.Indices)
	case *goast.InterfaceType:
		return fromInterface(e)
	case *goast.BinaryExpr:
		if e.Op == token.OR {
			return typeexpr.NewUnion(typeFromGoExpr(e.X), typeFromGoExpr(e.Y))
		}
		return typeexpr.Opaque{Value: gotypes.ExprString(e)}
	case *goast.UnaryExpr:
		if e.Op == token.TILDE {
			return typeFromGoExpr(e.X)
		}
		return typeexpr.Opaque{Value: gotypes.ExprString(e)}
	case *goast.ParenExpr:
		return typeFromGoExpr(e.X)
	case *goast.BasicLit:
		return typeexpr.Opaque{Value: e.Value}
	default:
		return typeexpr.Opaque{Value: gotypes.ExprString(e)}
	}
}

func instantiated(base goast.Expr, indices []goast.Expr) typeexpr.TypeExpr {
	args := make([]typeexpr.TypeExpr, len(indices))
	for i, idx := range indices {
		args[i] = typeFromGoExpr(idx)
	}
	switch base := base.(type) {
	case *goast.Ident:
		return typeexpr.Named{Name: base.Name, Args: args}
	case *goast.SelectorExpr:
		qualifier := qualifierChain(base.X)
		if qualifier == nil {
			return typeexpr.Opaque{Value: gotypes.ExprString(base)}
		}
		return typeexpr.Named{Qualifier: qualifier, Name: base.Sel.Name, Args: args}
	default:
		return typeexpr.Opaque{Value: gotypes.ExprString(base)}
	}
}

// fromInterface maps `any` to Any and embedded unions (`interface{ A | B }`)
// to a union; interfaces with methods stay opaque.
func fromInterface(e *goast.InterfaceType) typeexpr.TypeExpr {
	if e.Methods == nil || len(e.Methods.List) == 0 {
		return typeexpr.AnyType
	}
	var members []typeexpr.TypeExpr
	for _, f := range e.Methods.List {
		if len(f.Names) > 0 {
			// a method: no structural mapping
			return typeexpr.Opaque{Value: gotypes.ExprString(e)}
		}
		members = append(members, typeFromGoExpr(f.Type))
	}
	return typeexpr.NewUnion(members...)
}

func qualifierChain(e goast.Expr) []string {
	switch e := e.(type) {
	case *goast.Ident:
		return []string{e.Name}
	case *goast.SelectorExpr:
		head := qualifierChain(e.X)
		if head == nil {
			return nil
		}
		return append(head, e.Sel.Name)
	default:
		return nil
	}
}

func countFromExpr(e goast.Expr) typeexpr.TypeExpr {
	if lit, ok := e.(*goast.BasicLit); ok && lit.Kind == token.INT {
		return typeexpr.Opaque{Value: lit.Value}
	}
	return typeexpr.Opaque{Value: gotypes.ExprString(e)}
}

func namedFor(name string) typeexpr.TypeExpr {
	switch name {
	case "bool":
		return typeexpr.BoolType
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "rune", "byte":
		return typeexpr.IntType
	case "float32", "float64":
		return typeexpr.FloatType
	case "string":
		return typeexpr.StringType
	case "any":
		return typeexpr.AnyType
	}
	if t, ok := typeexpr.Predeclared(name); ok {
		return t
	}
	return typeexpr.Named{Name: name}
}

// TypeFromSource parses a Go type expression ("map[string]int",
// "pkg.Thing[T]") and converts it. Meant for tooling that wants the type
// identity of an annotation outside a full file.
func TypeFromSource(src string) (typeexpr.TypeExpr, error) {
	e, err := parser.ParseExpr(src)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing type expression '%s'", src)
	}
	return typeFromGoExpr(e), nil
}
