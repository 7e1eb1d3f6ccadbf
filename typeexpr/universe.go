package typeexpr

import (
	"github.com/benbjohnson/immutable"
	"github.com/deriveq/deriveq/util"
)

const (
	tupleMetaName  = "Tuple"
	varargMetaName = "Vararg"
)

// rootNamespaces are the designated universal namespaces: a qualifier chain
// starting with one of these contributes nothing to a Named seed, so that
// "Int" and "core.Int" identify the same type.
var rootNamespaces = util.NewSetOf([]string{"core", "main"})

// Predeclared types usable as field annotations without qualification.
var (
	AnyType    = Named{Name: "Any"}
	BoolType   = Named{Name: "Bool"}
	IntType    = Named{Name: "Int"}
	FloatType  = Named{Name: "Float"}
	StringType = Named{Name: "String"}
	BottomType = Bottom{}

	// The two meta-types special-cased by the seed algorithm.
	TupleMeta  = Named{Name: tupleMetaName}
	VarargMeta = Named{Name: varargMetaName}
)

var universe *immutable.Map[string, TypeExpr]

func init() {
	b := immutable.NewMapBuilder[string, TypeExpr](nil)
	for _, t := range []Named{AnyType, BoolType, IntType, FloatType, StringType, TupleMeta, VarargMeta} {
		b.Set(t.Name, t)
	}
	b.Set("Bottom", BottomType)
	universe = b.Map()
}

// Predeclared looks a type up by its universe name.
func Predeclared(name string) (TypeExpr, bool) {
	return universe.Get(name)
}
