package typeexpr_test

import (
	"testing"

	"github.com/deriveq/deriveq/typeexpr"
	"github.com/stretchr/testify/assert"
)

func TestSeedIsDeterministic(t *testing.T) {
	exprs := []typeexpr.TypeExpr{
		typeexpr.IntType,
		typeexpr.Named{Qualifier: []string{"geo", "shapes"}, Name: "Point"},
		typeexpr.Named{Name: "Box", Args: []typeexpr.TypeExpr{typeexpr.IntType}},
		typeexpr.NewUnion(typeexpr.IntType, typeexpr.StringType),
		typeexpr.Vararg{Elem: typeexpr.FloatType},
		typeexpr.Bottom{},
		typeexpr.Opaque{Value: "16"},
	}
	for _, e := range exprs {
		assert.Equal(t, typeexpr.SeedOf(e), typeexpr.SeedOf(e), "seed of %s must be stable", e)
	}
}

func TestStructurallyIdenticalExprsSeedEqual(t *testing.T) {
	a := typeexpr.Named{Qualifier: []string{"geo"}, Name: "Point", Args: []typeexpr.TypeExpr{typeexpr.IntType}}
	b := typeexpr.Named{Qualifier: []string{"geo"}, Name: "Point", Args: []typeexpr.TypeExpr{typeexpr.Named{Name: "Int"}}}
	assert.Equal(t, typeexpr.SeedOf(a), typeexpr.SeedOf(b))

	v1 := &typeexpr.Var{Name: "T"}
	v2 := &typeexpr.Var{Name: "T"}
	assert.Equal(t, typeexpr.SeedOf(v1), typeexpr.SeedOf(v2), "distinct pointers with equal structure seed equal")
}

func TestDifferentShapesSeedDifferently(t *testing.T) {
	named := typeexpr.Named{Name: "T"}
	v := &typeexpr.Var{Name: "T"}
	assert.NotEqual(t, typeexpr.SeedOf(named), typeexpr.SeedOf(v))

	forall := typeexpr.Forall{Bound: &typeexpr.Var{Name: "T"}, Body: typeexpr.Named{Name: "T"}}
	assert.NotEqual(t, typeexpr.SeedOf(forall), typeexpr.SeedOf(named))
	assert.NotEqual(t, typeexpr.SeedOf(typeexpr.Bottom{}), typeexpr.SeedOf(named))
}

func TestOpenFormSeedsUnlikeInstantiation(t *testing.T) {
	open := typeexpr.Named{Name: "Box"}
	inst := typeexpr.Named{Name: "Box", Args: []typeexpr.TypeExpr{typeexpr.IntType}}
	other := typeexpr.Named{Name: "Box", Args: []typeexpr.TypeExpr{typeexpr.StringType}}
	assert.NotEqual(t, typeexpr.SeedOf(open), typeexpr.SeedOf(inst))
	assert.NotEqual(t, typeexpr.SeedOf(inst), typeexpr.SeedOf(other))
}

func TestArgumentOrderMatters(t *testing.T) {
	ab := typeexpr.Named{Name: "Pair", Args: []typeexpr.TypeExpr{typeexpr.IntType, typeexpr.StringType}}
	ba := typeexpr.Named{Name: "Pair", Args: []typeexpr.TypeExpr{typeexpr.StringType, typeexpr.IntType}}
	assert.NotEqual(t, typeexpr.SeedOf(ab), typeexpr.SeedOf(ba))
}

func TestRootNamespaceQualifierIsInsignificant(t *testing.T) {
	bare := typeexpr.Named{Name: "Int"}
	core := typeexpr.Named{Qualifier: []string{"core"}, Name: "Int"}
	pkg := typeexpr.Named{Qualifier: []string{"geo"}, Name: "Int"}
	assert.Equal(t, typeexpr.SeedOf(bare), typeexpr.SeedOf(core))
	assert.NotEqual(t, typeexpr.SeedOf(bare), typeexpr.SeedOf(pkg))
}

func TestQualifierChainOrderMatters(t *testing.T) {
	ab := typeexpr.Named{Qualifier: []string{"a", "b"}, Name: "T"}
	ba := typeexpr.Named{Qualifier: []string{"b", "a"}, Name: "T"}
	assert.NotEqual(t, typeexpr.SeedOf(ab), typeexpr.SeedOf(ba))
}

func TestUnionCanonicalOrder(t *testing.T) {
	a := typeexpr.NewUnion(typeexpr.IntType, typeexpr.StringType, typeexpr.BoolType)
	b := typeexpr.NewUnion(typeexpr.BoolType, typeexpr.StringType, typeexpr.IntType)
	assert.Equal(t, typeexpr.SeedOf(a), typeexpr.SeedOf(b), "member order at construction must not matter")
	assert.Equal(t, a, b)

	withDup := typeexpr.NewUnion(typeexpr.IntType, typeexpr.IntType, typeexpr.StringType)
	union, ok := withDup.(typeexpr.Union)
	assert.True(t, ok)
	assert.Len(t, union.Members(), 2)
}

func TestUnionCollapses(t *testing.T) {
	assert.Equal(t, typeexpr.Bottom{}, typeexpr.NewUnion())
	assert.Equal(t, typeexpr.TypeExpr(typeexpr.IntType), typeexpr.NewUnion(typeexpr.IntType))
	assert.Equal(t, typeexpr.TypeExpr(typeexpr.IntType), typeexpr.NewUnion(typeexpr.IntType, typeexpr.Bottom{}))

	nested := typeexpr.NewUnion(typeexpr.NewUnion(typeexpr.IntType, typeexpr.StringType), typeexpr.BoolType)
	flat := typeexpr.NewUnion(typeexpr.IntType, typeexpr.StringType, typeexpr.BoolType)
	assert.Equal(t, typeexpr.SeedOf(flat), typeexpr.SeedOf(nested))
}

func TestMetaTypeSeedsAreHardCoded(t *testing.T) {
	tuple1 := typeexpr.SeedOf(typeexpr.TupleMeta)
	tuple2 := typeexpr.SeedOf(typeexpr.Named{Name: "Tuple"})
	assert.Equal(t, tuple1, tuple2)
	assert.NotEqual(t, typeexpr.SeedOf(typeexpr.TupleMeta), typeexpr.SeedOf(typeexpr.VarargMeta))

	// an instantiated Tuple decomposes as an ordinary Named instead
	applied := typeexpr.Named{Name: "Tuple", Args: []typeexpr.TypeExpr{typeexpr.IntType}}
	assert.NotEqual(t, tuple1, typeexpr.SeedOf(applied))
}

func TestVarBoundsDefaultAndContribute(t *testing.T) {
	plain := &typeexpr.Var{Name: "T"}
	explicit := &typeexpr.Var{Name: "T", Lower: typeexpr.Bottom{}, Upper: typeexpr.AnyType}
	assert.Equal(t, typeexpr.SeedOf(plain), typeexpr.SeedOf(explicit), "nil bounds default to Bottom..Any")

	bounded := &typeexpr.Var{Name: "T", Upper: typeexpr.IntType}
	assert.NotEqual(t, typeexpr.SeedOf(plain), typeexpr.SeedOf(bounded))
}

func TestNilSeedsLikeBottom(t *testing.T) {
	assert.Equal(t, typeexpr.SeedOf(typeexpr.Bottom{}), typeexpr.SeedOf(nil))
}

func TestVarargCountContributes(t *testing.T) {
	unbounded := typeexpr.Vararg{Elem: typeexpr.IntType}
	sized := typeexpr.Vararg{Elem: typeexpr.IntType, Count: typeexpr.Opaque{Value: "4"}}
	otherSize := typeexpr.Vararg{Elem: typeexpr.IntType, Count: typeexpr.Opaque{Value: "8"}}
	assert.NotEqual(t, typeexpr.SeedOf(unbounded), typeexpr.SeedOf(sized))
	assert.NotEqual(t, typeexpr.SeedOf(sized), typeexpr.SeedOf(otherSize))
}

func TestOpaqueValuesDistinguish(t *testing.T) {
	assert.Equal(t,
		typeexpr.SeedOf(typeexpr.Opaque{Value: "chan int"}),
		typeexpr.SeedOf(typeexpr.Opaque{Value: "chan int"}))
	assert.NotEqual(t,
		typeexpr.SeedOf(typeexpr.Opaque{Value: "chan int"}),
		typeexpr.SeedOf(typeexpr.Opaque{Value: "chan string"}))
}

func TestStringRendering(t *testing.T) {
	assert.Equal(t, "geo.Point", typeexpr.Named{Qualifier: []string{"geo"}, Name: "Point"}.String())
	assert.Equal(t, "Box[Int]", typeexpr.Named{Name: "Box", Args: []typeexpr.TypeExpr{typeexpr.IntType}}.String())
	union := typeexpr.NewUnion(typeexpr.IntType, typeexpr.StringType)
	assert.Contains(t, union.String(), "|")
	forall := typeexpr.Forall{
		Bound: &typeexpr.Var{Name: "T"},
		Body:  typeexpr.Named{Name: "Box", Args: []typeexpr.TypeExpr{&typeexpr.Var{Name: "T"}}},
	}
	assert.Equal(t, "forall T. Box[T]", forall.String())
}
