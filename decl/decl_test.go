package decl_test

import (
	"testing"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/typeexpr"
	"github.com/stretchr/testify/assert"
)

func TestRecordFieldLookup(t *testing.T) {
	rec := decl.Record{
		Name: "Point",
		Fields: []decl.Field{
			{Name: "X", Type: typeexpr.IntType},
			{Name: "Y", Type: typeexpr.IntType},
		},
	}
	assert.Equal(t, []string{"X", "Y"}, rec.FieldNames())

	f, ok := rec.Field("Y")
	assert.True(t, ok)
	assert.Equal(t, "Y", f.Name)
	_, ok = rec.Field("Z")
	assert.False(t, ok)
	assert.False(t, rec.HasConstructor())
}

func TestMonomorphicRecordTypeExpr(t *testing.T) {
	rec := decl.Record{Name: "Point"}
	assert.Equal(t, typeexpr.TypeExpr(typeexpr.Named{Name: "Point"}), rec.TypeExpr())
}

func TestGenericRecordTypeExprIsQuantified(t *testing.T) {
	rec := decl.Record{
		Name:       "Pair",
		TypeParams: []decl.TypeParam{{Name: "A"}, {Name: "B"}},
	}
	outer, ok := rec.TypeExpr().(typeexpr.Forall)
	assert.True(t, ok)
	assert.Equal(t, "A", outer.Bound.Name)
	inner, ok := outer.Body.(typeexpr.Forall)
	assert.True(t, ok)
	assert.Equal(t, "B", inner.Bound.Name)

	// the open form never seeds like any concrete instantiation
	inst := rec.Instantiated(typeexpr.IntType, typeexpr.StringType)
	assert.NotEqual(t, typeexpr.SeedOf(rec.TypeExpr()), typeexpr.SeedOf(inst))
}

func TestInstantiatedCarriesArgs(t *testing.T) {
	rec := decl.Record{Name: "Box", TypeParams: []decl.TypeParam{{Name: "T"}}}
	a := rec.Instantiated(typeexpr.IntType)
	b := rec.Instantiated(typeexpr.StringType)
	assert.NotEqual(t, typeexpr.SeedOf(a), typeexpr.SeedOf(b))
}
