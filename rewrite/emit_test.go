package rewrite_test

import (
	goast "go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/loader"
	"github.com/deriveq/deriveq/rewrite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emit(t *testing.T, src string) string {
	fset := token.NewFileSet()
	f, errs := loader.ParseSource(fset, "test.go", src)
	require.False(t, errs.HasError(), "load: %v", errs.Errors())

	var units []rewrite.Unit
	for _, parsed := range f.Records {
		opts, optErrs := decl.ParseOptions(parsed.Raw)
		require.False(t, optErrs.HasError(), "options: %v", optErrs.Errors())
		gen, procErrs := rewrite.Process(parsed.Record, opts, nil)
		require.False(t, procErrs.HasError(), "process: %v", procErrs.Errors())
		units = append(units, rewrite.Unit{Parsed: parsed, Gen: gen})
	}
	out, err := rewrite.EmitFile(f.PkgName, units)
	require.NoError(t, err)
	return string(out)
}

func parseEmitted(t *testing.T, src string) map[string]bool {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "gen.go", src, 0)
	require.NoError(t, err, "generated output must be valid Go:\n%s", src)
	decls := map[string]bool{}
	for _, d := range f.Decls {
		if fn, ok := d.(*goast.FuncDecl); ok {
			decls[fn.Name.Name] = true
		}
	}
	return decls
}

func TestEmitPlainRecord(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive
type Point struct {
	X, Y int
}
`)
	assert.True(t, strings.HasPrefix(out, "// Code generated by deriveq. DO NOT EDIT."))
	assert.Contains(t, out, "package geo")
	assert.Contains(t, out, "var _PointDerived = policy.Derived{TypeName: \"Point\"}")

	names := parseEmitted(t, out)
	assert.True(t, names["NewPoint"])
	assert.True(t, names["HashValue"])
	assert.True(t, names["Equals"])
	assert.True(t, names["IsEqualTo"])
	assert.True(t, names["DerivedFields"])
}

func TestEmitCachedRecord(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive cache
type Point struct {
	X, Y int
}
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "cachedHash uint64", "the hidden cache field is appended to the struct")
	assert.Contains(t, out, "_PointDerived.CachedHash(h, x.cachedHash)")
	assert.Contains(t, out, "out.cachedHash = _PointDerived.HashFields(0, out.X, out.Y)")
	assert.Contains(t, out, "x.cachedHash != o.cachedHash")
}

func TestEmitSelectionNarrowsGeneratedCode(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive fields=X
type Point struct {
	X, Y int
}
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "HashFields(h, x.X)")
	assert.NotContains(t, out, "x.Y")
	assert.Contains(t, out, `[]string{"X"}`)
}

func TestEmitMutableRecordUsesPointers(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive mutable
type Cursor struct {
	X, Y int
}
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "func (x *Cursor) IsEqualTo(o *Cursor) bool")
	assert.Contains(t, out, "if x == o")
	assert.Contains(t, out, "func NewCursor(x int, y int) *Cursor")
}

func TestEmitSkipsUserConstructor(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive
type Point struct {
	X, Y int
}

func NewPoint(x, y int) Point { return Point{x, y} }
`)
	parseEmitted(t, out)
	assert.NotContains(t, out, "func NewPoint", "the user already supplies the constructor")
	assert.Contains(t, out, "func (x Point) HashValue")
}

func TestEmitTypeSeedAndHashFn(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive typeseed=0x2a hashfn=hashes.Fast
type Point struct {
	X int
}
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "Seed: policy.Uint64(0x2a)")
	assert.Contains(t, out, "Hash: hashes.Fast")
}

func TestEmitGenericRecord(t *testing.T) {
	out := emit(t, `package box

//deriveq:derive typearg
type Box[T any] struct {
	Value T
}
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "func NewBox[T any](value T) Box[T]")
	assert.Contains(t, out, "func (x Box[T]) HashValue")
	assert.Contains(t, out, "typeexpr.Forall{")
	assert.Contains(t, out, `&typeexpr.Var{Name: "T"`)
}

func TestEmitMultipleRecordsShareOneFile(t *testing.T) {
	out := emit(t, `package geo

//deriveq:derive
type Point struct{ X int }

//deriveq:derive
type Size struct{ W int }
`)
	parseEmitted(t, out)
	assert.Contains(t, out, "_PointDerived")
	assert.Contains(t, out, "_SizeDerived")
}
