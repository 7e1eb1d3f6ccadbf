package rewrite

import (
	"bytes"
	"fmt"
	goast "go/ast"
	"go/format"
	"go/token"
	gotypes "go/types"
	"strconv"
	"strings"

	"github.com/deriveq/deriveq/loader"
	"github.com/deriveq/deriveq/typeexpr"
	"github.com/pkg/errors"
	"golang.org/x/tools/imports"
)

const (
	policyImport   = "github.com/deriveq/deriveq/policy"
	typeexprImport = "github.com/deriveq/deriveq/typeexpr"
	generatedBy    = "// Code generated by deriveq. DO NOT EDIT.\n\n"
)

// Unit pairs a processed declaration with the syntax it was loaded from.
type Unit struct {
	Parsed loader.Parsed
	Gen    *Generated
}

// EmitFile renders the companion file for the given declarations: each
// record re-emitted (augmented with the hidden cache field where caching is
// on), its constructor, and its hash/equality procedures.
func EmitFile(pkgName string, units []Unit) ([]byte, error) {
	decls := []goast.Decl{importDecl(units)}
	for _, u := range units {
		decls = append(decls, emitUnit(u)...)
	}
	file := &goast.File{
		Name:  goast.NewIdent(pkgName),
		Decls: decls,
	}

	var buf bytes.Buffer
	buf.WriteString(generatedBy)
	if err := format.Node(&buf, token.NewFileSet(), file); err != nil {
		return nil, errors.Wrap(err, "formatting generated declarations")
	}
	out, err := imports.Process(pkgName+"_deriveq.go", buf.Bytes(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "resolving imports of generated file")
	}
	return out, nil
}

func importDecl(units []Unit) goast.Decl {
	specs := []goast.Spec{
		&goast.ImportSpec{Path: &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(policyImport)}},
	}
	for _, u := range units {
		if u.Gen.Options.TypeArg {
			specs = append(specs, &goast.ImportSpec{
				Path: &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(typeexprImport)},
			})
			break
		}
	}
	return &goast.GenDecl{Tok: token.IMPORT, Specs: specs}
}

func emitUnit(u Unit) []goast.Decl {
	gen := u.Gen
	instType := instanceType(u.Parsed.TypeSpec)
	recvType := instType
	if gen.Record.Mutable {
		recvType = "*" + instType
	}

	decls := []goast.Decl{
		structDecl(u),
		derivedVar(gen),
	}
	if !gen.Record.HasConstructor() {
		decls = append(decls, constructorDecl(u, instType))
	}
	decls = append(decls,
		hashMethod(gen, recvType),
		equalsMethod(gen, recvType),
		isEqualMethod(gen, recvType),
		derivedFieldsMethod(gen, recvType),
	)
	return decls
}

// instanceType is the record name applied to its own type parameters, as it
// appears in receivers and results ("Box[T]" for "type Box[T any]").
func instanceType(ts *goast.TypeSpec) string {
	if ts.TypeParams == nil {
		return ts.Name.Name
	}
	var params []string
	for _, p := range ts.TypeParams.List {
		for _, n := range p.Names {
			params = append(params, n.Name)
		}
	}
	return ts.Name.Name + "[" + strings.Join(params, ", ") + "]"
}

func typeParamFields(ts *goast.TypeSpec) *goast.FieldList {
	if ts.TypeParams == nil {
		return nil
	}
	out := &goast.FieldList{}
	for _, p := range ts.TypeParams.List {
		names := make([]*goast.Ident, len(p.Names))
		for i, n := range p.Names {
			names[i] = goast.NewIdent(n.Name)
		}
		out.List = append(out.List, &goast.Field{
			Names: names,
			Type:  goast.NewIdent(gotypes.ExprString(p.Type)),
		})
	}
	return out
}

// structDecl re-emits the record declaration, appending the hidden cache
// field when caching is enabled.
func structDecl(u Unit) goast.Decl {
	var fields []*goast.Field
	for _, f := range u.Parsed.Struct.Fields.List {
		names := make([]*goast.Ident, len(f.Names))
		for i, n := range f.Names {
			names[i] = goast.NewIdent(n.Name)
		}
		out := &goast.Field{
			Names: names,
			Type:  goast.NewIdent(gotypes.ExprString(f.Type)),
		}
		if f.Tag != nil {
			out.Tag = &goast.BasicLit{Kind: token.STRING, Value: f.Tag.Value}
		}
		fields = append(fields, out)
	}
	if u.Gen.CacheField != "" {
		fields = append(fields, &goast.Field{
			Names: []*goast.Ident{goast.NewIdent(u.Gen.CacheField)},
			Type:  goast.NewIdent("uint64"),
		})
	}
	return &goast.GenDecl{
		Tok: token.TYPE,
		Specs: []goast.Spec{&goast.TypeSpec{
			Name:       goast.NewIdent(u.Gen.Record.Name),
			TypeParams: typeParamFields(u.Parsed.TypeSpec),
			Type:       &goast.StructType{Fields: &goast.FieldList{List: fields}},
		}},
	}
}

func derivedVarName(record string) string {
	return "_" + record + "Derived"
}

func derivedVar(gen *Generated) goast.Decl {
	b := &strings.Builder{}
	fmt.Fprintf(b, "policy.Derived{TypeName: %q", gen.Record.Name)
	if gen.Options.TypeArg {
		fmt.Fprintf(b, ", Type: %s", typeExprSrc(gen.Type.Derived().Type))
	}
	if seed := gen.Options.TypeSeed; seed != nil {
		if seed.Const != nil {
			fmt.Fprintf(b, ", Seed: policy.Uint64(%#x)", *seed.Const)
		} else {
			fmt.Fprintf(b, ", SeedFn: %s", seed.FnName)
		}
	}
	if gen.Options.HashFn != "" {
		fmt.Fprintf(b, ", Hash: %s", gen.Options.HashFn)
	}
	if gen.Options.Compat {
		b.WriteString(", Compat: true")
	}
	b.WriteString("}")

	return &goast.GenDecl{
		Tok: token.VAR,
		Specs: []goast.Spec{&goast.ValueSpec{
			Names:  []*goast.Ident{goast.NewIdent(derivedVarName(gen.Record.Name))},
			Values: []goast.Expr{goast.NewIdent(b.String())},
		}},
	}
}

// typeExprSrc renders a type expression as the Go source that rebuilds it.
func typeExprSrc(t typeexpr.TypeExpr) string {
	switch t := t.(type) {
	case typeexpr.Named:
		b := &strings.Builder{}
		b.WriteString("typeexpr.Named{")
		if len(t.Qualifier) > 0 {
			fmt.Fprintf(b, "Qualifier: %#v, ", t.Qualifier)
		}
		fmt.Fprintf(b, "Name: %q", t.Name)
		if len(t.Args) > 0 {
			b.WriteString(", Args: []typeexpr.TypeExpr{")
			for i, arg := range t.Args {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(typeExprSrc(arg))
			}
			b.WriteString("}")
		}
		b.WriteString("}")
		return b.String()
	case *typeexpr.Var:
		b := &strings.Builder{}
		fmt.Fprintf(b, "&typeexpr.Var{Name: %q", t.Name)
		if t.Lower != nil {
			fmt.Fprintf(b, ", Lower: %s", typeExprSrc(t.Lower))
		}
		if t.Upper != nil {
			fmt.Fprintf(b, ", Upper: %s", typeExprSrc(t.Upper))
		}
		b.WriteString("}")
		return b.String()
	case typeexpr.Forall:
		return fmt.Sprintf("typeexpr.Forall{Bound: %s, Body: %s}", typeExprSrc(t.Bound), typeExprSrc(t.Body))
	case typeexpr.Union:
		members := t.Members()
		parts := make([]string, len(members))
		for i, m := range members {
			parts[i] = typeExprSrc(m)
		}
		return fmt.Sprintf("typeexpr.NewUnion(%s)", strings.Join(parts, ", "))
	case typeexpr.Bottom:
		return "typeexpr.Bottom{}"
	case typeexpr.Vararg:
		b := &strings.Builder{}
		b.WriteString("typeexpr.Vararg{")
		if t.Elem != nil {
			fmt.Fprintf(b, "Elem: %s", typeExprSrc(t.Elem))
		}
		if t.Count != nil {
			if t.Elem != nil {
				b.WriteString(", ")
			}
			fmt.Fprintf(b, "Count: %s", typeExprSrc(t.Count))
		}
		b.WriteString("}")
		return b.String()
	case typeexpr.Opaque:
		return fmt.Sprintf("typeexpr.Opaque{Value: %#v}", t.Value)
	default:
		return "typeexpr.Bottom{}"
	}
}

func sel(x goast.Expr, name string) goast.Expr {
	return &goast.SelectorExpr{X: x, Sel: goast.NewIdent(name)}
}

func call(fun goast.Expr, args ...goast.Expr) goast.Expr {
	return &goast.CallExpr{Fun: fun, Args: args}
}

func fieldSelectors(recv string, names []string) []goast.Expr {
	out := make([]goast.Expr, len(names))
	for i, name := range names {
		out[i] = sel(goast.NewIdent(recv), name)
	}
	return out
}

func anySliceLit(recv string, names []string) goast.Expr {
	return &goast.CompositeLit{
		Type: goast.NewIdent("[]any"),
		Elts: fieldSelectors(recv, names),
	}
}

func method(recvName, recvType, name string, params, results []*goast.Field, body ...goast.Stmt) *goast.FuncDecl {
	return &goast.FuncDecl{
		Recv: &goast.FieldList{List: []*goast.Field{{
			Names: []*goast.Ident{goast.NewIdent(recvName)},
			Type:  goast.NewIdent(recvType),
		}}},
		Name: goast.NewIdent(name),
		Type: &goast.FuncType{
			Params:  &goast.FieldList{List: params},
			Results: &goast.FieldList{List: results},
		},
		Body: &goast.BlockStmt{List: body},
	}
}

func param(name, typ string) *goast.Field {
	return &goast.Field{Names: []*goast.Ident{goast.NewIdent(name)}, Type: goast.NewIdent(typ)}
}

func result(typ string) *goast.Field {
	return &goast.Field{Type: goast.NewIdent(typ)}
}

func returnStmt(e goast.Expr) goast.Stmt {
	return &goast.ReturnStmt{Results: []goast.Expr{e}}
}

func hashMethod(gen *Generated, recvType string) goast.Decl {
	derived := goast.NewIdent(derivedVarName(gen.Record.Name))
	var body goast.Stmt
	if gen.CacheField != "" {
		body = returnStmt(call(sel(derived, "CachedHash"),
			goast.NewIdent("h"),
			sel(goast.NewIdent("x"), gen.CacheField),
		))
	} else {
		args := append([]goast.Expr{goast.NewIdent("h")}, fieldSelectors("x", gen.Selection)...)
		body = returnStmt(call(sel(derived, "HashFields"), args...))
	}
	return method("x", recvType, "HashValue",
		[]*goast.Field{param("h", "uint64")},
		[]*goast.Field{result("uint64")},
		body,
	)
}

func equalsMethod(gen *Generated, recvType string) goast.Decl {
	derived := goast.NewIdent(derivedVarName(gen.Record.Name))
	return method("x", recvType, "Equals",
		[]*goast.Field{param("o", recvType)},
		[]*goast.Field{result("policy.Tribool")},
		returnStmt(call(sel(derived, "EqualFields"),
			anySliceLit("x", gen.Selection),
			anySliceLit("o", gen.Selection),
		)),
	)
}

func isEqualMethod(gen *Generated, recvType string) goast.Decl {
	derived := goast.NewIdent(derivedVarName(gen.Record.Name))
	var body []goast.Stmt
	if gen.Record.Mutable {
		// identity is a fast accept on the mutable kind
		body = append(body, &goast.IfStmt{
			Cond: &goast.BinaryExpr{X: goast.NewIdent("x"), Op: token.EQL, Y: goast.NewIdent("o")},
			Body: &goast.BlockStmt{List: []goast.Stmt{returnStmt(goast.NewIdent("true"))}},
		})
	}
	if gen.CacheField != "" {
		// cached hash mismatch is a fast reject
		body = append(body, &goast.IfStmt{
			Cond: &goast.BinaryExpr{
				X:  sel(goast.NewIdent("x"), gen.CacheField),
				Op: token.NEQ,
				Y:  sel(goast.NewIdent("o"), gen.CacheField),
			},
			Body: &goast.BlockStmt{List: []goast.Stmt{returnStmt(goast.NewIdent("false"))}},
		})
	}
	body = append(body, returnStmt(call(sel(derived, "TotalEqualFields"),
		anySliceLit("x", gen.Selection),
		anySliceLit("o", gen.Selection),
	)))
	return method("x", recvType, "IsEqualTo",
		[]*goast.Field{param("o", recvType)},
		[]*goast.Field{result("bool")},
		body...,
	)
}

// derivedFieldsMethod is the destructuring interoperability hook: the field
// list a pattern-matching consumer sees, narrowed to the selection.
func derivedFieldsMethod(gen *Generated, recvType string) goast.Decl {
	elts := make([]goast.Expr, len(gen.Selection))
	for i, name := range gen.Selection {
		elts[i] = &goast.BasicLit{Kind: token.STRING, Value: strconv.Quote(name)}
	}
	return method("x", recvType, "DerivedFields",
		nil,
		[]*goast.Field{result("[]string")},
		returnStmt(&goast.CompositeLit{Type: goast.NewIdent("[]string"), Elts: elts}),
	)
}

func constructorDecl(u Unit, instType string) goast.Decl {
	gen := u.Gen
	rec := gen.Record

	params := make([]*goast.Field, len(rec.Fields))
	elts := make([]goast.Expr, len(rec.Fields))
	for i, f := range rec.Fields {
		fieldType := "any"
		if srcField := structFieldType(u.Parsed.Struct, f.Name); srcField != "" {
			fieldType = srcField
		}
		params[i] = param(paramName(f.Name), fieldType)
		elts[i] = &goast.KeyValueExpr{
			Key:   goast.NewIdent(f.Name),
			Value: goast.NewIdent(paramName(f.Name)),
		}
	}

	body := []goast.Stmt{
		&goast.AssignStmt{
			Lhs: []goast.Expr{goast.NewIdent("out")},
			Tok: token.DEFINE,
			Rhs: []goast.Expr{&goast.CompositeLit{Type: goast.NewIdent(instType), Elts: elts}},
		},
	}
	if gen.CacheField != "" {
		derived := goast.NewIdent(derivedVarName(rec.Name))
		args := append(
			[]goast.Expr{&goast.BasicLit{Kind: token.INT, Value: "0"}},
			fieldSelectors("out", gen.Selection)...,
		)
		body = append(body, &goast.AssignStmt{
			Lhs: []goast.Expr{sel(goast.NewIdent("out"), gen.CacheField)},
			Tok: token.ASSIGN,
			Rhs: []goast.Expr{call(sel(derived, "HashFields"), args...)},
		})
	}
	resultType := instType
	if rec.Mutable {
		resultType = "*" + instType
		body = append(body, returnStmt(&goast.UnaryExpr{Op: token.AND, X: goast.NewIdent("out")}))
	} else {
		body = append(body, returnStmt(goast.NewIdent("out")))
	}

	return &goast.FuncDecl{
		Name: goast.NewIdent("New" + rec.Name),
		Type: &goast.FuncType{
			TypeParams: typeParamFields(u.Parsed.TypeSpec),
			Params:     &goast.FieldList{List: params},
			Results:    &goast.FieldList{List: []*goast.Field{result(resultType)}},
		},
		Body: &goast.BlockStmt{List: body},
	}
}

func structFieldType(st *goast.StructType, name string) string {
	for _, f := range st.Fields.List {
		for _, n := range f.Names {
			if n.Name == name {
				return gotypes.ExprString(f.Type)
			}
		}
		if len(f.Names) == 0 && embeddedMatches(f.Type, name) {
			return gotypes.ExprString(f.Type)
		}
	}
	return ""
}

func embeddedMatches(e goast.Expr, name string) bool {
	switch e := e.(type) {
	case *goast.Ident:
		return e.Name == name
	case *goast.StarExpr:
		return embeddedMatches(e.X, name)
	case *goast.SelectorExpr:
		return e.Sel.Name == name
	default:
		return false
	}
}

func paramName(field string) string {
	lower := strings.ToLower(field[:1]) + field[1:]
	if token.IsKeyword(lower) || lower == field {
		return lower + "_"
	}
	return lower
}
