// Package loader reads record declarations out of Go source. A struct type
// annotated with a //deriveq:derive directive becomes a decl.Record, with
// its field annotations converted to type expressions and its source ranges
// preserved for error reporting.
package loader

import (
	goast "go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/internal/log"
	"github.com/deriveq/deriveq/qerr"
	"github.com/deriveq/deriveq/util"
)

const directivePrefix = "deriveq:derive"

var logger = log.DefaultLogger.With("section", "loader")

// Parsed is one annotated declaration plus the syntax needed to re-emit it.
type Parsed struct {
	Record decl.Record
	// Raw holds the directive options, unvalidated.
	Raw []decl.RawOption

	// Original syntax, kept for the rewriter's re-emission pass.
	TypeSpec *goast.TypeSpec
	Struct   *goast.StructType
}

// File is the result of loading one source file.
type File struct {
	Path    string
	PkgName string
	Records []Parsed
}

// LoadFile parses a prototype file and extracts every annotated record
// declaration. Positions resolve through fset.
func LoadFile(fset *token.FileSet, path string) (*File, *qerr.Errors) {
	parsed, err := parser.ParseFile(fset, path, nil, parser.ParseComments)
	if err != nil {
		return nil, (&qerr.Errors{}).With(qerr.New(qerr.NewLoad{
			Positioner: decl.Range{},
			Path:       path,
			From:       err,
		}))
	}
	return loadAST(path, parsed)
}

// ParseSource is LoadFile over in-memory source.
func ParseSource(fset *token.FileSet, filename string, src string) (*File, *qerr.Errors) {
	parsed, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return nil, (&qerr.Errors{}).With(qerr.New(qerr.NewLoad{
			Positioner: decl.Range{},
			Path:       filename,
			From:       err,
		}))
	}
	return loadAST(filename, parsed)
}

func loadAST(path string, file *goast.File) (*File, *qerr.Errors) {
	var errs *qerr.Errors
	out := &File{Path: path, PkgName: file.Name.Name}

	constructors := util.NewEmptySet[string]()
	for _, d := range file.Decls {
		if fn, ok := d.(*goast.FuncDecl); ok && fn.Recv == nil && strings.HasPrefix(fn.Name.Name, "New") {
			constructors.Add(fn.Name.Name)
		}
	}

	for _, d := range file.Decls {
		gd, ok := d.(*goast.GenDecl)
		if !ok || gd.Tok != token.TYPE {
			continue
		}
		for _, spec := range gd.Specs {
			ts, ok := spec.(*goast.TypeSpec)
			if !ok {
				continue
			}
			doc := ts.Doc
			if doc == nil && len(gd.Specs) == 1 {
				doc = gd.Doc
			}
			raw, found := directiveOptions(doc)
			if !found {
				continue
			}
			st, ok := ts.Type.(*goast.StructType)
			if !ok {
				errs = errs.With(qerr.New(qerr.NewNotARecord{
					Positioner: decl.Range{PosStart: ts.Pos(), PosEnd: ts.End()},
					Name:       ts.Name.Name,
					Kind:       "a non-struct type",
				}))
				continue
			}
			rec := recordFrom(ts, st)
			if constructors.Contains("New" + rec.Name) {
				rec.ConstructorName = "New" + rec.Name
			}
			logger.Debug("loaded record declaration",
				slog.String("record", rec.Name),
				slog.Int("fields", len(rec.Fields)),
			)
			out.Records = append(out.Records, Parsed{
				Record:   rec,
				Raw:      raw,
				TypeSpec: ts,
				Struct:   st,
			})
		}
	}
	return out, errs
}

func directiveOptions(doc *goast.CommentGroup) ([]decl.RawOption, bool) {
	if doc == nil {
		return nil, false
	}
	for _, c := range doc.List {
		text, ok := strings.CutPrefix(c.Text, "//"+directivePrefix)
		if !ok {
			continue
		}
		rng := decl.Range{PosStart: c.Pos(), PosEnd: c.End()}
		var raws []decl.RawOption
		for _, word := range strings.Fields(text) {
			key, val, hasVal := strings.Cut(word, "=")
			raws = append(raws, decl.RawOption{Range: rng, Key: key, Value: val, HasValue: hasVal})
		}
		return raws, true
	}
	return nil, false
}

func recordFrom(ts *goast.TypeSpec, st *goast.StructType) decl.Record {
	rec := decl.Record{
		Range: decl.Range{PosStart: ts.Pos(), PosEnd: ts.End()},
		Name:  ts.Name.Name,
	}
	if ts.TypeParams != nil {
		for _, p := range ts.TypeParams.List {
			bound := typeFromGoExpr(p.Type)
			for _, name := range p.Names {
				rec.TypeParams = append(rec.TypeParams, decl.TypeParam{
					Range: decl.Range{PosStart: name.Pos(), PosEnd: p.End()},
					Name:  name.Name,
					Bound: bound,
				})
			}
		}
	}
	for _, f := range st.Fields.List {
		fieldType := typeFromGoExpr(f.Type)
		if len(f.Names) == 0 {
			// embedded field: its name is the bare type name
			rec.Fields = append(rec.Fields, decl.Field{
				Range: decl.Range{PosStart: f.Pos(), PosEnd: f.End()},
				Name:  embeddedName(f.Type),
				Type:  fieldType,
			})
			continue
		}
		for _, name := range f.Names {
			rec.Fields = append(rec.Fields, decl.Field{
				Range: decl.Range{PosStart: name.Pos(), PosEnd: f.End()},
				Name:  name.Name,
				Type:  fieldType,
			})
		}
	}
	return rec
}

func embeddedName(e goast.Expr) string {
	switch e := e.(type) {
	case *goast.Ident:
		return e.Name
	case *goast.StarExpr:
		return embeddedName(e.X)
	case *goast.SelectorExpr:
		return e.Sel.Name
	case *goast.IndexExpr:
		return embeddedName(e.X)
	case *goast.IndexListExpr:
		return embeddedName(e.X)
	default:
		return ""
	}
}
