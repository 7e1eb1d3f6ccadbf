package policy

import (
	"fmt"
	"strings"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/typeexpr"
	"github.com/pkg/errors"
)

// RecordType is the runtime provider for one processed declaration: it owns
// construction of instances and carries the derived hash/equality policy.
type RecordType struct {
	rec            decl.Record
	derived        Derived
	selection      []int
	selectionNames []string
	cache          bool
}

// NewRecordType binds a validated declaration to its policy. The selection
// must already be validated against the declared fields; an unknown name
// here is a bug in the caller, not user error.
func NewRecordType(rec decl.Record, derived Derived, selection []string, cache bool) (*RecordType, error) {
	if selection == nil {
		selection = rec.FieldNames()
	}
	indices := make([]int, len(selection))
	for i, name := range selection {
		indices[i] = -1
		for j, f := range rec.Fields {
			if f.Name == name {
				indices[i] = j
				break
			}
		}
		if indices[i] < 0 {
			return nil, errors.Errorf("selection names '%s', which is not a field of '%s'", name, rec.Name)
		}
	}
	return &RecordType{
		rec:            rec,
		derived:        derived,
		selection:      indices,
		selectionNames: selection,
		cache:          cache,
	}, nil
}

func (rt *RecordType) Name() string        { return rt.rec.Name }
func (rt *RecordType) Record() decl.Record { return rt.rec }
func (rt *RecordType) Derived() *Derived   { return &rt.derived }
func (rt *RecordType) Cached() bool        { return rt.cache }

// DestructurableFields is the interoperability hook for pattern-matching
// consumers: the field list they may destructure, narrowed to the selection.
func (rt *RecordType) DestructurableFields() []string {
	out := make([]string, len(rt.selectionNames))
	copy(out, rt.selectionNames)
	return out
}

// Instantiate applies explicit type arguments to this record type. When type
// arguments are not significant the result behaves identically to the
// receiver; when they are, differently-parameterized instantiations never
// compare equal and derive distinguishable seeds.
func (rt *RecordType) Instantiate(args ...typeexpr.TypeExpr) *RecordType {
	out := *rt
	if rt.derived.Type != nil {
		out.derived.Type = rt.rec.Instantiated(args...)
	}
	return &out
}

func (rt *RecordType) selectedValues(fields []any) []any {
	out := make([]any, len(rt.selection))
	for i, idx := range rt.selection {
		out[i] = fields[idx]
	}
	return out
}

// sameKind reports whether instances of the two record types can compare
// equal at all: same record, and same parameterization when type arguments
// are significant.
func (rt *RecordType) sameKind(other *RecordType) bool {
	if rt.rec.Name != other.rec.Name {
		return false
	}
	if rt.derived.Type == nil && other.derived.Type == nil {
		return true
	}
	return typeexpr.SeedOf(rt.derived.Type) == typeexpr.SeedOf(other.derived.Type)
}

// New constructs an instance, normalizing field values and filling the hash
// cache exactly once when caching is enabled. The cache is never recomputed:
// callers must not mutate an instance whose hash has been used as a key.
func (rt *RecordType) New(vals ...any) (*Instance, error) {
	if len(vals) != len(rt.rec.Fields) {
		return nil, errors.Errorf("record '%s' has %d fields, got %d values", rt.rec.Name, len(rt.rec.Fields), len(vals))
	}
	fields := make([]any, len(vals))
	for i, v := range vals {
		fields[i] = Normalize(v)
	}
	inst := &Instance{typ: rt, fields: fields}
	if rt.cache {
		inst.cache = rt.derived.HashFields(0, rt.selectedValues(fields)...)
	}
	return inst, nil
}

// Instance is a generated-record instance. The cached hash, when present, is
// a hidden extra field written once at construction.
type Instance struct {
	typ    *RecordType
	fields []any
	cache  uint64
}

func (i *Instance) Type() *RecordType { return i.typ }

func (i *Instance) Field(name string) (any, bool) {
	for j, f := range i.typ.rec.Fields {
		if f.Name == name {
			return i.fields[j], true
		}
	}
	return nil, false
}

// SetField mutates a field in place. Only valid on mutable-kind records;
// value-like records are frozen at construction.
func (i *Instance) SetField(name string, v any) error {
	if !i.typ.rec.Mutable {
		return errors.Errorf("record '%s' is not mutable", i.typ.rec.Name)
	}
	for j, f := range i.typ.rec.Fields {
		if f.Name == name {
			i.fields[j] = Normalize(v)
			return nil
		}
	}
	return errors.Errorf("record '%s' has no field '%s'", i.typ.rec.Name, name)
}

// Hash is the top-level hash of the instance.
func (i *Instance) Hash() uint64 { return i.HashValue(0) }

// HashValue folds the instance into a running accumulator. With caching
// enabled this reads the stored value instead of walking fields, which also
// makes hashing cycle-safe; without it, a field cycle recurses unboundedly.
func (i *Instance) HashValue(h uint64) uint64 {
	if i.typ.cache {
		return i.typ.derived.CachedHash(h, i.cache)
	}
	return i.typ.derived.HashFields(h, i.typ.selectedValues(i.fields)...)
}

// Equals is partial equality: the selected fields compare pairwise under
// three-valued semantics and combine under the tuple-equality law.
//
// This walks live field values (never the cache), so it can recurse
// unboundedly on cyclic mutable instances. The cached hash is not used as a
// fast reject here: a hash mismatch cannot tell False from Unknown, and the
// reject must never change the result of the full field walk.
func (i *Instance) Equals(other *Instance) Tribool {
	if other == nil {
		return False
	}
	if !i.typ.sameKind(other.typ) {
		return False
	}
	if i.typ.derived.Compat {
		return FromBool(i.IsEqualTo(other))
	}
	return i.typ.derived.EqualFields(
		i.typ.selectedValues(i.fields),
		other.typ.selectedValues(other.fields),
	)
}

// IsEqualTo is total equality, as used for deduplication and hash-table
// lookups: missing values equal themselves, identity on a mutable kind is a
// fast accept, and a cached-hash mismatch is a fast reject.
func (i *Instance) IsEqualTo(other *Instance) bool {
	if other == nil {
		return false
	}
	if i == other && i.typ.rec.Mutable {
		return true
	}
	if !i.typ.sameKind(other.typ) {
		return false
	}
	if i.typ.cache && other.typ.cache && i.cache != other.cache {
		return false
	}
	return i.typ.derived.TotalEqualFields(
		i.typ.selectedValues(i.fields),
		other.typ.selectedValues(other.fields),
	)
}

// String renders all declared fields, suppressing the hidden cache field and
// short-circuiting self-referential values.
func (i *Instance) String() string {
	return i.render(make(map[*Instance]bool))
}

func (i *Instance) render(seen map[*Instance]bool) string {
	if seen[i] {
		return i.typ.rec.Name + "(...)"
	}
	seen[i] = true
	defer delete(seen, i)

	sb := strings.Builder{}
	sb.WriteString(i.typ.rec.Name)
	sb.WriteString("(")
	for j, f := range i.typ.rec.Fields {
		if j > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(f.Name)
		sb.WriteString("=")
		sb.WriteString(renderValue(i.fields[j], seen))
	}
	sb.WriteString(")")
	return sb.String()
}

// renderValue carries the seen map through containers, so a cycle reached
// via a slice element short-circuits like a direct field cycle.
func renderValue(v any, seen map[*Instance]bool) string {
	switch v := v.(type) {
	case *Instance:
		return v.render(seen)
	case missing:
		return "missing"
	case string:
		return `"` + v + `"`
	case []any:
		sb := strings.Builder{}
		sb.WriteString("[")
		for i, elem := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(renderValue(elem, seen))
		}
		sb.WriteString("]")
		return sb.String()
	default:
		return fmt.Sprint(v)
	}
}
