package policy

import (
	"github.com/deriveq/deriveq/typeexpr"
)

// Derived is the hash/equality policy of one processed record declaration.
// Generated code keeps one package-level Derived per record and delegates
// its methods to it; the runtime provider embeds it in a RecordType.
//
// The zero value of everything but TypeName gives the defaults: host hash,
// type identity from the bare type name, three-valued partial equality.
type Derived struct {
	TypeName string

	// Type, when non-nil, is the fully-parameterized type whose seed
	// becomes the type-identity contribution, making type arguments
	// significant to hash and equality.
	Type typeexpr.TypeExpr

	// Seed and SeedFn override the type-identity contribution with a fixed
	// constant or a caller-supplied function. SeedFn wins over Seed, which
	// wins over Type.
	Seed   *uint64
	SeedFn func(h uint64) uint64

	// Hash replaces DefaultHash for field values and the type-name seed.
	Hash HashFunc

	// Compat makes partial equality delegate to total equality, so it is
	// boolean and never Unknown.
	Compat bool
}

func (d *Derived) hash(v any, h uint64) uint64 {
	if d.Hash != nil {
		return d.Hash(v, h)
	}
	return DefaultHash(v, h)
}

// SeedContribution mixes the type-identity seed into the incoming
// accumulator.
func (d *Derived) SeedContribution(h uint64) uint64 {
	switch {
	case d.SeedFn != nil:
		return d.SeedFn(h)
	case d.Seed != nil:
		return typeexpr.Mix(h, *d.Seed)
	case d.Type != nil:
		return typeexpr.Seed(d.Type, h)
	default:
		return d.hash(d.TypeName, h)
	}
}

// HashFields combines the type-identity seed with the hashes of the selected
// field values, in selection order.
func (d *Derived) HashFields(h uint64, vals ...any) uint64 {
	h = d.SeedContribution(h)
	for _, v := range vals {
		h = d.hash(v, h)
	}
	return h
}

// CachedHash folds a precomputed hash into the incoming accumulator. An
// accumulator of 0 is the top-level call, which reads the cache directly so
// that caching stays observationally transparent.
func (d *Derived) CachedHash(h, cached uint64) uint64 {
	if h == 0 {
		return cached
	}
	return typeexpr.Mix(h, cached)
}

// EqualFields applies the tuple-equality combining law to the selected field
// pairs: any False short-circuits to False even past an earlier Unknown; an
// Unknown with no False makes the whole result Unknown; True otherwise.
func (d *Derived) EqualFields(a, b []any) Tribool {
	if d.Compat {
		return FromBool(d.TotalEqualFields(a, b))
	}
	if len(a) != len(b) {
		return False
	}
	unknown := false
	for i := range a {
		switch PartialEqual(a[i], b[i]) {
		case False:
			return False
		case Unknown:
			unknown = true
		}
	}
	if unknown {
		return Unknown
	}
	return True
}

// TotalEqualFields ANDs the total equality of each selected field pair,
// short-circuiting on the first mismatch.
func (d *Derived) TotalEqualFields(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !TotalEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}

// Uint64 is a helper for generated code populating Derived.Seed.
func Uint64(v uint64) *uint64 { return &v }
