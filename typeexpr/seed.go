package typeexpr

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// Every shape mixes its own distinguishing constant into the accumulator
// before recursing, so different shapes with coincidentally equal sub-seeds
// cannot collide. These constants are fixed forever: changing any one of
// them silently invalidates every persisted seed.
const (
	seedPrime uint64 = 1099511628211 // FNV-1a 64-bit prime

	tagNamed  uint64 = 0x9e3779b97f4a7c15
	tagForall uint64 = 0xc2b2ae3d27d4eb4f
	tagUnion  uint64 = 0x165667b19e3779f9
	tagVar    uint64 = 0x27d4eb2f165667c5
	tagBottom uint64 = 0x85ebca6b9e3779b1
	tagVararg uint64 = 0xd6e8feb86659fd93

	// The tuple and vararg meta-types get hard-coded seeds instead of being
	// decomposed, so they stay stable even if Named gains structure later.
	seedTupleMeta  uint64 = 0xa0761d6478bd642f
	seedVarargMeta uint64 = 0xe7037ed1a0b428db
)

// Mix folds x into the running accumulator h.
func Mix(h, x uint64) uint64 {
	return (h ^ x) * seedPrime
}

// HashString is the stable hash used for type and namespace names.
func HashString(s string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(s))
	return h.Sum64()
}

// HashBits hashes a raw 64-bit value through FNV-1a rather than using it
// directly, decoupling seeds from the value's bit representation.
func HashBits(x uint64) uint64 {
	h := fnv.New64a()
	arr := binary.LittleEndian.AppendUint64(nil, x)
	_, _ = h.Write(arr)
	return h.Sum64()
}

// Seed folds t into accumulator h. Nil folds like Bottom.
func Seed(t TypeExpr, h uint64) uint64 {
	if t == nil {
		return Bottom{}.Seed(h)
	}
	return t.Seed(h)
}

// SeedOf is the top-level entry point, seeding with an empty accumulator.
func SeedOf(t TypeExpr) uint64 {
	return Seed(t, 0)
}

func (t Named) Seed(h uint64) uint64 {
	if meta, ok := metaSeed(t); ok {
		return Mix(h, meta)
	}
	h = Mix(h, tagNamed)
	if len(t.Qualifier) > 0 && !rootNamespaces.Contains(t.Qualifier[0]) {
		// qualifier levels fold outermost-to-innermost into a side
		// accumulator, which then contributes as a single value
		side := uint64(0)
		for _, q := range t.Qualifier {
			side = Mix(side, HashString(q))
		}
		h = Mix(h, side)
	}
	h = Mix(h, HashString(t.Name))
	if len(t.Args) > 0 {
		side := uint64(0)
		for _, arg := range t.Args {
			side = arg.Seed(side)
		}
		h = Mix(h, side)
	}
	return h
}

func metaSeed(t Named) (uint64, bool) {
	if len(t.Args) > 0 {
		return 0, false
	}
	if len(t.Qualifier) > 0 && !rootNamespaces.Contains(t.Qualifier[0]) {
		return 0, false
	}
	switch t.Name {
	case tupleMetaName:
		return seedTupleMeta, true
	case varargMetaName:
		return seedVarargMeta, true
	}
	return 0, false
}

func (t *Var) Seed(h uint64) uint64 {
	h = Mix(h, tagVar)
	h = Mix(h, HashString(t.Name))
	h = t.lower().Seed(h)
	h = t.upper().Seed(h)
	return h
}

func (t Union) Seed(h uint64) uint64 {
	h = Mix(h, tagUnion)
	for _, member := range t.members {
		h = member.Seed(h)
	}
	return h
}

func (t Forall) Seed(h uint64) uint64 {
	h = Mix(h, tagForall)
	h = t.Bound.Seed(h)
	h = t.Body.Seed(h)
	return h
}

func (Bottom) Seed(h uint64) uint64 {
	return Mix(h, tagBottom)
}

func (t Vararg) Seed(h uint64) uint64 {
	h = Mix(h, tagVararg)
	if t.Elem != nil {
		h = t.Elem.Seed(h)
	}
	if t.Count != nil {
		h = t.Count.Seed(h)
	}
	return h
}

// Seed for Opaque double-hashes the embedded value: the direct hash of the
// value's representation may not be stable across versions, so it enters
// the accumulator through HashBits.
func (t Opaque) Seed(h uint64) uint64 {
	return Mix(h, HashBits(hashValue(t.Value)))
}

func hashValue(v any) uint64 {
	switch v := v.(type) {
	case nil:
		return tagBottom
	case bool:
		if v {
			return 1
		}
		return 0
	case string:
		return HashString(v)
	case int:
		return uint64(int64(v))
	case int64:
		return uint64(v)
	case uint64:
		return v
	case float64:
		return math.Float64bits(v)
	default:
		return HashString(fmt.Sprintf("%T:%v", v, v))
	}
}
