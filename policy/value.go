// Package policy implements the hash and equality semantics attached to
// generated records: the combined hash with its type-identity seed, partial
// (three-valued) equality, and total equality where missing values compare
// equal to themselves.
package policy

import (
	"fmt"
	"math"
	"reflect"

	"github.com/deriveq/deriveq/typeexpr"
)

// missing is the null-like value. Comparing it with anything under partial
// equality yields Unknown; under total equality it equals only itself.
type missing struct{}

// Missing is the canonical null-like field value. Untyped nil normalizes to
// it at construction.
var Missing missing

func (missing) String() string { return "missing" }

// IsMissing reports whether v is null-like.
func IsMissing(v any) bool {
	switch v.(type) {
	case nil, missing:
		return true
	}
	return false
}

// HashFunc is the two-argument hash shape used throughout: value and running
// accumulator in, new accumulator out.
type HashFunc func(v any, h uint64) uint64

const (
	seedMissing uint64 = 0x2545f4914f6cdd1d
	seedSlice   uint64 = 0x9e6c63d0876a9a41
	seedTrue    uint64 = 0x589965cc75374cc3
	seedFalse   uint64 = 0x1b03738712fad5c9
)

// Normalize canonicalizes a field value so that values which compare equal
// also hash identically and survive the wire codec unchanged: integer kinds
// collapse to int64 (uint64 when out of range), float32 widens, nil becomes
// Missing, and slices are normalized elementwise.
func Normalize(v any) any {
	switch v := v.(type) {
	case nil:
		return Missing
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return uint64(v)
		}
		return int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return v
		}
		return int64(v)
	case float32:
		return float64(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Normalize(elem)
		}
		return out
	default:
		return v
	}
}

// DefaultHash is the host default hash over arbitrary values: value and
// running accumulator to new accumulator. Values that compare equal under
// TotalEqual hash identically.
func DefaultHash(v any, h uint64) uint64 {
	switch v := Normalize(v).(type) {
	case missing:
		return typeexpr.Mix(h, seedMissing)
	case bool:
		if v {
			return typeexpr.Mix(h, seedTrue)
		}
		return typeexpr.Mix(h, seedFalse)
	case int64:
		return typeexpr.Mix(h, typeexpr.HashBits(uint64(v)))
	case uint64:
		return typeexpr.Mix(h, typeexpr.HashBits(v))
	case float64:
		if v == 0 {
			v = 0 // -0.0 and 0.0 compare equal, so they must hash equal
		}
		return typeexpr.Mix(h, typeexpr.HashBits(math.Float64bits(v)))
	case string:
		return typeexpr.Mix(h, typeexpr.HashString(v))
	case []any:
		h = typeexpr.Mix(h, seedSlice)
		for _, elem := range v {
			h = DefaultHash(elem, h)
		}
		return h
	case *Instance:
		return v.HashValue(h)
	default:
		return typeexpr.Mix(h, typeexpr.HashString(fmt.Sprintf("%T:%v", v, v)))
	}
}

// PartialEqual is the host partial equality over arbitrary values: Unknown
// whenever either side is missing, recursive for record instances, and a
// structural comparison otherwise.
func PartialEqual(a, b any) Tribool {
	a, b = Normalize(a), Normalize(b)
	if IsMissing(a) || IsMissing(b) {
		return Unknown
	}
	ai, aInst := a.(*Instance)
	bi, bInst := b.(*Instance)
	if aInst && bInst {
		return ai.Equals(bi)
	}
	if aInst != bInst {
		return False
	}
	return FromBool(reflect.DeepEqual(a, b))
}

// TotalEqual is the host total equality: missing equals itself, record
// instances recurse, everything else compares structurally.
func TotalEqual(a, b any) bool {
	a, b = Normalize(a), Normalize(b)
	if IsMissing(a) || IsMissing(b) {
		return IsMissing(a) && IsMissing(b)
	}
	ai, aInst := a.(*Instance)
	bi, bInst := b.(*Instance)
	if aInst && bInst {
		return ai.IsEqualTo(bi)
	}
	if aInst != bInst {
		return false
	}
	return reflect.DeepEqual(a, b)
}
