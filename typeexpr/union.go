package typeexpr

import (
	"cmp"

	"github.com/hashicorp/go-set/v3"
)

func compareBySeed(a, b TypeExpr) int {
	return cmp.Compare(SeedOf(a), SeedOf(b))
}

// NewUnion builds the union of the given alternatives. Nested unions are
// flattened, Bottom members are dropped, and the result is canonicalized:
// members are ordered by seed and structural duplicates are removed.
//
// A union of zero alternatives is Bottom, and a union of one alternative is
// that alternative itself.
func NewUnion(members ...TypeExpr) TypeExpr {
	ordered := set.NewTreeSet[TypeExpr](compareBySeed)
	var add func(t TypeExpr)
	add = func(t TypeExpr) {
		switch t := t.(type) {
		case nil:
		case Bottom:
		case Union:
			for _, member := range t.members {
				add(member)
			}
		default:
			ordered.Insert(t)
		}
	}
	for _, member := range members {
		add(member)
	}

	flat := ordered.Slice()
	switch len(flat) {
	case 0:
		return Bottom{}
	case 1:
		return flat[0]
	}
	return Union{members: flat}
}
