package policy_test

import (
	"testing"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	rt := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	reg := policy.NewRegistry(rt)

	original := mustNew(t, rt, 1, 2)
	data, err := policy.Encode(original)
	require.NoError(t, err)

	decoded, err := reg.Decode(data)
	require.NoError(t, err)
	assert.True(t, original.IsEqualTo(decoded))
	assert.Equal(t, original.Hash(), decoded.Hash())
	assert.Equal(t, policy.True, original.Equals(decoded))
}

func TestCodecEncodingIsDeterministic(t *testing.T) {
	rt := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	a := mustNew(t, rt, 1, 2)
	b := mustNew(t, rt, 1, 2)
	dataA, err := policy.Encode(a)
	require.NoError(t, err)
	dataB, err := policy.Encode(b)
	require.NoError(t, err)
	assert.Equal(t, dataA, dataB)
}

func TestCodecPreservesMissing(t *testing.T) {
	rt := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	reg := policy.NewRegistry(rt)

	original := mustNew(t, rt, 1, policy.Missing)
	data, err := policy.Encode(original)
	require.NoError(t, err)
	decoded, err := reg.Decode(data)
	require.NoError(t, err)

	v, ok := decoded.Field("Y")
	require.True(t, ok)
	assert.True(t, policy.IsMissing(v))
	assert.True(t, original.IsEqualTo(decoded))
	assert.Equal(t, original.Hash(), decoded.Hash())
}

func TestCodecNestedInstances(t *testing.T) {
	inner := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	outerRec := decl.Record{Name: "Segment", Fields: []decl.Field{{Name: "From"}, {Name: "To"}}}
	outer := newType(t, outerRec, policy.Derived{TypeName: "Segment"}, nil, false)
	reg := policy.NewRegistry(inner, outer)

	original := mustNew(t, outer, mustNew(t, inner, 0, 0), mustNew(t, inner, 3, 4))
	data, err := policy.Encode(original)
	require.NoError(t, err)
	decoded, err := reg.Decode(data)
	require.NoError(t, err)

	assert.True(t, original.IsEqualTo(decoded))
	assert.Equal(t, original.Hash(), decoded.Hash())

	from, ok := decoded.Field("From")
	require.True(t, ok)
	fromInst, ok := from.(*policy.Instance)
	require.True(t, ok)
	assert.Equal(t, "Point", fromInst.Type().Name())
}

func TestCodecRecomputesCache(t *testing.T) {
	cached := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, true)
	reg := policy.NewRegistry(cached)

	original := mustNew(t, cached, 1, 2)
	data, err := policy.Encode(original)
	require.NoError(t, err)
	decoded, err := reg.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, original.Hash(), decoded.Hash())
	assert.True(t, original.IsEqualTo(decoded))
}

func TestCodecSliceValues(t *testing.T) {
	rec := decl.Record{Name: "Bag", Fields: []decl.Field{{Name: "Items"}}}
	rt := newType(t, rec, policy.Derived{TypeName: "Bag"}, nil, false)
	reg := policy.NewRegistry(rt)

	original := mustNew(t, rt, []any{1, "two", policy.Missing})
	data, err := policy.Encode(original)
	require.NoError(t, err)
	decoded, err := reg.Decode(data)
	require.NoError(t, err)
	assert.True(t, original.IsEqualTo(decoded))
	assert.Equal(t, original.Hash(), decoded.Hash())
}

func TestDecodeUnregisteredRecordFails(t *testing.T) {
	rt := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	original := mustNew(t, rt, 1, 2)
	data, err := policy.Encode(original)
	require.NoError(t, err)

	_, err = policy.NewRegistry().Decode(data)
	assert.ErrorContains(t, err, "unregistered")
}

func TestRegistryNames(t *testing.T) {
	a := newType(t, pointRecord(), policy.Derived{TypeName: "Point"}, nil, false)
	rec := decl.Record{Name: "Bag", Fields: []decl.Field{{Name: "Items"}}}
	b := newType(t, rec, policy.Derived{TypeName: "Bag"}, nil, false)
	reg := policy.NewRegistry(a, b)
	assert.Equal(t, []string{"Bag", "Point"}, reg.Names())
}
