package policy

import (
	"reflect"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"
)

// instanceTag marks an encoded record instance on the wire, so nested
// instances survive a round trip through field values. Fixed forever, like
// the seed constants.
const instanceTag = 27741

type wireInstance struct {
	Name   string `cbor:"1,keyasint"`
	Fields []any  `cbor:"2,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	tags := cbor.NewTagSet()
	err := tags.Add(
		cbor.TagOptions{EncTag: cbor.EncTagRequired, DecTag: cbor.DecTagRequired},
		reflect.TypeOf(wireInstance{}),
		instanceTag,
	)
	if err != nil {
		panic(err)
	}
	encMode, err = cbor.EncOptions{Sort: cbor.SortCanonical}.EncModeWithTags(tags)
	if err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{}.DecModeWithTags(tags)
	if err != nil {
		panic(err)
	}
}

// Encode serializes an instance, including all declared fields (missing
// values encode as null) but not the hidden cache field, which is derived
// state and recomputed on decode.
func Encode(i *Instance) ([]byte, error) {
	out, err := encMode.Marshal(toWire(i))
	return out, errors.Wrap(err, "encoding record instance")
}

func toWire(i *Instance) wireInstance {
	fields := make([]any, len(i.fields))
	for j, v := range i.fields {
		fields[j] = wireValue(v)
	}
	return wireInstance{Name: i.typ.rec.Name, Fields: fields}
}

func wireValue(v any) any {
	switch v := v.(type) {
	case missing:
		return nil
	case *Instance:
		return toWire(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = wireValue(elem)
		}
		return out
	default:
		return v
	}
}

// Registry resolves record type names while decoding.
type Registry struct {
	types map[string]*RecordType
}

func NewRegistry(types ...*RecordType) *Registry {
	r := &Registry{types: make(map[string]*RecordType, len(types))}
	for _, t := range types {
		r.Add(t)
	}
	return r
}

func (r *Registry) Add(t *RecordType) {
	r.types[t.rec.Name] = t
}

// Names lists the registered record names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Decode reconstructs an instance through each record's own constructor, so
// normalization and the cache field come back exactly as at first
// construction and the result compares equal to the original.
func (r *Registry) Decode(data []byte) (*Instance, error) {
	var wi wireInstance
	if err := decMode.Unmarshal(data, &wi); err != nil {
		return nil, errors.Wrap(err, "decoding record instance")
	}
	return r.fromWire(wi)
}

func (r *Registry) fromWire(wi wireInstance) (*Instance, error) {
	rt, ok := r.types[wi.Name]
	if !ok {
		return nil, errors.Errorf("decoding instance of unregistered record '%s'", wi.Name)
	}
	vals := make([]any, len(wi.Fields))
	for i, v := range wi.Fields {
		decoded, err := r.valueFromWire(v)
		if err != nil {
			return nil, err
		}
		vals[i] = decoded
	}
	return rt.New(vals...)
}

func (r *Registry) valueFromWire(v any) (any, error) {
	switch v := v.(type) {
	case nil:
		return Missing, nil
	case wireInstance:
		return r.fromWire(v)
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			decoded, err := r.valueFromWire(elem)
			if err != nil {
				return nil, err
			}
			out[i] = decoded
		}
		return out, nil
	default:
		return v, nil
	}
}
