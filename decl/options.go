package decl

import (
	"go/token"
	"strconv"
	"strings"

	"github.com/deriveq/deriveq/qerr"
)

// RawOption is a single key/value pair as written at the declaration site,
// before any validation. A bare key (no '=') has an empty Value.
type RawOption struct {
	Range
	Key   string
	Value string
	// HasValue distinguishes `cache` from `cache=`.
	HasValue bool
}

// TypeSeed overrides the type-identity contribution to generated hashes:
// either a fixed constant or the name of a seed function taking and
// returning the running accumulator.
type TypeSeed struct {
	Const  *uint64
	FnName string
}

// Options is the validated declaration-time configuration surface.
type Options struct {
	Range

	// Cache precomputes the hash at construction and stores it in a hidden
	// field. Requires an immutable record with no user constructor.
	Cache bool
	// HashFn names an alternate two-argument hash function to use instead
	// of the host default. Empty means the default.
	HashFn string
	// Fields restricts which declared fields participate in hashing and
	// equality, in the given order. Nil means all declared fields.
	Fields []string
	// TypeArg makes the record's type parameterization significant to both
	// hash and equality.
	TypeArg bool
	// TypeSeed overrides the type-identity hash contribution.
	TypeSeed *TypeSeed
	// Compat makes partial equality delegate to total equality, so it never
	// reports unknown. Explicit opt-in only.
	Compat bool
	// Mutable marks the declaration as a reference/mutable-identity kind.
	Mutable bool
}

// ParseOptions validates raw key/value pairs into Options. Later occurrences
// of a key override earlier ones, which is how file-level configuration is
// layered under declaration-site directives.
//
// Any error means the whole declaration must be rejected; the returned
// Options are only meaningful when the errors are empty.
func ParseOptions(raw []RawOption) (Options, *qerr.Errors) {
	var opts Options
	var errs *qerr.Errors
	if len(raw) > 0 {
		opts.Range = Range{raw[0].Pos(), raw[len(raw)-1].End()}
	}
	for _, r := range raw {
		switch r.Key {
		case "cache":
			opts.Cache = parseBoolOption(r, &errs)
		case "typearg":
			opts.TypeArg = parseBoolOption(r, &errs)
		case "compat1":
			opts.Compat = parseBoolOption(r, &errs)
		case "mutable":
			opts.Mutable = parseBoolOption(r, &errs)
		case "hashfn":
			if !isQualifiedIdent(r.Value) {
				errs = errs.With(qerr.New(qerr.NewBadOptionValue{
					Positioner: r, Key: r.Key, Value: r.Value, Want: "a function name",
				}))
				continue
			}
			opts.HashFn = r.Value
		case "fields":
			names, ok := parseFieldList(r, &errs)
			if ok {
				opts.Fields = names
			}
		case "typeseed":
			seed, ok := parseTypeSeed(r, &errs)
			if ok {
				opts.TypeSeed = &seed
			}
		default:
			errs = errs.With(qerr.New(qerr.NewUnknownOption{Positioner: r, Key: r.Key}))
		}
	}
	return opts, errs
}

func parseBoolOption(r RawOption, errs **qerr.Errors) bool {
	if !r.HasValue {
		// a bare flag means true
		return true
	}
	v, err := strconv.ParseBool(r.Value)
	if err != nil {
		*errs = (*errs).With(qerr.New(qerr.NewBadOptionValue{
			Positioner: r, Key: r.Key, Value: r.Value, Want: "a boolean",
		}))
		return false
	}
	return v
}

func parseFieldList(r RawOption, errs **qerr.Errors) ([]string, bool) {
	if strings.TrimSpace(r.Value) == "" {
		*errs = (*errs).With(qerr.New(qerr.NewBadOptionValue{
			Positioner: r, Key: r.Key, Value: r.Value, Want: "a comma-separated list of field names",
		}))
		return nil, false
	}
	parts := strings.Split(r.Value, ",")
	names := make([]string, 0, len(parts))
	ok := true
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if !token.IsIdentifier(name) {
			*errs = (*errs).With(qerr.New(qerr.NewFieldNotIdentifier{Positioner: r, Value: name}))
			ok = false
			continue
		}
		names = append(names, name)
	}
	return names, ok
}

func parseTypeSeed(r RawOption, errs **qerr.Errors) (TypeSeed, bool) {
	if c, err := strconv.ParseUint(r.Value, 0, 64); err == nil {
		return TypeSeed{Const: &c}, true
	}
	if isQualifiedIdent(r.Value) {
		return TypeSeed{FnName: r.Value}, true
	}
	*errs = (*errs).With(qerr.New(qerr.NewBadOptionValue{
		Positioner: r, Key: r.Key, Value: r.Value, Want: "an unsigned integer constant or a function name",
	}))
	return TypeSeed{}, false
}

func isQualifiedIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if !token.IsIdentifier(part) {
			return false
		}
	}
	return true
}
