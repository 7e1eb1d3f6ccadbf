// Package rewrite turns a record declaration plus its configuration into
// the generated artifacts: a runtime record type carrying the derived
// hash/equality policy, and (via emit) the re-emitted augmented declaration
// with its generated procedures.
//
// Processing is all-or-nothing: any validation failure rejects the whole
// declaration and nothing is generated for it.
package rewrite

import (
	"log/slog"

	"github.com/deriveq/deriveq/decl"
	"github.com/deriveq/deriveq/internal/log"
	"github.com/deriveq/deriveq/policy"
	"github.com/deriveq/deriveq/qerr"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "rewrite")

// cacheFieldName is the hidden field injected into cached declarations.
const cacheFieldName = "cachedHash"

// Hooks resolves configuration that names runtime functions. The build-time
// generator leaves this nil and emits the names instead; runtime callers
// supply the actual functions here.
type Hooks struct {
	// HashFn backs the hashfn= option.
	HashFn policy.HashFunc
	// SeedFn backs a typeseed= option naming a function.
	SeedFn func(h uint64) uint64
}

// Generated is everything derived from one successfully processed
// declaration.
type Generated struct {
	// Record is the declaration with configuration applied (mutability).
	// The hidden cache field is not part of Fields; see CacheField.
	Record  decl.Record
	Options decl.Options
	// Type is the runtime provider bound to this declaration.
	Type *policy.RecordType
	// Selection is the ordered field subset participating in hash/equality.
	Selection []string
	// CacheField is the name of the injected hidden hash field, or "" when
	// caching is disabled.
	CacheField string
}

// Process validates the declaration against its options and builds the
// generated record type.
func Process(rec decl.Record, opts decl.Options, hooks *Hooks) (*Generated, *qerr.Errors) {
	var errs *qerr.Errors
	rec.Mutable = rec.Mutable || opts.Mutable

	at := decl.Positioner(opts.Range)
	if !opts.Range.Pos().IsValid() {
		at = rec.Range
	}

	declared := set.From(rec.FieldNames())
	for _, name := range opts.Fields {
		if !declared.Contains(name) {
			errs = errs.With(qerr.New(qerr.NewUnknownField{
				Positioner: at,
				RecordName: rec.Name,
				FieldName:  name,
			}))
		}
	}
	if opts.Cache && rec.Mutable {
		errs = errs.With(qerr.New(qerr.NewCacheOnMutable{Positioner: at, RecordName: rec.Name}))
	}
	if opts.Cache && rec.HasConstructor() {
		errs = errs.With(qerr.New(qerr.NewCacheWithConstructor{
			Positioner:      at,
			RecordName:      rec.Name,
			ConstructorName: rec.ConstructorName,
		}))
	}
	if errs.HasError() {
		return nil, errs
	}

	derived := policy.Derived{
		TypeName: rec.Name,
		Compat:   opts.Compat,
	}
	if opts.TypeArg {
		derived.Type = rec.TypeExpr()
	}
	if opts.TypeSeed != nil {
		derived.Seed = opts.TypeSeed.Const
		if opts.TypeSeed.FnName != "" && hooks != nil {
			derived.SeedFn = hooks.SeedFn
		}
	}
	if opts.HashFn != "" && hooks != nil {
		derived.Hash = hooks.HashFn
	}

	selection := opts.Fields
	if selection == nil {
		selection = rec.FieldNames()
	}
	rt, err := policy.NewRecordType(rec, derived, selection, opts.Cache)
	if err != nil {
		return nil, errs.With(qerr.New(qerr.Unclassified{From: err, Positioner: at}))
	}

	cacheField := ""
	if opts.Cache {
		cacheField = cacheFieldName
	}
	logger.Debug("processed record declaration",
		slog.String("record", rec.Name),
		slog.Int("selected", len(selection)),
		slog.Bool("cache", opts.Cache),
	)
	return &Generated{
		Record:     rec,
		Options:    opts,
		Type:       rt,
		Selection:  selection,
		CacheField: cacheField,
	}, nil
}
