// Package qerr holds the error values reported while processing record
// declarations. All of them are declaration-time validation failures: the
// generated procedures themselves never produce these.
//
// Every error carries the source range of the offending declaration so the
// caller can point at it, plus short usage guidance where it helps.
package qerr

import (
	"fmt"
	"go/token"
	"runtime/debug"
	"strings"
)

// enableDebugErrorPrinting makes errors include their stacktrace when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

// Positioner allows finding the location in the original source file.
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

type ErrCode int

const (
	None ErrCode = iota
	NotARecord
	UnknownOption
	BadOptionValue
	UnknownField
	FieldNotIdentifier
	CacheOnMutable
	CacheWithConstructor
	Load
)

type QErr interface {
	Error() string
	Code() ErrCode
	Positioner

	withStack([]byte) QErr
	getStack() []byte
}

func FormatWithCode(e QErr) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// FormatWithPosition renders e prefixed with its resolved source position.
func FormatWithPosition(e QErr, fset *token.FileSet) string {
	if fset == nil || !e.Pos().IsValid() {
		return FormatWithCode(e)
	}
	return fmt.Sprintf("%s: %s", fset.Position(e.Pos()), FormatWithCode(e))
}

func New[E QErr](err E) QErr {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewNotARecord struct {
	Positioner
	Name string
	Kind string
	stack []byte
}

func (e NewNotARecord) Error() string {
	return fmt.Sprintf("'%s' is not a record declaration (found %s); deriving is only supported on struct types with named fields", e.Name, e.Kind)
}
func (e NewNotARecord) Code() ErrCode    { return NotARecord }
func (e NewNotARecord) getStack() []byte { return e.stack }
func (e NewNotARecord) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewUnknownOption struct {
	Positioner
	Key   string
	stack []byte
}

func (e NewUnknownOption) Error() string {
	return fmt.Sprintf("unknown option '%s'; valid options are cache, hashfn, fields, typearg, typeseed, compat1 and mutable", e.Key)
}
func (e NewUnknownOption) Code() ErrCode    { return UnknownOption }
func (e NewUnknownOption) getStack() []byte { return e.stack }
func (e NewUnknownOption) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewBadOptionValue struct {
	Positioner
	Key   string
	Value string
	Want  string
	stack []byte
}

func (e NewBadOptionValue) Error() string {
	return fmt.Sprintf("option '%s' expects %s, got '%s'", e.Key, e.Want, e.Value)
}
func (e NewBadOptionValue) Code() ErrCode    { return BadOptionValue }
func (e NewBadOptionValue) getStack() []byte { return e.stack }
func (e NewBadOptionValue) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewUnknownField struct {
	Positioner
	RecordName string
	FieldName  string
	stack      []byte
}

func (e NewUnknownField) Error() string {
	return fmt.Sprintf("fields= names '%s', which is not a declared field of '%s'", e.FieldName, e.RecordName)
}
func (e NewUnknownField) Code() ErrCode    { return UnknownField }
func (e NewUnknownField) getStack() []byte { return e.stack }
func (e NewUnknownField) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewFieldNotIdentifier struct {
	Positioner
	Value string
	stack []byte
}

func (e NewFieldNotIdentifier) Error() string {
	return fmt.Sprintf("fields= expects a list of field names, got '%s'", e.Value)
}
func (e NewFieldNotIdentifier) Code() ErrCode    { return FieldNotIdentifier }
func (e NewFieldNotIdentifier) getStack() []byte { return e.stack }
func (e NewFieldNotIdentifier) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewCacheOnMutable struct {
	Positioner
	RecordName string
	stack      []byte
}

func (e NewCacheOnMutable) Error() string {
	return fmt.Sprintf("cache=true is not valid on mutable record '%s': the cached hash is never invalidated, so caching requires a record whose fields cannot change after construction", e.RecordName)
}
func (e NewCacheOnMutable) Code() ErrCode    { return CacheOnMutable }
func (e NewCacheOnMutable) getStack() []byte { return e.stack }
func (e NewCacheOnMutable) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewCacheWithConstructor struct {
	Positioner
	RecordName      string
	ConstructorName string
	stack           []byte
}

func (e NewCacheWithConstructor) Error() string {
	return fmt.Sprintf("cache=true on '%s' conflicts with the user-supplied constructor '%s': caching must own construction to fill the cache field", e.RecordName, e.ConstructorName)
}
func (e NewCacheWithConstructor) Code() ErrCode    { return CacheWithConstructor }
func (e NewCacheWithConstructor) getStack() []byte { return e.stack }
func (e NewCacheWithConstructor) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}

type NewLoad struct {
	Positioner
	Path string
	From error
	stack []byte
}

func (e NewLoad) Error() string {
	return fmt.Sprintf("could not load '%s': %v", e.Path, e.From)
}
func (e NewLoad) Code() ErrCode    { return Load }
func (e NewLoad) getStack() []byte { return e.stack }
func (e NewLoad) withStack(stack []byte) QErr {
	e.stack = stack
	return e
}
