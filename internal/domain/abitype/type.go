// Package abitype models Solidity ABI parameter types as a runtime value.
//
// A Type is a finite tree: arrays wrap an element type and tuples/structs hold
// ordered member types, nested to any depth. Types are built by Parse, Resolve
// and ResolveNamed and are never mutated afterwards.
package abitype

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnparseableType is returned when a type string matches no ABI grammar production
	ErrUnparseableType = errors.New("unparseable ABI type")

	// ErrUnsupportedFunctionType is returned when a function type has to be converted
	ErrUnsupportedFunctionType = errors.New("function type not supported")
)

// Type is a Solidity ABI type
type Type interface {
	// String returns the canonical signature form, e.g. "(uint256,address)[]"
	String() string
	isType()
}

type (
	// Address is the 20-byte address type
	Address struct{}
	// Bool is the boolean type
	Bool struct{}
	// Bytes is the dynamic byte array type
	Bytes struct{}
	// String is the dynamic UTF-8 string type
	String struct{}
	// Function is the 24-byte external function pointer type
	Function struct{}

	// Int is a signed integer of Bits width
	Int struct{ Bits int }
	// Uint is an unsigned integer of Bits width
	Uint struct{ Bits int }
	// FixedBytes is bytes1..bytes32
	FixedBytes struct{ Size int }

	// Array is a dynamic array T[]
	Array struct{ Elem Type }
	// FixedArray is a fixed-length array T[Len]
	FixedArray struct {
		Elem Type
		Len  int
	}

	// Tuple is an anonymous ordered group of types
	Tuple struct{ Elems []Type }
	// Struct is a named Solidity struct; Fields and Elems are parallel
	Struct struct {
		Name   string
		Fields []string
		Elems  []Type
	}
)

func (Address) isType()    {}
func (Bool) isType()       {}
func (Bytes) isType()      {}
func (String) isType()     {}
func (Function) isType()   {}
func (Int) isType()        {}
func (Uint) isType()       {}
func (FixedBytes) isType() {}
func (Array) isType()      {}
func (FixedArray) isType() {}
func (Tuple) isType()      {}
func (Struct) isType()     {}

func (Address) String() string      { return "address" }
func (Bool) String() string         { return "bool" }
func (Bytes) String() string        { return "bytes" }
func (String) String() string       { return "string" }
func (Function) String() string     { return "function" }
func (t Int) String() string        { return fmt.Sprintf("int%d", t.Bits) }
func (t Uint) String() string       { return fmt.Sprintf("uint%d", t.Bits) }
func (t FixedBytes) String() string { return fmt.Sprintf("bytes%d", t.Size) }
func (t Array) String() string      { return t.Elem.String() + "[]" }
func (t FixedArray) String() string { return fmt.Sprintf("%s[%d]", t.Elem.String(), t.Len) }
func (t Tuple) String() string      { return joinTypes(t.Elems) }
func (t Struct) String() string     { return joinTypes(t.Elems) }

func joinTypes(elems []Type) string {
	parts := make([]string, len(elems))
	for i, e := range elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ",") + ")"
}
