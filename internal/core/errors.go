package core

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidJSON is returned when imported text is not a JSON document.
var ErrInvalidJSON = errors.New("invalid JSON file")

// ErrIndexOutOfRange is returned by mutations given an index outside the
// collection they edit.
var ErrIndexOutOfRange = errors.New("index out of range")

// ErrUnknownField is returned by SetField for keys the entity cannot hold.
var ErrUnknownField = errors.New("unknown field")

// ErrUnknownDevice is returned by screenshot mutations given a device other
// than DeviceIPhone or DeviceIPad.
var ErrUnknownDevice = errors.New("unknown screenshot device")

// ParseError describes why imported text could not be read as a document.
type ParseError struct {
	Offset int64 // byte offset of the syntax error, 0 if not known
	Err    error
}

func (e *ParseError) Error() string {
	if e.Offset > 0 {
		return fmt.Sprintf("%s: offset %d: %v", ErrInvalidJSON, e.Offset, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrInvalidJSON, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrInvalidJSON, e.Err}
}

// IndexError wraps ErrIndexOutOfRange with the collection and bounds.
type IndexError struct {
	Collection string
	Index      int
	Len        int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range [0,%d)", e.Collection, e.Index, e.Len)
}

func (e *IndexError) Unwrap() error {
	return ErrIndexOutOfRange
}

// FieldError is returned by SetField when a key is unknown or the value does
// not fit the field.
type FieldError struct {
	Entity string
	Field  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s.%s: %v", e.Entity, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// ValidationError carries the problems found by Validate. It is only
// produced by Problems.Err for callers that choose to block on them.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "validation failed: " + e.Problems[0]
	}
	return fmt.Sprintf("validation failed with %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func checkIndex(collection string, index, length int) error {
	if index < 0 || index >= length {
		return &IndexError{Collection: collection, Index: index, Len: length}
	}
	return nil
}
