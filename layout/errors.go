// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes layout synthesis errors. All of them are fatal:
// an inconsistent layout must stop the build rather than risk emitting a
// type that silently corrupts GPU memory at run time.
type ErrorKind uint8

const (
	// ErrUnsupportedShape indicates a scalar/vector/matrix/resource shape
	// with no layout rule. There is no safe fallback layout.
	ErrUnsupportedShape ErrorKind = iota

	// ErrTypeConflict indicates two same-named synthesized types that
	// disagree in field layout.
	ErrTypeConflict

	// ErrMissingBinding indicates a field expected to carry offset/size
	// data that lacks it.
	ErrMissingBinding
)

// String returns a human-readable error kind name.
func (k ErrorKind) String() string {
	switch k {
	case ErrUnsupportedShape:
		return "UnsupportedShape"
	case ErrTypeConflict:
		return "TypeConflict"
	case ErrMissingBinding:
		return "MissingBinding"
	default:
		return "Unknown"
	}
}

// Error represents a layout synthesis error.
type Error struct {
	// Kind categorizes the error.
	Kind ErrorKind

	// Field optionally identifies the offending field.
	Field string

	// Message provides details about the error.
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("layout %s: field %q: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("layout %s: %s", e.Kind, e.Message)
}

// NewError creates a new layout error for the given field.
func NewError(kind ErrorKind, field, message string) *Error {
	return &Error{Kind: kind, Field: field, Message: message}
}

// IsUnsupportedShape returns true if err is an ErrUnsupportedShape layout
// error, unwrapping as needed.
func IsUnsupportedShape(err error) bool {
	return isKind(err, ErrUnsupportedShape)
}

// IsTypeConflict returns true if err is an ErrTypeConflict layout error,
// unwrapping as needed.
func IsTypeConflict(err error) bool {
	return isKind(err, ErrTypeConflict)
}

// IsMissingBinding returns true if err is an ErrMissingBinding layout
// error, unwrapping as needed.
func IsMissingBinding(err error) bool {
	return isKind(err, ErrMissingBinding)
}

func isKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
