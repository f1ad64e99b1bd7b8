// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"fmt"
	"strings"
)

// Registry is the name-keyed, insertion-ordered store of synthesized types.
// Shaders routinely share type declarations, so registration is idempotent:
// re-registering an identical layout returns the first instance. Two
// same-named types with differing layouts are a source-level contradiction
// and fail with ErrTypeConflict.
//
// Registry is not safe for concurrent use.
type Registry struct {
	types  []*Type
	byName map[string]*Type
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Type)}
}

// Register stores t and returns the registry's canonical instance for its
// name: t itself on first registration, the previously registered instance
// when t duplicates it exactly.
func (r *Registry) Register(t *Type) (*Type, error) {
	prev, ok := r.byName[t.Name]
	if !ok {
		r.types = append(r.types, t)
		r.byName[t.Name] = t
		return t, nil
	}
	if typesEqual(prev, t) {
		return prev, nil
	}
	return nil, NewError(ErrTypeConflict, t.Name, fmt.Sprintf(
		"conflicting declarations:\n  registered: %s\n  candidate:  %s",
		describeType(prev), describeType(t)))
}

// Lookup returns the registered type with the given name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.byName[name]
	return t, ok
}

// Types returns all registered types in registration order. The returned
// slice is shared; callers must not modify it.
func (r *Registry) Types() []*Type {
	return r.types
}

// Len returns the number of registered types.
func (r *Registry) Len() int {
	return len(r.types)
}

// typesEqual reports whether two synthesized types declare the same field
// sequence: names, host types, offsets, and padding, in order. The rule
// set is not part of the identity; a type reached under both rule sets
// with the same layout is one type, matching the single emitted Go
// declaration. An identical sequence implies an identical size.
func typesEqual(a, b *Type) bool {
	if len(a.Fields) != len(b.Fields) {
		return false
	}
	for i := range a.Fields {
		if !fieldsEqual(a.Fields[i], b.Fields[i]) {
			return false
		}
	}
	return true
}

func fieldsEqual(a, b Field) bool {
	switch a := a.(type) {
	case DataField:
		b, ok := b.(DataField)
		return ok && a == b
	case PaddingField:
		b, ok := b.(PaddingField)
		return ok && a == b
	default:
		return false
	}
}

// describeType formats a type's layout on one line for conflict reports.
func describeType(t *Type) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s(%s, align %d, size %d){", t.Name, t.Kind, t.Alignment, t.Size)
	for i, f := range t.Fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		switch f := f.(type) {
		case DataField:
			fmt.Fprintf(&sb, "%s: %s @%d+%d", f.Name, f.Host, f.Offset, f.Size)
		case PaddingField:
			fmt.Fprintf(&sb, "pad%d [%d]", f.Index, f.Bytes)
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
