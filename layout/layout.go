// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package layout synthesizes host-side memory layouts for GPU buffer types.
//
// A shader's buffer types follow one of two standardized layout rule sets:
// uniform buffers use the std140 rules, storage buffers use the std430
// rules. The synthesizer walks a reflected field tree under one rule set
// and produces an ordered field list with explicit padding, a struct
// alignment, and a byte size that reproduce the GPU's expectations exactly.
// Any deviation corrupts GPU memory with no software-visible error, so the
// alignment table below is an external binary contract, not a heuristic.
package layout

import (
	"fmt"

	"github.com/gogpu/shadergen/reflection"
)

// BufferKind selects the layout rule set for a buffer type.
type BufferKind uint8

const (
	// Uniform selects the std140 rules used by uniform buffers.
	Uniform BufferKind = iota

	// Storage selects the std430 rules used by storage buffers.
	Storage

	// Vertex marks a per-vertex input struct. Vertex fetch reads attributes
	// at explicit offsets, so these types pack tightly with no rule-set
	// padding at all.
	Vertex
)

// String returns the rule set's conventional name.
func (k BufferKind) String() string {
	switch k {
	case Uniform:
		return "std140"
	case Storage:
		return "std430"
	case Vertex:
		return "packed"
	default:
		return "unknown"
	}
}

const (
	// uniformStructAlignment is the unconditional struct alignment under
	// the std140 rules, regardless of field contents.
	uniformStructAlignment = 16

	// compositeAlignment is the std140 alignment of nested structs and any
	// unrecognized composite.
	compositeAlignment = 16

	// minStorageAlignment is the struct alignment floor under the std430
	// rules.
	minStorageAlignment = 4
)

// HostKind identifies the host representation of a layout field.
type HostKind uint8

const (
	HostScalar HostKind = iota
	HostVector
	HostMatrix
	HostStruct
)

// HostType names the host-side representation of one field.
type HostType struct {
	Kind HostKind

	// Scalar is the scalar kind, or the element kind of a vector/matrix.
	Scalar reflection.ScalarKind

	// Count is the component count of a vector.
	Count uint8

	// Dim is the dimension of a square matrix.
	Dim uint8

	// TypeName names a nested synthesized struct.
	TypeName string
}

// String returns the shader-side spelling of the host type.
func (h HostType) String() string {
	switch h.Kind {
	case HostScalar:
		return h.Scalar.String()
	case HostVector:
		return fmt.Sprintf("vec%d<%s>", h.Count, h.Scalar)
	case HostMatrix:
		return fmt.Sprintf("mat%dx%d<%s>", h.Dim, h.Dim, h.Scalar)
	case HostStruct:
		return h.TypeName
	default:
		return "unknown"
	}
}

// ByteSize returns the host byte size of a scalar, vector, or matrix.
// Struct sizes are owned by their own synthesized Type and return 0 here.
func (h HostType) ByteSize() uint32 {
	switch h.Kind {
	case HostScalar:
		return 4
	case HostVector:
		return 4 * uint32(h.Count)
	case HostMatrix:
		return 4 * uint32(h.Dim) * uint32(h.Dim)
	default:
		return 0
	}
}

// Field is one entry of a synthesized type: real data or synthetic padding.
type Field interface {
	layoutField()
}

// DataField is a data-carrying field placed at a fixed buffer offset.
type DataField struct {
	Name   string
	Host   HostType
	Offset uint32
	Size   uint32
}

func (DataField) layoutField() {}

// PaddingField is synthetic filler. It never carries data; Index is unique
// per containing type so emitted padding names are deterministic.
type PaddingField struct {
	Index int
	Bytes uint32
}

func (PaddingField) layoutField() {}

// Type is a synthesized host type with an exact buffer layout.
//
// Invariants: the sum of field and padding sizes equals Size, and
// Size is a multiple of Alignment.
type Type struct {
	Name      string
	Kind      BufferKind
	Fields    []Field
	Alignment uint32
	Size      uint32
}

// Synthesizer walks reflected field trees and produces registered types.
type Synthesizer struct {
	reg *Registry
}

// NewSynthesizer creates a synthesizer that registers every type it
// produces, nested types included, in reg.
func NewSynthesizer(reg *Registry) *Synthesizer {
	return &Synthesizer{reg: reg}
}

// Synthesize computes the layout of a struct named typeName from its
// reflected fields under the given rule set, registers it, and returns the
// registry's canonical instance. Nested struct fields and storage-buffer
// element structs are synthesized and registered recursively.
//
// It fails with ErrUnsupportedShape if a field shape has no layout rule,
// ErrMissingBinding if a non-semantic field reports no offset/size or an
// extent inconsistent with the synthesized layout (a nested struct member
// spanning anything but its type's size, or an offset overlapping the
// preceding field), and ErrTypeConflict if a same-named type with a
// different layout was registered before.
func (s *Synthesizer) Synthesize(typeName string, fields []reflection.Field, kind BufferKind) (*Type, error) {
	var out []Field
	var cur uint32
	maxAlign := uint32(minStorageAlignment)
	padIndex := 0

	for _, src := range fields {
		switch f := src.(type) {
		case reflection.ResourceField:
			// Resources are excluded from layout entirely. A storage buffer
			// holding an aggregate element still needs that element's own
			// std430 layout to exist.
			if f.Shape == reflection.StructuredBuffer {
				if res, ok := f.Result.(reflection.StructResult); ok {
					if _, err := s.Synthesize(res.Struct.TypeName, res.Struct.Fields, Storage); err != nil {
						return nil, err
					}
				}
			}
			continue

		case reflection.VectorField:
			if f.Semantic != "" {
				// Pipeline builtin, no host-supplied data.
				continue
			}
		}

		host, err := hostTypeOf(src)
		if err != nil {
			return nil, err
		}

		var align, nestedSize uint32
		if host.Kind == HostStruct {
			nested, nestErr := s.Synthesize(host.TypeName, src.(reflection.StructField).Struct.Fields, kind)
			if nestErr != nil {
				return nil, nestErr
			}
			// A storage-rule nested struct contributes its own computed
			// alignment to the parent, never a blanket 16.
			if kind == Storage {
				align = nested.Alignment
			} else {
				align = compositeAlignment
			}
			nestedSize = nested.Size
		} else {
			align = nativeAlignment(host)
		}
		if align > maxAlign {
			maxAlign = align
		}

		b := fieldBinding(src)
		if b == nil {
			return nil, NewError(ErrMissingBinding, src.FieldName(), "field reports no offset/size in buffer layout")
		}
		// The emitted Go field occupies exactly the nested type's bytes, so
		// a member reported at any other extent has no consistent host
		// declaration.
		if host.Kind == HostStruct && b.Size != nestedSize {
			return nil, NewError(ErrMissingBinding, src.FieldName(), fmt.Sprintf(
				"reported size %d disagrees with the %d-byte layout of %s", b.Size, nestedSize, host.TypeName))
		}
		if b.Offset < cur {
			return nil, NewError(ErrMissingBinding, src.FieldName(), fmt.Sprintf(
				"reported offset %d overlaps preceding data ending at %d", b.Offset, cur))
		}
		if b.Offset > cur {
			out = append(out, PaddingField{Index: padIndex, Bytes: b.Offset - cur})
			padIndex++
		}
		out = append(out, DataField{Name: src.FieldName(), Host: host, Offset: b.Offset, Size: b.Size})
		cur = b.Offset + b.Size
	}

	structAlign := maxAlign
	if kind == Uniform {
		structAlign = uniformStructAlignment
	}
	size := alignUp(cur, structAlign)
	if size > cur {
		out = append(out, PaddingField{Index: padIndex, Bytes: size - cur})
	}

	return s.reg.Register(&Type{
		Name:      typeName,
		Kind:      kind,
		Fields:    out,
		Alignment: structAlign,
		Size:      size,
	})
}

// nativeAlignment returns the fixed native alignment of a non-struct host
// type. The table is identical under both rule sets: a 3-component vector
// always rounds up to 4-component granularity, never 12 bytes.
func nativeAlignment(h HostType) uint32 {
	switch h.Kind {
	case HostScalar:
		return 4
	case HostVector:
		switch h.Count {
		case 2:
			return 8
		default:
			return 16
		}
	case HostMatrix:
		return 16
	default:
		return compositeAlignment
	}
}

// hostTypeOf maps a reflected field to its host representation, rejecting
// shapes with no layout rule.
func hostTypeOf(f reflection.Field) (HostType, error) {
	switch f := f.(type) {
	case reflection.ScalarField:
		return HostType{Kind: HostScalar, Scalar: f.Scalar}, nil

	case reflection.VectorField:
		if f.Element != reflection.Float32 || f.Count < 2 || f.Count > 4 {
			return HostType{}, NewError(ErrUnsupportedShape, f.Name,
				fmt.Sprintf("vector not supported: element %s count %d", f.Element, f.Count))
		}
		return HostType{Kind: HostVector, Scalar: f.Element, Count: f.Count}, nil

	case reflection.MatrixField:
		if f.Element != reflection.Float32 || f.Rows != f.Cols || f.Rows < 2 || f.Rows > 4 {
			return HostType{}, NewError(ErrUnsupportedShape, f.Name,
				fmt.Sprintf("matrix not supported: element %s rows %d cols %d", f.Element, f.Rows, f.Cols))
		}
		return HostType{Kind: HostMatrix, Scalar: f.Element, Dim: f.Rows}, nil

	case reflection.StructField:
		return HostType{Kind: HostStruct, TypeName: f.Struct.TypeName}, nil

	default:
		return HostType{}, NewError(ErrUnsupportedShape, f.FieldName(),
			fmt.Sprintf("field shape %T has no layout rule", f))
	}
}

// fieldBinding extracts the reported offset/size binding, if any.
func fieldBinding(f reflection.Field) *reflection.BufferBinding {
	switch f := f.(type) {
	case reflection.ScalarField:
		return f.Binding
	case reflection.VectorField:
		return f.Binding
	case reflection.MatrixField:
		return f.Binding
	case reflection.StructField:
		return f.Binding
	default:
		return nil
	}
}

// alignUp rounds v up to the next multiple of align. align must be a power
// of two.
func alignUp(v, align uint32) uint32 {
	return (v + align - 1) &^ (align - 1)
}
