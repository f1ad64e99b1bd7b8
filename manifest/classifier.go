// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package manifest classifies shader entry points and builds the ordered
// list of external resources a caller must bind to draw with a shader.
//
// Entry order is a hard invariant, not a convenience: it must equal the
// descriptor binding order the GPU pipeline object is built with.
package manifest

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/reflection"
)

// DrawKind is the draw-call variant a shader requires.
type DrawKind uint8

const (
	// DrawVertexCount is procedural geometry: the shader derives positions
	// from the vertex index and a host-supplied vertex count.
	DrawVertexCount DrawKind = iota

	// DrawIndexed consumes a vertex buffer through an index buffer.
	DrawIndexed
)

// String returns the draw kind's descriptive name.
func (k DrawKind) String() string {
	switch k {
	case DrawVertexCount:
		return "vertex-count"
	case DrawIndexed:
		return "indexed"
	default:
		return "unknown"
	}
}

// Classification is the result of inspecting a vertex entry point.
type Classification struct {
	Draw DrawKind

	// Vertex is the packed per-vertex input type, registered alongside the
	// buffer types. Nil for vertex-count shaders.
	Vertex *layout.Type

	// Layout is the vertex fetch configuration matching Vertex, with one
	// attribute per field. Zero for vertex-count shaders.
	Layout gputypes.VertexBufferLayout
}

// Classify inspects the vertex entry point's parameters. A full per-vertex
// struct parameter makes the shader index-buffer driven; its data fields
// become vertex attributes in declaration order with consecutive locations,
// while semantic members (pipeline builtins) are skipped. Without one the
// shader is procedural and draws from a plain vertex count.
func Classify(ep reflection.EntryPoint, reg *layout.Registry) (*Classification, error) {
	var vertex *reflection.StructParameter
	for _, p := range ep.Parameters {
		if sp, ok := p.(reflection.StructParameter); ok {
			vertex = &sp
			break
		}
	}
	if vertex == nil {
		return &Classification{Draw: DrawVertexCount}, nil
	}

	var (
		fields []layout.Field
		attrs  []gputypes.VertexAttribute
		stride uint32
	)
	for _, f := range vertex.Fields {
		// Pipeline builtins in the struct carry no host-supplied data and
		// get no attribute slot.
		if vf, ok := f.(reflection.VectorField); ok && vf.Semantic != "" {
			continue
		}
		format, host, size, err := attributeFormat(f)
		if err != nil {
			return nil, err
		}
		attrs = append(attrs, gputypes.VertexAttribute{
			ShaderLocation: uint32(len(attrs)),
			Format:         format,
			Offset:         uint64(stride),
		})
		fields = append(fields, layout.DataField{
			Name:   f.FieldName(),
			Host:   host,
			Offset: stride,
			Size:   size,
		})
		stride += size
	}

	vt, err := reg.Register(&layout.Type{
		Name:      vertex.TypeName,
		Kind:      layout.Vertex,
		Fields:    fields,
		Alignment: 4,
		Size:      stride,
	})
	if err != nil {
		return nil, err
	}

	return &Classification{
		Draw:   DrawIndexed,
		Vertex: vt,
		Layout: gputypes.VertexBufferLayout{
			ArrayStride: uint64(stride),
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes:  attrs,
		},
	}, nil
}

// attributeFormat maps a per-vertex struct field to its wire format. Only
// the shapes vertex fetch can express are accepted.
func attributeFormat(f reflection.Field) (gputypes.VertexFormat, layout.HostType, uint32, error) {
	switch f := f.(type) {
	case reflection.VectorField:
		host := layout.HostType{Kind: layout.HostVector, Scalar: f.Element, Count: f.Count}
		if f.Element == reflection.Float32 {
			switch f.Count {
			case 2:
				return gputypes.VertexFormatFloat32x2, host, 8, nil
			case 3:
				return gputypes.VertexFormatFloat32x3, host, 12, nil
			}
		}

	case reflection.ScalarField:
		if f.Scalar == reflection.Uint32 {
			host := layout.HostType{Kind: layout.HostScalar, Scalar: f.Scalar}
			return gputypes.VertexFormatUint32, host, 4, nil
		}
	}

	return 0, layout.HostType{}, 0, layout.NewError(layout.ErrUnsupportedShape, f.FieldName(),
		fmt.Sprintf("field shape %T has no vertex attribute format", f))
}
