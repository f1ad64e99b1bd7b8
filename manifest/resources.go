// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package manifest

import (
	"fmt"

	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/reflection"
)

// ResourceKind identifies one kind of externally supplied resource.
type ResourceKind uint8

const (
	VertexBuffer ResourceKind = iota
	IndexBuffer
	VertexCountParameter
	Texture
	UniformBuffer
	StorageBuffer
)

// String returns the resource kind's descriptive name.
func (k ResourceKind) String() string {
	switch k {
	case VertexBuffer:
		return "vertex-buffer"
	case IndexBuffer:
		return "index-buffer"
	case VertexCountParameter:
		return "vertex-count-parameter"
	case Texture:
		return "texture"
	case UniformBuffer:
		return "uniform-buffer"
	case StorageBuffer:
		return "storage-buffer"
	default:
		return "unknown"
	}
}

// Entry is one resource the caller must supply, in binding order. Buffer
// kinds carry the host element type their handle is keyed by.
type Entry struct {
	FieldName string
	Kind      ResourceKind
	Element   layout.HostType
}

// Manifest is the ordered resource list of one shader.
type Manifest struct {
	Entries []Entry
}

// Build classifies the model's vertex entry point and walks its parameter
// blocks in declared order, synthesizing each block's element type under
// uniform-buffer rules. The manifest is the classifier's vertex-stage
// entries followed by, per block, the block's uniform buffer entry and then
// one entry per nested texture or storage-buffer field, in field order.
func Build(model *reflection.Model, syn *layout.Synthesizer, reg *layout.Registry) (*Manifest, *Classification, error) {
	cls, err := Classify(model.VertexEntryPoint, reg)
	if err != nil {
		return nil, nil, err
	}

	var entries []Entry
	switch cls.Draw {
	case DrawIndexed:
		entries = append(entries,
			Entry{FieldName: "vertices", Kind: VertexBuffer,
				Element: layout.HostType{Kind: layout.HostStruct, TypeName: cls.Vertex.Name}},
			Entry{FieldName: "indices", Kind: IndexBuffer},
		)
	default:
		entries = append(entries, Entry{FieldName: "vertex_count", Kind: VertexCountParameter})
	}

	for _, block := range model.ParameterBlocks {
		bt, err := syn.Synthesize(block.ElementType.TypeName, block.ElementType.Fields, layout.Uniform)
		if err != nil {
			return nil, nil, err
		}
		entries = append(entries, Entry{
			FieldName: block.Name + "_buffer",
			Kind:      UniformBuffer,
			Element:   layout.HostType{Kind: layout.HostStruct, TypeName: bt.Name},
		})

		for _, f := range block.ElementType.Fields {
			rf, ok := f.(reflection.ResourceField)
			if !ok {
				continue
			}
			entry, err := resourceEntry(rf)
			if err != nil {
				return nil, nil, err
			}
			entries = append(entries, entry)
		}
	}

	return &Manifest{Entries: entries}, cls, nil
}

// resourceEntry maps a nested resource field to its manifest entry.
func resourceEntry(rf reflection.ResourceField) (Entry, error) {
	switch rf.Shape {
	case reflection.Texture2D:
		return Entry{FieldName: rf.Name, Kind: Texture}, nil

	case reflection.StructuredBuffer:
		switch res := rf.Result.(type) {
		case reflection.StructResult:
			return Entry{
				FieldName: rf.Name,
				Kind:      StorageBuffer,
				Element:   layout.HostType{Kind: layout.HostStruct, TypeName: res.Struct.TypeName},
			}, nil
		case reflection.SliceResult:
			return Entry{
				FieldName: rf.Name,
				Kind:      StorageBuffer,
				Element:   layout.HostType{Kind: layout.HostScalar, Scalar: res.Element},
			}, nil
		default:
			return Entry{}, layout.NewError(layout.ErrUnsupportedShape, rf.Name,
				fmt.Sprintf("storage buffer element %T has no host representation", rf.Result))
		}

	default:
		return Entry{}, layout.NewError(layout.ErrUnsupportedShape, rf.Name,
			fmt.Sprintf("resource shape %s has no manifest entry", rf.Shape))
	}
}
