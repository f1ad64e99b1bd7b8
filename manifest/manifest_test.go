// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package manifest

import (
	"testing"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/reflection"
)

func bb(offset, size uint32) *reflection.BufferBinding {
	return &reflection.BufferBinding{Offset: offset, Size: size}
}

func TestClassifyProcedural(t *testing.T) {
	ep := reflection.EntryPoint{
		Name: "vertex_main",
		Parameters: []reflection.Parameter{
			reflection.SemanticParameter{Name: "vertex_index", Semantic: "SV_VertexID"},
		},
	}

	cls, err := Classify(ep, layout.NewRegistry())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Draw != DrawVertexCount {
		t.Errorf("Draw = %s, want %s", cls.Draw, DrawVertexCount)
	}
	if cls.Vertex != nil {
		t.Errorf("Vertex = %v, want nil for procedural geometry", cls.Vertex)
	}
}

func TestClassifyIndexed(t *testing.T) {
	reg := layout.NewRegistry()
	ep := reflection.EntryPoint{
		Name: "vertex_main",
		Parameters: []reflection.Parameter{
			reflection.StructParameter{
				TypeName: "MeshVertex",
				Fields: []reflection.Field{
					reflection.VectorField{Name: "position", Element: reflection.Float32, Count: 3},
					reflection.VectorField{Name: "uv", Element: reflection.Float32, Count: 2},
					reflection.ScalarField{Name: "material", Scalar: reflection.Uint32},
				},
			},
		},
	}

	cls, err := Classify(ep, reg)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Draw != DrawIndexed {
		t.Fatalf("Draw = %s, want %s", cls.Draw, DrawIndexed)
	}

	if cls.Layout.ArrayStride != 24 {
		t.Errorf("ArrayStride = %d, want 24", cls.Layout.ArrayStride)
	}
	if cls.Layout.StepMode != gputypes.VertexStepModeVertex {
		t.Errorf("StepMode = %v, want per-vertex", cls.Layout.StepMode)
	}

	want := []gputypes.VertexAttribute{
		{ShaderLocation: 0, Format: gputypes.VertexFormatFloat32x3, Offset: 0},
		{ShaderLocation: 1, Format: gputypes.VertexFormatFloat32x2, Offset: 12},
		{ShaderLocation: 2, Format: gputypes.VertexFormatUint32, Offset: 20},
	}
	if len(cls.Layout.Attributes) != len(want) {
		t.Fatalf("got %d attributes, want %d", len(cls.Layout.Attributes), len(want))
	}
	for i := range want {
		if cls.Layout.Attributes[i] != want[i] {
			t.Errorf("Attributes[%d] = %+v, want %+v", i, cls.Layout.Attributes[i], want[i])
		}
	}

	// The per-vertex type is registered like any other.
	vt, ok := reg.Lookup("MeshVertex")
	if !ok {
		t.Fatal("vertex type MeshVertex not registered")
	}
	if vt != cls.Vertex {
		t.Error("registered vertex type differs from classification's")
	}
	if vt.Size != 24 {
		t.Errorf("MeshVertex.Size = %d, want 24", vt.Size)
	}
	if vt.Kind != layout.Vertex {
		t.Errorf("MeshVertex.Kind = %s, want %s", vt.Kind, layout.Vertex)
	}
}

func TestClassifySkipsBuiltinMembers(t *testing.T) {
	reg := layout.NewRegistry()
	ep := reflection.EntryPoint{
		Name: "vertex_main",
		Parameters: []reflection.Parameter{
			reflection.StructParameter{
				TypeName: "LitVertex",
				Fields: []reflection.Field{
					reflection.VectorField{Name: "clip_position", Element: reflection.Float32, Count: 4, Semantic: "SV_Position"},
					reflection.VectorField{Name: "position", Element: reflection.Float32, Count: 3},
					reflection.VectorField{Name: "uv", Element: reflection.Float32, Count: 2},
				},
			},
		},
	}

	cls, err := Classify(ep, reg)
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if cls.Draw != DrawIndexed {
		t.Fatalf("Draw = %s, want %s", cls.Draw, DrawIndexed)
	}

	// The builtin member contributes neither an attribute slot nor stride;
	// the data members keep consecutive locations.
	want := []gputypes.VertexAttribute{
		{ShaderLocation: 0, Format: gputypes.VertexFormatFloat32x3, Offset: 0},
		{ShaderLocation: 1, Format: gputypes.VertexFormatFloat32x2, Offset: 12},
	}
	if len(cls.Layout.Attributes) != len(want) {
		t.Fatalf("got %d attributes, want %d", len(cls.Layout.Attributes), len(want))
	}
	for i := range want {
		if cls.Layout.Attributes[i] != want[i] {
			t.Errorf("Attributes[%d] = %+v, want %+v", i, cls.Layout.Attributes[i], want[i])
		}
	}
	if cls.Layout.ArrayStride != 20 {
		t.Errorf("ArrayStride = %d, want 20", cls.Layout.ArrayStride)
	}

	vt, ok := reg.Lookup("LitVertex")
	if !ok {
		t.Fatal("vertex type LitVertex not registered")
	}
	if vt.Size != 20 || len(vt.Fields) != 2 {
		t.Errorf("LitVertex = size %d with %d fields, want 20 with 2", vt.Size, len(vt.Fields))
	}
}

func TestClassifyRejectsUnsupportedAttribute(t *testing.T) {
	ep := reflection.EntryPoint{
		Name: "vertex_main",
		Parameters: []reflection.Parameter{
			reflection.StructParameter{
				TypeName: "BadVertex",
				Fields: []reflection.Field{
					reflection.MatrixField{Name: "transform", Element: reflection.Float32, Rows: 4, Cols: 4},
				},
			},
		},
	}

	_, err := Classify(ep, layout.NewRegistry())
	if err == nil {
		t.Fatal("Classify() succeeded, want error")
	}
	if !layout.IsUnsupportedShape(err) {
		t.Errorf("error = %v, want UnsupportedShape", err)
	}
}

func TestBuildProceduralManifest(t *testing.T) {
	reg := layout.NewRegistry()
	syn := layout.NewSynthesizer(reg)

	model := &reflection.Model{
		SourceFileName: "koch_curve.wgsl",
		VertexEntryPoint: reflection.EntryPoint{
			Name: "vertex_main",
			Parameters: []reflection.Parameter{
				reflection.SemanticParameter{Name: "vertex_index", Semantic: "SV_VertexID"},
			},
		},
		ParameterBlocks: []reflection.ParameterBlock{
			{
				Name: "params",
				ElementType: reflection.StructDef{
					TypeName: "KochParams",
					Fields: []reflection.Field{
						reflection.ScalarField{Name: "depth", Scalar: reflection.Uint32, Binding: bb(0, 4)},
					},
				},
			},
		},
	}

	m, cls, err := Build(model, syn, reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if cls.Draw != DrawVertexCount {
		t.Errorf("Draw = %s, want %s", cls.Draw, DrawVertexCount)
	}

	want := []Entry{
		{FieldName: "vertex_count", Kind: VertexCountParameter},
		{FieldName: "params_buffer", Kind: UniformBuffer,
			Element: layout.HostType{Kind: layout.HostStruct, TypeName: "KochParams"}},
	}
	if len(m.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(m.Entries), len(want), m.Entries)
	}
	for i := range want {
		if m.Entries[i] != want[i] {
			t.Errorf("Entries[%d] = %+v, want %+v", i, m.Entries[i], want[i])
		}
	}
}

func TestBuildOrderingWithResources(t *testing.T) {
	reg := layout.NewRegistry()
	syn := layout.NewSynthesizer(reg)

	model := &reflection.Model{
		SourceFileName: "scene.wgsl",
		VertexEntryPoint: reflection.EntryPoint{
			Name: "vertex_main",
			Parameters: []reflection.Parameter{
				reflection.StructParameter{
					TypeName: "SceneVertex",
					Fields: []reflection.Field{
						reflection.VectorField{Name: "position", Element: reflection.Float32, Count: 3},
					},
				},
			},
		},
		ParameterBlocks: []reflection.ParameterBlock{
			{
				Name: "scene",
				ElementType: reflection.StructDef{
					TypeName: "SceneParams",
					Fields: []reflection.Field{
						reflection.MatrixField{Name: "view_proj", Element: reflection.Float32, Rows: 4, Cols: 4, Binding: bb(0, 64)},
						reflection.ResourceField{Name: "albedo", Shape: reflection.Texture2D},
						reflection.ResourceField{
							Name:  "spheres",
							Shape: reflection.StructuredBuffer,
							Result: reflection.StructResult{Struct: reflection.StructDef{
								TypeName: "Sphere",
								Fields: []reflection.Field{
									reflection.VectorField{Name: "center", Element: reflection.Float32, Count: 3, Binding: bb(0, 16)},
									reflection.ScalarField{Name: "radius", Scalar: reflection.Float32, Binding: bb(16, 4)},
								},
							}},
						},
					},
				},
			},
			{
				Name: "post",
				ElementType: reflection.StructDef{
					TypeName: "PostParams",
					Fields: []reflection.Field{
						reflection.ScalarField{Name: "exposure", Scalar: reflection.Float32, Binding: bb(0, 4)},
					},
				},
			},
		},
	}

	m, _, err := Build(model, syn, reg)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []Entry{
		{FieldName: "vertices", Kind: VertexBuffer,
			Element: layout.HostType{Kind: layout.HostStruct, TypeName: "SceneVertex"}},
		{FieldName: "indices", Kind: IndexBuffer},
		{FieldName: "scene_buffer", Kind: UniformBuffer,
			Element: layout.HostType{Kind: layout.HostStruct, TypeName: "SceneParams"}},
		{FieldName: "albedo", Kind: Texture},
		{FieldName: "spheres", Kind: StorageBuffer,
			Element: layout.HostType{Kind: layout.HostStruct, TypeName: "Sphere"}},
		{FieldName: "post_buffer", Kind: UniformBuffer,
			Element: layout.HostType{Kind: layout.HostStruct, TypeName: "PostParams"}},
	}
	if len(m.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d: %v", len(m.Entries), len(want), m.Entries)
	}
	for i := range want {
		if m.Entries[i] != want[i] {
			t.Errorf("Entries[%d] = %+v, want %+v", i, m.Entries[i], want[i])
		}
	}

	// The storage element's std430 layout exists on the side.
	sphere, ok := reg.Lookup("Sphere")
	if !ok {
		t.Fatal("storage element Sphere not registered")
	}
	if sphere.Kind != layout.Storage {
		t.Errorf("Sphere.Kind = %s, want %s", sphere.Kind, layout.Storage)
	}
}
