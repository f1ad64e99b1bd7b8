// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package layout

import (
	"testing"

	"github.com/gogpu/shadergen/reflection"
)

func bb(offset, size uint32) *reflection.BufferBinding {
	return &reflection.BufferBinding{Offset: offset, Size: size}
}

func TestSynthesizeUniformVec3Scalar(t *testing.T) {
	s := NewSynthesizer(NewRegistry())

	got, err := s.Synthesize("SphereParams", []reflection.Field{
		reflection.VectorField{Name: "position", Element: reflection.Float32, Count: 3, Binding: bb(0, 16)},
		reflection.ScalarField{Name: "scale", Scalar: reflection.Float32, Binding: bb(16, 4)},
	}, Uniform)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if got.Alignment != 16 {
		t.Errorf("Alignment = %d, want 16", got.Alignment)
	}
	if got.Size != 32 {
		t.Errorf("Size = %d, want 32", got.Size)
	}

	want := []Field{
		DataField{Name: "position", Host: HostType{Kind: HostVector, Scalar: reflection.Float32, Count: 3}, Offset: 0, Size: 16},
		DataField{Name: "scale", Host: HostType{Kind: HostScalar, Scalar: reflection.Float32}, Offset: 16, Size: 4},
		PaddingField{Index: 0, Bytes: 12},
	}
	if len(got.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %s", len(got.Fields), len(want), describeType(got))
	}
	for i := range want {
		if got.Fields[i] != want[i] {
			t.Errorf("Fields[%d] = %#v, want %#v", i, got.Fields[i], want[i])
		}
	}
}

func TestSynthesizeStorageScalarPair(t *testing.T) {
	s := NewSynthesizer(NewRegistry())

	got, err := s.Synthesize("Pair", []reflection.Field{
		reflection.ScalarField{Name: "a", Scalar: reflection.Float32, Binding: bb(0, 4)},
		reflection.ScalarField{Name: "b", Scalar: reflection.Float32, Binding: bb(4, 4)},
	}, Storage)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if got.Alignment != 4 {
		t.Errorf("Alignment = %d, want 4", got.Alignment)
	}
	if got.Size != 8 {
		t.Errorf("Size = %d, want 8", got.Size)
	}
	for _, f := range got.Fields {
		if _, ok := f.(PaddingField); ok {
			t.Errorf("unexpected padding in tightly packed storage type: %s", describeType(got))
		}
	}
}

func TestSynthesizeInternalPadding(t *testing.T) {
	s := NewSynthesizer(NewRegistry())

	// A reported gap of [4, 16) between the two scalars must surface as a
	// 12-byte padding field, offsets are authoritative.
	got, err := s.Synthesize("Gapped", []reflection.Field{
		reflection.ScalarField{Name: "head", Scalar: reflection.Float32, Binding: bb(0, 4)},
		reflection.ScalarField{Name: "tail", Scalar: reflection.Float32, Binding: bb(16, 4)},
	}, Uniform)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	want := []Field{
		DataField{Name: "head", Host: HostType{Kind: HostScalar, Scalar: reflection.Float32}, Offset: 0, Size: 4},
		PaddingField{Index: 0, Bytes: 12},
		DataField{Name: "tail", Host: HostType{Kind: HostScalar, Scalar: reflection.Float32}, Offset: 16, Size: 4},
		PaddingField{Index: 1, Bytes: 12},
	}
	if len(got.Fields) != len(want) {
		t.Fatalf("got %d fields, want %d: %s", len(got.Fields), len(want), describeType(got))
	}
	for i := range want {
		if got.Fields[i] != want[i] {
			t.Errorf("Fields[%d] = %#v, want %#v", i, got.Fields[i], want[i])
		}
	}
	if got.Size != 32 {
		t.Errorf("Size = %d, want 32", got.Size)
	}
}

func TestSynthesizeNestedStruct(t *testing.T) {
	inner := reflection.StructDef{
		TypeName: "Inner",
		Fields: []reflection.Field{
			reflection.ScalarField{Name: "a", Scalar: reflection.Float32, Binding: bb(0, 4)},
			reflection.ScalarField{Name: "b", Scalar: reflection.Float32, Binding: bb(4, 4)},
		},
	}

	tests := []struct {
		name          string
		kind          BufferKind
		innerBinding  *reflection.BufferBinding
		tailBinding   *reflection.BufferBinding
		wantInnerSize uint32
		wantAlign     uint32
		wantSize      uint32
	}{
		{
			// std140 rounds the nested struct up to 16 and aligns the
			// parent to 16 regardless of contents.
			name:          "uniform",
			kind:          Uniform,
			innerBinding:  bb(0, 16),
			tailBinding:   bb(16, 4),
			wantInnerSize: 16,
			wantAlign:     16,
			wantSize:      32,
		},
		{
			// std430 keeps the nested struct at its natural alignment.
			name:          "storage",
			kind:          Storage,
			innerBinding:  bb(0, 8),
			tailBinding:   bb(8, 4),
			wantInnerSize: 8,
			wantAlign:     4,
			wantSize:      12,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			s := NewSynthesizer(reg)

			got, err := s.Synthesize("Outer", []reflection.Field{
				reflection.StructField{Name: "inner", Struct: inner, Binding: tt.innerBinding},
				reflection.ScalarField{Name: "tail", Scalar: reflection.Float32, Binding: tt.tailBinding},
			}, tt.kind)
			if err != nil {
				t.Fatalf("Synthesize() error = %v", err)
			}

			if got.Alignment != tt.wantAlign {
				t.Errorf("Alignment = %d, want %d", got.Alignment, tt.wantAlign)
			}
			if got.Size != tt.wantSize {
				t.Errorf("Size = %d, want %d", got.Size, tt.wantSize)
			}

			in, ok := reg.Lookup("Inner")
			if !ok {
				t.Fatal("nested type Inner not registered")
			}
			if in.Size != tt.wantInnerSize {
				t.Errorf("Inner.Size = %d, want %d", in.Size, tt.wantInnerSize)
			}
		})
	}
}

func TestSynthesizeSkipsSemanticVectors(t *testing.T) {
	s := NewSynthesizer(NewRegistry())

	// A builtin-bound vector carries no host data and must not disturb
	// offsets of the fields around it.
	got, err := s.Synthesize("VertexIn", []reflection.Field{
		reflection.VectorField{Name: "clip_position", Element: reflection.Float32, Count: 4, Semantic: "SV_Position"},
		reflection.ScalarField{Name: "scale", Scalar: reflection.Float32, Binding: bb(0, 4)},
	}, Uniform)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	if len(got.Fields) != 2 {
		t.Fatalf("got %d fields, want 2 (scalar + trailing padding): %s", len(got.Fields), describeType(got))
	}
	if df, ok := got.Fields[0].(DataField); !ok || df.Name != "scale" {
		t.Errorf("Fields[0] = %#v, want scale", got.Fields[0])
	}
}

func TestSynthesizeStorageBufferElement(t *testing.T) {
	reg := NewRegistry()
	s := NewSynthesizer(reg)

	element := reflection.StructDef{
		TypeName: "Particle",
		Fields: []reflection.Field{
			reflection.VectorField{Name: "velocity", Element: reflection.Float32, Count: 2, Binding: bb(0, 8)},
			reflection.ScalarField{Name: "mass", Scalar: reflection.Float32, Binding: bb(8, 4)},
		},
	}

	got, err := s.Synthesize("SimParams", []reflection.Field{
		reflection.ScalarField{Name: "dt", Scalar: reflection.Float32, Binding: bb(0, 4)},
		reflection.ResourceField{
			Name:   "particles",
			Shape:  reflection.StructuredBuffer,
			Result: reflection.StructResult{Struct: element},
		},
	}, Uniform)
	if err != nil {
		t.Fatalf("Synthesize() error = %v", err)
	}

	// The resource occupies no layout space in the containing block.
	if got.Size != 16 {
		t.Errorf("SimParams.Size = %d, want 16", got.Size)
	}

	// Its element type is synthesized under storage rules on the side.
	p, ok := reg.Lookup("Particle")
	if !ok {
		t.Fatal("storage element Particle not registered")
	}
	if p.Kind != Storage {
		t.Errorf("Particle.Kind = %s, want %s", p.Kind, Storage)
	}
	if p.Alignment != 8 {
		t.Errorf("Particle.Alignment = %d, want 8", p.Alignment)
	}
	if p.Size != 16 {
		t.Errorf("Particle.Size = %d, want 16", p.Size)
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name   string
		fields []reflection.Field
		check  func(error) bool
		kind   string
	}{
		{
			name: "missing binding",
			fields: []reflection.Field{
				reflection.ScalarField{Name: "orphan", Scalar: reflection.Float32},
			},
			check: IsMissingBinding,
			kind:  "MissingBinding",
		},
		{
			name: "integer vector",
			fields: []reflection.Field{
				reflection.VectorField{Name: "ids", Element: reflection.Uint32, Count: 3, Binding: bb(0, 16)},
			},
			check: IsUnsupportedShape,
			kind:  "UnsupportedShape",
		},
		{
			name: "non-square matrix",
			fields: []reflection.Field{
				reflection.MatrixField{Name: "skew", Element: reflection.Float32, Rows: 3, Cols: 4, Binding: bb(0, 64)},
			},
			check: IsUnsupportedShape,
			kind:  "UnsupportedShape",
		},
		{
			// The member reports 4 bytes but the nested type lays out to
			// 16 under std140; no Go declaration can satisfy both.
			name: "nested size mismatch",
			fields: []reflection.Field{
				reflection.StructField{
					Name: "inner",
					Struct: reflection.StructDef{
						TypeName: "Knot",
						Fields: []reflection.Field{
							reflection.ScalarField{Name: "a", Scalar: reflection.Float32, Binding: bb(0, 4)},
						},
					},
					Binding: bb(0, 4),
				},
				reflection.ScalarField{Name: "b", Scalar: reflection.Float32, Binding: bb(4, 4)},
			},
			check: IsMissingBinding,
			kind:  "MissingBinding",
		},
		{
			name: "overlapping fields",
			fields: []reflection.Field{
				reflection.VectorField{Name: "a", Element: reflection.Float32, Count: 2, Binding: bb(0, 8)},
				reflection.ScalarField{Name: "b", Scalar: reflection.Float32, Binding: bb(4, 4)},
			},
			check: IsMissingBinding,
			kind:  "MissingBinding",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSynthesizer(NewRegistry())
			_, err := s.Synthesize("Bad", tt.fields, Uniform)
			if err == nil {
				t.Fatal("Synthesize() succeeded, want error")
			}
			if !tt.check(err) {
				t.Errorf("error kind mismatch: got %v, want %s", err, tt.kind)
			}
		})
	}
}

func TestHostTypeString(t *testing.T) {
	tests := []struct {
		host HostType
		want string
	}{
		{HostType{Kind: HostScalar, Scalar: reflection.Float32}, "f32"},
		{HostType{Kind: HostScalar, Scalar: reflection.Uint32}, "u32"},
		{HostType{Kind: HostVector, Scalar: reflection.Float32, Count: 3}, "vec3<f32>"},
		{HostType{Kind: HostMatrix, Scalar: reflection.Float32, Dim: 4}, "mat4x4<f32>"},
		{HostType{Kind: HostStruct, TypeName: "Sphere"}, "Sphere"},
	}
	for _, tt := range tests {
		if got := tt.host.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
