// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package wgslfront derives shader reflection models directly from WGSL
// source. It parses and lowers the shader with naga, maps the lowered IR's
// globals and entry points onto the reflection data model, and compiles the
// module to SPIR-V in the same pass.
//
// Binding group mapping: every @group with a uniform-space variable becomes
// one parameter block named after that variable; texture and storage
// variables in the same group become the block's resource fields, in
// binding-slot order. A group without a uniform variable has no block to
// anchor its resources and is rejected.
package wgslfront

import (
	"fmt"
	"sort"

	"github.com/gogpu/naga"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/spirv"

	"github.com/gogpu/shadergen/reflection"
)

// Result is one compiled shader: its reflection model and the SPIR-V
// module holding both stages.
type Result struct {
	Model *reflection.Model
	SPIRV []byte
}

// Compile parses, reflects, and compiles one WGSL shader.
func Compile(sourceFileName, source string) (*Result, error) {
	ast, err := naga.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", sourceFileName, err)
	}
	module, err := naga.LowerWithSource(ast, source)
	if err != nil {
		return nil, fmt.Errorf("lower %s: %w", sourceFileName, err)
	}

	model, err := buildModel(sourceFileName, module)
	if err != nil {
		return nil, err
	}

	spv, err := naga.GenerateSPIRV(module, spirv.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("generate SPIR-V for %s: %w", sourceFileName, err)
	}

	return &Result{Model: model, SPIRV: spv}, nil
}

func buildModel(sourceFileName string, m *ir.Module) (*reflection.Model, error) {
	model := &reflection.Model{SourceFileName: sourceFileName}

	for _, ep := range m.EntryPoints {
		switch ep.Stage {
		case ir.StageVertex:
			params, err := vertexParameters(sourceFileName, m, &ep.Function)
			if err != nil {
				return nil, err
			}
			model.VertexEntryPoint = reflection.EntryPoint{Name: ep.Name, Parameters: params}
		case ir.StageFragment:
			model.FragmentEntryPoint = reflection.EntryPoint{Name: ep.Name}
		}
	}
	if model.VertexEntryPoint.Name == "" {
		return nil, fmt.Errorf("%s: no vertex entry point", sourceFileName)
	}
	if model.FragmentEntryPoint.Name == "" {
		return nil, fmt.Errorf("%s: no fragment entry point", sourceFileName)
	}

	blocks, err := parameterBlocks(sourceFileName, m)
	if err != nil {
		return nil, err
	}
	model.ParameterBlocks = blocks
	return model, nil
}

// vertexParameters maps the vertex entry point's arguments. A builtin
// argument becomes a semantic parameter; a struct argument becomes the
// per-vertex input struct.
func vertexParameters(sourceFileName string, m *ir.Module, fn *ir.Function) ([]reflection.Parameter, error) {
	var params []reflection.Parameter
	for _, arg := range fn.Arguments {
		if arg.Binding != nil {
			if bb, ok := (*arg.Binding).(ir.BuiltinBinding); ok {
				params = append(params, reflection.SemanticParameter{
					Name:     arg.Name,
					Semantic: builtinName(bb.Builtin),
				})
				continue
			}
			// A loose @location attribute on a bare argument has no place
			// in the model; vertex inputs must be grouped in a struct.
			return nil, fmt.Errorf("%s: vertex argument %q: loose attribute parameters are not supported, group vertex inputs in a struct",
				sourceFileName, arg.Name)
		}

		t := m.Types[arg.Type]
		st, ok := t.Inner.(ir.StructType)
		if !ok {
			return nil, fmt.Errorf("%s: vertex argument %q: unsupported parameter type %T",
				sourceFileName, arg.Name, t.Inner)
		}
		fields, err := vertexStructFields(sourceFileName, m, st)
		if err != nil {
			return nil, err
		}
		params = append(params, reflection.StructParameter{TypeName: t.Name, Fields: fields})
	}
	return params, nil
}

// vertexStructFields maps per-vertex struct members. Vertex fetch supplies
// the data, so members carry no buffer bindings.
func vertexStructFields(sourceFileName string, m *ir.Module, st ir.StructType) ([]reflection.Field, error) {
	var fields []reflection.Field
	for _, mem := range st.Members {
		semantic := ""
		if mem.Binding != nil {
			if bb, ok := (*mem.Binding).(ir.BuiltinBinding); ok {
				semantic = builtinName(bb.Builtin)
			}
		}

		switch t := m.Types[mem.Type].Inner.(type) {
		case ir.ScalarType:
			kind, err := scalarKind(t.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: vertex member %q: %w", sourceFileName, mem.Name, err)
			}
			fields = append(fields, reflection.ScalarField{Name: mem.Name, Scalar: kind})

		case ir.VectorType:
			kind, err := scalarKind(t.Scalar.Kind)
			if err != nil {
				return nil, fmt.Errorf("%s: vertex member %q: %w", sourceFileName, mem.Name, err)
			}
			fields = append(fields, reflection.VectorField{
				Name:     mem.Name,
				Element:  kind,
				Count:    uint8(t.Size),
				Semantic: semantic,
			})

		default:
			return nil, fmt.Errorf("%s: vertex member %q: unsupported type %T", sourceFileName, mem.Name, t)
		}
	}
	return fields, nil
}

// parameterBlocks groups bindable globals by @group and maps each group to
// one parameter block anchored by its uniform variable.
func parameterBlocks(sourceFileName string, m *ir.Module) ([]reflection.ParameterBlock, error) {
	type bindingGroup struct {
		uniform   *ir.GlobalVariable
		resources []*ir.GlobalVariable
	}
	groups := make(map[uint32]*bindingGroup)
	var order []uint32

	for i := range m.GlobalVariables {
		g := &m.GlobalVariables[i]
		if g.Binding == nil {
			continue
		}
		bg, ok := groups[g.Binding.Group]
		if !ok {
			bg = &bindingGroup{}
			groups[g.Binding.Group] = bg
			order = append(order, g.Binding.Group)
		}

		switch g.Space {
		case ir.SpaceUniform:
			if bg.uniform != nil {
				return nil, fmt.Errorf("%s: group %d has two uniform variables (%q, %q)",
					sourceFileName, g.Binding.Group, bg.uniform.Name, g.Name)
			}
			bg.uniform = g
		case ir.SpaceStorage:
			bg.resources = append(bg.resources, g)
		case ir.SpaceHandle:
			// Samplers ride along with their textures at the renderer
			// level and have no manifest entry of their own.
			if _, isSampler := m.Types[g.Type].Inner.(ir.SamplerType); isSampler {
				continue
			}
			bg.resources = append(bg.resources, g)
		}
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var blocks []reflection.ParameterBlock
	for _, gid := range order {
		bg := groups[gid]
		if bg.uniform == nil {
			return nil, fmt.Errorf("%s: group %d has resources but no uniform block to anchor them", sourceFileName, gid)
		}

		def, err := structDef(sourceFileName, m, bg.uniform.Type, true)
		if err != nil {
			return nil, fmt.Errorf("%s: uniform %q: %w", sourceFileName, bg.uniform.Name, err)
		}

		sort.Slice(bg.resources, func(i, j int) bool {
			return bg.resources[i].Binding.Binding < bg.resources[j].Binding.Binding
		})
		for _, g := range bg.resources {
			rf, err := resourceField(sourceFileName, m, g)
			if err != nil {
				return nil, err
			}
			def.Fields = append(def.Fields, rf)
		}

		blocks = append(blocks, reflection.ParameterBlock{Name: bg.uniform.Name, ElementType: def})
	}
	return blocks, nil
}

// resourceField maps a texture or storage global to a resource field of its
// group's block.
func resourceField(sourceFileName string, m *ir.Module, g *ir.GlobalVariable) (reflection.ResourceField, error) {
	switch t := m.Types[g.Type].Inner.(type) {
	case ir.ImageType:
		if t.Dim != ir.Dim2D {
			return reflection.ResourceField{}, fmt.Errorf("%s: texture %q: only 2D textures are supported", sourceFileName, g.Name)
		}
		return reflection.ResourceField{Name: g.Name, Shape: reflection.Texture2D}, nil

	case ir.ArrayType:
		switch base := m.Types[t.Base].Inner.(type) {
		case ir.StructType:
			def, err := structDef(sourceFileName, m, t.Base, false)
			if err != nil {
				return reflection.ResourceField{}, fmt.Errorf("%s: storage buffer %q: %w", sourceFileName, g.Name, err)
			}
			return reflection.ResourceField{
				Name:   g.Name,
				Shape:  reflection.StructuredBuffer,
				Result: reflection.StructResult{Struct: def},
			}, nil
		case ir.ScalarType:
			kind, err := scalarKind(base.Kind)
			if err != nil {
				return reflection.ResourceField{}, fmt.Errorf("%s: storage buffer %q: %w", sourceFileName, g.Name, err)
			}
			return reflection.ResourceField{
				Name:   g.Name,
				Shape:  reflection.StructuredBuffer,
				Result: reflection.SliceResult{Element: kind},
			}, nil
		default:
			return reflection.ResourceField{}, fmt.Errorf("%s: storage buffer %q: unsupported element type %T", sourceFileName, g.Name, base)
		}

	case ir.StructType:
		def, err := structDef(sourceFileName, m, g.Type, false)
		if err != nil {
			return reflection.ResourceField{}, fmt.Errorf("%s: storage buffer %q: %w", sourceFileName, g.Name, err)
		}
		return reflection.ResourceField{
			Name:   g.Name,
			Shape:  reflection.StructuredBuffer,
			Result: reflection.StructResult{Struct: def},
		}, nil

	default:
		return reflection.ResourceField{}, fmt.Errorf("%s: resource %q: unsupported type %T", sourceFileName, g.Name, t)
	}
}

// structDef maps a lowered struct type to a reflection definition, with
// member offsets from the IR and sizes computed under the target rule set.
func structDef(sourceFileName string, m *ir.Module, h ir.TypeHandle, uniform bool) (reflection.StructDef, error) {
	t := m.Types[h]
	st, ok := t.Inner.(ir.StructType)
	if !ok {
		return reflection.StructDef{}, fmt.Errorf("type %q is not a struct", t.Name)
	}

	def := reflection.StructDef{TypeName: t.Name}
	for _, mem := range st.Members {
		f, err := memberField(sourceFileName, m, mem, uniform)
		if err != nil {
			return reflection.StructDef{}, err
		}
		def.Fields = append(def.Fields, f)
	}
	return def, nil
}

func memberField(sourceFileName string, m *ir.Module, mem ir.StructMember, uniform bool) (reflection.Field, error) {
	switch t := m.Types[mem.Type].Inner.(type) {
	case ir.ScalarType:
		kind, err := scalarKind(t.Kind)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", mem.Name, err)
		}
		return reflection.ScalarField{
			Name:    mem.Name,
			Scalar:  kind,
			Binding: bind(mem.Offset, uint32(t.Width)),
		}, nil

	case ir.VectorType:
		kind, err := scalarKind(t.Scalar.Kind)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", mem.Name, err)
		}
		return reflection.VectorField{
			Name:    mem.Name,
			Element: kind,
			Count:   uint8(t.Size),
			Binding: bind(mem.Offset, uint32(t.Size)*uint32(t.Scalar.Width)),
		}, nil

	case ir.MatrixType:
		kind, err := scalarKind(t.Scalar.Kind)
		if err != nil {
			return nil, fmt.Errorf("member %q: %w", mem.Name, err)
		}
		return reflection.MatrixField{
			Name:    mem.Name,
			Element: kind,
			Rows:    uint8(t.Rows),
			Cols:    uint8(t.Columns),
			Binding: bind(mem.Offset, matrixSize(t, uniform)),
		}, nil

	case ir.StructType:
		def, err := structDef(sourceFileName, m, mem.Type, uniform)
		if err != nil {
			return nil, err
		}
		return reflection.StructField{
			Name:    mem.Name,
			Struct:  def,
			Binding: bind(mem.Offset, structSpan(t, uniform)),
		}, nil

	default:
		return nil, fmt.Errorf("member %q: unsupported type %T", mem.Name, t)
	}
}

// structSpan computes a nested struct member's byte size. The IR reports
// the struct's natural span; uniform rules occupy struct members at
// 16-byte granularity.
func structSpan(t ir.StructType, uniform bool) uint32 {
	if uniform {
		return (t.Span + 15) &^ 15
	}
	return t.Span
}

// matrixSize computes a matrix member's byte size: columns at their column
// stride. Uniform rules round the column stride up to 16.
func matrixSize(t ir.MatrixType, uniform bool) uint32 {
	stride := uint32(t.Rows) * uint32(t.Scalar.Width)
	switch {
	case uniform && stride < 16:
		stride = 16
	case t.Rows == 3:
		// A 3-component column always occupies 4-component granularity.
		stride = 4 * uint32(t.Scalar.Width)
	}
	return uint32(t.Columns) * stride
}

func scalarKind(k ir.ScalarKind) (reflection.ScalarKind, error) {
	switch k {
	case ir.ScalarFloat:
		return reflection.Float32, nil
	case ir.ScalarUint:
		return reflection.Uint32, nil
	case ir.ScalarSint:
		return reflection.Int32, nil
	default:
		return 0, fmt.Errorf("scalar kind %d has no host representation", k)
	}
}

func builtinName(b ir.BuiltinValue) string {
	switch b {
	case ir.BuiltinPosition:
		return "position"
	case ir.BuiltinVertexIndex:
		return "vertex_index"
	case ir.BuiltinInstanceIndex:
		return "instance_index"
	case ir.BuiltinFrontFacing:
		return "front_facing"
	default:
		return fmt.Sprintf("builtin_%d", b)
	}
}

func bind(offset, size uint32) *reflection.BufferBinding {
	return &reflection.BufferBinding{Offset: offset, Size: size}
}
