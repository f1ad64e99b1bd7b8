// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gen

import (
	"fmt"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/manifest"
)

// Shader is everything the emitter needs to render one shader module.
type Shader struct {
	// Name is the shader's snake_case base name, e.g. "koch_curve". All
	// emitted symbols are prefixed with its exported form.
	Name string

	// SourceFileName is the shader source this module describes.
	SourceFileName string

	// VertexEntryPoint and FragmentEntryPoint name the stage entry points.
	VertexEntryPoint   string
	FragmentEntryPoint string

	Manifest       *manifest.Manifest
	Classification *manifest.Classification

	// SPVFile is the embed path of the compiled module, relative to the
	// output directory. An empty path emits a module without embedded code.
	SPVFile string
}

// EmitShader renders one shader's module: a Shader value implementing
// render.Shader, a Resources struct enumerating every external resource in
// binding order, and the factory turning Resources into a pipeline
// configuration.
func EmitShader(pkg string, s *Shader) ([]byte, error) {
	prefix := exportName(s.Name)
	varPrefix := unexportName(s.Name)

	w := newWriter(pkg)

	var std []string
	if s.SPVFile != "" {
		std = append(std, `_ "embed"`)
	}
	// The VertexLayouts signature references gputypes even when the shader
	// has no vertex input.
	mod := []string{
		`"github.com/gogpu/gputypes"`,
		`"github.com/gogpu/shadergen/render"`,
	}
	w.writeImports(std, mod)

	if s.SPVFile != "" {
		w.writeLine("")
		w.writeLine("//go:embed %s", s.SPVFile)
		w.writeLine("var %sSPV []byte", varPrefix)
	}

	writeShaderType(w, prefix, varPrefix, s)
	if err := writeResourcesType(w, prefix, s); err != nil {
		return nil, err
	}
	writePipelineFactory(w, prefix, s)

	return []byte(w.String()), nil
}

// writeShaderType emits the render.Shader implementation.
func writeShaderType(w *Writer, prefix, varPrefix string, s *Shader) {
	w.writeLine("")
	w.writeLine("// %sShader describes the %q shader module.", prefix, s.SourceFileName)
	w.writeLine("type %sShader struct{}", prefix)
	w.writeLine("")
	w.writeLine("func (%sShader) SourceFileName() string { return %q }", prefix, s.SourceFileName)
	w.writeLine("")
	w.writeLine("func (%sShader) VertexEntryPoint() string { return %q }", prefix, s.VertexEntryPoint)
	w.writeLine("")
	w.writeLine("func (%sShader) FragmentEntryPoint() string { return %q }", prefix, s.FragmentEntryPoint)
	w.writeLine("")
	if s.SPVFile != "" {
		w.writeLine("func (%sShader) SPIRV() []byte { return %sSPV }", prefix, varPrefix)
	} else {
		w.writeLine("func (%sShader) SPIRV() []byte { return nil }", prefix)
	}

	w.writeLine("")
	if s.Classification.Draw != manifest.DrawIndexed {
		w.writeLine("func (%sShader) VertexLayouts() []gputypes.VertexBufferLayout { return nil }", prefix)
		return
	}

	vl := s.Classification.Layout
	w.writeLine("func (%sShader) VertexLayouts() []gputypes.VertexBufferLayout {", prefix)
	w.indent++
	w.writeLine("return []gputypes.VertexBufferLayout{{")
	w.indent++
	w.writeLine("ArrayStride: %d,", vl.ArrayStride)
	w.writeLine("StepMode:    gputypes.VertexStepModeVertex,")
	w.writeLine("Attributes: []gputypes.VertexAttribute{")
	w.indent++
	for _, a := range vl.Attributes {
		w.writeLine("{ShaderLocation: %d, Format: gputypes.%s, Offset: %d},",
			a.ShaderLocation, formatIdent(a.Format), a.Offset)
	}
	w.indent--
	w.writeLine("},")
	w.indent--
	w.writeLine("}}")
	w.indent--
	w.writeLine("}")
}

// writeResourcesType emits the binding-ordered Resources struct.
func writeResourcesType(w *Writer, prefix string, s *Shader) error {
	w.writeLine("")
	w.writeLine("// %sResources enumerates, in descriptor binding order, every external", prefix)
	w.writeLine("// resource a caller must supply to draw with this shader.")
	w.writeLine("type %sResources struct {", prefix)
	w.indent++
	for _, e := range s.Manifest.Entries {
		name := exportName(e.FieldName)
		switch e.Kind {
		case manifest.VertexBuffer:
			w.writeLine("%s render.BufferHandle", name)
		case manifest.IndexBuffer:
			w.writeLine("%s render.BufferHandle", name)
			w.writeLine("IndexCount uint32")
		case manifest.VertexCountParameter:
			w.writeLine("%s uint32", name)
		case manifest.Texture:
			w.writeLine("%s render.TextureHandle", name)
		case manifest.UniformBuffer:
			w.writeLine("%s render.UniformBufferHandle[%s]", name, elementType(e.Element))
		case manifest.StorageBuffer:
			w.writeLine("%s render.StorageBufferHandle[%s]", name, elementType(e.Element))
		default:
			return fmt.Errorf("resource %q: no emitted form for kind %s", e.FieldName, e.Kind)
		}
	}
	w.indent--
	w.writeLine("}")
	return nil
}

// writePipelineFactory emits the Resources-to-PipelineConfig factory.
func writePipelineFactory(w *Writer, prefix string, s *Shader) {
	w.writeLine("")
	w.writeLine("// Pipeline builds the renderer configuration for these resources.")
	w.writeLine("func (r %sResources) Pipeline() render.PipelineConfig {", prefix)
	w.indent++
	w.writeLine("return render.PipelineConfig{")
	w.indent++
	w.writeLine("Shader: %sShader{},", prefix)
	if s.Classification.Draw == manifest.DrawIndexed {
		w.writeLine("Draw: render.IndexedDraw{Vertices: r.Vertices, Indices: r.Indices, IndexCount: r.IndexCount},")
	} else {
		w.writeLine("Draw: render.VertexCountDraw{VertexCount: r.VertexCount},")
	}
	w.writeLine("Bindings: []render.Binding{")
	w.indent++
	for _, e := range s.Manifest.Entries {
		name := exportName(e.FieldName)
		switch e.Kind {
		case manifest.Texture:
			w.writeLine("render.TextureBinding{Texture: r.%s},", name)
		case manifest.UniformBuffer:
			w.writeLine("render.UniformBinding{Buffer: r.%s.Raw()},", name)
		case manifest.StorageBuffer:
			w.writeLine("render.StorageBinding{Buffer: r.%s.Raw()},", name)
		}
	}
	w.indent--
	w.writeLine("},")
	w.indent--
	w.writeLine("}")
	w.indent--
	w.writeLine("}")
}

// elementType spells a buffer element for handle typing.
func elementType(h layout.HostType) string {
	if h.Kind == layout.HostStruct {
		return exportName(h.TypeName)
	}
	return goScalar(h.Scalar)
}

// formatIdent names a vertex format constant. Only formats the classifier
// can produce appear here.
func formatIdent(f gputypes.VertexFormat) string {
	switch f {
	case gputypes.VertexFormatFloat32x2:
		return "VertexFormatFloat32x2"
	case gputypes.VertexFormatFloat32x3:
		return "VertexFormatFloat32x3"
	case gputypes.VertexFormatUint32:
		return "VertexFormatUint32"
	default:
		return fmt.Sprintf("VertexFormat(%d)", f)
	}
}
