// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package gen

// EmitAtlas renders the top-level registry: one named field per discovered
// shader, in discovery order, plus an enumeration accessor for renderers
// that precompile every pipeline up front.
func EmitAtlas(pkg string, shaders []*Shader) []byte {
	w := newWriter(pkg)
	w.writeImports(nil, []string{`"github.com/gogpu/shadergen/render"`})

	w.writeLine("")
	w.writeLine("// Atlas exposes every generated shader module.")
	w.writeLine("type Atlas struct {")
	w.indent++
	for _, s := range shaders {
		w.writeLine("%s %sShader", exportName(s.Name), exportName(s.Name))
	}
	w.indent--
	w.writeLine("}")

	w.writeLine("")
	w.writeLine("// Shaders returns every module in discovery order.")
	w.writeLine("func (a Atlas) Shaders() []render.Shader {")
	w.indent++
	w.writeLine("return []render.Shader{")
	w.indent++
	for _, s := range shaders {
		w.writeLine("a.%s,", exportName(s.Name))
	}
	w.indent--
	w.writeLine("}")
	w.indent--
	w.writeLine("}")

	return []byte(w.String())
}
