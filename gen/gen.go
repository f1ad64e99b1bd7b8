// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package gen renders synthesized layouts and resource manifests into Go
// source text. Emission is a pure function of its inputs: the layout
// algorithm can be tested without any textual concern, and identical
// inputs always produce identical output files.
package gen

import (
	"fmt"
	"strings"

	"github.com/gogpu/shadergen/layout"
	"github.com/gogpu/shadergen/reflection"
)

// header marks every emitted file per the Go generated-code convention.
const header = "// Code generated by shadergen. DO NOT EDIT."

// Writer accumulates one emitted Go source file.
type Writer struct {
	out    strings.Builder
	indent int
}

// newWriter starts a file in the given package.
func newWriter(pkg string) *Writer {
	w := &Writer{}
	w.writeLine(header)
	w.writeLine("")
	w.writeLine("package %s", pkg)
	return w
}

// String returns the emitted source text.
func (w *Writer) String() string {
	return w.out.String()
}

func (w *Writer) writeLine(format string, args ...any) {
	if format != "" {
		w.writeIndent()
	}
	if len(args) == 0 {
		w.out.WriteString(format)
	} else {
		fmt.Fprintf(&w.out, format, args...)
	}
	w.out.WriteByte('\n')
}

func (w *Writer) writeIndent() {
	for i := 0; i < w.indent; i++ {
		w.out.WriteByte('\t')
	}
}

// writeImports emits an import block, stdlib paths before module paths.
func (w *Writer) writeImports(std, mod []string) {
	if len(std) == 0 && len(mod) == 0 {
		return
	}
	w.writeLine("")
	w.writeLine("import (")
	for _, p := range std {
		w.writeLine("\t%s", p)
	}
	if len(std) > 0 && len(mod) > 0 {
		w.writeLine("")
	}
	for _, p := range mod {
		w.writeLine("\t%s", p)
	}
	w.writeLine(")")
}

// goScalar maps a shader scalar kind to its host type.
func goScalar(k reflection.ScalarKind) string {
	switch k {
	case reflection.Uint32:
		return "uint32"
	case reflection.Int32:
		return "int32"
	default:
		return "float32"
	}
}

// goFieldType maps a data field to its host declaration and the number of
// bytes that declaration occupies. When the reported field size exceeds the
// host size (a 3-vector reported at 4-vector granularity), the caller emits
// blank filler for the difference.
func goFieldType(f layout.DataField) (string, uint32) {
	switch f.Host.Kind {
	case layout.HostScalar:
		return goScalar(f.Host.Scalar), 4

	case layout.HostVector:
		return fmt.Sprintf("[%d]%s", f.Host.Count, goScalar(f.Host.Scalar)), 4 * uint32(f.Host.Count)

	case layout.HostMatrix:
		// Columns are stored at the reported column stride, so the host
		// array absorbs any per-column padding and occupies the full
		// reported size.
		cols := f.Size / uint32(f.Host.Dim) / 4
		return fmt.Sprintf("[%d][%d]%s", f.Host.Dim, cols, goScalar(f.Host.Scalar)), f.Size

	default:
		// Nested structs carry their own trailing padding, so the
		// registered type's size equals the reported size.
		return exportName(f.Host.TypeName), f.Size
	}
}

// EmitTypes renders every registered type, in registration order, into one
// shared source file. Each type gets a compile-time size assertion; the
// assertion fails to compile if the host layout ever drifts from the
// synthesized one.
func EmitTypes(pkg string, reg *layout.Registry) []byte {
	w := newWriter(pkg)
	if reg.Len() > 0 {
		w.writeImports([]string{`"unsafe"`}, nil)
	}

	for _, t := range reg.Types() {
		w.writeLine("")
		switch t.Kind {
		case layout.Vertex:
			w.writeLine("// %s is a packed per-vertex input (stride %d).", exportName(t.Name), t.Size)
		default:
			w.writeLine("// %s is a %s buffer element (align %d, size %d).", exportName(t.Name), t.Kind, t.Alignment, t.Size)
		}
		w.writeLine("type %s struct {", exportName(t.Name))
		w.indent++
		for _, f := range t.Fields {
			switch f := f.(type) {
			case layout.DataField:
				decl, hostSize := goFieldType(f)
				w.writeLine("%s %s", exportName(f.Name), decl)
				if hostSize < f.Size {
					w.writeLine("_ [%d]byte", f.Size-hostSize)
				}
			case layout.PaddingField:
				w.writeLine("_ [%d]byte", f.Bytes)
			}
		}
		w.indent--
		w.writeLine("}")
		w.writeLine("")
		w.writeLine("var _ [%d]byte = [unsafe.Sizeof(%s{})]byte{}", t.Size, exportName(t.Name))
	}

	return []byte(w.String())
}
