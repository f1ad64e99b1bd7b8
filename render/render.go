// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package render is the contract between generated shader modules and the
// runtime renderer. The renderer supplies opaque handles keyed by the
// generated host types, allocates descriptors in the manifest's binding
// order, and issues the draw-call variant the shader was classified with.
package render

import (
	"unsafe"

	"github.com/gogpu/gputypes"
)

// BufferHandle is an opaque renderer-owned buffer slot.
type BufferHandle uint32

// TextureHandle is an opaque renderer-owned texture slot.
type TextureHandle uint32

// UniformBufferHandle is a buffer handle whose contents are values of T,
// laid out under uniform-buffer rules. The type parameter exists purely to
// keep mismatched uploads from compiling.
type UniformBufferHandle[T any] uint32

// Raw strips the element typing for renderer-internal bookkeeping.
func (h UniformBufferHandle[T]) Raw() BufferHandle { return BufferHandle(h) }

// StorageBufferHandle is a buffer handle whose contents are values of T,
// laid out under storage-buffer rules.
type StorageBufferHandle[T any] uint32

// Raw strips the element typing for renderer-internal bookkeeping.
func (h StorageBufferHandle[T]) Raw() BufferHandle { return BufferHandle(h) }

// Shader is one generated shader module's static description.
type Shader interface {
	// SourceFileName names the shader source this module was generated from.
	SourceFileName() string

	// VertexEntryPoint names the vertex stage entry point.
	VertexEntryPoint() string

	// FragmentEntryPoint names the fragment stage entry point.
	FragmentEntryPoint() string

	// SPIRV returns the compiled module holding both stages, or nil when
	// the build did not embed compiled code.
	SPIRV() []byte

	// VertexLayouts returns the vertex fetch configuration. Empty for
	// procedural shaders.
	VertexLayouts() []gputypes.VertexBufferLayout
}

// Draw selects the draw-call variant for one pipeline.
type Draw interface {
	draw()
}

// IndexedDraw consumes a vertex buffer through an index buffer.
type IndexedDraw struct {
	Vertices   BufferHandle
	Indices    BufferHandle
	IndexCount uint32
}

func (IndexedDraw) draw() {}

// VertexCountDraw invokes the vertex stage a fixed number of times with no
// vertex input; the shader derives geometry from the vertex index.
type VertexCountDraw struct {
	VertexCount uint32
}

func (VertexCountDraw) draw() {}

// Binding is one descriptor in pipeline binding order.
type Binding interface {
	binding()
}

// UniformBinding binds a uniform buffer slot.
type UniformBinding struct {
	Buffer BufferHandle
}

func (UniformBinding) binding() {}

// StorageBinding binds a storage buffer slot.
type StorageBinding struct {
	Buffer BufferHandle
}

func (StorageBinding) binding() {}

// TextureBinding binds a sampled texture slot.
type TextureBinding struct {
	Texture TextureHandle
}

func (TextureBinding) binding() {}

// PipelineConfig is everything the renderer needs to build and dispatch one
// pipeline. Bindings are in descriptor binding order; the renderer must
// allocate them in exactly that order.
type PipelineConfig struct {
	Shader   Shader
	Draw     Draw
	Bindings []Binding
}

// AsBytes exposes a generated buffer value as its exact byte image for
// upload. T must be one of the generated layout types; their explicit
// padding makes the image bit-compatible with the GPU's expectation.
func AsBytes[T any](v *T) []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(v)), unsafe.Sizeof(*v))
}

// SliceBytes exposes a slice of generated buffer elements as its exact byte
// image for upload.
func SliceBytes[T any](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), uintptr(len(s))*unsafe.Sizeof(s[0]))
}
