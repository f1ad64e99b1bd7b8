// Package reflection defines the shader-interface description consumed by
// shadergen.
//
// A Model describes one shader's data interface: its entry points and an
// ordered list of parameter blocks, each a typed field tree. Models are
// produced by an external reflection step (or by the wgslfront package) and
// are read-only input; shadergen never mutates them.
package reflection

// Model describes one shader's complete host-visible interface.
type Model struct {
	// SourceFileName is the shader source file this model was reflected from.
	SourceFileName string

	// VertexEntryPoint is the vertex stage entry point and its parameters.
	VertexEntryPoint EntryPoint

	// FragmentEntryPoint is the fragment stage entry point.
	FragmentEntryPoint EntryPoint

	// ParameterBlocks holds the shader's parameter blocks in declared order.
	// The order is load-bearing: it matches the descriptor binding order the
	// GPU pipeline is built with.
	ParameterBlocks []ParameterBlock
}

// EntryPoint is a shader stage entry point.
type EntryPoint struct {
	Name       string
	Parameters []Parameter
}

// Parameter is an entry point parameter.
type Parameter interface {
	parameter()
}

// SemanticParameter is a pipeline builtin parameter (e.g. the vertex index).
// It carries no host-supplied data.
type SemanticParameter struct {
	Name     string
	Semantic string
}

func (SemanticParameter) parameter() {}

// StructParameter is a full per-vertex input struct.
type StructParameter struct {
	TypeName string
	Fields   []Field
}

func (StructParameter) parameter() {}

// ParameterBlock is a named, reflectable group of shader-visible bindings
// backed by one uniform buffer.
type ParameterBlock struct {
	// Name is the block's parameter name in the shader.
	Name string

	// ElementType is the block's element struct.
	ElementType StructDef
}

// StructDef is a named field tree.
type StructDef struct {
	TypeName string
	Fields   []Field
}

// ScalarKind identifies a 4-byte scalar type.
type ScalarKind uint8

const (
	Float32 ScalarKind = iota
	Uint32
	Int32
)

// String returns the shader-side spelling of the scalar kind.
func (k ScalarKind) String() string {
	switch k {
	case Float32:
		return "f32"
	case Uint32:
		return "u32"
	case Int32:
		return "i32"
	default:
		return "unknown"
	}
}

// BufferBinding reports a field's offset and size in the containing buffer's
// native layout, as reported by the reflector.
type BufferBinding struct {
	Offset uint32
	Size   uint32
}

// Field is one field of a struct or parameter block.
type Field interface {
	field()

	// FieldName returns the field's shader-side name.
	FieldName() string
}

// ScalarField is a scalar struct field.
type ScalarField struct {
	Name    string
	Scalar  ScalarKind
	Binding *BufferBinding
}

func (ScalarField) field() {}

// FieldName returns the field's shader-side name.
func (f ScalarField) FieldName() string { return f.Name }

// VectorField is a vector struct field. A non-empty Semantic marks a
// pipeline builtin carrying no host data; semantic fields have no binding
// and occupy no host layout space.
type VectorField struct {
	Name     string
	Element  ScalarKind
	Count    uint8
	Semantic string
	Binding  *BufferBinding
}

func (VectorField) field() {}

// FieldName returns the field's shader-side name.
func (f VectorField) FieldName() string { return f.Name }

// MatrixField is a matrix struct field.
type MatrixField struct {
	Name    string
	Element ScalarKind
	Rows    uint8
	Cols    uint8
	Binding *BufferBinding
}

func (MatrixField) field() {}

// FieldName returns the field's shader-side name.
func (f MatrixField) FieldName() string { return f.Name }

// StructField is a nested struct field.
type StructField struct {
	Name    string
	Struct  StructDef
	Binding *BufferBinding
}

func (StructField) field() {}

// FieldName returns the field's shader-side name.
func (f StructField) FieldName() string { return f.Name }

// ResourceShape identifies the kind of a resource field.
type ResourceShape uint8

const (
	Texture2D ResourceShape = iota
	StructuredBuffer
)

// String returns a human-readable shape name.
func (s ResourceShape) String() string {
	switch s {
	case Texture2D:
		return "texture_2d"
	case StructuredBuffer:
		return "structured_buffer"
	default:
		return "unknown"
	}
}

// ResourceField is an external resource (texture, storage buffer) declared
// inside a parameter block. Resource fields carry no binding and never
// occupy host layout space; they surface as required resources instead.
type ResourceField struct {
	Name   string
	Shape  ResourceShape
	Result ResourceResult
}

func (ResourceField) field() {}

// FieldName returns the field's shader-side name.
func (f ResourceField) FieldName() string { return f.Name }

// ResourceResult is the element type of a buffer-shaped resource.
type ResourceResult interface {
	resourceResult()
}

// SliceResult is a scalar-element buffer result.
type SliceResult struct {
	Element ScalarKind
}

func (SliceResult) resourceResult() {}

// StructResult is a struct-element buffer result. The element struct gets
// its own storage-rule layout during synthesis.
type StructResult struct {
	Struct StructDef
}

func (StructResult) resourceResult() {}
