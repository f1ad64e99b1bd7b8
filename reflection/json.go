package reflection

import (
	"encoding/json"
	"fmt"
)

// The reflection file format is JSON with tagged variants: every field and
// parameter object carries a "kind" discriminator. The schema is stable and
// treated as trusted, schema-valid input; anything that fails to decode is a
// hard error.

type modelJSON struct {
	SourceFileName     string         `json:"source_file_name"`
	VertexEntryPoint   entryPointJSON `json:"vertex_entry_point"`
	FragmentEntryPoint entryPointJSON `json:"fragment_entry_point"`
	ParameterBlocks    []blockJSON    `json:"parameter_blocks"`
}

type entryPointJSON struct {
	EntryPointName string            `json:"entry_point_name"`
	Parameters     []json.RawMessage `json:"parameters,omitempty"`
}

type blockJSON struct {
	ParameterName string        `json:"parameter_name"`
	ElementType   structDefJSON `json:"element_type"`
}

type structDefJSON struct {
	TypeName string            `json:"type_name"`
	Fields   []json.RawMessage `json:"fields"`
}

type fieldJSON struct {
	Kind        string         `json:"kind"`
	Name        string         `json:"name,omitempty"`
	Scalar      string         `json:"scalar,omitempty"`
	Element     string         `json:"element,omitempty"`
	Count       uint8          `json:"count,omitempty"`
	Rows        uint8          `json:"rows,omitempty"`
	Cols        uint8          `json:"cols,omitempty"`
	Semantic    string         `json:"semantic,omitempty"`
	Shape       string         `json:"shape,omitempty"`
	TypeName    string         `json:"type_name,omitempty"`
	ElementType *structDefJSON `json:"element_type,omitempty"`
	Result      *resultJSON    `json:"result,omitempty"`
	Binding     *BufferBinding `json:"binding,omitempty"`
}

type resultJSON struct {
	Kind        string         `json:"kind"`
	Element     string         `json:"element,omitempty"`
	ElementType *structDefJSON `json:"element_type,omitempty"`
}

type bindingJSON struct {
	Offset uint32 `json:"offset"`
	Size   uint32 `json:"size"`
}

// MarshalJSON encodes the binding with explicit offset and size keys.
func (b BufferBinding) MarshalJSON() ([]byte, error) {
	return json.Marshal(bindingJSON{Offset: b.Offset, Size: b.Size})
}

// UnmarshalJSON decodes the binding from its offset and size keys.
func (b *BufferBinding) UnmarshalJSON(data []byte) error {
	var raw bindingJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	b.Offset = raw.Offset
	b.Size = raw.Size
	return nil
}

// ParseModel decodes a reflection JSON document.
func ParseModel(data []byte) (*Model, error) {
	var raw modelJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("reflection: decode model: %w", err)
	}

	vert, err := decodeEntryPoint(raw.VertexEntryPoint)
	if err != nil {
		return nil, fmt.Errorf("reflection: vertex entry point: %w", err)
	}
	frag, err := decodeEntryPoint(raw.FragmentEntryPoint)
	if err != nil {
		return nil, fmt.Errorf("reflection: fragment entry point: %w", err)
	}

	blocks := make([]ParameterBlock, 0, len(raw.ParameterBlocks))
	for _, b := range raw.ParameterBlocks {
		def, defErr := decodeStructDef(b.ElementType)
		if defErr != nil {
			return nil, fmt.Errorf("reflection: parameter block %q: %w", b.ParameterName, defErr)
		}
		blocks = append(blocks, ParameterBlock{Name: b.ParameterName, ElementType: def})
	}

	return &Model{
		SourceFileName:     raw.SourceFileName,
		VertexEntryPoint:   vert,
		FragmentEntryPoint: frag,
		ParameterBlocks:    blocks,
	}, nil
}

func decodeEntryPoint(raw entryPointJSON) (EntryPoint, error) {
	ep := EntryPoint{Name: raw.EntryPointName}
	for i, p := range raw.Parameters {
		param, err := decodeParameter(p)
		if err != nil {
			return EntryPoint{}, fmt.Errorf("parameter %d: %w", i, err)
		}
		ep.Parameters = append(ep.Parameters, param)
	}
	return ep, nil
}

func decodeParameter(data json.RawMessage) (Parameter, error) {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	switch raw.Kind {
	case "semantic":
		return SemanticParameter{Name: raw.Name, Semantic: raw.Semantic}, nil
	case "struct":
		var def structDefJSON
		if raw.ElementType != nil {
			def = *raw.ElementType
		} else {
			def = structDefJSON{TypeName: raw.TypeName}
		}
		sd, err := decodeStructDef(def)
		if err != nil {
			return nil, err
		}
		return StructParameter{TypeName: sd.TypeName, Fields: sd.Fields}, nil
	default:
		return nil, fmt.Errorf("unknown parameter kind %q", raw.Kind)
	}
}

func decodeStructDef(raw structDefJSON) (StructDef, error) {
	def := StructDef{TypeName: raw.TypeName}
	for i, f := range raw.Fields {
		field, err := decodeField(f)
		if err != nil {
			return StructDef{}, fmt.Errorf("field %d: %w", i, err)
		}
		def.Fields = append(def.Fields, field)
	}
	return def, nil
}

func decodeField(data json.RawMessage) (Field, error) {
	var raw fieldJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	switch raw.Kind {
	case "scalar":
		kind, err := scalarKind(raw.Scalar)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		return ScalarField{Name: raw.Name, Scalar: kind, Binding: raw.Binding}, nil

	case "vector":
		kind, err := scalarKind(raw.Element)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		return VectorField{
			Name:     raw.Name,
			Element:  kind,
			Count:    raw.Count,
			Semantic: raw.Semantic,
			Binding:  raw.Binding,
		}, nil

	case "matrix":
		kind, err := scalarKind(raw.Element)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		return MatrixField{
			Name:    raw.Name,
			Element: kind,
			Rows:    raw.Rows,
			Cols:    raw.Cols,
			Binding: raw.Binding,
		}, nil

	case "struct":
		if raw.ElementType == nil {
			return nil, fmt.Errorf("field %q: struct field missing element_type", raw.Name)
		}
		def, err := decodeStructDef(*raw.ElementType)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		return StructField{Name: raw.Name, Struct: def, Binding: raw.Binding}, nil

	case "resource":
		shape, err := resourceShape(raw.Shape)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		if raw.Result == nil {
			if shape == Texture2D {
				return ResourceField{Name: raw.Name, Shape: shape}, nil
			}
			return nil, fmt.Errorf("field %q: buffer resource missing result", raw.Name)
		}
		result, err := decodeResult(*raw.Result)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", raw.Name, err)
		}
		return ResourceField{Name: raw.Name, Shape: shape, Result: result}, nil

	default:
		return nil, fmt.Errorf("unknown field kind %q", raw.Kind)
	}
}

func decodeResult(raw resultJSON) (ResourceResult, error) {
	switch raw.Kind {
	case "slice":
		kind, err := scalarKind(raw.Element)
		if err != nil {
			return nil, err
		}
		return SliceResult{Element: kind}, nil
	case "struct":
		if raw.ElementType == nil {
			return nil, fmt.Errorf("struct result missing element_type")
		}
		def, err := decodeStructDef(*raw.ElementType)
		if err != nil {
			return nil, err
		}
		return StructResult{Struct: def}, nil
	default:
		return nil, fmt.Errorf("unknown result kind %q", raw.Kind)
	}
}

func scalarKind(name string) (ScalarKind, error) {
	switch name {
	case "f32":
		return Float32, nil
	case "u32":
		return Uint32, nil
	case "i32":
		return Int32, nil
	default:
		return 0, fmt.Errorf("unknown scalar kind %q", name)
	}
}

func resourceShape(name string) (ResourceShape, error) {
	switch name {
	case "texture_2d":
		return Texture2D, nil
	case "structured_buffer":
		return StructuredBuffer, nil
	default:
		return 0, fmt.Errorf("unknown resource shape %q", name)
	}
}

// EncodeModel renders a model back to the reflection JSON format, indented
// for diff-friendly output.
func EncodeModel(m *Model) ([]byte, error) {
	raw := modelJSON{
		SourceFileName:     m.SourceFileName,
		VertexEntryPoint:   encodeEntryPoint(m.VertexEntryPoint),
		FragmentEntryPoint: encodeEntryPoint(m.FragmentEntryPoint),
	}
	for _, b := range m.ParameterBlocks {
		raw.ParameterBlocks = append(raw.ParameterBlocks, blockJSON{
			ParameterName: b.Name,
			ElementType:   encodeStructDef(b.ElementType),
		})
	}
	return json.MarshalIndent(raw, "", "  ")
}

func encodeEntryPoint(ep EntryPoint) entryPointJSON {
	raw := entryPointJSON{EntryPointName: ep.Name}
	for _, p := range ep.Parameters {
		raw.Parameters = append(raw.Parameters, mustRaw(encodeParameter(p)))
	}
	return raw
}

func encodeParameter(p Parameter) fieldJSON {
	switch p := p.(type) {
	case SemanticParameter:
		return fieldJSON{Kind: "semantic", Name: p.Name, Semantic: p.Semantic}
	case StructParameter:
		def := encodeStructDef(StructDef{TypeName: p.TypeName, Fields: p.Fields})
		return fieldJSON{Kind: "struct", ElementType: &def}
	default:
		return fieldJSON{Kind: "unknown"}
	}
}

func encodeStructDef(def StructDef) structDefJSON {
	raw := structDefJSON{TypeName: def.TypeName, Fields: []json.RawMessage{}}
	for _, f := range def.Fields {
		raw.Fields = append(raw.Fields, mustRaw(encodeField(f)))
	}
	return raw
}

func encodeField(f Field) fieldJSON {
	switch f := f.(type) {
	case ScalarField:
		return fieldJSON{Kind: "scalar", Name: f.Name, Scalar: f.Scalar.String(), Binding: f.Binding}
	case VectorField:
		return fieldJSON{
			Kind:     "vector",
			Name:     f.Name,
			Element:  f.Element.String(),
			Count:    f.Count,
			Semantic: f.Semantic,
			Binding:  f.Binding,
		}
	case MatrixField:
		return fieldJSON{
			Kind:    "matrix",
			Name:    f.Name,
			Element: f.Element.String(),
			Rows:    f.Rows,
			Cols:    f.Cols,
			Binding: f.Binding,
		}
	case StructField:
		def := encodeStructDef(f.Struct)
		return fieldJSON{Kind: "struct", Name: f.Name, ElementType: &def, Binding: f.Binding}
	case ResourceField:
		raw := fieldJSON{Kind: "resource", Name: f.Name, Shape: f.Shape.String()}
		switch r := f.Result.(type) {
		case SliceResult:
			raw.Result = &resultJSON{Kind: "slice", Element: r.Element.String()}
		case StructResult:
			def := encodeStructDef(r.Struct)
			raw.Result = &resultJSON{Kind: "struct", ElementType: &def}
		}
		return raw
	default:
		return fieldJSON{Kind: "unknown"}
	}
}

func mustRaw(v fieldJSON) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// fieldJSON contains only marshalable types.
		panic(err)
	}
	return json.RawMessage(data)
}
