package ctxrun

import (
	"bytes"
	"encoding/json"
)

// SchemaKind discriminates which of the three Schema variants is populated.
type SchemaKind int

const (
	SchemaObject SchemaKind = iota
	SchemaRef
	SchemaNull
)

// Schema is the JSON Schema / OpenAPI subset accepted by the remote model
// API: a $ref string, a null sentinel, or an object of constraint fields.
// Only non-default object fields are serialized.
type Schema struct {
	Kind SchemaKind

	Ref string

	Type        string            `json:"type,omitempty"`
	Enum        []string          `json:"enum,omitempty"`
	Required    []string          `json:"required,omitempty"`
	Nullable    bool              `json:"nullable,omitempty"`
	Properties  map[string]Schema `json:"properties,omitempty"`
	Description string            `json:"description,omitempty"`
	Format      string            `json:"format,omitempty"`
	Items       *Schema           `json:"items,omitempty"`
}

// IsNull reports whether s is the null-sentinel variant.
func (s Schema) IsNull() bool {
	return s.Kind == SchemaNull
}

// IsZero reports whether s is the default, unset Schema value.
func (s Schema) IsZero() bool {
	return s.Kind == SchemaObject && s.Type == "" && len(s.Enum) == 0 &&
		len(s.Required) == 0 && !s.Nullable && len(s.Properties) == 0 &&
		s.Description == "" && s.Format == "" && s.Items == nil
}

func (s Schema) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case SchemaRef:
		return json.Marshal(s.Ref)
	case SchemaNull:
		return []byte("null"), nil
	default:
		type obj struct {
			Type        string            `json:"type,omitempty"`
			Enum        []string          `json:"enum,omitempty"`
			Required    []string          `json:"required,omitempty"`
			Nullable    bool              `json:"nullable,omitempty"`
			Properties  map[string]Schema `json:"properties,omitempty"`
			Description string            `json:"description,omitempty"`
			Format      string            `json:"format,omitempty"`
			Items       *Schema           `json:"items,omitempty"`
		}
		return json.Marshal(obj{
			Type:        s.Type,
			Enum:        s.Enum,
			Required:    s.Required,
			Nullable:    s.Nullable,
			Properties:  s.Properties,
			Description: s.Description,
			Format:      s.Format,
			Items:       s.Items,
		})
	}
}

func (s *Schema) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		*s = Schema{Kind: SchemaNull}
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var ref string
		if err := json.Unmarshal(trimmed, &ref); err != nil {
			return err
		}
		*s = Schema{Kind: SchemaRef, Ref: ref}
		return nil
	}
	var obj struct {
		Type        string            `json:"type"`
		Enum        []string          `json:"enum"`
		Required    []string          `json:"required"`
		Nullable    bool              `json:"nullable"`
		Properties  map[string]Schema `json:"properties"`
		Description string            `json:"description"`
		Format      string            `json:"format"`
		Items       *Schema           `json:"items"`
	}
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return err
	}
	*s = Schema{
		Kind:        SchemaObject,
		Type:        obj.Type,
		Enum:        obj.Enum,
		Required:    obj.Required,
		Nullable:    obj.Nullable,
		Properties:  obj.Properties,
		Description: obj.Description,
		Format:      obj.Format,
		Items:       obj.Items,
	}
	return nil
}

// SchemaFromAny builds a Schema from a generic TOML-decoded value (the shape
// produced by github.com/BurntSushi/toml when decoding into map[string]any).
// It recognizes the case-sensitive keys Type, Enum, Required, Nullable,
// Properties, Description, Format, Items; unknown keys are ignored.
func SchemaFromAny(v any) Schema {
	switch t := v.(type) {
	case nil:
		return Schema{Kind: SchemaNull}
	case string:
		return Schema{Kind: SchemaRef, Ref: t}
	case map[string]any:
		s := Schema{Kind: SchemaObject}
		if str, ok := t["Type"].(string); ok {
			s.Type = str
		}
		if e, ok := t["Enum"].([]any); ok {
			for _, v := range e {
				if str, ok := v.(string); ok {
					s.Enum = append(s.Enum, str)
				}
			}
		}
		if r, ok := t["Required"].([]any); ok {
			for _, v := range r {
				if str, ok := v.(string); ok {
					s.Required = append(s.Required, str)
				}
			}
		}
		if n, ok := t["Nullable"].(bool); ok {
			s.Nullable = n
		}
		if p, ok := t["Properties"].(map[string]any); ok {
			s.Properties = make(map[string]Schema, len(p))
			for k, v := range p {
				s.Properties[k] = SchemaFromAny(v)
			}
		}
		if d, ok := t["Description"].(string); ok {
			s.Description = d
		}
		if f, ok := t["Format"].(string); ok {
			s.Format = f
		}
		if it, ok := t["Items"]; ok {
			items := SchemaFromAny(it)
			s.Items = &items
		}
		return s
	default:
		return Schema{Kind: SchemaObject}
	}
}
