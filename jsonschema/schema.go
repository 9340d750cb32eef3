// Package jsonschema renders inferred fragments as JSON Schema draft-07
// documents and reads them back.
package jsonschema

import (
	"errors"
	"fmt"
	"sort"

	j "github.com/goccy/go-json"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

// Draft07 is the $schema URI written at the top of every document.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Schema is the JSON Schema representation used for export.
type Schema struct {
	// Top level only.
	SchemaURI   string `json:"$schema,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	// Core. Type is a string, or a [base, "null"] list for nullable fragments.
	Type    any    `json:"type,omitempty"`
	XFormat string `json:"x-format,omitempty"`

	// Object
	Properties map[string]*Schema `json:"properties,omitempty"`
	Required   []string           `json:"required,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`

	// Union
	AnyOf     []*Schema `json:"anyOf,omitempty"`
	XNullable bool      `json:"x-nullable,omitempty"`
}

// ErrXMLContent is returned when a fragment inferred from XML carries
// attributes or element text, which have no JSON Schema rendering.
var ErrXMLContent = errors.New("fragment carries XML attributes or text")

// FromFragment converts f into a Schema.
func FromFragment(f *schema.Fragment) (*Schema, error) {
	if f == nil {
		return &Schema{}, nil
	}
	if len(f.Attributes) > 0 || f.Text != nil {
		return nil, ErrXMLContent
	}
	out := &Schema{XFormat: f.Format}
	if f.IsUnion() {
		out.XNullable = f.Nullable
		for _, m := range f.AnyOf {
			s, err := FromFragment(m)
			if err != nil {
				return nil, err
			}
			out.AnyOf = append(out.AnyOf, s)
		}
		return out, nil
	}
	if f.Nullable {
		out.Type = []string{string(f.Kind), string(schema.KindNull)}
	} else {
		out.Type = string(f.Kind)
	}
	switch f.Kind {
	case schema.KindObject:
		out.Required = f.Required()
		if len(f.Properties) > 0 {
			out.Properties = make(map[string]*Schema, len(f.Properties))
		}
		for _, p := range f.Properties {
			s, err := FromFragment(p.Schema)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", p.Name, err)
			}
			out.Properties[p.Name] = s
		}
	case schema.KindArray:
		if f.Items != nil {
			s, err := FromFragment(f.Items)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			out.Items = s
		}
	}
	return out, nil
}

// ToFragment converts s back into a fragment. It accepts exactly the shapes
// FromFragment produces.
func ToFragment(s *Schema) (*schema.Fragment, error) {
	if s == nil {
		return nil, errors.New("nil schema")
	}
	f := &schema.Fragment{Format: s.XFormat}
	if len(s.AnyOf) > 0 {
		f.Nullable = s.XNullable
		for i, m := range s.AnyOf {
			mf, err := ToFragment(m)
			if err != nil {
				return nil, fmt.Errorf("anyOf[%d]: %w", i, err)
			}
			f.AnyOf = append(f.AnyOf, mf)
		}
		return f, nil
	}
	kind, nullable, err := parseType(s.Type)
	if err != nil {
		return nil, err
	}
	f.Kind, f.Nullable = kind, nullable
	switch kind {
	case schema.KindObject:
		required := make(map[string]bool, len(s.Required))
		for _, r := range s.Required {
			if _, ok := s.Properties[r]; !ok {
				return nil, fmt.Errorf("required property %q is not declared", r)
			}
			required[r] = true
		}
		names := make([]string, 0, len(s.Properties))
		for name := range s.Properties {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			pf, err := ToFragment(s.Properties[name])
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", name, err)
			}
			f.Properties = append(f.Properties, &schema.Property{Name: name, Required: required[name], Schema: pf})
		}
	case schema.KindArray:
		if s.Items != nil {
			it, err := ToFragment(s.Items)
			if err != nil {
				return nil, fmt.Errorf("items: %w", err)
			}
			f.Items = it
		}
	}
	return f, nil
}

func parseType(v any) (schema.Kind, bool, error) {
	switch t := v.(type) {
	case string:
		k := schema.Kind(t)
		if !validKind(k) {
			return "", false, fmt.Errorf("unsupported type %q", t)
		}
		return k, false, nil
	case []any:
		if len(t) == 2 {
			base, _ := t[0].(string)
			null, _ := t[1].(string)
			if validKind(schema.Kind(base)) && schema.Kind(null) == schema.KindNull {
				return schema.Kind(base), true, nil
			}
		}
		return "", false, fmt.Errorf("unsupported type list %v", t)
	case nil:
		return "", false, errors.New("missing type")
	}
	return "", false, fmt.Errorf("unsupported type %v", v)
}

func validKind(k schema.Kind) bool {
	return k.IsScalar() || k == schema.KindObject || k == schema.KindArray
}

// Codec is the schema.Codec for JSON Schema artifacts.
type Codec struct{}

var _ schema.Codec = Codec{}

func (Codec) Format() schema.Format { return schema.FormatJSON }

// Encode renders f as an indented draft-07 document tagged with fingerprint.
func (Codec) Encode(fingerprint string, f *schema.Fragment) ([]byte, error) {
	s, err := FromFragment(f)
	if err != nil {
		return nil, err
	}
	s.SchemaURI = Draft07
	s.Fingerprint = fingerprint
	b, err := j.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// Decode parses an artifact written by Encode.
func (Codec) Decode(b []byte) (string, *schema.Fragment, error) {
	var s Schema
	if err := j.Unmarshal(b, &s); err != nil {
		return "", nil, err
	}
	if s.Fingerprint == "" {
		return "", nil, schema.ErrNoFingerprint
	}
	f, err := ToFragment(&s)
	if err != nil {
		return "", nil, err
	}
	return s.Fingerprint, f, nil
}
