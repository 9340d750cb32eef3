// Package schema defines the inferred schema model and the artifact
// contract shared by the JSON Schema and XSD renderers.
//
// A Fragment is a pure projection of one document node. It is built bottom-up
// by the inferencer and never mutated afterwards, so fragments may be shared
// freely across goroutines.
package schema

import (
	"sort"

	j "github.com/goccy/go-json"
)

// Kind is the type of a non-union fragment.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindNull    Kind = "null"
	KindObject  Kind = "object"
	KindArray   Kind = "array"
)

// IsScalar reports whether k is one of the leaf kinds.
func (k Kind) IsScalar() bool {
	switch k {
	case KindString, KindNumber, KindBoolean, KindNull:
		return true
	}
	return false
}

// Advisory string formats. They are metadata only and never asserted by a
// validator.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
	FormatURI      = "uri"
)

// Fragment is the inferred schema of one node.
//
// A union fragment has an empty Kind and at least two AnyOf members. Object
// fragments carry Properties, and for XML input Attributes and, when the
// element has text next to its children or attributes, Text. Array fragments
// carry Items when the sample had at least one item.
type Fragment struct {
	Kind     Kind   `json:"kind,omitempty"`
	Format   string `json:"format,omitempty"`
	Nullable bool   `json:"nullable,omitempty"`

	Properties []*Property `json:"properties,omitempty"`
	Attributes []*Property `json:"attributes,omitempty"`
	Text       *Fragment   `json:"text,omitempty"`

	Items *Fragment   `json:"items,omitempty"`
	AnyOf []*Fragment `json:"anyOf,omitempty"`
}

// Property is a named member of an object fragment.
type Property struct {
	Name     string    `json:"name"`
	Required bool      `json:"required,omitempty"`
	Schema   *Fragment `json:"schema"`
}

// Scalar returns a leaf fragment.
func Scalar(k Kind) *Fragment { return &Fragment{Kind: k} }

// Object returns an object fragment with props sorted by name.
func Object(props ...*Property) *Fragment {
	return &Fragment{Kind: KindObject, Properties: SortProperties(props)}
}

// Array returns an array fragment.
func Array(items *Fragment) *Fragment { return &Fragment{Kind: KindArray, Items: items} }

// Union returns a union over members, or the single member when only one is
// given.
func Union(members ...*Fragment) *Fragment {
	if len(members) == 1 {
		return members[0]
	}
	return &Fragment{AnyOf: members}
}

// SortProperties sorts props by name in place and returns it.
func SortProperties(props []*Property) []*Property {
	sort.SliceStable(props, func(a, b int) bool { return props[a].Name < props[b].Name })
	return props
}

// IsUnion reports whether f is an anyOf over several fragments.
func (f *Fragment) IsUnion() bool { return f != nil && f.Kind == "" && len(f.AnyOf) > 0 }

// Required returns the names of the required properties in name order.
func (f *Fragment) Required() []string {
	if f == nil {
		return nil
	}
	var out []string
	for _, p := range f.Properties {
		if p.Required {
			out = append(out, p.Name)
		}
	}
	return out
}

// Property looks up a property by name.
func (f *Fragment) Property(name string) (*Property, bool) { return lookup(f.propertyList(), name) }

// Attribute looks up an attribute by name.
func (f *Fragment) Attribute(name string) (*Property, bool) {
	if f == nil {
		return nil, false
	}
	return lookup(f.Attributes, name)
}

func (f *Fragment) propertyList() []*Property {
	if f == nil {
		return nil
	}
	return f.Properties
}

func lookup(ps []*Property, name string) (*Property, bool) {
	i := sort.Search(len(ps), func(i int) bool { return ps[i].Name >= name })
	if i < len(ps) && ps[i].Name == name {
		return ps[i], true
	}
	return nil, false
}

// WithNullable returns a copy of f marked nullable. Fragments of kind null are
// returned unchanged.
func (f *Fragment) WithNullable() *Fragment {
	if f == nil || f.Kind == KindNull || f.Nullable {
		return f
	}
	cp := *f
	cp.Nullable = true
	return &cp
}

// Key is a canonical encoding of f. Two fragments are structurally identical
// exactly when their keys are equal.
func (f *Fragment) Key() string {
	b, err := j.Marshal(f)
	if err != nil {
		return ""
	}
	return string(b)
}

// Equal reports whether a and b are structurally identical.
func Equal(a, b *Fragment) bool { return a.Key() == b.Key() }
