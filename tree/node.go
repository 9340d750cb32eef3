// Package tree defines the format-neutral document model shared by the JSON
// and XML adapters, together with the canonical field paths and the walker
// that visits a document in a deterministic order.
//
// A tree is built once by an Adapter and never mutated afterwards. It owns no
// back references, so it is safe to hand a finished tree to several readers.
package tree

import (
	"errors"
	"io"
	"sort"
)

// Kind identifies a node type.
type Kind int

const (
	KindScalar Kind = iota
	KindContainer
	KindSequence
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindContainer:
		return "container"
	case KindSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// ScalarType records what the source format already knows about a scalar.
// JSON values arrive typed; XML text arrives as ScalarText and is classified
// lexically by the inferencer.
type ScalarType int

const (
	ScalarText ScalarType = iota
	ScalarString
	ScalarNumber
	ScalarBool
	ScalarNull
)

// ErrMalformedDocument is wrapped by every adapter error caused by input that
// cannot be turned into a tree.
var ErrMalformedDocument = errors.New("malformed document")

// Adapter turns one encoded document into a tree.
type Adapter interface {
	Parse(r io.Reader) (*Node, error)
}

// Node is one position in a document.
type Node struct {
	Kind Kind

	// Scalar and Value describe a scalar. For a mixed container Value holds
	// the text found next to the children.
	Scalar ScalarType
	Value  string
	Mixed  bool

	// Fields are the named children of a container in discovery order.
	Fields []Field
	// Attrs are XML attributes; each attribute node is a ScalarText scalar.
	Attrs []Field

	// Items are the children of a sequence in document order.
	Items []*Node
}

// Field binds a name to a child node.
type Field struct {
	Name string
	Node *Node
}

// NewScalar returns a scalar node.
func NewScalar(t ScalarType, value string) *Node {
	return &Node{Kind: KindScalar, Scalar: t, Value: value}
}

// NewContainer returns a container node over the given fields.
func NewContainer(fields ...Field) *Node {
	return &Node{Kind: KindContainer, Fields: fields}
}

// NewSequence returns a sequence node over the given items.
func NewSequence(items ...*Node) *Node {
	return &Node{Kind: KindSequence, Items: items}
}

// Field looks up a named child. The last field wins when a name repeats.
func (n *Node) Field(name string) (*Node, bool) {
	if n == nil {
		return nil, false
	}
	for i := len(n.Fields) - 1; i >= 0; i-- {
		if n.Fields[i].Name == name {
			return n.Fields[i].Node, true
		}
	}
	return nil, false
}

// Attr looks up an attribute value.
func (n *Node) Attr(name string) (string, bool) {
	if n == nil {
		return "", false
	}
	for i := len(n.Attrs) - 1; i >= 0; i-- {
		if n.Attrs[i].Name == name {
			return n.Attrs[i].Node.Value, true
		}
	}
	return "", false
}

// SortedFields returns the fields ordered by name; ties keep discovery order.
func (n *Node) SortedFields() []Field { return sortedByName(n.Fields) }

// SortedAttrs returns the attributes ordered by name.
func (n *Node) SortedAttrs() []Field { return sortedByName(n.Attrs) }

func sortedByName(in []Field) []Field {
	if len(in) == 0 {
		return nil
	}
	out := make([]Field, len(in))
	copy(out, in)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
