// Package xml adapts XML documents into trees.
//
// The returned tree is a synthetic document container whose only field is the
// root element, so every path starts with the root tag. Children sharing a
// name are grouped into one field in first-seen order; a name seen more than
// once holds a sequence. Names are namespace-stripped and xmlns declarations
// are dropped.
package xml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Options configures the adapter.
type Options struct {
	// MaxDepth bounds element nesting; 0 means unlimited.
	MaxDepth int
}

// Adapter implements tree.Adapter for XML.
type Adapter struct {
	opt Options
}

var _ tree.Adapter = (*Adapter)(nil)

// New returns an XML adapter.
func New(opt Options) *Adapter { return &Adapter{opt: opt} }

// ParseBytes is Parse over a byte slice.
func (a *Adapter) ParseBytes(b []byte) (*tree.Node, error) { return a.Parse(bytes.NewReader(b)) }

type group struct {
	name  string
	nodes []*tree.Node
}

type element struct {
	name   string
	attrs  []tree.Field
	groups []*group
	index  map[string]*group
	text   strings.Builder
}

func (e *element) add(name string, n *tree.Node) {
	g, ok := e.index[name]
	if !ok {
		g = &group{name: name}
		if e.index == nil {
			e.index = make(map[string]*group)
		}
		e.index[name] = g
		e.groups = append(e.groups, g)
	}
	g.nodes = append(g.nodes, n)
}

func (e *element) node() *tree.Node {
	text := strings.TrimSpace(e.text.String())
	if len(e.groups) == 0 && len(e.attrs) == 0 {
		if text == "" {
			return tree.NewScalar(tree.ScalarNull, "")
		}
		return tree.NewScalar(tree.ScalarText, text)
	}
	n := tree.NewContainer()
	n.Attrs = e.attrs
	for _, g := range e.groups {
		child := g.nodes[0]
		if len(g.nodes) > 1 {
			child = tree.NewSequence(g.nodes...)
		}
		n.Fields = append(n.Fields, tree.Field{Name: g.name, Node: child})
	}
	if text != "" {
		n.Mixed = true
		n.Value = text
	}
	return n
}

// Parse reads one XML document from r.
func (a *Adapter) Parse(r io.Reader) (*tree.Node, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = true

	var (
		stack []*element
		root  *tree.Node
	)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %v", tree.ErrMalformedDocument, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if root != nil {
				return nil, fmt.Errorf("%w: more than one root element (<%s> at offset %d)", tree.ErrMalformedDocument, t.Name.Local, dec.InputOffset())
			}
			if a.opt.MaxDepth > 0 && len(stack) >= a.opt.MaxDepth {
				return nil, fmt.Errorf("%w: max depth exceeded at <%s>", tree.ErrMalformedDocument, t.Name.Local)
			}
			stack = append(stack, &element{name: t.Name.Local, attrs: attributes(t.Attr)})
		case xml.EndElement:
			n := len(stack)
			done := stack[n-1]
			stack = stack[:n-1]
			if n == 1 {
				root = tree.NewContainer(tree.Field{Name: done.name, Node: done.node()})
				continue
			}
			stack[n-2].add(done.name, done.node())
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			} else if len(bytes.TrimSpace(t)) > 0 {
				return nil, fmt.Errorf("%w: text outside the root element", tree.ErrMalformedDocument)
			}
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("%w: unexpected end of input inside <%s>", tree.ErrMalformedDocument, stack[len(stack)-1].name)
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", tree.ErrMalformedDocument)
	}
	return root, nil
}

func attributes(in []xml.Attr) []tree.Field {
	var out []tree.Field
	for _, at := range in {
		if at.Name.Space == "xmlns" || (at.Name.Space == "" && at.Name.Local == "xmlns") {
			continue
		}
		v := strings.TrimSpace(at.Value)
		st := tree.ScalarText
		if v == "" {
			st = tree.ScalarNull
		}
		out = append(out, tree.Field{Name: at.Name.Local, Node: tree.NewScalar(st, v)})
	}
	return out
}

// Namespace returns the namespace URI of the root element of the document in
// r, or "" when it has none.
func Namespace(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: no root element", tree.ErrMalformedDocument)
			}
			return "", fmt.Errorf("%w: %v", tree.ErrMalformedDocument, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se.Name.Space, nil
		}
	}
}
