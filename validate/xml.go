package validate

import (
	"context"
	"errors"
	"fmt"

	"github.com/ZyrusAlvez/Schema-Generator/i18n"
	"github.com/ZyrusAlvez/Schema-Generator/infer"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// XML checks an XML document tree against the fragment its XSD was rendered
// from: required and unknown elements and attributes, repetition, lexical
// scalar types and empty content. Element order is not checked.
type XML struct{}

func (XML) Validate(ctx context.Context, in Input) ([]Violation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if in.Document == nil || in.Schema == nil {
		return nil, errors.New("xml validation needs a document tree and a schema")
	}
	var c checker
	c.node(tree.Root, in.Document, in.Schema)
	return sortViolations(c.out), nil
}

type checker struct{ out []Violation }

func (c *checker) add(p tree.Path, code string, data map[string]string) {
	c.out = append(c.out, Violation{Path: p, Code: code, Message: i18n.T(code, data)})
}

func (c *checker) node(p tree.Path, n *tree.Node, f *schema.Fragment) {
	if f == nil {
		return
	}
	switch {
	case f.IsUnion():
		c.union(p, n, f)
	case f.Kind == schema.KindObject:
		c.object(p, n, f)
	case f.Kind == schema.KindArray:
		for _, it := range items(n) {
			c.node(p, it, f.Items)
		}
	default:
		c.scalar(p, n, f)
	}
}

func (c *checker) union(p tree.Path, n *tree.Node, f *schema.Fragment) {
	for _, m := range f.AnyOf {
		var trial checker
		trial.node(p, n, m)
		if len(trial.out) == 0 {
			return
		}
	}
	if f.Nullable && isEmpty(n) {
		return
	}
	c.add(p, CodeNoUnionMatch, map[string]string{"count": fmt.Sprint(len(f.AnyOf))})
}

func (c *checker) object(p tree.Path, n *tree.Node, f *schema.Fragment) {
	if n.Kind == tree.KindSequence {
		c.add(p, CodeInvalidType, map[string]string{"expected": "single element"})
		return
	}
	if f.Nullable && isEmpty(n) {
		return
	}

	var fields, attrs []tree.Field
	text := ""
	if n.Kind == tree.KindContainer {
		fields, attrs = n.Fields, n.Attrs
		if n.Mixed {
			text = n.Value
		}
	} else {
		text = n.Value
	}

	for _, a := range f.Attributes {
		v, ok := lookup(attrs, a.Name)
		if !ok {
			if a.Required {
				c.add(p.Attr(a.Name), CodeRequired, map[string]string{"kind": "attribute", "name": a.Name})
			}
			continue
		}
		c.scalar(p.Attr(a.Name), v, a.Schema)
	}
	for _, a := range attrs {
		if _, ok := f.Attribute(a.Name); !ok {
			c.add(p.Attr(a.Name), CodeUnknownKey, map[string]string{"kind": "attribute", "name": a.Name})
		}
	}

	for _, prop := range f.Properties {
		cp := p.Child(prop.Name)
		child, ok := lookup(fields, prop.Name)
		if !ok {
			if prop.Required {
				c.add(cp, CodeRequired, map[string]string{"kind": "element", "name": prop.Name})
			}
			continue
		}
		if child.Kind == tree.KindSequence && (prop.Schema == nil || prop.Schema.Kind != schema.KindArray) {
			c.add(cp, CodeTooMany, map[string]string{"name": prop.Name})
			continue
		}
		c.node(cp, child, prop.Schema)
	}
	for _, fl := range fields {
		if _, ok := f.Property(fl.Name); !ok {
			c.add(p.Child(fl.Name), CodeUnknownKey, map[string]string{"kind": "element", "name": fl.Name})
		}
	}

	if text == "" {
		return
	}
	if f.Text == nil {
		c.add(p, CodeInvalidType, map[string]string{"expected": "element-only content"})
		return
	}
	c.scalar(p, tree.NewScalar(tree.ScalarText, text), f.Text)
}

func (c *checker) scalar(p tree.Path, n *tree.Node, f *schema.Fragment) {
	if n.Kind != tree.KindScalar {
		c.add(p, CodeInvalidType, map[string]string{"expected": string(f.Kind)})
		return
	}
	if n.Scalar == tree.ScalarNull || n.Value == "" {
		switch {
		case f.Kind == schema.KindNull, f.Kind == schema.KindString, f.Nullable:
		default:
			c.add(p, CodeNotNullable, nil)
		}
		return
	}
	if !lexicalMatch(f.Kind, n.Value) {
		c.add(p, CodeInvalidType, map[string]string{"expected": string(f.Kind)})
	}
}

func lexicalMatch(k schema.Kind, v string) bool {
	switch k {
	case schema.KindBoolean:
		return infer.IsBoolean(v)
	case schema.KindNumber:
		return infer.IsNumber(v) || v == "INF" || v == "-INF" || v == "NaN"
	case schema.KindNull:
		return v == ""
	}
	return true
}

func items(n *tree.Node) []*tree.Node {
	if n.Kind == tree.KindSequence {
		return n.Items
	}
	return []*tree.Node{n}
}

func isEmpty(n *tree.Node) bool {
	return n.Kind == tree.KindScalar && (n.Scalar == tree.ScalarNull || n.Value == "")
}

func lookup(fs []tree.Field, name string) (*tree.Node, bool) {
	for i := len(fs) - 1; i >= 0; i-- {
		if fs[i].Name == name {
			return fs[i].Node, true
		}
	}
	return nil, false
}
