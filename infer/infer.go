// Package infer maps a document tree to its schema fragment.
package infer

import (
	"net/url"
	"regexp"

	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Infer returns the fragment of root under pol, or nil when the root path
// itself is excluded.
func Infer(root *tree.Node, pol *policy.Policy) *schema.Fragment {
	return field(tree.Root, root, pol)
}

// field applies the policy of p to the fragment of n. Policy is a property of
// named positions, so sequence items never pass through here.
func field(p tree.Path, n *tree.Node, pol *policy.Policy) *schema.Fragment {
	if pol.IsExcluded(p) {
		return nil
	}
	f := node(p, n, pol)
	if pol.IsNullable(p) {
		f = f.WithNullable()
	}
	return f
}

func node(p tree.Path, n *tree.Node, pol *policy.Policy) *schema.Fragment {
	switch n.Kind {
	case tree.KindContainer:
		return container(p, n, pol)
	case tree.KindSequence:
		return sequence(p, n, pol)
	default:
		return Scalar(n.Scalar, n.Value)
	}
}

func container(p tree.Path, n *tree.Node, pol *policy.Policy) *schema.Fragment {
	f := &schema.Fragment{Kind: schema.KindObject}
	for _, a := range n.SortedAttrs() {
		ap := p.Attr(a.Name)
		if af := field(ap, a.Node, pol); af != nil {
			f.Attributes = append(f.Attributes, &schema.Property{Name: a.Name, Required: !pol.IsOptional(ap), Schema: af})
		}
	}
	for _, c := range n.SortedFields() {
		cp := p.Child(c.Name)
		if cf := field(cp, c.Node, pol); cf != nil {
			f.Properties = append(f.Properties, &schema.Property{Name: c.Name, Required: !pol.IsOptional(cp), Schema: cf})
		}
	}
	if n.Mixed {
		f.Text = Scalar(tree.ScalarText, n.Value)
	}
	return f
}

func sequence(p tree.Path, n *tree.Node, pol *policy.Policy) *schema.Fragment {
	var (
		distinct []*schema.Fragment
		seen     = make(map[string]struct{})
	)
	for _, it := range n.Items {
		f := node(p, it, pol)
		k := f.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		distinct = append(distinct, f)
	}
	if len(distinct) == 0 {
		return schema.Array(nil)
	}
	return schema.Array(schema.Union(distinct...))
}

var (
	numberRe   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
	dateRe     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	dateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}`)
)

// Scalar returns the fragment of a scalar value. Typed values keep their
// type; text is classified lexically with boolean taking priority over
// number, and number over string. Strings get an advisory format.
func Scalar(t tree.ScalarType, value string) *schema.Fragment {
	var k schema.Kind
	switch t {
	case tree.ScalarString:
		k = schema.KindString
	case tree.ScalarNumber:
		k = schema.KindNumber
	case tree.ScalarBool:
		k = schema.KindBoolean
	case tree.ScalarNull:
		k = schema.KindNull
	default:
		k = ClassifyText(value)
	}
	f := schema.Scalar(k)
	if k == schema.KindString {
		f.Format = AdvisoryFormat(value)
	}
	return f
}

// ClassifyText returns the kind of untyped text.
func ClassifyText(s string) schema.Kind {
	switch {
	case s == "":
		return schema.KindNull
	case IsBoolean(s):
		return schema.KindBoolean
	case IsNumber(s):
		return schema.KindNumber
	}
	return schema.KindString
}

// IsBoolean reports whether s is an xs:boolean literal.
func IsBoolean(s string) bool { return s == "true" || s == "false" || s == "1" || s == "0" }

// IsNumber reports whether s is an integer or decimal literal.
func IsNumber(s string) bool { return numberRe.MatchString(s) }

// AdvisoryFormat returns "date", "date-time", "uri" or "".
func AdvisoryFormat(s string) string {
	switch {
	case dateRe.MatchString(s):
		return schema.FormatDate
	case dateTimeRe.MatchString(s):
		return schema.FormatDateTime
	}
	if u, err := url.Parse(s); err == nil && u.Scheme != "" && u.Host != "" {
		return schema.FormatURI
	}
	return ""
}
