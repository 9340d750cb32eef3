// Package xsd renders inferred fragments as XML Schema documents.
//
// Every element type is declared inline. The rendered document carries its
// fingerprint twice, as a leading comment for people and inside
// xs:annotation/xs:appinfo together with the canonical fragment, so Decode
// recovers the exact fragment without interpreting XSD.
package xsd

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	j "github.com/goccy/go-json"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

const (
	// Namespace is the XML Schema namespace bound to the xs prefix.
	Namespace = "http://www.w3.org/2001/XMLSchema"

	sourceFingerprint = "urn:schemagen:fingerprint"
	sourceFragment    = "urn:schemagen:fragment"
)

// Options tunes rendering.
type Options struct {
	// TargetNamespace is written as targetNamespace and default namespace
	// when set.
	TargetNamespace string
}

// Codec is the schema.Codec for XSD artifacts.
type Codec struct {
	Options Options
}

var _ schema.Codec = Codec{}

func (Codec) Format() schema.Format { return schema.FormatXML }

// Encode renders the document fragment doc, whose properties are the root
// elements, as an XSD tagged with fingerprint.
func (c Codec) Encode(fingerprint string, doc *schema.Fragment) ([]byte, error) {
	if doc == nil || doc.Kind != schema.KindObject {
		return nil, fmt.Errorf("xsd: document fragment must be an object")
	}
	canonical, err := j.Marshal(doc)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if fingerprint != "" {
		fmt.Fprintf(&buf, "<!-- fingerprint: %s -->\n", fingerprint)
	}
	w := &writer{enc: xml.NewEncoder(&buf)}
	w.enc.Indent("", "  ")

	attrs := []xml.Attr{attr("xmlns:xs", Namespace), attr("elementFormDefault", "qualified")}
	if ns := c.Options.TargetNamespace; ns != "" {
		attrs = append(attrs, attr("targetNamespace", ns), attr("xmlns", ns))
	}
	w.start("schema", attrs...)
	w.start("annotation")
	if fingerprint != "" {
		w.text("appinfo", fingerprint, attr("source", sourceFingerprint))
	}
	w.text("appinfo", string(canonical), attr("source", sourceFragment))
	w.end("annotation")
	for _, p := range doc.Properties {
		w.element(p)
	}
	w.end("schema")
	if err := w.flush(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

type appinfo struct {
	Source string `xml:"source,attr"`
	Text   string `xml:",chardata"`
}

type document struct {
	XMLName xml.Name  `xml:"schema"`
	Appinfo []appinfo `xml:"annotation>appinfo"`
}

// Decode reads an artifact written by Encode.
func (Codec) Decode(b []byte) (string, *schema.Fragment, error) {
	var d document
	if err := xml.Unmarshal(b, &d); err != nil {
		return "", nil, err
	}
	var fp, frag string
	for _, a := range d.Appinfo {
		switch a.Source {
		case sourceFingerprint:
			fp = strings.TrimSpace(a.Text)
		case sourceFragment:
			frag = strings.TrimSpace(a.Text)
		}
	}
	if fp == "" {
		return "", nil, schema.ErrNoFingerprint
	}
	if frag == "" {
		return "", nil, fmt.Errorf("xsd: artifact has no fragment annotation")
	}
	var f schema.Fragment
	if err := j.Unmarshal([]byte(frag), &f); err != nil {
		return "", nil, fmt.Errorf("xsd: fragment annotation: %w", err)
	}
	return fp, &f, nil
}

// writer emits xs:-prefixed tokens and keeps the first error.
type writer struct {
	enc *xml.Encoder
	err error
}

func attr(name, value string) xml.Attr { return xml.Attr{Name: xml.Name{Local: name}, Value: value} }

func xsName(local string) xml.Name { return xml.Name{Local: "xs:" + local} }

func (w *writer) token(t xml.Token) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(t)
	}
}

func (w *writer) start(local string, attrs ...xml.Attr) {
	w.token(xml.StartElement{Name: xsName(local), Attr: attrs})
}

func (w *writer) end(local string) { w.token(xml.EndElement{Name: xsName(local)}) }

func (w *writer) empty(local string, attrs ...xml.Attr) {
	w.start(local, attrs...)
	w.end(local)
}

func (w *writer) text(local, s string, attrs ...xml.Attr) {
	w.start(local, attrs...)
	w.token(xml.CharData(s))
	w.end(local)
}

func (w *writer) flush() error {
	if w.err != nil {
		return w.err
	}
	return w.enc.Flush()
}

// element declares the element for property p.
func (w *writer) element(p *schema.Property) {
	f := p.Schema
	attrs := []xml.Attr{attr("name", p.Name)}
	if !p.Required {
		attrs = append(attrs, attr("minOccurs", "0"))
	}
	if f != nil && f.Kind == schema.KindArray {
		attrs = append(attrs, attr("maxOccurs", "unbounded"))
		f = f.Items
	}
	if f == nil {
		w.empty("element", append(attrs, attr("type", "xs:anyType"))...)
		return
	}
	if f.Kind == schema.KindObject && f.Nullable {
		attrs = append(attrs, attr("nillable", "true"))
	}
	if name, ok := simpleTypeName(f); ok {
		attrs = append(attrs, attr("type", name))
		if f.Format == "" {
			w.empty("element", attrs...)
			return
		}
		w.start("element", attrs...)
		w.documentation("format: " + f.Format)
		w.end("element")
		return
	}
	if f.IsUnion() && !allScalar(f.AnyOf) {
		w.start("element", append(attrs, attr("type", "xs:anyType"))...)
		w.documentation(fmt.Sprintf("one of %d element shapes", len(f.AnyOf)))
		w.end("element")
		return
	}
	w.start("element", attrs...)
	if f.Kind == schema.KindObject {
		w.complexType(f)
	} else {
		w.simpleType(f)
	}
	w.end("element")
}

func (w *writer) documentation(s string) {
	w.start("annotation")
	w.text("documentation", s)
	w.end("annotation")
}

func (w *writer) complexType(f *schema.Fragment) {
	var attrs []xml.Attr
	if f.Text != nil && len(f.Properties) > 0 {
		attrs = append(attrs, attr("mixed", "true"))
	}
	w.start("complexType", attrs...)
	switch {
	case len(f.Properties) > 0:
		group := "all"
		for _, p := range f.Properties {
			if p.Schema != nil && p.Schema.Kind == schema.KindArray {
				group = "sequence"
				break
			}
		}
		w.start(group)
		for _, p := range f.Properties {
			w.element(p)
		}
		w.end(group)
		w.attributes(f.Attributes)
	case f.Text != nil:
		base := "xs:string"
		if name, ok := simpleTypeName(f.Text); ok {
			base = name
		}
		w.start("simpleContent")
		w.start("extension", attr("base", base))
		w.attributes(f.Attributes)
		w.end("extension")
		w.end("simpleContent")
	default:
		w.attributes(f.Attributes)
	}
	w.end("complexType")
}

func (w *writer) attributes(ps []*schema.Property) {
	for _, p := range ps {
		use := "required"
		if !p.Required {
			use = "optional"
		}
		attrs := []xml.Attr{attr("name", p.Name)}
		if name, ok := simpleTypeName(p.Schema); ok {
			w.empty("attribute", append(attrs, attr("type", name), attr("use", use))...)
			continue
		}
		w.start("attribute", append(attrs, attr("use", use))...)
		w.simpleType(p.Schema)
		w.end("attribute")
	}
}

// simpleType writes an anonymous simple type for null, nullable scalars and
// scalar unions.
func (w *writer) simpleType(f *schema.Fragment) {
	w.start("simpleType")
	switch {
	case f == nil:
		w.restriction("xs:string")
	case f.Kind == schema.KindNull:
		w.emptyString()
	case f.IsUnion():
		var members []string
		hasNull := false
		for _, m := range f.AnyOf {
			if m.Kind == schema.KindNull {
				hasNull = true
				continue
			}
			if b := builtin(m.Kind); !contains(members, b) {
				members = append(members, b)
			}
		}
		w.union(members, hasNull || f.Nullable)
	case f.Nullable:
		w.union([]string{builtin(f.Kind)}, true)
	default:
		w.restriction(builtin(f.Kind))
	}
	w.end("simpleType")
}

func (w *writer) restriction(base string) { w.empty("restriction", attr("base", base)) }

func (w *writer) emptyString() {
	w.start("restriction", attr("base", "xs:string"))
	w.empty("length", attr("value", "0"))
	w.end("restriction")
}

func (w *writer) union(members []string, withEmpty bool) {
	var attrs []xml.Attr
	if len(members) > 0 {
		attrs = append(attrs, attr("memberTypes", strings.Join(members, " ")))
	}
	if !withEmpty {
		w.empty("union", attrs...)
		return
	}
	w.start("union", attrs...)
	w.start("simpleType")
	w.emptyString()
	w.end("simpleType")
	w.end("union")
}

// simpleTypeName returns the built-in type for a plain, non-nullable scalar.
func simpleTypeName(f *schema.Fragment) (string, bool) {
	if f == nil || f.Nullable || !f.Kind.IsScalar() || f.Kind == schema.KindNull {
		return "", false
	}
	return builtin(f.Kind), true
}

func builtin(k schema.Kind) string {
	switch k {
	case schema.KindNumber:
		return "xs:double"
	case schema.KindBoolean:
		return "xs:boolean"
	default:
		return "xs:string"
	}
}

func allScalar(fs []*schema.Fragment) bool {
	for _, f := range fs {
		if !f.Kind.IsScalar() || f.Nullable {
			return false
		}
	}
	return true
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
