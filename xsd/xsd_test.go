package xsd_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
	"github.com/ZyrusAlvez/Schema-Generator/xsd"
)

const fp = "6027f987c349e3356dfabfa3f717f5add5017246999fb46e2f34075979d7c059"

func prop(name string, required bool, f *schema.Fragment) *schema.Property {
	return &schema.Property{Name: name, Required: required, Schema: f}
}

func catalog() *schema.Fragment {
	book := schema.Object(
		prop("title", true, schema.Scalar(schema.KindString)),
		prop("price", false, schema.Scalar(schema.KindNumber).WithNullable()),
	)
	book.Attributes = []*schema.Property{prop("id", true, schema.Scalar(schema.KindNumber))}

	note := schema.Object()
	note.Attributes = []*schema.Property{prop("lang", false, schema.Scalar(schema.KindString))}
	note.Text = schema.Scalar(schema.KindString)

	mixed := schema.Object(prop("b", true, schema.Scalar(schema.KindString)))
	mixed.Text = schema.Scalar(schema.KindString)

	cat := schema.Object(
		prop("book", true, schema.Array(book)),
		prop("note", true, note),
		prop("para", true, mixed),
		prop("flag", true, schema.Scalar(schema.KindBoolean)),
		prop("empty", true, schema.Scalar(schema.KindNull)),
		prop("mixedValues", true, schema.Array(schema.Union(schema.Scalar(schema.KindNumber), schema.Scalar(schema.KindString)))),
	)
	return schema.Object(prop("catalog", true, cat))
}

func TestEncode_Catalog(t *testing.T) {
	b, err := xsd.Codec{}.Encode(fp, catalog())
	require.NoError(t, err)
	out := string(b)

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		`<!-- fingerprint: ` + fp + ` -->`,
		`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" elementFormDefault="qualified">`,
		`<xs:appinfo source="urn:schemagen:fingerprint">` + fp + `</xs:appinfo>`,
		`<xs:element name="catalog">`,
		`<xs:sequence>`,
		`<xs:element name="book" maxOccurs="unbounded">`,
		`<xs:element name="price" minOccurs="0">`,
		`<xs:union memberTypes="xs:double">`,
		`<xs:length value="0"></xs:length>`,
		`<xs:element name="title" type="xs:string"></xs:element>`,
		`<xs:attribute name="id" type="xs:double" use="required"></xs:attribute>`,
		`<xs:simpleContent>`,
		`<xs:extension base="xs:string">`,
		`<xs:attribute name="lang" type="xs:string" use="optional"></xs:attribute>`,
		`<xs:complexType mixed="true">`,
		`<xs:element name="flag" type="xs:boolean"></xs:element>`,
		`<xs:union memberTypes="xs:double xs:string"></xs:union>`,
	} {
		assert.Contains(t, out, want)
	}
	assert.True(t, strings.HasPrefix(out, `<?xml`))
}

func TestEncode_AllWithoutRepetition(t *testing.T) {
	doc := schema.Object(prop("r", true, schema.Object(
		prop("a", true, schema.Scalar(schema.KindString)),
		prop("b", false, schema.Scalar(schema.KindNumber)),
	)))
	b, err := xsd.Codec{}.Encode(fp, doc)
	require.NoError(t, err)
	out := string(b)
	assert.Contains(t, out, `<xs:all>`)
	assert.NotContains(t, out, `<xs:sequence>`)
	assert.Contains(t, out, `<xs:element name="b" minOccurs="0" type="xs:double"></xs:element>`)
}

func TestEncode_TargetNamespace(t *testing.T) {
	b, err := xsd.Codec{Options: xsd.Options{TargetNamespace: "urn:catalog"}}.Encode(fp, catalog())
	require.NoError(t, err)
	assert.Contains(t, string(b), `targetNamespace="urn:catalog" xmlns="urn:catalog"`)
}

func TestCodec_RoundTrip(t *testing.T) {
	f := catalog()
	b, err := xsd.Codec{}.Encode(fp, f)
	require.NoError(t, err)
	gotFP, back, err := xsd.Codec{}.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, fp, gotFP)
	assert.Equal(t, f.Key(), back.Key())
}

func TestEncode_RejectsNonObject(t *testing.T) {
	_, err := xsd.Codec{}.Encode(fp, schema.Scalar(schema.KindString))
	assert.Error(t, err)
}

func TestDecode_Errors(t *testing.T) {
	_, _, err := xsd.Codec{}.Decode([]byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`))
	assert.ErrorIs(t, err, schema.ErrNoFingerprint)

	_, _, err = xsd.Codec{}.Decode([]byte(`<xs:schema`))
	assert.Error(t, err)
}
