package jsonschema_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZyrusAlvez/Schema-Generator/jsonschema"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
)

const fp = "ac108329b036664d91573fef2b719cab11680921fbb8fc08a0d603226fa124ea"

func prop(name string, required bool, f *schema.Fragment) *schema.Property {
	return &schema.Property{Name: name, Required: required, Schema: f}
}

func TestEncode_FlatObject(t *testing.T) {
	f := schema.Object(
		prop("id", true, schema.Scalar(schema.KindNumber)),
		prop("name", true, schema.Scalar(schema.KindString)),
		prop("active", true, schema.Scalar(schema.KindBoolean)),
	)
	b, err := jsonschema.Codec{}.Encode(fp, f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"fingerprint": "`+fp+`",
		"type": "object",
		"properties": {
			"active": {"type": "boolean"},
			"id": {"type": "number"},
			"name": {"type": "string"}
		},
		"required": ["active", "id", "name"]
	}`, string(b))
}

func TestEncode_NullableUnionAndFormat(t *testing.T) {
	item := schema.Union(
		schema.Object(prop("a", true, schema.Scalar(schema.KindNumber))),
		schema.Object(prop("a", true, schema.Scalar(schema.KindString))),
	)
	when := schema.Scalar(schema.KindString)
	when.Format = schema.FormatDate
	f := schema.Object(
		prop("xs", true, schema.Array(item)),
		prop("email", false, schema.Scalar(schema.KindString).WithNullable()),
		prop("when", true, when),
		prop("none", true, schema.Scalar(schema.KindNull)),
		prop("empty", true, schema.Array(nil)),
	)
	b, err := jsonschema.Codec{}.Encode(fp, f)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"fingerprint": "`+fp+`",
		"type": "object",
		"properties": {
			"email": {"type": ["string", "null"]},
			"empty": {"type": "array"},
			"none": {"type": "null"},
			"when": {"type": "string", "x-format": "date"},
			"xs": {
				"type": "array",
				"items": {"anyOf": [
					{"type": "object", "properties": {"a": {"type": "number"}}, "required": ["a"]},
					{"type": "object", "properties": {"a": {"type": "string"}}, "required": ["a"]}
				]}
			}
		},
		"required": ["empty", "none", "when", "xs"]
	}`, string(b))

	gotFP, back, err := jsonschema.Codec{}.Decode(b)
	require.NoError(t, err)
	assert.Equal(t, fp, gotFP)
	assert.Equal(t, f.Key(), back.Key())
}

func TestEncode_RejectsXMLContent(t *testing.T) {
	f := schema.Object()
	f.Attributes = []*schema.Property{prop("id", true, schema.Scalar(schema.KindNumber))}
	_, err := jsonschema.Codec{}.Encode(fp, f)
	assert.ErrorIs(t, err, jsonschema.ErrXMLContent)
}

func TestDecode_Errors(t *testing.T) {
	cases := map[string]string{
		"no fingerprint":     `{"type": "object"}`,
		"bad type":           `{"fingerprint": "x", "type": "integer"}`,
		"bad type list":      `{"fingerprint": "x", "type": ["string", "number"]}`,
		"undeclared require": `{"fingerprint": "x", "type": "object", "required": ["a"]}`,
		"syntax":             `{"fingerprint": `,
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := jsonschema.Codec{}.Decode([]byte(in))
			assert.Error(t, err)
		})
	}
	_, _, err := jsonschema.Codec{}.Decode([]byte(`{"type": "object"}`))
	assert.ErrorIs(t, err, schema.ErrNoFingerprint)
}
