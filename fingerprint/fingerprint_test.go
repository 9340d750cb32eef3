package fingerprint_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZyrusAlvez/Schema-Generator/fingerprint"
	"github.com/ZyrusAlvez/Schema-Generator/policy"
	sjson "github.com/ZyrusAlvez/Schema-Generator/source/json"
	sxml "github.com/ZyrusAlvez/Schema-Generator/source/xml"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Digests of json.dumps(sorted(entries), separators=(',', ':')).
const (
	fpPlain        = "ac108329b036664d91573fef2b719cab11680921fbb8fc08a0d603226fa124ea" // ["active","id","name"]
	fpNameOptional = "bf6a02922bd5e82f01ca88772223ba0e13dc74ecb6b3e82abf774332bd9ac852" // ["active","id","name#optional"]
	fpNameExcluded = "7a8c123d03fdba91ca9b20800c90054846ad8ac000fc3de19606703d94980e2f" // ["active","id"]
)

func parseJSON(t *testing.T, s string) *tree.Node {
	t.Helper()
	n, err := sjson.New(sjson.Options{}).ParseBytes([]byte(s))
	require.NoError(t, err)
	return n
}

func TestOf_Scenarios(t *testing.T) {
	doc := parseJSON(t, `{"id": 1, "name": "bob", "active": true}`)

	assert.Equal(t, fpPlain, fingerprint.Of(doc, nil))
	assert.Equal(t, fpNameOptional, fingerprint.Of(doc, &policy.Policy{Optional: policy.NewPathSet("name")}))
	assert.Equal(t, fpNameExcluded, fingerprint.Of(doc, &policy.Policy{Excluded: policy.NewPathSet("name")}))
}

func TestOf_ExcludedSubtreeContributesNothing(t *testing.T) {
	nested := parseJSON(t, `{"id": 1, "name": {"first": "a", "last": {"x": 1}}, "active": true}`)
	pol := &policy.Policy{Excluded: policy.NewPathSet("name")}
	assert.Equal(t, fpNameExcluded, fingerprint.Of(nested, pol))
	assert.Equal(t, []tree.Path{"active", "id"}, fingerprint.Paths(nested, pol))
}

func TestOf_Deterministic(t *testing.T) {
	a := parseJSON(t, `{"b": {"y": [1, {"z": true}], "x": "1"}, "a": null}`)
	b := parseJSON(t, `{"a": 5, "b": {"x": "other", "y": [{"z": false}]}}`)
	assert.Equal(t, fingerprint.Of(a, nil), fingerprint.Of(a, nil))
	assert.Equal(t, fingerprint.Of(a, nil), fingerprint.Of(b, nil), "key order, values and array length do not matter")
}

func TestOf_PolicySensitivity(t *testing.T) {
	doc := parseJSON(t, `{"a": 1, "b": {"c": 2}}`)
	policies := []*policy.Policy{
		nil,
		{Optional: policy.NewPathSet("a")},
		{Nullable: policy.NewPathSet("a")},
		{Optional: policy.NewPathSet("a"), Nullable: policy.NewPathSet("a")},
		{Excluded: policy.NewPathSet("a")},
		{Optional: policy.NewPathSet("b.c")},
		{Nullable: policy.NewPathSet("b")},
		{Excluded: policy.NewPathSet("b.c")},
	}
	seen := map[string]int{}
	for i, p := range policies {
		fp := fingerprint.Of(doc, p)
		if j, dup := seen[fp]; dup {
			t.Fatalf("policies %d and %d share fingerprint %s", j, i, fp)
		}
		seen[fp] = i
	}
}

func TestOf_PolicyOnAbsentPathIsIgnored(t *testing.T) {
	doc := parseJSON(t, `{"id": 1, "name": "bob", "active": true}`)
	assert.Equal(t, fpPlain, fingerprint.Of(doc, &policy.Policy{Optional: policy.NewPathSet("missing")}))
}

func TestOf_DelimiterCollision(t *testing.T) {
	dotted := parseJSON(t, `{"a.b": 1}`)
	nested := parseJSON(t, `{"a": {"b": 1}}`)
	assert.NotEqual(t, fingerprint.Of(dotted, nil), fingerprint.Of(nested, nil))
}

func TestPaths_SequenceItemsShareOnePath(t *testing.T) {
	doc := parseJSON(t, `{"xs": [{"a": 1}, {"a": 2, "b": true}, {"a": 3}]}`)
	assert.Equal(t, []tree.Path{"xs", "xs.a", "xs.b"}, fingerprint.Paths(doc, nil))
}

func TestOf_XMLPaths(t *testing.T) {
	doc, err := sxml.New(sxml.Options{}).ParseBytes([]byte(`<catalog><book id="1"><title>a</title></book><book id="2"><title>b</title></book></catalog>`))
	require.NoError(t, err)
	assert.Equal(t,
		[]tree.Path{"catalog", "catalog.book", "catalog.book@id", "catalog.book.title"},
		fingerprint.Paths(doc, nil))
	assert.Equal(t, "6027f987c349e3356dfabfa3f717f5add5017246999fb46e2f34075979d7c059", fingerprint.Of(doc, nil))
}

func TestCanonical(t *testing.T) {
	got := fingerprint.Canonical([]string{"emoji\U0001F600", "naïve", "tab\t", `q"\`})
	assert.Equal(t, `["emoji\ud83d\ude00","na\u00efve","tab\t","q\"\\"]`, string(got))
	assert.Equal(t, `[]`, string(fingerprint.Canonical(nil)))
}

func TestEntries(t *testing.T) {
	pol := &policy.Policy{
		Optional: policy.NewPathSet("b"),
		Nullable: policy.NewPathSet("b", "c"),
		Excluded: policy.NewPathSet("d"),
	}
	got := fingerprint.Entries([]tree.Path{"c", "d", "b", "a"}, pol)
	assert.Equal(t, []string{"a", "b#optional,nullable", "c#nullable"}, got)
}

func TestValid(t *testing.T) {
	assert.True(t, fingerprint.Valid(fpPlain))
	assert.False(t, fingerprint.Valid("ABC"))
	assert.False(t, fingerprint.Valid("../"+fpPlain[3:]))
}
