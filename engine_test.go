package schemagen_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	schemagen "github.com/ZyrusAlvez/Schema-Generator"
	"github.com/ZyrusAlvez/Schema-Generator/cache"
	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
	sjson "github.com/ZyrusAlvez/Schema-Generator/source/json"
)

const (
	userDoc = `{"id": 1, "name": "bob", "active": true}`

	fpFlat     = "ac108329b036664d91573fef2b719cab11680921fbb8fc08a0d603226fa124ea"
	fpOptional = "bf6a02922bd5e82f01ca88772223ba0e13dc74ecb6b3e82abf774332bd9ac852"
	fpExcluded = "7a8c123d03fdba91ca9b20800c90054846ad8ac000fc3de19606703d94980e2f"
	fpCatalog  = "6027f987c349e3356dfabfa3f717f5add5017246999fb46e2f34075979d7c059"
)

func TestProcess_FlatDocument(t *testing.T) {
	e := schemagen.New(schemagen.Options{})
	res, err := e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(userDoc)))
	require.NoError(t, err)

	assert.Equal(t, fpFlat, res.Fingerprint)
	assert.False(t, res.Cached)
	assert.True(t, res.Valid)
	assert.NoError(t, res.Err())
	assert.Equal(t, []string{"active", "id", "name"}, res.Schema.Required())
	for name, kind := range map[string]schema.Kind{"id": schema.KindNumber, "name": schema.KindString, "active": schema.KindBoolean} {
		p, ok := res.Schema.Property(name)
		require.True(t, ok, name)
		assert.Equal(t, kind, p.Schema.Kind, name)
	}
	assert.Contains(t, string(res.Artifact), `"fingerprint": "`+fpFlat+`"`)
	assert.Contains(t, string(res.Artifact), `"$schema": "http://json-schema.org/draft-07/schema#"`)
}

func TestProcess_OptionalPolicy(t *testing.T) {
	var logs []string
	e := schemagen.New(schemagen.Options{
		Config: policy.Config{
			{File: "users.json", OptionalFields: policy.PathList{"name"}},
		},
		Logf: func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	res, err := e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(userDoc)))
	require.NoError(t, err)
	assert.Equal(t, fpOptional, res.Fingerprint)
	assert.NotEqual(t, fpFlat, res.Fingerprint)
	assert.Equal(t, []string{"active", "id"}, res.Schema.Required())
	require.NotEmpty(t, logs)
	assert.Contains(t, logs[0], "with policy optional=[name]")

	res, err = e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(`{"id": 2, "active": false}`)))
	require.NoError(t, err)
	assert.NotEqual(t, fpOptional, res.Fingerprint, "a missing optional field changes the path set")
}

func TestProcess_ExcludedSubtree(t *testing.T) {
	e := schemagen.New(schemagen.Options{Config: policy.Config{
		{JSONFile: "users.json", ExcludeFields: policy.PathList{"name"}},
	}})
	doc := `{"id": 1, "active": true, "name": {"first": "b", "last": {"x": 1}}}`
	res, err := e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(doc)))
	require.NoError(t, err)
	assert.Equal(t, fpExcluded, res.Fingerprint)
	_, ok := res.Schema.Property("name")
	assert.False(t, ok)
	assert.NotContains(t, string(res.Artifact), "first")
	assert.True(t, res.Valid)
}

func TestProcess_SameShapeReusesSchema(t *testing.T) {
	e := schemagen.New(schemagen.Options{})
	ctx := context.Background()

	first, err := e.Process(ctx, schemagen.JSONBytes("a.json", []byte(userDoc)))
	require.NoError(t, err)
	second, err := e.Process(ctx, schemagen.JSONBytes("b.json", []byte(`{"active": false, "name": "alice", "id": 99}`)))
	require.NoError(t, err)

	assert.Equal(t, first.Fingerprint, second.Fingerprint)
	assert.True(t, second.Cached)
	assert.True(t, schema.Equal(first.Schema, second.Schema))
	assert.Equal(t, first.Artifact, second.Artifact)
	assert.True(t, second.Valid)
}

func TestProcess_CachedSchemaRejectsOtherTypes(t *testing.T) {
	e := schemagen.New(schemagen.Options{})
	ctx := context.Background()
	_, err := e.Process(ctx, schemagen.JSONBytes("a.json", []byte(userDoc)))
	require.NoError(t, err)

	res, err := e.Process(ctx, schemagen.JSONBytes("b.json", []byte(`{"id": "x", "name": "bob", "active": true}`)))
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "id", res.Violations[0].Path)
	assert.Equal(t, schemagen.CodeInvalidType, res.Violations[0].Code)

	verr := res.Err()
	require.Error(t, verr)
	assert.ErrorIs(t, verr, schemagen.ErrValidationFailure)
	assert.Equal(t, schemagen.CodeValidationFailure, schemagen.CodeOf(verr))
	iss, ok := schemagen.AsIssues(verr)
	require.True(t, ok)
	assert.Equal(t, res.Violations, iss)
}

func TestProcess_XML(t *testing.T) {
	e := schemagen.New(schemagen.Options{TargetNamespace: "urn:books"})
	doc := `<catalog><book id="11"><title>Go</title></book></catalog>`
	res, err := e.Process(context.Background(), schemagen.XMLBytes("catalog.xml", []byte(doc)))
	require.NoError(t, err)
	assert.Equal(t, fpCatalog, res.Fingerprint)
	assert.True(t, res.Valid)
	out := string(res.Artifact)
	assert.Contains(t, out, "<!-- fingerprint: "+fpCatalog+" -->")
	assert.Contains(t, out, `targetNamespace="urn:books"`)
	assert.Contains(t, out, `name="catalog"`)

	res, err = e.Process(context.Background(), schemagen.XMLBytes("other.xml", []byte(`<catalog><book id="12"><title>Rust</title></book></catalog>`)))
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.True(t, res.Valid)
}

func TestProcess_FileStorePersistsAcrossEngines(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	doc := schemagen.JSONBytes("users.json", []byte(userDoc))

	res, err := schemagen.New(schemagen.Options{JSONSchemaDir: dir}).Process(ctx, doc)
	require.NoError(t, err)
	require.NoError(t, res.PersistErr)

	stored, err := os.ReadFile(filepath.Join(dir, fpFlat+".json"))
	require.NoError(t, err)
	assert.Equal(t, res.Artifact, stored)

	res, err = schemagen.New(schemagen.Options{JSONSchemaDir: dir}).Process(ctx, doc)
	require.NoError(t, err)
	assert.True(t, res.Cached)
}

func TestProcess_CorruptEntryIsReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, fpFlat+".json"), []byte("{not json"), 0o644))

	e := schemagen.New(schemagen.Options{JSONSchemaDir: dir})
	_, err := e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(userDoc)))
	require.Error(t, err)
	assert.ErrorIs(t, err, schemagen.ErrCorruptEntry)

	var de *schemagen.DocumentError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, "users.json", de.Name)
	assert.Equal(t, schemagen.CodeCorruptEntry, de.Code)

	b, err := os.ReadFile(filepath.Join(dir, fpFlat+".json"))
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(b), "a corrupt entry is never overwritten")
}

type failingStore struct{}

func (failingStore) Load(context.Context, string) (cache.Entry, bool, error) {
	return cache.Entry{}, false, nil
}

func (failingStore) Save(context.Context, cache.Entry) error { return errors.New("disk full") }

func TestProcess_PersistenceFailureStillReturnsSchema(t *testing.T) {
	var logs []string
	e := schemagen.New(schemagen.Options{
		Stores: map[schema.Format]cache.Store{schema.FormatJSON: failingStore{}},
		Logf:   func(format string, args ...any) { logs = append(logs, fmt.Sprintf(format, args...)) },
	})
	res, err := e.Process(context.Background(), schemagen.JSONBytes("users.json", []byte(userDoc)))
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.ErrorIs(t, res.PersistErr, schemagen.ErrPersistenceFailure)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, schemagen.CodePersistenceFailure, res.Warnings[0].Code)
	assert.Equal(t, schemagen.Message(schemagen.CodePersistenceFailure), res.Warnings[0].Message)
	assert.NotEqual(t, schemagen.CodePersistenceFailure, res.Warnings[0].Message)
	assert.NotEmpty(t, logs)
}

func TestProcess_DocumentErrors(t *testing.T) {
	cases := []struct {
		name string
		opts schemagen.Options
		doc  schemagen.Document
		want error
		code string
	}{
		{
			name: "malformed json",
			doc:  schemagen.JSONBytes("bad.json", []byte(`{"a":`)),
			want: schemagen.ErrMalformedDocument,
			code: schemagen.CodeMalformedDocument,
		},
		{
			name: "top-level array",
			doc:  schemagen.JSONBytes("list.json", []byte(`[1, 2]`)),
			want: schemagen.ErrMalformedDocument,
			code: schemagen.CodeMalformedDocument,
		},
		{
			name: "malformed xml",
			doc:  schemagen.XMLBytes("bad.xml", []byte(`<a><b></a>`)),
			want: schemagen.ErrMalformedDocument,
			code: schemagen.CodeMalformedDocument,
		},
		{
			name: "duplicate key rejected",
			opts: schemagen.Options{DuplicateKeys: sjson.DuplicateError},
			doc:  schemagen.JSONBytes("dup.json", []byte(`{"a":1,"a":2}`)),
			want: schemagen.ErrMalformedDocument,
			code: schemagen.CodeMalformedDocument,
		},
		{
			name: "xml over size limit",
			opts: schemagen.Options{MaxBytes: 8},
			doc:  schemagen.XMLBytes("big.xml", []byte(`<catalog></catalog>`)),
			want: schemagen.ErrMalformedDocument,
			code: schemagen.CodeMalformedDocument,
		},
		{
			name: "ambiguous configuration",
			opts: schemagen.Options{Config: policy.Config{{File: "users.json"}, {JSONFile: "users.json"}}},
			doc:  schemagen.JSONBytes("users.json", []byte(userDoc)),
			want: schemagen.ErrConfigurationAmbiguity,
			code: schemagen.CodeConfigurationAmbiguity,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := schemagen.New(tc.opts).Process(context.Background(), tc.doc)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Equal(t, tc.code, schemagen.CodeOf(err))
			assert.Contains(t, err.Error(), tc.doc.Name)
		})
	}
}

func TestProcess_DuplicateKeyWarning(t *testing.T) {
	e := schemagen.New(schemagen.Options{DuplicateKeys: sjson.DuplicateWarn})
	res, err := e.Process(context.Background(), schemagen.JSONBytes("dup.json", []byte(`{"a":1,"b":true,"a":2}`)))
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, schemagen.CodeDuplicateKey, res.Warnings[0].Code)
	assert.Equal(t, "a", res.Warnings[0].Path)
	assert.True(t, res.Valid)
}

func TestProcessBatch(t *testing.T) {
	var docs []schemagen.Document
	for i := 0; i < 16; i++ {
		docs = append(docs, schemagen.JSONBytes(fmt.Sprintf("u%02d.json", i), []byte(fmt.Sprintf(`{"id": %d, "name": "n%d", "active": true}`, i, i))))
	}
	docs = append(docs,
		schemagen.JSONBytes("broken.json", []byte(`[1,`)),
		schemagen.XMLBytes("catalog.xml", []byte(`<catalog><book id="1"><title>Go</title></book></catalog>`)),
	)

	e := schemagen.New(schemagen.Options{Workers: 4})
	outs := e.ProcessBatch(context.Background(), docs)
	require.Len(t, outs, len(docs))

	misses := 0
	for i, o := range outs[:16] {
		assert.Equal(t, docs[i].Name, o.Name)
		require.NoError(t, o.Err)
		assert.True(t, o.OK())
		assert.Equal(t, fpFlat, o.Result.Fingerprint)
		if !o.Result.Cached {
			misses++
		}
	}
	assert.Equal(t, 1, misses, "one inference per fingerprint")

	assert.Equal(t, "broken.json", outs[16].Name)
	assert.ErrorIs(t, outs[16].Err, schemagen.ErrMalformedDocument)
	assert.False(t, outs[16].OK())

	require.NoError(t, outs[17].Err)
	assert.Equal(t, fpCatalog, outs[17].Result.Fingerprint)
}

func TestInferAndFingerprint(t *testing.T) {
	e := schemagen.New(schemagen.Options{})
	doc := schemagen.JSONBytes("users.json", []byte(userDoc))

	fp, err := e.Fingerprint(doc)
	require.NoError(t, err)
	assert.Equal(t, fpFlat, fp)

	frag, fp2, err := e.Infer(doc)
	require.NoError(t, err)
	assert.Equal(t, fp, fp2)
	assert.Equal(t, schema.KindObject, frag.Kind)

	_, ok, err := e.Cache(schema.FormatJSON).Lookup(context.Background(), fp)
	require.NoError(t, err)
	assert.False(t, ok, "Infer bypasses the cache")
}

func TestValidateWith(t *testing.T) {
	e := schemagen.New(schemagen.Options{})
	ctx := context.Background()

	res, err := e.ValidateWith(ctx, schemagen.JSONBytes("x.json", []byte(`{"y": 1}`)), []byte(`{"type": "object", "required": ["x"]}`))
	require.NoError(t, err)
	assert.False(t, res.Valid)
	require.NotEmpty(t, res.Violations)
	assert.Equal(t, schemagen.CodeRequired, res.Violations[0].Code)
	assert.Empty(t, res.Fingerprint)

	res, err = e.ValidateWith(ctx, schemagen.JSONBytes("y.json", []byte(`{"y": 1}`)), []byte(`{"type": "object", "required": ["y"]}`))
	require.NoError(t, err)
	assert.True(t, res.Valid, "artifacts without a fingerprint are compiled per content")

	gen, err := e.Process(ctx, schemagen.XMLBytes("catalog.xml", []byte(`<catalog><book id="1"><title>Go</title></book></catalog>`)))
	require.NoError(t, err)
	res, err = e.ValidateWith(ctx, schemagen.XMLBytes("other.xml", []byte(`<catalog><book id="1"/></catalog>`)), gen.Artifact)
	require.NoError(t, err)
	assert.Equal(t, fpCatalog, res.Fingerprint)
	assert.False(t, res.Valid)
	require.Len(t, res.Violations, 1)
	assert.Equal(t, "catalog.book.title", res.Violations[0].Path)
	assert.Equal(t, schemagen.CodeRequired, res.Violations[0].Code)

	_, err = e.ValidateWith(ctx, schemagen.XMLBytes("other.xml", []byte(`<catalog/>`)), []byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`))
	assert.Error(t, err)
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "users.json")
	require.NoError(t, os.WriteFile(p, []byte(userDoc), 0o644))

	doc, err := schemagen.LoadDocument(p)
	require.NoError(t, err)
	assert.Equal(t, "users.json", doc.Name)
	assert.Equal(t, schema.FormatJSON, doc.Format)

	_, err = schemagen.LoadDocument(filepath.Join(dir, "notes.txt"))
	assert.ErrorIs(t, err, schemagen.ErrUnknownFormat)

	_, err = schemagen.LoadDocument(filepath.Join(dir, "missing.xml"))
	assert.Error(t, err)
}

func TestIssuesError(t *testing.T) {
	iss := schemagen.Issues{
		{Path: "", Code: schemagen.CodeRequired},
		{Path: "a.b", Code: schemagen.CodeInvalidType},
		{Path: "c@d", Code: schemagen.CodeUnknownKey},
		{Path: "e", Code: schemagen.CodeTooMany},
	}
	assert.Equal(t, "required at (root); invalid_type at a.b; unknown_key at c@d; ... (total 4)", iss.Error())
	assert.Empty(t, schemagen.Issues(nil).Error())

	_, ok := schemagen.AsIssues(nil)
	assert.False(t, ok)
	got := schemagen.AppendIssues(nil, schemagen.Issue{Code: schemagen.CodeRequired})
	assert.Len(t, got, 1)
}
