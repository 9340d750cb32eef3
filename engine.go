package schemagen

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ZyrusAlvez/Schema-Generator/cache"
	"github.com/ZyrusAlvez/Schema-Generator/fingerprint"
	"github.com/ZyrusAlvez/Schema-Generator/infer"
	"github.com/ZyrusAlvez/Schema-Generator/jsonschema"
	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/schema"
	sjson "github.com/ZyrusAlvez/Schema-Generator/source/json"
	sxml "github.com/ZyrusAlvez/Schema-Generator/source/xml"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
	"github.com/ZyrusAlvez/Schema-Generator/validate"
	"github.com/ZyrusAlvez/Schema-Generator/xsd"
)

// Options configures an Engine. The zero value keeps schemas in memory,
// applies no field policy and ignores duplicate JSON keys.
type Options struct {
	// Config is the per-file policy configuration.
	Config policy.Config

	// JSONSchemaDir and XSDDir hold one artifact per fingerprint. An empty
	// directory keeps that format's schemas in memory.
	JSONSchemaDir string
	XSDDir        string
	// Stores overrides the store of a format regardless of the directories.
	Stores map[schema.Format]cache.Store

	// TargetNamespace is written into rendered XSDs.
	TargetNamespace string

	// JSON enforcement. MaxDepth and MaxBytes also bound XML documents.
	DuplicateKeys sjson.DuplicatePolicy
	MaxDepth      int
	MaxBytes      int64

	// Workers bounds ProcessBatch concurrency; 0 means GOMAXPROCS.
	Workers int
	// SkipValidation stops Process after the schema is resolved.
	SkipValidation bool

	// Logf receives progress messages. Nil is silent.
	Logf func(format string, args ...any)
}

// Engine ties the pipeline together. It is safe for concurrent use; all
// documents processed by one Engine share its caches.
type Engine struct {
	opts   Options
	codecs map[schema.Format]schema.Codec
	caches map[schema.Format]*cache.Cache
	json   *validate.JSON
}

// New returns an Engine.
func New(opts Options) *Engine {
	e := &Engine{
		opts: opts,
		codecs: map[schema.Format]schema.Codec{
			schema.FormatJSON: jsonschema.Codec{},
			schema.FormatXML:  xsd.Codec{Options: xsd.Options{TargetNamespace: opts.TargetNamespace}},
		},
		json: validate.NewJSON(),
	}
	e.caches = map[schema.Format]*cache.Cache{
		schema.FormatJSON: cache.New(e.newStore(schema.FormatJSON, opts.JSONSchemaDir)),
		schema.FormatXML:  cache.New(e.newStore(schema.FormatXML, opts.XSDDir)),
	}
	return e
}

func (e *Engine) newStore(f schema.Format, dir string) cache.Store {
	if s, ok := e.opts.Stores[f]; ok && s != nil {
		return s
	}
	if dir == "" {
		return cache.NewMemoryStore()
	}
	return cache.NewFileStore(dir, e.codecs[f])
}

// Codec returns the artifact codec for documents of format f.
func (e *Engine) Codec(f schema.Format) schema.Codec { return e.codecs[f] }

// Cache returns the schema cache for documents of format f.
func (e *Engine) Cache(f schema.Format) *cache.Cache { return e.caches[f] }

func (e *Engine) logf(format string, args ...any) {
	if e.opts.Logf != nil {
		e.opts.Logf(format, args...)
	}
}

// Result is the outcome of processing one document.
type Result struct {
	Name        string
	Format      schema.Format
	Fingerprint string
	Schema      *schema.Fragment
	// Artifact is the rendered schema (JSON Schema or XSD).
	Artifact []byte
	// Cached is true when the schema was not inferred for this document.
	Cached     bool
	Valid      bool
	Violations Issues
	Warnings   Issues
	// PersistErr is set when the schema was inferred but could not be
	// stored. The result is still usable.
	PersistErr error
}

// Err returns an error wrapping ErrValidationFailure when the document did
// not match its schema, nil otherwise.
func (r *Result) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	return &DocumentError{
		Name: r.Name,
		Code: CodeValidationFailure,
		Err:  fmt.Errorf("%w: %w", ErrValidationFailure, r.Violations),
	}
}

type prepared struct {
	root     *tree.Node
	pol      *policy.Policy
	fp       string
	warnings Issues
}

func (e *Engine) prepare(doc Document) (*prepared, error) {
	pol, err := e.opts.Config.Resolve(doc.Name)
	if err != nil {
		return nil, err
	}
	root, warnings, err := e.adapt(doc)
	if err != nil {
		return nil, err
	}
	return &prepared{root: root, pol: pol, fp: fingerprint.Of(root, pol), warnings: warnings}, nil
}

func (e *Engine) adapt(doc Document) (*tree.Node, Issues, error) {
	switch doc.Format {
	case schema.FormatJSON:
		var warnings Issues
		a := sjson.New(sjson.Options{
			Duplicates: e.opts.DuplicateKeys,
			MaxDepth:   e.opts.MaxDepth,
			MaxBytes:   e.opts.MaxBytes,
			OnWarning: func(p tree.Path, msg string) {
				warnings = AppendIssues(warnings, Issue{Path: string(p), Code: CodeDuplicateKey, Message: msg})
			},
		})
		root, err := a.ParseBytes(doc.Data)
		return root, warnings, err
	case schema.FormatXML:
		if e.opts.MaxBytes > 0 && int64(len(doc.Data)) > e.opts.MaxBytes {
			return nil, nil, fmt.Errorf("%w: document exceeds %d bytes", ErrMalformedDocument, e.opts.MaxBytes)
		}
		root, err := sxml.New(sxml.Options{MaxDepth: e.opts.MaxDepth}).ParseBytes(doc.Data)
		return root, nil, err
	}
	return nil, nil, fmt.Errorf("%w: %v", ErrUnknownFormat, doc.Format)
}

// Fingerprint returns the fingerprint of doc under its resolved policy.
func (e *Engine) Fingerprint(doc Document) (string, error) {
	p, err := e.prepare(doc)
	if err != nil {
		return "", documentError(doc.Name, err)
	}
	return p.fp, nil
}

// Infer returns the schema inferred from doc alone, bypassing the cache,
// together with its fingerprint.
func (e *Engine) Infer(doc Document) (*schema.Fragment, string, error) {
	p, err := e.prepare(doc)
	if err != nil {
		return nil, "", documentError(doc.Name, err)
	}
	return infer.Infer(p.root, p.pol), p.fp, nil
}

// Process resolves the schema for doc and validates doc against it. The
// schema comes from the cache when one is stored under the document's
// fingerprint; otherwise it is inferred from doc and stored.
//
// Failures are returned as *DocumentError. A document that does not match
// its schema is not an error: see Result.Valid and Result.Err.
func (e *Engine) Process(ctx context.Context, doc Document) (*Result, error) {
	p, err := e.prepare(doc)
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	c, ok := e.caches[doc.Format]
	if !ok {
		return nil, documentError(doc.Name, ErrUnknownFormat)
	}
	cr, err := c.GetOrGenerate(ctx, p.fp, doc.Name, func(context.Context) (*schema.Fragment, error) {
		if p.pol.IsEmpty() {
			e.logf("%s: new structure %s, inferring schema", doc.Name, short(p.fp))
		} else {
			e.logf("%s: new structure %s, inferring schema with policy %s", doc.Name, short(p.fp), p.pol)
		}
		return infer.Infer(p.root, p.pol), nil
	})
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	res := &Result{
		Name:        doc.Name,
		Format:      doc.Format,
		Fingerprint: p.fp,
		Schema:      cr.Entry.Schema,
		Cached:      cr.Hit,
		Warnings:    p.warnings,
		PersistErr:  cr.PersistErr,
	}
	if cr.Hit {
		e.logf("%s: reusing schema %s", doc.Name, short(p.fp))
	}
	if cr.PersistErr != nil {
		e.logf("%s: %v", doc.Name, cr.PersistErr)
		res.Warnings = AppendIssues(res.Warnings, Issue{
			Code:    CodePersistenceFailure,
			Message: Message(CodePersistenceFailure),
			Cause:   cr.PersistErr,
		})
	}
	res.Artifact, err = e.codecs[doc.Format].Encode(p.fp, res.Schema)
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	if e.opts.SkipValidation {
		res.Valid = true
		return res, nil
	}
	vs, err := e.validator(doc.Format).Validate(ctx, validate.Input{
		Fingerprint: p.fp,
		Schema:      res.Schema,
		Artifact:    res.Artifact,
		Document:    p.root,
		Raw:         doc.Data,
	})
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	res.Violations = issuesFromViolations(vs)
	res.Valid = len(vs) == 0
	if !res.Valid {
		e.logf("%s: %d violation(s): %v", doc.Name, len(vs), res.Violations)
	}
	return res, nil
}

// ValidateWith validates doc against an existing artifact instead of the
// schema its fingerprint maps to. JSON artifacts need not carry a
// fingerprint; XSD artifacts must have been rendered by this package.
func (e *Engine) ValidateWith(ctx context.Context, doc Document, artifact []byte) (*Result, error) {
	codec, ok := e.codecs[doc.Format]
	if !ok {
		return nil, documentError(doc.Name, ErrUnknownFormat)
	}
	fp, frag, err := codec.Decode(artifact)
	if err != nil && (doc.Format != schema.FormatJSON || !errors.Is(err, schema.ErrNoFingerprint)) {
		return nil, documentError(doc.Name, err)
	}
	root, warnings, err := e.adapt(doc)
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	// No fingerprint: a foreign artifact is memoized by its content hash.
	vs, err := e.validator(doc.Format).Validate(ctx, validate.Input{
		Schema:   frag,
		Artifact: artifact,
		Document: root,
		Raw:      doc.Data,
	})
	if err != nil {
		return nil, documentError(doc.Name, err)
	}
	return &Result{
		Name:        doc.Name,
		Format:      doc.Format,
		Fingerprint: fp,
		Schema:      frag,
		Artifact:    artifact,
		Cached:      true,
		Valid:       len(vs) == 0,
		Violations:  issuesFromViolations(vs),
		Warnings:    warnings,
	}, nil
}

// validator keeps one shared JSON validator so compiled artifacts are reused
// across documents.
func (e *Engine) validator(f schema.Format) validate.Validator {
	if f == schema.FormatJSON {
		return e.json
	}
	return validate.ForFormat(f)
}

// Outcome is the per-document result of ProcessBatch. Exactly one of Result
// and Err is set.
type Outcome struct {
	Name   string
	Result *Result
	Err    error
}

// OK reports whether the document was processed and is valid.
func (o Outcome) OK() bool { return o.Err == nil && o.Result != nil && o.Result.Valid }

// ProcessBatch processes docs concurrently and returns their outcomes in
// input order. One document's failure never stops the others; documents
// sharing a fingerprint share one inference.
func (e *Engine) ProcessBatch(ctx context.Context, docs []Document) []Outcome {
	out := make([]Outcome, len(docs))
	workers := e.opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var g errgroup.Group
	g.SetLimit(workers)
	for i, d := range docs {
		i, d := i, d
		g.Go(func() error {
			res, err := e.Process(ctx, d)
			out[i] = Outcome{Name: d.Name, Result: res, Err: err}
			if err != nil {
				e.logf("%v", err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
