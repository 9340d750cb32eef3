// Package validate checks documents against generated schemas and reports
// violations as (path, code, message) triples.
package validate

import (
	"context"
	"sort"

	"github.com/ZyrusAlvez/Schema-Generator/schema"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Violation codes.
const (
	CodeInvalidType  = "invalid_type"
	CodeRequired     = "required"
	CodeUnknownKey   = "unknown_key"
	CodeTooMany      = "too_many"
	CodeNotNullable  = "not_nullable"
	CodeNoUnionMatch = "no_union_match"
	CodeFailure      = "validation_failure"
)

// Violation is one reported mismatch. Path is the canonical path of the
// offending position.
type Violation struct {
	Path    tree.Path
	Code    string
	Message string
}

// Input is what a Validator receives. JSON validation reads Raw and
// Artifact; XML validation reads Document and Schema.
type Input struct {
	Fingerprint string
	Schema      *schema.Fragment
	Artifact    []byte
	Document    *tree.Node
	Raw         []byte
}

// Validator checks one document. A nil or empty slice means the document is
// valid; the error is reserved for failures to run the check at all.
type Validator interface {
	Validate(ctx context.Context, in Input) ([]Violation, error)
}

// ForFormat returns the validator for documents of format f.
func ForFormat(f schema.Format) Validator {
	if f == schema.FormatXML {
		return XML{}
	}
	return NewJSON()
}

func sortViolations(vs []Violation) []Violation {
	sort.SliceStable(vs, func(i, j int) bool { return vs[i].Path < vs[j].Path })
	return vs
}
