package schemagen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ZyrusAlvez/Schema-Generator/cache"
	"github.com/ZyrusAlvez/Schema-Generator/i18n"
	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
	"github.com/ZyrusAlvez/Schema-Generator/validate"
)

// Issue codes
const (
	CodeInvalidType            = validate.CodeInvalidType
	CodeRequired               = validate.CodeRequired
	CodeUnknownKey             = validate.CodeUnknownKey
	CodeTooMany                = validate.CodeTooMany
	CodeNotNullable            = validate.CodeNotNullable
	CodeNoUnionMatch           = validate.CodeNoUnionMatch
	CodeValidationFailure      = validate.CodeFailure
	CodeDuplicateKey           = "duplicate_key"
	CodeMalformedDocument      = "malformed_document"
	CodeConfigurationAmbiguity = "configuration_ambiguity"
	CodePersistenceFailure     = "persistence_failure"
	CodeCorruptEntry           = "corrupt_entry"
	CodeInternal               = "internal"
)

// Sentinel errors, re-exported from the packages that produce them so that
// callers of the root package can use errors.Is without further imports.
var (
	ErrMalformedDocument      = tree.ErrMalformedDocument
	ErrConfigurationAmbiguity = policy.ErrConfigurationAmbiguity
	ErrPersistenceFailure     = cache.ErrPersistenceFailure
	ErrCorruptEntry           = cache.ErrCorruptEntry
	// ErrValidationFailure is wrapped by Result.Err when a document does not
	// match its schema.
	ErrValidationFailure = errors.New("validation failure")
	// ErrUnknownFormat is returned for documents that are neither JSON nor XML.
	ErrUnknownFormat = errors.New("unknown document format")
)

// Issue represents a single reported entry.
type Issue struct {
	Path    string // Canonical dotted path (for example: catalog.book@id). Empty for the document root.
	Code    string // One of the codes listed above.
	Message string
	Cause   error // Optional: underlying error.
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := min(n, maxShown)
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at users.name
		fmt.Fprintf(b, "%s at %s", it.Code, displayPath(it.Path))
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

func displayPath(p string) string {
	if p == "" {
		return "(root)"
	}
	return p
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

func issuesFromViolations(vs []validate.Violation) Issues {
	if len(vs) == 0 {
		return nil
	}
	out := make(Issues, len(vs))
	for i, v := range vs {
		out[i] = Issue{Path: string(v.Path), Code: v.Code, Message: v.Message}
	}
	return out
}

// DocumentError is the failure of one document. Code classifies Err with one
// of the issue codes.
type DocumentError struct {
	Name string
	Code string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Name, e.Code, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// documentError wraps err for the document name, classifying it by the
// sentinel it carries. A nil err stays nil.
func documentError(name string, err error) error {
	if err == nil {
		return nil
	}
	var de *DocumentError
	if errors.As(err, &de) {
		return err
	}
	return &DocumentError{Name: name, Code: CodeOf(err), Err: err}
}

// CodeOf returns the issue code for err.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedDocument):
		return CodeMalformedDocument
	case errors.Is(err, ErrConfigurationAmbiguity):
		return CodeConfigurationAmbiguity
	case errors.Is(err, ErrCorruptEntry):
		return CodeCorruptEntry
	case errors.Is(err, ErrPersistenceFailure):
		return CodePersistenceFailure
	case errors.Is(err, ErrValidationFailure):
		return CodeValidationFailure
	}
	var de *DocumentError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// Message localizes the message for code with the current i18n translator.
func Message(code string) string { return i18n.T(code, nil) }
