package schema

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// Format selects the artifact a fragment is rendered to.
type Format int

const (
	// FormatJSON renders JSON Schema draft-07.
	FormatJSON Format = iota
	// FormatXML renders XSD.
	FormatXML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "unknown"
	}
}

// ArtifactExt is the file extension of artifacts rendered for documents of
// format f.
func (f Format) ArtifactExt() string {
	if f == FormatXML {
		return ".xsd"
	}
	return ".json"
}

// ParseFormat parses "json" or "xml".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	}
	return 0, fmt.Errorf("unknown document format %q", s)
}

// FormatFromFilename maps a document file name to its format by extension.
func FormatFromFilename(name string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, true
	case ".xml":
		return FormatXML, true
	}
	return 0, false
}

// ErrNoFingerprint is returned by a Codec when an artifact carries no
// fingerprint.
var ErrNoFingerprint = errors.New("artifact has no fingerprint")

// Codec renders a fragment to a persisted artifact and reads it back. Decode
// must return exactly the fragment and fingerprint that Encode was given.
type Codec interface {
	Format() Format
	Encode(fingerprint string, f *Fragment) ([]byte, error)
	Decode(b []byte) (fingerprint string, f *Fragment, err error)
}

// Diff returns a unified diff between two artifacts. It is empty when they
// are byte-identical.
func Diff(aName string, a []byte, bName string, b []byte) (string, error) {
	if bytes.Equal(a, b) {
		return "", nil
	}
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: aName,
		ToFile:   bName,
		Context:  3,
	})
}
