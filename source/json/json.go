// Package json adapts JSON documents into trees. Tokens are read with
// goccy/go-json and pass through the engine's enforcement layer before the
// tree is built.
package json

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"

	j "github.com/goccy/go-json"

	eng "github.com/ZyrusAlvez/Schema-Generator/internal/engine"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// DuplicatePolicy controls how a key repeated inside one object is treated.
type DuplicatePolicy int

const (
	// DuplicateIgnore keeps the last value silently.
	DuplicateIgnore DuplicatePolicy = iota
	// DuplicateWarn keeps the last value and reports through Options.OnWarning.
	DuplicateWarn
	// DuplicateError rejects the document as malformed.
	DuplicateError
)

// Options configures the adapter. The zero value accepts any well-formed
// document.
type Options struct {
	Duplicates DuplicatePolicy
	MaxDepth   int
	MaxBytes   int64
	OnWarning  func(path tree.Path, msg string)
}

// Adapter implements tree.Adapter for JSON.
type Adapter struct {
	opt Options
}

var _ tree.Adapter = (*Adapter)(nil)

// New returns a JSON adapter.
func New(opt Options) *Adapter { return &Adapter{opt: opt} }

// Parse reads one JSON document from r. The top-level value must be an
// object.
func (a *Adapter) Parse(r io.Reader) (*tree.Node, error) {
	src := eng.WrapWithEnforcement(NewReader(r), eng.EnforceOptions{
		OnDuplicate: toEngineDup(a.opt.Duplicates),
		MaxDepth:    a.opt.MaxDepth,
		MaxBytes:    a.opt.MaxBytes,
		IssueSink:   a.sink(),
	})
	root, err := eng.BuildTree(src)
	if err != nil {
		return nil, err
	}
	if root.Kind != tree.KindContainer {
		return nil, fmt.Errorf("%w: object at top level expected, got %s", tree.ErrMalformedDocument, root.Kind)
	}
	return root, nil
}

// ParseBytes is Parse over a byte slice.
func (a *Adapter) ParseBytes(b []byte) (*tree.Node, error) { return a.Parse(bytes.NewReader(b)) }

func (a *Adapter) sink() func(eng.SimpleIssue) {
	if a.opt.OnWarning == nil {
		return nil
	}
	return func(si eng.SimpleIssue) { a.opt.OnWarning(si.Path, si.Message) }
}

func toEngineDup(p DuplicatePolicy) eng.DuplicateStrictness {
	switch p {
	case DuplicateWarn:
		return eng.DupWarn
	case DuplicateError:
		return eng.DupError
	default:
		return eng.DupIgnore
	}
}

// ---- engine.TokenSource implementation using go-json Decoder ----

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	expectingKey bool
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

type source struct {
	dec   *j.Decoder
	in    *countingReader
	stack []frame
}

// NewReader wraps an io.Reader into an engine.TokenSource. Location reports
// the number of bytes pulled from r so far, which runs ahead of the token
// actually returned by the decoder's read buffer.
func NewReader(r io.Reader) eng.TokenSource {
	in := &countingReader{r: r}
	dec := j.NewDecoder(in)
	dec.UseNumber()
	return &source{dec: dec, in: in}
}

func (s *source) NextToken() (eng.Token, error) {
	tok, err := s.dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return eng.Token{}, io.EOF
		}
		return eng.Token{}, fmt.Errorf("%w: %v", tree.ErrMalformedDocument, err)
	}
	off := s.in.n
	switch v := tok.(type) {
	case j.Delim:
		switch v {
		case '{':
			s.stack = append(s.stack, frame{kind: kindObject, expectingKey: true})
			return eng.Token{Kind: eng.KindBeginObject, Offset: off}, nil
		case '}':
			s.pop()
			return eng.Token{Kind: eng.KindEndObject, Offset: off}, nil
		case '[':
			s.stack = append(s.stack, frame{kind: kindArray})
			return eng.Token{Kind: eng.KindBeginArray, Offset: off}, nil
		case ']':
			s.pop()
			return eng.Token{Kind: eng.KindEndArray, Offset: off}, nil
		}
	case string:
		if n := len(s.stack); n > 0 {
			top := &s.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				top.expectingKey = false
				return eng.Token{Kind: eng.KindKey, String: v, Offset: off}, nil
			}
		}
		s.valueDone()
		return eng.Token{Kind: eng.KindString, String: v, Offset: off}, nil
	case bool:
		s.valueDone()
		return eng.Token{Kind: eng.KindBool, Bool: v, Offset: off}, nil
	case j.Number:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: string(v), Offset: off}, nil
	case float64:
		s.valueDone()
		return eng.Token{Kind: eng.KindNumber, Number: strconv.FormatFloat(v, 'g', -1, 64), Offset: off}, nil
	case nil:
		s.valueDone()
		return eng.Token{Kind: eng.KindNull, Offset: off}, nil
	}
	s.valueDone()
	return eng.Token{Kind: eng.KindNull, Offset: off}, nil
}

func (s *source) pop() {
	if n := len(s.stack); n > 0 {
		s.stack = s.stack[:n-1]
	}
	s.valueDone()
}

func (s *source) valueDone() {
	if n := len(s.stack); n > 0 {
		top := &s.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
		}
	}
}

func (s *source) Location() int64 { return s.in.n }
