package validate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	j "github.com/goccy/go-json"
	jschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// JSON validates JSON documents against rendered draft-07 artifacts.
// Compiled schemas are memoized per fingerprint and shared by all callers.
type JSON struct {
	compiled sync.Map // key -> *jschema.Schema
}

// NewJSON returns a JSON validator.
func NewJSON() *JSON { return &JSON{} }

func (v *JSON) Validate(ctx context.Context, in Input) ([]Violation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sch, err := v.compile(in)
	if err != nil {
		return nil, err
	}
	doc, err := decode(in.Raw)
	if err != nil {
		return nil, err
	}
	err = sch.Validate(doc)
	if err == nil {
		return nil, nil
	}
	var ve *jschema.ValidationError
	if !errors.As(err, &ve) {
		return nil, err
	}
	var out []Violation
	flatten(ve, doc, &out)
	return sortViolations(out), nil
}

// decode reads exactly one JSON value. Numbers stay json.Number, which the
// validator compares without float rounding.
func decode(raw []byte) (any, error) {
	dec := j.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("decode document: trailing data after the top-level value")
	}
	return doc, nil
}

func (v *JSON) compile(in Input) (*jschema.Schema, error) {
	if len(in.Artifact) == 0 {
		return nil, errors.New("no schema artifact to validate against")
	}
	key := in.Fingerprint
	if key == "" {
		sum := sha256.Sum256(in.Artifact)
		key = hex.EncodeToString(sum[:])
	}
	if s, ok := v.compiled.Load(key); ok {
		return s.(*jschema.Schema), nil
	}
	url := "mem://schemagen/" + key + ".json"
	c := jschema.NewCompiler()
	c.Draft = jschema.Draft7
	if err := c.AddResource(url, bytes.NewReader(in.Artifact)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	actual, _ := v.compiled.LoadOrStore(key, s)
	return actual.(*jschema.Schema), nil
}

// flatten collects the leaf causes of ve.
func flatten(ve *jschema.ValidationError, doc any, out *[]Violation) {
	if len(ve.Causes) > 0 {
		for _, c := range ve.Causes {
			flatten(c, doc, out)
		}
		return
	}
	*out = append(*out, Violation{
		Path:    pointerPath(doc, ve.InstanceLocation),
		Code:    keywordCode(ve.KeywordLocation),
		Message: ve.Message,
	})
}

func keywordCode(loc string) string {
	switch path.Base(loc) {
	case "type":
		return CodeInvalidType
	case "required":
		return CodeRequired
	case "anyOf":
		return CodeNoUnionMatch
	case "additionalProperties":
		return CodeUnknownKey
	}
	return CodeFailure
}

// pointerPath converts a JSON pointer into a canonical path by walking doc:
// segments that index an array are dropped, as sequence items share their
// parent's path.
func pointerPath(doc any, ptr string) tree.Path {
	p := tree.Root
	if ptr == "" || ptr == "/" {
		return p
	}
	cur := doc
	for _, seg := range strings.Split(strings.TrimPrefix(ptr, "/"), "/") {
		seg = strings.NewReplacer("~1", "/", "~0", "~").Replace(seg)
		switch c := cur.(type) {
		case []any:
			var i int
			if _, err := fmt.Sscanf(seg, "%d", &i); err == nil && i >= 0 && i < len(c) {
				cur = c[i]
			} else {
				cur = nil
			}
		case map[string]any:
			p = p.Child(seg)
			cur = c[seg]
		default:
			p = p.Child(seg)
			cur = nil
		}
	}
	return p
}
