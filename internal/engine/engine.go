// Package engine holds the token-level plumbing shared by the JSON adapter:
// a minimal token stream, an enforcement wrapper and the tree builder.
package engine

import (
	"fmt"
	"io"

	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string
	Number string
	Bool   bool
	Offset int64
}

// TokenSource is a minimal interface required by the engine.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// BuildTree consumes exactly one value from src and returns it as a tree.
// Object keys keep their discovery order; a repeated key keeps the position of
// its first occurrence and the value of its last. Any token after the value is
// an error.
func BuildTree(src TokenSource) (*tree.Node, error) {
	tok, err := src.NextToken()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty input", tree.ErrMalformedDocument)
		}
		return nil, err
	}
	n, err := buildValue(src, tok)
	if err != nil {
		return nil, err
	}
	if extra, err := src.NextToken(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: trailing data at offset %d", tree.ErrMalformedDocument, extra.Offset)
	}
	return n, nil
}

func buildValue(src TokenSource, tok Token) (*tree.Node, error) {
	switch tok.Kind {
	case KindBeginObject:
		return buildObject(src)
	case KindBeginArray:
		return buildArray(src)
	case KindString:
		return tree.NewScalar(tree.ScalarString, tok.String), nil
	case KindNumber:
		return tree.NewScalar(tree.ScalarNumber, tok.Number), nil
	case KindBool:
		if tok.Bool {
			return tree.NewScalar(tree.ScalarBool, "true"), nil
		}
		return tree.NewScalar(tree.ScalarBool, "false"), nil
	case KindNull:
		return tree.NewScalar(tree.ScalarNull, ""), nil
	default:
		return nil, unexpected(tok)
	}
}

func buildObject(src TokenSource) (*tree.Node, error) {
	n := tree.NewContainer()
	index := make(map[string]int)
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, truncated(err)
		}
		if tok.Kind == KindEndObject {
			return n, nil
		}
		if tok.Kind != KindKey {
			return nil, unexpected(tok)
		}
		vt, err := src.NextToken()
		if err != nil {
			return nil, truncated(err)
		}
		v, err := buildValue(src, vt)
		if err != nil {
			return nil, err
		}
		if i, ok := index[tok.String]; ok {
			n.Fields[i].Node = v
			continue
		}
		index[tok.String] = len(n.Fields)
		n.Fields = append(n.Fields, tree.Field{Name: tok.String, Node: v})
	}
}

func buildArray(src TokenSource) (*tree.Node, error) {
	n := tree.NewSequence()
	for {
		tok, err := src.NextToken()
		if err != nil {
			return nil, truncated(err)
		}
		if tok.Kind == KindEndArray {
			return n, nil
		}
		v, err := buildValue(src, tok)
		if err != nil {
			return nil, err
		}
		n.Items = append(n.Items, v)
	}
}

func truncated(err error) error {
	if err == io.EOF {
		return fmt.Errorf("%w: unexpected end of input", tree.ErrMalformedDocument)
	}
	return err
}

func unexpected(tok Token) error {
	return fmt.Errorf("%w: unexpected token at offset %d", tree.ErrMalformedDocument, tok.Offset)
}
