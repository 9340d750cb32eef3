package tree

import "strings"

// Path is the canonical identifier of a position in a document: field names
// joined by '.', with an '@name' suffix for an XML attribute. The root path is
// empty. Sequence items share the path of their sequence.
//
// Names containing one of the delimiter characters are escaped with a
// backslash so that {"a.b":1} and {"a":{"b":1}} never share a path.
type Path string

// Root is the path of the document root.
const Root Path = ""

const (
	sepField = '.'
	sepAttr  = '@'
	sepMark  = '#'
	escape   = '\\'
)

// Child returns the path of the named child.
func (p Path) Child(name string) Path {
	if p == Root {
		return Path(EscapeName(name))
	}
	return p + Path(string(sepField)+EscapeName(name))
}

// Attr returns the path of the named attribute.
func (p Path) Attr(name string) Path {
	return p + Path(string(sepAttr)+EscapeName(name))
}

// IsRoot reports whether p addresses the document root.
func (p Path) IsRoot() bool { return p == Root }

// IsAttr reports whether p ends with an attribute segment.
func (p Path) IsAttr() bool {
	for i := len(p) - 1; i >= 0; i-- {
		switch p[i] {
		case sepAttr:
			if !escapedAt(string(p), i) {
				return true
			}
		case sepField:
			if !escapedAt(string(p), i) {
				return false
			}
		}
	}
	return false
}

func (p Path) String() string { return string(p) }

// EscapeName escapes the delimiter characters inside a single name.
func EscapeName(name string) string {
	if !strings.ContainsAny(name, `.@#\`) {
		return name
	}
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch c {
		case sepField, sepAttr, sepMark, escape:
			b.WriteByte(escape)
		}
		b.WriteByte(c)
	}
	return b.String()
}

// escapedAt reports whether the byte at i is preceded by an odd number of
// escape characters.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == escape; j-- {
		n++
	}
	return n%2 == 1
}
