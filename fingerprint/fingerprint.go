// Package fingerprint computes the structural identity of a document: a
// SHA-256 digest over its sorted, policy-marked path set.
package fingerprint

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"unicode/utf16"

	"github.com/ZyrusAlvez/Schema-Generator/policy"
	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// Size is the length of a fingerprint in hex characters.
const Size = sha256.Size * 2

// Paths returns the distinct non-root paths of root that are not excluded,
// in walk order. Excluded subtrees are pruned.
func Paths(root *tree.Node, pol *policy.Policy) []tree.Path {
	var out []tree.Path
	seen := make(map[tree.Path]struct{})
	_ = tree.Walk(root, func(p tree.Path, _ *tree.Node) error {
		if pol.IsExcluded(p) {
			return tree.SkipSubtree
		}
		if p.IsRoot() {
			return nil
		}
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			out = append(out, p)
		}
		return nil
	})
	return out
}

// Entries returns the sorted entries hashed by Compute: each non-excluded
// path, followed by "#" and its marker when the policy classifies it.
func Entries(paths []tree.Path, pol *policy.Policy) []string {
	seen := make(map[string]struct{}, len(paths))
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if pol.IsExcluded(p) {
			continue
		}
		e := string(p)
		if m := pol.Marker(p); m != "" {
			e += "#" + m
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// Compute returns the lowercase hex fingerprint of paths under pol.
func Compute(paths []tree.Path, pol *policy.Policy) string {
	sum := sha256.Sum256(Canonical(Entries(paths, pol)))
	return hex.EncodeToString(sum[:])
}

// Of is Compute over Paths.
func Of(root *tree.Node, pol *policy.Policy) string { return Compute(Paths(root, pol), pol) }

// Valid reports whether s has the shape of a fingerprint.
func Valid(s string) bool {
	if len(s) != Size {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}

// Canonical encodes entries as a compact JSON array of strings with every
// non-ASCII character escaped, the byte form Python's json.dumps produces
// with separators (',', ':').
func Canonical(entries []string) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, e := range entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeString(&buf, e)
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for _, r := range s {
		switch {
		case r == '\\':
			buf.WriteString(`\\`)
		case r == '"':
			buf.WriteString(`\"`)
		case r == '\b':
			buf.WriteString(`\b`)
		case r == '\t':
			buf.WriteString(`\t`)
		case r == '\n':
			buf.WriteString(`\n`)
		case r == '\f':
			buf.WriteString(`\f`)
		case r == '\r':
			buf.WriteString(`\r`)
		case r < 0x20 || (r > 0x7e && r <= 0xffff):
			writeU(buf, r)
		case r > 0xffff:
			hi, lo := utf16.EncodeRune(r)
			writeU(buf, hi)
			writeU(buf, lo)
		default:
			buf.WriteRune(r)
		}
	}
	buf.WriteByte('"')
}

func writeU(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	for shift := 12; shift >= 0; shift -= 4 {
		buf.WriteByte(hexDigits[(r>>shift)&0xf])
	}
}
