// Package policy resolves the per-path optional, nullable and excluded
// classification of a document from configuration.
package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZyrusAlvez/Schema-Generator/tree"
)

// PathSet is a set of canonical paths.
type PathSet map[tree.Path]struct{}

// NewPathSet builds a set from path strings. Blank entries are ignored.
func NewPathSet(paths ...string) PathSet {
	s := make(PathSet, len(paths))
	for _, p := range paths {
		if p != "" {
			s[tree.Path(p)] = struct{}{}
		}
	}
	return s
}

// Has reports membership.
func (s PathSet) Has(p tree.Path) bool {
	_, ok := s[p]
	return ok
}

// Sorted returns the members in lexical order.
func (s PathSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for p := range s {
		out = append(out, string(p))
	}
	sort.Strings(out)
	return out
}

// Policy is the field policy of one document. A path may sit in several sets
// at once; Excluded wins over the others. The nil Policy is empty, which
// yields the strictest schema.
type Policy struct {
	Optional PathSet
	Nullable PathSet
	Excluded PathSet
}

// Empty returns a policy with no paths.
func Empty() *Policy { return &Policy{} }

// IsOptional reports whether p is optional and not excluded.
func (p *Policy) IsOptional(path tree.Path) bool {
	return p != nil && p.Optional.Has(path) && !p.Excluded.Has(path)
}

// IsNullable reports whether p is nullable and not excluded.
func (p *Policy) IsNullable(path tree.Path) bool {
	return p != nil && p.Nullable.Has(path) && !p.Excluded.Has(path)
}

// IsExcluded reports whether p and its subtree are dropped.
func (p *Policy) IsExcluded(path tree.Path) bool { return p != nil && p.Excluded.Has(path) }

// IsEmpty reports whether no path carries a classification.
func (p *Policy) IsEmpty() bool {
	return p == nil || len(p.Optional)+len(p.Nullable)+len(p.Excluded) == 0
}

// String lists the classified paths, e.g. "optional=[a b] excluded=[c]".
// Empty sets are omitted.
func (p *Policy) String() string {
	if p.IsEmpty() {
		return "{}"
	}
	var parts []string
	for _, set := range []struct {
		name string
		s    PathSet
	}{{"optional", p.Optional}, {"nullable", p.Nullable}, {"excluded", p.Excluded}} {
		if len(set.s) > 0 {
			parts = append(parts, set.name+"="+fmt.Sprint(set.s.Sorted()))
		}
	}
	return strings.Join(parts, " ")
}

// Marker returns the fingerprint marker of path: "optional", "nullable",
// "optional,nullable", or "" for a plain path.
func (p *Policy) Marker(path tree.Path) string {
	opt, null := p.IsOptional(path), p.IsNullable(path)
	switch {
	case opt && null:
		return "optional,nullable"
	case opt:
		return "optional"
	case null:
		return "nullable"
	}
	return ""
}
