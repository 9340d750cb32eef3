package tree

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var dumpConfig = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// Dump writes a full structural dump of n to w.
func Dump(w io.Writer, n *Node) { dumpConfig.Fdump(w, n) }

// Outline writes one line per visited path, indented by depth. Attribute
// paths are marked with a leading "@ ".
func Outline(w io.Writer, n *Node) error {
	seen := make(map[Path]struct{})
	return Walk(n, func(p Path, node *Node) error {
		if p.IsRoot() {
			return nil
		}
		if _, ok := seen[p]; ok {
			return nil
		}
		seen[p] = struct{}{}
		depth := strings.Count(string(p), ".")
		marker := ""
		if p.IsAttr() {
			marker = "@ "
			depth++
		}
		_, err := fmt.Fprintf(w, "%s%s%s (%s)\n", strings.Repeat("  ", depth), marker, p, node.Kind)
		return err
	})
}
