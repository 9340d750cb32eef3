package tree

import "errors"

// SkipSubtree may be returned by a VisitFunc to skip the children of the node
// it was called with. Walk itself never returns it.
var SkipSubtree = errors.New("tree: skip subtree")

// VisitFunc is called once per node with the node's canonical path.
type VisitFunc func(p Path, n *Node) error

// Walk visits root and every descendant depth-first. At each container the
// attributes are visited first, then the fields, each group in name order.
// Items of a sequence are visited in document order under the sequence's own
// path, so a path may be reported more than once.
func Walk(root *Node, fn VisitFunc) error {
	if root == nil {
		return nil
	}
	err := walk(Root, root, fn)
	if errors.Is(err, SkipSubtree) {
		return nil
	}
	return err
}

func walk(p Path, n *Node, fn VisitFunc) error {
	if err := fn(p, n); err != nil {
		if errors.Is(err, SkipSubtree) {
			return nil
		}
		return err
	}
	switch n.Kind {
	case KindContainer:
		for _, a := range n.SortedAttrs() {
			if err := walk(p.Attr(a.Name), a.Node, fn); err != nil {
				return err
			}
		}
		for _, f := range n.SortedFields() {
			if err := walk(p.Child(f.Name), f.Node, fn); err != nil {
				return err
			}
		}
	case KindSequence:
		for _, it := range n.Items {
			if err := walk(p, it, fn); err != nil {
				return err
			}
		}
	}
	return nil
}
