package xpath

import (
	"github.com/midbel/xpath/xml"
)

// documentOrder compares two nodes by their position in the document:
// negative when a precedes b, zero only for identical nodes. The
// second return is false when the nodes live in disconnected trees.
//
// Attribute and namespace nodes order immediately after their owner
// element and before its children, namespace nodes first, the xml
// namespace node first of all.
func documentOrder(a, b xml.Node) (int, bool) {
	if a == b {
		return 0, true
	}
	var (
		da = depthOf(a)
		db = depthOf(b)
		x  = a
		y  = b
	)
	for d := da; d > db; d-- {
		x = parentOf(x)
		if x == b {
			// b is an ancestor of a
			return 1, true
		}
	}
	for d := db; d > da; d-- {
		y = parentOf(y)
		if y == a {
			return -1, true
		}
	}
	for parentOf(x) != parentOf(y) {
		x = parentOf(x)
		y = parentOf(y)
		if x == nil || y == nil {
			return 0, false
		}
	}
	if parentOf(x) == nil && x != y {
		return 0, false
	}
	return siblingOrder(x, y), true
}

// depthOf counts the hops to the tree root, attributes and namespace
// nodes hanging off their owner element.
func depthOf(n xml.Node) int {
	var depth int
	for p := parentOf(n); p != nil; p = parentOf(p) {
		depth++
	}
	return depth
}

func parentOf(n xml.Node) xml.Node {
	switch n := n.(type) {
	case *xml.Attribute:
		if el := n.OwnerElement(); el != nil {
			return el
		}
		return nil
	case *xml.Namespace:
		return n.OwnerElement()
	default:
		p := n.Parent()
		if p == nil {
			return nil
		}
		return p
	}
}

// siblingOrder decides between two distinct nodes sharing a parent.
func siblingOrder(a, b xml.Node) int {
	var (
		ra = siblingRank(a)
		rb = siblingRank(b)
	)
	if ra != rb {
		return ra - rb
	}
	if ra == 0 {
		// two namespace nodes: the xml binding comes first
		switch {
		case a.Value() == xml.NamespaceXML:
			return -1
		case b.Value() == xml.NamespaceXML:
			return 1
		}
	}
	return a.Position() - b.Position()
}

// siblingRank orders the three families at the same tree level:
// namespace nodes, then attributes, then children.
func siblingRank(n xml.Node) int {
	switch n.Type() {
	case xml.TypeNamespace:
		return 0
	case xml.TypeAttribute:
		return 1
	default:
		return 2
	}
}
