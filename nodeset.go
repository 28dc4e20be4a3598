package xpath

import (
	"iter"
	"slices"

	"github.com/midbel/xpath/xml"
)

// NodeSet is an unordered, duplicate-free collection of nodes. Nodes
// are appended to an insertion list; a self-balancing index keyed by
// document order is built lazily the first time a sorted view is
// requested and discarded again on mutation. Duplicates (by node
// identity) are dropped when the index is materialised.
type NodeSet struct {
	nodes []xml.Node
	tree  *avlNode
	sort  []xml.Node

	// arrival breaks ties between disconnected nodes so the index
	// comparator stays total.
	arrival map[xml.Node]int
}

func NewNodeSet(nodes ...xml.Node) *NodeSet {
	set := &NodeSet{
		arrival: make(map[xml.Node]int),
	}
	set.AddAll(nodes)
	return set
}

func (s *NodeSet) Add(node xml.Node) {
	if s.arrival == nil {
		s.arrival = make(map[xml.Node]int)
	}
	if _, ok := s.arrival[node]; !ok {
		s.arrival[node] = len(s.nodes)
	}
	s.nodes = append(s.nodes, node)
	s.invalidate()
}

func (s *NodeSet) AddAll(nodes []xml.Node) {
	for i := range nodes {
		s.Add(nodes[i])
	}
}

// Nodes returns the insertion-ordered view, duplicates removed.
func (s *NodeSet) Nodes() []xml.Node {
	var (
		seen = make(map[xml.Node]struct{}, len(s.nodes))
		list []xml.Node
	)
	for _, n := range s.nodes {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		list = append(list, n)
	}
	return list
}

// Sorted returns the nodes in document order.
func (s *NodeSet) Sorted() []xml.Node {
	s.index()
	return slices.Clone(s.sort)
}

// First returns the lowest node in document order, nil when empty.
func (s *NodeSet) First() xml.Node {
	s.index()
	if len(s.sort) == 0 {
		return nil
	}
	return s.sort[0]
}

func (s *NodeSet) Len() int {
	s.index()
	return len(s.sort)
}

func (s *NodeSet) Empty() bool {
	return len(s.nodes) == 0
}

func (s *NodeSet) All() iter.Seq[xml.Node] {
	do := func(yield func(xml.Node) bool) {
		for _, n := range s.Sorted() {
			if !yield(n) {
				break
			}
		}
	}
	return do
}

// String is the XPath string value of the set: the string value of its
// first node in document order, empty when the set is empty.
func (s *NodeSet) String() string {
	first := s.First()
	if first == nil {
		return ""
	}
	return stringValue(first)
}

func (s *NodeSet) Number() float64 {
	return parseNumber(s.String())
}

func (s *NodeSet) Boolean() bool {
	return len(s.nodes) > 0
}

func (s *NodeSet) invalidate() {
	s.tree = nil
	s.sort = nil
}

func (s *NodeSet) index() {
	if s.sort != nil || len(s.nodes) == 0 {
		return
	}
	for _, n := range s.nodes {
		s.tree = s.tree.insert(n, s.compare)
	}
	s.sort = make([]xml.Node, 0, len(s.nodes))
	s.tree.walk(func(n xml.Node) {
		s.sort = append(s.sort, n)
	})
}

func (s *NodeSet) compare(a, b xml.Node) int {
	cmp, ok := documentOrder(a, b)
	if ok {
		return cmp
	}
	return s.arrival[a] - s.arrival[b]
}

func stringValue(n xml.Node) string {
	return n.Value()
}

// avlNode is one node of the document-order index. Children are owned
// values; rotations return the new subtree root instead of rewiring
// parent pointers.
type avlNode struct {
	value xml.Node
	left  *avlNode
	right *avlNode
	depth int
}

func (t *avlNode) insert(n xml.Node, cmp func(a, b xml.Node) int) *avlNode {
	if t == nil {
		return &avlNode{
			value: n,
			depth: 1,
		}
	}
	order := cmp(n, t.value)
	if order == 0 {
		return t
	}
	if order < 0 {
		t.left = t.left.insert(n, cmp)
	} else {
		t.right = t.right.insert(n, cmp)
	}
	return t.balance()
}

func (t *avlNode) walk(visit func(xml.Node)) {
	if t == nil {
		return
	}
	t.left.walk(visit)
	visit(t.value)
	t.right.walk(visit)
}

func (t *avlNode) balance() *avlNode {
	t.reckon()
	switch lean := t.left.height() - t.right.height(); {
	case lean > 1:
		if t.left.left.height() < t.left.right.height() {
			t.left = t.left.rotateLeft()
		}
		return t.rotateRight()
	case lean < -1:
		if t.right.right.height() < t.right.left.height() {
			t.right = t.right.rotateRight()
		}
		return t.rotateLeft()
	default:
		return t
	}
}

func (t *avlNode) rotateLeft() *avlNode {
	root := t.right
	t.right = root.left
	root.left = t
	t.reckon()
	root.reckon()
	return root
}

func (t *avlNode) rotateRight() *avlNode {
	root := t.left
	t.left = root.right
	root.right = t
	t.reckon()
	root.reckon()
	return root
}

func (t *avlNode) height() int {
	if t == nil {
		return 0
	}
	return t.depth
}

func (t *avlNode) reckon() {
	t.depth = 1 + max(t.left.height(), t.right.height())
}
