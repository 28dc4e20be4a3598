package xpath_test

import (
	"testing"

	"github.com/midbel/xpath"
	"github.com/midbel/xpath/xml"
)

// buildTree makes root/(child-0 child-1 ... child-(n-1)) with a nested
// grandchild under every other child.
func buildTree(n int) (*xml.Document, []xml.Node) {
	var (
		root  = xml.NewElement(xml.LocalName("root"))
		order []xml.Node
	)
	doc := xml.NewDocument(root)
	order = append(order, root)
	for i := 0; i < n; i++ {
		child := xml.NewElement(xml.LocalName("child"))
		root.Append(child)
		order = append(order, child)
		if i%2 == 0 {
			sub := xml.NewElement(xml.LocalName("sub"))
			child.Append(sub)
			order = append(order, sub)
		}
	}
	return doc, order
}

func TestNodeSetDedup(t *testing.T) {
	_, order := buildTree(4)
	set := xpath.NewNodeSet()
	for i := 0; i < 10; i++ {
		set.Add(order[0])
		set.Add(order[1])
	}
	if got := set.Len(); got != 2 {
		t.Errorf("got %d nodes, want 2", got)
	}
	if got := len(set.Sorted()); got != set.Len() {
		t.Errorf("sorted view has %d nodes, size says %d", got, set.Len())
	}
	seen := make(map[xml.Node]int)
	for _, n := range set.Sorted() {
		seen[n]++
	}
	for n, c := range seen {
		if c > 1 {
			t.Errorf("node %s appears %d times", n.LocalName(), c)
		}
	}
}

func TestNodeSetDocumentOrder(t *testing.T) {
	_, order := buildTree(8)
	set := xpath.NewNodeSet()
	// insert back to front, the worst case for the in-order pattern
	for i := len(order) - 1; i >= 0; i-- {
		set.Add(order[i])
	}
	sorted := set.Sorted()
	if len(sorted) != len(order) {
		t.Fatalf("got %d nodes, want %d", len(sorted), len(order))
	}
	for i := range order {
		if sorted[i] != order[i] {
			t.Errorf("node %d out of document order", i)
		}
	}
	if set.First() != order[0] {
		t.Errorf("first must be the lowest node in document order")
	}
}

func TestNodeSetMutationInvalidatesIndex(t *testing.T) {
	_, order := buildTree(4)
	set := xpath.NewNodeSet(order[2], order[1])
	if set.First() != order[1] {
		t.Fatalf("unexpected first node")
	}
	set.Add(order[0])
	if set.First() != order[0] {
		t.Errorf("index must be rebuilt after a mutation")
	}
	if set.Len() != 3 {
		t.Errorf("got %d nodes, want 3", set.Len())
	}
}

func TestNodeSetStringValue(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root><a>first</a><b>second</b></root>`)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	set, err := xpath.Find(doc, `//b | //a`)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if got := set.String(); got != "first" {
		t.Errorf("string value of a node-set is its first node: got %q", got)
	}
	if got := xpath.NewNodeSet().String(); got != "" {
		t.Errorf("string value of the empty node-set: got %q", got)
	}
}

func TestNodeSetAttributeOrder(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root a="1" b="2"><x/></root>`)
	if err != nil {
		t.Fatalf("fail to parse document: %s", err)
	}
	nodes, err := xpath.Select(`//x | //@b | //@a`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if nodes[0].LocalName() != "a" || nodes[1].LocalName() != "b" {
		t.Errorf("attributes must order before children, in list order")
	}
	if nodes[2].LocalName() != "x" {
		t.Errorf("element must order after the attributes")
	}
}
