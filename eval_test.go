package xpath_test

import (
	"math"
	"testing"

	"github.com/midbel/xpath"
	"github.com/midbel/xpath/xml"
)

const prolog = `<?xml version="1.0" encoding="UTF-8"?>`

const sampleDoc = prolog + `<root><a id="x"><b/><b/></a><c/></root>`

func sample(t *testing.T, doc string) *xml.Document {
	t.Helper()
	d, err := xml.ParseString(doc)
	if err != nil {
		t.Fatalf("fail to parse sample document: %s", err)
	}
	return d
}

func evaluate(t *testing.T, q string, node xml.Node) xpath.Value {
	t.Helper()
	x, err := xpath.Build(q)
	if err != nil {
		t.Fatalf("%s: compilation failed: %s", q, err)
	}
	opts := xpath.Options{
		Node: node,
	}
	v, err := x.Evaluate(&opts)
	if err != nil {
		t.Fatalf("%s: evaluation failed: %s", q, err)
	}
	return v
}

func TestEvaluateNumber(t *testing.T) {
	doc := sample(t, sampleDoc)
	data := []struct {
		Query string
		Want  float64
	}{
		{Query: `count(//b)`, Want: 2},
		{Query: `count(//*)`, Want: 5},
		{Query: `count(/root/a/b)`, Want: 2},
		{Query: `count(//a/following::c)`, Want: 1},
		{Query: `1 + 2 * 3`, Want: 7},
		{Query: `(1 + 2) * 3`, Want: 9},
		{Query: `7 mod 4`, Want: 3},
		{Query: `6 div 4`, Want: 1.5},
		{Query: `-3 + 1`, Want: -2},
		{Query: `count(//a/@id)`, Want: 1},
		{Query: `string-length(string(//a/@id))`, Want: 1},
		{Query: `sum(//a/@id[. = 'x']) * 0`, Want: math.NaN()},
		{Query: `floor(1.5) + ceiling(1.2) + round(2.5)`, Want: 6},
	}
	for _, d := range data {
		v := evaluate(t, d.Query, doc)
		got := v.Number()
		if math.IsNaN(d.Want) {
			if !math.IsNaN(got) {
				t.Errorf("%s: got %v, want NaN", d.Query, got)
			}
			continue
		}
		if got != d.Want {
			t.Errorf("%s: got %v, want %v", d.Query, got, d.Want)
		}
	}
}

func TestEvaluateString(t *testing.T) {
	doc := sample(t, sampleDoc)
	data := []struct {
		Query string
		Want  string
	}{
		{Query: `string(//a/@id)`, Want: "x"},
		{Query: `substring("12345", 2, 3)`, Want: "234"},
		{Query: `substring("12345", 2)`, Want: "2345"},
		{Query: `substring("12345", 1.5, 2.6)`, Want: "234"},
		{Query: `translate("bar", "abc", "ABC")`, Want: "BAr"},
		{Query: `translate("--aaa--", "abc-", "ABC")`, Want: "AAA"},
		{Query: `concat("foo", "-", "bar")`, Want: "foo-bar"},
		{Query: `substring-before("1999/04/01", "/")`, Want: "1999"},
		{Query: `substring-after("1999/04/01", "/")`, Want: "04/01"},
		{Query: `normalize-space("  a   b  ")`, Want: "a b"},
		{Query: `string(number("1.5e2"))`, Want: "NaN"},
		{Query: `string(1 div 0)`, Want: "Infinity"},
		{Query: `string(-1 div 0)`, Want: "-Infinity"},
		{Query: `string(0.5 + 0.5)`, Want: "1"},
		{Query: `local-name(//b)`, Want: "b"},
		{Query: `name(/root/a)`, Want: "a"},
		{Query: `string(//missing)`, Want: ""},
	}
	for _, d := range data {
		v := evaluate(t, d.Query, doc)
		if got := v.String(); got != d.Want {
			t.Errorf("%s: got %q, want %q", d.Query, got, d.Want)
		}
	}
}

func TestEvaluateBoolean(t *testing.T) {
	doc := sample(t, sampleDoc)
	data := []struct {
		Query string
		Want  bool
	}{
		{Query: `//b`, Want: true},
		{Query: `//missing`, Want: false},
		{Query: `starts-with("hello", "he")`, Want: true},
		{Query: `contains("hello", "ell")`, Want: true},
		{Query: `not(//missing)`, Want: true},
		{Query: `true() and not(false())`, Want: true},
		{Query: `//a/@id = 'x'`, Want: true},
		{Query: `//a/@id != 'x'`, Want: false},
		{Query: `count(//b) > 1 and count(//b) < 3`, Want: true},
		{Query: `boolean(0)`, Want: false},
		{Query: `boolean("false")`, Want: true},
	}
	for _, d := range data {
		v := evaluate(t, d.Query, doc)
		if got := v.Boolean(); got != d.Want {
			t.Errorf("%s: got %t, want %t", d.Query, got, d.Want)
		}
	}
}

func TestSelectNodes(t *testing.T) {
	doc := sample(t, sampleDoc)

	bs, err := xpath.Select(`/root/a/b`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(bs) != 2 {
		t.Fatalf("got %d b elements, want 2", len(bs))
	}

	second, err := xpath.Select1(`/root/a/b[2]`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if second != bs[1] {
		t.Errorf("b[2] did not select the second b element")
	}

	last, err := xpath.Select1(`//*[local-name()='b'][position()=last()]`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if last != bs[1] {
		t.Errorf("position()=last() did not select the second b element")
	}

	first, err := xpath.Select1(`/root/a/b[position()=1]`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if first != bs[0] {
		t.Errorf("positional and numeric predicates disagree")
	}

	c, err := xpath.Select(`//a/following::c`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(c) != 1 || c[0].LocalName() != "c" {
		t.Errorf("following axis: got %d nodes", len(c))
	}
}

func TestUnionAssociative(t *testing.T) {
	doc := sample(t, sampleDoc)
	left, err := xpath.Select(`(//a | //b) | //c`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	right, err := xpath.Select(`//a | (//b | //c)`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(left) != len(right) {
		t.Fatalf("union sizes differ: %d vs %d", len(left), len(right))
	}
	for i := range left {
		if left[i] != right[i] {
			t.Errorf("union results differ at %d", i)
		}
	}
}

func TestAxisSymmetry(t *testing.T) {
	doc := sample(t, prolog+`<root><a><b><d/></b><b/></a><c>text</c></root>`)
	pairs := []struct {
		Axis    string
		Reverse string
	}{
		{Axis: "child", Reverse: "parent"},
		{Axis: "descendant", Reverse: "ancestor"},
		{Axis: "following", Reverse: "preceding"},
		{Axis: "following-sibling", Reverse: "preceding-sibling"},
	}
	all, err := xpath.Find(doc, `//* | /`)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	for _, p := range pairs {
		for _, n := range all.Sorted() {
			fwd, err := xpath.Find(n, p.Axis+`::node()`)
			if err != nil {
				t.Fatalf("%s: %s", p.Axis, err)
			}
			for _, m := range fwd.Sorted() {
				back, err := xpath.Find(m, p.Reverse+`::node()`)
				if err != nil {
					t.Fatalf("%s: %s", p.Reverse, err)
				}
				var found bool
				for _, r := range back.Sorted() {
					if r == n {
						found = true
						break
					}
				}
				if !found {
					t.Errorf("%s/%s: node not found on the reverse axis", p.Axis, p.Reverse)
				}
			}
		}
	}
}

func TestDocumentOrderOfResults(t *testing.T) {
	doc := sample(t, sampleDoc)
	nodes, err := xpath.Select(`//c | //@id | //b | /root`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	var names []string
	for _, n := range nodes {
		switch n.Type() {
		case xml.TypeAttribute:
			names = append(names, "@"+n.LocalName())
		default:
			names = append(names, n.LocalName())
		}
	}
	want := []string{"root", "@id", "b", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("got %d nodes (%v), want %d", len(names), names, len(want))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("node %d: got %s, want %s", i, names[i], want[i])
		}
	}
}

func TestNamespaceAxis(t *testing.T) {
	doc := sample(t, prolog+`<root xmlns:a="urn:a"><x xmlns:b="urn:b" xmlns:a="urn:a2"><y/></x></root>`)
	y, err := xpath.Select1(`//y`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	nodes, err := xpath.Find(y, `namespace::*`)
	if err != nil {
		t.Fatalf("namespace axis failed: %s", err)
	}
	scope := make(map[string]string)
	for _, n := range nodes.Sorted() {
		ns, ok := n.(*xml.Namespace)
		if !ok {
			t.Fatalf("expected namespace node, got %s", n.Type())
		}
		scope[ns.Prefix] = ns.Uri
	}
	if len(scope) != 3 {
		t.Fatalf("got %d in-scope bindings (%v), want 3", len(scope), scope)
	}
	if scope["xml"] != xml.NamespaceXML {
		t.Errorf("xml binding: got %q", scope["xml"])
	}
	if scope["a"] != "urn:a2" {
		t.Errorf("inner declaration must shadow outer: got %q", scope["a"])
	}
	if scope["b"] != "urn:b" {
		t.Errorf("b binding: got %q", scope["b"])
	}
	first := nodes.First()
	if ns, ok := first.(*xml.Namespace); !ok || ns.Prefix != "xml" {
		t.Errorf("xml namespace node must order first")
	}
}

func TestNameTestNamespaces(t *testing.T) {
	doc := sample(t, prolog+`<svg xmlns="http://www.w3.org/2000/svg"><rect/></svg>`)

	nodes, err := xpath.Select(`//rect`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 0 {
		t.Errorf("unprefixed test must not match a namespaced element")
	}

	sel := xpath.UseNamespaces(map[string]string{"s": "http://www.w3.org/2000/svg"})
	nodes, err = sel(`//s:rect`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 1 {
		t.Errorf("prefixed test: got %d nodes, want 1", len(nodes))
	}

	x, err := xpath.BuildWith(`//rect`, xpath.WithAnyNamespaceForNoPrefix())
	if err != nil {
		t.Fatalf("compilation failed: %s", err)
	}
	set, err := x.Find(doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if set.Len() != 1 {
		t.Errorf("any-namespace test: got %d nodes, want 1", set.Len())
	}

	nodes, err = sel(`//s:*`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 2 {
		t.Errorf("prefix wildcard: got %d nodes, want 2", len(nodes))
	}
}

func TestHtmlMode(t *testing.T) {
	doc := sample(t, prolog+`<HTML><BODY><P>hello</P></BODY></HTML>`)
	x, err := xpath.BuildWith(`//body/p`, xpath.WithHTML())
	if err != nil {
		t.Fatalf("compilation failed: %s", err)
	}
	set, err := x.Find(doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if set.Len() != 1 {
		t.Fatalf("case insensitive test: got %d nodes, want 1", set.Len())
	}
	if got := set.String(); got != "hello" {
		t.Errorf("string value: got %q", got)
	}
}

func TestVariablesAndFunctions(t *testing.T) {
	doc := sample(t, sampleDoc)
	twice := func(_ *xpath.Context, args []xpath.Value) (xpath.Value, error) {
		return xpath.Number(args[0].Number() * 2), nil
	}
	x, err := xpath.BuildWith(`twice($n) + count(//b)`,
		xpath.WithVariable("n", xpath.Number(20)),
		xpath.WithFunction("twice", twice),
	)
	if err != nil {
		t.Fatalf("compilation failed: %s", err)
	}
	opts := xpath.Options{
		Node: doc,
	}
	got, err := x.EvaluateNumber(&opts)
	if err != nil {
		t.Fatalf("evaluation failed: %s", err)
	}
	if got != 42 {
		t.Errorf("got %v, want 42", got)
	}
}

func TestEvaluationErrors(t *testing.T) {
	doc := sample(t, sampleDoc)
	data := []struct {
		Query    string
		TypeCode bool
	}{
		{Query: `$undeclared`},
		{Query: `unknown-function()`},
		{Query: `undeclared:name()`},
		{Query: `concat('one')`},
		{Query: `count(1)`, TypeCode: true},
		{Query: `(1)[1]`, TypeCode: true},
		{Query: `('a')/b`, TypeCode: true},
		{Query: `'a' | 'b'`, TypeCode: true},
	}
	for _, d := range data {
		x, err := xpath.Build(d.Query)
		if err != nil {
			t.Errorf("%s: compilation failed: %s", d.Query, err)
			continue
		}
		opts := xpath.Options{
			Node: doc,
		}
		_, err = x.Evaluate(&opts)
		if err == nil {
			t.Errorf("%s: expected evaluation to fail", d.Query)
			continue
		}
		if d.TypeCode && !xpath.IsTypeError(err) {
			t.Errorf("%s: expected a type error, got %s", d.Query, err)
		}
	}
}

func TestIdFunction(t *testing.T) {
	doc := sample(t, sampleDoc)
	nodes, err := xpath.Select(`id('x')`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 1 || nodes[0].LocalName() != "a" {
		t.Errorf("id lookup: got %d nodes", len(nodes))
	}
	nodes, err = xpath.Select(`id('x missing')/b`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 2 {
		t.Errorf("id with token list: got %d nodes, want 2", len(nodes))
	}
}

func TestLangFunction(t *testing.T) {
	doc := sample(t, prolog+`<root xml:lang="en-GB"><p/><q xml:lang="fr"/></root>`)
	p, err := xpath.Select1(`//p`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if v := evaluate(t, `lang('en')`, p); !v.Boolean() {
		t.Errorf("lang('en') must match en-GB in scope")
	}
	if v := evaluate(t, `lang('en-gb')`, p); !v.Boolean() {
		t.Errorf("lang is case insensitive")
	}
	q, err := xpath.Select1(`//q`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if v := evaluate(t, `lang('en')`, q); v.Boolean() {
		t.Errorf("closest declaration wins")
	}
}

func TestResultWrapper(t *testing.T) {
	doc := sample(t, sampleDoc)
	var ev xpath.Evaluator

	res, err := ev.Evaluate(`count(//b)`, doc, nil, xpath.NumberType, nil)
	if err != nil {
		t.Fatalf("evaluate failed: %s", err)
	}
	if n, err := res.NumberValue(); err != nil || n != 2 {
		t.Errorf("number result: got %v, %v", n, err)
	}
	if _, err := res.SnapshotItem(0); !xpath.IsTypeError(err) {
		t.Errorf("snapshot access on a number result must raise the type error")
	}

	res, err = ev.Evaluate(`//b`, doc, nil, xpath.OrderedNodeSnapshotType, nil)
	if err != nil {
		t.Fatalf("evaluate failed: %s", err)
	}
	if n, _ := res.SnapshotLength(); n != 2 {
		t.Errorf("snapshot length: got %d, want 2", n)
	}

	res, err = ev.Evaluate(`//b`, doc, nil, xpath.OrderedNodeIteratorType, nil)
	if err != nil {
		t.Fatalf("evaluate failed: %s", err)
	}
	var count int
	for {
		n, err := res.IterateNext()
		if err != nil {
			t.Fatalf("iterate failed: %s", err)
		}
		if n == nil {
			break
		}
		count++
	}
	if count != 2 {
		t.Errorf("iterator: got %d nodes, want 2", count)
	}

	res, err = ev.Evaluate(`//b`, doc, nil, xpath.FirstOrderedNodeType, nil)
	if err != nil {
		t.Fatalf("evaluate failed: %s", err)
	}
	if n, err := res.SingleNodeValue(); err != nil || n == nil {
		t.Errorf("single node: got %v, %v", n, err)
	}

	if _, err := ev.Evaluate(`count(//b)`, doc, nil, 10, nil); err == nil {
		t.Errorf("result type out of range must fail")
	}

	if _, err := ev.Evaluate(`//b`, doc, nil, xpath.OrderedNodeSnapshotType, res); err != nil {
		t.Errorf("reuse must succeed: %s", err)
	}
}

func TestVirtualRoot(t *testing.T) {
	doc := sample(t, sampleDoc)
	a, err := xpath.Select1(`/root/a`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	x, err := xpath.BuildWith(`count(ancestor::node())`, xpath.WithVirtualRoot(a))
	if err != nil {
		t.Fatalf("compilation failed: %s", err)
	}
	b, err := xpath.Select1(`/root/a/b`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	opts := xpath.Options{
		Node: b,
	}
	got, err := x.EvaluateNumber(&opts)
	if err != nil {
		t.Fatalf("evaluation failed: %s", err)
	}
	if got != 1 {
		t.Errorf("ancestors bounded by virtual root: got %v, want 1", got)
	}
}
