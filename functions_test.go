package xpath_test

import (
	"testing"

	"github.com/midbel/xpath"
)

func TestNormalizeSpaceIdempotent(t *testing.T) {
	doc := sample(t, sampleDoc)
	samples := []string{
		"",
		"   ",
		"a",
		"  a  b ",
		"a\t\nb\r c",
		"already normal",
	}
	for _, s := range samples {
		x, err := xpath.BuildWith(`normalize-space($s)`, xpath.WithVariable("s", xpath.String(s)))
		if err != nil {
			t.Fatalf("compilation failed: %s", err)
		}
		opts := xpath.Options{
			Node: doc,
		}
		once, err := x.EvaluateString(&opts)
		if err != nil {
			t.Fatalf("evaluation failed: %s", err)
		}
		y, err := xpath.BuildWith(`normalize-space($s)`, xpath.WithVariable("s", xpath.String(once)))
		if err != nil {
			t.Fatalf("compilation failed: %s", err)
		}
		twice, err := y.EvaluateString(&opts)
		if err != nil {
			t.Fatalf("evaluation failed: %s", err)
		}
		if once != twice {
			t.Errorf("%q: normalize-space not idempotent: %q vs %q", s, once, twice)
		}
	}
}

func TestRounding(t *testing.T) {
	doc := sample(t, sampleDoc)
	data := []struct {
		Query string
		Want  float64
	}{
		{Query: `round(2.5)`, Want: 3},
		{Query: `round(-2.5)`, Want: -2},
		{Query: `round(2.4)`, Want: 2},
		{Query: `floor(-1.5)`, Want: -2},
		{Query: `ceiling(-1.5)`, Want: -1},
		{Query: `number(true())`, Want: 1},
		{Query: `number(false())`, Want: 0},
	}
	for _, d := range data {
		v := evaluate(t, d.Query, doc)
		if got := v.Number(); got != d.Want {
			t.Errorf("%s: got %v, want %v", d.Query, got, d.Want)
		}
	}
}

func TestNameFunctions(t *testing.T) {
	doc := sample(t, prolog+`<r xmlns:p="urn:p"><p:item/></r>`)
	sel := xpath.UseNamespaces(map[string]string{"q": "urn:p"})
	nodes, err := sel(`//q:item`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if len(nodes) != 1 {
		t.Fatalf("got %d nodes, want 1", len(nodes))
	}
	item := nodes[0]
	if got := evaluate(t, `local-name()`, item).String(); got != "item" {
		t.Errorf("local-name: got %q", got)
	}
	if got := evaluate(t, `name()`, item).String(); got != "p:item" {
		t.Errorf("name: got %q", got)
	}
	if got := evaluate(t, `namespace-uri()`, item).String(); got != "urn:p" {
		t.Errorf("namespace-uri: got %q", got)
	}
	if got := evaluate(t, `namespace-uri(/r)`, item).String(); got != "" {
		t.Errorf("namespace-uri of unprefixed element: got %q", got)
	}
}

func TestStringDefaults(t *testing.T) {
	doc := sample(t, prolog+`<root>  <a> one </a><b>two</b></root>`)
	a, err := xpath.Select1(`//a`, doc)
	if err != nil {
		t.Fatalf("select failed: %s", err)
	}
	if got := evaluate(t, `string()`, a).String(); got != "one" {
		t.Errorf("string() of context node: got %q", got)
	}
	if got := evaluate(t, `string-length()`, a).Number(); got != 3 {
		t.Errorf("string-length() of context node: got %v", got)
	}
	if got := evaluate(t, `string(/)`, a).String(); got != "onetwo" {
		t.Errorf("string value of the document: got %q", got)
	}
}
