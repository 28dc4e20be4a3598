package xml_test

import (
	"strings"
	"testing"

	"github.com/midbel/xpath/xml"
)

func TestWriteDocument(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root id="1"><child>text</child><empty/></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	str, err := doc.WriteString()
	if err != nil {
		t.Fatalf("writing failed: %s", err)
	}
	for _, want := range []string{`<?xml`, `<root id="1">`, `<child>text</child>`, `<empty/>`, `</root>`} {
		if !strings.Contains(str, want) {
			t.Errorf("serialized document misses %q: %s", want, str)
		}
	}
}

func TestWriteRoundTrip(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root><a x="1&amp;2">one</a><b>&lt;tag&gt;</b></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	str, err := doc.WriteString()
	if err != nil {
		t.Fatalf("writing failed: %s", err)
	}
	again, err := xml.ParseString(str)
	if err != nil {
		t.Fatalf("reparsing failed: %s", err)
	}
	if got, want := again.Root().Value(), doc.Root().Value(); got != want {
		t.Errorf("round trip changed the text value: %q vs %q", got, want)
	}
	a := again.Root().(*xml.Element).Find("a").(*xml.Element)
	if attr, ok := a.GetAttribute("x"); !ok || attr.Value() != "1&2" {
		t.Errorf("attribute round trip failed")
	}
}

func TestWriteNode(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root><a/></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	a := doc.Root().(*xml.Element).Find("a")
	if got := xml.WriteNode(a); !strings.Contains(got, "<a/>") {
		t.Errorf("got %q", got)
	}
}
