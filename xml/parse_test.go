package xml_test

import (
	"strings"
	"testing"

	"github.com/midbel/xpath/xml"
)

const prolog = `<?xml version="1.0" encoding="UTF-8"?>`

func TestParseValidDocument(t *testing.T) {
	data := []string{
		prolog + `<root/>`,
		prolog + `<root><child attr="value">text</child></root>`,
		prolog + `<root><![CDATA[raw <data>]]></root>`,
		prolog + `<!-- leading --><root/><!-- trailing -->`,
		prolog + `<root><?target key="value"?></root>`,
		prolog + `<ns:root xmlns:ns="urn:ns"><ns:child/></ns:root>`,
		prolog + `<root a="1" b="2&amp;3" c="&#x41;"/>`,
		prolog + `<!DOCTYPE root SYSTEM "root.dtd"><root/>`,
	}
	for _, d := range data {
		doc, err := xml.ParseString(d)
		if err != nil {
			t.Errorf("%s: parsing failed: %s", d, err)
			continue
		}
		if doc.Root() == nil {
			t.Errorf("%s: document without root", d)
		}
	}
}

func TestParseInvalidDocument(t *testing.T) {
	data := []struct {
		Xml   string
		Cause string
	}{
		{
			Xml:   ``,
			Cause: "empty document has no root element",
		},
		{
			Xml:   `<root></root>`,
			Cause: "prolog is required by default",
		},
		{
			Xml:   prolog + `<root empty-attr></root>`,
			Cause: "attribute without value",
		},
		{
			Xml:   prolog + `<root id="1" id="2"></root>`,
			Cause: "duplicate attribute",
		},
		{
			Xml:   prolog + `<root><child></root>`,
			Cause: "mismatched closing element",
		},
		{
			Xml:   prolog + `<root>`,
			Cause: "missing closing element",
		},
		{
			Xml:   prolog + `<root/><other/>`,
			Cause: "content after root element",
		},
	}
	for _, d := range data {
		p := xml.NewParser(strings.NewReader(d.Xml))
		_, err := p.Parse()
		if err == nil {
			t.Errorf("%s: expected parsing to fail (%s)", d.Xml, d.Cause)
		}
	}
}

func TestParseNamespaces(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root xmlns="urn:default" xmlns:p="urn:p" p:a="1" b="2"><p:x/><y/></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	root := doc.Root().(*xml.Element)
	if root.Uri != "urn:default" {
		t.Errorf("default namespace: got %q", root.Uri)
	}
	a, ok := root.GetAttributeNS("urn:p", "a")
	if !ok || a.Value() != "1" {
		t.Errorf("prefixed attribute lookup failed")
	}
	b, ok := root.GetAttribute("b")
	if !ok || b.Uri != "" {
		t.Errorf("unprefixed attributes take no namespace: got %q", b.Uri)
	}
	x := root.Find("x").(*xml.Element)
	if x.Uri != "urn:p" {
		t.Errorf("prefixed element: got %q", x.Uri)
	}
	y := root.Find("y").(*xml.Element)
	if y.Uri != "urn:default" {
		t.Errorf("default namespace must be inherited: got %q", y.Uri)
	}
}

func TestParseTextAndEntities(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root>one &amp; two &lt;three&gt;</root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	if got := doc.Root().Value(); got != "one & two <three>" {
		t.Errorf("entity expansion: got %q", got)
	}
}

func TestNavigation(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root><a/><b/><c/></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	root := doc.Root()
	first := xml.FirstChild(root)
	if first == nil || first.LocalName() != "a" {
		t.Fatalf("first child: got %v", first)
	}
	next := xml.NextSibling(first)
	if next == nil || next.LocalName() != "b" {
		t.Fatalf("next sibling: got %v", next)
	}
	if prev := xml.PrevSibling(next); prev != first {
		t.Errorf("prev sibling mismatched")
	}
	last := xml.LastChild(root)
	if last == nil || last.LocalName() != "c" {
		t.Errorf("last child: got %v", last)
	}
	if xml.NextSibling(last) != nil {
		t.Errorf("last child has no next sibling")
	}
	if xml.OwnerDocument(first) != doc {
		t.Errorf("owner document mismatched")
	}
}

func TestGetElementById(t *testing.T) {
	doc, err := xml.ParseString(prolog + `<root><a id="one"/><b xml:id="two"/></root>`)
	if err != nil {
		t.Fatalf("parsing failed: %s", err)
	}
	if n := doc.GetElementById("one"); n == nil || n.LocalName() != "a" {
		t.Errorf("id lookup failed")
	}
	if n := doc.GetElementById("two"); n == nil || n.LocalName() != "b" {
		t.Errorf("xml:id lookup failed")
	}
	if n := doc.GetElementById("missing"); n != nil {
		t.Errorf("missing id must return nil")
	}
}
