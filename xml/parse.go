package xml

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/midbel/xpath/environ"
)

const (
	SupportedVersion  = "1.0"
	SupportedEncoding = "UTF-8"

	AttrXmlNS = "xmlns"
	MaxDepth  = 512
)

// ParseError locates a syntax problem in the document being parsed.
type ParseError struct {
	Element string
	Message string
	Position
}

func (p ParseError) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", p.Line, p.Column, p.Element, p.Message)
}

type Parser struct {
	scan       *Scanner
	curr       Token
	peek       Token
	depth      int
	namespaces environ.Environ[string]

	OmitProlog bool
	StrictNS   bool
	TrimSpace  bool
	KeepEmpty  bool
	MaxDepth   int
}

func NewParser(r io.Reader) *Parser {
	p := Parser{
		scan:       Scan(r),
		namespaces: environ.Empty[string](),
		TrimSpace:  true,
		MaxDepth:   MaxDepth,
	}
	p.namespaces.Define("xml", NamespaceXML)
	p.namespaces.Define(AttrXmlNS, NamespaceXMLNS)
	for range 2 {
		p.next()
	}
	return &p
}

func ParseFile(file string) (*Document, error) {
	r, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return ParseReader(r)
}

func ParseString(doc string) (*Document, error) {
	return ParseReader(strings.NewReader(doc))
}

func ParseReader(r io.Reader) (*Document, error) {
	return NewParser(r).Parse()
}

func (p *Parser) Parse() (*Document, error) {
	if _, err := p.parseProlog(); err != nil {
		return nil, err
	}
	for p.is(Literal) {
		p.next()
	}
	doc := EmptyDocument()
	for !p.done() {
		node, err := p.parseNode()
		switch {
		case err != nil:
			return nil, err
		case node == nil:
			continue
		}
		switch node.Type() {
		case TypeComment, TypeElement, TypeInstruction:
		case TypeDocType:
			dt := node.(*DocType)
			doc.DocType = dt
		case TypeText:
			continue
		default:
			return nil, p.createError("document", "invalid node type")
		}
		doc.Attach(node)
		if node.Type() == TypeElement {
			break
		}
	}
	if doc.Root() == nil {
		return nil, p.createError("document", "missing root element")
	}
	for !p.done() {
		node, err := p.parseNode()
		if err != nil {
			return nil, err
		}
		if node == nil || node.Type() == TypeText {
			continue
		}
		if node.Type() != TypeComment && node.Type() != TypeInstruction {
			return nil, p.createError("document", "content after root element")
		}
		doc.Attach(node)
	}
	return doc, nil
}

func (p *Parser) parseProlog() (Node, error) {
	if !p.is(ProcInstTag) {
		if p.OmitProlog {
			return nil, nil
		}
		return nil, p.createError("document", "xml prolog missing")
	}
	node, err := p.parsePI()
	if err != nil {
		return nil, err
	}
	pi, ok := node.(*Instruction)
	if !ok || pi.Name != "xml" {
		return nil, p.createError("document", "expected xml prolog")
	}
	if version, set := prologValue(pi, "version"); !set || version != SupportedVersion {
		return nil, p.createError("document", "xml version not supported")
	}
	encoding, set := prologValue(pi, "encoding")
	if set && !strings.EqualFold(encoding, SupportedEncoding) {
		return nil, p.createError("document", "xml encoding not supported")
	}
	return pi, nil
}

func prologValue(pi *Instruction, name string) (string, bool) {
	for _, a := range pi.Attrs {
		if a.LocalName() == name {
			return a.Value(), true
		}
	}
	return "", false
}

func (p *Parser) parseNode() (Node, error) {
	if err := p.enter(); err != nil {
		return nil, err
	}
	defer p.leave()
	switch p.curr.Type {
	case OpenTag:
		return p.parseElement()
	case CommentTag:
		return p.parseComment()
	case ProcInstTag:
		return p.parsePI()
	case DocTypeTag:
		return p.parseDocType()
	case Cdata:
		return p.parseCharData()
	case Literal:
		return p.parseLiteral()
	default:
		return nil, p.createError("document", "unsupported element type")
	}
}

func (p *Parser) parseElement() (Node, error) {
	p.enterScope()
	defer p.leaveScope()

	p.next()
	var elem Element
	if err := p.parseTagName(&elem.QName); err != nil {
		return nil, err
	}

	attrs, err := p.parseAttributes(func() bool {
		return p.is(EndTag) || p.is(EmptyElemTag)
	})
	if err != nil {
		return nil, err
	}
	elem.Attrs = attrs
	for i := range elem.Attrs {
		elem.Attrs[i].setParent(&elem)
		elem.Attrs[i].setPosition(i)
	}
	if elem.Uri, err = p.resolveNS(elem.Space, true); err != nil {
		return nil, err
	}

	switch {
	case p.is(EmptyElemTag):
		p.next()
		return &elem, nil
	case p.is(EndTag):
		p.next()
		for !p.done() && !p.is(CloseTag) {
			child, err := p.parseNode()
			if err != nil {
				return nil, err
			}
			if child != nil {
				elem.Append(child)
			}
		}
		if !p.is(CloseTag) {
			return nil, p.createError(elem.QualifiedName(), "missing closing element")
		}
		p.next()
		return &elem, p.parseCloseElement(elem)
	default:
		return nil, p.createError(elem.QualifiedName(), "expected end of element")
	}
}

// parseTagName reads an optionally prefixed element name.
func (p *Parser) parseTagName(qn *QName) error {
	if p.is(NamespaceTok) {
		qn.Space = p.getCurrentLiteral()
		p.next()
	}
	if !p.is(Name) {
		return p.createError("element", "name is missing")
	}
	qn.Name = p.getCurrentLiteral()
	p.next()
	return nil
}

func (p *Parser) parseCloseElement(elem Element) error {
	if p.is(NamespaceTok) {
		if elem.Space != p.getCurrentLiteral() {
			return p.createError(elem.QualifiedName(), "namespace mismatched")
		}
		p.next()
	} else if elem.Space != "" {
		return p.createError(elem.QualifiedName(), "namespace mismatched")
	}
	if !p.is(Name) {
		return p.createError(elem.QualifiedName(), "name is missing")
	}
	if p.getCurrentLiteral() != elem.Name {
		return p.createError(elem.QualifiedName(), "name mismatched")
	}
	p.next()
	if !p.is(EndTag) {
		return p.createError(elem.QualifiedName(), "expected end of element")
	}
	p.next()
	return nil
}

func (p *Parser) parseAttributes(done func() bool) ([]Attribute, error) {
	var attrs []Attribute
	for !p.done() {
		if done() {
			break
		}
		attr, err := p.parseAttr()
		if err != nil {
			return nil, err
		}
		for i := range attrs {
			if attrs[i].QualifiedName() == attr.QualifiedName() {
				return nil, p.createError(attr.QualifiedName(), "duplicate attribute")
			}
		}
		attrs = append(attrs, attr)
	}
	for _, a := range attrs {
		if a.Space == AttrXmlNS {
			p.namespaces.Define(a.Name, a.Value())
		} else if a.Space == "" && a.Name == AttrXmlNS {
			p.namespaces.Define("", a.Value())
		}
	}
	for i := range attrs {
		if attrs[i].Space == AttrXmlNS || (attrs[i].Space == "" && attrs[i].Name == AttrXmlNS) {
			attrs[i].Uri = NamespaceXMLNS
			continue
		}
		if attrs[i].Space == "" {
			continue
		}
		uri, err := p.resolveNS(attrs[i].Space, false)
		if err != nil {
			return nil, err
		}
		attrs[i].Uri = uri
	}
	return attrs, nil
}

func (p *Parser) parseAttr() (Attribute, error) {
	var attr Attribute
	if p.is(NamespaceTok) {
		attr.Space = p.getCurrentLiteral()
		p.next()
	}
	if !p.is(Attr) {
		return attr, p.createError("attribute", "attribute name expected")
	}
	attr.Name = p.getCurrentLiteral()
	p.next()
	if !p.is(Literal) {
		return attr, p.createError(attr.Name, "missing attribute value")
	}
	attr.Datum = p.getCurrentLiteral()
	p.next()
	return attr, nil
}

// resolveNS maps a prefix to its URI in the current scope. Elements
// without prefix take the default namespace; unprefixed attributes
// never do.
func (p *Parser) resolveNS(space string, useDefault bool) (string, error) {
	if space == "" && !useDefault {
		return "", nil
	}
	uri, err := p.namespaces.Resolve(space)
	if err != nil {
		if space == "" {
			return "", nil
		}
		if p.StrictNS {
			return "", p.createError(space, "undefined namespace prefix")
		}
		return "", nil
	}
	return uri, nil
}

func (p *Parser) parsePI() (Node, error) {
	p.next()
	if !p.is(Name) {
		return nil, p.createError("pi", "name is missing")
	}
	pi := NewInstruction(LocalName(p.getCurrentLiteral()))
	p.next()
	attrs, err := p.parseAttributes(func() bool {
		return p.is(ProcInstTag)
	})
	if err != nil {
		return nil, err
	}
	pi.Attrs = attrs
	if !p.is(ProcInstTag) {
		return nil, p.createError(pi.Name, "expected end of processing instruction")
	}
	p.next()
	return pi, nil
}

func (p *Parser) parseDocType() (Node, error) {
	defer p.next()
	fields := strings.Fields(p.getCurrentLiteral())
	var dt DocType
	if len(fields) > 0 {
		dt.Name = fields[0]
	}
	if ix := slices.Index(fields, "SYSTEM"); ix >= 0 && ix+1 < len(fields) {
		dt.SystemID = strings.Trim(fields[ix+1], `"'`)
	}
	if ix := slices.Index(fields, "PUBLIC"); ix >= 0 && ix+1 < len(fields) {
		dt.PublicID = strings.Trim(fields[ix+1], `"'`)
		if ix+2 < len(fields) {
			dt.SystemID = strings.Trim(fields[ix+2], `"'`)
		}
	}
	return &dt, nil
}

func (p *Parser) parseComment() (Node, error) {
	node := NewComment(p.getCurrentLiteral())
	p.next()
	return node, nil
}

func (p *Parser) parseCharData() (Node, error) {
	node := NewCharacterData(p.getCurrentLiteral())
	p.next()
	return node, nil
}

func (p *Parser) parseLiteral() (Node, error) {
	content := p.getCurrentLiteral()
	p.next()
	if p.TrimSpace {
		content = strings.TrimSpace(content)
	}
	if content == "" && !p.KeepEmpty {
		return nil, nil
	}
	return NewText(content), nil
}

func (p *Parser) createError(elem, msg string) error {
	return ParseError{
		Element:  elem,
		Message:  msg,
		Position: p.curr.Position,
	}
}

func (p *Parser) next() {
	p.curr, p.peek = p.peek, p.scan.Scan()
}

func (p *Parser) is(kind rune) bool {
	return p.curr.Type == kind
}

func (p *Parser) done() bool {
	return p.curr.Type == EOF
}

func (p *Parser) getCurrentLiteral() string {
	return p.curr.Literal
}

func (p *Parser) enter() error {
	p.depth++
	if p.depth >= p.MaxDepth {
		return p.createError("document", "maximum depth reached")
	}
	return nil
}

func (p *Parser) leave() {
	p.depth--
}

// enterScope opens a namespace scope for the element being parsed;
// leaveScope drops it with every declaration it collected.
func (p *Parser) enterScope() {
	p.namespaces = environ.Enclosed(p.namespaces)
}

func (p *Parser) leaveScope() {
	u, ok := p.namespaces.(interface {
		Unwrap() environ.Environ[string]
	})
	if ok {
		p.namespaces = u.Unwrap()
	}
}
