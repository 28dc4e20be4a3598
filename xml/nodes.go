package xml

import (
	"fmt"
	"slices"
	"strings"
)

const (
	NamespaceXML   = "http://www.w3.org/XML/1998/namespace"
	NamespaceXMLNS = "http://www.w3.org/2000/xmlns/"
)

type NodeType int16

const (
	TypeDocument NodeType = 1 << iota
	TypeElement
	TypeAttribute
	TypeText
	TypeComment
	TypeInstruction
	TypeNamespace
	TypeDocType
	TypeFragment
)

func (n NodeType) String() string {
	switch n {
	case TypeDocument:
		return "document"
	case TypeElement:
		return "element"
	case TypeAttribute:
		return "attribute"
	case TypeText:
		return "text"
	case TypeComment:
		return "comment"
	case TypeInstruction:
		return "pi"
	case TypeNamespace:
		return "namespace"
	case TypeDocType:
		return "doctype"
	case TypeFragment:
		return "fragment"
	default:
		return "<>"
	}
}

type Node interface {
	Type() NodeType
	LocalName() string
	QualifiedName() string
	Value() string
	Parent() Node
	Position() int
	Leaf() bool

	setParent(Node)
	setPosition(int)
}

// ChildNodes returns the ordered child list of container nodes and nil
// for every leaf kind.
func ChildNodes(node Node) []Node {
	switch n := node.(type) {
	case *Document:
		return n.Nodes
	case *Element:
		return n.Nodes
	case *Fragment:
		return n.Nodes
	default:
		return nil
	}
}

func FirstChild(node Node) Node {
	nodes := ChildNodes(node)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[0]
}

func LastChild(node Node) Node {
	nodes := ChildNodes(node)
	if len(nodes) == 0 {
		return nil
	}
	return nodes[len(nodes)-1]
}

func NextSibling(node Node) Node {
	if node.Type() == TypeAttribute || node.Type() == TypeNamespace {
		return nil
	}
	p := node.Parent()
	if p == nil {
		return nil
	}
	nodes := ChildNodes(p)
	pos := node.Position() + 1
	if pos >= len(nodes) {
		return nil
	}
	return nodes[pos]
}

func PrevSibling(node Node) Node {
	if node.Type() == TypeAttribute || node.Type() == TypeNamespace {
		return nil
	}
	p := node.Parent()
	if p == nil {
		return nil
	}
	pos := node.Position() - 1
	if pos < 0 {
		return nil
	}
	nodes := ChildNodes(p)
	if pos >= len(nodes) {
		return nil
	}
	return nodes[pos]
}

// Root walks the parent chain to the topmost node, usually a
// *Document.
func Root(node Node) Node {
	for {
		p := node.Parent()
		if p == nil {
			return node
		}
		node = p
	}
}

// OwnerDocument returns the document a node belongs to, or nil for a
// detached subtree.
func OwnerDocument(node Node) *Document {
	doc, _ := Root(node).(*Document)
	return doc
}

type QName struct {
	Name  string
	Space string
	Uri   string
}

func ParseName(name string) (QName, error) {
	space, local, prefixed := strings.Cut(name, ":")
	if !prefixed {
		return LocalName(name), nil
	}
	if space == "" || local == "" {
		return QName{}, fmt.Errorf("%s: invalid qualified name", name)
	}
	return QualifiedName(local, space), nil
}

func ExpandedName(name, space, uri string) QName {
	qn := QualifiedName(name, space)
	qn.Uri = uri
	return qn
}

func LocalName(name string) QName {
	return QName{Name: name}
}

func QualifiedName(name, space string) QName {
	return QName{
		Name:  name,
		Space: space,
	}
}

func (q QName) Equal(other QName) bool {
	return q.Uri == other.Uri && q.Name == other.Name
}

func (q QName) LocalName() string {
	return q.Name
}

func (q QName) QualifiedName() string {
	if q.Space == "" {
		return q.Name
	}
	return q.Space + ":" + q.Name
}

type DocType struct {
	Name     string
	PublicID string
	SystemID string

	up    Node
	index int
}

func NewDocType(name, public, system string) *DocType {
	return &DocType{
		Name:     name,
		PublicID: public,
		SystemID: system,
	}
}

func (_ *DocType) Type() NodeType {
	return TypeDocType
}

func (d *DocType) LocalName() string {
	return d.Name
}

func (d *DocType) QualifiedName() string {
	return d.Name
}

func (_ *DocType) Value() string {
	return ""
}

func (d *DocType) Parent() Node {
	return d.up
}

func (d *DocType) Position() int {
	return d.index
}

func (_ *DocType) Leaf() bool {
	return true
}

func (d *DocType) setParent(node Node) {
	d.up = node
}

func (d *DocType) setPosition(pos int) {
	d.index = pos
}

type Document struct {
	Version    string
	Encoding   string
	Standalone string

	DocType *DocType
	Nodes   []Node
}

func NewDocument(root Node) *Document {
	doc := EmptyDocument()
	doc.Attach(root)
	return doc
}

func EmptyDocument() *Document {
	return &Document{
		Version:  SupportedVersion,
		Encoding: SupportedEncoding,
	}
}

func (d *Document) Root() Node {
	for i := range d.Nodes {
		if d.Nodes[i].Type() == TypeElement {
			return d.Nodes[i]
		}
	}
	return nil
}

func (d *Document) Attach(node Node) {
	node.setParent(d)
	node.setPosition(len(d.Nodes))
	d.Nodes = append(d.Nodes, node)
}

func (d *Document) GetElementById(id string) Node {
	root, ok := d.Root().(*Element)
	if !ok {
		return nil
	}
	return root.GetElementById(id)
}

func (_ *Document) Type() NodeType {
	return TypeDocument
}

func (_ *Document) LocalName() string {
	return ""
}

func (_ *Document) QualifiedName() string {
	return ""
}

func (d *Document) Value() string {
	var str strings.Builder
	for i := range d.Nodes {
		writeTextValue(&str, d.Nodes[i])
	}
	return str.String()
}

func (_ *Document) Parent() Node {
	return nil
}

func (_ *Document) Position() int {
	return 0
}

func (_ *Document) Leaf() bool {
	return false
}

func (_ *Document) setParent(_ Node) {}

func (_ *Document) setPosition(_ int) {}

type Fragment struct {
	Nodes []Node

	up    Node
	index int
}

func NewFragment() *Fragment {
	return &Fragment{}
}

func (f *Fragment) Append(node Node) {
	node.setParent(f)
	node.setPosition(len(f.Nodes))
	f.Nodes = append(f.Nodes, node)
}

func (_ *Fragment) Type() NodeType {
	return TypeFragment
}

func (_ *Fragment) LocalName() string {
	return ""
}

func (_ *Fragment) QualifiedName() string {
	return ""
}

func (f *Fragment) Value() string {
	var str strings.Builder
	for i := range f.Nodes {
		writeTextValue(&str, f.Nodes[i])
	}
	return str.String()
}

func (f *Fragment) Parent() Node {
	return f.up
}

func (f *Fragment) Position() int {
	return f.index
}

func (_ *Fragment) Leaf() bool {
	return false
}

func (f *Fragment) setParent(node Node) {
	f.up = node
}

func (f *Fragment) setPosition(pos int) {
	f.index = pos
}

type Attribute struct {
	QName
	Datum string

	up    Node
	index int
}

func NewAttribute(name QName, value string) Attribute {
	return Attribute{
		QName: name,
		Datum: value,
	}
}

func (_ *Attribute) Type() NodeType {
	return TypeAttribute
}

func (a *Attribute) Value() string {
	return a.Datum
}

// OwnerElement returns the element carrying this attribute.
func (a *Attribute) OwnerElement() *Element {
	el, _ := a.up.(*Element)
	return el
}

func (a *Attribute) Parent() Node {
	return a.up
}

func (a *Attribute) Position() int {
	return a.index
}

func (_ *Attribute) Leaf() bool {
	return true
}

func (a *Attribute) setParent(node Node) {
	a.up = node
}

func (a *Attribute) setPosition(pos int) {
	a.index = pos
}

type Element struct {
	QName
	Attrs []Attribute
	Nodes []Node

	up    Node
	index int
}

func NewElement(name QName) *Element {
	return &Element{
		QName: name,
	}
}

func (e *Element) Append(node Node) {
	if a, ok := node.(*Attribute); ok {
		e.SetAttribute(*a)
		return
	}
	node.setParent(e)
	node.setPosition(len(e.Nodes))
	e.Nodes = append(e.Nodes, node)
}

func (e *Element) Empty() bool {
	return len(e.Nodes) == 0
}

func (e *Element) Len() int {
	return len(e.Nodes)
}

func (e *Element) Find(name string) Node {
	for _, n := range e.Nodes {
		if n.LocalName() == name {
			return n
		}
	}
	return nil
}

func (e *Element) FindAll(name string) []Node {
	var nodes []Node
	for _, n := range e.Nodes {
		if n.LocalName() == name {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

func (e *Element) GetElementById(id string) Node {
	ok := slices.ContainsFunc(e.Attrs, func(a Attribute) bool {
		if a.Value() != id {
			return false
		}
		return a.Name == "id" && (a.Space == "" || a.Space == "xml")
	})
	if ok {
		return e
	}
	for _, n := range e.Nodes {
		sub, ok := n.(*Element)
		if !ok {
			continue
		}
		if other := sub.GetElementById(id); other != nil {
			return other
		}
	}
	return nil
}

// AttributeNodes exposes the attribute list as addressable nodes. The
// pointers stay stable as long as the attribute list is not modified.
func (e *Element) AttributeNodes() []*Attribute {
	attrs := make([]*Attribute, len(e.Attrs))
	for i := range e.Attrs {
		attrs[i] = &e.Attrs[i]
	}
	return attrs
}

func (e *Element) GetAttribute(name string) (Attribute, bool) {
	ix := slices.IndexFunc(e.Attrs, func(a Attribute) bool {
		return a.Name == name
	})
	if ix < 0 {
		var zero Attribute
		return zero, false
	}
	return e.Attrs[ix], true
}

func (e *Element) GetAttributeNS(uri, name string) (Attribute, bool) {
	ix := slices.IndexFunc(e.Attrs, func(a Attribute) bool {
		return a.Name == name && a.Uri == uri
	})
	if ix < 0 {
		var zero Attribute
		return zero, false
	}
	return e.Attrs[ix], true
}

func (e *Element) SetAttribute(attr Attribute) {
	attr.setParent(e)
	ix := slices.IndexFunc(e.Attrs, func(a Attribute) bool {
		return a.QualifiedName() == attr.QualifiedName()
	})
	if ix < 0 {
		attr.setPosition(len(e.Attrs))
		e.Attrs = append(e.Attrs, attr)
	} else {
		attr.setPosition(ix)
		e.Attrs[ix] = attr
	}
}

func (_ *Element) Type() NodeType {
	return TypeElement
}

func (e *Element) Value() string {
	var str strings.Builder
	writeTextValue(&str, e)
	return str.String()
}

func (e *Element) Parent() Node {
	return e.up
}

func (e *Element) Position() int {
	return e.index
}

func (e *Element) Leaf() bool {
	for i := range e.Nodes {
		if e.Nodes[i].Type() == TypeElement {
			return false
		}
	}
	return true
}

func (e *Element) Root() bool {
	return e.up == nil || e.up.Type() == TypeDocument
}

func (e *Element) setParent(node Node) {
	e.up = node
}

func (e *Element) setPosition(pos int) {
	e.index = pos
}

// Namespace is the synthetic node materialised by the namespace axis.
// It never belongs to the tree it was created from and lives only for
// the duration of one query.
type Namespace struct {
	Prefix string
	Uri    string

	owner    Node
	index int
}

func NewNamespace(prefix, uri string, owner Node) *Namespace {
	return &Namespace{
		Prefix: prefix,
		Uri:    uri,
		owner:  owner,
	}
}

func (_ *Namespace) Type() NodeType {
	return TypeNamespace
}

func (n *Namespace) LocalName() string {
	return n.Prefix
}

func (n *Namespace) QualifiedName() string {
	return n.Prefix
}

func (n *Namespace) Value() string {
	return n.Uri
}

// OwnerElement returns the element this binding is in scope on.
func (n *Namespace) OwnerElement() Node {
	return n.owner
}

func (n *Namespace) Parent() Node {
	return n.owner
}

func (n *Namespace) Position() int {
	return n.index
}

// SetPosition orders the binding among the namespace nodes of its
// element; the namespace axis assigns it at materialisation.
func (n *Namespace) SetPosition(pos int) {
	n.index = pos
}

func (_ *Namespace) Leaf() bool {
	return true
}

func (n *Namespace) setParent(node Node) {
	n.owner = node
}

func (n *Namespace) setPosition(pos int) {
	n.index = pos
}

type Instruction struct {
	QName
	Attrs []Attribute

	up    Node
	index int
}

func NewInstruction(name QName) *Instruction {
	return &Instruction{
		QName: name,
	}
}

func (i *Instruction) SetAttribute(attr Attribute) {
	for x := range i.Attrs {
		if i.Attrs[x].QualifiedName() == attr.QualifiedName() {
			i.Attrs[x] = attr
			return
		}
	}
	i.Attrs = append(i.Attrs, attr)
}

// Target returns the processing instruction target name.
func (i *Instruction) Target() string {
	return i.Name
}

func (_ *Instruction) Type() NodeType {
	return TypeInstruction
}

func (i *Instruction) Value() string {
	var parts []string
	for _, a := range i.Attrs {
		parts = append(parts, fmt.Sprintf("%s=%q", a.QualifiedName(), a.Value()))
	}
	return strings.Join(parts, " ")
}

func (i *Instruction) Parent() Node {
	return i.up
}

func (i *Instruction) Position() int {
	return i.index
}

func (_ *Instruction) Leaf() bool {
	return true
}

func (i *Instruction) setParent(node Node) {
	i.up = node
}

func (i *Instruction) setPosition(pos int) {
	i.index = pos
}

type Text struct {
	Content string

	up    Node
	index int
}

func NewText(text string) *Text {
	return &Text{
		Content: text,
	}
}

func (_ *Text) Type() NodeType {
	return TypeText
}

func (_ *Text) LocalName() string {
	return ""
}

func (_ *Text) QualifiedName() string {
	return ""
}

func (t *Text) Value() string {
	return t.Content
}

func (t *Text) Parent() Node {
	return t.up
}

func (t *Text) Position() int {
	return t.index
}

func (_ *Text) Leaf() bool {
	return true
}

func (t *Text) setParent(node Node) {
	t.up = node
}

func (t *Text) setPosition(pos int) {
	t.index = pos
}

// CharData is a CDATA section. It behaves as a text node everywhere
// except in serialization.
type CharData struct {
	Content string

	up    Node
	index int
}

func NewCharacterData(chardata string) *CharData {
	return &CharData{
		Content: chardata,
	}
}

func (_ *CharData) Type() NodeType {
	return TypeText
}

func (_ *CharData) LocalName() string {
	return ""
}

func (_ *CharData) QualifiedName() string {
	return ""
}

func (c *CharData) Value() string {
	return c.Content
}

func (c *CharData) Parent() Node {
	return c.up
}

func (c *CharData) Position() int {
	return c.index
}

func (_ *CharData) Leaf() bool {
	return true
}

func (c *CharData) setParent(node Node) {
	c.up = node
}

func (c *CharData) setPosition(pos int) {
	c.index = pos
}

type Comment struct {
	Content string

	up    Node
	index int
}

func NewComment(comment string) *Comment {
	return &Comment{
		Content: comment,
	}
}

func (_ *Comment) Type() NodeType {
	return TypeComment
}

func (_ *Comment) LocalName() string {
	return ""
}

func (_ *Comment) QualifiedName() string {
	return ""
}

func (c *Comment) Value() string {
	return c.Content
}

func (c *Comment) Parent() Node {
	return c.up
}

func (c *Comment) Position() int {
	return c.index
}

func (_ *Comment) Leaf() bool {
	return true
}

func (c *Comment) setParent(node Node) {
	c.up = node
}

func (c *Comment) setPosition(pos int) {
	c.index = pos
}

// writeTextValue accumulates the XPath string value of container
// nodes: the concatenation of all descendant text, in document order.
func writeTextValue(str *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Text:
		str.WriteString(n.Content)
	case *CharData:
		str.WriteString(n.Content)
	case *Element:
		for i := range n.Nodes {
			writeTextValue(str, n.Nodes[i])
		}
	case *Document:
		for i := range n.Nodes {
			writeTextValue(str, n.Nodes[i])
		}
	case *Fragment:
		for i := range n.Nodes {
			writeTextValue(str, n.Nodes[i])
		}
	}
}
