package xml

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

type Writer struct {
	out *bufio.Writer

	Indent   string
	Compact  bool
	NoProlog bool
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		out:    bufio.NewWriter(w),
		Indent: "  ",
	}
}

func (d *Document) Write(w io.Writer) error {
	return NewWriter(w).Write(d)
}

func (d *Document) WriteString() (string, error) {
	var buf bytes.Buffer
	if err := d.Write(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WriteNode serializes a single node compactly, mostly for diagnostics
// and command line output.
func WriteNode(node Node) string {
	var (
		buf bytes.Buffer
		ws  = NewWriter(&buf)
	)
	ws.Compact = true
	ws.Indent = ""
	ws.writeNode(node, -1)
	ws.out.Flush()
	return buf.String()
}

func (w *Writer) Write(doc *Document) error {
	if err := w.writeProlog(); err != nil {
		return err
	}
	if w.Compact {
		w.Indent = ""
	}
	for _, n := range doc.Nodes {
		if err := w.writeNode(n, -1); err != nil {
			return err
		}
	}
	w.writeNL()
	return w.out.Flush()
}

func (w *Writer) writeNode(node Node, depth int) error {
	switch node := node.(type) {
	case *Element:
		return w.writeElement(node, depth+1)
	case *Attribute:
		return w.writeAttributes([]Attribute{*node})
	case *CharData:
		return w.writeCharData(node)
	case *Text:
		return w.writeText(node)
	case *Instruction:
		return w.writeInstruction(node, depth+1)
	case *Comment:
		return w.writeComment(node, depth+1)
	case *DocType:
		return w.writeDocType(node)
	case *Document:
		for _, n := range node.Nodes {
			if err := w.writeNode(n, depth); err != nil {
				return err
			}
		}
		return nil
	case *Fragment:
		for _, n := range node.Nodes {
			if err := w.writeNode(n, depth); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown node type")
	}
}

func (w *Writer) writeElement(node *Element, depth int) error {
	w.writeNL()

	prefix := strings.Repeat(w.Indent, depth)
	w.out.WriteString(prefix)
	fmt.Fprintf(w.out, "<%s", node.QualifiedName())
	if err := w.writeAttributes(node.Attrs); err != nil {
		return err
	}
	if len(node.Nodes) == 0 {
		w.out.WriteString("/>")
		return w.out.Flush()
	}
	w.out.WriteRune(rangle)
	for _, n := range node.Nodes {
		if err := w.writeNode(n, depth); err != nil {
			return err
		}
	}
	last := node.Nodes[len(node.Nodes)-1]
	if _, ok := last.(*Text); !ok {
		w.writeNL()
		w.out.WriteString(prefix)
	}
	fmt.Fprintf(w.out, "</%s>", node.QualifiedName())
	return w.out.Flush()
}

func (w *Writer) writeText(node *Text) error {
	_, err := w.out.WriteString(escapeText(node.Content))
	return err
}

func (w *Writer) writeCharData(node *CharData) error {
	w.out.WriteString("<![CDATA[")
	w.out.WriteString(node.Content)
	w.out.WriteString("]]>")
	return nil
}

func (w *Writer) writeComment(node *Comment, depth int) error {
	w.writeNL()
	prefix := strings.Repeat(w.Indent, depth)
	w.out.WriteString(prefix)
	w.out.WriteString("<!--")
	w.out.WriteString(node.Content)
	w.out.WriteString("-->")
	return nil
}

func (w *Writer) writeDocType(node *DocType) error {
	w.writeNL()
	w.out.WriteString("<!DOCTYPE ")
	w.out.WriteString(node.Name)
	if node.PublicID != "" {
		fmt.Fprintf(w.out, " PUBLIC %q %q", node.PublicID, node.SystemID)
	} else if node.SystemID != "" {
		fmt.Fprintf(w.out, " SYSTEM %q", node.SystemID)
	}
	w.out.WriteRune(rangle)
	return nil
}

func (w *Writer) writeInstruction(node *Instruction, depth int) error {
	if depth > 0 {
		w.writeNL()
		w.out.WriteString(strings.Repeat(w.Indent, depth))
	}
	w.out.WriteString("<?")
	w.out.WriteString(node.Name)
	if err := w.writeAttributes(node.Attrs); err != nil {
		return err
	}
	w.out.WriteString("?>")
	return w.out.Flush()
}

func (w *Writer) writeProlog() error {
	if w.NoProlog {
		return nil
	}
	prolog := NewInstruction(LocalName("xml"))
	prolog.SetAttribute(NewAttribute(LocalName("version"), SupportedVersion))
	prolog.SetAttribute(NewAttribute(LocalName("encoding"), SupportedEncoding))
	return w.writeInstruction(prolog, 0)
}

func (w *Writer) writeAttributes(attrs []Attribute) error {
	for i := range attrs {
		fmt.Fprintf(w.out, ` %s="%s"`, attrs[i].QualifiedName(), escapeAttr(attrs[i].Value()))
	}
	return nil
}

func (w *Writer) writeNL() {
	if w.Compact {
		return
	}
	w.out.WriteRune('\n')
}

func escapeText(str string) string {
	rp := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return rp.Replace(str)
}

func escapeAttr(str string) string {
	rp := strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;")
	return rp.Replace(str)
}
