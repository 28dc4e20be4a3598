package main

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/midbel/xpath"
	"github.com/midbel/xpath/xml"
)

var (
	elemStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	attrStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	textStyle   = lipgloss.NewStyle()
	numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
	boolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
)

func renderNode(n xml.Node) string {
	switch n := n.(type) {
	case *xml.Attribute:
		return attrStyle.Render(fmt.Sprintf("%s=%q", n.QualifiedName(), n.Value()))
	case *xml.Namespace:
		return attrStyle.Render(fmt.Sprintf("xmlns:%s=%q", n.Prefix, n.Uri))
	case *xml.Element:
		return elemStyle.Render(xml.WriteNode(n))
	default:
		return textStyle.Render(xml.WriteNode(n))
	}
}

func renderValue(v xpath.Value) string {
	switch v := v.(type) {
	case xpath.Number:
		return numberStyle.Render(v.String())
	case xpath.Boolean:
		return boolStyle.Render(v.String())
	case *xpath.NodeSet:
		var str string
		for i, n := range v.Sorted() {
			if i > 0 {
				str += "\n"
			}
			str += renderNode(n)
		}
		return str
	default:
		return textStyle.Render(v.String())
	}
}
