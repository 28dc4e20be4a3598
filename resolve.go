package xpath

import (
	"fmt"
	"strings"

	"github.com/midbel/xpath/environ"
	"github.com/midbel/xpath/xml"
)

// NamespaceResolver maps a prefix to a namespace URI. The node is the
// node the expression was issued against; resolvers walking the
// document use it as the starting scope.
type NamespaceResolver interface {
	ResolveNamespace(prefix string, node xml.Node) (string, bool)
}

// VariableResolver resolves a variable reference by expanded name.
type VariableResolver interface {
	ResolveVariable(uri, local string) (Value, bool)
}

// FunctionResolver resolves a function by expanded name.
type FunctionResolver interface {
	ResolveFunction(uri, local string) (Func, bool)
}

// expandedName is the registry key for a (uri, local) pair.
func expandedName(uri, local string) string {
	if uri == "" {
		return local
	}
	return fmt.Sprintf("{%s}%s", uri, local)
}

// splitQName separates an optional prefix from the local part.
func splitQName(name string) (string, string) {
	prefix, local, ok := strings.Cut(name, ":")
	if !ok {
		return "", name
	}
	return prefix, local
}

// NamespaceMap resolves prefixes from a fixed table.
type NamespaceMap map[string]string

func (m NamespaceMap) ResolveNamespace(prefix string, _ xml.Node) (string, bool) {
	uri, ok := m[prefix]
	return uri, ok
}

// NamespaceFunc adapts a plain function to a resolver.
type NamespaceFunc func(prefix string, node xml.Node) (string, bool)

func (f NamespaceFunc) ResolveNamespace(prefix string, node xml.Node) (string, bool) {
	return f(prefix, node)
}

// VariableMap resolves variables from a fixed table keyed by local
// name or by "{uri}local".
type VariableMap map[string]Value

func (m VariableMap) ResolveVariable(uri, local string) (Value, bool) {
	v, ok := m[expandedName(uri, local)]
	return v, ok
}

type VariableFunc func(uri, local string) (Value, bool)

func (f VariableFunc) ResolveVariable(uri, local string) (Value, bool) {
	return f(uri, local)
}

// FunctionMap resolves functions from a fixed table keyed by local
// name or by "{uri}local".
type FunctionMap map[string]Func

func (m FunctionMap) ResolveFunction(uri, local string) (Func, bool) {
	fn, ok := m[expandedName(uri, local)]
	return fn, ok
}

type FunctionFunc func(uri, local string) (Func, bool)

func (f FunctionFunc) ResolveFunction(uri, local string) (Func, bool) {
	return f(uri, local)
}

// Bindings is an environ-backed variable resolver with lexical
// scoping; Sub opens a nested scope shadowing the outer one.
type Bindings struct {
	env environ.Environ[Value]
}

func NewBindings() *Bindings {
	return &Bindings{
		env: environ.Empty[Value](),
	}
}

func (b *Bindings) Define(name string, value Value) {
	b.env.Define(name, value)
}

func (b *Bindings) Sub() *Bindings {
	return &Bindings{
		env: environ.Enclosed(b.env),
	}
}

func (b *Bindings) ResolveVariable(uri, local string) (Value, bool) {
	v, err := b.env.Resolve(expandedName(uri, local))
	if err != nil {
		return nil, false
	}
	return v, true
}

// resolveNodeNamespace is the default namespace resolution: walk the
// ancestor chain looking for xmlns declarations, with the xml and
// xmlns bindings hard-wired. A document context is replaced by its
// root element before the walk.
func resolveNodeNamespace(prefix string, node xml.Node) (string, bool) {
	switch prefix {
	case "xml":
		return xml.NamespaceXML, true
	case xml.AttrXmlNS:
		return xml.NamespaceXMLNS, true
	}
	if doc, ok := node.(*xml.Document); ok {
		node = doc.Root()
	}
	for n := node; n != nil; n = parentOf(n) {
		el, ok := n.(*xml.Element)
		if !ok {
			continue
		}
		for _, a := range el.Attrs {
			if a.Space == xml.AttrXmlNS && a.Name == prefix {
				return a.Value(), true
			}
			if prefix == "" && a.Space == "" && a.Name == xml.AttrXmlNS {
				return a.Value(), true
			}
		}
	}
	return "", false
}
