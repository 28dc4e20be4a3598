package xpath

import (
	"github.com/midbel/xpath/xml"
)

// Context carries everything a subexpression needs to interpret
// relative references: the context node, its 1-based position and the
// context size, the three resolvers, the node the expression was
// issued against (for resolving qualified names), an optional virtual
// root bounding ancestor traversals, and the HTML-mode flags.
//
// Contexts are extended, never mutated: the With* builders return
// shallow copies with selected fields replaced, so a context can be
// shared freely down the recursion.
type Context struct {
	Node     xml.Node
	Position int
	Size     int

	Namespaces NamespaceResolver
	Variables  VariableResolver
	Functions  FunctionResolver

	ExprNode    xml.Node
	VirtualRoot xml.Node

	CaseInsensitive              bool
	AllowAnyNamespaceForNoPrefix bool
}

func NewContext(node xml.Node) *Context {
	ctx := Context{
		Node:     node,
		Position: 1,
		Size:     1,
		ExprNode: node,
	}
	return &ctx
}

func (c *Context) WithNode(node xml.Node) *Context {
	child := *c
	child.Node = node
	return &child
}

func (c *Context) WithPosition(pos, size int) *Context {
	child := *c
	child.Position = pos
	child.Size = size
	return &child
}

func (c *Context) WithFocus(node xml.Node, pos, size int) *Context {
	child := *c
	child.Node = node
	child.Position = pos
	child.Size = size
	return &child
}

// resolvePrefix maps a namespace prefix to its URI through the
// context's resolver, falling back to the built-in resolver walking
// the expression node's ancestors.
func (c *Context) resolvePrefix(prefix string) (string, bool) {
	if c.Namespaces != nil {
		if uri, ok := c.Namespaces.ResolveNamespace(prefix, c.ExprNode); ok {
			return uri, true
		}
	}
	return resolveNodeNamespace(prefix, c.ExprNode)
}

// lookupVariable resolves an in-scope variable by expanded name.
func (c *Context) lookupVariable(uri, local string) (Value, bool) {
	if c.Variables == nil {
		return nil, false
	}
	return c.Variables.ResolveVariable(uri, local)
}

// lookupFunction resolves a function by expanded name, user bindings
// shadowing the core library.
func (c *Context) lookupFunction(uri, local string) (Func, bool) {
	if c.Functions != nil {
		if fn, ok := c.Functions.ResolveFunction(uri, local); ok {
			return fn, true
		}
	}
	fn, err := defaultFunctions.Resolve(expandedName(uri, local))
	if err != nil {
		return nil, false
	}
	return fn, true
}
