package xpath

import (
	"fmt"
	"strings"

	"github.com/midbel/xpath/xml"
)

// Eval evaluates a compiled expression with the given context and
// returns the resulting value.
func Eval(expr Expr, ctx *Context) (Value, error) {
	return eval(expr, ctx)
}

func eval(expr Expr, ctx *Context) (Value, error) {
	switch e := expr.(type) {
	case literal:
		return String(e.expr), nil
	case number:
		return Number(e.expr), nil
	case reverse:
		return evalReverse(e, ctx)
	case binary:
		return evalBinary(e, ctx)
	case identifier:
		return evalVariable(e, ctx)
	case call:
		return evalCall(e, ctx)
	case union:
		return evalUnion(e, ctx)
	case path:
		return evalPath(e, ctx)
	default:
		return nil, fmt.Errorf("unsupported expression type")
	}
}

func evalReverse(e reverse, ctx *Context) (Value, error) {
	v, err := eval(e.expr, ctx)
	if err != nil {
		return nil, err
	}
	return Number(-v.Number()), nil
}

func evalBinary(e binary, ctx *Context) (Value, error) {
	switch e.op {
	case opAnd, opOr:
		left, err := eval(e.left, ctx)
		if err != nil {
			return nil, err
		}
		if e.op == opAnd && !left.Boolean() {
			return Boolean(false), nil
		}
		if e.op == opOr && left.Boolean() {
			return Boolean(true), nil
		}
		right, err := eval(e.right, ctx)
		if err != nil {
			return nil, err
		}
		return Boolean(right.Boolean()), nil
	case opAdd, opSub, opMul, opDiv, opMod:
		left, err := eval(e.left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := eval(e.right, ctx)
		if err != nil {
			return nil, err
		}
		return Number(arith(e.op, left.Number(), right.Number())), nil
	default:
		left, err := eval(e.left, ctx)
		if err != nil {
			return nil, err
		}
		right, err := eval(e.right, ctx)
		if err != nil {
			return nil, err
		}
		ok, err := compare(e.op, left, right)
		if err != nil {
			return nil, err
		}
		return Boolean(ok), nil
	}
}

func evalVariable(e identifier, ctx *Context) (Value, error) {
	prefix, local := splitQName(e.ident)
	var uri string
	if prefix != "" {
		u, ok := ctx.resolvePrefix(prefix)
		if !ok {
			return nil, fmt.Errorf("%s: can not resolve namespace prefix", prefix)
		}
		uri = u
	}
	v, ok := ctx.lookupVariable(uri, local)
	if !ok {
		return nil, fmt.Errorf("%s: undeclared variable", e.ident)
	}
	return v, nil
}

func evalCall(e call, ctx *Context) (Value, error) {
	prefix, local := splitQName(e.ident)
	var uri string
	if prefix != "" {
		u, ok := ctx.resolvePrefix(prefix)
		if !ok {
			return nil, fmt.Errorf("%s: can not resolve namespace prefix", prefix)
		}
		uri = u
	}
	fn, ok := ctx.lookupFunction(uri, local)
	if !ok {
		return nil, fmt.Errorf("%s: unknown function", e.ident)
	}
	args := make([]Value, 0, len(e.args))
	for i := range e.args {
		a, err := eval(e.args[i], ctx)
		if err != nil {
			return nil, err
		}
		args = append(args, a)
	}
	return fn(ctx, args)
}

func evalUnion(e union, ctx *Context) (Value, error) {
	set := NewNodeSet()
	for i := range e.all {
		v, err := eval(e.all[i], ctx)
		if err != nil {
			return nil, err
		}
		ns, err := toNodeSet(v)
		if err != nil {
			return nil, err
		}
		set.AddAll(ns.Nodes())
	}
	return set, nil
}

func evalPath(e path, ctx *Context) (Value, error) {
	var start *NodeSet
	if e.filter == nil {
		if ctx.Node == nil {
			return nil, fmt.Errorf("missing context node")
		}
		start = NewNodeSet(ctx.Node)
	} else {
		v, err := eval(e.filter, ctx)
		if err != nil {
			return nil, err
		}
		ns, ok := v.(*NodeSet)
		if !ok {
			if len(e.preds) > 0 || e.rel != nil {
				return nil, typeError("filter expression must evaluate to a node-set")
			}
			return v, nil
		}
		nodes, err := applyPredicates(e.preds, ctx, ns.Nodes())
		if err != nil {
			return nil, err
		}
		start = NewNodeSet(nodes...)
	}
	if e.rel == nil {
		return start, nil
	}
	nodes := start.Sorted()
	if e.rel.absolute {
		root := resolveRoot(nodes, ctx)
		if root == nil {
			return nil, fmt.Errorf("missing context node")
		}
		nodes = []xml.Node{root}
	}
	for _, st := range e.rel.steps {
		set := NewNodeSet()
		for _, n := range nodes {
			out, err := applyStep(st, n, ctx)
			if err != nil {
				return nil, err
			}
			set.AddAll(out)
		}
		nodes = set.Sorted()
	}
	return NewNodeSet(nodes...), nil
}

// resolveRoot finds the evaluation root of an absolute path: the start
// node's document, the virtual root when one is set, or the top of a
// detached tree.
func resolveRoot(nodes []xml.Node, ctx *Context) xml.Node {
	n := ctx.Node
	if len(nodes) > 0 {
		n = nodes[0]
	}
	if n == nil {
		return nil
	}
	if doc, ok := n.(*xml.Document); ok {
		return doc
	}
	if ctx.VirtualRoot != nil {
		return ctx.VirtualRoot
	}
	if doc := xml.OwnerDocument(n); doc != nil {
		return doc
	}
	return xml.Root(n)
}

// applyStep generates the axis sequence from one context node, filters
// it by the node test, then by the step's predicates. Candidates stay
// in axis order so predicate positions follow the axis direction.
func applyStep(st step, n xml.Node, ctx *Context) ([]xml.Node, error) {
	cand, err := axisNodes(st.axis, n, ctx)
	if err != nil {
		return nil, err
	}
	kept := cand[:0:0]
	for _, c := range cand {
		ok, err := matchTest(st.test, c, ctx)
		if err != nil {
			return nil, err
		}
		if ok {
			kept = append(kept, c)
		}
	}
	return applyPredicates(st.preds, ctx, kept)
}

// applyPredicates filters candidates predicate by predicate. The k-th
// candidate of the current list evaluates with context position k+1
// and context size the length of that list; numeric predicate values
// keep the node at that exact position, everything else coerces to
// boolean.
func applyPredicates(preds []Expr, ctx *Context, nodes []xml.Node) ([]xml.Node, error) {
	for _, pred := range preds {
		var (
			kept []xml.Node
			size = len(nodes)
		)
		for i, n := range nodes {
			sub := ctx.WithFocus(n, i+1, size)
			v, err := eval(pred, sub)
			if err != nil {
				return nil, err
			}
			var keep bool
			if num, ok := v.(Number); ok {
				keep = float64(num) == float64(i+1)
			} else {
				keep = v.Boolean()
			}
			if keep {
				kept = append(kept, n)
			}
		}
		nodes = kept
	}
	return nodes, nil
}

func axisNodes(axis string, n xml.Node, ctx *Context) ([]xml.Node, error) {
	switch axis {
	case selfAxis:
		return []xml.Node{n}, nil
	case parentAxis:
		if n == ctx.VirtualRoot {
			return nil, nil
		}
		p := parentOf(n)
		if p == nil {
			return nil, nil
		}
		return []xml.Node{p}, nil
	case childAxis:
		return xml.ChildNodes(n), nil
	case attributeAxis:
		el, ok := n.(*xml.Element)
		if !ok {
			return nil, nil
		}
		var list []xml.Node
		for _, a := range el.AttributeNodes() {
			list = append(list, a)
		}
		return list, nil
	case ancestorAxis:
		return ancestors(n, ctx), nil
	case ancestorSelfAxis:
		list := []xml.Node{n}
		return append(list, ancestors(n, ctx)...), nil
	case descendantAxis:
		var list []xml.Node
		for _, c := range xml.ChildNodes(n) {
			list = preorder(list, c)
		}
		return list, nil
	case descendantSelfAxis:
		return preorder(nil, n), nil
	case nextSiblingAxis:
		var list []xml.Node
		for s := xml.NextSibling(n); s != nil; s = xml.NextSibling(s) {
			list = append(list, s)
		}
		return list, nil
	case prevSiblingAxis:
		var list []xml.Node
		for s := xml.PrevSibling(n); s != nil; s = xml.PrevSibling(s) {
			list = append(list, s)
		}
		return list, nil
	case nextAxis:
		var list []xml.Node
		for a := n; a != nil; a = parentOf(a) {
			if a == ctx.VirtualRoot {
				break
			}
			for s := xml.NextSibling(a); s != nil; s = xml.NextSibling(s) {
				list = preorder(list, s)
			}
		}
		return list, nil
	case prevAxis:
		var list []xml.Node
		for a := n; a != nil; a = parentOf(a) {
			if a == ctx.VirtualRoot {
				break
			}
			for s := xml.PrevSibling(a); s != nil; s = xml.PrevSibling(s) {
				list = revPreorder(list, s)
			}
		}
		return list, nil
	case namespaceAxis:
		return namespaceNodes(n), nil
	default:
		return nil, fmt.Errorf("%s: unknown axis", axis)
	}
}

// ancestors climbs the parent chain, nearest first, keeping the
// virtual root as inclusive sentinel.
func ancestors(n xml.Node, ctx *Context) []xml.Node {
	if n == ctx.VirtualRoot {
		return nil
	}
	var list []xml.Node
	for p := parentOf(n); p != nil; p = parentOf(p) {
		list = append(list, p)
		if p == ctx.VirtualRoot {
			break
		}
	}
	return list
}

// preorder appends the subtree of n in document order.
func preorder(list []xml.Node, n xml.Node) []xml.Node {
	list = append(list, n)
	for _, c := range xml.ChildNodes(n) {
		list = preorder(list, c)
	}
	return list
}

// revPreorder appends the subtree of n in reverse document order.
func revPreorder(list []xml.Node, n xml.Node) []xml.Node {
	nodes := xml.ChildNodes(n)
	for i := len(nodes) - 1; i >= 0; i-- {
		list = revPreorder(list, nodes[i])
	}
	return append(list, n)
}

// namespaceNodes materialises the in-scope namespace bindings of an
// element: every xmlns declaration on the element or an ancestor, the
// closest declaration winning per prefix, plus the implicit xml
// binding, which orders first.
func namespaceNodes(n xml.Node) []xml.Node {
	el, ok := n.(*xml.Element)
	if !ok {
		return nil
	}
	var (
		scope = make(map[string]string)
		order []string
	)
	for a := xml.Node(el); a != nil; a = parentOf(a) {
		e, ok := a.(*xml.Element)
		if !ok {
			continue
		}
		for _, attr := range e.Attrs {
			var prefix string
			switch {
			case attr.Space == xml.AttrXmlNS:
				prefix = attr.Name
			case attr.Space == "" && attr.Name == xml.AttrXmlNS:
				prefix = ""
			default:
				continue
			}
			if _, seen := scope[prefix]; seen {
				continue
			}
			scope[prefix] = attr.Value()
			order = append(order, prefix)
		}
	}
	list := []xml.Node{xml.NewNamespace("xml", xml.NamespaceXML, el)}
	for _, prefix := range order {
		if prefix == "xml" || scope[prefix] == "" {
			continue
		}
		list = append(list, xml.NewNamespace(prefix, scope[prefix], el))
	}
	for i, ns := range list {
		ns.(*xml.Namespace).SetPosition(i)
	}
	return list
}

// matchTest applies a node test to one candidate.
func matchTest(test nodeTest, n xml.Node, ctx *Context) (bool, error) {
	switch test.kind {
	case testNode:
		return true, nil
	case testComment:
		return n.Type() == xml.TypeComment, nil
	case testText:
		return n.Type() == xml.TypeText, nil
	case testInstruction:
		pi, ok := n.(*xml.Instruction)
		if !ok {
			return false, nil
		}
		return test.arg == "" || pi.Target() == test.arg, nil
	case testAny:
		return isNamedKind(n), nil
	case testSpace:
		if !isNamedKind(n) {
			return false, nil
		}
		uri, ok := ctx.resolvePrefix(test.space)
		if !ok {
			return false, fmt.Errorf("%s: can not resolve namespace prefix", test.space)
		}
		return nodeURI(n) == uri, nil
	case testName:
		if !isNamedKind(n) {
			return false, nil
		}
		var (
			uri    string
			anyURI bool
		)
		if test.space != "" {
			u, ok := ctx.resolvePrefix(test.space)
			if !ok {
				return false, fmt.Errorf("%s: can not resolve namespace prefix", test.space)
			}
			uri = u
		} else if ctx.AllowAnyNamespaceForNoPrefix {
			anyURI = true
		}
		if !anyURI && nodeURI(n) != uri {
			return false, nil
		}
		if ctx.CaseInsensitive {
			return strings.EqualFold(n.LocalName(), test.name), nil
		}
		return n.LocalName() == test.name, nil
	default:
		return false, nil
	}
}

// isNamedKind reports the kinds a name test can match.
func isNamedKind(n xml.Node) bool {
	switch n.Type() {
	case xml.TypeElement, xml.TypeAttribute, xml.TypeNamespace:
		return true
	default:
		return false
	}
}

func nodeURI(n xml.Node) string {
	switch n := n.(type) {
	case *xml.Element:
		return n.Uri
	case *xml.Attribute:
		return n.Uri
	default:
		return ""
	}
}
