package xpath

import (
	"github.com/midbel/xpath/xml"
)

// Options configures one evaluation: the context node, the three
// resolvers, an optional virtual root, and the HTML flags. The zero
// value evaluates with the built-in resolvers only.
type Options struct {
	Node        xml.Node
	Namespaces  NamespaceResolver
	Variables   VariableResolver
	Functions   FunctionResolver
	VirtualRoot xml.Node

	AllowAnyNamespaceForNoPrefix bool
	// HTML enables case-insensitive name tests and lets unprefixed
	// name tests match any namespace.
	HTML bool
}

type Option func(*Options)

func WithContextNode(node xml.Node) Option {
	return func(o *Options) {
		o.Node = node
	}
}

func WithNamespaces(res NamespaceResolver) Option {
	return func(o *Options) {
		o.Namespaces = res
	}
}

func WithNamespace(prefix, uri string) Option {
	return func(o *Options) {
		m, ok := o.Namespaces.(NamespaceMap)
		if !ok {
			m = make(NamespaceMap)
			o.Namespaces = m
		}
		m[prefix] = uri
	}
}

func WithVariables(res VariableResolver) Option {
	return func(o *Options) {
		o.Variables = res
	}
}

func WithVariable(name string, value Value) Option {
	return func(o *Options) {
		m, ok := o.Variables.(VariableMap)
		if !ok {
			m = make(VariableMap)
			o.Variables = m
		}
		m[name] = value
	}
}

func WithFunctions(res FunctionResolver) Option {
	return func(o *Options) {
		o.Functions = res
	}
}

func WithFunction(name string, fn Func) Option {
	return func(o *Options) {
		m, ok := o.Functions.(FunctionMap)
		if !ok {
			m = make(FunctionMap)
			o.Functions = m
		}
		m[name] = fn
	}
}

func WithVirtualRoot(node xml.Node) Option {
	return func(o *Options) {
		o.VirtualRoot = node
	}
}

func WithAnyNamespaceForNoPrefix() Option {
	return func(o *Options) {
		o.AllowAnyNamespaceForNoPrefix = true
	}
}

func WithHTML() Option {
	return func(o *Options) {
		o.HTML = true
	}
}

// XPath is a compiled, reusable expression. It is safe to share
// across evaluations as long as the document is not mutated while an
// evaluation runs.
type XPath struct {
	expr Expr
	src  string

	options Options
}

func Build(q string) (*XPath, error) {
	return BuildWith(q)
}

// Parse is an alias of Build mirroring the DOM-3 naming.
func Parse(q string) (*XPath, error) {
	return BuildWith(q)
}

func BuildWith(q string, opts ...Option) (*XPath, error) {
	expr, err := CompileString(q)
	if err != nil {
		return nil, err
	}
	x := XPath{
		expr: expr,
		src:  q,
	}
	for _, o := range opts {
		o(&x.options)
	}
	return &x, nil
}

func (x *XPath) String() string {
	return x.src
}

// Evaluate runs the expression; a nil opts evaluates with the options
// the expression was built with.
func (x *XPath) Evaluate(opts *Options) (Value, error) {
	ctx := x.newContext(opts)
	return eval(x.expr, ctx)
}

func (x *XPath) EvaluateNumber(opts *Options) (float64, error) {
	v, err := x.Evaluate(opts)
	if err != nil {
		return 0, err
	}
	return v.Number(), nil
}

func (x *XPath) EvaluateString(opts *Options) (string, error) {
	v, err := x.Evaluate(opts)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

func (x *XPath) EvaluateBoolean(opts *Options) (bool, error) {
	v, err := x.Evaluate(opts)
	if err != nil {
		return false, err
	}
	return v.Boolean(), nil
}

func (x *XPath) EvaluateNodeSet(opts *Options) (*NodeSet, error) {
	v, err := x.Evaluate(opts)
	if err != nil {
		return nil, err
	}
	return toNodeSet(v)
}

// Select returns the matching nodes in document order.
func (x *XPath) Select(opts *Options) ([]xml.Node, error) {
	ns, err := x.EvaluateNodeSet(opts)
	if err != nil {
		return nil, err
	}
	return ns.Sorted(), nil
}

// Select1 returns the first matching node, nil when nothing matches.
func (x *XPath) Select1(opts *Options) (xml.Node, error) {
	ns, err := x.EvaluateNodeSet(opts)
	if err != nil {
		return nil, err
	}
	return ns.First(), nil
}

// Find evaluates against a context node; the teacher-style shorthand
// the command line tool uses.
func (x *XPath) Find(node xml.Node) (*NodeSet, error) {
	opts := x.options
	opts.Node = node
	return x.EvaluateNodeSet(&opts)
}

func (x *XPath) newContext(opts *Options) *Context {
	o := x.options
	if opts != nil {
		o = merge(x.options, *opts)
	}
	ctx := NewContext(o.Node)
	ctx.Namespaces = o.Namespaces
	ctx.Variables = o.Variables
	ctx.Functions = o.Functions
	ctx.VirtualRoot = o.VirtualRoot
	if o.AllowAnyNamespaceForNoPrefix {
		ctx.AllowAnyNamespaceForNoPrefix = true
	}
	if o.HTML {
		ctx.CaseInsensitive = true
		ctx.AllowAnyNamespaceForNoPrefix = true
	}
	return ctx
}

// merge overlays per-evaluation options on the compiled defaults.
func merge(base, over Options) Options {
	if over.Node != nil {
		base.Node = over.Node
	}
	if over.Namespaces != nil {
		base.Namespaces = over.Namespaces
	}
	if over.Variables != nil {
		base.Variables = over.Variables
	}
	if over.Functions != nil {
		base.Functions = over.Functions
	}
	if over.VirtualRoot != nil {
		base.VirtualRoot = over.VirtualRoot
	}
	base.AllowAnyNamespaceForNoPrefix = base.AllowAnyNamespaceForNoPrefix || over.AllowAnyNamespaceForNoPrefix
	base.HTML = base.HTML || over.HTML
	return base
}

// Select compiles and evaluates an expression, returning the matching
// nodes in document order.
func Select(q string, node xml.Node) ([]xml.Node, error) {
	x, err := Build(q)
	if err != nil {
		return nil, err
	}
	opts := Options{
		Node: node,
	}
	return x.Select(&opts)
}

// Select1 compiles and evaluates an expression, returning the first
// matching node or nil.
func Select1(q string, node xml.Node) (xml.Node, error) {
	x, err := Build(q)
	if err != nil {
		return nil, err
	}
	opts := Options{
		Node: node,
	}
	return x.Select1(&opts)
}

// Find compiles and evaluates an expression to a node-set.
func Find(node xml.Node, q string) (*NodeSet, error) {
	x, err := Build(q)
	if err != nil {
		return nil, err
	}
	return x.Find(node)
}

// UseNamespaces binds a prefix table and returns a select function
// resolving name tests through it.
func UseNamespaces(table map[string]string) func(q string, node xml.Node) ([]xml.Node, error) {
	resolver := NamespaceMap(table)
	return func(q string, node xml.Node) ([]xml.Node, error) {
		x, err := Build(q)
		if err != nil {
			return nil, err
		}
		opts := Options{
			Node:       node,
			Namespaces: resolver,
		}
		return x.Select(&opts)
	}
}

// Evaluator is the DOM-3 XPath entry point: createExpression,
// createNSResolver and evaluate, detached from any document object.
type Evaluator struct{}

func (Evaluator) CreateExpression(q string, resolver NamespaceResolver) (*XPath, error) {
	return BuildWith(q, WithNamespaces(resolver))
}

func (Evaluator) CreateNSResolver(node xml.Node) NamespaceResolver {
	do := func(prefix string, _ xml.Node) (string, bool) {
		return resolveNodeNamespace(prefix, node)
	}
	return NamespaceFunc(do)
}

// Evaluate compiles and runs an expression, wrapping the result as the
// requested type. A non-nil reuse result is overwritten and returned.
func (Evaluator) Evaluate(q string, node xml.Node, resolver NamespaceResolver, resultType int, reuse *Result) (*Result, error) {
	x, err := BuildWith(q, WithNamespaces(resolver))
	if err != nil {
		return nil, err
	}
	opts := Options{
		Node: node,
	}
	v, err := x.Evaluate(&opts)
	if err != nil {
		return nil, err
	}
	res, err := NewResult(v, resultType)
	if err != nil {
		return nil, err
	}
	if reuse != nil {
		*reuse = *res
		return reuse, nil
	}
	return res, nil
}
