package xpath

// The thirteen axes.
const (
	ancestorAxis       = "ancestor"
	ancestorSelfAxis   = "ancestor-or-self"
	attributeAxis      = "attribute"
	childAxis          = "child"
	descendantAxis     = "descendant"
	descendantSelfAxis = "descendant-or-self"
	nextAxis           = "following"
	nextSiblingAxis    = "following-sibling"
	namespaceAxis      = "namespace"
	parentAxis         = "parent"
	prevAxis           = "preceding"
	prevSiblingAxis    = "preceding-sibling"
	selfAxis           = "self"
)

func isAxis(name string) bool {
	switch name {
	case childAxis, parentAxis, selfAxis, ancestorAxis, ancestorSelfAxis,
		descendantAxis, descendantSelfAxis, attributeAxis, namespaceAxis,
		prevAxis, prevSiblingAxis, nextAxis, nextSiblingAxis:
		return true
	default:
		return false
	}
}

// Expr is a compiled XPath expression fragment. The concrete types
// below form a closed sum; the evaluator dispatches on them
// exhaustively.
type Expr interface {
	isExpr()
}

type binary struct {
	op    rune
	left  Expr
	right Expr
}

type reverse struct {
	expr Expr
}

type literal struct {
	expr string
}

type number struct {
	expr float64
}

// identifier is a variable reference carrying its raw qualified name.
type identifier struct {
	ident string
}

type call struct {
	ident string
	args  []Expr
}

type union struct {
	all []Expr
}

// path is the general path expression: an optional filter primary with
// its predicates, continued by an optional location path.
type path struct {
	filter Expr
	preds  []Expr
	rel    *locationPath
}

type locationPath struct {
	absolute bool
	steps    []step
}

type step struct {
	axis  string
	test  nodeTest
	preds []Expr
}

type testKind int8

const (
	testName testKind = iota
	testAny
	testSpace
	testComment
	testText
	testInstruction
	testNode
)

// nodeTest filters an axis sequence by kind and name. space/name are
// only set for name tests, arg only for processing-instruction tests
// with a target literal.
type nodeTest struct {
	kind  testKind
	space string
	name  string
	arg   string
}

func (binary) isExpr()     {}
func (reverse) isExpr()    {}
func (literal) isExpr()    {}
func (number) isExpr()     {}
func (identifier) isExpr() {}
func (call) isExpr()       {}
func (union) isExpr()      {}
func (path) isExpr()       {}

// selfStep and parentStep are the expansions of the . and ..
// abbreviations.
func selfStep() step {
	return step{
		axis: selfAxis,
		test: nodeTest{kind: testNode},
	}
}

func parentStep() step {
	return step{
		axis: parentAxis,
		test: nodeTest{kind: testNode},
	}
}

// deepStep is the descendant-or-self::node() step the // abbreviation
// expands to.
func deepStep() step {
	return step{
		axis: descendantSelfAxis,
		test: nodeTest{kind: testNode},
	}
}
