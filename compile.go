package xpath

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	powLowest = iota
	powOr     // or
	powAnd    // and
	powEq     // = !=
	powCmp    // < <= > >=
	powAdd    // + -
	powMul    // * div mod
	powPrefix // unary -
	powUnion  // |
)

var bindings = map[rune]int{
	opOr:    powOr,
	opAnd:   powAnd,
	opEq:    powEq,
	opNe:    powEq,
	opLt:    powCmp,
	opLe:    powCmp,
	opGt:    powCmp,
	opGe:    powCmp,
	opAdd:   powAdd,
	opSub:   powAdd,
	opMul:   powMul,
	opDiv:   powMul,
	opMod:   powMul,
	opUnion: powUnion,
}

type Compiler struct {
	expr string
	scan *Scanner
	curr Token
	peek Token

	prefix map[rune]func() (Expr, error)
	infix  map[rune]func(Expr) (Expr, error)
}

func NewCompiler(q string) *Compiler {
	cp := Compiler{
		scan: Scan(strings.NewReader(q)),
		expr: q,
	}

	cp.infix = map[rune]func(Expr) (Expr, error){
		opOr:    cp.compileBinary,
		opAnd:   cp.compileBinary,
		opEq:    cp.compileBinary,
		opNe:    cp.compileBinary,
		opLt:    cp.compileBinary,
		opLe:    cp.compileBinary,
		opGt:    cp.compileBinary,
		opGe:    cp.compileBinary,
		opAdd:   cp.compileBinary,
		opSub:   cp.compileBinary,
		opMul:   cp.compileBinary,
		opDiv:   cp.compileBinary,
		opMod:   cp.compileBinary,
		opUnion: cp.compileUnion,
	}
	cp.prefix = map[rune]func() (Expr, error){
		opSub:         cp.compileReverse,
		currLevel:     cp.compileAbsolute,
		anyLevel:      cp.compileAbsoluteDeep,
		currNode:      cp.compileRelative,
		parentNode:    cp.compileRelative,
		attrAbbrev:    cp.compileRelative,
		Name:          cp.compileRelative,
		Wildcard:      cp.compileRelative,
		SpaceWildcard: cp.compileRelative,
		Axisname:      cp.compileRelative,
		Nodetype:      cp.compileRelative,
		Variable:      cp.compileFilter,
		Literal:       cp.compileFilter,
		Digit:         cp.compileFilter,
		Funcname:      cp.compileFilter,
		begGrp:        cp.compileFilter,
	}

	cp.next()
	cp.next()
	return &cp
}

func Compile(r io.Reader) (Expr, error) {
	q, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return CompileString(string(q))
}

func CompileString(q string) (Expr, error) {
	return NewCompiler(q).Compile()
}

func (c *Compiler) Compile() (Expr, error) {
	expr, err := c.compileExpr(powLowest)
	if err != nil {
		return nil, err
	}
	if !c.done() {
		return nil, c.syntaxError("unexpected token " + c.curr.String())
	}
	return expr, nil
}

func (c *Compiler) compileExpr(pow int) (Expr, error) {
	prefix, ok := c.prefix[c.curr.Type]
	if !ok {
		return nil, c.syntaxError("unexpected token " + c.curr.String())
	}
	left, err := prefix()
	if err != nil {
		return nil, err
	}
	for !c.done() && pow < bindings[c.curr.Type] {
		infix, ok := c.infix[c.curr.Type]
		if !ok {
			return nil, c.syntaxError("unexpected token " + c.curr.String())
		}
		if left, err = infix(left); err != nil {
			return nil, err
		}
	}
	return left, nil
}

func (c *Compiler) compileBinary(left Expr) (Expr, error) {
	op := c.curr.Type
	c.next()
	right, err := c.compileExpr(bindings[op])
	if err != nil {
		return nil, err
	}
	b := binary{
		left:  left,
		right: right,
		op:    op,
	}
	return b, nil
}

func (c *Compiler) compileUnion(left Expr) (Expr, error) {
	c.next()
	right, err := c.compileExpr(powUnion)
	if err != nil {
		return nil, err
	}
	if u, ok := left.(union); ok {
		u.all = append(u.all, right)
		return u, nil
	}
	u := union{
		all: []Expr{left, right},
	}
	return u, nil
}

func (c *Compiler) compileReverse() (Expr, error) {
	c.next()
	expr, err := c.compileExpr(powPrefix)
	if err != nil {
		return nil, err
	}
	return reverse{expr: expr}, nil
}

// compileRelative parses a location path starting at the current step
// token.
func (c *Compiler) compileRelative() (Expr, error) {
	var lp locationPath
	if err := c.compileSteps(&lp); err != nil {
		return nil, err
	}
	p := path{
		rel: &lp,
	}
	return p, nil
}

func (c *Compiler) compileAbsolute() (Expr, error) {
	c.next()
	lp := locationPath{
		absolute: true,
	}
	if c.startsStep() {
		if err := c.compileSteps(&lp); err != nil {
			return nil, err
		}
	}
	p := path{
		rel: &lp,
	}
	return p, nil
}

func (c *Compiler) compileAbsoluteDeep() (Expr, error) {
	c.next()
	lp := locationPath{
		absolute: true,
	}
	lp.steps = append(lp.steps, deepStep())
	if err := c.compileSteps(&lp); err != nil {
		return nil, err
	}
	p := path{
		rel: &lp,
	}
	return p, nil
}

func (c *Compiler) compileSteps(lp *locationPath) error {
	for {
		st, err := c.compileStep()
		if err != nil {
			return err
		}
		lp.steps = append(lp.steps, st)
		switch {
		case c.is(currLevel):
			c.next()
		case c.is(anyLevel):
			c.next()
			lp.steps = append(lp.steps, deepStep())
		default:
			return nil
		}
	}
}

func (c *Compiler) compileStep() (step, error) {
	switch c.curr.Type {
	case currNode:
		c.next()
		return selfStep(), nil
	case parentNode:
		c.next()
		return parentStep(), nil
	}
	st := step{
		axis: childAxis,
	}
	switch c.curr.Type {
	case attrAbbrev:
		st.axis = attributeAxis
		c.next()
	case Axisname:
		if !isAxis(c.getCurrentLiteral()) {
			return st, c.syntaxError(c.getCurrentLiteral() + ": unknown axis")
		}
		st.axis = c.getCurrentLiteral()
		c.next()
	}
	test, err := c.compileNodeTest()
	if err != nil {
		return st, err
	}
	st.test = test
	st.preds, err = c.compilePredicates()
	return st, err
}

func (c *Compiler) compileNodeTest() (nodeTest, error) {
	var test nodeTest
	switch c.curr.Type {
	case Wildcard:
		test.kind = testAny
		c.next()
	case SpaceWildcard:
		test.kind = testSpace
		test.space = c.getCurrentLiteral()
		c.next()
	case Name:
		test.kind = testName
		space, name, ok := strings.Cut(c.getCurrentLiteral(), ":")
		if !ok {
			name, space = space, ""
		}
		test.space = space
		test.name = name
		c.next()
	case Nodetype:
		name := c.getCurrentLiteral()
		c.next()
		if !c.is(begGrp) {
			return test, c.syntaxError("missing '(' after " + name)
		}
		c.next()
		switch name {
		case "comment":
			test.kind = testComment
		case "text":
			test.kind = testText
		case "node":
			test.kind = testNode
		case "processing-instruction":
			test.kind = testInstruction
			if c.is(Literal) {
				test.arg = c.getCurrentLiteral()
				c.next()
			}
		}
		if !c.is(endGrp) {
			return test, c.syntaxError("missing ')' after " + name)
		}
		c.next()
	default:
		return test, c.syntaxError("unexpected token " + c.curr.String())
	}
	return test, nil
}

func (c *Compiler) compilePredicates() ([]Expr, error) {
	var preds []Expr
	for c.is(begPred) {
		c.next()
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		if !c.is(endPred) {
			return nil, c.syntaxError("missing ']' after predicate")
		}
		c.next()
		preds = append(preds, expr)
	}
	return preds, nil
}

// compileFilter parses a primary expression with its predicates and an
// optional location path continuation.
func (c *Compiler) compileFilter() (Expr, error) {
	primary, err := c.compilePrimary()
	if err != nil {
		return nil, err
	}
	preds, err := c.compilePredicates()
	if err != nil {
		return nil, err
	}
	var lp *locationPath
	if c.is(currLevel) || c.is(anyLevel) {
		deep := c.is(anyLevel)
		c.next()
		var loc locationPath
		if deep {
			loc.steps = append(loc.steps, deepStep())
		}
		if err := c.compileSteps(&loc); err != nil {
			return nil, err
		}
		lp = &loc
	}
	if len(preds) == 0 && lp == nil {
		return primary, nil
	}
	p := path{
		filter: primary,
		preds:  preds,
		rel:    lp,
	}
	return p, nil
}

func (c *Compiler) compilePrimary() (Expr, error) {
	switch c.curr.Type {
	case Variable:
		defer c.next()
		v := identifier{
			ident: c.getCurrentLiteral(),
		}
		return v, nil
	case Literal:
		defer c.next()
		i := literal{
			expr: c.getCurrentLiteral(),
		}
		return i, nil
	case Digit:
		defer c.next()
		f, err := strconv.ParseFloat(c.getCurrentLiteral(), 64)
		if err != nil {
			return nil, c.syntaxError(c.getCurrentLiteral() + ": invalid number")
		}
		n := number{
			expr: f,
		}
		return n, nil
	case Funcname:
		return c.compileCall()
	case begGrp:
		c.next()
		expr, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		if !c.is(endGrp) {
			return nil, c.syntaxError("missing closing ')'")
		}
		c.next()
		return expr, nil
	default:
		return nil, c.syntaxError("unexpected token " + c.curr.String())
	}
}

func (c *Compiler) compileCall() (Expr, error) {
	fn := call{
		ident: c.getCurrentLiteral(),
	}
	c.next()
	if !c.is(begGrp) {
		return nil, c.syntaxError("missing '(' after " + fn.ident)
	}
	c.next()
	for !c.is(endGrp) {
		if c.done() {
			return nil, c.syntaxError("missing closing ')'")
		}
		arg, err := c.compileExpr(powLowest)
		if err != nil {
			return nil, err
		}
		fn.args = append(fn.args, arg)
		if !c.is(opSeq) {
			break
		}
		c.next()
		if c.is(endGrp) {
			return nil, c.syntaxError("missing argument after ','")
		}
	}
	if !c.is(endGrp) {
		return nil, c.syntaxError("unexpected token " + c.curr.String())
	}
	c.next()
	return fn, nil
}

func (c *Compiler) startsStep() bool {
	switch c.curr.Type {
	case Name, Wildcard, SpaceWildcard, Axisname, Nodetype,
		currNode, parentNode, attrAbbrev:
		return true
	default:
		return false
	}
}

func (c *Compiler) syntaxError(cause string) error {
	return invalidExpr(c.expr, fmt.Sprintf("%s at offset %d", cause, c.curr.Offset))
}

func (c *Compiler) next() {
	c.curr, c.peek = c.peek, c.scan.Scan()
}

func (c *Compiler) is(kind rune) bool {
	return c.curr.Type == kind
}

func (c *Compiler) done() bool {
	return c.curr.Type == EOF
}

func (c *Compiler) getCurrentLiteral() string {
	return c.curr.Literal
}
