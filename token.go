package xpath

import (
	"bufio"
	"fmt"
	"io"
)

const (
	EOF rune = -(1 + iota)
	Invalid
	Literal
	Digit
	Name          // QName name test
	Wildcard      // *
	SpaceWildcard // prefix:*
	Funcname      // name followed by (
	Nodetype      // comment | text | node | processing-instruction
	Axisname      // name followed by ::
	Variable      // $qname
	currNode      // .
	parentNode    // ..
	currLevel     // /
	anyLevel      // //
	attrAbbrev    // @
	begPred       // [
	endPred       // ]
	begGrp        // (
	endGrp        // )
	opSeq         // ,
	opEq          // =
	opNe          // !=
	opLt          // <
	opLe          // <=
	opGt          // >
	opGe          // >=
	opAdd         // +
	opSub         // -
	opMul         // *
	opDiv         // div
	opMod         // mod
	opAnd         // and
	opOr          // or
	opUnion       // |
)

type Position struct {
	Offset int
}

type Token struct {
	Type    rune
	Literal string
	Position
}

// tokenNames spells the fixed tokens; tokens carrying a literal are
// formatted in String.
var tokenNames = map[rune]string{
	EOF:        "<eof>",
	Wildcard:   "<wildcard>",
	currNode:   "<current-node>",
	parentNode: "<parent-node>",
	currLevel:  "<step>",
	anyLevel:   "<deep-step>",
	attrAbbrev: "<attribute>",
	begPred:    "<begin-predicate>",
	endPred:    "<end-predicate>",
	begGrp:     "<begin-group>",
	endGrp:     "<end-group>",
	opSeq:      "<sequence>",
	opAdd:      "<add>",
	opSub:      "<subtract>",
	opMul:      "<multiply>",
	opDiv:      "<divide>",
	opMod:      "<modulo>",
	opEq:       "<equal>",
	opNe:       "<not-equal>",
	opLt:       "<lesser-than>",
	opLe:       "<lesser-eq>",
	opGt:       "<greater-than>",
	opGe:       "<greater-eq>",
	opAnd:      "<and>",
	opOr:       "<or>",
	opUnion:    "<union>",
}

func (t Token) String() string {
	if name, ok := tokenNames[t.Type]; ok {
		return name
	}
	switch t.Type {
	case Invalid:
		return fmt.Sprintf("invalid(%s)", t.Literal)
	case Literal:
		return fmt.Sprintf("literal(%s)", t.Literal)
	case Digit:
		return fmt.Sprintf("number(%s)", t.Literal)
	case Name:
		return fmt.Sprintf("name(%s)", t.Literal)
	case SpaceWildcard:
		return fmt.Sprintf("wildcard(%s:*)", t.Literal)
	case Funcname:
		return fmt.Sprintf("function(%s)", t.Literal)
	case Nodetype:
		return fmt.Sprintf("nodetype(%s)", t.Literal)
	case Axisname:
		return fmt.Sprintf("axis(%s)", t.Literal)
	case Variable:
		return fmt.Sprintf("variable(%s)", t.Literal)
	default:
		return "<unknown>"
	}
}

const (
	dollar     = '$'
	arobase    = '@'
	lparen     = '('
	rparen     = ')'
	lsquare    = '['
	rsquare    = ']'
	comma      = ','
	pipe       = '|'
	plus       = '+'
	dash       = '-'
	star       = '*'
	slash      = '/'
	equal      = '='
	bang       = '!'
	langle     = '<'
	rangle     = '>'
	colon      = ':'
	dot        = '.'
	underscore = '_'
	quote      = '"'
	apos       = '\''
)

type Scanner struct {
	input io.RuneScanner
	char  rune
	eof   bool

	Position

	// last is the type of the previous significant token; it drives
	// the wildcard/operator disambiguation of * and and/or/mod/div.
	last rune
}

func Scan(r io.Reader) *Scanner {
	scan := Scanner{
		input: bufio.NewReader(r),
	}
	scan.read()
	return &scan
}

func (s *Scanner) Scan() Token {
	s.skipBlank()
	tok := Token{
		Position: s.Position,
	}
	if s.done() {
		tok.Type = EOF
		return tok
	}
	switch {
	case s.char == apos || s.char == quote:
		s.scanLiteral(&tok)
	case isDigit(s.char):
		s.scanNumber(&tok)
	case s.char == dot:
		s.scanDot(&tok)
	case isNameStart(s.char):
		s.scanName(&tok)
	default:
		s.scanOperator(&tok)
	}
	s.last = tok.Type
	return tok
}

// operandExpected reports whether the previous token is one after
// which an operand must follow. In that position * is a name test and
// and/or/mod/div are names.
func (s *Scanner) operandExpected() bool {
	switch s.last {
	case 0, attrAbbrev, Axisname, begGrp, begPred, opSeq,
		opAnd, opOr, opDiv, opMod, opMul, opUnion,
		currLevel, anyLevel,
		opAdd, opSub, opEq, opNe, opLt, opLe, opGt, opGe:
		return true
	default:
		return false
	}
}

func (s *Scanner) scanOperator(tok *Token) {
	switch s.char {
	case lparen:
		tok.Type = begGrp
	case rparen:
		tok.Type = endGrp
	case lsquare:
		tok.Type = begPred
	case rsquare:
		tok.Type = endPred
	case arobase:
		tok.Type = attrAbbrev
	case comma:
		tok.Type = opSeq
	case pipe:
		tok.Type = opUnion
	case plus:
		tok.Type = opAdd
	case dash:
		tok.Type = opSub
	case dollar:
		s.scanVariable(tok)
		return
	case star:
		tok.Type = opMul
		if s.operandExpected() {
			tok.Type = Wildcard
		}
	case slash:
		tok.Type = currLevel
		if s.peek() == slash {
			s.read()
			tok.Type = anyLevel
		}
	case equal:
		tok.Type = opEq
	case bang:
		tok.Type = Invalid
		if s.peek() == equal {
			s.read()
			tok.Type = opNe
		}
	case langle:
		tok.Type = opLt
		if s.peek() == equal {
			s.read()
			tok.Type = opLe
		}
	case rangle:
		tok.Type = opGt
		if s.peek() == equal {
			s.read()
			tok.Type = opGe
		}
	default:
		tok.Type = Invalid
		tok.Literal = string(s.char)
	}
	s.read()
}

func (s *Scanner) scanLiteral(tok *Token) {
	var (
		quoted = s.char
		value  []rune
	)
	s.read()
	for !s.done() && s.char != quoted {
		value = append(value, s.char)
		s.read()
	}
	tok.Type = Literal
	tok.Literal = string(value)
	if s.char != quoted {
		tok.Type = Invalid
		return
	}
	s.read()
}

func (s *Scanner) scanNumber(tok *Token) {
	digits := s.scanDigits()
	if s.char == dot {
		s.read()
		digits += "." + s.scanDigits()
	}
	tok.Type = Digit
	tok.Literal = digits
}

func (s *Scanner) scanDot(tok *Token) {
	s.read()
	switch {
	case isDigit(s.char):
		tok.Type = Digit
		tok.Literal = "0." + s.scanDigits()
	case s.char == dot:
		s.read()
		tok.Type = parentNode
	default:
		tok.Type = currNode
	}
}

func (s *Scanner) scanDigits() string {
	var digits []rune
	for isDigit(s.char) {
		digits = append(digits, s.char)
		s.read()
	}
	return string(digits)
}

func (s *Scanner) scanVariable(tok *Token) {
	s.read()
	if !isNameStart(s.char) {
		tok.Type = Invalid
		tok.Literal = "$"
		return
	}
	name := s.scanQName()
	tok.Type = Variable
	tok.Literal = name
}

func (s *Scanner) scanNCName() string {
	var name []rune
	for !s.done() && isNCNameChar(s.char) {
		name = append(name, s.char)
		s.read()
	}
	return string(name)
}

func (s *Scanner) scanQName() string {
	name := s.scanNCName()
	if s.char == colon && isNameStart(s.peek()) {
		s.read()
		name += ":" + s.scanNCName()
	}
	return name
}

func (s *Scanner) scanName(tok *Token) {
	name := s.scanNCName()

	if !s.operandExpected() {
		switch name {
		case "and":
			tok.Type = opAnd
			return
		case "or":
			tok.Type = opOr
			return
		case "mod":
			tok.Type = opMod
			return
		case "div":
			tok.Type = opDiv
			return
		}
	}

	if s.char == colon {
		switch k := s.peek(); {
		case k == star:
			s.read()
			s.read()
			tok.Type = SpaceWildcard
			tok.Literal = name
			return
		case k == colon:
			s.read()
			s.read()
			tok.Type = Axisname
			tok.Literal = name
			return
		case isNameStart(k):
			s.read()
			name += ":" + s.scanNCName()
		default:
			tok.Type = Invalid
			tok.Literal = name + ":"
			return
		}
	}

	s.skipBlank()
	switch {
	case s.char == colon && s.peek() == colon:
		s.read()
		s.read()
		tok.Type = Axisname
		tok.Literal = name
	case s.char == lparen && isNodeType(name):
		tok.Type = Nodetype
		tok.Literal = name
	case s.char == lparen:
		tok.Type = Funcname
		tok.Literal = name
	default:
		tok.Type = Name
		tok.Literal = name
	}
}

func isNodeType(name string) bool {
	switch name {
	case "comment", "text", "node", "processing-instruction":
		return true
	default:
		return false
	}
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isBlank(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r':
		return true
	default:
		return false
	}
}

func (s *Scanner) read() {
	s.Offset++
	r, _, err := s.input.ReadRune()
	if err != nil {
		s.eof = true
		s.char = 0
		return
	}
	s.char = r
}

func (s *Scanner) peek() rune {
	r, _, err := s.input.ReadRune()
	if err != nil {
		return 0
	}
	s.input.UnreadRune()
	return r
}

func (s *Scanner) done() bool {
	return s.eof
}

func (s *Scanner) skipBlank() {
	for isBlank(s.char) {
		s.read()
	}
}
