package xml

import (
	"bufio"
	"errors"
	"io"
	"strconv"
	"unicode"
)

const (
	EOF rune = -(1 + iota)
	Invalid
	Literal
	Name
	NamespaceTok // name:
	Attr         // name=
	Cdata        // <![CDATA[
	CommentTag   // <!--
	DocTypeTag   // <!DOCTYPE
	ProcInstTag  // <?, ?>
	OpenTag      // <
	CloseTag     // </
	EndTag       // >
	EmptyElemTag // />
)

// Position locates a token in the source document, lines and columns
// counting from one.
type Position struct {
	Line   int
	Column int
}

type Token struct {
	Type    rune
	Literal string
	Position
}

const (
	langle     = '<'
	rangle     = '>'
	slash      = '/'
	question   = '?'
	bang       = '!'
	equal      = '='
	quote      = '"'
	apos       = '\''
	lsquare    = '['
	rsquare    = ']'
	ampersand  = '&'
	semicolon  = ';'
	colon      = ':'
	dash       = '-'
	dot        = '.'
	underscore = '_'
)

// The scanner flips between markup mode and text mode: after an
// element end tag everything up to the next < is character data.
type mode int8

const (
	markupMode mode = iota
	textMode
)

type Scanner struct {
	input io.RuneScanner
	char  rune
	eof   bool
	mode  mode

	Position
}

func Scan(r io.Reader) *Scanner {
	scan := Scanner{
		input: bufio.NewReader(r),
	}
	scan.Position = Position{Line: 1}
	scan.read()
	return &scan
}

func (s *Scanner) Scan() Token {
	tok := Token{
		Position: s.Position,
	}
	if s.done() {
		tok.Type = EOF
		return tok
	}
	if s.mode == textMode {
		s.scanLiteral(&tok)
		return tok
	}
	switch {
	case unicode.IsLetter(s.char) || s.char == underscore:
		s.scanName(&tok)
	case s.char == langle:
		s.scanOpeningTag(&tok)
	case s.char == slash || s.char == question:
		s.scanClosingTag(&tok)
	case s.char == rangle:
		s.scanEndTag(&tok)
	case s.char == quote || s.char == apos:
		s.scanValue(&tok)
	default:
		s.scanLiteral(&tok)
	}
	return tok
}

func (s *Scanner) scanOpeningTag(tok *Token) {
	tok.Type = OpenTag
	s.read()
	switch s.char {
	case bang:
		s.read()
		s.scanBang(tok)
	case question:
		s.read()
		tok.Type = ProcInstTag
	case slash:
		s.read()
		tok.Type = CloseTag
	}
}

// scanBang dispatches the <! forms: CDATA sections, comments and the
// doctype declaration.
func (s *Scanner) scanBang(tok *Token) {
	switch {
	case s.char == lsquare:
		s.scanCharData(tok)
	case s.char == dash:
		s.scanComment(tok)
	case unicode.IsLetter(s.char):
		s.scanDocType(tok)
	default:
		tok.Type = Invalid
	}
}

func (s *Scanner) scanDocType(tok *Token) {
	var keyword []rune
	for !s.done() && unicode.IsLetter(s.char) {
		keyword = append(keyword, s.char)
		s.read()
	}
	if string(keyword) != "DOCTYPE" {
		tok.Type = Invalid
		return
	}
	var (
		body  []rune
		depth int
	)
	for !s.done() {
		if s.char == rangle && depth == 0 {
			s.read()
			break
		}
		switch s.char {
		case lsquare:
			depth++
		case rsquare:
			depth--
		}
		body = append(body, s.char)
		s.read()
	}
	tok.Type = DocTypeTag
	tok.Literal = string(body)
}

// scanComment reads a comment body; the first dash after <! is the
// current character.
func (s *Scanner) scanComment(tok *Token) {
	tok.Type = Invalid
	if s.read(); s.char != dash {
		return
	}
	s.read()
	body, closed := s.scanEnclosed(dash)
	tok.Literal = body
	if closed {
		tok.Type = CommentTag
	}
}

// scanCharData reads a <![CDATA[ ... ]]> section; the [ after <! is
// the current character.
func (s *Scanner) scanCharData(tok *Token) {
	s.read()
	var keyword []rune
	for !s.done() && s.char != lsquare {
		keyword = append(keyword, s.char)
		s.read()
	}
	if s.done() || string(keyword) != "CDATA" {
		tok.Type = Invalid
		return
	}
	s.read()
	body, closed := s.scanEnclosed(rsquare)
	tok.Type = Cdata
	tok.Literal = body
	if !closed {
		tok.Type = Invalid
	}
}

// scanEnclosed collects text up to the mark-mark-'>' terminator shared
// by comments (--) and CDATA sections (]]). Lone marks stay part of
// the body.
func (s *Scanner) scanEnclosed(mark rune) (string, bool) {
	var body []rune
	for !s.done() {
		if n := len(body); s.char == rangle && n >= 2 && body[n-1] == mark && body[n-2] == mark {
			s.read()
			return string(body[:n-2]), true
		}
		body = append(body, s.char)
		s.read()
	}
	return string(body), false
}

func (s *Scanner) scanEndTag(tok *Token) {
	s.read()
	tok.Type = EndTag
	s.mode = textMode
}

func (s *Scanner) scanClosingTag(tok *Token) {
	kind := Invalid
	switch s.char {
	case question:
		kind = ProcInstTag
	case slash:
		kind = EmptyElemTag
	}
	s.read()
	if s.char != rangle {
		tok.Type = Invalid
		return
	}
	s.read()
	tok.Type = kind
}

func (s *Scanner) scanValue(tok *Token) {
	var (
		quoted = s.char
		value  []rune
		bad    bool
	)
	s.read()
	for !s.done() && s.char != quoted {
		if s.char == ampersand {
			r, ok := s.scanEntity()
			if ok {
				value = append(value, r)
			}
			bad = bad || !ok
			continue
		}
		value = append(value, s.char)
		s.read()
	}
	tok.Type = Literal
	tok.Literal = string(value)
	if bad || s.char != quoted {
		tok.Type = Invalid
	}
	s.read()
	s.skipBlank()
}

// scanEntity decodes one &name; or &#N; reference, the ampersand being
// the current character.
func (s *Scanner) scanEntity() (rune, bool) {
	s.read()
	var name []rune
	for !s.done() && s.char != semicolon {
		name = append(name, s.char)
		s.read()
	}
	if s.char != semicolon {
		return 0, false
	}
	s.read()
	switch ent := string(name); ent {
	case "lt":
		return langle, true
	case "gt":
		return rangle, true
	case "amp":
		return ampersand, true
	case "apos":
		return apos, true
	case "quot":
		return quote, true
	default:
		char, err := decodeCharRef(ent)
		return char, err == nil
	}
}

func decodeCharRef(name string) (rune, error) {
	if len(name) < 2 || name[0] != '#' {
		return 0, errors.New("unknown entity")
	}
	var (
		code int64
		err  error
	)
	if name[1] == 'x' || name[1] == 'X' {
		code, err = strconv.ParseInt(name[2:], 16, 32)
	} else {
		code, err = strconv.ParseInt(name[1:], 10, 32)
	}
	if err != nil {
		return 0, errors.New("invalid character reference")
	}
	return rune(code), nil
}

func (s *Scanner) scanLiteral(tok *Token) {
	var (
		value []rune
		bad   bool
	)
	for !s.done() && s.char != langle {
		if s.char == ampersand {
			r, ok := s.scanEntity()
			if ok {
				value = append(value, r)
			}
			bad = bad || !ok
			continue
		}
		value = append(value, s.char)
		s.read()
	}
	tok.Type = Literal
	if bad {
		tok.Type = Invalid
	}
	tok.Literal = string(value)
	if s.char == langle {
		s.mode = markupMode
	}
}

func (s *Scanner) scanName(tok *Token) {
	isNameRune := func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == dash || r == underscore || r == dot
	}
	var name []rune
	for !s.done() && isNameRune(s.char) {
		name = append(name, s.char)
		s.read()
	}
	tok.Literal = string(name)
	switch s.char {
	case equal:
		tok.Type = Attr
		s.read()
	case colon:
		tok.Type = NamespaceTok
		s.read()
	default:
		tok.Type = Name
		s.skipBlank()
	}
}

func (s *Scanner) read() {
	if s.char == '\n' {
		s.Line++
		s.Column = 0
	}
	s.Column++
	r, _, err := s.input.ReadRune()
	if err != nil {
		s.eof = true
		s.char = 0
		return
	}
	s.char = r
}

func (s *Scanner) done() bool {
	return s.eof
}

func (s *Scanner) skipBlank() {
	for unicode.IsSpace(s.char) {
		s.read()
	}
}
