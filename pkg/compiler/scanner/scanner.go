// Package scanner tokenizes script source and feeds each token to the
// currently active Parser.
//
// The scanner does not build a token slice. Scan pulls one token at a time
// and calls the matching Parser callback; the callback decides whether the
// scan continues. A callback may start a nested Scan with another Parser on
// the same Scanner, which is how the file parser hands the script body to the
// body compiler.
package scanner

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/token"
)

// Parser receives tokens from a Scanner. Every callback returns true when
// the token was consumed and scanning should continue with the same parser,
// or false when the parser is done and control goes back to the caller of
// Scan.
type Parser interface {
	OnName(name string, loc token.Loc, s *Scanner) bool
	OnKeyword(keyword token.KeywordCode, loc token.Loc, s *Scanner) bool
	OnSpecial(code token.SpecialCode, loc token.Loc, s *Scanner) bool
	OnInt(value int32, loc token.Loc, s *Scanner) bool
	OnFloat(value float32, loc token.Loc, s *Scanner) bool
	OnString(value string, loc token.Loc, s *Scanner) bool
	OnEOF(loc token.Loc, s *Scanner)
}

const eof = -1

// Scanner is a pull-based lexer over an io.Reader.
type Scanner struct {
	r       *bufio.Reader
	handler diag.Handler

	ch      rune // current character, eof at end of input
	line    int
	column  int
	readErr error

	putback    token.Token
	hasPutback bool

	digitNames bool
	stopped    bool
}

// New creates a Scanner reading from r and reporting lexical errors to h.
func New(r io.Reader, h diag.Handler) *Scanner {
	s := &Scanner{
		r:       bufio.NewReader(r),
		handler: h,
		line:    1,
	}
	s.readChar()
	return s
}

// Scan feeds tokens to p until p returns false, input ends or the scanner
// is stopped.
func (s *Scanner) Scan(p Parser) {
	for !s.stopped && s.scanToken(p) {
	}
}

// Stop aborts scanning. Every running Scan returns after the current
// callback. Parsers call Stop after reporting an error.
func (s *Scanner) Stop() {
	s.stopped = true
}

// Stopped reports whether Stop has been called.
func (s *Scanner) Stopped() bool {
	return s.stopped
}

// AllowNameStartingWithDigit makes the next token a Name when it is a run
// of digits followed by name characters (e.g. "1stDoor"). The mode applies
// to one token only.
func (s *Scanner) AllowNameStartingWithDigit() {
	s.digitNames = true
}

// PutBack returns a token to the scanner. The next scanned token will be t.
// Only one token can be put back at a time.
func (s *Scanner) PutBack(t token.Token) {
	if s.hasPutback {
		panic("scanner: put-back slot already in use")
	}
	s.putback = t
	s.hasPutback = true
}

// PutBackName puts back a Name token.
func (s *Scanner) PutBackName(name string, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.Name, Loc: loc, Text: name})
}

// PutBackKeyword puts back a Keyword token.
func (s *Scanner) PutBackKeyword(keyword token.KeywordCode, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.Keyword, Loc: loc, Keyword: keyword})
}

// PutBackSpecial puts back a Special token.
func (s *Scanner) PutBackSpecial(code token.SpecialCode, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.Special, Loc: loc, Special: code})
}

// PutBackInt puts back an Integer token.
func (s *Scanner) PutBackInt(value int32, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.Integer, Loc: loc, Int: value})
}

// PutBackFloat puts back a Float token.
func (s *Scanner) PutBackFloat(value float32, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.Float, Loc: loc, Float: value})
}

// PutBackString puts back a String token.
func (s *Scanner) PutBackString(value string, loc token.Loc) {
	s.PutBack(token.Token{Kind: token.String, Loc: loc, Text: value})
}

// scanToken reads one token and dispatches it.
func (s *Scanner) scanToken(p Parser) bool {
	if s.hasPutback {
		t := s.putback
		s.hasPutback = false
		return s.dispatch(p, t)
	}

	t, ok := s.next()
	if !ok {
		return false
	}
	return s.dispatch(p, t)
}

// dispatch calls the callback matching the token kind.
func (s *Scanner) dispatch(p Parser, t token.Token) bool {
	switch t.Kind {
	case token.Name:
		return p.OnName(t.Text, t.Loc, s)
	case token.Keyword:
		return p.OnKeyword(t.Keyword, t.Loc, s)
	case token.Special:
		return p.OnSpecial(t.Special, t.Loc, s)
	case token.Integer:
		return p.OnInt(t.Int, t.Loc, s)
	case token.Float:
		return p.OnFloat(t.Float, t.Loc, s)
	case token.String:
		return p.OnString(t.Text, t.Loc, s)
	default:
		p.OnEOF(t.Loc, s)
		return false
	}
}

// next lexes the next token. ok is false after a lexical error, which has
// already been reported.
func (s *Scanner) next() (t token.Token, ok bool) {
	allowDigit := s.digitNames
	s.digitNames = false

	s.skipWhitespace()
	loc := token.Loc{Line: s.line, Column: s.column}

	switch {
	case s.ch == eof:
		if s.readErr != nil {
			return s.fail("read error: "+s.readErr.Error(), loc)
		}
		loc.Column++
		return token.Token{Kind: token.EOF, Loc: loc}, true
	case s.ch == '\n':
		s.readChar()
		loc.Literal = "\n"
		return token.Token{Kind: token.Special, Loc: loc, Special: token.SpNewline}, true
	case isLetter(s.ch):
		return s.readName(loc), true
	case isDigit(s.ch):
		return s.readNumber(loc, allowDigit)
	case s.ch == '"':
		return s.readString(loc)
	}
	return s.readSpecial(loc)
}

// readChar advances to the next character.
func (s *Scanner) readChar() {
	if s.ch == '\n' {
		s.line++
		s.column = 0
	}
	r, _, err := s.r.ReadRune()
	if err != nil {
		if err != io.EOF {
			s.readErr = err
		}
		s.ch = eof
		return
	}
	s.ch = r
	s.column++
}

// peekChar returns the character after the current one without advancing.
func (s *Scanner) peekChar() rune {
	r, _, err := s.r.ReadRune()
	if err != nil {
		return eof
	}
	_ = s.r.UnreadRune()
	return r
}

// skipWhitespace skips blanks and comments. Newlines are tokens.
func (s *Scanner) skipWhitespace() {
	for {
		switch s.ch {
		case ' ', '\t', '\r', '\v', '\f':
			s.readChar()
		case ';':
			for s.ch != '\n' && s.ch != eof {
				s.readChar()
			}
		default:
			return
		}
	}
}

// readWhile consumes characters while accept returns true.
func (s *Scanner) readWhile(buf *strings.Builder, accept func(rune) bool) {
	for s.ch != eof && accept(s.ch) {
		buf.WriteRune(s.ch)
		s.readChar()
	}
}

func (s *Scanner) readName(loc token.Loc) token.Token {
	var buf strings.Builder
	s.readWhile(&buf, isNameChar)
	loc.Literal = buf.String()

	if kw, ok := token.LookupKeyword(loc.Literal); ok {
		return token.Token{Kind: token.Keyword, Loc: loc, Keyword: kw}
	}
	return token.Token{Kind: token.Name, Loc: loc, Text: loc.Literal}
}

func (s *Scanner) readNumber(loc token.Loc, allowDigit bool) (token.Token, bool) {
	var buf strings.Builder
	s.readWhile(&buf, isDigit)

	if isLetter(s.ch) {
		s.readWhile(&buf, isNameChar)
		loc.Literal = buf.String()
		if allowDigit {
			return token.Token{Kind: token.Name, Loc: loc, Text: loc.Literal}, true
		}
		return s.fail("invalid number", loc)
	}

	if s.ch == '.' {
		buf.WriteRune(s.ch)
		s.readChar()
		s.readWhile(&buf, isDigit)
		loc.Literal = buf.String()
		if isLetter(s.ch) {
			s.readWhile(&buf, isNameChar)
			loc.Literal = buf.String()
			return s.fail("invalid number", loc)
		}
		v, err := strconv.ParseFloat(loc.Literal, 32)
		if err != nil {
			return s.fail("number out of range", loc)
		}
		return token.Token{Kind: token.Float, Loc: loc, Float: float32(v)}, true
	}

	loc.Literal = buf.String()
	v, err := strconv.ParseInt(loc.Literal, 10, 32)
	if err != nil {
		return s.fail("number out of range", loc)
	}
	return token.Token{Kind: token.Integer, Loc: loc, Int: int32(v)}, true
}

// readString reads a double-quoted string. Strings do not span lines.
func (s *Scanner) readString(loc token.Loc) (token.Token, bool) {
	var buf strings.Builder
	s.readChar() // opening quote
	s.readWhile(&buf, func(r rune) bool { return r != '"' && r != '\n' })

	if s.ch != '"' {
		loc.Literal = `"` + buf.String()
		return s.fail("unterminated string", loc)
	}
	s.readChar() // closing quote

	loc.Literal = `"` + buf.String() + `"`
	return token.Token{Kind: token.String, Loc: loc, Text: buf.String()}, true
}

// twoCharSpecials maps a first character and the following '=' or '>' to
// the combined special.
var twoCharSpecials = map[[2]rune]token.SpecialCode{
	{'=', '='}: token.SpCmpEQ,
	{'!', '='}: token.SpCmpNE,
	{'<', '='}: token.SpCmpLE,
	{'>', '='}: token.SpCmpGE,
	{'-', '>'}: token.SpRef,
}

var oneCharSpecials = map[rune]token.SpecialCode{
	'(': token.SpOpen,
	')': token.SpClose,
	'+': token.SpPlus,
	'-': token.SpMinus,
	'*': token.SpMult,
	'/': token.SpDiv,
	',': token.SpComma,
	'<': token.SpCmpLT,
	'>': token.SpCmpGT,
	'.': token.SpMember,
}

func (s *Scanner) readSpecial(loc token.Loc) (token.Token, bool) {
	first := s.ch
	if code, ok := twoCharSpecials[[2]rune{first, s.peekChar()}]; ok {
		s.readChar()
		second := s.ch
		s.readChar()
		loc.Literal = string([]rune{first, second})
		return token.Token{Kind: token.Special, Loc: loc, Special: code}, true
	}

	loc.Literal = string(first)
	s.readChar()
	if code, ok := oneCharSpecials[first]; ok {
		return token.Token{Kind: token.Special, Loc: loc, Special: code}, true
	}
	return s.fail("unexpected character", loc)
}

// fail reports a lexical error and stops the scanner.
func (s *Scanner) fail(message string, loc token.Loc) (token.Token, bool) {
	s.handler.Error(message, loc)
	s.Stop()
	return token.Token{}, false
}

func isLetter(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isDigit(r rune) bool {
	return '0' <= r && r <= '9'
}

func isNameChar(r rune) bool {
	return isLetter(r) || isDigit(r)
}
