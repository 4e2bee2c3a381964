// Package parser implements the parsers driven by the scanner: the file
// parser for the begin/end frame, the script parser for the body and the
// line and expression parsers it delegates to.
//
// Every parser holds a Base and hands it the tokens it has no rule for.
package parser

import (
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/compiler/token"
)

// Base is the fallback every parser delegates to. Any token that reaches it
// is a syntax error: the error is reported, the scanner stopped and the
// token consumed.
type Base struct {
	handler diag.Handler
}

// NewBase creates a Base reporting to h.
func NewBase(h diag.Handler) Base {
	return Base{handler: h}
}

func (b *Base) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	return b.syntaxError(loc, s)
}

func (b *Base) OnEOF(loc token.Loc, s *scanner.Scanner) {
	b.fail("unexpected end of file", loc, s)
}

func (b *Base) syntaxError(loc token.Loc, s *scanner.Scanner) bool {
	b.fail("syntax error", loc, s)
	return true
}

// fail reports an error and stops the scanner. The compile is abandoned.
func (b *Base) fail(message string, loc token.Loc, s *scanner.Scanner) {
	b.handler.Error(message, loc)
	s.Stop()
}

func (b *Base) warning(message string, loc token.Loc) {
	b.handler.Warning(message, loc)
}

var _ scanner.Parser = (*Base)(nil)
