package parser

import (
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/codegen"
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/compiler/token"
	"github.com/zurustar/mwscript/pkg/opcode"
)

// argParser compiles the arguments of one extension call according to its
// signature. Commas between arguments are optional. The first token that
// cannot be the next argument is put back and ends the list; it is an
// error only when a required argument is still missing.
type argParser struct {
	base    Base
	handler diag.Handler
	ctx     Context
	locals  *locals.Locals
	out     *codegen.Output
	expr    *ExprParser

	params   string
	required int
	index    int
}

func newArgParser(h diag.Handler, ctx Context, l *locals.Locals, out *codegen.Output) *argParser {
	return &argParser{
		base:    NewBase(h),
		handler: h,
		ctx:     ctx,
		locals:  l,
		out:     out,
	}
}

// parse compiles the arguments of ext and returns how many were given.
func (a *argParser) parse(ext *extensions.Extension, s *scanner.Scanner) int {
	a.params = ext.Params()
	a.required = ext.Required()
	a.index = 0
	if a.params == "" {
		return 0
	}
	s.Scan(a)
	return a.index
}

func (a *argParser) done() bool {
	return a.index >= len(a.params)
}

func (a *argParser) param() byte {
	return a.params[a.index]
}

func (a *argParser) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	t := token.Token{Kind: token.Name, Loc: loc, Text: name}
	switch {
	case a.done():
		return a.stop(t, s)
	case extensions.IsStringArg(a.param()):
		a.pushString(name)
		return true
	}
	return a.expression(t, s)
}

func (a *argParser) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	t := token.Token{Kind: token.Keyword, Loc: loc, Keyword: keyword}
	if !a.done() && a.param() == 'c' {
		a.pushString(loc.Literal)
		return true
	}
	return a.missing(t, s)
}

func (a *argParser) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	t := token.Token{Kind: token.String, Loc: loc, Text: value}
	if !a.done() && extensions.IsStringArg(a.param()) {
		a.pushString(value)
		return true
	}
	return a.missing(t, s)
}

func (a *argParser) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	return a.numeric(token.Token{Kind: token.Integer, Loc: loc, Int: value}, s)
}

func (a *argParser) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	return a.numeric(token.Token{Kind: token.Float, Loc: loc, Float: value}, s)
}

func (a *argParser) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	t := token.Token{Kind: token.Special, Loc: loc, Special: code}
	switch code {
	case token.SpComma:
		if a.done() {
			return a.stop(t, s)
		}
		return true
	case token.SpOpen, token.SpMinus:
		return a.numeric(t, s)
	}
	return a.missing(t, s)
}

func (a *argParser) OnEOF(loc token.Loc, s *scanner.Scanner) {
	if a.index < a.required {
		a.base.fail("missing argument", loc, s)
	}
}

func (a *argParser) numeric(t token.Token, s *scanner.Scanner) bool {
	if a.done() || !extensions.IsNumericArg(a.param()) {
		return a.missing(t, s)
	}
	return a.expression(t, s)
}

// expression compiles one numeric argument, starting with t.
func (a *argParser) expression(t token.Token, s *scanner.Scanner) bool {
	if a.expr == nil {
		a.expr = NewExprParser(a.handler, a.ctx, a.locals, a.out, true)
	}
	a.expr.Reset()
	s.PutBack(t)
	s.Scan(a.expr)
	a.index++
	return true
}

func (a *argParser) pushString(value string) {
	if a.param() == 'c' {
		value = strings.ToLower(value)
	}
	a.out.Emit(opcode.PushString, value)
	a.index++
}

// missing handles a token that cannot be the next argument.
func (a *argParser) missing(t token.Token, s *scanner.Scanner) bool {
	if a.index < a.required {
		a.base.fail("missing argument", t.Loc, s)
		return true
	}
	return a.stop(t, s)
}

func (a *argParser) stop(t token.Token, s *scanner.Scanner) bool {
	s.PutBack(t)
	return false
}

var _ scanner.Parser = (*argParser)(nil)
