package parser

import (
	"fmt"
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/codegen"
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/compiler/token"
	"github.com/zurustar/mwscript/pkg/opcode"
)

type lineState int

const (
	lineBegin lineState = iota
	lineExplicit
	lineExplicitName
	lineSetTarget
	lineSetMember
	lineSetMemberName
	lineSetTo
	lineDeclare
	lineMessageFormat
	lineMessageArgs
	lineMessageButtons
	lineEnd
	lineSkip
)

// LineParser compiles one statement and consumes the rest of its line,
// including the newline. Tokens after a complete statement are reported as
// a warning and skipped.
type LineParser struct {
	base    Base
	ctx     Context
	locals  *locals.Locals
	out     *codegen.Output
	expr    *ExprParser
	argExpr *ExprParser
	args    *argParser

	state     lineState
	call      bool // the statement was an extension call
	declType  locals.Type
	explicit  string
	idLoc     token.Loc // location of explicit
	target    variable
	format    string
	formatLoc token.Loc
	argc      int
	buttons   []string
}

// NewLineParser creates a LineParser emitting into out.
func NewLineParser(h diag.Handler, ctx Context, l *locals.Locals, out *codegen.Output) *LineParser {
	return &LineParser{
		base:    NewBase(h),
		ctx:     ctx,
		locals:  l,
		out:     out,
		expr:    NewExprParser(h, ctx, l, out, false),
		argExpr: NewExprParser(h, ctx, l, out, true),
		args:    newArgParser(h, ctx, l, out),
	}
}

// Reset prepares the parser for the next line.
func (p *LineParser) Reset() {
	p.state = lineBegin
	p.call = false
	p.declType = locals.None
	p.explicit = ""
	p.idLoc = token.Loc{}
	p.target = variable{}
	p.format = ""
	p.argc = 0
	p.buttons = nil
}

func (p *LineParser) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	switch p.state {
	case lineBegin:
		if ext, ok := p.ctx.Extensions().Lookup(name); ok {
			return p.callStatement(ext, "", s)
		}
		if p.ctx.IsID(name) {
			p.explicit = name
			p.idLoc = loc
			p.state = lineExplicit
			return true
		}
		p.base.fail("undeclared identifier "+name, loc, s)
		return true

	case lineExplicitName:
		return p.explicitCall(name, loc, s)

	case lineSetTarget:
		if v, ok := lookupVariable(p.locals, p.ctx, name); ok {
			p.target = v
			p.state = lineSetTo
			return true
		}
		if p.ctx.IsID(name) {
			p.explicit = name
			p.idLoc = loc
			p.state = lineSetMember
			return true
		}
		p.base.fail("undeclared identifier "+name, loc, s)
		return true

	case lineSetMemberName:
		return p.setMember(name, loc, s)

	case lineDeclare:
		return p.declare(name, loc, s)

	case lineMessageArgs:
		return p.messageArg(token.Token{Kind: token.Name, Loc: loc, Text: name}, s)
	}
	return p.rest(loc, s, func() bool { return p.base.OnName(name, loc, s) })
}

func (p *LineParser) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	switch p.state {
	case lineBegin:
		switch keyword {
		case token.KwSet:
			p.state = lineSetTarget
			return true
		case token.KwShort, token.KwLong, token.KwFloat:
			p.declType = declarationType(keyword)
			p.state = lineDeclare
			return true
		case token.KwReturn:
			p.out.Emit(opcode.Return)
			p.state = lineEnd
			return true
		case token.KwMessageBox:
			p.state = lineMessageFormat
			return true
		}

	case lineExplicitName:
		return p.explicitCall(loc.Literal, loc, s)

	case lineSetMemberName:
		return p.setMember(loc.Literal, loc, s)

	case lineSetTo:
		if keyword == token.KwTo {
			return p.set(s)
		}
	}
	return p.rest(loc, s, func() bool { return p.base.OnKeyword(keyword, loc, s) })
}

func (p *LineParser) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	if code == token.SpNewline {
		switch p.state {
		case lineEnd, lineSkip:
			return false
		case lineMessageArgs, lineMessageButtons:
			p.emitMessageBox()
			return false
		}
		return p.base.OnSpecial(code, loc, s)
	}

	switch p.state {
	case lineExplicit:
		if code == token.SpRef {
			p.state = lineExplicitName
			return true
		}
	case lineSetMember:
		if code == token.SpMember {
			p.state = lineSetMemberName
			return true
		}
	case lineMessageArgs:
		if code == token.SpComma {
			return true
		}
		return p.messageArg(token.Token{Kind: token.Special, Loc: loc, Special: code}, s)
	case lineMessageButtons:
		if code == token.SpComma {
			return true
		}
	}
	return p.rest(loc, s, func() bool { return p.base.OnSpecial(code, loc, s) })
}

func (p *LineParser) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	if p.state == lineMessageArgs {
		return p.messageArg(token.Token{Kind: token.Integer, Loc: loc, Int: value}, s)
	}
	return p.rest(loc, s, func() bool { return p.base.OnInt(value, loc, s) })
}

func (p *LineParser) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	if p.state == lineMessageArgs {
		return p.messageArg(token.Token{Kind: token.Float, Loc: loc, Float: value}, s)
	}
	return p.rest(loc, s, func() bool { return p.base.OnFloat(value, loc, s) })
}

func (p *LineParser) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	switch p.state {
	case lineBegin:
		p.explicit = value
		p.idLoc = loc
		p.state = lineExplicit
		return true
	case lineSetTarget:
		p.explicit = value
		p.idLoc = loc
		p.state = lineSetMember
		return true
	case lineMessageFormat:
		p.format = value
		p.formatLoc = loc
		p.state = lineMessageArgs
		return true
	case lineMessageArgs, lineMessageButtons:
		p.buttons = append(p.buttons, value)
		p.state = lineMessageButtons
		return true
	}
	return p.rest(loc, s, func() bool { return p.base.OnString(value, loc, s) })
}

func (p *LineParser) OnEOF(loc token.Loc, s *scanner.Scanner) {
	switch p.state {
	case lineEnd, lineSkip:
	case lineMessageArgs, lineMessageButtons:
		p.emitMessageBox()
	default:
		p.base.OnEOF(loc, s)
	}
}

// rest handles a token after a complete statement. Any other state falls
// back to fallback.
func (p *LineParser) rest(loc token.Loc, s *scanner.Scanner, fallback func() bool) bool {
	switch p.state {
	case lineEnd:
		if p.call {
			p.base.warning("extra argument", loc)
		} else {
			p.base.warning("unexpected token after statement", loc)
		}
		p.state = lineSkip
		return true
	case lineSkip:
		return true
	case lineSetMember:
		p.base.fail("undeclared identifier "+p.explicit, p.idLoc, s)
		return true
	}
	return fallback()
}

func declarationType(keyword token.KeywordCode) locals.Type {
	switch keyword {
	case token.KwShort:
		return locals.Short
	case token.KwLong:
		return locals.Long
	}
	return locals.Float
}

func (p *LineParser) declare(name string, loc token.Loc, s *scanner.Scanner) bool {
	if !p.ctx.CanDeclareLocals() {
		p.base.fail("local variables cannot be declared here", loc, s)
		return true
	}
	if _, err := p.locals.Declare(p.declType, name); err != nil {
		p.base.fail(err.Error(), loc, s)
		return true
	}
	p.state = lineEnd
	return true
}

func (p *LineParser) setMember(name string, loc token.Loc, s *scanner.Scanner) bool {
	v, ok := lookupMember(p.ctx, p.explicit, name)
	if !ok {
		p.base.fail(fmt.Sprintf("undeclared identifier %s.%s", p.explicit, name), loc, s)
		return true
	}
	p.target = v
	p.state = lineSetTo
	return true
}

// set compiles the expression of a set statement and the store.
func (p *LineParser) set(s *scanner.Scanner) bool {
	p.expr.Reset()
	s.Scan(p.expr)
	if s.Stopped() {
		return true
	}
	p.target.store(p.out)
	p.state = lineEnd
	return true
}

func (p *LineParser) explicitCall(name string, loc token.Loc, s *scanner.Scanner) bool {
	ext, ok := p.ctx.Extensions().Lookup(name)
	if !ok {
		p.base.fail("undeclared identifier "+name, loc, s)
		return true
	}
	if !ext.Explicit {
		p.base.fail(fmt.Sprintf("%s cannot be used with an explicit reference", ext.Name), loc, s)
		return true
	}
	return p.callStatement(ext, strings.ToLower(p.explicit), s)
}

// callStatement compiles an extension used as a statement. The result of a
// function is discarded.
func (p *LineParser) callStatement(ext *extensions.Extension, ref string, s *scanner.Scanner) bool {
	argc := p.args.parse(ext, s)
	if s.Stopped() {
		return true
	}
	if ext.Kind == extensions.Function {
		p.out.Emit(opcode.CallFunction, ext.Name, argc, ref)
		p.out.Emit(opcode.Pop)
	} else {
		p.out.Emit(opcode.Call, ext.Name, argc, ref)
	}
	p.call = true
	p.state = lineEnd
	return true
}

// messageArg compiles one numeric messagebox argument starting with t.
func (p *LineParser) messageArg(t token.Token, s *scanner.Scanner) bool {
	switch t.Kind {
	case token.Name, token.Integer, token.Float:
	case token.Special:
		if t.Special != token.SpOpen && t.Special != token.SpMinus {
			return p.base.OnSpecial(t.Special, t.Loc, s)
		}
	default:
		return p.base.syntaxError(t.Loc, s)
	}
	p.argExpr.Reset()
	s.PutBack(t)
	s.Scan(p.argExpr)
	p.argc++
	return true
}

func (p *LineParser) emitMessageBox() {
	if n := countFormatSpecifiers(p.format); n != p.argc {
		p.base.warning(fmt.Sprintf("messagebox format expects %d arguments, got %d", n, p.argc), p.formatLoc)
	}
	p.out.Emit(opcode.MessageBox, p.format, p.argc, p.buttons)
	p.state = lineEnd
}

// countFormatSpecifiers counts the printf-style conversions in format.
// "%%" is a literal percent sign.
func countFormatSpecifiers(format string) int {
	n := 0
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		if i+1 < len(format) && format[i+1] == '%' {
			i++
			continue
		}
		n++
	}
	return n
}

var _ scanner.Parser = (*LineParser)(nil)
