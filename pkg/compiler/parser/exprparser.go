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

// Operator precedence, lowest first. Zero is the open-parenthesis marker.
const (
	precParen = iota
	precCompare
	precSum
	precProduct
	precUnary
)

type operator struct {
	code  token.SpecialCode
	unary bool
}

func (op operator) precedence() int {
	switch {
	case op.unary:
		return precUnary
	case op.code == token.SpMult || op.code == token.SpDiv:
		return precProduct
	case op.code == token.SpPlus || op.code == token.SpMinus:
		return precSum
	case op.code.IsComparison():
		return precCompare
	}
	return precParen
}

// Explicit reference progress: an id was seen and must be followed by
// "->" (function call) or "." (member variable).
type refState int

const (
	refNone refState = iota
	refID
	refArrow
	refMember
)

// ExprParser compiles one expression. Operands are emitted as soon as they
// are read; operators wait on a stack until an operator of lower or equal
// precedence, a closing parenthesis or the end of the expression.
//
// The expression ends at the first token that cannot continue it. That
// token is put back for the caller and the parser returns false.
//
// In argument mode a "-" after a complete operand outside parentheses also
// ends the expression, so "Position 1 -2 3 0" reads as four arguments.
type ExprParser struct {
	base     Base
	handler  diag.Handler
	ctx      Context
	locals   *locals.Locals
	out      *codegen.Output
	argument bool
	args     *argParser

	operands  []locals.Type
	operators []operator
	next      bool // an operand is expected
	depth     int  // open parentheses

	ref         refState
	explicit    string
	explicitLoc token.Loc
	fromString  bool
}

// NewExprParser creates an ExprParser emitting into out.
func NewExprParser(h diag.Handler, ctx Context, l *locals.Locals, out *codegen.Output, argument bool) *ExprParser {
	p := &ExprParser{
		base:     NewBase(h),
		handler:  h,
		ctx:      ctx,
		locals:   l,
		out:      out,
		argument: argument,
	}
	p.Reset()
	return p
}

// Reset prepares the parser for the next expression.
func (p *ExprParser) Reset() {
	p.operands = p.operands[:0]
	p.operators = p.operators[:0]
	p.next = true
	p.depth = 0
	p.ref = refNone
	p.explicit = ""
	p.fromString = false
}

func (p *ExprParser) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	switch p.ref {
	case refArrow:
		return p.explicitCall(name, loc, s)
	case refMember:
		return p.member(name, loc, s)
	case refID:
		return p.unresolvedRef(s)
	}
	if !p.next {
		return p.terminate(token.Token{Kind: token.Name, Loc: loc, Text: name}, s)
	}

	if v, ok := lookupVariable(p.locals, p.ctx, name); ok {
		v.load(p.out)
		p.pushOperand(v.typ)
		return true
	}
	if ext, ok := p.ctx.Extensions().Lookup(name); ok {
		if ext.Kind != extensions.Function {
			p.base.fail(fmt.Sprintf("%s does not return a value", ext.Name), loc, s)
			return true
		}
		return p.call(ext, "", s)
	}
	if p.ctx.IsID(name) {
		p.startRef(name, loc, false)
		return true
	}
	p.base.fail("undeclared identifier "+name, loc, s)
	return true
}

func (p *ExprParser) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	switch p.ref {
	case refArrow, refMember:
		return p.OnName(loc.Literal, loc, s)
	case refID:
		return p.unresolvedRef(s)
	}
	return p.terminate(token.Token{Kind: token.Keyword, Loc: loc, Keyword: keyword}, s)
}

func (p *ExprParser) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	switch p.ref {
	case refArrow, refMember:
		return p.base.OnString(value, loc, s)
	case refID:
		return p.unresolvedRef(s)
	}
	if !p.next {
		return p.terminate(token.Token{Kind: token.String, Loc: loc, Text: value}, s)
	}
	p.startRef(value, loc, true)
	return true
}

func (p *ExprParser) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	if p.ref != refNone {
		return p.unexpectedInRef(loc, s)
	}
	if !p.next {
		return p.terminate(token.Token{Kind: token.Integer, Loc: loc, Int: value}, s)
	}
	p.out.Emit(opcode.PushInt, value)
	p.pushOperand(locals.Long)
	return true
}

func (p *ExprParser) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	if p.ref != refNone {
		return p.unexpectedInRef(loc, s)
	}
	if !p.next {
		return p.terminate(token.Token{Kind: token.Float, Loc: loc, Float: value}, s)
	}
	p.out.Emit(opcode.PushFloat, value)
	p.pushOperand(locals.Float)
	return true
}

func (p *ExprParser) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	if p.ref == refID {
		switch code {
		case token.SpRef:
			p.ref = refArrow
			return true
		case token.SpMember:
			p.ref = refMember
			return true
		}
		return p.unresolvedRef(s)
	}
	if p.ref != refNone {
		return p.base.OnSpecial(code, loc, s)
	}

	tok := token.Token{Kind: token.Special, Loc: loc, Special: code}

	switch {
	case code == token.SpOpen:
		if !p.next {
			return p.terminate(tok, s)
		}
		p.operators = append(p.operators, operator{code: code})
		p.depth++
		return true

	case code == token.SpClose:
		if p.depth == 0 {
			return p.terminate(tok, s)
		}
		if p.next {
			p.base.fail("missing operand", loc, s)
			return true
		}
		p.closeParen()
		return true

	case code == token.SpMinus && p.next:
		p.operators = append(p.operators, operator{code: code, unary: true})
		return true

	case isBinary(code):
		if p.next {
			p.base.fail("missing operand", loc, s)
			return true
		}
		if p.argument && code == token.SpMinus && p.depth == 0 {
			return p.terminate(tok, s)
		}
		op := operator{code: code}
		p.reduce(op.precedence())
		p.operators = append(p.operators, op)
		p.next = true
		return true
	}

	return p.terminate(tok, s)
}

func (p *ExprParser) OnEOF(loc token.Loc, s *scanner.Scanner) {
	if p.ref != refNone {
		p.unresolvedRef(s)
		return
	}
	p.finish(loc, s)
}

func isBinary(code token.SpecialCode) bool {
	switch code {
	case token.SpPlus, token.SpMinus, token.SpMult, token.SpDiv:
		return true
	}
	return code.IsComparison()
}

// terminate ends the expression at t and hands t back to the caller.
func (p *ExprParser) terminate(t token.Token, s *scanner.Scanner) bool {
	if !p.finish(t.Loc, s) {
		return true
	}
	s.PutBack(t)
	return false
}

// finish checks the expression is complete and flushes the operator stack.
func (p *ExprParser) finish(loc token.Loc, s *scanner.Scanner) bool {
	if p.next {
		p.base.fail("missing operand", loc, s)
		return false
	}
	if p.depth > 0 {
		p.base.fail("missing closing parenthesis", loc, s)
		return false
	}
	p.reduce(precParen + 1)
	return true
}

// reduce applies stacked operators whose precedence is at least prec.
// Open-parenthesis markers stop the reduction.
func (p *ExprParser) reduce(prec int) {
	for len(p.operators) > 0 {
		top := p.operators[len(p.operators)-1]
		if top.precedence() == precParen || top.precedence() < prec {
			return
		}
		p.operators = p.operators[:len(p.operators)-1]
		p.apply(top)
	}
}

func (p *ExprParser) closeParen() {
	p.reduce(precParen + 1)
	p.operators = p.operators[:len(p.operators)-1]
	p.depth--
}

func (p *ExprParser) apply(op operator) {
	n := len(p.operands)
	if op.unary {
		typ := arithmeticType(p.operands[n-1], p.operands[n-1])
		p.out.Emit(opcode.UnaryOp, op.code.String(), byte(typ))
		p.operands[n-1] = typ
		return
	}

	typ := arithmeticType(p.operands[n-2], p.operands[n-1])
	p.out.Emit(opcode.BinaryOp, op.code.String(), byte(typ))
	p.operands = p.operands[:n-1]
	if op.code.IsComparison() {
		p.operands[n-2] = locals.Long
	} else {
		p.operands[n-2] = typ
	}
}

// arithmeticType is Float when either side is a float, Long otherwise.
func arithmeticType(a, b locals.Type) locals.Type {
	if a == locals.Float || b == locals.Float {
		return locals.Float
	}
	return locals.Long
}

func (p *ExprParser) pushOperand(t locals.Type) {
	p.operands = append(p.operands, t)
	p.next = false
}

func (p *ExprParser) startRef(id string, loc token.Loc, fromString bool) {
	p.ref = refID
	p.explicit = id
	p.explicitLoc = loc
	p.fromString = fromString
}

// unresolvedRef reports an id that was not followed by "->" or ".".
func (p *ExprParser) unresolvedRef(s *scanner.Scanner) bool {
	if p.fromString {
		p.base.fail("unexpected string in expression", p.explicitLoc, s)
	} else {
		p.base.fail("undeclared identifier "+p.explicit, p.explicitLoc, s)
	}
	return true
}

func (p *ExprParser) unexpectedInRef(loc token.Loc, s *scanner.Scanner) bool {
	if p.ref == refID {
		return p.unresolvedRef(s)
	}
	return p.base.syntaxError(loc, s)
}

func (p *ExprParser) member(name string, loc token.Loc, s *scanner.Scanner) bool {
	v, ok := lookupMember(p.ctx, p.explicit, name)
	if !ok {
		p.base.fail(fmt.Sprintf("undeclared identifier %s.%s", p.explicit, name), loc, s)
		return true
	}
	p.ref = refNone
	v.load(p.out)
	p.pushOperand(v.typ)
	return true
}

func (p *ExprParser) explicitCall(name string, loc token.Loc, s *scanner.Scanner) bool {
	ext, ok := p.ctx.Extensions().Lookup(name)
	switch {
	case !ok:
		p.base.fail("undeclared identifier "+name, loc, s)
		return true
	case ext.Kind != extensions.Function:
		p.base.fail(fmt.Sprintf("%s does not return a value", ext.Name), loc, s)
		return true
	case !ext.Explicit:
		p.base.fail(fmt.Sprintf("%s cannot be used with an explicit reference", ext.Name), loc, s)
		return true
	}
	p.ref = refNone
	return p.call(ext, strings.ToLower(p.explicit), s)
}

// call compiles the arguments of a function and the call itself.
func (p *ExprParser) call(ext *extensions.Extension, ref string, s *scanner.Scanner) bool {
	if p.args == nil {
		p.args = newArgParser(p.handler, p.ctx, p.locals, p.out)
	}
	argc := p.args.parse(ext, s)
	if s.Stopped() {
		return true
	}
	p.out.Emit(opcode.CallFunction, ext.Name, argc, ref)
	p.pushOperand(ext.Returns)
	return true
}

var _ scanner.Parser = (*ExprParser)(nil)
