package parser

import (
	"fmt"

	"github.com/zurustar/mwscript/pkg/compiler/codegen"
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/compiler/token"
	"github.com/zurustar/mwscript/pkg/opcode"
)

type blockKind int

const (
	blockIf blockKind = iota
	blockWhile
)

// block is an open if or while.
type block struct {
	kind    blockKind
	loc     token.Loc
	next    codegen.Label   // JumpIfFalse of the current branch, -1 after else
	exits   []codegen.Label // jumps to endif
	top     int             // while: index of the condition
	hasElse bool
}

// ScriptParser compiles a script body. It handles blank lines and control
// flow itself and passes every other line to a LineParser.
//
// In file mode the body ends at the "end" keyword and the parser returns
// false there, leaving the rest of the end line to its caller. In console
// mode there is no "end"; the body runs to end of input.
type ScriptParser struct {
	base    Base
	ctx     Context
	locals  *locals.Locals
	out     *codegen.Output
	line    *LineParser
	expr    *ExprParser
	console bool

	blocks     []block
	terminated bool
	eol        bool // only a newline may follow on this line
	skip       bool // ignore the rest of this line
}

// NewScriptParser creates a ScriptParser resolving locals against l.
func NewScriptParser(h diag.Handler, ctx Context, l *locals.Locals, console bool) *ScriptParser {
	out := codegen.New()
	return &ScriptParser{
		base:    NewBase(h),
		ctx:     ctx,
		locals:  l,
		out:     out,
		line:    NewLineParser(h, ctx, l, out),
		expr:    NewExprParser(h, ctx, l, out, false),
		console: console,
	}
}

// Reset clears the code and block state for the next script.
func (p *ScriptParser) Reset() {
	p.out.Reset()
	p.blocks = p.blocks[:0]
	p.terminated = false
	p.eol = false
	p.skip = false
}

// Code returns the instructions compiled so far.
func (p *ScriptParser) Code() []opcode.OpCode {
	return p.out.Code()
}

// Terminated reports whether the "end" keyword has been reached.
func (p *ScriptParser) Terminated() bool {
	return p.terminated
}

func (p *ScriptParser) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	if p.lineRest(loc) {
		return true
	}
	s.PutBackName(name, loc)
	return p.statement(s)
}

func (p *ScriptParser) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	if p.lineRest(loc) {
		return true
	}
	s.PutBackString(value, loc)
	return p.statement(s)
}

func (p *ScriptParser) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	if p.lineRest(loc) {
		return true
	}
	return p.base.OnInt(value, loc, s)
}

func (p *ScriptParser) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	if p.lineRest(loc) {
		return true
	}
	return p.base.OnFloat(value, loc, s)
}

func (p *ScriptParser) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	if code == token.SpNewline {
		p.eol = false
		p.skip = false
		return true
	}
	if p.lineRest(loc) {
		return true
	}
	return p.base.OnSpecial(code, loc, s)
}

func (p *ScriptParser) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	if p.lineRest(loc) {
		return true
	}

	switch keyword {
	case token.KwIf:
		return p.ifStatement(loc, s)
	case token.KwElseIf:
		return p.elseIfStatement(loc, s)
	case token.KwElse:
		return p.elseStatement(loc, s)
	case token.KwEndIf:
		return p.endIfStatement(loc, s)
	case token.KwWhile:
		return p.whileStatement(loc, s)
	case token.KwEndWhile:
		return p.endWhileStatement(loc, s)
	case token.KwEnd:
		if !p.console {
			return p.end(loc, s)
		}
	}

	s.PutBackKeyword(keyword, loc)
	return p.statement(s)
}

func (p *ScriptParser) OnEOF(loc token.Loc, s *scanner.Scanner) {
	if !p.console {
		// The file parser reports the missing terminator.
		return
	}
	p.checkBlocksClosed(loc, s)
}

// lineRest handles tokens after a complete control-flow line. It returns
// true when the token was taken care of.
func (p *ScriptParser) lineRest(loc token.Loc) bool {
	if p.skip {
		return true
	}
	if p.eol {
		p.base.warning("unexpected token after statement", loc)
		p.eol = false
		p.skip = true
		return true
	}
	return false
}

// statement hands the current line to the line parser.
func (p *ScriptParser) statement(s *scanner.Scanner) bool {
	p.line.Reset()
	s.Scan(p.line)
	return true
}

// condition compiles the expression of an if, elseif or while line.
func (p *ScriptParser) condition(s *scanner.Scanner) bool {
	p.expr.Reset()
	s.Scan(p.expr)
	if s.Stopped() {
		return false
	}
	p.eol = true
	return true
}

func (p *ScriptParser) current(kind blockKind) *block {
	if len(p.blocks) == 0 || p.blocks[len(p.blocks)-1].kind != kind {
		return nil
	}
	return &p.blocks[len(p.blocks)-1]
}

func (p *ScriptParser) ifStatement(loc token.Loc, s *scanner.Scanner) bool {
	if !p.condition(s) {
		return true
	}
	p.blocks = append(p.blocks, block{
		kind: blockIf,
		loc:  loc,
		next: p.out.EmitJump(opcode.JumpIfFalse),
	})
	return true
}

func (p *ScriptParser) elseIfStatement(loc token.Loc, s *scanner.Scanner) bool {
	b := p.current(blockIf)
	if b == nil || b.hasElse {
		p.base.fail("elseif without matching if", loc, s)
		return true
	}
	b.exits = append(b.exits, p.out.EmitJump(opcode.Jump))
	p.out.Patch(b.next)
	if !p.condition(s) {
		return true
	}
	b.next = p.out.EmitJump(opcode.JumpIfFalse)
	return true
}

func (p *ScriptParser) elseStatement(loc token.Loc, s *scanner.Scanner) bool {
	b := p.current(blockIf)
	if b == nil || b.hasElse {
		p.base.fail("else without matching if", loc, s)
		return true
	}
	b.exits = append(b.exits, p.out.EmitJump(opcode.Jump))
	p.out.Patch(b.next)
	b.next = -1
	b.hasElse = true
	p.eol = true
	return true
}

func (p *ScriptParser) endIfStatement(loc token.Loc, s *scanner.Scanner) bool {
	b := p.current(blockIf)
	if b == nil {
		p.base.fail("endif without matching if", loc, s)
		return true
	}
	if b.next >= 0 {
		p.out.Patch(b.next)
	}
	for _, exit := range b.exits {
		p.out.Patch(exit)
	}
	p.blocks = p.blocks[:len(p.blocks)-1]
	p.eol = true
	return true
}

func (p *ScriptParser) whileStatement(loc token.Loc, s *scanner.Scanner) bool {
	top := p.out.Len()
	if !p.condition(s) {
		return true
	}
	p.blocks = append(p.blocks, block{
		kind: blockWhile,
		loc:  loc,
		next: p.out.EmitJump(opcode.JumpIfFalse),
		top:  top,
	})
	return true
}

func (p *ScriptParser) endWhileStatement(loc token.Loc, s *scanner.Scanner) bool {
	b := p.current(blockWhile)
	if b == nil {
		p.base.fail("endwhile without matching while", loc, s)
		return true
	}
	p.out.EmitJumpTo(opcode.Jump, b.top)
	p.out.Patch(b.next)
	p.blocks = p.blocks[:len(p.blocks)-1]
	p.eol = true
	return true
}

func (p *ScriptParser) end(loc token.Loc, s *scanner.Scanner) bool {
	if !p.checkBlocksClosed(loc, s) {
		return true
	}
	p.terminated = true
	return false
}

func (p *ScriptParser) checkBlocksClosed(loc token.Loc, s *scanner.Scanner) bool {
	if len(p.blocks) == 0 {
		return true
	}
	b := p.blocks[len(p.blocks)-1]
	missing := "endif"
	if b.kind == blockWhile {
		missing = "endwhile"
	}
	p.base.fail(fmt.Sprintf("missing %s for block opened at %s", missing, b.loc), loc, s)
	return false
}

var _ scanner.Parser = (*ScriptParser)(nil)
