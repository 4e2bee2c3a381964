package parser

import (
	"fmt"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/compiler/token"
	"github.com/zurustar/mwscript/pkg/opcode"
)

// State is the position of a FileParser within the begin/end frame.
type State int

const (
	BeginState State = iota
	NameState
	BeginCompleteState
	EndNameState
	EndCompleteState
)

var stateNames = map[State]string{
	BeginState:         "begin",
	NameState:          "name",
	BeginCompleteState: "begin complete",
	EndNameState:       "end name",
	EndCompleteState:   "end complete",
}

// String returns a readable state name.
func (st State) String() string {
	if name, ok := stateNames[st]; ok {
		return name
	}
	return "unknown"
}

// event classifies a token for the transition table.
type event int

const (
	eventBegin   event = iota // the begin keyword
	eventKeyword              // any other keyword
	eventName                 // a name or string
	eventNewline
)

type effect int

const (
	effectNone effect = iota
	effectAllowDigitName
	effectRecordName
	effectStrayWarning
	effectCompileBody
	effectCheckEndName
)

// step is the outcome of a transition.
type step struct {
	next     State
	effect   effect
	consumed bool // false ends the scan of the file parser
}

type transitionKey struct {
	state State
	event event
}

// transitions is the begin/end frame. Missing entries are syntax errors.
var transitions = map[transitionKey]step{
	{BeginState, eventBegin}:   {NameState, effectAllowDigitName, true},
	{BeginState, eventNewline}: {BeginState, effectNone, true},

	{NameState, eventName}:    {BeginCompleteState, effectRecordName, true},
	{NameState, eventKeyword}: {BeginCompleteState, effectRecordName, true},
	{NameState, eventBegin}:   {BeginCompleteState, effectRecordName, true},

	{BeginCompleteState, eventNewline}: {EndNameState, effectCompileBody, true},
	{BeginCompleteState, eventName}:    {BeginCompleteState, effectStrayWarning, true},

	{EndNameState, eventName}:    {EndCompleteState, effectCheckEndName, false},
	{EndNameState, eventKeyword}: {EndCompleteState, effectCheckEndName, false},
	{EndNameState, eventBegin}:   {EndCompleteState, effectCheckEndName, false},

	{EndNameState, eventNewline}:     {EndNameState, effectNone, false},
	{EndCompleteState, eventNewline}: {EndCompleteState, effectNone, false},
}

// transition looks up the table. handled is false when the state has no
// rule for the event.
func transition(state State, ev event) (st step, handled bool) {
	st, handled = transitions[transitionKey{state, ev}]
	return st, handled
}

// FileParser compiles one complete script: "begin <name>", the body and
// "end [<name>]". It owns the script's locals and the body parser and can
// be reused for further scripts after Reset.
type FileParser struct {
	base   Base
	locals *locals.Locals
	script *ScriptParser

	state State
	name  string
}

// NewFileParser creates a FileParser.
func NewFileParser(h diag.Handler, ctx Context) *FileParser {
	l := locals.New()
	return &FileParser{
		base:   NewBase(h),
		locals: l,
		script: NewScriptParser(h, ctx, l, false),
	}
}

// Name returns the script name recorded from the begin line.
func (p *FileParser) Name() string {
	return p.name
}

// Code returns the compiled body.
func (p *FileParser) Code() []opcode.OpCode {
	return p.script.Code()
}

// Locals returns the local variable table of the script.
func (p *FileParser) Locals() *locals.Locals {
	return p.locals
}

// State returns the current frame state.
func (p *FileParser) State() State {
	return p.state
}

// Reset prepares the parser for the next script. The locals table is
// cleared in place.
func (p *FileParser) Reset() {
	p.state = BeginState
	p.name = ""
	p.script.Reset()
	p.locals.Clear()
}

func (p *FileParser) OnName(name string, loc token.Loc, s *scanner.Scanner) bool {
	if st, ok := transition(p.state, eventName); ok {
		return p.apply(st, name, loc, s)
	}
	return p.base.OnName(name, loc, s)
}

func (p *FileParser) OnString(value string, loc token.Loc, s *scanner.Scanner) bool {
	if st, ok := transition(p.state, eventName); ok {
		return p.apply(st, value, loc, s)
	}
	return p.base.OnString(value, loc, s)
}

func (p *FileParser) OnKeyword(keyword token.KeywordCode, loc token.Loc, s *scanner.Scanner) bool {
	ev := eventKeyword
	if keyword == token.KwBegin {
		ev = eventBegin
	}
	if st, ok := transition(p.state, ev); ok {
		return p.apply(st, loc.Literal, loc, s)
	}
	return p.base.OnKeyword(keyword, loc, s)
}

func (p *FileParser) OnSpecial(code token.SpecialCode, loc token.Loc, s *scanner.Scanner) bool {
	if code == token.SpNewline {
		if st, ok := transition(p.state, eventNewline); ok {
			return p.apply(st, "", loc, s)
		}
	}
	return p.base.OnSpecial(code, loc, s)
}

func (p *FileParser) OnInt(value int32, loc token.Loc, s *scanner.Scanner) bool {
	return p.base.OnInt(value, loc, s)
}

func (p *FileParser) OnFloat(value float32, loc token.Loc, s *scanner.Scanner) bool {
	return p.base.OnFloat(value, loc, s)
}

func (p *FileParser) OnEOF(loc token.Loc, s *scanner.Scanner) {
	if p.state != EndNameState && p.state != EndCompleteState {
		p.base.fail("script not terminated", loc, s)
	}
}

// apply performs the side effect of a transition and enters its state.
func (p *FileParser) apply(st step, text string, loc token.Loc, s *scanner.Scanner) bool {
	if st.effect != effectCompileBody {
		p.state = st.next
	}

	switch st.effect {
	case effectAllowDigitName:
		s.AllowNameStartingWithDigit()

	case effectRecordName:
		p.name = text

	case effectStrayWarning:
		p.base.warning(fmt.Sprintf("Stray string (%s) after begin statement", text), loc)

	case effectCheckEndName:
		if text != p.name {
			p.base.warning(fmt.Sprintf("Names for script %s do not match", p.name), loc)
		}

	case effectCompileBody:
		p.script.Reset()
		s.Scan(p.script)
		if p.script.Terminated() {
			p.state = st.next
			s.AllowNameStartingWithDigit()
		}
	}

	return st.consumed
}

var _ scanner.Parser = (*FileParser)(nil)
