package parser

import (
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/codegen"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/opcode"
)

type scope int

const (
	scopeLocal scope = iota
	scopeGlobal
	scopeMember
)

// variable is a resolved variable reference.
type variable struct {
	scope scope
	typ   locals.Type
	slot  int    // scopeLocal
	name  string // scopeGlobal, scopeMember
	id    string // scopeMember
}

// lookupVariable resolves name against the script's locals first, then the
// context's globals.
func lookupVariable(l *locals.Locals, ctx Context, name string) (variable, bool) {
	if typ, slot, ok := l.Lookup(name); ok {
		return variable{scope: scopeLocal, typ: typ, slot: slot}, true
	}
	if typ := ctx.GlobalType(name); typ != locals.None {
		return variable{scope: scopeGlobal, typ: typ, name: strings.ToLower(name)}, true
	}
	return variable{}, false
}

// lookupMember resolves id.name against the context.
func lookupMember(ctx Context, id, name string) (variable, bool) {
	typ := ctx.MemberType(name, id)
	if typ == locals.None {
		return variable{}, false
	}
	return variable{scope: scopeMember, typ: typ, name: strings.ToLower(name), id: strings.ToLower(id)}, true
}

func (v variable) load(out *codegen.Output) {
	switch v.scope {
	case scopeLocal:
		out.Emit(opcode.LoadLocal, byte(v.typ), v.slot)
	case scopeGlobal:
		out.Emit(opcode.LoadGlobal, v.name, byte(v.typ))
	case scopeMember:
		out.Emit(opcode.LoadMember, v.id, v.name, byte(v.typ))
	}
}

func (v variable) store(out *codegen.Output) {
	switch v.scope {
	case scopeLocal:
		out.Emit(opcode.StoreLocal, byte(v.typ), v.slot)
	case scopeGlobal:
		out.Emit(opcode.StoreGlobal, v.name, byte(v.typ))
	case scopeMember:
		out.Emit(opcode.StoreMember, v.id, v.name, byte(v.typ))
	}
}
