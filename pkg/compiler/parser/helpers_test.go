package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/opcode"
)

// stubContext is a fixed Context for parser tests.
type stubContext struct {
	globals   map[string]locals.Type
	members   map[string]map[string]locals.Type
	ids       map[string]bool
	ext       *extensions.Registry
	noDeclare bool
}

func newStubContext() *stubContext {
	return &stubContext{
		globals: map[string]locals.Type{
			"doorstate": locals.Short,
			"timescale": locals.Float,
		},
		members: map[string]map[string]locals.Type{
			"otherscript": {"counter": locals.Long},
		},
		ids: map[string]bool{
			"player":      true,
			"door_01":     true,
			"otherscript": true,
			"my door":     true,
		},
		ext: extensions.Default(),
	}
}

func (c *stubContext) GlobalType(name string) locals.Type {
	return c.globals[strings.ToLower(name)]
}

func (c *stubContext) MemberType(name, id string) locals.Type {
	return c.members[strings.ToLower(id)][strings.ToLower(name)]
}

func (c *stubContext) IsID(name string) bool {
	return c.ids[strings.ToLower(name)]
}

func (c *stubContext) Extensions() *extensions.Registry {
	return c.ext
}

func (c *stubContext) CanDeclareLocals() bool {
	return !c.noDeclare
}

// testDecls is the declaration record used by most body tests.
var testDecls = []locals.Declaration{
	{Name: "x", Type: locals.Short},
	{Name: "n", Type: locals.Long},
	{Name: "f", Type: locals.Float},
}

// compileFile runs a fresh FileParser over src.
func compileFile(t *testing.T, ctx Context, src string, decls ...locals.Declaration) (*FileParser, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter()
	fp := NewFileParser(rep, ctx)
	runFile(t, fp, rep, src, decls)
	return fp, rep
}

func runFile(t *testing.T, fp *FileParser, rep *diag.Reporter, src string, decls []locals.Declaration) {
	t.Helper()
	fp.Reset()
	require.NoError(t, fp.Locals().Configure(decls))
	scanner.New(strings.NewReader(src), rep).Scan(fp)
}

// compileBody wraps body in a begin/end frame and compiles it with testDecls.
func compileBody(t *testing.T, body string) ([]opcode.OpCode, *diag.Reporter) {
	t.Helper()
	fp, rep := compileFile(t, newStubContext(), "begin Test\n"+body+"end Test\n", testDecls...)
	return fp.Code(), rep
}

func messages(rep *diag.Reporter) []string {
	var out []string
	for _, d := range rep.Diagnostics() {
		out = append(out, d.Message)
	}
	return out
}

// op is a short alias for opcode.New.
func op(cmd opcode.Cmd, args ...any) opcode.OpCode {
	return opcode.New(cmd, args...)
}

const (
	tS = opcode.TypeShort
	tL = opcode.TypeLong
	tF = opcode.TypeFloat
)
