package compiler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/opcode"
	"github.com/zurustar/mwscript/pkg/script"
	"github.com/zurustar/mwscript/pkg/world"
)

func testWorld(t *testing.T) *world.Context {
	t.Helper()
	ctx := world.New(nil)
	require.NoError(t, ctx.DeclareGlobal("DoorState", locals.Short))
	return ctx
}

const doorScript = `begin DoorScript
short state
float timer

if ( OnActivate )
	set state to 1 - state
	set DoorState to state
endif
set timer to timer + GetSecondsPassed
end DoorScript
`

func TestCompile(t *testing.T) {
	c := New(testWorld(t))

	cs, err := c.CompileString("door.mwscript", doorScript, nil)
	require.NoError(t, err)

	assert.Equal(t, "DoorScript", cs.Name)
	assert.Empty(t, cs.Warnings)
	assert.Equal(t, []locals.Declaration{
		{Name: "state", Type: locals.Short},
		{Name: "timer", Type: locals.Float},
	}, cs.Locals.Declarations())

	assert.Equal(t, []opcode.OpCode{
		opcode.New(opcode.CallFunction, "OnActivate", 0, ""),
		opcode.New(opcode.JumpIfFalse, 7),
		opcode.New(opcode.PushInt, int32(1)),
		opcode.New(opcode.LoadLocal, opcode.TypeShort, 0),
		opcode.New(opcode.BinaryOp, "-", opcode.TypeLong),
		opcode.New(opcode.StoreLocal, opcode.TypeShort, 0),
		opcode.New(opcode.LoadLocal, opcode.TypeShort, 0),
		opcode.New(opcode.StoreGlobal, "doorstate", opcode.TypeShort),
		opcode.New(opcode.LoadLocal, opcode.TypeFloat, 0),
		opcode.New(opcode.CallFunction, "GetSecondsPassed", 0, ""),
		opcode.New(opcode.BinaryOp, "+", opcode.TypeFloat),
		opcode.New(opcode.StoreLocal, opcode.TypeFloat, 0),
	}, cs.Code)
}

func TestCompile_DeclarationRecord(t *testing.T) {
	c := New(nil)
	decls := []locals.Declaration{{Name: "count", Type: locals.Long}}

	cs, err := c.CompileString("a", "begin A\nset count to 3\nend\n", decls)
	require.NoError(t, err)
	assert.Equal(t, []opcode.OpCode{
		opcode.New(opcode.PushInt, int32(3)),
		opcode.New(opcode.StoreLocal, opcode.TypeLong, 0),
	}, cs.Code)

	_, err = c.CompileString("b", "begin B\nend\n", []locals.Declaration{{Name: "x", Type: locals.None}})
	require.Error(t, err)
	assert.False(t, IsCompileError(err))
	assert.Contains(t, err.Error(), "invalid declaration record")
}

func TestCompile_Warnings(t *testing.T) {
	c := New(nil)
	cs, err := c.CompileString("w", "begin W extra\nend X\n", nil)
	require.NoError(t, err)
	require.Len(t, cs.Warnings, 2)
	assert.Equal(t, diag.SeverityWarning, cs.Warnings[0].Severity)
	assert.Equal(t, "w", cs.Warnings[0].Script)
}

func TestCompile_WarningsAsErrors(t *testing.T) {
	c := New(nil, WithWarningsMode(diag.WarningsAsErrors))
	_, err := c.CompileString("w", "begin W extra\nend W\n", nil)
	require.Error(t, err)
	assert.True(t, IsCompileError(err))

	c = New(nil, WithWarningsMode(diag.WarningsIgnore))
	cs, err := c.CompileString("w", "begin W extra\nend W\n", nil)
	require.NoError(t, err)
	assert.Empty(t, cs.Warnings)
}

func TestCompile_Error(t *testing.T) {
	c := New(testWorld(t))
	_, err := c.CompileString("bad.mwscript", "begin Bad\nshort x\nset y to 1\nend Bad\n", nil)
	require.Error(t, err)

	var ce *CompileError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "bad.mwscript", ce.Script)
	require.Len(t, ce.Diagnostics, 1)
	assert.Equal(t, "undeclared identifier y", ce.Diagnostics[0].Message)
	assert.Equal(t, 3, ce.Diagnostics[0].Loc.Line)
	assert.Equal(t, 5, ce.Diagnostics[0].Loc.Column)

	msg := err.Error()
	assert.Contains(t, msg, "bad.mwscript: error at line 3, column 5")
	assert.Contains(t, msg, "> 3 | set y to 1")
	assert.Contains(t, msg, "^")
}

func TestCompile_OutputIsIndependent(t *testing.T) {
	c := New(nil)
	first, err := c.CompileString("a", "begin A\nshort a\nset a to 1\nend\n", nil)
	require.NoError(t, err)
	want := opcode.Clone(first.Code)

	_, err = c.CompileString("b", "begin B\nlong b\nset b to 99\nreturn\nend\n", nil)
	require.NoError(t, err)

	assert.Equal(t, want, first.Code)
	assert.Equal(t, 0, first.Locals.Index("a"))
	assert.Equal(t, -1, first.Locals.Index("b"))
}

func TestCompileSnippet(t *testing.T) {
	c := New(testWorld(t))
	l := locals.New()
	_, err := l.Declare(locals.Short, "x")
	require.NoError(t, err)

	code, err := c.CompileSnippet("set x to 5\nset DoorState to x", l)
	require.NoError(t, err)
	assert.Equal(t, []opcode.OpCode{
		opcode.New(opcode.PushInt, int32(5)),
		opcode.New(opcode.StoreLocal, opcode.TypeShort, 0),
		opcode.New(opcode.LoadLocal, opcode.TypeShort, 0),
		opcode.New(opcode.StoreGlobal, "doorstate", opcode.TypeShort),
	}, code)

	_, err = c.CompileSnippet("short y", l)
	require.Error(t, err)
	assert.Equal(t, "local variables cannot be declared here", Diagnostics(err)[0].Message)
	assert.Equal(t, 1, l.Len())

	_, err = c.CompileSnippet("if ( x )\nset x to 1", l)
	assert.ErrorContains(t, err, "missing endif")

	code, err = c.CompileSnippet("player->Enable", nil)
	require.NoError(t, err)
	assert.Equal(t, []opcode.OpCode{opcode.New(opcode.Call, "Enable", 0, "player")}, code)
}

func TestCompileScripts(t *testing.T) {
	scripts := []script.Script{
		{FileName: "a.mwscript", Name: "a", Content: "begin A\nset state to 2\nend A\n"},
		{FileName: "broken.mwscript", Name: "broken", Content: "begin Broken\nset nothere to 1\nend\n"},
		{FileName: "b.mwscript", Name: "b", Content: "begin B\nshort copy\nset copy to A.state\nend B\n"},
	}
	decls := map[string][]locals.Declaration{
		"a": {{Name: "state", Type: locals.Short}},
	}

	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))
	ctx := world.New(nil)
	c := New(ctx, WithLogger(log))

	results := c.CompileScripts(scripts, func(name string) []locals.Declaration { return decls[name] })
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Equal(t, "A", results[0].Script.Name)

	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Script)
	assert.Equal(t, "broken.mwscript", results[1].Source.FileName)

	require.NoError(t, results[2].Err, "later scripts see members of earlier ones")
	assert.Contains(t, results[2].Script.Code, opcode.New(opcode.LoadMember, "a", "state", opcode.TypeShort))

	assert.Equal(t, locals.Short, ctx.MemberType("state", "a"))
	assert.Contains(t, logs.String(), "batch compiled")
	assert.Contains(t, logs.String(), "failed=1")
}

func TestWithSink(t *testing.T) {
	var got []string
	sink := diag.SinkFunc(func(d diag.Diagnostic) {
		got = append(got, d.Script+": "+d.Message)
	})

	c := New(nil, WithSink(sink))
	_, _ = c.CompileString("one", "begin One\nend Two\n", nil)
	_, _ = c.CompileString("two", "begin Two\n", nil)

	assert.Equal(t, []string{
		"one: Names for script One do not match",
		"two: script not terminated",
	}, got)
}

func TestCompileError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *CompileError
		contains []string
	}{
		{
			name:     "no diagnostics",
			err:      &CompileError{Script: "a"},
			contains: []string{"a: compilation failed"},
		},
		{
			name: "only warnings",
			err: &CompileError{Script: "a", Diagnostics: []diag.Diagnostic{
				{Severity: diag.SeverityWarning, Message: "w"},
			}},
			contains: []string{"a: compilation failed"},
		},
		{
			name: "several errors",
			err: &CompileError{Script: "a", Diagnostics: []diag.Diagnostic{
				{Severity: diag.SeverityWarning, Script: "a", Message: "first warning"},
				{Severity: diag.SeverityError, Script: "a", Message: "boom"},
				{Severity: diag.SeverityError, Script: "a", Message: "again"},
			}},
			contains: []string{"a: error", "boom", "(and 1 more errors)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, want := range tt.contains {
				assert.Contains(t, msg, want)
			}
		})
	}
}

func TestIsCompileError(t *testing.T) {
	ce := &CompileError{Script: "a"}
	assert.True(t, IsCompileError(ce))
	assert.True(t, IsCompileError(fmt.Errorf("wrapped: %w", ce)))
	assert.False(t, IsCompileError(errors.New("plain")))
	assert.Nil(t, Diagnostics(errors.New("plain")))
}

// TestProperty_ReuseIsIdempotent checks that a compiler that has already
// compiled other scripts produces the same artifact as a fresh one.
func TestProperty_ReuseIsIdempotent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	line := gen.OneGenOf(
		gen.IntRange(-50, 50).Map(func(v int) string { return fmt.Sprintf("set a to %d", v) }),
		gen.IntRange(1, 9).Map(func(v int) string { return fmt.Sprintf("set b to b * %d + a", v) }),
		gen.Const("if ( a > b )\nset a to b\nelseif ( a == 0 )\nset a to 1\nelse\nreturn\nendif"),
		gen.Const("while ( b < 10 )\nset b to b + 1\nendwhile"),
		gen.Const("short extra"),
		gen.Const("set DoorState to a"),
		gen.Const("junk here"),
	)
	source := gen.SliceOf(line).Map(func(lines []string) string {
		return "begin Gen\nshort a\nlong b\n" + strings.Join(lines, "\n") + "\nend Gen\n"
	})

	properties.Property("reused compiler matches fresh compiler", prop.ForAll(
		func(warmup, src string) bool {
			reused := New(testWorld(t))
			_, _ = reused.CompileString("warmup", warmup, nil)
			got, gotErr := reused.CompileString("gen", src, nil)

			want, wantErr := New(testWorld(t)).CompileString("gen", src, nil)

			if (gotErr == nil) != (wantErr == nil) {
				return false
			}
			if wantErr != nil {
				return assert.ObjectsAreEqual(Diagnostics(wantErr), Diagnostics(gotErr))
			}
			return assert.ObjectsAreEqual(want, got)
		},
		source,
		source,
	))

	properties.TestingRun(t)
}
