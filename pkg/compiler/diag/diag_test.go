package diag

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/mwscript/pkg/compiler/token"
)

func TestReporter_CountsAndIsGood(t *testing.T) {
	r := NewReporter()
	r.SetContext("Foo")

	r.Warning("first", token.Loc{Line: 1, Column: 1})
	assert.True(t, r.IsGood(), "warnings must not affect IsGood")
	assert.Equal(t, 1, r.WarningCount())

	r.Error("broken", token.Loc{Line: 2, Column: 3, Literal: "x"})
	assert.False(t, r.IsGood())
	assert.Equal(t, 1, r.ErrorCount())

	diags := r.Diagnostics()
	require.Len(t, diags, 2)
	assert.Equal(t, SeverityWarning, diags[0].Severity)
	assert.Equal(t, "Foo", diags[1].Script)
	assert.Equal(t, "broken", diags[1].Message)

	r.Reset()
	assert.True(t, r.IsGood())
	assert.Zero(t, r.WarningCount())
	assert.Empty(t, r.Diagnostics())
}

func TestReporter_WarningsMode(t *testing.T) {
	tests := []struct {
		name         string
		mode         WarningsMode
		wantWarnings int
		wantErrors   int
	}{
		{"ignore", WarningsIgnore, 0, 0},
		{"normal", WarningsNormal, 1, 0},
		{"as errors", WarningsAsErrors, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReporter()
			r.SetWarningsMode(tt.mode)
			r.Warning("careful", token.Loc{Line: 1, Column: 1})

			assert.Equal(t, tt.wantWarnings, r.WarningCount())
			assert.Equal(t, tt.wantErrors, r.ErrorCount())
		})
	}
}

func TestReporter_Sinks(t *testing.T) {
	var got []Diagnostic
	r := NewReporter(SinkFunc(func(d Diagnostic) { got = append(got, d) }))
	r.Error("one", token.Loc{Line: 1})

	var more []Diagnostic
	r.AddSink(SinkFunc(func(d Diagnostic) { more = append(more, d) }))
	r.Warning("two", token.Loc{Line: 2})

	assert.Len(t, got, 2)
	assert.Len(t, more, 1)
}

func TestParseWarningsMode(t *testing.T) {
	for _, s := range []string{"ignore", "normal", "error", "ERROR"} {
		mode, err := ParseWarningsMode(s)
		require.NoError(t, err)
		assert.Equal(t, strings.ToLower(s), mode.String())
	}

	_, err := ParseWarningsMode("loud")
	assert.Error(t, err)
}

func TestDiagnostic_Error(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Script:   "Foo",
		Message:  "Stray string (extra) after begin statement",
		Loc:      token.Loc{Line: 1, Column: 11, Literal: "extra"},
	}
	assert.Equal(t, "Foo: warning at line 1, column 11 (extra): Stray string (extra) after begin statement", d.Error())

	d = Diagnostic{Severity: SeverityError, Message: "script not terminated", Loc: token.Loc{Line: 3, Column: 1}}
	assert.Equal(t, "error at line 3, column 1: script not terminated", d.Error())
}

func TestStreamSink_Report(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	sink := NewStreamSink(&buf)
	sink.SetSource("Foo", "begin Foo\nset x to\nend Foo\n")

	sink.Report(Diagnostic{
		Severity: SeverityError,
		Script:   "Foo",
		Message:  "missing operand",
		Loc:      token.Loc{Line: 2, Column: 9, Literal: "\n"},
	})

	out := buf.String()
	assert.Contains(t, out, "Foo: error: line 2, column 9: missing operand")
	assert.Contains(t, out, "> 2 | set x to")
	assert.Contains(t, out, "^")
}

func TestSlogSink_Report(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sink := NewSlogSink(log)

	sink.Report(Diagnostic{Severity: SeverityWarning, Script: "Foo", Message: "careful", Loc: token.Loc{Line: 4, Column: 2}})
	sink.Report(Diagnostic{Severity: SeverityError, Script: "Foo", Message: "broken", Loc: token.Loc{Line: 5, Column: 1}})

	out := buf.String()
	assert.Equal(t, 2, strings.Count(out, "level=DEBUG"))
	assert.Contains(t, out, "severity=warning")
	assert.Contains(t, out, "severity=error")
	assert.Contains(t, out, "script=Foo")
	assert.Contains(t, out, "line=5")
}

func TestSlogSink_SilentAboveDebug(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	NewSlogSink(log).Report(Diagnostic{Severity: SeverityError, Message: "broken"})
	assert.Empty(t, buf.String())
}

func TestGenerateErrorContext(t *testing.T) {
	source := "line1\nline2\nline3\nline4\nline5\nline6"

	ctx := GenerateErrorContext(source, 4, 3)
	assert.Contains(t, ctx, "  2 | line2")
	assert.Contains(t, ctx, "> 4 | line4")
	assert.Contains(t, ctx, "  6 | line6")
	assert.NotContains(t, ctx, "line1")
	assert.Contains(t, ctx, "> 4 | line4\n    |   ^\n")

	assert.Empty(t, GenerateErrorContext("", 1, 1))
	assert.Empty(t, GenerateErrorContext(source, 0, 1))
	assert.Empty(t, GenerateErrorContext(source, 99, 1))
}
