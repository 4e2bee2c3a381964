package scanner

import (
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/token"
)

// recorder collects every token it receives until EOF or a configured
// stop condition.
type recorder struct {
	tokens []token.Token
	stopAt func(t token.Token) bool
	onName func(name string, s *Scanner)
}

func (r *recorder) add(t token.Token) bool {
	r.tokens = append(r.tokens, t)
	return r.stopAt == nil || !r.stopAt(t)
}

func (r *recorder) OnName(name string, loc token.Loc, s *Scanner) bool {
	if r.onName != nil {
		r.onName(name, s)
	}
	return r.add(token.Token{Kind: token.Name, Loc: loc, Text: name})
}

func (r *recorder) OnKeyword(kw token.KeywordCode, loc token.Loc, s *Scanner) bool {
	return r.add(token.Token{Kind: token.Keyword, Loc: loc, Keyword: kw})
}

func (r *recorder) OnSpecial(code token.SpecialCode, loc token.Loc, s *Scanner) bool {
	return r.add(token.Token{Kind: token.Special, Loc: loc, Special: code})
}

func (r *recorder) OnInt(v int32, loc token.Loc, s *Scanner) bool {
	return r.add(token.Token{Kind: token.Integer, Loc: loc, Int: v})
}

func (r *recorder) OnFloat(v float32, loc token.Loc, s *Scanner) bool {
	return r.add(token.Token{Kind: token.Float, Loc: loc, Float: v})
}

func (r *recorder) OnString(v string, loc token.Loc, s *Scanner) bool {
	return r.add(token.Token{Kind: token.String, Loc: loc, Text: v})
}

func (r *recorder) OnEOF(loc token.Loc, s *Scanner) {
	r.tokens = append(r.tokens, token.Token{Kind: token.EOF, Loc: loc})
}

func (r *recorder) strings() []string {
	out := make([]string, len(r.tokens))
	for i, t := range r.tokens {
		out[i] = t.String()
	}
	return out
}

func scanAll(t *testing.T, input string) (*recorder, *diag.Reporter) {
	t.Helper()
	rep := diag.NewReporter()
	rec := &recorder{}
	New(strings.NewReader(input), rep).Scan(rec)
	return rec, rep
}

func TestScan_TokenStream(t *testing.T) {
	input := "begin Foo ; comment\n" +
		"  set x to ( y + 2.5 ) * -3\n" +
		"if ( a >= 1 ) == b != c < d <= e > f\n" +
		"player->AddItem \"Gold_001\", 10\n" +
		"Bar.counter / 2\n" +
		"END Foo"

	rec, rep := scanAll(t, input)
	require.True(t, rep.IsGood(), "diagnostics: %v", rep.Diagnostics())

	want := []string{
		"keyword(begin)", "name(Foo)", "special(newline)",
		"keyword(set)", "name(x)", "keyword(to)", "special(()", "name(y)", "special(+)", "float(2.5)",
		"special())", "special(*)", "special(-)", "integer(3)", "special(newline)",
		"keyword(if)", "special(()", "name(a)", "special(>=)", "integer(1)", "special())",
		"special(==)", "name(b)", "special(!=)", "name(c)", "special(<)", "name(d)",
		"special(<=)", "name(e)", "special(>)", "name(f)", "special(newline)",
		"name(player)", "special(->)", "name(AddItem)", "string(Gold_001)", "special(,)", "integer(10)",
		"special(newline)",
		"name(Bar)", "special(.)", "name(counter)", "special(/)", "integer(2)", "special(newline)",
		"keyword(end)", "name(Foo)", "end of file",
	}
	assert.Equal(t, want, rec.strings())
}

func TestScan_Locations(t *testing.T) {
	rec, _ := scanAll(t, "begin Foo\n  set x to 1\n")

	tests := []struct {
		index   int
		line    int
		column  int
		literal string
	}{
		{0, 1, 1, "begin"},
		{1, 1, 7, "Foo"},
		{2, 1, 10, "\n"},
		{3, 2, 3, "set"},
		{6, 2, 12, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.literal, func(t *testing.T) {
			loc := rec.tokens[tt.index].Loc
			assert.Equal(t, tt.line, loc.Line)
			assert.Equal(t, tt.column, loc.Column)
			assert.Equal(t, tt.literal, loc.Literal)
		})
	}
}

func TestScan_KeywordsKeepSpelling(t *testing.T) {
	rec, _ := scanAll(t, "BeGiN")
	require.Len(t, rec.tokens, 2)
	assert.Equal(t, token.Keyword, rec.tokens[0].Kind)
	assert.Equal(t, token.KwBegin, rec.tokens[0].Keyword)
	assert.Equal(t, "BeGiN", rec.tokens[0].Loc.Literal)
}

func TestScan_LexicalErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		message string
		literal string
	}{
		{"digit leading name", "set x to 1abc", "invalid number", "1abc"},
		{"bad float", "2.5x", "invalid number", "2.5x"},
		{"int overflow", "99999999999", "number out of range", "99999999999"},
		{"unterminated string", "messagebox \"hello\n", "unterminated string", "\"hello"},
		{"lone equals", "x = 1", "unexpected character", "="},
		{"lone bang", "!x", "unexpected character", "!"},
		{"unknown character", "x @ y", "unexpected character", "@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, rep := scanAll(t, tt.input)

			require.Equal(t, 1, rep.ErrorCount())
			d := rep.Diagnostics()[0]
			assert.Equal(t, tt.message, d.Message)
			assert.Equal(t, tt.literal, d.Loc.Literal)

			for _, tok := range rec.tokens {
				assert.NotEqual(t, token.EOF, tok.Kind, "scanning must stop at a lexical error")
			}
		})
	}
}

func TestScan_NameStartingWithDigit(t *testing.T) {
	rep := diag.NewReporter()
	s := New(strings.NewReader("begin 1stDoor 2ndDoor"), rep)

	rec := &recorder{}
	rec.stopAt = func(tok token.Token) bool {
		if tok.Kind == token.Keyword && tok.Keyword == token.KwBegin {
			s.AllowNameStartingWithDigit()
		}
		return false
	}
	s.Scan(rec)

	// The mode covers one token only: "2ndDoor" is an error again.
	require.Len(t, rec.tokens, 2)
	assert.Equal(t, "name(1stDoor)", rec.tokens[1].String())
	assert.Equal(t, 1, rep.ErrorCount())
	assert.Equal(t, "2ndDoor", rep.Diagnostics()[0].Loc.Literal)
}

func TestScan_DigitModeKeepsPlainNumbers(t *testing.T) {
	rep := diag.NewReporter()
	s := New(strings.NewReader("42"), rep)
	s.AllowNameStartingWithDigit()

	rec := &recorder{}
	s.Scan(rec)
	assert.Equal(t, []string{"integer(42)", "end of file"}, rec.strings())
}

func TestScan_ReturnsWhenParserIsDone(t *testing.T) {
	rep := diag.NewReporter()
	s := New(strings.NewReader("a b\nc"), rep)

	first := &recorder{stopAt: func(tok token.Token) bool {
		return tok.Kind == token.Special && tok.Special == token.SpNewline
	}}
	s.Scan(first)
	assert.Equal(t, []string{"name(a)", "name(b)", "special(newline)"}, first.strings())

	second := &recorder{}
	s.Scan(second)
	assert.Equal(t, []string{"name(c)", "end of file"}, second.strings())

	// EOF repeats.
	third := &recorder{}
	s.Scan(third)
	assert.Equal(t, []string{"end of file"}, third.strings())
}

func TestScan_PutBack(t *testing.T) {
	rep := diag.NewReporter()
	s := New(strings.NewReader("a b"), rep)

	inner := &recorder{stopAt: func(tok token.Token) bool { return true }}
	outer := &recorder{}
	outer.onName = func(name string, s *Scanner) {
		if name == "a" {
			s.Scan(inner)
		}
	}
	inner.onName = func(name string, s *Scanner) {
		if name == "b" {
			s.PutBackName("again", token.Loc{Line: 1, Column: 3})
		}
	}
	s.Scan(outer)

	assert.Equal(t, []string{"name(b)"}, inner.strings())
	assert.Equal(t, []string{"name(a)", "name(again)", "end of file"}, outer.strings())
}

func TestScan_PutBackTwicePanics(t *testing.T) {
	s := New(strings.NewReader(""), diag.NewReporter())
	s.PutBackInt(1, token.Loc{})
	assert.Panics(t, func() { s.PutBackFloat(2, token.Loc{}) })
}

func TestScan_Stop(t *testing.T) {
	rep := diag.NewReporter()
	s := New(strings.NewReader("a b c"), rep)

	rec := &recorder{}
	rec.onName = func(name string, s *Scanner) {
		if name == "b" {
			s.Stop()
		}
	}
	s.Scan(rec)

	assert.True(t, s.Stopped())
	assert.Equal(t, []string{"name(a)", "name(b)"}, rec.strings())
}

// TestProperty_TokenRoundTrip renders random token sequences as text and
// checks that scanning the text yields the same tokens.
func TestProperty_TokenRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	nameGen := gen.Identifier().SuchThat(func(s string) bool {
		_, isKeyword := token.LookupKeyword(s)
		return !isKeyword
	})
	intGen := gen.Int32Range(0, 1<<30).Map(func(v int32) string { return fmt.Sprintf("%d", v) })
	specialGen := gen.OneConstOf("(", ")", "+", "-", "*", "/", ",", "==", "!=", "<", "<=", ">", ">=", "->", ".", "\n")
	keywordGen := gen.OneConstOf("begin", "END", "If", "while", "set", "to", "messagebox")
	stringGen := gen.AlphaString().Map(func(s string) string { return `"` + s + `"` })

	lexemeGen := gen.OneGenOf(nameGen, intGen, specialGen, keywordGen, stringGen)

	properties.Property("scanned literals match rendered lexemes", prop.ForAll(
		func(lexemes []string) bool {
			rep := diag.NewReporter()
			rec := &recorder{}
			New(strings.NewReader(strings.Join(lexemes, " ")), rep).Scan(rec)

			if !rep.IsGood() || len(rec.tokens) != len(lexemes)+1 {
				return false
			}
			for i, lexeme := range lexemes {
				if rec.tokens[i].Loc.Literal != lexeme {
					return false
				}
			}
			return rec.tokens[len(lexemes)].Kind == token.EOF
		},
		gen.SliceOf(lexemeGen),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
