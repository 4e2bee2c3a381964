package manifest

import (
	"github.com/alecthomas/participle/v2/lexer"
)

var manifestLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `;[^\n]*`},
	{Name: "String", Pattern: `"[^"\n]*"`},
	{Name: "Ident", Pattern: `[A-Za-z0-9_]+`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

// file is the parse tree of a manifest.
type file struct {
	Entries []*entry `@@*`
}

type entry struct {
	Pos    lexer.Position
	Global *globalDecl `  @@`
	Object *objectDecl `| @@`
	Script *scriptDecl `| @@`
}

type globalDecl struct {
	Pos  lexer.Position
	Type string `"global" @("short" | "long" | "float")`
	Name string `@Ident`
}

type objectDecl struct {
	Pos lexer.Position
	ID  string `"object" ( @Ident | @String )`
}

type scriptDecl struct {
	Pos    lexer.Position
	Name   string       `"script" ( @Ident | @String )`
	Locals []*localDecl `@@* "end"`
}

type localDecl struct {
	Pos  lexer.Position
	Type string `@("short" | "long" | "float")`
	Name string `@Ident`
}
