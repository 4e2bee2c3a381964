// Package token defines the lexical units passed from the scanner to the parsers.
package token

import (
	"fmt"
	"strings"
)

// Kind identifies which member of the token union is populated.
type Kind int

// Token kinds
const (
	Name Kind = iota
	Keyword
	Special
	Integer
	Float
	String
	EOF
)

var kindNames = map[Kind]string{
	Name:    "name",
	Keyword: "keyword",
	Special: "special",
	Integer: "integer",
	Float:   "float",
	String:  "string",
	EOF:     "end of file",
}

// String returns a string representation of the token kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Loc is the source location of a token. It is only used for diagnostics.
type Loc struct {
	Line    int    // 1-indexed line
	Column  int    // 1-indexed column of the first character
	Literal string // raw source text of the token
}

// String formats the location as "line L, column C".
func (l Loc) String() string {
	return fmt.Sprintf("line %d, column %d", l.Line, l.Column)
}

// KeywordCode enumerates the reserved words of the scripting language.
// Keywords are recognized by the scanner but interpreted by the parsers;
// a keyword may still be used as a script name.
type KeywordCode int

// Keywords
const (
	KwBegin KeywordCode = iota
	KwEnd
	KwShort
	KwLong
	KwFloat
	KwIf
	KwElseIf
	KwElse
	KwEndIf
	KwWhile
	KwEndWhile
	KwReturn
	KwSet
	KwTo
	KwMessageBox
)

var keywordNames = map[KeywordCode]string{
	KwBegin:      "begin",
	KwEnd:        "end",
	KwShort:      "short",
	KwLong:       "long",
	KwFloat:      "float",
	KwIf:         "if",
	KwElseIf:     "elseif",
	KwElse:       "else",
	KwEndIf:      "endif",
	KwWhile:      "while",
	KwEndWhile:   "endwhile",
	KwReturn:     "return",
	KwSet:        "set",
	KwTo:         "to",
	KwMessageBox: "messagebox",
}

// keywords maps lowercase spellings to their code.
var keywords = func() map[string]KeywordCode {
	m := make(map[string]KeywordCode, len(keywordNames))
	for code, name := range keywordNames {
		m[name] = code
	}
	return m
}()

// String returns the canonical (lowercase) spelling of the keyword.
func (k KeywordCode) String() string {
	if name, ok := keywordNames[k]; ok {
		return name
	}
	return "unknown keyword"
}

// LookupKeyword reports whether ident is a keyword. The lookup is
// case-insensitive (Begin, BEGIN and begin all map to KwBegin).
func LookupKeyword(ident string) (KeywordCode, bool) {
	code, ok := keywords[strings.ToLower(ident)]
	return code, ok
}

// SpecialCode enumerates punctuation and operators, including the newline
// that terminates a logical line.
type SpecialCode int

// Specials
const (
	SpNewline SpecialCode = iota
	SpOpen                // (
	SpClose               // )
	SpPlus                // +
	SpMinus               // -
	SpMult                // *
	SpDiv                 // /
	SpComma               // ,
	SpCmpEQ               // ==
	SpCmpNE               // !=
	SpCmpLT               // <
	SpCmpLE               // <=
	SpCmpGT               // >
	SpCmpGE               // >=
	SpRef                 // ->
	SpMember              // .
)

var specialNames = map[SpecialCode]string{
	SpNewline: "newline",
	SpOpen:    "(",
	SpClose:   ")",
	SpPlus:    "+",
	SpMinus:   "-",
	SpMult:    "*",
	SpDiv:     "/",
	SpComma:   ",",
	SpCmpEQ:   "==",
	SpCmpNE:   "!=",
	SpCmpLT:   "<",
	SpCmpLE:   "<=",
	SpCmpGT:   ">",
	SpCmpGE:   ">=",
	SpRef:     "->",
	SpMember:  ".",
}

// String returns the source spelling of the special.
func (s SpecialCode) String() string {
	if name, ok := specialNames[s]; ok {
		return name
	}
	return "unknown special"
}

// IsComparison reports whether the special is a comparison operator.
func (s SpecialCode) IsComparison() bool {
	return s >= SpCmpEQ && s <= SpCmpGE
}

// Token is a tagged union over the token kinds. Only the payload field
// matching Kind is meaningful. Tokens are immutable once produced.
type Token struct {
	Kind    Kind
	Loc     Loc
	Text    string      // Name and String payload (strings without quotes)
	Keyword KeywordCode // Keyword payload
	Special SpecialCode // Special payload
	Int     int32       // Integer payload
	Float   float32     // Float payload
}

// String returns a debug representation of the token.
func (t Token) String() string {
	switch t.Kind {
	case Name, String:
		return fmt.Sprintf("%s(%s)", t.Kind, t.Text)
	case Keyword:
		return fmt.Sprintf("keyword(%s)", t.Keyword)
	case Special:
		return fmt.Sprintf("special(%s)", t.Special)
	case Integer:
		return fmt.Sprintf("integer(%d)", t.Int)
	case Float:
		return fmt.Sprintf("float(%g)", t.Float)
	default:
		return t.Kind.String()
	}
}
