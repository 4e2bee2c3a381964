// Package manifest reads declaration manifests: the globals, object ids and
// per-script local records a compile run resolves names against.
//
//	; comment
//	global short DoorState
//	object player
//	object "Door Open Sound"
//	script TestScript
//	    short counter
//	    float speed
//	end
//
// Keywords are case-insensitive.
package manifest

import (
	"fmt"
	"io/fs"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/zurustar/mwscript/pkg/compiler/locals"
)

var parser = buildParser()

func buildParser() *participle.Parser[file] {
	p, err := participle.Build[file](
		participle.Lexer(manifestLexer),
		participle.Elide("Whitespace", "Comment"),
		participle.CaseInsensitive("Ident"),
		participle.Map(unquote, "String"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to build manifest parser: %w", err))
	}
	return p
}

// unquote strips the quotes without interpreting backslashes, which are
// common in record ids and file names.
func unquote(t lexer.Token) (lexer.Token, error) {
	t.Value = t.Value[1 : len(t.Value)-1]
	return t, nil
}

// Manifest is the resolved content of a manifest file.
type Manifest struct {
	Globals []locals.Declaration
	Objects []string

	scripts map[string][]locals.Declaration // lowercase name -> record
	names   []string                        // script names in file order
}

// Parse parses manifest source. name is used in error positions.
func Parse(name, src string) (*Manifest, error) {
	tree, err := parser.ParseString(name, src)
	if err != nil {
		return nil, err
	}

	m := &Manifest{scripts: make(map[string][]locals.Declaration)}
	globals := make(map[string]locals.Type)

	for _, e := range tree.Entries {
		switch {
		case e.Global != nil:
			t, err := locals.ParseType(e.Global.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", e.Global.Pos, err)
			}
			key := strings.ToLower(e.Global.Name)
			if prev, ok := globals[key]; ok {
				if prev != t {
					return nil, fmt.Errorf("%s: global %s redeclared as %s (was %s)", e.Global.Pos, e.Global.Name, t, prev)
				}
				continue
			}
			globals[key] = t
			m.Globals = append(m.Globals, locals.Declaration{Name: e.Global.Name, Type: t})

		case e.Object != nil:
			m.Objects = append(m.Objects, e.Object.ID)

		case e.Script != nil:
			if err := m.addScript(e.Script); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Manifest) addScript(s *scriptDecl) error {
	key := strings.ToLower(s.Name)
	if _, ok := m.scripts[key]; ok {
		return fmt.Errorf("%s: script %s declared twice", s.Pos, s.Name)
	}

	// A record is checked the way the compiler configures it, one entry at
	// a time so the error carries the entry position.
	table := locals.New()
	for _, d := range s.Locals {
		t, err := locals.ParseType(d.Type)
		if err != nil {
			return fmt.Errorf("%s: %w", d.Pos, err)
		}
		if err := table.Configure([]locals.Declaration{{Name: d.Name, Type: t}}); err != nil {
			return fmt.Errorf("%s: %w", d.Pos, err)
		}
	}

	m.scripts[key] = table.Declarations()
	m.names = append(m.names, s.Name)
	return nil
}

// Load reads and parses a manifest from fsys.
func Load(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return Parse(name, string(data))
}

// Declarations returns the declaration record of a script, or nil when the
// manifest does not describe it. The lookup is case-insensitive.
func (m *Manifest) Declarations(script string) []locals.Declaration {
	if m == nil {
		return nil
	}
	return m.scripts[strings.ToLower(script)]
}

// Scripts returns the names of the described scripts in file order.
func (m *Manifest) Scripts() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}
