// Package world provides the name context scripts are compiled against:
// global variables, object ids, the locals of other scripts and the
// extension registry.
package world

import (
	"fmt"
	"strings"
	"sync"

	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/manifest"
)

// Context implements parser.Context. It is safe for concurrent use; the
// language server compiles while the batch compiler may register scripts.
type Context struct {
	mu sync.RWMutex

	ext       *extensions.Registry
	globals   map[string]locals.Type
	ids       map[string]bool           // registered object ids
	members   map[string]*locals.Locals // lowercase script name -> locals
	attached  map[string]string         // lowercase id -> lowercase script name
	noDeclare bool
}

// New creates an empty context using ext. A nil registry selects
// extensions.Default().
func New(ext *extensions.Registry) *Context {
	if ext == nil {
		ext = extensions.Default()
	}
	return &Context{
		ext:      ext,
		globals:  make(map[string]locals.Type),
		ids:      make(map[string]bool),
		members:  make(map[string]*locals.Locals),
		attached: make(map[string]string),
	}
}

// FromManifest creates a context holding the globals and object ids of m.
// Script records are not registered; they become visible once the scripts
// compile.
func FromManifest(m *manifest.Manifest, ext *extensions.Registry) (*Context, error) {
	c := New(ext)
	for _, g := range m.Globals {
		if err := c.DeclareGlobal(g.Name, g.Type); err != nil {
			return nil, err
		}
	}
	for _, id := range m.Objects {
		c.AddID(id)
	}
	return c, nil
}

// DeclareGlobal adds a global variable. Declaring an existing global with
// the same type is a no-op.
func (c *Context) DeclareGlobal(name string, t locals.Type) error {
	if !t.IsValid() {
		return fmt.Errorf("global %s: invalid type %s", name, t)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(name)
	if prev, ok := c.globals[key]; ok && prev != t {
		return fmt.Errorf("global %s redeclared as %s (was %s)", name, t, prev)
	}
	c.globals[key] = t
	return nil
}

// AddID registers an object id that may be used as an explicit reference.
func (c *Context) AddID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ids[strings.ToLower(id)] = true
}

// AddScriptLocals makes the locals of a compiled script visible as members
// (script.member). The script name also becomes a valid id. l is stored as
// given and must not be modified afterwards.
func (c *Context) AddScriptLocals(script string, l *locals.Locals) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.members[strings.ToLower(script)] = l
}

// AttachScript makes the members of script reachable through id
// (id.member), as for an object running that script.
func (c *Context) AttachScript(id, script string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := strings.ToLower(id)
	c.attached[key] = strings.ToLower(script)
	c.ids[key] = true
}

// SetCanDeclareLocals switches declarations in script bodies on or off.
func (c *Context) SetCanDeclareLocals(allow bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.noDeclare = !allow
}

// GlobalType returns the type of a global variable, or locals.None.
func (c *Context) GlobalType(name string) locals.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.globals[strings.ToLower(name)]
}

// MemberType returns the type of variable name in the script of id.
func (c *Context) MemberType(name, id string) locals.Type {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(id)
	if script, ok := c.attached[key]; ok {
		key = script
	}
	l, ok := c.members[key]
	if !ok {
		return locals.None
	}
	return l.Type(name)
}

// IsID reports whether name is a known object id or script name. With no
// object ids registered every name is accepted, since the object set is
// then unknown.
func (c *Context) IsID(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	key := strings.ToLower(name)
	if _, ok := c.members[key]; ok {
		return true
	}
	return len(c.ids) == 0 || c.ids[key]
}

// Extensions returns the extension registry.
func (c *Context) Extensions() *extensions.Registry {
	return c.ext
}

// CanDeclareLocals reports whether declarations are allowed in bodies.
func (c *Context) CanDeclareLocals() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.noDeclare
}
