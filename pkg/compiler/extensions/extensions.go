// Package extensions holds the registry of built-in instructions and functions
// that scripts can call by name.
//
// An argument signature is a string with one character per argument:
//
//	l, s, f  numeric expression (long, short, float)
//	S        string literal
//	c        object or record id (string literal or bare name), case-folded
//	/        all following arguments are optional
package extensions

import (
	"fmt"
	"sort"
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/locals"
)

// Kind distinguishes instructions (no result) from functions (push a result).
type Kind int

const (
	Instruction Kind = iota
	Function
)

// String returns "instruction" or "function".
func (k Kind) String() string {
	if k == Function {
		return "function"
	}
	return "instruction"
}

// Extension describes one callable built-in.
type Extension struct {
	Name     string
	Kind     Kind
	Args     string      // argument signature
	Returns  locals.Type // result type of a function, None for instructions
	Explicit bool        // may be called on an explicit reference (id->Name)
}

// Required returns the number of mandatory arguments.
func (e *Extension) Required() int {
	if i := strings.IndexByte(e.Args, '/'); i >= 0 {
		return i
	}
	return len(e.Args)
}

// Params returns the signature without the optional marker.
func (e *Extension) Params() string {
	return strings.ReplaceAll(e.Args, "/", "")
}

// IsNumericArg reports whether c denotes a numeric argument.
func IsNumericArg(c byte) bool {
	return c == 'l' || c == 's' || c == 'f'
}

// IsStringArg reports whether c denotes a string or id argument.
func IsStringArg(c byte) bool {
	return c == 'S' || c == 'c'
}

// Registry maps case-insensitive names to extensions.
type Registry struct {
	byName map[string]*Extension
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Extension)}
}

// RegisterInstruction adds an instruction.
func (r *Registry) RegisterInstruction(name, args string, explicit bool) error {
	return r.register(&Extension{
		Name:     name,
		Kind:     Instruction,
		Args:     args,
		Explicit: explicit,
	})
}

// RegisterFunction adds a function returning a value of type ret.
func (r *Registry) RegisterFunction(name string, ret locals.Type, args string, explicit bool) error {
	if !ret.IsValid() {
		return fmt.Errorf("function %s: invalid return type %q", name, byte(ret))
	}
	return r.register(&Extension{
		Name:     name,
		Kind:     Function,
		Args:     args,
		Returns:  ret,
		Explicit: explicit,
	})
}

func (r *Registry) register(e *Extension) error {
	if e.Name == "" {
		return fmt.Errorf("extension name must not be empty")
	}
	if err := validateSignature(e.Args); err != nil {
		return fmt.Errorf("extension %s: %w", e.Name, err)
	}
	key := strings.ToLower(e.Name)
	if _, exists := r.byName[key]; exists {
		return fmt.Errorf("extension %s registered more than once", e.Name)
	}
	r.byName[key] = e
	return nil
}

func validateSignature(args string) error {
	optional := false
	for i := 0; i < len(args); i++ {
		c := args[i]
		switch {
		case c == '/':
			if optional {
				return fmt.Errorf("signature %q: more than one optional marker", args)
			}
			optional = true
		case IsNumericArg(c), IsStringArg(c):
		default:
			return fmt.Errorf("signature %q: unknown argument type %q", args, c)
		}
	}
	return nil
}

// Lookup finds an extension by name.
func (r *Registry) Lookup(name string) (*Extension, bool) {
	e, ok := r.byName[strings.ToLower(name)]
	return e, ok
}

// Names returns all registered names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for _, e := range r.byName {
		names = append(names, e.Name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered extensions.
func (r *Registry) Len() int {
	return len(r.byName)
}
