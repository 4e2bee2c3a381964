// Package locals implements the per-script local variable table.
//
// Every script owns one table mapping a variable name to its declared type and
// its slot. Slots are assigned per type: the first short is slot 0 of the
// shorts, the first float is slot 0 of the floats, and so on, which is the
// layout the runtime uses for a script instance's storage.
package locals

import (
	"fmt"
	"strings"
)

// Type is the declared type of a variable.
type Type byte

// Variable types. None marks an unknown name.
const (
	None  Type = 0
	Short Type = 's'
	Long  Type = 'l'
	Float Type = 'f'
)

// String returns the keyword spelling of the type.
func (t Type) String() string {
	switch t {
	case Short:
		return "short"
	case Long:
		return "long"
	case Float:
		return "float"
	default:
		return "none"
	}
}

// IsValid reports whether t is one of Short, Long or Float.
func (t Type) IsValid() bool {
	return t == Short || t == Long || t == Float
}

// ParseType converts "short", "long" or "float" (any case) to a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "short":
		return Short, nil
	case "long":
		return Long, nil
	case "float":
		return Float, nil
	}
	return None, fmt.Errorf("invalid variable type: %s", s)
}

// Declaration is one entry of a script's declaration record.
type Declaration struct {
	Name string
	Type Type
}

// Locals is the variable table of a single script. It is not safe for
// concurrent use.
type Locals struct {
	shorts []string
	longs  []string
	floats []string
	index  map[string]Type // lowercase name -> type
}

// New creates an empty table.
func New() *Locals {
	return &Locals{index: make(map[string]Type)}
}

// Configure builds the table from an ordered declaration record.
// The table is expected to be empty; a script is configured once.
func (l *Locals) Configure(decls []Declaration) error {
	for _, d := range decls {
		if !d.Type.IsValid() {
			return fmt.Errorf("variable %s: invalid type %q", d.Name, byte(d.Type))
		}
		if _, exists := l.index[strings.ToLower(d.Name)]; exists {
			return fmt.Errorf("variable %s declared more than once", d.Name)
		}
		l.add(d.Type, d.Name)
	}
	return nil
}

// Declare adds a variable declared in the script body and returns its slot.
// Declaring a name that already exists with the same type returns the
// existing slot; a different type is an error.
func (l *Locals) Declare(t Type, name string) (int, error) {
	if !t.IsValid() {
		return -1, fmt.Errorf("variable %s: invalid type %q", name, byte(t))
	}
	if existing, ok := l.index[strings.ToLower(name)]; ok {
		if existing != t {
			return -1, fmt.Errorf("variable %s redeclared as %s (was %s)", name, t, existing)
		}
		return l.Index(name), nil
	}
	return l.add(t, name), nil
}

func (l *Locals) add(t Type, name string) int {
	list := l.list(t)
	*list = append(*list, name)
	l.index[strings.ToLower(name)] = t
	return len(*list) - 1
}

func (l *Locals) list(t Type) *[]string {
	switch t {
	case Short:
		return &l.shorts
	case Long:
		return &l.longs
	case Float:
		return &l.floats
	}
	panic(fmt.Sprintf("locals: unknown type %q", byte(t)))
}

// Lookup resolves a name to its type and slot. ok is false when the name is
// not a local of this script and the caller should try the next scope.
func (l *Locals) Lookup(name string) (t Type, slot int, ok bool) {
	t, ok = l.index[strings.ToLower(name)]
	if !ok {
		return None, -1, false
	}
	return t, l.Index(name), true
}

// Type returns the type of name, or None.
func (l *Locals) Type(name string) Type {
	return l.index[strings.ToLower(name)]
}

// Index returns the slot of name within its type, or -1.
func (l *Locals) Index(name string) int {
	t, ok := l.index[strings.ToLower(name)]
	if !ok {
		return -1
	}
	for i, n := range *l.list(t) {
		if strings.EqualFold(n, name) {
			return i
		}
	}
	return -1
}

// Names returns the declared names of type t in slot order.
func (l *Locals) Names(t Type) []string {
	if !t.IsValid() {
		return nil
	}
	list := *l.list(t)
	out := make([]string, len(list))
	copy(out, list)
	return out
}

// Len returns the total number of variables.
func (l *Locals) Len() int {
	return len(l.index)
}

// Declarations returns the table as a record: shorts, then longs, then floats,
// each in slot order. Configuring a new table with the result yields the
// same slots.
func (l *Locals) Declarations() []Declaration {
	decls := make([]Declaration, 0, l.Len())
	for _, t := range []Type{Short, Long, Float} {
		for _, name := range *l.list(t) {
			decls = append(decls, Declaration{Name: name, Type: t})
		}
	}
	return decls
}

// Clone returns an independent copy of the table.
func (l *Locals) Clone() *Locals {
	c := New()
	c.shorts = append([]string(nil), l.shorts...)
	c.longs = append([]string(nil), l.longs...)
	c.floats = append([]string(nil), l.floats...)
	for k, v := range l.index {
		c.index[k] = v
	}
	return c
}

// Clear empties the table in place.
func (l *Locals) Clear() {
	l.shorts = l.shorts[:0]
	l.longs = l.longs[:0]
	l.floats = l.floats[:0]
	clear(l.index)
}
