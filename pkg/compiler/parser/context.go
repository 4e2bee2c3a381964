package parser

import (
	"github.com/zurustar/mwscript/pkg/compiler/extensions"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
)

// Context resolves the names a script can see beyond its own locals.
// The parsers only read from it.
type Context interface {
	// GlobalType returns the type of a global variable, or locals.None.
	GlobalType(name string) locals.Type

	// MemberType returns the type of local variable name of the script
	// attached to id, or locals.None.
	MemberType(name, id string) locals.Type

	// IsID reports whether name can be used as an explicit reference.
	IsID(name string) bool

	// Extensions returns the built-in instructions and functions.
	Extensions() *extensions.Registry

	// CanDeclareLocals reports whether short/long/float declarations are
	// allowed in the body.
	CanDeclareLocals() bool
}
