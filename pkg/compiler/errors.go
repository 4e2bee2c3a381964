package compiler

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
)

// CompileError reports a script that was abandoned. It carries every
// diagnostic of that compile, warnings included, in report order.
type CompileError struct {
	// Script is the name the script was compiled under.
	Script string

	// Diagnostics are the problems reported for the script.
	Diagnostics []diag.Diagnostic

	// Source is the text read before compilation stopped. It is used for
	// the excerpt under the first error and may be empty.
	Source string
}

// Error implements the error interface.
// It returns the first error with its location and a source excerpt.
func (e *CompileError) Error() string {
	first, ok := e.FirstError()
	if !ok {
		return fmt.Sprintf("%s: compilation failed", e.Script)
	}

	msg := first.Error()
	if n := e.ErrorCount(); n > 1 {
		msg += fmt.Sprintf(" (and %d more errors)", n-1)
	}
	if context := diag.GenerateErrorContext(e.Source, first.Loc.Line, first.Loc.Column); context != "" {
		msg += "\n" + strings.TrimRight(context, "\n")
	}
	return msg
}

// FirstError returns the first error-severity diagnostic.
func (e *CompileError) FirstError() (diag.Diagnostic, bool) {
	for _, d := range e.Diagnostics {
		if d.Severity == diag.SeverityError {
			return d, true
		}
	}
	return diag.Diagnostic{}, false
}

// ErrorCount returns the number of error-severity diagnostics.
func (e *CompileError) ErrorCount() int {
	n := 0
	for _, d := range e.Diagnostics {
		if d.Severity == diag.SeverityError {
			n++
		}
	}
	return n
}

// IsCompileError reports whether err is or wraps a *CompileError.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}

// Diagnostics returns the diagnostics carried by err if it is or wraps a
// *CompileError.
func Diagnostics(err error) []diag.Diagnostic {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Diagnostics
	}
	return nil
}
