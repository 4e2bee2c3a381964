// Package diag implements the error-reporting discipline of the script compiler.
//
// Parsers never decide on their own whether a problem is fatal for the batch;
// they report warnings and errors to a Handler and the caller inspects the
// Reporter afterwards. A warning leaves the compiled script usable, an error
// abandons the current script only.
package diag

import (
	"fmt"
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/token"
)

// Handler is the sink the scanner and parsers report to.
type Handler interface {
	Warning(message string, loc token.Loc)
	Error(message string, loc token.Loc)
}

// Severity of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String returns "warning" or "error".
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a single reported problem.
type Diagnostic struct {
	Severity Severity
	Script   string // name of the script being compiled, if known
	Message  string
	Loc      token.Loc
}

// Error implements the error interface.
func (d Diagnostic) Error() string {
	var buf strings.Builder
	if d.Script != "" {
		buf.WriteString(d.Script)
		buf.WriteString(": ")
	}
	fmt.Fprintf(&buf, "%s at %s", d.Severity, d.Loc)
	if d.Loc.Literal != "" && d.Loc.Literal != "\n" {
		fmt.Fprintf(&buf, " (%s)", d.Loc.Literal)
	}
	buf.WriteString(": ")
	buf.WriteString(d.Message)
	return buf.String()
}

// WarningsMode controls how warnings are treated.
type WarningsMode int

const (
	// WarningsIgnore drops warnings silently.
	WarningsIgnore WarningsMode = iota
	// WarningsNormal reports warnings; they do not affect IsGood.
	WarningsNormal
	// WarningsAsErrors reports warnings as errors.
	WarningsAsErrors
)

var warningsModeNames = map[string]WarningsMode{
	"ignore": WarningsIgnore,
	"normal": WarningsNormal,
	"error":  WarningsAsErrors,
}

// ParseWarningsMode converts "ignore", "normal" or "error" to a WarningsMode.
func ParseWarningsMode(s string) (WarningsMode, error) {
	if mode, ok := warningsModeNames[strings.ToLower(s)]; ok {
		return mode, nil
	}
	return WarningsNormal, fmt.Errorf("invalid warnings mode: %s (must be ignore, normal, or error)", s)
}

// String returns the flag spelling of the mode.
func (m WarningsMode) String() string {
	for name, mode := range warningsModeNames {
		if mode == m {
			return name
		}
	}
	return "unknown"
}

// Sink receives every diagnostic accepted by a Reporter.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(d Diagnostic)

// Report calls f(d).
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Reporter is the standard Handler. It counts warnings and errors for the
// script currently being compiled, keeps the diagnostics for later
// inspection and forwards them to any number of sinks.
//
// A Reporter is reused across the scripts of a batch: call Reset and
// SetContext before each compile.
type Reporter struct {
	mode        WarningsMode
	script      string
	warnings    int
	errors      int
	diagnostics []Diagnostic
	sinks       []Sink
}

// NewReporter creates a Reporter in WarningsNormal mode.
func NewReporter(sinks ...Sink) *Reporter {
	return &Reporter{
		mode:  WarningsNormal,
		sinks: sinks,
	}
}

// Warning reports a non-fatal problem.
func (r *Reporter) Warning(message string, loc token.Loc) {
	switch r.mode {
	case WarningsIgnore:
		return
	case WarningsAsErrors:
		r.report(SeverityError, message, loc)
	default:
		r.report(SeverityWarning, message, loc)
	}
}

// Error reports a problem that abandons the current script.
func (r *Reporter) Error(message string, loc token.Loc) {
	r.report(SeverityError, message, loc)
}

func (r *Reporter) report(severity Severity, message string, loc token.Loc) {
	if severity == SeverityError {
		r.errors++
	} else {
		r.warnings++
	}

	d := Diagnostic{
		Severity: severity,
		Script:   r.script,
		Message:  message,
		Loc:      loc,
	}
	r.diagnostics = append(r.diagnostics, d)

	for _, s := range r.sinks {
		s.Report(d)
	}
}

// IsGood reports whether no error has been reported since the last Reset.
func (r *Reporter) IsGood() bool {
	return r.errors == 0
}

// Reset clears counters and collected diagnostics.
func (r *Reporter) Reset() {
	r.warnings = 0
	r.errors = 0
	r.diagnostics = nil
}

// SetContext sets the script name attached to subsequent diagnostics.
func (r *Reporter) SetContext(script string) {
	r.script = script
}

// SetWarningsMode changes how warnings are treated.
func (r *Reporter) SetWarningsMode(mode WarningsMode) {
	r.mode = mode
}

// AddSink registers an additional sink.
func (r *Reporter) AddSink(s Sink) {
	r.sinks = append(r.sinks, s)
}

// WarningCount returns the number of warnings since the last Reset.
func (r *Reporter) WarningCount() int {
	return r.warnings
}

// ErrorCount returns the number of errors since the last Reset.
func (r *Reporter) ErrorCount() int {
	return r.errors
}

// Diagnostics returns a copy of the diagnostics collected since the last Reset.
func (r *Reporter) Diagnostics() []Diagnostic {
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}
