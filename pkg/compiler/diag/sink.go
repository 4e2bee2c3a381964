package diag

import (
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

// StreamSink writes human readable diagnostics to a writer. When the source of
// a script is registered with SetSource, an excerpt around the location is
// printed below the message.
type StreamSink struct {
	w       io.Writer
	sources map[string]string

	warnLabel func(a ...any) string
	errLabel  func(a ...any) string
	dim       func(a ...any) string
}

// NewStreamSink creates a StreamSink writing to w. Colour output follows
// fatih/color's terminal detection and color.NoColor.
func NewStreamSink(w io.Writer) *StreamSink {
	return &StreamSink{
		w:         w,
		sources:   make(map[string]string),
		warnLabel: color.New(color.FgYellow, color.Bold).SprintFunc(),
		errLabel:  color.New(color.FgRed, color.Bold).SprintFunc(),
		dim:       color.New(color.Faint).SprintFunc(),
	}
}

// SetSource registers the source text of a script for excerpts.
func (s *StreamSink) SetSource(script, source string) {
	s.sources[script] = source
}

// Report implements Sink.
func (s *StreamSink) Report(d Diagnostic) {
	label := s.warnLabel(d.Severity.String())
	if d.Severity == SeverityError {
		label = s.errLabel(d.Severity.String())
	}

	prefix := ""
	if d.Script != "" {
		prefix = d.Script + ": "
	}
	literal := ""
	if d.Loc.Literal != "" && d.Loc.Literal != "\n" {
		literal = " " + s.dim("("+d.Loc.Literal+")")
	}
	fmt.Fprintf(s.w, "%s%s: %s%s: %s\n", prefix, label, d.Loc, literal, d.Message)

	if source, ok := s.sources[d.Script]; ok {
		fmt.Fprint(s.w, GenerateErrorContext(source, d.Loc.Line, d.Loc.Column))
	}
}

// GenerateErrorContext renders the lines around line (1-based) of source
// with a gutter of line numbers. The reported line is marked with '>' and
// followed by a caret under column. At most two lines are shown on each
// side. An out-of-range line yields "".
//
//	  2 | short x
//	  3 | set x to 5
//	> 4 | set y to
//	    |         ^
//	  5 | end
func GenerateErrorContext(source string, line, column int) string {
	if source == "" || line <= 0 {
		return ""
	}
	rows := strings.Split(source, "\n")
	if line > len(rows) {
		return ""
	}

	first := max(line-2, 1)
	last := min(line+2, len(rows))
	gutter := len(strconv.Itoa(last))

	var buf strings.Builder
	for n := first; n <= last; n++ {
		text := strings.TrimRight(rows[n-1], "\r")
		if n != line {
			fmt.Fprintf(&buf, "  %*d | %s\n", gutter, n, text)
			continue
		}
		fmt.Fprintf(&buf, "> %*d | %s\n", gutter, n, text)
		fmt.Fprintf(&buf, "  %*s | %s^\n", gutter, "", strings.Repeat(" ", max(column-1, 0)))
	}
	return buf.String()
}

// SlogSink forwards diagnostics to a structured logger at debug level. The
// severity travels as an attribute so the log level stays under the
// control of the logger configuration.
type SlogSink struct {
	log *slog.Logger
}

// NewSlogSink creates a SlogSink. A nil logger uses slog.Default().
func NewSlogSink(log *slog.Logger) *SlogSink {
	if log == nil {
		log = slog.Default()
	}
	return &SlogSink{log: log}
}

// Report implements Sink.
func (s *SlogSink) Report(d Diagnostic) {
	s.log.Debug(d.Message,
		"severity", d.Severity.String(),
		"script", d.Script,
		"line", d.Loc.Line,
		"column", d.Loc.Column)
}
