package lsp

import (
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
)

// ConvertDiagnostics transforms compiler diagnostics into LSP diagnostics.
// Compiler locations are 1-based, LSP positions are 0-based. The range
// covers the literal of the offending token, or one character when the
// token has no visible text. The result is never nil.
func ConvertDiagnostics(ds []diag.Diagnostic) []protocol.Diagnostic {
	diagnostics := make([]protocol.Diagnostic, 0, len(ds))

	for _, d := range ds {
		line := zeroBased(d.Loc.Line)
		start := zeroBased(d.Loc.Column)

		width := utf8.RuneCountInString(d.Loc.Literal)
		if width == 0 || d.Loc.Literal == "\n" {
			width = 1
		}

		severity := protocol.DiagnosticSeverityWarning
		if d.Severity == diag.SeverityError {
			severity = protocol.DiagnosticSeverityError
		}

		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: line, Character: start},
				End:   protocol.Position{Line: line, Character: start + protocol.UInteger(width)},
			},
			Severity: severityPtr(severity),
			Source:   stringPtr(lsName),
			Message:  d.Message,
		})
	}

	return diagnostics
}

func zeroBased(n int) protocol.UInteger {
	if n <= 1 {
		return 0
	}
	return protocol.UInteger(n - 1)
}

func severityPtr(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity {
	return &s
}
