// Package lsp implements a language server for game scripts. Every open
// document is recompiled on open, change and save, and the diagnostics of
// the compile are published to the client.
package lsp

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"github.com/zurustar/mwscript/pkg/compiler"
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/fileutil"
	"github.com/zurustar/mwscript/pkg/manifest"
	"github.com/zurustar/mwscript/pkg/world"

	_ "github.com/tliron/commonlog/simple"
)

const lsName = "mwscript"

var log = commonlog.GetLogger("mwscript.lsp")

// Server is the language server. The world context is shared by all
// documents: a document that compiles publishes its locals as members for
// the others.
type Server struct {
	mu   sync.Mutex
	docs map[protocol.DocumentUri]string

	world    *world.Context
	manifest *manifest.Manifest
	warnings diag.WarningsMode

	handler protocol.Handler
	server  *server.Server
	version string
}

// NewServer creates a Server. ctx may be nil for an empty world; m may be
// nil when no manifest is used.
func NewServer(version string, ctx *world.Context, m *manifest.Manifest, warnings diag.WarningsMode) *Server {
	if ctx == nil {
		ctx = world.New(nil)
	}
	ls := &Server{
		docs:     make(map[protocol.DocumentUri]string),
		world:    ctx,
		manifest: m,
		warnings: warnings,
		version:  version,
	}

	ls.handler = protocol.Handler{
		Initialize:            ls.initialize,
		Initialized:           ls.initialized,
		Shutdown:              ls.shutdown,
		SetTrace:              ls.setTrace,
		TextDocumentDidOpen:   ls.textDocumentDidOpen,
		TextDocumentDidChange: ls.textDocumentDidChange,
		TextDocumentDidClose:  ls.textDocumentDidClose,
		TextDocumentDidSave:   ls.textDocumentDidSave,
	}

	ls.server = server.NewServer(&ls.handler, lsName, false)

	return ls
}

// Configure sets the verbosity of the glsp and server logs.
func Configure(verbosity int) {
	commonlog.Configure(verbosity, nil)
}

// RunStdio serves the protocol on stdin/stdout.
func (ls *Server) RunStdio() error {
	return ls.server.RunStdio()
}

func (ls *Server) initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	capabilities := ls.handler.CreateServerCapabilities()

	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: boolPtr(true),
		Change:    syncKindPtr(protocol.TextDocumentSyncKindFull),
		Save: &protocol.SaveOptions{
			IncludeText: boolPtr(true),
		},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &ls.version,
		},
	}, nil
}

func (ls *Server) initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Info("language server initialized")
	return nil
}

func (ls *Server) shutdown(ctx *glsp.Context) error {
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (ls *Server) setTrace(ctx *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (ls *Server) textDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	ls.update(ctx, params.TextDocument.URI, params.TextDocument.Text)
	return nil
}

func (ls *Server) textDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	// Full sync: the last change carries the whole document.
	for i := len(params.ContentChanges) - 1; i >= 0; i-- {
		if change, ok := params.ContentChanges[i].(protocol.TextDocumentContentChangeEventWhole); ok {
			ls.update(ctx, params.TextDocument.URI, change.Text)
			return nil
		}
	}
	return nil
}

func (ls *Server) textDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	ls.mu.Lock()
	delete(ls.docs, params.TextDocument.URI)
	ls.mu.Unlock()

	publish(ctx, params.TextDocument.URI, []protocol.Diagnostic{})
	return nil
}

func (ls *Server) textDocumentDidSave(ctx *glsp.Context, params *protocol.DidSaveTextDocumentParams) error {
	if params.Text != nil {
		ls.update(ctx, params.TextDocument.URI, *params.Text)
		return nil
	}

	ls.mu.Lock()
	text, ok := ls.docs[params.TextDocument.URI]
	ls.mu.Unlock()
	if ok {
		ls.update(ctx, params.TextDocument.URI, text)
	}
	return nil
}

func (ls *Server) update(ctx *glsp.Context, uri protocol.DocumentUri, text string) {
	ls.mu.Lock()
	ls.docs[uri] = text
	ls.mu.Unlock()

	publish(ctx, uri, ls.Check(uri, text))
}

// Check compiles text as the document uri and returns its diagnostics.
// A fresh Compiler is used for every check; when the document compiles,
// its locals are registered in the world context under the script name.
func (ls *Server) Check(uri protocol.DocumentUri, text string) []protocol.Diagnostic {
	file := documentName(uri)
	c := compiler.New(ls.world, compiler.WithWarningsMode(ls.warnings))

	compiled, err := c.CompileString(file, text, ls.manifest.Declarations(fileutil.TrimExt(file)))
	switch {
	case err == nil:
		ls.world.AddScriptLocals(compiled.Name, compiled.Locals)
		log.Debugf("%s: compiled %s, %d instructions", file, compiled.Name, len(compiled.Code))
		return ConvertDiagnostics(compiled.Warnings)

	case compiler.IsCompileError(err):
		return ConvertDiagnostics(compiler.Diagnostics(err))

	default:
		return []protocol.Diagnostic{{
			Severity: severityPtr(protocol.DiagnosticSeverityError),
			Source:   stringPtr(lsName),
			Message:  err.Error(),
		}}
	}
}

// documentName returns the file name of a document URI.
func documentName(uri protocol.DocumentUri) string {
	if strings.HasPrefix(uri, "file://") {
		if parsed, err := url.Parse(uri); err == nil {
			return filepath.Base(filepath.Clean(parsed.Path))
		}
	}
	return path.Base(strings.ReplaceAll(uri, "\\", "/"))
}

func publish(ctx *glsp.Context, uri protocol.DocumentUri, diagnostics []protocol.Diagnostic) {
	log.Debugf("publishing %d diagnostics for %s", len(diagnostics), uri)
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func boolPtr(b bool) *bool {
	return &b
}

func stringPtr(s string) *string {
	return &s
}

func syncKindPtr(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind {
	return &k
}
