// Package compiler provides the compilation pipeline for game scripts.
// It drives the scanner and the file parser over script sources and turns the
// result into CompiledScript values:
//
//   - Compile: compiles one script read from an io.Reader
//   - CompileString: compiles one script held in a string
//   - CompileSnippet: compiles a console line against existing locals
//   - CompileScripts: compiles a batch loaded by script.Loader
//
// A Compiler reuses a single FileParser for every script it compiles and
// is therefore not safe for concurrent use.
package compiler

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/compiler/locals"
	"github.com/zurustar/mwscript/pkg/compiler/parser"
	"github.com/zurustar/mwscript/pkg/compiler/scanner"
	"github.com/zurustar/mwscript/pkg/opcode"
	"github.com/zurustar/mwscript/pkg/script"
	"github.com/zurustar/mwscript/pkg/world"
)

// CompiledScript is the output of a successful compile. It does not share
// storage with the Compiler that produced it.
type CompiledScript struct {
	// Name is the script name from the begin line.
	Name string

	// Code is the instruction sequence of the body.
	Code []opcode.OpCode

	// Locals is the final local variable table, including variables
	// declared in the body.
	Locals *locals.Locals

	// Warnings holds the warnings reported while compiling.
	Warnings []diag.Diagnostic
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger for pipeline events. The default is slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(c *Compiler) {
		c.log = log
	}
}

// WithSink forwards every diagnostic to s as it is reported.
func WithSink(s diag.Sink) Option {
	return func(c *Compiler) {
		c.reporter.AddSink(s)
	}
}

// WithWarningsMode sets how warnings are treated.
func WithWarningsMode(mode diag.WarningsMode) Option {
	return func(c *Compiler) {
		c.reporter.SetWarningsMode(mode)
	}
}

// Compiler compiles scripts against a world context.
type Compiler struct {
	ctx      *world.Context
	reporter *diag.Reporter
	file     *parser.FileParser
	log      *slog.Logger
}

// New creates a Compiler resolving names through ctx. A nil ctx is an
// empty world with the default extensions.
func New(ctx *world.Context, opts ...Option) *Compiler {
	if ctx == nil {
		ctx = world.New(nil)
	}
	reporter := diag.NewReporter()
	c := &Compiler{
		ctx:      ctx,
		reporter: reporter,
		file:     parser.NewFileParser(reporter, ctx),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Context returns the world context of the compiler.
func (c *Compiler) Context() *world.Context {
	return c.ctx
}

// Compile compiles one script.
//
// Parameters:
//   - name: Name used in diagnostics (usually the file name)
//   - r: Script source, UTF-8
//   - decls: Declaration record preloaded into the locals table (may be nil)
//
// Returns:
//   - *CompiledScript: The compiled script, nil on failure
//   - error: *CompileError when the source has errors, or a configuration error
func (c *Compiler) Compile(name string, r io.Reader, decls []locals.Declaration) (*CompiledScript, error) {
	c.reporter.Reset()
	c.reporter.SetContext(name)
	c.file.Reset()

	if err := c.file.Locals().Configure(decls); err != nil {
		return nil, fmt.Errorf("%s: invalid declaration record: %w", name, err)
	}

	// Keep what the scanner consumed so errors can show source context.
	var src strings.Builder
	scanner.New(io.TeeReader(r, &src), c.reporter).Scan(c.file)

	if !c.reporter.IsGood() {
		c.log.Debug("script failed to compile", "script", name, "errors", c.reporter.ErrorCount())
		return nil, &CompileError{
			Script:      name,
			Diagnostics: c.reporter.Diagnostics(),
			Source:      src.String(),
		}
	}

	compiled := &CompiledScript{
		Name:     c.file.Name(),
		Code:     opcode.Clone(c.file.Code()),
		Locals:   c.file.Locals().Clone(),
		Warnings: c.reporter.Diagnostics(),
	}
	c.log.Debug("script compiled",
		"script", compiled.Name,
		"instructions", len(compiled.Code),
		"locals", compiled.Locals.Len(),
		"warnings", len(compiled.Warnings))
	return compiled, nil
}

// CompileString compiles a script held in a string.
func (c *Compiler) CompileString(name, source string, decls []locals.Declaration) (*CompiledScript, error) {
	return c.Compile(name, strings.NewReader(source), decls)
}

// consoleContext forbids declarations in console input.
type consoleContext struct {
	parser.Context
}

func (consoleContext) CanDeclareLocals() bool {
	return false
}

// CompileSnippet compiles console input: statements and control flow
// without a begin/end frame. Variables resolve against l, which is not
// modified.
func (c *Compiler) CompileSnippet(source string, l *locals.Locals) ([]opcode.OpCode, error) {
	c.reporter.Reset()
	c.reporter.SetContext("console")

	if l == nil {
		l = locals.New()
	}
	p := parser.NewScriptParser(c.reporter, consoleContext{c.ctx}, l, true)
	scanner.New(strings.NewReader(source), c.reporter).Scan(p)

	if !c.reporter.IsGood() {
		return nil, &CompileError{
			Script:      "console",
			Diagnostics: c.reporter.Diagnostics(),
			Source:      source,
		}
	}
	return opcode.Clone(p.Code()), nil
}

// CompileResult is the outcome for one script of a batch.
type CompileResult struct {
	// Source is the loaded script.
	Source script.Script
	// Script is the compiled script, nil if compilation failed.
	Script *CompiledScript
	// Err is the compile error, nil on success.
	Err error
}

// CompileScripts compiles a batch in order. Each script is compiled
// independently; a failure does not stop the batch. The locals of every
// successful script are registered in the world context, so later scripts
// in the batch can read them as members.
//
// Parameters:
//   - scripts: Scripts from script.Loader (already UTF-8)
//   - declsFor: Returns the declaration record for a script name; may be nil
//
// Returns:
//   - []CompileResult: One result per input script, in input order
func (c *Compiler) CompileScripts(scripts []script.Script, declsFor func(name string) []locals.Declaration) []CompileResult {
	results := make([]CompileResult, 0, len(scripts))

	for _, s := range scripts {
		var decls []locals.Declaration
		if declsFor != nil {
			decls = declsFor(s.Name)
		}

		compiled, err := c.CompileString(s.FileName, s.Content, decls)
		if err == nil {
			c.ctx.AddScriptLocals(compiled.Name, compiled.Locals)
		}
		results = append(results, CompileResult{Source: s, Script: compiled, Err: err})
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	c.log.Info("batch compiled", "scripts", len(results), "failed", failed)
	return results
}
