// Package app wires the command line configuration to the compilation
// pipeline: manifest, world context, script loading, batch compile and
// reporting.
package app

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"

	"github.com/zurustar/mwscript/pkg/cli"
	"github.com/zurustar/mwscript/pkg/compiler"
	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/fileutil"
	"github.com/zurustar/mwscript/pkg/logger"
	"github.com/zurustar/mwscript/pkg/manifest"
	"github.com/zurustar/mwscript/pkg/opcode"
	"github.com/zurustar/mwscript/pkg/script"
	"github.com/zurustar/mwscript/pkg/world"
)

// ErrScriptsFailed is returned by Run when at least one script did not compile.
var ErrScriptsFailed = errors.New("scripts failed to compile")

// Summary counts the outcome of a run.
type Summary struct {
	Scripts  int
	Failed   int
	Warnings int
}

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config *cli.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer

	scriptFS   fileutil.FileSystem // nilならScriptsPathのRealFS
	manifestFS fs.FS               // nilならManifestPathのディレクトリ
}

// Option configures an Application.
type Option func(*Application)

// WithScriptFS reads scripts from fsys instead of config.ScriptsPath.
func WithScriptFS(fsys fileutil.FileSystem) Option {
	return func(app *Application) {
		app.scriptFS = fsys
	}
}

// WithManifestFS resolves config.ManifestPath inside fsys.
func WithManifestFS(fsys fs.FS) Option {
	return func(app *Application) {
		app.manifestFS = fsys
	}
}

// New Applicationを作成
// 結果（逆アセンブルとサマリ）はstdoutへ、診断とログはstderrへ出力する
func New(config *cli.Config, stdout, stderr io.Writer, opts ...Option) *Application {
	app := &Application{
		config: config,
		stdout: stdout,
		stderr: stderr,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
// 一部のスクリプトが失敗した場合はSummaryとErrScriptsFailedを返す
func (app *Application) Run() (*Summary, error) {
	// 1. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if app.config.NoColor {
		color.NoColor = true
	}

	// 2. マニフェストの読み込み
	m, err := app.loadManifest()
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	// 3. ワールドコンテキストの構築
	ctx := world.New(nil)
	if m != nil {
		if ctx, err = world.FromManifest(m, nil); err != nil {
			return nil, fmt.Errorf("failed to build world context: %w", err)
		}
	}

	// 4. スクリプトファイルの読み込み
	scripts, err := app.loadScripts()
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	app.log.Info("Scripts loaded", "count", len(scripts), "path", app.config.ScriptsPath)
	for _, s := range scripts {
		app.log.Debug("Script file", "name", s.FileName, "size", s.Size)
	}
	app.checkManifestScripts(m, scripts)

	// 5. スクリプトのコンパイル
	results := app.compileScripts(ctx, m, scripts)

	// 6. 結果の出力
	summary := app.report(results)
	if summary.Failed > 0 {
		return summary, fmt.Errorf("%d of %d %w", summary.Failed, summary.Scripts, ErrScriptsFailed)
	}
	return summary, nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel, app.stderr); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadManifest マニフェストを読み込む（指定がなければnil）
func (app *Application) loadManifest() (*manifest.Manifest, error) {
	if app.config.ManifestPath == "" {
		return nil, nil
	}

	fsys, name := app.manifestFS, app.config.ManifestPath
	if fsys == nil {
		fsys = os.DirFS(filepath.Dir(name))
		name = filepath.Base(name)
	}

	m, err := manifest.Load(fsys, name)
	if err != nil {
		return nil, err
	}
	app.log.Info("Manifest loaded",
		"path", app.config.ManifestPath,
		"globals", len(m.Globals),
		"objects", len(m.Objects),
		"scripts", len(m.Scripts()))
	return m, nil
}

// loadScripts スクリプトファイルを読み込む
func (app *Application) loadScripts() ([]script.Script, error) {
	enc, err := script.LookupEncoding(app.config.Encoding)
	if err != nil {
		return nil, err
	}

	fsys := app.scriptFS
	if fsys == nil {
		fsys = fileutil.NewRealFS(app.config.ScriptsPath)
	}
	loader := script.NewLoader(fsys, enc)

	// 単一ファイルが指定されている場合
	if app.config.ScriptFile != "" {
		s, err := loader.LoadScript(app.config.ScriptFile)
		if err != nil {
			return nil, err
		}
		return []script.Script{*s}, nil
	}
	return loader.LoadAllScripts()
}

// checkManifestScripts マニフェストにあってソースがないスクリプトを警告する
func (app *Application) checkManifestScripts(m *manifest.Manifest, scripts []script.Script) {
	if m == nil || app.config.ScriptFile != "" {
		return
	}
	loaded := make(map[string]bool, len(scripts))
	for _, s := range scripts {
		loaded[strings.ToLower(s.Name)] = true
	}
	for _, name := range m.Scripts() {
		if !loaded[strings.ToLower(name)] {
			app.log.Warn("Manifest describes a script with no source file", "script", name)
		}
	}
}

// compileScripts スクリプトをコンパイルする
// 診断はソース抜粋つきでstderrへ出力され、debugレベルではログにも記録される
func (app *Application) compileScripts(ctx *world.Context, m *manifest.Manifest, scripts []script.Script) []compiler.CompileResult {
	sink := diag.NewStreamSink(app.stderr)
	for _, s := range scripts {
		sink.SetSource(s.FileName, s.Content)
	}

	c := compiler.New(ctx,
		compiler.WithLogger(app.log),
		compiler.WithSink(sink),
		compiler.WithSink(diag.NewSlogSink(app.log)),
		compiler.WithWarningsMode(app.config.Warnings()))

	return c.CompileScripts(scripts, m.Declarations)
}

// report 逆アセンブルとサマリを出力する
func (app *Application) report(results []compiler.CompileResult) *Summary {
	summary := &Summary{Scripts: len(results)}

	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
			summary.Warnings += countWarnings(compiler.Diagnostics(r.Err))
			app.log.Error("Compilation failed", "file", r.Source.FileName, "errors", errorCount(r.Err))
			continue
		}

		summary.Warnings += len(r.Script.Warnings)
		app.log.Debug("OpCodes generated", "script", r.Script.Name, "opcodes", formatOpCodesPreview(r.Script.Code, 10))

		if app.config.Dump {
			fmt.Fprintf(app.stdout, "; %s (%s, %d locals)\n", r.Script.Name, r.Source.FileName, r.Script.Locals.Len())
			fmt.Fprint(app.stdout, opcode.Disassemble(r.Script.Code))
			fmt.Fprintln(app.stdout)
		}
	}

	fmt.Fprintf(app.stdout, "compiled %d scripts: %d failed, %d warnings\n",
		summary.Scripts, summary.Failed, summary.Warnings)
	return summary
}

func countWarnings(ds []diag.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == diag.SeverityWarning {
			n++
		}
	}
	return n
}

func errorCount(err error) int {
	var ce *compiler.CompileError
	if errors.As(err, &ce) {
		return ce.ErrorCount()
	}
	return 1
}

// formatOpCodesPreview OpCodeのプレビューを生成（デバッグ用）
func formatOpCodesPreview(opcodes []opcode.OpCode, maxCount int) string {
	if len(opcodes) == 0 {
		return "[]"
	}

	count := len(opcodes)
	if count > maxCount {
		count = maxCount
	}

	parts := make([]string, count)
	for i := 0; i < count; i++ {
		parts[i] = opcodes[i].String()
	}

	result := strings.Join(parts, "; ")
	if len(opcodes) > maxCount {
		result += fmt.Sprintf("; ... (%d more)", len(opcodes)-maxCount)
	}
	return "[" + result + "]"
}
