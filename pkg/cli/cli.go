package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/zurustar/mwscript/pkg/compiler/diag"
	"github.com/zurustar/mwscript/pkg/fileutil"
	"github.com/zurustar/mwscript/pkg/logger"
	"github.com/zurustar/mwscript/pkg/script"
)

// 環境変数（コマンドラインフラグが優先）
const (
	EnvLogLevel = "MWSCRIPT_LOG_LEVEL"
	EnvEncoding = "MWSCRIPT_ENCODING"
	EnvWarnings = "MWSCRIPT_WARNINGS"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	ScriptsPath  string // スクリプトのディレクトリ
	ScriptFile   string // 単一スクリプト指定時のファイル名（ScriptsPathからの相対）
	ManifestPath string // 宣言マニフェストのパス（空なら使わない）
	Encoding     string // スクリプトの文字コード（win1250, win1251, win1252, utf8）
	LogLevel     string // ログレベル（debug, info, warn, error）
	WarningsMode string // 警告の扱い（ignore, normal, error）
	Dump         bool   // 逆アセンブル結果を出力する
	NoColor      bool   // 色付き出力を無効化
}

// DefaultConfig デフォルト値のConfigを返す
func DefaultConfig() *Config {
	return &Config{
		ScriptsPath:  ".",
		Encoding:     "win1252",
		LogLevel:     "info",
		WarningsMode: "normal",
	}
}

// BindFlags Configのフィールドをフラグセットに登録する
func (c *Config) BindFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&c.ManifestPath, "manifest", "m", c.ManifestPath, "declaration manifest (globals, objects, script locals)")
	fs.StringVarP(&c.Encoding, "encoding", "e", c.Encoding, "script encoding: "+strings.Join(script.EncodingNames(), ", "))
	fs.StringVarP(&c.LogLevel, "log-level", "l", c.LogLevel, "log level: debug, info, warn, error")
	fs.StringVarP(&c.WarningsMode, "warnings", "w", c.WarningsMode, "warnings mode: ignore, normal, error")
	fs.BoolVar(&c.Dump, "dump", c.Dump, "print the disassembly of every compiled script")
	fs.BoolVar(&c.NoColor, "no-color", c.NoColor, "disable coloured diagnostics")
}

// Finish 環境変数と位置引数を反映して検証する
//
// Parameters:
//   - fs: BindFlagsで登録済みのフラグセット（解析済み）
//   - args: 位置引数（スクリプトのディレクトリ、または.mwscriptファイル）
//   - getenv: 環境変数の取得関数（nilならos.Getenv）
func (c *Config) Finish(fs *pflag.FlagSet, args []string, getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	overrides := []struct {
		flag  string
		env   string
		field *string
	}{
		{"log-level", EnvLogLevel, &c.LogLevel},
		{"encoding", EnvEncoding, &c.Encoding},
		{"warnings", EnvWarnings, &c.WarningsMode},
	}
	for _, o := range overrides {
		if fs != nil && fs.Changed(o.flag) {
			continue
		}
		if v := getenv(o.env); v != "" {
			*o.field = strings.ToLower(v)
		}
	}

	if len(args) > 1 {
		return fmt.Errorf("expected at most one script path, got %d", len(args))
	}
	if len(args) == 1 {
		path := args[0]

		// スクリプトファイルが指定された場合、ディレクトリとファイル名に分離
		if fileutil.HasExt(path, script.Ext) {
			c.ScriptsPath = filepath.Dir(path)
			c.ScriptFile = filepath.Base(path)
		} else {
			c.ScriptsPath = path
		}
	}

	return c.Validate()
}

// Validate 設定値を検証する
func (c *Config) Validate() error {
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w (must be debug, info, warn, or error)", err)
	}
	if _, err := script.LookupEncoding(c.Encoding); err != nil {
		return err
	}
	if _, err := diag.ParseWarningsMode(c.WarningsMode); err != nil {
		return err
	}
	if c.ScriptsPath == "" {
		return fmt.Errorf("scripts path must not be empty")
	}
	return nil
}

// Warnings 検証済みの警告モードを返す
func (c *Config) Warnings() diag.WarningsMode {
	mode, _ := diag.ParseWarningsMode(c.WarningsMode)
	return mode
}

// ParseArgs コマンドライン引数を解析してConfigを返す
// pflagはフラグと位置引数の混在を扱えるため並べ替えは不要
func ParseArgs(args []string) (*Config, error) {
	config := DefaultConfig()

	fs := pflag.NewFlagSet("mwscript", pflag.ContinueOnError)
	config.BindFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if err := config.Finish(fs, fs.Args(), nil); err != nil {
		return nil, err
	}
	return config, nil
}
