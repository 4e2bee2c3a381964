// Package script loads script source files and converts them from their
// legacy code page to UTF-8.
package script

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/zurustar/mwscript/pkg/fileutil"
)

// Ext is the file extension of script sources.
const Ext = ".mwscript"

// Script はスクリプトファイルを表す
type Script struct {
	FileName string // ベースパスからの相対パス
	Name     string // 拡張子を除いたファイル名
	Content  string // UTF-8に変換された内容
	Size     int64  // ファイルサイズ
}

// encodings maps the accepted --encoding values to decoders.
var encodings = map[string]encoding.Encoding{
	"win1250": charmap.Windows1250, // Central and Eastern European
	"win1251": charmap.Windows1251, // Cyrillic
	"win1252": charmap.Windows1252, // Western European
	"utf8":    unicode.UTF8BOM,
}

// EncodingNames returns the accepted encoding names, sorted.
func EncodingNames() []string {
	names := make([]string, 0, len(encodings))
	for name := range encodings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// LookupEncoding returns the encoding registered under name (any case).
func LookupEncoding(name string) (encoding.Encoding, error) {
	enc, ok := encodings[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown encoding %q (expected one of %s)", name, strings.Join(EncodingNames(), ", "))
	}
	return enc, nil
}

// Loader はスクリプトファイルの読み込みを行う
type Loader struct {
	fs  fileutil.FileSystem
	enc encoding.Encoding
}

// NewLoader Loaderを作成。enc が nil の場合は win1252
func NewLoader(fsys fileutil.FileSystem, enc encoding.Encoding) *Loader {
	if enc == nil {
		enc = charmap.Windows1252
	}
	return &Loader{fs: fsys, enc: enc}
}

// LoadAllScripts すべての .mwscript ファイルをパス順に読み込む
func (l *Loader) LoadAllScripts() ([]Script, error) {
	files, err := l.findScriptFiles()
	if err != nil {
		return nil, fmt.Errorf("failed to find script files: %w", err)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no script files found in %s", l.fs.BasePath())
	}

	scripts := make([]Script, 0, len(files))
	for _, name := range files {
		s, err := l.LoadScript(name)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, *s)
	}
	return scripts, nil
}

// findScriptFiles .mwscript ファイルを検出（case-insensitive）
func (l *Loader) findScriptFiles() ([]string, error) {
	var files []string
	err := l.fs.WalkDir(".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && fileutil.HasExt(p, Ext) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// LoadScript 単一のスクリプトファイルを読み込む（大文字小文字を無視）
func (l *Loader) LoadScript(name string) (*Script, error) {
	info, err := l.fs.Stat(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	data, err := l.fs.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	content, err := Decode(data, l.enc)
	if err != nil {
		return nil, fmt.Errorf("failed to load script %s: %w", name, err)
	}

	return &Script{
		FileName: name,
		Name:     fileutil.TrimExt(name),
		Content:  content,
		Size:     info.Size(),
	}, nil
}

// Decode converts data from enc to UTF-8.
func Decode(data []byte, enc encoding.Encoding) (string, error) {
	r := transform.NewReader(bytes.NewReader(data), enc.NewDecoder())
	out, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to decode: %w", err)
	}
	return string(out), nil
}
