package fileutil

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileSystem は実ファイルシステムと fs.FS を統一的に扱うインターフェース
type FileSystem interface {
	// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
	ReadFile(name string) ([]byte, error)
	// Stat はファイル情報を返す（大文字小文字を無視）
	Stat(name string) (fs.FileInfo, error)
	// WalkDir は root 以下を走査する。fn に渡るパスはベースパスからの相対パス
	WalkDir(root string, fn fs.WalkDirFunc) error
	// BasePath はベースパスを返す
	BasePath() string
}

// RealFS は実ファイルシステムへのアクセスを提供する
type RealFS struct {
	basePath string
}

// NewRealFS は実ファイルシステム用のFileSystemを作成する
func NewRealFS(basePath string) *RealFS {
	return &RealFS{basePath: basePath}
}

func (r *RealFS) ReadFile(name string) ([]byte, error) {
	p, err := r.find(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (r *RealFS) Stat(name string) (fs.FileInfo, error) {
	p, err := r.find(name)
	if err != nil {
		return nil, err
	}
	return os.Stat(p)
}

func (r *RealFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	start := r.resolve(root)
	return filepath.WalkDir(start, func(walkPath string, d fs.DirEntry, err error) error {
		rel := walkPath
		if r.basePath != "" {
			if p, relErr := filepath.Rel(r.basePath, walkPath); relErr == nil {
				rel = p
			}
		}
		return fn(filepath.ToSlash(rel), d, err)
	})
}

func (r *RealFS) BasePath() string {
	return r.basePath
}

func (r *RealFS) resolve(name string) string {
	clean := filepath.FromSlash(cleanName(name))
	if r.basePath != "" {
		return filepath.Join(r.basePath, clean)
	}
	return clean
}

func (r *RealFS) find(name string) (string, error) {
	p := r.resolve(name)
	// まず直接アクセスを試みる
	if _, err := os.Stat(p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitive(filepath.Dir(p), filepath.Base(p))
}

// DirFS は fs.FS（embed.FS、fstest.MapFS など）へのアクセスを提供する
type DirFS struct {
	fsys     fs.FS
	basePath string
}

// NewDirFS は fs.FS 用のFileSystemを作成する
func NewDirFS(fsys fs.FS, basePath string) *DirFS {
	return &DirFS{fsys: fsys, basePath: basePath}
}

func (d *DirFS) ReadFile(name string) ([]byte, error) {
	p, err := d.find(name)
	if err != nil {
		return nil, err
	}
	return fs.ReadFile(d.fsys, p)
}

func (d *DirFS) Stat(name string) (fs.FileInfo, error) {
	p, err := d.find(name)
	if err != nil {
		return nil, err
	}
	return fs.Stat(d.fsys, p)
}

func (d *DirFS) WalkDir(root string, fn fs.WalkDirFunc) error {
	base := d.basePath
	return fs.WalkDir(d.fsys, d.resolve(root), func(walkPath string, e fs.DirEntry, err error) error {
		rel := walkPath
		switch {
		case base != "" && walkPath == base:
			rel = "."
		case base != "":
			rel = strings.TrimPrefix(walkPath, base+"/")
		}
		return fn(rel, e, err)
	})
}

func (d *DirFS) BasePath() string {
	return d.basePath
}

func (d *DirFS) resolve(name string) string {
	clean := cleanName(name)
	if clean == "." || clean == "" {
		if d.basePath != "" {
			return d.basePath
		}
		return "."
	}
	if d.basePath != "" {
		return path.Join(d.basePath, clean)
	}
	return clean
}

func (d *DirFS) find(name string) (string, error) {
	p := d.resolve(name)
	if _, err := fs.Stat(d.fsys, p); err == nil {
		return p, nil
	}
	return FindFileCaseInsensitiveFS(d.fsys, path.Dir(p), path.Base(p))
}

// cleanName は先頭の "/" や "\" を除去し、区切りを "/" に揃える
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	return strings.TrimPrefix(name, "/")
}
