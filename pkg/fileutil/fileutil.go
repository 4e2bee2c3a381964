// Package fileutil provides case-insensitive file lookup. Script sources and
// manifests come from data directories whose file name case is not reliable.
package fileutil

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FindFileCaseInsensitive searches dir for a file named filename, ignoring case.
//
// Parameters:
//   - dir: The directory to search in
//   - filename: The file name to search for (case-insensitive)
//
// Returns:
//   - string: The actual path of the file if found
//   - error: Error if the file is not found or the directory cannot be read
//
// Example:
//
//	path, err := FindFileCaseInsensitive("/data/scripts", "TestScript.MWSCRIPT")
//	// finds "testscript.mwscript", "TESTSCRIPT.mwscript", etc.
func FindFileCaseInsensitive(dir, filename string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
	}
	return filepath.Join(dir, name), nil
}

// FindFileCaseInsensitiveFS is FindFileCaseInsensitive for an fs.FS.
// The returned path uses forward slashes.
func FindFileCaseInsensitiveFS(fsys fs.FS, dir, filename string) (string, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return "", fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	name, ok := matchEntry(entries, filename)
	if !ok {
		return "", fmt.Errorf("file not found: %s (searched in %s)", filename, dir)
	}
	return path.Join(dir, name), nil
}

// matchEntry returns the name of the first regular entry equal to filename
// ignoring case.
func matchEntry(entries []fs.DirEntry, filename string) (string, bool) {
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(entry.Name(), filename) {
			return entry.Name(), true
		}
	}
	return "", false
}

// HasExt reports whether name ends in ext, ignoring case. ext includes the dot.
func HasExt(name, ext string) bool {
	return strings.EqualFold(filepath.Ext(name), ext)
}

// TrimExt returns the base name of p without its extension. Both slash
// kinds separate directories.
func TrimExt(p string) string {
	base := path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(base, path.Ext(base))
}
