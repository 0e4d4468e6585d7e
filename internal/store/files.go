package store

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Approved file copies live under <modelDir>/files/, preserving the file's
// relative path inside the model. They supply the "old content" side of the
// diff shown to a reviewer on the next change.

const (
	filesDirName         = "files"
	originalPathFileName = "original_path.txt"
)

// copyPath resolves a file's relative path under the model's files directory.
// Paths come from source listings, so absolute paths and anything that climbs
// out of the directory are rejected.
func copyPath(modelDir, relPath string) (string, error) {
	p := path.Clean(filepath.ToSlash(relPath))
	if p == "." || p == ".." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("file path %q escapes the model directory", relPath)
	}
	return filepath.Join(modelDir, filesDirName, filepath.FromSlash(p)), nil
}

// SaveFileCopy stores an approved file's content under the model's files
// directory.
func SaveFileCopy(modelDir, relPath string, content []byte) error {
	dest, err := copyPath(modelDir, relPath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating files directory for %s: %w", relPath, err)
	}
	if err := os.WriteFile(dest, content, 0644); err != nil {
		return fmt.Errorf("writing approved copy %s: %w", relPath, err)
	}
	return nil
}

// LoadFileCopy returns the stored approved copy of a file, or ErrNotFound if
// no copy exists.
func LoadFileCopy(modelDir, relPath string) ([]byte, error) {
	src, err := copyPath(modelDir, relPath)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("approved copy %s: %w", relPath, ErrNotFound)
		}
		return nil, fmt.Errorf("reading approved copy %s: %w", relPath, err)
	}
	return data, nil
}

// PruneFileCopies removes stored copies whose paths are no longer in the
// approved set, along with any directories left empty.
func PruneFileCopies(modelDir string, keep map[string]bool) error {
	filesDir := filepath.Join(modelDir, filesDirName)

	err := filepath.WalkDir(filesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(filesDir, p)
		if err != nil {
			return err
		}
		if !keep[filepath.ToSlash(rel)] {
			return os.Remove(p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("pruning approved copies: %w", err)
	}

	removeEmptyDirs(filesDir)
	return nil
}

// removeEmptyDirs removes empty directories under root, deepest first. Errors
// are ignored: a directory that still has children simply stays.
func removeEmptyDirs(root string) {
	var dirs []string
	filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() && p != root {
			dirs = append(dirs, p)
		}
		return nil
	})
	for i := len(dirs) - 1; i >= 0; i-- {
		os.Remove(dirs[i])
	}
}

// SaveOriginalPath records the original directory path of a local model next
// to its metadata, since the storage location embeds a content hash rather
// than the path itself.
func SaveOriginalPath(modelDir, originalPath string) error {
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return fmt.Errorf("creating model directory %s: %w", modelDir, err)
	}
	path := filepath.Join(modelDir, originalPathFileName)
	if err := os.WriteFile(path, []byte(originalPath+"\n"), 0644); err != nil {
		return fmt.Errorf("writing original path: %w", err)
	}
	return nil
}

// LoadOriginalPath returns the recorded original path of a local model, or
// ErrNotFound if none was recorded.
func LoadOriginalPath(modelDir string) (string, error) {
	path := filepath.Join(modelDir, originalPathFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("original path for %s: %w", modelDir, ErrNotFound)
		}
		return "", fmt.Errorf("reading original path: %w", err)
	}
	return string(trimTrailingNewline(data)), nil
}

func trimTrailingNewline(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
