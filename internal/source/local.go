package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sentinel-go/internal/sentinel"
)

// LocalProvider enumerates and reads files from a local model directory.
type LocalProvider struct{}

// NewLocalProvider creates a provider for local directory targets.
func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

var _ sentinel.SourceProvider = (*LocalProvider)(nil)

// Resolve validates that the target directory exists. Local targets have no
// revision to pin.
func (p *LocalProvider) Resolve(_ context.Context, target sentinel.TargetRecord) (sentinel.TargetRecord, string, error) {
	info, err := os.Stat(target.ID)
	if err != nil {
		if os.IsNotExist(err) {
			return target, "", fmt.Errorf("model directory %s: %w", target.ID, sentinel.ErrNotFound)
		}
		return target, "", &sentinel.TransportError{Target: target.ID, Op: "stat model directory", Err: err}
	}
	if !info.IsDir() {
		return target, "", fmt.Errorf("model path %s is not a directory", target.ID)
	}
	return target, "", nil
}

// ListFiles walks the model directory and returns the relative paths of all
// regular files. Symlinks and other special files are skipped.
func (p *LocalProvider) ListFiles(_ context.Context, target sentinel.TargetRecord) ([]string, error) {
	var paths []string

	err := filepath.WalkDir(target.ID, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(target.ID, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, &sentinel.TransportError{Target: target.ID, Op: "listing model directory", Err: err}
	}

	return paths, nil
}

// ReadFile returns one file's byte content. An unreadable file is a
// ReadFailureError, never silently skipped.
func (p *LocalProvider) ReadFile(_ context.Context, target sentinel.TargetRecord, path string) ([]byte, error) {
	full := filepath.Join(target.ID, filepath.FromSlash(path))

	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file %s in %s: %w", path, target.ID, sentinel.ErrNotFound)
		}
		return nil, &sentinel.ReadFailureError{Target: target.ID, Path: path, Err: err}
	}
	return data, nil
}
