package testutil

import (
	"context"
	"sort"
	"sync"

	"sentinel-go/internal/sentinel"
)

// MemorySource is an in-memory SourceProvider for testing. It serves a
// mutable file set and also implements SourceSelector, returning itself for
// every target kind.
type MemorySource struct {
	mu    sync.Mutex
	files map[string][]byte

	// RevisionSHA is returned from Resolve for remote targets.
	RevisionSHA string

	// Errors to inject per operation. When set, the operation fails.
	ResolveErr error
	ListErr    error
	ReadErr    map[string]error
}

// NewMemorySource creates a MemorySource populated with the given files.
func NewMemorySource(files map[string][]byte) *MemorySource {
	m := &MemorySource{files: make(map[string][]byte), ReadErr: make(map[string]error)}
	for path, content := range files {
		m.files[path] = append([]byte(nil), content...)
	}
	return m
}

// SetFile adds or replaces a file.
func (m *MemorySource) SetFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[path] = append([]byte(nil), content...)
}

// RemoveFile deletes a file.
func (m *MemorySource) RemoveFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, path)
}

func (m *MemorySource) Resolve(ctx context.Context, target sentinel.TargetRecord) (sentinel.TargetRecord, string, error) {
	if m.ResolveErr != nil {
		return sentinel.TargetRecord{}, "", m.ResolveErr
	}
	if target.Kind == sentinel.KindRemote && target.Revision == "" {
		target.Revision = sentinel.DefaultRevision
	}
	return target, m.RevisionSHA, nil
}

func (m *MemorySource) ListFiles(ctx context.Context, target sentinel.TargetRecord) ([]string, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for path := range m.files {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

func (m *MemorySource) ReadFile(ctx context.Context, target sentinel.TargetRecord, path string) ([]byte, error) {
	if err := m.ReadErr[path]; err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.files[path]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}

// ForTarget implements SourceSelector.
func (m *MemorySource) ForTarget(target sentinel.TargetRecord) (sentinel.SourceProvider, error) {
	return m, nil
}
