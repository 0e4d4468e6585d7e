package sentinel

import (
	"context"
	"strings"
)

// FileSet is a target's current source files, keyed by slash-separated
// relative path.
type FileSet map[string][]byte

// SourceProvider enumerates the files belonging to a target and supplies
// their byte content. Implementations report missing targets or files as
// ErrNotFound and network or filesystem failures as TransportError or
// ReadFailureError; the core surfaces these unmodified and never retries.
type SourceProvider interface {
	// Resolve pins the target before verification: for remote targets it
	// fills in the default revision and returns the commit the named
	// revision currently points at (empty when the source has no such
	// notion). The returned record is what gets persisted.
	Resolve(ctx context.Context, target TargetRecord) (TargetRecord, string, error)

	// ListFiles returns the relative paths of all files belonging to the
	// target. The listing may include files outside the supported set; the
	// caller filters before reading content.
	ListFiles(ctx context.Context, target TargetRecord) ([]string, error)

	// ReadFile returns the byte content of one file.
	ReadFile(ctx context.Context, target TargetRecord, path string) ([]byte, error)
}

// SourceSelector picks the provider for a target kind.
type SourceSelector interface {
	ForTarget(target TargetRecord) (SourceProvider, error)
}

// DefaultPatterns is the supported-file filter applied when none is
// configured: only Python source files are subject to content diffing.
var DefaultPatterns = []string{".py"}

// SupportedFile reports whether a path matches one of the supported-file
// suffixes. Files outside the supported set are ignored for hashing and
// diffing.
func SupportedFile(path string, patterns []string) bool {
	for _, suffix := range patterns {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
