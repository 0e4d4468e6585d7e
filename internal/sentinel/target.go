package sentinel

import (
	"fmt"
	"path/filepath"
	"strings"

	"sentinel-go/internal/store"
)

// TargetKind discriminates the closed set of verification target kinds.
type TargetKind int

const (
	KindUnknown TargetKind = iota
	KindRemote
	KindLocal
)

func (k TargetKind) String() string {
	switch k {
	case KindRemote:
		return "hf"
	case KindLocal:
		return "local"
	default:
		return "unknown"
	}
}

// DefaultRevision is used for remote targets when no revision is requested.
const DefaultRevision = "main"

// TargetRecord is the immutable identity of a verification target.
// For remote targets ID is the "org/model" repository ID and Revision the
// named revision; for local targets ID is the absolute, cleaned directory
// path.
type TargetRecord struct {
	Kind     TargetKind
	ID       string
	Revision string
}

// NewRemoteTarget builds a record for a hosted model repository. The
// revision defaults to DefaultRevision when empty.
func NewRemoteTarget(repoID, revision string) (TargetRecord, error) {
	if repoID == "" {
		return TargetRecord{}, fmt.Errorf("empty repository ID")
	}
	parts := strings.Split(repoID, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return TargetRecord{}, fmt.Errorf("invalid repository ID %q (expected org/model)", repoID)
	}
	if revision == "" {
		revision = DefaultRevision
	}
	return TargetRecord{Kind: KindRemote, ID: repoID, Revision: revision}, nil
}

// NewLocalTarget builds a record for a local model directory. The path is
// made absolute and cleaned so the same directory always produces the same
// identity.
func NewLocalTarget(rawPath string) (TargetRecord, error) {
	abs, err := filepath.Abs(rawPath)
	if err != nil {
		return TargetRecord{}, fmt.Errorf("resolving model directory %q: %w", rawPath, err)
	}
	return TargetRecord{Kind: KindLocal, ID: filepath.Clean(abs)}, nil
}

// CanonicalKey derives the stable registry key for this target. The key
// doubles as the storage location relative to the storage root.
//
// Remote:  hf/{org}/{model}@{revision}
// Local:   local/{name}_{shortHash8}
//
// contentHash is the aggregate hash of the target's current supported file
// set; only local keys embed it, so the same logical directory maps to the
// same storage location even if its path changes, and two directories with
// the same name never collide.
func (t TargetRecord) CanonicalKey(contentHash string) (string, error) {
	switch t.Kind {
	case KindRemote:
		return fmt.Sprintf("hf/%s@%s", t.ID, t.Revision), nil
	case KindLocal:
		name := filepath.Base(t.ID)
		return fmt.Sprintf("local/%s_%s", name, ShortHash(contentHash)), nil
	case KindUnknown:
		return "", fmt.Errorf("cannot derive key for unknown target kind")
	default:
		return "", fmt.Errorf("unhandled target kind %d", t.Kind)
	}
}

// DisplayName returns the identifier shown to users in messages and errors.
func (t TargetRecord) DisplayName() string {
	if t.Kind == KindRemote && t.Revision != "" {
		return t.ID + "@" + t.Revision
	}
	return t.ID
}

// Info converts the record to its persisted form.
func (t TargetRecord) Info() store.TargetInfo {
	info := store.TargetInfo{Type: t.Kind.String(), ID: t.ID}
	if t.Kind == KindRemote {
		info.Revision = t.Revision
	}
	return info
}
