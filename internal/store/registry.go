package store

import (
	"encoding/json"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"time"
)

// RegistryFileName is the registry index file name under the storage root.
const RegistryFileName = "registry.json"

// RegistryEntry maps a canonical target key to the storage location of its
// metadata document. Locations are slash-separated paths relative to the
// storage root, so a copied or mirrored root remains self-contained.
type RegistryEntry struct {
	TargetKey       string `json:"target_key"`
	StorageLocation string `json:"storage_location"`
}

// ListEntry is one row of a registry listing, combining the registry entry
// with summary fields read from the target's metadata document.
type ListEntry struct {
	TargetKey     string
	LastVerified  *time.Time
	OverallStatus Status
	ApprovedFiles []FileRecord
	OriginalPath  string // local targets only
}

type registryDoc struct {
	SchemaVersion int             `json:"schema_version"`
	Models        []RegistryEntry `json:"models"`
}

// Registry is the process-wide index of verified models. It owns the mapping
// from canonical target keys to on-disk metadata locations. All writes are
// per-operation atomic; there is no internal locking, and single-writer
// discipline per target is left to the caller.
type Registry struct {
	root string
	path string
}

// Open returns a Registry rooted at the given directory. The directory and
// registry file are created lazily on first Register.
func Open(root string) (*Registry, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	return &Registry{
		root: abs,
		path: filepath.Join(abs, RegistryFileName),
	}, nil
}

// Root returns the absolute storage root directory.
func (r *Registry) Root() string { return r.root }

// PathFor returns the absolute model directory for a storage location or
// canonical target key.
func (r *Registry) PathFor(location string) string {
	return filepath.Join(r.root, filepath.FromSlash(location))
}

// Close releases the registry handle. Writes are already per-operation
// atomic, so there is nothing to flush.
func (r *Registry) Close() error { return nil }

// Resolve returns the absolute storage location for a target key, or
// ErrNotFound if the key has never been registered.
func (r *Registry) Resolve(targetKey string) (string, error) {
	doc, err := r.load()
	if err != nil {
		return "", err
	}
	for _, e := range doc.Models {
		if e.TargetKey == targetKey {
			return r.PathFor(e.StorageLocation), nil
		}
	}
	return "", fmt.Errorf("target %s: %w", targetKey, ErrNotFound)
}

// Register records a target key and its storage location. The upsert is
// idempotent: re-registering an existing key updates it in place and keeps
// its position, new keys append in insertion order.
func (r *Registry) Register(targetKey, storageLocation string) error {
	doc, err := r.load()
	if err != nil {
		return err
	}

	entry := RegistryEntry{TargetKey: targetKey, StorageLocation: storageLocation}
	found := false
	for i, e := range doc.Models {
		if e.TargetKey == targetKey {
			doc.Models[i] = entry
			found = true
			break
		}
	}
	if !found {
		doc.Models = append(doc.Models, entry)
	}

	return r.save(doc)
}

// List returns a lazy, restartable sequence over all registered targets in
// insertion order. Each entry carries the summary fields from the target's
// metadata document; a target whose document cannot be read yields its error
// without aborting the rest of the listing.
func (r *Registry) List() iter.Seq2[ListEntry, error] {
	return func(yield func(ListEntry, error) bool) {
		doc, err := r.load()
		if err != nil {
			yield(ListEntry{}, err)
			return
		}

		for _, e := range doc.Models {
			entry, err := r.listEntry(e)
			if !yield(entry, err) {
				return
			}
		}
	}
}

func (r *Registry) listEntry(e RegistryEntry) (ListEntry, error) {
	modelDir := r.PathFor(e.StorageLocation)

	md, err := LoadMetadata(modelDir)
	if err != nil {
		return ListEntry{TargetKey: e.TargetKey}, fmt.Errorf("listing %s: %w", e.TargetKey, err)
	}

	entry := ListEntry{
		TargetKey:     e.TargetKey,
		LastVerified:  md.LastVerified,
		OverallStatus: md.OverallStatus,
		ApprovedFiles: md.ApprovedFiles,
	}

	if orig, err := LoadOriginalPath(modelDir); err == nil {
		entry.OriginalPath = orig
	}

	return entry, nil
}

// DeleteAll removes every registered entry and its backing storage, then the
// registry file itself. Irreversible; callers gate this behind explicit
// confirmation.
func (r *Registry) DeleteAll() error {
	doc, err := r.load()
	if err != nil {
		return err
	}

	for _, e := range doc.Models {
		modelDir := r.PathFor(e.StorageLocation)
		if err := os.RemoveAll(modelDir); err != nil {
			return fmt.Errorf("removing storage for %s: %w", e.TargetKey, err)
		}
	}

	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing registry file: %w", err)
	}

	return nil
}

// load reads the registry file, returning an empty document if it does not
// exist yet.
func (r *Registry) load() (*registryDoc, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &registryDoc{SchemaVersion: SchemaVersion}, nil
		}
		return nil, fmt.Errorf("reading registry %s: %w", r.path, err)
	}

	var doc registryDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptionError{Location: r.path, Err: err}
	}
	if doc.SchemaVersion != SchemaVersion {
		return nil, &SchemaError{Location: r.path, Got: doc.SchemaVersion, Want: SchemaVersion}
	}

	return &doc, nil
}

// save writes the registry file atomically.
func (r *Registry) save(doc *registryDoc) error {
	if err := os.MkdirAll(r.root, 0755); err != nil {
		return fmt.Errorf("creating storage root %s: %w", r.root, err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry: %w", err)
	}
	data = append(data, '\n')

	return writeFileAtomic(r.path, data)
}
