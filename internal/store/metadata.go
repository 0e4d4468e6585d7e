package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// SchemaVersion is the metadata document schema version this binary writes
// and the only version it accepts on load.
const SchemaVersion = 1

// MetadataFileName is the per-model metadata document file name.
const MetadataFileName = "metadata.json"

// Status is the overall verification status of a model.
type Status string

const (
	// StatusOk means every file requiring review in the most recent session
	// was approved.
	StatusOk Status = "ok"
	// StatusNeedsReview means at least one changed or new file has not been
	// approved yet.
	StatusNeedsReview Status = "needs_review"
)

// FileRecord is the state of one file as of the last approval. A FileRecord
// appears in the approved set only if a human explicitly approved that exact
// hash; rejected or skipped files are simply absent.
type FileRecord struct {
	Path       string    `json:"path"`
	Hash       string    `json:"hash"`
	Size       int64     `json:"size"`
	VerifiedAt time.Time `json:"verified_at"`
}

// TargetInfo identifies the verification target inside a persisted document.
type TargetInfo struct {
	Type     string `json:"type"` // "hf", "local", or "unknown"
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
}

// RunInfo captures the provenance of the session that produced the current
// metadata snapshot. It is informational only and never consulted for trust
// decisions.
type RunInfo struct {
	RunID       string     `json:"run_id"`
	Timestamp   time.Time  `json:"timestamp"`
	ToolVersion string     `json:"tool_version"`
	Target      TargetInfo `json:"target"`
	// RevisionSHA is the commit the named revision resolved to at
	// verification time, when the source provider reports one.
	RevisionSHA string `json:"revision_sha,omitempty"`
}

// MetadataDocument is the persisted verification state for one model.
type MetadataDocument struct {
	SchemaVersion int          `json:"schema_version"`
	Run           RunInfo      `json:"run"`
	ModelHash     string       `json:"model_hash"`
	LastVerified  *time.Time   `json:"last_verified"`
	OverallStatus Status       `json:"overall_status"`
	ApprovedFiles []FileRecord `json:"approved_files"`
}

// Initial returns a fresh document for a model with no prior record.
func Initial() *MetadataDocument {
	return &MetadataDocument{
		SchemaVersion: SchemaVersion,
		OverallStatus: StatusNeedsReview,
		ApprovedFiles: []FileRecord{},
	}
}

// ApprovedMap returns the approved files keyed by path.
func (d *MetadataDocument) ApprovedMap() map[string]FileRecord {
	m := make(map[string]FileRecord, len(d.ApprovedFiles))
	for _, f := range d.ApprovedFiles {
		m[f.Path] = f
	}
	return m
}

// LoadMetadata reads and validates a metadata document from the model
// directory. Returns ErrNotFound if no document exists, a SchemaError if the
// document declares an unsupported schema version, and a CorruptionError if
// it fails to parse.
func LoadMetadata(modelDir string) (*MetadataDocument, error) {
	path := filepath.Join(modelDir, MetadataFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("metadata for %s: %w", modelDir, ErrNotFound)
		}
		return nil, fmt.Errorf("reading metadata %s: %w", path, err)
	}

	var doc MetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &CorruptionError{Location: path, Err: err}
	}

	if doc.SchemaVersion != SchemaVersion {
		return nil, &SchemaError{Location: path, Got: doc.SchemaVersion, Want: SchemaVersion}
	}

	if doc.ApprovedFiles == nil {
		doc.ApprovedFiles = []FileRecord{}
	}

	return &doc, nil
}

// SaveMetadata writes a metadata document atomically: the document is written
// to a temporary file in the same directory and renamed into place, so a
// crash mid-write never leaves a half-written document behind.
func SaveMetadata(modelDir string, doc *MetadataDocument) error {
	if err := os.MkdirAll(modelDir, 0755); err != nil {
		return fmt.Errorf("creating model directory %s: %w", modelDir, err)
	}

	normalizeTimes(doc)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(modelDir, MetadataFileName)
	return writeFileAtomic(path, data)
}

// normalizeTimes converts all document timestamps to UTC so the persisted
// form is identical regardless of the machine's local zone.
func normalizeTimes(doc *MetadataDocument) {
	doc.Run.Timestamp = doc.Run.Timestamp.UTC()
	if doc.LastVerified != nil {
		utc := doc.LastVerified.UTC()
		doc.LastVerified = &utc
	}
	for i := range doc.ApprovedFiles {
		doc.ApprovedFiles[i].VerifiedAt = doc.ApprovedFiles[i].VerifiedAt.UTC()
	}
}

// writeFileAtomic writes data to path via a temp file and rename.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file to %s: %w", path, err)
	}

	return nil
}
