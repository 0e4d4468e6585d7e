package store_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"sentinel-go/internal/store"
	"sentinel-go/internal/testutil"
)

func sampleDocument() *store.MetadataDocument {
	verified := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	return &store.MetadataDocument{
		SchemaVersion: store.SchemaVersion,
		Run: store.RunInfo{
			RunID:       "run-42",
			Timestamp:   verified,
			ToolVersion: "0.2.0",
			Target:      store.TargetInfo{Type: "hf", ID: "org/model", Revision: "main"},
			RevisionSHA: "deadbeef",
		},
		ModelHash:     testutil.SHA256Hex([]byte("aggregate")),
		LastVerified:  &verified,
		OverallStatus: store.StatusOk,
		ApprovedFiles: []store.FileRecord{
			{Path: "config.py", Hash: testutil.SHA256Hex([]byte("b")), Size: 1, VerifiedAt: verified},
			{Path: "model.py", Hash: testutil.SHA256Hex([]byte("a")), Size: 1, VerifiedAt: verified},
		},
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	doc := sampleDocument()

	if err := store.SaveMetadata(dir, doc); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	loaded, err := store.LoadMetadata(dir)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if !reflect.DeepEqual(loaded, doc) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", loaded, doc)
	}
}

func TestSaveMetadataNormalizesTimes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	zone := time.FixedZone("PST", -8*3600)
	local := time.Date(2024, 1, 15, 2, 30, 0, 0, zone)

	doc := sampleDocument()
	doc.LastVerified = &local
	doc.Run.Timestamp = local
	doc.ApprovedFiles[0].VerifiedAt = local

	if err := store.SaveMetadata(dir, doc); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	loaded, err := store.LoadMetadata(dir)
	if err != nil {
		t.Fatalf("LoadMetadata() error = %v", err)
	}
	if loc := loaded.LastVerified.Location(); loc != time.UTC {
		t.Errorf("LastVerified zone = %v, want UTC", loc)
	}
	if !loaded.LastVerified.Equal(local) {
		t.Errorf("LastVerified = %v, not equal to original instant", loaded.LastVerified)
	}
}

func TestLoadMetadataMissing(t *testing.T) {
	t.Parallel()

	_, err := store.LoadMetadata(filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, store.ErrNotFound) {
		t.Errorf("LoadMetadata() error = %v, want ErrNotFound", err)
	}
}

func TestLoadMetadataCorrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, store.MetadataFileName)
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.LoadMetadata(dir)
	var corrupt *store.CorruptionError
	if !errors.As(err, &corrupt) {
		t.Fatalf("LoadMetadata() error = %v, want CorruptionError", err)
	}
	if corrupt.Location != path {
		t.Errorf("Location = %q, want %q", corrupt.Location, path)
	}
}

func TestLoadMetadataUnsupportedSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, store.MetadataFileName)
	if err := os.WriteFile(path, []byte(`{"schema_version": 2}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := store.LoadMetadata(dir)
	var schema *store.SchemaError
	if !errors.As(err, &schema) {
		t.Fatalf("LoadMetadata() error = %v, want SchemaError", err)
	}
	if schema.Got != 2 || schema.Want != store.SchemaVersion {
		t.Errorf("SchemaError = %+v", schema)
	}
}

func TestSaveMetadataLeavesNoTempFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := store.SaveMetadata(dir, sampleDocument()); err != nil {
		t.Fatalf("SaveMetadata() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != store.MetadataFileName {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name()
		}
		t.Errorf("directory contents = %v, want only %s", names, store.MetadataFileName)
	}
}

func TestInitialDocument(t *testing.T) {
	t.Parallel()

	doc := store.Initial()
	if doc.OverallStatus != store.StatusNeedsReview {
		t.Errorf("status = %s, want needs_review", doc.OverallStatus)
	}
	if doc.ApprovedFiles == nil || len(doc.ApprovedFiles) != 0 {
		t.Errorf("ApprovedFiles = %v, want empty non-nil slice", doc.ApprovedFiles)
	}
	if len(doc.ApprovedMap()) != 0 {
		t.Error("ApprovedMap() not empty")
	}
}
