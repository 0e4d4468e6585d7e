package vault

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemVault stores the state archive as a single file under a root
// directory, typically on removable or network-mounted storage.
type FileSystemVault struct {
	root string
}

// NewFileSystemVault creates a filesystem vault rooted at the given path.
func NewFileSystemVault(root string) (*FileSystemVault, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create vault directory: %w", err)
	}
	return &FileSystemVault{root: root}, nil
}

var _ Vault = (*FileSystemVault)(nil)

// PutState writes the archive via a temp file and rename so a concurrent
// reader never observes a partial archive.
func (v *FileSystemVault) PutState(r io.Reader) error {
	dest := filepath.Join(v.root, StateObjectName)

	tmp, err := os.CreateTemp(v.root, "."+StateObjectName+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing archive: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming archive into place: %w", err)
	}
	return nil
}

// GetState copies the stored archive to w.
func (v *FileSystemVault) GetState(w io.Writer) error {
	src := filepath.Join(v.root, StateObjectName)

	f, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("reading archive: %w", err)
	}
	return nil
}

// ValidateSetup verifies the vault root is a writable directory.
func (v *FileSystemVault) ValidateSetup() error {
	info, err := os.Stat(v.root)
	if err != nil {
		return fmt.Errorf("vault root inaccessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("vault root %s is not a directory", v.root)
	}

	probe, err := os.CreateTemp(v.root, ".probe-*")
	if err != nil {
		return fmt.Errorf("vault root not writable: %w", err)
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}
