package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"
)

// MemoryVault is an in-memory implementation of the Vault interface, useful
// for testing. Safe for concurrent use.
type MemoryVault struct {
	mu    sync.RWMutex
	state []byte
}

// NewMemoryVault creates a new in-memory vault.
func NewMemoryVault() *MemoryVault {
	return &MemoryVault{}
}

var _ Vault = (*MemoryVault)(nil)

// PutState stores the archive, replacing any previous copy.
func (m *MemoryVault) PutState(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = data
	return nil
}

// GetState retrieves the stored archive.
func (m *MemoryVault) GetState(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.state == nil {
		return fmt.Errorf("no state archive stored")
	}
	if _, err := io.Copy(w, bytes.NewReader(m.state)); err != nil {
		return fmt.Errorf("failed to write archive: %w", err)
	}
	return nil
}

// ValidateSetup always succeeds for the in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}
