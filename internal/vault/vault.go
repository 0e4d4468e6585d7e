package vault

import "io"

// Vault stores a single off-machine copy of the verification state archive.
// Operations stream so large state archives never need to fit in memory.
// Known backends: filesystem, s3, memory (tests).
type Vault interface {
	// PutState stores the state archive, replacing any previous copy.
	PutState(r io.Reader) error

	// GetState retrieves the state archive and writes it to w.
	GetState(w io.Writer) error

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}

// StateObjectName is the name under which the archive is stored in every
// backend.
const StateObjectName = "state.tar.gz"
