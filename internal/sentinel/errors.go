package sentinel

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by source providers when a target or one of its
// files does not exist at the source.
var ErrNotFound = errors.New("not found")

// ErrAborted is returned when a verification session is abandoned before
// finalizing. No metadata is written in that case; the previous on-disk
// record remains authoritative.
var ErrAborted = errors.New("verification session aborted")

// ReadFailureError indicates the source provider could not supply a file's
// bytes. It is fatal to the session: no partial diff is ever produced from
// an incomplete file set.
type ReadFailureError struct {
	Target string
	Path   string
	Err    error
}

func (e *ReadFailureError) Error() string {
	return fmt.Sprintf("reading %s from %s: %v", e.Path, e.Target, e.Err)
}

func (e *ReadFailureError) Unwrap() error { return e.Err }

// TransportError indicates a remote listing or download failure. The core
// surfaces it unmodified; retry policy, if any, belongs to the provider.
type TransportError struct {
	Target string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s for %s: %v", e.Op, e.Target, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
