package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a metadata document, registry entry, or
// approved file copy does not exist at the expected location.
var ErrNotFound = errors.New("not found")

// SchemaError indicates a persisted document declares a schema version this
// binary does not support. It is never silently coerced or migrated.
type SchemaError struct {
	Location string
	Got      int
	Want     int
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("unsupported schema version %d in %s (supported: %d)", e.Got, e.Location, e.Want)
}

// CorruptionError indicates a persisted document failed to parse. Callers may
// treat the record as missing, but the original failure must be surfaced to
// the user rather than swallowed.
type CorruptionError struct {
	Location string
	Err      error
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf("corrupt document at %s: %v", e.Location, e.Err)
}

func (e *CorruptionError) Unwrap() error { return e.Err }
