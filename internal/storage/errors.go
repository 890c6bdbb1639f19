package storage

import (
	"fmt"
	"time"
)

// CorruptionError means the store file exists but cannot be trusted:
// unreadable JSON, the wrong shape, or content that violates a memory
// invariant. The store never overwrites a corrupted file on its own.
type CorruptionError struct {
	Path   string
	Reason string
	Err    error // underlying parse or validation error, may be nil
}

func (e *CorruptionError) Error() string {
	return fmt.Sprintf(
		"memory store is corrupted: %s\n"+
			"  file: %s\n"+
			"  The file will not be modified automatically.\n"+
			"  Inspect it and fix or remove it, then retry",
		e.Reason, e.Path)
}

func (e *CorruptionError) Unwrap() error {
	return e.Err
}

// LockTimeoutError means the store lock could not be acquired within the
// configured timeout.
type LockTimeoutError struct {
	Path    string
	Timeout time.Duration
}

func (e *LockTimeoutError) Error() string {
	return fmt.Sprintf(
		"timed out after %v waiting for store lock\n"+
			"  lock file: %s\n"+
			"  Another process may be writing to the store.\n"+
			"  If that process crashed, run 'specsafe unlock' to clear the lock",
		e.Timeout, e.Path)
}

// IOError wraps a filesystem failure with the operation and path it hit
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}
