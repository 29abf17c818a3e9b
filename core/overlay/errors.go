package overlay

import (
	"errors"
	"fmt"
)

// ErrCopyFailed indicates an overlay step could not copy a file or purge a
// stale artifact. The staging tree may hold earlier steps' results; the run
// is aborted without rollback.
var ErrCopyFailed = errors.New("copy_failed")

// CopyError carries the path at which the overlay aborted.
type CopyError struct {
	Path string
	Err  error
}

func (e *CopyError) Error() string {
	return fmt.Sprintf("copy_failed: %s: %v", e.Path, e.Err)
}

func (e *CopyError) Unwrap() error { return e.Err }

// Is reports ErrCopyFailed so callers can match the kind without the detail.
func (e *CopyError) Is(target error) bool { return target == ErrCopyFailed }
