// Package baseline decides whether a tree or archive is a complete runtime
// baseline. The check is a fixed set of sentinel paths that only exist in a
// correctly built runtime; a tree missing them is a partial extraction or
// the wrong directory, and packing it would produce a broken install.
package baseline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-git/go-billy/v5"
)

var (
	// ErrValidationFailed indicates a tree or archive flunked the baseline
	// check at a pipeline gate.
	ErrValidationFailed = errors.New("validation_failed")
	// ErrMissingSentinel is the detail kind: one or more sentinel paths are
	// absent.
	ErrMissingSentinel = errors.New("missing_sentinel")
)

// DefaultSentinels exist only in a complete bundled runtime: a compiled
// core-library module and a compiled interpreter-stdlib module.
var DefaultSentinels = []string{
	"mercurial/node.pyc",
	"encodings/aliases.pyc",
}

// SentinelError lists which sentinel paths were absent.
type SentinelError struct {
	Missing []string
}

func (e *SentinelError) Error() string {
	return fmt.Sprintf("missing_sentinel: %s", strings.Join(e.Missing, ", "))
}

// Is matches both kinds: a missing sentinel is what a failed validation
// gate reports.
func (e *SentinelError) Is(target error) bool {
	return target == ErrMissingSentinel || target == ErrValidationFailed
}

// Validator performs read-only baseline checks.
type Validator struct {
	Sentinels []string
}

// New returns a validator over the given sentinel paths, defaulting to
// DefaultSentinels.
func New(sentinels []string) *Validator {
	if len(sentinels) == 0 {
		sentinels = DefaultSentinels
	}
	return &Validator{Sentinels: sentinels}
}

// Tree checks that every sentinel exists as a file under root. A missing
// root reports every sentinel missing rather than an I/O error, since that
// is exactly the state that triggers re-extraction.
func (v *Validator) Tree(fs billy.Filesystem, root string) error {
	var missing []string
	for _, s := range v.Sentinels {
		info, err := fs.Stat(fs.Join(root, s))
		if err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, s)
				continue
			}
			return fmt.Errorf("stat sentinel %s: %w", s, err)
		}
		if info.IsDir() {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return &SentinelError{Missing: missing}
	}
	return nil
}

// Lister yields an archive's file entries. Archive codecs implement it.
type Lister interface {
	List(ctx context.Context, archivePath string) ([]string, error)
}

// Archive checks a packed archive's entry listing for the sentinel paths.
func (v *Validator) Archive(ctx context.Context, lister Lister, archivePath string) error {
	entries, err := lister.List(ctx, archivePath)
	if err != nil {
		return fmt.Errorf("list %s: %w", archivePath, err)
	}
	return v.Entries(entries)
}

// Entries checks an archive's entry listing for the sentinel paths.
func (v *Validator) Entries(entries []string) error {
	present := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		present[strings.TrimPrefix(strings.ReplaceAll(e, `\`, "/"), "./")] = struct{}{}
	}
	var missing []string
	for _, s := range v.Sentinels {
		if _, ok := present[s]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		return &SentinelError{Missing: missing}
	}
	return nil
}
