// Package backup keeps a pristine copy of the runtime archive so the
// original can always be restored or re-extracted after overlays land.
package backup

import (
	"errors"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// ErrMissingSource reports that no file exists to back up.
var ErrMissingSource = errors.New("missing_source")

// Status tags the outcome of an Ensure call.
type Status string

const (
	// StatusCreated means the backup was written by this call.
	StatusCreated Status = "created"
	// StatusExists means a backup was already present and was left alone.
	StatusExists Status = "already_exists"
)

// Manager owns the backup copy of the live archive.
type Manager struct {
	FS billy.Filesystem
}

// New returns a Manager over fs.
func New(fs billy.Filesystem) *Manager {
	return &Manager{FS: fs}
}

// Ensure guarantees that backupPath holds a copy of sourcePath. An existing
// backup is never overwritten, whatever the current state of the source;
// the first copy taken is the one that counts.
func (m *Manager) Ensure(sourcePath, backupPath string) (Status, error) {
	if info, err := m.FS.Stat(backupPath); err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("backup path %s is a directory", backupPath)
		}
		return StatusExists, nil
	}

	if _, err := m.FS.Stat(sourcePath); err != nil {
		return "", fmt.Errorf("%w: %s", ErrMissingSource, sourcePath)
	}
	if _, err := fsutil.CopyFile(m.FS, sourcePath, backupPath); err != nil {
		return "", fmt.Errorf("write backup %s: %w", backupPath, err)
	}
	return StatusCreated, nil
}
