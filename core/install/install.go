// Package install copies the rebuilt archive into the protected install
// location. Without elevation it never touches the target; the copy is
// deferred to a manual step and reported as such.
package install

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/infra/executil"
	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// ErrPermissionDenied reports a write that the OS refused even though the
// process believed it was elevated.
var ErrPermissionDenied = errors.New("install_permission_denied")

// Outcome tags how an Install call ended. Deferred is a success outcome;
// the operator finishes the copy by hand.
type Outcome string

const (
	// OutcomeInstalled means the target now holds the rebuilt archive.
	OutcomeInstalled Outcome = "installed"
	// OutcomeDeferred means no write was attempted for lack of elevation.
	OutcomeDeferred Outcome = "deferred"
)

// Installer writes the rebuilt archive over the live one.
type Installer struct {
	FS billy.Filesystem
	// Elevated overrides the platform privilege probe. Nil means use
	// the real one.
	Elevated func() bool
}

// New returns an Installer over fs using the platform elevation probe.
func New(fs billy.Filesystem) *Installer {
	return &Installer{FS: fs, Elevated: Elevated}
}

// Install copies archivePath over targetPath when the process is elevated.
// Without elevation it returns OutcomeDeferred and guarantees the target
// was not written.
func (i *Installer) Install(archivePath, targetPath string) (Outcome, error) {
	if _, err := i.FS.Stat(archivePath); err != nil {
		return "", fmt.Errorf("rebuilt archive %s: %w", archivePath, err)
	}
	probe := i.Elevated
	if probe == nil {
		probe = Elevated
	}
	if !probe() {
		return OutcomeDeferred, nil
	}
	if _, err := fsutil.CopyFile(i.FS, archivePath, targetPath); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return "", fmt.Errorf("%w: %s", ErrPermissionDenied, targetPath)
		}
		return "", fmt.Errorf("install %s: %w", targetPath, err)
	}
	return OutcomeInstalled, nil
}

// Launch starts command detached and returns without waiting. The child
// keeps running after this process exits.
func Launch(command string, args ...string) error {
	if command == "" {
		return fmt.Errorf("no launch command configured")
	}
	return executil.Start(command, args...)
}
