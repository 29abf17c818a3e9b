package install

import (
	"errors"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

func TestInstallDeferredWithoutElevation(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/out/library.zip", []byte("rebuilt"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := util.WriteFile(fs, "/install/library.zip", []byte("live"), 0o644); err != nil {
		t.Fatalf("seed target: %v", err)
	}
	ins := &Installer{FS: fs, Elevated: func() bool { return false }}

	outcome, err := ins.Install("/out/library.zip", "/install/library.zip")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if outcome != OutcomeDeferred {
		t.Fatalf("expected deferred, got %q", outcome)
	}
	data, err := util.ReadFile(fs, "/install/library.zip")
	if err != nil || string(data) != "live" {
		t.Fatalf("target must stay untouched without elevation: %q err=%v", data, err)
	}
}

func TestInstallCopiesWhenElevated(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/out/library.zip", []byte("rebuilt"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := util.WriteFile(fs, "/install/library.zip", []byte("live"), 0o644); err != nil {
		t.Fatalf("seed target: %v", err)
	}
	ins := &Installer{FS: fs, Elevated: func() bool { return true }}

	outcome, err := ins.Install("/out/library.zip", "/install/library.zip")
	if err != nil {
		t.Fatalf("install: %v", err)
	}
	if outcome != OutcomeInstalled {
		t.Fatalf("expected installed, got %q", outcome)
	}
	data, err := util.ReadFile(fs, "/install/library.zip")
	if err != nil || string(data) != "rebuilt" {
		t.Fatalf("target content: %q err=%v", data, err)
	}
}

func TestInstallMissingArchive(t *testing.T) {
	fs := fsutil.NewMemFS()
	ins := &Installer{FS: fs, Elevated: func() bool { return true }}
	if _, err := ins.Install("/out/library.zip", "/install/library.zip"); err == nil {
		t.Fatalf("expected error for missing rebuilt archive")
	}
}

// denyWriteFS refuses writable opens, standing in for a protected target.
type denyWriteFS struct {
	billy.Filesystem
}

func (d denyWriteFS) OpenFile(name string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_WRONLY != 0 {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrPermission}
	}
	return d.Filesystem.OpenFile(name, flag, perm)
}

func TestInstallPermissionDenied(t *testing.T) {
	inner := fsutil.NewMemFS()
	if err := util.WriteFile(inner, "/out/library.zip", []byte("rebuilt"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	ins := &Installer{FS: denyWriteFS{inner}, Elevated: func() bool { return true }}

	_, err := ins.Install("/out/library.zip", "/install/library.zip")
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected install_permission_denied, got %v", err)
	}
}

func TestLaunchRequiresCommand(t *testing.T) {
	if err := Launch(""); err == nil {
		t.Fatalf("expected error for empty launch command")
	}
}
