package backup

import (
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/util"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

func TestEnsureCreatesBackup(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/install/library.zip", []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := New(fs)

	status, err := m.Ensure("/install/library.zip", "/install/library.zip.bak")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if status != StatusCreated {
		t.Fatalf("expected created, got %q", status)
	}
	data, err := util.ReadFile(fs, "/install/library.zip.bak")
	if err != nil || string(data) != "original" {
		t.Fatalf("backup content: %q err=%v", data, err)
	}
}

func TestEnsureNeverOverwrites(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/install/library.zip", []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := New(fs)
	if _, err := m.Ensure("/install/library.zip", "/install/library.zip.bak"); err != nil {
		t.Fatalf("first ensure: %v", err)
	}

	// The live archive changes after the first backup. Later calls must
	// keep the first copy, not the mutated archive.
	if err := util.WriteFile(fs, "/install/library.zip", []byte("patched"), 0o644); err != nil {
		t.Fatalf("mutate: %v", err)
	}
	status, err := m.Ensure("/install/library.zip", "/install/library.zip.bak")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if status != StatusExists {
		t.Fatalf("expected already_exists, got %q", status)
	}
	data, err := util.ReadFile(fs, "/install/library.zip.bak")
	if err != nil || string(data) != "original" {
		t.Fatalf("backup was overwritten: %q err=%v", data, err)
	}
}

func TestEnsureMissingSource(t *testing.T) {
	fs := fsutil.NewMemFS()
	m := New(fs)
	_, err := m.Ensure("/install/library.zip", "/install/library.zip.bak")
	if !errors.Is(err, ErrMissingSource) {
		t.Fatalf("expected missing_source, got %v", err)
	}
}

func TestEnsureExistingBackupWithoutSource(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/install/library.zip.bak", []byte("original"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	m := New(fs)

	// A present backup satisfies Ensure even when the source is gone.
	status, err := m.Ensure("/install/library.zip", "/install/library.zip.bak")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if status != StatusExists {
		t.Fatalf("expected already_exists, got %q", status)
	}
}
