package baseline

import (
	"context"
	"errors"
	"testing"

	"github.com/go-git/go-billy/v5/util"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

func TestTreeValid(t *testing.T) {
	fs := fsutil.NewMemFS()
	for _, p := range []string{
		"/staging/mercurial/node.pyc",
		"/staging/encodings/aliases.pyc",
		"/staging/tortoisehg/hgqt/theme.py",
	} {
		if err := util.WriteFile(fs, p, []byte("x"), 0o644); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
	v := New(nil)
	if err := v.Tree(fs, "/staging"); err != nil {
		t.Fatalf("expected valid tree: %v", err)
	}
}

func TestTreeMissingSentinel(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/staging/mercurial/node.pyc", []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	v := New(nil)
	err := v.Tree(fs, "/staging")
	if err == nil {
		t.Fatalf("expected invalid tree")
	}
	if !errors.Is(err, ErrMissingSentinel) || !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected sentinel/validation kinds, got %v", err)
	}
	var se *SentinelError
	if !errors.As(err, &se) {
		t.Fatalf("expected SentinelError, got %T", err)
	}
	if len(se.Missing) != 1 || se.Missing[0] != "encodings/aliases.pyc" {
		t.Fatalf("unexpected missing list: %#v", se.Missing)
	}
}

func TestTreeMissingRoot(t *testing.T) {
	fs := fsutil.NewMemFS()
	v := New([]string{"mercurial/node.pyc"})
	err := v.Tree(fs, "/nowhere")
	if !errors.Is(err, ErrMissingSentinel) {
		t.Fatalf("expected missing sentinels for absent root, got %v", err)
	}
}

func TestTreeDirectorySentinelDoesNotCount(t *testing.T) {
	fs := fsutil.NewMemFS()
	if err := util.WriteFile(fs, "/staging/mercurial/node.pyc/placeholder", []byte("x"), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	v := New([]string{"mercurial/node.pyc"})
	if err := v.Tree(fs, "/staging"); !errors.Is(err, ErrMissingSentinel) {
		t.Fatalf("directory should not satisfy a sentinel, got %v", err)
	}
}

func TestEntries(t *testing.T) {
	v := New(nil)
	ok := []string{
		"mercurial/node.pyc",
		"./encodings/aliases.pyc",
		"tortoisehg/hgqt/theme.py",
	}
	if err := v.Entries(ok); err != nil {
		t.Fatalf("expected valid entries: %v", err)
	}
	if err := v.Entries([]string{"tortoisehg/hgqt/theme.py"}); err == nil {
		t.Fatalf("expected invalid entries")
	}
	if err := v.Entries([]string{`mercurial\node.pyc`, "encodings/aliases.pyc"}); err != nil {
		t.Fatalf("backslash entries should normalize: %v", err)
	}
}

type stubLister struct {
	entries []string
	err     error
}

func (s stubLister) List(context.Context, string) ([]string, error) {
	return s.entries, s.err
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	v := New(nil)

	full := stubLister{entries: []string{
		"mercurial/node.pyc",
		"encodings/aliases.pyc",
		"tortoisehg/hgqt/theme.py",
	}}
	if err := v.Archive(ctx, full, "/out/library.zip"); err != nil {
		t.Fatalf("complete listing should pass: %v", err)
	}

	partial := stubLister{entries: []string{"mercurial/node.pyc"}}
	err := v.Archive(ctx, partial, "/out/library.zip")
	if !errors.Is(err, ErrMissingSentinel) || !errors.Is(err, ErrValidationFailed) {
		t.Fatalf("expected missing sentinel from partial listing, got %v", err)
	}

	listErr := errors.New("tool crashed")
	if err := v.Archive(ctx, stubLister{err: listErr}, "/out/library.zip"); !errors.Is(err, listErr) {
		t.Fatalf("expected lister failure to propagate, got %v", err)
	}
}
