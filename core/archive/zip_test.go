package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

func seedTree(t *testing.T, fs billy.Filesystem, files map[string]string) {
	t.Helper()
	for p, content := range files {
		if err := util.WriteFile(fs, p, []byte(content), 0o644); err != nil {
			t.Fatalf("seed %s: %v", p, err)
		}
	}
}

func TestZipRoundTrip(t *testing.T) {
	fs := fsutil.NewMemFS()
	seedTree(t, fs, map[string]string{
		"/staging/mercurial/node.pyc":       "node",
		"/staging/encodings/aliases.pyc":    "aliases",
		"/staging/tortoisehg/hgqt/theme.py": "themes = {}",
	})
	codec := NewZipCodec(fs)
	ctx := context.Background()

	if err := codec.Pack(ctx, "/staging", "/out/library.zip"); err != nil {
		t.Fatalf("pack: %v", err)
	}
	entries, err := codec.List(ctx, "/out/library.zip")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{
		"encodings/aliases.pyc",
		"mercurial/node.pyc",
		"tortoisehg/hgqt/theme.py",
	}
	if !reflect.DeepEqual(entries, want) {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	if err := codec.Extract(ctx, "/out/library.zip", "/fresh"); err != nil {
		t.Fatalf("extract: %v", err)
	}
	got, err := fsutil.ListFiles(fs, "/fresh")
	if err != nil {
		t.Fatalf("list fresh: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("round trip changed the file set: %#v", got)
	}
	data, err := util.ReadFile(fs, "/fresh/tortoisehg/hgqt/theme.py")
	if err != nil || string(data) != "themes = {}" {
		t.Fatalf("round trip changed content: %q err=%v", data, err)
	}
}

func TestZipPackDeterministic(t *testing.T) {
	fs := fsutil.NewMemFS()
	seedTree(t, fs, map[string]string{
		"/staging/b.py": "bbb",
		"/staging/a.py": "aaa",
	})
	codec := NewZipCodec(fs)
	ctx := context.Background()

	if err := codec.Pack(ctx, "/staging", "/one.zip"); err != nil {
		t.Fatalf("pack one: %v", err)
	}
	if err := codec.Pack(ctx, "/staging", "/two.zip"); err != nil {
		t.Fatalf("pack two: %v", err)
	}
	one, err := util.ReadFile(fs, "/one.zip")
	if err != nil {
		t.Fatalf("read one: %v", err)
	}
	two, err := util.ReadFile(fs, "/two.zip")
	if err != nil {
		t.Fatalf("read two: %v", err)
	}
	if !bytes.Equal(one, two) {
		t.Fatalf("repeated pack produced different bytes")
	}
}

func writeRawZip(t *testing.T, fs billy.Filesystem, path string, names map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	if err := util.WriteFile(fs, path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("seed zip: %v", err)
	}
}

func TestZipPackCanceledContext(t *testing.T) {
	fs := fsutil.NewMemFS()
	seedTree(t, fs, map[string]string{
		"/staging/mercurial/node.pyc": "node",
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewZipCodec(fs).Pack(ctx, "/staging", "/out/library.zip")
	if !errors.Is(err, ErrPackFailed) {
		t.Fatalf("expected pack failure on canceled context, got %v", err)
	}
}

func TestZipExtractRejectsTraversal(t *testing.T) {
	fs := fsutil.NewMemFS()
	writeRawZip(t, fs, "/evil.zip", map[string]string{
		"ok.py":          "fine",
		"../escaped.pyc": "bad",
	})
	codec := NewZipCodec(fs)
	err := codec.Extract(context.Background(), "/evil.zip", "/staging")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected extraction_failed, got %v", err)
	}
	if ok, _ := fsutil.Exists(fs, "/escaped.pyc"); ok {
		t.Fatalf("traversal entry escaped the staging tree")
	}
}

func TestZipListSkipsDirectories(t *testing.T) {
	fs := fsutil.NewMemFS()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	if _, err := zw.Create("pkg/"); err != nil {
		t.Fatalf("create dir entry: %v", err)
	}
	w, err := zw.Create("pkg/mod.py")
	if err != nil {
		t.Fatalf("create file entry: %v", err)
	}
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := util.WriteFile(fs, "/a.zip", buf.Bytes(), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}

	entries, err := NewZipCodec(fs).List(context.Background(), "/a.zip")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 || entries[0] != "pkg/mod.py" {
		t.Fatalf("unexpected entries: %#v", entries)
	}
}

func TestZipExtractMissingArchive(t *testing.T) {
	fs := fsutil.NewMemFS()
	err := NewZipCodec(fs).Extract(context.Background(), "/nope.zip", "/staging")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("expected extraction_failed, got %v", err)
	}
}

func TestSafeJoin(t *testing.T) {
	base := "/staging"
	for _, name := range []string{"../x", "..", "/abs", "", ".", "a/../../b"} {
		if _, err := safeJoin(base, name); err == nil {
			t.Fatalf("expected rejection for %q", name)
		}
	}
	got, err := safeJoin(base, "a/./b.py")
	if err != nil {
		t.Fatalf("safe join: %v", err)
	}
	if want := filepath.Join(base, "a", "b.py"); got != want {
		t.Fatalf("unexpected join: %q", got)
	}
}
