package fsutil

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

const defaultFileMode = 0o644

// Exists reports whether path exists on fs.
func Exists(fs billy.Filesystem, path string) (bool, error) {
	if _, err := fs.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	return true, nil
}

// EnsureParent creates the parent directory of path.
func EnsureParent(fs billy.Filesystem, path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// CopyFile copies src to dst on the same filesystem, creating dst's parent
// directories and preserving the source mode. Returns bytes written.
func CopyFile(fs billy.Filesystem, src, dst string) (int64, error) {
	info, err := fs.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}
	if info.IsDir() {
		return 0, fmt.Errorf("copy %s: is a directory", src)
	}
	mode := info.Mode().Perm()
	if mode == 0 {
		mode = defaultFileMode
	}
	in, err := fs.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()
	if err := EnsureParent(fs, dst); err != nil {
		return 0, err
	}
	out, err := fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}
	n, err := io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}
	return n, nil
}

// ResetDir removes dir and recreates it empty.
func ResetDir(fs billy.Filesystem, dir string) error {
	if err := util.RemoveAll(fs, dir); err != nil {
		return fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// ListFiles walks root and returns the sorted, slash-separated relative
// paths of every regular file beneath it. The listing order matches the
// entry order of packed archives.
func ListFiles(fs billy.Filesystem, root string) ([]string, error) {
	var files []string
	err := util.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
