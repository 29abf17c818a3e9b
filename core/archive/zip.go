package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// Archive entries carry a fixed timestamp and mode so that packing the
// same staging tree twice produces byte-identical output.
var deterministicTimestamp = time.Date(1980, time.January, 1, 0, 0, 0, 0, time.UTC)

const packedEntryMode = 0o644

// ZipCodec reads and writes zip archives natively on a billy filesystem.
type ZipCodec struct {
	FS billy.Filesystem
}

// NewZipCodec returns a codec over fs.
func NewZipCodec(fs billy.Filesystem) *ZipCodec {
	return &ZipCodec{FS: fs}
}

// Preflight is a no-op; the zip codec has no external collaborator.
func (z *ZipCodec) Preflight() error { return nil }

// Extract unpacks archivePath into destDir. Entry paths are validated
// against traversal and capped in count and size.
func (z *ZipCodec) Extract(ctx context.Context, archivePath, destDir string) error {
	zr, closeFn, err := z.open(archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	defer closeFn()

	var (
		files   int
		totalSz int64
	)
	for _, entry := range zr.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		target, err := safeJoin(destDir, entry.Name)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
		}
		if strings.HasSuffix(entry.Name, "/") {
			if err := z.FS.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
			}
			continue
		}
		files++
		if files > maxArchiveEntries {
			return fmt.Errorf("%w: archive exceeds max entries (%d)", ErrExtractionFailed, maxArchiveEntries)
		}
		sz := int64(entry.UncompressedSize64)
		if sz < 0 || sz > maxEntryBytes {
			return fmt.Errorf("%w: entry too large: %s", ErrExtractionFailed, entry.Name)
		}
		totalSz += sz
		if totalSz > maxTotalBytes {
			return fmt.Errorf("%w: archive exceeds max size (%d bytes)", ErrExtractionFailed, int64(maxTotalBytes))
		}
		if err := z.writeEntry(entry, target); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrExtractionFailed, entry.Name, err)
		}
	}
	return nil
}

func (z *ZipCodec) writeEntry(entry *zip.File, target string) error {
	rc, err := entry.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	if err := fsutil.EnsureParent(z.FS, target); err != nil {
		return err
	}
	out, err := z.FS.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, packedEntryMode)
	if err != nil {
		return err
	}
	n, err := io.Copy(out, io.LimitReader(rc, maxEntryBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	// Headers lie sometimes; recheck the real size.
	if n > maxEntryBytes {
		return fmt.Errorf("entry too large")
	}
	return nil
}

// Pack writes a fresh archive whose entry set is exactly the files under
// srcDir, in sorted order with deterministic metadata.
func (z *ZipCodec) Pack(ctx context.Context, srcDir, archivePath string) error {
	files, err := fsutil.ListFiles(z.FS, srcDir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPackFailed, err)
	}
	if err := fsutil.EnsureParent(z.FS, archivePath); err != nil {
		return fmt.Errorf("%w: %v", ErrPackFailed, err)
	}
	out, err := z.FS.OpenFile(archivePath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPackFailed, err)
	}
	zw := zip.NewWriter(out)
	for _, rel := range files {
		if err = ctx.Err(); err != nil {
			break
		}
		if err = z.addEntry(zw, srcDir, rel); err != nil {
			break
		}
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPackFailed, err)
	}
	return nil
}

func (z *ZipCodec) addEntry(zw *zip.Writer, srcDir, rel string) error {
	hdr := &zip.FileHeader{
		Name:     rel,
		Method:   zip.Deflate,
		Modified: deterministicTimestamp,
	}
	hdr.SetMode(packedEntryMode)
	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return fmt.Errorf("add %s: %w", rel, err)
	}
	in, err := z.FS.Open(z.FS.Join(srcDir, filepath.FromSlash(rel)))
	if err != nil {
		return fmt.Errorf("open %s: %w", rel, err)
	}
	_, err = io.Copy(w, in)
	if cerr := in.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", rel, err)
	}
	return nil
}

// List returns the archive's file entries, sorted.
func (z *ZipCodec) List(ctx context.Context, archivePath string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	zr, closeFn, err := z.open(archivePath)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	entries := make([]string, 0, len(zr.File))
	for _, entry := range zr.File {
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		entries = append(entries, strings.ReplaceAll(entry.Name, `\`, "/"))
	}
	sort.Strings(entries)
	return entries, nil
}

func (z *ZipCodec) open(archivePath string) (*zip.Reader, func(), error) {
	f, err := z.FS.Open(archivePath)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive %s: %w", archivePath, err)
	}
	info, err := z.FS.Stat(archivePath)
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat archive %s: %w", archivePath, err)
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("read archive %s: %w", archivePath, err)
	}
	return zr, func() { f.Close() }, nil
}

// safeJoin resolves an archive entry name under base, rejecting absolute
// paths and traversal.
func safeJoin(base, name string) (string, error) {
	clean := filepath.Clean(strings.TrimSpace(filepath.FromSlash(name)))
	if clean == "." || clean == "" {
		return "", fmt.Errorf("invalid archive path: %s", name)
	}
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", fmt.Errorf("absolute archive path: %s", name)
	}
	target := filepath.Join(base, clean)
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", fmt.Errorf("invalid archive path: %s", name)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("invalid archive path: %s", name)
	}
	return target, nil
}
