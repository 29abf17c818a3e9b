// Package archive reads and writes the bundled runtime archive. The
// default codec drives the external 7-Zip tool the way the original
// packaging scripts did; a native zip codec backs tests and installs
// without the tool.
package archive

import (
	"context"
	"errors"
)

// Extraction guards. The runtime archive holds a few thousand compiled
// modules; anything past these caps is a corrupt or hostile file.
const (
	maxArchiveEntries = 20000
	maxEntryBytes     = 64 << 20
	maxTotalBytes     = 1 << 30
)

var (
	// ErrMissingTool indicates the external decompression tool is not
	// invocable. Raised before any filesystem mutation.
	ErrMissingTool = errors.New("missing_tool")
	// ErrExtractionFailed indicates the staging tree could not be populated
	// from the archive.
	ErrExtractionFailed = errors.New("extraction_failed")
	// ErrPackFailed indicates the rebuilt archive could not be written.
	ErrPackFailed = errors.New("pack_failed")
)

// Codec is one archive implementation: the external tool or the native
// zip writer.
type Codec interface {
	// Preflight resolves the codec's external collaborators. Callers run it
	// before clearing or deleting anything so a missing tool fails the
	// operation with the filesystem untouched.
	Preflight() error
	// Extract populates destDir with the archive's entries.
	Extract(ctx context.Context, archivePath, destDir string) error
	// Pack writes an archive holding every file under srcDir, entry names
	// relative to srcDir.
	Pack(ctx context.Context, srcDir, archivePath string) error
	// List returns the archive's file entries as sorted, slash-separated
	// relative paths.
	List(ctx context.Context, archivePath string) ([]string, error)
}
