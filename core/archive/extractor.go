package archive

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// Extractor populates a staging tree from an archive. The destination is
// cleared first so a partial previous extraction is never reused.
type Extractor struct {
	FS    billy.Filesystem
	Codec Codec
}

// Extract resets destDir and unpacks archivePath into it. A missing
// decompression tool fails the call before destDir is touched.
func (e *Extractor) Extract(ctx context.Context, archivePath, destDir string) error {
	if err := e.Codec.Preflight(); err != nil {
		return err
	}
	ok, err := fsutil.Exists(e.FS, archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	if !ok {
		return fmt.Errorf("%w: archive not found: %s", ErrExtractionFailed, archivePath)
	}
	if err := fsutil.ResetDir(e.FS, destDir); err != nil {
		return fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return e.Codec.Extract(ctx, archivePath, destDir)
}
