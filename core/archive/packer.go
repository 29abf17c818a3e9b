package archive

import (
	"context"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/baseline"
	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// Packer rebuilds the runtime archive from a staging tree. It refuses a
// tree that fails the baseline check, and always deletes any pre-existing
// output so the rebuild is clean rather than an incremental update.
type Packer struct {
	FS        billy.Filesystem
	Codec     Codec
	Validator *baseline.Validator
}

// PackResult reports the written archive's entries.
type PackResult struct {
	Entries []string
}

// Pack validates stagingRoot, rebuilds archivePath from it, and confirms
// the written archive still lists the baseline sentinels. A gate failure
// or a missing tool leaves any pre-existing archive untouched.
func (p *Packer) Pack(ctx context.Context, stagingRoot, archivePath string) (*PackResult, error) {
	if err := p.Validator.Tree(p.FS, stagingRoot); err != nil {
		return nil, fmt.Errorf("staging tree: %w", err)
	}
	if err := p.Codec.Preflight(); err != nil {
		return nil, err
	}
	if err := p.removeExisting(archivePath); err != nil {
		return nil, err
	}
	if err := p.Codec.Pack(ctx, stagingRoot, archivePath); err != nil {
		return nil, err
	}
	entries, err := p.Codec.List(ctx, archivePath)
	if err != nil {
		return nil, fmt.Errorf("%w: verify listing: %v", ErrPackFailed, err)
	}
	if err := p.Validator.Entries(entries); err != nil {
		return nil, fmt.Errorf("packed archive: %w", err)
	}
	return &PackResult{Entries: entries}, nil
}

func (p *Packer) removeExisting(archivePath string) error {
	ok, err := fsutil.Exists(p.FS, archivePath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPackFailed, err)
	}
	if !ok {
		return nil
	}
	if err := p.FS.Remove(archivePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: remove stale archive: %v", ErrPackFailed, err)
	}
	return nil
}
