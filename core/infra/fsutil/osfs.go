package fsutil

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// baseOSFS is a billy.Filesystem over native, un-chrooted OS paths. The
// pipeline addresses the live archive, backup, staging tree and install
// target by absolute path, so a fixed chroot root does not fit.
type baseOSFS struct {
	osfs.ChrootOS
}

// Chroot returns a filesystem rooted at path.
//
//nolint:ireturn // billy.Filesystem is an interface; signature is dictated by upstream.
func (b *baseOSFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (b *baseOSFS) Root() string {
	return "/"
}

// NewOSFS returns a filesystem backed by the host, addressed by native paths.
func NewOSFS() billy.Filesystem {
	return &baseOSFS{}
}

// NewMemFS returns an in-memory filesystem. Tests run the whole pipeline
// against it.
func NewMemFS() billy.Filesystem {
	return memfs.New()
}
