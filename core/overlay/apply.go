package overlay

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/thgtheme/themekit/core/infra/fsutil"
)

// Applier copies a PatchSet into a staging tree. Steps run in declaration
// order and the first failure aborts the run; completed steps are not rolled
// back, the tree is simply re-extracted on the next run.
type Applier struct {
	Patches *PatchSet
}

// Result reports what an overlay run changed.
type Result struct {
	Applied     int
	BytesCopied int64
	Purged      []string
}

// Apply overlays every rule from sourceRoot into stagingRoot on fs,
// creating parent directories as needed and purging stale compiled
// artifacts for each target.
func (a *Applier) Apply(fs billy.Filesystem, sourceRoot, stagingRoot string) (*Result, error) {
	if a.Patches == nil || len(a.Patches.Patches) == 0 {
		return nil, fmt.Errorf("no patches configured")
	}
	res := &Result{}
	for _, rule := range a.Patches.Patches {
		src := fs.Join(sourceRoot, rule.Source)
		dst := fs.Join(stagingRoot, rule.Target)
		n, err := fsutil.CopyFile(fs, src, dst)
		if err != nil {
			return nil, &CopyError{Path: rule.Source, Err: err}
		}
		res.Applied++
		res.BytesCopied += n

		purged, err := a.purgeStale(fs, stagingRoot, rule.Target)
		if err != nil {
			return nil, err
		}
		res.Purged = append(res.Purged, purged...)
	}
	return res, nil
}

// purgeStale removes the compiled artifacts that would shadow an overlaid
// module, per the configured cache schemes. Non-module targets have no
// artifacts and are skipped.
func (a *Applier) purgeStale(fs billy.Filesystem, stagingRoot, target string) ([]string, error) {
	stem, ok := moduleStem(target)
	if !ok {
		return nil, nil
	}
	dir := path.Dir(target)
	var purged []string

	for _, scheme := range a.Patches.CacheSchemes {
		switch scheme {
		case SchemeLegacy:
			rel := joinRel(dir, stem+".pyc")
			removed, err := removeIfPresent(fs, fs.Join(stagingRoot, rel))
			if err != nil {
				return nil, &CopyError{Path: rel, Err: err}
			}
			if removed {
				purged = append(purged, rel)
			}
		case SchemePEP3147:
			rels, err := a.pep3147Artifacts(fs, stagingRoot, dir, stem)
			if err != nil {
				return nil, err
			}
			for _, rel := range rels {
				removed, err := removeIfPresent(fs, fs.Join(stagingRoot, rel))
				if err != nil {
					return nil, &CopyError{Path: rel, Err: err}
				}
				if removed {
					purged = append(purged, rel)
				}
			}
		}
	}
	return purged, nil
}

// pep3147Artifacts resolves the cache-directory artifacts for a module:
// exact names when tags are configured, otherwise any tag via glob.
func (a *Applier) pep3147Artifacts(fs billy.Filesystem, stagingRoot, dir, stem string) ([]string, error) {
	cacheDir := joinRel(dir, "__pycache__")
	if len(a.Patches.CacheTags) > 0 {
		rels := make([]string, 0, len(a.Patches.CacheTags))
		for _, tag := range a.Patches.CacheTags {
			rels = append(rels, joinRel(cacheDir, stem+"."+tag+".pyc"))
		}
		return rels, nil
	}
	pattern := fs.Join(stagingRoot, cacheDir, stem+".*.pyc")
	matches, err := util.Glob(fs, pattern)
	if err != nil {
		return nil, &CopyError{Path: cacheDir, Err: fmt.Errorf("glob cache dir: %w", err)}
	}
	rels := make([]string, 0, len(matches))
	for _, m := range matches {
		rels = append(rels, joinRel(cacheDir, path.Base(strings.ReplaceAll(m, `\`, "/"))))
	}
	return rels, nil
}

func removeIfPresent(fs billy.Filesystem, p string) (bool, error) {
	if err := fs.Remove(p); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("remove stale artifact: %w", err)
	}
	return true, nil
}

// moduleStem returns the module name for a .py target, or ok=false for
// targets that never have compiled artifacts.
func moduleStem(target string) (string, bool) {
	base := path.Base(target)
	if !strings.HasSuffix(base, ".py") {
		return "", false
	}
	return strings.TrimSuffix(base, ".py"), true
}

func joinRel(dir, name string) string {
	if dir == "." || dir == "" {
		return name
	}
	return dir + "/" + name
}
