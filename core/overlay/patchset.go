// Package overlay applies a set of locally modified source files onto an
// extracted runtime staging tree and invalidates the compiled-cache
// artifacts that would otherwise shadow them.
package overlay

import (
	"fmt"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/thgtheme/themekit/core/infra/schema"
)

// Cache invalidation schemes. A runtime loads compiled bytecode in
// preference to source, so every overlaid module must have its stale
// artifacts removed under each scheme in effect.
const (
	// SchemeLegacy is the single-file convention: X.py compiles to a
	// sibling X.pyc.
	SchemeLegacy = "legacy"
	// SchemePEP3147 is the cache-directory convention:
	// __pycache__/X.<tag>.pyc next to X.py.
	SchemePEP3147 = "pep3147"
)

// Rule maps one modified source file onto its location inside the staging
// tree. Paths are slash-separated and relative; Target defaults to Source.
type Rule struct {
	Source string `yaml:"source"`
	Target string `yaml:"target,omitempty"`
}

// PatchSet is the typed overlay description loaded from patchset.yaml.
type PatchSet struct {
	Patches      []Rule   `yaml:"patches"`
	CacheSchemes []string `yaml:"cache_schemes,omitempty"`
	CacheTags    []string `yaml:"cache_tags,omitempty"`
}

// Load reads a patchset file; an empty path returns the built-in default
// set. The payload is checked against the embedded JSON Schema before
// unmarshalling.
func Load(path string) (*PatchSet, error) {
	if path == "" {
		return Default(), nil
	}
	// #nosec G304 -- patchset path is operator-provided.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patchset %s: %w", path, err)
	}
	return Parse(data)
}

// Parse parses patchset YAML bytes.
func Parse(data []byte) (*PatchSet, error) {
	if err := validatePatchSetSchema(data); err != nil {
		return nil, err
	}
	var ps PatchSet
	if err := yaml.Unmarshal(data, &ps); err != nil {
		return nil, fmt.Errorf("parse patchset: %w", err)
	}
	if err := ps.normalize(); err != nil {
		return nil, err
	}
	return &ps, nil
}

func validatePatchSetSchema(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("patchset is empty")
	}
	schemaBytes, err := schemaFS.ReadFile(patchSetSchemaFile)
	if err != nil {
		return fmt.Errorf("load patchset schema: %w", err)
	}
	var payload any
	if err := yaml.Unmarshal(data, &payload); err != nil {
		return fmt.Errorf("parse patchset: %w", err)
	}
	if err := schema.ValidateSchema("patchset", schemaBytes, payload); err != nil {
		return fmt.Errorf("validate patchset: %w", err)
	}
	return nil
}

// normalize fills defaulted fields and rejects rules that would land
// outside the staging tree.
func (ps *PatchSet) normalize() error {
	if len(ps.Patches) == 0 {
		return fmt.Errorf("patchset has no patches")
	}
	for i := range ps.Patches {
		r := &ps.Patches[i]
		src, err := cleanRelPath(r.Source)
		if err != nil {
			return fmt.Errorf("patch %d source %q: %w", i, r.Source, err)
		}
		r.Source = src
		if r.Target == "" {
			r.Target = r.Source
			continue
		}
		dst, err := cleanRelPath(r.Target)
		if err != nil {
			return fmt.Errorf("patch %d target %q: %w", i, r.Target, err)
		}
		r.Target = dst
	}
	if len(ps.CacheSchemes) == 0 {
		ps.CacheSchemes = []string{SchemeLegacy, SchemePEP3147}
	}
	for _, s := range ps.CacheSchemes {
		if s != SchemeLegacy && s != SchemePEP3147 {
			return fmt.Errorf("unknown cache scheme %q", s)
		}
	}
	return nil
}

// cleanRelPath normalizes to a slash-separated relative path that cannot
// escape its root.
func cleanRelPath(p string) (string, error) {
	p = strings.ReplaceAll(strings.TrimSpace(p), `\`, "/")
	if p == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.HasPrefix(p, "/") || strings.Contains(p, ":") {
		return "", fmt.Errorf("path must be relative")
	}
	p = path.Clean(p)
	if p == "." || p == ".." || strings.HasPrefix(p, "../") {
		return "", fmt.Errorf("path escapes tree")
	}
	return p, nil
}

// Default reproduces the fixed overlay the theme mod ships: the modified
// workbench and util modules, with both cache schemes invalidated.
func Default() *PatchSet {
	files := []string{
		"tortoisehg/hgqt/bugreport.py",
		"tortoisehg/hgqt/close_branch.py",
		"tortoisehg/hgqt/customtools.py",
		"tortoisehg/hgqt/filectxactions.py",
		"tortoisehg/hgqt/filelistview.py",
		"tortoisehg/hgqt/hgconfig.py",
		"tortoisehg/hgqt/hgignore.py",
		"tortoisehg/hgqt/htmldelegate.py",
		"tortoisehg/hgqt/p4pending.py",
		"tortoisehg/hgqt/qdelete.py",
		"tortoisehg/hgqt/qsci.py",
		"tortoisehg/hgqt/qtapp.py",
		"tortoisehg/hgqt/qtlib.py",
		"tortoisehg/hgqt/qtnetwork.py",
		"tortoisehg/hgqt/repotreeitem.py",
		"tortoisehg/hgqt/serve.py",
		"tortoisehg/hgqt/status.py",
		"tortoisehg/hgqt/theme.py",
		"tortoisehg/hgqt/topic.py",
		"tortoisehg/util/gpg.py",
		"tortoisehg/util/hgversion.py",
		"tortoisehg/util/i18n.py",
		"tortoisehg/util/menuthg.py",
		"tortoisehg/util/obsoleteutil.py",
		"tortoisehg/util/paths.py",
		"tortoisehg/util/thgstatus.py",
		"tortoisehg/util/typelib.py",
		"tortoisehg/util/wconfig.py",
	}
	ps := &PatchSet{
		Patches:      make([]Rule, 0, len(files)),
		CacheSchemes: []string{SchemeLegacy, SchemePEP3147},
	}
	for _, f := range files {
		ps.Patches = append(ps.Patches, Rule{Source: f, Target: f})
	}
	return ps
}
