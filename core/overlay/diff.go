package overlay

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// Change describes what applying one rule would do to the staging tree,
// without doing it.
type Change struct {
	Path         string `json:"path"`
	New          bool   `json:"new,omitempty"`
	AddedBytes   int    `json:"added_bytes"`
	RemovedBytes int    `json:"removed_bytes"`
}

// Unchanged reports a rule whose target already matches the source.
func (c Change) Unchanged() bool {
	return !c.New && c.AddedBytes == 0 && c.RemovedBytes == 0
}

// Plan computes per-rule change summaries for a dry run. Missing sources
// fail the same way Apply would; missing targets are reported as new files.
func (a *Applier) Plan(fs billy.Filesystem, sourceRoot, stagingRoot string) ([]Change, error) {
	if a.Patches == nil || len(a.Patches.Patches) == 0 {
		return nil, fmt.Errorf("no patches configured")
	}
	changes := make([]Change, 0, len(a.Patches.Patches))
	for _, rule := range a.Patches.Patches {
		src, err := util.ReadFile(fs, fs.Join(sourceRoot, rule.Source))
		if err != nil {
			return nil, &CopyError{Path: rule.Source, Err: err}
		}
		ch := Change{Path: rule.Target}
		cur, err := util.ReadFile(fs, fs.Join(stagingRoot, rule.Target))
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, &CopyError{Path: rule.Target, Err: err}
			}
			ch.New = true
			ch.AddedBytes = len(src)
			changes = append(changes, ch)
			continue
		}
		diffCfg := diffpatch.New()
		for _, d := range diffCfg.DiffMain(string(cur), string(src), false) {
			switch d.Type {
			case diffpatch.DiffInsert:
				ch.AddedBytes += len(d.Text)
			case diffpatch.DiffDelete:
				ch.RemovedBytes += len(d.Text)
			case diffpatch.DiffEqual:
			}
		}
		changes = append(changes, ch)
	}
	return changes, nil
}
