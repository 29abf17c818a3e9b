// Package pipeline sequences the repackaging stages: backup, staging,
// overlay, pack, and install. Stages run strictly in order and the first
// failure aborts the run.
package pipeline

import (
	"context"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"

	"github.com/thgtheme/themekit/core/archive"
	"github.com/thgtheme/themekit/core/backup"
	"github.com/thgtheme/themekit/core/baseline"
	"github.com/thgtheme/themekit/core/infra/config"
	"github.com/thgtheme/themekit/core/infra/fsutil"
	"github.com/thgtheme/themekit/core/infra/logging"
	"github.com/thgtheme/themekit/core/install"
	"github.com/thgtheme/themekit/core/overlay"
)

// Pipeline wires the stage components over one filesystem. Fields are
// exported so callers can assemble a pipeline over any backend.
type Pipeline struct {
	FS        billy.Filesystem
	Cfg       *config.Config
	Codec     archive.Codec
	Validator *baseline.Validator
	Patches   *overlay.PatchSet
	Installer *install.Installer
}

// New builds a production pipeline from cfg: the host filesystem, the
// configured archive codec, and the configured patch set.
func New(cfg *config.Config) (*Pipeline, error) {
	patches, err := overlay.Load(cfg.PatchSet)
	if err != nil {
		return nil, fmt.Errorf("patchset: %w", err)
	}
	fs := fsutil.NewOSFS()
	p := &Pipeline{
		FS:        fs,
		Cfg:       cfg,
		Validator: baseline.New(cfg.Sentinels),
		Patches:   patches,
		Installer: install.New(fs),
	}
	if cfg.Tool.Codec == config.CodecZip {
		p.Codec = archive.NewZipCodec(fs)
	} else {
		p.Codec = archive.NewSevenZip(cfg.Tool.SevenZip)
	}
	return p, nil
}

// OverlayReport describes one apply-overlay run.
type OverlayReport struct {
	RunID       string        `json:"run_id"`
	Backup      backup.Status `json:"backup"`
	Extracted   bool          `json:"extracted"`
	Applied     int           `json:"applied"`
	Purged      []string      `json:"purged,omitempty"`
	BytesCopied int64         `json:"bytes_copied"`
}

// PackReport describes one pack-archive run.
type PackReport struct {
	RunID   string   `json:"run_id"`
	Archive string   `json:"archive"`
	Entries []string `json:"entries"`
}

// InstallReport describes one install-and-run run.
type InstallReport struct {
	RunID    string          `json:"run_id"`
	Outcome  install.Outcome `json:"outcome"`
	Target   string          `json:"target"`
	Launched bool            `json:"launched"`
}

// ApplyOverlay ensures the backup, readies the staging tree, applies the
// patch set, and re-validates the result.
func (p *Pipeline) ApplyOverlay(ctx context.Context) (*OverlayReport, error) {
	rep := &OverlayReport{RunID: uuid.NewString()}

	status, err := backup.New(p.FS).Ensure(p.Cfg.LiveArchive, p.Cfg.BackupPath)
	if err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}
	rep.Backup = status
	logging.Info("pipeline", "backup ready", "status", status, "path", p.Cfg.BackupPath)

	extracted, err := p.ensureStaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("staging: %w", err)
	}
	rep.Extracted = extracted
	if extracted {
		logging.Info("pipeline", "staging rebuilt from backup", "dir", p.Cfg.StagingDir)
	}

	applier := &overlay.Applier{Patches: p.Patches}
	res, err := applier.Apply(p.FS, p.Cfg.SourceRoot, p.Cfg.StagingDir)
	if err != nil {
		return nil, fmt.Errorf("overlay: %w", err)
	}
	rep.Applied = res.Applied
	rep.Purged = res.Purged
	rep.BytesCopied = res.BytesCopied

	if err := p.Validator.Tree(p.FS, p.Cfg.StagingDir); err != nil {
		return nil, fmt.Errorf("patched tree: %w", err)
	}
	logging.Info("pipeline", "overlay applied",
		"files", res.Applied, "purged", len(res.Purged), "bytes", res.BytesCopied)
	return rep, nil
}

// ensureStaging makes sure the staging tree holds a valid extracted
// archive. A missing or stale tree is rebuilt from the backup, which by
// this point always exists.
func (p *Pipeline) ensureStaging(ctx context.Context) (bool, error) {
	if err := p.Validator.Tree(p.FS, p.Cfg.StagingDir); err == nil {
		return false, nil
	}
	x := &archive.Extractor{FS: p.FS, Codec: p.Codec}
	if err := x.Extract(ctx, p.Cfg.BackupPath, p.Cfg.StagingDir); err != nil {
		return false, err
	}
	if err := p.Validator.Tree(p.FS, p.Cfg.StagingDir); err != nil {
		return false, fmt.Errorf("extracted tree: %w", err)
	}
	return true, nil
}

// PackArchive rebuilds the output archive from the staging tree.
func (p *Pipeline) PackArchive(ctx context.Context) (*PackReport, error) {
	packer := &archive.Packer{FS: p.FS, Codec: p.Codec, Validator: p.Validator}
	res, err := packer.Pack(ctx, p.Cfg.StagingDir, p.Cfg.OutputArchive)
	if err != nil {
		return nil, err
	}
	logging.Info("pipeline", "archive packed",
		"path", p.Cfg.OutputArchive, "entries", len(res.Entries))
	return &PackReport{
		RunID:   uuid.NewString(),
		Archive: p.Cfg.OutputArchive,
		Entries: res.Entries,
	}, nil
}

// InstallAndRun installs the rebuilt archive and, after a real install,
// starts the configured application. A failed launch is logged but does
// not fail the run; the install already succeeded.
func (p *Pipeline) InstallAndRun(allowLaunch bool) (*InstallReport, error) {
	rep := &InstallReport{RunID: uuid.NewString(), Target: p.Cfg.InstallTarget}

	outcome, err := p.Installer.Install(p.Cfg.OutputArchive, p.Cfg.InstallTarget)
	if err != nil {
		return nil, err
	}
	rep.Outcome = outcome
	switch outcome {
	case install.OutcomeInstalled:
		logging.Info("pipeline", "archive installed", "target", p.Cfg.InstallTarget)
	case install.OutcomeDeferred:
		logging.Warn("pipeline", "not elevated, copy the archive manually",
			"from", p.Cfg.OutputArchive, "to", p.Cfg.InstallTarget)
	}

	if outcome == install.OutcomeInstalled && allowLaunch && p.Cfg.Launch.Enabled {
		if err := install.Launch(p.Cfg.Launch.Command, p.Cfg.Launch.Args...); err != nil {
			logging.Warn("pipeline", "launch failed",
				"command", p.Cfg.Launch.Command, "err", err)
		} else {
			rep.Launched = true
			logging.Info("pipeline", "application launched", "command", p.Cfg.Launch.Command)
		}
	}
	return rep, nil
}
