package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"

	"github.com/thgtheme/themekit/core/infra/config"
	"github.com/thgtheme/themekit/core/overlay"
	"github.com/thgtheme/themekit/core/pipeline"
)

func runApplyOverlayCmd(args []string) {
	fs := newFlagSet("apply-overlay")
	patchset := fs.String("patchset", "", "patch list file overriding the config")
	dryRun := fs.Bool("dry-run", false, "show planned changes without writing")
	fs.ParseArgs(args)

	cfg, err := config.Load(*fs.config)
	check(err)
	if *patchset != "" {
		cfg.PatchSet = *patchset
	}
	p, err := pipeline.New(cfg)
	check(err)

	if *dryRun {
		printOverlayPlan(p, *fs.jsonOut)
		return
	}

	rep, err := p.ApplyOverlay(context.Background())
	check(err)
	if *fs.jsonOut {
		printJSON(rep)
		return
	}
	if rep.Extracted {
		fmt.Printf("staging rebuilt from %s\n", cfg.BackupPath)
	}
	fmt.Printf("%s %d file(s) applied, %d stale artifact(s) purged, %d byte(s) copied\n",
		color.GreenString("ok"), rep.Applied, len(rep.Purged), rep.BytesCopied)
}

// printOverlayPlan diffs the overlay sources against the staging tree
// without writing anything.
func printOverlayPlan(p *pipeline.Pipeline, jsonOut bool) {
	applier := &overlay.Applier{Patches: p.Patches}
	changes, err := applier.Plan(p.FS, p.Cfg.SourceRoot, p.Cfg.StagingDir)
	check(err)
	if jsonOut {
		printJSON(changes)
		return
	}
	for _, c := range changes {
		switch {
		case c.New:
			fmt.Printf("%s %s (+%d)\n", color.GreenString("A"), c.Path, c.AddedBytes)
		case c.Unchanged():
			fmt.Printf("= %s\n", c.Path)
		default:
			fmt.Printf("%s %s (+%d -%d)\n", color.YellowString("M"), c.Path, c.AddedBytes, c.RemovedBytes)
		}
	}
}
