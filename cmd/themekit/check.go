package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/go-git/go-billy/v5"

	"github.com/thgtheme/themekit/core/archive"
	"github.com/thgtheme/themekit/core/baseline"
	"github.com/thgtheme/themekit/core/infra/config"
	"github.com/thgtheme/themekit/core/infra/executil"
	"github.com/thgtheme/themekit/core/infra/fsutil"
	"github.com/thgtheme/themekit/core/overlay"
)

type checkResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

func runCheckCmd(args []string) {
	fs := newFlagSet("check")
	fs.ParseArgs(args)

	cfg, err := config.Load(*fs.config)
	check(err)
	results := runChecks(context.Background(), cfg, fsutil.NewOSFS())

	failed := false
	for _, r := range results {
		if !r.OK {
			failed = true
		}
	}
	if *fs.jsonOut {
		printJSON(results)
	} else {
		for _, r := range results {
			mark := color.GreenString("ok  ")
			if !r.OK {
				mark = color.RedString("fail")
			}
			fmt.Printf("%s %-16s %s\n", mark, r.Name, r.Detail)
		}
	}
	if failed {
		os.Exit(1)
	}
}

// runChecks probes everything a pipeline run needs, in the order the
// stages consume it. A missing backup, a stale staging tree, or an
// unpacked output archive is not a failure; the pipeline produces all
// three. Archive listings are skipped when the archiver itself is
// unusable.
func runChecks(ctx context.Context, cfg *config.Config, hostFS billy.Filesystem) []checkResult {
	var results []checkResult
	add := func(name string, ok bool, detail string) {
		results = append(results, checkResult{Name: name, OK: ok, Detail: detail})
	}

	var codec archive.Codec
	archiverOK := true
	if cfg.Tool.Codec == config.CodecZip {
		codec = archive.NewZipCodec(hostFS)
		add("archiver", true, "built-in zip codec")
	} else {
		tool := cfg.Tool.SevenZip
		if tool == "" {
			tool = "7z"
		}
		codec = archive.NewSevenZip(tool)
		if path, err := executil.LookTool(tool); err != nil {
			archiverOK = false
			add("archiver", false, tool+" not found")
		} else {
			add("archiver", true, path)
		}
	}
	validator := baseline.New(cfg.Sentinels)

	// listed reports an archive that exists: entry listing when the
	// archiver works, bare presence otherwise.
	listed := func(name, path string) {
		if !archiverOK {
			add(name, true, path)
			return
		}
		if err := validator.Archive(ctx, codec, path); err != nil {
			add(name, false, err.Error())
			return
		}
		add(name, true, path)
	}

	if liveOK, _ := fsutil.Exists(hostFS, cfg.LiveArchive); liveOK {
		listed("live archive", cfg.LiveArchive)
	} else {
		add("live archive", false, cfg.LiveArchive)
	}

	if backupOK, _ := fsutil.Exists(hostFS, cfg.BackupPath); backupOK {
		add("backup", true, cfg.BackupPath)
	} else {
		add("backup", true, cfg.BackupPath+" (created on first run)")
	}

	if err := validator.Tree(hostFS, cfg.StagingDir); err != nil {
		add("staging", true, cfg.StagingDir+" (rebuilt from backup on apply-overlay)")
	} else {
		add("staging", true, cfg.StagingDir)
	}

	srcOK, _ := fsutil.Exists(hostFS, cfg.SourceRoot)
	add("overlay source", srcOK, cfg.SourceRoot)

	if ps, err := overlay.Load(cfg.PatchSet); err != nil {
		add("patchset", false, err.Error())
	} else {
		add("patchset", true, fmt.Sprintf("%d patch(es)", len(ps.Patches)))
	}

	if outOK, _ := fsutil.Exists(hostFS, cfg.OutputArchive); outOK {
		listed("output archive", cfg.OutputArchive)
	} else {
		add("output archive", true, cfg.OutputArchive+" (not packed yet)")
	}

	if cfg.Launch.Enabled {
		if path, err := executil.LookTool(cfg.Launch.Command); err != nil {
			add("launch command", false, cfg.Launch.Command+" not found")
		} else {
			add("launch command", true, path)
		}
	}
	return results
}
