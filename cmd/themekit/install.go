package main

import (
	"fmt"

	"github.com/fatih/color"

	"github.com/thgtheme/themekit/core/install"
)

func runInstallAndRunCmd(args []string) {
	fs := newFlagSet("install-and-run")
	noLaunch := fs.Bool("no-launch", false, "install without starting the application")
	fs.ParseArgs(args)

	p, cfg := loadPipeline(*fs.config)
	rep, err := p.InstallAndRun(!*noLaunch)
	check(err)
	if *fs.jsonOut {
		printJSON(rep)
		return
	}
	switch rep.Outcome {
	case install.OutcomeInstalled:
		fmt.Printf("%s installed %s\n", color.GreenString("ok"), rep.Target)
	case install.OutcomeDeferred:
		fmt.Printf("%s not elevated: copy %s over %s yourself\n",
			color.YellowString("deferred"), cfg.OutputArchive, rep.Target)
	}
	if rep.Launched {
		fmt.Printf("%s launched %s\n", color.GreenString("ok"), cfg.Launch.Command)
	}
}
