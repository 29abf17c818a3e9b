package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/thgtheme/themekit/core/infra/buildinfo"
	"github.com/thgtheme/themekit/core/infra/config"
	"github.com/thgtheme/themekit/core/pipeline"
)

func main() {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "apply-overlay":
		runApplyOverlayCmd(args)
	case "pack-archive":
		runPackArchiveCmd(args)
	case "install-and-run":
		runInstallAndRunCmd(args)
	case "check":
		runCheckCmd(args)
	case "init":
		runInitCmd(args)
	case "version":
		fmt.Println(buildinfo.Info())
	default:
		usage()
		os.Exit(1)
	}
}

type flagSet struct {
	*flag.FlagSet
	config  *string
	jsonOut *bool
}

func newFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cfg := fs.String("config", "", "config file (default "+config.DefaultPath+")")
	jsonOut := fs.Bool("json", false, "print a json report")
	return &flagSet{FlagSet: fs, config: cfg, jsonOut: jsonOut}
}

func (fs *flagSet) ParseArgs(args []string) {
	if err := fs.Parse(args); err != nil {
		fail(err.Error())
	}
}

func loadPipeline(configPath string) (*pipeline.Pipeline, *config.Config) {
	cfg, err := config.Load(configPath)
	check(err)
	p, err := pipeline.New(cfg)
	check(err)
	return p, cfg
}

func printJSON(value any) {
	data, err := json.MarshalIndent(value, "", "  ")
	check(err)
	fmt.Println(string(data))
}

func usage() {
	fmt.Print(`themekit - overlay and repackage a TortoiseHg runtime archive

Usage:
  themekit apply-overlay [-config themekit.yaml] [-patchset patches.yaml] [-dry-run] [-json]
  themekit pack-archive [-config themekit.yaml] [-json]
  themekit install-and-run [-config themekit.yaml] [-no-launch] [-json]
  themekit check [-config themekit.yaml] [-json]
  themekit init <dir> [-force]
  themekit version

apply-overlay backs up the live archive, stages its contents, and copies
the patch set over them, dropping stale compiled artifacts. pack-archive
rebuilds the archive from the staging tree. install-and-run copies the
rebuilt archive into the installation (elevation required) and starts
the application; without elevation the copy is left to the operator and
the command still succeeds.
`)
}

func check(err error) {
	if err != nil {
		fail(err.Error())
	}
}

func fail(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
