package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
)

func runPackArchiveCmd(args []string) {
	fs := newFlagSet("pack-archive")
	fs.ParseArgs(args)

	p, _ := loadPipeline(*fs.config)
	rep, err := p.PackArchive(context.Background())
	check(err)
	if *fs.jsonOut {
		printJSON(rep)
		return
	}
	fmt.Printf("%s packed %s, %d entries\n", color.GreenString("ok"), rep.Archive, len(rep.Entries))
}
