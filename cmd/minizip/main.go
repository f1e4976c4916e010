package main

import (
	"fmt"
	"os"

	"github.com/jmcdonald/minizip/internal/cli"
	"github.com/jmcdonald/minizip/internal/tui"
)

// version is set via ldflags at build time: -ldflags "-X main.version=x.y.z"
var version = "dev"

func main() {
	// TUI mode: minizip ui <archive>
	if len(os.Args) == 3 && os.Args[1] == "ui" {
		if err := tui.Run(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(cli.ExitCode(err))
		}
		return
	}

	// Use CLI for all other commands
	c := cli.New(version)
	c.Run()
}
