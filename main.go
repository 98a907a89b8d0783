package main

import (
	"os"

	"github.com/covergate/covergate/pkg/cmd"
)

// overridden by ldflags at release build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	command := cmd.NewCovergateCommand(version, commit, date)
	if err := command.Execute(); err != nil {
		os.Exit(1)
	}
}
