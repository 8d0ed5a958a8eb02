package main

import (
	"os"

	"github.com/meenmo/ratecurve/cmd/curve/commands"
)

// version is set during build.
var version = "dev"

func main() {
	// Errors are printed by the commands themselves.
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
