package main

import (
	"os"

	"github.com/learnadoodle/planner/cmd/doodle/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
