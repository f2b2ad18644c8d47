package main

import (
	"os"

	"fintrack/internal/commands"
)

func main() {
	if err := commands.NewRootCommand(nil).Execute(); err != nil {
		os.Exit(1)
	}
}
