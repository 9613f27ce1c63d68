// Package main is the entry point for the autodb CLI.
// The CLI queries the database through the engine and talks to the controller.
package main

import (
	"os"

	"autodb/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
