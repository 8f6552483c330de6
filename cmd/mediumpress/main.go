// Package main is the entry point for the mediumpress CLI.
package main

import (
	"os"

	"github.com/mschroeder/mediumpress/cmd/mediumpress/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
