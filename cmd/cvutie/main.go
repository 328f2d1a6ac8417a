// Package main is the entry point for the cvutie CLI.
package main

import (
	"os"

	"github.com/cvutie/cvutie/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
