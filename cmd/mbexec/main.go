// Package main is the entry point for the mbexec CLI.
package main

import (
	"os"

	"github.com/AndreyAkinshin/mbexec/internal/cli"
)

func main() {
	os.Exit(cli.Run(os.Args[1:]))
}
