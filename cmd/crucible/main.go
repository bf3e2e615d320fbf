// Package main provides the entry point for the crucible CLI.
package main

import (
	"os"

	"github.com/Moonsong-Labs/crucible/internal/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cmd.Version = version
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
