// Package main provides the entry point for the docsign CLI.
package main

import (
	"context"
	"os"

	"github.com/mrz1836/docsign/internal/cli"
)

// Set via ldflags at build time.
//
//nolint:gochecknoglobals // build metadata
var (
	version = ""
	commit  = ""
	date    = ""
)

func main() {
	ctx := context.Background()
	os.Exit(cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date}))
}
