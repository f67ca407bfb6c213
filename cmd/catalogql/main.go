// Package main is the catalogql command line.
//
// Commands:
//   - query: fetch one page of an entity
//   - count: count the rows matching a filter
//   - compile: print the SQL for a request without running it
//   - validate: check the CUE schema and request files
//   - seed: load YAML fixtures into the database
//   - test: run query scenarios against an in-memory database
//
// Settings come from catalogql.yaml (found upward from the working
// directory), CATALOGQL_* environment variables and global flags.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/catalogql/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(cli.GetExitCode(err))
	}
}
