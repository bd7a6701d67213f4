// Command gotpb searches The Pirate Bay from the command line, or serves the
// same operations over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: gotpb <command> [flags] [args]

commands:
  search [-cat id] [-sort field] [-asc] [-page n] [-json] [text]
  top100 [-cat id] [-48h] [-json]
  torrent [-json] <id>
  files [-json] <id>
  categories [-json]
  serve [-port port]
`

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"search":     runSearch,
	"top100":     runTop100,
	"torrent":    runTorrent,
	"files":      runFiles,
	"categories": runCategories,
	"serve":      runServe,
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}

func run(args []string, errOut io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "help" {
		fmt.Fprint(errOut, usage)
		return 2
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(errOut, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	a, err := initializeApp()
	if err != nil {
		fmt.Fprintf(errOut, "gotpb: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 2
		}
		fmt.Fprintf(errOut, "gotpb: %v\n", err)
		return 1
	}
	return 0
}
