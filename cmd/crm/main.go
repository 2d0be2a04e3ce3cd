package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/epicevents/crm/internal/app"
	"github.com/epicevents/crm/internal/cli"
	"github.com/epicevents/crm/internal/config"
	"github.com/spf13/pflag"
)

func main() {
	os.Exit(run())
}

func run() int {
	streams := app.Streams{In: os.Stdin, Out: os.Stdout, Err: os.Stderr}

	cfg, rest, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return printHelp(streams)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n\n%s", err, config.Usage())
		return cli.ExitUsage
	}
	if !app.NeedsDatabase(rest) {
		return printHelp(streams)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		return cli.ExitFailure
	}

	ctx := context.Background()
	a, err := app.NewApp(ctx, cfg, streams)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cli.ExitFailure
	}
	defer a.Close()

	return a.Run(ctx, rest)
}

func printHelp(streams app.Streams) int {
	code := app.PrintHelp(streams)
	fmt.Fprintf(streams.Out, "\nGlobal flags:\n%s", config.Usage())
	return code
}
