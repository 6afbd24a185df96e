package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"homeexpenses/internal/backend"
	"homeexpenses/internal/cli"
	"homeexpenses/internal/config"
	"homeexpenses/internal/log"
)

const usage = `Usage: homeexpenses <command> [flags] [args]

Commands:
  import [--dry-run] FILE...   parse CSV exports and merge them into the collection
  list [filter flags]          print stored expenses
  summary [filter flags]       print totals per group, category and month
  delete ID                    remove one expense
  clear --yes                  remove every expense
  presets                      print the quick-select date ranges
  serve                        run the HTTP API
  export                       write the report tabs to Google Sheets once

Filter flags:
  --from YYYY-MM-DD  --to YYYY-MM-DD  --preset KEY  --category NAME (repeatable)  --q TEXT
`

var errUsage = errors.New("usage")

func main() {
	ctx, stop := cli.SignalContext(context.Background())
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// app holds what every command needs.
type app struct {
	cfg    *config.Config
	logger *log.Logger
	be     *backend.Result
	out    io.Writer
	errOut io.Writer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return 2
		}
		return 0
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	cfg, err := cli.LoadConfig()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	// The server logs to stdout like the worker; other commands keep stdout
	// for their output.
	logOut := stderr
	if args[0] == "serve" {
		logOut = stdout
	}
	logger := cli.SetupLogger(logOut, cfg.LogLevel, log.ComponentApp)

	beCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		return 1
	}
	be, err := backend.NewFactory(logger.WithComponent(log.ComponentBackend)).Create(ctx, beCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err)
		return 1
	}
	defer func() {
		if err := be.Cleanup(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err)
		}
	}()

	a := &app{cfg: cfg, logger: logger, be: be, out: stdout, errOut: stderr}
	if err := cmd(ctx, a, args[1:]); err != nil {
		if errors.Is(err, errUsage) || errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(stderr, usage)
			return 2
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}
