// Command altsource validates, exports and serves AltSource documents.
//
// Usage:
//
//	altsource [-config file] [-log-level level] <command> [arguments]
//
// Commands:
//
//	init       write a new, empty document
//	validate   report problems that block publishing
//	export     write the normalized document
//	inventory  list a Package URL per app version
//	links      print the add-source deep links for a hosted source
//	fetch      download a hosted source and summarize it
//	probe      fill missing version sizes from the download hosts
//	serve      host the working document over HTTP
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/git-pkgs/altsource/internal/config"
)

type command struct {
	name    string
	summary string
	run     func(env *cliEnv, args []string) error
}

var commands = []command{
	{"init", "write a new, empty document", runInit},
	{"validate", "report problems that block publishing", runValidate},
	{"export", "write the normalized document", runExport},
	{"inventory", "list a Package URL per app version", runInventory},
	{"links", "print the add-source deep links for a hosted source", runLinks},
	{"fetch", "download a hosted source and summarize it", runFetch},
	{"probe", "fill missing version sizes from the download hosts", runProbe},
	{"serve", "host the working document over HTTP", runServe},
}

// errProblems makes a command exit 1 after it has printed its own report.
var errProblems = errors.New("problems found")

// cliEnv carries what every command needs.
type cliEnv struct {
	ctx    context.Context
	cfg    *config.Config
	log    *slog.Logger
	stdout io.Writer
	stderr io.Writer
	styles styles
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("altsource", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "YAML config file")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn, error")
	fs.Usage = func() { usage(stderr, fs) }
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		usage(stderr, fs)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	env := &cliEnv{
		ctx:    ctx,
		cfg:    cfg,
		log:    slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})),
		stdout: stdout,
		stderr: stderr,
		styles: newStyles(stdout),
	}
	slog.SetDefault(env.log)

	name := fs.Arg(0)
	for _, cmd := range commands {
		if cmd.name != name {
			continue
		}
		err := cmd.run(env, fs.Args()[1:])
		switch {
		case err == nil:
			return 0
		case errors.Is(err, errProblems):
			return 1
		case errors.Is(err, flag.ErrHelp):
			return 0
		case errors.Is(err, errUsage):
			return 2
		}
		fmt.Fprintln(stderr, env.styles.err.Render("error: "+err.Error()))
		return 1
	}

	fmt.Fprintf(stderr, "unknown command %q\n\n", name)
	usage(stderr, fs)
	return 2
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: altsource [flags] <command> [arguments]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.summary)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "flags:")
	fs.PrintDefaults()
}
