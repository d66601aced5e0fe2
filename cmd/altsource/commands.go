package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	_ "github.com/git-pkgs/altsource/all"
	"github.com/git-pkgs/altsource/fetch"
	"github.com/git-pkgs/altsource/internal/core"
	"github.com/git-pkgs/altsource/links"
	"github.com/git-pkgs/altsource/server"
	"github.com/git-pkgs/altsource/store"
)

var errUsage = errors.New("usage")

func newFlagSet(env *cliEnv, name, args string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	fs.Usage = func() {
		fmt.Fprintf(env.stderr, "usage: altsource %s [flags] %s\n", name, args)
		fs.PrintDefaults()
	}
	return fs
}

// parse parses args and requires exactly n positional arguments.
func parse(fs *flag.FlagSet, args []string, n int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() != n {
		fs.Usage()
		return errUsage
	}
	return nil
}

func readSource(path string) (core.Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.Source{}, err
	}
	src, err := core.Import(data)
	if err != nil {
		return core.Source{}, fmt.Errorf("%s: Invalid JSON file: %w", path, err)
	}
	return src, nil
}

func writeOutput(env *cliEnv, path string, data []byte) error {
	data = append(data, '\n')
	if path == "" || path == "-" {
		_, err := env.stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func runInit(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "init", "[file]")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return errUsage
	}
	path := env.cfg.Store.File
	if fs.NArg() > 0 {
		path = fs.Arg(0)
	}

	if _, err := os.Stat(path); err == nil && !*force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", path)
	}
	if err := store.NewFileStore(path).Save(env.ctx, core.NewSource()); err != nil {
		return err
	}
	fmt.Fprintln(env.stdout, env.styles.ok.Render("created "+path))
	return nil
}

func runValidate(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "validate", "<file>")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}

	problems := core.Validate(src)
	printProblems(env, fs.Arg(0), problems)
	if !problems.Valid() {
		return errProblems
	}
	return nil
}

func printProblems(env *cliEnv, label string, problems core.Problems) {
	if problems.Valid() {
		fmt.Fprintln(env.stdout, env.styles.ok.Render("✓ "+label+" is ready to publish"))
		return
	}
	fmt.Fprintln(env.stdout, env.styles.title.Render(fmt.Sprintf("%s: %d problem(s)", label, len(problems))))
	for _, p := range problems {
		fmt.Fprintln(env.stdout, env.styles.err.Render("  ✗ "+p))
	}
}

func runExport(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "export", "<file>")
	out := fs.String("o", "", "output file (default stdout)")
	compact := fs.Bool("compact", false, "omit indentation")
	strict := fs.Bool("strict", false, "refuse to export a document with problems")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}

	if problems := core.Validate(src); !problems.Valid() {
		if *strict {
			return problems.Err()
		}
		env.log.Warn("exporting document with problems", "problems", len(problems))
	}

	export := core.Export
	if *compact {
		export = core.ExportCompact
	}
	data, err := export(src)
	if err != nil {
		return err
	}
	return writeOutput(env, *out, data)
}

func runInventory(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "inventory", "<file>")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	for _, purl := range core.Inventory(src) {
		fmt.Fprintln(env.stdout, purl)
	}
	return nil
}

func runLinks(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "links", "<source-url>")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	all := links.BuildLinks(fs.Arg(0))
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		fmt.Fprintf(env.stdout, "%s %s\n", env.styles.title.Render(fmt.Sprintf("%-10s", name)), all[name])
	}
	return nil
}

func newClient(env *cliEnv) (*fetch.Fetcher, fetch.Client) {
	f := fetch.NewFetcher(fetch.WithUserAgent(env.cfg.UserAgent))
	return f, fetch.NewBreakerClient(f)
}

func runFetch(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "fetch", "<url>")
	out := fs.String("o", "", "save the fetched document to this file")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	f, client := newClient(env)
	defer f.Close()

	sc, err := fetch.NewSourceClient(client, 1)
	if err != nil {
		return err
	}
	env.log.Debug("fetching source", "url", fs.Arg(0))
	src, err := sc.FetchSource(env.ctx, fs.Arg(0))
	if err != nil {
		return err
	}

	printSummary(env, src)
	if *out != "" {
		if err := store.NewFileStore(*out).Save(env.ctx, src); err != nil {
			return err
		}
		fmt.Fprintln(env.stdout, env.styles.dim.Render("saved to "+*out))
	}

	problems := core.Validate(src)
	printProblems(env, fs.Arg(0), problems)
	if !problems.Valid() {
		return errProblems
	}
	return nil
}

func printSummary(env *cliEnv, src core.Source) {
	name := src.Name
	if name == "" {
		name = "(unnamed source)"
	}
	fmt.Fprintln(env.stdout, env.styles.title.Render(name))
	if src.Subtitle != "" {
		fmt.Fprintln(env.stdout, env.styles.dim.Render(src.Subtitle))
	}
	fmt.Fprintf(env.stdout, "%d app(s), %d news item(s), %d featured\n",
		len(src.Apps), len(src.News), len(core.FeaturedApps(src)))
	for _, app := range src.Apps {
		line := fmt.Sprintf("  %s (%s)", app.Name, app.BundleIdentifier)
		if v, ok := core.LatestVersion(app); ok {
			line += fmt.Sprintf(" %s, %s", v.Version, core.FormatSize(v.Size))
		}
		fmt.Fprintln(env.stdout, line)
	}
}

func runProbe(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "probe", "<file>")
	write := fs.Bool("w", false, "write sizes back to the file instead of printing the export")
	limit := fs.Int("concurrency", 8, "maximum concurrent requests")
	if err := parse(fs, args, 1); err != nil {
		return err
	}
	path := fs.Arg(0)
	src, err := readSource(path)
	if err != nil {
		return err
	}

	f, client := newClient(env)
	defer f.Close()

	result, err := fetch.NewProber(client, *limit).ProbeSizes(env.ctx, src)
	if err != nil {
		return err
	}
	for _, failure := range result.Failures {
		env.log.Warn("probe failed", "url", failure.URL, "error", failure.Err)
	}

	msg := fmt.Sprintf("updated %d version size(s)", result.Updated)
	if n := len(result.Failures); n > 0 {
		msg += fmt.Sprintf(", %d URL(s) failed", n)
	}

	var report io.Writer = env.stdout
	if !*write {
		report = env.stderr
		data, err := core.Export(result.Source)
		if err != nil {
			return err
		}
		if err := writeOutput(env, "", data); err != nil {
			return err
		}
	} else if err := store.NewFileStore(path).Save(env.ctx, result.Source); err != nil {
		return err
	}
	fmt.Fprintln(report, msg)
	return nil
}

func runServe(env *cliEnv, args []string) error {
	fs := newFlagSet(env, "serve", "")
	addr := fs.String("addr", env.cfg.Addr, "listen address")
	if err := parse(fs, args, 0); err != nil {
		return err
	}

	st, err := store.Open(env.ctx, env.cfg.Store)
	if err != nil {
		return err
	}
	if c, ok := st.(io.Closer); ok {
		defer func() { _ = c.Close() }()
	}
	env.log.Info("using store", "backend", env.cfg.Store.Backend)

	srv, err := server.New(env.ctx, st, server.WithLogger(env.log), server.WithAccessLog(env.stderr))
	if err != nil {
		return err
	}
	return srv.Listen(env.ctx, *addr)
}
