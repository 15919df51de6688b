package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/icco/cinerank/handlers"
	"github.com/icco/cinerank/lib/config"
	"github.com/icco/cinerank/lib/db"
	"github.com/icco/cinerank/lib/export"
	"github.com/icco/cinerank/lib/pipeline"
	"github.com/icco/cinerank/lib/prompt"
	"github.com/icco/cinerank/lib/tmdb"
	"github.com/icco/cinerank/lib/validation"
)

const usage = `Usage: cinerank <command> [flags]

Commands:
  run      fetch, rank and export the best or worst films of some genres
  genres   list the TMDb movie genres
  analyze  validate, summarise and re-export a JSON export
  serve    browse stored runs over HTTP
`

// errUsage marks bad command lines; they exit with status 2 like
// validation errors.
var errUsage = errors.New("usage error")

type app struct {
	cfg    config.Config
	logger *slog.Logger
	stdin  io.Reader
	stdout io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitCode(err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(stderr, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})))
	a := &app{cfg: cfg, logger: slog.Default(), stdin: stdin, stdout: stdout}

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	switch args[0] {
	case "run":
		err = a.runCmd(ctx, args[1:])
	case "genres":
		err = a.genresCmd(ctx, args[1:])
	case "analyze":
		err = a.analyzeCmd(ctx, args[1:])
	case "serve":
		err = a.serveCmd(ctx, args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprint(stderr, usage)
		err = fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		a.logger.Error("Command failed", slog.String("command", args[0]), slog.Any("error", err))
		return exitCode(err)
	}
	return 0
}

func exitCode(err error) int {
	if errors.Is(err, errUsage) || errors.Is(err, validation.ErrInvalid) {
		return 2
	}
	return 1
}

func (a *app) newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stdout)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

func (a *app) tmdbClient() (*tmdb.Client, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	tc := a.cfg.TMDb()
	tc.HTTPClient = &http.Client{Timeout: a.cfg.HTTPTimeout}
	return tmdb.NewClient(tc, a.logger), nil
}

func (a *app) runCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("run")
	genres := fs.String("genres", "all", "comma separated genre ids, or all")
	from := fs.String("from", "", "first release date, YYYY-MM-DD")
	to := fs.String("to", "", "last release date, YYYY-MM-DD")
	top := fs.Int("top", prompt.DefaultTopN, "number of films to keep")
	worst := fs.Bool("worst", false, "rank the worst films instead of the best")
	interactive := fs.Bool("interactive", false, "ask for the parameters on the terminal")
	partial := fs.Bool("partial", false, "keep going when a genre fails")
	formats := fs.String("formats", "all", "export formats: json,csv,txt,xlsx,charts,sqlite or all")
	out := fs.String("out", a.cfg.OutputDir, "output directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	wanted, err := export.ParseFormats(*formats)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	client, err := a.tmdbClient()
	if err != nil {
		return err
	}

	opts := pipeline.Options{TopN: *top, Descending: !*worst, AllowPartial: *partial}
	var p *prompt.Prompter
	if *interactive {
		list, err := client.Genres(ctx)
		if err != nil {
			return err
		}
		p = prompt.New(a.stdin, a.stdout)
		params, err := p.Ask(list)
		if err != nil {
			return err
		}
		opts.Queries = pipeline.Queries(params.GenreIDs, params.DateFrom, params.DateTo)
		opts.TopN = params.TopN
		opts.Descending = params.Descending
	} else {
		ids, err := a.genreIDs(ctx, client, *genres)
		if err != nil {
			return err
		}
		opts.Queries = pipeline.Queries(ids, *from, *to)
	}

	res, err := pipeline.Run(ctx, client, opts, a.logger)
	if err != nil {
		return err
	}
	if err := export.WriteListing(a.stdout, res.Ranked, opts.Descending); err != nil {
		return err
	}
	if err := export.WriteSummary(a.stdout, res.Summary); err != nil {
		return err
	}
	for _, f := range res.Failures {
		fmt.Fprintf(a.stdout, "Género %d omitido: %v\n", f.Query.GenreID, f.Err)
	}

	if p != nil {
		if wanted, err = p.SaveFormats(); err != nil {
			return err
		}
	}
	return a.export(ctx, *out, export.ReportFromResult(res), wanted)
}

// genreIDs parses the -genres flag; "all" asks TMDb for the full list.
func (a *app) genreIDs(ctx context.Context, client *tmdb.Client, s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		list, err := client.Genres(ctx)
		if err != nil {
			return nil, err
		}
		ids := make([]int, len(list))
		for i, g := range list {
			ids[i] = g.ID
		}
		return ids, nil
	}

	var ids []int
	for _, part := range strings.Split(s, ",") {
		id, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || id <= 0 {
			return nil, validation.Invalid("genres", part, "must be a positive integer")
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *app) export(ctx context.Context, dir string, r export.Report, formats []export.Format) error {
	if len(formats) == 0 {
		return nil
	}
	paths, err := export.New(dir, a.logger).Export(ctx, r, formats)
	if err != nil {
		return err
	}
	for _, p := range paths {
		fmt.Fprintf(a.stdout, "Archivo guardado: %s\n", p)
	}
	return nil
}

func (a *app) genresCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("genres")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	client, err := a.tmdbClient()
	if err != nil {
		return err
	}
	list, err := client.Genres(ctx)
	if err != nil {
		return err
	}
	for _, g := range list {
		fmt.Fprintf(a.stdout, "%d\t%s\n", g.ID, g.Name)
	}
	return nil
}

func (a *app) analyzeCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("analyze")
	in := fs.String("in", "", "JSON export to analyze")
	formats := fs.String("formats", "txt,csv,charts,xlsx", "export formats")
	out := fs.String("out", a.cfg.OutputDir, "output directory")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *in == "" {
		return fmt.Errorf("%w: -in is required", errUsage)
	}
	wanted, err := export.ParseFormats(*formats)
	if err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	records, rejected, err := export.LoadJSONFile(*in)
	if err != nil {
		return err
	}
	for _, r := range rejected {
		a.logger.Warn("Discarding invalid record", slog.Int("index", r.Index), slog.Any("error", r.Err))
	}

	report, err := export.ReportFromRecords(records)
	if err != nil {
		return err
	}
	dups := len(records) - len(report.Records)
	fmt.Fprintf(a.stdout, "%d películas válidas, %d descartadas, %d repetidas\n", len(report.Records), len(rejected), dups)

	if err := export.WriteListing(a.stdout, report.Records, true); err != nil {
		return err
	}
	if err := export.WriteSummary(a.stdout, report.Summary); err != nil {
		return err
	}
	return a.export(ctx, *out, report, wanted)
}

func (a *app) serveCmd(ctx context.Context, args []string) error {
	fs := a.newFlagSet("serve")
	dbPath := fs.String("db", a.cfg.DBPath, "SQLite file written by the sqlite export")
	port := fs.String("port", a.cfg.Port, "port to listen on")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	gormDB, err := db.Open(*dbPath, a.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gormDB); err != nil {
			a.logger.Error("Failed to close database", slog.Any("error", err))
		}
	}()

	srv := &http.Server{
		Addr:              ":" + *port,
		Handler:           handlers.NewRouter(gormDB, a.logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server", slog.String("addr", srv.Addr), slog.String("db", *dbPath))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	a.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
