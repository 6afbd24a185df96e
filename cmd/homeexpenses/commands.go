package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"homeexpenses/internal/cli"
	"homeexpenses/internal/core"
	"homeexpenses/internal/filter"
	apphttp "homeexpenses/internal/http"
	"homeexpenses/internal/ingest"
	"homeexpenses/internal/log"
	gsheet "homeexpenses/internal/sheets/google"
	"homeexpenses/internal/worker"
)

type command func(ctx context.Context, a *app, args []string) error

var commands = map[string]command{
	"import":  runImport,
	"list":    runList,
	"summary": runSummary,
	"delete":  runDelete,
	"clear":   runClear,
	"presets": runPresets,
	"serve":   runServe,
	"export":  runExport,
}

func (a *app) location() *time.Location {
	loc, err := a.cfg.TimeLocation()
	if err != nil {
		return time.Local
	}
	return loc
}

func (a *app) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

type filterFlags struct {
	from, to, preset, query string
	categories              stringList
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.from, "from", "", "first day, YYYY-MM-DD")
	fs.StringVar(&f.to, "to", "", "last day, YYYY-MM-DD")
	fs.StringVar(&f.preset, "preset", "", "preset range key, see the presets command")
	fs.StringVar(&f.query, "q", "", "search description, category and subcategory")
	fs.Var(&f.categories, "category", "restrict to a category, repeatable")
}

// state builds the filter with the same rules as the HTTP query parameters.
func (f *filterFlags) state(loc *time.Location) (core.FilterState, error) {
	q := url.Values{}
	if f.from != "" {
		q.Set("start", f.from)
	}
	if f.to != "" {
		q.Set("end", f.to)
	}
	if f.preset != "" {
		q.Set("preset", f.preset)
	}
	if f.query != "" {
		q.Set("q", f.query)
	}
	for _, c := range f.categories {
		q.Add("category", c)
	}
	return apphttp.ParseFilter(q, loc, time.Now())
}

func runImport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("import")
	dryRun := fs.Bool("dry-run", false, "parse and preview without storing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: import needs at least one file", errUsage)
	}

	files := make([]ingest.File, 0, fs.NArg())
	for _, path := range fs.Args() {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("open %s: %w", path, err)
		}
		defer f.Close()
		files = append(files, ingest.File{Name: filepath.Base(path), Body: f})
	}

	p := cli.NewPrinter(a.out)
	svc := a.be.Service
	if *dryRun {
		pv, err := svc.Preview(ctx, files)
		if err != nil {
			return err
		}
		p.Preview(pv)
		return nil
	}

	res, err := svc.Import(ctx, files)
	if err != nil {
		return err
	}
	p.Imported(res)
	return nil
}

func runList(ctx context.Context, a *app, args []string) error {
	fs := a.flags("list")
	var ff filterFlags
	ff.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	state, err := ff.state(a.location())
	if err != nil {
		return err
	}
	all, err := a.be.Service.Expenses(ctx)
	if err != nil {
		return err
	}
	cli.NewPrinter(a.out).Expenses(filter.Apply(all, state))
	return nil
}

func runSummary(ctx context.Context, a *app, args []string) error {
	fs := a.flags("summary")
	var ff filterFlags
	ff.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	state, err := ff.state(a.location())
	if err != nil {
		return err
	}
	d, err := a.be.Service.Dashboard(ctx, state)
	if err != nil {
		return err
	}
	cli.NewPrinter(a.out).Dashboard(d)
	return nil
}

func runDelete(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: delete takes one id", errUsage)
	}
	if err := a.be.Service.Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted %s\n", args[0])
	return nil
}

func runClear(ctx context.Context, a *app, args []string) error {
	fs := a.flags("clear")
	yes := fs.Bool("yes", false, "confirm removing every expense")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !*yes {
		return errors.New("refusing to clear without --yes")
	}
	n, err := a.be.Service.Clear(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Removed %d expenses\n", n)
	return nil
}

func runPresets(_ context.Context, a *app, _ []string) error {
	for _, p := range filter.Presets(time.Now().In(a.location())) {
		r := "open"
		if p.Range.Start != nil && p.Range.End != nil {
			r = p.Range.Start.Format(apphttp.DateParam) + " to " + p.Range.End.Format(apphttp.DateParam)
		}
		fmt.Fprintf(a.out, "%-16s %-16s %s\n", p.Key, p.Label, r)
	}
	return nil
}

func runServe(ctx context.Context, a *app, _ []string) error {
	srv := apphttp.NewServer(":"+a.cfg.Port, a.be.Service, apphttp.Options{
		MaxUploadBytes:      a.cfg.MaxUploadBytes,
		ImportRatePerMinute: a.cfg.ImportRatePerMinute,
		CacheTTL:            a.cfg.CacheTTL,
		Location:            a.location(),
		Logger:              a.logger.WithComponent(log.ComponentHTTP),
	})
	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting homeexpenses server",
			"port", a.cfg.Port,
			"backend", a.cfg.StoreBackend,
			"events_enabled", a.be.EventsEnabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	cli.Shutdown(a.logger, 30*time.Second, srv.Shutdown)
	return nil
}

func runExport(ctx context.Context, a *app, _ []string) error {
	if err := a.cfg.ValidateExport(); err != nil {
		return err
	}
	client, err := gsheet.New(ctx, a.cfg.GoogleSpreadsheetID, a.cfg.ReportSheetPrefix)
	if err != nil {
		return fmt.Errorf("initialize Google Sheets client: %w", err)
	}
	w := worker.NewReportWorker(a.be.Service, client)
	if err := w.Export(ctx); err != nil {
		return err
	}
	d, err := a.be.Service.Dashboard(ctx, core.FilterState{})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported report for %d expenses to spreadsheet %s\n", d.Count, a.cfg.GoogleSpreadsheetID)
	return nil
}
