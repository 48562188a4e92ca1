package main

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/fwojciec/battletally"
	"github.com/fwojciec/battletally/crawl"
	"github.com/fwojciec/battletally/fs"
	btslog "github.com/fwojciec/battletally/slog"
	"github.com/fwojciec/battletally/sqlite"
	"github.com/fwojciec/battletally/yaml"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the collect command.
func (c *CollectCmd) Run(deps *Dependencies) error {
	if c.Cache && c.DB == "" {
		return battletally.Errorf(battletally.EINVALID, "--cache requires --db")
	}

	groups, err := loadGroups(c.Config)
	if err != nil {
		return err
	}

	csvWriter := fs.NewReportWriter(c.OutDir)
	writers := []battletally.ReportWriter{
		btslog.NewLoggingReportWriter(csvWriter, "csv", deps.Logger),
	}

	fetcher := deps.Fetcher
	if c.DB != "" {
		db := sqlite.NewDB(c.DB)
		if err := db.Open(); err != nil {
			return fmt.Errorf("failed to open database at %q: %w", c.DB, err)
		}
		defer db.Close()

		writers = append(writers, btslog.NewLoggingReportWriter(sqlite.NewReportStore(db), "sqlite", deps.Logger))
		if c.Cache {
			cache := sqlite.NewDocumentCache(db, fetcher, deps.Format)
			cache.MaxAge = c.CacheMaxAge
			cache.Logger = deps.Logger
			fetcher = cache
		}
	}

	collector := &crawl.Collector{
		Lister:      deps.Lister,
		Fetcher:     fetcher,
		Extractor:   deps.Extractor,
		Classifier:  deps.Classifier,
		Field:       c.Field,
		BaseURL:     c.BaseURL,
		PageSize:    c.PageSize,
		Concurrency: c.Concurrency,
		Dedupe:      c.Dedupe,
	}

	progress := func(event crawl.ProgressEvent) {
		switch event.Type {
		case crawl.ProgressStarted:
			fmt.Fprintf(deps.Stdout, "[%s] %s: %d pages\n", event.Group, event.Category, event.Total)
		case crawl.ProgressCompleted:
			fmt.Fprintf(deps.Stdout, "[%s] Processing %d/%d: %s (%s)\n",
				event.Group, event.Completed, event.Total, event.Title, event.Outcome)
		case crawl.ProgressFailed:
			fmt.Fprintf(deps.Stdout, "[%s] Processing %d/%d: %s (%s)\n",
				event.Group, event.Completed, event.Total, event.Title, event.Outcome)
			fmt.Fprintf(deps.Stderr, "  skip %s: %v\n", event.Title, event.Error)
		case crawl.ProgressCategoryFailed:
			fmt.Fprintf(deps.Stderr, "[%s] %s: %v\n", event.Group, event.Category, event.Error)
		}
	}

	result, err := collector.Run(deps.Ctx, groups, progress)
	if result == nil {
		return err
	}

	// Completed records are written even when the run was interrupted.
	writeCtx := deps.Ctx
	if err != nil {
		writeCtx = context.WithoutCancel(deps.Ctx)
	}
	report := result.Report()
	for _, w := range writers {
		if werr := w.WriteReport(writeCtx, report); werr != nil {
			return werr
		}
	}

	if err != nil {
		fmt.Fprintf(deps.Stderr, "interrupted after %d battles, reports are partial\n", len(result.Records))
		return err
	}

	fmt.Fprintf(deps.Stdout, "\nProcessed %d battles (%d failed)\n", len(result.Records), len(result.Failures))
	fmt.Fprintf(deps.Stdout, "Wrote %s and %s\n", csvWriter.RecordsPath(), csvWriter.WinCountsPath())
	renderWinCounts(deps.Stdout, groups, result)

	if len(result.CategoryErrors) > 0 {
		fmt.Fprintln(deps.Stderr, "\nFailed categories:")
		for _, e := range result.CategoryErrors {
			fmt.Fprintf(deps.Stderr, "  %v\n", e)
		}
		return fmt.Errorf("%d categories failed; win counts are incomplete", len(result.CategoryErrors))
	}
	return nil
}

// renderWinCounts prints one row per group. Groups whose categories all
// failed are marked instead of reported as zero.
func renderWinCounts(w io.Writer, groups []battletally.Group, result *crawl.Result) {
	wins := make(map[string]int, len(result.WinCounts))
	for _, wc := range result.WinCounts {
		wins[wc.Group] = wc.Wins
	}
	failed := result.FailedGroups()

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Country", "Wins"})
	for _, g := range groups {
		if slices.Contains(failed, g.Name) {
			t.AppendRow(table.Row{g.Name, "n/a"})
			continue
		}
		t.AppendRow(table.Row{g.Name, wins[g.Name]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func loadGroups(path string) ([]battletally.Group, error) {
	if path == "" {
		return battletally.DefaultGroups(), nil
	}
	return yaml.LoadGroups(path)
}
