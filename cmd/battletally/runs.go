package main

import (
	"fmt"
	"time"

	"github.com/fwojciec/battletally/sqlite"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Run executes the runs command.
func (c *RunsCmd) Run(deps *Dependencies) error {
	db := sqlite.NewDB(c.DB)
	if err := db.Open(); err != nil {
		return fmt.Errorf("failed to open database at %q: %w", c.DB, err)
	}
	defer db.Close()

	runs, err := sqlite.NewReportStore(db).FindRuns(deps.Ctx, sqlite.RunFilter{Limit: c.Limit})
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Fprintln(deps.Stdout, "No runs found. Use 'battletally collect --db' to store one.")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	t.AppendHeader(table.Row{"Run", "Battles", "Created"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.RecordCount, r.CreatedAt.Local().Format(time.DateTime)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}

// Run executes the report command.
func (c *ReportCmd) Run(deps *Dependencies) error {
	db := sqlite.NewDB(c.DB)
	if err := db.Open(); err != nil {
		return fmt.Errorf("failed to open database at %q: %w", c.DB, err)
	}
	defer db.Close()

	report, err := sqlite.NewReportStore(db).FindReport(deps.Ctx, c.RunID)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(deps.Stdout)
	if c.Records {
		t.AppendHeader(table.Row{"Battle", "Country", "Result", "Source"})
		for _, r := range report.Records {
			t.AppendRow(table.Row{r.Title, r.Group, r.Outcome, r.SourceURL})
		}
	} else {
		t.AppendHeader(table.Row{"Country", "Wins"})
		for _, wc := range report.WinCounts {
			t.AppendRow(table.Row{wc.Group, wc.Wins})
		}
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
	return nil
}
