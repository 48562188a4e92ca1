// Package fs writes run reports as CSV files.
package fs

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fwojciec/battletally"
)

// Default artifact names.
const (
	RecordsFile   = "battle_results_raw.csv"
	WinCountsFile = "battle_win_counts.csv"
)

// Column headers of the two artifacts.
var (
	RecordsHeader   = []string{"battle", "country", "result", "source_url"}
	WinCountsHeader = []string{"country", "wins"}
)

// Ensure ReportWriter implements battletally.ReportWriter at compile time.
var _ battletally.ReportWriter = (*ReportWriter)(nil)

// ReportWriter writes the record and win-count tables as CSV files into a
// directory. Both files are staged as name.tmp and renamed into place only
// after both were written.
type ReportWriter struct {
	Dir           string
	RecordsName   string
	WinCountsName string
}

// NewReportWriter creates a ReportWriter using the default file names.
func NewReportWriter(dir string) *ReportWriter {
	return &ReportWriter{
		Dir:           dir,
		RecordsName:   RecordsFile,
		WinCountsName: WinCountsFile,
	}
}

// RecordsPath returns the final path of the records file.
func (w *ReportWriter) RecordsPath() string {
	return filepath.Join(w.Dir, w.RecordsName)
}

// WinCountsPath returns the final path of the win-count file.
func (w *ReportWriter) WinCountsPath() string {
	return filepath.Join(w.Dir, w.WinCountsName)
}

// WriteReport implements battletally.ReportWriter.
func (w *ReportWriter) WriteReport(ctx context.Context, report *battletally.Report) error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return err
	}

	files := []struct {
		path  string
		write func(io.Writer) error
	}{
		{w.RecordsPath(), func(out io.Writer) error { return WriteRecords(out, report.Records) }},
		{w.WinCountsPath(), func(out io.Writer) error { return WriteWinCounts(out, report.WinCounts) }},
	}

	var staged []string
	abort := func() {
		for _, p := range staged {
			_ = os.Remove(p)
		}
	}

	for _, f := range files {
		if err := ctx.Err(); err != nil {
			abort()
			return err
		}
		tmp := f.path + ".tmp"
		staged = append(staged, tmp)
		if err := writeFile(tmp, f.write); err != nil {
			abort()
			return fmt.Errorf("write %s: %w", filepath.Base(f.path), err)
		}
	}

	for i, f := range files {
		if err := os.Rename(staged[i], f.path); err != nil {
			abort()
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteRecords writes the records table, one row per record.
func WriteRecords(out io.Writer, records []*battletally.Record) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(RecordsHeader); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write([]string{r.Title, r.Group, string(r.Outcome), r.SourceURL}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWinCounts writes the win-count table, one row per group.
func WriteWinCounts(out io.Writer, counts []battletally.WinCount) error {
	cw := csv.NewWriter(out)
	if err := cw.Write(WinCountsHeader); err != nil {
		return err
	}
	for _, c := range counts {
		if err := cw.Write([]string{c.Group, strconv.Itoa(c.Wins)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
