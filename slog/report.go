package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/battletally"
)

// Ensure LoggingReportWriter implements battletally.ReportWriter.
var _ battletally.ReportWriter = (*LoggingReportWriter)(nil)

// LoggingReportWriter wraps a ReportWriter with logging.
type LoggingReportWriter struct {
	next   battletally.ReportWriter
	logger *slog.Logger
	name   string
}

// NewLoggingReportWriter creates a new LoggingReportWriter. The name
// distinguishes destinations when several writers are chained.
func NewLoggingReportWriter(next battletally.ReportWriter, name string, logger *slog.Logger) *LoggingReportWriter {
	return &LoggingReportWriter{next: next, logger: logger, name: name}
}

// WriteReport delegates to the wrapped writer and logs the operation.
func (w *LoggingReportWriter) WriteReport(ctx context.Context, report *battletally.Report) (err error) {
	defer func(begin time.Time) {
		w.logger.Info("write report",
			"writer", w.name,
			"records", len(report.Records),
			"groups", len(report.WinCounts),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.WriteReport(ctx, report)
}
