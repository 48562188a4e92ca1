package mock

import (
	"context"

	"github.com/fwojciec/battletally"
)

var _ battletally.ReportWriter = (*ReportWriter)(nil)

// ReportWriter is a mock implementation of battletally.ReportWriter.
type ReportWriter struct {
	WriteReportFn func(ctx context.Context, report *battletally.Report) error
}

func (w *ReportWriter) WriteReport(ctx context.Context, report *battletally.Report) error {
	return w.WriteReportFn(ctx, report)
}
