package battletally

import "context"

// ReportWriter persists the output tables of a run.
type ReportWriter interface {
	// WriteReport stores the record table and the win-count table.
	// Implementations must not leave a half-written report behind on error.
	WriteReport(ctx context.Context, report *Report) error
}
