package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/battletally"
)

// Ensure LoggingMemberLister implements battletally.MemberLister.
var _ battletally.MemberLister = (*LoggingMemberLister)(nil)

// LoggingMemberLister wraps a MemberLister with logging of each page request.
type LoggingMemberLister struct {
	next   battletally.MemberLister
	logger *slog.Logger
}

// NewLoggingMemberLister creates a new LoggingMemberLister.
func NewLoggingMemberLister(next battletally.MemberLister, logger *slog.Logger) *LoggingMemberLister {
	return &LoggingMemberLister{next: next, logger: logger}
}

// ListMembers delegates to the wrapped lister and logs the page.
func (l *LoggingMemberLister) ListMembers(ctx context.Context, q battletally.MemberQuery) (page *battletally.MemberPage, err error) {
	defer func(begin time.Time) {
		count, more := 0, false
		if page != nil {
			count, more = len(page.Titles), page.Continue != ""
		}
		l.logger.Info("category page",
			"category", q.Category,
			"cursor", q.Cursor,
			"count", count,
			"more", more,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return l.next.ListMembers(ctx, q)
}

// Ensure LoggingDocumentFetcher implements battletally.DocumentFetcher.
var _ battletally.DocumentFetcher = (*LoggingDocumentFetcher)(nil)

// LoggingDocumentFetcher wraps a DocumentFetcher. Successful fetches are
// logged at debug level, failures at warn level.
type LoggingDocumentFetcher struct {
	next   battletally.DocumentFetcher
	logger *slog.Logger
}

// NewLoggingDocumentFetcher creates a new LoggingDocumentFetcher.
func NewLoggingDocumentFetcher(next battletally.DocumentFetcher, logger *slog.Logger) *LoggingDocumentFetcher {
	return &LoggingDocumentFetcher{next: next, logger: logger}
}

// FetchDocument delegates to the wrapped fetcher and logs the operation.
func (f *LoggingDocumentFetcher) FetchDocument(ctx context.Context, title string) (doc string, err error) {
	defer func(begin time.Time) {
		level := slog.LevelDebug
		attrs := []any{"title", title, "bytes", len(doc), "duration", time.Since(begin)}
		if err != nil {
			level = slog.LevelWarn
			attrs = append(attrs, "kind", battletally.KindOf(err), "err", err)
		}
		f.logger.Log(ctx, level, "fetch document", attrs...)
	}(time.Now())
	return f.next.FetchDocument(ctx, title)
}
