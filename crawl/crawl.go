// Package crawl orchestrates battle outcome collection. It enumerates
// category members, fetches and classifies each page, and accumulates one
// record per title.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fwojciec/battletally"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency caps in-flight document fetches per category.
const DefaultConcurrency = 8

// Collector runs the collection pipeline over a set of groups.
type Collector struct {
	Lister     battletally.MemberLister
	Fetcher    battletally.DocumentFetcher
	Extractor  battletally.FieldExtractor
	Classifier battletally.Classifier

	// Field is the infobox parameter to extract. Defaults to battletally.DefaultField.
	Field string
	// BaseURL prefixes source references. Defaults to battletally.DefaultBaseURL.
	BaseURL     string
	PageSize    int
	Concurrency int
	// Dedupe drops repeated titles within a group.
	Dedupe bool
}

// Result holds the outcome of a collection run.
type Result struct {
	Records        []*battletally.Record
	Failures       []battletally.Failure
	CategoryErrors []*battletally.CrawlError
	WinCounts      []battletally.WinCount

	failedGroups []string
}

// FailedGroups returns the groups whose every category failed to enumerate.
// Such groups report zero wins for lack of data, not for lack of victories.
func (r *Result) FailedGroups() []string {
	return append([]string(nil), r.failedGroups...)
}

// Report returns the output tables of the run.
func (r *Result) Report() *battletally.Report {
	return &battletally.Report{Records: r.Records, WinCounts: r.WinCounts}
}

// ProgressEvent reports progress during a collection run.
type ProgressEvent struct {
	Type      ProgressType
	Group     string
	Category  string
	Title     string
	Outcome   battletally.Outcome
	Completed int
	Total     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressCategoryFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting collection progress. Calls are
// serialized.
type ProgressFunc func(event ProgressEvent)

// Accumulator gathers records and failures for one run.
// It is safe for concurrent use.
type Accumulator struct {
	mu       sync.Mutex
	records  []*battletally.Record
	failures []battletally.Failure
}

// Add appends a record and, when non-nil, its failure.
func (a *Accumulator) Add(record *battletally.Record, failure *battletally.Failure) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = append(a.records, record)
	if failure != nil {
		a.failures = append(a.failures, *failure)
	}
}

// Records returns a copy of the records added so far.
func (a *Accumulator) Records() []*battletally.Record {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*battletally.Record(nil), a.records...)
}

// Failures returns a copy of the failures added so far.
func (a *Accumulator) Failures() []battletally.Failure {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]battletally.Failure(nil), a.failures...)
}

// titleResult holds the outcome of processing a single title.
type titleResult struct {
	record  *battletally.Record
	failure *battletally.Failure
	done    bool
}

// Run processes every category of every group in configuration order.
// Title failures degrade to unknown records; category failures skip the
// category and are collected in Result.CategoryErrors. If ctx is canceled,
// Run stops dispatching titles and returns the partial result with ctx.Err().
func (c *Collector) Run(ctx context.Context, groups []battletally.Group, progress ProgressFunc) (*Result, error) {
	if err := battletally.ValidateGroups(groups); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	emit := func(e ProgressEvent) {
		if progress == nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		progress(e)
	}

	members := &MemberCrawler{Lister: c.Lister, PageSize: c.PageSize}
	acc := &Accumulator{}
	result := &Result{}
	finish := func() *Result {
		report := battletally.NewReport(groups, acc.Records())
		result.Records = report.Records
		result.WinCounts = report.WinCounts
		result.Failures = acc.Failures()
		return result
	}

	for _, group := range groups {
		var seen map[string]bool
		if c.Dedupe {
			seen = make(map[string]bool)
		}

		failed := 0
		for _, category := range group.Categories {
			// Partial membership is discarded so it cannot bias counts.
			titles, err := members.CollectMembers(ctx, category)
			if ctx.Err() != nil {
				return finish(), ctx.Err()
			}
			if err != nil {
				failed++
				result.CategoryErrors = append(result.CategoryErrors, asCrawlError(category, err))
				emit(ProgressEvent{Type: ProgressCategoryFailed, Group: group.Name, Category: category, Error: err})
				continue
			}

			if seen != nil {
				titles = unseen(titles, seen)
			}

			if err := c.processCategory(ctx, group.Name, category, titles, acc, emit); err != nil {
				return finish(), err
			}
		}

		if failed == len(group.Categories) {
			result.failedGroups = append(result.failedGroups, group.Name)
		}
	}

	finish()
	emit(ProgressEvent{Type: ProgressFinished, Completed: len(result.Records), Total: len(result.Records)})
	return result, nil
}

// processCategory fans titles out to a bounded worker group and appends
// the finished records to acc in title order.
func (c *Collector) processCategory(ctx context.Context, group, category string, titles []string, acc *Accumulator, emit ProgressFunc) error {
	total := len(titles)
	emit(ProgressEvent{Type: ProgressStarted, Group: group, Category: category, Total: total})

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	results := make([]titleResult, total)
	var completed atomic.Int64

	var g errgroup.Group
	g.SetLimit(concurrency)

	for i, title := range titles {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			r := c.processTitle(ctx, group, title)
			if r.failure != nil && ctx.Err() != nil && isCanceled(r.failure.Err) {
				// Interrupted rather than failed; the title is not reported.
				return nil
			}
			r.done = true
			results[i] = r

			event := ProgressEvent{
				Type:      ProgressCompleted,
				Group:     group,
				Category:  category,
				Title:     title,
				Outcome:   r.record.Outcome,
				Completed: int(completed.Add(1)),
				Total:     total,
			}
			if r.failure != nil {
				event.Type = ProgressFailed
				event.Error = r.failure.Err
			}
			emit(event)
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if r.done {
			acc.Add(r.record, r.failure)
		}
	}
	return ctx.Err()
}

// processTitle fetches, extracts and classifies one title. It always
// returns a record; any failure leaves the outcome unknown.
func (c *Collector) processTitle(ctx context.Context, group, title string) (result titleResult) {
	record := &battletally.Record{
		Title:     title,
		Group:     group,
		Outcome:   battletally.OutcomeUnknown,
		SourceURL: battletally.SourceURL(c.baseURL(), title),
	}
	fail := func(err error) titleResult {
		record.Outcome = battletally.OutcomeUnknown
		return titleResult{
			record:  record,
			failure: &battletally.Failure{Title: title, Group: group, Kind: battletally.KindOf(err), Err: err},
		}
	}

	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Errorf("processing %q: panic: %v", title, r))
		}
	}()

	doc, err := c.Fetcher.FetchDocument(ctx, title)
	if err != nil {
		return fail(err)
	}

	field := c.Extractor.ExtractField(doc, c.field())
	record.Outcome = c.Classifier.Classify(field)
	record.Result = field.Value
	return titleResult{record: record}
}

func (c *Collector) field() string {
	if c.Field == "" {
		return battletally.DefaultField
	}
	return c.Field
}

func (c *Collector) baseURL() string {
	if c.BaseURL == "" {
		return battletally.DefaultBaseURL
	}
	return c.BaseURL
}

func asCrawlError(category string, err error) *battletally.CrawlError {
	var crawlErr *battletally.CrawlError
	if errors.As(err, &crawlErr) {
		return crawlErr
	}
	return &battletally.CrawlError{Category: category, Err: err}
}

func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// unseen filters titles already in seen and records the rest.
func unseen(titles []string, seen map[string]bool) []string {
	out := titles[:0:0]
	for _, t := range titles {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
