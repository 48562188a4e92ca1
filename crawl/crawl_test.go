package crawl_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/battletally"
	"github.com/fwojciec/battletally/ahocorasick"
	"github.com/fwojciec/battletally/crawl"
	"github.com/fwojciec/battletally/mock"
	"github.com/fwojciec/battletally/wikitext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticLister serves a single page of titles per category. Categories
// mapped to an error fail on the first page.
func staticLister(members map[string][]string, failures map[string]error) *mock.MemberLister {
	return &mock.MemberLister{
		ListMembersFn: func(_ context.Context, q battletally.MemberQuery) (*battletally.MemberPage, error) {
			if err, ok := failures[q.Category]; ok {
				return nil, err
			}
			return &battletally.MemberPage{Titles: members[q.Category]}, nil
		},
	}
}

// documents serves wikitext by title.
func documents(docs map[string]string) *mock.DocumentFetcher {
	return &mock.DocumentFetcher{
		FetchDocumentFn: func(ctx context.Context, title string) (string, error) {
			if err := ctx.Err(); err != nil {
				return "", err
			}
			doc, ok := docs[title]
			if !ok {
				return "", &battletally.DecodeError{What: "parse response", Err: errors.New("missingtitle")}
			}
			return doc, nil
		},
	}
}

func infobox(result string) string {
	return fmt.Sprintf("{{Infobox military conflict\n| result = %s\n}}", result)
}

func newCollector(lister battletally.MemberLister, fetcher battletally.DocumentFetcher) *crawl.Collector {
	return &crawl.Collector{
		Lister:     lister,
		Fetcher:    fetcher,
		Extractor:  wikitext.NewExtractor(),
		Classifier: ahocorasick.NewClassifier(),
	}
}

func TestCollector_Run(t *testing.T) {
	t.Parallel()

	t.Run("collects and tallies the Sweden scenario", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{
			"Category:Battles_involving_Sweden": {"Battle of Narva (1700)", "Battle of Poltava"},
		}, nil)
		fetcher := documents(map[string]string{
			"Battle of Narva (1700)": infobox("Swedish victory"),
			"Battle of Poltava":      infobox("Russian victory"),
		})
		groups := []battletally.Group{
			{Name: "Sweden", Categories: []string{"Category:Battles_involving_Sweden"}},
		}

		result, err := newCollector(lister, fetcher).Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, &battletally.Record{
			Title:     "Battle of Narva (1700)",
			Group:     "Sweden",
			Outcome:   battletally.OutcomeWin,
			SourceURL: "https://en.wikipedia.org/wiki/Battle_of_Narva_(1700)",
			Result:    "Swedish victory",
		}, result.Records[0])
		assert.Equal(t, "Battle of Poltava", result.Records[1].Title)
		// The keyword rules are not group-aware: any "victory" is a win.
		assert.Equal(t, battletally.OutcomeWin, result.Records[1].Outcome)
		assert.Equal(t, []battletally.WinCount{{Group: "Sweden", Wins: 2}}, result.WinCounts)
		assert.Empty(t, result.Failures)
		assert.Empty(t, result.CategoryErrors)
	})

	t.Run("a failing title does not affect its siblings", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{
			"Category:Battles_involving_Denmark": {"Battle of Lund", "Battle of Copenhagen", "Battle of Køge Bay"},
		}, nil)
		fetcher := &mock.DocumentFetcher{
			FetchDocumentFn: func(_ context.Context, title string) (string, error) {
				if title == "Battle of Copenhagen" {
					return "", &battletally.NetworkError{URL: "https://en.wikipedia.org/w/api.php", Err: errors.New("connection reset")}
				}
				return infobox("Danish victory"), nil
			},
		}
		groups := []battletally.Group{{Name: "Denmark", Categories: []string{"Category:Battles_involving_Denmark"}}}

		result, err := newCollector(lister, fetcher).Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 3)
		assert.Equal(t, battletally.OutcomeWin, result.Records[0].Outcome)
		assert.Equal(t, battletally.OutcomeUnknown, result.Records[1].Outcome)
		assert.Equal(t, "https://en.wikipedia.org/wiki/Battle_of_Copenhagen", result.Records[1].SourceURL)
		assert.Equal(t, battletally.OutcomeWin, result.Records[2].Outcome)

		require.Len(t, result.Failures, 1)
		assert.Equal(t, "Battle of Copenhagen", result.Failures[0].Title)
		assert.Equal(t, battletally.FailureNetwork, result.Failures[0].Kind)
		assert.Equal(t, []battletally.WinCount{{Group: "Denmark", Wins: 2}}, result.WinCounts)
	})

	t.Run("missing field is unknown without a failure", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{"Category:X": {"Battle of Nowhere"}}, nil)
		fetcher := documents(map[string]string{"Battle of Nowhere": "No infobox at all."})
		groups := []battletally.Group{{Name: "Norway", Categories: []string{"Category:X"}}}

		result, err := newCollector(lister, fetcher).Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, battletally.OutcomeUnknown, result.Records[0].Outcome)
		assert.Empty(t, result.Failures)
		assert.Empty(t, result.WinCounts)
	})

	t.Run("panicking extractor degrades to an internal failure", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{"Category:X": {"a", "b"}}, nil)
		c := &crawl.Collector{
			Lister:  lister,
			Fetcher: documents(map[string]string{"a": "x", "b": "y"}),
			Extractor: &mock.FieldExtractor{
				ExtractFieldFn: func(document, _ string) battletally.Field {
					if document == "x" {
						panic("boom")
					}
					return battletally.Present("victory")
				},
			},
			Classifier: ahocorasick.NewClassifier(),
		}
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:X"}}}

		result, err := c.Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, battletally.OutcomeUnknown, result.Records[0].Outcome)
		assert.Equal(t, battletally.OutcomeWin, result.Records[1].Outcome)
		require.Len(t, result.Failures, 1)
		assert.Equal(t, battletally.FailureInternal, result.Failures[0].Kind)
	})

	t.Run("category failure skips only that category", func(t *testing.T) {
		t.Parallel()

		cause := &battletally.NetworkError{URL: "https://en.wikipedia.org/w/api.php", StatusCode: 500}
		lister := staticLister(map[string][]string{
			"Category:Battles_involving_Sweden":  {"Battle of Lund"},
			"Category:Battles_involving_Denmark": {"Battle of Lund"},
		}, map[string]error{
			"Category:Wars_involving_Sweden":    cause,
			"Category:Battles_involving_Norway": cause,
		})
		fetcher := documents(map[string]string{"Battle of Lund": infobox("Danish victory")})
		groups := []battletally.Group{
			{Name: "Sweden", Categories: []string{"Category:Wars_involving_Sweden", "Category:Battles_involving_Sweden"}},
			{Name: "Norway", Categories: []string{"Category:Battles_involving_Norway"}},
			{Name: "Denmark", Categories: []string{"Category:Battles_involving_Denmark"}},
		}

		result, err := newCollector(lister, fetcher).Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 2)
		assert.Equal(t, "Sweden", result.Records[0].Group)
		assert.Equal(t, "Denmark", result.Records[1].Group)

		require.Len(t, result.CategoryErrors, 2)
		assert.Equal(t, "Category:Wars_involving_Sweden", result.CategoryErrors[0].Category)
		assert.Equal(t, "Category:Battles_involving_Norway", result.CategoryErrors[1].Category)
		assert.ErrorIs(t, result.CategoryErrors[0], cause)

		assert.Equal(t, []string{"Norway"}, result.FailedGroups())
		assert.Equal(t, []battletally.WinCount{
			{Group: "Sweden", Wins: 1},
			{Group: "Denmark", Wins: 1},
		}, result.WinCounts)
	})

	t.Run("partial membership of a failed category is discarded", func(t *testing.T) {
		t.Parallel()

		var fetched atomic.Int32
		lister := &mock.MemberLister{
			ListMembersFn: func(_ context.Context, q battletally.MemberQuery) (*battletally.MemberPage, error) {
				if q.Cursor == "" {
					return &battletally.MemberPage{Titles: []string{"a", "b"}, Continue: "next"}, nil
				}
				return nil, &battletally.NetworkError{URL: "api", StatusCode: 502}
			},
		}
		fetcher := &mock.DocumentFetcher{
			FetchDocumentFn: func(_ context.Context, _ string) (string, error) {
				fetched.Add(1)
				return infobox("victory"), nil
			},
		}
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:X"}}}

		result, err := newCollector(lister, fetcher).Run(context.Background(), groups, nil)

		require.NoError(t, err)
		assert.Empty(t, result.Records)
		assert.Zero(t, fetched.Load())
		require.Len(t, result.CategoryErrors, 1)
		assert.Equal(t, "next", result.CategoryErrors[0].Cursor)
		assert.Equal(t, []string{"Sweden"}, result.FailedGroups())
	})

	t.Run("duplicates are kept unless deduplication is enabled", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{
			"Category:A": {"Battle of Lund", "Battle of Halmstad"},
			"Category:B": {"Battle of Lund"},
		}, nil)
		fetcher := documents(map[string]string{
			"Battle of Lund":     infobox("Swedish victory"),
			"Battle of Halmstad": infobox("Swedish victory"),
		})
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:A", "Category:B"}}}

		c := newCollector(lister, fetcher)
		result, err := c.Run(context.Background(), groups, nil)
		require.NoError(t, err)
		assert.Len(t, result.Records, 3)
		assert.Equal(t, []battletally.WinCount{{Group: "Sweden", Wins: 3}}, result.WinCounts)

		c.Dedupe = true
		result, err = c.Run(context.Background(), groups, nil)
		require.NoError(t, err)
		assert.Len(t, result.Records, 2)
		assert.Equal(t, []battletally.WinCount{{Group: "Sweden", Wins: 2}}, result.WinCounts)
	})

	t.Run("cancellation keeps completed records", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		lister := staticLister(map[string][]string{
			"Category:X": {"a", "b", "c"},
			"Category:Y": {"d"},
		}, nil)
		fetcher := &mock.DocumentFetcher{
			FetchDocumentFn: func(ctx context.Context, title string) (string, error) {
				if title == "b" {
					cancel()
				}
				if err := ctx.Err(); err != nil {
					return "", &battletally.NetworkError{URL: "api", Err: err}
				}
				return infobox("victory"), nil
			},
		}
		c := newCollector(lister, fetcher)
		c.Concurrency = 1
		groups := []battletally.Group{
			{Name: "Sweden", Categories: []string{"Category:X"}},
			{Name: "Norway", Categories: []string{"Category:Y"}},
		}

		result, err := c.Run(ctx, groups, nil)

		require.ErrorIs(t, err, context.Canceled)
		require.NotNil(t, result)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "a", result.Records[0].Title)
		assert.Empty(t, result.Failures)
		assert.Equal(t, []battletally.WinCount{{Group: "Sweden", Wins: 1}}, result.WinCounts)
	})

	t.Run("bounds concurrency and keeps title order", func(t *testing.T) {
		t.Parallel()

		titles := make([]string, 40)
		for i := range titles {
			titles[i] = fmt.Sprintf("Battle %02d", i)
		}
		lister := staticLister(map[string][]string{"Category:X": titles}, nil)

		var inFlight, peak atomic.Int32
		fetcher := &mock.DocumentFetcher{
			FetchDocumentFn: func(_ context.Context, _ string) (string, error) {
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				inFlight.Add(-1)
				return infobox("stalemate"), nil
			},
		}
		c := newCollector(lister, fetcher)
		c.Concurrency = 4
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:X"}}}

		result, err := c.Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, len(titles))
		for i, r := range result.Records {
			assert.Equal(t, titles[i], r.Title)
			assert.Equal(t, battletally.OutcomeDraw, r.Outcome)
		}
		assert.LessOrEqual(t, peak.Load(), int32(4))
		assert.Empty(t, result.WinCounts)
	})

	t.Run("reports progress", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{"Category:X": {"a", "b"}}, map[string]error{
			"Category:Y": &battletally.NetworkError{URL: "api", StatusCode: 500},
		})
		fetcher := documents(map[string]string{"a": infobox("victory")})
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:X", "Category:Y"}}}

		var mu sync.Mutex
		counts := make(map[crawl.ProgressType]int)
		var started crawl.ProgressEvent
		progress := func(e crawl.ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			counts[e.Type]++
			if e.Type == crawl.ProgressStarted {
				started = e
			}
		}

		_, err := newCollector(lister, fetcher).Run(context.Background(), groups, progress)

		require.NoError(t, err)
		assert.Equal(t, 1, counts[crawl.ProgressStarted])
		assert.Equal(t, 1, counts[crawl.ProgressCompleted])
		assert.Equal(t, 1, counts[crawl.ProgressFailed])
		assert.Equal(t, 1, counts[crawl.ProgressCategoryFailed])
		assert.Equal(t, 1, counts[crawl.ProgressFinished])
		assert.Equal(t, "Sweden", started.Group)
		assert.Equal(t, "Category:X", started.Category)
		assert.Equal(t, 2, started.Total)
	})

	t.Run("rejects invalid groups", func(t *testing.T) {
		t.Parallel()

		c := newCollector(staticLister(nil, nil), documents(nil))

		_, err := c.Run(context.Background(), []battletally.Group{{Name: "Sweden"}}, nil)

		assert.Equal(t, battletally.EINVALID, battletally.ErrorCode(err))
	})

	t.Run("uses configured field and base URL", func(t *testing.T) {
		t.Parallel()

		lister := staticLister(map[string][]string{"Category:X": {"Slaget vid Lund"}}, nil)
		fetcher := documents(map[string]string{"Slaget vid Lund": "{{Infobox|resultat=Svensk seger|result=Danish victory}}"})
		c := newCollector(lister, fetcher)
		c.Field = "resultat"
		c.BaseURL = "https://sv.wikipedia.org/wiki/"
		groups := []battletally.Group{{Name: "Sweden", Categories: []string{"Category:X"}}}

		result, err := c.Run(context.Background(), groups, nil)

		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, "Svensk seger", result.Records[0].Result)
		assert.Equal(t, battletally.OutcomeOther, result.Records[0].Outcome)
		assert.Equal(t, "https://sv.wikipedia.org/wiki/Slaget_vid_Lund", result.Records[0].SourceURL)
	})
}

func TestAccumulator(t *testing.T) {
	t.Parallel()

	acc := &crawl.Accumulator{}
	var wg sync.WaitGroup
	for i := range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := &battletally.Record{Title: fmt.Sprint(i), Outcome: battletally.OutcomeUnknown}
			var failure *battletally.Failure
			if i%2 == 0 {
				failure = &battletally.Failure{Title: rec.Title, Kind: battletally.FailureInternal}
			}
			acc.Add(rec, failure)
		}()
	}
	wg.Wait()

	assert.Len(t, acc.Records(), 10)
	assert.Len(t, acc.Failures(), 5)
}
