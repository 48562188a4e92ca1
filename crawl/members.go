package crawl

import (
	"context"
	"errors"
	"iter"

	"github.com/fwojciec/battletally"
)

// MemberCrawler enumerates every member of a category by following the
// API's continuation tokens.
type MemberCrawler struct {
	Lister   battletally.MemberLister
	PageSize int
}

func (c *MemberCrawler) pageSize() int {
	if c.PageSize <= 0 {
		return battletally.DefaultPageSize
	}
	return c.PageSize
}

// ListMembers returns a lazy sequence of the titles in category, in API
// order. Each iteration starts a fresh crawl. A failed page yields a single
// *battletally.CrawlError and ends the sequence; pages are not retried.
func (c *MemberCrawler) ListMembers(ctx context.Context, category string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		cursor := ""
		for {
			if err := ctx.Err(); err != nil {
				yield("", &battletally.CrawlError{Category: category, Cursor: cursor, Err: err})
				return
			}

			page, err := c.Lister.ListMembers(ctx, battletally.MemberQuery{
				Category: category,
				Cursor:   cursor,
				Limit:    c.pageSize(),
			})
			if err != nil {
				yield("", &battletally.CrawlError{Category: category, Cursor: cursor, Err: err})
				return
			}

			for _, title := range page.Titles {
				if !yield(title, nil) {
					return
				}
			}

			if page.Continue == "" {
				return
			}
			if page.Continue == cursor {
				yield("", &battletally.CrawlError{
					Category: category,
					Cursor:   cursor,
					Err:      errors.New("continuation token did not advance"),
				})
				return
			}
			cursor = page.Continue
		}
	}
}

// CollectMembers drains ListMembers. On error it returns the titles gathered
// before the failure along with the error.
func (c *MemberCrawler) CollectMembers(ctx context.Context, category string) ([]string, error) {
	var titles []string
	for title, err := range c.ListMembers(ctx, category) {
		if err != nil {
			return titles, err
		}
		titles = append(titles, title)
	}
	return titles, nil
}
