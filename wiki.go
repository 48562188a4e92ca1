package battletally

import "context"

// DefaultPageSize is the number of category members requested per page.
const DefaultPageSize = 500

// MemberQuery selects one page of category members.
type MemberQuery struct {
	Category string
	Cursor   string // continuation token from the previous page, empty for the first
	Limit    int
}

// MemberPage is one page of category members in API order.
type MemberPage struct {
	Titles []string

	// Continue is the token to echo back for the next page.
	// Empty when this is the last page.
	Continue string
}

// MemberLister fetches pages of category members from the wiki API.
type MemberLister interface {
	// ListMembers returns one page of members.
	// Transport failures are *NetworkError, unreadable responses *DecodeError.
	ListMembers(ctx context.Context, q MemberQuery) (*MemberPage, error)
}

// DocumentFetcher retrieves the markup document of a page by title.
type DocumentFetcher interface {
	// FetchDocument returns the page source.
	// Transport failures are *NetworkError, unreadable responses *DecodeError.
	FetchDocument(ctx context.Context, title string) (string, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
