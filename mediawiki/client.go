// Package mediawiki implements battletally.MemberLister and
// battletally.DocumentFetcher against the MediaWiki action API.
package mediawiki

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/fwojciec/battletally"
	"github.com/go-resty/resty/v2"
)

// Client defaults.
const (
	DefaultEndpoint  = "https://en.wikipedia.org/w/api.php"
	DefaultUserAgent = "battletally/1.0 (https://github.com/fwojciec/battletally)"
	DefaultTimeout   = 30 * time.Second
)

// Format selects which representation of a page FetchDocument returns.
type Format string

// Supported formats.
const (
	FormatWikitext Format = "wikitext"
	FormatHTML     Format = "html"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWikitext, FormatHTML:
		return Format(s), nil
	}
	return "", battletally.Errorf(battletally.EINVALID, "unknown document format %q", s)
}

// Ensure Client implements the wiki interfaces at compile time.
var (
	_ battletally.MemberLister    = (*Client)(nil)
	_ battletally.DocumentFetcher = (*Client)(nil)
)

// Client talks to a single MediaWiki API endpoint.
type Client struct {
	http      *resty.Client
	endpoint  string
	host      string
	userAgent string
	timeout   time.Duration
	retries   int
	format    Format
	limiter   battletally.DomainLimiter
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoint sets the api.php URL. Defaults to DefaultEndpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *Client) {
		c.endpoint = endpoint
	}
}

// WithUserAgent sets the User-Agent header. Wikimedia asks clients to
// identify themselves with contact information.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithTimeout sets the per-request timeout.
// Defaults to DefaultTimeout (30s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRetries enables transport retries on connection errors, 429 and 5xx
// responses. Defaults to 0.
func WithRetries(n int) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithFormat selects the document representation. Defaults to FormatWikitext.
func WithFormat(f Format) Option {
	return func(c *Client) {
		c.format = f
	}
}

// WithLimiter throttles every request through l, keyed by endpoint host.
func WithLimiter(l battletally.DomainLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a new Client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		endpoint:  DefaultEndpoint,
		userAgent: DefaultUserAgent,
		timeout:   DefaultTimeout,
		format:    FormatWikitext,
	}
	for _, opt := range opts {
		opt(c)
	}

	if u, err := url.Parse(c.endpoint); err == nil {
		c.host = u.Host
	}

	c.http = resty.New()
	c.http.SetHeader("user-agent", c.userAgent)
	c.http.SetTimeout(c.timeout)
	if c.retries > 0 {
		c.http.SetRetryCount(c.retries).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(5 * time.Second).
			AddRetryCondition(func(res *resty.Response, err error) bool {
				if err != nil {
					return true
				}
				return res.StatusCode() == http.StatusTooManyRequests || res.StatusCode() >= 500
			})
	}

	return c
}

// Format returns the document representation FetchDocument produces.
func (c *Client) Format() Format {
	return c.format
}

// ListMembers implements battletally.MemberLister.
func (c *Client) ListMembers(ctx context.Context, q battletally.MemberQuery) (*battletally.MemberPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = battletally.DefaultPageSize
	}
	params := url.Values{
		"action":  {"query"},
		"list":    {"categorymembers"},
		"cmtitle": {q.Category},
		"cmlimit": {strconv.Itoa(limit)},
		"format":  {"json"},
	}
	if q.Cursor != "" {
		params.Set("cmcontinue", q.Cursor)
	}

	var resp categoryMembersResponse
	if err := c.get(ctx, params, "categorymembers response", &resp); err != nil {
		return nil, err
	}
	if resp.Query == nil {
		return nil, &battletally.DecodeError{
			What: "categorymembers response",
			Err:  errors.New("missing query.categorymembers"),
		}
	}

	page := &battletally.MemberPage{
		Titles:   make([]string, 0, len(resp.Query.CategoryMembers)),
		Continue: resp.Continue.CMContinue,
	}
	for _, m := range resp.Query.CategoryMembers {
		page.Titles = append(page.Titles, m.Title)
	}
	return page, nil
}

// FetchDocument implements battletally.DocumentFetcher. It returns wikitext
// or rendered HTML depending on the configured Format.
func (c *Client) FetchDocument(ctx context.Context, title string) (string, error) {
	prop := "wikitext"
	if c.format == FormatHTML {
		prop = "text"
	}
	params := url.Values{
		"action":    {"parse"},
		"page":      {title},
		"prop":      {prop},
		"redirects": {"1"},
		"format":    {"json"},
	}

	what := "parse response for " + strconv.Quote(title)
	var resp parseResponse
	if err := c.get(ctx, params, what, &resp); err != nil {
		return "", err
	}
	if resp.Parse == nil {
		return "", &battletally.DecodeError{What: what, Err: errors.New("missing parse")}
	}

	field := resp.Parse.Wikitext
	if c.format == FormatHTML {
		field = resp.Parse.Text
	}
	if !field.ok {
		return "", &battletally.DecodeError{What: what, Err: errors.New("missing parse." + prop)}
	}
	return field.value, nil
}

// get performs one API request and decodes the JSON body into out.
// API-level error objects become *battletally.DecodeError.
func (c *Client) get(ctx context.Context, params url.Values, what string, out envelope) error {
	reqURL := c.endpoint + "?" + params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.host); err != nil {
			return err
		}
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParamsFromValues(params).
		Get(c.endpoint)
	if err != nil {
		return &battletally.NetworkError{URL: reqURL, Err: err}
	}
	if code := res.StatusCode(); code < 200 || code > 299 {
		return &battletally.NetworkError{URL: reqURL, StatusCode: code}
	}

	if err := json.Unmarshal(res.Body(), out); err != nil {
		return &battletally.DecodeError{What: what, Err: err}
	}
	if apiErr := out.apiError(); apiErr != nil {
		return &battletally.DecodeError{What: what, Err: apiErr}
	}
	return nil
}
