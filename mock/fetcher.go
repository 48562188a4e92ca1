package mock

import (
	"context"

	"github.com/fwojciec/battletally"
)

var _ battletally.DocumentFetcher = (*DocumentFetcher)(nil)

// DocumentFetcher is a mock implementation of battletally.DocumentFetcher.
type DocumentFetcher struct {
	FetchDocumentFn func(ctx context.Context, title string) (string, error)
}

func (f *DocumentFetcher) FetchDocument(ctx context.Context, title string) (string, error) {
	return f.FetchDocumentFn(ctx, title)
}

var _ battletally.MemberLister = (*MemberLister)(nil)

// MemberLister is a mock implementation of battletally.MemberLister.
type MemberLister struct {
	ListMembersFn func(ctx context.Context, q battletally.MemberQuery) (*battletally.MemberPage, error)
}

func (l *MemberLister) ListMembers(ctx context.Context, q battletally.MemberQuery) (*battletally.MemberPage, error) {
	return l.ListMembersFn(ctx, q)
}

var _ battletally.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter is a mock implementation of battletally.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
