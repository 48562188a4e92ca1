package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/battletally"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ battletally.DocumentFetcher = (*DocumentCache)(nil)

// DocumentCache is a read-through cache in front of a DocumentFetcher.
// Entries are keyed by title and format so wikitext and HTML never mix.
type DocumentCache struct {
	db     *DB
	next   battletally.DocumentFetcher
	format string
	now    func() time.Time

	// MaxAge expires entries older than this. Zero keeps entries forever.
	MaxAge time.Duration

	// Logger receives cache write failures. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewDocumentCache creates a DocumentCache for documents of the given format.
func NewDocumentCache(db *DB, next battletally.DocumentFetcher, format string) *DocumentCache {
	return &DocumentCache{db: db, next: next, format: format, now: time.Now, Logger: slog.Default()}
}

// CachedDocument is a stored document.
type CachedDocument struct {
	ID          string
	Title       string
	Content     string
	ContentHash string
	FetchedAt   time.Time
}

// FetchDocument implements battletally.DocumentFetcher. Failed fetches are
// not cached. A failed cache write is logged and the fetched content is
// still returned.
func (c *DocumentCache) FetchDocument(ctx context.Context, title string) (string, error) {
	doc, err := c.FindDocument(ctx, title)
	switch {
	case err == nil && !c.expired(doc):
		return doc.Content, nil
	case err != nil && battletally.ErrorCode(err) != battletally.ENOTFOUND:
		return "", err
	}

	content, err := c.next.FetchDocument(ctx, title)
	if err != nil {
		return "", err
	}
	if err := c.store(ctx, title, content); err != nil && c.Logger != nil {
		c.Logger.Warn("cache document", "title", title, "format", c.format, "err", err)
	}
	return content, nil
}

// FindDocument returns the cached entry for title.
func (c *DocumentCache) FindDocument(ctx context.Context, title string) (*CachedDocument, error) {
	var doc CachedDocument
	var fetchedAt string
	err := c.db.QueryRowContext(ctx, `
		SELECT id, title, content, content_hash, fetched_at
		FROM documents
		WHERE title = ? AND format = ?
	`, title, c.format).Scan(&doc.ID, &doc.Title, &doc.Content, &doc.ContentHash, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, battletally.Errorf(battletally.ENOTFOUND, "document %q not cached", title)
	}
	if err != nil {
		return nil, err
	}

	if doc.FetchedAt, err = parseTime(fetchedAt, "fetched_at"); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (c *DocumentCache) expired(doc *CachedDocument) bool {
	return c.MaxAge > 0 && c.now().Sub(doc.FetchedAt) > c.MaxAge
}

func (c *DocumentCache) store(ctx context.Context, title, content string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, format, content, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (title, format) DO UPDATE SET
			content = excluded.content,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, uuid.New().String(), title, c.format, content, hashContent(content), c.now().UTC().Format(timeLayout))
	return err
}
