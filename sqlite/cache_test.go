package sqlite_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/battletally"
	"github.com/fwojciec/battletally/mock"
	"github.com/fwojciec/battletally/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingFetcher(content string, calls *int) *mock.DocumentFetcher {
	return &mock.DocumentFetcher{
		FetchDocumentFn: func(_ context.Context, _ string) (string, error) {
			*calls++
			return content, nil
		},
	}
}

func TestDocumentCache_FetchDocument(t *testing.T) {
	t.Parallel()

	t.Run("fetches once and serves from cache", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		calls := 0
		cache := sqlite.NewDocumentCache(db, countingFetcher("{{Infobox|result=Draw}}", &calls), "wikitext")
		ctx := context.Background()

		first, err := cache.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)
		second, err := cache.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)

		assert.Equal(t, "{{Infobox|result=Draw}}", first)
		assert.Equal(t, first, second)
		assert.Equal(t, 1, calls)

		doc, err := cache.FindDocument(ctx, "Battle of Lund")
		require.NoError(t, err)
		assert.NotEmpty(t, doc.ID)
		assert.Len(t, doc.ContentHash, 16)
		assert.False(t, doc.FetchedAt.IsZero())
	})

	t.Run("formats are cached separately", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		var wikiCalls, htmlCalls int
		wiki := sqlite.NewDocumentCache(db, countingFetcher("{{Infobox}}", &wikiCalls), "wikitext")
		html := sqlite.NewDocumentCache(db, countingFetcher("<table></table>", &htmlCalls), "html")

		_, err := wiki.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)
		got, err := html.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)

		assert.Equal(t, "<table></table>", got)
		assert.Equal(t, 1, wikiCalls)
		assert.Equal(t, 1, htmlCalls)
	})

	t.Run("does not cache failures", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		calls := 0
		fetcher := &mock.DocumentFetcher{
			FetchDocumentFn: func(_ context.Context, _ string) (string, error) {
				calls++
				return "", &battletally.NetworkError{URL: "api", Err: errors.New("timeout")}
			},
		}
		cache := sqlite.NewDocumentCache(db, fetcher, "wikitext")
		ctx := context.Background()

		_, err := cache.FetchDocument(ctx, "Battle of Lund")
		assert.Equal(t, battletally.FailureNetwork, battletally.KindOf(err))
		_, err = cache.FetchDocument(ctx, "Battle of Lund")
		assert.Error(t, err)

		assert.Equal(t, 2, calls)
		_, err = cache.FindDocument(ctx, "Battle of Lund")
		assert.Equal(t, battletally.ENOTFOUND, battletally.ErrorCode(err))
	})

	t.Run("refetches expired entries", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		calls := 0
		cache := sqlite.NewDocumentCache(db, countingFetcher("text", &calls), "wikitext")
		cache.MaxAge = time.Nanosecond
		ctx := context.Background()

		_, err := cache.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
		_, err = cache.FetchDocument(ctx, "Battle of Lund")
		require.NoError(t, err)

		assert.Equal(t, 2, calls)
	})

	t.Run("returns fetched content when the cache write fails", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()
		_, err := db.ExecContext(ctx, `
			CREATE TRIGGER reject_documents BEFORE INSERT ON documents
			BEGIN SELECT RAISE(ABORT, 'disk full'); END
		`)
		require.NoError(t, err)

		var logs bytes.Buffer
		calls := 0
		cache := sqlite.NewDocumentCache(db, countingFetcher("{{Infobox|result=Draw}}", &calls), "wikitext")
		cache.Logger = slog.New(slog.NewTextHandler(&logs, nil))

		got, err := cache.FetchDocument(ctx, "Battle of Lund")

		require.NoError(t, err)
		assert.Equal(t, "{{Infobox|result=Draw}}", got)
		assert.Contains(t, logs.String(), "cache document")
		assert.Contains(t, logs.String(), "disk full")
		_, err = cache.FindDocument(ctx, "Battle of Lund")
		assert.Equal(t, battletally.ENOTFOUND, battletally.ErrorCode(err))
	})
}
