package sqlite_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/fwojciec/battletally"
	"github.com/fwojciec/battletally/sqlite"
	"github.com/stretchr/testify/require"
)

// BenchmarkSaveReport measures storing a category-sized report in one transaction.
func BenchmarkSaveReport(b *testing.B) {
	db := sqlite.NewDB(filepath.Join(b.TempDir(), "bench.db"))
	require.NoError(b, db.Open())
	defer db.Close()

	records := make([]*battletally.Record, 500)
	for i := range records {
		title := fmt.Sprintf("Battle %d", i)
		records[i] = &battletally.Record{
			Title:     title,
			Group:     "Sweden",
			Outcome:   battletally.OutcomeWin,
			SourceURL: battletally.SourceURL(battletally.DefaultBaseURL, title),
		}
	}
	report := battletally.NewReport(battletally.DefaultGroups(), records)
	store := sqlite.NewReportStore(db)
	ctx := context.Background()

	b.ResetTimer()
	for range b.N {
		_, err := store.SaveReport(ctx, report)
		require.NoError(b, err)
	}
}
