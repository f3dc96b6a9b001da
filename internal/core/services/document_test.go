package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archaeologist/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/archaeologist/internal/core/domain"
)

func TestDocumentService(t *testing.T) {
	ctx := context.Background()
	store := memory.NewDocumentStore()
	ids := seedDocuments(t, store, "one", "two", "three")
	require.NoError(t, store.MarkDuplicate(ctx, domain.Duplicate{
		DocumentID: ids[1], DuplicateOfID: ids[0], Similarity: 0.97,
	}))

	failures := memory.NewFailureLog()
	for i := range 3 {
		require.NoError(t, failures.Record(ctx, domain.Failure{
			Time: time.Unix(int64(i), 0), Path: "/d/f.txt", Stage: domain.StageAnalyze,
		}))
	}

	svc := NewDocumentService(store, failures)

	t.Run("Get", func(t *testing.T) {
		details, err := svc.Get(ctx, ids[1])
		require.NoError(t, err)
		assert.Equal(t, "two", details.Document.Content)
		require.Len(t, details.DuplicateOf, 1)
		assert.Equal(t, ids[0], details.DuplicateOf[0].DuplicateOfID)
	})

	t.Run("Get invalid id", func(t *testing.T) {
		_, err := svc.Get(ctx, 0)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("Get missing", func(t *testing.T) {
		_, err := svc.Get(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("List", func(t *testing.T) {
		docs, err := svc.List(ctx, 0, 0)
		require.NoError(t, err)
		assert.Len(t, docs, 3)

		docs, err = svc.List(ctx, -5, 2)
		require.NoError(t, err)
		require.Len(t, docs, 2)
		assert.Equal(t, ids[0], docs[0].ID)

		docs, err = svc.List(ctx, 2, 10)
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, ids[2], docs[0].ID)
	})

	t.Run("Duplicates", func(t *testing.T) {
		dups, err := svc.Duplicates(ctx, 0)
		require.NoError(t, err)
		require.Len(t, dups, 1)
		assert.Equal(t, ids[1], dups[0].DocumentID)
	})

	t.Run("Statistics", func(t *testing.T) {
		stats, err := svc.Statistics(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalDocuments)
		assert.Equal(t, 1, stats.TotalDuplicates)
		assert.Equal(t, 3, stats.BySourceType[string(domain.SourceTypeText)])
	})

	t.Run("Failures newest first", func(t *testing.T) {
		got, err := svc.Failures(ctx, 2)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, int64(2), got[0].Time.Unix())
	})

	t.Run("Failures without log", func(t *testing.T) {
		got, err := NewDocumentService(store, nil).Failures(ctx, 10)
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})
}
