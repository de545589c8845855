package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahrav/go-copyforge/internal/domain"
)

func TestMemoryStore_SaveAndList(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for i := 0; i < 5; i++ {
		err := store.Save(ctx, domain.CandidateRecord{ID: fmt.Sprintf("rec-%d", i), Valid: true})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		records, err := store.List(ctx, 0)
		require.NoError(t, err)
		require.Len(t, records, 5)
		assert.Equal(t, "rec-4", records[0].ID)
		assert.Equal(t, "rec-0", records[4].ID)
	})

	t.Run("limit honored", func(t *testing.T) {
		records, err := store.List(ctx, 2)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.Equal(t, "rec-4", records[0].ID)
		assert.Equal(t, "rec-3", records[1].ID)
	})

	t.Run("limit larger than contents", func(t *testing.T) {
		records, err := store.List(ctx, 100)
		require.NoError(t, err)
		assert.Len(t, records, 5)
	})
}

func TestMemoryStore_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "rec-1", Tone: "profesional"}))
	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "rec-1", Tone: "urgente"}))

	records, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "urgente", records[0].Tone)
}

func TestMemoryStore_MarkPublished(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "rec-1", Valid: true}))

	t.Run("known record", func(t *testing.T) {
		err := store.MarkPublished(ctx, "rec-1", "camp-1", "group-1")
		require.NoError(t, err)

		records, err := store.List(ctx, 0)
		require.NoError(t, err)
		assert.True(t, records[0].Published)
	})

	t.Run("unknown record", func(t *testing.T) {
		err := store.MarkPublished(ctx, "missing", "camp-1", "group-1")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	})
}

func TestMemoryStore_Stats(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "a", Valid: true}))
	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "b", Valid: true}))
	require.NoError(t, store.Save(ctx, domain.CandidateRecord{ID: "c", Valid: false}))
	require.NoError(t, store.MarkPublished(ctx, "a", "camp", "group"))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Valid)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 1, stats.Available, "valid and unpublished")
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, store.Save(ctx, domain.CandidateRecord{ID: "x"}))
	_, err := store.List(ctx, 0)
	assert.Error(t, err)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Save(ctx, domain.CandidateRecord{ID: fmt.Sprintf("rec-%d", i), Valid: true})
			_, _ = store.List(ctx, 10)
			_, _ = store.Stats(ctx)
		}()
	}
	wg.Wait()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Total)
}
