package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deefind/detector-server-go/internal/model"
	"github.com/deefind/detector-server-go/internal/storage"
)

func newUsageService(t *testing.T) (*UsageService, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemory()
	svc, err := NewUsageService(context.Background(), store, 5)
	require.NoError(t, err)
	return svc, store
}

func storedUsageRecord(t *testing.T, store *storage.MemoryStore) model.UsageRecord {
	t.Helper()
	raw, ok, err := store.Get(context.Background(), storage.DetectionsKey)
	require.NoError(t, err)
	require.True(t, ok)

	var record model.UsageRecord
	require.NoError(t, json.Unmarshal(raw, &record))
	return record
}

func TestUsageLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("initializes fresh state when no record exists", func(t *testing.T) {
		svc, store := newUsageService(t)

		assert.Equal(t, 0, svc.Count())
		assert.Equal(t, 5, svc.Remaining())

		record := storedUsageRecord(t, store)
		assert.Equal(t, 0, record.Count)
		assert.WithinDuration(t, time.Now(), record.PeriodAnchor, time.Minute)
	})

	t.Run("adopts stored count from the current month", func(t *testing.T) {
		store := storage.NewMemory()
		raw, err := json.Marshal(model.UsageRecord{Count: 3, PeriodAnchor: time.Now()})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, storage.DetectionsKey, raw))

		svc, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		assert.Equal(t, 3, svc.Count())
		assert.Equal(t, 2, svc.Remaining())
	})

	t.Run("resets count when the anchor is in a prior month", func(t *testing.T) {
		store := storage.NewMemory()
		now := time.Now()
		raw, err := json.Marshal(model.UsageRecord{
			Count:        4,
			PeriodAnchor: time.Date(now.Year(), now.Month()-1, 15, 12, 0, 0, 0, now.Location()),
		})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, storage.DetectionsKey, raw))

		svc, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, svc.Count())

		record := storedUsageRecord(t, store)
		assert.Equal(t, 0, record.Count)
	})

	t.Run("resets count when the anchor is a year old in the same month", func(t *testing.T) {
		store := storage.NewMemory()
		now := time.Now()
		raw, err := json.Marshal(model.UsageRecord{
			Count:        4,
			PeriodAnchor: time.Date(now.Year()-1, now.Month(), 15, 12, 0, 0, 0, now.Location()),
		})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, storage.DetectionsKey, raw))

		svc, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, svc.Count())
	})

	t.Run("treats an unreadable record as absent", func(t *testing.T) {
		store := storage.NewMemory()
		require.NoError(t, store.Set(ctx, storage.DetectionsKey, []byte("{broken")))

		svc, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		assert.Equal(t, 0, svc.Count())
	})
}

func TestUsageIncrement(t *testing.T) {
	ctx := context.Background()

	t.Run("advances count and persists it", func(t *testing.T) {
		svc, store := newUsageService(t)

		require.NoError(t, svc.Increment(ctx))
		require.NoError(t, svc.Increment(ctx))

		assert.Equal(t, 2, svc.Count())
		assert.Equal(t, 3, svc.Remaining())
		assert.Equal(t, 2, storedUsageRecord(t, store).Count)
	})

	t.Run("refreshes the anchor on every increment", func(t *testing.T) {
		store := storage.NewMemory()
		stale := time.Now().Add(-48 * time.Hour)
		raw, err := json.Marshal(model.UsageRecord{Count: 1, PeriodAnchor: stale})
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, storage.DetectionsKey, raw))

		svc, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		require.NoError(t, svc.Increment(ctx))

		record := storedUsageRecord(t, store)
		assert.True(t, record.PeriodAnchor.After(stale.Add(time.Hour)))
	})
}

func TestCanDetect(t *testing.T) {
	ctx := context.Background()

	t.Run("free tier is gated on the limit", func(t *testing.T) {
		svc, _ := newUsageService(t)

		for i := 0; i < 5; i++ {
			assert.True(t, svc.CanDetect(false))
			require.NoError(t, svc.Increment(ctx))
		}

		assert.False(t, svc.CanDetect(false))
		assert.Equal(t, 0, svc.Remaining())
	})

	t.Run("premium bypasses the limit regardless of count", func(t *testing.T) {
		svc, _ := newUsageService(t)

		for i := 0; i < 7; i++ {
			require.NoError(t, svc.Increment(ctx))
		}

		assert.True(t, svc.CanDetect(true))
		assert.False(t, svc.CanDetect(false))
	})

	t.Run("remaining never goes negative", func(t *testing.T) {
		svc, _ := newUsageService(t)

		for i := 0; i < 7; i++ {
			require.NoError(t, svc.Increment(ctx))
		}

		assert.Equal(t, 0, svc.Remaining())
	})
}

func TestUsageReset(t *testing.T) {
	ctx := context.Background()

	t.Run("forces count back to zero", func(t *testing.T) {
		svc, store := newUsageService(t)

		for i := 0; i < 5; i++ {
			require.NoError(t, svc.Increment(ctx))
		}
		assert.False(t, svc.CanDetect(false))

		require.NoError(t, svc.Reset(ctx))
		assert.Equal(t, 0, svc.Count())
		assert.True(t, svc.CanDetect(false))
		assert.Equal(t, 0, storedUsageRecord(t, store).Count)
	})
}

func TestUsagePersistence(t *testing.T) {
	ctx := context.Background()

	t.Run("count survives a new service instance within the month", func(t *testing.T) {
		store := storage.NewMemory()

		first, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		require.NoError(t, first.Increment(ctx))
		require.NoError(t, first.Increment(ctx))

		second, err := NewUsageService(ctx, store, 5)
		require.NoError(t, err)
		assert.Equal(t, 2, second.Count())
	})
}
