package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/repowatch/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func delivery(itemID int64, deliveredAt time.Time) model.Delivery {
	return model.Delivery{
		RunID:       "run-1",
		Kind:        model.KindPullRequest,
		ItemID:      itemID,
		Title:       "Some change",
		URL:         "https://example.com/pulls/1",
		ItemTime:    deliveredAt.Add(-time.Hour),
		DeliveredAt: deliveredAt,
	}
}

func TestSQLiteStore_RecordAndCount(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	count, err := s.CountDeliveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordDelivery(ctx, delivery(1, base)))
	require.NoError(t, s.RecordDelivery(ctx, delivery(2, base.Add(time.Minute))))

	count, err = s.CountDeliveries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestSQLiteStore_RecentDeliveriesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, s.RecordDelivery(ctx, delivery(i, base.Add(time.Duration(i)*time.Minute))))
	}

	recent, err := s.RecentDeliveries(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, int64(5), recent[0].ItemID)
	assert.Equal(t, int64(4), recent[1].ItemID)
	assert.Equal(t, int64(3), recent[2].ItemID)
	assert.True(t, recent[0].DeliveredAt.Equal(base.Add(5*time.Minute)))
}

func TestSQLiteStore_RecordFillsDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordDelivery(ctx, model.Delivery{
		RunID:    "run-2",
		Kind:     model.KindRelease,
		ItemID:   99,
		Title:    "v1.0.0",
		URL:      "https://example.com/releases/v1.0.0",
		ItemTime: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}))

	recent, err := s.RecentDeliveries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.NotEmpty(t, recent[0].ID)
	assert.WithinDuration(t, time.Now().UTC(), recent[0].DeliveredAt, time.Minute)
}

func TestSQLiteStore_MigrationsAreIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordDelivery(context.Background(),
		delivery(1, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))))
	require.NoError(t, s.Close())

	// Reopening an existing database must not reapply migrations or lose data.
	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer s.Close()

	count, err := s.CountDeliveries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
