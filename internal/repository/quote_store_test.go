package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Heatmap/internal/domain/models"
	"Heatmap/internal/service/cache"
)

func f64(v float64) *float64 { return &v }

func TestQuoteStoreUpsertStampsFetchedAt(t *testing.T) {
	store := NewQuoteStore(cache.NewTTLCache())
	stamp := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return stamp }

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "AAPL", models.Payload{Current: f64(190)}))

	got, err := store.ReadMany(ctx, []string{"AAPL"})
	require.NoError(t, err)
	require.Contains(t, got, "AAPL")
	assert.Equal(t, stamp.Unix(), got["AAPL"].FetchedAt)
	assert.Equal(t, 190.0, *got["AAPL"].Payload.Current)
}

func TestQuoteStorePatchKeepsFetchedAt(t *testing.T) {
	store := NewQuoteStore(cache.NewTTLCache())
	first := time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return first }

	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "AAPL", models.Payload{Current: f64(190)}))

	store.now = func() time.Time { return first.Add(time.Hour) }
	patched := models.Payload{Current: f64(190), Week52High: f64(199.6)}
	require.NoError(t, store.Patch(ctx, "AAPL", patched))

	got, err := store.ReadMany(ctx, []string{"AAPL"})
	require.NoError(t, err)
	assert.Equal(t, first.Unix(), got["AAPL"].FetchedAt, "patch must not refresh the quote stamp")
	assert.Equal(t, 199.6, *got["AAPL"].Payload.Week52High)
}

func TestQuoteStorePatchMissingIsNoop(t *testing.T) {
	store := NewQuoteStore(cache.NewTTLCache())
	ctx := context.Background()

	require.NoError(t, store.Patch(ctx, "GHOST", models.Payload{Current: f64(1)}))

	got, err := store.ReadMany(ctx, []string{"GHOST"})
	require.NoError(t, err)
	assert.NotContains(t, got, "GHOST")
}

func TestQuoteStoreReadManySkipsMissing(t *testing.T) {
	store := NewQuoteStore(cache.NewTTLCache())
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "MSFT", models.Payload{Current: f64(420)}))

	got, err := store.ReadMany(ctx, []string{"AAPL", "MSFT", "TSLA"})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Contains(t, got, "MSFT")
}
