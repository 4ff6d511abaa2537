package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Heatmap/internal/service/cache"
)

func TestRegistryEmptyByDefault(t *testing.T) {
	r := NewTickerRegistry(cache.NewTTLCache())
	got, err := r.ListSymbols(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRegistrySeedNormalizes(t *testing.T) {
	r := NewTickerRegistry(cache.NewTTLCache())
	ctx := context.Background()

	require.NoError(t, r.Seed(ctx, []string{"aapl", " MSFT ", "", "msft"}))
	got, err := r.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestRegistrySeedMerges(t *testing.T) {
	r := NewTickerRegistry(cache.NewTTLCache())
	ctx := context.Background()

	require.NoError(t, r.Seed(ctx, []string{"TSLA", "AAPL"}))
	require.NoError(t, r.Seed(ctx, []string{"NVDA", "AAPL"}))

	got, err := r.ListSymbols(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "NVDA", "TSLA"}, got)
}
