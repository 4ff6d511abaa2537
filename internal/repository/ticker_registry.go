package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"Heatmap/internal/service/cache"
)

const tickersKey = "tickers"

// TickerRegistry keeps the known symbol universe as a single JSON list.
// Symbol management happens outside this service; the registry is seeded
// from config at startup and read when a quotes request names no symbols.
type TickerRegistry struct {
	cache cache.BytesCache
}

func NewTickerRegistry(c cache.BytesCache) *TickerRegistry {
	return &TickerRegistry{cache: c}
}

func (r *TickerRegistry) ListSymbols(ctx context.Context) ([]string, error) {
	b, ok, err := r.cache.GetBytes(ctx, tickersKey)
	if err != nil {
		return nil, fmt.Errorf("registry read: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var symbols []string
	if err := json.Unmarshal(b, &symbols); err != nil {
		return nil, fmt.Errorf("registry decode: %w", err)
	}
	return symbols, nil
}

// Seed merges the given symbols into the registry, uppercased and deduped.
func (r *TickerRegistry) Seed(ctx context.Context, symbols []string) error {
	existing, err := r.ListSymbols(ctx)
	if err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(existing)+len(symbols))
	merged := make([]string, 0, len(existing)+len(symbols))
	for _, sym := range append(existing, symbols...) {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		merged = append(merged, sym)
	}
	sort.Strings(merged)

	b, err := json.Marshal(merged)
	if err != nil {
		return fmt.Errorf("registry encode: %w", err)
	}
	if err := r.cache.SetBytes(ctx, tickersKey, b, 0); err != nil {
		return fmt.Errorf("registry write: %w", err)
	}
	return nil
}
