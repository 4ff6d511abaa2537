package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"Heatmap/internal/domain/models"
	"Heatmap/internal/service/cache"
)

const quoteKeyPrefix = "quote:"

// QuoteStore persists one CachedPayload per symbol on a BytesCache.
// Records never expire; freshness is the orchestrator's decision.
type QuoteStore struct {
	cache cache.BytesCache
	now   func() time.Time
}

func NewQuoteStore(c cache.BytesCache) *QuoteStore {
	return &QuoteStore{cache: c, now: time.Now}
}

func quoteKey(symbol string) string { return quoteKeyPrefix + symbol }

// ReadMany loads the cached payloads for all requested symbols in one batch.
// Symbols without a record (or with an unreadable one) are absent from the
// result.
func (s *QuoteStore) ReadMany(ctx context.Context, symbols []string) (map[string]models.CachedPayload, error) {
	keys := make([]string, len(symbols))
	for i, sym := range symbols {
		keys[i] = quoteKey(sym)
	}
	raw, err := s.cache.MGetBytes(ctx, keys...)
	if err != nil {
		return nil, fmt.Errorf("quote store read: %w", err)
	}

	out := make(map[string]models.CachedPayload, len(raw))
	for i, sym := range symbols {
		b, ok := raw[keys[i]]
		if !ok {
			continue
		}
		var cp models.CachedPayload
		if err := json.Unmarshal(b, &cp); err != nil {
			continue
		}
		out[sym] = cp
	}
	return out, nil
}

// Upsert replaces the stored payload and stamps FetchedAt.
func (s *QuoteStore) Upsert(ctx context.Context, symbol string, p models.Payload) error {
	cp := models.CachedPayload{Payload: p, FetchedAt: s.now().Unix()}
	b, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("quote store marshal %s: %w", symbol, err)
	}
	if err := s.cache.SetBytes(ctx, quoteKey(symbol), b, 0); err != nil {
		return fmt.Errorf("quote store upsert %s: %w", symbol, err)
	}
	return nil
}

// Patch replaces the stored payload of an existing record while keeping its
// FetchedAt. Missing records are left alone: a patch carries only a metrics
// overlay, which is meaningless without a base quote on record.
func (s *QuoteStore) Patch(ctx context.Context, symbol string, p models.Payload) error {
	b, ok, err := s.cache.GetBytes(ctx, quoteKey(symbol))
	if err != nil {
		return fmt.Errorf("quote store patch read %s: %w", symbol, err)
	}
	if !ok {
		return nil
	}
	var cp models.CachedPayload
	if err := json.Unmarshal(b, &cp); err != nil {
		return nil
	}
	cp.Payload = p
	nb, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("quote store marshal %s: %w", symbol, err)
	}
	if err := s.cache.SetBytes(ctx, quoteKey(symbol), nb, 0); err != nil {
		return fmt.Errorf("quote store patch %s: %w", symbol, err)
	}
	return nil
}
