package repository

import (
	"context"

	"Heatmap/internal/domain/models"
)

// MarketData is the remote quote provider as seen by the orchestrator.
type MarketData interface {
	Quote(ctx context.Context, symbol string) (models.Quote, error)
	Metrics(ctx context.Context, symbol string) (models.MetricsSnapshot, error)
	Search(ctx context.Context, query, exchange string) ([]models.SearchResult, error)
}

// QuoteStore is the durable per-symbol payload cache. One record per symbol;
// the store stamps FetchedAt on every Upsert.
type QuoteStore interface {
	ReadMany(ctx context.Context, symbols []string) (map[string]models.CachedPayload, error)
	// Upsert replaces the payload and refreshes FetchedAt.
	Upsert(ctx context.Context, symbol string, p models.Payload) error
	// Patch replaces the payload without touching FetchedAt. Used when only
	// metrics were refreshed on top of a quote-freshness hit.
	Patch(ctx context.Context, symbol string, p models.Payload) error
}

// TickerRegistry supplies the known symbol universe. Record management is
// owned elsewhere; the orchestrator only ever reads it.
type TickerRegistry interface {
	ListSymbols(ctx context.Context) ([]string, error)
	Seed(ctx context.Context, symbols []string) error
}

// KeyStore holds the per-deployment provider credential.
type KeyStore interface {
	StoredKey(ctx context.Context) (key string, updatedAt int64, err error)
	SetKey(ctx context.Context, key string) error
}

// RateLimiter gates outbound provider calls. Reserve grants up to n slots
// from the current window and reports the window state after the grant.
type RateLimiter interface {
	Reserve(n int) (granted int, snap RateLimitSnapshot)
}

// RateLimitSnapshot is the limiter window state at reservation time.
type RateLimitSnapshot struct {
	Limit     int
	Used      int
	Remaining int
	ResetIn   int // whole seconds until the window resets
}

// Metrics records operational counters for the quote pipeline.
type Metrics interface {
	RecordProviderCall(endpoint, outcome string)
	RecordFetchLatency(endpoint string, seconds float64)
	RecordRateLimit(used, limit int)
	RecordCacheServe(kind string)
}
