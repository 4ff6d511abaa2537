package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Heatmap/internal/domain/models"
	drepo "Heatmap/internal/domain/repository"
	internalrepo "Heatmap/internal/repository"
	"Heatmap/internal/service/cache"
	"Heatmap/internal/service/finnhub"
	applogger "Heatmap/pkg/logger"
)

// fakeProvider serves canned quotes and metrics and counts calls per
// endpoint so tests can assert what was actually fetched.
type fakeProvider struct {
	mu           sync.Mutex
	quotes       map[string]models.Quote
	quoteErrs    map[string]error
	metrics      map[string]models.MetricsSnapshot
	metricsErrs  map[string]error
	quoteCalls   int
	metricsCalls int
}

func (f *fakeProvider) Quote(_ context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	f.quoteCalls++
	f.mu.Unlock()
	if err := f.quoteErrs[symbol]; err != nil {
		return models.Quote{}, err
	}
	return f.quotes[symbol], nil
}

func (f *fakeProvider) Metrics(_ context.Context, symbol string) (models.MetricsSnapshot, error) {
	f.mu.Lock()
	f.metricsCalls++
	f.mu.Unlock()
	if err := f.metricsErrs[symbol]; err != nil {
		return models.MetricsSnapshot{}, err
	}
	return f.metrics[symbol], nil
}

func (f *fakeProvider) Search(context.Context, string, string) ([]models.SearchResult, error) {
	return nil, nil
}

// fakeLimiter grants a fixed budget once and records every reservation.
type fakeLimiter struct {
	budget   int // negative means unlimited
	requests []int
}

func (f *fakeLimiter) Reserve(n int) (int, drepo.RateLimitSnapshot) {
	f.requests = append(f.requests, n)
	if f.budget < 0 {
		return n, drepo.RateLimitSnapshot{}
	}
	granted := n
	if granted > f.budget {
		granted = f.budget
	}
	f.budget -= granted
	return granted, drepo.RateLimitSnapshot{Limit: 60, Used: granted, Remaining: 60 - granted, ResetIn: 30}
}

type nopMetrics struct{}

func (nopMetrics) RecordProviderCall(string, string)  {}
func (nopMetrics) RecordFetchLatency(string, float64) {}
func (nopMetrics) RecordRateLimit(int, int)           {}
func (nopMetrics) RecordCacheServe(string)            {}

func newTestLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

type fixture struct {
	svc      *QuoteService
	provider *fakeProvider
	limiter  *fakeLimiter
	store    *internalrepo.QuoteStore
	registry *internalrepo.TickerRegistry
}

func newFixture(t *testing.T, provider *fakeProvider, limiter *fakeLimiter) *fixture {
	t.Helper()
	c := cache.NewTTLCache()
	store := internalrepo.NewQuoteStore(c)
	registry := internalrepo.NewTickerRegistry(c)
	factory := func(context.Context) drepo.MarketData { return provider }
	svc := NewQuoteService(factory, store, registry, limiter, nopMetrics{}, newTestLogger(t), 10, 21600, 4)
	return &fixture{svc: svc, provider: provider, limiter: limiter, store: store, registry: registry}
}

func quoteOf(price float64) models.Quote {
	ts := time.Now().Unix()
	return models.Quote{Current: &price, Timestamp: &ts}
}

func TestGetQuotesFetchesAndCaches(t *testing.T) {
	high, low := 199.6, 124.2
	fx := newFixture(t, &fakeProvider{
		quotes:  map[string]models.Quote{"AAPL": quoteOf(190)},
		metrics: map[string]models.MetricsSnapshot{"AAPL": {Week52High: &high, Week52Low: &low}},
	}, &fakeLimiter{budget: -1})

	ctx := context.Background()
	resp, err := fx.svc.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)

	require.Contains(t, resp.Quotes, "AAPL")
	p := resp.Quotes["AAPL"]
	assert.Equal(t, 190.0, *p.Current)
	assert.Equal(t, 199.6, *p.Week52High)
	require.NotNil(t, p.MetricsAsOf)
	assert.Empty(t, resp.Errors)

	// The fetched payload must be persisted for future fallbacks.
	cached, err := fx.store.ReadMany(ctx, []string{"AAPL"})
	require.NoError(t, err)
	require.Contains(t, cached, "AAPL")
	assert.Equal(t, 190.0, *cached["AAPL"].Payload.Current)
}

func TestGetQuotesServesFreshCacheWithoutFetching(t *testing.T) {
	fx := newFixture(t, &fakeProvider{}, &fakeLimiter{budget: -1})
	ctx := context.Background()

	asOf := time.Now().Unix()
	price := 190.0
	require.NoError(t, fx.store.Upsert(ctx, "AAPL", models.Payload{Current: &price, MetricsAsOf: &asOf}))

	resp, err := fx.svc.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 190.0, *resp.Quotes["AAPL"].Current)
	assert.Equal(t, 0, fx.provider.quoteCalls, "fresh cache must short-circuit the provider")
	assert.Equal(t, 0, fx.provider.metricsCalls, "fresh metrics must not be refetched")
	assert.Empty(t, resp.Errors)
	assert.Contains(t, fx.limiter.requests, 0, "nothing to fetch still reports the window state")
}

func TestGetQuotesRateLimitSpillover(t *testing.T) {
	fx := newFixture(t, &fakeProvider{
		quotes: map[string]models.Quote{"AAPL": quoteOf(190), "MSFT": quoteOf(420), "TSLA": quoteOf(250)},
	}, &fakeLimiter{budget: 1})
	ctx := context.Background()

	// MSFT has an old record; TSLA has nothing.
	price := 415.0
	require.NoError(t, fx.store.Upsert(ctx, "MSFT", models.Payload{Current: &price}))
	fx.svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	resp, err := fx.svc.GetQuotes(ctx, []string{"AAPL", "MSFT", "TSLA"})
	require.NoError(t, err)

	// Budget goes to the first requested symbol.
	assert.Equal(t, 190.0, *resp.Quotes["AAPL"].Current)
	assert.Equal(t, 1, fx.provider.quoteCalls)

	// MSFT falls back to its cached payload, annotated.
	assert.Equal(t, 415.0, *resp.Quotes["MSFT"].Current)
	assert.Equal(t, "RATE_LIMIT: provider call budget exhausted (using cached)", resp.Errors["MSFT"])

	// TSLA has nothing to fall back to.
	assert.NotContains(t, resp.Quotes, "TSLA")
	assert.Equal(t, "RATE_LIMIT: provider call budget exhausted", resp.Errors["TSLA"])

	assert.Equal(t, 3, resp.RateLimit.Requested)
	assert.Equal(t, 1, resp.RateLimit.Granted)
	assert.Equal(t, 2, resp.RateLimit.Skipped)
}

func TestGetQuotesProviderErrorFallsBackToCache(t *testing.T) {
	provErr := &finnhub.Error{Code: finnhub.CodeServerError, Status: 502, Message: "server error 502"}
	fx := newFixture(t, &fakeProvider{
		quoteErrs: map[string]error{"AAPL": provErr, "TSLA": provErr},
	}, &fakeLimiter{budget: -1})
	ctx := context.Background()

	price := 188.0
	require.NoError(t, fx.store.Upsert(ctx, "AAPL", models.Payload{Current: &price}))
	fx.svc.now = func() time.Time { return time.Now().Add(time.Hour) } // record is stale

	resp, err := fx.svc.GetQuotes(ctx, []string{"AAPL", "TSLA"})
	require.NoError(t, err)

	assert.Equal(t, 188.0, *resp.Quotes["AAPL"].Current)
	assert.Equal(t, "SERVER_ERROR: server error 502 (using cached)", resp.Errors["AAPL"])

	assert.NotContains(t, resp.Quotes, "TSLA")
	assert.Equal(t, "SERVER_ERROR: server error 502", resp.Errors["TSLA"])
}

func TestGetQuotesMetricsErrorKeepsCachedMetrics(t *testing.T) {
	metricsErr := &finnhub.Error{Code: finnhub.CodeNetwork, Message: "network error: boom"}
	fx := newFixture(t, &fakeProvider{
		quotes:      map[string]models.Quote{"AAPL": quoteOf(190)},
		metricsErrs: map[string]error{"AAPL": metricsErr},
	}, &fakeLimiter{budget: -1})
	ctx := context.Background()

	// Old record carrying metrics from a past refresh.
	high := 199.6
	old := time.Now().Add(-48 * time.Hour).Unix()
	require.NoError(t, fx.store.Upsert(ctx, "AAPL",
		models.Payload{Current: &high, Week52High: &high, MetricsAsOf: &old}))
	fx.svc.now = func() time.Time { return time.Now().Add(time.Hour) }

	resp, err := fx.svc.GetQuotes(ctx, []string{"AAPL"})
	require.NoError(t, err)

	p := resp.Quotes["AAPL"]
	assert.Equal(t, 190.0, *p.Current, "quote itself is fresh")
	require.NotNil(t, p.Week52High, "prior metrics survive a failed refresh")
	assert.Equal(t, 199.6, *p.Week52High)
	assert.Equal(t, "NETWORK: network error: boom (kept cached metrics)", resp.Errors["AAPL"])
}

func TestGetQuotesEmptySymbolsUsesRegistry(t *testing.T) {
	fx := newFixture(t, &fakeProvider{
		quotes: map[string]models.Quote{"AAPL": quoteOf(190), "MSFT": quoteOf(420)},
	}, &fakeLimiter{budget: -1})
	ctx := context.Background()

	require.NoError(t, fx.registry.Seed(ctx, []string{"aapl", "msft"}))

	resp, err := fx.svc.GetQuotes(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, resp.Quotes, 2)
	assert.Contains(t, resp.Quotes, "AAPL")
	assert.Contains(t, resp.Quotes, "MSFT")
}

func TestGetQuotesMetricsCallsBypassLimiter(t *testing.T) {
	high := 199.6
	fx := newFixture(t, &fakeProvider{
		quotes:  map[string]models.Quote{"AAPL": quoteOf(190)},
		metrics: map[string]models.MetricsSnapshot{"AAPL": {Week52High: &high}},
	}, &fakeLimiter{budget: 1})

	_, err := fx.svc.GetQuotes(context.Background(), []string{"AAPL"})
	require.NoError(t, err)

	assert.Equal(t, 1, fx.provider.metricsCalls)
	require.Len(t, fx.limiter.requests, 1, "only quote fetches reserve budget")
	assert.Equal(t, 1, fx.limiter.requests[0])
}

func TestGetQuotesDisabledTTLAlwaysFetches(t *testing.T) {
	provider := &fakeProvider{quotes: map[string]models.Quote{"AAPL": quoteOf(190)}}
	c := cache.NewTTLCache()
	store := internalrepo.NewQuoteStore(c)
	registry := internalrepo.NewTickerRegistry(c)
	factory := func(context.Context) drepo.MarketData { return provider }
	// Negative TTL clamps to 0: caching off.
	svc := NewQuoteService(factory, store, registry, &fakeLimiter{budget: -1}, nopMetrics{}, newTestLogger(t), -1, 21600, 4)

	ctx := context.Background()
	price := 188.0
	require.NoError(t, store.Upsert(ctx, "AAPL", models.Payload{Current: &price}))

	for i := 0; i < 2; i++ {
		resp, err := svc.GetQuotes(ctx, []string{"AAPL"})
		require.NoError(t, err)
		assert.Equal(t, 190.0, *resp.Quotes["AAPL"].Current, "a just-written record must not short-circuit the fetch")
	}
	assert.Equal(t, 2, provider.quoteCalls)
}

func TestGetQuotesResponseCarriesMarketStatus(t *testing.T) {
	fx := newFixture(t, &fakeProvider{
		quotes: map[string]models.Quote{"AAPL": quoteOf(190)},
	}, &fakeLimiter{budget: -1})

	// Tuesday 12:00 New York.
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	at := time.Date(2025, 3, 4, 12, 0, 0, 0, loc)
	fx.svc.now = func() time.Time { return at }

	resp, err := fx.svc.GetQuotes(context.Background(), []string{"AAPL"})
	require.NoError(t, err)
	assert.True(t, resp.MarketStatus.IsOpen)
	assert.Equal(t, "Regular", resp.MarketStatus.Session)
	assert.Equal(t, at.Unix(), resp.AsOf)
}
