package usecase

import (
	"context"
	"errors"
	"time"

	"Heatmap/internal/domain/models"
	drepo "Heatmap/internal/domain/repository"
	"Heatmap/internal/service/finnhub"
	"Heatmap/internal/service/marketclock"
	applogger "Heatmap/pkg/logger"
)

// rateLimitNote annotates symbols skipped by admission control. The prefix
// matches the provider's 429 code so clients handle both the same way.
const rateLimitNote = "RATE_LIMIT: provider call budget exhausted"

// ProviderFactory builds a MarketData client for one request. The factory
// resolves the API key at call time so a stored key update takes effect
// without a restart.
type ProviderFactory func(ctx context.Context) drepo.MarketData

// QuoteService orchestrates batch quote retrieval: cache freshness
// partitioning, rate-limit admission, bounded-parallel provider fetches and
// three-tier fallback assembly.
type QuoteService struct {
	newProvider ProviderFactory
	store       drepo.QuoteStore
	registry    drepo.TickerRegistry
	limiter     drepo.RateLimiter
	metrics     drepo.Metrics
	logger      *applogger.Logger

	quoteTTL   int // seconds; 0 disables quote caching
	metricsTTL int // seconds; <=0 means metrics are always stale
	maxWorkers int

	now func() time.Time
}

const defaultMaxWorkers = 4

func NewQuoteService(
	newProvider ProviderFactory,
	store drepo.QuoteStore,
	registry drepo.TickerRegistry,
	limiter drepo.RateLimiter,
	metrics drepo.Metrics,
	logger *applogger.Logger,
	quoteTTL, metricsTTL, maxWorkers int,
) *QuoteService {
	if quoteTTL < 0 {
		quoteTTL = 0
	}
	if maxWorkers < 1 {
		maxWorkers = defaultMaxWorkers
	}
	return &QuoteService{
		newProvider: newProvider,
		store:       store,
		registry:    registry,
		limiter:     limiter,
		metrics:     metrics,
		logger:      logger,
		quoteTTL:    quoteTTL,
		metricsTTL:  metricsTTL,
		maxWorkers:  maxWorkers,
		now:         time.Now,
	}
}

// GetQuotes serves the best currently obtainable payload per symbol. It
// never fails for provider-side reasons; per-symbol annotations carry those.
// An empty symbol list expands to every registered ticker.
func (s *QuoteService) GetQuotes(ctx context.Context, symbols []string) (models.QuotesResponse, error) {
	if len(symbols) == 0 {
		var err error
		symbols, err = s.registry.ListSymbols(ctx)
		if err != nil {
			return models.QuotesResponse{}, err
		}
	}

	now := s.now()
	nowTS := now.Unix()

	cached, err := s.store.ReadMany(ctx, symbols)
	if err != nil {
		// The cache is advisory; a broken store degrades to fetch-everything.
		s.logger.Warn("cache read failed", applogger.Error(err))
		cached = map[string]models.CachedPayload{}
	}

	// Partition: fresh cache hits vs symbols needing a fetch.
	freshCache := make(map[string]models.Payload)
	toFetch := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		cp, ok := cached[sym]
		if ok && s.quoteTTL > 0 && !cp.Payload.IsEmpty() && nowTS-cp.FetchedAt < int64(s.quoteTTL) {
			freshCache[sym] = cp.Payload
			continue
		}
		toFetch = append(toFetch, sym)
	}

	// Admission control: the tail beyond the granted budget falls back to
	// whatever cache exists.
	requested := len(toFetch)
	granted, snap := s.limiter.Reserve(requested)
	rateLimited := make(map[string]bool)
	if granted < requested {
		for _, sym := range toFetch[granted:] {
			rateLimited[sym] = true
			if cp, ok := cached[sym]; ok && !cp.Payload.IsEmpty() {
				freshCache[sym] = cp.Payload
			}
		}
		toFetch = toFetch[:granted]
	}
	s.metrics.RecordRateLimit(snap.Used, snap.Limit)

	client := s.newProvider(ctx)

	quoteResults, quoteErrors := parallelMap(toFetch, s.maxWorkers, func(sym string) (models.Quote, error) {
		start := time.Now()
		q, err := client.Quote(ctx, sym)
		s.metrics.RecordFetchLatency("quote", time.Since(start).Seconds())
		s.metrics.RecordProviderCall("quote", callOutcome(err))
		return q, err
	})

	// Metrics refresh is best-effort and deliberately not rate-limited;
	// only quote calls draw from the per-minute budget.
	metricsSymbols := make([]string, 0, len(symbols))
	for _, sym := range symbols {
		if quoteErrors[sym] != nil || rateLimited[sym] {
			continue
		}
		if s.metricsTTL <= 0 {
			metricsSymbols = append(metricsSymbols, sym)
			continue
		}
		asOf := cached[sym].Payload.MetricsAsOf
		if asOf == nil || nowTS-*asOf >= int64(s.metricsTTL) {
			metricsSymbols = append(metricsSymbols, sym)
		}
	}

	metricsResults, metricsErrors := parallelMap(metricsSymbols, s.maxWorkers, func(sym string) (models.MetricsSnapshot, error) {
		start := time.Now()
		m, err := client.Metrics(ctx, sym)
		s.metrics.RecordFetchLatency("metric", time.Since(start).Seconds())
		s.metrics.RecordProviderCall("metric", callOutcome(err))
		return m, err
	})

	quotes := make(map[string]models.Payload, len(symbols))
	notes := make(map[string]string)

	for _, sym := range symbols {
		cp, hasRecord := cached[sym]
		hasStale := hasRecord && !cp.Payload.IsEmpty()
		payload, hasFresh := freshCache[sym]
		_, hasFetched := quoteResults[sym]

		switch decide(hasFetched, hasFresh, hasStale) {
		case serveFetched:
			p := models.PayloadFromQuote(quoteResults[sym])
			if m, ok := metricsResults[sym]; ok {
				p.ApplyMetrics(m, nowTS)
			} else if hasRecord {
				p.CarryMetricsFrom(cp.Payload)
			}
			quotes[sym] = p
			if err := s.store.Upsert(ctx, sym, p); err != nil {
				s.logger.Warn("cache upsert failed", applogger.String("symbol", sym), applogger.Error(err))
			}
			s.annotate(notes, sym, rateLimited[sym], metricsErrors[sym], false)

		case serveFresh:
			if m, ok := metricsResults[sym]; ok {
				payload.ApplyMetrics(m, nowTS)
				if err := s.store.Patch(ctx, sym, payload); err != nil {
					s.logger.Warn("cache patch failed", applogger.String("symbol", sym), applogger.Error(err))
				}
			}
			quotes[sym] = payload
			s.metrics.RecordCacheServe(cacheServeKind(rateLimited[sym]))
			s.annotate(notes, sym, rateLimited[sym], metricsErrors[sym], true)

		case serveStale:
			quotes[sym] = cp.Payload
			s.metrics.RecordCacheServe("stale")
			if qe := quoteErrors[sym]; qe != nil {
				notes[sym] = formatProviderError(qe) + " (using cached)"
			}

		case serveNone:
			if qe := quoteErrors[sym]; qe != nil {
				notes[sym] = formatProviderError(qe)
			} else if rateLimited[sym] {
				notes[sym] = rateLimitNote
			}
		}
	}

	s.logger.Debug("quotes batch",
		applogger.Int("symbols", len(symbols)),
		applogger.Int("fetched", len(toFetch)),
		applogger.Int("rate_limited", len(rateLimited)),
		applogger.Int("errors", len(notes)),
	)

	return models.QuotesResponse{
		AsOf:         nowTS,
		MarketStatus: marketclock.Status(now),
		Quotes:       quotes,
		Errors:       notes,
		RateLimit: models.RateLimitInfo{
			Limit:     snap.Limit,
			Used:      snap.Used,
			Remaining: snap.Remaining,
			ResetIn:   snap.ResetIn,
			Requested: requested,
			Granted:   granted,
			Skipped:   requested - granted,
		},
	}, nil
}

// annotate attaches the per-symbol note for served payloads: admission
// spillover wins over a failed metrics refresh. fromCache adds the marker
// telling clients the payload they got is a cached fallback.
func (s *QuoteService) annotate(notes map[string]string, sym string, limited bool, metricsErr error, fromCache bool) {
	if limited {
		note := rateLimitNote
		if fromCache {
			note += " (using cached)"
		}
		notes[sym] = note
		return
	}
	if metricsErr != nil {
		notes[sym] = formatProviderError(metricsErr) + " (kept cached metrics)"
	}
}

// GetMarketStatus reports the current US trading session.
func (s *QuoteService) GetMarketStatus() models.MarketStatus {
	return marketclock.Status(s.now())
}

// SearchSymbols looks up stock symbols through the provider.
func (s *QuoteService) SearchSymbols(ctx context.Context, query, exchange string) ([]models.SearchResult, error) {
	client := s.newProvider(ctx)
	start := time.Now()
	results, err := client.Search(ctx, query, exchange)
	s.metrics.RecordFetchLatency("search", time.Since(start).Seconds())
	s.metrics.RecordProviderCall("search", callOutcome(err))
	return results, err
}

func formatProviderError(err error) string {
	var fe *finnhub.Error
	if errors.As(err, &fe) {
		return fe.Code + ": " + fe.Message
	}
	return err.Error()
}

func callOutcome(err error) string {
	if err == nil {
		return "ok"
	}
	var fe *finnhub.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return "ERROR"
}

func cacheServeKind(limited bool) string {
	if limited {
		return "fallback"
	}
	return "fresh"
}
