package di

import (
	"context"
	"fmt"
	"io"
	"time"

	"Heatmap/internal/domain/repository"
	"Heatmap/internal/handler/api"
	internalrepo "Heatmap/internal/repository"
	"Heatmap/internal/service/cache"
	"Heatmap/internal/service/finnhub"
	"Heatmap/internal/service/ratelimit"
	"Heatmap/internal/usecase"
	"Heatmap/pkg/config"
	xhttp "Heatmap/pkg/http"
	applogger "Heatmap/pkg/logger"
	"Heatmap/pkg/metrics"
	"Heatmap/pkg/server"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideBytesCache selects the cache backend: Redis when configured,
// otherwise an in-process TTL cache.
func ProvideBytesCache(cfg *config.Config) (cache.BytesCache, error) {
	if !cfg.Redis.Enabled {
		return cache.NewTTLCache(), nil
	}

	rc := cache.NewRedisCache(cache.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("redis connect: %w", err)
	}
	return rc, nil
}

// ProvideQuoteStore creates the durable quote cache repository.
func ProvideQuoteStore(c cache.BytesCache) repository.QuoteStore {
	return internalrepo.NewQuoteStore(c)
}

// ProvideTickerRegistry creates the registered-symbol repository.
func ProvideTickerRegistry(c cache.BytesCache) repository.TickerRegistry {
	return internalrepo.NewTickerRegistry(c)
}

// ProvideKeyStore creates the stored-credential repository.
func ProvideKeyStore(c cache.BytesCache) repository.KeyStore {
	return internalrepo.NewKeyStore(c)
}

// ProvideRateLimiter creates the per-minute provider call limiter.
func ProvideRateLimiter(cfg *config.Config) repository.RateLimiter {
	return ratelimit.New(cfg.Finnhub.PerMinuteLimit)
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideProviderFactory builds Finnhub clients per request. A key stored
// through the config endpoint wins over the environment default, so key
// changes apply without a restart.
func ProvideProviderFactory(cfg *config.Config, keys repository.KeyStore) usecase.ProviderFactory {
	return func(ctx context.Context) repository.MarketData {
		apiKey := cfg.Finnhub.APIKey
		if stored, _, err := keys.StoredKey(ctx); err == nil && stored != "" {
			apiKey = stored
		}
		return finnhub.New(apiKey, cfg.Finnhub.BaseURL, cfg.Finnhub.Timeout,
			finnhub.WithRetry(cfg.Finnhub.MaxRetries, cfg.Finnhub.BackoffFactor),
		)
	}
}

// ProvideQuoteService creates the quote orchestration use case.
func ProvideQuoteService(
	factory usecase.ProviderFactory,
	store repository.QuoteStore,
	registry repository.TickerRegistry,
	limiter repository.RateLimiter,
	rec repository.Metrics,
	logger *applogger.Logger,
	cfg *config.Config,
) *usecase.QuoteService {
	return usecase.NewQuoteService(
		factory,
		store,
		registry,
		limiter,
		rec,
		logger,
		cfg.Finnhub.QuoteTTL,
		cfg.Finnhub.MetricsTTL,
		cfg.Finnhub.MaxConcurrency,
	)
}

// ProvideHandler creates the HTTP API handler.
func ProvideHandler(logger *applogger.Logger, quotes *usecase.QuoteService, keys repository.KeyStore) xhttp.Handler {
	return api.NewMarketHandler(logger, quotes, keys)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	logger *applogger.Logger,
	handler xhttp.Handler,
	registry repository.TickerRegistry,
	c cache.BytesCache,
) *server.App {
	closer, _ := c.(io.Closer) // nil for the in-memory cache
	return server.New(cfg, logger, handler, registry, closer)
}
