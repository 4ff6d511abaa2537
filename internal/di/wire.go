//go:build wireinject
// +build wireinject

package di

import (
	"Heatmap/pkg/config"
	"Heatmap/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Storage
		ProvideBytesCache,
		ProvideQuoteStore,
		ProvideTickerRegistry,
		ProvideKeyStore,

		// Provider access
		ProvideProviderFactory,
		ProvideRateLimiter,

		// Use cases
		ProvideQuoteService,

		// HTTP surface
		ProvideHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
