//go:build wireinject
// +build wireinject

package di

import (
	"LumenTrade/pkg/config"
	"LumenTrade/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,
		ProvideRegistry,
		ProvidePair,

		// Infrastructure clients
		ProvideLedgerGateway,
		ProvideEnvelopeBuilder,
		ProvideSubmissionIndex,
		ProvideClickHouseClient,
		ProvideJournal,
		ProvideEventPublisher,
		ProvideBarCache,
		ProvideClassifier,

		// Use cases
		ProvideRiskManager,
		ProvideSignalAggregator,
		ProvideOrderExecutor,
		ProvideTradingLoop,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
