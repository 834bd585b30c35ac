package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"LumenTrade/internal/domain/repository"
	domservice "LumenTrade/internal/domain/service"
	"LumenTrade/internal/handler/api"
	"LumenTrade/internal/strategy"
	"LumenTrade/internal/usecase"
	pkgch "LumenTrade/pkg/clickhouse"
	"LumenTrade/pkg/config"
	xhttp "LumenTrade/pkg/http"
	applogger "LumenTrade/pkg/logger"
)

// App encapsulates the entire application lifecycle: the trading loop, the
// control HTTP server, and every closable infrastructure client.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	loop       *usecase.TradingLoop
	registry   *strategy.Registry
	risk       *usecase.RiskManager
	index      repository.SubmissionIndex
	journal    repository.Journal
	events     repository.EventPublisher
	classifier domservice.Classifier
	chClient   *pkgch.Client

	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Optional components
// (index, journal, events, classifier, chClient) may be nil.
func New(
	cfg *config.Config,
	logger *applogger.Logger,
	loop *usecase.TradingLoop,
	registry *strategy.Registry,
	risk *usecase.RiskManager,
	index repository.SubmissionIndex,
	journal repository.Journal,
	events repository.EventPublisher,
	classifier domservice.Classifier,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:        cfg,
		logger:     logger,
		loop:       loop,
		registry:   registry,
		risk:       risk,
		index:      index,
		journal:    journal,
		events:     events,
		classifier: classifier,
		chClient:   chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	handler := api.NewControlEchoHandler(a.logger, ctx, a.loop, a.registry, a.risk)
	a.httpServer = xhttp.NewServer(handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.loop.Start(ctx)
	a.logger.Info("trading loop started",
		applogger.String("strategy", a.cfg.Trading.Strategy),
		applogger.Duration("poll_interval", a.cfg.Trading.PollInterval),
	)

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops the loop, the HTTP server, and every client.
func (a *App) shutdown(ctx context.Context) error {
	a.loop.Stop()
	a.logger.Info("trading loop stopped")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.logger.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.logger.Warn("journal close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.index != nil {
		if err := a.index.Close(); err != nil {
			a.logger.Warn("submission index close error", applogger.Error(err))
		}
	}
	if a.classifier != nil {
		if err := a.classifier.Close(); err != nil {
			a.logger.Warn("classifier close error", applogger.Error(err))
		}
	}

	a.logger.Info("shutdown complete")
	return nil
}
