package di

import (
	"context"
	"fmt"
	"time"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	domservice "LumenTrade/internal/domain/service"
	internalrepo "LumenTrade/internal/repository"
	icache "LumenTrade/internal/service/cache"
	"LumenTrade/internal/service/classifier"
	"LumenTrade/internal/service/horizon"
	"LumenTrade/internal/strategy"
	"LumenTrade/internal/usecase"
	pkgch "LumenTrade/pkg/clickhouse"
	"LumenTrade/pkg/config"
	pkgkafka "LumenTrade/pkg/kafka"
	applogger "LumenTrade/pkg/logger"
	"LumenTrade/pkg/metrics"
	"LumenTrade/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level, format, output := cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output
	if level == "" {
		level = "info"
	}
	if format == "" {
		format = "console"
	}
	if output == "" {
		output = "stdout"
	}
	l, err := applogger.New(&applogger.Config{Level: level, Format: format, Output: output})
	if err != nil {
		return nil, err
	}
	l.AddCollector(50)
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideRegistry creates the strategy registry with the built-ins.
func ProvideRegistry() *strategy.Registry {
	return strategy.NewRegistry()
}

// ProvidePair builds the traded asset pair from config.
func ProvidePair(cfg *config.Config) models.AssetPair {
	return models.AssetPair{
		Base:    assetFromConfig(cfg.Pair.Base),
		Counter: assetFromConfig(cfg.Pair.Counter),
	}
}

func assetFromConfig(a config.AssetConfig) models.AssetRef {
	if a.Native {
		return models.AssetRef{Native: true}
	}
	return models.AssetRef{Code: a.Code, Issuer: a.Issuer}
}

// ProvideLedgerGateway creates the Horizon REST gateway.
func ProvideLedgerGateway(cfg *config.Config, l *applogger.Logger) repository.LedgerGateway {
	return horizon.NewClient(horizon.Config{
		BaseURL:      cfg.Horizon.BaseURL,
		Timeout:      cfg.Horizon.Timeout,
		RateCapacity: cfg.Horizon.RateCapacity,
		RateRefill:   cfg.Horizon.RateRefill,
	}, l)
}

// ProvideEnvelopeBuilder creates the signing envelope builder.
func ProvideEnvelopeBuilder(cfg *config.Config) (repository.EnvelopeBuilder, error) {
	signer, err := horizon.NewSigner(cfg.Horizon.SigningSeed)
	if err != nil {
		return nil, fmt.Errorf("signer: %w", err)
	}
	return horizon.NewBuilder(signer), nil
}

// ProvideSubmissionIndex opens the persistent de-duplication index.
func ProvideSubmissionIndex(cfg *config.Config) (repository.SubmissionIndex, error) {
	path := cfg.Submissions.Path
	if path == "" {
		path = "data/submissions.db"
	}
	idx, err := internalrepo.OpenSubmissionIndex(path)
	if err != nil {
		return nil, fmt.Errorf("submission index: %w", err)
	}
	return idx, nil
}

// ProvideClickHouseClient creates the journal ClickHouse client, or nil when
// the journal is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.Journal.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.Journal.Host),
		pkgch.WithPort(cfg.Journal.Port),
		pkgch.WithDatabase(cfg.Journal.Database),
		pkgch.WithCredentials(cfg.Journal.User, cfg.Journal.Password),
		pkgch.WithTimeouts(cfg.Journal.DialTimeout, 10*time.Second, 10*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideJournal creates the cycle journal, or nil when disabled.
func ProvideJournal(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.Journal, error) {
	if ch == nil {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return internalrepo.NewCHJournal(ctx, ch, l)
}

// ProvideEventPublisher creates the Kafka execution event publisher, or nil
// when disabled.
func ProvideEventPublisher(cfg *config.Config) (repository.EventPublisher, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithMaxAttempts(cfg.Events.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic), nil
}

// ProvideBarCache creates the OHLCV window cache, or nil when disabled.
func ProvideBarCache(cfg *config.Config, l *applogger.Logger) repository.BarCache {
	if !cfg.Cache.Enabled {
		return nil
	}
	var backend icache.BytesCache
	if cfg.Cache.Backend == "redis" {
		backend = icache.NewRedisCache(icache.Config{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
	} else {
		backend = icache.NewTTLCache()
	}
	return icache.NewBarCache(backend, l)
}

// ProvideClassifier loads the optional ONNX classifier. Load failures degrade
// to running without a classifier, never fatal.
func ProvideClassifier(cfg *config.Config, l *applogger.Logger) domservice.Classifier {
	if !cfg.Classifier.Enabled {
		return nil
	}
	c, err := classifier.New(classifier.Config{
		Enabled:    true,
		ModelPath:  cfg.Classifier.ModelPath,
		WindowBars: cfg.Classifier.WindowBars,
	}, l)
	if err != nil {
		l.Warn("classifier unavailable, continuing without it", applogger.Error(err))
		return nil
	}
	return c
}

// ProvideRiskManager creates the risk manager from config.
func ProvideRiskManager(cfg *config.Config, l *applogger.Logger) *usecase.RiskManager {
	return usecase.NewRiskManager(usecase.RiskConfig{
		RiskPercent:         cfg.Risk.RiskPercent,
		StopDistance:        cfg.Risk.StopDistance,
		MaxDailyLossPercent: cfg.Risk.MaxDailyLossPercent,
	}, l)
}

// ProvideSignalAggregator creates the aggregator, blending in the classifier
// when one is available.
func ProvideSignalAggregator(reg *strategy.Registry, c domservice.Classifier, cfg *config.Config, l *applogger.Logger) *usecase.SignalAggregator {
	agg := usecase.NewSignalAggregator(reg, l)
	if c != nil {
		agg = agg.WithClassifier(c, cfg.Classifier.Threshold)
	}
	return agg
}

// ProvideOrderExecutor creates the executor.
func ProvideOrderExecutor(
	gateway repository.LedgerGateway,
	builder repository.EnvelopeBuilder,
	index repository.SubmissionIndex,
	risk *usecase.RiskManager,
	m repository.Metrics,
	l *applogger.Logger,
	cfg *config.Config,
) *usecase.OrderExecutor {
	return usecase.NewOrderExecutor(gateway, builder, index, risk, m, l, cfg.Horizon.AccountID)
}

// ProvideTradingLoop creates the loop with its optional attachments.
func ProvideTradingLoop(
	cfg *config.Config,
	pair models.AssetPair,
	gateway repository.LedgerGateway,
	agg *usecase.SignalAggregator,
	risk *usecase.RiskManager,
	exec *usecase.OrderExecutor,
	journal repository.Journal,
	events repository.EventPublisher,
	cache repository.BarCache,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.TradingLoop {
	params := models.StrategyParams{}
	for k, v := range cfg.Trading.Params {
		params[k] = v
	}

	loop := usecase.NewTradingLoop(usecase.LoopConfig{
		Strategy:     cfg.Trading.Strategy,
		Params:       params,
		Pair:         pair,
		AccountID:    cfg.Horizon.AccountID,
		PollInterval: cfg.Trading.PollInterval,
		CallTimeout:  cfg.Trading.CallTimeout,
		MaxRetries:   cfg.Trading.MaxRetries,
		BackoffMin:   cfg.Trading.BackoffMin,
		BackoffMax:   cfg.Trading.BackoffMax,
		Resolution:   cfg.Trading.Resolution,
		WindowBars:   cfg.Trading.WindowBars,
		CacheTTL:     cfg.Cache.TTL,
	}, gateway, agg, risk, exec, m, l)

	if journal != nil {
		loop = loop.WithJournal(journal)
	}
	if events != nil {
		loop = loop.WithEvents(events)
	}
	if cache != nil {
		loop = loop.WithBarCache(cache)
	}
	return loop
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	loop *usecase.TradingLoop,
	reg *strategy.Registry,
	risk *usecase.RiskManager,
	index repository.SubmissionIndex,
	journal repository.Journal,
	events repository.EventPublisher,
	c domservice.Classifier,
	ch *pkgch.Client,
) *server.App {
	return server.New(cfg, l, loop, reg, risk, index, journal, events, c, ch)
}
