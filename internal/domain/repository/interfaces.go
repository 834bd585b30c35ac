package repository

import (
	"context"
	"time"

	"LumenTrade/internal/domain/models"
)

// LedgerGateway is the opaque capability boundary to the distributed ledger.
// The core never sees the wire protocol; implementations live under
// internal/service.
type LedgerGateway interface {
	LoadAccount(ctx context.Context, accountID string) (models.AccountSnapshot, error)
	OrderBook(ctx context.Context, pair models.AssetPair) (rawBids, rawAsks []models.RawOffer, err error)
	TradeAggregations(ctx context.Context, pair models.AssetPair, resolution time.Duration, from, to time.Time) ([]models.OHLCVBar, error)
	Submit(ctx context.Context, envelope SignedEnvelope) (SubmitReceipt, error)
}

// SignedEnvelope is an opaque signed transaction blob; building and signing
// it is the gateway implementation's concern.
type SignedEnvelope struct {
	Base64 string
}

// SubmitReceipt is the ledger's acknowledgement of a submission.
type SubmitReceipt struct {
	Hash   string
	Ledger int64
}

// EnvelopeBuilder turns an order intent into a signed manage-offer envelope.
// Building and signing are the ledger SDK side of the boundary; the core only
// handles the resulting opaque blob.
type EnvelopeBuilder interface {
	BuildManageOffer(intent models.OrderIntent) (SignedEnvelope, error)
}

// Journal records cycle outcomes and executions for later analysis. Journal
// failures must never stop trading.
type Journal interface {
	RecordCycle(ctx context.Context, sig models.Signal, dec models.PositionSizeDecision, res *models.ExecutionResult) error
	RecordExecution(ctx context.Context, intent models.OrderIntent, res models.ExecutionResult) error
	Close() error
}

// EventPublisher pushes execution events to downstream consumers.
type EventPublisher interface {
	PublishExecution(ctx context.Context, intent models.OrderIntent, res models.ExecutionResult) error
	Close() error
}

// SubmissionIndex is the persistent de-duplication record of submitted
// transactions, keyed by the SHA-256 of the signed envelope (offer ids reset
// across restarts and must not be used for this). The executor checks Seen
// before every submit and records the hash after a successful one.
type SubmissionIndex interface {
	Record(ctx context.Context, hash string, intent models.OrderIntent) error
	Seen(ctx context.Context, hash string) (bool, error)
	Close() error
}

// BarCache caches OHLCV windows between polls.
type BarCache interface {
	GetBars(key string) ([]models.OHLCVBar, bool)
	SetBars(key string, bars []models.OHLCVBar, ttl time.Duration)
}

// Metrics is the observability sink implemented by pkg/metrics.
type Metrics interface {
	RecordCycle(outcome string)
	RecordSignal(strategy string, action models.SignalAction)
	RecordOrder(side models.Side, status models.ExecutionStatus)
	RecordError(kind string)
	RecordLastPrice(pair string, price float64)
	RecordLatency(op string, seconds float64)
}
