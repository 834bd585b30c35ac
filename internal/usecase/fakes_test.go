package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	xlogger "LumenTrade/pkg/logger"
)

func newTestLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

// fakeGateway scripts ledger responses per call site.
type fakeGateway struct {
	mu sync.Mutex

	account    models.AccountSnapshot
	accountErr error

	bars    []models.OHLCVBar
	barsErr error

	bids, asks []models.RawOffer
	bookErr    error

	receipt   repository.SubmitReceipt
	submitErr error

	accountCalls int
	barsCalls    int
	submitCalls  int
}

func (g *fakeGateway) LoadAccount(ctx context.Context, accountID string) (models.AccountSnapshot, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.accountCalls++
	return g.account, g.accountErr
}

func (g *fakeGateway) OrderBook(ctx context.Context, pair models.AssetPair) ([]models.RawOffer, []models.RawOffer, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bids, g.asks, g.bookErr
}

func (g *fakeGateway) TradeAggregations(ctx context.Context, pair models.AssetPair, resolution time.Duration, from, to time.Time) ([]models.OHLCVBar, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.barsCalls++
	return g.bars, g.barsErr
}

func (g *fakeGateway) Submit(ctx context.Context, envelope repository.SignedEnvelope) (repository.SubmitReceipt, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.submitCalls++
	return g.receipt, g.submitErr
}

type fakeBuilder struct {
	err     error
	intents []models.OrderIntent
}

func (b *fakeBuilder) BuildManageOffer(intent models.OrderIntent) (repository.SignedEnvelope, error) {
	if b.err != nil {
		return repository.SignedEnvelope{}, b.err
	}
	b.intents = append(b.intents, intent)
	return repository.SignedEnvelope{Base64: "AAAA"}, nil
}

type fakeIndex struct {
	mu     sync.Mutex
	hashes []string
}

func (i *fakeIndex) Record(ctx context.Context, hash string, intent models.OrderIntent) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.hashes = append(i.hashes, hash)
	return nil
}

func (i *fakeIndex) Seen(ctx context.Context, hash string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	for _, h := range i.hashes {
		if h == hash {
			return true, nil
		}
	}
	return false, nil
}

func (i *fakeIndex) Close() error { return nil }

// fakeJournal counts rows per table.
type fakeJournal struct {
	mu     sync.Mutex
	cycles int
	execs  []models.ExecutionResult
}

func (j *fakeJournal) RecordCycle(ctx context.Context, sig models.Signal, dec models.PositionSizeDecision, res *models.ExecutionResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.cycles++
	return nil
}

func (j *fakeJournal) RecordExecution(ctx context.Context, intent models.OrderIntent, res models.ExecutionResult) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.execs = append(j.execs, res)
	return nil
}

func (j *fakeJournal) Close() error { return nil }

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string)                            {}
func (nopMetrics) RecordSignal(string, models.SignalAction)      {}
func (nopMetrics) RecordOrder(models.Side, models.ExecutionStatus) {}
func (nopMetrics) RecordError(string)                            {}
func (nopMetrics) RecordLastPrice(string, float64)               {}
func (nopMetrics) RecordLatency(string, float64)                 {}

type stubClassifier struct {
	verdict    int
	confidence float64
	err        error
}

func (c stubClassifier) Predict([]models.OHLCVBar) (int, float64, error) {
	return c.verdict, c.confidence, c.err
}

func (c stubClassifier) Close() error { return nil }

func testPair() models.AssetPair {
	return models.AssetPair{
		Base:    models.AssetRef{Native: true},
		Counter: models.AssetRef{Code: "USDC", Issuer: "GATEST"},
	}
}

func snapshotWith(asset models.AssetRef, amount string) models.AccountSnapshot {
	d, _ := decimal.NewFromString(amount)
	return models.AccountSnapshot{
		AccountID: "GACCOUNT",
		Balances:  map[string]decimal.Decimal{asset.String(): d},
		FetchedAt: time.Now(),
	}
}
