package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/shopspring/decimal"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	"LumenTrade/internal/orderbook"
	xlogger "LumenTrade/pkg/logger"
)

// LoopConfig holds the scheduler parameters.
type LoopConfig struct {
	Strategy     string
	Params       models.StrategyParams
	Pair         models.AssetPair
	AccountID    string
	PollInterval time.Duration
	CallTimeout  time.Duration // per gateway call, strictly below PollInterval
	MaxRetries   int
	BackoffMin   time.Duration
	BackoffMax   time.Duration
	Resolution   time.Duration // bar resolution for trade aggregations
	WindowBars   int           // how many bars to fetch per cycle
	CacheTTL     time.Duration
}

// TradingLoop is the top-level control loop: fetch, normalize, evaluate,
// size, execute, sleep. It owns LoopState and the status snapshot; no other
// goroutine mutates either.
type TradingLoop struct {
	cfg     LoopConfig
	gateway repository.LedgerGateway
	agg     *SignalAggregator
	risk    *RiskManager
	exec    *OrderExecutor
	journal repository.Journal        // optional
	events  repository.EventPublisher // optional
	cache   repository.BarCache       // optional
	metrics repository.Metrics
	logger  *xlogger.Logger

	mu      sync.RWMutex
	status  models.StatusSnapshot
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

func NewTradingLoop(
	cfg LoopConfig,
	gateway repository.LedgerGateway,
	agg *SignalAggregator,
	risk *RiskManager,
	exec *OrderExecutor,
	metrics repository.Metrics,
	logger *xlogger.Logger,
) *TradingLoop {
	return &TradingLoop{
		cfg:     cfg,
		gateway: gateway,
		agg:     agg,
		risk:    risk,
		exec:    exec,
		metrics: metrics,
		logger:  logger,
		status:  models.StatusSnapshot{State: models.LoopIdle, UpdatedAt: time.Now()},
	}
}

// WithJournal attaches an optional cycle journal.
func (l *TradingLoop) WithJournal(j repository.Journal) *TradingLoop { l.journal = j; return l }

// WithEvents attaches an optional execution event publisher.
func (l *TradingLoop) WithEvents(p repository.EventPublisher) *TradingLoop { l.events = p; return l }

// WithBarCache attaches an optional OHLCV window cache.
func (l *TradingLoop) WithBarCache(c repository.BarCache) *TradingLoop { l.cache = c; return l }

// Start launches the loop worker. Calling Start while running is a warned
// no-op.
func (l *TradingLoop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		l.logger.Warn("start requested while loop already running")
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	l.running = true
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	l.setState(models.LoopRunning, "loop started")
	go l.run(runCtx)
}

// Stop requests shutdown and waits for the worker to exit. The request is
// observed at the next cycle boundary at the latest; in-flight gateway calls
// are bounded by CallTimeout. Calling Stop while stopped is a warned no-op.
func (l *TradingLoop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.logger.Warn("stop requested while loop not running")
		return
	}
	cancel, done := l.cancel, l.done
	l.mu.Unlock()

	cancel()
	<-done
}

// Status returns a copy of the current snapshot.
func (l *TradingLoop) Status() models.StatusSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

func (l *TradingLoop) run(ctx context.Context) {
	defer func() {
		l.mu.Lock()
		l.running = false
		l.mu.Unlock()
		close(l.done)
	}()

	bo := &backoff.Backoff{
		Min:    l.cfg.BackoffMin,
		Max:    l.cfg.BackoffMax,
		Factor: 2,
		Jitter: true,
	}
	retries := 0

	for {
		select {
		case <-ctx.Done():
			l.setState(models.LoopStopped, "stop requested")
			return
		default:
		}

		err := l.cycle(ctx)
		switch {
		case err == nil:
			retries = 0
			bo.Reset()
			l.setRetryCount(0)
			l.metrics.RecordCycle("ok")
			if !l.sleep(ctx, l.cfg.PollInterval) {
				l.setState(models.LoopStopped, "stop requested")
				return
			}

		case ctx.Err() != nil:
			l.setState(models.LoopStopped, "stop requested")
			return

		case !repository.IsTransient(err):
			// Configuration or ledger-level errors cannot heal on retry.
			l.metrics.RecordCycle("fatal")
			l.setState(models.LoopStopped, fmt.Sprintf("fatal: %v", err))
			l.logger.Error("trading loop stopped on fatal error", xlogger.Error(err))
			return

		default:
			retries++
			l.setRetryCount(retries)
			l.metrics.RecordCycle("error")
			l.metrics.RecordError("transient")
			if retries >= l.cfg.MaxRetries {
				l.setState(models.LoopStopped, fmt.Sprintf("max retries (%d) exceeded: %v", l.cfg.MaxRetries, err))
				l.logger.Error("trading loop halted after repeated failures",
					xlogger.Int("retries", retries), xlogger.Error(err))
				return
			}
			l.setState(models.LoopError, fmt.Sprintf("transient failure (retry %d/%d): %v", retries, l.cfg.MaxRetries, err))
			if !l.sleep(ctx, bo.Duration()) {
				l.setState(models.LoopStopped, "stop requested")
				return
			}
			l.setState(models.LoopRunning, "retrying after backoff")
		}
	}
}

// cycle runs one fetch → evaluate → size → execute pass. It returns an error
// only for failures the retry machinery should see; decision rejections are
// recorded in the snapshot and end the cycle cleanly.
func (l *TradingLoop) cycle(ctx context.Context) error {
	start := time.Now()
	defer func() { l.metrics.RecordLatency("cycle", time.Since(start).Seconds()) }()

	l.bumpCycle()
	l.risk.ResetDay(time.Now())

	bars, err := l.fetchBars(ctx)
	if err != nil {
		return err
	}

	book, err := l.fetchBook(ctx)
	if err != nil {
		return err
	}

	sig, err := l.agg.Evaluate(l.cfg.Strategy, l.cfg.Params, bars)
	if err != nil {
		return err // unknown strategy is fatal, IsTransient says so
	}
	l.setSignal(sig.Action)
	l.metrics.RecordSignal(sig.Strategy, sig.Action)

	if mid, ok := orderbook.Spread(book); ok {
		l.logger.Debug("book context",
			xlogger.String("pair", l.cfg.Pair.String()),
			xlogger.String("spread", mid.String()),
		)
	}

	if sig.Action == models.SignalHold {
		decision := l.risk.Size(sig, models.AccountSnapshot{}, l.cfg.Pair.Counter, decimal.Zero)
		l.recordCycleOutcome(ctx, sig, decision, nil)
		l.setState(models.LoopRunning, "hold: no action")
		return nil
	}

	price, ok := executionPrice(book, sig.Action)
	if !ok {
		// An empty book side is a data-quality condition, not a failure.
		l.recordCycleOutcome(ctx, sig, models.PositionSizeDecision{Reason: "empty order book side"}, nil)
		l.setState(models.LoopRunning, "no liquidity on required book side")
		return nil
	}

	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	snapshot, err := l.gateway.LoadAccount(callCtx, l.cfg.AccountID)
	cancel()
	if err != nil {
		return err
	}
	l.risk.SetDayOpenEquity(snapshot.Balance(l.cfg.Pair.Counter))

	sizingAsset := l.cfg.Pair.Counter
	if sig.Action == models.SignalSell {
		sizingAsset = l.cfg.Pair.Base
	}
	decision := l.risk.Size(sig, snapshot, sizingAsset, price)
	if !decision.Approved {
		l.recordCycleOutcome(ctx, sig, decision, nil)
		l.setState(models.LoopRunning, "order not approved: "+decision.Reason)
		return nil
	}

	side := models.SideBuy
	if sig.Action == models.SignalSell {
		side = models.SideSell
	}

	execCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	result := l.exec.Execute(execCtx, l.cfg.Pair, side, decision)
	cancel()

	l.recordCycleOutcome(ctx, sig, decision, &result)
	l.recordExecution(ctx, side, decision, result)

	switch result.Status {
	case models.ExecutionSubmitted:
		l.metrics.RecordLastPrice(l.cfg.Pair.String(), decision.Price.InexactFloat64())
		l.publishExecution(ctx, side, decision, result)
		l.setState(models.LoopRunning, "order submitted: "+result.LedgerHash)
		return nil
	case models.ExecutionSkippedDuplicate:
		l.setState(models.LoopRunning, "duplicate envelope skipped")
		return nil
	case models.ExecutionFailed:
		return fmt.Errorf("%w: %s", repository.ErrGatewayUnavailable, result.ErrorDetail)
	default:
		// Ledger and balance rejections are recorded, not retried.
		l.setState(models.LoopRunning, fmt.Sprintf("order rejected (%s): %s", result.Status, result.ErrorDetail))
		return nil
	}
}

func (l *TradingLoop) fetchBars(ctx context.Context) ([]models.OHLCVBar, error) {
	cacheKey := fmt.Sprintf("bars:%s:%s", l.cfg.Pair, l.cfg.Resolution)
	if l.cache != nil {
		if bars, ok := l.cache.GetBars(cacheKey); ok {
			return bars, nil
		}
	}

	to := time.Now()
	from := to.Add(-time.Duration(l.cfg.WindowBars) * l.cfg.Resolution)

	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()
	bars, err := l.gateway.TradeAggregations(callCtx, l.cfg.Pair, l.cfg.Resolution, from, to)
	if err != nil {
		return nil, err
	}

	if l.cache != nil && len(bars) > 0 {
		l.cache.SetBars(cacheKey, bars, l.cfg.CacheTTL)
	}
	return bars, nil
}

func (l *TradingLoop) fetchBook(ctx context.Context) (models.NormalizedOrderBook, error) {
	callCtx, cancel := context.WithTimeout(ctx, l.cfg.CallTimeout)
	defer cancel()

	rawBids, rawAsks, err := l.gateway.OrderBook(callCtx, l.cfg.Pair)
	if err != nil {
		return models.NormalizedOrderBook{}, err
	}
	return orderbook.Normalize(rawBids, rawAsks), nil
}

// executionPrice picks the price the order would execute against: best ask
// for a buy, best bid for a sell.
func executionPrice(book models.NormalizedOrderBook, action models.SignalAction) (decimal.Decimal, bool) {
	if action == models.SignalBuy {
		if ask, ok := book.BestAsk(); ok {
			return ask.Price, true
		}
		return decimal.Decimal{}, false
	}
	if bid, ok := book.BestBid(); ok {
		return bid.Price, true
	}
	return decimal.Decimal{}, false
}

func (l *TradingLoop) recordCycleOutcome(ctx context.Context, sig models.Signal, dec models.PositionSizeDecision, res *models.ExecutionResult) {
	if l.journal == nil {
		return
	}
	if err := l.journal.RecordCycle(ctx, sig, dec, res); err != nil {
		l.logger.Warn("journal write failed", xlogger.Error(err))
	}
}

// recordExecution journals every terminal execution result, one row per
// intent that reached the executor.
func (l *TradingLoop) recordExecution(ctx context.Context, side models.Side, dec models.PositionSizeDecision, res models.ExecutionResult) {
	if l.journal == nil {
		return
	}
	intent := models.OrderIntent{Pair: l.cfg.Pair, Side: side, Quantity: dec.Quantity, Price: dec.Price, OfferID: res.OfferID}
	if err := l.journal.RecordExecution(ctx, intent, res); err != nil {
		l.logger.Warn("execution journal write failed", xlogger.Error(err))
	}
}

func (l *TradingLoop) publishExecution(ctx context.Context, side models.Side, dec models.PositionSizeDecision, res models.ExecutionResult) {
	if l.events == nil {
		return
	}
	intent := models.OrderIntent{Pair: l.cfg.Pair, Side: side, Quantity: dec.Quantity, Price: dec.Price}
	if err := l.events.PublishExecution(ctx, intent, res); err != nil {
		l.logger.Warn("execution event publish failed", xlogger.Error(err))
	}
}

// sleep waits d or until cancellation; returns false when cancelled.
func (l *TradingLoop) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (l *TradingLoop) setState(state models.LoopState, msg string) {
	l.mu.Lock()
	l.status.State = state
	l.status.LastMessage = msg
	l.status.UpdatedAt = time.Now()
	l.mu.Unlock()

	l.logger.Info("loop state",
		xlogger.String("state", string(state)),
		xlogger.String("message", msg),
	)
}

func (l *TradingLoop) bumpCycle() {
	l.mu.Lock()
	l.status.CycleCount++
	l.mu.Unlock()
}

func (l *TradingLoop) setRetryCount(n int) {
	l.mu.Lock()
	l.status.RetryCount = n
	l.status.UpdatedAt = time.Now()
	l.mu.Unlock()
}

func (l *TradingLoop) setSignal(a models.SignalAction) {
	l.mu.Lock()
	l.status.LastSignal = a
	l.status.UpdatedAt = time.Now()
	l.mu.Unlock()
}
