package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	"LumenTrade/internal/strategy"
)

func verdictStrategy(v int) strategy.Func {
	return func(models.StrategyParams, []models.OHLCVBar) models.StrategyResult {
		return models.StrategyResult{Verdict: v}
	}
}

func loopConfig(strategyName string) LoopConfig {
	return LoopConfig{
		Strategy:     strategyName,
		Pair:         testPair(),
		AccountID:    "GACCOUNT",
		PollInterval: 10 * time.Millisecond,
		CallTimeout:  5 * time.Millisecond,
		MaxRetries:   3,
		BackoffMin:   time.Millisecond,
		BackoffMax:   2 * time.Millisecond,
		Resolution:   time.Minute,
		WindowBars:   30,
	}
}

type loopHarness struct {
	loop *TradingLoop
	gw   *fakeGateway
	b    *fakeBuilder
	idx  *fakeIndex
	risk *RiskManager
}

func newLoopHarness(t *testing.T, gw *fakeGateway, cfg LoopConfig, extra map[string]strategy.Func) *loopHarness {
	t.Helper()

	reg := strategy.NewRegistry()
	for name, fn := range extra {
		reg.Register(name, fn)
	}

	logger := newTestLogger(t)
	agg := NewSignalAggregator(reg, logger)
	risk := NewRiskManager(RiskConfig{RiskPercent: 2, StopDistance: 0.1}, logger)
	b := &fakeBuilder{}
	idx := &fakeIndex{}
	exec := NewOrderExecutor(gw, b, idx, risk, nopMetrics{}, logger, cfg.AccountID)

	return &loopHarness{
		loop: NewTradingLoop(cfg, gw, agg, risk, exec, nopMetrics{}, logger),
		gw:   gw,
		b:    b,
		idx:  idx,
		risk: risk,
	}
}

func waitForState(t *testing.T, l *TradingLoop, want models.LoopState) {
	t.Helper()
	require.Eventually(t, func() bool {
		return l.Status().State == want
	}, 3*time.Second, time.Millisecond, "loop never reached state %s, last: %+v", want, l.Status())
}

func TestLoopStopsAfterMaxRetries(t *testing.T) {
	gw := &fakeGateway{
		barsErr: fmt.Errorf("%w: 503 from aggregations", repository.ErrGatewayUnavailable),
	}
	h := newLoopHarness(t, gw, loopConfig("rsi"), nil)

	h.loop.Start(context.Background())
	waitForState(t, h.loop, models.LoopStopped)

	st := h.loop.Status()
	assert.Equal(t, 3, st.RetryCount)
	assert.Contains(t, st.LastMessage, "max retries")
}

func TestLoopStopsImmediatelyOnFatalError(t *testing.T) {
	h := newLoopHarness(t, &fakeGateway{}, loopConfig("no_such_strategy"), nil)

	h.loop.Start(context.Background())
	waitForState(t, h.loop, models.LoopStopped)

	st := h.loop.Status()
	assert.Contains(t, st.LastMessage, "fatal")
	assert.Equal(t, int64(1), st.CycleCount)
}

func TestLoopRecoversAndResetsRetryCount(t *testing.T) {
	gw := &fakeGateway{
		barsErr: fmt.Errorf("%w: flaky", repository.ErrGatewayUnavailable),
	}
	h := newLoopHarness(t, gw, loopConfig("always_hold"), map[string]strategy.Func{
		"always_hold": verdictStrategy(0),
	})

	h.loop.Start(context.Background())
	defer h.loop.Stop()

	require.Eventually(t, func() bool {
		return h.loop.Status().RetryCount >= 1
	}, 3*time.Second, time.Millisecond)

	gw.mu.Lock()
	gw.barsErr = nil
	gw.mu.Unlock()

	require.Eventually(t, func() bool {
		st := h.loop.Status()
		return st.RetryCount == 0 && st.State == models.LoopRunning
	}, 3*time.Second, time.Millisecond)
}

func TestLoopHoldCyclePlacesNoOrder(t *testing.T) {
	gw := &fakeGateway{}
	h := newLoopHarness(t, gw, loopConfig("always_hold"), map[string]strategy.Func{
		"always_hold": verdictStrategy(0),
	})

	h.loop.Start(context.Background())
	require.Eventually(t, func() bool {
		return h.loop.Status().CycleCount >= 2
	}, 3*time.Second, time.Millisecond)
	h.loop.Stop()

	st := h.loop.Status()
	assert.Equal(t, models.LoopStopped, st.State)
	assert.Equal(t, models.SignalHold, st.LastSignal)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, 0, gw.submitCalls)
}

func TestLoopBuyCycleSubmitsOrder(t *testing.T) {
	pair := testPair()
	ask := models.RawOffer{Price: "1.0", Amount: "50"}
	ask.PriceR.N, ask.PriceR.D = 1, 1
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		asks:    []models.RawOffer{ask},
		receipt: repository.SubmitReceipt{Hash: "cafe", Ledger: 7},
	}
	h := newLoopHarness(t, gw, loopConfig("always_buy"), map[string]strategy.Func{
		"always_buy": verdictStrategy(1),
	})

	h.loop.Start(context.Background())
	require.Eventually(t, func() bool {
		gw.mu.Lock()
		defer gw.mu.Unlock()
		return gw.submitCalls >= 1
	}, 3*time.Second, time.Millisecond)
	h.loop.Stop()

	seen, err := h.idx.Seen(context.Background(), envelopeHash(repository.SignedEnvelope{Base64: "AAAA"}))
	require.NoError(t, err)
	assert.True(t, seen)

	buy, _ := h.risk.LastPrices()
	assert.True(t, buy.Equal(decimal.NewFromInt(1)), "got %s", buy)
	assert.Equal(t, models.SignalBuy, h.loop.Status().LastSignal)
}

func TestLoopJournalsCycleAndExecution(t *testing.T) {
	pair := testPair()
	ask := models.RawOffer{Price: "1.0", Amount: "50"}
	ask.PriceR.N, ask.PriceR.D = 1, 1
	gw := &fakeGateway{
		account: snapshotWith(pair.Counter, "1000"),
		asks:    []models.RawOffer{ask},
		receipt: repository.SubmitReceipt{Hash: "cafe", Ledger: 7},
	}
	h := newLoopHarness(t, gw, loopConfig("always_buy"), map[string]strategy.Func{
		"always_buy": verdictStrategy(1),
	})
	j := &fakeJournal{}
	h.loop.WithJournal(j)

	h.loop.Start(context.Background())
	require.Eventually(t, func() bool {
		j.mu.Lock()
		defer j.mu.Unlock()
		return len(j.execs) >= 1
	}, 3*time.Second, time.Millisecond)
	h.loop.Stop()

	j.mu.Lock()
	defer j.mu.Unlock()
	assert.GreaterOrEqual(t, j.cycles, 1)
	require.NotEmpty(t, j.execs)
	assert.Equal(t, models.ExecutionSubmitted, j.execs[0].Status)
	assert.Equal(t, int64(1), j.execs[0].OfferID)
}

func TestLoopEmptyBookSideEndsCycleCleanly(t *testing.T) {
	gw := &fakeGateway{} // buy signal but no asks at all
	h := newLoopHarness(t, gw, loopConfig("always_buy"), map[string]strategy.Func{
		"always_buy": verdictStrategy(1),
	})

	h.loop.Start(context.Background())
	require.Eventually(t, func() bool {
		return h.loop.Status().CycleCount >= 2
	}, 3*time.Second, time.Millisecond)
	h.loop.Stop()

	gw.mu.Lock()
	defer gw.mu.Unlock()
	assert.Equal(t, 0, gw.submitCalls)
	assert.Equal(t, 0, gw.accountCalls, "no balance fetch without a price")
}

func TestLoopStopIsPromptDuringLongSleep(t *testing.T) {
	cfg := loopConfig("always_hold")
	cfg.PollInterval = time.Hour
	cfg.CallTimeout = 50 * time.Millisecond
	h := newLoopHarness(t, &fakeGateway{}, cfg, map[string]strategy.Func{
		"always_hold": verdictStrategy(0),
	})

	h.loop.Start(context.Background())
	require.Eventually(t, func() bool {
		return h.loop.Status().CycleCount >= 1
	}, 3*time.Second, time.Millisecond)

	start := time.Now()
	h.loop.Stop()
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, models.LoopStopped, h.loop.Status().State)
}

func TestLoopStartStopIdempotent(t *testing.T) {
	h := newLoopHarness(t, &fakeGateway{}, loopConfig("always_hold"), map[string]strategy.Func{
		"always_hold": verdictStrategy(0),
	})

	h.loop.Start(context.Background())
	h.loop.Start(context.Background()) // no-op
	require.Eventually(t, func() bool {
		return h.loop.Status().CycleCount >= 1
	}, 3*time.Second, time.Millisecond)

	h.loop.Stop()
	h.loop.Stop() // no-op

	assert.Equal(t, models.LoopStopped, h.loop.Status().State)
}
