package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	"LumenTrade/internal/strategy"
)

func flatBars(n int) []models.OHLCVBar {
	bars := make([]models.OHLCVBar, n)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		p := decimal.NewFromInt(100)
		bars[i] = models.OHLCVBar{
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Open:      p, High: p, Low: p, Close: p,
			Volume: decimal.NewFromInt(1),
		}
	}
	return bars
}

func TestEvaluateUnknownStrategy(t *testing.T) {
	agg := NewSignalAggregator(strategy.NewRegistry(), newTestLogger(t))

	_, err := agg.Evaluate("no_such", nil, flatBars(30))
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrUnknownStrategy)
}

func TestEvaluateDeterministic(t *testing.T) {
	agg := NewSignalAggregator(strategy.NewRegistry(), newTestLogger(t))
	bars := flatBars(40)
	params := models.StrategyParams{"period": 14}

	first, err := agg.Evaluate("rsi", params, bars)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := agg.Evaluate("rsi", params, bars)
		require.NoError(t, err)
		assert.Equal(t, first.Action, again.Action)
	}
	assert.Equal(t, bars[len(bars)-1].Timestamp, first.BarTime)
}

func TestClassifierOverridesHoldAboveThreshold(t *testing.T) {
	agg := NewSignalAggregator(strategy.NewRegistry(), newTestLogger(t)).
		WithClassifier(stubClassifier{verdict: 1, confidence: 0.9}, 0.7)

	// Flat bars keep RSI neutral, so the primary verdict is a hold.
	sig, err := agg.Evaluate("rsi", nil, flatBars(40))
	require.NoError(t, err)

	assert.Equal(t, models.SignalBuy, sig.Action)
	assert.Equal(t, "rsi+classifier", sig.Strategy)
}

func TestClassifierIgnoredBelowThreshold(t *testing.T) {
	agg := NewSignalAggregator(strategy.NewRegistry(), newTestLogger(t)).
		WithClassifier(stubClassifier{verdict: 1, confidence: 0.5}, 0.7)

	sig, err := agg.Evaluate("rsi", nil, flatBars(40))
	require.NoError(t, err)

	assert.Equal(t, models.SignalHold, sig.Action)
	assert.Equal(t, "rsi", sig.Strategy)
}

func TestPrimaryNonHoldWinsOverClassifier(t *testing.T) {
	reg := strategy.NewRegistry()
	reg.Register("always_sell", func(models.StrategyParams, []models.OHLCVBar) models.StrategyResult {
		return models.StrategyResult{Verdict: -1}
	})
	agg := NewSignalAggregator(reg, newTestLogger(t)).
		WithClassifier(stubClassifier{verdict: 1, confidence: 1}, 0.1)

	sig, err := agg.Evaluate("always_sell", nil, flatBars(5))
	require.NoError(t, err)

	assert.Equal(t, models.SignalSell, sig.Action)
	assert.Equal(t, "always_sell", sig.Strategy)
}

func TestClassifierFailureFallsBackToPrimary(t *testing.T) {
	agg := NewSignalAggregator(strategy.NewRegistry(), newTestLogger(t)).
		WithClassifier(stubClassifier{err: errors.New("session closed")}, 0.1)

	sig, err := agg.Evaluate("rsi", nil, flatBars(40))
	require.NoError(t, err)
	assert.Equal(t, models.SignalHold, sig.Action)
}
