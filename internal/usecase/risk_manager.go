package usecase

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"LumenTrade/internal/domain/models"
	xlogger "LumenTrade/pkg/logger"
)

// RiskConfig holds the sizing and circuit breaker parameters.
type RiskConfig struct {
	RiskPercent         float64 // share of balance risked per trade, (0, 100]
	StopDistance        float64 // stop-loss distance as a price fraction, > 0
	MaxDailyLossPercent float64 // circuit breaker threshold on day-open equity
}

// RiskManager turns a signal and an account snapshot into a position size
// decision, and owns the daily-loss circuit breaker. It also tracks the last
// traded prices fed back by the executor. All state is guarded: the control
// surface may read stats while the loop writes them.
type RiskManager struct {
	cfg    RiskConfig
	logger *xlogger.Logger

	mu            sync.RWMutex
	stats         models.TradingStats
	tripped       bool
	lastBuyPrice  decimal.Decimal
	lastSellPrice decimal.Decimal
}

func NewRiskManager(cfg RiskConfig, logger *xlogger.Logger) *RiskManager {
	return &RiskManager{
		cfg:    cfg,
		logger: logger,
		stats:  models.TradingStats{DayStart: time.Now().UTC().Truncate(24 * time.Hour)},
	}
}

// Size computes the quantity for a signal. A HOLD short-circuits before any
// balance access. quantity = balance * riskPercent/100 / (stopDistance * price).
func (rm *RiskManager) Size(sig models.Signal, snapshot models.AccountSnapshot, asset models.AssetRef, price decimal.Decimal) models.PositionSizeDecision {
	if sig.Action == models.SignalHold {
		return models.PositionSizeDecision{Approved: false, Quantity: decimal.Zero, Reason: "hold signal"}
	}

	if !rm.EnforceLimits() {
		return models.PositionSizeDecision{Approved: false, Quantity: decimal.Zero, Reason: "daily loss limit reached"}
	}

	if rm.cfg.RiskPercent <= 0 || rm.cfg.RiskPercent > 100 ||
		rm.cfg.StopDistance <= 0 || price.Sign() <= 0 {
		return models.PositionSizeDecision{Approved: false, Quantity: decimal.Zero, Reason: "invalid risk parameters"}
	}

	balance := snapshot.Balance(asset)
	if balance.Sign() <= 0 {
		return models.PositionSizeDecision{Approved: false, Quantity: decimal.Zero, Reason: "no balance for " + asset.String()}
	}

	riskBudget := balance.Mul(decimal.NewFromFloat(rm.cfg.RiskPercent)).Div(decimal.NewFromInt(100))
	denom := decimal.NewFromFloat(rm.cfg.StopDistance).Mul(price)
	quantity := riskBudget.Div(denom)

	return models.PositionSizeDecision{
		Quantity: quantity,
		Price:    price,
		Approved: true,
	}
}

// EnforceLimits reports whether new orders may be placed. Once the daily loss
// crosses the configured share of day-open equity the breaker latches and
// stays tripped until ResetDay.
func (rm *RiskManager) EnforceLimits() bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	if rm.tripped {
		return false
	}
	if rm.cfg.MaxDailyLossPercent <= 0 || rm.stats.DayOpenEquity.Sign() <= 0 {
		return true
	}

	limit := rm.stats.DayOpenEquity.
		Mul(decimal.NewFromFloat(rm.cfg.MaxDailyLossPercent)).
		Div(decimal.NewFromInt(100))
	if rm.stats.RealizedLoss.GreaterThanOrEqual(limit) {
		rm.tripped = true
		rm.logger.Warn("daily loss circuit breaker tripped",
			xlogger.String("realized_loss", rm.stats.RealizedLoss.String()),
			xlogger.String("limit", limit.String()),
		)
		return false
	}
	return true
}

// RecordFill updates last-trade prices and trade counts after a submission.
func (rm *RiskManager) RecordFill(side models.Side, price decimal.Decimal) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	rm.stats.TradeCount++
	switch side {
	case models.SideBuy:
		rm.lastBuyPrice = price
	case models.SideSell:
		rm.lastSellPrice = price
	}
}

// RecordLoss accumulates realized daily loss used by the breaker.
func (rm *RiskManager) RecordLoss(loss decimal.Decimal) {
	if loss.Sign() <= 0 {
		return
	}
	rm.mu.Lock()
	rm.stats.RealizedLoss = rm.stats.RealizedLoss.Add(loss)
	rm.mu.Unlock()
}

// SetDayOpenEquity seeds the equity base the breaker measures loss against.
func (rm *RiskManager) SetDayOpenEquity(equity decimal.Decimal) {
	rm.mu.Lock()
	if rm.stats.DayOpenEquity.Sign() == 0 {
		rm.stats.DayOpenEquity = equity
	}
	rm.mu.Unlock()
}

// ResetDay clears daily stats and re-arms the breaker; called on the first
// cycle of a new trading day.
func (rm *RiskManager) ResetDay(now time.Time) {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	day := now.UTC().Truncate(24 * time.Hour)
	if !day.After(rm.stats.DayStart) {
		return
	}
	rm.stats = models.TradingStats{DayStart: day}
	rm.tripped = false
	rm.logger.Info("risk stats reset for new trading day")
}

// LastPrices returns the last buy and sell prices recorded by the executor.
func (rm *RiskManager) LastPrices() (buy, sell decimal.Decimal) {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.lastBuyPrice, rm.lastSellPrice
}

// Stats returns a copy of the current trading day stats.
func (rm *RiskManager) Stats() models.TradingStats {
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return rm.stats
}
