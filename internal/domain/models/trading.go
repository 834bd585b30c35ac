package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Signal is the outcome of one evaluation cycle.
type Signal struct {
	Action   SignalAction `json:"action"`
	Strategy string       `json:"strategy"`
	BarTime  time.Time    `json:"bar_time"` // timestamp of the bar it was computed from
}

type SignalAction string

const (
	SignalBuy  SignalAction = "BUY"
	SignalSell SignalAction = "SELL"
	SignalHold SignalAction = "HOLD"
)

// ActionFromVerdict maps the -1/0/+1 numeric convention shared by every
// indicator to a SignalAction.
func ActionFromVerdict(v int) SignalAction {
	switch {
	case v > 0:
		return SignalBuy
	case v < 0:
		return SignalSell
	default:
		return SignalHold
	}
}

// StrategyParams carries named tuning parameters for one strategy.
type StrategyParams map[string]float64

// Get returns the parameter or the given default when absent.
func (p StrategyParams) Get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// StrategyResult is what a registered strategy returns: a verdict in
// {-1, 0, +1} plus named intermediate values kept for observability only.
type StrategyResult struct {
	Verdict     int
	Diagnostics map[string]float64
}

// PositionSizeDecision is produced once per cycle by the risk manager and
// never mutated afterwards.
type PositionSizeDecision struct {
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Approved bool            `json:"approved"`
	Reason   string          `json:"reason,omitempty"`
}

// OrderIntent is created immediately before submission and consumed exactly
// once. OfferID is monotonically increasing within the running process only;
// cross-restart de-duplication must key on the signed envelope hash instead.
type OrderIntent struct {
	Pair     AssetPair
	Side     Side
	Quantity decimal.Decimal
	Price    decimal.Decimal
	OfferID  int64
}

// ExecutionStatus classifies the terminal outcome of a submission.
type ExecutionStatus string

const (
	ExecutionSubmitted         ExecutionStatus = "SUBMITTED"
	ExecutionFailed            ExecutionStatus = "FAILED" // transport-level, retryable
	ExecutionRejectedBalance   ExecutionStatus = "REJECTED_INSUFFICIENT_BALANCE"
	ExecutionRejectedByNetwork ExecutionStatus = "REJECTED_NETWORK"  // ledger said no, not retryable
	ExecutionSkippedDuplicate  ExecutionStatus = "SKIPPED_DUPLICATE" // envelope already submitted, possibly by a previous process
)

// ExecutionResult is the terminal record of one order intent. OfferID is zero
// when the intent was rejected before an offer id was allocated.
type ExecutionResult struct {
	Status      ExecutionStatus `json:"status"`
	OfferID     int64           `json:"offer_id,omitempty"`
	LedgerHash  string          `json:"ledger_hash,omitempty"`
	ErrorDetail string          `json:"error_detail,omitempty"`
}

// TradingStats accumulates realized outcomes for the current trading day.
type TradingStats struct {
	DayOpenEquity decimal.Decimal `json:"day_open_equity"`
	RealizedLoss  decimal.Decimal `json:"realized_loss"`
	TradeCount    int             `json:"trade_count"`
	DayStart      time.Time       `json:"day_start"`
}
