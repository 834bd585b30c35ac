package strategy

import (
	"math"

	"LumenTrade/internal/domain/models"
)

// Built-in indicator strategies. Each returns -1 (sell), 0 (hold) or +1 (buy)
// plus diagnostics with the intermediate values it computed. Diagnostics are
// for observability only and never feed back into decisions.

// SMACross signals on a fast/slow simple moving average crossover.
// Parameters: fast_period (default 9), slow_period (default 21).
func SMACross(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult {
	fast := int(params.Get("fast_period", 9))
	slow := int(params.Get("slow_period", 21))
	if fast <= 0 || slow <= fast {
		return hold(nil)
	}

	// One extra bar so the previous crossover state is observable.
	if len(bars) < slow+1 {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	xs := Closes(bars)
	last := len(xs) - 1
	fastNow := SMA(xs, fast, last)
	slowNow := SMA(xs, slow, last)
	fastPrev := SMA(xs, fast, last-1)
	slowPrev := SMA(xs, slow, last-1)

	diag := map[string]float64{
		"sma_fast": fastNow,
		"sma_slow": slowNow,
	}

	switch {
	case fastPrev <= slowPrev && fastNow > slowNow:
		return models.StrategyResult{Verdict: 1, Diagnostics: diag}
	case fastPrev >= slowPrev && fastNow < slowNow:
		return models.StrategyResult{Verdict: -1, Diagnostics: diag}
	default:
		return models.StrategyResult{Verdict: 0, Diagnostics: diag}
	}
}

// EMACross is SMACross with exponential averages.
// Parameters: fast_period (default 12), slow_period (default 26).
func EMACross(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult {
	fast := int(params.Get("fast_period", 12))
	slow := int(params.Get("slow_period", 26))
	if fast <= 0 || slow <= fast {
		return hold(nil)
	}
	if len(bars) < slow+1 {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	xs := Closes(bars)
	emaFast := EMA(xs, fast)
	emaSlow := EMA(xs, slow)
	last := len(xs) - 1

	diag := map[string]float64{
		"ema_fast": emaFast[last],
		"ema_slow": emaSlow[last],
	}

	switch {
	case emaFast[last-1] <= emaSlow[last-1] && emaFast[last] > emaSlow[last]:
		return models.StrategyResult{Verdict: 1, Diagnostics: diag}
	case emaFast[last-1] >= emaSlow[last-1] && emaFast[last] < emaSlow[last]:
		return models.StrategyResult{Verdict: -1, Diagnostics: diag}
	default:
		return models.StrategyResult{Verdict: 0, Diagnostics: diag}
	}
}

// RSIStrategy buys oversold and sells overbought conditions.
// Parameters: period (14), overbought (70), oversold (30).
func RSIStrategy(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult {
	period := int(params.Get("period", 14))
	overbought := params.Get("overbought", 70)
	oversold := params.Get("oversold", 30)
	if period <= 0 {
		return hold(nil)
	}
	if len(bars) < period+1 {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	rsi := RSI(Closes(bars), period)
	diag := map[string]float64{"rsi": rsi}

	switch {
	case rsi <= oversold:
		return models.StrategyResult{Verdict: 1, Diagnostics: diag}
	case rsi >= overbought:
		return models.StrategyResult{Verdict: -1, Diagnostics: diag}
	default:
		return models.StrategyResult{Verdict: 0, Diagnostics: diag}
	}
}

// MACDStrategy signals on histogram sign flips.
// Parameters: fast_period (12), slow_period (26), signal_period (9).
func MACDStrategy(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult {
	fast := int(params.Get("fast_period", 12))
	slow := int(params.Get("slow_period", 26))
	signalP := int(params.Get("signal_period", 9))
	if fast <= 0 || slow <= fast || signalP <= 0 {
		return hold(nil)
	}

	// Signal line needs signalP defined MACD values, plus one bar of history
	// for the previous histogram sign.
	if len(bars) < slow+signalP {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	macd, signal, hist := MACD(Closes(bars), fast, slow, signalP)
	last := len(hist) - 1
	if math.IsNaN(hist[last]) || math.IsNaN(hist[last-1]) {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	diag := map[string]float64{
		"macd":      macd[last],
		"signal":    signal[last],
		"histogram": hist[last],
	}

	switch {
	case hist[last-1] <= 0 && hist[last] > 0:
		return models.StrategyResult{Verdict: 1, Diagnostics: diag}
	case hist[last-1] >= 0 && hist[last] < 0:
		return models.StrategyResult{Verdict: -1, Diagnostics: diag}
	default:
		return models.StrategyResult{Verdict: 0, Diagnostics: diag}
	}
}

// Bollinger buys a close below the lower band and sells a close above the
// upper band. Parameters: period (20), stddev (2).
func Bollinger(params models.StrategyParams, bars []models.OHLCVBar) models.StrategyResult {
	period := int(params.Get("period", 20))
	width := params.Get("stddev", 2)
	if period <= 0 || width <= 0 {
		return hold(nil)
	}
	if len(bars) < period {
		return hold(map[string]float64{"bars": float64(len(bars))})
	}

	xs := Closes(bars)
	last := len(xs) - 1
	mid := SMA(xs, period, last)
	sd := StdDev(xs, period, last)
	upper := mid + width*sd
	lower := mid - width*sd

	diag := map[string]float64{
		"middle": mid,
		"upper":  upper,
		"lower":  lower,
	}

	switch {
	case xs[last] < lower:
		return models.StrategyResult{Verdict: 1, Diagnostics: diag}
	case xs[last] > upper:
		return models.StrategyResult{Verdict: -1, Diagnostics: diag}
	default:
		return models.StrategyResult{Verdict: 0, Diagnostics: diag}
	}
}

func hold(diag map[string]float64) models.StrategyResult {
	return models.StrategyResult{Verdict: 0, Diagnostics: diag}
}
