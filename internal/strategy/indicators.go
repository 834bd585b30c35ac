package strategy

import (
	"math"

	"LumenTrade/internal/domain/models"
)

// Plain float64 indicator math shared by the registered strategies.
// All functions are pure; callers are responsible for window checks.

// Closes extracts close prices from a bar window.
func Closes(bars []models.OHLCVBar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close.InexactFloat64()
	}
	return out
}

// SMA returns the simple moving average of the last period values ending at
// index end (inclusive). end must satisfy end >= period-1.
func SMA(xs []float64, period, end int) float64 {
	var sum float64
	for i := end - period + 1; i <= end; i++ {
		sum += xs[i]
	}
	return sum / float64(period)
}

// EMA returns the full exponential moving average series, seeded with an SMA
// over the first period values. Indexes below period-1 hold NaN.
func EMA(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(xs) < period {
		return out
	}
	out[period-1] = SMA(xs, period, period-1)
	k := 2.0 / float64(period+1)
	for i := period; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1-k)
	}
	return out
}

// RSI returns the relative strength index over the last period changes,
// using Wilder smoothing. Requires len(xs) >= period+1.
func RSI(xs []float64, period int) float64 {
	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		d := xs[i] - xs[i-1]
		if d > 0 {
			avgGain += d
		} else {
			avgLoss -= d
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period + 1; i < len(xs); i++ {
		d := xs[i] - xs[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// MACD returns the MACD line, signal line and histogram series. Indexes
// without enough history hold NaN.
func MACD(xs []float64, fast, slow, signalPeriod int) (macd, signal, hist []float64) {
	emaFast := EMA(xs, fast)
	emaSlow := EMA(xs, slow)

	macd = make([]float64, len(xs))
	for i := range xs {
		macd[i] = emaFast[i] - emaSlow[i]
	}

	// Signal line is an EMA of the MACD line starting where it is defined.
	signal = make([]float64, len(xs))
	for i := range signal {
		signal[i] = math.NaN()
	}
	start := slow - 1
	if start+signalPeriod <= len(xs) {
		tail := EMA(macd[start:], signalPeriod)
		copy(signal[start:], tail)
	}

	hist = make([]float64, len(xs))
	for i := range xs {
		hist[i] = macd[i] - signal[i]
	}
	return macd, signal, hist
}

// StdDev returns the population standard deviation of the last period values
// ending at index end (inclusive).
func StdDev(xs []float64, period, end int) float64 {
	mean := SMA(xs, period, end)
	var sum float64
	for i := end - period + 1; i <= end; i++ {
		d := xs[i] - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(period))
}
