package usecase

import (
	"time"

	"LumenTrade/internal/domain/models"
	domsvc "LumenTrade/internal/domain/service"
	"LumenTrade/internal/strategy"
	xlogger "LumenTrade/pkg/logger"
)

// SignalAggregator runs the selected strategy over the latest bar window and
// reduces the result to a single buy/sell/hold signal, optionally blended
// with a probabilistic classifier.
type SignalAggregator struct {
	registry   *strategy.Registry
	classifier domsvc.Classifier // nil when disabled
	threshold  float64           // classifier confidence floor
	logger     *xlogger.Logger
}

func NewSignalAggregator(registry *strategy.Registry, logger *xlogger.Logger) *SignalAggregator {
	return &SignalAggregator{registry: registry, logger: logger}
}

// WithClassifier enables blending. The primary strategy always wins when it
// is non-hold; only a hold defers to the classifier, and only when its
// confidence reaches threshold.
func (a *SignalAggregator) WithClassifier(c domsvc.Classifier, threshold float64) *SignalAggregator {
	a.classifier = c
	a.threshold = threshold
	return a
}

// Evaluate produces the signal for one cycle. Pure with respect to
// (strategyName, params, bars): identical inputs yield identical signals.
func (a *SignalAggregator) Evaluate(strategyName string, params models.StrategyParams, bars []models.OHLCVBar) (models.Signal, error) {
	fn, err := a.registry.Get(strategyName)
	if err != nil {
		return models.Signal{}, err
	}

	res := fn(params, bars)
	sig := models.Signal{
		Action:   models.ActionFromVerdict(res.Verdict),
		Strategy: strategyName,
		BarTime:  lastBarTime(bars),
	}

	for k, v := range res.Diagnostics {
		a.logger.Debug("strategy diagnostic",
			xlogger.String("strategy", strategyName),
			xlogger.String("name", k),
			xlogger.Any("value", v),
		)
	}

	if sig.Action != models.SignalHold || a.classifier == nil {
		return sig, nil
	}

	verdict, confidence, err := a.classifier.Predict(bars)
	if err != nil {
		// The classifier is advisory; its failure never blocks a cycle.
		a.logger.Warn("classifier prediction failed", xlogger.Error(err))
		return sig, nil
	}
	if confidence >= a.threshold {
		sig.Action = models.ActionFromVerdict(verdict)
		sig.Strategy = strategyName + "+classifier"
	}
	return sig, nil
}

func lastBarTime(bars []models.OHLCVBar) time.Time {
	if len(bars) == 0 {
		return time.Time{}
	}
	return bars[len(bars)-1].Timestamp
}
