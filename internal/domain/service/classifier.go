package service

import (
	"LumenTrade/internal/domain/models"
)

// Classifier is an optional probabilistic signal source consulted only when
// the primary strategy holds. Implementations live under internal/service.
type Classifier interface {
	// Predict returns a verdict in {-1, 0, +1} and a confidence in [0, 1].
	Predict(bars []models.OHLCVBar) (verdict int, confidence float64, err error)
	Close() error
}
