package cache

import (
	"encoding/json"
	"time"

	"LumenTrade/internal/domain/models"
	xlogger "LumenTrade/pkg/logger"
)

// BytesCache is the storage backend: raw bytes with TTL. Memory and Redis
// implementations live in this package.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// Config selects the backend.
type Config struct {
	Backend  string `yaml:"backend"` // "memory" or "redis"
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BarCache adapts a BytesCache to the OHLCV window cache used by the trading
// loop. Cache failures degrade to a miss; the gateway is always authoritative.
type BarCache struct {
	backend BytesCache
	logger  *xlogger.Logger
}

func NewBarCache(backend BytesCache, logger *xlogger.Logger) *BarCache {
	return &BarCache{backend: backend, logger: logger}
}

func (c *BarCache) GetBars(key string) ([]models.OHLCVBar, bool) {
	b, ok, err := c.backend.GetBytes(key)
	if err != nil {
		c.logger.Warn("bar cache read failed", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var bars []models.OHLCVBar
	if err := json.Unmarshal(b, &bars); err != nil {
		c.logger.Warn("bar cache entry corrupt", xlogger.String("key", key), xlogger.Error(err))
		return nil, false
	}
	return bars, true
}

func (c *BarCache) SetBars(key string, bars []models.OHLCVBar, ttl time.Duration) {
	b, err := json.Marshal(bars)
	if err != nil {
		c.logger.Warn("bar cache encode failed", xlogger.String("key", key), xlogger.Error(err))
		return
	}
	if err := c.backend.SetBytes(key, b, ttl); err != nil {
		c.logger.Warn("bar cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
}
