package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
	xlogger "LumenTrade/pkg/logger"
)

func testLogger(t *testing.T) *xlogger.Logger {
	t.Helper()
	l, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestBarCacheRoundTrip(t *testing.T) {
	c := NewBarCache(NewTTLCache(), testLogger(t))

	bars := []models.OHLCVBar{{
		Timestamp: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Open:      decimal.NewFromInt(1),
		High:      decimal.NewFromInt(2),
		Low:       decimal.NewFromInt(1),
		Close:     decimal.NewFromFloat(1.5),
		Volume:    decimal.NewFromInt(100),
	}}
	c.SetBars("bars:native/USDC:GATEST:1m0s", bars, time.Minute)

	got, ok := c.GetBars("bars:native/USDC:GATEST:1m0s")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, got[0].Close.Equal(decimal.NewFromFloat(1.5)))
	assert.Equal(t, bars[0].Timestamp, got[0].Timestamp)
}

func TestBarCacheMiss(t *testing.T) {
	c := NewBarCache(NewTTLCache(), testLogger(t))
	_, ok := c.GetBars("nope")
	assert.False(t, ok)
}

func TestTTLCacheExpiry(t *testing.T) {
	tc := NewTTLCache()
	require.NoError(t, tc.SetBytes("k", []byte("v"), time.Millisecond))

	time.Sleep(5 * time.Millisecond)
	_, ok, err := tc.GetBytes("k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTTLCacheZeroTTLNeverExpires(t *testing.T) {
	tc := NewTTLCache()
	require.NoError(t, tc.SetBytes("k", []byte("v"), 0))

	b, ok, err := tc.GetBytes("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("v"), b)
}
