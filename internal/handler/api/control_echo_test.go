package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	"LumenTrade/internal/strategy"
	"LumenTrade/internal/usecase"
	xlogger "LumenTrade/pkg/logger"
)

// idleGateway never returns data: every cycle ends as a hold.
type idleGateway struct{}

func (idleGateway) LoadAccount(context.Context, string) (models.AccountSnapshot, error) {
	return models.AccountSnapshot{}, nil
}

func (idleGateway) OrderBook(context.Context, models.AssetPair) ([]models.RawOffer, []models.RawOffer, error) {
	return nil, nil, nil
}

func (idleGateway) TradeAggregations(context.Context, models.AssetPair, time.Duration, time.Time, time.Time) ([]models.OHLCVBar, error) {
	return nil, nil
}

func (idleGateway) Submit(context.Context, repository.SignedEnvelope) (repository.SubmitReceipt, error) {
	return repository.SubmitReceipt{}, nil
}

type silentMetrics struct{}

func (silentMetrics) RecordCycle(string)                              {}
func (silentMetrics) RecordSignal(string, models.SignalAction)        {}
func (silentMetrics) RecordOrder(models.Side, models.ExecutionStatus) {}
func (silentMetrics) RecordError(string)                              {}
func (silentMetrics) RecordLastPrice(string, float64)                 {}
func (silentMetrics) RecordLatency(string, float64)                   {}

func newTestServer(t *testing.T) (*echo.Echo, *usecase.TradingLoop) {
	t.Helper()

	logger, err := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stderr"})
	require.NoError(t, err)

	reg := strategy.NewRegistry()
	agg := usecase.NewSignalAggregator(reg, logger)
	risk := usecase.NewRiskManager(usecase.RiskConfig{RiskPercent: 2, StopDistance: 0.1}, logger)
	gw := idleGateway{}
	exec := usecase.NewOrderExecutor(gw, nil, nil, risk, silentMetrics{}, logger, "GACCOUNT")

	loop := usecase.NewTradingLoop(usecase.LoopConfig{
		Strategy:     "rsi",
		Pair:         models.AssetPair{Base: models.AssetRef{Native: true}, Counter: models.AssetRef{Code: "USDC", Issuer: "GATEST"}},
		AccountID:    "GACCOUNT",
		PollInterval: 10 * time.Millisecond,
		CallTimeout:  5 * time.Millisecond,
		MaxRetries:   3,
		BackoffMin:   time.Millisecond,
		BackoffMax:   2 * time.Millisecond,
		Resolution:   time.Minute,
		WindowBars:   30,
	}, gw, agg, risk, exec, silentMetrics{}, logger)

	h := NewControlEchoHandler(logger, context.Background(), loop, reg, risk)
	e := echo.New()
	h.RegisterRoutes(e)
	return e, loop
}

func TestStatusReportsIdleLoop(t *testing.T) {
	e, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"state":"IDLE"`)
	assert.Contains(t, rec.Body.String(), `"stats"`)
}

func TestStrategiesListsBuiltins(t *testing.T) {
	e, _ := newTestServer(t)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/strategies", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "sma_cross")
	assert.Contains(t, rec.Body.String(), "rsi")
}

func TestStartTakesNoParameters(t *testing.T) {
	e, loop := newTestServer(t)
	defer loop.Stop()

	// A body naming a strategy is ignored: the running strategy is fixed by
	// configuration.
	req := httptest.NewRequest(http.MethodPost, "/api/start", strings.NewReader(`{"strategy":"bollinger"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Eventually(t, func() bool {
		return loop.Status().State == models.LoopRunning
	}, 3*time.Second, time.Millisecond)

	// Starting again is a no-op, still 200.
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/start", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStopEndpointStopsLoop(t *testing.T) {
	e, loop := newTestServer(t)

	loop.Start(context.Background())
	require.Eventually(t, func() bool {
		return loop.Status().State == models.LoopRunning
	}, 3*time.Second, time.Millisecond)

	req := httptest.NewRequest(http.MethodPost, "/api/stop", strings.NewReader(`{"reason":"maintenance"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.LoopStopped, loop.Status().State)
}
