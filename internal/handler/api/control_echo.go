package api

import (
	"context"

	models "LumenTrade/internal/domain/models"
	"LumenTrade/internal/strategy"
	"LumenTrade/internal/usecase"
	xhttp "LumenTrade/pkg/http"
	xlogger "LumenTrade/pkg/logger"

	"github.com/labstack/echo/v4"
)

// ControlEchoHandler exposes the trading loop control surface over HTTP.
// baseCtx is the application lifecycle context: a loop started over HTTP must
// outlive the request that started it.
type ControlEchoHandler struct {
	logger   *xlogger.Logger
	baseCtx  context.Context
	loop     *usecase.TradingLoop
	registry *strategy.Registry
	risk     *usecase.RiskManager
}

func NewControlEchoHandler(logger *xlogger.Logger, baseCtx context.Context, loop *usecase.TradingLoop, registry *strategy.Registry, risk *usecase.RiskManager) *ControlEchoHandler {
	return &ControlEchoHandler{logger: logger, baseCtx: baseCtx, loop: loop, registry: registry, risk: risk}
}

func (h *ControlEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/status", h.Status)
	g.POST("/start", h.Start)
	g.POST("/stop", h.Stop)
	g.GET("/strategies", h.Strategies)
}

type statusResponse struct {
	models.StatusSnapshot
	Stats      models.TradingStats   `json:"stats"`
	RecentLogs []xlogger.RecentEntry `json:"recent_logs,omitempty"`
}

// Status returns the loop snapshot, the current day's trading stats, and the
// most recent warn/error log lines.
func (h *ControlEchoHandler) Status(c echo.Context) error {
	return xhttp.SuccessResponse(c, statusResponse{
		StatusSnapshot: h.loop.Status(),
		Stats:          h.risk.Stats(),
		RecentLogs:     h.logger.Recent(),
	})
}

// Start launches the loop. It takes no parameters (the strategy is fixed by
// configuration); starting a running loop is a no-op and still 200, since the
// caller's desired state is already true.
func (h *ControlEchoHandler) Start(c echo.Context) error {
	h.logger.Info("loop start requested over http")
	h.loop.Start(h.baseCtx)
	return xhttp.SuccessResponse(c, h.loop.Status())
}

// Stop requests shutdown and returns once the loop has exited.
func (h *ControlEchoHandler) Stop(c echo.Context) error {
	req := &models.StopRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	h.logger.Info("loop stop requested over http", xlogger.String("reason", req.Reason))
	h.loop.Stop()
	return xhttp.SuccessResponse(c, h.loop.Status())
}

// Strategies lists the registered strategy names.
func (h *ControlEchoHandler) Strategies(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string][]string{"strategies": h.registry.Names()})
}
