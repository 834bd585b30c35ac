package horizon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"

	"LumenTrade/internal/domain/models"
	"LumenTrade/internal/domain/repository"
	"LumenTrade/internal/service/ratelimit"
	xlogger "LumenTrade/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds the gateway connection settings.
type Config struct {
	BaseURL      string        `yaml:"base_url"`
	Timeout      time.Duration `yaml:"timeout"`
	RateCapacity float64       `yaml:"rate_capacity"`
	RateRefill   float64       `yaml:"rate_refill"` // tokens per second
}

// Client is the REST implementation of repository.LedgerGateway. Retries are
// deliberately not configured on the HTTP client: the trading loop owns retry
// policy, and a second retry layer here would multiply submissions.
type Client struct {
	cfg     Config
	http    *resty.Client
	limiter *ratelimit.Limiter
	logger  *xlogger.Logger
}

func NewClient(cfg Config, logger *xlogger.Logger) *Client {
	if cfg.RateCapacity <= 0 {
		cfg.RateCapacity = 10
	}
	if cfg.RateRefill <= 0 {
		cfg.RateRefill = 5
	}
	return &Client{
		cfg: cfg,
		http: resty.New().
			SetBaseURL(cfg.BaseURL).
			SetTimeout(cfg.Timeout).
			SetHeader("Accept", "application/json"),
		limiter: ratelimit.New(),
		logger:  logger,
	}
}

type accountResponse struct {
	AccountID string `json:"account_id"`
	Balances  []struct {
		Balance     string `json:"balance"`
		AssetType   string `json:"asset_type"`
		AssetCode   string `json:"asset_code"`
		AssetIssuer string `json:"asset_issuer"`
	} `json:"balances"`
}

// LoadAccount fetches the account record and reduces it to a balance snapshot.
func (c *Client) LoadAccount(ctx context.Context, accountID string) (models.AccountSnapshot, error) {
	body, err := c.get(ctx, "account", "/accounts/"+accountID, nil)
	if err != nil {
		return models.AccountSnapshot{}, err
	}

	var ar accountResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		return models.AccountSnapshot{}, fmt.Errorf("decode account: %w", err)
	}

	snapshot := models.AccountSnapshot{
		AccountID: ar.AccountID,
		Balances:  make(map[string]decimal.Decimal, len(ar.Balances)),
		FetchedAt: time.Now(),
	}
	for _, b := range ar.Balances {
		amount, err := decimal.NewFromString(b.Balance)
		if err != nil {
			c.logger.Warn("skipping unparseable balance",
				xlogger.String("asset_code", b.AssetCode), xlogger.String("balance", b.Balance))
			continue
		}
		asset := models.AssetRef{Code: b.AssetCode, Issuer: b.AssetIssuer}
		if b.AssetType == "native" {
			asset = models.AssetRef{Native: true}
		}
		snapshot.Balances[asset.String()] = amount
	}
	return snapshot, nil
}

type bookResponse struct {
	Bids []models.RawOffer `json:"bids"`
	Asks []models.RawOffer `json:"asks"`
}

// OrderBook fetches both sides raw; normalization is the caller's concern.
func (c *Client) OrderBook(ctx context.Context, pair models.AssetPair) ([]models.RawOffer, []models.RawOffer, error) {
	params := map[string]string{}
	assetParams(params, "selling", pair.Base)
	assetParams(params, "buying", pair.Counter)

	body, err := c.get(ctx, "order_book", "/order_book", params)
	if err != nil {
		return nil, nil, err
	}

	var br bookResponse
	if err := json.Unmarshal(body, &br); err != nil {
		return nil, nil, fmt.Errorf("decode order book: %w", err)
	}
	return br.Bids, br.Asks, nil
}

type aggregationsResponse struct {
	Embedded struct {
		Records []struct {
			Timestamp  string `json:"timestamp"` // ms since epoch
			Open       string `json:"open"`
			High       string `json:"high"`
			Low        string `json:"low"`
			Close      string `json:"close"`
			BaseVolume string `json:"base_volume"`
		} `json:"records"`
	} `json:"_embedded"`
}

// TradeAggregations fetches the OHLCV window. Rows with unparseable numbers
// and rows whose timestamp does not advance past the previous row are dropped
// rather than failing the whole window.
func (c *Client) TradeAggregations(ctx context.Context, pair models.AssetPair, resolution time.Duration, from, to time.Time) ([]models.OHLCVBar, error) {
	params := map[string]string{
		"resolution": strconv.FormatInt(resolution.Milliseconds(), 10),
		"start_time": strconv.FormatInt(from.UnixMilli(), 10),
		"end_time":   strconv.FormatInt(to.UnixMilli(), 10),
		"order":      "asc",
		"limit":      "200",
	}
	assetParams(params, "base", pair.Base)
	assetParams(params, "counter", pair.Counter)

	body, err := c.get(ctx, "trade_aggregations", "/trade_aggregations", params)
	if err != nil {
		return nil, err
	}

	var agg aggregationsResponse
	if err := json.Unmarshal(body, &agg); err != nil {
		return nil, fmt.Errorf("decode trade aggregations: %w", err)
	}

	bars := make([]models.OHLCVBar, 0, len(agg.Embedded.Records))
	var lastMs int64
	for _, r := range agg.Embedded.Records {
		ms, err := strconv.ParseInt(r.Timestamp, 10, 64)
		if err != nil {
			continue
		}
		if len(bars) > 0 && ms <= lastMs {
			c.logger.Warn("skipping out-of-order aggregation row",
				xlogger.String("ts", r.Timestamp))
			continue
		}
		open, err1 := decimal.NewFromString(r.Open)
		high, err2 := decimal.NewFromString(r.High)
		low, err3 := decimal.NewFromString(r.Low)
		cl, err4 := decimal.NewFromString(r.Close)
		vol, err5 := decimal.NewFromString(r.BaseVolume)
		if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
			c.logger.Warn("skipping unparseable aggregation row", xlogger.String("ts", r.Timestamp))
			continue
		}
		bars = append(bars, models.OHLCVBar{
			Timestamp: time.UnixMilli(ms).UTC(),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cl,
			Volume:    vol,
		})
		lastMs = ms
	}
	return bars, nil
}

type submitResponse struct {
	Hash   string `json:"hash"`
	Ledger int64  `json:"ledger"`
	Extras struct {
		ResultCodes struct {
			Transaction string   `json:"transaction"`
			Operations  []string `json:"operations"`
		} `json:"result_codes"`
	} `json:"extras"`
	Detail string `json:"detail"`
}

// Submit posts the signed envelope. A ledger-level rejection surfaces as a
// *repository.LedgerError; transport and 5xx failures as ErrGatewayUnavailable.
func (c *Client) Submit(ctx context.Context, envelope repository.SignedEnvelope) (repository.SubmitReceipt, error) {
	if !c.limiter.Allow("submit", c.cfg.RateCapacity, c.cfg.RateRefill) {
		return repository.SubmitReceipt{}, fmt.Errorf("%w: local rate limit on submit", repository.ErrGatewayUnavailable)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"tx": envelope.Base64}).
		Post("/transactions")
	if err != nil {
		return repository.SubmitReceipt{}, fmt.Errorf("%w: submit: %v", repository.ErrGatewayUnavailable, err)
	}

	var sr submitResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil && resp.IsSuccess() {
		return repository.SubmitReceipt{}, fmt.Errorf("decode submit response: %w", err)
	}

	switch {
	case resp.IsSuccess():
		return repository.SubmitReceipt{Hash: sr.Hash, Ledger: sr.Ledger}, nil
	case resp.StatusCode() >= http.StatusInternalServerError || resp.StatusCode() == http.StatusTooManyRequests:
		return repository.SubmitReceipt{}, fmt.Errorf("%w: submit status %d", repository.ErrGatewayUnavailable, resp.StatusCode())
	default:
		code := sr.Extras.ResultCodes.Transaction
		if code == "" {
			code = fmt.Sprintf("http_%d", resp.StatusCode())
		}
		return repository.SubmitReceipt{}, &repository.LedgerError{ResultCode: code, Detail: sr.Detail}
	}
}

// get performs one rate-limited GET and classifies failures.
func (c *Client) get(ctx context.Context, op, path string, params map[string]string) ([]byte, error) {
	if !c.limiter.Allow(op, c.cfg.RateCapacity, c.cfg.RateRefill) {
		return nil, fmt.Errorf("%w: local rate limit on %s", repository.ErrGatewayUnavailable, op)
	}

	req := c.http.R().SetContext(ctx)
	if len(params) > 0 {
		req.SetQueryParams(params)
	}
	resp, err := req.Get(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrGatewayUnavailable, op, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: %s status %d", repository.ErrGatewayUnavailable, op, resp.StatusCode())
	}
	return resp.Body(), nil
}

func assetParams(params map[string]string, prefix string, asset models.AssetRef) {
	if asset.Native {
		params[prefix+"_asset_type"] = "native"
		return
	}
	typ := "credit_alphanum4"
	if len(asset.Code) > 4 {
		typ = "credit_alphanum12"
	}
	params[prefix+"_asset_type"] = typ
	params[prefix+"_asset_code"] = asset.Code
	params[prefix+"_asset_issuer"] = asset.Issuer
}
