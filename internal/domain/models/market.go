package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OHLCVBar is one bar of aggregated trade history. Bars are produced by the
// ledger gateway in strictly increasing timestamp order; strategies consume
// them read-only.
type OHLCVBar struct {
	Timestamp time.Time       `json:"timestamp"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
}

// Side of an order book entry or order.
type Side string

const (
	SideBid Side = "bid"
	SideAsk Side = "ask"

	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// RawOffer is an order book row as returned by the ledger. Price may be
// carried as a decimal string, as a rational {n, d} pair, or both; the
// rational form is the exact on-ledger representation and wins when usable.
type RawOffer struct {
	Price  string `json:"price"`
	Amount string `json:"amount"`
	PriceR struct {
		N int64 `json:"n"`
		D int64 `json:"d"`
	} `json:"price_r"`
}

// OrderBookEntry is a normalized price level.
type OrderBookEntry struct {
	Price  decimal.Decimal `json:"price"`
	Amount decimal.Decimal `json:"amount"`
	Side   Side            `json:"side"`
}

// NormalizedOrderBook holds bids sorted best-first (price descending) and
// asks sorted best-first (price ascending). A crossed book
// (best bid above best ask) is possible on the network and is not an error.
type NormalizedOrderBook struct {
	Bids []OrderBookEntry `json:"bids"`
	Asks []OrderBookEntry `json:"asks"`
}

// BestBid returns the top bid level, if any.
func (b NormalizedOrderBook) BestBid() (OrderBookEntry, bool) {
	if len(b.Bids) == 0 {
		return OrderBookEntry{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level, if any.
func (b NormalizedOrderBook) BestAsk() (OrderBookEntry, bool) {
	if len(b.Asks) == 0 {
		return OrderBookEntry{}, false
	}
	return b.Asks[0], true
}

// AssetRef identifies an asset on the ledger: either the native asset or an
// issued (code, issuer) pair. Equality is value equality.
type AssetRef struct {
	Code   string `json:"code" yaml:"code"`
	Issuer string `json:"issuer,omitempty" yaml:"issuer"`
	Native bool   `json:"native,omitempty" yaml:"native"`
}

// String renders the asset for logs and cache keys.
func (a AssetRef) String() string {
	if a.Native {
		return "native"
	}
	return a.Code + ":" + a.Issuer
}

// AssetPair is the traded market: base is bought/sold, counter prices it.
type AssetPair struct {
	Base    AssetRef `json:"base" yaml:"base"`
	Counter AssetRef `json:"counter" yaml:"counter"`
}

func (p AssetPair) String() string {
	return p.Base.String() + "/" + p.Counter.String()
}

// AccountSnapshot is the balance view used for sizing decisions.
type AccountSnapshot struct {
	AccountID string
	Balances  map[string]decimal.Decimal // keyed by AssetRef.String()
	FetchedAt time.Time
}

// Balance returns the balance for the given asset, zero when absent.
func (s AccountSnapshot) Balance(asset AssetRef) decimal.Decimal {
	return s.Balances[asset.String()]
}
