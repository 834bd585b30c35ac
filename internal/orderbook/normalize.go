package orderbook

import (
	"sort"

	"github.com/shopspring/decimal"

	"LumenTrade/internal/domain/models"
)

// Normalize converts raw ledger order book rows into a canonical book:
// bids sorted best-first (price descending), asks best-first (ascending).
// Malformed or non-positive rows are dropped, never errored; the worst case
// is an empty book. Equal price levels are preserved since depth matters.
func Normalize(rawBids, rawAsks []models.RawOffer) models.NormalizedOrderBook {
	book := models.NormalizedOrderBook{
		Bids: normalizeSide(rawBids, models.SideBid),
		Asks: normalizeSide(rawAsks, models.SideAsk),
	}

	sort.SliceStable(book.Bids, func(i, j int) bool {
		return book.Bids[i].Price.GreaterThan(book.Bids[j].Price)
	})
	sort.SliceStable(book.Asks, func(i, j int) bool {
		return book.Asks[i].Price.LessThan(book.Asks[j].Price)
	})

	return book
}

func normalizeSide(raw []models.RawOffer, side models.Side) []models.OrderBookEntry {
	out := make([]models.OrderBookEntry, 0, len(raw))
	for _, r := range raw {
		price, ok := resolvePrice(r)
		if !ok {
			continue
		}
		amount, err := decimal.NewFromString(r.Amount)
		if err != nil {
			continue
		}
		if price.Sign() <= 0 || amount.Sign() <= 0 {
			// Stale zero-amount rows are legitimate network output.
			continue
		}
		out = append(out, models.OrderBookEntry{Price: price, Amount: amount, Side: side})
	}
	return out
}

// resolvePrice prefers the rational {n, d} form, which is the exact on-ledger
// representation; the decimal string is a lossy display value kept as a
// fallback when the rational form is malformed.
func resolvePrice(r models.RawOffer) (decimal.Decimal, bool) {
	if r.PriceR.D != 0 {
		n := decimal.NewFromInt(r.PriceR.N)
		d := decimal.NewFromInt(r.PriceR.D)
		return n.Div(d), true
	}
	if r.Price != "" {
		p, err := decimal.NewFromString(r.Price)
		if err == nil {
			return p, true
		}
	}
	return decimal.Decimal{}, false
}

// Spread returns best ask minus best bid. The second return is false when
// either side is empty. A negative spread (crossed book) is returned as-is.
func Spread(book models.NormalizedOrderBook) (decimal.Decimal, bool) {
	bid, okB := book.BestBid()
	ask, okA := book.BestAsk()
	if !okB || !okA {
		return decimal.Decimal{}, false
	}
	return ask.Price.Sub(bid.Price), true
}
