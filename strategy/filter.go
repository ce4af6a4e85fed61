package strategy

import (
	"github.com/shopspring/decimal"
)

// MidPriceSource provides the venue mid price for one pair. Implemented by
// the gateway; kept consumer-side so tests can substitute a stub.
type MidPriceSource interface {
	MidPrice(pair string) (decimal.Decimal, error)
}

// ProfitFilter re-validates a quote against the CURRENT mid price, which may
// have moved since the quote was built (e.g. during the budget round-trip).
type ProfitFilter struct {
	Source MidPriceSource
	Pair   string
}

// ExpectedEdge 返回该订单相对当前 mid 的期望收益。
// Sell: price - mid; Buy: mid - price.
func (f ProfitFilter) ExpectedEdge(q Quote) (decimal.Decimal, error) {
	mid, err := f.Source.MidPrice(f.Pair)
	if err != nil {
		return decimal.Zero, err
	}
	if q.Side == SideSell {
		return q.Price.Sub(mid), nil
	}
	return mid.Sub(q.Price), nil
}

// Accept is fail-closed: a mid-price lookup failure rejects the order rather
// than letting a stale quote through. Edge exactly zero is rejected.
func (f ProfitFilter) Accept(q Quote) bool {
	edge, err := f.ExpectedEdge(q)
	if err != nil {
		return false
	}
	return edge.IsPositive()
}
