package strategy

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side of a quote or fill.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Quote is a single candidate limit order. It is immutable once built and
// consumed exactly once per refresh cycle.
type Quote struct {
	Side    Side
	Price   decimal.Decimal
	Amount  decimal.Decimal
	IsMaker bool
}

// Fill is one executed trade reported by the venue.
type Fill struct {
	Side   Side
	Pair   string
	Amount decimal.Decimal
	Price  decimal.Decimal
	Ts     time.Time
}

// BuildQuotes 根据参考价与 spread 生成买卖两条 maker 报价。
// A side whose sized amount is zero is omitted rather than quoted at zero.
func BuildQuotes(referencePrice, spreadFraction, buyAmount, sellAmount decimal.Decimal) []Quote {
	one := decimal.NewFromInt(1)
	quotes := make([]Quote, 0, 2)
	if buyAmount.IsPositive() {
		quotes = append(quotes, Quote{
			Side:    SideBuy,
			Price:   referencePrice.Mul(one.Sub(spreadFraction)),
			Amount:  buyAmount,
			IsMaker: true,
		})
	}
	if sellAmount.IsPositive() {
		quotes = append(quotes, Quote{
			Side:    SideSell,
			Price:   referencePrice.Mul(one.Add(spreadFraction)),
			Amount:  sellAmount,
			IsMaker: true,
		})
	}
	return quotes
}
