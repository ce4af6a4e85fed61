package market

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle represents OHLC data for one interval.
type Candle struct {
	Open  decimal.Decimal
	High  decimal.Decimal
	Low   decimal.Decimal
	Close decimal.Decimal
	Ts    time.Time
}
