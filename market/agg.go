package market

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Aggregator 从成交流生成固定周期的 Candle。
// 用于没有原生 K 线流的行情源。
type Aggregator struct {
	Interval time.Duration
	mu       sync.Mutex
	current  *Candle
}

func NewAggregator(interval time.Duration) *Aggregator {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Aggregator{Interval: interval}
}

// OnTrade 更新当前 Candle；当周期结束时返回闭合的那根，否则返回 nil。
func (a *Aggregator) OnTrade(price decimal.Decimal, ts time.Time) *Candle {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.current == nil || ts.Sub(a.current.Ts) >= a.Interval {
		var closed *Candle
		if a.current != nil {
			closed = a.current
			// 边界成交计入上一根的收盘，简化边界处理
			closed.Close = price
			if price.GreaterThan(closed.High) {
				closed.High = price
			}
			if price.LessThan(closed.Low) {
				closed.Low = price
			}
		}
		a.current = &Candle{
			Open:  price,
			High:  price,
			Low:   price,
			Close: price,
			Ts:    ts,
		}
		return closed
	}

	if price.GreaterThan(a.current.High) {
		a.current.High = price
	}
	if price.LessThan(a.current.Low) {
		a.current.Low = price
	}
	a.current.Close = price
	return nil
}
