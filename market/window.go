package market

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Window 保存最近 N 根 K 线的有界窗口，超出时淘汰最旧一根。
// Ready 在窗口填满前保持 false；这是启动期的正常状态而非错误。
type Window struct {
	mu      sync.RWMutex
	candles []Candle
	length  int
}

// NewWindow creates a bounded window holding up to length candles.
func NewWindow(length int) *Window {
	if length <= 0 {
		length = 30
	}
	return &Window{
		candles: make([]Candle, 0, length),
		length:  length,
	}
}

// Push appends a candle, evicting the oldest when over capacity.
func (w *Window) Push(c Candle) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.candles = append(w.candles, c)
	if len(w.candles) > w.length {
		w.candles = w.candles[1:]
	}
}

// Ready reports whether the window has reached its configured length.
func (w *Window) Ready() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.candles) >= w.length
}

// Len returns the current candle count.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.candles)
}

// Last returns the most recent candle.
func (w *Window) Last() (Candle, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if len(w.candles) == 0 {
		return Candle{}, false
	}
	return w.candles[len(w.candles)-1], true
}

// RecentHigh returns the latest candle's high, or zero when empty.
func (w *Window) RecentHigh() decimal.Decimal {
	c, ok := w.Last()
	if !ok {
		return decimal.Zero
	}
	return c.High
}

// RecentLow returns the latest candle's low, or zero when empty.
func (w *Window) RecentLow() decimal.Decimal {
	c, ok := w.Last()
	if !ok {
		return decimal.Zero
	}
	return c.Low
}

// Snapshot returns a copy of the window contents, oldest first.
func (w *Window) Snapshot() []Candle {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Candle, len(w.candles))
	copy(out, w.candles)
	return out
}
