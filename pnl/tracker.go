// Package pnl accumulates realized profit from fill events.
//
// The model is simplified realized cash flow, not mark-to-market: selling
// adds proceeds, buying subtracts cost, and resulting inventory carries no
// separate value. Each fill must be delivered exactly once; a redelivered
// fill double-counts. That guarantee belongs to the event source, not here.
package pnl

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
	"pmm-quoter-go/strategy"
)

// Tracker is the single writer of the profit accumulator. Fill delivery is
// asynchronous and may interleave with refresh-cycle reads, so all access
// goes through the mutex.
type Tracker struct {
	mu    sync.RWMutex
	total decimal.Decimal
	fills int64

	log *logger.Logger
}

func NewTracker(log *logger.Logger) *Tracker {
	if log == nil {
		log = logger.Nop()
	}
	return &Tracker{total: decimal.Zero, log: log}
}

// OnFill applies one executed fill to the accumulator.
func (t *Tracker) OnFill(side strategy.Side, amount, price decimal.Decimal) {
	notional := amount.Mul(price)

	t.mu.Lock()
	if side == strategy.SideSell {
		t.total = t.total.Add(notional)
	} else {
		t.total = t.total.Sub(notional)
	}
	t.fills++
	total := t.total
	t.mu.Unlock()

	t.log.Info("fill applied",
		zap.String("side", string(side)),
		zap.String("amount", amount.String()),
		zap.String("price", price.String()),
		zap.String("total_profit", total.String()))
}

// Run drains an asynchronous fill stream until the context ends or the
// channel closes.
func (t *Tracker) Run(ctx context.Context, fills <-chan strategy.Fill) {
	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-fills:
			if !ok {
				return
			}
			t.OnFill(f.Side, f.Amount, f.Price)
		}
	}
}

// TotalProfit returns the realized profit in quote-asset units.
func (t *Tracker) TotalProfit() decimal.Decimal {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.total
}

// FillCount returns how many fills have been applied.
func (t *Tracker) FillCount() int64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fills
}
