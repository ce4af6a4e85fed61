// Package gateway provides the venue-side collaborators of the quoting
// engine. The paper gateway is an in-memory venue: it holds balances and
// resting maker orders, simulates fills when the market trades through a
// resting price, and pushes fill events on an asynchronous stream.
package gateway

import (
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
	"pmm-quoter-go/strategy"
)

var (
	ErrNoMidPrice   = errors.New("no mid price for pair")
	ErrUnknownOrder = errors.New("unknown order")
)

type paperOrder struct {
	id     string
	pair   string
	side   strategy.Side
	amount decimal.Decimal
	price  decimal.Decimal
}

// PaperGateway 模拟交易所：余额、挂单、按 mid 穿价成交。
// Each simulated fill is delivered exactly once on the fill stream.
type PaperGateway struct {
	mu       sync.RWMutex
	balances map[string]decimal.Decimal
	orders   map[string]*paperOrder
	mids     map[string]decimal.Decimal
	seq      int64

	fills chan strategy.Fill

	log *logger.Logger
}

func NewPaperGateway(log *logger.Logger) *PaperGateway {
	if log == nil {
		log = logger.Nop()
	}
	return &PaperGateway{
		balances: make(map[string]decimal.Decimal),
		orders:   make(map[string]*paperOrder),
		mids:     make(map[string]decimal.Decimal),
		fills:    make(chan strategy.Fill, 64),
		log:      log,
	}
}

// Deposit seeds an asset balance.
func (g *PaperGateway) Deposit(asset string, amount decimal.Decimal) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.balances[asset] = g.balances[asset].Add(amount)
}

// Available implements the balance oracle.
func (g *PaperGateway) Available(asset string) (decimal.Decimal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.balances[asset], nil
}

// MidPrice implements the price oracle; absent price is an error.
func (g *PaperGateway) MidPrice(pair string) (decimal.Decimal, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	mid, ok := g.mids[pair]
	if !ok || !mid.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrNoMidPrice, pair)
	}
	return mid, nil
}

// Submit rests a maker order on the book.
func (g *PaperGateway) Submit(pair string, side strategy.Side, amount, price decimal.Decimal) (string, error) {
	if !amount.IsPositive() || !price.IsPositive() {
		return "", fmt.Errorf("invalid order: amount=%s price=%s", amount, price)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	id := fmt.Sprintf("paper-%d", g.seq)
	g.orders[id] = &paperOrder{
		id:     id,
		pair:   pair,
		side:   side,
		amount: amount,
		price:  price,
	}
	return id, nil
}

// Cancel removes a resting order.
func (g *PaperGateway) Cancel(pair, orderID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	o, ok := g.orders[orderID]
	if !ok || o.pair != pair {
		return fmt.Errorf("%w: %s", ErrUnknownOrder, orderID)
	}
	delete(g.orders, orderID)
	return nil
}

// ListActive returns the resting order IDs for the pair.
func (g *PaperGateway) ListActive(pair string) ([]string, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	ids := make([]string, 0, len(g.orders))
	for id, o := range g.orders {
		if o.pair == pair {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ActiveOrders returns copies of the resting orders for reporting.
func (g *PaperGateway) ActiveOrders(pair string) []strategy.Quote {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]strategy.Quote, 0, len(g.orders))
	for _, o := range g.orders {
		if o.pair == pair {
			out = append(out, strategy.Quote{
				Side:    o.side,
				Price:   o.price,
				Amount:  o.amount,
				IsMaker: true,
			})
		}
	}
	return out
}

// Fills is the asynchronous fill event stream.
func (g *PaperGateway) Fills() <-chan strategy.Fill { return g.fills }

// SetMid updates the pair's mid price and fills any resting order the
// market traded through: a buy fills when mid <= its price, a sell when
// mid >= its price. Fills execute at the resting price (maker semantics).
func (g *PaperGateway) SetMid(pair string, mid decimal.Decimal) {
	g.mu.Lock()
	g.mids[pair] = mid

	var filled []*paperOrder
	for id, o := range g.orders {
		if o.pair != pair {
			continue
		}
		crossed := (o.side == strategy.SideBuy && mid.LessThanOrEqual(o.price)) ||
			(o.side == strategy.SideSell && mid.GreaterThanOrEqual(o.price))
		if !crossed {
			continue
		}
		g.settle(o)
		delete(g.orders, id)
		filled = append(filled, o)
	}
	g.mu.Unlock()

	// emit outside the lock; the channel is buffered and drained by the
	// PnL tracker
	for _, o := range filled {
		g.log.Info("paper fill",
			zap.String("order_id", o.id),
			zap.String("side", string(o.side)),
			zap.String("price", o.price.String()),
			zap.String("amount", o.amount.String()))
		g.fills <- strategy.Fill{
			Side:   o.side,
			Pair:   o.pair,
			Amount: o.amount,
			Price:  o.price,
		}
	}
}

// settle moves balances for a filled order; caller holds the lock.
func (g *PaperGateway) settle(o *paperOrder) {
	base, quote, err := splitPair(o.pair)
	if err != nil {
		return
	}
	notional := o.amount.Mul(o.price)
	if o.side == strategy.SideBuy {
		g.balances[quote] = g.balances[quote].Sub(notional)
		g.balances[base] = g.balances[base].Add(o.amount)
	} else {
		g.balances[base] = g.balances[base].Sub(o.amount)
		g.balances[quote] = g.balances[quote].Add(notional)
	}
}
