package status

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pmm-quoter-go/market"
	"pmm-quoter-go/strategy"
)

type stubBalances map[string]decimal.Decimal

func (s stubBalances) Available(asset string) (decimal.Decimal, error) {
	v, ok := s[asset]
	if !ok {
		return decimal.Zero, errors.New("unknown asset")
	}
	return v, nil
}

type stubOrders []strategy.Quote

func (s stubOrders) ActiveOrders(string) []strategy.Quote { return s }

type stubProfit struct {
	total decimal.Decimal
	count int64
}

func (s stubProfit) TotalProfit() decimal.Decimal { return s.total }
func (s stubProfit) FillCount() int64             { return s.count }

type stubCycle struct {
	state string
	last  time.Time
}

func (s stubCycle) StateName() string      { return s.state }
func (s stubCycle) LastRefresh() time.Time { return s.last }

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestReporterRender(t *testing.T) {
	window := market.NewWindow(3)
	window.Push(market.Candle{
		Open: d("2000"), High: d("2010"), Low: d("1990"), Close: d("2005"),
		Ts: time.Unix(1700000000, 0),
	})

	r := Reporter{
		Pair:     "ETH-USDT",
		Exchange: "binance_paper_trade",
		Balances: stubBalances{"ETH": d("10"), "USDT": d("10000")},
		Orders: stubOrders{
			{Side: strategy.SideBuy, Price: d("1998"), Amount: d("0.5"), IsMaker: true},
			{Side: strategy.SideSell, Price: d("2002"), Amount: d("0.5"), IsMaker: true},
		},
		Profit: stubProfit{total: d("12.5"), count: 4},
		Cycle:  stubCycle{state: "IDLE", last: time.Unix(1700000100, 0)},
		Window: window,
	}

	out := r.String()

	assert.Contains(t, out, "pair: ETH-USDT")
	assert.Contains(t, out, "venue: binance_paper_trade")
	assert.Contains(t, out, "cycle: IDLE")
	assert.Contains(t, out, "ETH")
	assert.Contains(t, out, "10000")
	assert.Contains(t, out, "active orders: 2")
	assert.Contains(t, out, "1998")
	assert.Contains(t, out, "2002")
	assert.Contains(t, out, "(warming up)")
	assert.Contains(t, out, "last close: 2005")
	assert.Contains(t, out, "realized pnl: 12.5")
	assert.Contains(t, out, "fills: 4")
}

func TestReporterRenderMinimal(t *testing.T) {
	r := Reporter{Pair: "BTC-USDT", Exchange: "paper"}
	out := r.String()
	assert.Contains(t, out, "pair: BTC-USDT")
	assert.NotContains(t, out, "balances")
	assert.NotContains(t, out, "active orders")
}

func TestReporterNeverRefreshed(t *testing.T) {
	r := Reporter{
		Pair:     "ETH-USDT",
		Exchange: "paper",
		Cycle:    stubCycle{state: "IDLE"},
	}
	assert.Contains(t, r.String(), "last refresh: never")
}

func TestReporterBalanceError(t *testing.T) {
	r := Reporter{
		Pair:     "ETH-USDT",
		Exchange: "paper",
		Balances: stubBalances{"USDT": d("100")},
	}
	out := r.String()
	assert.Contains(t, out, "unknown asset")
	assert.Contains(t, out, "100")
}
