package gateway

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmm-quoter-go/strategy"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPaperGatewayOrderLifecycle(t *testing.T) {
	g := NewPaperGateway(nil)

	id1, err := g.Submit("ETH-USDT", strategy.SideBuy, d("0.01"), d("1998"))
	require.NoError(t, err)
	id2, err := g.Submit("ETH-USDT", strategy.SideSell, d("0.01"), d("2002"))
	require.NoError(t, err)

	ids, err := g.ListActive("ETH-USDT")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{id1, id2}, ids)

	other, err := g.ListActive("BTC-USDT")
	require.NoError(t, err)
	assert.Empty(t, other, "orders are scoped per pair")

	require.NoError(t, g.Cancel("ETH-USDT", id1))
	assert.ErrorIs(t, g.Cancel("ETH-USDT", id1), ErrUnknownOrder)

	ids, _ = g.ListActive("ETH-USDT")
	assert.Equal(t, []string{id2}, ids)
}

func TestPaperGatewayRejectsInvalidOrders(t *testing.T) {
	g := NewPaperGateway(nil)

	_, err := g.Submit("ETH-USDT", strategy.SideBuy, decimal.Zero, d("1998"))
	assert.Error(t, err)

	_, err = g.Submit("ETH-USDT", strategy.SideBuy, d("0.01"), decimal.Zero)
	assert.Error(t, err)
}

func TestPaperGatewayMidPrice(t *testing.T) {
	g := NewPaperGateway(nil)

	_, err := g.MidPrice("ETH-USDT")
	assert.ErrorIs(t, err, ErrNoMidPrice)

	g.SetMid("ETH-USDT", d("2000"))
	mid, err := g.MidPrice("ETH-USDT")
	require.NoError(t, err)
	assert.True(t, mid.Equal(d("2000")))
}

func TestPaperGatewayFillsOnCross(t *testing.T) {
	g := NewPaperGateway(nil)
	g.Deposit("USDT", d("10000"))
	g.Deposit("ETH", d("1"))

	_, err := g.Submit("ETH-USDT", strategy.SideBuy, d("0.01"), d("1998"))
	require.NoError(t, err)
	_, err = g.Submit("ETH-USDT", strategy.SideSell, d("0.01"), d("2002"))
	require.NoError(t, err)

	// mid between the quotes: nothing crossed
	g.SetMid("ETH-USDT", d("2000"))
	ids, _ := g.ListActive("ETH-USDT")
	assert.Len(t, ids, 2)

	// market drops through the bid: buy fills at its resting price
	g.SetMid("ETH-USDT", d("1997"))

	var fill strategy.Fill
	select {
	case fill = <-g.Fills():
	case <-time.After(time.Second):
		t.Fatal("expected a fill event")
	}
	assert.Equal(t, strategy.SideBuy, fill.Side)
	assert.True(t, fill.Price.Equal(d("1998")), "maker fills at resting price")
	assert.True(t, fill.Amount.Equal(d("0.01")))

	eth, _ := g.Available("ETH")
	usdt, _ := g.Available("USDT")
	assert.True(t, eth.Equal(d("1.01")), "eth %s", eth)
	// 10000 - 0.01*1998 = 9980.02
	assert.True(t, usdt.Equal(d("9980.02")), "usdt %s", usdt)

	ids, _ = g.ListActive("ETH-USDT")
	assert.Len(t, ids, 1, "sell still resting")
}

func TestPaperGatewaySellFill(t *testing.T) {
	g := NewPaperGateway(nil)
	g.Deposit("USDT", d("100"))
	g.Deposit("ETH", d("1"))

	_, err := g.Submit("ETH-USDT", strategy.SideSell, d("0.5"), d("2002"))
	require.NoError(t, err)

	g.SetMid("ETH-USDT", d("2010"))

	select {
	case fill := <-g.Fills():
		assert.Equal(t, strategy.SideSell, fill.Side)
	case <-time.After(time.Second):
		t.Fatal("expected a fill event")
	}

	eth, _ := g.Available("ETH")
	usdt, _ := g.Available("USDT")
	assert.True(t, eth.Equal(d("0.5")))
	// 100 + 0.5*2002 = 1101
	assert.True(t, usdt.Equal(d("1101")), "usdt %s", usdt)
}
