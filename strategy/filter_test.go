package strategy

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type stubMidSource struct {
	mid decimal.Decimal
	err error
}

func (s stubMidSource) MidPrice(pair string) (decimal.Decimal, error) {
	return s.mid, s.err
}

func TestProfitFilterAccept(t *testing.T) {
	tests := []struct {
		name  string
		side  Side
		price string
		mid   string
		want  bool
	}{
		{name: "sell above mid accepted", side: SideSell, price: "2002", mid: "2000", want: true},
		{name: "sell below mid rejected", side: SideSell, price: "1999", mid: "2000", want: false},
		{name: "buy below mid accepted", side: SideBuy, price: "1998", mid: "2000", want: true},
		{name: "buy above mid rejected", side: SideBuy, price: "2001", mid: "2000", want: false},
		{name: "sell exactly at mid rejected", side: SideSell, price: "2000", mid: "2000", want: false},
		{name: "buy exactly at mid rejected", side: SideBuy, price: "2000", mid: "2000", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ProfitFilter{Source: stubMidSource{mid: d(tt.mid)}, Pair: "ETH-USDT"}
			got := f.Accept(Quote{Side: tt.side, Price: d(tt.price), Amount: d("0.01"), IsMaker: true})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProfitFilterFailsClosed(t *testing.T) {
	f := ProfitFilter{Source: stubMidSource{err: errors.New("venue unavailable")}, Pair: "ETH-USDT"}
	// The quote would clear any reasonable mid, but without one we reject.
	ok := f.Accept(Quote{Side: SideSell, Price: d("999999"), Amount: d("0.01"), IsMaker: true})
	assert.False(t, ok)
}
