package pnl

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"pmm-quoter-go/strategy"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestTrackerSequences(t *testing.T) {
	tests := []struct {
		name  string
		fills []strategy.Fill
		want  string
	}{
		{
			name: "sell then buy nets the difference",
			fills: []strategy.Fill{
				{Side: strategy.SideSell, Amount: d("1"), Price: d("100")},
				{Side: strategy.SideBuy, Amount: d("1"), Price: d("90")},
			},
			want: "10",
		},
		{
			name: "buy heavy sequence goes negative",
			fills: []strategy.Fill{
				{Side: strategy.SideBuy, Amount: d("2"), Price: d("50")},
				{Side: strategy.SideSell, Amount: d("1"), Price: d("60")},
			},
			want: "-40",
		},
		{
			name:  "no fills",
			fills: nil,
			want:  "0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker(nil)
			for _, f := range tt.fills {
				tr.OnFill(f.Side, f.Amount, f.Price)
			}
			assert.True(t, tr.TotalProfit().Equal(d(tt.want)),
				"total %s want %s", tr.TotalProfit(), tt.want)
			assert.Equal(t, int64(len(tt.fills)), tr.FillCount())
		})
	}
}

func TestTrackerRunDrainsChannel(t *testing.T) {
	tr := NewTracker(nil)
	fills := make(chan strategy.Fill, 2)
	fills <- strategy.Fill{Side: strategy.SideSell, Amount: d("1"), Price: d("100")}
	fills <- strategy.Fill{Side: strategy.SideBuy, Amount: d("1"), Price: d("90")}
	close(fills)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	tr.Run(ctx, fills)

	assert.True(t, tr.TotalProfit().Equal(d("10")))
}

func TestTrackerConcurrentWritesAndReads(t *testing.T) {
	tr := NewTracker(nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				tr.OnFill(strategy.SideSell, d("1"), d("1"))
				tr.OnFill(strategy.SideBuy, d("1"), d("1"))
				_ = tr.TotalProfit()
			}
		}()
	}
	wg.Wait()

	assert.True(t, tr.TotalProfit().IsZero(), "got %s", tr.TotalProfit())
	assert.Equal(t, int64(1600), tr.FillCount())
}
