// Package status 汇总运行状态，输出人类可读的文本快照。
// 只读，不影响报价循环。
package status

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"pmm-quoter-go/market"
	"pmm-quoter-go/strategy"
)

// BalanceView exposes venue balances.
type BalanceView interface {
	Available(asset string) (decimal.Decimal, error)
}

// OrderView exposes resting orders on the venue.
type OrderView interface {
	ActiveOrders(pair string) []strategy.Quote
}

// ProfitView exposes realized profit.
type ProfitView interface {
	TotalProfit() decimal.Decimal
	FillCount() int64
}

// CycleView exposes the decision loop's observable state.
type CycleView interface {
	StateName() string
	LastRefresh() time.Time
}

// Reporter renders a point-in-time snapshot of the whole system.
type Reporter struct {
	Pair     string
	Exchange string

	Balances BalanceView
	Orders   OrderView
	Profit   ProfitView
	Cycle    CycleView
	Window   *market.Window
}

// Render writes the status snapshot to w.
func (r Reporter) Render(w io.Writer) error {
	fmt.Fprintf(w, "pair: %s  venue: %s\n", r.Pair, r.Exchange)

	if r.Cycle != nil {
		last := "never"
		if ts := r.Cycle.LastRefresh(); !ts.IsZero() {
			last = ts.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "cycle: %s  last refresh: %s\n", r.Cycle.StateName(), last)
	}

	if r.Balances != nil {
		fmt.Fprintln(w, "\nbalances:")
		tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
		fmt.Fprintln(tw, "  asset\tavailable")
		base, quote := splitPair(r.Pair)
		for _, asset := range []string{base, quote} {
			if asset == "" {
				continue
			}
			avail, err := r.Balances.Available(asset)
			if err != nil {
				fmt.Fprintf(tw, "  %s\t<%v>\n", asset, err)
				continue
			}
			fmt.Fprintf(tw, "  %s\t%s\n", asset, avail.String())
		}
		tw.Flush()
	}

	if r.Orders != nil {
		orders := r.Orders.ActiveOrders(r.Pair)
		fmt.Fprintf(w, "\nactive orders: %d\n", len(orders))
		if len(orders) > 0 {
			tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
			fmt.Fprintln(tw, "  side\tprice\tamount")
			for _, o := range orders {
				fmt.Fprintf(tw, "  %s\t%s\t%s\n", o.Side, o.Price.String(), o.Amount.String())
			}
			tw.Flush()
		}
	}

	if r.Window != nil {
		fmt.Fprintf(w, "\ncandles: %d", r.Window.Len())
		if !r.Window.Ready() {
			fmt.Fprint(w, " (warming up)")
		}
		if last, ok := r.Window.Last(); ok {
			fmt.Fprintf(w, "  last close: %s  high: %s  low: %s",
				last.Close.String(), last.High.String(), last.Low.String())
		}
		fmt.Fprintln(w)
	}

	if r.Profit != nil {
		fmt.Fprintf(w, "\nrealized pnl: %s  fills: %d\n",
			r.Profit.TotalProfit().String(), r.Profit.FillCount())
	}
	return nil
}

// String renders the snapshot into a string.
func (r Reporter) String() string {
	var sb strings.Builder
	_ = r.Render(&sb)
	return sb.String()
}

func splitPair(pair string) (base, quote string) {
	parts := strings.SplitN(pair, "-", 2)
	if len(parts) != 2 {
		return pair, ""
	}
	return parts[0], parts[1]
}
