package gateway

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"pmm-quoter-go/strategy"
)

// BalanceSource is the balance lookup the adjuster funds proposals against.
type BalanceSource interface {
	Available(asset string) (decimal.Decimal, error)
}

// BalanceBudget applies the all-or-none funding policy: if any order in the
// proposal cannot be covered by the available balances, the whole proposal
// is discarded.
type BalanceBudget struct {
	Balances BalanceSource
	Pair     string
}

// Adjust returns the proposal unchanged when every order is fundable, and
// an empty result otherwise.
func (b BalanceBudget) Adjust(quotes []strategy.Quote) ([]strategy.Quote, error) {
	base, quote, err := splitPair(b.Pair)
	if err != nil {
		return nil, err
	}

	neededQuote := decimal.Zero
	neededBase := decimal.Zero
	for _, q := range quotes {
		if q.Side == strategy.SideBuy {
			neededQuote = neededQuote.Add(q.Amount.Mul(q.Price))
		} else {
			neededBase = neededBase.Add(q.Amount)
		}
	}

	quoteAvail, err := b.Balances.Available(quote)
	if err != nil {
		return nil, fmt.Errorf("query %s balance: %w", quote, err)
	}
	baseAvail, err := b.Balances.Available(base)
	if err != nil {
		return nil, fmt.Errorf("query %s balance: %w", base, err)
	}

	if neededQuote.GreaterThan(quoteAvail) || neededBase.GreaterThan(baseAvail) {
		return nil, nil
	}
	return quotes, nil
}

func splitPair(pair string) (base, quote string, err error) {
	parts := strings.Split(pair, "-")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("pair %q must be BASE-QUOTE", pair)
	}
	return parts[0], parts[1], nil
}
