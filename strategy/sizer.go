package strategy

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Sizer converts available balances into bounded per-order amounts.
// RiskFraction caps single-order exposure relative to the balance
// (e.g. 0.01 = 1%); BaseOrderAmount is the absolute per-order cap.
type Sizer struct {
	BaseOrderAmount decimal.Decimal
	RiskFraction    decimal.Decimal
}

// NewSizer validates the sizing parameters once at startup.
func NewSizer(baseOrderAmount, riskFraction decimal.Decimal) (Sizer, error) {
	if !baseOrderAmount.IsPositive() {
		return Sizer{}, errors.New("baseOrderAmount must be > 0")
	}
	if !riskFraction.IsPositive() || riskFraction.GreaterThan(decimal.NewFromInt(1)) {
		return Sizer{}, errors.New("riskFraction must be in (0, 1]")
	}
	return Sizer{BaseOrderAmount: baseOrderAmount, RiskFraction: riskFraction}, nil
}

// SizeBuy returns min(base, quoteAvailable*riskFraction/ref), clamped at zero.
// A zero result means the buy side is omitted; callers never quote zero size.
func (s Sizer) SizeBuy(quoteAvailable, referencePrice decimal.Decimal) decimal.Decimal {
	if !referencePrice.IsPositive() {
		return decimal.Zero
	}
	amount := quoteAvailable.Mul(s.RiskFraction).Div(referencePrice)
	return s.clamp(amount)
}

// SizeSell returns min(base, baseAvailable*riskFraction), clamped at zero.
func (s Sizer) SizeSell(baseAvailable decimal.Decimal) decimal.Decimal {
	return s.clamp(baseAvailable.Mul(s.RiskFraction))
}

func (s Sizer) clamp(amount decimal.Decimal) decimal.Decimal {
	if amount.IsNegative() {
		return decimal.Zero
	}
	if amount.GreaterThan(s.BaseOrderAmount) {
		return s.BaseOrderAmount
	}
	return amount
}
