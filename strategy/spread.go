package strategy

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SpreadBounds limits the quoted spread fraction. Both ends strictly
// positive, Min <= Max. Immutable at runtime.
type SpreadBounds struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Validate rejects invalid bounds; called once at startup.
func (b SpreadBounds) Validate() error {
	if !b.Min.IsPositive() || !b.Max.IsPositive() {
		return errors.New("spread bounds must be > 0")
	}
	if b.Min.GreaterThan(b.Max) {
		return fmt.Errorf("minSpread %s > maxSpread %s", b.Min, b.Max)
	}
	return nil
}

// dampingFactor keeps the quoted spread from fully tracking range noise.
var dampingFactor = decimal.RequireFromString("0.5")

var (
	ErrNonPositiveReference = errors.New("reference price must be > 0")
	ErrInvertedRange        = errors.New("recent high below recent low")
)

// EstimateSpread 将最近高低价区间归一化为相对波动率，乘以阻尼系数后
// clamp 到配置范围内。
func EstimateSpread(recentHigh, recentLow, referencePrice decimal.Decimal, bounds SpreadBounds) (decimal.Decimal, error) {
	if !referencePrice.IsPositive() {
		return decimal.Zero, ErrNonPositiveReference
	}
	if recentLow.IsNegative() || recentHigh.LessThan(recentLow) {
		return decimal.Zero, ErrInvertedRange
	}
	priceRange := recentHigh.Sub(recentLow).Div(referencePrice)
	spread := priceRange.Mul(dampingFactor)
	if spread.LessThan(bounds.Min) {
		return bounds.Min, nil
	}
	if spread.GreaterThan(bounds.Max) {
		return bounds.Max, nil
	}
	return spread, nil
}
