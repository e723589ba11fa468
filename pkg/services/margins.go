package services

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Margin returns price − cost and (price − cost) / cost × 100. Both are
// invalid unless price and cost are positive, so an unknown margin is never
// confused with a zero one.
func Margin(price, cost decimal.Decimal) (abs, pct decimal.NullDecimal) {
	if !price.IsPositive() || !cost.IsPositive() {
		return decimal.NullDecimal{}, decimal.NullDecimal{}
	}
	m := price.Sub(cost)
	return decimal.NewNullDecimal(m), decimal.NewNullDecimal(m.Div(cost).Mul(hundred))
}

// PurchaseOverPct returns how far price sits above cost, (price / cost − 1) × 100.
// It is invalid unless price and cost are positive.
func PurchaseOverPct(price, cost decimal.Decimal) decimal.NullDecimal {
	if !price.IsPositive() || !cost.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(price.Div(cost).Sub(decimal.NewFromInt(1)).Mul(hundred))
}

// ComputedDiscount back-computes (original − sale) / original × 100. It is
// zero unless original is positive and sale is below it, so discounts are
// never negative.
func ComputedDiscount(original, sale decimal.Decimal) decimal.Decimal {
	if !original.IsPositive() || !sale.LessThan(original) {
		return decimal.Zero
	}
	return original.Sub(sale).Div(original).Mul(hundred)
}

// EffectiveDiscount is the larger of the reported and the computed discount.
func EffectiveDiscount(reported, computed decimal.Decimal) decimal.Decimal {
	return decimal.Max(reported, computed)
}

// ShareOf returns part / total × 100, or zero when total is not positive.
func ShareOf(part, total decimal.Decimal) decimal.Decimal {
	if !total.IsPositive() {
		return decimal.Zero
	}
	return part.Div(total).Mul(hundred)
}
