//go:build property
// +build property

package services

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/tradeunity/salesintel/pkg/models"
)

// TestComputedDiscountBounds verifies the derived discount of a non-negative
// sale price.
// Property: 0 <= ComputedDiscount(original, sale) <= 100
func TestComputedDiscountBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("discount stays within 0 and 100", prop.ForAll(
		func(originalCents, saleCents int64) bool {
			d := ComputedDiscount(decimal.New(originalCents, -2), decimal.New(saleCents, -2))
			return !d.IsNegative() && d.LessThanOrEqual(hundred)
		},
		gen.Int64Range(-10_000, 1_000_000),
		gen.Int64Range(0, 1_000_000),
	))

	properties.Property("effective discount is never below either input", prop.ForAll(
		func(reported, computed int64) bool {
			r, c := decimal.NewFromInt(reported), decimal.NewFromInt(computed)
			e := EffectiveDiscount(r, c)
			return e.GreaterThanOrEqual(r) && e.GreaterThanOrEqual(c)
		},
		gen.Int64Range(0, 100),
		gen.Int64Range(0, 100),
	))

	properties.TestingRun(t)
}

// TestPurchaseProbabilityBounds verifies the repurchase score for any
// history before the reference date.
// Property: 0 <= EstimatePurchase(h, ref).Probability <= 1
func TestPurchaseProbabilityBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)
	ref := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	properties.Property("probability is a score in [0, 1]", prop.ForAll(
		func(daysAgo []int) bool {
			purchases := make([]Purchase, len(daysAgo))
			for i, d := range daysAgo {
				purchases[i] = Purchase{Date: ref.AddDate(0, 0, -d), Units: decimal.NewFromInt(int64(d%7 + 1))}
			}
			est := EstimatePurchase(purchases, ref)
			return est.Probability >= 0 && est.Probability <= 1 &&
				!est.ExpectedQuantity.IsNegative() &&
				est.ExpectedQuantity.LessThanOrEqual(est.AvgQuantity)
		},
		gen.SliceOf(gen.IntRange(0, 2000)),
	))

	properties.TestingRun(t)
}

// TestShareOfTotals verifies that the shares of a partition add up to 100.
// Property: sum(ShareOf(p_i, sum(p))) == 100 for a positive total
func TestShareOfTotals(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("partition shares sum to 100", prop.ForAll(
		func(parts []int64) bool {
			total := decimal.Zero
			for _, p := range parts {
				total = total.Add(decimal.NewFromInt(p))
			}
			if !total.IsPositive() {
				return ShareOf(decimal.NewFromInt(1), total).IsZero()
			}
			sum := decimal.Zero
			for _, p := range parts {
				sum = sum.Add(ShareOf(decimal.NewFromInt(p), total))
			}
			return sum.Sub(hundred).Abs().LessThan(decimal.New(1, -6))
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
	))

	properties.TestingRun(t)
}

// TestMarginExactness verifies the unit margin against its cost basis.
// Property: abs + cost == price and pct == abs / cost * 100 for positive inputs
func TestMarginExactness(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("margin reconstructs the price", prop.ForAll(
		func(priceCents, costCents int64) bool {
			price, cost := decimal.New(priceCents, -2), decimal.New(costCents, -2)
			abs, pct := Margin(price, cost)
			if !abs.Valid || !pct.Valid {
				return false
			}
			return abs.Decimal.Add(cost).Equal(price) &&
				pct.Decimal.Equal(abs.Decimal.Div(cost).Mul(hundred))
		},
		gen.Int64Range(1, 10_000_000),
		gen.Int64Range(1, 10_000_000),
	))

	properties.Property("non-positive cost gives an unknown margin", prop.ForAll(
		func(priceCents, costCents int64) bool {
			abs, pct := Margin(decimal.New(priceCents, -2), decimal.New(costCents, -2))
			return !abs.Valid && !pct.Valid
		},
		gen.Int64Range(1, 10_000_000),
		gen.Int64Range(-10_000, 0),
	))

	properties.TestingRun(t)
}

// TestSegmentationTotality verifies that every aggregate gets exactly one
// known label per decision list and that classifying twice changes nothing.
// Property: Classify(c) in Labels() and Classify(Classify(c)) == Classify(c)
func TestSegmentationTotality(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	in := func(label string, labels []string) bool {
		for _, l := range labels {
			if l == label {
				return true
			}
		}
		return false
	}
	nullPct := func(v int64, known bool) decimal.NullDecimal {
		if !known {
			return decimal.NullDecimal{}
		}
		return decimal.NewNullDecimal(decimal.NewFromInt(v))
	}

	properties.Property("labels come from the lists and are stable", prop.ForAll(
		func(ltv int64, orders, days, rank int, fob int64, fobKnown bool, brands int) bool {
			c := &models.CustomerAggregate{
				LTV:              decimal.NewFromInt(ltv),
				Orders:           orders,
				DaysSinceLast:    days,
				Healthy:          days <= 90 && orders >= 2,
				Rank:             rank,
				AvgMarginFOBPct:  nullPct(fob, fobKnown),
				UniqueBrands:     brands,
				UniqueCategories: brands / 2,
			}
			Classify(c)
			first := *c
			Classify(c)

			return in(c.Segment, RFVSegments.Labels()) &&
				in(c.Health, HealthClasses.Labels()) &&
				in(c.MarginTier, MarginTiers.Labels()) &&
				in(c.Diversity, DiversityClasses.Labels()) &&
				in(c.InventoryAge, InventoryAgeClasses.Labels()) &&
				in(c.VolumeMarginClass, VolumeMarginClasses.Labels()) &&
				first == *c
		},
		gen.Int64Range(0, 200_000),
		gen.IntRange(0, 50),
		gen.IntRange(0, 999),
		gen.IntRange(1, 1000),
		gen.Int64Range(-50, 300),
		gen.Bool(),
		gen.IntRange(0, 10),
	))

	properties.TestingRun(t)
}
