package services

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeunity/salesintel/pkg/parse"
)

// Weights of the repurchase score factors.
const (
	frequencyWeight = 0.3
	timeWeight      = 0.3
	recencyWeight   = 0.4

	// defaultInterval is assumed when the history has no usable gap.
	defaultInterval = 180.0
	// noPurchaseDays stands in for the recency of a history without dates.
	noPurchaseDays = 999
)

// recencySteps maps days since the last purchase to the recency factor.
var recencySteps = []struct {
	maxDays int
	factor  float64
}{
	{30, 1.0},
	{60, 0.8},
	{90, 0.6},
	{180, 0.4},
}

// Purchase is one dated purchase of a product by a customer.
type Purchase struct {
	Date  time.Time
	Units decimal.Decimal
}

// PurchaseEstimate is the repurchase heuristic for one customer and product.
// Probability is a prioritization score in [0, 1], not a calibrated
// statistical probability.
type PurchaseEstimate struct {
	Purchases     int
	DaysSinceLast int
	AvgInterval   float64

	FrequencyFactor float64
	TimeFactor      float64
	RecencyFactor   float64
	Probability     float64

	AvgQuantity      decimal.Decimal
	ExpectedQuantity decimal.Decimal
}

// EstimatePurchase scores how likely a repeat purchase is at ref, combining
// purchase count, closeness to the usual reorder interval and recency.
func EstimatePurchase(purchases []Purchase, ref time.Time) PurchaseEstimate {
	est := PurchaseEstimate{Purchases: len(purchases), DaysSinceLast: noPurchaseDays, AvgInterval: defaultInterval}
	if len(purchases) == 0 {
		est.AvgQuantity = decimal.Zero
		est.ExpectedQuantity = decimal.Zero
		return est
	}

	dates := make([]time.Time, 0, len(purchases))
	total := decimal.Zero
	counted := 0
	for _, p := range purchases {
		if p.Units.IsPositive() {
			total = total.Add(p.Units)
			counted++
		}
		if !p.Date.IsZero() {
			dates = append(dates, p.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	if len(dates) > 0 {
		est.DaysSinceLast = parse.DaysBetween(dates[len(dates)-1], ref)
	}

	if len(dates) > 1 {
		sum, gaps := 0, 0
		for i := 1; i < len(dates); i++ {
			if gap := parse.DaysBetween(dates[i-1], dates[i]); gap > 0 {
				sum += gap
				gaps++
			}
		}
		if gaps > 0 {
			est.AvgInterval = float64(sum) / float64(gaps)
		}
	}

	est.FrequencyFactor = math.Min(float64(len(purchases))/10, 1)

	if est.AvgInterval > 0 {
		deviation := math.Abs(float64(est.DaysSinceLast)-est.AvgInterval) / est.AvgInterval
		est.TimeFactor = clamp01(1 - deviation)
	} else {
		est.TimeFactor = 0.5
	}

	est.RecencyFactor = 0.2
	for _, step := range recencySteps {
		if est.DaysSinceLast <= step.maxDays {
			est.RecencyFactor = step.factor
			break
		}
	}

	est.Probability = clamp01(frequencyWeight*est.FrequencyFactor +
		timeWeight*est.TimeFactor +
		recencyWeight*est.RecencyFactor)

	// Purchases without a known unit count do not dilute the average.
	est.AvgQuantity = decimal.Zero
	if counted > 0 {
		est.AvgQuantity = total.Div(decimal.NewFromInt(int64(counted)))
	}
	est.ExpectedQuantity = est.AvgQuantity.Mul(decimal.NewFromFloat(est.Probability))
	return est
}

// ExpectedRemainingStock projects stock after the expected demand.
func ExpectedRemainingStock(stockUnits decimal.Decimal, est PurchaseEstimate) decimal.Decimal {
	return stockUnits.Sub(est.ExpectedQuantity)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
