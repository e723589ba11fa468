package services

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Mean returns the arithmetic mean of values, invalid when values is empty.
func Mean(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.Avg(values[0], values[1:]...))
}

// Median returns the middle value, or the mean of the two middle values for
// an even count. It is invalid when values is empty.
func Median(values []decimal.Decimal) decimal.NullDecimal {
	if len(values) == 0 {
		return decimal.NullDecimal{}
	}
	sorted := make([]decimal.Decimal, len(values))
	copy(sorted, values)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return decimal.NewNullDecimal(sorted[mid])
	}
	return decimal.NewNullDecimal(sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)))
}

// Known collects the valid values of a NullDecimal series.
func Known(values []decimal.NullDecimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		if v.Valid {
			out = append(out, v.Decimal)
		}
	}
	return out
}

// Mode returns the most frequent non-blank value. Ties go to the value that
// sorts first. It returns "" when there is none.
func Mode(values []string) string {
	counts := make(map[string]int)
	for _, v := range values {
		if v != "" {
			counts[v]++
		}
	}
	best, bestCount := "", 0
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

// Totals accumulates a decimal sum per key while remembering the order in
// which keys were first seen.
type Totals struct {
	keys []string
	sums map[string]decimal.Decimal
}

// NewTotals returns an empty accumulator.
func NewTotals() *Totals {
	return &Totals{sums: make(map[string]decimal.Decimal)}
}

// Add adds v to key. Blank keys are ignored.
func (t *Totals) Add(key string, v decimal.Decimal) {
	if key == "" {
		return
	}
	cur, ok := t.sums[key]
	if !ok {
		t.keys = append(t.keys, key)
	}
	t.sums[key] = cur.Add(v)
}

// Len returns the number of distinct keys.
func (t *Totals) Len() int {
	return len(t.keys)
}

// Get returns the sum accumulated for key.
func (t *Totals) Get(key string) decimal.Decimal {
	return t.sums[key]
}

// Top returns the key with the largest sum. Ties go to the key that sorts
// first.
func (t *Totals) Top() (string, decimal.Decimal) {
	best, bestSum := "", decimal.Zero
	for _, k := range t.keys {
		s := t.sums[k]
		if best == "" || s.GreaterThan(bestSum) || (s.Equal(bestSum) && k < best) {
			best, bestSum = k, s
		}
	}
	return best, bestSum
}

// Sorted returns the keys by sum, largest first, ties by key.
func (t *Totals) Sorted() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := t.sums[out[i]], t.sums[out[j]]
		if !a.Equal(b) {
			return a.GreaterThan(b)
		}
		return out[i] < out[j]
	})
	return out
}
