package core

import (
	"math"

	"github.com/shopspring/decimal"
)

// Total returns the sum of quantity × rate over items. An empty slice totals 0.
//
// Products and the running sum are kept as exact decimals, so the result does
// not depend on the order of items. No currency rounding is applied.
func Total(items []LineItem) float64 {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(LineAmount(it))
	}
	return sum.InexactFloat64()
}

// LineAmount is quantity × rate for a single item as an exact decimal.
// Non-finite fields count as 0.
func LineAmount(it LineItem) decimal.Decimal {
	q := decimal.NewFromFloat(finite(it.Quantity))
	r := decimal.NewFromFloat(finite(it.Rate))
	return q.Mul(r)
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
