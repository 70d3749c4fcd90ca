// Package pricing estimates the resale value range of a scrap listing.
package pricing

import (
	"fmt"
	"math"

	"scrapconnect/sync-client/internal/model"
)

// DefaultRate applies to categories without a dedicated base rate.
const DefaultRate = 5

// baseRates are rupees per unit.
var baseRates = map[model.Category]float64{
	model.CategoryPaper:       3,
	model.CategoryPlastic:     12,
	model.CategoryMetal:       45,
	model.CategoryElectronics: 150,
	model.CategoryGlass:       2,
	model.CategoryCardboard:   4,
}

// Range is an inclusive price estimate in whole rupees.
type Range struct {
	Min int64 `json:"min"`
	Max int64 `json:"max"`
}

// String formats the range the way listings display it, e.g. "₹120-180".
func (r Range) String() string {
	return fmt.Sprintf("₹%d-%d", r.Min, r.Max)
}

// BaseRate returns the per-unit rate for category.
func BaseRate(category model.Category) float64 {
	if rate, ok := baseRates[category]; ok {
		return rate
	}
	return DefaultRate
}

// maxRupees bounds an estimate so it stays exactly representable and never overflows int64.
const maxRupees = 1 << 53

// Estimate returns [round(0.8·v), round(1.2·v)] where v = BaseRate(category) × quantity.
// Negative or NaN quantities are treated as zero; huge or infinite ones saturate.
func Estimate(category model.Category, quantity float64) Range {
	if quantity < 0 || math.IsNaN(quantity) {
		quantity = 0
	}
	value := BaseRate(category) * quantity
	return Range{
		Min: rupees(value * 0.8),
		Max: rupees(value * 1.2),
	}
}

func rupees(v float64) int64 {
	v = math.Round(v)
	if v >= maxRupees {
		return maxRupees
	}
	return int64(v)
}
