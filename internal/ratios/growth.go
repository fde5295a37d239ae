package ratios

import (
	"math"

	"github.com/shopspring/decimal"
)

// CAGR returns the compound annual growth rate from basePrice to price over
// years. The base year itself (years == 0) and rows without a usable price
// grow by 0. A missing or zero base price leaves the rate undefined.
func CAGR(price, basePrice decimal.NullDecimal, years int) decimal.NullDecimal {
	if years <= 0 || zeroOrNull(price) {
		return decimal.NewNullDecimal(decimal.Zero)
	}
	if zeroOrNull(basePrice) {
		return decimal.NullDecimal{}
	}

	ratio := price.Decimal.Div(basePrice.Decimal).InexactFloat64()
	v := math.Pow(ratio, 1/float64(years)) - 1
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(decimal.NewFromFloat(v))
}
