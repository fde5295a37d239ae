package ratios

import (
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Margins returns the gross, operating and net margin of a statement row in
// percent of revenue. Incomplete rows and rows with zero revenue yield null
// margins.
func Margins(r models.StatementRow) (gross, operating, net decimal.NullDecimal) {
	if !r.Complete() || r.Revenue.Decimal.IsZero() {
		return
	}
	revenue := r.Revenue.Decimal
	return percentOf(r.GrossProfit.Decimal, revenue),
		percentOf(r.OperatingIncome.Decimal, revenue),
		percentOf(r.NetIncome.Decimal, revenue)
}

func percentOf(part, whole decimal.Decimal) decimal.NullDecimal {
	return decimal.NewNullDecimal(part.Div(whole).Mul(hundred))
}

// EPS returns net income per basic share, null when the share count is zero
// or missing.
func EPS(netIncome, sharesBasic decimal.NullDecimal) decimal.NullDecimal {
	if !netIncome.Valid || zeroOrNull(sharesBasic) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(netIncome.Decimal.Div(sharesBasic.Decimal))
}

// PE returns the price/earnings ratio of an average share price.
func PE(averagePrice, eps decimal.NullDecimal) decimal.NullDecimal {
	// A reported EPS of exactly zero is treated like a missing one: both
	// leave the ratio undefined.
	if zeroOrNull(eps) || !averagePrice.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(averagePrice.Decimal.Div(eps.Decimal))
}

// zeroOrNull is true for a missing value and for a present value of zero.
func zeroOrNull(d decimal.NullDecimal) bool {
	return !d.Valid || d.Decimal.IsZero()
}
