package ratios

import (
	"math"
	"sort"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

// TradingDaysPerYear annualizes daily volatility.
const TradingDaysPerYear = 252

// SortByDate returns a copy of prices ordered by trading date.
func SortByDate(prices []models.PriceRow) []models.PriceRow {
	sorted := make([]models.PriceRow, len(prices))
	copy(sorted, prices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// AveragePriceByYear returns the mean close per calendar year.
func AveragePriceByYear(prices []models.PriceRow) map[int]decimal.Decimal {
	sums := make(map[int]decimal.Decimal)
	counts := make(map[int]int64)
	for _, p := range prices {
		y := p.Date.Year()
		sums[y] = sums[y].Add(p.Close)
		counts[y]++
	}

	avg := make(map[int]decimal.Decimal, len(sums))
	for y, sum := range sums {
		avg[y] = sum.Div(decimal.NewFromInt(counts[y]))
	}
	return avg
}

// PriceAtOrBefore returns the last close on or before date.
// prices must be sorted by date.
func PriceAtOrBefore(prices []models.PriceRow, date time.Time) decimal.NullDecimal {
	d := day(date)
	i := sort.Search(len(prices), func(i int) bool {
		return day(prices[i].Date).After(d)
	})
	if i == 0 {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(prices[i-1].Close)
}

// PriceAtOrAfter returns the first close on or after date.
// prices must be sorted by date.
func PriceAtOrAfter(prices []models.PriceRow, date time.Time) decimal.NullDecimal {
	d := day(date)
	i := sort.Search(len(prices), func(i int) bool {
		return !day(prices[i].Date).Before(d)
	})
	if i == len(prices) {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(prices[i].Close)
}

// VolatilityByYear returns the annualized volatility of daily returns per
// calendar year, in percent. Returns never span a year boundary. Years with
// fewer than two returns have no entry. prices must be sorted by date.
func VolatilityByYear(prices []models.PriceRow) map[int]decimal.Decimal {
	returns := make(map[int][]float64)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev.Date.Year() != cur.Date.Year() || prev.Close.IsZero() {
			continue
		}
		r := cur.Close.Sub(prev.Close).Div(prev.Close).InexactFloat64()
		returns[cur.Date.Year()] = append(returns[cur.Date.Year()], r)
	}

	vol := make(map[int]decimal.Decimal, len(returns))
	for y, rs := range returns {
		sd, ok := sampleStddev(rs)
		if !ok {
			continue
		}
		vol[y] = decimal.NewFromFloat(sd * math.Sqrt(TradingDaysPerYear) * 100)
	}
	return vol
}

// sampleStddev is the n-1 standard deviation; undefined below two values.
func sampleStddev(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}
	variance /= float64(len(values) - 1)

	sd := math.Sqrt(variance)
	if math.IsNaN(sd) || math.IsInf(sd, 0) {
		return 0, false
	}
	return sd, true
}

func day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
