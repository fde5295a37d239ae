package ratios

import (
	"testing"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func series(points map[time.Time]string) []models.PriceRow {
	rows := make([]models.PriceRow, 0, len(points))
	for d, c := range points {
		rows = append(rows, models.PriceRow{Date: d, Close: decimal.RequireFromString(c)})
	}
	return SortByDate(rows)
}

func TestPriceLookups(t *testing.T) {
	prices := series(map[time.Time]string{
		date(2022, time.January, 3): "10",
		date(2022, time.January, 5): "12",
	})

	tests := []struct {
		name   string
		date   time.Time
		before string // "" means null
		after  string
	}{
		{name: "between quotes", date: date(2022, time.January, 4), before: "10", after: "12"},
		{name: "on a trading day", date: date(2022, time.January, 3), before: "10", after: "10"},
		{name: "on the last trading day", date: date(2022, time.January, 5), before: "12", after: "12"},
		{name: "before the series", date: date(2021, time.December, 31), before: "", after: "10"},
		{name: "after the series", date: date(2022, time.January, 6), before: "12", after: ""},
		{name: "intraday timestamp", date: time.Date(2022, time.January, 5, 16, 30, 0, 0, time.UTC), before: "12", after: "12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := PriceAtOrBefore(prices, tt.date)
			after := PriceAtOrAfter(prices, tt.date)

			if tt.before == "" {
				assert.False(t, before.Valid)
			} else {
				assertDecimal(t, tt.before, before, "before")
			}
			if tt.after == "" {
				assert.False(t, after.Valid)
			} else {
				assertDecimal(t, tt.after, after, "after")
			}
		})
	}
}

func TestPriceLookupsEmptySeries(t *testing.T) {
	assert.False(t, PriceAtOrBefore(nil, date(2022, time.January, 3)).Valid)
	assert.False(t, PriceAtOrAfter(nil, date(2022, time.January, 3)).Valid)
}

func TestAveragePriceByYear(t *testing.T) {
	avg := AveragePriceByYear(series(map[time.Time]string{
		date(2020, time.June, 1):  "10",
		date(2020, time.June, 2):  "20",
		date(2021, time.March, 1): "7.5",
	}))

	require.Len(t, avg, 2)
	assert.True(t, avg[2020].Equal(decimal.NewFromInt(15)))
	assert.True(t, avg[2021].Equal(decimal.RequireFromString("7.5")))
}

func TestVolatilityByYear(t *testing.T) {
	vol := VolatilityByYear(series(map[time.Time]string{
		// two returns in 2020: +10% and -10%
		date(2020, time.June, 1): "100",
		date(2020, time.June, 2): "110",
		date(2020, time.June, 3): "99",
		// a single return in 2021 is not enough for a sample deviation
		date(2021, time.June, 1): "50",
		date(2021, time.June, 2): "55",
		// one trading day in 2022
		date(2022, time.June, 1): "60",
	}))

	require.Contains(t, vol, 2020)
	assert.InDelta(t, 224.4994432, vol[2020].InexactFloat64(), 1e-6)
	assert.NotContains(t, vol, 2021)
	assert.NotContains(t, vol, 2022)
}

func TestVolatilityConstantPrice(t *testing.T) {
	vol := VolatilityByYear(series(map[time.Time]string{
		date(2020, time.June, 1): "10",
		date(2020, time.June, 2): "10",
		date(2020, time.June, 3): "10",
	}))

	require.Contains(t, vol, 2020)
	assert.True(t, vol[2020].IsZero())
}

func TestCAGR(t *testing.T) {
	tests := []struct {
		name  string
		price decimal.NullDecimal
		base  decimal.NullDecimal
		years int
		want  *float64
	}{
		{name: "base year", price: num("150"), base: num("100"), years: 0, want: ptr(0)},
		{name: "10% over two years", price: num("121"), base: num("100"), years: 2, want: ptr(0.1)},
		{name: "decline", price: num("50"), base: num("100"), years: 1, want: ptr(-0.5)},
		{name: "missing price", price: decimal.NullDecimal{}, base: num("100"), years: 3, want: ptr(0)},
		{name: "zero price", price: num("0"), base: num("100"), years: 3, want: ptr(0)},
		{name: "missing base price", price: num("121"), base: decimal.NullDecimal{}, years: 2, want: nil},
		{name: "zero base price", price: num("121"), base: num("0"), years: 2, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CAGR(tt.price, tt.base, tt.years)
			if tt.want == nil {
				assert.False(t, got.Valid)
				return
			}
			require.True(t, got.Valid)
			assert.InDelta(t, *tt.want, got.Decimal.InexactFloat64(), 1e-9)
		})
	}
}

func TestPEZeroOrNullEPS(t *testing.T) {
	assert.False(t, PE(num("50"), num("0")).Valid)
	assert.False(t, PE(num("50"), decimal.NullDecimal{}).Valid)
	assert.False(t, PE(decimal.NullDecimal{}, num("2")).Valid)
	assertDecimal(t, "25", PE(num("50"), num("2")), "pe")
}

func ptr(v float64) *float64 { return &v }
