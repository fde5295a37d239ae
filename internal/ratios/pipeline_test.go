package ratios

import (
	"testing"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func num(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func assertDecimal(t *testing.T, want string, got decimal.NullDecimal, field string) {
	t.Helper()
	require.True(t, got.Valid, "%s should be set", field)
	assert.True(t, got.Decimal.Equal(decimal.RequireFromString(want)), "%s = %s, want %s", field, got.Decimal, want)
}

func statement(year int, revenue, gross, operating, net, shares string, published time.Time) models.StatementRow {
	return models.StatementRow{
		Ticker:          "TEST",
		FiscalYear:      year,
		FiscalPeriod:    "FY",
		Revenue:         num(revenue),
		GrossProfit:     num(gross),
		OperatingIncome: num(operating),
		NetIncome:       num(net),
		SharesBasic:     num(shares),
		PublishDate:     &published,
	}
}

// prices2021 alternates 48 and 52 on consecutive days so that the 2021
// average is exactly 50, then quotes 52 on 2022-01-10.
func prices2021() []models.PriceRow {
	var rows []models.PriceRow
	d := date(2021, time.January, 4)
	for i := 0; i < 200; i++ {
		c := "48"
		if i%2 == 1 {
			c = "52"
		}
		rows = append(rows, models.PriceRow{Ticker: "TEST", Date: d, Close: decimal.RequireFromString(c)})
		d = d.AddDate(0, 0, 1)
	}
	rows = append(rows, models.PriceRow{Ticker: "TEST", Date: date(2022, time.January, 10), Close: decimal.NewFromInt(52)})
	return rows
}

func TestComputeSyntheticSeries(t *testing.T) {
	statements := []models.StatementRow{
		statement(2021, "100", "40", "10", "5", "10", date(2022, time.January, 10)),
	}

	rows := Compute(statements, prices2021())
	require.Len(t, rows, 1)

	r := rows[0]
	assert.Equal(t, 2021, r.FiscalYear)
	assertDecimal(t, "40", r.GrossMargin, "gross_margin")
	assertDecimal(t, "10", r.OperatingMargin, "operating_margin")
	assertDecimal(t, "5", r.NetMargin, "net_margin")
	assertDecimal(t, "50", r.AverageSharePrice, "average_share_price")
	assertDecimal(t, "0.5", r.EPS, "eps")
	assertDecimal(t, "100", r.PERatio, "pe_ratio")
	assertDecimal(t, "52", r.PriceBeforeReport, "price_before_report")
	assertDecimal(t, "52", r.PriceAfterReport, "price_after_report")
	assertDecimal(t, "0", r.CAGR, "cagr")
	assertDecimal(t, "0", r.CAGRPct, "cagr_pct")
	assert.True(t, r.VolatilityPct.Valid)
}

func TestComputeDropsIncompleteRows(t *testing.T) {
	incomplete := statement(2020, "100", "40", "10", "5", "10", date(2021, time.February, 1))
	incomplete.GrossProfit = decimal.NullDecimal{}

	rows := Compute([]models.StatementRow{
		incomplete,
		statement(2021, "100", "40", "10", "5", "10", date(2022, time.January, 10)),
	}, prices2021())

	require.Len(t, rows, 1)
	assert.Equal(t, 2021, rows[0].FiscalYear)
}

func TestComputeNoStatements(t *testing.T) {
	rows := Compute(nil, prices2021())
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestComputeSortsByFiscalYearAndCAGR(t *testing.T) {
	var prices []models.PriceRow
	for year, closes := range map[int][]string{
		2019: {"100", "100"},
		2020: {"110", "110"},
		2021: {"121", "121"},
	} {
		for i, c := range closes {
			prices = append(prices, models.PriceRow{Date: date(year, time.March, 1+i), Close: decimal.RequireFromString(c)})
		}
	}

	statements := []models.StatementRow{
		statement(2021, "100", "40", "10", "5", "10", date(2022, time.February, 1)),
		statement(2019, "100", "40", "10", "5", "10", date(2020, time.February, 1)),
		statement(2020, "100", "40", "10", "5", "10", date(2021, time.February, 1)),
	}

	rows := Compute(statements, prices)
	require.Len(t, rows, 3)
	assert.Equal(t, []int{2019, 2020, 2021}, []int{rows[0].FiscalYear, rows[1].FiscalYear, rows[2].FiscalYear})

	assertDecimal(t, "0", rows[0].CAGR, "cagr 2019")
	assertDecimal(t, "0.1", rows[1].CAGR, "cagr 2020")
	assertDecimal(t, "0.1", rows[2].CAGR, "cagr 2021")
	assertDecimal(t, "10", rows[2].CAGRPct, "cagr_pct 2021")
}

func TestComputeFiscalYearWithoutPrices(t *testing.T) {
	statements := []models.StatementRow{
		statement(2021, "100", "40", "10", "5", "10", date(2022, time.January, 10)),
		statement(2023, "100", "40", "10", "5", "10", date(2024, time.January, 10)),
	}

	rows := Compute(statements, prices2021())
	require.Len(t, rows, 2)

	r := rows[1]
	assert.False(t, r.AverageSharePrice.Valid)
	assert.False(t, r.PERatio.Valid)
	assert.False(t, r.VolatilityPct.Valid)
	assertDecimal(t, "0.5", r.EPS, "eps")
	assertDecimal(t, "0", r.CAGR, "cagr")

	// The last quote precedes the 2024 publish date.
	assertDecimal(t, "52", r.PriceBeforeReport, "price_before_report")
	assert.False(t, r.PriceAfterReport.Valid)
}

func TestComputeUndefinedRatiosAreNull(t *testing.T) {
	zeroRevenue := statement(2021, "0", "0", "-5", "-5", "10", date(2022, time.January, 10))
	zeroEarnings := statement(2021, "100", "40", "0", "0", "10", date(2022, time.January, 10))
	noShares := statement(2021, "100", "40", "10", "5", "0", date(2022, time.January, 10))
	noShares.SharesBasic = decimal.NullDecimal{}

	rows := Compute([]models.StatementRow{zeroRevenue, zeroEarnings, noShares}, prices2021())
	require.Len(t, rows, 3)

	assert.False(t, rows[0].GrossMargin.Valid)
	assert.False(t, rows[0].OperatingMargin.Valid)
	assert.False(t, rows[0].NetMargin.Valid)

	assertDecimal(t, "0", rows[1].EPS, "eps")
	assert.False(t, rows[1].PERatio.Valid, "zero EPS leaves PE undefined")

	assert.False(t, rows[2].EPS.Valid)
	assert.False(t, rows[2].PERatio.Valid)
}

func TestComputeMissingPublishDate(t *testing.T) {
	s := statement(2021, "100", "40", "10", "5", "10", date(2022, time.January, 10))
	s.PublishDate = nil

	rows := Compute([]models.StatementRow{s}, prices2021())
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].PublishDate)
	assert.False(t, rows[0].PriceBeforeReport.Valid)
	assert.False(t, rows[0].PriceAfterReport.Valid)
}

func TestComputeOrdersQuarters(t *testing.T) {
	q := func(period string) models.StatementRow {
		s := statement(2021, "100", "40", "10", "5", "10", date(2022, time.January, 10))
		s.FiscalPeriod = period
		return s
	}

	rows := Compute([]models.StatementRow{q("Q3"), q("Q1"), q("Q4"), q("Q2")}, prices2021())
	require.Len(t, rows, 4)
	for i, want := range []string{"Q1", "Q2", "Q3", "Q4"} {
		assert.Equal(t, want, rows[i].FiscalPeriod)
	}
}

func TestComputeRoundsToTwoDecimals(t *testing.T) {
	s := statement(2021, "3", "1", "1", "1", "3", date(2022, time.January, 10))

	rows := Compute([]models.StatementRow{s}, prices2021())
	require.Len(t, rows, 1)
	assertDecimal(t, "33.33", rows[0].GrossMargin, "gross_margin")
	assertDecimal(t, "0.33", rows[0].EPS, "eps")
	assertDecimal(t, "150", rows[0].PERatio, "pe_ratio")
}

func TestComputeRoundsHalfToEven(t *testing.T) {
	s := statement(2021, "800", "1", "3", "1", "8", date(2022, time.January, 10))

	rows := Compute([]models.StatementRow{s}, prices2021())
	require.Len(t, rows, 1)
	assertDecimal(t, "0.12", rows[0].GrossMargin, "gross_margin")
	assertDecimal(t, "0.38", rows[0].OperatingMargin, "operating_margin")
	assertDecimal(t, "0.12", rows[0].EPS, "eps")
}
