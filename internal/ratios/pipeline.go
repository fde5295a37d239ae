// Package ratios derives per-fiscal-year financial ratios from income
// statement rows and daily share prices. It is pure: no I/O, no logging.
package ratios

import (
	"sort"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

// Compute builds the ratio table for one ticker.
//
// Incomplete statement rows are dropped. Price-derived fields join on
// fiscal year == calendar year of trading; fiscal years without prices keep
// null price fields. The result is sorted by fiscal year (then fiscal
// period) and every numeric field is rounded to 2 decimals.
func Compute(statements []models.StatementRow, prices []models.PriceRow) []models.FiscalYearRatios {
	series := SortByDate(prices)
	avgByYear := AveragePriceByYear(series)

	rows := make([]models.FiscalYearRatios, 0, len(statements))
	for _, s := range statements {
		if !s.Complete() {
			continue
		}

		r := models.FiscalYearRatios{
			FiscalYear:        s.FiscalYear,
			FiscalPeriod:      s.FiscalPeriod,
			Revenue:           s.Revenue,
			CostOfRevenue:     s.CostOfRevenue,
			GrossProfit:       s.GrossProfit,
			OperatingExpenses: s.OperatingExpenses,
			OperatingIncome:   s.OperatingIncome,
			NetIncome:         s.NetIncome,
			SharesBasic:       s.SharesBasic,
		}
		r.GrossMargin, r.OperatingMargin, r.NetMargin = Margins(s)

		if avg, ok := avgByYear[s.FiscalYear]; ok {
			r.AverageSharePrice = decimal.NewNullDecimal(avg)
		}
		r.EPS = EPS(s.NetIncome, s.SharesBasic)
		r.PERatio = PE(r.AverageSharePrice, r.EPS)

		if s.PublishDate != nil {
			published := *s.PublishDate
			r.PublishDate = &published
			r.PriceBeforeReport = PriceAtOrBefore(series, published)
			r.PriceAfterReport = PriceAtOrAfter(series, published)
		}

		rows = append(rows, r)
	}
	if len(rows) == 0 {
		return rows
	}

	sortRows(rows)

	// rows[0] is the earliest fiscal year after sorting.
	base := rows[0]
	for i := range rows {
		rows[i].CAGR = CAGR(rows[i].AverageSharePrice, base.AverageSharePrice, rows[i].FiscalYear-base.FiscalYear)
		if rows[i].CAGR.Valid {
			rows[i].CAGRPct = decimal.NewNullDecimal(rows[i].CAGR.Decimal.Mul(hundred))
		}
	}

	volByYear := VolatilityByYear(series)
	for i := range rows {
		if v, ok := volByYear[rows[i].FiscalYear]; ok {
			rows[i].VolatilityPct = decimal.NewNullDecimal(v)
		}
	}

	for i := range rows {
		roundRow(&rows[i])
	}
	return rows
}

func sortRows(rows []models.FiscalYearRatios) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].FiscalYear != rows[j].FiscalYear {
			return rows[i].FiscalYear < rows[j].FiscalYear
		}
		return periodRank(rows[i].FiscalPeriod) < periodRank(rows[j].FiscalPeriod)
	})
}

func periodRank(period string) int {
	switch period {
	case "Q1":
		return 1
	case "Q2":
		return 2
	case "Q3":
		return 3
	case "Q4":
		return 4
	case "FY":
		return 5
	}
	return 6
}

func roundRow(r *models.FiscalYearRatios) {
	for _, f := range []*decimal.NullDecimal{
		&r.Revenue, &r.CostOfRevenue, &r.GrossProfit, &r.OperatingExpenses,
		&r.OperatingIncome, &r.NetIncome, &r.SharesBasic,
		&r.GrossMargin, &r.OperatingMargin, &r.NetMargin,
		&r.AverageSharePrice, &r.EPS, &r.PERatio,
		&r.PriceBeforeReport, &r.PriceAfterReport,
		&r.CAGR, &r.CAGRPct, &r.VolatilityPct,
	} {
		if f.Valid {
			f.Decimal = f.Decimal.RoundBank(2)
		}
	}
}

