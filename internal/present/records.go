// Package present turns ratio tables into JSON records, charts and terminal
// tables.
package present

import (
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

// Record is the JSON shape of one ratio row. Undefined ratios are null.
type Record struct {
	FiscalYear   int     `json:"fiscal_year"`
	FiscalPeriod string  `json:"fiscal_period"`
	PublishDate  *string `json:"publish_date"`

	Revenue           *float64 `json:"revenue"`
	CostOfRevenue     *float64 `json:"cost_of_revenue"`
	GrossProfit       *float64 `json:"gross_profit"`
	OperatingExpenses *float64 `json:"operating_expenses"`
	OperatingIncome   *float64 `json:"operating_income"`
	NetIncome         *float64 `json:"net_income"`
	SharesBasic       *float64 `json:"shares_basic"`

	GrossMargin       *float64 `json:"gross_margin"`
	OperatingMargin   *float64 `json:"operating_margin"`
	NetMargin         *float64 `json:"net_margin"`
	AverageSharePrice *float64 `json:"average_share_price"`
	EPS               *float64 `json:"eps"`
	PERatio           *float64 `json:"pe_ratio"`
	PriceBeforeReport *float64 `json:"price_before_report"`
	PriceAfterReport  *float64 `json:"price_after_report"`
	CAGR              *float64 `json:"cagr"`
	CAGRPct           *float64 `json:"cagr_pct"`
	VolatilityPct     *float64 `json:"volatility_pct"`
}

// Records converts a ratio table into JSON records, preserving order.
func Records(rows []models.FiscalYearRatios) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		rec := Record{
			FiscalYear:        r.FiscalYear,
			FiscalPeriod:      r.FiscalPeriod,
			Revenue:           float(r.Revenue),
			CostOfRevenue:     float(r.CostOfRevenue),
			GrossProfit:       float(r.GrossProfit),
			OperatingExpenses: float(r.OperatingExpenses),
			OperatingIncome:   float(r.OperatingIncome),
			NetIncome:         float(r.NetIncome),
			SharesBasic:       float(r.SharesBasic),
			GrossMargin:       float(r.GrossMargin),
			OperatingMargin:   float(r.OperatingMargin),
			NetMargin:         float(r.NetMargin),
			AverageSharePrice: float(r.AverageSharePrice),
			EPS:               float(r.EPS),
			PERatio:           float(r.PERatio),
			PriceBeforeReport: float(r.PriceBeforeReport),
			PriceAfterReport:  float(r.PriceAfterReport),
			CAGR:              float(r.CAGR),
			CAGRPct:           float(r.CAGRPct),
			VolatilityPct:     float(r.VolatilityPct),
		}
		if r.PublishDate != nil {
			s := r.PublishDate.Format("2006-01-02")
			rec.PublishDate = &s
		}
		out = append(out, rec)
	}
	return out
}

func float(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}
