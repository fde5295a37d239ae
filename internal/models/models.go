package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementRow is one reporting period of one company's income statement.
// Quantities the provider leaves blank are invalid NullDecimals.
type StatementRow struct {
	Ticker            string              `json:"ticker"`
	FiscalYear        int                 `json:"fiscal_year"`
	FiscalPeriod      string              `json:"fiscal_period"` // FY, Q1..Q4
	Revenue           decimal.NullDecimal `json:"revenue"`
	CostOfRevenue     decimal.NullDecimal `json:"cost_of_revenue"`
	GrossProfit       decimal.NullDecimal `json:"gross_profit"`
	OperatingExpenses decimal.NullDecimal `json:"operating_expenses"`
	OperatingIncome   decimal.NullDecimal `json:"operating_income"`
	NetIncome         decimal.NullDecimal `json:"net_income"`
	SharesBasic       decimal.NullDecimal `json:"shares_basic"`
	PublishDate       *time.Time          `json:"publish_date"`
}

// Complete reports whether the row carries every quantity the margin
// computation needs.
func (r StatementRow) Complete() bool {
	return r.Revenue.Valid && r.GrossProfit.Valid && r.OperatingIncome.Valid && r.NetIncome.Valid
}

// BalanceRow is one reporting period of one company's balance sheet.
type BalanceRow struct {
	Ticker             string              `json:"ticker"`
	FiscalYear         int                 `json:"fiscal_year"`
	FiscalPeriod       string              `json:"fiscal_period"`
	PublishDate        *time.Time          `json:"publish_date"`
	SharesBasic        decimal.NullDecimal `json:"shares_basic"`
	Cash               decimal.NullDecimal `json:"cash"`
	CurrentAssets      decimal.NullDecimal `json:"current_assets"`
	TotalAssets        decimal.NullDecimal `json:"total_assets"`
	CurrentLiabilities decimal.NullDecimal `json:"current_liabilities"`
	TotalLiabilities   decimal.NullDecimal `json:"total_liabilities"`
	TotalEquity        decimal.NullDecimal `json:"total_equity"`
}

// PriceRow is one trading day of one ticker.
type PriceRow struct {
	Ticker string          `json:"ticker"`
	Date   time.Time       `json:"date"`
	Close  decimal.Decimal `json:"close"`
}

// FiscalYearRatios is one row of the derived ratio table.
// Every ratio is nullable: an undefined ratio is an invalid NullDecimal,
// never an error.
type FiscalYearRatios struct {
	FiscalYear   int        `json:"fiscal_year"`
	FiscalPeriod string     `json:"fiscal_period"`
	PublishDate  *time.Time `json:"publish_date"`

	Revenue           decimal.NullDecimal `json:"revenue"`
	CostOfRevenue     decimal.NullDecimal `json:"cost_of_revenue"`
	GrossProfit       decimal.NullDecimal `json:"gross_profit"`
	OperatingExpenses decimal.NullDecimal `json:"operating_expenses"`
	OperatingIncome   decimal.NullDecimal `json:"operating_income"`
	NetIncome         decimal.NullDecimal `json:"net_income"`
	SharesBasic       decimal.NullDecimal `json:"shares_basic"`

	GrossMargin       decimal.NullDecimal `json:"gross_margin"`
	OperatingMargin   decimal.NullDecimal `json:"operating_margin"`
	NetMargin         decimal.NullDecimal `json:"net_margin"`
	AverageSharePrice decimal.NullDecimal `json:"average_share_price"`
	EPS               decimal.NullDecimal `json:"eps"`
	PERatio           decimal.NullDecimal `json:"pe_ratio"`
	PriceBeforeReport decimal.NullDecimal `json:"price_before_report"`
	PriceAfterReport  decimal.NullDecimal `json:"price_after_report"`
	CAGR              decimal.NullDecimal `json:"cagr"`
	CAGRPct           decimal.NullDecimal `json:"cagr_pct"`
	VolatilityPct     decimal.NullDecimal `json:"volatility_pct"`
}
