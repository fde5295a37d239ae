package present

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

type tableColumn struct {
	header string
	value  func(models.FiscalYearRatios) decimal.NullDecimal
}

var tableColumns = []tableColumn{
	{"GROSS %", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.GrossMargin }},
	{"OPER %", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.OperatingMargin }},
	{"NET %", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.NetMargin }},
	{"AVG PRICE", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.AverageSharePrice }},
	{"EPS", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.EPS }},
	{"P/E", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.PERatio }},
	{"BEFORE", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.PriceBeforeReport }},
	{"AFTER", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.PriceAfterReport }},
	{"CAGR %", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.CAGRPct }},
	{"VOL %", func(r models.FiscalYearRatios) decimal.NullDecimal { return r.VolatilityPct }},
}

// WriteTable renders the ratio table for a terminal. Undefined ratios print
// as "-" and negative values are colored red when color is set.
func WriteTable(w io.Writer, rows []models.FiscalYearRatios, color bool) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Options.SeparateRows = false

	hdr := table.Row{"YEAR", "PERIOD", "PUBLISHED"}
	for _, c := range tableColumns {
		hdr = append(hdr, c.header)
	}
	tw.AppendHeader(hdr)

	cfgs := make([]table.ColumnConfig, 0, len(tableColumns))
	for i := range tableColumns {
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 4, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.SetColumnConfigs(cfgs)

	for _, r := range rows {
		published := "-"
		if r.PublishDate != nil {
			published = r.PublishDate.Format("2006-01-02")
		}
		row := table.Row{strconv.Itoa(r.FiscalYear), r.FiscalPeriod, published}
		for _, c := range tableColumns {
			v := c.value(r)
			cell := "-"
			if v.Valid {
				cell = v.Decimal.StringFixed(2)
				if color && v.Decimal.IsNegative() {
					cell = text.Colors{text.FgRed}.Sprint(cell)
				}
			}
			row = append(row, cell)
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

var balanceColumns = []struct {
	header string
	value  func(models.BalanceRow) decimal.NullDecimal
}{
	{"CASH", func(r models.BalanceRow) decimal.NullDecimal { return r.Cash }},
	{"CUR ASSETS", func(r models.BalanceRow) decimal.NullDecimal { return r.CurrentAssets }},
	{"ASSETS", func(r models.BalanceRow) decimal.NullDecimal { return r.TotalAssets }},
	{"CUR LIAB", func(r models.BalanceRow) decimal.NullDecimal { return r.CurrentLiabilities }},
	{"LIAB", func(r models.BalanceRow) decimal.NullDecimal { return r.TotalLiabilities }},
	{"EQUITY", func(r models.BalanceRow) decimal.NullDecimal { return r.TotalEquity }},
	{"SHARES", func(r models.BalanceRow) decimal.NullDecimal { return r.SharesBasic }},
}

// WriteBalanceTable renders balance sheet rows in millions.
func WriteBalanceTable(w io.Writer, rows []models.BalanceRow) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)

	hdr := table.Row{"YEAR", "PERIOD", "PUBLISHED"}
	cfgs := make([]table.ColumnConfig, 0, len(balanceColumns))
	for i, c := range balanceColumns {
		hdr = append(hdr, c.header)
		cfgs = append(cfgs, table.ColumnConfig{Number: i + 4, Align: text.AlignRight, AlignHeader: text.AlignRight})
	}
	tw.AppendHeader(hdr)
	tw.SetColumnConfigs(cfgs)
	tw.SetCaption("amounts in millions")

	for _, r := range rows {
		published := "-"
		if r.PublishDate != nil {
			published = r.PublishDate.Format("2006-01-02")
		}
		row := table.Row{strconv.Itoa(r.FiscalYear), r.FiscalPeriod, published}
		for _, c := range balanceColumns {
			v := c.value(r)
			if !v.Valid {
				row = append(row, "-")
				continue
			}
			row = append(row, v.Decimal.Shift(-6).StringFixed(1))
		}
		tw.AppendRow(row)
	}
	tw.Render()
}

// WriteJSON writes the ratio table as indented JSON records.
func WriteJSON(w io.Writer, rows []models.FiscalYearRatios) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(Records(rows))
}
