package simfin

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mauv0809/simfin-analysis/internal/models"
	"github.com/shopspring/decimal"
)

// Column names of the SimFin bulk CSV files.
const (
	colTicker          = "Ticker"
	colFiscalYear      = "Fiscal Year"
	colFiscalPeriod    = "Fiscal Period"
	colPublishDate     = "Publish Date"
	colSharesBasic     = "Shares (Basic)"
	colRevenue         = "Revenue"
	colCostOfRevenue   = "Cost of Revenue"
	colGrossProfit     = "Gross Profit"
	colOperatingExp    = "Operating Expenses"
	colOperatingIncome = "Operating Income (Loss)"
	colNetIncome       = "Net Income"
	colCash            = "Cash, Cash Equivalents & Short Term Investments"
	colCurrentAssets   = "Total Current Assets"
	colTotalAssets     = "Total Assets"
	colCurrentLiab     = "Total Current Liabilities"
	colTotalLiab       = "Total Liabilities"
	colTotalEquity     = "Total Equity"
	colDate            = "Date"
	colClose           = "Close"
)

// newReader returns a reader for a semicolon-separated SimFin file and the
// column index of its header row.
func newReader(r io.Reader, required ...string) (*csv.Reader, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("empty dataset")
		}
		return nil, nil, fmt.Errorf("reading header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		idx[strings.TrimSpace(name)] = i
	}

	for _, col := range append([]string{colTicker}, required...) {
		if _, ok := idx[col]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", col)
		}
	}
	return cr, idx, nil
}

// getString safely extracts a trimmed field from a record.
func getString(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// getDecimal extracts a decimal; blank or malformed fields are null.
func getDecimal(row []string, idx map[string]int, col string) decimal.NullDecimal {
	s := getString(row, idx, col)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// getTime extracts a date (expects YYYY-MM-DD format).
func getTime(row []string, idx map[string]int, col string) *time.Time {
	s := getString(row, idx, col)
	if s == "" {
		return nil
	}
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
	}
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return &t
		}
	}
	return nil
}

// ParseStatements reads the income statement rows of one ticker.
// Ticker matching is exact and case-sensitive.
func ParseStatements(r io.Reader, ticker string) ([]models.StatementRow, error) {
	cr, idx, err := newReader(r, colFiscalYear)
	if err != nil {
		return nil, err
	}

	var rows []models.StatementRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading statements: %w", err)
		}
		if getString(rec, idx, colTicker) != ticker {
			continue
		}

		year, err := strconv.Atoi(getString(rec, idx, colFiscalYear))
		if err != nil {
			continue // Skip rows without a fiscal year
		}

		rows = append(rows, models.StatementRow{
			Ticker:            ticker,
			FiscalYear:        year,
			FiscalPeriod:      getString(rec, idx, colFiscalPeriod),
			Revenue:           getDecimal(rec, idx, colRevenue),
			CostOfRevenue:     getDecimal(rec, idx, colCostOfRevenue),
			GrossProfit:       getDecimal(rec, idx, colGrossProfit),
			OperatingExpenses: getDecimal(rec, idx, colOperatingExp),
			OperatingIncome:   getDecimal(rec, idx, colOperatingIncome),
			NetIncome:         getDecimal(rec, idx, colNetIncome),
			SharesBasic:       getDecimal(rec, idx, colSharesBasic),
			PublishDate:       getTime(rec, idx, colPublishDate),
		})
	}

	return rows, nil
}

// ParseBalance reads the balance sheet rows of one ticker.
func ParseBalance(r io.Reader, ticker string) ([]models.BalanceRow, error) {
	cr, idx, err := newReader(r, colFiscalYear, colTotalAssets)
	if err != nil {
		return nil, err
	}

	var rows []models.BalanceRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading balance sheets: %w", err)
		}
		if getString(rec, idx, colTicker) != ticker {
			continue
		}

		year, err := strconv.Atoi(getString(rec, idx, colFiscalYear))
		if err != nil {
			continue
		}

		rows = append(rows, models.BalanceRow{
			Ticker:             ticker,
			FiscalYear:         year,
			FiscalPeriod:       getString(rec, idx, colFiscalPeriod),
			PublishDate:        getTime(rec, idx, colPublishDate),
			SharesBasic:        getDecimal(rec, idx, colSharesBasic),
			Cash:               getDecimal(rec, idx, colCash),
			CurrentAssets:      getDecimal(rec, idx, colCurrentAssets),
			TotalAssets:        getDecimal(rec, idx, colTotalAssets),
			CurrentLiabilities: getDecimal(rec, idx, colCurrentLiab),
			TotalLiabilities:   getDecimal(rec, idx, colTotalLiab),
			TotalEquity:        getDecimal(rec, idx, colTotalEquity),
		})
	}

	return rows, nil
}

// ParsePrices reads the daily closes of one ticker. Days without a close are
// skipped.
func ParsePrices(r io.Reader, ticker string) ([]models.PriceRow, error) {
	cr, idx, err := newReader(r, colDate, colClose)
	if err != nil {
		return nil, err
	}

	var rows []models.PriceRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading share prices: %w", err)
		}
		if getString(rec, idx, colTicker) != ticker {
			continue
		}

		date := getTime(rec, idx, colDate)
		closePrice := getDecimal(rec, idx, colClose)
		if date == nil || !closePrice.Valid {
			continue
		}

		rows = append(rows, models.PriceRow{
			Ticker: ticker,
			Date:   *date,
			Close:  closePrice.Decimal,
		})
	}

	return rows, nil
}
